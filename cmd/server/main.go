package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agriconnect/backend/internal/api"
	"agriconnect/backend/internal/assistant"
	"agriconnect/backend/internal/models"
	"agriconnect/backend/internal/repository"
	"agriconnect/backend/internal/service"
	"agriconnect/backend/internal/ws"
	"agriconnect/backend/pkg/config"
	"agriconnect/backend/pkg/jwt"
	"agriconnect/backend/pkg/logger"
	"agriconnect/backend/pkg/secrets"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.New()

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	appLog := logger.New(logConfig)
	logger.SetGlobal(appLog)

	appLog.Info("starting AgriConnect server", "version", version())
	cfg.LogStartup(appLog)

	// Secrets: environment by default, Vault when VAULT_ADDR is set
	secretManager, err := secrets.NewManager(appLog)
	if err != nil {
		appLog.LogError(err, "failed to initialize secrets manager")
		os.Exit(1)
	}
	ctx := context.Background()
	jwtSecret := secretManager.GetSecretWithDefault(ctx, "jwt-secret", cfg.JWT.Secret)
	assistantKey := secretManager.GetSecretWithDefault(ctx, "huggingface-api-key", cfg.Assistant.APIKey)

	// Initialize database
	db, err := setupDatabase(cfg, appLog)
	if err != nil {
		appLog.LogError(err, "failed to setup database")
		os.Exit(1)
	}

	// Optional redis cache for chat history
	var cache *redis.Client
	if cfg.Redis.Enabled {
		cache = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := cache.Ping(ctx).Err(); err != nil {
			appLog.Warn("redis unreachable, continuing without history cache", "error", err.Error())
			cache = nil
		}
	}

	// Services
	jwtService := jwt.NewService(jwtSecret, cfg.JWT.Expiry)
	userService := service.NewUserService(repository.NewGormUserRepository(db), jwtService)
	messageService := service.NewMessageService(repository.NewGormMessageRepository(db), cache, appLog)
	responder := assistant.New(assistant.Config{
		APIKey:      assistantKey,
		ModelURL:    cfg.Assistant.ModelURL,
		CallTimeout: cfg.Assistant.CallTimeout,
	}, appLog)

	// One hub per chat namespace; membership never crosses between them
	privateHub := ws.NewHub(models.ChannelPrivate, appLog)
	communityHub := ws.NewHub(models.ChannelCommunity, appLog)
	go privateHub.Run()
	go communityHub.Run()

	privateHandler := ws.NewPrivateHandler(
		messageService, responder,
		cfg.Chat.PrivateHistoryLimit, cfg.Assistant.ReplyTimeout, appLog)
	communityHandler := ws.NewCommunityHandler(
		messageService, communityHub,
		cfg.Chat.CommunityHistoryLimit, appLog)

	engine := api.NewRouter(api.RouterDeps{
		Auth:             api.NewAuthHandler(userService, appLog),
		Health:           api.NewHealthHandler(db, version()),
		PrivateHub:       privateHub,
		PrivateHandler:   privateHandler,
		CommunityHub:     communityHub,
		CommunityHandler: communityHandler,
		Logger:           appLog,
		Config:           cfg,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: engine,
	}

	go func() {
		appLog.Info("server listening",
			"port", cfg.Server.Port,
			"private_chat", "/ws/private",
			"community_chat", "/ws/community",
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.LogError(err, "server failed")
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	appLog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.LogError(err, "shutdown failed")
		os.Exit(1)
	}
	appLog.Info("server shutdown complete")
}

// setupDatabase opens the postgres connection and runs migrations
func setupDatabase(cfg *config.Config, appLog *logger.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.User{}, &models.ChatMessage{}); err != nil {
		return nil, err
	}

	appLog.Info("database migrations completed")
	return db, nil
}

func version() string {
	if v := os.Getenv("APP_VERSION"); v != "" {
		return v
	}
	return "1.0.0"
}
