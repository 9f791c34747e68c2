package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agriconnect/backend/internal/models"
	"agriconnect/backend/internal/repository"
	"agriconnect/backend/internal/service"
	apperrors "agriconnect/backend/pkg/errors"
	"agriconnect/backend/pkg/jwt"
	"agriconnect/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	byEmail map[string]*models.User
	nextID  uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*models.User)}
}

func (f *fakeUserRepo) Create(user *models.User) error {
	hashed, err := models.HashPassword(user.Password)
	if err != nil {
		return err
	}
	user.Password = hashed
	f.nextID++
	user.ID = f.nextID
	stored := *user
	f.byEmail[user.Email] = &stored
	return nil
}

func (f *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	for _, user := range f.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func newAuthRouter() (*gin.Engine, *jwt.Service) {
	gin.SetMode(gin.TestMode)
	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	jwtService := jwt.NewService("test-secret", time.Hour)
	userService := service.NewUserService(newFakeUserRepo(), jwtService)
	handler := NewAuthHandler(userService, log)

	engine := gin.New()
	engine.Use(logger.Middleware(log))
	engine.Use(apperrors.ErrorHandler())
	auth := engine.Group("/api/auth")
	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)
	return engine, jwtService
}

func postJSON(t *testing.T, engine *gin.Engine, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return w, parsed
}

func TestRegisterCreatesUser(t *testing.T) {
	engine, _ := newAuthRouter()

	w, body := postJSON(t, engine, "/api/auth/register",
		`{"name":"Farmer Joe","email":"joe@farm.com","password":"sunflower"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "User registered successfully", body["message"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "joe@farm.com", user["email"])
	assert.NotContains(t, user, "password", "credentials never leave the server")
}

func TestRegisterRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{
			"missing fields",
			`{"email":"joe@farm.com"}`,
			"All fields are required: name, email, password",
		},
		{
			"malformed json",
			`{"name":`,
			"All fields are required: name, email, password",
		},
		{
			"short password",
			`{"name":"Joe","email":"joe@farm.com","password":"abcde"}`,
			"Password must be at least 6 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newAuthRouter()

			w, body := postJSON(t, engine, "/api/auth/register", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	engine, _ := newAuthRouter()

	w, _ := postJSON(t, engine, "/api/auth/register",
		`{"name":"Farmer Joe","email":"joe@farm.com","password":"sunflower"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := postJSON(t, engine, "/api/auth/register",
		`{"name":"Other Joe","email":"joe@farm.com","password":"sunflower"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists with this email", body["message"])
}

func TestLoginReturnsToken(t *testing.T) {
	engine, jwtService := newAuthRouter()

	w, _ := postJSON(t, engine, "/api/auth/register",
		`{"name":"Farmer Joe","email":"joe@farm.com","password":"sunflower"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := postJSON(t, engine, "/api/auth/login",
		`{"email":"joe@farm.com","password":"sunflower"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Login successful", body["message"])

	token, ok := body["token"].(string)
	require.True(t, ok)
	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "joe@farm.com", claims.Email)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	engine, _ := newAuthRouter()

	w, _ := postJSON(t, engine, "/api/auth/register",
		`{"name":"Farmer Joe","email":"joe@farm.com","password":"sunflower"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	tests := []struct {
		name string
		body string
	}{
		{"unknown email", `{"email":"nobody@farm.com","password":"sunflower"}`},
		{"wrong password", `{"email":"joe@farm.com","password":"wrong"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := postJSON(t, engine, "/api/auth/login", tt.body)

			// Both failures return the same status and message.
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Invalid email or password", body["message"])
		})
	}
}

func TestLoginRejectsMissingFields(t *testing.T) {
	engine, _ := newAuthRouter()

	w, body := postJSON(t, engine, "/api/auth/login", `{"email":"joe@farm.com"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email and password are required", body["message"])
}
