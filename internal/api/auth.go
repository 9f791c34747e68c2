package api

import (
	"errors"
	"net/http"

	"agriconnect/backend/internal/models"
	"agriconnect/backend/internal/service"
	apperrors "agriconnect/backend/pkg/errors"
	"agriconnect/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication-related requests. Failures are attached
// to the gin context as typed errors and rendered by the ErrorHandler
// middleware.
type AuthHandler struct {
	service *service.UserService
	logger  *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *service.UserService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("All fields are required: name, email, password"))
		return
	}

	user, err := h.service.Register(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			c.Error(apperrors.NewValidationError("All fields are required: name, email, password"))
		case errors.Is(err, service.ErrPasswordTooShort):
			c.Error(apperrors.NewValidationError("Password must be at least 6 characters"))
		case errors.Is(err, service.ErrUserAlreadyExists):
			c.Error(apperrors.NewConflictError("User already exists with this email"))
		default:
			h.logger.LogError(err, "registration failed")
			c.Error(apperrors.NewUnexpectedError("Server error during registration"))
		}
		return
	}

	h.logger.Info("user registered", "email", user.Email)

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user.ToResponse(),
	})
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("Email and password are required"))
		return
	}

	user, token, err := h.service.Login(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// Uniform message: unknown email and wrong password look the same.
			c.Error(apperrors.NewAuthError("Invalid email or password"))
			return
		}
		h.logger.LogError(err, "login failed")
		c.Error(apperrors.NewUnexpectedError("Server error during login"))
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID, "email", user.Email)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user.ToResponse(),
	})
}
