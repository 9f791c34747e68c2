package service

import (
	"errors"
	"strings"

	"agriconnect/backend/internal/models"
	"agriconnect/backend/internal/repository"
	"agriconnect/backend/pkg/jwt"
)

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 6

var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrMissingFields      = errors.New("missing required fields")
)

// UserService handles registration and login
type UserService struct {
	repo       repository.UserRepository
	jwtService *jwt.Service
}

// NewUserService creates a new user service
func NewUserService(repo repository.UserRepository, jwtService *jwt.Service) *UserService {
	return &UserService{repo: repo, jwtService: jwtService}
}

// Register validates the request and stores a new user with a hashed
// credential. It returns the created user; no token is issued on
// registration, clients log in separately.
func (s *UserService) Register(req *models.RegisterRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)

	if name == "" || email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}
	if len(req.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.repo.GetByEmail(email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: req.Password, // hashed by the model's BeforeCreate hook
	}
	if err := s.repo.Create(user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates a user and returns a signed session token. Unknown
// emails and wrong passwords both yield ErrInvalidCredentials so callers
// cannot distinguish the two cases.
func (s *UserService) Login(req *models.LoginRequest) (*models.User, string, error) {
	user, err := s.repo.GetByEmail(normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(id uint) (*models.User, error) {
	return s.repo.GetByID(id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
