package services

import (
	"context"
	"errors"
	"fmt"

	"gym_sales_backend/internal/models"
	"gym_sales_backend/internal/repositories"
	"gym_sales_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse DTO
type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

// --- AuthService Interface ---
type AuthService interface {
	LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	store  repositories.TxRunner
	tokens *utils.TokenManager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(store repositories.TxRunner, tokens *utils.TokenManager) AuthService {
	return &authService{store: store, tokens: tokens}
}

// HashPassword returns the bcrypt hash stored for a password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// LoginUser handles user login and token generation.
func (s *authService) LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var user *models.User
	err := s.store.ReadOnly(ctx, func(ctx context.Context, r repositories.Repos) error {
		var err error
		user, err = r.Users.FindUserByUsername(ctx, req.Username)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.GymID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	user.PasswordHash = ""
	return &AuthResponse{User: user, AccessToken: accessToken}, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	var user *models.User
	err := s.store.ReadOnly(ctx, func(ctx context.Context, r repositories.Repos) error {
		var err error
		user, err = r.Users.FindUserByID(ctx, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}
