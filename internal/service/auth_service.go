package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/models"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/store"
	"github.com/Cryptocoatl/flowbond-venue-system-sub000/internal/util"

	"github.com/golang-jwt/jwt"
	"github.com/lithammer/shortuuid/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService issues and verifies bearer tokens
type AuthService struct {
	store     *store.Store
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(store *store.Store, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    util.GetLogger(),
	}
}

// LoginRequest is the credential payload for password login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries an issued bearer token
type TokenResponse struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	IsGuest   bool      `json:"is_guest"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login verifies credentials and issues a token
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	return s.issueToken(user)
}

// CreateGuest creates a throwaway guest account and issues a token
func (s *AuthService) CreateGuest(ctx context.Context, displayName string) (*TokenResponse, error) {
	if displayName == "" {
		displayName = fmt.Sprintf("guest-%s", shortuuid.New()[:8])
	}

	user := &models.User{
		DisplayName: displayName,
		IsGuest:     true,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create guest: %w", err)
	}

	s.logger.Info("Guest session created", zap.Int64("user_id", user.ID))
	return s.issueToken(user)
}

// VerifyToken parses a bearer token and returns the user id
func (s *AuthService) VerifyToken(tokenString string) (int64, bool, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, false, fmt.Errorf("%w: malformed subject claim", ErrUnauthorized)
	}
	guest, _ := claims["guest"].(bool)

	return int64(sub), guest, nil
}

// RequireRole checks a role grant over an entity
func (s *AuthService) RequireRole(ctx context.Context, userID int64, role, entityType string, entityID int64) error {
	ok, err := s.store.HasRole(ctx, userID, role, entityType, entityID)
	if err != nil {
		return fmt.Errorf("failed to check role grant: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: missing %s grant for %s %d", ErrForbidden, role, entityType, entityID)
	}
	return nil
}

func (s *AuthService) issueToken(user *models.User) (*TokenResponse, error) {
	expires := time.Now().Add(s.tokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"guest": user.IsGuest,
		"exp":   expires.Unix(),
		"iat":   time.Now().Unix(),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &TokenResponse{
		Token:     signed,
		UserID:    user.ID,
		IsGuest:   user.IsGuest,
		ExpiresAt: expires,
	}, nil
}

// HashPassword hashes a password for storage
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
