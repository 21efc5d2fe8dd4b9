package service

import (
	"context"
	"errors"
	"time"

	"strive/coaching-app/internal/domain"
	"strive/coaching-app/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService owns sign-in, sessions, and invitation acceptance.
type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	// AcceptInvite completes credential setup for an invited coach and
	// consumes the one-time token.
	AcceptInvite(ctx context.Context, token, password string) (*domain.User, error)
	GetJWTSecret() string
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = 12 * time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Login authenticates by email and password and issues a JWT.
func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, NewInvalidError("email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, NewUnauthorizedError("invalid email or password")
		}
		return "", nil, err
	}

	// An invited account has no password until the invite is accepted.
	if user.PasswordHash == "" {
		return "", nil, NewUnauthorizedError("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, NewUnauthorizedError("invalid email or password")
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, NewUpstreamError("failed to generate authentication token")
	}

	// Best effort: a failed timestamp write must not fail the sign-in.
	if err := s.userRepo.TouchLastSignIn(ctx, user.ID); err != nil {
		zap.S().Warnw("failed to record last sign-in", "user", user.ID.Hex(), "error", err)
	}

	user.PasswordHash = ""
	return token, user, nil
}

// AcceptInvite sets the password for an invited account and clears the token.
func (s *authService) AcceptInvite(ctx context.Context, token, password string) (*domain.User, error) {
	if token == "" {
		return nil, NewInvalidError("invitation token is required")
	}
	if len(password) < 8 {
		return nil, NewInvalidError("password must be at least 8 characters")
	}

	user, err := s.userRepo.GetByInviteToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("invitation is invalid or has already been used")
		}
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewUpstreamError("failed to hash password")
	}

	if err := s.userRepo.SetCredentials(ctx, user.ID, string(hashed)); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	user.InviteToken = ""
	return user, nil
}

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// generateJWT creates a new JWT token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	expirationTime := time.Now().Add(s.jwtExpiration)
	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "coaching-app",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}
