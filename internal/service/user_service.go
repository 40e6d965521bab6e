package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"supplier-catalog/internal/domain"
	"supplier-catalog/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidUserType    = errors.New("user type must be seller or buyer")
)

// RegisterInput carries the fields of a new account
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Company   string
	Position  string
	Type      domain.UserType
}

// UserService defines the interface for account and session logic
type UserService interface {
	// Register creates an account and issues its API token
	Register(ctx context.Context, input RegisterInput) (*domain.User, string, error)
	// Login verifies credentials and returns the user's token, issuing one if needed
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	// Logout revokes a token
	Logout(ctx context.Context, key string) error
	// Authenticate resolves the active user behind a token key
	Authenticate(ctx context.Context, key string) (*domain.User, error)
	ValidateToken(key string) (*Claims, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// Claims are carried by every token key. Keys never expire; deleting the
// stored row revokes them.
type Claims struct {
	UserID uuid.UUID       `json:"user_id"`
	Type   domain.UserType `json:"type"`
	jwt.RegisteredClaims
}

type userService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	jwtSecret string
}

// NewUserService creates a new instance of UserService
func NewUserService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	jwtSecret string,
) UserService {
	return &userService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtSecret: jwtSecret,
	}
}

// Register creates a new active user account with a hashed password
func (s *userService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, error) {
	if !input.Type.Valid() {
		return nil, "", ErrInvalidUserType
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, "", repository.ErrUserAlreadyExists
	}

	hashedPassword, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hashedPassword,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Company:      input.Company,
		Position:     input.Position,
		Type:         input.Type,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	key, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}

	return user, key, nil
}

// Login authenticates a user and returns the user's token
func (s *userService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.verifyPassword(user.PasswordHash, password); err != nil || !user.IsActive {
		return "", nil, ErrInvalidCredentials
	}

	key, err := s.issueToken(ctx, user)
	if err != nil {
		return "", nil, err
	}

	return key, user, nil
}

// Logout deletes the token; an unknown token counts as already logged out
func (s *userService) Logout(ctx context.Context, key string) error {
	if err := s.tokenRepo.Delete(ctx, key); err != nil && !errors.Is(err, repository.ErrTokenNotFound) {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// Authenticate accepts a key only when its signature verifies and it is still stored
func (s *userService) Authenticate(ctx context.Context, key string) (*domain.User, error) {
	claims, err := s.ValidateToken(key)
	if err != nil {
		return nil, ErrInvalidToken
	}

	stored, err := s.tokenRepo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find token: %w", err)
	}

	if stored.UserID != claims.UserID {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidToken
	}

	return user, nil
}

// ValidateToken verifies a key's signature and returns its claims
func (s *userService) ValidateToken(key string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(key, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// issueToken returns the user's stored token, creating it on first use
func (s *userService) issueToken(ctx context.Context, user *domain.User) (string, error) {
	existing, err := s.tokenRepo.FindByUserID(ctx, user.ID)
	if err == nil {
		return existing.Key, nil
	}
	if !errors.Is(err, repository.ErrTokenNotFound) {
		return "", fmt.Errorf("failed to find token: %w", err)
	}

	key, err := s.generateKey(user)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	token := &domain.AuthToken{Key: key, UserID: user.ID, CreatedAt: time.Now()}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		if errors.Is(err, repository.ErrTokenAlreadyExists) {
			// a concurrent login stored one first
			existing, err := s.tokenRepo.FindByUserID(ctx, user.ID)
			if err != nil {
				return "", fmt.Errorf("failed to find token: %w", err)
			}
			return existing.Key, nil
		}
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	return key, nil
}

// hashPassword hashes a password using bcrypt
func (s *userService) hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// verifyPassword verifies a password against a bcrypt hash
func (s *userService) verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// generateKey signs a key carrying the user ID and type
func (s *userService) generateKey(user *domain.User) (string, error) {
	claims := &Claims{
		UserID: user.ID,
		Type:   user.Type,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
