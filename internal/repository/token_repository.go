package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"supplier-catalog/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrTokenNotFound      = errors.New("auth token not found")
	ErrTokenAlreadyExists = errors.New("user already has an auth token")
)

// TokenRepository defines the interface for API token data access
type TokenRepository interface {
	Create(ctx context.Context, token *domain.AuthToken) error
	FindByKey(ctx context.Context, key string) (*domain.AuthToken, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.AuthToken, error)
	Delete(ctx context.Context, key string) error
}

type tokenRepository struct {
	db DBTX
}

// NewTokenRepository creates a new instance of TokenRepository
func NewTokenRepository(db DBTX) TokenRepository {
	return &tokenRepository{db: db}
}

// Create stores a token. A user holds at most one token.
func (r *tokenRepository) Create(ctx context.Context, token *domain.AuthToken) error {
	query := `
		INSERT INTO auth_tokens (key, user_id, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.ExecContext(ctx, query, token.Key, token.UserID, token.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "auth_tokens_user_id_key") {
			return ErrTokenAlreadyExists
		}
		return fmt.Errorf("failed to create auth token: %w", err)
	}

	return nil
}

// FindByKey retrieves a token by its key
func (r *tokenRepository) FindByKey(ctx context.Context, key string) (*domain.AuthToken, error) {
	query := `SELECT key, user_id, created_at FROM auth_tokens WHERE key = $1`
	return r.findOne(ctx, query, key)
}

// FindByUserID retrieves the token issued to a user
func (r *tokenRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.AuthToken, error) {
	query := `SELECT key, user_id, created_at FROM auth_tokens WHERE user_id = $1`
	return r.findOne(ctx, query, userID)
}

func (r *tokenRepository) findOne(ctx context.Context, query string, arg any) (*domain.AuthToken, error) {
	token := &domain.AuthToken{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&token.Key, &token.UserID, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to find auth token: %w", err)
	}
	return token, nil
}

// Delete revokes a token
func (r *tokenRepository) Delete(ctx context.Context, key string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete auth token: %w", err)
	}

	if err := rowsAffected(result, ErrTokenNotFound); err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return err
		}
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	return nil
}
