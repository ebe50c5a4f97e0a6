package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carenote/carenote/internal/model"
	"github.com/jackc/pgx/v5"
)

// Common errors for access token repository operations.
var (
	ErrAccessTokenNotFound = errors.New("access token not found")
)

const accessTokenColumns = `id, user_id, token_hash, token_prefix, name, revoked_at, last_used_at, created_at`

// CreateAccessToken inserts a new access token into the database.
func (r *Repository) CreateAccessToken(ctx context.Context, token *model.AccessToken) error {
	query := `
		INSERT INTO access_tokens (id, user_id, token_hash, token_prefix, name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.TokenPrefix,
		token.Name,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create access token: %w", err)
	}

	return nil
}

// GetAccessTokenByID retrieves an access token by its ID.
func (r *Repository) GetAccessTokenByID(ctx context.Context, id string) (*model.AccessToken, error) {
	query := `
		SELECT ` + accessTokenColumns + `
		FROM access_tokens
		WHERE id = $1
	`

	token, err := scanAccessToken(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccessTokenNotFound
		}
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	return token, nil
}

// GetAccessTokensByPrefix retrieves all active tokens matching a prefix.
// Used during authentication to find candidate tokens for verification.
func (r *Repository) GetAccessTokensByPrefix(ctx context.Context, prefix string) ([]*model.AccessToken, error) {
	query := `
		SELECT ` + accessTokenColumns + `
		FROM access_tokens
		WHERE token_prefix = $1 AND revoked_at IS NULL
	`

	rows, err := r.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to get access tokens by prefix: %w", err)
	}
	defer rows.Close()

	var tokens []*model.AccessToken
	for rows.Next() {
		token, err := scanAccessToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating access tokens: %w", err)
	}

	return tokens, nil
}

// RevokeAccessToken revokes a token by setting revoked_at.
func (r *Repository) RevokeAccessToken(ctx context.Context, id string) error {
	query := `
		UPDATE access_tokens
		SET revoked_at = $2
		WHERE id = $1 AND revoked_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to revoke access token: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAccessTokenNotFound
	}

	return nil
}

// UpdateAccessTokenLastUsed updates the last_used_at timestamp.
func (r *Repository) UpdateAccessTokenLastUsed(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE access_tokens SET last_used_at = $2 WHERE id = $1`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update access token last used: %w", err)
	}

	return nil
}

func scanAccessToken(row pgx.Row) (*model.AccessToken, error) {
	var token model.AccessToken

	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.TokenPrefix,
		&token.Name,
		&token.RevokedAt,
		&token.LastUsedAt,
		&token.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &token, nil
}
