package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/carenote/carenote/internal/model"
	"github.com/oklog/ulid/v2"
)

// Token format: cn_{prefix}_{secret}
// Example: cn_7a9x3k_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b
const (
	TokenPrefixLen = 6  // hex encoded 3 bytes
	TokenSecretLen = 32 // hex encoded 16 bytes
)

var (
	// ErrInvalidTokenFormat indicates the token format is invalid.
	ErrInvalidTokenFormat = errors.New("invalid access token format")

	tokenFormatRegex = regexp.MustCompile(`^cn_([a-f0-9]{6})_([a-f0-9]{32})$`)
)

// GeneratedToken contains the parts of a newly generated token.
type GeneratedToken struct {
	Plaintext string // shown once
	Hash      string // Argon2id hash for storage
	Prefix    string // lookup prefix
}

// GenerateToken creates a new random token and its hash.
func GenerateToken() (*GeneratedToken, error) {
	prefixBytes := make([]byte, 3)
	if _, err := rand.Read(prefixBytes); err != nil {
		return nil, fmt.Errorf("generate prefix: %w", err)
	}
	prefix := hex.EncodeToString(prefixBytes)

	secretBytes := make([]byte, 16)
	if _, err := rand.Read(secretBytes); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	plaintext := fmt.Sprintf("cn_%s_%s", prefix, hex.EncodeToString(secretBytes))

	hash, err := HashToken(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash token: %w", err)
	}

	return &GeneratedToken{
		Plaintext: plaintext,
		Hash:      hash,
		Prefix:    prefix,
	}, nil
}

// ParsedToken contains the parts of a plaintext token.
type ParsedToken struct {
	Prefix string
	Secret string
}

// ParseToken splits a plaintext token into its parts.
func ParseToken(token string) (*ParsedToken, error) {
	matches := tokenFormatRegex.FindStringSubmatch(token)
	if matches == nil {
		return nil, ErrInvalidTokenFormat
	}
	return &ParsedToken{Prefix: matches[1], Secret: matches[2]}, nil
}

// TokenWriter persists access tokens.
type TokenWriter interface {
	CreateAccessToken(ctx context.Context, token *model.AccessToken) error
}

// IssuedToken is a stored token together with its one-time plaintext.
type IssuedToken struct {
	Token     *model.AccessToken
	Plaintext string
}

// Issue generates a token for userID and stores its hash.
func Issue(ctx context.Context, store TokenWriter, userID, name string) (*IssuedToken, error) {
	generated, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	token := &model.AccessToken{
		ID:          ulid.Make().String(),
		UserID:      userID,
		TokenHash:   generated.Hash,
		TokenPrefix: generated.Prefix,
		Name:        name,
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.CreateAccessToken(ctx, token); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	return &IssuedToken{Token: token, Plaintext: generated.Plaintext}, nil
}
