package memory

import (
	"context"
	"time"

	"github.com/carenote/carenote/internal/model"
	"github.com/carenote/carenote/internal/repository"
)

// GetOrCreateUser returns the user with user.Email, storing user when absent.
func (s *Store) GetOrCreateUser(_ context.Context, user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			cp := *u
			return &cp, nil
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	cp := *user
	s.users[user.ID] = &cp
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// CreateAccessToken stores a copy of token.
func (s *Store) CreateAccessToken(_ context.Context, token *model.AccessToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *token
	s.tokens[token.ID] = &cp
	return nil
}

// GetAccessTokensByPrefix returns the unrevoked tokens with prefix.
func (s *Store) GetAccessTokensByPrefix(_ context.Context, prefix string) ([]*model.AccessToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.AccessToken
	for _, t := range s.tokens {
		if t.TokenPrefix == prefix && !t.IsRevoked() {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

// RevokeAccessToken marks a token revoked.
func (s *Store) RevokeAccessToken(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[id]
	if !ok || t.IsRevoked() {
		return repository.ErrAccessTokenNotFound
	}
	now := time.Now().UTC()
	t.RevokedAt = &now
	return nil
}

// UpdateAccessTokenLastUsed records a successful authentication.
func (s *Store) UpdateAccessTokenLastUsed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tokens[id]; ok {
		now := time.Now().UTC()
		t.LastUsedAt = &now
	}
	return nil
}
