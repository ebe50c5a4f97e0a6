package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/carenote/carenote/internal/auth"
	"github.com/carenote/carenote/internal/model"
	"github.com/carenote/carenote/internal/repository/memory"
)

type trackingTokenStore struct {
	*memory.Store
	lastUsed chan string
}

func (s *trackingTokenStore) UpdateAccessTokenLastUsed(ctx context.Context, id string) error {
	s.lastUsed <- id
	return s.Store.UpdateAccessTokenLastUsed(ctx, id)
}

type failingTokenStore struct{}

func (failingTokenStore) GetAccessTokensByPrefix(context.Context, string) ([]*model.AccessToken, error) {
	return nil, errors.New("db down")
}

func (failingTokenStore) UpdateAccessTokenLastUsed(context.Context, string) error { return nil }

type mapPrincipalCache struct {
	entries map[string]*model.Principal
}

func (c *mapPrincipalCache) GetPrincipal(_ context.Context, key string) (*model.Principal, error) {
	return c.entries[key], nil
}

func (c *mapPrincipalCache) SetPrincipal(_ context.Context, key string, p *model.Principal) error {
	c.entries[key] = p
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// whoami echoes the authenticated user id.
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, auth.UserIDFromContext(r.Context()))
})

func doAuth(h http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/reminders", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuth(t *testing.T) {
	t.Parallel()

	store := &trackingTokenStore{Store: memory.New(), lastUsed: make(chan string, 4)}
	issued, err := auth.Issue(context.Background(), store, "user-1", "test")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	revoked, err := auth.Issue(context.Background(), store, "user-2", "old")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := store.RevokeAccessToken(context.Background(), revoked.Token.ID); err != nil {
		t.Fatalf("RevokeAccessToken failed: %v", err)
	}

	wrongSecret := "cn_" + issued.Token.TokenPrefix + "_" + strings.Repeat("0", auth.TokenSecretLen)

	h := Auth(AuthConfig{Logger: discardLogger(), Tokens: store})(whoami)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"valid", "Bearer " + issued.Plaintext, http.StatusOK, "user-1"},
		{"lowercase scheme", "bearer " + issued.Plaintext, http.StatusOK, "user-1"},
		{"missing", "", http.StatusUnauthorized, `"code":"UNAUTHORIZED"`},
		{"basic scheme", "Basic " + issued.Plaintext, http.StatusUnauthorized, `"code":"UNAUTHORIZED"`},
		{"malformed", "Bearer not-a-token", http.StatusUnauthorized, `"code":"UNAUTHORIZED"`},
		{"wrong secret", "Bearer " + wrongSecret, http.StatusUnauthorized, `"code":"UNAUTHORIZED"`},
		{"revoked", "Bearer " + revoked.Plaintext, http.StatusUnauthorized, `"code":"UNAUTHORIZED"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doAuth(h, tt.header)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}

	select {
	case id := <-store.lastUsed:
		if id != issued.Token.ID {
			t.Errorf("last used updated for %s, want %s", id, issued.Token.ID)
		}
	case <-time.After(2 * time.Second):
		t.Error("last_used_at was not updated")
	}
}

func TestAuth_CacheHitSkipsStore(t *testing.T) {
	t.Parallel()

	token, err := auth.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	cache := &mapPrincipalCache{entries: map[string]*model.Principal{
		auth.QuickHash(token.Plaintext): {UserID: "cached-user"},
	}}

	h := Auth(AuthConfig{Logger: discardLogger(), Tokens: failingTokenStore{}, Cache: cache})(whoami)

	rec := doAuth(h, "Bearer "+token.Plaintext)
	if rec.Code != http.StatusOK || rec.Body.String() != "cached-user" {
		t.Errorf("got %d %q, want 200 cached-user", rec.Code, rec.Body.String())
	}
}

func TestAuth_StoreErrorAndCacheFill(t *testing.T) {
	t.Parallel()

	store := memory.New()
	issued, err := auth.Issue(context.Background(), store, "user-1", "test")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	cache := &mapPrincipalCache{entries: map[string]*model.Principal{}}
	h := Auth(AuthConfig{Logger: discardLogger(), Tokens: store, Cache: cache})(whoami)
	if rec := doAuth(h, "Bearer "+issued.Plaintext); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if p := cache.entries[auth.QuickHash(issued.Plaintext)]; p == nil || p.TokenID != issued.Token.ID {
		t.Errorf("cached principal = %+v", p)
	}

	failing := Auth(AuthConfig{Logger: discardLogger(), Tokens: failingTokenStore{}})(whoami)
	if rec := doAuth(failing, "Bearer "+issued.Plaintext); rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_MinDuration(t *testing.T) {
	t.Parallel()

	h := Auth(AuthConfig{Logger: discardLogger(), Tokens: failingTokenStore{}, MinDuration: 50 * time.Millisecond})(whoami)

	start := time.Now()
	doAuth(h, "")
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("auth failure returned after %s, want at least 50ms", elapsed)
	}
}
