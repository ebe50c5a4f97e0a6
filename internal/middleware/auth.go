package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/carenote/carenote/internal/auth"
	"github.com/carenote/carenote/internal/model"
)

// DefaultMinAuthDuration is the minimum time spent on an authentication
// attempt so that failures and successes take comparable time.
const DefaultMinAuthDuration = 200 * time.Millisecond

// TokenStore looks up access tokens.
type TokenStore interface {
	GetAccessTokensByPrefix(ctx context.Context, prefix string) ([]*model.AccessToken, error)
	UpdateAccessTokenLastUsed(ctx context.Context, id string) error
}

// PrincipalCache caches verified principals keyed by a fast token hash.
type PrincipalCache interface {
	GetPrincipal(ctx context.Context, cacheKey string) (*model.Principal, error)
	SetPrincipal(ctx context.Context, cacheKey string, p *model.Principal) error
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger *slog.Logger
	Tokens TokenStore
	// Cache is optional.
	Cache       PrincipalCache
	MinDuration time.Duration
}

type principalHolderKey struct{}

// principalHolder lets outer middleware see the principal Auth resolved.
type principalHolder struct {
	principal *model.Principal
}

// Auth returns a middleware that authenticates API requests with a bearer
// access token and injects the principal into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			defer func() {
				if elapsed := time.Since(startTime); elapsed < cfg.MinDuration {
					time.Sleep(cfg.MinDuration - elapsed)
				}
			}()

			fail := func(reason string) {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
			}

			token := extractBearerToken(r)
			if token == "" {
				fail("missing_token")
				return
			}

			parsed, err := auth.ParseToken(token)
			if err != nil {
				fail("invalid_format")
				return
			}

			cacheKey := auth.QuickHash(token)
			if cfg.Cache != nil {
				if p, err := cfg.Cache.GetPrincipal(r.Context(), cacheKey); err == nil && p != nil {
					serveAuthenticated(w, r, next, p)
					return
				}
			}

			candidates, err := cfg.Tokens.GetAccessTokensByPrefix(r.Context(), parsed.Prefix)
			if err != nil {
				cfg.Logger.Error("token lookup failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			// Several tokens may share a prefix.
			var matched *model.AccessToken
			for _, candidate := range candidates {
				if ok, err := auth.VerifyToken(token, candidate.TokenHash); err == nil && ok {
					matched = candidate
					break
				}
			}
			if matched == nil {
				fail("invalid_token")
				return
			}

			p := &model.Principal{
				UserID:      matched.UserID,
				TokenID:     matched.ID,
				TokenPrefix: matched.TokenPrefix,
			}

			if cfg.Cache != nil {
				if err := cfg.Cache.SetPrincipal(r.Context(), cacheKey, p); err != nil {
					cfg.Logger.Warn("failed to cache principal", slog.String("error", err.Error()))
				}
			}

			go func(ctx context.Context, id string) {
				ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
				if err := cfg.Tokens.UpdateAccessTokenLastUsed(ctx, id); err != nil {
					cfg.Logger.Warn("failed to update token last_used_at",
						slog.String("token_id", id),
						slog.String("error", err.Error()),
					)
				}
			}(context.WithoutCancel(r.Context()), matched.ID)

			cfg.Logger.Debug("authentication successful",
				slog.String("token_id", p.TokenID),
				slog.String("token_prefix", p.TokenPrefix),
				slog.String("user_id", p.UserID),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			serveAuthenticated(w, r, next, p)
		})
	}
}

func serveAuthenticated(w http.ResponseWriter, r *http.Request, next http.Handler, p *model.Principal) {
	if holder, ok := r.Context().Value(principalHolderKey{}).(*principalHolder); ok {
		holder.principal = p
	}
	next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), p)))
}

// extractBearerToken extracts the token from "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// writeAuthError writes a 401 Unauthorized response.
// Every failure uses the same message so tokens cannot be enumerated.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="carenote"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "Invalid or missing access token",
		"code":  "UNAUTHORIZED",
	})
}
