// Command issue-token creates a user if needed and prints a new access
// token for it. With -revoke it revokes an existing token instead.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/oklog/ulid/v2"

	"github.com/carenote/carenote/internal/auth"
	"github.com/carenote/carenote/internal/model"
	"github.com/carenote/carenote/internal/repository"
)

type output struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	TokenID     string `json:"tokenId"`
	Token       string `json:"token"`
	TokenPrefix string `json:"tokenPrefix"`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}

	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		userID      = flag.String("user-id", "", "User ID to own the token (generated when empty)")
		email       = flag.String("email", "", "User email")
		name        = flag.String("name", "cli", "Token name")
		revoke      = flag.String("revoke", "", "Revoke the token with this ID instead of issuing one")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	if *revoke != "" {
		if err := repo.RevokeAccessToken(ctx, *revoke); err != nil {
			fmt.Fprintln(os.Stderr, "revoke token:", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "revoked", *revoke)
		return
	}

	if *email == "" {
		fmt.Fprintln(os.Stderr, "-email is required")
		os.Exit(1)
	}

	out, err := issue(ctx, repo, *userID, *email, *name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	if err := render(os.Stdout, out, *format); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

type tokenStore interface {
	auth.TokenWriter
	GetOrCreateUser(ctx context.Context, user *model.User) (*model.User, error)
}

func issue(ctx context.Context, store tokenStore, userID, email, name string) (*output, error) {
	if userID == "" {
		userID = ulid.Make().String()
	}
	user, err := store.GetOrCreateUser(ctx, &model.User{
		ID:        userID,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}

	issued, err := auth.Issue(ctx, store, user.ID, name)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &output{
		UserID:      user.ID,
		Email:       user.Email,
		TokenID:     issued.Token.ID,
		Token:       issued.Plaintext,
		TokenPrefix: issued.Token.TokenPrefix,
	}, nil
}

func render(w io.Writer, out *output, format string) error {
	switch strings.ToLower(format) {
	case "plain":
		_, err := fmt.Fprintln(w, out.Token)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	default:
		return errors.New("invalid format; use plain or json")
	}
}
