package auth

import (
	"context"
	"testing"

	"github.com/carenote/carenote/internal/model"
)

func TestPrincipalContext(t *testing.T) {
	t.Parallel()

	if UserIDFromContext(context.Background()) != "" {
		t.Error("anonymous context should have no user")
	}

	p := &model.Principal{UserID: "u1", TokenID: "t1", TokenPrefix: "abc123"}
	ctx := ContextWithPrincipal(context.Background(), p)

	if got := PrincipalFromContext(ctx); got != p {
		t.Errorf("PrincipalFromContext = %+v, want %+v", got, p)
	}
	if got := UserIDFromContext(ctx); got != "u1" {
		t.Errorf("UserIDFromContext = %q, want u1", got)
	}
}
