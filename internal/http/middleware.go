package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/auth"
)

const HeaderSessionID = "X-Session-ID"

type sessionKeyCtx struct{}

// SessionMiddleware requires the shopping session key that addresses the cart
// and checkout draft.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(HeaderSessionID))
		if key == "" {
			respondError(w, http.StatusBadRequest, "missing_session", HeaderSessionID+" header is required")
			return
		}
		ctx := context.WithValue(r.Context(), sessionKeyCtx{}, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionKey(ctx context.Context) string {
	key, _ := ctx.Value(sessionKeyCtx{}).(string)
	return key
}

// currentUser returns nil for anonymous requests.
func currentUser(ctx context.Context) *auth.User {
	u, ok := auth.FromContext(ctx)
	if !ok {
		return nil
	}
	return u
}
