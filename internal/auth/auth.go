package auth

import (
	"context"
	"strings"
)

// User is the authenticated shopper as reported by the identity provider.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// DisplayName is the user's name, or the local part of the email when no name is set.
func (u User) DisplayName() string {
	if n := strings.TrimSpace(u.Name); n != "" {
		return n
	}
	if i := strings.IndexByte(u.Email, '@'); i > 0 {
		return u.Email[:i]
	}
	if u.Email != "" {
		return u.Email
	}
	return "Anonymous"
}

// Provider answers "who is the current user" for a request.
type Provider interface {
	CurrentUser(ctx context.Context) (*User, bool)
}

type ctxKey struct{}

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*User)
	return u, ok && u != nil && u.ID != ""
}

// ContextProvider reads the user placed on the context by Middleware.
type ContextProvider struct{}

func (ContextProvider) CurrentUser(ctx context.Context) (*User, bool) {
	return FromContext(ctx)
}
