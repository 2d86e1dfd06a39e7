package auth

import (
	"net/http"
	"strings"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserName  = "X-User-Name"
)

// Middleware attaches the user asserted by the upstream identity proxy.
// Requests without X-User-ID continue anonymously.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}

		u := &User{
			ID:    id,
			Email: strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
			Name:  strings.TrimSpace(r.Header.Get(HeaderUserName)),
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}
