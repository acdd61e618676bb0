// Package session carries the signed-in user's id through a request.
//
// Authentication belongs to an external identity provider; this package only
// trusts whatever id the Provider extracts and makes it available to
// handlers and services via the context.
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// DefaultHeader is the request header the identity proxy sets.
const DefaultHeader = "X-User-ID"

// ErrNoSession is returned when no signed-in user is present.
var ErrNoSession = errors.New("no signed-in user")

type ctxKey struct{}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the signed-in user id stored in ctx.
func UserID(ctx context.Context) (string, error) {
	id, _ := ctx.Value(ctxKey{}).(string)
	if id == "" {
		return "", ErrNoSession
	}
	return id, nil
}

// Provider resolves the signed-in user for a request.
type Provider interface {
	UserID(r *http.Request) (string, error)
}

// HeaderProvider reads the user id from a trusted request header.
type HeaderProvider struct {
	Header string
}

func (p HeaderProvider) UserID(r *http.Request) (string, error) {
	header := p.Header
	if header == "" {
		header = DefaultHeader
	}
	id := strings.TrimSpace(r.Header.Get(header))
	if id == "" {
		return "", ErrNoSession
	}
	return id, nil
}

// Middleware stores the provider's user id in the request context when one
// is present. Requests without a session pass through untouched; handlers
// that need a user call UserID and reject with 401.
func Middleware(p Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := p.UserID(r); err == nil {
				r = r.WithContext(WithUserID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}
