// Package session verifies inbound requests and yields the authenticated
// identity. Token cryptography is delegated to golang-jwt and Firebase.
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/GoSim-25-26J-441/project-auth/internal/auth/domain"
)

// ErrNoSession means the request carries no usable credentials.
var ErrNoSession = errors.New("no session")

// Verifier turns a request into an identity, or ErrNoSession.
type Verifier interface {
	Verify(ctx context.Context, r *http.Request) (*domain.Identity, error)
}

// Chain tries each verifier in order; the first identity wins. Errors other
// than ErrNoSession stop the chain.
type Chain []Verifier

func (ch Chain) Verify(ctx context.Context, r *http.Request) (*domain.Identity, error) {
	for _, v := range ch {
		if v == nil {
			continue
		}
		id, err := v.Verify(ctx, r)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrNoSession) {
			return nil, err
		}
	}
	return nil, ErrNoSession
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id *domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by the session middleware.
func IdentityFrom(ctx context.Context) (*domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*domain.Identity)
	return id, ok && id != nil
}

// bearerToken extracts the Bearer token from the Authorization header
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
