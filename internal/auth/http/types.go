package http

import (
	"context"
	"net/http"
	"time"

	"github.com/GoSim-25-26J-441/project-auth/internal/auth/domain"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/oauth"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/service"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/session"
)

// AuthService is the subset of service.AuthService the handlers use.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, in service.LoginInput) (*domain.User, error)
	OAuthLogin(ctx context.Context, p domain.OAuthProfile) (*domain.User, error)
}

// Sessions issues and revokes session tokens.
type Sessions interface {
	Issue(ctx context.Context, user *domain.User) (string, *domain.Session, error)
	Revoke(ctx context.Context, r *http.Request) error
	SetCookie(w http.ResponseWriter, token string, expires time.Time)
	ClearCookie(w http.ResponseWriter)
}

// OAuthProvider is an authorization code flow provider.
type OAuthProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*domain.OAuthProfile, error)
}

type StateStore interface {
	Issue(ctx context.Context) (string, error)
	Consume(ctx context.Context, state string) error
}

type Handler struct {
	authService AuthService
	sessions    Sessions
	verifier    session.Verifier

	google     OAuthProvider
	states     StateStore
	successURL string
}

// New builds the auth handlers. They log through the request scoped logger
// carried in the request context.
func New(authService AuthService, sessions Sessions, verifier session.Verifier) *Handler {
	return &Handler{
		authService: authService,
		sessions:    sessions,
		verifier:    verifier,
		successURL:  "/",
	}
}

// WithOAuth enables the Google login routes.
func (h *Handler) WithOAuth(google OAuthProvider, states StateStore, successURL string) *Handler {
	h.google = google
	h.states = states
	if successURL != "" {
		h.successURL = successURL
	}
	return h
}

var (
	_ OAuthProvider = (*oauth.Provider)(nil)
	_ StateStore    = (*oauth.StateStore)(nil)
	_ Sessions      = (*session.Manager)(nil)
	_ AuthService   = (*service.AuthService)(nil)
)
