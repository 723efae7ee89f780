package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/project-auth/internal/auth/domain"
)

// Store persists the session rows that back issued tokens.
type Store interface {
	Create(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

type Options struct {
	Secret       []byte
	TTL          time.Duration
	Issuer       string
	CookieName   string
	CookieDomain string
	CookieSecure bool
	Now          func() time.Time
}

// Claims are the signed contents of a session token. The registered ID claim
// is the session row id.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 session tokens backed by session rows.
type Manager struct {
	store  Store
	opts   Options
	logger *slog.Logger
}

func NewManager(store Store, opts Options, logger *slog.Logger) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 30 * 24 * time.Hour
	}
	if opts.CookieName == "" {
		opts.CookieName = "session_token"
	}
	if opts.Issuer == "" {
		opts.Issuer = "project-auth"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{store: store, opts: opts, logger: logger}
}

// Issue creates a session row for user and returns its signed token.
func (m *Manager) Issue(ctx context.Context, user *domain.User) (string, *domain.Session, error) {
	now := m.opts.Now()
	s := &domain.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(m.opts.TTL),
	}
	if err := m.store.Create(ctx, s); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}

	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   user.ID,
			Issuer:    m.opts.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.opts.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	return token, s, nil
}

// Verify implements Verifier. The token comes from the session cookie or a
// Bearer header; a valid signature is not enough, the session row must
// still exist.
func (m *Manager) Verify(ctx context.Context, r *http.Request) (*domain.Identity, error) {
	claims, err := m.parse(r)
	if err != nil {
		return nil, err
	}

	s, err := m.store.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s.UserID != claims.UserID || s.Expired(m.opts.Now()) {
		return nil, ErrNoSession
	}

	return &domain.Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

// Revoke deletes the session behind the request's token, if any.
func (m *Manager) Revoke(ctx context.Context, r *http.Request) error {
	claims, err := m.parse(r)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil
		}
		return err
	}
	return m.store.Delete(ctx, claims.ID)
}

func (m *Manager) parse(r *http.Request) (*Claims, error) {
	raw := m.tokenFrom(r)
	if raw == "" {
		return nil, ErrNoSession
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) { return m.opts.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.opts.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.opts.Now),
	)
	if err != nil {
		m.logger.Debug("session token rejected", slog.Any("error", err))
		return nil, ErrNoSession
	}
	if claims.ID == "" || claims.UserID == "" {
		return nil, ErrNoSession
	}
	return claims, nil
}

func (m *Manager) tokenFrom(r *http.Request) string {
	if c, err := r.Cookie(m.opts.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return bearerToken(r)
}

// SetCookie writes the session cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   m.opts.CookieDomain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   m.opts.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
