package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"golang.org/x/crypto/bcrypt"

	"github.com/GoSim-25-26J-441/project-auth/internal/apperr"
	"github.com/GoSim-25-26J-441/project-auth/internal/auth/domain"
	"github.com/GoSim-25-26J-441/project-auth/internal/validate"
)

// BcryptCost is the work factor for stored password hashes.
const BcryptCost = 10

const (
	invalidCredentialsMessage = "invalid email or password"
	unverifiedEmailMessage    = "email address is not verified"
)

// UserStore is the identity store as seen by the auth service.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, name, image *string) error
}

type AccountStore interface {
	Upsert(ctx context.Context, a *domain.Account) error
}

type AuthService struct {
	users    UserStore
	accounts AccountStore
	logger   *slog.Logger
}

func NewAuthService(users UserStore, accounts AccountStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		accounts: accounts,
		logger:   logger,
	}
}

// RegisterInput is the credentials registration request body.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name,
			validation.Required.Error("name is required"),
			validation.RuneLength(2, 0).Error("name must be at least 2 characters"),
		),
		validation.Field(&in.Email,
			validation.Required.Error("email is required"),
			is.Email.Error("email must be a valid email address"),
		),
		validation.Field(&in.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 72).Error("password must be between 8 and 72 characters"),
		),
	)
}

// Register creates a credentials identity. The returned user carries the hash
// only in a field that is never serialized; handlers respond with Public().
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := in.Validate(); err != nil {
		return nil, apperr.NewValidation(validate.FirstMessage(err, "name", "email", "password"))
	}

	_, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, apperr.NewAlreadyExists("user already exists")
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, apperr.Internal("lookup user by email", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), BcryptCost)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	hashed := string(hash)

	user, err := s.users.Create(ctx, &domain.CreateUserRequest{
		Name:          &in.Name,
		Email:         in.Email,
		PasswordHash:  &hashed,
		OAuthProvider: domain.ProviderEmail,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, apperr.NewAlreadyExists("user already exists")
		}
		return nil, apperr.Internal("create user", err)
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return user, nil
}

// LoginInput is the credentials login request body.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in LoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email,
			validation.Required.Error("email is required"),
			is.Email.Error("email must be a valid email address"),
		),
		validation.Field(&in.Password, validation.Required.Error("password is required")),
	)
}

// Login checks a credentials pair. Unknown emails, OAuth-only users and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*domain.User, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.NewValidation(validate.FirstMessage(err, "email", "password"))
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, apperr.NewUnauthenticated(invalidCredentialsMessage)
		}
		return nil, apperr.Internal("lookup user by email", err)
	}
	if user.PasswordHash == nil || *user.PasswordHash == "" {
		return nil, apperr.NewUnauthenticated(invalidCredentialsMessage)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(in.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperr.NewUnauthenticated(invalidCredentialsMessage)
		}
		return nil, apperr.Internal("compare password hash", err)
	}

	return user, nil
}

// OAuthLogin finds or creates the user behind a provider profile and records
// the account link with its tokens. A profile only attaches to an existing
// user when the provider verified the email.
func (s *AuthService) OAuthLogin(ctx context.Context, p domain.OAuthProfile) (*domain.User, error) {
	if strings.TrimSpace(p.Email) == "" {
		return nil, apperr.NewValidation("provider did not return an email address")
	}
	if p.Provider == "" || p.ProviderAccountID == "" {
		return nil, apperr.NewValidation("provider account is incomplete")
	}

	user, err := s.resolve(ctx, p.Email, p.Name, p.Image, p.Provider, p.EmailVerified)
	if err != nil {
		return nil, err
	}

	acct := &domain.Account{
		UserID:            user.ID,
		Provider:          p.Provider,
		ProviderAccountID: p.ProviderAccountID,
		AccessToken:       optional(p.AccessToken),
		RefreshToken:      optional(p.RefreshToken),
		IDToken:           optional(p.IDToken),
		TokenType:         optional(p.TokenType),
		Scope:             optional(p.Scope),
		ExpiresAt:         p.ExpiresAt,
	}
	if err := s.accounts.Upsert(ctx, acct); err != nil {
		return nil, apperr.Internal("link oauth account", err)
	}

	s.logger.InfoContext(ctx, "oauth login",
		slog.String("user_id", user.ID),
		slog.String("provider", p.Provider),
	)
	return user, nil
}

// ResolveEmailUser maps an externally verified email (e.g. a Firebase ID
// token) onto a local user id, creating the user on first sight.
func (s *AuthService) ResolveEmailUser(ctx context.Context, email, name, provider string) (*domain.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, apperr.NewUnauthenticated("token has no email claim")
	}
	return s.resolve(ctx, email, name, "", provider, true)
}

func (s *AuthService) resolve(ctx context.Context, email, name, image, provider string, verified bool) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if !verified {
			return nil, apperr.NewUnauthenticated(unverifiedEmailMessage)
		}
		if name != "" || image != "" {
			if err := s.users.UpdateProfile(ctx, user.ID, optional(name), optional(image)); err != nil {
				s.logger.WarnContext(ctx, "profile refresh failed",
					slog.String("user_id", user.ID),
					slog.Any("error", err),
				)
			}
		}
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, apperr.Internal("lookup user by email", err)
	}

	req := &domain.CreateUserRequest{
		Name:          optional(name),
		Email:         email,
		Image:         optional(image),
		OAuthProvider: provider,
	}
	if verified {
		now := time.Now().UTC()
		req.EmailVerified = &now
	}

	user, err = s.users.Create(ctx, req)
	if errors.Is(err, domain.ErrEmailTaken) {
		// lost a race with a concurrent first login
		if !verified {
			return nil, apperr.NewUnauthenticated(unverifiedEmailMessage)
		}
		user, err = s.users.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, apperr.Internal("create user", err)
	}
	return user, nil
}

// GetUser returns the stored user for a session identity.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, apperr.NewNotFound("user not found")
		}
		return nil, apperr.Internal("lookup user", err)
	}
	return user, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
