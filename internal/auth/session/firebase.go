package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/GoSim-25-26J-441/project-auth/internal/auth/domain"
)

const providerFirebase = "firebase"

// IDTokenVerifier is satisfied by *auth.Client.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// UserResolver maps a verified email onto a local user.
type UserResolver interface {
	ResolveEmailUser(ctx context.Context, email, name, provider string) (*domain.User, error)
}

// NewFirebaseClient initializes the Firebase Admin SDK and returns an Auth client
func NewFirebaseClient(ctx context.Context, credentialsPath string) (*auth.Client, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required")
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Auth client: %w", err)
	}
	return client, nil
}

// FirebaseVerifier accepts Bearer Firebase ID tokens.
type FirebaseVerifier struct {
	tokens IDTokenVerifier
	users  UserResolver
	logger *slog.Logger
}

func NewFirebaseVerifier(tokens IDTokenVerifier, users UserResolver, logger *slog.Logger) *FirebaseVerifier {
	return &FirebaseVerifier{tokens: tokens, users: users, logger: logger}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, r *http.Request) (*domain.Identity, error) {
	raw := bearerToken(r)
	if raw == "" {
		return nil, ErrNoSession
	}

	token, err := v.tokens.VerifyIDToken(ctx, raw)
	if err != nil {
		v.logger.Debug("firebase token rejected", slog.Any("error", err))
		return nil, ErrNoSession
	}

	email, _ := token.Claims["email"].(string)
	if email == "" {
		return nil, ErrNoSession
	}
	// An unverified email could claim any local account, admins included.
	if verified, _ := token.Claims["email_verified"].(bool); !verified {
		v.logger.Warn("firebase token with unverified email rejected", slog.String("uid", token.UID))
		return nil, ErrNoSession
	}
	name, _ := token.Claims["name"].(string)

	user, err := v.users.ResolveEmailUser(ctx, email, name, providerFirebase)
	if err != nil {
		return nil, err
	}
	return &domain.Identity{UserID: user.ID, Email: user.Email}, nil
}
