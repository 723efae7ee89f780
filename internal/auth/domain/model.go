package domain

import "time"

// ProviderEmail marks identities created through credentials registration.
const ProviderEmail = "email"

// User is a stored identity. PasswordHash never leaves the process: it has no
// JSON name and responses go through Public.
type User struct {
	ID            string     `json:"id" db:"id"`
	Name          *string    `json:"name,omitempty" db:"name"`
	Email         string     `json:"email" db:"email"`
	EmailVerified *time.Time `json:"email_verified,omitempty" db:"email_verified"`
	Image         *string    `json:"image,omitempty" db:"image"`
	PasswordHash  *string    `json:"-" db:"password_hash"`
	OAuthProvider string     `json:"oauth_provider" db:"oauth_provider"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// PublicUser is the response shape for a user. It has no password field at all.
type PublicUser struct {
	ID            string    `json:"id"`
	Name          *string   `json:"name,omitempty"`
	Email         string    `json:"email"`
	Image         *string   `json:"image,omitempty"`
	OAuthProvider string    `json:"oauth_provider"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Image:         u.Image,
		OAuthProvider: u.OAuthProvider,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// CreateUserRequest represents data needed to create a new user
type CreateUserRequest struct {
	Name          *string
	Email         string
	Image         *string
	PasswordHash  *string
	OAuthProvider string
	EmailVerified *time.Time
}

// Account links a user to an external OAuth provider account.
type Account struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Provider          string     `json:"provider"`
	ProviderAccountID string     `json:"provider_account_id"`
	AccessToken       *string    `json:"-"`
	RefreshToken      *string    `json:"-"`
	IDToken           *string    `json:"-"`
	TokenType         *string    `json:"token_type,omitempty"`
	Scope             *string    `json:"scope,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
}

// Session backs an issued session token; deleting the row revokes the token.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// VerificationToken is a single-use token addressed to an identifier (usually an email).
type VerificationToken struct {
	Identifier string    `json:"identifier"`
	Token      string    `json:"-"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Identity is what a session verifier yields: the authenticated caller.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// OAuthProfile is the normalized result of a provider handshake.
type OAuthProfile struct {
	Provider          string
	ProviderAccountID string
	Email             string
	EmailVerified     bool
	Name              string
	Image             string
	AccessToken       string
	RefreshToken      string
	IDToken           string
	TokenType         string
	Scope             string
	ExpiresAt         *time.Time
}
