package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/GoSim-25-26J-441/project-auth/internal/auth/domain"
)

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id::text, name, email, email_verified, image, password_hash, oauth_provider, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.EmailVerified,
		&u.Image,
		&u.PasswordHash,
		&u.OAuthProvider,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks a user up by exact (lower-cased) email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, q, normalizeEmail(email)))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1::uuid`
	return scanUser(r.db.QueryRow(ctx, q, id))
}

// Create inserts a new user. A duplicate email yields domain.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("email required")
	}
	if req.OAuthProvider == "" {
		return nil, fmt.Errorf("oauth provider required")
	}

	q := `
INSERT INTO users (id, name, email, email_verified, image, password_hash, oauth_provider)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRow(ctx, q,
		uuid.New().String(),
		req.Name,
		normalizeEmail(req.Email),
		req.EmailVerified,
		req.Image,
		req.PasswordHash,
		req.OAuthProvider,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// UpdateProfile fills in name and image from a provider without overwriting
// values the user already has.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, name, image *string) error {
	const q = `
UPDATE users
SET name = coalesce(name, $2), image = coalesce(image, $3), updated_at = now()
WHERE id = $1::uuid
`
	tag, err := r.db.Exec(ctx, q, id, name, image)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
