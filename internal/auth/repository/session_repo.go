package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/GoSim-25-26J-441/project-auth/internal/auth/domain"
)

type SessionRepository struct {
	db DB
}

func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	const q = `
INSERT INTO sessions (id, user_id, expires_at)
VALUES ($1::uuid, $2::uuid, $3)
RETURNING created_at
`
	return r.db.QueryRow(ctx, q, s.ID, s.UserID, s.ExpiresAt).Scan(&s.CreatedAt)
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	const q = `
SELECT id::text, user_id::text, expires_at, created_at
FROM sessions
WHERE id = $1::uuid
`
	var s domain.Session
	err := r.db.QueryRow(ctx, q, id).Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1::uuid`, id)
	return err
}

// DeleteExpired removes sessions that expired before now and reports how many went.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type VerificationTokenRepository struct {
	db DB
}

func NewVerificationTokenRepository(db DB) *VerificationTokenRepository {
	return &VerificationTokenRepository{db: db}
}

func (r *VerificationTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM verification_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
