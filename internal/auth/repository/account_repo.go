package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/project-auth/internal/auth/domain"
)

type AccountRepository struct {
	db DB
}

func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Upsert links a provider account to a user, refreshing the stored tokens
// when the link already exists.
func (r *AccountRepository) Upsert(ctx context.Context, a *domain.Account) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	const q = `
INSERT INTO accounts (id, user_id, provider, provider_account_id, access_token, refresh_token, id_token, token_type, scope, expires_at)
VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (provider, provider_account_id) DO UPDATE
SET access_token = EXCLUDED.access_token,
    refresh_token = coalesce(EXCLUDED.refresh_token, accounts.refresh_token),
    id_token = EXCLUDED.id_token,
    token_type = EXCLUDED.token_type,
    scope = EXCLUDED.scope,
    expires_at = EXCLUDED.expires_at
RETURNING id::text, user_id::text
`
	return r.db.QueryRow(ctx, q,
		a.ID,
		a.UserID,
		a.Provider,
		a.ProviderAccountID,
		a.AccessToken,
		a.RefreshToken,
		a.IDToken,
		a.TokenType,
		a.Scope,
		a.ExpiresAt,
	).Scan(&a.ID, &a.UserID)
}
