package calendar

import (
	"context"
	"errors"

	"voicedesk/internal/infra"
	"voicedesk/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CredentialsStore hands out the per-tenant Google refresh token. The OAuth
// connect flow that writes these rows lives in the admin path, outside this
// service.
type CredentialsStore interface {
	RefreshToken(ctx context.Context, businessID uuid.UUID) (string, error)
}

type PgCredentialsStore struct {
	db db.DBTX
}

func NewPgCredentialsStore(dbtx db.DBTX) *PgCredentialsStore {
	return &PgCredentialsStore{db: dbtx}
}

func (s *PgCredentialsStore) RefreshToken(ctx context.Context, businessID uuid.UUID) (string, error) {
	const q = `SELECT refresh_token FROM google_oauth_credentials WHERE business_id = $1`

	var token string
	if err := s.db.QueryRow(ctx, q, businessID).Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", infra.WrapRepoErr("google credentials not found", err, infra.KindNotFound)
		}
		return "", infra.WrapRepoErr("failed to load google credentials", err)
	}
	if token == "" {
		return "", infra.WrapRepoErr("missing google refresh token", nil, infra.KindNotFound)
	}
	return token, nil
}
