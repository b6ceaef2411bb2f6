package repository

import (
	"context"
	"encoding/json"
	"errors"

	"voicedesk/internal/infra"
	"voicedesk/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// IdempotencyRepository stores one immutable response payload per key. The
// unique constraint on key is the actual concurrency-safety mechanism for
// duplicate creates: losers observe KindDuplicateKey and replay the winner.
type IdempotencyRepository struct {
	db db.DBTX
}

func NewIdempotencyRepository(dbtx db.DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{db: dbtx}
}

// Insert is an atomic claim, not check-then-insert: ON CONFLICT DO NOTHING
// with a rows-affected check keeps the race window closed in one statement.
func (r *IdempotencyRepository) Insert(ctx context.Context, key string, response json.RawMessage) error {
	const q = `INSERT INTO idempotency_keys (id, key, response) VALUES ($1, $2, $3)
        ON CONFLICT (key) DO NOTHING`

	tag, err := r.db.Exec(ctx, q, uuid.New(), key, []byte(response))
	if err != nil {
		return wrapPgErr("failed to insert idempotency key", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("idempotency key already claimed", nil, infra.KindDuplicateKey)
	}
	return nil
}

func (r *IdempotencyRepository) FindByKey(ctx context.Context, key string) (json.RawMessage, error) {
	const q = `SELECT response FROM idempotency_keys WHERE key = $1`

	var response []byte
	if err := r.db.QueryRow(ctx, q, key).Scan(&response); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find idempotency key", err)
	}
	return response, nil
}

func (r *IdempotencyRepository) UpdateResponse(ctx context.Context, key string, response json.RawMessage) error {
	const q = `UPDATE idempotency_keys SET response = $2 WHERE key = $1`
	if _, err := r.db.Exec(ctx, q, key, []byte(response)); err != nil {
		return wrapPgErr("failed to update idempotency response", err)
	}
	return nil
}
