package readstore

import (
	"context"
	"errors"
	"time"

	"voicedesk/internal/domain/business"
	"voicedesk/internal/infra"
	"voicedesk/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const businessColumns = `id, external_id, name, timezone, phone, transfer_phone, policies,
    calendar_provider, calendar_account_id, calendar_id, calendar_oauth_status, created_at`

// BusinessReadStore answers the indexed exact-match lookups tenant resolution
// is built on; no scan-then-filter.
type BusinessReadStore struct {
	db db.DBTX
}

func NewBusinessReadStore(dbtx db.DBTX) *BusinessReadStore {
	return &BusinessReadStore{db: dbtx}
}

// FindByRef matches the opaque tenant reference against external_id first,
// then the primary key. The text cast keeps non-uuid refs from erroring.
func (r *BusinessReadStore) FindByRef(ctx context.Context, ref string) (*business.Business, error) {
	const q = `SELECT ` + businessColumns + `
        FROM businesses
        WHERE external_id = $1 OR id::text = $1
        ORDER BY (external_id = $1) DESC
        LIMIT 1`
	return r.scanOne(r.db.QueryRow(ctx, q, ref))
}

func (r *BusinessReadStore) FindByPhone(ctx context.Context, phoneDigits string) (*business.Business, error) {
	const q = `SELECT ` + businessColumns + `
        FROM businesses
        WHERE regexp_replace(coalesce(phone, ''), '\D', '', 'g') = $1
           OR regexp_replace(coalesce(transfer_phone, ''), '\D', '', 'g') = $1
        LIMIT 1`
	return r.scanOne(r.db.QueryRow(ctx, q, phoneDigits))
}

func (r *BusinessReadStore) FindByAgentID(ctx context.Context, agentID string) (*business.Business, error) {
	const q = `SELECT ` + businessColumns + `
        FROM businesses
        WHERE btrim(policies->>'agent_id') = $1
        LIMIT 1`
	return r.scanOne(r.db.QueryRow(ctx, q, agentID))
}

// FindDemo returns the designated demo tenant, preferring external id "demo",
// then the name "Demo Restaurant", then the oldest registered business.
func (r *BusinessReadStore) FindDemo(ctx context.Context) (*business.Business, error) {
	const q = `SELECT ` + businessColumns + `
        FROM businesses
        ORDER BY (external_id = 'demo') DESC, (name = 'Demo Restaurant') DESC, created_at
        LIMIT 1`
	return r.scanOne(r.db.QueryRow(ctx, q))
}

func (r *BusinessReadStore) scanOne(row pgx.Row) (*business.Business, error) {
	var (
		id                   uuid.UUID
		externalID           *string
		name, timezone       string
		phone, transferPhone *string
		policies             map[string]any
		calProvider          *string
		calAccountID         *string
		calID                *string
		calOAuthStatus       string
		createdAt            time.Time
	)
	err := row.Scan(&id, &externalID, &name, &timezone, &phone, &transferPhone, &policies,
		&calProvider, &calAccountID, &calID, &calOAuthStatus, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("business not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find business", err)
	}

	link := business.CalendarLink{OAuthStatus: calOAuthStatus}
	if calProvider != nil {
		link.Provider = *calProvider
	}
	if calAccountID != nil {
		link.AccountID = *calAccountID
	}
	if calID != nil {
		link.CalendarID = *calID
	}
	return business.ReconstructBusiness(id, externalID, name, timezone, phone, transferPhone, policies, link, createdAt), nil
}
