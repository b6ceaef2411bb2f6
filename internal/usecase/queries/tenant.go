package queries

import (
	"context"
	"strings"

	"voicedesk/internal/domain/business"
	"voicedesk/internal/infra"
	"voicedesk/internal/pkg/config"
	"voicedesk/internal/pkg/errs"
	"voicedesk/internal/pkg/phone"
	"voicedesk/internal/usecase/shared"
)

var (
	ErrMissingTenantContext     = errs.New("missing tenant context in call metadata")
	ErrBusinessResolutionFailed = errs.New("no business found for provided tenant context")
)

// BusinessStore provides indexed exact-match lookups; every method reports a
// miss as KindNotFound.
type BusinessStore interface {
	// FindByRef matches an opaque tenant reference against the business
	// external id or primary key.
	FindByRef(ctx context.Context, ref string) (*business.Business, error)
	// FindByPhone matches digits-only normalized numbers against the
	// business phone or transfer phone.
	FindByPhone(ctx context.Context, phoneDigits string) (*business.Business, error)
	// FindByAgentID matches the inbound voice-agent id against the business
	// policy field.
	FindByAgentID(ctx context.Context, agentID string) (*business.Business, error)
	// FindDemo returns the designated demo tenant: external id "demo", else
	// name "Demo Restaurant", else the first registered business.
	FindDemo(ctx context.Context) (*business.Business, error)
}

// Routing reasons reported by the inbound webhook.
const (
	RoutingReasonToNumber = "to_number"
	RoutingReasonAgentID  = "agent_id"
	RoutingReasonDemo     = "fallback_demo"
)

type TenantQueries interface {
	// Resolve maps call context to a tenant via ordered fallback signals,
	// first exact match wins. Read-only.
	Resolve(ctx context.Context, call shared.CallContext) (*business.Business, error)
	// ResolveInbound routes a brand-new inbound call before any metadata
	// exists, reporting which signal matched. Unmapped numbers land on the
	// demo tenant so the call still connects.
	ResolveInbound(ctx context.Context, toNumber, agentID string) (*business.Business, string, error)
}

type tenantQueriesImpl struct {
	store BusinessStore
	cfg   config.TenantConfig
}

func NewTenantQueries(store BusinessStore, cfg config.Config) TenantQueries {
	return &tenantQueriesImpl{store: store, cfg: cfg.Tenant}
}

func (q *tenantQueriesImpl) Resolve(ctx context.Context, call shared.CallContext) (*business.Business, error) {
	if ref := strings.TrimSpace(call.TenantRef); ref != "" {
		if biz, err := q.lookup(q.store.FindByRef(ctx, ref)); biz != nil || err != nil {
			return biz, err
		}
	}
	if ref := strings.TrimSpace(call.BusinessID); ref != "" {
		if biz, err := q.lookup(q.store.FindByRef(ctx, ref)); biz != nil || err != nil {
			return biz, err
		}
	}
	if digits := phone.Normalize(call.ToNumber); digits != "" {
		if biz, err := q.lookup(q.store.FindByPhone(ctx, digits)); biz != nil || err != nil {
			return biz, err
		}
	}
	if agentID := strings.TrimSpace(call.AgentID); agentID != "" {
		if biz, err := q.lookup(q.store.FindByAgentID(ctx, agentID)); biz != nil || err != nil {
			return biz, err
		}
	}

	if !call.HasTenantSignal() {
		return nil, ErrMissingTenantContext
	}

	// Signals were present but none matched. Routing to the demo tenant is
	// an explicit configuration switch, not an environment-name heuristic.
	if q.cfg.DemoFallback {
		if biz, err := q.lookup(q.store.FindDemo(ctx)); biz != nil || err != nil {
			return biz, err
		}
	}
	return nil, ErrBusinessResolutionFailed
}

func (q *tenantQueriesImpl) ResolveInbound(ctx context.Context, toNumber, agentID string) (*business.Business, string, error) {
	if digits := phone.Normalize(toNumber); digits != "" {
		biz, err := q.lookup(q.store.FindByPhone(ctx, digits))
		if err != nil {
			return nil, "", err
		}
		if biz != nil {
			return biz, RoutingReasonToNumber, nil
		}
	}
	if id := strings.TrimSpace(agentID); id != "" {
		biz, err := q.lookup(q.store.FindByAgentID(ctx, id))
		if err != nil {
			return nil, "", err
		}
		if biz != nil {
			return biz, RoutingReasonAgentID, nil
		}
	}

	biz, err := q.lookup(q.store.FindDemo(ctx))
	if err != nil {
		return nil, "", err
	}
	if biz != nil {
		return biz, RoutingReasonDemo, nil
	}
	return nil, "", ErrBusinessResolutionFailed
}

// lookup flattens a store miss into (nil, nil) so the next signal is tried.
func (q *tenantQueriesImpl) lookup(biz *business.Business, err error) (*business.Business, error) {
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return biz, nil
}
