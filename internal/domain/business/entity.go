package business

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultBookingDurationMinutes = 90
	DefaultMaxGuestsPer15Min      = 40
)

// Policy keys stored in the businesses.policies JSONB column.
const (
	policyKeyBookingDuration = "booking_duration_minutes"
	policyKeyMaxGuests       = "max_total_guests_per_15min"
	policyKeyAgentID         = "agent_id"
)

type CalendarLink struct {
	Provider    string
	AccountID   string
	CalendarID  string
	OAuthStatus string
}

type Business struct {
	id            uuid.UUID
	externalID    *string
	name          string
	timezone      string
	phone         *string
	transferPhone *string
	policies      map[string]any
	calendar      CalendarLink
	createdAt     time.Time
}

func ReconstructBusiness(
	id uuid.UUID,
	externalID *string,
	name, timezone string,
	phone, transferPhone *string,
	policies map[string]any,
	calendar CalendarLink,
	createdAt time.Time,
) *Business {
	return &Business{
		id:            id,
		externalID:    externalID,
		name:          name,
		timezone:      timezone,
		phone:         phone,
		transferPhone: transferPhone,
		policies:      policies,
		calendar:      calendar,
		createdAt:     createdAt,
	}
}

func (b *Business) ID() uuid.UUID          { return b.id }
func (b *Business) ExternalID() *string    { return b.externalID }
func (b *Business) Name() string           { return b.name }
func (b *Business) Timezone() string       { return b.timezone }
func (b *Business) Phone() *string         { return b.phone }
func (b *Business) TransferPhone() *string { return b.transferPhone }
func (b *Business) Calendar() CalendarLink { return b.calendar }
func (b *Business) CreatedAt() time.Time   { return b.createdAt }

func (b *Business) BookingDuration() time.Duration {
	return time.Duration(b.policyInt(policyKeyBookingDuration, DefaultBookingDurationMinutes)) * time.Minute
}

func (b *Business) MaxGuestsPer15Min() int {
	return b.policyInt(policyKeyMaxGuests, DefaultMaxGuestsPer15Min)
}

func (b *Business) AgentID() string {
	return b.policyString(policyKeyAgentID)
}

// CalendarConnected reports whether the tenant completed the Google OAuth
// flow; only then is the remote calendar side channel attempted.
func (b *Business) CalendarConnected() bool {
	return b.calendar.Provider == "google" && b.calendar.OAuthStatus == "connected"
}

// JSONB numbers decode as float64; admin tooling has also stored them as
// strings, so both are accepted.
func (b *Business) policyInt(key string, fallback int) int {
	raw, ok := b.policies[key]
	if !ok {
		return fallback
	}
	switch v := raw.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func (b *Business) policyString(key string) string {
	if v, ok := b.policies[key].(string); ok {
		return v
	}
	return ""
}
