package shared

import (
	"context"
	"encoding/json"
	"time"

	"voicedesk/internal/domain/booking"
	"voicedesk/internal/domain/customer"
	"voicedesk/internal/domain/schedule"

	"github.com/google/uuid"
)

// UnitOfWork scopes a single write transaction. The commit boundary is the
// durability line for the primary mutation; the calendar side channel always
// runs outside of it.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	Bookings() BookingRepository
	Customers() CustomerRepository
	Idempotency() IdempotencyRepository
}

type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) error
	// Update persists slot, party size, notes, status and external event linkage.
	Update(ctx context.Context, b *booking.Booking) error
	// FindForBusiness is tenant-scoped: a booking owned by another business
	// is reported as not found (KindNotFound), never leaked.
	FindForBusiness(ctx context.Context, businessID, bookingID uuid.UUID) (*booking.Booking, error)
	// LoadsInWindow returns the capacity footprint of the tenant's bookings
	// overlapping [from, to), optionally excluding one booking id.
	LoadsInWindow(ctx context.Context, businessID uuid.UUID, from, to time.Time, exclude *uuid.UUID) ([]schedule.Load, error)
}

type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error)
	FindByPhone(ctx context.Context, businessID uuid.UUID, phoneDigits string) (*customer.Customer, error)
	Create(ctx context.Context, c *customer.Customer) error
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
}

// IdempotencyRepository persists one immutable response per idempotency key.
// Insert must be atomic against concurrent writers; a duplicate key surfaces
// as KindDuplicateKey and the caller replays the stored response instead.
type IdempotencyRepository interface {
	Insert(ctx context.Context, key string, response json.RawMessage) error
	FindByKey(ctx context.Context, key string) (json.RawMessage, error)
	// UpdateResponse refreshes the stored response after the calendar side
	// channel settles (event id attached or warning recorded).
	UpdateResponse(ctx context.Context, key string, response json.RawMessage) error
}
