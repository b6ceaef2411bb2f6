package queries

import (
	"context"
	"time"

	"voicedesk/internal/domain/business"
	"voicedesk/internal/domain/schedule"
	"voicedesk/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrAvailabilityLookupFailed = errs.New("failed to load existing bookings")

// BookingLoadStore returns the capacity footprint of a tenant's bookings
// overlapping [from, to).
type BookingLoadStore interface {
	LoadsInWindow(ctx context.Context, businessID uuid.UUID, from, to time.Time, exclude *uuid.UUID) ([]schedule.Load, error)
}

type AvailabilityQueries interface {
	// FindAvailableStarts answers "when can this party be seated" within the
	// tenant's capacity policy. An empty slice is a legitimate no-availability
	// answer.
	FindAvailableStarts(ctx context.Context, biz *business.Business, desired time.Time, flexibility time.Duration, partySize, maxResults int) ([]time.Time, error)
}

type availabilityQueriesImpl struct {
	loads BookingLoadStore
}

func NewAvailabilityQueries(loads BookingLoadStore) AvailabilityQueries {
	return &availabilityQueriesImpl{loads: loads}
}

func (q *availabilityQueriesImpl) FindAvailableStarts(
	ctx context.Context,
	biz *business.Business,
	desired time.Time,
	flexibility time.Duration,
	partySize, maxResults int,
) ([]time.Time, error) {
	duration := biz.BookingDuration()
	windowStart := desired.Add(-flexibility)
	windowEnd := desired.Add(flexibility)

	// The fetch window extends past the search window by the booking duration
	// so bookings overlapping in from just outside it are still counted.
	existing, err := q.loads.LoadsInWindow(ctx, biz.ID(), windowStart, windowEnd.Add(duration), nil)
	if err != nil {
		return nil, errs.Mark(err, ErrAvailabilityLookupFailed)
	}

	return schedule.FindAvailableStarts(
		desired,
		flexibility,
		partySize,
		duration,
		biz.MaxGuestsPer15Min(),
		existing,
		maxResults,
	), nil
}
