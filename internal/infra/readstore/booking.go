package readstore

import (
	"context"
	"time"

	"voicedesk/internal/domain/booking"
	"voicedesk/internal/domain/schedule"
	"voicedesk/internal/infra"
	"voicedesk/internal/infra/db"
	"voicedesk/internal/usecase/queries"

	"github.com/google/uuid"
)

// BookingReadStore serves availability and lookup queries outside of any
// write transaction.
type BookingReadStore struct {
	db db.DBTX
}

func NewBookingReadStore(dbtx db.DBTX) *BookingReadStore {
	return &BookingReadStore{db: dbtx}
}

func (r *BookingReadStore) LoadsInWindow(ctx context.Context, businessID uuid.UUID, from, to time.Time, exclude *uuid.UUID) ([]schedule.Load, error) {
	const q = `SELECT start_time, end_time, party_size, status
        FROM bookings
        WHERE business_id = $1 AND end_time > $2 AND start_time < $3 AND ($4::uuid IS NULL OR id <> $4)`

	rows, err := r.db.Query(ctx, q, businessID, from, to, exclude)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load booking window", err)
	}
	defer rows.Close()

	var loads []schedule.Load
	for rows.Next() {
		var (
			load   schedule.Load
			status string
		)
		if err := rows.Scan(&load.Start, &load.End, &load.PartySize, &status); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking load", err)
		}
		load.Cancelled = status == booking.StatusCancelled.String()
		loads = append(loads, load)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read booking window", err)
	}
	return loads, nil
}

func (r *BookingReadStore) UpcomingByPhone(ctx context.Context, businessID uuid.UUID, phoneDigits string, from, to time.Time) ([]queries.BookingMatch, error) {
	const q = `SELECT b.id, b.start_time, b.party_size, b.status, c.name, c.phone
        FROM bookings b
        JOIN customers c ON c.id = b.customer_id
        WHERE b.business_id = $1
          AND b.status = 'confirmed'
          AND regexp_replace(c.phone, '\D', '', 'g') = $2
          AND b.start_time >= $3 AND b.start_time <= $4
        ORDER BY b.start_time`

	rows, err := r.db.Query(ctx, q, businessID, phoneDigits, from, to)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to search upcoming bookings", err)
	}
	defer rows.Close()

	var matches []queries.BookingMatch
	for rows.Next() {
		var m queries.BookingMatch
		if err := rows.Scan(&m.BookingID, &m.StartTime, &m.PartySize, &m.Status, &m.CustomerName, &m.CustomerPhone); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking match", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read booking matches", err)
	}
	return matches, nil
}
