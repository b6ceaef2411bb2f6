package repository

import (
	"context"
	"errors"
	"time"

	"voicedesk/internal/domain/booking"
	"voicedesk/internal/domain/schedule"
	"voicedesk/internal/infra"
	"voicedesk/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BookingRepository struct {
	db db.DBTX
}

func NewBookingRepository(dbtx db.DBTX) *BookingRepository {
	return &BookingRepository{db: dbtx}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	const q = `INSERT INTO bookings
        (id, business_id, customer_id, start_time, end_time, party_size, status, notes, source, external_event_id, external_event_provider)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	var eventID, eventProvider *string
	if ev := b.ExternalEvent(); ev != nil {
		eventID, eventProvider = &ev.EventID, &ev.Provider
	}

	_, err := r.db.Exec(ctx, q,
		b.ID(), b.BusinessID(), b.CustomerID(),
		b.Slot().Start(), b.Slot().End(),
		b.PartySize(), b.Status().String(), b.Notes(), b.Source(),
		eventID, eventProvider,
	)
	if err != nil {
		return wrapPgErr("failed to create booking", err)
	}
	return nil
}

func (r *BookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	const q = `UPDATE bookings
        SET start_time = $2, end_time = $3, party_size = $4, status = $5, notes = $6,
            external_event_id = $7, external_event_provider = $8
        WHERE id = $1`

	var eventID, eventProvider *string
	if ev := b.ExternalEvent(); ev != nil {
		eventID, eventProvider = &ev.EventID, &ev.Provider
	}

	tag, err := r.db.Exec(ctx, q,
		b.ID(),
		b.Slot().Start(), b.Slot().End(),
		b.PartySize(), b.Status().String(), b.Notes(),
		eventID, eventProvider,
	)
	if err != nil {
		return wrapPgErr("failed to update booking", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *BookingRepository) FindForBusiness(ctx context.Context, businessID, bookingID uuid.UUID) (*booking.Booking, error) {
	const q = `SELECT id, business_id, customer_id, start_time, end_time, party_size, status, notes, source,
               external_event_id, external_event_provider, created_at
        FROM bookings
        WHERE id = $1 AND business_id = $2`

	row := r.db.QueryRow(ctx, q, bookingID, businessID)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking", err)
	}
	return b, nil
}

func (r *BookingRepository) LoadsInWindow(ctx context.Context, businessID uuid.UUID, from, to time.Time, exclude *uuid.UUID) ([]schedule.Load, error) {
	return queryLoadsInWindow(ctx, r.db, businessID, from, to, exclude)
}

// queryLoadsInWindow is shared with the read store; both sides must count
// capacity with the same half-open overlap semantics.
func queryLoadsInWindow(ctx context.Context, dbtx db.DBTX, businessID uuid.UUID, from, to time.Time, exclude *uuid.UUID) ([]schedule.Load, error) {
	const q = `SELECT start_time, end_time, party_size, status
        FROM bookings
        WHERE business_id = $1 AND end_time > $2 AND start_time < $3 AND ($4::uuid IS NULL OR id <> $4)`

	rows, err := dbtx.Query(ctx, q, businessID, from, to, exclude)
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

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var (
		id, businessID, customerID uuid.UUID
		startTime, endTime         time.Time
		partySize                  int
		status, notes, source      string
		eventID, eventProvider     *string
		createdAt                  time.Time
	)
	err := row.Scan(&id, &businessID, &customerID, &startTime, &endTime, &partySize,
		&status, &notes, &source, &eventID, &eventProvider, &createdAt)
	if err != nil {
		return nil, err
	}

	slot, err := booking.NewTimeSlot(startTime, endTime)
	if err != nil {
		return nil, err
	}
	var ev *booking.ExternalEvent
	if eventID != nil {
		provider := ""
		if eventProvider != nil {
			provider = *eventProvider
		}
		ev = &booking.ExternalEvent{Provider: provider, EventID: *eventID}
	}
	return booking.ReconstructBooking(id, businessID, customerID, slot, partySize,
		booking.Status(status), notes, source, ev, createdAt)
}
