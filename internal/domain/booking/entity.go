package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidPartySize = errors.New("party size must be positive")
	ErrBookingCancelled = errors.New("booking is already cancelled")
	ErrInvalidStatus    = errors.New("invalid booking status")
)

type ExternalEvent struct {
	Provider string
	EventID  string
}

type Booking struct {
	id            uuid.UUID
	businessID    uuid.UUID
	customerID    uuid.UUID
	slot          TimeSlot
	partySize     int
	status        Status
	notes         string
	source        string
	externalEvent *ExternalEvent
	createdAt     time.Time
}

func NewBooking(businessID, customerID uuid.UUID, slot TimeSlot, partySize int, notes string) (*Booking, error) {
	if partySize <= 0 {
		return nil, ErrInvalidPartySize
	}
	return &Booking{
		id:         uuid.New(),
		businessID: businessID,
		customerID: customerID,
		slot:       slot,
		partySize:  partySize,
		status:     StatusConfirmed,
		notes:      notes,
		source:     SourceVoiceAgent,
	}, nil
}

func ReconstructBooking(
	id, businessID, customerID uuid.UUID,
	slot TimeSlot,
	partySize int,
	status Status,
	notes, source string,
	externalEvent *ExternalEvent,
	createdAt time.Time,
) (*Booking, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	return &Booking{
		id:            id,
		businessID:    businessID,
		customerID:    customerID,
		slot:          slot,
		partySize:     partySize,
		status:        status,
		notes:         notes,
		source:        source,
		externalEvent: externalEvent,
		createdAt:     createdAt,
	}, nil
}

// Reschedule moves the booking to a new slot. Cancelled bookings are terminal.
func (b *Booking) Reschedule(slot TimeSlot) error {
	if b.IsCancelled() {
		return ErrBookingCancelled
	}
	b.slot = slot
	return nil
}

func (b *Booking) ChangePartySize(partySize int) error {
	if b.IsCancelled() {
		return ErrBookingCancelled
	}
	if partySize <= 0 {
		return ErrInvalidPartySize
	}
	b.partySize = partySize
	return nil
}

func (b *Booking) UpdateNotes(notes string) error {
	if b.IsCancelled() {
		return ErrBookingCancelled
	}
	b.notes = notes
	return nil
}

// Cancel is idempotent: cancelling an already-cancelled booking is a no-op.
func (b *Booking) Cancel() {
	b.status = StatusCancelled
}

func (b *Booking) AttachExternalEvent(provider, eventID string) {
	b.externalEvent = &ExternalEvent{Provider: provider, EventID: eventID}
}

func (b *Booking) IsCancelled() bool {
	return b.status == StatusCancelled
}

func (b *Booking) ID() uuid.UUID                 { return b.id }
func (b *Booking) BusinessID() uuid.UUID         { return b.businessID }
func (b *Booking) CustomerID() uuid.UUID         { return b.customerID }
func (b *Booking) Slot() TimeSlot                { return b.slot }
func (b *Booking) PartySize() int                { return b.partySize }
func (b *Booking) Status() Status                { return b.status }
func (b *Booking) Notes() string                 { return b.notes }
func (b *Booking) Source() string                { return b.source }
func (b *Booking) ExternalEvent() *ExternalEvent { return b.externalEvent }
func (b *Booking) CreatedAt() time.Time          { return b.createdAt }
