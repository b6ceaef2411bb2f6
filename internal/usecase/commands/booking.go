package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"voicedesk/internal/domain/booking"
	"voicedesk/internal/domain/business"
	"voicedesk/internal/domain/customer"
	"voicedesk/internal/domain/schedule"
	"voicedesk/internal/infra"
	"voicedesk/internal/pkg/errs"
	"voicedesk/internal/pkg/patch"
	"voicedesk/internal/pkg/phone"
	"voicedesk/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrMissingCallID           = errs.New("missing call id for idempotency fingerprint")
	ErrInvalidBookingArgs      = errs.New("invalid booking arguments")
	ErrNoChangesRequested      = errs.New("at least one change is required")
	ErrNoAvailability          = errs.New("no availability for requested start time")
	ErrBookingNotFound         = errs.New("booking not found for this business")
	ErrBookingAlreadyCancelled = errs.New("booking is already cancelled")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

// calendarWarning is the soft warning surfaced when the remote calendar side
// channel fails; the booking itself is never rolled back for it.
const calendarWarning = "Calendar sync failed"

// CalendarSync is the remote calendar collaborator. Every call is fallible
// and treated as best-effort by this package.
type CalendarSync interface {
	CreateEvent(ctx context.Context, biz *business.Business, bkg *booking.Booking, cust *customer.Customer) (string, error)
	UpdateEvent(ctx context.Context, biz *business.Business, bkg *booking.Booking, cust *customer.Customer, eventID string) (string, error)
	DeleteEvent(ctx context.Context, biz *business.Business, eventID string) error
}

type CustomerInfo struct {
	Name  string
	Phone string
}

type CreateBookingParams struct {
	CallID    string
	Customer  CustomerInfo
	StartTime time.Time
	PartySize int
	Notes     string
}

// CreateBookingResult carries the canonical response payload exactly as
// persisted under the idempotency key; retried deliveries replay it verbatim.
type CreateBookingResult struct {
	Response json.RawMessage
	Replayed bool
}

type ModifyBookingParams struct {
	BookingID uuid.UUID
	StartTime *time.Time
	PartySize *int
	Notes     *string
}

type CreateBookingData struct {
	BookingID       string `json:"booking_id"`
	CustomerID      string `json:"customer_id"`
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	PartySize       int    `json:"party_size"`
	Status          string `json:"status"`
	Source          string `json:"source"`
	Notes           string `json:"notes,omitempty"`
	ExternalEventID string `json:"external_event_id,omitempty"`
	Warning         string `json:"warning,omitempty"`
}

type ModifyBookingData struct {
	BookingID string `json:"booking_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	PartySize int    `json:"party_size"`
	Notes     string `json:"notes,omitempty"`
	Status    string `json:"status"`
	Source    string `json:"source"`
	Warning   string `json:"warning,omitempty"`
}

type CancelBookingData struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Warning   string `json:"warning,omitempty"`
}

type BookingCommands interface {
	Create(ctx context.Context, biz *business.Business, params CreateBookingParams) (*CreateBookingResult, error)
	Modify(ctx context.Context, biz *business.Business, params ModifyBookingParams) (*ModifyBookingData, error)
	Cancel(ctx context.Context, biz *business.Business, bookingID uuid.UUID) (*CancelBookingData, error)
}

type bookingCommandsImpl struct {
	uow         shared.UnitOfWork
	calendar    CalendarSync
	syncTimeout time.Duration
}

func NewBookingCommands(uow shared.UnitOfWork, calendar CalendarSync, syncTimeout time.Duration) BookingCommands {
	return &bookingCommandsImpl{
		uow:         uow,
		calendar:    calendar,
		syncTimeout: syncTimeout,
	}
}

// IdempotencyFingerprint collapses retried deliveries of one caller intent
// into a single key: hex(sha256("callID|startRFC3339|customerPhone")).
func IdempotencyFingerprint(callID string, startTime time.Time, customerPhone string) string {
	source := callID + "|" + startTime.Format(time.RFC3339) + "|" + customerPhone
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

func (c *bookingCommandsImpl) Create(ctx context.Context, biz *business.Business, params CreateBookingParams) (*CreateBookingResult, error) {
	if params.CallID == "" {
		return nil, ErrMissingCallID
	}
	if params.PartySize <= 0 || params.StartTime.IsZero() ||
		params.Customer.Name == "" || phone.Normalize(params.Customer.Phone) == "" {
		return nil, ErrInvalidBookingArgs
	}

	key := IdempotencyFingerprint(params.CallID, params.StartTime, params.Customer.Phone)

	var (
		result  *CreateBookingResult
		created *booking.Booking
		cust    *customer.Customer
	)
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		stored, err := tx.Idempotency().FindByKey(ctx, key)
		if err == nil {
			result = &CreateBookingResult{Response: stored, Replayed: true}
			return nil
		}
		if !infra.IsKind(err, infra.KindNotFound) {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		slot, err := booking.SlotFromStart(params.StartTime, biz.BookingDuration())
		if err != nil {
			return errs.Mark(err, ErrInvalidBookingArgs)
		}

		// Feasibility is re-checked inside the write transaction with the
		// same function modify uses, closing the race between the
		// availability query and this commit.
		feasible, err := c.slotFeasible(ctx, tx, biz, slot, params.PartySize, nil)
		if err != nil {
			return err
		}
		if !feasible {
			return ErrNoAvailability
		}

		cust, err = c.findOrCreateCustomer(ctx, tx, biz.ID(), params.Customer)
		if err != nil {
			return err
		}

		created, err = booking.NewBooking(biz.ID(), cust.ID(), slot, params.PartySize, params.Notes)
		if err != nil {
			return errs.Mark(err, ErrInvalidBookingArgs)
		}
		if err := tx.Bookings().Create(ctx, created); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		payload, err := shared.OKEnvelope(newCreateBookingData(created, cust)).Marshal()
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := tx.Idempotency().Insert(ctx, key, payload); err != nil {
			// Bubble up unwrapped so a duplicate-key race is recognizable.
			return err
		}
		result = &CreateBookingResult{Response: payload}
		return nil
	})
	if err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			// A concurrent duplicate won the key; this writer rolled back.
			// Replay the winner's stored response instead of erroring.
			return c.replayStored(ctx, key)
		}
		return nil, err
	}
	if result.Replayed {
		return result, nil
	}

	if biz.CalendarConnected() {
		c.syncCreatedEvent(ctx, biz, created, cust, key, result)
	}
	return result, nil
}

func (c *bookingCommandsImpl) Modify(ctx context.Context, biz *business.Business, params ModifyBookingParams) (*ModifyBookingData, error) {
	if params.StartTime == nil && params.PartySize == nil && params.Notes == nil {
		return nil, ErrNoChangesRequested
	}
	if params.PartySize != nil && *params.PartySize <= 0 {
		return nil, ErrInvalidBookingArgs
	}

	var (
		bkg  *booking.Booking
		cust *customer.Customer
	)
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		bkg, err = c.findOwnBooking(ctx, tx, biz.ID(), params.BookingID)
		if err != nil {
			return err
		}
		if bkg.IsCancelled() {
			return ErrBookingAlreadyCancelled
		}

		newStart := patch.Coalesce(params.StartTime, bkg.Slot().Start())
		newParty := patch.Coalesce(params.PartySize, bkg.PartySize())
		newNotes := patch.Coalesce(params.Notes, bkg.Notes())

		slot, err := booking.SlotFromStart(newStart, biz.BookingDuration())
		if err != nil {
			return errs.Mark(err, ErrInvalidBookingArgs)
		}

		if params.StartTime != nil {
			exclude := bkg.ID()
			feasible, err := c.slotFeasible(ctx, tx, biz, slot, newParty, &exclude)
			if err != nil {
				return err
			}
			if !feasible {
				return ErrNoAvailability
			}
		}

		if err := bkg.Reschedule(slot); err != nil {
			return errs.Mark(err, ErrBookingAlreadyCancelled)
		}
		if err := bkg.ChangePartySize(newParty); err != nil {
			return errs.Mark(err, ErrInvalidBookingArgs)
		}
		if err := bkg.UpdateNotes(newNotes); err != nil {
			return errs.Mark(err, ErrBookingAlreadyCancelled)
		}
		if err := tx.Bookings().Update(ctx, bkg); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		cust, err = c.findBookingCustomer(ctx, tx, bkg)
		return err
	})
	if err != nil {
		return nil, err
	}

	warning := ""
	if cust != nil && c.shouldSyncExisting(biz, bkg) {
		if syncErr := c.syncUpdatedEvent(ctx, biz, bkg, cust); syncErr != nil {
			warning = calendarWarning
		}
	}

	data := &ModifyBookingData{
		BookingID: bkg.ID().String(),
		StartTime: bkg.Slot().Start().Format(time.RFC3339),
		EndTime:   bkg.Slot().End().Format(time.RFC3339),
		PartySize: bkg.PartySize(),
		Notes:     bkg.Notes(),
		Status:    bkg.Status().String(),
		Source:    bkg.Source(),
		Warning:   warning,
	}
	return data, nil
}

func (c *bookingCommandsImpl) Cancel(ctx context.Context, biz *business.Business, bookingID uuid.UUID) (*CancelBookingData, error) {
	var (
		bkg              *booking.Booking
		alreadyCancelled bool
	)
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		bkg, err = c.findOwnBooking(ctx, tx, biz.ID(), bookingID)
		if err != nil {
			return err
		}
		if bkg.IsCancelled() {
			// Cancelling twice is expected caller behavior, not an error.
			alreadyCancelled = true
			return nil
		}
		bkg.Cancel()
		if err := tx.Bookings().Update(ctx, bkg); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	data := &CancelBookingData{
		BookingID: bkg.ID().String(),
		Status:    bkg.Status().String(),
	}
	if alreadyCancelled {
		return data, nil
	}

	if c.shouldSyncExisting(biz, bkg) {
		syncCtx, cancel := context.WithTimeout(ctx, c.syncTimeout)
		defer cancel()
		if syncErr := c.calendar.DeleteEvent(syncCtx, biz, bkg.ExternalEvent().EventID); syncErr != nil {
			slog.Warn("calendar event delete failed",
				"booking_id", bkg.ID(), "business_id", biz.ID(), "error", syncErr)
			data.Warning = calendarWarning
		}
	}
	return data, nil
}

func (c *bookingCommandsImpl) slotFeasible(
	ctx context.Context,
	tx shared.Tx,
	biz *business.Business,
	slot booking.TimeSlot,
	partySize int,
	exclude *uuid.UUID,
) (bool, error) {
	loads, err := tx.Bookings().LoadsInWindow(ctx, biz.ID(), slot.Start(), slot.End(), exclude)
	if err != nil {
		return false, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	ok := schedule.IsSlotAvailable(slot.Start(), partySize, slot.Duration(), biz.MaxGuestsPer15Min(), loads)
	return ok, nil
}

func (c *bookingCommandsImpl) findOwnBooking(ctx context.Context, tx shared.Tx, businessID, bookingID uuid.UUID) (*booking.Booking, error) {
	bkg, err := tx.Bookings().FindForBusiness(ctx, businessID, bookingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return bkg, nil
}

func (c *bookingCommandsImpl) findOrCreateCustomer(ctx context.Context, tx shared.Tx, businessID uuid.UUID, info CustomerInfo) (*customer.Customer, error) {
	digits := phone.Normalize(info.Phone)
	cust, err := tx.Customers().FindByPhone(ctx, businessID, digits)
	if err == nil {
		cust.RefreshName(info.Name)
		if err := tx.Customers().UpdateName(ctx, cust.ID(), cust.Name()); err != nil {
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return cust, nil
	}
	if !infra.IsKind(err, infra.KindNotFound) {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	cust, err = customer.NewCustomer(businessID, info.Name, info.Phone)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidBookingArgs)
	}
	if err := tx.Customers().Create(ctx, cust); err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return cust, nil
}

// findBookingCustomer loads the customer for calendar event payloads; a
// missing row only disables the side channel, it never fails the mutation.
func (c *bookingCommandsImpl) findBookingCustomer(ctx context.Context, tx shared.Tx, bkg *booking.Booking) (*customer.Customer, error) {
	cust, err := tx.Customers().FindByID(ctx, bkg.CustomerID())
	if err == nil {
		return cust, nil
	}
	if infra.IsKind(err, infra.KindNotFound) {
		return nil, nil
	}
	return nil, errs.Mark(err, ErrDatabaseOperationFailed)
}

func (c *bookingCommandsImpl) replayStored(ctx context.Context, key string) (*CreateBookingResult, error) {
	var stored json.RawMessage
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		stored, err = tx.Idempotency().FindByKey(ctx, key)
		return err
	})
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return &CreateBookingResult{Response: stored, Replayed: true}, nil
}

// syncCreatedEvent runs the best-effort calendar side channel after the
// primary commit: failures are logged and downgraded to a response warning,
// never unwinding the booking.
func (c *bookingCommandsImpl) syncCreatedEvent(
	ctx context.Context,
	biz *business.Business,
	bkg *booking.Booking,
	cust *customer.Customer,
	key string,
	result *CreateBookingResult,
) {
	syncCtx, cancel := context.WithTimeout(ctx, c.syncTimeout)
	defer cancel()

	eventID, err := c.calendar.CreateEvent(syncCtx, biz, bkg, cust)
	if err != nil {
		slog.Warn("calendar event create failed",
			"booking_id", bkg.ID(), "business_id", biz.ID(), "error", err)
		data := newCreateBookingData(bkg, cust)
		data.Warning = calendarWarning
		c.refreshStoredResponse(ctx, key, data, result)
		return
	}

	bkg.AttachExternalEvent(biz.Calendar().Provider, eventID)
	data := newCreateBookingData(bkg, cust)

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Bookings().Update(ctx, bkg); err != nil {
			return err
		}
		payload, err := shared.OKEnvelope(data).Marshal()
		if err != nil {
			return err
		}
		if err := tx.Idempotency().UpdateResponse(ctx, key, payload); err != nil {
			return err
		}
		result.Response = payload
		return nil
	})
	if err != nil {
		slog.Warn("failed to persist calendar event linkage",
			"booking_id", bkg.ID(), "business_id", biz.ID(), "error", err)
	}
}

func (c *bookingCommandsImpl) syncUpdatedEvent(ctx context.Context, biz *business.Business, bkg *booking.Booking, cust *customer.Customer) error {
	syncCtx, cancel := context.WithTimeout(ctx, c.syncTimeout)
	defer cancel()

	eventID, err := c.calendar.UpdateEvent(syncCtx, biz, bkg, cust, bkg.ExternalEvent().EventID)
	if err != nil {
		slog.Warn("calendar event update failed",
			"booking_id", bkg.ID(), "business_id", biz.ID(), "error", err)
		return err
	}
	if eventID != "" && eventID != bkg.ExternalEvent().EventID {
		bkg.AttachExternalEvent(biz.Calendar().Provider, eventID)
		if err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			return tx.Bookings().Update(ctx, bkg)
		}); err != nil {
			slog.Warn("failed to persist calendar event linkage",
				"booking_id", bkg.ID(), "business_id", biz.ID(), "error", err)
		}
	}
	return nil
}

func (c *bookingCommandsImpl) refreshStoredResponse(ctx context.Context, key string, data CreateBookingData, result *CreateBookingResult) {
	payload, err := shared.OKEnvelope(data).Marshal()
	if err != nil {
		return
	}
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Idempotency().UpdateResponse(ctx, key, payload)
	})
	if err != nil {
		slog.Warn("failed to refresh stored idempotent response", "error", err)
		return
	}
	result.Response = payload
}

func (c *bookingCommandsImpl) shouldSyncExisting(biz *business.Business, bkg *booking.Booking) bool {
	ev := bkg.ExternalEvent()
	return biz.CalendarConnected() && ev != nil && ev.Provider == biz.Calendar().Provider && ev.EventID != ""
}

func newCreateBookingData(bkg *booking.Booking, cust *customer.Customer) CreateBookingData {
	data := CreateBookingData{
		BookingID:     bkg.ID().String(),
		CustomerID:    cust.ID().String(),
		CustomerName:  cust.Name(),
		CustomerPhone: cust.Phone(),
		StartTime:     bkg.Slot().Start().Format(time.RFC3339),
		EndTime:       bkg.Slot().End().Format(time.RFC3339),
		PartySize:     bkg.PartySize(),
		Status:        bkg.Status().String(),
		Source:        bkg.Source(),
		Notes:         bkg.Notes(),
	}
	if ev := bkg.ExternalEvent(); ev != nil {
		data.ExternalEventID = ev.EventID
	}
	return data
}
