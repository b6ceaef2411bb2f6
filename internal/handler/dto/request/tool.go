package request

import (
	"encoding/json"
	"strings"
	"time"

	"voicedesk/internal/pkg/errs"
	"voicedesk/internal/pkg/phone"
	"voicedesk/internal/usecase/shared"

	"github.com/google/uuid"
)

const defaultFlexibilityMinutes = 60

var (
	ErrInvalidToolArgs    = errs.New("invalid tool arguments")
	ErrNoChangesRequested = errs.New("at least one change is required")
)

// ToolRequest is the function-call wrapper the voice platform posts to every
// tool endpoint: the tool name, its arguments, and the live call object.
type ToolRequest struct {
	Name string          `json:"name" binding:"required"`
	Args json.RawMessage `json:"args" binding:"required"`
	Call CallPayload     `json:"call"`
}

// CallPayload is the subset of the platform's call object the engine reads.
// Unknown fields are ignored on purpose; the payload schema is not ours.
type CallPayload struct {
	CallID       string       `json:"call_id"`
	ToNumber     string       `json:"to_number"`
	To           string       `json:"to"`
	CalledNumber string       `json:"called_number"`
	AgentID      string       `json:"agent_id"`
	Metadata     CallMetadata `json:"metadata"`
}

type CallMetadata struct {
	InternalCustomerID string `json:"internal_customer_id"`
	BusinessID         string `json:"business_id"`
}

func (c CallPayload) ToCallContext() shared.CallContext {
	return shared.CallContext{
		CallID:     c.CallID,
		TenantRef:  strings.TrimSpace(c.Metadata.InternalCustomerID),
		BusinessID: strings.TrimSpace(c.Metadata.BusinessID),
		ToNumber:   c.pickToNumber(),
		AgentID:    strings.TrimSpace(c.AgentID),
	}
}

// pickToNumber tolerates the three field names the platform has used for the
// dialed number.
func (c CallPayload) pickToNumber() string {
	for _, candidate := range []string{c.ToNumber, c.To, c.CalledNumber} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

type CheckAvailabilityArgs struct {
	DesiredStart       time.Time `json:"desired_start"`
	PartySize          int       `json:"party_size"`
	FlexibilityMinutes *int      `json:"flexibility_minutes"`
}

func (a CheckAvailabilityArgs) Flexibility() time.Duration {
	if a.FlexibilityMinutes == nil {
		return defaultFlexibilityMinutes * time.Minute
	}
	return time.Duration(*a.FlexibilityMinutes) * time.Minute
}

func ParseCheckAvailabilityArgs(raw json.RawMessage) (CheckAvailabilityArgs, error) {
	var args CheckAvailabilityArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return args, errs.Mark(err, ErrInvalidToolArgs)
	}
	if args.DesiredStart.IsZero() || args.PartySize <= 0 {
		return args, ErrInvalidToolArgs
	}
	if args.FlexibilityMinutes != nil && *args.FlexibilityMinutes < 0 {
		return args, ErrInvalidToolArgs
	}
	return args, nil
}

type CreateBookingArgs struct {
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	StartTime     time.Time `json:"start_time"`
	PartySize     int       `json:"party_size"`
	Notes         string    `json:"notes"`
}

func ParseCreateBookingArgs(raw json.RawMessage) (CreateBookingArgs, error) {
	var args CreateBookingArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return args, errs.Mark(err, ErrInvalidToolArgs)
	}
	if strings.TrimSpace(args.CustomerName) == "" ||
		phone.Normalize(args.CustomerPhone) == "" ||
		args.StartTime.IsZero() || args.PartySize <= 0 {
		return args, ErrInvalidToolArgs
	}
	return args, nil
}

type ModifyBookingArgs struct {
	BookingID string     `json:"booking_id"`
	StartTime *time.Time `json:"start_time"`
	PartySize *int       `json:"party_size"`
	Notes     *string    `json:"notes"`
}

func (a ModifyBookingArgs) ParseBookingID() (uuid.UUID, error) {
	id, err := uuid.Parse(a.BookingID)
	if err != nil {
		return uuid.Nil, errs.Mark(err, ErrInvalidToolArgs)
	}
	return id, nil
}

func ParseModifyBookingArgs(raw json.RawMessage) (ModifyBookingArgs, error) {
	var args ModifyBookingArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return args, errs.Mark(err, ErrInvalidToolArgs)
	}
	if _, err := args.ParseBookingID(); err != nil {
		return args, err
	}
	if args.StartTime == nil && args.PartySize == nil && args.Notes == nil {
		return args, ErrNoChangesRequested
	}
	if args.PartySize != nil && *args.PartySize <= 0 {
		return args, ErrInvalidToolArgs
	}
	return args, nil
}

type CancelBookingArgs struct {
	BookingID string `json:"booking_id"`
}

func (a CancelBookingArgs) ParseBookingID() (uuid.UUID, error) {
	id, err := uuid.Parse(a.BookingID)
	if err != nil {
		return uuid.Nil, errs.Mark(err, ErrInvalidToolArgs)
	}
	return id, nil
}

func ParseCancelBookingArgs(raw json.RawMessage) (CancelBookingArgs, error) {
	var args CancelBookingArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return args, errs.Mark(err, ErrInvalidToolArgs)
	}
	if _, err := args.ParseBookingID(); err != nil {
		return args, err
	}
	return args, nil
}

type FindBookingArgs struct {
	CustomerPhone string  `json:"customer_phone"`
	CustomerName  *string `json:"customer_name"`
	Date          *string `json:"date"`
	Time          *string `json:"time"`
	LookaheadDays int     `json:"lookahead_days"`
}

func ParseFindBookingArgs(raw json.RawMessage) (FindBookingArgs, error) {
	var args FindBookingArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return args, errs.Mark(err, ErrInvalidToolArgs)
	}
	if phone.Normalize(args.CustomerPhone) == "" {
		return args, ErrInvalidToolArgs
	}
	if args.LookaheadDays < 0 || args.LookaheadDays > 365 {
		return args, ErrInvalidToolArgs
	}
	return args, nil
}
