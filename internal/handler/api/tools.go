package api

import (
	"errors"
	"net/http"

	"voicedesk/internal/domain/business"
	"voicedesk/internal/domain/schedule"
	reqdto "voicedesk/internal/handler/dto/request"
	resdto "voicedesk/internal/handler/dto/response"
	"voicedesk/internal/usecase/commands"
	"voicedesk/internal/usecase/queries"
	"voicedesk/internal/usecase/shared"

	"github.com/gin-gonic/gin"
)

// ToolsHandler serves the function-call endpoints invoked mid-conversation by
// the voice agent. Every response is HTTP 200 with a result envelope; the
// agent reads ok/error_code from the body, not the status line.
type ToolsHandler struct {
	tenants      queries.TenantQueries
	availability queries.AvailabilityQueries
	bookings     queries.BookingQueries
	commands     commands.BookingCommands
}

func NewToolsHandler(
	tenants queries.TenantQueries,
	availability queries.AvailabilityQueries,
	bookings queries.BookingQueries,
	bookingCommands commands.BookingCommands,
) *ToolsHandler {
	return &ToolsHandler{
		tenants:      tenants,
		availability: availability,
		bookings:     bookings,
		commands:     bookingCommands,
	}
}

func (h *ToolsHandler) CheckAvailability(c *gin.Context) {
	wrapper, biz, ok := h.bindAndResolve(c)
	if !ok {
		return
	}

	args, err := reqdto.ParseCheckAvailabilityArgs(wrapper.Args)
	if err != nil {
		envelopeError(c, shared.CodeInvalidArgs, "Invalid availability arguments.")
		return
	}

	starts, err := h.availability.FindAvailableStarts(
		c.Request.Context(), biz, args.DesiredStart, args.Flexibility(),
		args.PartySize, schedule.DefaultMaxResults,
	)
	if err != nil {
		envelopeError(c, shared.CodeSystemUnavailable, "Temporary issue checking availability. Please transfer call.")
		return
	}

	// Zero slots is a legitimate answer, not an error.
	c.JSON(http.StatusOK, shared.OKEnvelope(resdto.FromAvailableStarts(starts)))
}

func (h *ToolsHandler) CreateBooking(c *gin.Context) {
	wrapper, biz, ok := h.bindAndResolve(c)
	if !ok {
		return
	}

	args, err := reqdto.ParseCreateBookingArgs(wrapper.Args)
	if err != nil {
		envelopeError(c, shared.CodeInvalidArgs, "Invalid booking arguments.")
		return
	}

	result, err := h.commands.Create(c.Request.Context(), biz, commands.CreateBookingParams{
		CallID: wrapper.Call.CallID,
		Customer: commands.CustomerInfo{
			Name:  args.CustomerName,
			Phone: args.CustomerPhone,
		},
		StartTime: args.StartTime,
		PartySize: args.PartySize,
		Notes:     args.Notes,
	})
	if err != nil {
		h.writeCommandError(c, err, "Temporary issue creating booking. Please transfer call.")
		return
	}

	// Replays must be byte-identical to the first delivery, so the stored
	// envelope is written through untouched.
	c.Data(http.StatusOK, "application/json; charset=utf-8", result.Response)
}

func (h *ToolsHandler) FindBooking(c *gin.Context) {
	wrapper, biz, ok := h.bindAndResolve(c)
	if !ok {
		return
	}

	args, err := reqdto.ParseFindBookingArgs(wrapper.Args)
	if err != nil {
		envelopeError(c, shared.CodeInvalidArgs, "Invalid booking lookup arguments.")
		return
	}

	matches, err := h.bookings.FindCandidates(c.Request.Context(), biz.ID(), queries.FindBookingParams{
		CustomerPhone: args.CustomerPhone,
		CustomerName:  args.CustomerName,
		Date:          args.Date,
		Time:          args.Time,
		LookaheadDays: args.LookaheadDays,
	})
	if err != nil {
		if errors.Is(err, queries.ErrBookingLookupFailed) {
			envelopeError(c, shared.CodeSystemUnavailable, "Temporary issue finding booking. Please transfer call.")
			return
		}
		envelopeError(c, shared.CodeInvalidArgs, "Invalid booking lookup arguments.")
		return
	}

	switch len(matches) {
	case 0:
		envelopeError(c, shared.CodeBookingNotFound, "I couldn't find a reservation under that phone number.")
	case 1:
		c.JSON(http.StatusOK, shared.OKEnvelope(resdto.FoundBookingData{Booking: matches[0]}))
	default:
		top := matches
		if len(top) > 3 {
			top = top[:3]
		}
		env := shared.ErrorEnvelope(shared.CodeAmbiguousBooking,
			"I found multiple reservations. Please share date or time to narrow it down.")
		env.Data = resdto.AmbiguousBookingData{Matches: top, Count: len(matches)}
		c.JSON(http.StatusOK, env)
	}
}

func (h *ToolsHandler) ModifyBooking(c *gin.Context) {
	wrapper, biz, ok := h.bindAndResolve(c)
	if !ok {
		return
	}

	args, err := reqdto.ParseModifyBookingArgs(wrapper.Args)
	if err != nil {
		envelopeError(c, shared.CodeInvalidArgs, "Invalid modification arguments.")
		return
	}
	bookingID, _ := args.ParseBookingID()

	data, err := h.commands.Modify(c.Request.Context(), biz, commands.ModifyBookingParams{
		BookingID: bookingID,
		StartTime: args.StartTime,
		PartySize: args.PartySize,
		Notes:     args.Notes,
	})
	if err != nil {
		h.writeCommandError(c, err, "Temporary issue modifying booking. Please transfer call.")
		return
	}

	c.JSON(http.StatusOK, shared.OKEnvelope(data))
}

func (h *ToolsHandler) CancelBooking(c *gin.Context) {
	wrapper, biz, ok := h.bindAndResolve(c)
	if !ok {
		return
	}

	args, err := reqdto.ParseCancelBookingArgs(wrapper.Args)
	if err != nil {
		envelopeError(c, shared.CodeInvalidArgs, "Invalid cancellation arguments.")
		return
	}
	bookingID, _ := args.ParseBookingID()

	data, err := h.commands.Cancel(c.Request.Context(), biz, bookingID)
	if err != nil {
		h.writeCommandError(c, err, "Temporary issue cancelling booking. Please transfer call.")
		return
	}

	c.JSON(http.StatusOK, shared.OKEnvelope(data))
}

func (h *ToolsHandler) bindAndResolve(c *gin.Context) (*reqdto.ToolRequest, *business.Business, bool) {
	var wrapper reqdto.ToolRequest
	if err := c.ShouldBindJSON(&wrapper); err != nil {
		envelopeError(c, shared.CodeInvalidRequest, "Invalid function request wrapper.")
		return nil, nil, false
	}

	biz, err := h.tenants.Resolve(c.Request.Context(), wrapper.Call.ToCallContext())
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrMissingTenantContext):
			envelopeError(c, shared.CodeMissingTenantContext, "Missing tenant context in call metadata.")
		case errors.Is(err, queries.ErrBusinessResolutionFailed):
			envelopeError(c, shared.CodeBusinessResolutionFailed, "No business found for provided tenant context.")
		default:
			envelopeError(c, shared.CodeSystemUnavailable, "Temporary issue resolving business. Please transfer call.")
		}
		return nil, nil, false
	}
	return &wrapper, biz, true
}

func (h *ToolsHandler) writeCommandError(c *gin.Context, err error, systemMessage string) {
	switch {
	case errors.Is(err, commands.ErrNoAvailability):
		envelopeError(c, shared.CodeNoAvailability, "That time is fully booked. Would another time work?")
	case errors.Is(err, commands.ErrBookingNotFound):
		envelopeError(c, shared.CodeBookingNotFound, "I couldn't find that reservation.")
	case errors.Is(err, commands.ErrBookingAlreadyCancelled):
		envelopeError(c, shared.CodeBookingAlreadyCancelled, "That reservation is already cancelled.")
	case errors.Is(err, commands.ErrInvalidBookingArgs),
		errors.Is(err, commands.ErrNoChangesRequested),
		errors.Is(err, commands.ErrMissingCallID):
		envelopeError(c, shared.CodeInvalidArgs, "Invalid booking arguments.")
	default:
		envelopeError(c, shared.CodeSystemUnavailable, systemMessage)
	}
}

func envelopeError(c *gin.Context, code, humanMessage string) {
	c.JSON(http.StatusOK, shared.ErrorEnvelope(code, humanMessage))
}
