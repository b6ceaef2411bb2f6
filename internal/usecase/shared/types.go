package shared

import "encoding/json"

// CallContext is the normalized, ephemeral call metadata handed over by the
// transport layer. It is never persisted here; it only carries the signals
// tenant resolution needs plus the call id used for idempotency.
type CallContext struct {
	CallID     string
	TenantRef  string // metadata "internal_customer_id", set by the inbound routing webhook
	BusinessID string // metadata "business_id"
	ToNumber   string
	AgentID    string
}

// HasTenantSignal distinguishes "no signal at all" (caller misconfiguration)
// from "signal present but unmatched" (possibly an unmapped phone number).
func (c CallContext) HasTenantSignal() bool {
	return c.TenantRef != "" || c.BusinessID != "" || c.ToNumber != "" || c.AgentID != ""
}

// Envelope is the result shape produced for the transport layer:
// {ok, data} on success, {ok, error_code, human_message} on rejection.
type Envelope struct {
	OK           bool   `json:"ok"`
	Data         any    `json:"data,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	HumanMessage string `json:"human_message,omitempty"`
}

func OKEnvelope(data any) Envelope {
	return Envelope{OK: true, Data: data}
}

func ErrorEnvelope(code, humanMessage string) Envelope {
	return Envelope{OK: false, ErrorCode: code, HumanMessage: humanMessage}
}

func (e Envelope) Marshal() (json.RawMessage, error) {
	return json.Marshal(e)
}

// Error codes the core emits toward the voice transport.
const (
	CodeMissingTenantContext     = "MISSING_TENANT_CONTEXT"
	CodeBusinessResolutionFailed = "BUSINESS_RESOLUTION_FAILED"
	CodeNoAvailability           = "NO_AVAILABILITY"
	CodeBookingNotFound          = "BOOKING_NOT_FOUND"
	CodeBookingAlreadyCancelled  = "BOOKING_ALREADY_CANCELLED"
	CodeInvalidArgs              = "INVALID_ARGS"
	CodeInvalidRequest           = "INVALID_REQUEST"
	CodeAmbiguousBooking         = "AMBIGUOUS_BOOKING"
	CodeSystemUnavailable        = "SYSTEM_UNAVAILABLE"
)
