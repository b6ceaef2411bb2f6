package response

import (
	"time"

	"voicedesk/internal/domain/business"
	"voicedesk/internal/usecase/queries"
)

const (
	ResultAvailable      = "AVAILABLE"
	ResultNoAvailability = "NO_AVAILABILITY"
)

type AvailabilityData struct {
	Result              string   `json:"result"`
	AvailableStartTimes []string `json:"available_start_times"`
}

func FromAvailableStarts(starts []time.Time) AvailabilityData {
	data := AvailabilityData{
		Result:              ResultNoAvailability,
		AvailableStartTimes: make([]string, 0, len(starts)),
	}
	for _, s := range starts {
		data.AvailableStartTimes = append(data.AvailableStartTimes, s.Format(time.RFC3339))
	}
	if len(starts) > 0 {
		data.Result = ResultAvailable
	}
	return data
}

type FoundBookingData struct {
	Booking queries.BookingMatch `json:"booking"`
}

// AmbiguousBookingData accompanies the AMBIGUOUS_BOOKING error so the agent
// can read back the top candidates and ask the caller to narrow down.
type AmbiguousBookingData struct {
	Matches []queries.BookingMatch `json:"matches"`
	Count   int                    `json:"count"`
}

type InboundMetadata struct {
	InternalCustomerID  string `json:"internal_customer_id"`
	BusinessID          string `json:"business_id"`
	RoutingReason       string `json:"routing_reason"`
	DebugUnmappedTenant bool   `json:"debug_unmapped_tenant,omitempty"`
}

// InboundResponse is the metadata envelope the voice platform expects from
// the inbound webhook; it is copied verbatim onto the call object.
type InboundResponse struct {
	Metadata InboundMetadata `json:"metadata"`
}

func NewInboundResponse(biz *business.Business, routingReason string) InboundResponse {
	ref := biz.ID().String()
	if ext := biz.ExternalID(); ext != nil && *ext != "" {
		ref = *ext
	}
	meta := InboundMetadata{
		InternalCustomerID: ref,
		BusinessID:         ref,
		RoutingReason:      routingReason,
	}
	if routingReason == queries.RoutingReasonDemo {
		meta.DebugUnmappedTenant = true
	}
	return InboundResponse{Metadata: meta}
}
