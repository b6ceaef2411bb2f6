package request

import "strings"

// InboundRequest is the webhook payload delivered when a new call rings in,
// before any metadata is attached. The dialed number and agent id may appear
// at the top level or nested under the call object.
type InboundRequest struct {
	ToNumber     string      `json:"to_number"`
	To           string      `json:"to"`
	CalledNumber string      `json:"called_number"`
	AgentID      string      `json:"agent_id"`
	Call         CallPayload `json:"call"`
}

func (r InboundRequest) PickToNumber() string {
	for _, candidate := range []string{r.ToNumber, r.To, r.CalledNumber} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return r.Call.pickToNumber()
}

func (r InboundRequest) PickAgentID() string {
	if trimmed := strings.TrimSpace(r.AgentID); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(r.Call.AgentID)
}
