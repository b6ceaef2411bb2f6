package booking

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusConfirmed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Source identifies which channel created a booking.
const SourceVoiceAgent = "voice_agent"
