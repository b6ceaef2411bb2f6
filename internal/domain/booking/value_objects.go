package booking

import (
	"errors"
	"time"
)

type TimeSlot struct {
	start time.Time
	end   time.Time
}

func NewTimeSlot(start, end time.Time) (TimeSlot, error) {
	if !start.Before(end) {
		return TimeSlot{}, errors.New("start time must be before end time")
	}
	return TimeSlot{start: start, end: end}, nil
}

// SlotFromStart derives the end from the tenant's configured duration, which
// keeps end_time = start_time + duration an invariant rather than an input.
func SlotFromStart(start time.Time, duration time.Duration) (TimeSlot, error) {
	return NewTimeSlot(start, start.Add(duration))
}

func (ts TimeSlot) Start() time.Time {
	return ts.start
}

func (ts TimeSlot) End() time.Time {
	return ts.end
}

func (ts TimeSlot) Duration() time.Duration {
	return ts.end.Sub(ts.start)
}
