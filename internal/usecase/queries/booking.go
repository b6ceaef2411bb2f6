package queries

import (
	"context"
	"sort"
	"strings"
	"time"

	"voicedesk/internal/pkg/clock"
	"voicedesk/internal/pkg/errs"
	"voicedesk/internal/pkg/phone"

	"github.com/google/uuid"
)

var ErrBookingLookupFailed = errs.New("failed to search bookings")

// narrowWindow is how far a stated date or time may drift from the stored
// start before a candidate is excluded. Callers rarely remember exact times.
const narrowWindow = 2 * time.Hour

const defaultLookaheadDays = 30

// BookingMatch is the read model returned to the voice agent when locating a
// caller's reservation.
type BookingMatch struct {
	BookingID     uuid.UUID `json:"booking_id"`
	StartTime     time.Time `json:"start_time"`
	PartySize     int       `json:"party_size"`
	Status        string    `json:"status"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
}

// BookingSearchStore returns a tenant's confirmed bookings starting inside
// [from, to], joined with their customer, for a digits-normalized phone.
type BookingSearchStore interface {
	UpcomingByPhone(ctx context.Context, businessID uuid.UUID, phoneDigits string, from, to time.Time) ([]BookingMatch, error)
}

type FindBookingParams struct {
	CustomerPhone string
	CustomerName  *string
	Date          *string // "2006-01-02"
	Time          *string // "15:04"
	LookaheadDays int
}

type BookingQueries interface {
	FindCandidates(ctx context.Context, businessID uuid.UUID, params FindBookingParams) ([]BookingMatch, error)
}

type bookingQueriesImpl struct {
	store BookingSearchStore
	clock clock.Clock
}

func NewBookingQueries(store BookingSearchStore, clk clock.Clock) BookingQueries {
	return &bookingQueriesImpl{store: store, clock: clk}
}

func (q *bookingQueriesImpl) FindCandidates(ctx context.Context, businessID uuid.UUID, params FindBookingParams) ([]BookingMatch, error) {
	lookahead := params.LookaheadDays
	if lookahead <= 0 {
		lookahead = defaultLookaheadDays
	}
	now := q.clock.Now()
	rangeEnd := now.Add(time.Duration(lookahead) * 24 * time.Hour)

	matches, err := q.store.UpcomingByPhone(ctx, businessID, phone.Normalize(params.CustomerPhone), now, rangeEnd)
	if err != nil {
		return nil, errs.Mark(err, ErrBookingLookupFailed)
	}

	filtered := make([]BookingMatch, 0, len(matches))
	for _, m := range matches {
		if !nameMatches(m.CustomerName, params.CustomerName) {
			continue
		}
		ok, err := withinStatedWindow(m.StartTime, params.Date, params.Time)
		if err != nil {
			return nil, err
		}
		if ok {
			filtered = append(filtered, m)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].StartTime.Before(filtered[j].StartTime)
	})
	return filtered, nil
}

func nameMatches(existing string, expected *string) bool {
	if expected == nil || strings.TrimSpace(*expected) == "" {
		return true
	}
	return strings.Contains(
		strings.ToLower(strings.TrimSpace(existing)),
		strings.ToLower(strings.TrimSpace(*expected)),
	)
}

func withinStatedWindow(start time.Time, dateText, timeText *string) (bool, error) {
	if dateText == nil && timeText == nil {
		return true, nil
	}

	if dateText != nil && timeText != nil {
		target, err := time.Parse("2006-01-02 15:04", *dateText+" "+*timeText)
		if err != nil {
			return false, errs.Wrap(err, "invalid date/time filter")
		}
		target = target.UTC()
		return !start.Before(target.Add(-narrowWindow)) && !start.After(target.Add(narrowWindow)), nil
	}

	if dateText != nil {
		day, err := time.Parse("2006-01-02", *dateText)
		if err != nil {
			return false, errs.Wrap(err, "invalid date filter")
		}
		dayStart := day.UTC().Add(-narrowWindow)
		dayEnd := day.UTC().Add(24*time.Hour + narrowWindow)
		return !start.Before(dayStart) && !start.After(dayEnd), nil
	}

	target, err := time.Parse("15:04", *timeText)
	if err != nil {
		return false, errs.Wrap(err, "invalid time filter")
	}
	startMinutes := start.UTC().Hour()*60 + start.UTC().Minute()
	targetMinutes := target.Hour()*60 + target.Minute()
	diff := startMinutes - targetMinutes
	if diff < 0 {
		diff = -diff
	}
	return time.Duration(diff)*time.Minute <= narrowWindow, nil
}
