// Package schedule computes feasible booking start times against the
// tenant's capacity policy. Guest load is accounted in fixed 15-minute
// buckets: a candidate start is feasible when no bucket its stay overlaps
// would exceed the per-bucket guest cap.
package schedule

import (
	"sort"
	"time"
)

const (
	SlotIncrement     = 15 * time.Minute
	DefaultMaxResults = 3
)

// Load is the footprint of an existing booking as seen by the capacity
// model. Cancelled loads never count against a bucket.
type Load struct {
	Start     time.Time
	End       time.Time
	PartySize int
	Cancelled bool
}

// FindAvailableStarts returns up to maxResults feasible 15-minute-aligned
// start times inside [desired-flexibility, desired+flexibility], ordered by
// absolute distance to desired with ties going to the earlier instant. An
// empty result means no availability, not an error.
//
// Callers fetching existing loads from storage must widen their fetch window
// by the booking duration so stays that begin just outside the search window
// but overlap into it are still counted.
func FindAvailableStarts(
	desired time.Time,
	flexibility time.Duration,
	partySize int,
	duration time.Duration,
	maxGuestsPer15Min int,
	existing []Load,
	maxResults int,
) []time.Time {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	windowEnd := desired.Add(flexibility)
	var candidates []time.Time
	for cursor := FloorToSlot(desired.Add(-flexibility)); !cursor.After(windowEnd); cursor = cursor.Add(SlotIncrement) {
		candidates = append(candidates, cursor)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		di := absDuration(candidates[i].Sub(desired))
		dj := absDuration(candidates[j].Sub(desired))
		if di != dj {
			return di < dj
		}
		return candidates[i].Before(candidates[j])
	})

	available := make([]time.Time, 0, maxResults)
	for _, candidate := range candidates {
		if IsSlotAvailable(candidate, partySize, duration, maxGuestsPer15Min, existing) {
			available = append(available, candidate)
			if len(available) >= maxResults {
				break
			}
		}
	}
	return available
}

// IsSlotAvailable checks every 15-minute bucket of [candidate, candidate+duration)
// for capacity. A booking overlaps a bucket half-open:
// bookingStart < bucketEnd && bookingEnd > bucketStart.
func IsSlotAvailable(
	candidate time.Time,
	partySize int,
	duration time.Duration,
	maxGuestsPer15Min int,
	existing []Load,
) bool {
	end := candidate.Add(duration)
	for bucket := candidate; bucket.Before(end); bucket = bucket.Add(SlotIncrement) {
		bucketEnd := bucket.Add(SlotIncrement)
		total := partySize
		for _, load := range existing {
			if load.Cancelled || load.Start.IsZero() || load.End.IsZero() {
				continue
			}
			if load.Start.Before(bucketEnd) && load.End.After(bucket) {
				total += load.PartySize
			}
		}
		if total > maxGuestsPer15Min {
			return false
		}
	}
	return true
}

// FloorToSlot floors to the enclosing 15-minute wall-clock boundary.
func FloorToSlot(t time.Time) time.Time {
	t = t.Truncate(time.Minute)
	return t.Add(-time.Duration(t.Minute()%15) * time.Minute)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
