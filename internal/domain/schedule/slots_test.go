//go:build unit

package schedule_test

import (
	"testing"
	"time"

	"voicedesk/internal/domain/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func TestFloorToSlot(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "already aligned", in: "2026-09-01T18:00:00Z", want: "2026-09-01T18:00:00Z"},
		{name: "floors minutes", in: "2026-09-01T18:07:00Z", want: "2026-09-01T18:00:00Z"},
		{name: "floors seconds too", in: "2026-09-01T18:29:59Z", want: "2026-09-01T18:15:00Z"},
		{name: "quarter boundary", in: "2026-09-01T18:45:00Z", want: "2026-09-01T18:45:00Z"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, at(t, tc.want), schedule.FloorToSlot(at(t, tc.in)))
		})
	}
}

func TestFindAvailableStarts(t *testing.T) {
	t.Run("empty schedule ranks by distance then earliest", func(t *testing.T) {
		desired := at(t, "2026-09-01T18:00:00Z")

		got := schedule.FindAvailableStarts(desired, 30*time.Minute, 4, 90*time.Minute, 40, nil, 3)

		want := []time.Time{
			at(t, "2026-09-01T18:00:00Z"),
			at(t, "2026-09-01T17:45:00Z"),
			at(t, "2026-09-01T18:15:00Z"),
		}
		assert.Equal(t, want, got)
	})

	t.Run("full-span blocker yields empty result", func(t *testing.T) {
		desired := at(t, "2026-09-01T18:00:00Z")
		existing := []schedule.Load{
			{Start: at(t, "2026-09-01T14:00:00Z"), End: at(t, "2026-09-01T22:00:00Z"), PartySize: 4},
		}

		got := schedule.FindAvailableStarts(desired, 60*time.Minute, 2, 90*time.Minute, 4, existing, 3)

		assert.Empty(t, got)
	})

	t.Run("cancelled loads never count", func(t *testing.T) {
		desired := at(t, "2026-09-01T18:00:00Z")
		existing := []schedule.Load{
			{Start: at(t, "2026-09-01T14:00:00Z"), End: at(t, "2026-09-01T22:00:00Z"), PartySize: 40, Cancelled: true},
		}

		got := schedule.FindAvailableStarts(desired, 30*time.Minute, 4, 90*time.Minute, 40, existing, 3)

		require.Len(t, got, 3)
		assert.Equal(t, desired, got[0])
	})

	t.Run("zero flexibility checks only the desired slot", func(t *testing.T) {
		desired := at(t, "2026-09-01T18:00:00Z")

		got := schedule.FindAvailableStarts(desired, 0, 4, 90*time.Minute, 40, nil, 3)

		assert.Equal(t, []time.Time{desired}, got)
	})

	t.Run("respects max results", func(t *testing.T) {
		desired := at(t, "2026-09-01T18:00:00Z")

		got := schedule.FindAvailableStarts(desired, 2*time.Hour, 2, 90*time.Minute, 40, nil, 5)

		assert.Len(t, got, 5)
	})

	t.Run("every result is slot aligned and within window", func(t *testing.T) {
		desired := at(t, "2026-09-01T18:05:00Z")
		flex := 45 * time.Minute

		got := schedule.FindAvailableStarts(desired, flex, 2, time.Hour, 10, nil, 10)

		for _, start := range got {
			assert.Equal(t, start, schedule.FloorToSlot(start))
			assert.False(t, start.Before(schedule.FloorToSlot(desired.Add(-flex))))
			assert.False(t, start.After(desired.Add(flex)))
		}
	})
}

func TestIsSlotAvailable(t *testing.T) {
	start := "2026-09-01T18:00:00Z"

	cases := []struct {
		name      string
		partySize int
		cap       int
		existing  []schedule.Load
		want      bool
	}{
		{
			name:      "empty schedule fits",
			partySize: 4,
			cap:       40,
			want:      true,
		},
		{
			name:      "exactly at capacity fits",
			partySize: 4,
			cap:       8,
			existing: []schedule.Load{
				{Start: mustAt("2026-09-01T18:00:00Z"), End: mustAt("2026-09-01T19:30:00Z"), PartySize: 4},
			},
			want: true,
		},
		{
			name:      "one over capacity is rejected",
			partySize: 5,
			cap:       8,
			existing: []schedule.Load{
				{Start: mustAt("2026-09-01T18:00:00Z"), End: mustAt("2026-09-01T19:30:00Z"), PartySize: 4},
			},
			want: false,
		},
		{
			name:      "stay ending at bucket start does not overlap",
			partySize: 6,
			cap:       8,
			existing: []schedule.Load{
				{Start: mustAt("2026-09-01T16:30:00Z"), End: mustAt("2026-09-01T18:00:00Z"), PartySize: 4},
			},
			want: true,
		},
		{
			name:      "stay starting at candidate end does not overlap",
			partySize: 6,
			cap:       8,
			existing: []schedule.Load{
				{Start: mustAt("2026-09-01T19:30:00Z"), End: mustAt("2026-09-01T21:00:00Z"), PartySize: 4},
			},
			want: true,
		},
		{
			name:      "single blocked bucket rejects the whole stay",
			partySize: 5,
			cap:       8,
			existing: []schedule.Load{
				{Start: mustAt("2026-09-01T19:15:00Z"), End: mustAt("2026-09-01T19:30:00Z"), PartySize: 4},
			},
			want: false,
		},
		{
			name:      "zero-time loads are ignored",
			partySize: 4,
			cap:       4,
			existing:  []schedule.Load{{PartySize: 100}},
			want:      true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := schedule.IsSlotAvailable(mustAt(start), tc.partySize, 90*time.Minute, tc.cap, tc.existing)
			assert.Equal(t, tc.want, got)
		})
	}
}

func mustAt(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return parsed
}
