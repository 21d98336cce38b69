package transit_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/kira-trips/internal/transit"
)

func TestParseDeparture(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	now := time.Date(2026, 10, 19, 15, 4, 0, 0, loc)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"", time.Date(2026, 10, 20, 7, 30, 0, 0, loc)},
		{"tomorrow", time.Date(2026, 10, 20, 7, 30, 0, 0, loc)},
		{"  Tomorrow 09:15 ", time.Date(2026, 10, 20, 9, 15, 0, 0, loc)},
		{"today 18:00", time.Date(2026, 10, 19, 18, 0, 0, 0, loc)},
		{"2026-12-24 08:05", time.Date(2026, 12, 24, 8, 5, 0, 0, loc)},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := transit.ParseDeparture(tc.in, now)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "got %s want %s", got, tc.want)
		})
	}
}

func TestParseDeparture_Invalid(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	for _, in := range []string{"next week", "tomorrow 25:99", "today", "24.12.2026 08:00"} {
		_, err := transit.ParseDeparture(in, now)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, transit.ErrInvalidTime), in)
	}
}

func TestAtClock_KeepsLocation(t *testing.T) {
	loc := time.FixedZone("X", -7200)
	got := transit.AtClock(time.Date(2026, 1, 2, 23, 59, 0, 0, loc), 9, 0)
	assert.Equal(t, time.Date(2026, 1, 2, 9, 0, 0, 0, loc), got)
}

func TestNewLeg_ClampsArrival(t *testing.T) {
	dep := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	leg := transit.NewLeg(transit.ModeBus, transit.Endpoint{Name: "A"}, transit.Endpoint{Name: "B"}, dep, dep.Add(-time.Hour))
	assert.Equal(t, "10:00", leg.Departure)
	assert.Equal(t, "10:00", leg.Arrival)
	assert.Equal(t, 0, leg.DurationMin)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, transit.ModeWalk, transit.ParseMode(""))
	assert.Equal(t, transit.ModeWalk, transit.ParseMode("foot"))
	assert.Equal(t, transit.ModeRail, transit.ParseMode("rail"))
	assert.False(t, transit.ModeWalk.IsTransit())
	assert.True(t, transit.ModeTram.IsTransit())
}
