package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func istTime(t *testing.T, year int, month time.Month, day, hour, minute int) time.Time {
	t.Helper()
	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		ist = time.FixedZone("IST", 5*3600+1800)
	}
	return time.Date(year, month, day, hour, minute, 0, 0, ist)
}

func TestMarketStatusAt(t *testing.T) {
	ms := NewMarketService()

	tests := []struct {
		name string
		at   time.Time
		open bool
	}{
		{"sunday morning", istTime(t, 2026, time.August, 30, 11, 0), false},
		{"sunday afternoon", istTime(t, 2026, time.August, 30, 15, 0), false},
		{"monday before open", istTime(t, 2026, time.August, 31, 9, 59), false},
		{"monday at open", istTime(t, 2026, time.August, 31, 10, 0), true},
		{"monday midday", istTime(t, 2026, time.August, 31, 13, 30), true},
		{"monday last open hour", istTime(t, 2026, time.August, 31, 17, 59), true},
		{"monday at close", istTime(t, 2026, time.August, 31, 18, 0), false},
		{"saturday midday", istTime(t, 2026, time.August, 29, 12, 0), true},
		{"tuesday late night", istTime(t, 2026, time.September, 1, 23, 0), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			message, open := ms.MarketStatusAt(tc.at)
			assert.Equal(t, tc.open, open)
			assert.NotEmpty(t, message)
		})
	}
}

func TestMarketStatusAtConvertsZone(t *testing.T) {
	ms := NewMarketService()

	// 05:30 UTC is 11:00 IST on a weekday
	utc := time.Date(2026, time.August, 31, 5, 30, 0, 0, time.UTC)
	_, open := ms.MarketStatusAt(utc)
	assert.True(t, open)

	// 14:00 UTC is 19:30 IST, past closing
	utc = time.Date(2026, time.August, 31, 14, 0, 0, 0, time.UTC)
	_, open = ms.MarketStatusAt(utc)
	assert.False(t, open)
}

func TestMarketHolidayMessage(t *testing.T) {
	ms := NewMarketService()

	message, open := ms.MarketStatusAt(istTime(t, 2026, time.August, 30, 12, 0))
	assert.False(t, open)
	assert.Equal(t, "Today is a holiday, the market is closed.", message)
}
