package booking

import (
	"testing"
	"time"

	"jeffjackson/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceFor(t *testing.T) {
	cases := map[models.EventType]int{
		models.EventWedding:      500,
		models.EventBirthday:     350,
		models.EventSport:        300,
		models.EventHolidayParty: 350,
		models.EventPrivate:      300,
		models.EventNightLife:    400,
		models.EventCruiseParty:  450,
	}
	for et, want := range cases {
		got, err := PriceFor(et)
		require.NoError(t, err, et)
		assert.Equal(t, want, got, et)
	}
	for _, et := range models.EventTypes {
		_, ok := PricingTable[et]
		assert.True(t, ok, "%s has no price", et)
	}

	price, err := PriceFor("Bar Mitzvah")
	assert.ErrorIs(t, err, ErrUnknownEventType)
	assert.Zero(t, price)
}

func TestAllowedTimes(t *testing.T) {
	sat := nextSaturday()
	require.Equal(t, time.Saturday, sat.Weekday())
	assert.Equal(t, []string{"8:00 AM", "10:00 AM", "12:00 PM", "2:00 PM", "4:00 PM", "6:00 PM", "8:00 PM"}, AllowedTimes(sat))
	assert.Len(t, AllowedTimes(sat.AddDate(0, 0, 1)), 7)

	wed := testNow()
	require.Equal(t, time.Wednesday, wed.Weekday())
	assert.Equal(t, []string{"5:00 PM", "7:00 PM", "9:00 PM"}, AllowedTimes(wed))

	// callers may not alter the shared table
	got := AllowedTimes(wed)
	got[0] = "nope"
	assert.Equal(t, "5:00 PM", AllowedTimes(wed)[0])
}

func TestFilterFutureSlots(t *testing.T) {
	day := time.Date(2026, time.October, 14, 0, 0, 0, 0, nyc)
	times := AllowedTimes(day)

	at := func(h, m int) time.Time { return time.Date(2026, time.October, 14, h, m, 0, 0, nyc) }

	assert.Equal(t, []string{"7:00 PM", "9:00 PM"}, FilterFutureSlots(day, times, at(18, 0)))
	assert.Empty(t, FilterFutureSlots(day, times, at(21, 1)))
	assert.Equal(t, []string{"7:00 PM", "9:00 PM"}, FilterFutureSlots(day, times, at(17, 0)), "a slot starting now is gone")
	assert.Equal(t, times, FilterFutureSlots(day, times, at(9, 0)))

	tomorrow := day.AddDate(0, 0, 1)
	assert.Equal(t, AllowedTimes(tomorrow), FilterFutureSlots(tomorrow, AllowedTimes(tomorrow), at(23, 59)))

	assert.Equal(t, []string{"9:00 PM"}, FilterFutureSlots(day, []string{"soon", "9:00 PM"}, at(18, 0)))
}

func TestParseSlotTime(t *testing.T) {
	cases := []struct {
		label      string
		hour, mins int
	}{
		{"12:00 AM", 0, 0},
		{"12:00 PM", 12, 0},
		{"8:00 AM", 8, 0},
		{"8:00 PM", 20, 0},
		{"9:30 pm", 21, 30},
		{"7 PM", 19, 0},
	}
	for _, c := range cases {
		h, m, err := ParseSlotTime(c.label)
		require.NoError(t, err, c.label)
		assert.Equal(t, c.hour, h, c.label)
		assert.Equal(t, c.mins, m, c.label)
	}

	for _, bad := range []string{"", "20:00", "13:00 PM", "0:00 AM", "8:61 AM", "8:00 XM"} {
		_, _, err := ParseSlotTime(bad)
		assert.Error(t, err, bad)
	}
}

func TestIsPastDay(t *testing.T) {
	now := testNow()
	assert.True(t, isPastDay(now.AddDate(0, 0, -1), now))
	assert.False(t, isPastDay(time.Date(2026, time.October, 14, 0, 0, 0, 0, nyc), now))
	assert.False(t, isPastDay(nextSaturday(), now))
}
