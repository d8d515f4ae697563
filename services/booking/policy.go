package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"jeffjackson/models"
)

// PricingTable maps each event type to its deposit price in whole dollars.
var PricingTable = map[models.EventType]int{
	models.EventWedding:      500,
	models.EventBirthday:     350,
	models.EventSport:        300,
	models.EventHolidayParty: 350,
	models.EventPrivate:      300,
	models.EventNightLife:    400,
	models.EventCruiseParty:  450,
}

var (
	weekendTimes = []string{"8:00 AM", "10:00 AM", "12:00 PM", "2:00 PM", "4:00 PM", "6:00 PM", "8:00 PM"}
	weekdayTimes = []string{"5:00 PM", "7:00 PM", "9:00 PM"}
)

// PriceFor looks up the price of an event type. It never defaults to zero.
func PriceFor(eventType models.EventType) (int, error) {
	price, ok := PricingTable[eventType]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
	}
	return price, nil
}

// AllowedTimes returns the slot labels offered on date's weekday, in order.
func AllowedTimes(date time.Time) []string {
	var src []string
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		src = weekendTimes
	default:
		src = weekdayTimes
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// FilterFutureSlots drops slots that have already started when date is today
// (same calendar day as now, in now's location). Other days are returned unchanged.
// Unparseable labels are dropped on today's date.
func FilterFutureSlots(date time.Time, times []string, now time.Time) []string {
	d := date.In(now.Location())
	if d.Year() != now.Year() || d.Month() != now.Month() || d.Day() != now.Day() {
		return times
	}
	nowMinutes := now.Hour()*60 + now.Minute()
	out := make([]string, 0, len(times))
	for _, label := range times {
		h, m, err := ParseSlotTime(label)
		if err != nil {
			continue
		}
		if h*60+m > nowMinutes {
			out = append(out, label)
		}
	}
	return out
}

// BookableTimes is AllowedTimes filtered against the current time.
func BookableTimes(date, now time.Time) []string {
	return FilterFutureSlots(date, AllowedTimes(date), now)
}

// ParseSlotTime parses a 12-hour label such as "8:00 PM" into hour and minute.
// 12 AM is hour 0 and 12 PM stays hour 12.
func ParseSlotTime(label string) (hour, minute int, err error) {
	fields := strings.Fields(strings.TrimSpace(label))
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("invalid slot time %q", label)
	}
	clock, meridiem := fields[0], strings.ToUpper(fields[1])
	hh, mm, found := strings.Cut(clock, ":")
	if !found {
		mm = "0"
	}
	hour, err = strconv.Atoi(hh)
	if err != nil || hour < 1 || hour > 12 {
		return 0, 0, fmt.Errorf("invalid slot hour in %q", label)
	}
	minute, err = strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid slot minute in %q", label)
	}
	switch meridiem {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return 0, 0, fmt.Errorf("invalid meridiem in %q", label)
	}
	return hour, minute, nil
}

// isPastDay reports whether date falls on a calendar day before now's.
func isPastDay(date, now time.Time) bool {
	d := date.In(now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
	return day.Before(today)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
