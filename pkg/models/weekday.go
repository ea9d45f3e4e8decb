package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	menuerrors "github.com/Ramsey-B/squidly/pkg/errors"
)

// Weekday is one of the seven canonical upper-case day names.
type Weekday string

const (
	Sunday    Weekday = "SUNDAY"
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
)

// Weekdays is indexed by time.Weekday.
var Weekdays = [7]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// ParseWeekday accepts any casing of a day name and returns its canonical key.
func ParseWeekday(value string) (Weekday, error) {
	day := Weekday(strings.ToUpper(strings.TrimSpace(value)))
	for _, candidate := range Weekdays {
		if candidate == day {
			return day, nil
		}
	}
	return "", menuerrors.NewValidationErrorf("day", "invalid weekday %q", value)
}

func WeekdayOf(day time.Weekday) Weekday {
	return Weekdays[day]
}

var slotPattern = regexp.MustCompile(`^(\d{2}):(\d{2})-(\d{2}):(\d{2})$`)

// TimeSlot is an "HH:MM-HH:MM" opening interval in minutes since midnight.
// An end before the start wraps past midnight.
type TimeSlot struct {
	Start int
	End   int
}

func ParseTimeSlot(value string) (TimeSlot, error) {
	match := slotPattern.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return TimeSlot{}, menuerrors.NewValidationErrorf("slot", "invalid time slot %q (expected HH:MM-HH:MM)", value)
	}

	start, err := clockMinutes(match[1], match[2])
	if err != nil {
		return TimeSlot{}, menuerrors.NewValidationErrorf("slot", "invalid time slot %q: %v", value, err)
	}
	end, err := clockMinutes(match[3], match[4])
	if err != nil {
		return TimeSlot{}, menuerrors.NewValidationErrorf("slot", "invalid time slot %q: %v", value, err)
	}

	return TimeSlot{Start: start, End: end}, nil
}

func clockMinutes(hours, minutes string) (int, error) {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("%s:%s is not a clock time", hours, minutes)
	}
	return h*60 + m, nil
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", s.Start/60, s.Start%60, s.End/60, s.End%60)
}

// Wraps reports whether the slot runs past midnight into the next day.
func (s TimeSlot) Wraps() bool {
	return s.End < s.Start
}

// OpenAt reports whether minute (since midnight) on the slot's own day is covered.
func (s TimeSlot) OpenAt(minute int) bool {
	if s.Wraps() {
		return minute >= s.Start
	}
	return minute >= s.Start && minute < s.End
}

// OpenNextDayAt reports whether minute on the following day is still covered.
func (s TimeSlot) OpenNextDayAt(minute int) bool {
	return s.Wraps() && minute < s.End
}
