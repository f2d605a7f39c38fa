package domain

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
	"time"
)

// Day is a day-of-week index with Monday=0 through Sunday=6.
type Day uint8

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// String returns the short English day name.
func (d Day) String() string {
	if d > Sunday {
		return fmt.Sprintf("Day(%d)", d)
	}
	return dayNames[d]
}

// Weekday maps t onto the Monday-based Day index.
func Weekday(t time.Time) Day {
	return Day((int(t.Weekday()) + 6) % 7)
}

// DaySet is a bitset of active days; bit i set means Day(i) is active.
type DaySet uint8

// AllDays is the set containing every day of the week.
const AllDays DaySet = 1<<7 - 1

// NewDaySet builds a set from day indices, rejecting values outside 0..6.
func NewDaySet(days ...Day) (DaySet, error) {
	var s DaySet
	for _, d := range days {
		if d > Sunday {
			return 0, fmt.Errorf("%w: %d", ErrInvalidDay, d)
		}
		s |= 1 << d
	}
	return s, nil
}

// Has reports whether d is in the set.
func (s DaySet) Has(d Day) bool { return d <= Sunday && s&(1<<d) != 0 }

// Len returns the number of active days.
func (s DaySet) Len() int { return bits.OnesCount8(uint8(s & AllDays)) }

// Days returns the members in ascending order.
func (s DaySet) Days() []Day {
	out := make([]Day, 0, 7)
	for d := Monday; d <= Sunday; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// String renders the set in the persisted comma-separated form, e.g. "0,1,2".
func (s DaySet) String() string {
	days := s.Days()
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

// ParseDays parses a comma-separated list of day indices. Whitespace around
// tokens and empty tokens are ignored; any other token is an error.
func ParseDays(s string) (DaySet, error) {
	var set DaySet
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 || n > int(Sunday) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDay, tok)
		}
		set |= 1 << uint(n)
	}
	return set, nil
}

// Schedule is the daily blocking window and the days it applies to.
// A start later than the end means the window spans midnight.
type Schedule struct {
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
	ActiveDays  DaySet
}

// Default window values applied when no schedule has been stored, or when a
// stored record is missing fields.
const (
	DefaultStartHour   = 9
	DefaultStartMinute = 0
	DefaultEndHour     = 20
	DefaultEndMinute   = 0
)

// DefaultSchedule returns 09:00-20:00 on every day.
func DefaultSchedule() Schedule {
	return Schedule{
		StartHour:   DefaultStartHour,
		StartMinute: DefaultStartMinute,
		EndHour:     DefaultEndHour,
		EndMinute:   DefaultEndMinute,
		ActiveDays:  AllDays,
	}
}

// NewSchedule constructs and validates a Schedule.
func NewSchedule(startHour, startMinute, endHour, endMinute int, days DaySet) (Schedule, error) {
	s := Schedule{
		StartHour:   startHour,
		StartMinute: startMinute,
		EndHour:     endHour,
		EndMinute:   endMinute,
		ActiveDays:  days,
	}
	if err := s.Validate(); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

// Validate checks field ranges and that at least one day is active.
func (s Schedule) Validate() error {
	if s.StartHour < 0 || s.StartHour > 23 || s.EndHour < 0 || s.EndHour > 23 {
		return fmt.Errorf("%w: hour out of range (start=%d end=%d)", ErrInvalidSchedule, s.StartHour, s.EndHour)
	}
	if s.StartMinute < 0 || s.StartMinute > 59 || s.EndMinute < 0 || s.EndMinute > 59 {
		return fmt.Errorf("%w: minute out of range (start=%d end=%d)", ErrInvalidSchedule, s.StartMinute, s.EndMinute)
	}
	if s.ActiveDays&^AllDays != 0 {
		return fmt.Errorf("%w: unknown day bits %08b", ErrInvalidSchedule, uint8(s.ActiveDays))
	}
	if s.ActiveDays.Len() == 0 {
		return ErrNoActiveDays
	}
	return nil
}

// StartMinutes is the window start as minutes past midnight.
func (s Schedule) StartMinutes() int { return s.StartHour*60 + s.StartMinute }

// EndMinutes is the window end as minutes past midnight.
func (s Schedule) EndMinutes() int { return s.EndHour*60 + s.EndMinute }

// SpansMidnight reports whether the window wraps into the next day.
func (s Schedule) SpansMidnight() bool { return s.StartMinutes() > s.EndMinutes() }

// WithoutDay returns a copy with d removed. Removing the last active day is
// refused with ErrNoActiveDays.
func (s Schedule) WithoutDay(d Day) (Schedule, error) {
	if d > Sunday {
		return s, fmt.Errorf("%w: %d", ErrInvalidDay, d)
	}
	next := s
	next.ActiveDays &^= 1 << d
	if next.ActiveDays.Len() == 0 {
		return s, ErrNoActiveDays
	}
	return next, nil
}

// String renders the window as "HH:MM-HH:MM [days]".
func (s Schedule) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d [%s]", s.StartHour, s.StartMinute, s.EndHour, s.EndMinute, s.ActiveDays)
}
