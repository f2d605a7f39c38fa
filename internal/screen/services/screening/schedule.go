package screening

import (
	"time"

	"github.com/haukened/ringguard/internal/screen/domain"
)

// IsActive reports whether now falls inside the schedule's blocking window.
// Both window ends are inclusive; a start later than the end wraps past
// midnight. The day check uses the day now falls on, so 01:00 on a Tuesday
// in a 22:00-07:00 window is active only when Tuesday is an active day.
func IsActive(s domain.Schedule, now time.Time) bool {
	if !s.ActiveDays.Has(domain.Weekday(now)) {
		return false
	}
	current := now.Hour()*60 + now.Minute()
	start, end := s.StartMinutes(), s.EndMinutes()
	if s.SpansMidnight() {
		return current >= start || current <= end
	}
	return start <= current && current <= end
}

// EvaluateRecord evaluates a schedule read back from storage. A load error or
// an out-of-range record means "no restriction" and yields true.
func EvaluateRecord(s domain.Schedule, loadErr error, now time.Time) bool {
	if loadErr != nil || s.Validate() != nil {
		return true
	}
	return IsActive(s, now)
}
