package bolt

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/haukened/ringguard/internal/screen/domain"
)

// scheduleRecord is the persisted form of domain.Schedule. Pointer fields let
// decodeSchedule tell a missing field from a zero value so that absent fields
// fall back to the defaults.
type scheduleRecord struct {
	StartHour   *int    `json:"startHour,omitempty"`
	StartMinute *int    `json:"startMinute,omitempty"`
	EndHour     *int    `json:"endHour,omitempty"`
	EndMinute   *int    `json:"endMinute,omitempty"`
	ActiveDays  *string `json:"activeDays,omitempty"`
}

// rejectionRecord is the persisted form of domain.RejectionEntry.
type rejectionRecord struct {
	Number    string `json:"number"`
	Timestamp int64  `json:"timestamp"`
}

func encodeSchedule(s domain.Schedule) ([]byte, error) {
	days := s.ActiveDays.String()
	return json.Marshal(scheduleRecord{
		StartHour:   &s.StartHour,
		StartMinute: &s.StartMinute,
		EndHour:     &s.EndHour,
		EndMinute:   &s.EndMinute,
		ActiveDays:  &days,
	})
}

// decodeSchedule parses a stored schedule, applying the default for every
// missing field. Unparseable or out-of-range data wraps domain.ErrInvalidSchedule.
func decodeSchedule(v []byte) (domain.Schedule, error) {
	var rec scheduleRecord
	if err := json.Unmarshal(v, &rec); err != nil {
		return domain.Schedule{}, fmt.Errorf("%w: %v", domain.ErrInvalidSchedule, err)
	}
	s := domain.DefaultSchedule()
	if rec.StartHour != nil {
		s.StartHour = *rec.StartHour
	}
	if rec.StartMinute != nil {
		s.StartMinute = *rec.StartMinute
	}
	if rec.EndHour != nil {
		s.EndHour = *rec.EndHour
	}
	if rec.EndMinute != nil {
		s.EndMinute = *rec.EndMinute
	}
	if rec.ActiveDays != nil {
		days, err := domain.ParseDays(*rec.ActiveDays)
		if err != nil {
			return domain.Schedule{}, fmt.Errorf("%w: %v", domain.ErrInvalidSchedule, err)
		}
		s.ActiveDays = days
	}
	if err := s.Validate(); err != nil {
		if errors.Is(err, domain.ErrInvalidSchedule) {
			return domain.Schedule{}, err
		}
		return domain.Schedule{}, fmt.Errorf("%w: %v", domain.ErrInvalidSchedule, err)
	}
	return s, nil
}

func encodeRejection(e domain.RejectionEntry) ([]byte, error) {
	return json.Marshal(rejectionRecord{Number: e.Number, Timestamp: e.Timestamp})
}

func decodeRejection(v []byte) (domain.RejectionEntry, error) {
	var rec rejectionRecord
	if err := json.Unmarshal(v, &rec); err != nil {
		return domain.RejectionEntry{}, fmt.Errorf("decode rejection entry: %w", err)
	}
	return domain.RejectionEntry{Number: rec.Number, Timestamp: rec.Timestamp}, nil
}

func encodeBool(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}

func decodeBool(v []byte) bool { return len(v) == 1 && v[0] == 1 }

func encodeUint64(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}

// decodeUint64 returns 0 for values that are not exactly 8 bytes.
func decodeUint64(v []byte) uint64 {
	if len(v) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}
