package screening

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/haukened/ringguard/internal/screen/domain"
)

// 2024-01-01 is a Monday.
func at(day, hour, minute int) time.Time {
	return time.Date(2024, 1, 1+day, hour, minute, 0, 0, time.UTC)
}

func TestIsActive_SameDayWindow(t *testing.T) {
	s := domain.DefaultSchedule()
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before start", at(0, 8, 59), false},
		{"at start", at(0, 9, 0), true},
		{"midday", at(0, 13, 30), true},
		{"at end", at(0, 20, 0), true},
		{"after end", at(0, 20, 1), false},
		{"midnight", at(0, 0, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsActive(s, tt.now))
		})
	}
}

func TestIsActive_WrapsMidnight(t *testing.T) {
	s, err := domain.NewSchedule(22, 0, 7, 0, domain.AllDays)
	assert.NoError(t, err)

	assert.True(t, IsActive(s, at(2, 23, 30)))
	assert.True(t, IsActive(s, at(2, 22, 0)))
	assert.True(t, IsActive(s, at(2, 0, 0)))
	assert.True(t, IsActive(s, at(2, 7, 0)))
	assert.False(t, IsActive(s, at(2, 7, 1)))
	assert.False(t, IsActive(s, at(2, 10, 0)))
	assert.False(t, IsActive(s, at(2, 21, 59)))
}

func TestIsActive_DayFilter(t *testing.T) {
	weekend, err := domain.NewDaySet(domain.Saturday, domain.Sunday)
	assert.NoError(t, err)
	s, err := domain.NewSchedule(0, 0, 23, 59, weekend)
	assert.NoError(t, err)

	assert.False(t, IsActive(s, at(0, 12, 0)), "Monday")
	assert.False(t, IsActive(s, at(4, 12, 0)), "Friday")
	assert.True(t, IsActive(s, at(5, 12, 0)), "Saturday")
	assert.True(t, IsActive(s, at(6, 12, 0)), "Sunday")
}

func TestIsActive_ExhaustiveMinutes(t *testing.T) {
	windows := []domain.Schedule{
		{StartHour: 9, EndHour: 17, EndMinute: 30, ActiveDays: domain.AllDays},
		{StartHour: 22, EndHour: 7, ActiveDays: domain.AllDays},
		{StartHour: 12, StartMinute: 15, EndHour: 12, EndMinute: 15, ActiveDays: domain.AllDays},
	}
	for _, s := range windows {
		start, end := s.StartMinutes(), s.EndMinutes()
		for m := 0; m < 24*60; m++ {
			var want bool
			if start <= end {
				want = start <= m && m <= end
			} else {
				want = m >= start || m <= end
			}
			got := IsActive(s, at(3, m/60, m%60))
			if got != want {
				t.Fatalf("%s at minute %d: got %v want %v", s, m, got, want)
			}
		}
	}
}

func TestEvaluateRecord_FailsOpen(t *testing.T) {
	outside := at(0, 3, 0)
	s := domain.DefaultSchedule()
	assert.False(t, EvaluateRecord(s, nil, outside))

	assert.True(t, EvaluateRecord(domain.Schedule{}, errors.New("decode"), outside))
	assert.True(t, EvaluateRecord(domain.Schedule{StartHour: 25, ActiveDays: domain.AllDays}, nil, outside))
	assert.True(t, EvaluateRecord(domain.Schedule{StartHour: 9, EndHour: 20}, nil, outside), "no active days")
}
