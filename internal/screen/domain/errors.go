package domain

import "errors"

var (
	// ErrInvalidSchedule reports schedule data that cannot be decoded or is out of range.
	ErrInvalidSchedule = errors.New("invalid schedule")
	// ErrNoActiveDays is returned when a schedule would be left without any active day.
	ErrNoActiveDays = errors.New("schedule must keep at least one active day")
	// ErrInvalidDay reports a day index outside 0..6.
	ErrInvalidDay = errors.New("day index must be between 0 (Monday) and 6 (Sunday)")
	// ErrNoContext is returned when a role request is made without a foreground context to host the prompt.
	ErrNoContext = errors.New("no foreground context available")
	// ErrStoreClosed is returned by persistence operations after Close.
	ErrStoreClosed = errors.New("store closed")
)
