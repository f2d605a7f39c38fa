package httpapi

import (
	"reflect"
	"strings"

	"github.com/haukened/ringguard/internal/screen/domain"
)

// ScheduleDTO is the wire form of a schedule. ActiveDays is a comma-separated
// list of day indices, Monday=0.
type ScheduleDTO struct {
	StartHour   *int   `json:"startHour" validate:"required,gte=0,lte=23"`
	StartMinute *int   `json:"startMinute" validate:"required,gte=0,lte=59"`
	EndHour     *int   `json:"endHour" validate:"required,gte=0,lte=23"`
	EndMinute   *int   `json:"endMinute" validate:"required,gte=0,lte=59"`
	ActiveDays  string `json:"activeDays" validate:"required"`
}

func scheduleDTO(s domain.Schedule) ScheduleDTO {
	return ScheduleDTO{
		StartHour:   intPtr(s.StartHour),
		StartMinute: intPtr(s.StartMinute),
		EndHour:     intPtr(s.EndHour),
		EndMinute:   intPtr(s.EndMinute),
		ActiveDays:  s.ActiveDays.String(),
	}
}

func intPtr(v int) *int { return &v }

type enabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type enabledResponse struct {
	Enabled bool `json:"enabled"`
}

type numbersRequest struct {
	Numbers []string `json:"numbers" validate:"required,min=1,dive,required"`
}

type numbersResponse struct {
	Numbers []string `json:"numbers"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type countResponse struct {
	Count int `json:"count"`
}

type entryDTO struct {
	Number    string `json:"number"`
	Timestamp int64  `json:"timestamp"`
}

func entryDTOs(entries []domain.RejectionEntry) []entryDTO {
	out := make([]entryDTO, len(entries))
	for i, e := range entries {
		out[i] = entryDTO{Number: e.Number, Timestamp: e.Timestamp}
	}
	return out
}

type groupDTO struct {
	Number        string  `json:"number"`
	Normalized    string  `json:"normalized"`
	Count         int     `json:"count"`
	LastTimestamp int64   `json:"lastTimestamp"`
	AllTimestamps []int64 `json:"allTimestamps"`
}

func groupDTOs(groups []domain.RejectionGroup) []groupDTO {
	out := make([]groupDTO, len(groups))
	for i, g := range groups {
		out[i] = groupDTO{
			Number:        g.Number,
			Normalized:    g.Normalized,
			Count:         g.Count,
			LastTimestamp: g.LastTimestamp,
			AllTimestamps: g.AllTimestamps,
		}
	}
	return out
}

type statsDTO struct {
	Total         int       `json:"total"`
	UniqueNumbers int       `json:"uniqueNumbers"`
	Last          *entryDTO `json:"last"`
}

type roleResponse struct {
	Held    bool `json:"held"`
	Pending bool `json:"pending"`
}

type roleResolveRequest struct {
	Granted *bool `json:"granted" validate:"required"`
}

type roleRequest struct {
	HasContext bool `json:"hasContext"`
}

type roleStatusResponse struct {
	Status string `json:"status"`
}

type screenRequest struct {
	Number string `json:"number"`
}

type screenResponse struct {
	Block  bool   `json:"block"`
	Reason string `json:"reason"`
	Logged bool   `json:"logged"`
}

// jsonTagName returns the JSON name of a struct field for validation errors.
func jsonTagName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}
