package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/haukened/ringguard/internal/screen/common/log"
	"github.com/haukened/ringguard/internal/screen/domain"
)

// Bridge is the set of UI operations served over HTTP.
type Bridge interface {
	SetBlockingEnabled(enabled bool) bool
	IsBlockingEnabled() bool
	SetSchedule(startHour, startMinute, endHour, endMinute int, activeDays string) bool
	GetSchedule() (domain.Schedule, bool)
	RemoveScheduleDay(day int) (domain.Schedule, error)
	GetBlockedCallLog() []domain.RejectionEntry
	GetBlockedCallGroups() []domain.RejectionGroup
	GetBlockedStats() domain.LogStats
	ClearBlockedCallLog() bool
	RemoveBlockedCallEntries(numbers []string) bool
	GetBlockedCount() int
	AddToWhitelist(numbers []string) bool
	RemoveFromWhitelist(numbers []string) bool
	GetWhitelist() []string
	IsScreeningRoleHeld(ctx context.Context) bool
	IsScreeningRolePending(ctx context.Context) bool
	ResolveScreeningRole(ctx context.Context, granted bool) bool
	RequestScreeningRole(ctx context.Context, hasContext bool) (domain.RoleStatus, error)
}

// Screener decides a single call.
type Screener interface {
	Screen(ctx context.Context, number string) domain.ScreenDecision
}

// Handler serves the /api/v1 routes.
type Handler struct {
	bridge   Bridge
	screener Screener
	logger   log.Logger
}

// NewHandler creates a Handler.
func NewHandler(bridge Bridge, screener Screener, logger log.Logger) *Handler {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Handler{bridge: bridge, screener: screener, logger: logger}
}

// bindAndValidate decodes the body into req and runs the struct rules. When ok
// is false a problem response has been written and err is the write result.
func bindAndValidate(c echo.Context, req any) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, validationProblem(c, "Invalid request body", nil)
	}
	if err := c.Validate(req); err != nil {
		return false, validationProblem(c, "Validation failed", fieldErrors(err))
	}
	return true, nil
}

// GetBlocking handles GET /blocking
func (h *Handler) GetBlocking(c echo.Context) error {
	return c.JSON(http.StatusOK, enabledResponse{Enabled: h.bridge.IsBlockingEnabled()})
}

// SetBlocking handles PUT /blocking
func (h *Handler) SetBlocking(c echo.Context) error {
	var req enabledRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	return c.JSON(http.StatusOK, enabledResponse{Enabled: h.bridge.SetBlockingEnabled(*req.Enabled)})
}

// GetSchedule handles GET /schedule. An absent schedule is rendered as null.
func (h *Handler) GetSchedule(c echo.Context) error {
	s, ok := h.bridge.GetSchedule()
	if !ok {
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, scheduleDTO(s))
}

// SetSchedule handles PUT /schedule
func (h *Handler) SetSchedule(c echo.Context) error {
	var req ScheduleDTO
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	days, err := domain.ParseDays(req.ActiveDays)
	if err != nil {
		return validationProblem(c, "Validation failed", []ValidationError{{Field: "activeDays", Message: err.Error()}})
	}
	if days.Len() == 0 {
		return validationProblem(c, "Validation failed", []ValidationError{{Field: "activeDays", Message: domain.ErrNoActiveDays.Error()}})
	}
	ok := h.bridge.SetSchedule(*req.StartHour, *req.StartMinute, *req.EndHour, *req.EndMinute, days.String())
	return c.JSON(http.StatusOK, okResponse{OK: ok})
}

// RemoveScheduleDay handles DELETE /schedule/days/:day
func (h *Handler) RemoveScheduleDay(c echo.Context) error {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		return validationProblem(c, "Validation failed", []ValidationError{{Field: "day", Message: "must be an integer"}})
	}
	s, err := h.bridge.RemoveScheduleDay(day)
	switch {
	case errors.Is(err, domain.ErrInvalidDay):
		return validationProblem(c, "Validation failed", []ValidationError{{Field: "day", Message: err.Error()}})
	case errors.Is(err, domain.ErrNoActiveDays):
		return conflictProblem(c, err.Error())
	case err != nil:
		h.logger.Error(map[string]any{"error": err, "day": day}, "failed to remove schedule day")
		return internalProblem(c, "Failed to update schedule")
	}
	return c.JSON(http.StatusOK, scheduleDTO(s))
}

// GetLog handles GET /log
func (h *Handler) GetLog(c echo.Context) error {
	return c.JSON(http.StatusOK, entryDTOs(h.bridge.GetBlockedCallLog()))
}

// ClearLog handles DELETE /log
func (h *Handler) ClearLog(c echo.Context) error {
	return c.JSON(http.StatusOK, okResponse{OK: h.bridge.ClearBlockedCallLog()})
}

// RemoveLogEntries handles POST /log/remove
func (h *Handler) RemoveLogEntries(c echo.Context) error {
	var req numbersRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	return c.JSON(http.StatusOK, okResponse{OK: h.bridge.RemoveBlockedCallEntries(req.Numbers)})
}

// GetLogGroups handles GET /log/groups
func (h *Handler) GetLogGroups(c echo.Context) error {
	return c.JSON(http.StatusOK, groupDTOs(h.bridge.GetBlockedCallGroups()))
}

// GetLogCount handles GET /log/count
func (h *Handler) GetLogCount(c echo.Context) error {
	return c.JSON(http.StatusOK, countResponse{Count: h.bridge.GetBlockedCount()})
}

// GetLogStats handles GET /log/stats
func (h *Handler) GetLogStats(c echo.Context) error {
	st := h.bridge.GetBlockedStats()
	out := statsDTO{Total: st.Total, UniqueNumbers: st.UniqueNumbers}
	if st.Last != nil {
		out.Last = &entryDTO{Number: st.Last.Number, Timestamp: st.Last.Timestamp}
	}
	return c.JSON(http.StatusOK, out)
}

// GetWhitelist handles GET /whitelist
func (h *Handler) GetWhitelist(c echo.Context) error {
	return c.JSON(http.StatusOK, numbersResponse{Numbers: h.bridge.GetWhitelist()})
}

// AddWhitelist handles POST /whitelist
func (h *Handler) AddWhitelist(c echo.Context) error {
	var req numbersRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	return c.JSON(http.StatusOK, okResponse{OK: h.bridge.AddToWhitelist(req.Numbers)})
}

// RemoveWhitelist handles POST /whitelist/remove
func (h *Handler) RemoveWhitelist(c echo.Context) error {
	var req numbersRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	return c.JSON(http.StatusOK, okResponse{OK: h.bridge.RemoveFromWhitelist(req.Numbers)})
}

// GetRole handles GET /role
func (h *Handler) GetRole(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, roleResponse{
		Held:    h.bridge.IsScreeningRoleHeld(ctx),
		Pending: h.bridge.IsScreeningRolePending(ctx),
	})
}

// ResolveRole handles POST /role/resolve. It answers a pending role request
// and fails with 409 when none is pending.
func (h *Handler) ResolveRole(c echo.Context) error {
	var req roleResolveRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if !h.bridge.ResolveScreeningRole(c.Request().Context(), *req.Granted) {
		return conflictProblem(c, "No screening role request is pending")
	}
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

// RequestRole handles POST /role/request
func (h *Handler) RequestRole(c echo.Context) error {
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return validationProblem(c, "Invalid request body", nil)
	}
	status, err := h.bridge.RequestScreeningRole(c.Request().Context(), req.HasContext)
	if errors.Is(err, domain.ErrNoContext) {
		return conflictProblem(c, err.Error())
	}
	if err != nil {
		return internalProblem(c, "Failed to request screening role")
	}
	return c.JSON(http.StatusOK, roleStatusResponse{Status: status.String()})
}

// Screen handles POST /screen. An empty or missing number is a withheld caller.
func (h *Handler) Screen(c echo.Context) error {
	var req screenRequest
	if err := c.Bind(&req); err != nil {
		return validationProblem(c, "Invalid request body", nil)
	}
	d := h.screener.Screen(c.Request().Context(), req.Number)
	return c.JSON(http.StatusOK, screenResponse{Block: d.Block, Reason: string(d.Reason), Logged: d.Logged})
}

// Healthz handles GET /healthz
func (h *Handler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
