// Package bridge exposes the UI-facing operations of the screener. Every
// operation reports a plain result the way a UI binding expects: failures are
// logged and surface as false, empty, zero or absent. When the host has no
// call-screening capability every operation returns that safe default without
// touching storage.
package bridge

import (
	"context"
	"errors"

	"github.com/haukened/ringguard/internal/screen/common/log"
	"github.com/haukened/ringguard/internal/screen/domain"
)

// Service implements the UI bridge.
type Service struct {
	allowList AllowList
	logger    log.Logger
	observer  LogSizeObserver
	platform  Platform
	policy    PolicyStore
	rejection RejectionLog
}

// Options configures a Service. Observer and Logger are optional.
type Options struct {
	AllowList AllowList
	Logger    log.Logger
	Observer  LogSizeObserver
	Platform  Platform
	Policy    PolicyStore
	Rejection RejectionLog
}

// NewService returns a Service wired to opts.
func NewService(opts Options) (*Service, error) {
	if opts.AllowList == nil || opts.Platform == nil || opts.Policy == nil || opts.Rejection == nil {
		return nil, errors.New("bridge: allow list, platform, policy and rejection log are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Service{
		allowList: opts.AllowList,
		logger:    logger,
		observer:  opts.Observer,
		platform:  opts.Platform,
		policy:    opts.Policy,
		rejection: opts.Rejection,
	}, nil
}

// supported reports whether the host can screen calls at all.
func (s *Service) supported() bool {
	return s.platform.ScreeningRole(context.Background()).Supported()
}

func (s *Service) fail(op string, err error) {
	s.logger.Error(map[string]any{"op": op, "error": err}, "bridge operation failed")
}

func (s *Service) observe(n uint64) {
	if s.observer != nil {
		s.observer.SetRejectionLogSize(n)
	}
}

// SetBlockingEnabled persists the flag and echoes it back on success.
func (s *Service) SetBlockingEnabled(enabled bool) bool {
	if !s.supported() {
		return false
	}
	if err := s.policy.SetEnabled(enabled); err != nil {
		s.fail("setBlockingEnabled", err)
		return false
	}
	return enabled
}

// IsBlockingEnabled reports the persisted flag.
func (s *Service) IsBlockingEnabled() bool {
	if !s.supported() {
		return false
	}
	enabled, err := s.policy.IsEnabled()
	if err != nil {
		s.fail("isBlockingEnabled", err)
		return false
	}
	return enabled
}

// SetSchedule replaces the schedule. activeDays is a comma-separated list of
// day indices, Monday=0.
func (s *Service) SetSchedule(startHour, startMinute, endHour, endMinute int, activeDays string) bool {
	if !s.supported() {
		return false
	}
	days, err := domain.ParseDays(activeDays)
	if err != nil {
		s.fail("setSchedule", err)
		return false
	}
	sched, err := domain.NewSchedule(startHour, startMinute, endHour, endMinute, days)
	if err != nil {
		s.fail("setSchedule", err)
		return false
	}
	if err := s.policy.SetSchedule(sched); err != nil {
		s.fail("setSchedule", err)
		return false
	}
	return true
}

// GetSchedule returns the stored schedule. ok is false when none was ever
// stored; callers then display domain.DefaultSchedule.
func (s *Service) GetSchedule() (sched domain.Schedule, ok bool) {
	if !s.supported() {
		return domain.Schedule{}, false
	}
	sched, ok, err := s.policy.GetSchedule()
	if err != nil {
		s.fail("getSchedule", err)
		return domain.Schedule{}, false
	}
	return sched, ok
}

// RemoveScheduleDay drops one day from the effective schedule. Removing the
// last active day is refused with domain.ErrNoActiveDays.
func (s *Service) RemoveScheduleDay(day int) (domain.Schedule, error) {
	if !s.supported() {
		return domain.Schedule{}, nil
	}
	if day < 0 || day > int(domain.Sunday) {
		return domain.Schedule{}, domain.ErrInvalidDay
	}
	return s.policy.RemoveDay(domain.Day(day))
}

// GetBlockedCallLog returns every rejection, newest first.
func (s *Service) GetBlockedCallLog() []domain.RejectionEntry {
	if !s.supported() {
		return []domain.RejectionEntry{}
	}
	entries, err := s.rejection.Latest()
	if err != nil {
		s.fail("getBlockedCallLog", err)
		return []domain.RejectionEntry{}
	}
	return entries
}

// GetBlockedCallGroups returns the log collapsed per normalized number.
func (s *Service) GetBlockedCallGroups() []domain.RejectionGroup {
	if !s.supported() {
		return []domain.RejectionGroup{}
	}
	groups, err := s.rejection.Groups()
	if err != nil {
		s.fail("getBlockedCallGroups", err)
		return []domain.RejectionGroup{}
	}
	return groups
}

// GetBlockedStats summarizes the log.
func (s *Service) GetBlockedStats() domain.LogStats {
	if !s.supported() {
		return domain.LogStats{}
	}
	st, err := s.rejection.Stats()
	if err != nil {
		s.fail("getBlockedStats", err)
		return domain.LogStats{}
	}
	return st
}

// ClearBlockedCallLog empties the log and resets the counter.
func (s *Service) ClearBlockedCallLog() bool {
	if !s.supported() {
		return false
	}
	if err := s.rejection.Clear(); err != nil {
		s.fail("clearBlockedCallLog", err)
		return false
	}
	s.observe(0)
	return true
}

// RemoveBlockedCallEntries deletes every entry matching any of numbers.
func (s *Service) RemoveBlockedCallEntries(numbers []string) bool {
	if !s.supported() {
		return false
	}
	remaining, err := s.rejection.RemoveNumbers(numbers)
	if err != nil {
		s.fail("removeBlockedCallEntries", err)
		return false
	}
	s.observe(remaining)
	return true
}

// GetBlockedCount returns the rejection counter.
func (s *Service) GetBlockedCount() int {
	if !s.supported() {
		return 0
	}
	n, err := s.rejection.Count()
	if err != nil {
		s.fail("getBlockedCount", err)
		return 0
	}
	return int(n)
}

// AddToWhitelist adds numbers to the allow-list.
func (s *Service) AddToWhitelist(numbers []string) bool {
	if !s.supported() {
		return false
	}
	if err := s.allowList.Add(numbers); err != nil {
		s.fail("addToWhitelist", err)
		return false
	}
	return true
}

// RemoveFromWhitelist removes numbers from the allow-list.
func (s *Service) RemoveFromWhitelist(numbers []string) bool {
	if !s.supported() {
		return false
	}
	if err := s.allowList.Remove(numbers); err != nil {
		s.fail("removeFromWhitelist", err)
		return false
	}
	return true
}

// GetWhitelist returns the allow-listed normalized numbers in ascending order.
func (s *Service) GetWhitelist() []string {
	if !s.supported() {
		return []string{}
	}
	numbers, err := s.allowList.List()
	if err != nil {
		s.fail("getWhitelist", err)
		return []string{}
	}
	return numbers
}

// IsScreeningRoleHeld reports whether the role is granted.
func (s *Service) IsScreeningRoleHeld(ctx context.Context) bool {
	return s.platform.ScreeningRole(ctx) == domain.RoleStateHeld
}

// IsScreeningRolePending reports whether a role request awaits an answer.
func (s *Service) IsScreeningRolePending(ctx context.Context) bool {
	return s.platform.PendingScreeningRole(ctx)
}

// ResolveScreeningRole delivers the answer to a pending role request. It
// reports false when no request was pending.
func (s *Service) ResolveScreeningRole(ctx context.Context, granted bool) bool {
	if !s.platform.ResolveScreeningRole(ctx, granted) {
		s.logger.Warn(map[string]any{"granted": granted}, "no screening role request pending")
		return false
	}
	s.logger.Info(map[string]any{"granted": granted}, "screening role request resolved")
	return true
}

// RequestScreeningRole asks the platform for the call-screening role.
func (s *Service) RequestScreeningRole(ctx context.Context, hasContext bool) (domain.RoleStatus, error) {
	status, err := s.platform.RequestScreeningRole(ctx, hasContext)
	if err != nil {
		s.logger.Warn(map[string]any{"error": err}, "screening role request failed")
		return status, err
	}
	s.logger.Info(map[string]any{"status": status.String()}, "screening role requested")
	return status, nil
}
