// Package screening decides, once per incoming call, whether the call is
// rejected. Every collaborator failure is mapped to an allow decision at this
// boundary; Screen never returns an error.
package screening

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/haukened/ringguard/internal/screen/common/clock"
	"github.com/haukened/ringguard/internal/screen/common/log"
	"github.com/haukened/ringguard/internal/screen/domain"
)

// DefaultLookupTimeout bounds a single directory lookup.
const DefaultLookupTimeout = 2 * time.Second

// Engine is the Screening Decision Engine.
type Engine struct {
	allowList     AllowList
	clock         clock.Clock
	directory     Directory
	logger        log.Logger
	lookupTimeout time.Duration
	platform      Platform
	policy        PolicyReader
	recorder      Recorder
	rejections    RejectionLog
}

// Options configures an Engine. Policy, AllowList, Directory and Rejections
// are required; the rest have defaults. A nil Platform is treated as
// supported.
type Options struct {
	AllowList     AllowList
	Clock         clock.Clock
	Directory     Directory
	Logger        log.Logger
	LookupTimeout time.Duration
	Platform      Platform
	Policy        PolicyReader
	Recorder      Recorder
	Rejections    RejectionLog
}

// NewEngine returns an Engine wired to opts.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Policy == nil || opts.AllowList == nil || opts.Directory == nil || opts.Rejections == nil {
		return nil, errors.New("screening: policy, allow list, directory and rejection log are required")
	}
	e := &Engine{
		allowList:     opts.AllowList,
		clock:         opts.Clock,
		directory:     opts.Directory,
		logger:        opts.Logger,
		lookupTimeout: opts.LookupTimeout,
		platform:      opts.Platform,
		policy:        opts.Policy,
		recorder:      opts.Recorder,
		rejections:    opts.Rejections,
	}
	if e.clock == nil {
		e.clock = clock.RealClock{}
	}
	if e.logger == nil {
		e.logger = log.NewNoopLogger()
	}
	if e.lookupTimeout <= 0 {
		e.lookupTimeout = DefaultLookupTimeout
	}
	return e, nil
}

// Screen evaluates the gates in order and short-circuits to allow at the first
// one that passes: withheld number, blocking disabled, outside the schedule,
// allow-listed, known contact. A call that clears every gate is blocked and
// logged.
func (e *Engine) Screen(ctx context.Context, number string) domain.ScreenDecision {
	d := e.decide(ctx, number)
	if e.recorder != nil {
		e.recorder.RecordDecision(d)
	}
	return d
}

func (e *Engine) decide(ctx context.Context, number string) domain.ScreenDecision {
	if strings.TrimSpace(number) == "" {
		return domain.Allow(domain.ReasonWithheld)
	}
	if e.platform != nil && !e.platform.ScreeningRole(ctx).Supported() {
		return domain.Allow(domain.ReasonUnsupported)
	}

	enabled, err := e.policy.IsEnabled()
	if err != nil {
		e.logger.Error(map[string]any{"error": err}, "policy read failed, allowing call")
		return domain.Allow(domain.ReasonPolicyError)
	}
	if !enabled {
		return domain.Allow(domain.ReasonDisabled)
	}

	now := e.clock.Now()
	sched, err := e.policy.EffectiveSchedule()
	if err != nil {
		e.logger.Warn(map[string]any{"error": err}, "schedule unreadable, treating as always active")
	}
	if !EvaluateRecord(sched, err, now) {
		return domain.Allow(domain.ReasonOutsideSchedule)
	}

	allowed, err := e.allowList.ContainsNumber(number)
	if err != nil {
		e.logger.Error(map[string]any{"error": err}, "allow-list read failed, allowing call")
		return domain.Allow(domain.ReasonAllowListError)
	}
	if allowed {
		return domain.Allow(domain.ReasonAllowListed)
	}

	known, err := e.lookup(ctx, number)
	if err != nil {
		e.logger.Warn(map[string]any{"error": err, "timeout": e.lookupTimeout}, "directory lookup failed, allowing call")
		return domain.Allow(domain.ReasonDirectoryError)
	}
	if known {
		return domain.Allow(domain.ReasonKnownContact)
	}

	d := domain.ScreenDecision{Block: true, Reason: domain.ReasonUnknownCaller}
	count, err := e.rejections.Append(domain.NewRejectionEntry(number, now))
	if err != nil {
		e.logger.Error(map[string]any{"error": err}, "failed to record blocked call")
		return d
	}
	d.Logged = true
	if e.recorder != nil {
		e.recorder.SetRejectionLogSize(count)
	}
	e.logger.Info(map[string]any{"count": count}, "call blocked")
	return d
}

type lookupResult struct {
	known bool
	err   error
}

// lookup bounds the directory query by lookupTimeout even when the directory
// ignores its context. A late answer is discarded.
func (e *Engine) lookup(ctx context.Context, number string) (bool, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	done := make(chan lookupResult, 1)
	go func() {
		known, err := e.directory.IsKnownContact(lookupCtx, number)
		done <- lookupResult{known: known, err: err}
	}()

	select {
	case r := <-done:
		return r.known, r.err
	case <-lookupCtx.Done():
		return false, lookupCtx.Err()
	}
}

var _ Screener = (*Engine)(nil)
