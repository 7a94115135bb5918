// Package timer implements the client-resident timer lifecycle. A logical
// session lives here; the server only sees individual timer records, one per
// running segment (pause/resume opens a fresh record).
package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/Stickybrown8/timetrack/internal/client"
	"github.com/Stickybrown8/timetrack/internal/errs"
	"github.com/Stickybrown8/timetrack/internal/profit"
)

// State of the lifecycle manager.
type State int

const (
	// Idle means no segment is running. A paused session is Idle with
	// retained context.
	Idle State = iota
	// Running means a backend timer record is open and ticking.
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// API is the slice of the REST client the manager needs.
type API interface {
	CreateTimer(ctx context.Context, in client.StartTimer) (*client.Timer, error)
	StopTimer(ctx context.Context, id string, duration *int64) (*client.Timer, error)
	GetProfitability(ctx context.Context, clientID string) (*client.Profitability, error)
	AddSpentHours(ctx context.Context, clientID string, hours float64, incrementOnly bool) (float64, error)
	CompleteTask(ctx context.Context, id string, completed bool) (*client.CompleteTaskResult, error)
}

// Notification is pushed to the notify callback on budget crossings.
type Notification struct {
	Event      profit.Event
	ClientID   string
	Projection profit.Projection
}

// StartOptions describes the session to open. At least one of ClientID or
// TaskID is required.
type StartOptions struct {
	ClientID    string
	TaskID      string
	Description string
	Billable    bool
}

// Manager drives a single timer session: Start, Tick (once per second),
// Pause/Resume, Stop. All methods are safe for concurrent use; Tick is
// expected to come from one ticker goroutine while commands come from the
// UI goroutine. Network calls hold the mutex, so ticks wait out a finalize
// instead of landing in the middle of it.
type Manager struct {
	api    API
	log    *zap.Logger
	notify func(Notification)
	clock  func() time.Time

	mu sync.Mutex

	state  State
	paused bool // Idle with a resumable session

	timerID string // open backend record, Running only
	opts    StartOptions

	seconds        int64 // total ticked seconds across all segments
	segmentCarried int64 // seconds already committed by earlier segments

	snapshot *profit.Inputs // nil when profitability could not be fetched
	tracker  profit.Tracker
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotify installs the budget-notification callback.
func WithNotify(fn func(Notification)) Option {
	return func(m *Manager) { m.notify = fn }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.clock = now }
}

// NewManager returns an Idle manager.
func NewManager(api API, log *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		api:   api,
		log:   log,
		clock: time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Paused reports whether an Idle manager holds a resumable session.
func (m *Manager) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Elapsed returns the session's ticked seconds so far.
func (m *Manager) Elapsed() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seconds
}

// ElapsedString renders Elapsed as HH:MM:SS.
func (m *Manager) ElapsedString() string {
	return profit.FormatDuration(m.Elapsed())
}

// Start opens a new session. Validation failures leave the manager Idle with
// no session; transient server failures are retried up to three attempts at
// one-second intervals before giving up.
func (m *Manager) Start(ctx context.Context, opts StartOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Running {
		return fmt.Errorf("%w: timer already running", errs.ErrTimerOpen)
	}
	if opts.ClientID == "" && opts.TaskID == "" {
		return fmt.Errorf("%w: need a client or a task", errs.ErrValidation)
	}

	rec, err := m.createWithRetry(ctx, opts)
	if err != nil {
		return err
	}

	m.state = Running
	m.paused = false
	m.timerID = rec.ID
	m.opts = opts
	m.seconds = 0
	m.segmentCarried = 0
	m.tracker.Reset()
	m.snapshot = nil
	m.refreshSnapshot(ctx)

	m.log.Info("timer started",
		zap.String("timer_id", rec.ID),
		zap.String("client_id", opts.ClientID),
		zap.String("task_id", opts.TaskID))
	return nil
}

// createWithRetry opens the backend record, retrying transient failures.
// Validation and open-conflict answers are final.
func (m *Manager) createWithRetry(ctx context.Context, opts StartOptions) (*client.Timer, error) {
	billable := opts.Billable
	var rec *client.Timer
	backoff := retry.WithMaxRetries(2, retry.NewConstant(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := m.api.CreateTimer(ctx, client.StartTimer{
			ClientID:    opts.ClientID,
			TaskID:      opts.TaskID,
			Description: opts.Description,
			Billable:    &billable,
		})
		if err != nil {
			if isTransient(err) {
				m.log.Warn("start attempt failed, will retry", zap.Error(err))
				return retry.RetryableError(err)
			}
			return err
		}
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func isTransient(err error) bool {
	return errors.Is(err, errs.ErrNetwork) || errors.Is(err, errs.ErrServer)
}

// refreshSnapshot fetches the client's profitability for tick-time
// recalculation. Best effort: a failure only disables notifications.
func (m *Manager) refreshSnapshot(ctx context.Context) {
	if m.opts.ClientID == "" {
		return
	}
	p, err := m.api.GetProfitability(ctx, m.opts.ClientID)
	if err != nil {
		m.log.Warn("profitability fetch failed", zap.Error(err))
		return
	}
	m.snapshot = &profit.Inputs{
		HourlyRate:    p.HourlyRate,
		TargetHours:   p.TargetHours,
		SpentHours:    p.SpentHours,
		MonthlyBudget: p.MonthlyBudget,
	}
}

// Tick advances the session by one second and recomputes the budget
// projection. No-op when Idle.
func (m *Manager) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Running {
		return
	}
	m.seconds++

	if m.snapshot == nil {
		return
	}
	in := *m.snapshot
	in.RunningSeconds = m.seconds
	proj := profit.Project(in)
	for _, ev := range m.tracker.Observe(proj.RemainingHours) {
		if m.notify != nil {
			m.notify(Notification{Event: ev, ClientID: m.opts.ClientID, Projection: proj})
		}
		m.log.Info("budget notification",
			zap.Int("event", int(ev)),
			zap.Float64("remaining_hours", proj.RemainingHours))
	}
}

// Pause finalizes the open backend record, commits the segment's hours, and
// goes Idle keeping the session context for Resume.
func (m *Manager) Pause(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Running {
		return fmt.Errorf("%w: nothing to pause", errs.ErrTimerClosed)
	}
	m.finalizeSegment(ctx)
	m.state = Idle
	m.paused = true
	m.log.Info("timer paused", zap.Int64("elapsed_seconds", m.seconds))
	return nil
}

// Resume opens a fresh backend record continuing the paused session. The
// displayed duration carries on from where Pause left it.
func (m *Manager) Resume(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Running {
		return fmt.Errorf("%w: timer already running", errs.ErrTimerOpen)
	}
	if !m.paused {
		return fmt.Errorf("%w: no paused session", errs.ErrTimerClosed)
	}

	rec, err := m.createWithRetry(ctx, m.opts)
	if err != nil {
		return err
	}
	m.state = Running
	m.paused = false
	m.timerID = rec.ID
	m.segmentCarried = m.seconds
	m.refreshSnapshot(ctx)
	m.log.Info("timer resumed", zap.String("timer_id", rec.ID), zap.Int64("elapsed_seconds", m.seconds))
	return nil
}

// Stop ends the session. Running: finalize the record and commit the last
// segment's hours. Idle: drop any paused session context; stopping with no
// session at all is a no-op.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Running {
		m.finalizeSegment(ctx)
	}
	m.state = Idle
	m.paused = false
	m.timerID = ""
	m.opts = StartOptions{}
	m.seconds = 0
	m.segmentCarried = 0
	m.snapshot = nil
	return nil
}

// finalizeSegment stops the open backend record with the segment's ticked
// duration and pushes the segment's hours into the client's spent total.
// Commit failures are logged, never rolled back: the backend record still
// carries the authoritative duration.
func (m *Manager) finalizeSegment(ctx context.Context) {
	seg := m.seconds - m.segmentCarried
	if _, err := m.api.StopTimer(ctx, m.timerID, &seg); err != nil {
		m.log.Error("stop timer failed", zap.String("timer_id", m.timerID), zap.Error(err))
	}
	m.timerID = ""
	if m.opts.ClientID == "" || seg <= 0 {
		return
	}
	hours := float64(seg) / 3600
	if _, err := m.api.AddSpentHours(ctx, m.opts.ClientID, hours, true); err != nil {
		m.log.Error("spent-hours commit failed",
			zap.String("client_id", m.opts.ClientID),
			zap.Float64("hours", hours),
			zap.Error(err))
	}
}

// CompleteTask marks the task done (or reopens it). When the running session
// is bound to that task the timer is stopped first, so the task's time is
// committed before the completion award.
func (m *Manager) CompleteTask(ctx context.Context, taskID string, completed bool) (*client.CompleteTaskResult, error) {
	m.mu.Lock()
	if m.state == Running && m.opts.TaskID == taskID {
		m.finalizeSegment(ctx)
		m.state = Idle
		m.paused = false
		m.opts = StartOptions{}
		m.seconds = 0
		m.segmentCarried = 0
		m.snapshot = nil
	}
	m.mu.Unlock()

	return m.api.CompleteTask(ctx, taskID, completed)
}
