package timer

import (
	"context"
	"time"
)

// Session is the serializable snapshot of a manager, persisted by the CLI
// between invocations. A running session keeps ticking on the wall clock
// while no process is alive; Restore folds the gap back in.
type Session struct {
	TimerID        string    `json:"timerId,omitempty"`
	ClientID       string    `json:"clientId,omitempty"`
	TaskID         string    `json:"taskId,omitempty"`
	Description    string    `json:"description,omitempty"`
	Billable       bool      `json:"billable"`
	Seconds        int64     `json:"seconds"`
	CarriedSeconds int64     `json:"carriedSeconds"`
	Paused         bool      `json:"paused"`
	SavedAt        time.Time `json:"savedAt"`
}

// Active reports whether the session is worth persisting at all.
func (s Session) Active() bool { return s.TimerID != "" || s.Paused }

// Session captures the manager's current state for persistence.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Session{
		TimerID:        m.timerID,
		ClientID:       m.opts.ClientID,
		TaskID:         m.opts.TaskID,
		Description:    m.opts.Description,
		Billable:       m.opts.Billable,
		Seconds:        m.seconds,
		CarriedSeconds: m.segmentCarried,
		Paused:         m.paused,
		SavedAt:        m.clock(),
	}
}

// Restore reinstates a persisted session. For a running session the seconds
// that passed since SavedAt are added, so the displayed duration matches the
// wall clock. The profitability snapshot is refetched best effort.
func (m *Manager) Restore(ctx context.Context, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.opts = StartOptions{
		ClientID:    s.ClientID,
		TaskID:      s.TaskID,
		Description: s.Description,
		Billable:    s.Billable,
	}
	m.seconds = s.Seconds
	m.segmentCarried = s.CarriedSeconds
	m.tracker.Reset()
	m.snapshot = nil

	if s.Paused || s.TimerID == "" {
		m.state = Idle
		m.paused = s.Paused
		m.timerID = ""
		return
	}

	gap := int64(m.clock().Sub(s.SavedAt).Seconds())
	if gap > 0 {
		m.seconds += gap
	}
	m.state = Running
	m.paused = false
	m.timerID = s.TimerID
	m.refreshSnapshot(ctx)
}
