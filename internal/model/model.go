// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Tokens collects an issued access token and its expiry.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time
}

// User represents an account together with its gamification counters.
type User struct {
	ID         uuid.UUID // PK
	Username   string    // unique
	PwdHash    []byte    // Argon2id(password, SaltAuth)
	SaltAuth   []byte    // per-user auth salt
	Points     int64     // awarded on task completion
	Experience int64
	CreatedAt  time.Time
}

// Client is a billable client with its embedded profitability record.
// SpentHours only ever grows from the client's perspective; remaining hours
// (target - spent) may go negative, signaling over-budget.
type Client struct {
	ID            uuid.UUID
	UserID        uuid.UUID // FK -> users.id
	Name          string
	HourlyRate    float64 // currency per hour
	TargetHours   float64 // budget ceiling
	SpentHours    float64 // cumulative, increment-only
	MonthlyBudget float64 // currency
	TaskCount     int64   // maintained transactionally with task writes
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TaskStatus is the consolidated status enum.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskDone:
		return true
	}
	return false
}

// Task is a unit of work, optionally tied to a client. HighImpact doubles
// the points awarded on completion.
type Task struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	ClientID       uuid.NullUUID // optional association
	Title          string
	Description    string
	Priority       int // higher is more urgent
	Status         TaskStatus
	EstimatedHours float64
	ActualHours    float64
	HighImpact     bool
	CompletedAt    *time.Time
	CreatedAt      time.Time
}

// Timer is a single backend timer record. A timer with nil EndedAt is open;
// pause/resume on the client produces multiple Timer records per logical
// session.
type Timer struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	ClientID        uuid.NullUUID
	TaskID          uuid.NullUUID
	Description     string
	Billable        bool
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationSeconds *int64 // committed on stop
	CreatedAt       time.Time
}

// Open reports whether the timer has not been finalized yet.
func (t *Timer) Open() bool { return t.EndedAt == nil }

// Profitability is the per-client snapshot served to timer clients.
type Profitability struct {
	ClientID                uuid.UUID
	HourlyRate              float64
	TargetHours             float64
	SpentHours              float64
	MonthlyBudget           float64
	ProfitabilityPercentage float64 // spent/target*100, 0 when target <= 0
}
