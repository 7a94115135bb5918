// Package client is the REST client used by the timer manager and the CLI.
// It maps HTTP statuses back onto the shared sentinel errors so callers can
// branch with errors.Is instead of inspecting responses.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Stickybrown8/timetrack/internal/errs"
)

// Client talks to a timetrack server over HTTP. Token is set after Login and
// sent as a bearer credential on every authenticated call.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for the server at baseURL (scheme://host:port).
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken installs a previously saved access token.
func (c *Client) SetToken(tok string) { c.token = tok }

// Token returns the current access token, empty when not logged in.
func (c *Client) Token() string { return c.token }

// --- auth ---

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the server's login response.
type LoginResult struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	UserID      string    `json:"userId"`
}

// Register creates an account and returns the new user ID.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	var out struct {
		UserID string `json:"userId"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/register", credentials{username, password}, &out)
	if err != nil {
		return "", err
	}
	return out.UserID, nil
}

// Login authenticates and remembers the returned access token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", credentials{username, password}, &out); err != nil {
		return nil, err
	}
	c.token = out.AccessToken
	return &out, nil
}

// --- timers ---

// Timer mirrors the server's timer representation.
type Timer struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"clientId,omitempty"`
	TaskID      string     `json:"taskId,omitempty"`
	Description string     `json:"description,omitempty"`
	Billable    bool       `json:"billable"`
	StartedAt   time.Time  `json:"startedAt"`
	EndedAt     *time.Time `json:"endedAt,omitempty"`
	Duration    *int64     `json:"duration,omitempty"`
}

// StartTimer is the create-timer request. At least one of ClientID or TaskID
// must be set.
type StartTimer struct {
	ClientID    string `json:"clientId,omitempty"`
	TaskID      string `json:"taskId,omitempty"`
	Description string `json:"description,omitempty"`
	Billable    *bool  `json:"billable,omitempty"`
}

// CreateTimer opens a new timer record on the server.
func (c *Client) CreateTimer(ctx context.Context, in StartTimer) (*Timer, error) {
	var out Timer
	if err := c.do(ctx, http.MethodPost, "/api/timers", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StopTimer finalizes the timer. duration, when non-nil, is the client's
// ticked seconds and wins over the server's wall clock.
func (c *Client) StopTimer(ctx context.Context, id string, duration *int64) (*Timer, error) {
	body := struct {
		Duration *int64 `json:"duration,omitempty"`
	}{duration}
	var out Timer
	if err := c.do(ctx, http.MethodPut, "/api/timers/stop/"+id, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTimers returns the user's timers, newest first.
func (c *Client) ListTimers(ctx context.Context) ([]Timer, error) {
	var out []Timer
	if err := c.do(ctx, http.MethodGet, "/api/timers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTimer fetches one timer by ID.
func (c *Client) GetTimer(ctx context.Context, id string) (*Timer, error) {
	var out Timer
	if err := c.do(ctx, http.MethodGet, "/api/timers/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTimer removes a timer record.
func (c *Client) DeleteTimer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/timers/"+id, nil, nil)
}

// --- clients & profitability ---

// ClientRecord mirrors the server's client representation.
type ClientRecord struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	HourlyRate    float64   `json:"hourlyRate"`
	TargetHours   float64   `json:"targetHours"`
	SpentHours    float64   `json:"spentHours"`
	MonthlyBudget float64   `json:"monthlyBudget"`
	TaskCount     int64     `json:"taskCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// UpsertClient is the create/update request body for clients.
type UpsertClient struct {
	Name          string  `json:"name"`
	HourlyRate    float64 `json:"hourlyRate"`
	TargetHours   float64 `json:"targetHours"`
	MonthlyBudget float64 `json:"monthlyBudget"`
}

func (c *Client) CreateClient(ctx context.Context, in UpsertClient) (*ClientRecord, error) {
	var out ClientRecord
	if err := c.do(ctx, http.MethodPost, "/api/clients", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateClient(ctx context.Context, id string, in UpsertClient) (*ClientRecord, error) {
	var out ClientRecord
	if err := c.do(ctx, http.MethodPut, "/api/clients/"+id, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetClient(ctx context.Context, id string) (*ClientRecord, error) {
	var out ClientRecord
	if err := c.do(ctx, http.MethodGet, "/api/clients/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListClients(ctx context.Context) ([]ClientRecord, error) {
	var out []ClientRecord
	if err := c.do(ctx, http.MethodGet, "/api/clients", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteClient(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/clients/"+id, nil, nil)
}

// Profitability is the per-client budget snapshot.
type Profitability struct {
	HourlyRate              float64 `json:"hourlyRate"`
	TargetHours             float64 `json:"targetHours"`
	SpentHours              float64 `json:"spentHours"`
	MonthlyBudget           float64 `json:"monthlyBudget"`
	ProfitabilityPercentage float64 `json:"profitabilityPercentage"`
}

// GetProfitability fetches the client's profitability snapshot.
func (c *Client) GetProfitability(ctx context.Context, clientID string) (*Profitability, error) {
	var out Profitability
	if err := c.do(ctx, http.MethodGet, "/api/profitability/client/"+clientID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddSpentHours updates a client's spent-hours counter. With incrementOnly
// the value is added to the stored total, otherwise it replaces it. Returns
// the resulting total.
func (c *Client) AddSpentHours(ctx context.Context, clientID string, hours float64, incrementOnly bool) (float64, error) {
	body := struct {
		SpentHours    float64 `json:"spentHours"`
		IncrementOnly bool    `json:"incrementOnly"`
	}{hours, incrementOnly}
	var out struct {
		SpentHours float64 `json:"spentHours"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/profitability/client/"+clientID+"/spent-hours", body, &out); err != nil {
		return 0, err
	}
	return out.SpentHours, nil
}

// --- tasks ---

// Task mirrors the server's task representation.
type Task struct {
	ID             string     `json:"id"`
	ClientID       string     `json:"clientId,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Priority       int        `json:"priority"`
	Status         string     `json:"status"`
	EstimatedHours float64    `json:"estimatedHours"`
	ActualHours    float64    `json:"actualHours"`
	HighImpact     bool       `json:"highImpact"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// UpsertTask is the create/update request body for tasks.
type UpsertTask struct {
	ClientID       string  `json:"clientId,omitempty"`
	Title          string  `json:"title"`
	Description    string  `json:"description,omitempty"`
	Priority       int     `json:"priority,omitempty"`
	Status         string  `json:"status,omitempty"`
	EstimatedHours float64 `json:"estimatedHours,omitempty"`
	ActualHours    float64 `json:"actualHours,omitempty"`
	HighImpact     bool    `json:"highImpact,omitempty"`
}

func (c *Client) CreateTask(ctx context.Context, in UpsertTask) (*Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, in UpsertTask) (*Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+id, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	var out []Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+id, nil, nil)
}

// CompleteTaskResult is the completion response with the awarded points.
type CompleteTaskResult struct {
	Task          Task  `json:"task"`
	PointsAwarded int64 `json:"pointsAwarded"`
}

// CompleteTask toggles task completion. completed=false reopens the task.
func (c *Client) CompleteTask(ctx context.Context, id string, completed bool) (*CompleteTaskResult, error) {
	body := struct {
		Completed bool `json:"completed"`
	}{completed}
	var out CompleteTaskResult
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+id+"/complete", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- transport ---

// do runs one request/response cycle. Transport failures come back wrapped
// in ErrNetwork; HTTP error statuses are mapped onto the sentinels.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusErr(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusErr converts an HTTP error response into a sentinel-wrapped error,
// keeping the server's message for logs.
func statusErr(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	msg := payload.Error
	if msg == "" {
		msg = resp.Status
	}

	var sentinel error
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		sentinel = errs.ErrValidation
	case resp.StatusCode == http.StatusUnauthorized:
		sentinel = errs.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		sentinel = errs.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		if strings.Contains(msg, "closed") {
			sentinel = errs.ErrTimerClosed
		} else {
			sentinel = errs.ErrTimerOpen
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		sentinel = errs.ErrRateLimited
	case resp.StatusCode >= 500:
		sentinel = errs.ErrServer
	default:
		sentinel = errs.ErrServer
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}
