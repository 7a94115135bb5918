package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Stickybrown8/timetrack/internal/errs"
)

func TestLogin_StoresToken(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		var creds struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Username != "bob" {
			t.Errorf("username = %q", creds.Username)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accessToken": "tok123",
			"expiresAt":   time.Now().Add(time.Hour),
			"userId":      "u1",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Login(context.Background(), "bob", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.AccessToken != "tok123" || c.Token() != "tok123" {
		t.Fatalf("token not stored: %+v", res)
	}
}

func TestCreateTimer_SendsBearer(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("Authorization = %q", got)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Timer{ID: "t1", Billable: true, StartedAt: time.Now().UTC()})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("tok123")
	tm, err := c.CreateTimer(context.Background(), StartTimer{ClientID: "c1"})
	if err != nil {
		t.Fatalf("CreateTimer: %v", err)
	}
	if tm.ID != "t1" || !tm.Billable {
		t.Fatalf("timer = %+v", tm)
	}
}

func TestStatusMapping(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"validation", http.StatusBadRequest, `{"error":"empty title"}`, errs.ErrValidation},
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad credentials"}`, errs.ErrUnauthorized},
		{"not found", http.StatusNotFound, `{"error":"not found"}`, errs.ErrNotFound},
		{"open conflict", http.StatusConflict, `{"error":"timer already open"}`, errs.ErrTimerOpen},
		{"closed conflict", http.StatusConflict, `{"error":"timer already closed"}`, errs.ErrTimerClosed},
		{"server", http.StatusInternalServerError, `{"error":"internal"}`, errs.ErrServer},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := New(srv.URL)
			_, err := c.GetTimer(context.Background(), "t1")
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestNetworkErr(t *testing.T) {
	t.Parallel()
	c := New("http://127.0.0.1:1") // nothing listens here
	_, err := c.ListTimers(context.Background())
	if !errors.Is(err, errs.ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
}

func TestAddSpentHours(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/profitability/client/c1/spent-hours" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req struct {
			SpentHours    float64 `json:"spentHours"`
			IncrementOnly bool    `json:"incrementOnly"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.SpentHours != 0.5 || !req.IncrementOnly {
			t.Errorf("req = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]float64{"spentHours": 9.5})
	}))
	defer srv.Close()

	c := New(srv.URL)
	total, err := c.AddSpentHours(context.Background(), "c1", 0.5, true)
	if err != nil {
		t.Fatalf("AddSpentHours: %v", err)
	}
	if total != 9.5 {
		t.Fatalf("total = %v", total)
	}
}

func TestDeleteTimer_NoContent(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := New(srv.URL).DeleteTimer(context.Background(), "t1"); err != nil {
		t.Fatalf("DeleteTimer: %v", err)
	}
}
