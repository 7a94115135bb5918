package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/Stickybrown8/timetrack/internal/model"
	"github.com/Stickybrown8/timetrack/internal/service"
)

type timerJSON struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"clientId,omitempty"`
	TaskID      string     `json:"taskId,omitempty"`
	Description string     `json:"description,omitempty"`
	Billable    bool       `json:"billable"`
	StartedAt   time.Time  `json:"startedAt"`
	EndedAt     *time.Time `json:"endedAt,omitempty"`
	Duration    *int64     `json:"duration,omitempty"`
}

func toTimerJSON(t *model.Timer) timerJSON {
	out := timerJSON{
		ID:          t.ID.String(),
		Description: t.Description,
		Billable:    t.Billable,
		StartedAt:   t.StartedAt,
		EndedAt:     t.EndedAt,
		Duration:    t.DurationSeconds,
	}
	if t.ClientID.Valid {
		out.ClientID = t.ClientID.UUID.String()
	}
	if t.TaskID.Valid {
		out.TaskID = t.TaskID.UUID.String()
	}
	return out
}

type startTimerRequest struct {
	ClientID    string `json:"clientId"`
	TaskID      string `json:"taskId"`
	Description string `json:"description"`
	Billable    *bool  `json:"billable"`
}

func parseNullUUID(s string) (uuid.NullUUID, bool) {
	if s == "" {
		return uuid.NullUUID{}, true
	}
	id, err := uuid.FromString(s)
	if err != nil {
		return uuid.NullUUID{}, false
	}
	return uuid.NullUUID{UUID: id, Valid: true}, true
}

func (s *Server) handleTimerStart(w http.ResponseWriter, r *http.Request) {
	var req startTimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	clientID, ok := parseNullUUID(req.ClientID)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad clientId")
		return
	}
	taskID, ok := parseNullUUID(req.TaskID)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad taskId")
		return
	}
	billable := true // default per the timer record contract
	if req.Billable != nil {
		billable = *req.Billable
	}

	t, err := s.timers.Start(r.Context(), mustUserID(r), service.StartTimer{
		ClientID:    clientID,
		TaskID:      taskID,
		Description: req.Description,
		Billable:    billable,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTimerJSON(t))
}

type stopTimerRequest struct {
	Duration *int64 `json:"duration"`
}

func (s *Server) handleTimerStop(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	var req stopTimerRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}
	t, err := s.timers.Stop(r.Context(), mustUserID(r), id, req.Duration)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimerJSON(t))
}

func (s *Server) handleTimerList(w http.ResponseWriter, r *http.Request) {
	ts, err := s.timers.List(r.Context(), mustUserID(r))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	out := make([]timerJSON, 0, len(ts))
	for i := range ts {
		out = append(out, toTimerJSON(&ts[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTimerGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	t, err := s.timers.Get(r.Context(), mustUserID(r), id)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimerJSON(t))
}

func (s *Server) handleTimerDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	if err := s.timers.Delete(r.Context(), mustUserID(r), id); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
