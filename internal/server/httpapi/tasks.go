package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Stickybrown8/timetrack/internal/model"
	"github.com/Stickybrown8/timetrack/internal/service"
)

type taskJSON struct {
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

func toTaskJSON(t *model.Task) taskJSON {
	out := taskJSON{
		ID:             t.ID.String(),
		Title:          t.Title,
		Description:    t.Description,
		Priority:       t.Priority,
		Status:         string(t.Status),
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		HighImpact:     t.HighImpact,
		CompletedAt:    t.CompletedAt,
		CreatedAt:      t.CreatedAt,
	}
	if t.ClientID.Valid {
		out.ClientID = t.ClientID.UUID.String()
	}
	return out
}

type upsertTaskRequest struct {
	ClientID       string  `json:"clientId"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Priority       int     `json:"priority"`
	Status         string  `json:"status"`
	EstimatedHours float64 `json:"estimatedHours"`
	ActualHours    float64 `json:"actualHours"`
	HighImpact     bool    `json:"highImpact"`
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var req upsertTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	clientID, ok := parseNullUUID(req.ClientID)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad clientId")
		return
	}
	t, err := s.tasks.Create(r.Context(), mustUserID(r), service.UpsertTask{
		ClientID:       clientID,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		Status:         model.TaskStatus(req.Status),
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		HighImpact:     req.HighImpact,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskJSON(t))
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	var req upsertTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	t, err := s.tasks.Update(r.Context(), mustUserID(r), id, service.UpsertTask{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		Status:         model.TaskStatus(req.Status),
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		HighImpact:     req.HighImpact,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskJSON(t))
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	t, err := s.tasks.Get(r.Context(), mustUserID(r), id)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskJSON(t))
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	ts, err := s.tasks.List(r.Context(), mustUserID(r))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	out := make([]taskJSON, 0, len(ts))
	for i := range ts {
		out = append(out, toTaskJSON(&ts[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	if err := s.tasks.Delete(r.Context(), mustUserID(r), id); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type completeTaskRequest struct {
	Completed bool `json:"completed"`
}

type completeTaskResponse struct {
	Task          taskJSON `json:"task"`
	PointsAwarded int64    `json:"pointsAwarded"`
}

func (s *Server) handleTaskComplete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	req := completeTaskRequest{Completed: true}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}
	t, awarded, err := s.tasks.Complete(r.Context(), mustUserID(r), id, req.Completed)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, completeTaskResponse{Task: toTaskJSON(t), PointsAwarded: awarded})
}
