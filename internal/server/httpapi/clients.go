package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Stickybrown8/timetrack/internal/model"
	"github.com/Stickybrown8/timetrack/internal/service"
)

type clientJSON struct {
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

func toClientJSON(c *model.Client) clientJSON {
	return clientJSON{
		ID:            c.ID.String(),
		Name:          c.Name,
		HourlyRate:    c.HourlyRate,
		TargetHours:   c.TargetHours,
		SpentHours:    c.SpentHours,
		MonthlyBudget: c.MonthlyBudget,
		TaskCount:     c.TaskCount,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

type upsertClientRequest struct {
	Name          string  `json:"name"`
	HourlyRate    float64 `json:"hourlyRate"`
	TargetHours   float64 `json:"targetHours"`
	MonthlyBudget float64 `json:"monthlyBudget"`
}

func (s *Server) handleClientCreate(w http.ResponseWriter, r *http.Request) {
	var req upsertClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	c, err := s.clients.Create(r.Context(), mustUserID(r), service.UpsertClient{
		Name:          req.Name,
		HourlyRate:    req.HourlyRate,
		TargetHours:   req.TargetHours,
		MonthlyBudget: req.MonthlyBudget,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientJSON(c))
}

func (s *Server) handleClientUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	var req upsertClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	c, err := s.clients.Update(r.Context(), mustUserID(r), id, service.UpsertClient{
		Name:          req.Name,
		HourlyRate:    req.HourlyRate,
		TargetHours:   req.TargetHours,
		MonthlyBudget: req.MonthlyBudget,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientJSON(c))
}

func (s *Server) handleClientGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	c, err := s.clients.Get(r.Context(), mustUserID(r), id)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientJSON(c))
}

func (s *Server) handleClientList(w http.ResponseWriter, r *http.Request) {
	cs, err := s.clients.List(r.Context(), mustUserID(r))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	out := make([]clientJSON, 0, len(cs))
	for i := range cs {
		out = append(out, toClientJSON(&cs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClientDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	if err := s.clients.Delete(r.Context(), mustUserID(r), id); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- profitability ---

type profitabilityJSON struct {
	HourlyRate              float64 `json:"hourlyRate"`
	TargetHours             float64 `json:"targetHours"`
	SpentHours              float64 `json:"spentHours"`
	MonthlyBudget           float64 `json:"monthlyBudget"`
	ProfitabilityPercentage float64 `json:"profitabilityPercentage"`
}

func (s *Server) handleProfitabilityGet(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathUUID(r, "clientId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad clientId")
		return
	}
	p, err := s.clients.Profitability(r.Context(), mustUserID(r), clientID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profitabilityJSON{
		HourlyRate:              p.HourlyRate,
		TargetHours:             p.TargetHours,
		SpentHours:              p.SpentHours,
		MonthlyBudget:           p.MonthlyBudget,
		ProfitabilityPercentage: p.ProfitabilityPercentage,
	})
}

type spentHoursRequest struct {
	SpentHours    float64 `json:"spentHours"`
	IncrementOnly bool    `json:"incrementOnly"`
}

func (s *Server) handleSpentHours(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathUUID(r, "clientId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad clientId")
		return
	}
	var req spentHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	total, err := s.clients.UpdateSpentHours(r.Context(), mustUserID(r), clientID, req.SpentHours, req.IncrementOnly)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"spentHours": total})
}
