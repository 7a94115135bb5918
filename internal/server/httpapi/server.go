// Package httpapi exposes the timetrack REST API handlers.
package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/Stickybrown8/timetrack/internal/errs"
	"github.com/Stickybrown8/timetrack/internal/service"
)

// Server wires services into REST handlers.
type Server struct {
	auth    service.AuthService
	timers  service.TimerService
	clients service.ClientService
	tasks   service.TaskService
	signKey []byte
	log     *zap.Logger
}

// New constructs a REST server with injected services.
func New(auth service.AuthService, timers service.TimerService, clients service.ClientService,
	tasks service.TaskService, signKey []byte, log *zap.Logger) *Server {
	return &Server{auth: auth, timers: timers, clients: clients, tasks: tasks, signKey: signKey, log: log}
}

// Handler returns the routed handler wrapped in recovery and logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	// Timers
	mux.Handle("POST /api/timers", s.authed(s.handleTimerStart))
	mux.Handle("PUT /api/timers/stop/{id}", s.authed(s.handleTimerStop))
	mux.Handle("GET /api/timers", s.authed(s.handleTimerList))
	mux.Handle("GET /api/timers/{id}", s.authed(s.handleTimerGet))
	mux.Handle("DELETE /api/timers/{id}", s.authed(s.handleTimerDelete))

	// Profitability
	mux.Handle("GET /api/profitability/client/{clientId}", s.authed(s.handleProfitabilityGet))
	mux.Handle("PUT /api/profitability/client/{clientId}/spent-hours", s.authed(s.handleSpentHours))

	// Clients
	mux.Handle("POST /api/clients", s.authed(s.handleClientCreate))
	mux.Handle("GET /api/clients", s.authed(s.handleClientList))
	mux.Handle("GET /api/clients/{id}", s.authed(s.handleClientGet))
	mux.Handle("PUT /api/clients/{id}", s.authed(s.handleClientUpdate))
	mux.Handle("DELETE /api/clients/{id}", s.authed(s.handleClientDelete))

	// Tasks
	mux.Handle("POST /api/tasks", s.authed(s.handleTaskCreate))
	mux.Handle("GET /api/tasks", s.authed(s.handleTaskList))
	mux.Handle("GET /api/tasks/{id}", s.authed(s.handleTaskGet))
	mux.Handle("PUT /api/tasks/{id}", s.authed(s.handleTaskUpdate))
	mux.Handle("DELETE /api/tasks/{id}", s.authed(s.handleTaskDelete))
	mux.Handle("PUT /api/tasks/{id}/complete", s.authed(s.handleTaskComplete))

	return Recover(s.log, Logging(s.log, mux))
}

// --- Auth ---

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	userID, err := s.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"userId": userID})
}

type loginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	UserID      string    `json:"userId"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	tok, u, err := s.auth.Login(r.Context(), req.Username, req.Password, clientIP(r))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: tok.AccessToken,
		ExpiresAt:   tok.ExpiresAt,
		UserID:      u.ID.String(),
	})
}

// clientIP strips the port from RemoteAddr; used for login rate limiting.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// --- auth middleware ---

// authed wraps a handler with bearer-token authentication and stores the
// user ID in the request context.
func (s *Server) authed(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.userIDFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "no auth")
			return
		}
		next(w, r.WithContext(WithUserID(r.Context(), id)))
	})
}

// userIDFromRequest extracts "Authorization: Bearer <JWT>", verifies HS256,
// and returns the subject as UUID.
func (s *Server) userIDFromRequest(r *http.Request) (uuid.UUID, error) {
	tok, err := bearerToken(r)
	if err != nil {
		return uuid.Nil, err
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.signKey, nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, errors.New("invalid token")
	}

	v := jwt.NewValidator(jwt.WithLeeway(30 * time.Second))
	if err := v.Validate(&claims); err != nil {
		return uuid.Nil, errors.New("token expired or not valid yet")
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, errors.New("bad subject")
	}
	return id, nil
}

func bearerToken(r *http.Request) (string, error) {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		t := strings.TrimSpace(v[7:])
		if t != "" {
			return t, nil
		}
	}
	return "", errors.New("no bearer token")
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErr maps sentinel errors onto HTTP statuses.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "bad credentials")
	case errors.Is(err, errs.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, errs.ErrTimerOpen), errors.Is(err, errs.ErrTimerClosed), errors.Is(err, errs.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "too many attempts")
	default:
		s.log.Error("internal", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal")
	}
}

// pathUUID parses a UUID path segment.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.FromString(r.PathValue(name))
	if err != nil {
		return uuid.Nil, errors.New("bad id")
	}
	return id, nil
}

// mustUserID returns the authenticated user; authed guarantees presence.
func mustUserID(r *http.Request) uuid.UUID {
	id, _ := UserIDFromCtx(r.Context())
	return id
}
