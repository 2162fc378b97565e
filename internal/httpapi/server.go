// Package httpapi exposes planning sessions over HTTP.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/p-n-ai/aura-planner/internal/export"
	"github.com/p-n-ai/aura-planner/internal/intake"
	"github.com/p-n-ai/aura-planner/internal/plan"
	"github.com/p-n-ai/aura-planner/internal/session"
)

const (
	maxBodyBytes = 1 << 20
	readyTimeout = 2 * time.Second
)

// HealthChecker is a dependency probed by /readyz.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server wires HTTP handlers to the session service.
type Server struct {
	svc    *session.Service
	hub    *Hub
	checks map[string]HealthChecker
	now    func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithReadinessCheck adds a dependency to /readyz.
func WithReadinessCheck(name string, c HealthChecker) Option {
	return func(s *Server) {
		s.checks[name] = c
	}
}

// WithClock overrides the clock used when /elapse is called without a date.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer creates a server. hub may be nil, which disables /events.
func NewServer(svc *session.Service, hub *Hub, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		hub:    hub,
		checks: make(map[string]HealthChecker),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("PUT /sessions/{id}/intake", s.handleUpdateIntake)
	mux.HandleFunc("POST /sessions/{id}/plan", s.handleGenerate)
	mux.HandleFunc("POST /sessions/{id}/reschedule", s.handleReschedule)
	mux.HandleFunc("PUT /sessions/{id}/tasks/{taskID}/status", s.handleTaskStatus)
	mux.HandleFunc("POST /sessions/{id}/elapse", s.handleElapse)
	mux.HandleFunc("GET /sessions/{id}/progress", s.handleProgress)
	mux.HandleFunc("GET /sessions/{id}/export.xlsx", s.handleExport)
	mux.HandleFunc("GET /sessions/{id}/events", s.handleEvents)
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	failed := map[string]string{}
	for name, c := range s.checks {
		if err := c.HealthCheck(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		slog.Warn("readiness check failed", "failed", failed)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	in, err := decodeIntake(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, err := s.svc.Create(in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleUpdateIntake(w http.ResponseWriter, r *http.Request) {
	in, err := decodeIntake(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, err := s.svc.UpdateIntake(r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Generate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type rescheduleRequest struct {
	DayIndex *int `json:"dayIndex"`
}

func (s *Server) handleReschedule(w http.ResponseWriter, r *http.Request) {
	var body rescheduleRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.DayIndex == nil {
		writeError(w, badRequest("dayIndex is required"))
		return
	}
	sess, err := s.svc.Reschedule(r.Context(), r.PathValue("id"), *body.DayIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	var body statusRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	sess, err := s.svc.SetTaskStatus(r.PathValue("id"), r.PathValue("taskID"), body.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type elapseRequest struct {
	Today string `json:"today"`
}

type elapseResponse struct {
	Missed  int              `json:"missed"`
	Session *session.Session `json:"session"`
}

func (s *Server) handleElapse(w http.ResponseWriter, r *http.Request) {
	var body elapseRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, err)
			return
		}
	}

	today := s.now()
	if body.Today != "" {
		d, err := time.Parse(time.DateOnly, body.Today)
		if err != nil {
			writeError(w, badRequest("today must be YYYY-MM-DD"))
			return
		}
		today = d
	}

	sess, n, err := s.svc.MarkElapsed(r.PathValue("id"), today)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, elapseResponse{Missed: n, Session: sess})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Progress(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := s.svc.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if sess.Plan == nil {
		writeError(w, session.ErrNoPlan)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, *sess.Plan, sess.Subjects, sess.Preferences); err != nil {
		slog.Error("export failed", "session_id", id, "error", err)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="plan-%s.xlsx"`, id))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("export write failed", "session_id", id, "error", err)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.NotFound(w, r)
		return
	}
	id := r.PathValue("id")
	if _, err := s.svc.Get(id); err != nil {
		writeError(w, err)
		return
	}
	s.hub.serveWS(w, r, id)
}

type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

func decodeIntake(w http.ResponseWriter, r *http.Request) (intake.Intake, error) {
	var form intake.Form
	if err := decodeJSON(w, r, &form); err != nil {
		return intake.Intake{}, err
	}
	return form.Build()
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr),
		errors.Is(err, plan.ErrInvalidStatus),
		errors.Is(err, intake.ErrInvalid),
		errors.Is(err, session.ErrDayOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrGenerationInFlight),
		errors.Is(err, session.ErrNoPlan):
		return http.StatusConflict
	case errors.Is(err, session.ErrBudgetExhausted):
		return http.StatusTooManyRequests
	case errors.Is(err, plan.ErrEmptyResponse),
		errors.Is(err, plan.ErrMalformedPlan),
		errors.Is(err, plan.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is the stable machine-readable name of err.
func errorCode(err error) string {
	switch {
	case errors.Is(err, plan.ErrInvalidStatus):
		return "invalid_status"
	case errors.Is(err, intake.ErrInvalid):
		return "invalid_intake"
	case errors.Is(err, session.ErrDayOutOfRange):
		return "day_out_of_range"
	case errors.Is(err, session.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, session.ErrGenerationInFlight):
		return "generation_in_flight"
	case errors.Is(err, session.ErrNoPlan):
		return "no_plan"
	case errors.Is(err, session.ErrBudgetExhausted):
		return "budget_exhausted"
	case errors.Is(err, plan.ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, plan.ErrMalformedPlan):
		return "malformed_plan"
	case errors.Is(err, plan.ErrGenerationFailed):
		return "generation_failed"
	}
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return "bad_request"
	}
	return "internal"
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: strings.TrimSpace(msg), Code: errorCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}
