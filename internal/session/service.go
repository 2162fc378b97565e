package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/p-n-ai/aura-planner/internal/ai"
	"github.com/p-n-ai/aura-planner/internal/intake"
	"github.com/p-n-ai/aura-planner/internal/plan"
	"github.com/p-n-ai/aura-planner/internal/planner"
)

var (
	// ErrNoPlan is returned by operations that need a generated plan.
	ErrNoPlan = errors.New("session has no plan")
	// ErrDayOutOfRange is returned when a reschedule names a day the plan does not have.
	ErrDayOutOfRange = errors.New("day index out of range")
	// ErrBudgetExhausted is returned when the session has used its token budget.
	ErrBudgetExhausted = errors.New("token budget exhausted")
)

// ServiceConfig holds the collaborators of a Service. Only Generator is
// required.
type ServiceConfig struct {
	Generator planner.Generator
	Store     Store
	Guard     Guard
	Events    EventLogger
	Budget    ai.BudgetChecker
	Now       func() time.Time
}

// Service runs the plan lifecycle of every session.
type Service struct {
	generator planner.Generator
	store     Store
	guard     Guard
	events    EventLogger
	budget    ai.BudgetChecker
	now       func() time.Time
}

// NewService creates a service, filling in-memory defaults for anything unset.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		generator: cfg.Generator,
		store:     cfg.Store,
		guard:     cfg.Guard,
		events:    cfg.Events,
		budget:    cfg.Budget,
		now:       cfg.Now,
	}
	if s.store == nil {
		s.store = NewMemoryStore()
	}
	if s.guard == nil {
		s.guard = NewMemoryGuard()
	}
	if s.events == nil {
		s.events = NopEventLogger{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Create starts a session from a validated intake.
func (s *Service) Create(in intake.Intake) (*Session, error) {
	id, err := s.store.Create(Session{
		Exams:       in.Exams,
		Subjects:    in.Subjects,
		Preferences: in.Preferences,
	})
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	s.logEvent(id, EventSessionCreated, map[string]any{
		"subjects": len(in.Subjects),
		"exams":    len(in.Exams),
	})
	return s.store.Get(id)
}

// Get returns a copy of the session.
func (s *Service) Get(id string) (*Session, error) {
	return s.store.Get(id)
}

// UpdateIntake replaces exams, subjects and preferences. The current plan is
// kept; subjects renamed here orphan the plan's tasks until regeneration.
func (s *Service) UpdateIntake(id string, in intake.Intake) (*Session, error) {
	sess, err := s.store.Update(id, func(sess *Session) error {
		sess.Exams = in.Exams
		sess.Subjects = in.Subjects
		sess.Preferences = in.Preferences
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logEvent(id, EventIntakeUpdated, map[string]any{"subjects": len(in.Subjects)})
	return sess, nil
}

// Generate requests a fresh plan for the session.
func (s *Service) Generate(ctx context.Context, id string) (*Session, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	req := planner.BuildRequest(planner.Input{
		Exams:        sess.Exams,
		Subjects:     sess.Subjects,
		Preferences:  sess.Preferences,
		ExistingPlan: sess.Plan,
	}, s.now())
	return s.run(ctx, sess, req, EventPlanGenerated)
}

// Reschedule regenerates the plan seeded with the unfinished tasks of day
// dayIndex. A day with nothing left to move yields a fresh request.
func (s *Service) Reschedule(ctx context.Context, id string, dayIndex int) (*Session, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if sess.Plan == nil {
		return nil, ErrNoPlan
	}
	if dayIndex < 0 || dayIndex >= len(sess.Plan.DailySchedules) {
		return nil, fmt.Errorf("%w: %d of %d", ErrDayOutOfRange, dayIndex, len(sess.Plan.DailySchedules))
	}

	req := planner.BuildRequest(planner.Input{
		Exams:        sess.Exams,
		Subjects:     sess.Subjects,
		Preferences:  sess.Preferences,
		ExistingPlan: sess.Plan,
		MissedTasks:  plan.CollectMissedOrPendingForDay(*sess.Plan, dayIndex),
	}, s.now())
	return s.run(ctx, sess, req, EventPlanRescheduled)
}

func (s *Service) run(ctx context.Context, sess *Session, req planner.Request, eventType string) (*Session, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("%w: no generator configured", plan.ErrGenerationFailed)
	}

	if s.budget != nil {
		ok, err := s.budget.Check(sess.ID)
		if err != nil {
			return nil, fmt.Errorf("checking budget: %w", err)
		}
		if !ok {
			return nil, ErrBudgetExhausted
		}
	}

	release, err := s.guard.Acquire(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	fingerprint := req.Fingerprint()
	start := s.now()
	res, err := s.generator.Generate(ctx, req, sess.Plan)
	if err != nil {
		slog.Error("plan generation failed",
			"session_id", sess.ID,
			"mode", req.Mode,
			"error", err,
		)
		s.logEvent(sess.ID, EventGenerationFailed, map[string]any{
			"mode":        string(req.Mode),
			"fingerprint": fingerprint,
			"error":       err.Error(),
		})
		return nil, err
	}

	if s.budget != nil {
		if err := s.budget.Record(sess.ID, res.TotalTokens()); err != nil {
			slog.Warn("failed to record token usage", "session_id", sess.ID, "error", err)
		}
	}

	// Status changes may have landed while the generator was busy; the
	// streak carries over from whatever plan is current now.
	var next plan.Plan
	updated, err := s.store.Update(sess.ID, func(current *Session) error {
		next = plan.ReplacePlan(current.Plan, res.Plan)
		current.Plan = &next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	slog.Info("plan generated",
		"session_id", sess.ID,
		"mode", req.Mode,
		"model", res.Model,
		"days", len(next.DailySchedules),
		"tokens", res.TotalTokens(),
		"latency_ms", s.now().Sub(start).Milliseconds(),
	)
	s.logEvent(sess.ID, eventType, map[string]any{
		"mode":        string(req.Mode),
		"fingerprint": fingerprint,
		"missed":      len(req.MissedTasks),
		"days":        len(next.DailySchedules),
		"tasks":       len(next.Tasks()),
		"model":       res.Model,
	})
	return updated, nil
}

// SetTaskStatus applies a status change to one task. An unknown task id
// leaves the plan as it was.
func (s *Service) SetTaskStatus(id, taskID, rawStatus string) (*Session, error) {
	status, err := plan.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	sess, err := s.store.Update(id, func(sess *Session) error {
		if sess.Plan == nil {
			return ErrNoPlan
		}
		next, err := plan.UpdateTaskStatus(*sess.Plan, taskID, status)
		if err != nil {
			return err
		}
		sess.Plan = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(id, EventTaskStatusChanged, map[string]any{
		"task_id": taskID,
		"status":  string(status),
		"pct":     plan.CompletionPct(*sess.Plan),
	})
	return sess, nil
}

// MarkElapsed marks every pending task dated before today as missed and
// returns how many were changed.
func (s *Service) MarkElapsed(id string, today time.Time) (*Session, int, error) {
	var marked int
	sess, err := s.store.Update(id, func(sess *Session) error {
		if sess.Plan == nil {
			return ErrNoPlan
		}
		var next plan.Plan
		next, marked = plan.MarkElapsedMissed(*sess.Plan, today)
		sess.Plan = &next
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	if marked > 0 {
		s.logEvent(id, EventTasksElapsed, map[string]any{
			"missed": marked,
			"today":  today.Format(time.DateOnly),
		})
	}
	return sess, marked, nil
}

// Progress derives the progress report of the session's plan.
func (s *Service) Progress(id string) (plan.Report, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return plan.Report{}, err
	}
	if sess.Plan == nil {
		return plan.Report{}, ErrNoPlan
	}
	return plan.Progress(*sess.Plan, sess.Subjects, sess.Preferences), nil
}

func (s *Service) logEvent(sessionID, eventType string, data map[string]any) {
	if err := s.events.LogEvent(Event{
		SessionID: sessionID,
		EventType: eventType,
		Data:      data,
		CreatedAt: s.now(),
	}); err != nil {
		slog.Warn("failed to log event",
			"type", eventType,
			"session_id", sessionID,
			"error", err,
		)
	}
}
