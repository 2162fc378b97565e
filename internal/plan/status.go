package plan

import "fmt"

// Status is the completion state of a task.
//
// Every transition between the three values is allowed, including from
// completed back to pending, so a mis-click can be undone.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusMissed    Status = "missed"
)

// Valid reports whether s is one of the three legal statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusMissed:
		return true
	default:
		return false
	}
}

// ParseStatus converts raw input into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// WithStatus returns a copy of t carrying status s.
func (t Task) WithStatus(s Status) (Task, error) {
	if !s.Valid() {
		return t, fmt.Errorf("%w: %q", ErrInvalidStatus, string(s))
	}
	t = t.clone()
	t.Status = s
	return t, nil
}

// Reschedulable reports whether the task should be redistributed on resync.
func (t Task) Reschedulable() bool {
	return t.Status != StatusCompleted
}
