package ai

import (
	"fmt"
	"sync"
)

// BudgetChecker checks and records token usage against per-session budgets.
type BudgetChecker interface {
	// Check returns true if the session has budget remaining.
	Check(sessionID string) (bool, error)
	// Record adds token usage for a session.
	Record(sessionID string, tokens int) error
	// Usage returns current usage and limit for a session. A zero limit means unlimited.
	Usage(sessionID string) (used int64, limit int64, err error)
}

// InMemoryBudget tracks token usage per session in process memory.
type InMemoryBudget struct {
	mu           sync.RWMutex
	defaultLimit int64
	limits       map[string]int64 // session -> limit override
	usage        map[string]int64 // session -> tokens used
}

// NewInMemoryBudget creates a tracker where every session gets defaultLimit
// tokens. Zero means unlimited.
func NewInMemoryBudget(defaultLimit int64) *InMemoryBudget {
	return &InMemoryBudget{
		defaultLimit: defaultLimit,
		limits:       make(map[string]int64),
		usage:        make(map[string]int64),
	}
}

// SetLimit overrides the token limit for one session.
func (b *InMemoryBudget) SetLimit(sessionID string, tokens int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.limits[sessionID] = tokens
}

func (b *InMemoryBudget) Check(sessionID string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	limit := b.limitFor(sessionID)
	if limit <= 0 {
		return true, nil
	}
	return b.usage[sessionID] < limit, nil
}

func (b *InMemoryBudget) Record(sessionID string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.usage[sessionID] += int64(tokens)
	return nil
}

func (b *InMemoryBudget) Usage(sessionID string) (int64, int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.usage[sessionID], b.limitFor(sessionID), nil
}

func (b *InMemoryBudget) limitFor(sessionID string) int64 {
	if l, ok := b.limits[sessionID]; ok {
		return l
	}
	return b.defaultLimit
}
