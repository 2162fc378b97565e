package ai

import (
	"testing"
)

func TestInMemoryBudget_Unlimited(t *testing.T) {
	b := NewInMemoryBudget(0)

	if err := b.Record("session-1", 1_000_000); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	ok, err := b.Check("session-1")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !ok {
		t.Error("Check() = false, want true (zero limit means unlimited)")
	}
}

func TestInMemoryBudget_DefaultLimit(t *testing.T) {
	tests := []struct {
		name   string
		record int
		want   bool
	}{
		{"within budget", 500, true},
		{"exact budget", 1000, false},
		{"over budget", 1500, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewInMemoryBudget(1000)
			if err := b.Record("session-1", tt.record); err != nil {
				t.Fatalf("Record() error = %v", err)
			}

			ok, err := b.Check("session-1")
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if ok != tt.want {
				t.Errorf("Check() = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestInMemoryBudget_SetLimitOverridesDefault(t *testing.T) {
	b := NewInMemoryBudget(100)
	b.SetLimit("session-1", 0)

	b.Record("session-1", 500)
	ok, _ := b.Check("session-1")
	if !ok {
		t.Error("override of 0 should make the session unlimited")
	}
}

func TestInMemoryBudget_Usage(t *testing.T) {
	b := NewInMemoryBudget(1000)

	for _, tokens := range []int{100, 200, 300} {
		if err := b.Record("session-1", tokens); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	used, limit, err := b.Usage("session-1")
	if err != nil {
		t.Fatalf("Usage() error = %v", err)
	}
	if used != 600 {
		t.Errorf("used = %d, want 600", used)
	}
	if limit != 1000 {
		t.Errorf("limit = %d, want 1000", limit)
	}
}

func TestInMemoryBudget_NegativeTokens(t *testing.T) {
	b := NewInMemoryBudget(0)

	if err := b.Record("session-1", -10); err == nil {
		t.Fatal("Record() should return error for negative tokens")
	}
}

func TestInMemoryBudget_IsolatedSessions(t *testing.T) {
	b := NewInMemoryBudget(100)

	b.Record("session-1", 150)
	b.Record("session-2", 50)

	ok1, _ := b.Check("session-1")
	ok2, _ := b.Check("session-2")

	if ok1 {
		t.Error("session-1 should be over budget (150 >= 100)")
	}
	if !ok2 {
		t.Error("session-2 should be within budget (50 < 100)")
	}
}
