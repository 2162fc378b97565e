package plan_test

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/p-n-ai/aura-planner/internal/plan"
)

func intPtr(v int) *int { return &v }

// twoDayPlan is two days: day 1 [t1 pending, t2 completed], day 2 [t3 missed].
func twoDayPlan() plan.Plan {
	return plan.Plan{
		DailySchedules: []plan.DailySchedule{
			{
				Date: "2026-10-16",
				Tasks: []plan.Task{
					{ID: "t1", Subject: "Physics", Topic: "Kinematics", Sessions: 2, BestTime: "Morning", Type: plan.TaskStudy, Status: plan.StatusPending, Duration: intPtr(50)},
					{ID: "t2", Subject: "Chemistry", Topic: "Bonding", Sessions: 1, BestTime: "Evening", Type: plan.TaskRevision, Status: plan.StatusCompleted},
				},
			},
			{
				Date: "2026-10-17",
				Tasks: []plan.Task{
					{ID: "t3", Subject: "Physics", Topic: "Optics", Sessions: 3, BestTime: "Afternoon", Type: plan.TaskStudy, Status: plan.StatusMissed},
				},
			},
		},
		Recommendation: "Steady wins.",
		Streak:         4,
	}
}

func TestCompletionPct_MixedStatuses(t *testing.T) {
	if got := plan.CompletionPct(twoDayPlan()); got != 33 {
		t.Errorf("CompletionPct() = %d, want 33", got)
	}
}

func TestCompletionPct_EmptyPlan(t *testing.T) {
	if got := plan.CompletionPct(plan.Plan{}); got != 0 {
		t.Errorf("CompletionPct(empty) = %d, want 0", got)
	}
	noTasks := plan.Plan{DailySchedules: []plan.DailySchedule{{Date: "2026-10-16"}}}
	if got := plan.CompletionPct(noTasks); got != 0 {
		t.Errorf("CompletionPct(no tasks) = %d, want 0", got)
	}
}

func TestCompletionPct_Bounds(t *testing.T) {
	tests := []struct {
		name     string
		statuses []plan.Status
		want     int
	}{
		{"all completed", []plan.Status{plan.StatusCompleted, plan.StatusCompleted}, 100},
		{"none completed", []plan.Status{plan.StatusMissed, plan.StatusPending}, 0},
		{"two of three rounds up", []plan.Status{plan.StatusCompleted, plan.StatusCompleted, plan.StatusPending}, 67},
		{"half", []plan.Status{plan.StatusCompleted, plan.StatusMissed}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tasks []plan.Task
			for i, s := range tt.statuses {
				tasks = append(tasks, plan.Task{ID: string(rune('a' + i)), Status: s})
			}
			p := plan.Plan{DailySchedules: []plan.DailySchedule{{Date: "2026-10-16", Tasks: tasks}}}

			got := plan.CompletionPct(p)
			if got != tt.want {
				t.Errorf("CompletionPct() = %d, want %d", got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("CompletionPct() = %d, outside 0..100", got)
			}
		})
	}
}

func TestCollectMissedOrPendingForDay_SkipsCompleted(t *testing.T) {
	got := plan.CollectMissedOrPendingForDay(twoDayPlan(), 0)

	if len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("CollectMissedOrPendingForDay() = %+v, want [t1]", got)
	}
}

func TestCollectMissedOrPendingForDay_PreservesOrder(t *testing.T) {
	p := plan.Plan{DailySchedules: []plan.DailySchedule{{
		Date: "2026-10-16",
		Tasks: []plan.Task{
			{ID: "a", Status: plan.StatusMissed},
			{ID: "b", Status: plan.StatusCompleted},
			{ID: "c", Status: plan.StatusPending},
			{ID: "d", Status: plan.StatusMissed},
		},
	}}}

	got := plan.CollectMissedOrPendingForDay(p, 0)

	ids := make([]string, 0, len(got))
	for _, task := range got {
		if task.Status == plan.StatusCompleted {
			t.Errorf("task %s is completed", task.ID)
		}
		ids = append(ids, task.ID)
	}
	if want := []string{"a", "c", "d"}; !slices.Equal(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestCollectMissedOrPendingForDay_OutOfRange(t *testing.T) {
	p := twoDayPlan()
	for _, day := range []int{-1, 2} {
		if got := plan.CollectMissedOrPendingForDay(p, day); got != nil {
			t.Errorf("CollectMissedOrPendingForDay(%d) = %+v, want nil", day, got)
		}
	}
}

func TestUpdateTaskStatus(t *testing.T) {
	p := twoDayPlan()

	got, err := plan.UpdateTaskStatus(p, "t1", plan.StatusCompleted)
	if err != nil {
		t.Fatalf("UpdateTaskStatus() error = %v", err)
	}

	task, day, found := plan.FindTask(got, "t1")
	if !found || day != 0 || task.Status != plan.StatusCompleted {
		t.Errorf("FindTask(t1) = %+v, day %d, found %v", task, day, found)
	}

	original, _, _ := plan.FindTask(p, "t1")
	if original.Status != plan.StatusPending {
		t.Errorf("input mutated: status = %q", original.Status)
	}

	want := twoDayPlan()
	want.DailySchedules[0].Tasks[0].Status = plan.StatusCompleted
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UpdateTaskStatus() changed more than the status:\n got %+v\nwant %+v", got, want)
	}
}

func TestUpdateTaskStatus_Idempotent(t *testing.T) {
	once, err := plan.UpdateTaskStatus(twoDayPlan(), "t3", plan.StatusCompleted)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := plan.UpdateTaskStatus(once, "t3", plan.StatusCompleted)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second update changed the plan")
	}
}

func TestUpdateTaskStatus_UnknownID(t *testing.T) {
	p := twoDayPlan()

	got, err := plan.UpdateTaskStatus(p, "does-not-exist", plan.StatusMissed)
	if err != nil {
		t.Fatalf("UpdateTaskStatus() error = %v", err)
	}
	if !reflect.DeepEqual(got, p) {
		t.Errorf("unknown id changed the plan")
	}
}

func TestUpdateTaskStatus_Backwards(t *testing.T) {
	got, err := plan.UpdateTaskStatus(twoDayPlan(), "t2", plan.StatusPending)
	if err != nil {
		t.Fatal(err)
	}
	if task, _, _ := plan.FindTask(got, "t2"); task.Status != plan.StatusPending {
		t.Errorf("status = %q, want pending", task.Status)
	}
}

func TestUpdateTaskStatus_InvalidStatus(t *testing.T) {
	p := twoDayPlan()

	got, err := plan.UpdateTaskStatus(p, "t1", plan.Status("skipped"))
	if !errors.Is(err, plan.ErrInvalidStatus) {
		t.Fatalf("UpdateTaskStatus() error = %v, want ErrInvalidStatus", err)
	}
	if !reflect.DeepEqual(got, p) {
		t.Errorf("invalid status changed the plan")
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    plan.Status
		wantErr bool
	}{
		{"pending", plan.StatusPending, false},
		{"completed", plan.StatusCompleted, false},
		{"missed", plan.StatusMissed, false},
		{"Completed", "", true},
		{"", "", true},
		{"rescheduled", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := plan.ParseStatus(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, plan.ErrInvalidStatus) {
					t.Errorf("ParseStatus(%q) error = %v, want ErrInvalidStatus", tt.raw, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, %v, want %q", tt.raw, got, err, tt.want)
			}
		})
	}
}

func TestTask_WithStatus(t *testing.T) {
	task := plan.Task{ID: "t1", Duration: intPtr(25), Status: plan.StatusPending}

	done, err := task.WithStatus(plan.StatusCompleted)
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != plan.StatusCompleted || task.Status != plan.StatusPending {
		t.Errorf("WithStatus() = %q, original %q", done.Status, task.Status)
	}

	*done.Duration = 99
	if *task.Duration != 25 {
		t.Errorf("copy shares the duration pointer")
	}

	if _, err := task.WithStatus("done"); !errors.Is(err, plan.ErrInvalidStatus) {
		t.Errorf("WithStatus(done) error = %v, want ErrInvalidStatus", err)
	}
}

func TestReplacePlan_CarriesStreak(t *testing.T) {
	old := twoDayPlan()
	next := plan.Plan{
		DailySchedules: []plan.DailySchedule{{Date: "2026-10-18", Tasks: []plan.Task{{ID: "n1", Status: plan.StatusPending}}}},
		Recommendation: "Fresh start.",
		BurnoutWarning: "Ease up on Sunday.",
	}

	got := plan.ReplacePlan(&old, next)

	if got.Streak != old.Streak {
		t.Errorf("Streak = %d, want %d", got.Streak, old.Streak)
	}
	if !reflect.DeepEqual(got.DailySchedules, next.DailySchedules) {
		t.Errorf("DailySchedules = %+v", got.DailySchedules)
	}
	if got.Recommendation != "Fresh start." || got.BurnoutWarning != "Ease up on Sunday." {
		t.Errorf("coaching text = %q / %q", got.Recommendation, got.BurnoutWarning)
	}
}

func TestReplacePlan_PrefersOldStreak(t *testing.T) {
	old := plan.Plan{Streak: 7}
	next := plan.Plan{Recommendation: "x", Streak: 2}

	if got := plan.ReplacePlan(&old, next).Streak; got != 7 {
		t.Errorf("Streak = %d, want 7", got)
	}
}

func TestReplacePlan_NoOldPlan(t *testing.T) {
	if got := plan.ReplacePlan(nil, plan.Plan{Recommendation: "x"}).Streak; got != 0 {
		t.Errorf("Streak = %d, want 0", got)
	}
}

func TestSubjectProgress(t *testing.T) {
	subjects := []plan.Subject{
		{ID: "s1", Name: "Physics"},
		{ID: "s2", Name: "Chemistry"},
		{ID: "s3", Name: "Biology"},
	}

	got := plan.SubjectProgress(twoDayPlan(), subjects)

	want := []plan.SubjectStat{
		{SubjectID: "s1", Subject: "Physics", Completed: 0, Total: 2, Percent: 0},
		{SubjectID: "s2", Subject: "Chemistry", Completed: 1, Total: 1, Percent: 100},
		{SubjectID: "s3", Subject: "Biology"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SubjectProgress() = %+v, want %+v", got, want)
	}
}

func TestSubjectProgress_RenamedSubjectOrphansTasks(t *testing.T) {
	// Matching is exact and case-sensitive.
	subjects := []plan.Subject{{ID: "s1", Name: "Applied Physics"}, {ID: "s2", Name: "chemistry"}}

	got := plan.SubjectProgress(twoDayPlan(), subjects)

	if got[0].Total != 0 || got[1].Total != 0 {
		t.Errorf("renamed subjects matched tasks: %+v", got)
	}
	if pct := plan.CompletionPct(twoDayPlan()); pct != 33 {
		t.Errorf("CompletionPct() = %d, want 33 with orphaned tasks counted", pct)
	}
}

func TestProgress(t *testing.T) {
	r := plan.Progress(twoDayPlan(), []plan.Subject{{ID: "s1", Name: "Physics"}}, plan.DefaultPreferences())

	if r.CompletionPct != 33 || r.Total != 3 || r.Completed != 1 || r.Pending != 1 || r.Missed != 1 {
		t.Errorf("counts = %+v", r)
	}
	if r.Streak != 4 || r.Days != 2 {
		t.Errorf("Streak = %d, Days = %d, want 4, 2", r.Streak, r.Days)
	}
	if len(r.Subjects) != 1 || r.Insight == "" {
		t.Errorf("Subjects = %+v, Insight = %q", r.Subjects, r.Insight)
	}
}

func TestProgress_FocusMetrics(t *testing.T) {
	p := twoDayPlan()
	p, _ = plan.UpdateTaskStatus(p, "t1", plan.StatusCompleted)

	tests := []struct {
		name        string
		pomodoro    int
		wantMinutes int
	}{
		{"preference length", 50, 150},
		{"default length", 0, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := plan.Progress(p, nil, plan.Preferences{PomodoroLength: tt.pomodoro})
			if r.SessionsCompleted != 3 {
				t.Errorf("SessionsCompleted = %d, want 3 (t1 x2 + t2 x1)", r.SessionsCompleted)
			}
			if r.FocusMinutes != tt.wantMinutes {
				t.Errorf("FocusMinutes = %d, want %d", r.FocusMinutes, tt.wantMinutes)
			}
		})
	}
}

func TestPlan_Insight(t *testing.T) {
	if got := (plan.Plan{BurnoutWarning: "Slow down."}).Insight(); got != "Slow down." {
		t.Errorf("Insight() = %q, want the warning", got)
	}
	if got := (plan.Plan{}).Insight(); !strings.Contains(got, "healthy") {
		t.Errorf("Insight() = %q, want the fallback text", got)
	}
}

func TestMarkElapsedMissed(t *testing.T) {
	p := plan.Plan{DailySchedules: []plan.DailySchedule{
		{Date: "2026-10-14", Tasks: []plan.Task{{ID: "a", Status: plan.StatusPending}, {ID: "b", Status: plan.StatusCompleted}}},
		{Date: "2026-10-15", Tasks: []plan.Task{{ID: "c", Status: plan.StatusPending}}},
		{Date: "2026-10-16", Tasks: []plan.Task{{ID: "d", Status: plan.StatusPending}}},
		{Date: "someday", Tasks: []plan.Task{{ID: "e", Status: plan.StatusPending}}},
	}}
	today := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	got, marked := plan.MarkElapsedMissed(p, today)

	if marked != 2 {
		t.Errorf("marked = %d, want 2", marked)
	}
	for id, want := range map[string]plan.Status{
		"a": plan.StatusMissed,
		"b": plan.StatusCompleted,
		"c": plan.StatusMissed,
		"d": plan.StatusPending,
		"e": plan.StatusPending,
	} {
		task, _, ok := plan.FindTask(got, id)
		if !ok || task.Status != want {
			t.Errorf("task %s = %q (found %v), want %q", id, task.Status, ok, want)
		}
	}

	if original, _, _ := plan.FindTask(p, "a"); original.Status != plan.StatusPending {
		t.Errorf("input mutated")
	}
}

func TestPlan_CloneIsDeep(t *testing.T) {
	p := twoDayPlan()
	c := p.Clone()

	c.DailySchedules[0].Tasks[0].Status = plan.StatusMissed
	*c.DailySchedules[0].Tasks[0].Duration = 1

	if p.DailySchedules[0].Tasks[0].Status != plan.StatusPending || *p.DailySchedules[0].Tasks[0].Duration != 50 {
		t.Errorf("Clone() shares state with the original")
	}
}

func TestCloneSubjects(t *testing.T) {
	in := []plan.Subject{{ID: "s1", Name: "Physics", Topics: []plan.Topic{{ID: "t1", Name: "Kinematics"}}}}
	out := plan.CloneSubjects(in)

	out[0].Topics[0].Name = "changed"
	if in[0].Topics[0].Name != "Kinematics" {
		t.Errorf("CloneSubjects() shares topics")
	}
	if plan.CloneSubjects(nil) != nil {
		t.Errorf("CloneSubjects(nil) != nil")
	}
}

func TestDefaultPreferences(t *testing.T) {
	want := plan.Preferences{DailyHours: 4, StudyStyle: plan.StyleBalanced, PomodoroLength: 25, BreakLength: 5}
	if got := plan.DefaultPreferences(); !reflect.DeepEqual(got, want) {
		t.Errorf("DefaultPreferences() = %+v, want %+v", got, want)
	}
}
