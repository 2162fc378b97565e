// Package planner builds plan generation requests and turns the replies of
// the external generator into validated plans.
package planner

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/p-n-ai/aura-planner/internal/plan"
)

// HorizonDays is how many days every generated plan covers.
const HorizonDays = 14

// Mode distinguishes a first plan from a redistribution of missed work.
type Mode string

const (
	ModeFresh      Mode = "fresh"
	ModeReschedule Mode = "reschedule"
)

// Request is the payload sent to the generator.
type Request struct {
	Exams       []plan.Exam      `json:"exams"`
	Subjects    []plan.Subject   `json:"subjects"`
	Preferences plan.Preferences `json:"preferences"`
	Mode        Mode             `json:"mode"`
	MissedTasks []plan.Task      `json:"missedTasks,omitempty"`
	HorizonDays int              `json:"horizonDays"`
	StartDate   string           `json:"startDate"`
}

// Input is the domain state a request is projected from.
type Input struct {
	Exams        []plan.Exam
	Subjects     []plan.Subject
	Preferences  plan.Preferences
	ExistingPlan *plan.Plan
	MissedTasks  []plan.Task
}

// BuildRequest projects domain state into a generation request. It never
// mutates in; every slice in the request is a copy. Whether there is enough
// content to plan is left to the generator.
func BuildRequest(in Input, now time.Time) Request {
	req := Request{
		Exams:       append([]plan.Exam{}, in.Exams...),
		Subjects:    plan.CloneSubjects(in.Subjects),
		Preferences: in.Preferences,
		Mode:        ModeFresh,
		HorizonDays: HorizonDays,
		StartDate:   now.Format(time.DateOnly),
	}
	if req.Subjects == nil {
		req.Subjects = []plan.Subject{}
	}
	if len(in.MissedTasks) > 0 {
		req.Mode = ModeReschedule
		req.MissedTasks = plan.CloneTasks(in.MissedTasks)
	}
	return req
}

// IsReschedule reports whether the request redistributes missed tasks.
func (r Request) IsReschedule() bool {
	return r.Mode == ModeReschedule
}

// Fingerprint is a stable BLAKE2b-256 digest of the request, used to
// correlate generation events.
func (r Request) Fingerprint() string {
	body, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(body)
	return hex.EncodeToString(sum[:])
}

const systemPrompt = `Role: Senior Academic Coach & Productive Architect.
You turn a student's exams, syllabus and preferences into a day-by-day study plan.
Respond only with JSON matching the provided schema.`

// Prompt renders the user prompt for the generator.
func (r Request) Prompt() string {
	exams, _ := json.Marshal(r.Exams)
	subjects, _ := json.Marshal(r.Subjects)

	var b strings.Builder
	if r.IsReschedule() {
		b.WriteString("Task: Generate a RESCHEDULED intelligent study plan.\n\n")
	} else {
		b.WriteString("Task: Generate a new intelligent study plan.\n\n")
	}

	b.WriteString("Student Profile:\n")
	fmt.Fprintf(&b, "- Exams: %s\n", exams)
	fmt.Fprintf(&b, "- Syllabus Details: %s\n", subjects)
	fmt.Fprintf(&b, "- Preferences: %g hrs/day, Style: %s, Pomodoro: %dmin, Break: %dmin.\n",
		r.Preferences.DailyHours, r.Preferences.StudyStyle, r.Preferences.PomodoroLength, r.Preferences.BreakLength)
	if r.IsReschedule() {
		missed, _ := json.Marshal(r.MissedTasks)
		fmt.Fprintf(&b, "- MISSED SESSIONS TO REDISTRIBUTE: %s\n", missed)
		b.WriteString("  Keep the id of every missed task you carry forward.\n")
	}

	b.WriteString("\nRequirements:\n")
	b.WriteString("1. Break topics into tasks. Each task needs:\n")
	fmt.Fprintf(&b, "   - 'sessions': Number of %d-min focus blocks.\n", r.Preferences.PomodoroLength)
	b.WriteString("   - 'bestTime': Optimal energy window (Morning, Afternoon, Evening).\n")
	b.WriteString("   - 'id': unique across the whole plan.\n")
	b.WriteString("2. Prioritize by: Exam Proximity > Subject Priority > Topic Difficulty.\n")
	b.WriteString("3. Include 'revision' tasks for topics learned >3 days ago.\n")
	b.WriteString("4. Provide an empathetic, motivating 'recommendation'.\n")
	b.WriteString("5. Add a 'burnoutWarning' only when the load looks unsustainable.\n")
	fmt.Fprintf(&b, "6. Plan exactly %d days from %s, one entry per date in chronological order.\n", r.HorizonDays, r.StartDate)

	return b.String()
}
