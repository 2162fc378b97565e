// Package plan defines the study plan aggregate, the task status state
// machine, and the pure operations that derive progress from a plan and
// apply changes to it.
package plan

// Difficulty grades a syllabus topic.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Priority ranks a subject against the others in the intake.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// StudyStyle tells the generator how to balance new material against revision.
type StudyStyle string

const (
	StyleBalanced      StudyStyle = "balanced"
	StyleRevisionFirst StudyStyle = "revision-first"
	StyleSprint        StudyStyle = "sprint"
)

// TaskType classifies a scheduled task.
type TaskType string

const (
	TaskStudy    TaskType = "study"
	TaskRevision TaskType = "revision"
	TaskReview   TaskType = "review"
	TaskBuffer   TaskType = "buffer"
)

// Topic is one syllabus item owned by a Subject.
type Topic struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Difficulty Difficulty `json:"difficulty"`
	Completed  bool       `json:"completed"`
}

// Subject owns an ordered list of topics.
type Subject struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Priority Priority `json:"priority"`
	Topics   []Topic  `json:"topics"`
}

// Exam references a subject by id and carries a denormalized copy of its name.
type Exam struct {
	ID          string `json:"id"`
	SubjectID   string `json:"subjectId"`
	SubjectName string `json:"subjectName"`
	Date        string `json:"date"`
}

// Task is one schedulable unit of focused work.
//
// Subject holds the subject name, not its id. The generator is not
// guaranteed to emit subject ids, so tasks are matched to subjects by exact
// name only.
type Task struct {
	ID       string   `json:"id"`
	Subject  string   `json:"subject"`
	Topic    string   `json:"topic"`
	Duration *int     `json:"duration,omitempty"` // minutes, display hint only
	Sessions int      `json:"sessions"`
	BestTime string   `json:"bestTime"`
	Type     TaskType `json:"type"`
	Status   Status   `json:"status"`
}

// DailySchedule is the ordered task list for one calendar date (YYYY-MM-DD).
type DailySchedule struct {
	Date  string `json:"date"`
	Tasks []Task `json:"tasks"`
}

// Plan is the root aggregate produced by the generator.
type Plan struct {
	DailySchedules []DailySchedule `json:"dailySchedules"`
	Recommendation string          `json:"recommendation"`
	BurnoutWarning string          `json:"burnoutWarning,omitempty"`
	Streak         int             `json:"streak"`
}

// Preferences configure a generation cycle.
type Preferences struct {
	DailyHours     float64    `json:"dailyHours"`
	StudyStyle     StudyStyle `json:"studyStyle"`
	PomodoroLength int        `json:"pomodoroLength"` // minutes
	BreakLength    int        `json:"breakLength"`    // minutes
}

// DefaultPreferences returns the preferences a new intake starts with.
func DefaultPreferences() Preferences {
	return Preferences{
		DailyHours:     4,
		StudyStyle:     StyleBalanced,
		PomodoroLength: 25,
		BreakLength:    5,
	}
}

const defaultInsight = "Your schedule is currently healthy. Maintain your 15-minute breaks after every 3 Pomodoros to prevent cognitive fatigue."

// Insight returns the burnout warning, or a reassuring default when the
// generator did not emit one.
func (p Plan) Insight() string {
	if p.BurnoutWarning != "" {
		return p.BurnoutWarning
	}
	return defaultInsight
}

// Tasks returns every task across all days in schedule order.
func (p Plan) Tasks() []Task {
	var all []Task
	for _, day := range p.DailySchedules {
		all = append(all, day.Tasks...)
	}
	return all
}

// Clone returns a deep copy of the plan.
func (p Plan) Clone() Plan {
	out := p
	if p.DailySchedules == nil {
		return out
	}
	out.DailySchedules = make([]DailySchedule, len(p.DailySchedules))
	for i, day := range p.DailySchedules {
		out.DailySchedules[i] = day.clone()
	}
	return out
}

func (d DailySchedule) clone() DailySchedule {
	out := DailySchedule{Date: d.Date}
	if d.Tasks == nil {
		return out
	}
	out.Tasks = make([]Task, len(d.Tasks))
	for i, t := range d.Tasks {
		out.Tasks[i] = t.clone()
	}
	return out
}

func (t Task) clone() Task {
	if t.Duration != nil {
		d := *t.Duration
		t.Duration = &d
	}
	return t
}

// CloneSubjects deep-copies a subject list including nested topics.
func CloneSubjects(subjects []Subject) []Subject {
	if subjects == nil {
		return nil
	}
	out := make([]Subject, len(subjects))
	for i, s := range subjects {
		out[i] = s
		if s.Topics != nil {
			out[i].Topics = append([]Topic(nil), s.Topics...)
		}
	}
	return out
}

// CloneTasks deep-copies a task list.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.clone()
	}
	return out
}
