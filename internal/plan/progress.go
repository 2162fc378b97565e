package plan

import (
	"math"
	"time"
)

// CompletionPct returns the rounded percentage of completed tasks across the
// whole plan. A plan without tasks is 0% complete.
func CompletionPct(p Plan) int {
	completed, total := countCompleted(p.Tasks())
	return percent(completed, total)
}

// SubjectStat is the progress of one subject.
type SubjectStat struct {
	SubjectID string `json:"subjectId"`
	Subject   string `json:"subject"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
}

// SubjectProgress computes per-subject progress in the order of subjects.
//
// A task counts toward a subject only when its subject string equals the
// subject name exactly. Renaming a subject orphans the tasks generated under
// the old name.
func SubjectProgress(p Plan, subjects []Subject) []SubjectStat {
	all := p.Tasks()
	stats := make([]SubjectStat, 0, len(subjects))
	for _, s := range subjects {
		var scoped []Task
		for _, t := range all {
			if t.Subject == s.Name {
				scoped = append(scoped, t)
			}
		}
		completed, total := countCompleted(scoped)
		stats = append(stats, SubjectStat{
			SubjectID: s.ID,
			Subject:   s.Name,
			Completed: completed,
			Total:     total,
			Percent:   percent(completed, total),
		})
	}
	return stats
}

// Report is the dashboard summary of a plan.
type Report struct {
	CompletionPct     int           `json:"completionPct"`
	Total             int           `json:"total"`
	Completed         int           `json:"completed"`
	Pending           int           `json:"pending"`
	Missed            int           `json:"missed"`
	Streak            int           `json:"streak"`
	Days              int           `json:"days"`
	SessionsCompleted int           `json:"sessionsCompleted"` // pomodoros behind completed tasks
	FocusMinutes      int           `json:"focusMinutes"`
	Subjects          []SubjectStat `json:"subjects"`
	Insight           string        `json:"insight"`
}

// Progress builds the full progress report for p. Focus minutes are the
// completed sessions times the pomodoro length of prefs, or the default
// length when prefs leaves it unset.
func Progress(p Plan, subjects []Subject, prefs Preferences) Report {
	r := Report{
		Streak:   p.Streak,
		Days:     len(p.DailySchedules),
		Subjects: SubjectProgress(p, subjects),
		Insight:  p.Insight(),
	}
	for _, t := range p.Tasks() {
		r.Total++
		switch t.Status {
		case StatusCompleted:
			r.Completed++
			r.SessionsCompleted += t.Sessions
		case StatusMissed:
			r.Missed++
		default:
			r.Pending++
		}
	}
	r.CompletionPct = percent(r.Completed, r.Total)

	length := prefs.PomodoroLength
	if length <= 0 {
		length = DefaultPreferences().PomodoroLength
	}
	r.FocusMinutes = r.SessionsCompleted * length
	return r
}

// MarkElapsedMissed returns a copy of p in which every pending task scheduled
// strictly before today is marked missed. Days whose date does not parse are
// left alone. The caller owns the clock.
func MarkElapsedMissed(p Plan, today time.Time) (Plan, int) {
	out := p.Clone()
	cutoff := today.Format(time.DateOnly)
	marked := 0
	for i, day := range out.DailySchedules {
		d, err := time.Parse(time.DateOnly, day.Date)
		if err != nil || d.Format(time.DateOnly) >= cutoff {
			continue
		}
		for j, t := range day.Tasks {
			if t.Status == StatusPending {
				out.DailySchedules[i].Tasks[j].Status = StatusMissed
				marked++
			}
		}
	}
	return out, marked
}

func countCompleted(tasks []Task) (completed, total int) {
	for _, t := range tasks {
		if t.Status == StatusCompleted {
			completed++
		}
	}
	return completed, len(tasks)
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
