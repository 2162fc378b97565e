// Package intake turns what a student fills in (subjects, exam dates, topics
// and time preferences) into the domain entities a plan is generated from.
package intake

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/p-n-ai/aura-planner/internal/plan"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid intake")

// Form is the raw intake as submitted over HTTP (JSON) or read from a file (YAML).
type Form struct {
	Preferences *PreferencesForm `yaml:"preferences" json:"preferences"`
	Subjects    []SubjectForm    `yaml:"subjects" json:"subjects" validate:"dive"`
}

// SubjectForm is one subject, optionally paired with its exam date.
type SubjectForm struct {
	Name     string      `yaml:"name" json:"name" validate:"required"`
	Priority string      `yaml:"priority" json:"priority" validate:"omitempty,oneof=high medium low"`
	ExamDate string      `yaml:"exam_date" json:"examDate" validate:"omitempty,datetime=2006-01-02"`
	Topics   []TopicForm `yaml:"topics" json:"topics" validate:"dive"`
}

// TopicForm is one syllabus topic.
type TopicForm struct {
	Name       string `yaml:"name" json:"name" validate:"required"`
	Difficulty string `yaml:"difficulty" json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Completed  bool   `yaml:"completed" json:"completed"`
}

// PreferencesForm overrides the default preferences field by field.
type PreferencesForm struct {
	DailyHours     float64 `yaml:"daily_hours" json:"dailyHours" validate:"omitempty,gt=0,lte=24"`
	StudyStyle     string  `yaml:"study_style" json:"studyStyle" validate:"omitempty,oneof=balanced revision-first sprint"`
	PomodoroLength int     `yaml:"pomodoro_length" json:"pomodoroLength" validate:"omitempty,min=1,max=240"`
	BreakLength    int     `yaml:"break_length" json:"breakLength" validate:"omitempty,min=1,max=120"`
}

// Intake is the validated domain view of a Form.
type Intake struct {
	Exams       []plan.Exam      `json:"exams"`
	Subjects    []plan.Subject   `json:"subjects"`
	Preferences plan.Preferences `json:"preferences"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the form without building anything.
func (f Form) Validate() error {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	seen := make(map[string]bool, len(f.Subjects))
	for _, s := range f.Subjects {
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate subject %q", ErrInvalid, s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// Build validates the form and assigns fresh ids. Each subject with an exam
// date gets an exam that references it by id and copies its name.
func (f Form) Build() (Intake, error) {
	if err := f.Validate(); err != nil {
		return Intake{}, err
	}

	in := Intake{
		Exams:       []plan.Exam{},
		Subjects:    make([]plan.Subject, 0, len(f.Subjects)),
		Preferences: f.Preferences.apply(plan.DefaultPreferences()),
	}

	for _, sf := range f.Subjects {
		subject := plan.Subject{
			ID:       uuid.NewString(),
			Name:     sf.Name,
			Priority: plan.Priority(orDefault(sf.Priority, string(plan.PriorityMedium))),
			Topics:   make([]plan.Topic, 0, len(sf.Topics)),
		}
		for _, tf := range sf.Topics {
			subject.Topics = append(subject.Topics, plan.Topic{
				ID:         uuid.NewString(),
				Name:       tf.Name,
				Difficulty: plan.Difficulty(orDefault(tf.Difficulty, string(plan.DifficultyMedium))),
				Completed:  tf.Completed,
			})
		}
		in.Subjects = append(in.Subjects, subject)

		if sf.ExamDate != "" {
			in.Exams = append(in.Exams, plan.Exam{
				ID:          uuid.NewString(),
				SubjectID:   subject.ID,
				SubjectName: subject.Name,
				Date:        sf.ExamDate,
			})
		}
	}

	return in, nil
}

func (p *PreferencesForm) apply(base plan.Preferences) plan.Preferences {
	if p == nil {
		return base
	}
	if p.DailyHours > 0 {
		base.DailyHours = p.DailyHours
	}
	if p.StudyStyle != "" {
		base.StudyStyle = plan.StudyStyle(p.StudyStyle)
	}
	if p.PomodoroLength > 0 {
		base.PomodoroLength = p.PomodoroLength
	}
	if p.BreakLength > 0 {
		base.BreakLength = p.BreakLength
	}
	return base
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
