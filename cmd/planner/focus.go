package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/aura-planner/internal/intake"
	"github.com/p-n-ai/aura-planner/internal/plan"
	"github.com/p-n-ai/aura-planner/internal/timer"
)

func (a *app) focusCmd() *cobra.Command {
	var (
		focusMin   int
		breakMin   int
		cycles     int
		step       time.Duration
		intakePath string
		planPath   string
		taskID     string
	)

	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Run focus/break cycles in the terminal",
		Long: "Run focus/break cycles in the terminal. Lengths come from --intake preferences\n" +
			"unless --focus or --break is given. With --plan and --task, the task is marked\n" +
			"completed in the plan file when the first focus block ends.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (planPath == "") != (taskID == "") {
				return errors.New("--plan and --task must be given together")
			}

			prefs := plan.Preferences{PomodoroLength: focusMin, BreakLength: breakMin}
			if intakePath != "" {
				in, err := intake.LoadFile(intakePath)
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("focus") {
					prefs.PomodoroLength = in.Preferences.PomodoroLength
				}
				if !cmd.Flags().Changed("break") {
					prefs.BreakLength = in.Preferences.BreakLength
				}
			}
			if prefs.PomodoroLength <= 0 || prefs.BreakLength <= 0 || cycles <= 0 {
				return errors.New("--focus, --break and --cycles must be positive")
			}

			out := cmd.OutOrStdout()
			var task *focusTask
			if planPath != "" {
				var err error
				if task, err = loadFocusTask(planPath, taskID); err != nil {
					return err
				}
				fmt.Fprintf(out, "task %s: %s (%d sessions)\n", task.task.Subject, task.task.Topic, task.task.Sessions)
			}

			t := timer.FromPreferences(prefs, func() {
				fmt.Fprintln(out, "focus block done, take a break")
				if task != nil {
					task.complete(out)
				}
			})

			ticks, stop := a.newTicker(step)
			defer stop()

			last := timer.PhaseFocus
			fmt.Fprintf(out, "focus %s\n", timer.Format(t.Snapshot().Remaining))
			err := t.Run(cmd.Context(), ticks, time.Second, cycles, func(s timer.Snapshot) {
				if s.Phase != last {
					last = s.Phase
					fmt.Fprintf(out, "%s %s\n", s.Phase, timer.Format(s.Remaining))
					return
				}
				if s.Remaining%time.Minute == 0 {
					fmt.Fprintf(out, "%s %s (%d%%)\n", s.Phase, timer.Format(s.Remaining), s.Progress)
				}
			})
			if err != nil {
				return err
			}
			if task != nil && task.err != nil {
				return task.err
			}
			fmt.Fprintf(out, "%d cycles complete\n", cycles)
			return nil
		},
	}

	cmd.Flags().IntVar(&focusMin, "focus", 25, "focus block length in minutes")
	cmd.Flags().IntVar(&breakMin, "break", 5, "break length in minutes")
	cmd.Flags().IntVar(&cycles, "cycles", 1, "number of focus+break cycles")
	cmd.Flags().StringVar(&intakePath, "intake", "", "take focus and break lengths from this intake file")
	cmd.Flags().StringVar(&planPath, "plan", "", "plan JSON written by generate")
	cmd.Flags().StringVar(&taskID, "task", "", "task to mark completed after the first focus block")
	cmd.Flags().DurationVar(&step, "tick", time.Second, "wall-clock interval per simulated second")
	_ = cmd.Flags().MarkHidden("tick")
	return cmd
}

// focusTask is the plan task a focus run works on.
type focusTask struct {
	path string
	plan plan.Plan
	task plan.Task
	done bool
	err  error
}

func loadFocusTask(path, taskID string) (*focusTask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	var p plan.Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan %s: %w", path, err)
	}
	task, _, ok := plan.FindTask(p, taskID)
	if !ok {
		return nil, fmt.Errorf("task %q not found in %s", taskID, path)
	}
	return &focusTask{path: path, plan: p, task: task}, nil
}

// complete marks the task completed and rewrites the plan file. Later calls
// are no-ops.
func (f *focusTask) complete(out io.Writer) {
	if f.done {
		return
	}
	f.done = true

	next, err := plan.UpdateTaskStatus(f.plan, f.task.ID, plan.StatusCompleted)
	if err == nil {
		err = writePlanJSON(nil, f.path, next)
	}
	if err != nil {
		slog.Error("failed to mark task completed", "task_id", f.task.ID, "error", err)
		f.err = err
		return
	}
	f.plan = next
	fmt.Fprintf(out, "marked %s completed (%d%% of plan done)\n", f.task.ID, plan.CompletionPct(next))
}
