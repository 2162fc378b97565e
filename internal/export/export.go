// Package export renders a plan as an Excel workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/p-n-ai/aura-planner/internal/plan"
)

const (
	PlanSheet    = "Plan"
	SummarySheet = "Summary"
)

var planHeader = []any{"Date", "Subject", "Topic", "Type", "Sessions", "Best Time", "Duration (min)", "Status", "Task ID"}

// WriteXLSX writes a two-sheet workbook: every task of p in schedule order,
// then a summary with completion, streak, focus time and per-subject progress.
func WriteXLSX(w io.Writer, p plan.Plan, subjects []plan.Subject, prefs plan.Preferences) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PlanSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("adding summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	if err := writePlanSheet(f, p, bold); err != nil {
		return err
	}
	if err := writeSummarySheet(f, p, subjects, prefs, bold); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writePlanSheet(f *excelize.File, p plan.Plan, headerStyle int) error {
	if err := f.SetSheetRow(PlanSheet, "A1", &planHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := f.SetRowStyle(PlanSheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	title := cases.Title(language.English)
	row := 2
	for _, day := range p.DailySchedules {
		for _, t := range day.Tasks {
			var duration any
			if t.Duration != nil {
				duration = *t.Duration
			}
			values := []any{
				day.Date,
				t.Subject,
				t.Topic,
				title.String(string(t.Type)),
				t.Sessions,
				t.BestTime,
				duration,
				title.String(string(t.Status)),
				t.ID,
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(PlanSheet, cell, &values); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
			row++
		}
	}

	if err := f.SetColWidth(PlanSheet, "A", "I", 16); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	return f.SetPanes(PlanSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummarySheet(f *excelize.File, p plan.Plan, subjects []plan.Subject, prefs plan.Preferences, headerStyle int) error {
	report := plan.Progress(p, subjects, prefs)

	rows := [][]any{
		{"Completion", fmt.Sprintf("%d%%", report.CompletionPct)},
		{"Tasks", report.Total},
		{"Completed", report.Completed},
		{"Pending", report.Pending},
		{"Missed", report.Missed},
		{"Streak", report.Streak},
		{"Pomodoros", report.SessionsCompleted},
		{"Focus Minutes", report.FocusMinutes},
		{"Recommendation", p.Recommendation},
		{"Insight", report.Insight},
		{},
		{"Subject", "Completed", "Total", "Percent"},
	}
	for _, s := range report.Subjects {
		rows = append(rows, []any{s.Subject, s.Completed, s.Total, fmt.Sprintf("%d%%", s.Percent)})
	}

	for i, values := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &values); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+1, err)
		}
	}

	subjectHeader := len(rows) - len(report.Subjects)
	if err := f.SetRowStyle(SummarySheet, subjectHeader, subjectHeader, headerStyle); err != nil {
		return fmt.Errorf("styling summary: %w", err)
	}
	return f.SetColWidth(SummarySheet, "A", "B", 24)
}
