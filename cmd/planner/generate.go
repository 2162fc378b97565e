package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/aura-planner/internal/export"
	"github.com/p-n-ai/aura-planner/internal/intake"
	"github.com/p-n-ai/aura-planner/internal/plan"
	"github.com/p-n-ai/aura-planner/internal/planner"
	"github.com/p-n-ai/aura-planner/internal/platform/config"
)

func (a *app) generateCmd() *cobra.Command {
	var (
		intakePath string
		outPath    string
		xlsxPath   string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a 14-day plan from a YAML intake file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.HasAIProvider() {
				return errors.New("no AI provider configured: set AURA_AI_GOOGLE_API_KEY, AURA_AI_OPENAI_API_KEY or AURA_AI_DEEPSEEK_API_KEY")
			}

			in, err := intake.LoadFile(intakePath)
			if err != nil {
				return err
			}

			gen := planner.NewAIGenerator(planner.AIGeneratorConfig{
				Completer:   a.newRouter(cfg.AI),
				MaxTokens:   cfg.Generation.MaxTokens,
				Temperature: cfg.Generation.Temperature,
			})
			req := planner.BuildRequest(planner.Input{
				Exams:       in.Exams,
				Subjects:    in.Subjects,
				Preferences: in.Preferences,
			}, a.now())

			res, err := gen.Generate(cmd.Context(), req, nil)
			if err != nil {
				return err
			}

			if err := writePlanJSON(cmd.OutOrStdout(), outPath, res.Plan); err != nil {
				return err
			}
			if xlsxPath != "" {
				f, err := os.Create(xlsxPath)
				if err != nil {
					return fmt.Errorf("creating %s: %w", xlsxPath, err)
				}
				defer f.Close()
				if err := export.WriteXLSX(f, res.Plan, in.Subjects, in.Preferences); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "%d days, %d tasks, %d tokens (%s)\n",
				len(res.Plan.DailySchedules), len(res.Plan.Tasks()), res.TotalTokens(), res.Model)
			return nil
		},
	}

	cmd.Flags().StringVar(&intakePath, "intake", "", "path to the YAML intake file")
	cmd.Flags().StringVar(&outPath, "out", "", "write the plan JSON here instead of stdout")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also export the plan as an Excel workbook")
	_ = cmd.MarkFlagRequired("intake")
	return cmd
}

// writePlanJSON writes p as indented JSON to path, or to stdout when path is
// empty.
func writePlanJSON(stdout io.Writer, path string, p plan.Plan) error {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("writing plan: %w", err)
	}
	return nil
}
