package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/aura-planner/internal/platform/config"
)

func (a *app) modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models of every configured AI provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.HasAIProvider() {
				return errors.New("no AI provider configured")
			}

			models := a.newRouter(cfg.AI).Models()
			names := make([]string, 0, len(models))
			for name := range models {
				names = append(names, name)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintln(out, name)
				for _, m := range models[name] {
					fmt.Fprintf(out, "  %-28s %s\n", m.ID, m.Description)
				}
			}
			return nil
		},
	}
}
