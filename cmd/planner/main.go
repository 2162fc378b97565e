// Command planner generates study plans from an intake file and runs focus
// timers from the terminal.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/aura-planner/internal/ai"
	"github.com/p-n-ai/aura-planner/internal/platform/config"
)

// app carries what the commands need from the outside world, so tests can
// swap the AI backend and the clock.
type app struct {
	out       io.Writer
	newRouter func(cfg config.AIConfig) modelCompleter
	now       func() time.Time
	newTicker func(d time.Duration) (<-chan time.Time, func())
}

type modelCompleter interface {
	ai.Completer
	Models() map[string][]ai.ModelInfo
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a := &app{
		out:       os.Stdout,
		newRouter: func(cfg config.AIConfig) modelCompleter { return ai.NewRouterFromConfig(cfg) },
		now:       time.Now,
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
	if err := a.rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "planner",
		Short:         "Generate study plans and run focus sessions",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	root.SetOut(a.out)

	root.AddCommand(a.generateCmd(), a.focusCmd(), a.modelsCmd())
	return root
}
