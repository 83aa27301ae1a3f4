package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pagefetch/internal/config"
	"github.com/sells-group/pagefetch/internal/fetchkit"
	"github.com/sells-group/pagefetch/internal/report"
)

var cfg *config.Config

// exitError carries a process exit code out of a command. The payload JSON
// has already been written by the time one is returned.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit %d", e.code)
}

var rootCmd = &cobra.Command{
	Use:   "pagefetch <url>",
	Short: "Fetch a page and print a JSON summary",
	Long:  "Fetches one URL, optionally matches a CSS selector against the document, and prints a single JSON line with the title and either the matched text or a plain-text preview.",
	Args:  cobra.ExactArgs(1),
	// stdout carries only the payload; cobra's own error printing would
	// pollute it.
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	RunE: runFetch,
}

func main() {
	// The capability check runs before any argument parsing so a broken
	// fetch stack is always reported the same way, flags or no flags.
	if err := fetchkit.Available(); err != nil {
		_ = report.Write(os.Stdout, report.Unavailable(err))
		os.Exit(2)
	}

	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		// Config, logger, and usage errors never reach the fetch path, but
		// the output still has to be parseable.
		fmt.Fprintln(os.Stderr, err)
		_ = report.Write(os.Stdout, report.Fatal(err))
		os.Exit(1)
	}
}
