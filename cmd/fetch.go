package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pagefetch/internal/config"
	"github.com/sells-group/pagefetch/internal/fetchkit"
	"github.com/sells-group/pagefetch/internal/report"
)

var (
	fetchSelector string
	fetchTimeout  int
)

// runFetch is the root command: one fetch, one JSON line, one exit code.
func runFetch(cmd *cobra.Command, args []string) error {
	targetURL := args[0]

	timeout := fetchTimeout
	if timeout == 0 {
		timeout = cfg.Fetch.TimeoutSecs
	}

	f, err := newFetcher(cfg.Fetch, timeout)
	if err != nil {
		if werr := report.Write(os.Stdout, report.Unavailable(err)); werr != nil {
			return werr
		}
		return &exitError{code: 2}
	}

	payload, ok := fetchReport(cmd.Context(), f, targetURL, fetchSelector)
	if err := report.Write(os.Stdout, payload); err != nil {
		return err
	}
	if !ok {
		return &exitError{code: 1}
	}
	return nil
}

// newFetcher builds a fetcher from config, with the effective timeout in
// seconds.
func newFetcher(fc config.FetchConfig, timeoutSecs int) (*fetchkit.Fetcher, error) {
	opts := []fetchkit.Option{
		fetchkit.WithTimeout(time.Duration(timeoutSecs) * time.Second),
		fetchkit.WithImpersonation(fc.Impersonate),
	}
	if fc.UserAgent != "" {
		opts = append(opts, fetchkit.WithUserAgent(fc.UserAgent))
	}
	if fc.MaxBodyBytes > 0 {
		opts = append(opts, fetchkit.WithMaxBodySize(fc.MaxBodyBytes))
	}
	return fetchkit.New(opts...)
}

// fetchReport runs one fetch-and-report operation: get the page, read the
// title best-effort, then either the selector matches or a text preview.
// The returned payload is always printable; ok reports success.
func fetchReport(ctx context.Context, f *fetchkit.Fetcher, targetURL, selector string) (any, bool) {
	page, err := f.Get(ctx, targetURL)
	if err != nil {
		zap.L().Warn("fetch failed", zap.String("url", targetURL), zap.Error(err))
		return report.Failure(targetURL, err), false
	}

	// Title is best-effort: a missing title is null, never a failure.
	var title *string
	if t, ok := page.Title(); ok {
		title = &t
	}
	success := report.NewSuccess(targetURL, title)

	if selector != "" {
		nodes, err := page.Query(selector)
		if err != nil {
			zap.L().Warn("selector query failed", zap.String("selector", selector), zap.Error(err))
			return report.Failure(targetURL, err), false
		}
		texts := make([]string, len(nodes))
		for i, n := range nodes {
			texts[i] = n.Text()
		}
		return success.WithSelector(selector, texts), true
	}

	return success.WithTextPreview(page.Text()), true
}

func init() {
	rootCmd.Flags().StringVar(&fetchSelector, "selector", "", "optional CSS selector; matched elements' text is returned")
	rootCmd.Flags().IntVar(&fetchTimeout, "timeout", 0, "request timeout in seconds (default from config, 20)")
}
