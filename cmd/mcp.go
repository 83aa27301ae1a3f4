package main

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/sells-group/pagefetch/internal/report"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the fetch operation as an MCP tool over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := server.NewMCPServer(
			"pagefetch",
			version,
			server.WithToolCapabilities(false),
		)

		fetchPageTool := mcp.NewTool("fetch_page",
			mcp.WithDescription("Fetch a web page and return a JSON summary: the page title plus either the text of CSS-selector matches or a plain-text preview."),
			mcp.WithString("url",
				mcp.Required(),
				mcp.Description("The URL of the page to fetch"),
			),
			mcp.WithString("selector",
				mcp.Description("Optional CSS selector; matched elements' trimmed text is returned (up to 20 items)"),
			),
			mcp.WithNumber("timeout_secs",
				mcp.Description("Request timeout in seconds (default: 20)"),
			),
		)
		s.AddTool(fetchPageTool, handleFetchPage)

		return server.ServeStdio(s)
	},
}

func handleFetchPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	targetURL, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url is required"), nil
	}
	selector := request.GetString("selector", "")

	timeout := cfg.Fetch.TimeoutSecs
	if v, ok := request.GetArguments()["timeout_secs"].(float64); ok && v > 0 {
		timeout = int(v)
	}

	f, err := newFetcher(cfg.Fetch, timeout)
	if err != nil {
		var buf strings.Builder
		_ = report.Write(&buf, report.Unavailable(err))
		return mcp.NewToolResultError(strings.TrimSpace(buf.String())), nil
	}

	payload, ok := fetchReport(ctx, f, targetURL, selector)

	var buf strings.Builder
	if werr := report.Write(&buf, payload); werr != nil {
		return mcp.NewToolResultError(werr.Error()), nil
	}
	line := strings.TrimSpace(buf.String())

	if !ok {
		return mcp.NewToolResultError(line), nil
	}
	return mcp.NewToolResultText(line), nil
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
