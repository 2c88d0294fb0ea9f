// Command tollwatch-mcp exposes the tollwatch HTTP API as MCP tools over
// stdio.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/tollwatch/models"
)

func main() {
	apiURL := strings.TrimRight(os.Getenv("TOLLWATCH_API_URL"), "/")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("TOLLWATCH_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "TOLLWATCH_API_KEY not set; calls will fail if the API requires a key")
	}

	s := server.NewMCPServer(
		"tollwatch",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	checkTool := mcp.NewTool("check_tolls",
		mcp.WithDescription("Look up unpaid toll notices for one vehicle registration on the Linkt and e-Toll portals. Takes up to several minutes; only one check runs at a time."),
		mcp.WithString("rego",
			mcp.Required(),
			mcp.Description("Vehicle registration plate, e.g. ABC123"),
		),
		mcp.WithString("renter",
			mcp.Description("Renter name to show in the report when the rego is not in the roster"),
		),
		mcp.WithNumber("window_days",
			mcp.Description("Lookback window in days for dated notices (default: server DAYS_TO_CHECK)"),
		),
	)
	s.AddTool(checkTool, handleCheck(apiURL, apiKey))

	dueTool := mcp.NewTool("due_today",
		mcp.WithDescription("List the roster vehicles whose rent is due today, or on the given weekday."),
		mcp.WithString("day",
			mcp.Description("Weekday name (default: today in the server's timezone)"),
			mcp.Enum("Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"),
		),
	)
	s.AddTool(dueTool, handleDue(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiDo sends a request to the tollwatch API and returns the response body.
func apiDo(ctx context.Context, client *http.Client, method, target, apiKey string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func errorText(e *models.ErrorDetail, fallback string) string {
	if e == nil {
		return fallback
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func handleCheck(apiURL, apiKey string) server.ToolHandlerFunc {
	// Two portal attempts at up to three minutes each, plus queueing.
	client := &http.Client{Timeout: 10 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rego, err := request.RequireString("rego")
		if err != nil || strings.TrimSpace(rego) == "" {
			return mcp.NewToolResultError("rego is required"), nil
		}

		req := models.CheckRequest{
			Rego:       rego,
			Renter:     request.GetString("renter", ""),
			WindowDays: int(request.GetFloat("window_days", 0)),
		}
		respBody, err := apiDo(ctx, client, http.MethodPost, apiURL+"/api/v1/check", apiKey, req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp models.CheckResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success || resp.Report == nil {
			return mcp.NewToolResultError(errorText(resp.Error, "check failed")), nil
		}
		return mcp.NewToolResultText(formatReport(resp.Report, resp.Timing)), nil
	}
}

func formatReport(r *models.VehicleReport, timing models.TimingInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rego: %s", r.Entry.Rego)
	if r.Entry.Renter != "" {
		fmt.Fprintf(&b, " (%s)", r.Entry.Renter)
	}
	b.WriteString("\n")
	if r.Diagnostic != "" {
		fmt.Fprintf(&b, "Note: %s\n", r.Diagnostic)
	}
	if len(r.Notices) == 0 {
		b.WriteString("No toll notices found in the selected window.\n")
	} else {
		fmt.Fprintf(&b, "%d notice(s), tolls $%.2f, admin fees $%.2f\n\n", len(r.Notices), r.Totals.Toll, r.Totals.Admin)
		for _, n := range r.Notices {
			fmt.Fprintf(&b, "- [%s] %s | %s | %s | admin %s | toll %s\n",
				n.Source.Label(), n.IssuedText, n.Motorway, n.Status, n.AdminFeeText, n.TollAmountText)
		}
	}
	fmt.Fprintf(&b, "\n---\nChecked in %.1fs", float64(timing.TotalMs)/1000)
	return b.String()
}

func handleDue(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target := apiURL + "/api/v1/due"
		if day := request.GetString("day", ""); day != "" {
			target += "?day=" + url.QueryEscape(day)
		}
		respBody, err := apiDo(ctx, client, http.MethodGet, target, apiKey, nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp models.DueResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText(resp.Error, "due lookup failed")), nil
		}

		if len(resp.Entries) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No payments due on %s.", resp.Day)), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%d vehicle(s) due on %s:\n", len(resp.Entries), resp.Day)
		for _, e := range resp.Entries {
			fmt.Fprintf(&b, "- %s: %s, $%.2f\n", e.Rego, e.Renter, e.RentAmount)
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}
