package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	healthcheckTimeout time.Duration
	healthcheckURL     string
	healthcheckStrict  bool
)

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check a running server's /readyz endpoint",
	Long: `Calls /readyz on a running server and exits non-zero unless it is ready.

Used as the container HEALTHCHECK. A degraded server (for example one whose job
queue is not running) passes unless --strict is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		url := healthcheckURL
		if url == "" {
			port := os.Getenv("SERVER_PORT")
			if port == "" {
				port = "8080"
			}
			url = fmt.Sprintf("http://localhost:%s/readyz", port)
		}
		status, err := checkReadiness(cmd.Context(), url, healthcheckTimeout)
		if err != nil {
			return err
		}
		if status == "healthy" || (status == "degraded" && !healthcheckStrict) {
			fmt.Fprintln(cmd.OutOrStdout(), status)
			return nil
		}
		return fmt.Errorf("server status: %s", status)
	},
}

func init() {
	healthcheckCmd.Flags().DurationVar(&healthcheckTimeout, "timeout", 5*time.Second, "request timeout")
	healthcheckCmd.Flags().StringVar(&healthcheckURL, "url", "", "readiness URL (default: http://localhost:$SERVER_PORT/readyz)")
	healthcheckCmd.Flags().BoolVar(&healthcheckStrict, "strict", false, "treat a degraded server as unhealthy")
}

// checkReadiness returns the status field of the readiness report. A 503
// still carries a report, so the body is decoded regardless of the code.
func checkReadiness(ctx context.Context, url string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var report struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return "", fmt.Errorf("invalid readiness response (HTTP %d): %w", resp.StatusCode, err)
	}
	if report.Status == "" {
		return "", fmt.Errorf("readiness response without status (HTTP %d)", resp.StatusCode)
	}
	return report.Status, nil
}
