package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	reconcileJob    string
	reconcileDryRun bool
	distributeDry   bool
)

func init() {
	reconcileCmd.Flags().StringVar(&reconcileJob, "job", "all", "Which sweep to run: status, reminders or all")
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "Report what would change without writing")
	distributeCmd.Flags().BoolVar(&distributeDry, "dry-run", false, "Show the payouts without applying them")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(tournamentCmd)
	rootCmd.AddCommand(payoutsCmd)
	rootCmd.AddCommand(distributeCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(metricsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health")
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run the status and reminder sweeps now",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		q.Set("job", reconcileJob)
		if reconcileDryRun {
			q.Set("dry_run", "true")
		}
		return performRequest(http.MethodPost, "/reconcile?"+q.Encode())
	},
}

var tournamentCmd = &cobra.Command{
	Use:   "tournament <id>",
	Short: "Show a tournament",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/tournaments/"+url.PathEscape(args[0]))
	},
}

var payoutsCmd = &cobra.Command{
	Use:   "payouts <id>",
	Short: "Preview the payouts of a tournament's results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/tournaments/"+url.PathEscape(args[0])+"/payouts")
	},
}

var distributeCmd = &cobra.Command{
	Use:   "distribute <id>",
	Short: "Distribute the prizes of a completed tournament (requires --actor)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if actor == "" {
			return fmt.Errorf("--actor is required to distribute prizes")
		}
		endpoint := "/tournaments/" + url.PathEscape(args[0]) + "/distribute"
		if distributeDry {
			endpoint += "?dry_run=true"
		}
		return performRequest(http.MethodPost, endpoint)
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance <user>",
	Short: "Show a user's balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/users/"+url.PathEscape(args[0])+"/balance")
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics")
	},
}

func performRequest(method, endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s %s\n", method, url)

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if actor != "" {
		req.Header.Set("X-User-ID", actor)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}
