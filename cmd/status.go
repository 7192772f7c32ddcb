package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

// jobSummary is the subset of the job JSON the status command prints.
type jobSummary struct {
	ID          string  `json:"id"`
	State       string  `json:"state"`
	BestTime    float64 `json:"bestTime"`
	InitialTime float64 `json:"initialTime"`
	Improvement float64 `json:"improvement"`
	Round       int     `json:"round"`
	Accepted    int     `json:"accepted"`
	Points      int     `json:"points"`
	Elapsed     float64 `json:"elapsed"`
	Error       string  `json:"error"`
	Config      struct {
		TrackPath  string  `json:"trackPath"`
		Strategy   string  `json:"strategy"`
		Iterations int     `json:"iterations"`
		Scale      float64 `json:"scale"`
		Seed       int64   `json:"seed"`
	} `json:"config"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return listJobs(out, fmt.Sprintf("%s/api/v1/jobs", serverURL))
	}
	jobID := args[0]
	return getJobStatus(out, fmt.Sprintf("%s/api/v1/jobs/%s/status", serverURL, jobID), jobID)
}

func fetchJSON(url string, v any) (int, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("server returned error: %s", string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func listJobs(w io.Writer, url string) error {
	var jobs []jobSummary
	if _, err := fetchJSON(url, &jobs); err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Fprintln(w, "No jobs found")
		return nil
	}

	fmt.Fprintf(w, "Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Fprintf(w, "Job ID: %s\n", job.ID)
		fmt.Fprintf(w, "  State: %s\n", job.State)
		fmt.Fprintf(w, "  Track: %s\n", job.Config.TrackPath)
		fmt.Fprintf(w, "  Strategy: %s\n", job.Config.Strategy)
		fmt.Fprintf(w, "  Round: %d/%d\n", job.Round, job.Config.Iterations)
		if job.BestTime > 0 {
			fmt.Fprintf(w, "  Lap time: %.3f s -> %.3f s\n", job.InitialTime, job.BestTime)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func getJobStatus(w io.Writer, url, jobID string) error {
	var status jobSummary
	code, err := fetchJSON(url, &status)
	if code == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Job: %s\n", status.ID)
	fmt.Fprintf(w, "State: %s\n", status.State)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintf(w, "  Track: %s\n", status.Config.TrackPath)
	fmt.Fprintf(w, "  Strategy: %s\n", status.Config.Strategy)
	fmt.Fprintf(w, "  Iterations: %d\n", status.Config.Iterations)
	fmt.Fprintf(w, "  Scale: %g m/unit\n", status.Config.Scale)
	fmt.Fprintf(w, "  Seed: %d\n", status.Config.Seed)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Progress:")
	fmt.Fprintf(w, "  Round: %d (%d accepted)\n", status.Round, status.Accepted)
	if status.InitialTime > 0 {
		fmt.Fprintf(w, "  Initial lap: %.3f s\n", status.InitialTime)
	}
	if status.BestTime > 0 && status.InitialTime > 0 {
		fmt.Fprintf(w, "  Best lap: %.3f s\n", status.BestTime)
		fmt.Fprintf(w, "  Improvement: %.3f s (%.1f%%)\n", status.Improvement, status.Improvement/status.InitialTime*100)
	}
	elapsed := time.Duration(status.Elapsed * float64(time.Second))
	fmt.Fprintf(w, "  Elapsed: %s\n", elapsed.Round(time.Millisecond))

	if status.Error != "" {
		fmt.Fprintf(w, "\nError: %s\n", status.Error)
	}
	return nil
}
