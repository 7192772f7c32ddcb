package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cwbudde/racingline/internal/config"
	"github.com/cwbudde/racingline/internal/line"
	"github.com/cwbudde/racingline/internal/store"
	"github.com/cwbudde/racingline/internal/track"
)

var (
	resumeDataDir   string
	resumeStoreKind string
	resumeIters     int
	resumeStrategy  string
	resumeOutDir    string
)

var resumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Resume optimization from a checkpoint",
	Long: `Loads the checkpoint of a previous run or server job and continues the
search from its best line on the same track, scale and vehicle. The
checkpoint is replaced only if the new line is faster.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDataDir, "data-dir", "./data", "Base directory for checkpoint storage")
	resumeCmd.Flags().StringVar(&resumeStoreKind, "store", storeFS, "Checkpoint store: fs, sqlite")
	resumeCmd.Flags().IntVar(&resumeIters, "iters", 0, "Search rounds (0 = as in the checkpoint)")
	resumeCmd.Flags().StringVar(&resumeStrategy, "strategy", "", "Search strategy (empty = as in the checkpoint)")
	resumeCmd.Flags().StringVar(&resumeOutDir, "out-dir", "out", "Output directory")
	rootCmd.AddCommand(resumeCmd)
}

// resumeConfig returns the job settings for continuing from cp.
func resumeConfig(cp *store.Checkpoint, iterations int, strategy string) store.JobConfig {
	cfg := cp.Config
	if iterations > 0 {
		cfg.Iterations = iterations
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = config.DefaultIterations
	}
	if strategy != "" {
		cfg.Strategy = strategy
	}
	return cfg
}

func runResume(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	st, closer, err := openStore(resumeDataDir, resumeStoreKind)
	if err != nil {
		return err
	}
	defer closer.Close()

	cp, err := st.LoadCheckpoint(jobID)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	jobCfg := resumeConfig(cp, resumeIters, resumeStrategy)
	if err := cp.IsCompatible(jobCfg); err != nil {
		return err
	}

	tr, err := track.Load(jobCfg.TrackPath)
	if err != nil {
		return err
	}

	slog.Info("Loaded checkpoint",
		"job_id", jobID,
		"round", cp.Round,
		"best_time", cp.BestTime,
		"strategy", jobCfg.Strategy,
	)

	opts := line.Options{
		Iterations: jobCfg.Iterations,
		Seed:       jobCfg.Seed,
		Strategy:   line.Strategy(jobCfg.Strategy),
		Start:      cp.BestPath,
	}
	res, err := optimize(tr, jobCfg.Vehicle, jobCfg.Scale, opts)
	if err != nil {
		return err
	}

	if res.BestTime < cp.BestTime {
		next := store.NewCheckpoint(jobID, res.BestPath, res.BestTime, res.InitialTime, cp.Round+res.Rounds, jobCfg)
		if err := next.Validate(); err != nil {
			return fmt.Errorf("invalid checkpoint: %w", err)
		}
		if err := st.SaveCheckpoint(jobID, next); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Checkpoint %s improved: %.3f s -> %.3f s\n", jobID, cp.BestTime, res.BestTime)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "No improvement over checkpoint %s (%.3f s)\n", jobID, cp.BestTime)
	}

	written, err := writeArtifacts(resumeOutDir, tr, res, jobCfg.Scale, trackTitle(tr))
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	for _, p := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", p)
	}
	return nil
}
