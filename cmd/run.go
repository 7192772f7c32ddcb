package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cwbudde/racingline/internal/config"
	"github.com/cwbudde/racingline/internal/export"
	"github.com/cwbudde/racingline/internal/geom"
	"github.com/cwbudde/racingline/internal/line"
	"github.com/cwbudde/racingline/internal/sim"
	"github.com/cwbudde/racingline/internal/store"
	"github.com/cwbudde/racingline/internal/track"
)

var (
	trackPath    string
	configPath   string
	outDir       string
	startPath    string
	iters        int
	seed         int64
	strategy     string
	runDataDir   string
	runStoreKind string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run single-shot optimization",
	Long: `Optimizes the racing line of a track file and writes the line (CSV, SVG,
GPX) and its speed trace (PNG, HTML) to the output directory. Ctrl-C stops
the search and keeps the best line found so far.`,
	RunE: runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&trackPath, "track", "", "Track file path (required)")
	runCmd.Flags().StringVar(&configPath, "config", "", "JSON run config (vehicle and search settings)")
	runCmd.Flags().StringVar(&outDir, "out-dir", "out", "Output directory")
	runCmd.Flags().StringVar(&startPath, "start", "", "CSV line to seed the search from")
	runCmd.Flags().IntVar(&iters, "iters", config.DefaultIterations, "Search rounds")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")
	runCmd.Flags().StringVar(&strategy, "strategy", string(line.StrategyHillClimb), "Search strategy: hillclimb, mayfly")
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "", "Save a checkpoint under this directory")
	runCmd.Flags().StringVar(&runStoreKind, "store", storeFS, "Checkpoint store: fs, sqlite")

	runCmd.MarkFlagRequired("track")
	rootCmd.AddCommand(runCmd)
}

// loadRunConfig reads the optional config file and lets explicitly set flags
// override it.
func loadRunConfig(cmd *cobra.Command) (*config.RunConfig, error) {
	cfg := config.Default()
	if configPath != "" {
		fileCfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = cfg.Merge(fileCfg)
	}

	flags := &config.RunConfig{}
	if cmd.Flags().Changed("iters") {
		flags.Iterations = &iters
	}
	if cmd.Flags().Changed("seed") {
		flags.Seed = &seed
	}
	if cmd.Flags().Changed("strategy") {
		flags.Strategy = &strategy
	}
	cfg = cfg.Merge(flags)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readStartLine(path string) (geom.Path, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open start line: %w", err)
	}
	defer f.Close()
	return export.ReadCSV(f)
}

func runOptimization(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	tr, err := track.Load(trackPath)
	if err != nil {
		return err
	}

	opts := cfg.LineOptions()
	if startPath != "" {
		if opts.Start, err = readStartLine(startPath); err != nil {
			return err
		}
	}

	jobID := uuid.New().String()
	scale := cfg.GetScale(tr.Scale)
	res, err := optimize(tr, cfg.Vehicle(), scale, opts)
	if err != nil {
		return err
	}

	if runDataDir != "" {
		jobCfg := store.JobConfig{
			TrackPath:  trackPath,
			Vehicle:    cfg.Vehicle(),
			Scale:      scale,
			Iterations: opts.Iterations,
			Seed:       opts.Seed,
			Strategy:   string(res.Strategy),
		}
		if err := saveRunCheckpoint(runDataDir, runStoreKind, jobID, res, jobCfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Checkpoint: %s\n", jobID)
	}

	written, err := writeArtifacts(outDir, tr, res, scale, trackTitle(tr))
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	for _, p := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", p)
	}
	return nil
}

// optimize runs the search until it finishes or the process is interrupted.
func optimize(tr *track.Track, vehicle sim.VehicleParams, scale float64, opts line.Options) (*line.Result, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting optimization",
		"track", tr.Name,
		"strategy", opts.Strategy,
		"iterations", opts.Iterations,
		"seed", opts.Seed,
		"scale", scale,
	)

	start := time.Now()
	res, err := line.OptimizeLine(ctx, tr.Left, tr.Right, vehicle, scale, opts)
	if err != nil {
		return nil, err
	}
	if res.Cancelled {
		slog.Warn("Optimization interrupted, keeping best line so far", "rounds", res.Rounds)
	}

	slog.Info("Optimization complete",
		"elapsed", time.Since(start),
		"initial_time", res.InitialTime,
		"best_time", res.BestTime,
		"improvement", res.Improvement(),
		"evaluations", res.Evaluations,
	)
	return res, nil
}

func saveRunCheckpoint(dataDir, kind, jobID string, res *line.Result, jobCfg store.JobConfig) error {
	st, closer, err := openStore(dataDir, kind)
	if err != nil {
		return err
	}
	defer closer.Close()

	cp := store.NewCheckpoint(jobID, res.BestPath, res.BestTime, res.InitialTime, res.Rounds, jobCfg)
	if err := cp.Validate(); err != nil {
		return fmt.Errorf("invalid checkpoint: %w", err)
	}
	return st.SaveCheckpoint(jobID, cp)
}

func trackTitle(tr *track.Track) string {
	if tr.Name != "" {
		return tr.Name
	}
	return "racing line"
}
