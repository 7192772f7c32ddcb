package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/racingline/internal/config"
	"github.com/cwbudde/racingline/internal/sim"
)

var (
	simLinePath   string
	simConfigPath string
	simScale      float64
	simJSON       bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate the lap time of a line",
	Long:  `Reads a line CSV (as written by run) and prints the simulated lap time and speed statistics.`,
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simLinePath, "line", "", "Line CSV path (required)")
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "", "JSON run config for the vehicle")
	simulateCmd.Flags().Float64Var(&simScale, "scale", 0, "Meters per unit (required unless set in config)")
	simulateCmd.Flags().BoolVar(&simJSON, "json", false, "Print the summary as JSON")

	simulateCmd.MarkFlagRequired("line")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if simConfigPath != "" {
		fileCfg, err := config.Load(simConfigPath)
		if err != nil {
			return err
		}
		cfg = cfg.Merge(fileCfg)
	}
	scale := cfg.GetScale(simScale)
	if simScale != 0 {
		scale = simScale
	}

	if err := sim.ValidateScale(scale); err != nil {
		return err
	}
	vehicle := cfg.Vehicle()
	if err := vehicle.Validate(); err != nil {
		return err
	}

	path, err := readStartLine(simLinePath)
	if err != nil {
		return err
	}
	prof, err := sim.Simulate(path, vehicle, scale)
	if err != nil {
		return err
	}

	summary := prof.Summary()
	if simJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Lap time: %.3f s\n", summary.LapTime)
	fmt.Fprintf(cmd.OutOrStdout(), "Lap length: %.1f m\n", summary.LapLength)
	fmt.Fprintf(cmd.OutOrStdout(), "Speed: min %.1f, max %.1f, mean %.1f, average %.1f m/s\n",
		summary.MinSpeed, summary.MaxSpeed, summary.MeanSpeed, summary.AvgSpeed)
	return nil
}
