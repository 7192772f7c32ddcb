package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/racingline/internal/geom"
	"github.com/cwbudde/racingline/internal/track"
)

var (
	trackOut    string
	trackScale  float64
	trackPoints int

	ringInner float64
	ringOuter float64

	straightLength float64
	straightWidth  float64
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Generate and calibrate track files",
}

var ringTrackCmd = &cobra.Command{
	Use:   "ring",
	Short: "Write a circular test track",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkPoints(); err != nil {
			return err
		}
		if ringInner <= 0 || ringOuter <= ringInner {
			return fmt.Errorf("need 0 < inner < outer, got %g and %g", ringInner, ringOuter)
		}
		tr := track.Ring(ringOuter, ringOuter, ringInner, ringOuter, trackPoints, trackScale)
		return saveTrack(cmd, tr)
	},
}

var straightTrackCmd = &cobra.Command{
	Use:   "straight",
	Short: "Write a straight test strip",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkPoints(); err != nil {
			return err
		}
		if straightLength <= 0 || straightWidth <= 0 {
			return fmt.Errorf("length and width must be positive")
		}
		tr := track.Straight(straightLength, straightWidth, trackPoints, trackScale)
		return saveTrack(cmd, tr)
	},
}

var calibrateTrackCmd = &cobra.Command{
	Use:   "calibrate x1 y1 x2 y2 meters",
	Short: "Compute the scale from two points a known distance apart",
	Long: `Prints the meters-per-unit scale implied by two image points that are a
known real-world distance apart, for example the ends of a straight.`,
	Args: cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		var v [5]float64
		for i, a := range args {
			if _, err := fmt.Sscanf(a, "%g", &v[i]); err != nil {
				return fmt.Errorf("argument %d: %q is not a number", i+1, a)
			}
		}
		scale, err := track.Calibrate(geom.Pt(v[0], v[1]), geom.Pt(v[2], v[3]), v[4])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%g\n", scale)
		return nil
	},
}

func checkPoints() error {
	if trackPoints < geom.MinTrackPoints {
		return fmt.Errorf("need at least %d points per edge, got %d", geom.MinTrackPoints, trackPoints)
	}
	return nil
}

func saveTrack(cmd *cobra.Command, tr *track.Track) error {
	if err := tr.Validate(); err != nil {
		return err
	}
	if err := track.Save(trackOut, tr); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", trackOut, tr.Name)
	return nil
}

func init() {
	rootCmd.AddCommand(trackCmd)
	trackCmd.AddCommand(ringTrackCmd, straightTrackCmd, calibrateTrackCmd)

	for _, c := range []*cobra.Command{ringTrackCmd, straightTrackCmd} {
		c.Flags().StringVar(&trackOut, "out", "track.json", "Output track file")
		c.Flags().Float64Var(&trackScale, "scale", 0.2, "Meters per unit")
		c.Flags().IntVar(&trackPoints, "points", 64, "Points per edge")
	}

	ringTrackCmd.Flags().Float64Var(&ringInner, "inner", 100, "Inner radius")
	ringTrackCmd.Flags().Float64Var(&ringOuter, "outer", 110, "Outer radius")

	straightTrackCmd.Flags().Float64Var(&straightLength, "length", 500, "Strip length")
	straightTrackCmd.Flags().Float64Var(&straightWidth, "width", 10, "Strip width")
}
