package export

import (
	"fmt"
	"image/color"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cwbudde/racingline/internal/sim"
)

var (
	speedColor = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
	limitColor = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
)

// speedSeries returns the achieved and grip-limited speed against lap
// distance in meters.
func speedSeries(prof *sim.SpeedProfile) (speed, limit plotter.XYs) {
	dist := prof.CumulativeDistance()
	speed = make(plotter.XYs, len(prof.Speed))
	limit = make(plotter.XYs, 0, len(prof.SpeedLimit))
	for i, v := range prof.Speed {
		speed[i] = plotter.XY{X: dist[i], Y: v}
		if i < len(prof.SpeedLimit) {
			limit = append(limit, plotter.XY{X: dist[i], Y: prof.SpeedLimit[i]})
		}
	}
	return speed, limit
}

// WriteSpeedPNG renders the speed trace of prof as a PNG image.
func WriteSpeedPNG(w io.Writer, prof *sim.SpeedProfile, title string) error {
	if prof == nil || len(prof.Speed) == 0 {
		return fmt.Errorf("no speed profile to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Distance (m)"
	p.Y.Label.Text = "Speed (m/s)"

	speed, limit := speedSeries(prof)
	if len(limit) > 0 {
		limitLine, err := plotter.NewLine(limit)
		if err != nil {
			return err
		}
		limitLine.Color = limitColor
		limitLine.Width = vg.Points(1)
		limitLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(limitLine)
		p.Legend.Add("grip limit", limitLine)
	}

	speedLine, err := plotter.NewLine(speed)
	if err != nil {
		return err
	}
	speedLine.Color = speedColor
	speedLine.Width = vg.Points(1.5)
	p.Add(speedLine)
	p.Legend.Add("speed", speedLine)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// WriteSpeedHTML renders the speed trace of prof as an interactive chart.
func WriteSpeedHTML(w io.Writer, prof *sim.SpeedProfile, title string) error {
	if prof == nil || len(prof.Speed) == 0 {
		return fmt.Errorf("no speed profile to plot")
	}

	speed, limit := speedSeries(prof)
	x := make([]string, len(speed))
	speedData := make([]opts.LineData, len(speed))
	for i, xy := range speed {
		x[i] = fmt.Sprintf("%.1f", xy.X)
		speedData[i] = opts.LineData{Value: xy.Y}
	}
	limitData := make([]opts.LineData, len(limit))
	for i, xy := range limit {
		limitData[i] = opts.LineData{Value: xy.Y}
	}

	chart := charts.NewLine()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("lap time %.3f s", prof.LapTime),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distance (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Speed (m/s)", NameLocation: "middle", NameGap: 30}),
	)
	chart.SetXAxis(x).
		AddSeries("speed", speedData).
		AddSeries("grip limit", limitData)

	return chart.Render(w)
}
