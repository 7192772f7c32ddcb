package export

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/racingline/internal/geom"
)

const (
	leftEdgeColor  = "#d9534f"
	rightEdgeColor = "#0275d8"
	lineColor      = "#2ca02c"
	svgMargin      = 10.0
)

// WriteSVG draws the two track edges and the racing line as polylines on a
// canvas that covers every point plus a small margin.
func WriteSVG(w io.Writer, left, right, line geom.Path) error {
	width, height := canvasSize(left, right, line)

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s">`+"\n",
		formatCoord(width), formatCoord(height))
	for _, pl := range []struct {
		path  geom.Path
		color string
	}{
		{left, leftEdgeColor},
		{right, rightEdgeColor},
		{line, lineColor},
	} {
		if len(pl.path) == 0 {
			continue
		}
		fmt.Fprintf(bw, `<polyline points="%s" stroke="%s" fill="none" stroke-width="3" />`+"\n",
			polylinePoints(pl.path), pl.color)
	}
	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func polylinePoints(p geom.Path) string {
	var sb strings.Builder
	for i, pt := range p {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(formatCoord(pt.X))
		sb.WriteByte(',')
		sb.WriteString(formatCoord(pt.Y))
	}
	return sb.String()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func canvasSize(paths ...geom.Path) (float64, float64) {
	maxX, maxY := 0.0, 0.0
	for _, p := range paths {
		for _, pt := range p {
			maxX = math.Max(maxX, pt.X)
			maxY = math.Max(maxY, pt.Y)
		}
	}
	return math.Ceil(maxX + svgMargin), math.Ceil(maxY + svgMargin)
}
