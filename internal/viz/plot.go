package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/coulomb/internal/dynamo"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Red,
	asciigraph.Blue,
	asciigraph.Green,
	asciigraph.Yellow,
	asciigraph.Magenta,
	asciigraph.Cyan,
}

// Components of a particle's slice of the state vector.
const (
	ComponentX = iota
	ComponentY
	ComponentVX
	ComponentVY
)

var componentNames = []string{"x", "y", "vx", "vy"}

func ComponentName(component int) string {
	if component < 0 || component >= len(componentNames) {
		return "?"
	}
	return componentNames[component]
}

// ParseComponent accepts x, y, vx or vy.
func ParseComponent(name string) (int, error) {
	for i, n := range componentNames {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown component %q (want one of %s)", name, strings.Join(componentNames, ", "))
}

// ParticleSeries returns one series per particle for the given component.
func ParticleSeries(tr *dynamo.Trajectory, component int) [][]float64 {
	if tr.Len() == 0 {
		return nil
	}
	n := len(tr.States[0]) / 4
	out := make([][]float64, n)
	for p := range out {
		out[p] = tr.Series(p*4 + component)
	}
	return out
}

// Downsample keeps at most width evenly spaced points of each series.
func Downsample(series [][]float64, width int) [][]float64 {
	out := make([][]float64, len(series))
	for i, s := range series {
		if width <= 0 || len(s) <= width {
			out[i] = s
			continue
		}
		if width == 1 {
			out[i] = s[:1]
			continue
		}
		step := float64(len(s)-1) / float64(width-1)
		d := make([]float64, width)
		for k := range d {
			d[k] = s[int(float64(k)*step+0.5)]
		}
		out[i] = d
	}
	return out
}

// PlotSeries draws the series on one chart, each in its own color.
func PlotSeries(series [][]float64, caption string, width, height int) string {
	if len(series) == 0 {
		return ""
	}
	colors := make([]asciigraph.AnsiColor, len(series))
	for i := range colors {
		colors[i] = seriesColors[i%len(seriesColors)]
	}
	return asciigraph.PlotMany(Downsample(series, width),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
	)
}
