package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/coulomb/internal/dynamo"
	"github.com/san-kum/coulomb/internal/field"
	"github.com/san-kum/coulomb/internal/viz"
)

const background = "#0a0a0a"

func header(sb *strings.Builder, width, height float64) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))
}

// FieldSVG writes the log field strength of g as one square of side cell
// per grid point, colored with cm, with the markers drawn on top. y grows
// upwards as on the grid.
func FieldSVG(w io.Writer, g *field.Grid, cm viz.Colormap, markers []viz.Marker, cell float64) error {
	if g == nil || g.N == 0 {
		return fmt.Errorf("empty grid: %w", dynamo.ErrInvalidGrid)
	}
	if !(cell > 0) {
		return fmt.Errorf("cell size must be positive, got %v: %w", cell, dynamo.ErrParameterBounds)
	}

	logs := g.LogStrength()
	lo, hi := field.Range(logs)
	side := float64(g.N) * cell

	var sb strings.Builder
	header(&sb, side, side)

	sb.WriteString(`<g shape-rendering="crispEdges">` + "\n")
	for i := 0; i < g.N; i++ {
		y := float64(g.N-1-i) * cell
		for j := 0; j < g.N; j++ {
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>
`, float64(j)*cell, y, cell, cell, cm.At(logs.At(i, j), lo, hi)))
		}
	}
	sb.WriteString("</g>\n")

	for _, m := range markers {
		if m.X < -g.Bound || m.X > g.Bound || m.Y < -g.Bound || m.Y > g.Bound {
			continue
		}
		r := cell
		if m.Heavy {
			r = 2 * cell
		}
		cx := (m.X + g.Bound) / (2 * g.Bound) * side
		cy := side - (m.Y+g.Bound)/(2*g.Bound)*side
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" stroke="#000000"/>
`, cx, cy, r, viz.ChargeColor(m.Charge)))
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// TrailsSVG writes one path per particle of tr over the square
// [-bound, bound]², stroked by charge.
func TrailsSVG(w io.Writer, tr *dynamo.Trajectory, charges []float64, bound float64, size int) error {
	if tr == nil || tr.Len() < 2 {
		return fmt.Errorf("need at least 2 states: %w", dynamo.ErrParameterBounds)
	}
	if !(bound > 0) || size <= 0 {
		return fmt.Errorf("bound %v and size %d must be positive: %w", bound, size, dynamo.ErrParameterBounds)
	}

	side := float64(size)
	project := func(x, y float64) (float64, float64) {
		return (x + bound) / (2 * bound) * side, side - (y+bound)/(2*bound)*side
	}

	var sb strings.Builder
	header(&sb, side, side)

	n := len(tr.At(0)) / 4
	for p := 0; p < n; p++ {
		q := 0.0
		if p < len(charges) {
			q = charges[p]
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, viz.ChargeColor(q)))
		for k := 0; k < tr.Len(); k++ {
			x := tr.At(k)
			px, py := project(x[p*4], x[p*4+1])
			if k == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", px, py))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px, py))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
