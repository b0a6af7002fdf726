package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/coulomb/internal/dynamo"
	"github.com/san-kum/coulomb/internal/field"
)

// shades runs from weak to strong field.
var shades = []rune(" ░▒▓█")

// Marker is a particle drawn over the heatmap.
type Marker struct {
	X, Y   float64
	Charge float64
	Heavy  bool
}

// Markers builds one marker per particle of x. Particles at least ten
// times heavier than the lightest are drawn heavy.
func Markers(x dynamo.State, masses, charges []float64) []Marker {
	lightest := math.Inf(1)
	for _, m := range masses {
		lightest = math.Min(lightest, m)
	}

	out := make([]Marker, 0, len(charges))
	for p := range charges {
		if p*4+1 >= len(x) {
			break
		}
		out = append(out, Marker{
			X:      x[p*4],
			Y:      x[p*4+1],
			Charge: charges[p],
			Heavy:  p < len(masses) && masses[p] >= 10*lightest,
		})
	}
	return out
}

// Heatmap renders a sampled field as a Cols×Rows block of terminal cells
// with y increasing upwards.
type Heatmap struct {
	Cols, Rows int
	Colormap   Colormap
}

func NewHeatmap(cols, rows int) *Heatmap {
	return &Heatmap{Cols: cols, Rows: rows, Colormap: ColormapInferno}
}

// Cell returns the terminal cell of the point (x, y) on a grid spanning
// [-bound, bound], or ok=false when it lies outside.
func (h *Heatmap) Cell(x, y, bound float64) (row, col int, ok bool) {
	if math.Abs(x) > bound || math.Abs(y) > bound {
		return 0, 0, false
	}
	col = scale(x, bound, h.Cols)
	row = h.Rows - 1 - scale(y, bound, h.Rows)
	return row, col, true
}

func scale(v, bound float64, n int) int {
	if n <= 1 {
		return 0
	}
	return int(math.Round((v + bound) / (2 * bound) * float64(n-1)))
}

// sampleIndex maps cell k of n onto grid index 0..size-1.
func sampleIndex(k, n, size int) int {
	if n <= 1 || size <= 1 {
		return 0
	}
	return int(math.Round(float64(k) * float64(size-1) / float64(n-1)))
}

func (h *Heatmap) Render(g *field.Grid, markers []Marker) string {
	if h.Cols <= 0 || h.Rows <= 0 {
		return ""
	}

	strength := g.LogStrength()
	lo, hi := field.Range(strength)

	cells := make([][]string, h.Rows)
	for r := 0; r < h.Rows; r++ {
		cells[r] = make([]string, h.Cols)
		i := sampleIndex(h.Rows-1-r, h.Rows, g.N)
		for c := 0; c < h.Cols; c++ {
			v := strength.At(i, sampleIndex(c, h.Cols, g.N))
			shade := shades[Level(v, lo, hi, len(shades))]
			cells[r][c] = lipgloss.NewStyle().
				Foreground(h.Colormap.At(v, lo, hi)).
				Render(string(shade))
		}
	}

	for _, m := range markers {
		r, c, ok := h.Cell(m.X, m.Y, g.Bound)
		if !ok {
			continue
		}
		glyph := "•"
		if m.Heavy {
			glyph = "●"
		}
		cells[r][c] = lipgloss.NewStyle().Bold(true).Foreground(ChargeColor(m.Charge)).Render(glyph)
	}

	var b strings.Builder
	for r, row := range cells {
		if r > 0 {
			b.WriteByte('\n')
		}
		for _, cell := range row {
			b.WriteString(cell)
		}
	}
	return b.String()
}
