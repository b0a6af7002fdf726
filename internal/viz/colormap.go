package viz

import (
	"math"

	"github.com/charmbracelet/lipgloss"
)

// Colormap is a sequence of evenly spaced color stops from low to high.
type Colormap struct {
	Name  string
	Stops []lipgloss.Color
}

var (
	ColormapInferno = Colormap{
		Name: "inferno",
		Stops: []lipgloss.Color{
			"#000004", "#1b0c41", "#4a0c6b", "#781c6d", "#a52c60",
			"#cf4446", "#ed6925", "#fb9b06", "#f7d13d", "#fcffa4",
		},
	}

	ColormapViridis = Colormap{
		Name: "viridis",
		Stops: []lipgloss.Color{
			"#440154", "#482878", "#3e4989", "#31688e", "#26828e",
			"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
		},
	}

	ColormapGray = Colormap{
		Name: "gray",
		Stops: []lipgloss.Color{
			"#111111", "#333333", "#555555", "#777777", "#999999",
			"#bbbbbb", "#dddddd", "#ffffff",
		},
	}

	Colormaps = []Colormap{
		ColormapInferno,
		ColormapViridis,
		ColormapGray,
	}
)

// GetColormap returns a colormap by name, inferno when unknown.
func GetColormap(name string) Colormap {
	for _, c := range Colormaps {
		if c.Name == name {
			return c
		}
	}
	return ColormapInferno
}

func ColormapNames() []string {
	names := make([]string, len(Colormaps))
	for i, c := range Colormaps {
		names[i] = c.Name
	}
	return names
}

// Next returns the colormap after c in Colormaps.
func (c Colormap) Next() Colormap {
	for i, cm := range Colormaps {
		if cm.Name == c.Name {
			return Colormaps[(i+1)%len(Colormaps)]
		}
	}
	return Colormaps[0]
}

func (c Colormap) At(v, lo, hi float64) lipgloss.Color {
	return c.Stops[Level(v, lo, hi, len(c.Stops))]
}

// Level maps v in [lo, hi] onto 0..n-1. Values outside the range are
// clamped; a degenerate range or NaN maps to 0.
func Level(v, lo, hi float64, n int) int {
	if n <= 1 || !(hi > lo) || math.IsNaN(v) {
		return 0
	}
	idx := int((v-lo)/(hi-lo)*float64(n-1) + 0.5)
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

var (
	chargeNegative = lipgloss.Color("#3b4cc0")
	chargeNeutral  = lipgloss.Color("#dddddd")
	chargePositive = lipgloss.Color("#b40426")
)

// ChargeColor is a diverging blue-white-red scale over charges in [-2, 2].
func ChargeColor(q float64) lipgloss.Color {
	t := math.Max(-1, math.Min(1, q/2))
	if t < 0 {
		return blend(chargeNeutral, chargeNegative, -t)
	}
	return blend(chargeNeutral, chargePositive, t)
}

func blend(a, b lipgloss.Color, t float64) lipgloss.Color {
	ar, ag, ab := parseHex(string(a))
	br, bg, bb := parseHex(string(b))
	r := int(float64(ar) + t*float64(br-ar) + 0.5)
	g := int(float64(ag) + t*float64(bg-ag) + 0.5)
	bl := int(float64(ab) + t*float64(bb-ab) + 0.5)
	return lipgloss.Color(hexColor(r, g, bl))
}
