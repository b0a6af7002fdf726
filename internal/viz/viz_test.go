package viz

import (
	"math"
	"regexp"
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/coulomb/internal/dynamo"
	"github.com/san-kum/coulomb/internal/field"
	"github.com/san-kum/coulomb/internal/physics"
)

var ansi = regexp.MustCompile("\x1b\\[[0-9;]*m")

func plain(s string) string { return ansi.ReplaceAllString(s, "") }

func TestLevel(t *testing.T) {
	tests := []struct {
		v, lo, hi float64
		want      int
	}{
		{0, 0, 1, 0},
		{1, 0, 1, 4},
		{0.5, 0, 1, 2},
		{5, 0, 1, 4},
		{-5, 0, 1, 0},
		{math.NaN(), 0, 1, 0},
		{0.3, 1, 1, 0},
	}
	for _, tt := range tests {
		if got := Level(tt.v, tt.lo, tt.hi, 5); got != tt.want {
			t.Errorf("Level(%v, %v, %v) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestChargeColor(t *testing.T) {
	g := NewWithT(t)
	g.Expect(ChargeColor(2)).To(Equal(chargePositive))
	g.Expect(ChargeColor(5)).To(Equal(chargePositive))
	g.Expect(ChargeColor(-2)).To(Equal(chargeNegative))
	g.Expect(ChargeColor(0)).To(Equal(chargeNeutral))
	g.Expect(ChargeColor(1)).NotTo(Equal(ChargeColor(-1)))
}

func TestColormaps(t *testing.T) {
	g := NewWithT(t)
	g.Expect(GetColormap("viridis").Name).To(Equal("viridis"))
	g.Expect(GetColormap("nope").Name).To(Equal("inferno"))
	g.Expect(ColormapInferno.Next().Name).To(Equal("viridis"))
	g.Expect(ColormapGray.Next().Name).To(Equal("inferno"))
	g.Expect(ColormapInferno.At(1, 0, 1)).To(Equal(ColormapInferno.Stops[len(ColormapInferno.Stops)-1]))
	g.Expect(ColormapNames()).To(Equal([]string{"inferno", "viridis", "gray"}))
}

func TestMarkers(t *testing.T) {
	ms := Markers(dynamo.State{1, 2, 0, 0, 3, 4, 0, 0}, []float64{938, 0.511}, []float64{1, -1})
	if len(ms) != 2 {
		t.Fatalf("expected 2 markers, got %d", len(ms))
	}
	if !ms[0].Heavy || ms[1].Heavy {
		t.Errorf("only the proton should be heavy: %+v", ms)
	}
	if ms[1].X != 3 || ms[1].Y != 4 || ms[1].Charge != -1 {
		t.Errorf("unexpected marker %+v", ms[1])
	}
}

func TestHeatmapCell(t *testing.T) {
	h := NewHeatmap(11, 11)
	tests := []struct {
		x, y     float64
		row, col int
		ok       bool
	}{
		{0, 0, 5, 5, true},
		{10, 10, 0, 10, true},
		{-10, -10, 10, 0, true},
		{11, 0, 0, 0, false},
	}
	for _, tt := range tests {
		r, c, ok := h.Cell(tt.x, tt.y, 10)
		if r != tt.row || c != tt.col || ok != tt.ok {
			t.Errorf("Cell(%v, %v) = %d, %d, %v", tt.x, tt.y, r, c, ok)
		}
	}
}

func TestHeatmapRender(t *testing.T) {
	g := NewWithT(t)

	grid, err := field.NewSampler(physics.DefaultConstants()).Sample([]float64{0, 0, 0, 0}, []float64{1}, 10, 21)
	g.Expect(err).NotTo(HaveOccurred())

	h := NewHeatmap(11, 11)
	out := plain(h.Render(grid, []Marker{{X: 0, Y: 0, Charge: 1, Heavy: true}}))

	lines := strings.Split(out, "\n")
	g.Expect(lines).To(HaveLen(11))
	for _, line := range lines {
		g.Expect([]rune(line)).To(HaveLen(11))
	}

	center := []rune(lines[5])
	g.Expect(string(center[5])).To(Equal("●"))
	g.Expect(string(center[6])).To(Equal("█"), "strongest field next to the charge")

	for _, line := range lines {
		for _, r := range line {
			g.Expect(strings.ContainsRune(string(shades)+"●•", r)).To(BeTrue(), "unexpected rune %q", r)
		}
	}
}

func TestCanvasTrails(t *testing.T) {
	tr := dynamo.NewTrajectory(2, 1)
	tr.Append(dynamo.State{-1, 0, 0, 0}, 0)
	tr.Append(dynamo.State{1, 0, 0, 0}, 1)

	c := NewCanvas(10, 5)
	c.Trails(tr, 1)

	for col, r := range c.Grid[2] {
		if r == brailleBlank {
			t.Errorf("row 2 col %d should be drawn", col)
		}
	}
	for _, row := range []int{0, 4} {
		for _, r := range c.Grid[row] {
			if r != brailleBlank {
				t.Errorf("row %d should be empty", row)
			}
		}
	}

	lines := strings.Split(strings.TrimRight(c.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Errorf("expected 5 lines, got %d", len(lines))
	}
}

func TestPlot(t *testing.T) {
	g := NewWithT(t)

	tr := dynamo.NewTrajectory(100, 1)
	for i := 0; i < 100; i++ {
		x := float64(i)
		tr.Append(dynamo.State{x, 0, 1, 0, -x, 1, -1, 0}, x)
	}

	series := ParticleSeries(tr, ComponentX)
	g.Expect(series).To(HaveLen(2))
	g.Expect(series[1][99]).To(Equal(-99.0))

	down := Downsample(series, 10)
	g.Expect(down[0]).To(HaveLen(10))
	g.Expect(down[0][0]).To(Equal(0.0))
	g.Expect(down[0][9]).To(Equal(99.0))
	g.Expect(Downsample(series, 1)[0]).To(Equal([]float64{0}))

	chart := plain(PlotSeries(series, "x vs step", 40, 5))
	g.Expect(chart).To(ContainSubstring("x vs step"))
	g.Expect(PlotSeries(nil, "empty", 40, 5)).To(BeEmpty())

	c, err := ParseComponent("vx")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(c).To(Equal(ComponentVX))
	g.Expect(ComponentName(c)).To(Equal("vx"))
	_, err = ParseComponent("z")
	g.Expect(err).To(HaveOccurred())
}
