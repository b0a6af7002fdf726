package viz

import (
	"math"
	"strings"

	"github.com/san-kum/coulomb/internal/dynamo"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the sub-pixel (x, y). The canvas is Width*2 by Height*4
// sub-pixels with y growing downwards.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// project maps world (x, y) in [-bound, bound] onto sub-pixels.
func (c *Canvas) project(x, y, bound float64) (int, int, bool) {
	if math.IsNaN(x) || math.IsNaN(y) || math.Abs(x) > bound || math.Abs(y) > bound {
		return 0, 0, false
	}
	w, h := float64(c.Width*2-1), float64(c.Height*4-1)
	px := int(math.Round((x + bound) / (2 * bound) * w))
	py := int(math.Round((bound - y) / (2 * bound) * h))
	return px, py, true
}

// Trails draws the path of every particle in tr, one line segment per
// recorded step. Segments leaving the view are dropped.
func (c *Canvas) Trails(tr *dynamo.Trajectory, bound float64) {
	if tr.Len() == 0 {
		return
	}
	n := len(tr.States[0]) / 4
	for p := 0; p < n; p++ {
		prevX, prevY, prevOK := c.project(tr.States[0][p*4], tr.States[0][p*4+1], bound)
		if prevOK {
			c.Set(prevX, prevY)
		}
		for i := 1; i < tr.Len(); i++ {
			x, y, ok := c.project(tr.States[i][p*4], tr.States[i][p*4+1], bound)
			if ok && prevOK {
				c.DrawLine(prevX, prevY, x, y)
			}
			prevX, prevY, prevOK = x, y, ok
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
