package viz

import (
	"strings"
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

const blank = 0x2800

// Canvas is a Braille dot grid. Every cell also carries a tag naming what
// was drawn into it last, so a renderer can color cells per element.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Tags          [][]Tag
}

// Tag classifies the content of a cell. TagNone marks bond strokes and
// empty cells; element tags are the element value plus one.
type Tag uint8

const TagNone Tag = 0

func NewCanvas(w, h int) *Canvas {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Tags:   make([][]Tag, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Tags[i] = make([]Tag, w)
	}
	c.Clear()
	return c
}

// DotsWide and DotsHigh give the sub-pixel resolution.
func (c *Canvas) DotsWide() int { return c.Width * 2 }
func (c *Canvas) DotsHigh() int { return c.Height * 4 }

// Set lights the dot at (x, y) in sub-pixel coordinates. Out of range dots
// are ignored.
func (c *Canvas) Set(x, y int) { c.SetTagged(x, y, TagNone) }

// SetTagged lights a dot and, for a non-zero tag, claims its cell.
func (c *Canvas) SetTagged(x, y int, tag Tag) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	if tag != TagNone {
		c.Tags[row][col] = tag
	}
}

// Unset clears a dot.
func (c *Canvas) Unset(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] &^= rune(pixelMap[y%4][x%2])
	if c.Grid[row][col] < blank {
		c.Grid[row][col] = blank
	}
}

// Lit reports whether the dot at (x, y) is set.
func (c *Canvas) Lit(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Tags[i][j] = TagNone
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
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

// FillDisc lights every dot within r of (cx, cy) and tags the cells.
func (c *Canvas) FillDisc(cx, cy, r int, tag Tag) {
	if r < 0 {
		r = 0
	}
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				c.SetTagged(cx+dx, cy+dy, tag)
			}
		}
	}
}

// String renders the grid without color.
func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render groups runs of equally tagged cells and passes each run through
// paint, which typically wraps it in a lipgloss style.
func (c *Canvas) Render(paint func(Tag, string) string) string {
	if paint == nil {
		return c.String()
	}
	var b strings.Builder
	for i, row := range c.Grid {
		tags := c.Tags[i]
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && tags[j] == tags[start] {
				continue
			}
			b.WriteString(paint(tags[start], string(row[start:j])))
			start = j
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
