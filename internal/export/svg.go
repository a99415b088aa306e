// Package export renders stored runs as standalone SVG documents.
package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/chemsim/internal/dynamo"
	"github.com/san-kum/chemsim/internal/physics"
	"github.com/san-kum/chemsim/internal/viz"
)

const background = "#0a0a0a"

// SnapshotToSVG draws atoms as element-colored circles and bonds as one
// stroke per order, seen through cam. size is the square image side in
// pixels.
func SnapshotToSVG(snap physics.Snapshot, cam *viz.Camera, theme viz.Theme, size int) string {
	if size <= 0 {
		size = 512
	}
	if cam == nil {
		cam = viz.NewCamera(10)
	}

	type disc struct {
		x, y  float64
		r     float64
		depth float64
		color string
	}
	scale := cam.Scale(size, size)
	discs := make(map[physics.AtomID]disc, len(snap.Atoms))
	for _, a := range snap.Atoms {
		x, y, persp, depth, ok := cam.Project(dynamo.V(a.Pos[0], a.Pos[1], a.Pos[2]), size, size)
		if !ok {
			continue
		}
		discs[a.ID] = disc{
			x:     float64(x),
			y:     float64(y),
			r:     a.Element.Radius() * 0.5 * scale * persp,
			depth: depth,
			color: string(theme.Color(viz.ElementTag(a.Element))),
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<g stroke="%s" stroke-width="%.1f" stroke-linecap="round">
`, size, size, size, size, background, string(theme.Bond), math.Max(1, scale*0.06)))

	gap := math.Max(2, scale*0.12)
	for _, b := range snap.Bonds {
		da, okA := discs[b.A]
		db, okB := discs[b.B]
		if !okA || !okB {
			continue
		}
		dx, dy := db.x-da.x, db.y-da.y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l, dx/l
		n := b.Order.Int()
		for i := 0; i < n; i++ {
			off := float64(2*i-(n-1)) * gap / 2
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, da.x+nx*off, da.y+ny*off, db.x+nx*off, db.y+ny*off))
		}
	}
	sb.WriteString("</g>\n<g>\n")

	ids := make([]physics.AtomID, 0, len(discs))
	for id := range discs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if discs[ids[i]].depth != discs[ids[j]].depth {
			return discs[ids[i]].depth < discs[ids[j]].depth
		}
		return ids[i] < ids[j]
	})
	for _, id := range ids {
		d := discs[id]
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, d.x, d.y, math.Max(1, d.r), d.color))
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// Point is one (x, y) pair of a series plot.
type Point struct{ X, Y float64 }

// SeriesToSVG creates a line plot of points scaled to fill the image with
// a tenth of padding on every side.
func SeriesToSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	// Find bounds
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, background, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// ElementLegend lists the colors used for elements present in snap.
func ElementLegend(snap physics.Snapshot, theme viz.Theme) map[string]string {
	out := make(map[string]string)
	for _, a := range snap.Atoms {
		if a.Element.Valid() {
			out[a.Element.String()] = string(theme.Elements[a.Element])
		}
	}
	return out
}
