package viz

import (
	"math"
	"sort"

	"github.com/san-kum/chemsim/internal/chem"
	"github.com/san-kum/chemsim/internal/dynamo"
	"github.com/san-kum/chemsim/internal/physics"
)

// Cell tags beyond the element range.
const (
	TagGrab Tag = 200 + iota
	TagTarget
	TagBox
)

// ElementTag is the cell tag atoms of e draw with.
func ElementTag(e chem.Element) Tag { return Tag(e) }

// Scene describes one frame to draw.
type Scene struct {
	Snapshot physics.Snapshot
	Grabbed  physics.AtomID // zero when nothing is held
	Target   *dynamo.Vec3
	Box      float64 // wall half-size; zero hides the box
}

type projected struct {
	x, y   int
	r      int
	depth  float64
	tag    Tag
	inView bool
}

// Draw renders the scene into c: the box outline first, then bonds, then
// atoms far to near so nearer atoms cover farther ones.
func Draw(c *Canvas, cam *Camera, sc Scene) {
	if c == nil || cam == nil {
		return
	}
	w, h := c.DotsWide(), c.DotsHigh()
	if sc.Box > 0 {
		drawBox(c, cam, sc.Box)
	}

	pts := make(map[physics.AtomID]projected, len(sc.Snapshot.Atoms))
	order := make([]physics.AtomID, 0, len(sc.Snapshot.Atoms))
	for _, a := range sc.Snapshot.Atoms {
		pos := dynamo.V(a.Pos[0], a.Pos[1], a.Pos[2])
		x, y, persp, depth, ok := cam.Project(pos, w, h)
		r := int(math.Round(a.Element.Radius() * 0.5 * cam.Scale(w, h) * persp))
		tag := ElementTag(a.Element)
		if a.ID == sc.Grabbed && sc.Grabbed != 0 {
			tag = TagGrab
		}
		pts[a.ID] = projected{x: x, y: y, r: r, depth: depth, tag: tag, inView: ok}
		order = append(order, a.ID)
	}

	for _, b := range sc.Snapshot.Bonds {
		pa, okA := pts[b.A]
		pb, okB := pts[b.B]
		if !okA || !okB || !pa.inView || !pb.inView {
			continue
		}
		drawBond(c, pa, pb, b.Order)
	}

	sort.SliceStable(order, func(i, j int) bool { return pts[order[i]].depth < pts[order[j]].depth })
	for _, id := range order {
		p := pts[id]
		if p.inView {
			c.FillDisc(p.x, p.y, p.r, p.tag)
		}
	}

	if sc.Target != nil {
		if x, y, _, _, ok := cam.Project(*sc.Target, w, h); ok {
			for d := -2; d <= 2; d++ {
				c.SetTagged(x+d, y, TagTarget)
				c.SetTagged(x, y+d, TagTarget)
			}
		}
	}
}

// drawBond strokes one line per bond order, offset sideways by a dot.
func drawBond(c *Canvas, a, b projected, o chem.Order) {
	dx, dy := float64(b.x-a.x), float64(b.y-a.y)
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l, dx/l
	n := o.Int()
	for i := 0; i < n; i++ {
		off := float64(2*i-(n-1)) * 1.0
		ox, oy := int(math.Round(nx*off)), int(math.Round(ny*off))
		c.DrawLine(a.x+ox, a.y+oy, b.x+ox, b.y+oy)
	}
}

var boxEdges = [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {4, 5}, {5, 6}, {6, 7}, {7, 4}, {0, 4}, {1, 5}, {2, 6}, {3, 7}}

func drawBox(c *Canvas, cam *Camera, half float64) {
	s := half
	v := []dynamo.Vec3{
		{X: -s, Y: -s, Z: -s}, {X: s, Y: -s, Z: -s}, {X: s, Y: s, Z: -s}, {X: -s, Y: s, Z: -s},
		{X: -s, Y: -s, Z: s}, {X: s, Y: -s, Z: s}, {X: s, Y: s, Z: s}, {X: -s, Y: s, Z: s},
	}
	w, h := c.DotsWide(), c.DotsHigh()
	for _, e := range boxEdges {
		x1, y1, _, _, ok1 := cam.Project(v[e[0]], w, h)
		x2, y2, _, _, ok2 := cam.Project(v[e[1]], w, h)
		if !ok1 || !ok2 {
			continue
		}
		// Dashed so the outline never reads as a bond.
		steps := max(absInt(x2-x1), absInt(y2-y1))
		for i := 0; i <= steps; i += 3 {
			t := 0.0
			if steps > 0 {
				t = float64(i) / float64(steps)
			}
			x := x1 + int(math.Round(t*float64(x2-x1)))
			y := y1 + int(math.Round(t*float64(y2-y1)))
			c.SetTagged(x, y, TagBox)
		}
	}
}

// Nearest returns the atom whose projection lies closest to the dot
// (x, y), ignoring atoms behind the eye.
func Nearest(cam *Camera, snap physics.Snapshot, x, y, dotsW, dotsH int) (physics.AtomID, bool) {
	best, bestD := physics.AtomID(0), math.Inf(1)
	for _, a := range snap.Atoms {
		px, py, _, _, ok := cam.Project(dynamo.V(a.Pos[0], a.Pos[1], a.Pos[2]), dotsW, dotsH)
		if !ok {
			continue
		}
		d := math.Hypot(float64(px-x), float64(py-y))
		if d < bestD {
			best, bestD = a.ID, d
		}
	}
	return best, bestD < math.Inf(1)
}
