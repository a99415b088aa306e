package viz

import (
	"math"

	"github.com/san-kum/chemsim/internal/dynamo"
)

// Camera projects simulation space onto a canvas. The view orbits the box
// centre; Extent is the half-size of the region kept in frame.
type Camera struct {
	RotX, RotY float64
	Zoom       float64
	Extent     float64
	Distance   float64 // eye distance in Extent units; 0 gives orthographic
}

func NewCamera(extent float64) *Camera {
	if extent <= 0 {
		extent = 10
	}
	return &Camera{Zoom: 1.0, Extent: extent, Distance: 4}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// Reset returns to the straight-on x/y view.
func (c *Camera) Reset() {
	c.RotX, c.RotY, c.Zoom = 0, 0, 1
}

// RotatePoint rotates a point around the camera's axes.
func (c *Camera) RotatePoint(p dynamo.Vec3) dynamo.Vec3 {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	return p.RotateY(c.RotY)
}

// Scale is the number of dots per simulation length unit at depth zero.
func (c *Camera) Scale(dotsW, dotsH int) float64 {
	minDim := float64(min(dotsW, dotsH))
	return minDim / (2 * c.Extent) * c.Zoom
}

// Project converts a simulation position to dot coordinates on a dotsW x
// dotsH canvas. It returns the dot position, the perspective factor, the
// depth (larger is nearer) and whether the point is in front of the eye.
func (c *Camera) Project(p dynamo.Vec3, dotsW, dotsH int) (x, y int, persp, depth float64, ok bool) {
	rot := c.RotatePoint(p)
	persp = 1.0
	if c.Distance > 0 {
		eye := c.Distance * c.Extent
		if rot.Z >= eye*0.95 {
			return 0, 0, 0, rot.Z, false
		}
		persp = eye / (eye - rot.Z)
	}
	s := c.Scale(dotsW, dotsH) * persp
	x = int(math.Round(rot.X*s)) + dotsW/2
	y = int(math.Round(-rot.Y*s)) + dotsH/2
	return x, y, persp, rot.Z, true
}

// Unproject maps a dot position back onto the plane through the box
// centre that faces the camera. Rotation is undone, perspective is not.
func (c *Camera) Unproject(x, y, dotsW, dotsH int) dynamo.Vec3 {
	s := c.Scale(dotsW, dotsH)
	if s == 0 {
		return dynamo.Vec3{}
	}
	p := dynamo.V(float64(x-dotsW/2)/s, -float64(y-dotsH/2)/s, 0)
	p = p.RotateY(-c.RotY)
	cx, sx := math.Cos(-c.RotX), math.Sin(-c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	return p
}
