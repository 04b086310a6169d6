package session

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"seismicview/internal/models"
	"seismicview/pkg/scene"
	"seismicview/pkg/slicing"
)

// viewFill is the share of the shorter canvas side taken by the volume
// diagonal at scale factor 1.
const viewFill = 0.8

// project maps a point in storage index space onto the canvas with an
// orthographic view oriented like the camera. depth grows away from the
// viewer.
func (s *Session) project(p r3.Vec) (pos r2.Vec, depth float64) {
	q := s.rotate(r3.Sub(p, s.boxCenter()))
	scale := s.viewScale()
	return r2.Vec{
		X: float64(s.width)/2 + q.X*scale,
		Y: float64(s.height)/2 - q.Z*scale,
	}, q.Y
}

func (s *Session) rotate(v r3.Vec) r3.Vec {
	st := s.cam.State()
	az := r3.NewRotation(st.Azimuth*math.Pi/180, r3.Vec{Z: 1})
	el := r3.NewRotation(st.Elevation*math.Pi/180, r3.Vec{X: 1})
	return el.Rotate(az.Rotate(v))
}

func (s *Session) boxCenter() r3.Vec {
	shape := s.ext.Shape()
	return r3.Vec{
		X: float64(shape[0]-1) / 2,
		Y: float64(shape[1]-1) / 2,
		Z: float64(shape[2]-1) / 2,
	}
}

func (s *Session) viewScale() float64 {
	diag := r3.Norm(r3.Scale(2, s.boxCenter()))
	scale := viewFill * math.Min(float64(s.width), float64(s.height)) / math.Max(diag, 1)
	if f := s.cam.State().ScaleFactor; f > 0 {
		scale *= f
	}
	return scale
}

// ScreenStep returns the canvas displacement of one index step along axis.
func (s *Session) ScreenStep(axis models.Axis) r2.Vec {
	var unit r3.Vec
	switch axis {
	case models.X:
		unit.X = 1
	case models.Y:
		unit.Y = 1
	case models.Z:
		unit.Z = 1
	}
	q := s.rotate(unit)
	scale := s.viewScale()
	return r2.Vec{X: q.X * scale, Y: -q.Z * scale}
}

// planeFootprint projects the outline of n's slice plane.
func (s *Session) planeFootprint(n *slicing.Node) scene.Footprint {
	shape := s.ext.Shape()
	hi := [3]float64{float64(shape[0] - 1), float64(shape[1] - 1), float64(shape[2] - 1)}
	a := int(n.Axis())
	u, v := (a+1)%3, (a+2)%3

	var f scene.Footprint
	for _, corner := range [4][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
		var p [3]float64
		p[a] = float64(n.Position())
		p[u] = corner[0] * hi[u]
		p[v] = corner[1] * hi[v]
		pos, depth := s.project(r3.Vec{X: p[0], Y: p[1], Z: p[2]})
		f.Polygon = append(f.Polygon, pos)
		f.Depth += depth / 4
	}
	return f
}

// refreshFootprints re-projects every node after the camera, the canvas or
// a slice position changed.
func (s *Session) refreshFootprints() {
	for _, n := range s.scene.Nodes() {
		s.scene.SetFootprint(n, s.planeFootprint(n))
	}
}

// Footprint returns where n currently appears on the canvas.
func (s *Session) Footprint(n *slicing.Node) (scene.Footprint, bool) {
	return s.scene.Footprint(n)
}

// viewProjector turns pointer motion into index motion by projecting it
// onto the on-screen direction of the node's axis.
type viewProjector struct {
	s *Session
}

func (p viewProjector) IndexDelta(axis models.Axis, delta r2.Vec) float64 {
	step := p.s.ScreenStep(axis)
	norm2 := r2.Dot(step, step)
	if norm2 < 1e-12 {
		return 0
	}
	return r2.Dot(delta, step) / norm2
}
