// Package scene holds the slice nodes shown in one view and answers
// pointer hit-tests against the screen footprints the renderer reports.
package scene

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"seismicview/internal/models"
	"seismicview/pkg/slicing"
)

// Footprint is the projected outline of a node on screen. Depth orders
// overlapping footprints; smaller is closer to the viewer.
type Footprint struct {
	Polygon []r2.Vec
	Depth   float64
}

// Contains reports whether p lies inside or on the convex polygon. A
// polygon seen edge-on has no area and contains nothing.
func (f Footprint) Contains(p r2.Vec) bool {
	n := len(f.Polygon)
	if n < 3 || math.Abs(f.area()) < 1e-9 {
		return false
	}
	var positive, negative bool
	for i := 0; i < n; i++ {
		a := f.Polygon[i]
		b := f.Polygon[(i+1)%n]
		cross := r2.Cross(r2.Sub(b, a), r2.Sub(p, a))
		if cross > 0 {
			positive = true
		} else if cross < 0 {
			negative = true
		}
		if positive && negative {
			return false
		}
	}
	return true
}

// area is the signed shoelace area of the polygon.
func (f Footprint) area() float64 {
	var sum float64
	for i, a := range f.Polygon {
		sum += r2.Cross(a, f.Polygon[(i+1)%len(f.Polygon)])
	}
	return sum / 2
}

// Scene exclusively owns its attached nodes. Detach hooks run before a node
// is removed so that holders of non-owning references can drop them.
type Scene struct {
	nodes       []*slicing.Node
	footprints  map[*slicing.Node]Footprint
	interactive bool
	onDetach    []func(*slicing.Node)
}

// New returns an empty, interactive scene.
func New() *Scene {
	return &Scene{
		footprints:  make(map[*slicing.Node]Footprint),
		interactive: true,
	}
}

// Attach adds n to the scene. A node can belong to one scene at a time.
func (s *Scene) Attach(n *slicing.Node) error {
	if p := n.Parent(); p != nil {
		if p == slicing.Parent(s) {
			return nil
		}
		return fmt.Errorf("node %v is attached elsewhere", n)
	}
	s.nodes = append(s.nodes, n)
	n.SetParent(s)
	return nil
}

// Detach removes n from the scene after running the detach hooks.
func (s *Scene) Detach(n *slicing.Node) error {
	idx := s.indexOf(n)
	if idx < 0 {
		return fmt.Errorf("node %v is not attached", n)
	}
	for _, hook := range s.onDetach {
		hook(n)
	}
	s.nodes = append(s.nodes[:idx], s.nodes[idx+1:]...)
	delete(s.footprints, n)
	n.SetParent(nil)
	return nil
}

// Clear detaches every node.
func (s *Scene) Clear() {
	for len(s.nodes) > 0 {
		_ = s.Detach(s.nodes[len(s.nodes)-1])
	}
}

// OnDetach registers fn to run before any node leaves the scene.
func (s *Scene) OnDetach(fn func(*slicing.Node)) {
	s.onDetach = append(s.onDetach, fn)
}

// Nodes returns the attached nodes in attach order.
func (s *Scene) Nodes() []*slicing.Node {
	return s.nodes
}

// NodesOn returns the attached nodes on axis.
func (s *Scene) NodesOn(axis models.Axis) []*slicing.Node {
	var out []*slicing.Node
	for _, n := range s.nodes {
		if n.Axis() == axis {
			out = append(out, n)
		}
	}
	return out
}

// SetFootprint records where n currently appears on screen.
func (s *Scene) SetFootprint(n *slicing.Node, f Footprint) {
	if s.indexOf(n) < 0 {
		return
	}
	s.footprints[n] = f
}

// Footprint returns the screen footprint recorded for n.
func (s *Scene) Footprint(n *slicing.Node) (Footprint, bool) {
	f, ok := s.footprints[n]
	return f, ok
}

// SetInteractive toggles the view's own background picking. While it is on
// the background swallows every pick ray.
func (s *Scene) SetInteractive(on bool) {
	s.interactive = on
}

// Interactive reports whether background picking is on.
func (s *Scene) Interactive() bool {
	return s.interactive
}

// PickAt returns the front-most pickable node whose footprint contains pos.
func (s *Scene) PickAt(pos r2.Vec) *slicing.Node {
	if s.interactive {
		return nil
	}

	type hit struct {
		node  *slicing.Node
		depth float64
	}
	var hits []hit
	for _, n := range s.nodes {
		f, ok := s.footprints[n]
		if !ok || !n.Pickable() || !f.Contains(pos) {
			continue
		}
		hits = append(hits, hit{node: n, depth: f.Depth})
	}
	if len(hits) == 0 {
		return nil
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].depth < hits[j].depth
	})
	return hits[0].node
}

func (s *Scene) indexOf(n *slicing.Node) int {
	for i, m := range s.nodes {
		if m == n {
			return i
		}
	}
	return -1
}
