package slicing

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"

	"seismicview/internal/models"
)

// Projector converts a screen-space pointer displacement into a slice index
// displacement along axis. It stands in for the viewing transform.
type Projector interface {
	IndexDelta(axis models.Axis, delta r2.Vec) float64
}

// LinearProjector projects the pointer displacement onto a fixed screen
// direction per axis and divides by the on-screen size of one index step.
type LinearProjector struct {
	Directions     [3]r2.Vec
	PixelsPerIndex [3]float64
}

// DefaultProjector moves X slices with horizontal motion and Y and Z slices
// with vertical motion, one index per pixel.
func DefaultProjector() *LinearProjector {
	return &LinearProjector{
		Directions:     [3]r2.Vec{{X: 1}, {Y: -1}, {Y: 1}},
		PixelsPerIndex: [3]float64{1, 1, 1},
	}
}

// IndexDelta implements Projector.
func (p *LinearProjector) IndexDelta(axis models.Axis, delta r2.Vec) float64 {
	dir := p.Directions[axis]
	if r2.Norm(dir) == 0 || p.PixelsPerIndex[axis] == 0 {
		return 0
	}
	return r2.Dot(delta, r2.Unit(dir)) / p.PixelsPerIndex[axis]
}

// Parent is the container a node is attached to.
type Parent interface {
	Detach(n *Node) error
}

// Node is an axis-aligned slice plane. Moving it re-extracts its images in
// place; identity, highlight, anchor and attachment are kept.
type Node struct {
	id     uuid.UUID
	axis   models.Axis
	pos    int
	limit  models.Bounds
	ext    *Extractor
	images []*mat.Dense

	highlight bool
	visible   bool
	anchor    *r2.Vec
	anchorPos int
	projector Projector
	parent    Parent
	lastErr   error
	log       *logrus.Entry
}

// NodeOption configures a Node.
type NodeOption func(*Node)

// WithProjector sets the viewing transform used by Drag.
func WithProjector(p Projector) NodeOption {
	return func(n *Node) {
		n.projector = p
	}
}

// WithLogger sets the logger used for recoverable extraction failures.
func WithLogger(log *logrus.Entry) NodeOption {
	return func(n *Node) {
		n.log = log
	}
}

// NewNode creates a node on axis at position (internal coordinates). The
// position is rounded and clamped; the first extraction must succeed since
// there is no earlier image to fall back on.
func NewNode(ext *Extractor, axis models.Axis, position float64, opts ...NodeOption) (*Node, error) {
	if !axis.Valid() {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidAxis, axis)
	}
	n := &Node{
		id:        uuid.New(),
		axis:      axis,
		limit:     ext.Bounds(axis),
		ext:       ext,
		images:    make([]*mat.Dense, ext.Layers()),
		visible:   true,
		projector: DefaultProjector(),
		log:       logrus.WithField("component", "slice"),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.log = n.log.WithFields(logrus.Fields{"axis": axis.String(), "node": n.id.String()})

	pos, ok := n.limit.ClampPosition(math.Max(position, 0))
	if !ok {
		return nil, fmt.Errorf("%w: %s=%v", models.ErrOutOfRange, axis, position)
	}
	if err := n.load(pos); err != nil {
		return nil, err
	}
	return n, nil
}

// ID returns the node's unique id.
func (n *Node) ID() uuid.UUID {
	return n.id
}

// Axis returns the axis the node slices along.
func (n *Node) Axis() models.Axis {
	return n.axis
}

// Position returns the current internal slice index.
func (n *Node) Position() int {
	return n.pos
}

// ExternalPosition returns the position in external coordinates.
func (n *Node) ExternalPosition() int {
	return n.ext.ToExternal(n.axis, n.pos)
}

// Limit returns the slice bounds of the node's axis.
func (n *Node) Limit() models.Bounds {
	return n.limit
}

// Image returns the last successfully extracted slice of layer i.
func (n *Node) Image(i int) *mat.Dense {
	return n.images[i]
}

// Images returns the slices of every layer.
func (n *Node) Images() []*mat.Dense {
	return n.images
}

// Extractor returns the extractor the node reads from.
func (n *Node) Extractor() *Extractor {
	return n.ext
}

// Err returns the error of the last failed extraction, or nil when the
// displayed images are current.
func (n *Node) Err() error {
	return n.lastErr
}

// SetPosition moves the node to position (internal coordinates). Negative
// and NaN positions are ignored; others are rounded and clamped into the
// node's bounds. If the volume cannot be read the node keeps its previous
// position and images and the error wraps models.ErrDataUnavailable.
func (n *Node) SetPosition(position float64) error {
	if position < 0 {
		return nil
	}
	pos, ok := n.limit.ClampPosition(position)
	if !ok {
		return nil
	}
	if pos == n.pos && n.lastErr == nil {
		return nil
	}
	return n.load(pos)
}

// SetPositionExternal moves the node to a position given in external
// coordinates. The value is clamped in external coordinates first, so with
// the reverse convention an overshoot still lands on the far bound.
func (n *Node) SetPositionExternal(position float64) error {
	if position < 0 {
		return nil
	}
	external, ok := n.limit.ClampPosition(position)
	if !ok {
		return nil
	}
	return n.SetPosition(n.ext.ToInternal(n.axis, float64(external)))
}

// Step moves the node by delta indices, clamped to its bounds.
func (n *Node) Step(delta int) error {
	return n.SetPosition(float64(n.limit.Clamp(n.pos + delta)))
}

func (n *Node) load(pos int) error {
	images := make([]*mat.Dense, len(n.images))
	for i := range images {
		img, err := n.ext.Extract(n.axis, float64(pos), i)
		if errors.Is(err, models.ErrOutOfRange) {
			panic(fmt.Sprintf("slicing: clamped position escaped bounds: %v", err))
		}
		if err != nil {
			n.lastErr = err
			n.log.WithError(err).WithField("position", pos).Warn("Keeping last slice image")
			return fmt.Errorf("slice %s=%d: %w", n.axis, pos, err)
		}
		images[i] = img
	}
	copy(n.images, images)
	n.pos = pos
	n.lastErr = nil
	return nil
}

// Pickable reports whether the node takes part in hit-testing.
func (n *Node) Pickable() bool {
	return n.visible && n.parent != nil
}

// Visible reports whether the node is shown.
func (n *Node) Visible() bool {
	return n.visible
}

// SetVisible shows or hides the node.
func (n *Node) SetVisible(v bool) {
	n.visible = v
}

// Highlighted reports whether the highlight overlay is on.
func (n *Node) Highlighted() bool {
	return n.highlight
}

// SetHighlight toggles the highlight overlay.
func (n *Node) SetHighlight(on bool) {
	n.highlight = on
}

// SetAnchor records pos as the drag origin.
func (n *Node) SetAnchor(pos r2.Vec) {
	n.anchor = &pos
	n.anchorPos = n.pos
}

// ClearAnchor ends a drag.
func (n *Node) ClearAnchor() {
	n.anchor = nil
}

// Anchor returns the drag origin, if any.
func (n *Node) Anchor() (r2.Vec, bool) {
	if n.anchor == nil {
		return r2.Vec{}, false
	}
	return *n.anchor, true
}

// Drag moves the node by the projected displacement between the anchor and
// pos, relative to the position the node had when the anchor was set.
func (n *Node) Drag(pos r2.Vec) error {
	if n.anchor == nil {
		return nil
	}
	delta := n.projector.IndexDelta(n.axis, r2.Sub(pos, *n.anchor))
	target := math.Max(float64(n.anchorPos)+delta, 0)
	return n.SetPosition(target)
}

// Parent returns the container the node is attached to, or nil.
func (n *Node) Parent() Parent {
	return n.parent
}

// SetParent is called by containers on attach and detach.
func (n *Node) SetParent(p Parent) {
	n.parent = p
}

// Detach removes the node from its container.
func (n *Node) Detach() error {
	if n.parent == nil {
		return nil
	}
	return n.parent.Detach(n)
}

func (n *Node) String() string {
	return fmt.Sprintf("%s=%d", n.axis, n.pos)
}
