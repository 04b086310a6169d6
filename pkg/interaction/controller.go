// Package interaction mediates pointer and keyboard input between slice
// nodes and the camera.
//
// Slice manipulation is gated on drag mode, which is toggled with the "d"
// key or held with Ctrl. In drag mode a primary press on a slice selects
// and highlights it, moving the pointer drags it along its axis, and a
// release (or letting go of Ctrl) drops it. Outside drag mode primary drags
// orbit the camera. Events that match no transition are ignored.
package interaction

import (
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r2"
)

// Target is the interaction capability of a scene node.
type Target interface {
	SetHighlight(on bool)
	SetAnchor(pos r2.Vec)
	ClearAnchor()
	Drag(pos r2.Vec) error
}

// Picker hit-tests the scene front to back and returns the first target
// under pos, or nil.
type Picker interface {
	Pick(pos r2.Vec) Target
}

// View is the containing view whose own background picking must be off
// while the controller hit-tests, or it swallows the pick ray.
type View interface {
	SetInteractive(on bool)
	Interactive() bool
}

// Camera receives the pointer input that does not manipulate slices.
// Stop halts any coasting motion without starting a drag.
type Camera interface {
	Press(pos r2.Vec)
	Stop()
	Move(pos r2.Vec)
	Release()
	Orbit(delta r2.Vec)
	Reset()
}

// State is the controller state.
type State int

const (
	Idle State = iota
	Hovering
	Selected
	Dragging
)

func (s State) String() string {
	switch s {
	case Hovering:
		return "hovering"
	case Selected:
		return "selected"
	case Dragging:
		return "dragging"
	}
	return "idle"
}

// Controller is the per-canvas interaction state machine. It holds
// non-owning references to targets; owners must call Forget before a
// target goes away.
type Controller struct {
	picker Picker
	view   View
	camera Camera

	dragMode bool
	hovered  Target
	selected Target
	dragging bool

	orbiting bool
	lastPos  r2.Vec

	onReset  []func()
	reporter func() logrus.Fields
	log      *logrus.Entry
}

// NewController creates an idle controller. camera may be nil.
func NewController(picker Picker, view View, camera Camera) *Controller {
	return &Controller{
		picker: picker,
		view:   view,
		camera: camera,
		log:    logrus.WithField("component", "interaction"),
	}
}

// State returns the current state.
func (c *Controller) State() State {
	switch {
	case c.selected != nil && c.dragging:
		return Dragging
	case c.selected != nil:
		return Selected
	case c.hovered != nil:
		return Hovering
	}
	return Idle
}

// DragMode reports whether drag mode is toggled on.
func (c *Controller) DragMode() bool {
	return c.dragMode
}

// Hovered returns the target under the pointer, if any.
func (c *Controller) Hovered() Target {
	return c.hovered
}

// Selected returns the selected target, if any.
func (c *Controller) Selected() Target {
	return c.selected
}

// OnReset registers fn to run after the view is reset, for geometry that
// depends on the viewport.
func (c *Controller) OnReset(fn func()) {
	c.onReset = append(c.onReset, fn)
}

// SetReporter sets the source of the parameter dump logged on the "a" key.
func (c *Controller) SetReporter(fn func() logrus.Fields) {
	c.reporter = fn
}

func (c *Controller) active(mods Modifiers) bool {
	return c.dragMode || mods.Has(ModCtrl)
}

// hitTest picks with the view's own picking disabled, then restores it.
func (c *Controller) hitTest(pos r2.Vec) Target {
	prev := c.view.Interactive()
	c.view.SetInteractive(false)
	defer c.view.SetInteractive(prev)
	return c.picker.Pick(pos)
}

// PointerPress handles a button press.
func (c *Controller) PointerPress(ev PointerEvent) {
	c.lastPos = ev.Pos
	if c.camera != nil {
		// any press stops camera inertia; only the primary button tracks
		if ev.Button == ButtonPrimary {
			c.camera.Press(ev.Pos)
		} else {
			c.camera.Stop()
		}
	}

	if !c.active(ev.Modifiers) {
		c.orbiting = ev.Button == ButtonPrimary
		return
	}

	hit := c.hitTest(ev.Pos)
	if ev.Button != ButtonPrimary || c.selected != nil || hit == nil {
		return
	}
	c.selected = hit
	c.dragging = false
	hit.SetHighlight(true)
	hit.SetAnchor(ev.Pos)
	c.log.Debug("Slice selected")
}

// PointerMove handles pointer motion.
func (c *Controller) PointerMove(ev PointerEvent) {
	delta := r2.Sub(ev.Pos, c.lastPos)
	c.lastPos = ev.Pos

	if !c.active(ev.Modifiers) {
		if c.orbiting && ev.Button == ButtonPrimary && c.camera != nil {
			c.camera.Orbit(delta)
			c.camera.Move(ev.Pos)
		}
		return
	}

	hit := c.hitTest(ev.Pos)
	if ev.Button == ButtonPrimary {
		if c.selected == nil {
			return
		}
		c.dragging = true
		if err := c.selected.Drag(ev.Pos); err != nil {
			c.log.WithError(err).Warn("Slice drag failed")
		}
		return
	}
	if ev.Button == ButtonNone {
		c.setHovered(hit)
	}
}

// PointerRelease handles a button release.
func (c *Controller) PointerRelease(ev PointerEvent) {
	c.lastPos = ev.Pos
	if c.orbiting && ev.Button == ButtonPrimary {
		c.orbiting = false
		if c.camera != nil {
			c.camera.Release()
		}
	}
	if c.active(ev.Modifiers) && c.selected != nil {
		c.releaseSelection()
	}
}

// KeyPress handles key presses: space resets the view, "d" toggles drag
// mode and "a" logs the current parameters.
func (c *Controller) KeyPress(ev KeyEvent) {
	switch {
	case ev.Key == KeySpace || ev.Text == " ":
		c.ResetView()
	case ev.Text == "d":
		c.ToggleDragMode()
	case ev.Text == "a":
		c.report()
	}
}

// KeyRelease drops any selection and hover when Ctrl is let go.
func (c *Controller) KeyRelease(ev KeyEvent) {
	if ev.Key == KeyControl {
		c.exitDragMode()
	}
}

// ToggleDragMode flips drag mode. Turning it off ends any drag in
// progress as a release would.
func (c *Controller) ToggleDragMode() {
	c.dragMode = !c.dragMode
	if c.dragMode {
		if c.orbiting && c.camera != nil {
			c.camera.Release()
		}
		c.orbiting = false
	} else {
		c.exitDragMode()
	}
	c.log.WithField("dragMode", c.dragMode).Info("Drag mode toggled")
}

// ResetView restores the camera defaults and rebuilds viewport geometry.
func (c *Controller) ResetView() {
	if c.camera != nil {
		c.camera.Reset()
	}
	for _, fn := range c.onReset {
		fn()
	}
}

// Forget drops every reference to t.
func (c *Controller) Forget(t Target) {
	if c.hovered == t {
		c.hovered = nil
	}
	if c.selected == t {
		c.selected = nil
		c.dragging = false
	}
}

func (c *Controller) setHovered(hit Target) {
	if hit == c.hovered {
		return
	}
	if c.hovered != nil && c.hovered != c.selected {
		c.hovered.SetHighlight(false)
	}
	c.hovered = hit
	if hit != nil {
		hit.SetHighlight(true)
	}
}

func (c *Controller) releaseSelection() {
	c.selected.ClearAnchor()
	c.selected.SetHighlight(false)
	if c.hovered == c.selected {
		c.hovered = nil
	}
	c.selected = nil
	c.dragging = false
	c.log.Debug("Slice released")
}

func (c *Controller) exitDragMode() {
	if c.hovered != nil {
		c.hovered.SetHighlight(false)
		c.hovered = nil
	}
	if c.selected != nil {
		c.releaseSelection()
	}
}

func (c *Controller) report() {
	if c.reporter == nil {
		return
	}
	c.log.WithFields(c.reporter()).Info("All useful parameters")
}
