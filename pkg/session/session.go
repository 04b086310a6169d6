// Package session ties one canvas worth of state together: the slice
// nodes and their scene, the interaction controller, the inertial camera
// and the box geometry. A Session is created with the canvas and closed
// with it; every handler is expected to run on the canvas event loop.
package session

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r2"

	"seismicview/internal/models"
	"seismicview/pkg/camera"
	"seismicview/pkg/config"
	"seismicview/pkg/grid"
	"seismicview/pkg/interaction"
	"seismicview/pkg/scene"
	"seismicview/pkg/slicing"
)

// Geometry is the box drawn around the volume.
type Geometry struct {
	Wireframe []grid.Segment
	Labels    grid.AxisLabels
	Names     [3]grid.Label
	Legend    grid.Legend
}

// Snapshot reports session state for logging and scripted runs.
type Snapshot struct {
	Positions     map[string][]int `yaml:"positions"`
	Camera        camera.State     `yaml:"camera"`
	Interaction   string           `yaml:"interaction"`
	DragMode      bool             `yaml:"dragMode"`
	InertiaActive bool             `yaml:"inertiaActive"`
}

// Session is the per-canvas context passed to event handlers.
type Session struct {
	cfg   *config.Config
	ext   *slicing.Extractor
	scene *scene.Scene
	ctrl  *interaction.Controller
	cam   *camera.Inertial

	geometry Geometry
	width    int
	height   int
	sliders  [3]int
	log      *logrus.Entry
}

// scenePicker exposes scene hit-testing through the controller's Picker.
type scenePicker struct {
	s *scene.Scene
}

func (p scenePicker) Pick(pos r2.Vec) interaction.Target {
	if n := p.s.PickAt(pos); n != nil {
		return n
	}
	return nil
}

// New builds the session for cfg. Slice positions in cfg are external
// coordinates. Axis tokens are checked before any node is created. sched
// drives the camera decay; it may be nil when the caller ticks the camera.
func New(cfg *config.Config, ext *slicing.Extractor, sched camera.Scheduler) (*Session, error) {
	type request struct {
		axis models.Axis
		pos  float64
	}
	var requests []request
	for i, sc := range cfg.Slices {
		axis, err := models.ParseAxis(sc.Axis)
		if err != nil {
			return nil, fmt.Errorf("slices[%d]: %w", i, err)
		}
		for _, p := range sc.Positions {
			requests = append(requests, request{axis: axis, pos: p})
		}
	}

	s := &Session{
		cfg:    cfg,
		ext:    ext,
		scene:  scene.New(),
		width:  cfg.Canvas.Width,
		height: cfg.Canvas.Height,
		log:    logrus.WithField("component", "session"),
	}
	s.cam = camera.New(cfg.CameraDefaults(), cfg.Inertia, sched)
	s.ctrl = interaction.NewController(scenePicker{s: s.scene}, s.scene, s.cam)

	s.scene.OnDetach(func(n *slicing.Node) {
		s.ctrl.Forget(n)
	})
	s.ctrl.OnReset(s.rebuildLegend)
	s.ctrl.SetReporter(s.report)
	s.cam.OnChange(func(camera.State) {
		s.rebuildLegend()
		s.refreshFootprints()
	})

	seen := [3]bool{}
	for _, r := range requests {
		external, ok := ext.Bounds(r.axis).ClampPosition(r.pos)
		if !ok {
			s.scene.Clear()
			return nil, fmt.Errorf("%w: %s slice at %v", models.ErrOutOfRange, r.axis, r.pos)
		}
		node, err := slicing.NewNode(ext, r.axis, ext.ToInternal(r.axis, float64(external)),
			slicing.WithLogger(s.log), slicing.WithProjector(viewProjector{s: s}))
		if err != nil {
			s.scene.Clear()
			return nil, fmt.Errorf("creating %s slice at %v: %w", r.axis, r.pos, err)
		}
		if err := s.scene.Attach(node); err != nil {
			s.scene.Clear()
			return nil, err
		}
		if !seen[r.axis] {
			s.sliders[r.axis] = node.ExternalPosition()
			seen[r.axis] = true
		}
	}

	if err := s.buildGeometry(); err != nil {
		s.scene.Clear()
		return nil, err
	}
	s.refreshFootprints()

	s.log.WithFields(logrus.Fields{
		"shape":  ext.Shape().String(),
		"slices": len(s.scene.Nodes()),
		"layers": ext.Layers(),
	}).Info("Session ready")
	return s, nil
}

func (s *Session) buildGeometry() error {
	shape := s.ext.Shape()
	labels, err := grid.BuildAxisLabels(shape, s.cfg.Grid.SpacingX, s.cfg.Grid.SpacingY, s.cfg.Grid.SpacingZ)
	if err != nil {
		return err
	}
	s.geometry.Wireframe = grid.BuildWireframe(shape)
	s.geometry.Labels = labels
	s.geometry.Names = grid.BuildAxisNames(shape)
	s.rebuildLegend()
	return nil
}

func (s *Session) rebuildLegend() {
	st := s.cam.State()
	s.geometry.Legend = grid.BuildLegend(s.width, s.height, grid.BottomLeft, st.Azimuth, st.Elevation)
}

// Scene returns the scene holding the slice nodes.
func (s *Session) Scene() *scene.Scene {
	return s.scene
}

// Controller returns the interaction controller.
func (s *Session) Controller() *interaction.Controller {
	return s.ctrl
}

// Camera returns the inertial camera.
func (s *Session) Camera() *camera.Inertial {
	return s.cam
}

// Extractor returns the slice extractor.
func (s *Session) Extractor() *slicing.Extractor {
	return s.ext
}

// Geometry returns the current box geometry.
func (s *Session) Geometry() Geometry {
	return s.geometry
}

// Slider returns the external position last requested for axis.
func (s *Session) Slider(axis models.Axis) int {
	return s.sliders[axis]
}

// SetPosition moves every slice on axis to value (external coordinates).
// Negative and NaN values are ignored.
func (s *Session) SetPosition(axis models.Axis, value float64) error {
	if !axis.Valid() {
		return fmt.Errorf("%w: %v", models.ErrInvalidAxis, axis)
	}
	if value < 0 {
		return nil
	}
	pos, ok := s.ext.Bounds(axis).ClampPosition(value)
	if !ok {
		return nil
	}
	s.sliders[axis] = pos

	var errs []error
	for _, n := range s.scene.NodesOn(axis) {
		if err := n.SetPositionExternal(float64(s.sliders[axis])); err != nil {
			errs = append(errs, err)
		}
	}
	s.refreshFootprints()
	return errors.Join(errs...)
}

// Step moves the slices on axis by delta, clamped to the axis bounds.
func (s *Session) Step(axis models.Axis, delta int) error {
	if !axis.Valid() {
		return fmt.Errorf("%w: %v", models.ErrInvalidAxis, axis)
	}
	return s.SetPosition(axis, float64(s.ext.Bounds(axis).Clamp(s.sliders[axis]+delta)))
}

// ToggleDragMode flips slice drag mode.
func (s *Session) ToggleDragMode() {
	s.ctrl.ToggleDragMode()
}

// ResetView restores the default camera and legend.
func (s *Session) ResetView() {
	s.ctrl.ResetView()
}

// Resize records the new canvas size and rebuilds viewport geometry.
func (s *Session) Resize(width, height int) {
	s.width, s.height = width, height
	s.rebuildLegend()
	s.refreshFootprints()
}

// Size returns the canvas size.
func (s *Session) Size() (int, int) {
	return s.width, s.height
}

func (s *Session) PointerPress(ev interaction.PointerEvent) { s.ctrl.PointerPress(ev) }
func (s *Session) KeyPress(ev interaction.KeyEvent)         { s.ctrl.KeyPress(ev) }
func (s *Session) KeyRelease(ev interaction.KeyEvent)       { s.ctrl.KeyRelease(ev) }

// PointerMove forwards to the controller and keeps a dragged slice's
// footprint under the pointer.
func (s *Session) PointerMove(ev interaction.PointerEvent) {
	s.ctrl.PointerMove(ev)
	if s.ctrl.State() == interaction.Dragging {
		s.refreshFootprints()
	}
}

// PointerRelease forwards to the controller and re-projects the slices
// once a drag has ended.
func (s *Session) PointerRelease(ev interaction.PointerEvent) {
	s.ctrl.PointerRelease(ev)
	s.refreshFootprints()
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	positions := make(map[string][]int)
	for _, n := range s.scene.Nodes() {
		key := n.Axis().String()
		positions[key] = append(positions[key], n.ExternalPosition())
	}
	return Snapshot{
		Positions:     positions,
		Camera:        s.cam.State(),
		Interaction:   s.ctrl.State().String(),
		DragMode:      s.ctrl.DragMode(),
		InertiaActive: s.cam.InertiaActive(),
	}
}

func (s *Session) report() logrus.Fields {
	snap := s.Snapshot()
	return logrus.Fields{
		"canvas":    fmt.Sprintf("%dx%d", s.width, s.height),
		"camera":    snap.Camera,
		"slices":    snap.Positions,
		"legendLoc": s.geometry.Legend.Origin,
	}
}

// Close stops the camera and detaches every node.
func (s *Session) Close() {
	s.cam.Close()
	s.scene.Clear()
}
