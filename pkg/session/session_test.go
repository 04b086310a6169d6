package session

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"seismicview/internal/models"
	"seismicview/pkg/config"
	"seismicview/pkg/interaction"
	"seismicview/pkg/scene"
)

func newSession(t *testing.T, mutate func(*config.Config)) *Session {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Data.Shape = [3]int{25, 50, 80}
	cfg.Slices = []config.SliceConfig{{Axis: "x", Positions: []float64{10}}}
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	ext, closer, err := OpenExtractor(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { closer.Close() })

	s, err := New(cfg, ext, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func square(x0, y0, size float64) []r2.Vec {
	return []r2.Vec{{X: x0, Y: y0}, {X: x0 + size, Y: y0}, {X: x0 + size, Y: y0 + size}, {X: x0, Y: y0 + size}}
}

func TestStepScenario(t *testing.T) {
	s := newSession(t, nil)

	a, b := s.Extractor().ShapeOf(models.X)
	assert.Equal(t, []int{50, 80}, []int{a, b})

	nodes := s.Scene().NodesOn(models.X)
	require.Len(t, nodes, 1)
	assert.Equal(t, 10, nodes[0].Position())

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Step(models.X, 1))
	}
	assert.Equal(t, 15, nodes[0].Position())

	for i := 0; i < 15; i++ {
		require.NoError(t, s.Step(models.X, 1))
	}
	assert.Equal(t, 24, nodes[0].Position())
	assert.Equal(t, 24, s.Slider(models.X))
}

func TestSetPosition(t *testing.T) {
	s := newSession(t, func(cfg *config.Config) {
		cfg.Data.ReverseConvention = true
		cfg.Slices = []config.SliceConfig{
			{Axis: "y", Positions: []float64{5}},
			{Axis: "z", Positions: []float64{0, 20}},
		}
	})

	y := s.Scene().NodesOn(models.Y)[0]
	assert.Equal(t, 49-5, y.Position(), "configured positions are external")

	require.NoError(t, s.SetPosition(models.Y, 12))
	assert.Equal(t, 49-12, y.Position())
	assert.Equal(t, 12, y.ExternalPosition())

	require.NoError(t, s.SetPosition(models.Y, -1))
	assert.Equal(t, 12, y.ExternalPosition())

	require.NoError(t, s.SetPosition(models.Z, 500))
	for _, n := range s.Scene().NodesOn(models.Z) {
		assert.Equal(t, 0, n.Position())
		assert.Equal(t, 79, n.ExternalPosition())
	}

	assert.ErrorIs(t, s.SetPosition(models.Axis(4), 1), models.ErrInvalidAxis)
	assert.Equal(t, map[string][]int{"y": {12}, "z": {79, 79}}, s.Snapshot().Positions)
}

func TestInvalidAxisFailsFast(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Slices = []config.SliceConfig{{Axis: "x", Positions: []float64{1}}, {Axis: "t", Positions: []float64{1}}}
	ext, closer, err := OpenExtractor(cfg)
	require.NoError(t, err)
	defer closer.Close()

	_, err = New(cfg, ext, nil)
	assert.ErrorIs(t, err, models.ErrInvalidAxis)
}

func centroid(poly []r2.Vec) r2.Vec {
	var c r2.Vec
	for _, p := range poly {
		c = r2.Add(c, p)
	}
	return r2.Scale(1/float64(len(poly)), c)
}

func TestDragSliceThroughScene(t *testing.T) {
	s := newSession(t, nil)
	node := s.Scene().NodesOn(models.X)[0]
	fp, ok := s.Footprint(node)
	require.True(t, ok, "slices are projected onto the canvas")
	start := centroid(fp.Polygon)
	step := s.ScreenStep(models.X)
	require.Greater(t, r2.Norm(step), 0.0)

	press := interaction.PointerEvent{Pos: start, Button: interaction.ButtonPrimary}
	s.PointerPress(press)
	assert.Equal(t, interaction.Idle, s.Controller().State(), "drag mode is off")

	s.ToggleDragMode()
	s.PointerPress(press)
	assert.Equal(t, interaction.Selected, s.Controller().State())
	assert.True(t, node.Highlighted())
	assert.True(t, s.Scene().Interactive(), "view picking is restored")

	s.PointerMove(interaction.PointerEvent{Pos: r2.Add(start, r2.Scale(2, step)), Button: interaction.ButtonPrimary})
	end := r2.Add(start, r2.Scale(5, step))
	s.PointerMove(interaction.PointerEvent{Pos: end, Button: interaction.ButtonPrimary})
	assert.Equal(t, interaction.Dragging, s.Controller().State())
	assert.Equal(t, 15, node.Position())

	moved, _ := s.Footprint(node)
	assert.InDelta(t, end.X, centroid(moved.Polygon).X, 1e-6, "footprint follows the slice")
	assert.InDelta(t, end.Y, centroid(moved.Polygon).Y, 1e-6)

	s.PointerRelease(interaction.PointerEvent{Pos: end, Button: interaction.ButtonPrimary})
	assert.Equal(t, interaction.Idle, s.Controller().State())
	assert.False(t, node.Highlighted())
	_, anchored := node.Anchor()
	assert.False(t, anchored)
}

func TestManualFootprintPick(t *testing.T) {
	s := newSession(t, nil)
	node := s.Scene().NodesOn(models.X)[0]
	s.Scene().SetFootprint(node, scene.Footprint{Polygon: square(1000, 1000, 50)})

	s.ToggleDragMode()
	s.PointerPress(interaction.PointerEvent{Pos: r2.Vec{X: 1010, Y: 1010}, Button: interaction.ButtonPrimary})
	assert.Same(t, node, s.Controller().Selected())
}

func TestSetPositionExtremes(t *testing.T) {
	s := newSession(t, nil)
	node := s.Scene().NodesOn(models.X)[0]

	require.NoError(t, s.SetPosition(models.X, 1e20))
	assert.Equal(t, 24, node.Position())
	assert.Equal(t, 24, s.Slider(models.X))

	require.NoError(t, s.SetPosition(models.X, math.NaN()))
	assert.Equal(t, 24, node.Position())

	require.NoError(t, s.SetPosition(models.X, math.Inf(1)))
	assert.Equal(t, 24, node.Position())
}

func TestSecondaryPressStopsInertia(t *testing.T) {
	s := newSession(t, nil)

	s.PointerPress(interaction.PointerEvent{Pos: r2.Vec{X: 100, Y: 100}, Button: interaction.ButtonPrimary})
	s.PointerMove(interaction.PointerEvent{Pos: r2.Vec{X: 110, Y: 100}, Button: interaction.ButtonPrimary})
	s.PointerRelease(interaction.PointerEvent{Pos: r2.Vec{X: 110, Y: 100}, Button: interaction.ButtonPrimary})
	require.True(t, s.Camera().InertiaActive())

	s.PointerPress(interaction.PointerEvent{Pos: r2.Vec{X: 300, Y: 300}, Button: interaction.ButtonSecondary})
	assert.False(t, s.Camera().InertiaActive())
	assert.Equal(t, r2.Vec{}, s.Camera().Velocity())
}

func TestDetachForgetsReferences(t *testing.T) {
	s := newSession(t, nil)
	node := s.Scene().NodesOn(models.X)[0]
	s.Scene().SetFootprint(node, scene.Footprint{Polygon: square(0, 0, 100)})

	s.ToggleDragMode()
	s.PointerMove(interaction.PointerEvent{Pos: r2.Vec{X: 50, Y: 50}})
	s.PointerPress(interaction.PointerEvent{Pos: r2.Vec{X: 50, Y: 50}, Button: interaction.ButtonPrimary})
	require.NotNil(t, s.Controller().Selected())

	require.NoError(t, node.Detach())
	assert.Nil(t, s.Controller().Selected())
	assert.Nil(t, s.Controller().Hovered())
	assert.Equal(t, interaction.Idle, s.Controller().State())
}

func TestOrbitInertiaAndReset(t *testing.T) {
	s := newSession(t, nil)
	defaults := s.Camera().State()
	legend := s.Geometry().Legend
	node := s.Scene().NodesOn(models.X)[0]
	before, _ := s.Footprint(node)

	s.PointerPress(interaction.PointerEvent{Pos: r2.Vec{X: 100, Y: 100}, Button: interaction.ButtonPrimary})
	s.PointerMove(interaction.PointerEvent{Pos: r2.Vec{X: 120, Y: 100}, Button: interaction.ButtonPrimary})
	s.PointerRelease(interaction.PointerEvent{Pos: r2.Vec{X: 120, Y: 100}, Button: interaction.ButtonPrimary})

	assert.Equal(t, defaults.Azimuth+10, s.Camera().State().Azimuth, "live orbit")
	assert.True(t, s.Snapshot().InertiaActive)

	s.Camera().Tick()
	assert.Greater(t, s.Camera().State().Azimuth, defaults.Azimuth+10, "inertia keeps turning")
	assert.NotEqual(t, legend.Tips, s.Geometry().Legend.Tips, "legend follows the camera")
	after, _ := s.Footprint(node)
	assert.NotEqual(t, before.Polygon, after.Polygon, "slice outlines follow the camera")

	s.KeyPress(interaction.KeyEvent{Key: interaction.KeySpace, Text: " "})
	assert.Equal(t, defaults, s.Camera().State())
	assert.False(t, s.Camera().InertiaActive())
	assert.Equal(t, legend, s.Geometry().Legend)
}

func TestResizeRebuildsLegend(t *testing.T) {
	s := newSession(t, nil)
	before := s.Geometry().Legend

	s.Resize(1600, 1200)
	w, h := s.Size()
	assert.Equal(t, []int{1600, 1200}, []int{w, h})
	assert.NotEqual(t, before.Origin, s.Geometry().Legend.Origin)
	assert.Len(t, s.Geometry().Wireframe, 12)
	assert.NotEmpty(t, s.Geometry().Labels.Z)
}

func TestCloseDetachesNodes(t *testing.T) {
	s := newSession(t, nil)
	s.Close()
	assert.Empty(t, s.Scene().Nodes())
}
