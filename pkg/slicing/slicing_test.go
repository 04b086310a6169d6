package slicing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"

	"seismicview/internal/models"
	"seismicview/pkg/volume"
)

func encode(x, y, z int) float64 {
	return float64(x*10000 + y*100 + z)
}

func testExtractor(t *testing.T, shape models.Shape, opts ...Option) (*Extractor, *volume.Dense) {
	t.Helper()
	vol, err := volume.Generate(shape, encode)
	require.NoError(t, err)
	ext, err := NewExtractor([]Layer{{Source: vol}}, opts...)
	require.NoError(t, err)
	return ext, vol
}

// countingSource counts reads and can be switched into a failing state.
type countingSource struct {
	volume.Source
	reads int
	fail  bool
}

func (c *countingSource) ReadSlice(axis models.Axis, index int) (*mat.Dense, error) {
	c.reads++
	if c.fail {
		return nil, errors.Join(models.ErrDataUnavailable, errors.New("storage offline"))
	}
	return c.Source.ReadSlice(axis, index)
}

func TestShapeOf(t *testing.T) {
	ext, _ := testExtractor(t, models.Shape{25, 50, 80})

	a, b := ext.ShapeOf(models.X)
	assert.Equal(t, []int{50, 80}, []int{a, b})
	a, b = ext.ShapeOf(models.Y)
	assert.Equal(t, []int{25, 80}, []int{a, b})
	a, b = ext.ShapeOf(models.Z)
	assert.Equal(t, []int{25, 50}, []int{a, b})
}

func TestExtractFlipPolicy(t *testing.T) {
	shape := models.Shape{6, 7, 8}
	ext, vol := testExtractor(t, shape)
	nx, ny, nz := shape[0], shape[1], shape[2]

	x, err := ext.Extract(models.X, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, vol.At(3, ny-1, nz-1), x.At(0, 0))
	assert.Equal(t, vol.At(3, 0, 0), x.At(ny-1, nz-1))
	assert.Equal(t, vol.At(3, ny-1-2, nz-1-5), x.At(2, 5))

	y, err := ext.Extract(models.Y, 4, 0)
	require.NoError(t, err)
	assert.Equal(t, vol.At(nx-1, 4, nz-1), y.At(0, 0))
	assert.Equal(t, vol.At(nx-1-1, 4, nz-1-6), y.At(1, 6))

	z, err := ext.Extract(models.Z, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, vol.At(0, 0, 5), z.At(0, 0))
	assert.Equal(t, vol.At(2, 3, 5), z.At(2, 3))
}

func TestExtractIdempotent(t *testing.T) {
	ext, _ := testExtractor(t, models.Shape{25, 50, 80})

	a, err := ext.Extract(models.X, 10, 0)
	require.NoError(t, err)
	b, err := ext.Extract(models.X, 10, 0)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a, b))

	// The flip must not touch the source volume.
	c, err := ext.Extract(models.X, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, a.RawMatrix().Data, c.RawMatrix().Data)
}

func TestExtractRoundingAndRange(t *testing.T) {
	ext, vol := testExtractor(t, models.Shape{4, 4, 4})

	img, err := ext.Extract(models.Z, 1.6, 0)
	require.NoError(t, err)
	assert.Equal(t, vol.At(0, 0, 2), img.At(0, 0))

	_, err = ext.Extract(models.Z, 4, 0)
	assert.ErrorIs(t, err, models.ErrOutOfRange)
	_, err = ext.Extract(models.Z, -1, 0)
	assert.ErrorIs(t, err, models.ErrOutOfRange)
	_, err = ext.Extract(models.Z, 0, 1)
	assert.ErrorIs(t, err, models.ErrOutOfRange)
	_, err = ext.Extract(models.Axis(9), 0, 0)
	assert.ErrorIs(t, err, models.ErrInvalidAxis)
}

func TestNewExtractorLayers(t *testing.T) {
	shape := models.Shape{3, 3, 3}
	a, err := volume.Generate(shape, encode)
	require.NoError(t, err)
	b, err := volume.Generate(shape, func(x, y, z int) float64 { return -1 })
	require.NoError(t, err)

	fixed := models.ColorLimits{Min: -1000, Max: 1000}
	counting := &countingSource{Source: a}
	ext, err := NewExtractor([]Layer{
		{Source: counting},
		{Source: b, Colormap: "seismic", Limits: &fixed},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, ext.Layers())
	assert.Equal(t, models.ColorLimits{Min: 0, Max: encode(2, 2, 2)}, ext.Limits(0))
	assert.Equal(t, fixed, ext.Limits(1))
	assert.Equal(t, "grays", ext.Colormap(0))
	assert.Equal(t, "seismic", ext.Colormap(1))

	// Auto limits were computed once, up front.
	readsAfterSetup := counting.reads
	node, err := NewNode(ext, models.Z, 0)
	require.NoError(t, err)
	for p := 0; p < 3; p++ {
		require.NoError(t, node.SetPosition(float64(p)))
	}
	assert.Equal(t, readsAfterSetup+3, counting.reads)

	other, err := volume.Generate(models.Shape{3, 3, 4}, encode)
	require.NoError(t, err)
	_, err = NewExtractor([]Layer{{Source: a}, {Source: other}})
	assert.Error(t, err)

	_, err = NewExtractor(nil)
	assert.Error(t, err)
}

func TestReverseConvention(t *testing.T) {
	ext, _ := testExtractor(t, models.Shape{25, 50, 80}, WithReverseConvention(true))

	assert.Equal(t, 10.0, ext.ToInternal(models.X, 10))
	assert.Equal(t, 39.0, ext.ToInternal(models.Y, 10))
	assert.Equal(t, 69.0, ext.ToInternal(models.Z, 10))
	assert.Equal(t, 10, ext.ToExternal(models.Y, 39))

	node, err := NewNode(ext, models.Y, 0)
	require.NoError(t, err)
	require.NoError(t, node.SetPositionExternal(7))
	assert.Equal(t, 50-1-7, node.Position())
	assert.Equal(t, 7, node.ExternalPosition())

	plain, _ := testExtractor(t, models.Shape{25, 50, 80})
	assert.Equal(t, 10.0, plain.ToInternal(models.Y, 10))
}

func TestNodeSetPosition(t *testing.T) {
	shape := models.Shape{25, 50, 80}
	ext, _ := testExtractor(t, shape)

	for _, axis := range models.Axes {
		node, err := NewNode(ext, axis, 0)
		require.NoError(t, err)
		bounds := ext.Bounds(axis)

		for _, p := range []float64{0, 1, 2.4, 2.6, float64(bounds.Max)} {
			require.NoError(t, node.SetPosition(p))
			assert.Equal(t, models.Round(p), node.Position(), "%s set %v", axis, p)
		}

		require.NoError(t, node.SetPosition(float64(bounds.Max+40)))
		assert.Equal(t, bounds.Max, node.Position())

		require.NoError(t, node.SetPosition(5))
		require.NoError(t, node.SetPosition(-1))
		assert.Equal(t, 5, node.Position(), "negative positions are ignored")
	}
}

func TestNodeSetPositionExtremes(t *testing.T) {
	ext, _ := testExtractor(t, models.Shape{25, 50, 80})
	node, err := NewNode(ext, models.X, 10)
	require.NoError(t, err)

	require.NoError(t, node.SetPosition(1e20))
	assert.Equal(t, 24, node.Position())

	require.NoError(t, node.SetPosition(10))
	require.NoError(t, node.SetPosition(math.Inf(1)))
	assert.Equal(t, 24, node.Position())

	require.NoError(t, node.SetPosition(math.NaN()))
	assert.Equal(t, 24, node.Position(), "NaN is ignored")

	require.NoError(t, node.SetPosition(math.Inf(-1)))
	assert.Equal(t, 24, node.Position(), "negative positions are ignored")

	far, err := NewNode(ext, models.Z, 1e300)
	require.NoError(t, err)
	assert.Equal(t, 79, far.Position())

	_, err = NewNode(ext, models.Z, math.NaN())
	assert.ErrorIs(t, err, models.ErrOutOfRange)

	_, err = ext.Extract(models.X, 1e20, 0)
	assert.ErrorIs(t, err, models.ErrOutOfRange)
	_, err = ext.Extract(models.X, math.NaN(), 0)
	assert.ErrorIs(t, err, models.ErrOutOfRange)
}

func TestSetPositionExternalClampsReversed(t *testing.T) {
	ext, _ := testExtractor(t, models.Shape{25, 50, 80}, WithReverseConvention(true))
	node, err := NewNode(ext, models.Y, 20)
	require.NoError(t, err)

	require.NoError(t, node.SetPositionExternal(100))
	assert.Equal(t, 0, node.Position())
	assert.Equal(t, 49, node.ExternalPosition())

	require.NoError(t, node.SetPositionExternal(math.Inf(1)))
	assert.Equal(t, 0, node.Position())

	require.NoError(t, node.SetPositionExternal(-3))
	assert.Equal(t, 0, node.Position(), "negative positions are ignored")

	require.NoError(t, node.SetPositionExternal(0))
	assert.Equal(t, 49, node.Position())
}

func TestNodeStateSurvivesMove(t *testing.T) {
	ext, vol := testExtractor(t, models.Shape{10, 10, 10})
	node, err := NewNode(ext, models.Z, 2)
	require.NoError(t, err)
	id := node.ID()

	node.SetHighlight(true)
	node.SetAnchor(r2.Vec{X: 3, Y: 4})
	require.NoError(t, node.SetPosition(7))

	assert.Equal(t, id, node.ID())
	assert.True(t, node.Highlighted())
	anchor, ok := node.Anchor()
	assert.True(t, ok)
	assert.Equal(t, r2.Vec{X: 3, Y: 4}, anchor)
	assert.Equal(t, vol.At(0, 0, 7), node.Image(0).At(0, 0))
}

func TestNodeStep(t *testing.T) {
	ext, _ := testExtractor(t, models.Shape{25, 50, 80})
	node, err := NewNode(ext, models.X, 10)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, node.Step(1))
	}
	assert.Equal(t, 15, node.Position())

	for i := 0; i < 20; i++ {
		require.NoError(t, node.Step(1))
	}
	assert.Equal(t, 24, node.Position())

	require.NoError(t, node.Step(-100))
	assert.Equal(t, 0, node.Position())
}

func TestNodeDrag(t *testing.T) {
	ext, _ := testExtractor(t, models.Shape{25, 50, 80})
	proj := &LinearProjector{
		Directions:     [3]r2.Vec{{X: 1}, {Y: -1}, {Y: 1}},
		PixelsPerIndex: [3]float64{2, 1, 1},
	}
	node, err := NewNode(ext, models.X, 10, WithProjector(proj))
	require.NoError(t, err)

	// No anchor, no motion.
	require.NoError(t, node.Drag(r2.Vec{X: 100}))
	assert.Equal(t, 10, node.Position())

	node.SetAnchor(r2.Vec{X: 50, Y: 50})
	require.NoError(t, node.Drag(r2.Vec{X: 60, Y: 80}))
	assert.Equal(t, 15, node.Position())

	// Deltas are measured from the anchor, not from the last move.
	require.NoError(t, node.Drag(r2.Vec{X: 58, Y: 50}))
	assert.Equal(t, 14, node.Position())

	require.NoError(t, node.Drag(r2.Vec{X: 500}))
	assert.Equal(t, 24, node.Position())

	require.NoError(t, node.Drag(r2.Vec{X: -500}))
	assert.Equal(t, 0, node.Position())

	node.ClearAnchor()
	_, ok := node.Anchor()
	assert.False(t, ok)
}

func TestNodeDataUnavailable(t *testing.T) {
	vol, err := volume.Generate(models.Shape{5, 5, 5}, encode)
	require.NoError(t, err)
	src := &countingSource{Source: vol}
	limits := models.ColorLimits{Min: 0, Max: 1}
	ext, err := NewExtractor([]Layer{{Source: src, Limits: &limits}})
	require.NoError(t, err)

	node, err := NewNode(ext, models.Z, 1)
	require.NoError(t, err)
	before := node.Image(0)

	src.fail = true
	err = node.SetPosition(3)
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
	assert.Equal(t, 1, node.Position())
	assert.Same(t, before, node.Image(0))
	assert.ErrorIs(t, node.Err(), models.ErrDataUnavailable)

	src.fail = false
	require.NoError(t, node.SetPosition(3))
	assert.Equal(t, 3, node.Position())
	assert.NoError(t, node.Err())

	src.fail = true
	_, err = NewNode(ext, models.X, 0)
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
}

func TestDefaultProjector(t *testing.T) {
	p := DefaultProjector()
	assert.Equal(t, 5.0, p.IndexDelta(models.X, r2.Vec{X: 5, Y: 3}))
	assert.Equal(t, -3.0, p.IndexDelta(models.Y, r2.Vec{X: 5, Y: 3}))
	assert.Equal(t, 3.0, p.IndexDelta(models.Z, r2.Vec{X: 5, Y: 3}))

	var zero LinearProjector
	assert.Equal(t, 0.0, zero.IndexDelta(models.X, r2.Vec{X: 5}))
}
