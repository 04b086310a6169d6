// Package slicing turns a 3D volume into axis-aligned 2D slice views and
// provides the movable slice nodes shown by the viewer.
package slicing

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"seismicview/internal/models"
	"seismicview/pkg/volume"
)

// Layer is one volume overlaid on every slice. A nil Limits means the
// limits are computed from the whole volume when the extractor is built.
type Layer struct {
	Source   volume.Source
	Colormap string
	Limits   *models.ColorLimits
}

type layer struct {
	src      volume.Source
	colormap string
	limits   models.ColorLimits
}

// Extractor produces slice views from one or more volumes of equal shape.
type Extractor struct {
	layers  []layer
	shape   models.Shape
	reverse bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithReverseConvention makes Y and Z positions given in external
// (display) coordinates count down from the far end of the axis.
func WithReverseConvention(on bool) Option {
	return func(e *Extractor) {
		e.reverse = on
	}
}

// NewExtractor validates the layers and resolves their color limits.
// Auto limits are computed here once and never per slice.
func NewExtractor(layers []Layer, opts ...Option) (*Extractor, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("at least one volume layer is required")
	}

	e := &Extractor{shape: layers[0].Source.Shape()}
	for _, opt := range opts {
		opt(e)
	}

	for i, l := range layers {
		if l.Source == nil {
			return nil, fmt.Errorf("layer %d has no volume source", i)
		}
		if s := l.Source.Shape(); s != e.shape {
			return nil, fmt.Errorf("layer %d shape %v does not match %v", i, s, e.shape)
		}

		var limits models.ColorLimits
		if l.Limits != nil {
			limits = *l.Limits
		} else {
			auto, err := volume.AutoLimits(l.Source)
			if err != nil {
				return nil, fmt.Errorf("layer %d: %w", i, err)
			}
			limits = auto
		}

		colormap := l.Colormap
		if colormap == "" {
			colormap = "grays"
		}
		e.layers = append(e.layers, layer{src: l.Source, colormap: colormap, limits: limits})
	}
	return e, nil
}

// Shape returns the shared volume shape.
func (e *Extractor) Shape() models.Shape {
	return e.shape
}

// Bounds returns the slice bounds along axis.
func (e *Extractor) Bounds(axis models.Axis) models.Bounds {
	return e.shape.Bounds(axis)
}

// ShapeOf returns the dimensions of a slice taken along axis.
func (e *Extractor) ShapeOf(axis models.Axis) (int, int) {
	return e.shape.Plane(axis)
}

// Layers returns the number of overlaid volumes.
func (e *Extractor) Layers() int {
	return len(e.layers)
}

// Limits returns the color limits of layer i.
func (e *Extractor) Limits(i int) models.ColorLimits {
	return e.layers[i].limits
}

// Colormap returns the colormap name of layer i.
func (e *Extractor) Colormap(i int) string {
	return e.layers[i].colormap
}

// Reverse reports whether the reverse coordinate convention is on.
func (e *Extractor) Reverse() bool {
	return e.reverse
}

// ToInternal maps an external position onto a storage index position.
func (e *Extractor) ToInternal(axis models.Axis, position float64) float64 {
	if e.reverse && (axis == models.Y || axis == models.Z) {
		return float64(e.shape.Len(axis)-1) - position
	}
	return position
}

// ToExternal is the inverse of ToInternal for integer positions.
func (e *Extractor) ToExternal(axis models.Axis, position int) int {
	if e.reverse && (axis == models.Y || axis == models.Z) {
		return e.shape.Len(axis) - 1 - position
	}
	return position
}

// Extract returns the slice of layer at position along axis.
//
// Slices along X and Y are mirrored on both in-plane axes so that their
// first sample is the far corner of the plane; slices along Z are returned
// as stored. Callers are expected to clamp position before calling.
func (e *Extractor) Extract(axis models.Axis, position float64, layer int) (*mat.Dense, error) {
	if !axis.Valid() {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidAxis, axis)
	}
	if layer < 0 || layer >= len(e.layers) {
		return nil, fmt.Errorf("%w: layer %d of %d", models.ErrOutOfRange, layer, len(e.layers))
	}

	bounds := e.Bounds(axis)
	index, ok := bounds.ClampPosition(position)
	if !ok || float64(index) != math.RoundToEven(position) {
		return nil, fmt.Errorf("%w: %s=%v not in [%d, %d]", models.ErrOutOfRange, axis, position, bounds.Min, bounds.Max)
	}

	plane, err := e.layers[layer].src.ReadSlice(axis, index)
	if err != nil {
		return nil, err
	}

	switch axis {
	case models.X, models.Y:
		return flip(plane), nil
	default:
		return plane, nil
	}
}

// flip reverses rows and columns. On a contiguous row-major copy that is
// the same as reversing the backing data.
func flip(m *mat.Dense) *mat.Dense {
	out := mat.DenseCopyOf(m)
	r, c := out.Dims()
	slices.Reverse(out.RawMatrix().Data[:r*c])
	return out
}
