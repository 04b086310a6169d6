// Package volume provides read access to 3D sample volumes.
// Slices are returned exactly as stored; display conventions such as
// mirroring are applied by the slicing package.
package volume

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"seismicview/internal/models"
)

// Source is the read-only contract a volume data source fulfils.
//
// ReadSlice returns the plane at index along axis with the remaining two
// axes as (rows, cols) in ascending axis order: X gives (y, z), Y gives
// (x, z) and Z gives (x, y). Sources backed by storage may fail with an
// error wrapping models.ErrDataUnavailable.
type Source interface {
	Shape() models.Shape
	ReadSlice(axis models.Axis, index int) (*mat.Dense, error)
}

// Ranger is implemented by sources that already know their sample range.
type Ranger interface {
	Range() (models.ColorLimits, error)
}

// Dense is an in-memory volume in C order: sample [x, y, z] is stored at
// data[(x*Ny+y)*Nz+z].
type Dense struct {
	data  []float64
	shape models.Shape
}

// NewDense wraps data as a volume of the given shape. The slice is not copied.
func NewDense(shape models.Shape, data []float64) (*Dense, error) {
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	if len(data) != shape.Size() {
		return nil, fmt.Errorf("volume data has %d samples, shape %v needs %d", len(data), shape, shape.Size())
	}
	return &Dense{data: data, shape: shape}, nil
}

// Generate builds a Dense volume by evaluating fn at every sample.
func Generate(shape models.Shape, fn func(x, y, z int) float64) (*Dense, error) {
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	data := make([]float64, shape.Size())
	for x := 0; x < shape[0]; x++ {
		for y := 0; y < shape[1]; y++ {
			for z := 0; z < shape[2]; z++ {
				data[(x*shape[1]+y)*shape[2]+z] = fn(x, y, z)
			}
		}
	}
	return &Dense{data: data, shape: shape}, nil
}

func (d *Dense) Shape() models.Shape {
	return d.shape
}

// At returns sample [x, y, z].
func (d *Dense) At(x, y, z int) float64 {
	return d.data[(x*d.shape[1]+y)*d.shape[2]+z]
}

// ReadSlice implements Source.
func (d *Dense) ReadSlice(axis models.Axis, index int) (*mat.Dense, error) {
	if !axis.Valid() {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidAxis, axis)
	}
	if !d.shape.Bounds(axis).Contains(index) {
		return nil, fmt.Errorf("%w: %s=%d not in %v", models.ErrOutOfRange, axis, index, d.shape.Bounds(axis))
	}

	nx, ny, nz := d.shape[0], d.shape[1], d.shape[2]
	rows, cols := d.shape.Plane(axis)
	out := make([]float64, rows*cols)

	switch axis {
	case models.X:
		// contiguous block of Ny*Nz samples
		copy(out, d.data[index*ny*nz:(index+1)*ny*nz])
	case models.Y:
		for x := 0; x < nx; x++ {
			start := (x*ny + index) * nz
			copy(out[x*nz:(x+1)*nz], d.data[start:start+nz])
		}
	case models.Z:
		for x := 0; x < nx; x++ {
			for y := 0; y < ny; y++ {
				out[x*ny+y] = d.data[(x*ny+y)*nz+index]
			}
		}
	}
	return mat.NewDense(rows, cols, out), nil
}

// Range implements Ranger.
func (d *Dense) Range() (models.ColorLimits, error) {
	return models.ColorLimits{Min: floats.Min(d.data), Max: floats.Max(d.data)}, nil
}

// AutoLimits computes the global (min, max) over the whole volume. Sources
// that implement Ranger answer directly; others are scanned one X slice at
// a time.
func AutoLimits(src Source) (models.ColorLimits, error) {
	if r, ok := src.(Ranger); ok {
		return r.Range()
	}

	shape := src.Shape()
	var limits models.ColorLimits
	for i := 0; i < shape[0]; i++ {
		plane, err := src.ReadSlice(models.X, i)
		if err != nil {
			return models.ColorLimits{}, fmt.Errorf("auto color limits: %w", err)
		}
		data := plane.RawMatrix().Data
		lo, hi := floats.Min(data), floats.Max(data)
		if i == 0 || lo < limits.Min {
			limits.Min = lo
		}
		if i == 0 || hi > limits.Max {
			limits.Max = hi
		}
	}
	return limits, nil
}

func checkShape(shape models.Shape) error {
	for _, axis := range models.Axes {
		if shape.Len(axis) < 1 {
			return fmt.Errorf("invalid volume shape %v: every axis needs at least one sample", shape)
		}
	}
	return nil
}
