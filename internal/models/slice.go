// Package models holds the value types shared by the slicing, interaction
// and configuration packages.
package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrOutOfRange is returned when a slice index falls outside its axis bounds.
	ErrOutOfRange = errors.New("slice position out of range")

	// ErrDataUnavailable is returned when the volume source cannot deliver a slice.
	ErrDataUnavailable = errors.New("volume data unavailable")

	// ErrInvalidAxis is returned for axis tokens other than x, y or z.
	ErrInvalidAxis = errors.New("invalid axis")
)

// Axis selects one of the three orthogonal slicing directions.
type Axis int

const (
	X Axis = iota
	Y
	Z
)

// Axes lists the axes in slicing order.
var Axes = [3]Axis{X, Y, Z}

// ParseAxis converts a token such as "x" or "Z" into an Axis.
func ParseAxis(token string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "x":
		return X, nil
	case "y":
		return Y, nil
	case "z":
		return Z, nil
	}
	return 0, fmt.Errorf("%w: %q (must be x, y, or z)", ErrInvalidAxis, token)
}

func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// Valid reports whether a is one of X, Y or Z.
func (a Axis) Valid() bool {
	return a >= X && a <= Z
}

// Shape is the (Nx, Ny, Nz) extent of a volume.
type Shape [3]int

// Len returns the number of samples along axis.
func (s Shape) Len(axis Axis) int {
	return s[axis]
}

// Size returns the total number of samples.
func (s Shape) Size() int {
	return s[0] * s[1] * s[2]
}

// Bounds returns the valid slice index range along axis.
func (s Shape) Bounds(axis Axis) Bounds {
	return Bounds{Min: 0, Max: s[axis] - 1}
}

// Plane returns the in-plane dimensions of a slice taken along axis.
func (s Shape) Plane(axis Axis) (int, int) {
	switch axis {
	case X:
		return s[1], s[2]
	case Y:
		return s[0], s[2]
	default:
		return s[0], s[1]
	}
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d, %d)", s[0], s[1], s[2])
}

// Bounds is an inclusive integer index range.
type Bounds struct {
	Min int
	Max int
}

// Contains reports whether index lies inside the range.
func (b Bounds) Contains(index int) bool {
	return index >= b.Min && index <= b.Max
}

// Clamp pulls index into the range.
func (b Bounds) Clamp(index int) int {
	if index < b.Min {
		return b.Min
	}
	if index > b.Max {
		return b.Max
	}
	return index
}

// ClampPosition rounds a fractional position half to even and pulls it into
// the range. The clamp happens before the integer conversion so huge and
// infinite positions land on the nearest bound. NaN reports false.
func (b Bounds) ClampPosition(position float64) (int, bool) {
	if math.IsNaN(position) {
		return 0, false
	}
	r := math.RoundToEven(position)
	return int(math.Max(float64(b.Min), math.Min(float64(b.Max), r))), true
}

// Round converts a fractional slice position into an index, rounding half
// to even. Positions outside the int range are not meaningful; use
// Bounds.ClampPosition when the input is unchecked.
func Round(position float64) int {
	return int(math.RoundToEven(position))
}

// ColorLimits is the (min, max) sample range mapped onto a colormap.
type ColorLimits struct {
	Min float64
	Max float64
}

// Span returns Max-Min.
func (c ColorLimits) Span() float64 {
	return c.Max - c.Min
}

// Normalize maps v into [0, 1] through the limits, clamping outside values.
func (c ColorLimits) Normalize(v float64) float64 {
	span := c.Span()
	if span <= 0 {
		return 0
	}
	t := (v - c.Min) / span
	return math.Max(0, math.Min(1, t))
}
