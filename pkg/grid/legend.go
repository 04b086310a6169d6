package grid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Corner selects where the legend is drawn.
type Corner int

const (
	BottomLeft Corner = iota
	BottomRight
	TopLeft
	TopRight
)

// Legend is the XYZ orientation gizmo in pixel coordinates.
type Legend struct {
	Origin r2.Vec
	// Tips are the arrow ends for X, Y and Z.
	Tips [3]r2.Vec
}

// BuildLegend places the legend in corner of a width x height viewport and
// orients its arrows for the given camera azimuth and elevation (degrees).
// It must be rebuilt whenever the viewport is resized or the view reset.
func BuildLegend(width, height int, corner Corner, azimuth, elevation float64) Legend {
	size := 0.08 * math.Min(float64(width), float64(height))
	margin := 1.5 * size

	origin := r2.Vec{X: margin, Y: float64(height) - margin}
	switch corner {
	case BottomRight:
		origin.X = float64(width) - margin
	case TopLeft:
		origin.Y = margin
	case TopRight:
		origin = r2.Vec{X: float64(width) - margin, Y: margin}
	}

	az := r3.NewRotation(azimuth*math.Pi/180, r3.Vec{Z: 1})
	el := r3.NewRotation(elevation*math.Pi/180, r3.Vec{X: 1})

	legend := Legend{Origin: origin}
	for i, axis := range [3]r3.Vec{{X: 1}, {Y: 1}, {Z: 1}} {
		p := el.Rotate(az.Rotate(axis))
		// screen x follows world x, screen y grows downward
		legend.Tips[i] = r2.Add(origin, r2.Vec{X: p.X * size, Y: -p.Z * size})
	}
	return legend
}
