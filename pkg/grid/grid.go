// Package grid builds the labeled wireframe box drawn around a volume and
// the XYZ legend shown in a viewport corner. Everything here is pure: the
// same inputs always give the same geometry.
package grid

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"seismicview/internal/models"
)

// Padding is added to every axis of the box so slices never touch it.
const Padding = 2

// Segment is a line from A to B.
type Segment struct {
	A, B r3.Vec
}

// Label is a piece of text anchored at Pos.
type Label struct {
	Text string
	Pos  r3.Vec
}

// AxisLabels holds the tick labels of each axis in display order.
type AxisLabels struct {
	X []Label
	Y []Label
	Z []Label
}

var cubeVertices = [8]r3.Vec{
	{X: 0, Y: 0, Z: 0},
	{X: 1, Y: 0, Z: 0},
	{X: 1, Y: 1, Z: 0},
	{X: 0, Y: 1, Z: 0},
	{X: 0, Y: 0, Z: 1},
	{X: 1, Y: 0, Z: 1},
	{X: 1, Y: 1, Z: 1},
	{X: 0, Y: 1, Z: 1},
}

// bottom face, top face, then the vertical edges
var cubeEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// Extent returns the padded size of the box around a volume of shape.
func Extent(shape models.Shape) r3.Vec {
	return r3.Vec{
		X: float64(shape[0] + Padding),
		Y: float64(shape[1] + Padding),
		Z: float64(shape[2] + Padding),
	}
}

// Center returns the translation applied to the volume so that it sits
// inside the padded box.
func Center() r3.Vec {
	return r3.Vec{X: 1.5, Y: 1.5, Z: 0.5}
}

// BuildWireframe returns the 12 edges of the padded box.
func BuildWireframe(shape models.Shape) []Segment {
	ext := Extent(shape)
	scaled := make([]r3.Vec, len(cubeVertices))
	for i, v := range cubeVertices {
		scaled[i] = r3.Vec{X: v.X * ext.X, Y: v.Y * ext.Y, Z: v.Z * ext.Z}
	}

	segments := make([]Segment, 0, len(cubeEdges))
	for _, e := range cubeEdges {
		segments = append(segments, Segment{A: scaled[e[0]], B: scaled[e[1]]})
	}
	return segments
}

// BuildAxisLabels returns tick labels every spacing units from 0 to the
// padded extent of each axis. X and Y count up from 0; Z counts down from
// its largest tick to 0, matching the depth-down display.
func BuildAxisLabels(shape models.Shape, spacingX, spacingY, spacingZ float64) (AxisLabels, error) {
	if spacingX <= 0 || spacingY <= 0 || spacingZ <= 0 {
		return AxisLabels{}, fmt.Errorf("label spacing must be positive, got (%v, %v, %v)", spacingX, spacingY, spacingZ)
	}
	ext := Extent(shape)

	var labels AxisLabels
	for _, v := range ticks(ext.X, spacingX) {
		labels.X = append(labels.X, Label{Text: tickText(v), Pos: r3.Vec{X: v}})
	}
	for _, v := range ticks(ext.Y, spacingY) {
		labels.Y = append(labels.Y, Label{Text: tickText(v), Pos: r3.Vec{Y: v}})
	}
	z := ticks(ext.Z, spacingZ)
	for i := len(z) - 1; i >= 0; i-- {
		labels.Z = append(labels.Z, Label{Text: tickText(z[i]), Pos: r3.Vec{Z: z[i]}})
	}
	return labels, nil
}

// BuildAxisNames returns the axis titles placed at the middle of each axis.
func BuildAxisNames(shape models.Shape) [3]Label {
	ext := Extent(shape)
	return [3]Label{
		{Text: "Crossline", Pos: r3.Vec{X: ext.X / 2, Y: -0.5}},
		{Text: "Inline", Pos: r3.Vec{Y: ext.Y / 2, Z: -0.5}},
		{Text: "Time", Pos: r3.Vec{Y: -0.5, Z: ext.Z / 2}},
	}
}

// ticks returns k*spacing for k = 0, 1, ... while the value stays within extent.
func ticks(extent, spacing float64) []float64 {
	var out []float64
	for k := 0; float64(k)*spacing <= extent; k++ {
		out = append(out, float64(k)*spacing)
	}
	return out
}

func tickText(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
