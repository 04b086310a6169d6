package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"seismicview/internal/models"
	"seismicview/pkg/slicing"
)

// Viewer renders slices from an extractor to grayscale images on disk.
type Viewer struct {
	ext *slicing.Extractor
	log *logrus.Entry
}

// NewViewer creates a viewer over ext.
func NewViewer(ext *slicing.Extractor) *Viewer {
	return &Viewer{
		ext: ext,
		log: logrus.WithField("component", "visualization"),
	}
}

// RenderSlice maps a slice through limits onto 16-bit gray levels. Rows of
// the slice become image rows.
func RenderSlice(img *mat.Dense, limits models.ColorLimits) *image.Gray16 {
	rows, cols := img.Dims()
	out := image.NewGray16(image.Rect(0, 0, cols, rows))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			value := uint16(math.Round(limits.Normalize(img.At(r, c)) * 65535))
			out.SetGray16(c, r, color.Gray16{Y: value})
		}
	}
	return out
}

// ExtractSlice renders layer of the slice at position along axis.
func (v *Viewer) ExtractSlice(axis models.Axis, position, layer int) (*image.Gray16, error) {
	img, err := v.ext.Extract(axis, float64(position), layer)
	if err != nil {
		return nil, err
	}
	return RenderSlice(img, v.ext.Limits(layer)), nil
}

// SaveSlice saves an image as PNG when filename ends in .png and as JPEG
// otherwise.
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(filename), ".png") {
		return png.Encode(file, img)
	}
	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveNode saves every layer of a node's current slice into outputDir.
func (v *Viewer) SaveNode(node *slicing.Node, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	var files []string
	for i, img := range node.Images() {
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d_layer%d.png", node.Axis(), node.ExternalPosition(), i))
		if err := v.SaveSlice(RenderSlice(img, v.ext.Limits(i)), filename); err != nil {
			return files, err
		}
		files = append(files, filename)
	}
	return files, nil
}

// SaveSliceSequence extracts and saves every slice along axis for layer.
func (v *Viewer) SaveSliceSequence(axis models.Axis, layer int, outputDir string) error {
	if !axis.Valid() {
		return fmt.Errorf("%w: %v", models.ErrInvalidAxis, axis)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	bounds := v.ext.Bounds(axis)
	for pos := bounds.Min; pos <= bounds.Max; pos++ {
		img, err := v.ExtractSlice(axis, pos, layer)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	v.log.WithFields(logrus.Fields{"axis": axis.String(), "count": bounds.Max - bounds.Min + 1, "dir": outputDir}).Info("Saved slice sequence")
	return nil
}
