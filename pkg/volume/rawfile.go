package volume

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"seismicview/internal/models"
)

const sampleSize = 4

// RawFile is an out-of-core volume stored as little-endian float32 samples
// in C order. Only the requested plane is read on each ReadSlice.
type RawFile struct {
	r      io.ReaderAt
	closer io.Closer
	shape  models.Shape
}

// OpenRawFile opens path as a raw float32 volume of the given shape.
func OpenRawFile(path string, shape models.Shape) (*RawFile, error) {
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening volume file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error reading volume file info: %w", err)
	}
	if want := int64(shape.Size()) * sampleSize; info.Size() != want {
		f.Close()
		return nil, fmt.Errorf("volume file %s is %d bytes, shape %v needs %d", path, info.Size(), shape, want)
	}
	return &RawFile{r: f, closer: f, shape: shape}, nil
}

// NewRawReader reads a raw float32 volume from r without taking ownership.
func NewRawReader(r io.ReaderAt, shape models.Shape) (*RawFile, error) {
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	return &RawFile{r: r, shape: shape}, nil
}

// WriteRaw writes src to w in the layout RawFile reads.
func WriteRaw(w io.Writer, src Source) error {
	shape := src.Shape()
	buf := make([]byte, shape[1]*shape[2]*sampleSize)
	for x := 0; x < shape[0]; x++ {
		plane, err := src.ReadSlice(models.X, x)
		if err != nil {
			return err
		}
		for i, v := range plane.RawMatrix().Data {
			binary.LittleEndian.PutUint32(buf[i*sampleSize:], math.Float32bits(float32(v)))
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("error writing volume: %w", err)
		}
	}
	return nil
}

func (f *RawFile) Shape() models.Shape {
	return f.shape
}

// Close releases the underlying file, if RawFile opened it.
func (f *RawFile) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

// ReadSlice implements Source.
func (f *RawFile) ReadSlice(axis models.Axis, index int) (*mat.Dense, error) {
	if !axis.Valid() {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidAxis, axis)
	}
	if !f.shape.Bounds(axis).Contains(index) {
		return nil, fmt.Errorf("%w: %s=%d not in %v", models.ErrOutOfRange, axis, index, f.shape.Bounds(axis))
	}

	nx, ny, nz := f.shape[0], f.shape[1], f.shape[2]
	rows, cols := f.shape.Plane(axis)
	out := make([]float64, rows*cols)

	var err error
	switch axis {
	case models.X:
		err = f.readRun(out, index*ny*nz)
	case models.Y:
		for x := 0; x < nx && err == nil; x++ {
			err = f.readRun(out[x*nz:(x+1)*nz], (x*ny+index)*nz)
		}
	case models.Z:
		for x := 0; x < nx && err == nil; x++ {
			for y := 0; y < ny && err == nil; y++ {
				err = f.readRun(out[x*ny+y:x*ny+y+1], (x*ny+y)*nz+index)
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s=%d: %w", models.ErrDataUnavailable, axis, index, err)
	}
	return mat.NewDense(rows, cols, out), nil
}

// readRun fills dst with consecutive samples starting at sample offset.
func (f *RawFile) readRun(dst []float64, offset int) error {
	buf := make([]byte, len(dst)*sampleSize)
	n, err := f.r.ReadAt(buf, int64(offset)*sampleSize)
	if err != nil && !(err == io.EOF && n == len(buf)) {
		return err
	}
	for i := range dst {
		dst[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[i*sampleSize:])))
	}
	return nil
}
