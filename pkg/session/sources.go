package session

import (
	"errors"
	"fmt"
	"io"
	"math"

	"seismicview/internal/models"
	"seismicview/pkg/config"
	"seismicview/pkg/slicing"
	"seismicview/pkg/volume"
)

// Synthetic builds a layered test volume that resembles seismic
// reflections: horizons along z gently dipping with x and y.
func Synthetic(shape models.Shape) (*volume.Dense, error) {
	return volume.Generate(shape, func(x, y, z int) float64 {
		depth := float64(z) + 0.15*float64(x) - 0.1*float64(y)
		return 1000 * math.Sin(depth*0.6) * math.Exp(-float64(z)/float64(4*shape[2]))
	})
}

// OpenExtractor opens the configured volumes and builds the extractor. With
// no volumes configured a synthetic volume is used. The returned closer
// releases any opened files.
func OpenExtractor(cfg *config.Config) (*slicing.Extractor, io.Closer, error) {
	shape := cfg.Shape()
	var (
		layers  []slicing.Layer
		closers multiCloser
	)

	volumes := cfg.Data.Volumes
	if len(volumes) == 0 {
		volumes = []config.VolumeConfig{{Colormap: "grays"}}
	}

	for i, vc := range volumes {
		limits, err := vc.Limits()
		if err != nil {
			closers.Close()
			return nil, nil, fmt.Errorf("volume %d: %w", i, err)
		}

		var src volume.Source
		if vc.Path == "" {
			src, err = Synthetic(shape)
		} else {
			var raw *volume.RawFile
			raw, err = volume.OpenRawFile(vc.Path, shape)
			if raw != nil {
				closers = append(closers, raw)
				src = raw
			}
		}
		if err != nil {
			closers.Close()
			return nil, nil, fmt.Errorf("volume %d: %w", i, err)
		}
		layers = append(layers, slicing.Layer{Source: src, Colormap: vc.Colormap, Limits: limits})
	}

	ext, err := slicing.NewExtractor(layers, slicing.WithReverseConvention(cfg.Data.ReverseConvention))
	if err != nil {
		closers.Close()
		return nil, nil, err
	}
	return ext, closers, nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var errs []error
	for _, c := range m {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
