package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"seismicview/internal/models"
	"seismicview/pkg/session"
)

type axisReport struct {
	Bounds [2]int `yaml:"bounds"`
	Slice  [2]int `yaml:"sliceShape"`
}

type layerReport struct {
	Colormap string  `yaml:"colormap"`
	Min      float64 `yaml:"min"`
	Max      float64 `yaml:"max"`
}

type inspectReport struct {
	Shape   [3]int                `yaml:"shape"`
	Reverse bool                  `yaml:"reverseConvention"`
	Axes    map[string]axisReport `yaml:"axes"`
	Layers  []layerReport         `yaml:"layers"`
	Slices  map[string][]int      `yaml:"slices"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show volume shape, slice bounds and color limits",
		Long: `Open the configured volumes and print their shape, the index bounds and
slice shape per axis, the color limits of every layer and the configured
slice positions.`,
		Example: `  seismicview inspect --config survey.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			ext, closer, err := session.OpenExtractor(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			report := inspectReport{
				Shape:   ext.Shape(),
				Reverse: ext.Reverse(),
				Axes:    make(map[string]axisReport),
				Slices:  make(map[string][]int),
			}
			for _, axis := range models.Axes {
				b := ext.Bounds(axis)
				r, c := ext.ShapeOf(axis)
				report.Axes[axis.String()] = axisReport{Bounds: [2]int{b.Min, b.Max}, Slice: [2]int{r, c}}
			}
			for i := 0; i < ext.Layers(); i++ {
				limits := ext.Limits(i)
				report.Layers = append(report.Layers, layerReport{Colormap: ext.Colormap(i), Min: limits.Min, Max: limits.Max})
			}
			for _, sc := range cfg.Slices {
				axis, err := models.ParseAxis(sc.Axis)
				if err != nil {
					return err
				}
				for _, p := range sc.Positions {
					pos, ok := ext.Bounds(axis).ClampPosition(p)
					if !ok {
						continue
					}
					report.Slices[axis.String()] = append(report.Slices[axis.String()], pos)
				}
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(report)
		},
	}
}
