package cli

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"seismicview/internal/models"
	"seismicview/pkg/session"
	"seismicview/pkg/visualization"
)

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	var (
		axisFlag string
		layer    int
		outDir   string
		nodes    bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export slices as grayscale images",
		Long: `Export every slice along one or all axes as JPEG images, one directory per
axis. With --nodes only the configured slices are written, as PNG, one
file per volume layer.`,
		Example: `  # Every slice along every axis
  seismicview export --out slices

  # Inline slices of the second layer
  seismicview export --axis y --layer 1

  # Only the configured slice positions
  seismicview export --nodes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			if outDir == "" {
				outDir = cfg.Output.SlicesDir
			}

			ext, closer, err := session.OpenExtractor(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			if layer < 0 || layer >= ext.Layers() {
				return fmt.Errorf("layer %d out of range [0, %d)", layer, ext.Layers())
			}
			viewer := visualization.NewViewer(ext)

			if nodes {
				s, err := session.New(cfg, ext, nil)
				if err != nil {
					return err
				}
				defer s.Close()

				for _, node := range s.Scene().Nodes() {
					files, err := viewer.SaveNode(node, outDir)
					if err != nil {
						return err
					}
					for _, f := range files {
						fmt.Fprintln(cmd.OutOrStdout(), f)
					}
				}
				return nil
			}

			axes := models.Axes[:]
			if axisFlag != "" {
				axis, err := models.ParseAxis(axisFlag)
				if err != nil {
					return err
				}
				axes = []models.Axis{axis}
			}

			for _, axis := range axes {
				axisDir := filepath.Join(outDir, axis.String())
				fmt.Fprintf(cmd.OutOrStdout(), "Saving %s-axis slices to: %s\n", axis, axisDir)
				if err := viewer.SaveSliceSequence(axis, layer, axisDir); err != nil {
					logrus.WithError(err).WithField("axis", axis.String()).Warn("Failed to save slices")
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&axisFlag, "axis", "", "axis to export (x, y or z); all axes when empty")
	cmd.Flags().IntVar(&layer, "layer", 0, "volume layer to export")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: output.slicesDir)")
	cmd.Flags().BoolVar(&nodes, "nodes", false, "export only the configured slices")
	return cmd
}
