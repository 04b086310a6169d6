package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"seismicview/pkg/eventloop"
	"seismicview/pkg/session"
)

// NewReplayCommand creates the replay command.
func NewReplayCommand() *cobra.Command {
	var queue int

	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Replay recorded canvas events and print the final state",
		Long: `Replay a YAML script of pointer, key, slider and resize events against a
session built from the configuration. Events run one at a time on an event
loop that also drives camera inertia, exactly as on a live canvas. Pointer
coordinates are canvas pixels and hit-test the slice outlines as projected
by the current camera, so a press only grabs a slice where that slice is
drawn. The final slice positions, camera state and interaction state are
printed as YAML.`,
		Example: `  seismicview replay drag.yaml --config survey.yaml

  # drag.yaml: orbit the view, then step the x slices from the keyboard
  events:
    - {type: press, x: 150, y: 150, button: primary}
    - {type: move, x: 170, y: 150, button: primary}
    - {type: release, x: 170, y: 150, button: primary}
    - {type: wait, duration: 200ms}
    - {type: step, axis: x, delta: 3}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := session.LoadScript(args[0])
			if err != nil {
				return err
			}
			if err := script.Validate(); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			cfg := configFrom(cmd)
			ext, closer, err := session.OpenExtractor(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			loop := eventloop.New(queue)
			s, err := session.New(cfg, ext, loop)
			if err != nil {
				return err
			}
			defer s.Close()

			snap, replayErr := session.Replay(cmd.Context(), loop, s, script)
			if snap == nil {
				return replayErr
			}
			if replayErr != nil {
				logrus.WithError(replayErr).Warn("Some events failed")
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			if err := enc.Encode(snap); err != nil {
				return err
			}
			return replayErr
		},
	}

	cmd.Flags().IntVar(&queue, "queue", 256, "event queue size")
	return cmd
}
