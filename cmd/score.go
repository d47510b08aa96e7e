package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/soocke/arrow-bot-go/app"
)

func newScoreCommand(setup func(*cobra.Command) (*runtimeEnv, error)) *cobra.Command {
	var dumpDir string
	cmd := &cobra.Command{
		Use:   "score <image>",
		Short: "Score a saved screenshot against every zone",
		Long:  `Runs the matching pipeline once on a saved screenshot (full screen or capture region) and prints each zone's score. Useful when tuning the color mask and threshold.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			img, err := imaging.Open(args[0])
			if err != nil {
				return err
			}
			c, err := app.BuildOfflineContainer(env.cfg, env.logger)
			if err != nil {
				return err
			}
			_, scores, err := app.ScoreImage(c, img, dumpDir)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ZONE\tKEY\tSCORE\tAT\tPRESSED")
			for _, s := range scores {
				if s.Err != nil {
					fmt.Fprintf(tw, "%s\t%s\terror: %v\t\t\n", s.Zone, s.Key, s.Err)
					continue
				}
				at := "-"
				if s.Located {
					at = fmt.Sprintf("%d,%d", s.X, s.Y)
				}
				fmt.Fprintf(tw, "%s\t%s\t%.4f\t%s\t%t\n", s.Zone, s.Key, s.Score, at, s.Pressed)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&dumpDir, "dump", "", "write each zone's masked grayscale ROI as PNG into this directory")
	return cmd
}
