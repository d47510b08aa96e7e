package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/soocke/arrow-bot-go/app"
)

func newCheckCommand(setup func(*cobra.Command) (*runtimeEnv, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and templates",
		Long:  `Loads the configuration and every template, then prints the capture region and per-zone offsets. Nothing is captured and no key is sent.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			c, err := app.BuildOfflineContainer(env.cfg, env.logger)
			if err != nil {
				return err
			}
			plan, err := c.Detector.Prepare()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config:  %s\n", env.cfgPath)
			fmt.Fprintf(out, "region:  left=%d top=%d width=%d height=%d\n", plan.Region.Left, plan.Region.Top, plan.Region.Width, plan.Region.Height)
			fmt.Fprintf(out, "mask:    %s .. %s  threshold=%.3f  interval=%s\n", env.cfg.ColorLower, env.cfg.ColorUpper, env.cfg.MatchThreshold, env.cfg.ScanInterval)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ZONE\tKEY\tOFFSET\tSIZE\tTEMPLATE")
			for _, w := range plan.Workers {
				fmt.Fprintf(tw, "%s\t%s\t%d,%d\t%dx%d\t%dx%d\n", w.Zone.Name, w.Zone.Key, w.Offset.X, w.Offset.Y, w.Offset.Width, w.Offset.Height, w.Template.Width(), w.Template.Height())
			}
			return tw.Flush()
		},
	}
}
