package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soocke/arrow-bot-go/app"
)

func newRunCommand(setup func(*cobra.Command) (*runtimeEnv, error)) *cobra.Command {
	var opts app.RunOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start detection until interrupted",
		Long:  `Starts the capture loop and one worker per zone. SIGINT or SIGTERM stops the session and releases every held key.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			c, err := app.BuildContainer(env.cfg, env.logger)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx, c, opts)
		},
	}
	cmd.Flags().DurationVar(&opts.Duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	cmd.Flags().DurationVar(&opts.StatusInterval, "status-interval", 0, "period of the status log line (default 5s)")
	return cmd
}
