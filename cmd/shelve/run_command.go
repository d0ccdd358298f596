package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"shelve/internal/daemon"
	"shelve/internal/logging"
	"shelve/internal/transport"
)

// newRunCommand runs the daemon in the foreground, equivalent to the shelved
// binary but handy for development and supervised setups.
func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			d, err := daemon.New(cfg, transport.NewLogTransport(logger), logger)
			if err != nil {
				return err
			}
			if err := d.Start(runCtx, nil); err != nil {
				return err
			}

			<-runCtx.Done()
			d.Stop()
			return nil
		},
	}
}
