package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/eventatlas/eventatlas/app"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type startOptions struct {
	noWorker bool
	noAPI    bool
}

// apply disables components on top of the loaded configuration
func (o startOptions) apply() {
	if o.noWorker {
		cfg.Worker.Enabled = false
	}
	if o.noAPI {
		cfg.API.Listen = ""
	}
}

func newStartCmd() *cobra.Command {
	var opts startOptions
	start := &cobra.Command{
		Use:               "start",
		Short:             "Start the node",
		Long:              `Start the ingestion worker, the query API and the status server as configured.`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.apply()

			application, err := app.New(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				zap.S().Infof("received signal, shutting down")
				if err := application.Stop(); err != nil {
					zap.S().Errorf("shutdown failed: %v", err)
					os.Exit(1)
				}
			}()

			if err := application.Start(); err != nil {
				application.Close()
				return err
			}
			application.Wait()
			return nil
		},
	}
	start.Flags().BoolVar(&opts.noWorker, "no-worker", false, "Do not consume jobs on this node")
	start.Flags().BoolVar(&opts.noAPI, "no-api", false, "Do not serve the query API on this node")
	return start
}
