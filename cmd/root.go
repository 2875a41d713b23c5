package cmd

import (
	"os"

	"github.com/eventatlas/eventatlas/config"
	"github.com/eventatlas/eventatlas/config/modules"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	configurationFile string
	verbose           bool
	cfg               *config.Config
)

func initConfig(filename string) (*config.Config, error) {
	c := config.New()
	if err := config.Load(filename, c); err != nil {
		return nil, errors.Wrap(err, "could not load configuration")
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return c, nil
}

// loadConfig is the PersistentPreRunE of commands that need configuration
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := initConfig(configurationFile)
	if err != nil {
		return err
	}
	if verbose {
		c.Log.Level = modules.LogLevelDebug
	}
	cfg = c
	return nil
}

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "eventatlas",
		Short:        "Travel events catalog",
		Long:         `EventAtlas ingests travel events from upstream sources, canonicalizes them and serves them through a search index.`,
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)

	flags := root.PersistentFlags()
	flags.BoolVar(&verbose, "verbose", false, "Log at debug level")
	flags.StringVar(&configurationFile, "config", os.Getenv("EVENTATLAS_CONFIG"), "Path of the YAML configuration file, defaults to $EVENTATLAS_CONFIG")

	root.AddCommand(
		newVersionCmd(),
		newConfigCmd(),
		newDatabaseCmd(),
		newStartCmd(),
		newIndexCmd(),
		newIngestCmd(),
		newSourceCmd(),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
