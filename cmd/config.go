package cmd

import (
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	c := &cobra.Command{
		Use:               "config",
		Short:             "Inspect the effective configuration",
		PersistentPreRunE: loadConfig,
	}

	c.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration as JSON, secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd, cfg)
		},
	})

	c.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println("configuration is valid")
			return nil
		},
	})

	return c
}
