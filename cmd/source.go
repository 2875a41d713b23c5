package cmd

import (
	"github.com/eventatlas/eventatlas/app"
	"github.com/eventatlas/eventatlas/db/entities"
	"github.com/eventatlas/eventatlas/utils"
	"github.com/spf13/cobra"
)

func newSourcePutCmd() *cobra.Command {
	var (
		name string
		url  string
	)
	put := &cobra.Command{
		Use:   "put CODE",
		Short: "Create or replace a source",
		Long:  ``,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := &entities.Source{Code: args[0], Name: name}
			if url != "" {
				source.URL = utils.Pointer(url)
			}
			source.Normalize()
			if err := source.Validate(); err != nil {
				return err
			}
			return withApp(func(a *app.Application) error {
				created, err := a.DB().Sources.Upsert(cmd.Context(), source)
				if err != nil {
					return err
				}
				if created {
					cmd.Printf("source %q created\n", source.Code)
				} else {
					cmd.Printf("source %q updated\n", source.Code)
				}
				return nil
			})
		},
	}
	put.Flags().StringVar(&name, "name", "", "Display name of the source")
	put.Flags().StringVar(&url, "url", "", "Homepage of the source")
	return put
}

func newSourceCmd() *cobra.Command {
	source := &cobra.Command{
		Use:               "source",
		Short:             "Source commands",
		Long:              ``,
		PersistentPreRunE: loadConfig,
	}
	source.AddCommand(newSourcePutCmd())
	return source
}
