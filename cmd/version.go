package cmd

import (
	"runtime"

	"github.com/eventatlas/eventatlas/config"
	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

func newVersionCmd() *cobra.Command {
	var asJSON bool
	version := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				return printJSON(cmd, versionInfo{
					Version: config.VERSION,
					Commit:  config.COMMIT,
					Go:      runtime.Version(),
					OS:      runtime.GOOS,
					Arch:    runtime.GOARCH,
				})
			}
			cmd.Printf("EventAtlas %s (%s)\n", config.VERSION, config.COMMIT)
			return nil
		},
	}
	version.Flags().BoolVar(&asJSON, "json", false, "Print build information as JSON")
	return version
}
