package cmd

import (
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /process-pdf/ over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, err := buildApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			// Run closes the app on shutdown.
			return a.Run(cmd.Context())
		},
	}
}
