package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newProcessCmd(opts *rootOptions) *cobra.Command {
	var bucket, key string
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process one PDF and exit",
		Long: `Runs a single ingestion without starting the HTTP server. Without flags the
bucket and key come from run.bucket / run.key (default esg-x-v8 / aaaaaaa.pdf).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cfg, err := buildApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(cmd.Context())) //nolint:errcheck // logged by Close

			if bucket == "" {
				bucket = cfg.Run.Bucket
			}
			if key == "" {
				key = cfg.Run.Key
			}
			res, err := a.ProcessOnce(cmd.Context(), bucket, key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored document %s with %d elements\n", res.DocumentID, res.ElementCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "bucket holding the PDF (default run.bucket)")
	cmd.Flags().StringVar(&key, "key", "", "object key of the PDF (default run.key)")
	return cmd
}
