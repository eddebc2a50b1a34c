// Package cmd defines the pdfingest CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/pdfingest/internal/app"
	"github.com/JakeFAU/pdfingest/internal/config"
	"github.com/JakeFAU/pdfingest/internal/pipeline"
)

// App is the part of *app.App the commands use. Tests substitute a fake.
type App interface {
	Run(ctx context.Context) error
	ProcessOnce(ctx context.Context, bucket, key string) (pipeline.Result, error)
	Close(ctx context.Context) error
}

// newApp is the application factory; a variable so tests can replace it.
var newApp = func(ctx context.Context, cfg *config.Config) (App, error) {
	return app.Build(ctx, cfg)
}

type rootOptions struct {
	configFile string
	envFiles   []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "pdfingest",
		Short: "Fetch PDFs from object storage, partition them, store the elements, and announce completion.",
		Long: `pdfingest pulls a PDF from an S3-compatible bucket, splits it into typed
elements, writes them as one document to the document store, and publishes a
"success" notification keyed by the object key.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "dotenv files loaded before reading the environment")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newProcessCmd(opts))
	return cmd
}

// buildApp loads .env files and config, then constructs the application.
func buildApp(ctx context.Context, opts *rootOptions) (App, *config.Config, error) {
	if err := config.LoadDotEnv(opts.envFiles...); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, nil, err
	}
	a, err := newApp(ctx, &cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize application services: %w", err)
	}
	return a, &cfg, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
