package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/magisk-builder/internal/service/builder"
)

var (
	// buildOptions collects directory overrides for the build command.
	buildOptions builder.Options

	// buildCmd packages one release.
	buildCmd = &cobra.Command{
		Use:   "build [release]",
		Short: "Build the module archive for a release (e.g. 3.3.1).",
		Long: `Builds the module archive for the given release identifier.

The release is a dotted numeric version. module.prop receives "v<release>" as
version and the release without dots as versionCode. Without an argument the
default_release from the configuration file is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := buildOptions
			options.ConfigPath = configPath

			if len(args) > 0 {
				options.Release = args[0]
			}

			_, err := builder.Run(ctx, &options)

			return err
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	buildCmd.Flags().StringVar(&buildOptions.BaseDir, "base", "", "base template directory (overrides config)")
	buildCmd.Flags().StringVar(&buildOptions.StagingDir, "staging", "", "staging directory (overrides config)")
	buildCmd.Flags().StringVarP(&buildOptions.OutputDir, "output", "o", "", "output directory (overrides config)")
}
