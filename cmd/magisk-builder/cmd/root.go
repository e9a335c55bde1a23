package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/magisk-builder/internal/config"
	"github.com/oshokin/magisk-builder/internal/logger"
	"github.com/oshokin/magisk-builder/internal/version"
)

var (
	// configPath to the build settings YAML file.
	configPath string
	// logLevel is the minimum level of printed messages.
	logLevel string

	// rootCmd represents the base command; the work is done by its subcommands.
	rootCmd = &cobra.Command{
		Use:   "magisk-builder",
		Short: "Package a Magisk module template into a flashable zip.",
		Long: `Builds a versioned, installable Magisk module archive from a base template.

Every build recreates the staging directory from the template, writes module.prop
for the requested release and packs the required files together with the system
and META-INF subtrees. Placeholder files are never packaged.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
	}
)

// Execute runs the magisk-builder CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(buildCmd, initCmd, inspectCmd)
}
