package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/oshokin/magisk-builder/internal/service/scaffold"
)

var (
	// initBaseDir overrides the configured base template directory.
	initBaseDir string

	// initCmd scaffolds an empty base template.
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Create an empty base template (common, system, META-INF).",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return scaffold.Run(context.Background(), &scaffold.Options{
				ConfigPath: configPath,
				BaseDir:    initBaseDir,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	initCmd.Flags().StringVar(&initBaseDir, "base", "", "base template directory (overrides config)")
}
