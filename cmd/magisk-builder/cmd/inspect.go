package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/oshokin/magisk-builder/internal/service/inspector"
)

// inspectCmd lists a built archive.
//
//nolint:gochecknoglobals // Cobra commands are package-level by convention.
var inspectCmd = &cobra.Command{
	Use:   "inspect <archive>",
	Short: "List archive entries with sizes and xxhash64 digests.",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		_, err := inspector.Run(context.Background(), &inspector.Options{ArchivePath: args[0]})

		return err
	},
}
