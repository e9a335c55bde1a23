package scaffold

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/oshokin/magisk-builder/internal/config"
	"github.com/oshokin/magisk-builder/internal/logger"
)

const (
	// KeepFilename marks otherwise empty directories.
	KeepFilename = ".gitkeep"

	dirMode  os.FileMode = 0o755
	keepMode os.FileMode = 0o644
)

// Directories are created inside the base template.
//
//nolint:gochecknoglobals // Fixed layout of a Magisk module template.
var Directories = []string{"common", "system", "META-INF"}

// Options contains inputs for the scaffold entry point.
type Options struct {
	// ConfigPath is an optional path to the build settings.
	ConfigPath string
	// BaseDir overrides the configured base template directory.
	BaseDir string
}

// Run creates the base template layout. Existing files are left untouched.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "magisk-builder-init")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	baseDir := cfg.BaseDir
	if opts.BaseDir != "" {
		baseDir = opts.BaseDir
	}

	created, err := Create(baseDir)
	if err != nil {
		return err
	}

	if len(created) == 0 {
		logger.InfoKV(ctx, "Base template already present", "path", baseDir)
		return nil
	}

	for _, path := range created {
		logger.InfoKV(ctx, "Created", "path", path)
	}

	return nil
}

// Create makes baseDir and its module directories, each with a keep marker,
// and returns the paths it created.
func Create(baseDir string) ([]string, error) {
	var created []string

	for _, dir := range Directories {
		path := filepath.Join(baseDir, dir)

		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if err = os.MkdirAll(path, dirMode); err != nil {
				return created, fmt.Errorf("create %s: %w", path, err)
			}

			created = append(created, path)
		} else if err != nil {
			return created, fmt.Errorf("stat %s: %w", path, err)
		}

		keep := filepath.Join(path, KeepFilename)

		file, err := os.OpenFile(keep, os.O_CREATE|os.O_EXCL|os.O_WRONLY, keepMode)
		if errors.Is(err, fs.ErrExist) {
			continue
		}

		if err != nil {
			return created, fmt.Errorf("create %s: %w", keep, err)
		}

		if err = file.Close(); err != nil {
			return created, fmt.Errorf("close %s: %w", keep, err)
		}

		created = append(created, keep)
	}

	return created, nil
}
