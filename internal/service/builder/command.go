package builder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/oshokin/magisk-builder/internal/archive"
	"github.com/oshokin/magisk-builder/internal/config"
	"github.com/oshokin/magisk-builder/internal/domain/module"
	"github.com/oshokin/magisk-builder/internal/logger"
	"github.com/oshokin/magisk-builder/internal/manifest"
	"github.com/oshokin/magisk-builder/internal/repository/staging"
)

// outputDirMode is the permission of a created output directory.
const outputDirMode os.FileMode = 0o755

// Options contains inputs for the builder entry point.
type Options struct {
	// ConfigPath is an optional path to the build settings (defaults to magisk-builder.yaml).
	ConfigPath string
	// Release is the release identifier; empty means the configured default release.
	Release string
	// BaseDir overrides the configured base template directory.
	BaseDir string
	// StagingDir overrides the configured staging directory.
	StagingDir string
	// OutputDir overrides the configured output directory.
	OutputDir string
}

// Result is the outcome of a successful build.
type Result struct {
	// Release is the parsed release identifier.
	Release module.Release
	// ArchivePath is the location of the written archive.
	ArchivePath string
	// StagingDir is the prepared staging directory.
	StagingDir string
	// Manifest lists every entry that was requested, in order.
	Manifest []string
	// Entries lists what the archive actually contains.
	Entries []string
	// Warnings lists manifest entries that were skipped because they were missing.
	Warnings []string
	// Digest identifies the archive contents.
	Digest string
}

// builder holds the state of a single build. Callers use Run.
type builder struct {
	// cfg holds the resolved build settings.
	cfg *config.Config
	// release is the validated release identifier.
	release module.Release
	// stager recreates the staging directory.
	stager *staging.Manager
	// writer assembles the archive.
	writer *archive.Writer
}

// Run loads settings, applies overrides and builds the archive for the release.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, "magisk-builder")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	applyOverrides(cfg, opts)

	if err = config.Validate(cfg); err != nil {
		return nil, err
	}

	releaseID := strings.TrimSpace(opts.Release)
	if releaseID == "" {
		releaseID = cfg.DefaultRelease
	}

	res, err := Build(ctx, cfg, releaseID)
	if err != nil {
		logger.ErrorKV(ctx, "Build failed", "release", releaseID, "error", err)
		return nil, err
	}

	return res, nil
}

// Build runs the pipeline for releaseID with already loaded settings.
func Build(ctx context.Context, cfg *config.Config, releaseID string) (*Result, error) {
	// Parsing first keeps an invalid release from touching the filesystem.
	release, err := module.ParseRelease(releaseID)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithKV(ctx, "release", release.Version)

	b := &builder{
		cfg:     cfg,
		release: release,
		stager:  staging.NewManager(cfg.BaseDir, cfg.StagingDir),
		writer:  archive.NewWriter(archive.WithCompressionLevel(cfg.CompressionLevel)),
	}

	return b.Run(ctx)
}

// Run executes the stages in order.
func (b *builder) Run(ctx context.Context) (*Result, error) {
	logger.Infof(ctx, "%s version is %s", b.cfg.Module.Name, b.release.Version)

	if err := b.stager.CheckBaseTemplate(); err != nil {
		return nil, err
	}

	archivePath := b.cfg.ArchivePath(b.release.Version)

	root, err := b.stager.Prepare(ctx, archivePath)
	if err != nil {
		return nil, fmt.Errorf("prepare staging directory: %w", err)
	}

	// Created after Prepare: the output directory may live inside the staging tree.
	if err = os.MkdirAll(b.cfg.OutputDir, outputDirMode); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	descriptor := module.NewDescriptor(b.properties(), b.release)

	propPath, err := descriptor.WriteFile(root.Path())
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Created module descriptor", "path", propPath)

	entries, err := b.collect(root)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Building Magisk module")
	logger.Info(ctx, formatManifest(entries))

	written, err := b.writer.Write(ctx, root.Path(), entries, archivePath)
	if err != nil {
		return nil, fmt.Errorf("write archive: %w", err)
	}

	result := &Result{
		Release:     b.release,
		ArchivePath: written.Path,
		StagingDir:  root.Path(),
		Manifest:    entries,
		Entries:     written.Names(),
		Warnings:    written.Missing,
		Digest:      written.Digest,
	}

	logger.InfoKV(ctx, "Archive created",
		"path", result.ArchivePath,
		"entries", len(result.Entries),
		"warnings", len(result.Warnings),
		"digest", result.Digest,
	)

	return result, nil
}

// collect builds the manifest: required files, module.prop, then each subtree in order.
func (b *builder) collect(root *staging.Root) ([]string, error) {
	m, err := manifest.New(b.cfg.RequiredFiles...)
	if err != nil {
		return nil, fmt.Errorf("required files: %w", err)
	}

	// module.prop is always packaged, even if a custom required list forgets it.
	if err = m.Add(module.PropFilename); err != nil {
		return nil, err
	}

	for _, subtree := range b.cfg.Subtrees {
		files, collectErr := manifest.Collect(root.Path(), subtree, b.cfg.Excludes)
		if collectErr != nil {
			return nil, fmt.Errorf("collect %s: %w", subtree, collectErr)
		}

		if err = m.Add(files...); err != nil {
			return nil, fmt.Errorf("collect %s: %w", subtree, err)
		}
	}

	return m.Entries(), nil
}

// properties maps configured module settings to descriptor properties.
func (b *builder) properties() module.Properties {
	return module.Properties{
		ID:          b.cfg.Module.ID,
		Name:        b.cfg.Module.Name,
		Author:      b.cfg.Module.Author,
		Description: b.cfg.Module.Description,
		UpdateJSON:  b.cfg.Module.UpdateJSON,
		MinMagisk:   b.cfg.Module.MinMagisk,
	}
}

// applyOverrides replaces configured directories with non-empty command line values.
func applyOverrides(cfg *config.Config, opts *Options) {
	if opts.BaseDir != "" {
		cfg.BaseDir = opts.BaseDir
	}

	if opts.StagingDir != "" {
		cfg.StagingDir = opts.StagingDir
	}

	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}
}

// formatManifest renders the manifest as a human-readable list.
func formatManifest(entries []string) string {
	var sb strings.Builder

	sb.WriteString("Files to include in ZIP:")

	for _, name := range entries {
		sb.WriteString("\n  - ")
		sb.WriteString(name)
	}

	return sb.String()
}
