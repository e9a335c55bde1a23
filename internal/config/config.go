package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of a single module build.
type Config struct {
	// BaseDir is the read-only base template of the unpackaged module.
	BaseDir string `yaml:"base_dir"`
	// StagingDir is recreated from BaseDir on every build.
	StagingDir string `yaml:"staging_dir"`
	// OutputDir receives the archive artifact.
	OutputDir string `yaml:"output_dir"`
	// ArchiveName is the archive filename template; VersionPlaceholder is replaced by the release.
	ArchiveName string `yaml:"archive_name"`
	// DefaultRelease is used when no release is passed on the command line.
	DefaultRelease string `yaml:"default_release"`
	// CompressionLevel is the Deflate level, 1 (fastest) to 9 (smallest).
	CompressionLevel int `yaml:"compression_level"`
	// RequiredFiles are top-level files that always lead the manifest.
	RequiredFiles []string `yaml:"required_files"`
	// Subtrees are directories walked recursively after the required files.
	Subtrees []string `yaml:"subtrees"`
	// Excludes are doublestar patterns of files never packaged.
	Excludes []string `yaml:"excludes"`
	// Module holds the static module.prop properties.
	Module Module `yaml:"module"`
}

// Module holds the static part of module.prop.
type Module struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Author      string `yaml:"author"`
	Description string `yaml:"description"`
	UpdateJSON  string `yaml:"update_json"`
	MinMagisk   int    `yaml:"min_magisk"`
}

const (
	// DefaultConfigFilename is the default filename for build settings.
	DefaultConfigFilename = "magisk-builder.yaml"

	// VersionPlaceholder is substituted with the release in ArchiveName.
	VersionPlaceholder = "{version}"

	// DefaultCompressionLevel packs as small as Deflate allows.
	DefaultCompressionLevel = 9

	// DefaultFilePermissions is the file permission used for saved settings.
	DefaultFilePermissions = 0o600
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")

	errConfigIsNotSet = errors.New("configuration is not set")
)

// Default returns the settings of the stock MagiskFurtif module.
func Default() *Config {
	return &Config{
		BaseDir:          "base",
		StagingDir:       filepath.Join("builds", "module"),
		OutputDir:        "builds",
		ArchiveName:      "MagiskFurtif-f3ger-" + VersionPlaceholder + ".zip",
		DefaultRelease:   "3.3.1",
		CompressionLevel: DefaultCompressionLevel,
		RequiredFiles: []string{
			"install.sh",
			"module.prop",
			"service.sh",
			"post-fs-data.sh",
			"system.prop",
		},
		Subtrees: []string{"system", "META-INF"},
		Excludes: []string{"**/placeholder", "**/.gitkeep"},
		Module: Module{
			ID:          "magiskfurtif",
			Name:        "MagiskFurtif",
			Author:      "Furtif and f3ger",
			Description: "Runs Apk-Tools on boot with magisk.",
			UpdateJSON:  "https://raw.githubusercontent.com/f3ger/magisk-furtif/refs/heads/main/updater.json",
			MinMagisk:   1530,
		},
	}
}

// Load reads settings from path on top of Default and validates them.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	cfg := Default()

	contents, err := os.ReadFile(filepath.Clean(path))

	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills in defaults for omitted optional ones.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if strings.TrimSpace(cfg.BaseDir) == "" {
		return fmt.Errorf("%w: base_dir must be set", ErrInvalidConfig)
	}

	if strings.TrimSpace(cfg.StagingDir) == "" {
		return fmt.Errorf("%w: staging_dir must be set", ErrInvalidConfig)
	}

	if strings.TrimSpace(cfg.OutputDir) == "" {
		return fmt.Errorf("%w: output_dir must be set", ErrInvalidConfig)
	}

	if isWithin(cfg.BaseDir, cfg.StagingDir) {
		return fmt.Errorf("%w: staging_dir must be outside base_dir", ErrInvalidConfig)
	}

	// The staging tree is deleted on every build, so it must not hold the template.
	if isWithin(cfg.StagingDir, cfg.BaseDir) {
		return fmt.Errorf("%w: base_dir must be outside staging_dir", ErrInvalidConfig)
	}

	if !strings.Contains(cfg.ArchiveName, VersionPlaceholder) {
		return fmt.Errorf("%w: archive_name must contain %s", ErrInvalidConfig, VersionPlaceholder)
	}

	if strings.ContainsAny(cfg.ArchiveName, `/\`) {
		return fmt.Errorf("%w: archive_name must be a bare filename", ErrInvalidConfig)
	}

	if cfg.CompressionLevel == 0 {
		cfg.CompressionLevel = DefaultCompressionLevel
	}

	if cfg.CompressionLevel < 1 || cfg.CompressionLevel > 9 {
		return fmt.Errorf("%w: compression_level %d is out of range 1..9", ErrInvalidConfig, cfg.CompressionLevel)
	}

	if strings.TrimSpace(cfg.Module.ID) == "" {
		return fmt.Errorf("%w: module.id must be set", ErrInvalidConfig)
	}

	for _, pattern := range cfg.Excludes {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: bad exclude pattern %q", ErrInvalidConfig, pattern)
		}
	}

	return nil
}

// ArchiveFilename returns the archive filename for release.
func (c *Config) ArchiveFilename(release string) string {
	return strings.ReplaceAll(c.ArchiveName, VersionPlaceholder, release)
}

// ArchivePath returns the full archive path for release.
func (c *Config) ArchivePath(release string) string {
	return filepath.Join(c.OutputDir, c.ArchiveFilename(release))
}

// isWithin reports whether path equals dir or lies below it.
func isWithin(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
