package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/magisk-builder/internal/logger"
)

var (
	// ErrBaseTemplateMissing is returned when the base template directory does not exist.
	ErrBaseTemplateMissing = errors.New("base template directory is missing")
	// ErrOverlappingDirs is returned when the base template and staging directory contain one another.
	ErrOverlappingDirs = errors.New("base template and staging directory overlap")
)

// dirMode is used for the staging root when the template's mode cannot be applied.
const dirMode os.FileMode = 0o755

// Manager prepares staging directories from a base template.
type Manager struct {
	// baseDir is the read-only template.
	baseDir string
	// stagingDir is deleted and recreated on each Prepare.
	stagingDir string
}

// Root is a prepared staging directory.
type Root struct {
	path string
}

// NewManager creates a manager copying baseDir into stagingDir.
func NewManager(baseDir, stagingDir string) *Manager {
	return &Manager{
		baseDir:    filepath.Clean(baseDir),
		stagingDir: filepath.Clean(stagingDir),
	}
}

// CheckBaseTemplate returns ErrBaseTemplateMissing unless the base template is a directory.
func (m *Manager) CheckBaseTemplate() error {
	info, err := os.Stat(m.baseDir)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrBaseTemplateMissing, m.baseDir)
	}

	if err != nil {
		return fmt.Errorf("stat base template: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrBaseTemplateMissing, m.baseDir)
	}

	return nil
}

// Prepare removes the previous staging tree and staleArchive (if set) and copies
// the base template into a fresh staging directory.
// Nothing is touched when the base template is missing.
func (m *Manager) Prepare(ctx context.Context, staleArchive string) (*Root, error) {
	if err := m.CheckBaseTemplate(); err != nil {
		return nil, err
	}

	if err := m.checkOverlap(); err != nil {
		return nil, err
	}

	if err := m.removeStale(ctx, staleArchive); err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Copying base template", "from", m.baseDir, "to", m.stagingDir)

	if err := copyTree(ctx, m.baseDir, m.stagingDir); err != nil {
		return nil, fmt.Errorf("copy base template: %w", err)
	}

	return &Root{path: m.stagingDir}, nil
}

// checkOverlap rejects layouts where removing the staging tree would delete the
// template or copying the template would recurse into its own copy.
func (m *Manager) checkOverlap() error {
	base, err := filepath.Abs(m.baseDir)
	if err != nil {
		return fmt.Errorf("resolve base template: %w", err)
	}

	staging, err := filepath.Abs(m.stagingDir)
	if err != nil {
		return fmt.Errorf("resolve staging directory: %w", err)
	}

	if contains(base, staging) || contains(staging, base) {
		return fmt.Errorf("%w: %s and %s", ErrOverlappingDirs, m.baseDir, m.stagingDir)
	}

	return nil
}

// contains reports whether the absolute path equals dir or lies below it.
func contains(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// removeStale deletes the staging tree and the previous archive.
func (m *Manager) removeStale(ctx context.Context, staleArchive string) error {
	if _, err := os.Lstat(m.stagingDir); err == nil {
		logger.InfoKV(ctx, "Removing previous staging directory", "path", m.stagingDir)

		if err = os.RemoveAll(m.stagingDir); err != nil {
			return fmt.Errorf("remove staging directory: %w", err)
		}
	}

	if staleArchive == "" {
		return nil
	}

	err := os.Remove(staleArchive)

	switch {
	case err == nil:
		logger.InfoKV(ctx, "Removed previous archive", "path", staleArchive)
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("remove previous archive: %w", err)
	}

	return nil
}

// Path returns the staging root directory.
func (r *Root) Path() string {
	return r.path
}

// Join returns the host path of a slash-separated path relative to the root.
func (r *Root) Join(rel string) string {
	return filepath.Join(r.path, filepath.FromSlash(rel))
}

// copyTree copies src into dst preserving structure, contents, permission bits and symlinks.
func copyTree(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("relative path of %s: %w", path, err)
		}

		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		switch {
		case d.IsDir():
			mode := info.Mode().Perm() | 0o700
			if rel == "." {
				mode = dirMode
			}

			if err = os.MkdirAll(target, mode); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}

			return nil
		case d.Type()&fs.ModeSymlink != 0:
			link, linkErr := os.Readlink(path)
			if linkErr != nil {
				return fmt.Errorf("read symlink %s: %w", path, linkErr)
			}

			if err = os.Symlink(link, target); err != nil {
				return fmt.Errorf("create symlink %s: %w", target, err)
			}

			return nil
		case d.Type().IsRegular():
			return copyFile(path, target, info.Mode().Perm())
		default:
			logger.DebugKV(ctx, "Skipping special file", "path", path)

			return nil
		}
	})
}

// copyFile copies a regular file and applies perm explicitly so the umask does not alter it.
func copyFile(src, dst string, perm os.FileMode) (err error) {
	srcFile, err := os.Open(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}

	defer func() {
		_ = srcFile.Close()
	}()

	dstFile, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}

	defer func() {
		if closeErr := dstFile.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close destination file: %w", closeErr)
		}
	}()

	if _, err = io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("copy file contents: %w", err)
	}

	if err = dstFile.Chmod(perm); err != nil {
		return fmt.Errorf("set file mode: %w", err)
	}

	return nil
}
