package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/magisk-builder/internal/logger"
)

// writeFile creates a file (slash-separated path relative to root).
func writeFile(t *testing.T, root, name, contents string, mode os.FileMode) {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), mode))
	require.NoError(t, os.Chmod(path, mode))
}

// TestWriter_StoresRelativeNames checks entry names, order, contents and modes.
func TestWriter_StoresRelativeNames(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "install.sh", "#!/sbin/sh\n", 0o755)
	writeFile(t, root, "module.prop", "id=x\n", 0o644)
	writeFile(t, root, "system/etc/init.d/99furtif", "run\n", 0o755)

	target := filepath.Join(t.TempDir(), "module.zip")

	res, err := NewWriter().Write(context.Background(), root,
		[]string{"install.sh", "module.prop", "system/etc/init.d/99furtif"}, target)
	require.NoError(t, err)
	require.Equal(t, target, res.Path)
	require.Empty(t, res.Missing)
	require.Equal(t, []string{"install.sh", "module.prop", "system/etc/init.d/99furtif"}, res.Names())

	zr, err := zip.OpenReader(target)
	require.NoError(t, err)

	defer func() {
		_ = zr.Close()
	}()

	require.Len(t, zr.File, 3)

	for _, f := range zr.File {
		require.False(t, filepath.IsAbs(f.Name))
		require.NotContains(t, f.Name, root)
		require.Equal(t, zip.Deflate, f.Method)
		require.True(t, f.Modified.Equal(DefaultModTime), f.Name)
	}

	rc, err := zr.File[2].Open()
	require.NoError(t, err)

	contents, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "run\n", string(contents))
	require.Equal(t, os.FileMode(0o755), zr.File[0].Mode().Perm())
	require.Equal(t, os.FileMode(0o644), zr.File[1].Mode().Perm())
}

// TestWriter_SkipsMissingWithWarning asserts missing entries are logged and the build continues.
func TestWriter_SkipsMissingWithWarning(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	ctx := logger.ToContext(context.Background(), logger.NewWithWriter(&buf, zapcore.DebugLevel))

	root := t.TempDir()
	writeFile(t, root, "install.sh", "x", 0o644)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "system"), 0o755))

	target := filepath.Join(t.TempDir(), "module.zip")

	res, err := NewWriter().Write(ctx, root, []string{"install.sh", "system.prop", "system", "service.sh"}, target)
	require.NoError(t, err)
	require.Equal(t, []string{"install.sh"}, res.Names())
	require.Equal(t, []string{"system.prop", "system", "service.sh"}, res.Missing)

	out := buf.String()
	require.Contains(t, out, "WARN")
	require.Contains(t, out, "system.prop")
	require.Contains(t, out, "service.sh")

	entries, err := Read(target)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

// TestWriter_DeduplicatesEntries stores repeated manifest entries once.
func TestWriter_DeduplicatesEntries(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a", "1", 0o644)
	writeFile(t, root, "b", "2", 0o644)

	target := filepath.Join(t.TempDir(), "module.zip")

	res, err := NewWriter().Write(context.Background(), root, []string{"a", "b", "a", "b"}, target)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, res.Names())

	entries, err := Read(target)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

// TestWriter_ReproducibleBytes verifies two writes of the same tree are byte-identical.
func TestWriter_ReproducibleBytes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "install.sh", "#!/sbin/sh\necho hi\n", 0o755)
	writeFile(t, root, "META-INF/com/google/android/update-binary", "binary", 0o644)

	entries := []string{"install.sh", "META-INF/com/google/android/update-binary"}
	out := t.TempDir()
	first := filepath.Join(out, "first.zip")
	second := filepath.Join(out, "second.zip")

	w := NewWriter(WithCompressionLevel(6))

	res1, err := w.Write(context.Background(), root, entries, first)
	require.NoError(t, err)

	// A later mtime on the source must not change the archive.
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "install.sh"), later, later))

	res2, err := w.Write(context.Background(), root, entries, second)
	require.NoError(t, err)
	require.Equal(t, res1.Digest, res2.Digest)

	b1, err := os.ReadFile(first)
	require.NoError(t, err)

	b2, err := os.ReadFile(second)
	require.NoError(t, err)
	require.Equal(t, b1, b2)
}

// TestWriter_RemovesPartialArchiveOnCancel ensures a cancelled build leaves no archive behind.
func TestWriter_RemovesPartialArchiveOnCancel(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a", "1", 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := filepath.Join(t.TempDir(), "module.zip")

	res, err := NewWriter().Write(ctx, root, []string{"a"}, target)
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, res)
	require.NoFileExists(t, target)
}

// TestWriter_Options checks option bounds.
func TestWriter_Options(t *testing.T) {
	t.Parallel()

	w := NewWriter(WithCompressionLevel(0), WithModTime(time.Time{}))
	require.Equal(t, DefaultCompressionLevel, w.level)
	require.Equal(t, DefaultModTime, w.modTime)

	ts := time.Date(2020, time.May, 5, 0, 0, 0, 0, time.UTC)
	w = NewWriter(WithCompressionLevel(1), WithModTime(ts))
	require.Equal(t, 1, w.level)
	require.Equal(t, ts, w.modTime)
}
