package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFile creates a file (slash-separated path relative to root) with the given mode.
func writeFile(t *testing.T, root, name, contents string, mode os.FileMode) {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), mode))
	require.NoError(t, os.Chmod(path, mode))
}

// TestManager_MissingBaseTemplate asserts the precondition failure leaves the filesystem untouched.
func TestManager_MissingBaseTemplate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	staging := filepath.Join(dir, "builds", "module")
	archive := filepath.Join(dir, "builds", "old.zip")

	writeFile(t, dir, "builds/module/keep.txt", "previous", 0o644)
	writeFile(t, dir, "builds/old.zip", "zip", 0o644)

	m := NewManager(filepath.Join(dir, "base"), staging)

	root, err := m.Prepare(context.Background(), archive)
	require.ErrorIs(t, err, ErrBaseTemplateMissing)
	require.Nil(t, root)

	require.FileExists(t, filepath.Join(staging, "keep.txt"))
	require.FileExists(t, archive)

	// A file in place of the template directory is rejected too.
	writeFile(t, dir, "base", "not a dir", 0o644)
	require.ErrorIs(t, m.CheckBaseTemplate(), ErrBaseTemplateMissing)
}

// TestManager_PrepareCopiesTemplate checks contents, modes and relative structure survive the copy.
func TestManager_PrepareCopiesTemplate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	base := filepath.Join(dir, "base")

	writeFile(t, base, "install.sh", "#!/sbin/sh\n", 0o755)
	writeFile(t, base, "system.prop", "ro.debuggable=0\n", 0o644)
	writeFile(t, base, "common/.gitkeep", "", 0o644)
	writeFile(t, base, "system/etc/init.d/99furtif", "start\n", 0o755)
	require.NoError(t, os.Symlink("99furtif", filepath.Join(base, "system", "etc", "init.d", "link")))

	m := NewManager(base, filepath.Join(dir, "builds", "module"))

	root, err := m.Prepare(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "builds", "module"), root.Path())

	got, err := os.ReadFile(root.Join("system/etc/init.d/99furtif"))
	require.NoError(t, err)
	require.Equal(t, "start\n", string(got))

	info, err := os.Stat(root.Join("install.sh"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	info, err = os.Stat(root.Join("system.prop"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	require.FileExists(t, root.Join("common/.gitkeep"))

	link, err := os.Readlink(root.Join("system/etc/init.d/link"))
	require.NoError(t, err)
	require.Equal(t, "99furtif", link)
}

// TestManager_PrepareRemovesStaleOutput verifies every build starts from a clean staging tree.
func TestManager_PrepareRemovesStaleOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	base := filepath.Join(dir, "base")
	staging := filepath.Join(dir, "builds", "module")
	archive := filepath.Join(dir, "builds", "Module-1.0.zip")

	writeFile(t, base, "service.sh", "v2\n", 0o755)
	writeFile(t, staging, "service.sh", "v1\n", 0o755)
	writeFile(t, staging, "leftover/file", "stale", 0o644)
	writeFile(t, dir, "builds/Module-1.0.zip", "stale zip", 0o644)
	writeFile(t, dir, "builds/Module-0.9.zip", "other release", 0o644)

	root, err := NewManager(base, staging).Prepare(context.Background(), archive)
	require.NoError(t, err)

	got, err := os.ReadFile(root.Join("service.sh"))
	require.NoError(t, err)
	require.Equal(t, "v2\n", string(got))

	require.NoDirExists(t, root.Join("leftover"))
	require.NoFileExists(t, archive)
	require.FileExists(t, filepath.Join(dir, "builds", "Module-0.9.zip"))
}

// TestManager_PrepareHonorsCancellation stops copying once the context is done.
func TestManager_PrepareHonorsCancellation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	base := filepath.Join(dir, "base")
	writeFile(t, base, "install.sh", "x", 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewManager(base, filepath.Join(dir, "staging")).Prepare(ctx, "")
	require.ErrorIs(t, err, context.Canceled)
}

// TestManager_RejectsOverlappingDirs keeps the template intact when staging would contain it.
func TestManager_RejectsOverlappingDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	builds := filepath.Join(dir, "builds")
	base := filepath.Join(builds, "base")

	writeFile(t, base, "install.sh", "#!/sbin/sh\n", 0o755)

	root, err := NewManager(base, builds).Prepare(context.Background(), "")
	require.ErrorIs(t, err, ErrOverlappingDirs)
	require.Nil(t, root)
	require.FileExists(t, filepath.Join(base, "install.sh"))

	// Staging inside the template is rejected too.
	_, err = NewManager(base, filepath.Join(base, "staging")).Prepare(context.Background(), "")
	require.ErrorIs(t, err, ErrOverlappingDirs)
	require.NoDirExists(t, filepath.Join(base, "staging"))
}
