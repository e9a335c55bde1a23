package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestManifest_OrderAndDeduplication keeps the first occurrence of every entry.
func TestManifest_OrderAndDeduplication(t *testing.T) {
	t.Parallel()

	m, err := New("install.sh", "module.prop", "./install.sh")
	require.NoError(t, err)

	require.NoError(t, m.Add("system/bin/a", "system//bin/./a", "META-INF/x"))
	require.Equal(t, []string{"install.sh", "module.prop", "system/bin/a", "META-INF/x"}, m.Entries())
	require.Equal(t, 4, m.Len())

	// Entries returns a copy.
	entries := m.Entries()
	entries[0] = "changed"
	require.Equal(t, "install.sh", m.Entries()[0])
}

// TestNormalize rejects paths that would escape the archive root.
func TestNormalize(t *testing.T) {
	t.Parallel()

	got, err := Normalize("./system/etc/../bin/x")
	require.NoError(t, err)
	require.Equal(t, "system/bin/x", got)

	for _, p := range []string{"", ".", "/etc/passwd", "../outside", "a/../../b"} {
		_, err = Normalize(p)
		require.ErrorIs(t, err, ErrUnsafePath, p)
	}

	_, err = New("ok", "../bad")
	require.ErrorIs(t, err, ErrUnsafePath)
}
