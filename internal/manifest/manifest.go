package manifest

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ErrUnsafePath is returned for entries that would escape the archive root.
var ErrUnsafePath = errors.New("path escapes the staging root")

// Manifest is an ordered set of slash-separated paths relative to the staging root.
type Manifest struct {
	entries []string
	seen    map[string]struct{}
}

// New creates a manifest pre-populated with paths.
func New(paths ...string) (*Manifest, error) {
	m := &Manifest{
		seen: make(map[string]struct{}, len(paths)),
	}

	if err := m.Add(paths...); err != nil {
		return nil, err
	}

	return m, nil
}

// Add appends paths in order, skipping ones already present.
func (m *Manifest) Add(paths ...string) error {
	for _, p := range paths {
		name, err := Normalize(p)
		if err != nil {
			return err
		}

		if _, ok := m.seen[name]; ok {
			continue
		}

		m.seen[name] = struct{}{}
		m.entries = append(m.entries, name)
	}

	return nil
}

// Entries returns a copy of the manifest in insertion order.
func (m *Manifest) Entries() []string {
	return append([]string(nil), m.entries...)
}

// Len returns the number of distinct entries.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Normalize converts p into the archive entry form: slash-separated, cleaned,
// relative, with no leading "./".
func Normalize(p string) (string, error) {
	name := path.Clean(filepath.ToSlash(strings.TrimSpace(p)))

	switch {
	case name == "." || name == "":
		return "", fmt.Errorf("%w: %q is empty", ErrUnsafePath, p)
	case path.IsAbs(name) || filepath.IsAbs(p) || filepath.VolumeName(p) != "":
		return "", fmt.Errorf("%w: %q is absolute", ErrUnsafePath, p)
	case name == ".." || strings.HasPrefix(name, "../"):
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, p)
	}

	return name, nil
}
