package module

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// PropFilename is the descriptor file Magisk reads from the module root.
	PropFilename = "module.prop"

	// propFileMode is the permission of the written descriptor.
	propFileMode os.FileMode = 0o644

	// lineEnding is fixed so the descriptor does not depend on the build host.
	lineEnding = "\n"
)

// Properties are the static module.prop values that do not depend on the release.
type Properties struct {
	ID          string
	Name        string
	Author      string
	Description string
	UpdateJSON  string
	MinMagisk   int
}

// Descriptor is the full module.prop content for one release.
type Descriptor struct {
	Properties Properties
	Release    Release
}

// Property is a single key=value line of module.prop.
type Property struct {
	Key   string
	Value string
}

// NewDescriptor combines static properties with a release.
func NewDescriptor(props Properties, release Release) *Descriptor {
	return &Descriptor{
		Properties: props,
		Release:    release,
	}
}

// Lines returns the descriptor properties in module.prop order.
func (d *Descriptor) Lines() []Property {
	return []Property{
		{Key: "id", Value: d.Properties.ID},
		{Key: "name", Value: d.Properties.Name},
		{Key: "version", Value: "v" + d.Release.Version},
		{Key: "versionCode", Value: d.Release.CodeString},
		{Key: "author", Value: d.Properties.Author},
		{Key: "description", Value: d.Properties.Description},
		{Key: "updateJson", Value: d.Properties.UpdateJSON},
		{Key: "minMagisk", Value: strconv.Itoa(d.Properties.MinMagisk)},
	}
}

// Render returns module.prop bytes, one key=value per line, newline-terminated.
func (d *Descriptor) Render() []byte {
	var builder strings.Builder

	for _, line := range d.Lines() {
		// Magisk reads a property up to the end of line, so a newline inside a
		// value would silently start a new key.
		value := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(line.Value)

		builder.WriteString(line.Key)
		builder.WriteByte('=')
		builder.WriteString(value)
		builder.WriteString(lineEnding)
	}

	return []byte(builder.String())
}

// WriteFile writes module.prop into dir, replacing any existing file, and returns its path.
func (d *Descriptor) WriteFile(dir string) (string, error) {
	path := filepath.Join(dir, PropFilename)

	if err := os.WriteFile(path, d.Render(), propFileMode); err != nil {
		return "", fmt.Errorf("write %s: %w", PropFilename, err)
	}

	return path, nil
}
