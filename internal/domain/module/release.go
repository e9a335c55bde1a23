package module

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRelease is returned when a release identifier has no numeric version code.
var ErrInvalidRelease = errors.New("invalid release identifier")

// Release is a parsed release identifier such as "3.3.1".
type Release struct {
	// Version is the identifier exactly as given.
	Version string
	// CodeString is Version with every "." removed, leading zeros kept ("0.0.1" gives "001").
	CodeString string
	// Code is the numeric value of CodeString.
	Code uint64
}

// ParseRelease parses a dotted release identifier.
// The identifier without dots must be a decimal integer that fits in uint64;
// larger values are rejected with ErrInvalidRelease.
func ParseRelease(id string) (Release, error) {
	stripped := strings.ReplaceAll(id, ".", "")
	if stripped == "" {
		return Release{}, fmt.Errorf("%w: %q is empty", ErrInvalidRelease, id)
	}

	code, err := strconv.ParseUint(stripped, 10, 64)
	if err != nil {
		return Release{}, fmt.Errorf("%w: %q is not a non-negative integer: %w", ErrInvalidRelease, id, err)
	}

	return Release{
		Version:    id,
		CodeString: stripped,
		Code:       code,
	}, nil
}

// String returns the identifier.
func (r Release) String() string {
	return r.Version
}
