// Package module contains the domain types of a Magisk module release.
//
// It parses a dotted release identifier into a Release (display version plus
// numeric version code) and renders the module.prop descriptor from a Release
// and the static module Properties. Rendering always uses "\n" line endings so
// the descriptor is byte-identical on every build host.
package module
