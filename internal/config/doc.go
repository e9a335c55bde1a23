// Package config defines the build settings read by magisk-builder and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the template, staging and output locations, the
// archive name template, the manifest inclusion rules and the static
// module.prop properties. A missing config file is not an error: Default
// reproduces the stock MagiskFurtif layout.
package config
