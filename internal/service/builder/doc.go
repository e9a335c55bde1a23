// Package builder runs the module packaging pipeline for one release.
//
// The pipeline validates the release identifier, recreates the staging
// directory from the base template, writes module.prop, collects the manifest
// (required top-level files followed by every configured subtree) and writes
// the zip archive into the output directory. Stages run strictly in order and
// the first fatal error aborts the rest; files missing at archive time are
// only reported as warnings.
package builder
