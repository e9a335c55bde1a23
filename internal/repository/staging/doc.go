// Package staging owns the per-build staging directory.
//
// A Manager recreates the staging directory from the read-only base template
// on every build: the previous staging tree and the stale archive are removed
// first, then the template is copied verbatim. The resulting Root handle is
// passed to the later build stages instead of changing the working directory.
package staging
