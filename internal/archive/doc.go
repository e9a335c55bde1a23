// Package archive writes and reads the flashable module zip.
//
// Writer stores each manifest entry under its path relative to the staging
// root, so the archive extracts at any install location. Missing entries are
// logged and skipped rather than failing the build. Entry timestamps are
// pinned and Deflate (klauspost/compress) is deterministic, so two builds of
// the same staging tree produce the same bytes.
//
// Read lists an existing archive with an xxhash64 digest per entry, and
// Digest folds those into one value that identifies the archive contents.
package archive
