// Package manifest builds the ordered list of files packaged into a module archive.
//
// Collect walks one subtree of the staging root in lexical order and returns
// slash-separated paths relative to that root, skipping files matched by the
// exclude patterns (the placeholder and .gitkeep markers by default). Manifest
// keeps the concatenated result in insertion order without duplicates.
package manifest
