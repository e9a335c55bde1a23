// Package version reports which magisk-builder binary produced an archive.
//
// Version, Commit and BuildTime are set with
// -ldflags "-X github.com/oshokin/magisk-builder/internal/version.Version=...".
// They describe the packaging tool only; the module release written into
// module.prop comes from the build command.
package version
