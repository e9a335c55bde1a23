package inspector

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/magisk-builder/internal/archive"
	"github.com/oshokin/magisk-builder/internal/logger"
)

var errArchiveRequired = errors.New("archive path must be provided")

// Options contains inputs for the inspector entry point.
type Options struct {
	// ArchivePath is the module zip to list.
	ArchivePath string
}

// Report is the listing of one archive.
type Report struct {
	// Entries are the stored files in archive order.
	Entries []archive.Entry
	// Digest identifies the archive contents; equal digests mean equal names and contents.
	Digest string
}

// Run reads the archive and logs every entry with its size, mode and digest.
func Run(ctx context.Context, opts *Options) (*Report, error) {
	ctx = logger.WithName(ctx, "magisk-builder-inspect")

	if opts.ArchivePath == "" {
		return nil, errArchiveRequired
	}

	entries, err := archive.Read(opts.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", opts.ArchivePath, err)
	}

	report := &Report{
		Entries: entries,
		Digest:  archive.Digest(entries),
	}

	for _, e := range entries {
		logger.InfoKV(ctx, e.Name, "size", e.Size, "mode", e.Mode.String(), "xxhash", e.Digest)
	}

	logger.InfoKV(ctx, "Archive contents", "path", opts.ArchivePath, "entries", len(entries), "digest", report.Digest)

	return report, nil
}
