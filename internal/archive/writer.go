package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/flate"

	"github.com/oshokin/magisk-builder/internal/logger"
)

const (
	// DefaultCompressionLevel is the Deflate level used when none is configured.
	DefaultCompressionLevel = flate.BestCompression

	// archiveFileMode is the permission of the written archive.
	archiveFileMode os.FileMode = 0o644
)

// DefaultModTime is stored on every entry instead of the staging file time.
//
//nolint:gochecknoglobals // time.Time cannot be a constant.
var DefaultModTime = time.Date(2008, time.January, 1, 0, 0, 0, 0, time.UTC)

var errNotRegular = errors.New("not a regular file")

// Writer assembles module archives.
type Writer struct {
	// level is the Deflate compression level.
	level int
	// modTime is stored as the modification time of every entry.
	modTime time.Time
}

// Option configures a Writer.
type Option func(*Writer)

// WithCompressionLevel sets the Deflate level (1..9). Other values are ignored.
func WithCompressionLevel(level int) Option {
	return func(w *Writer) {
		if level >= flate.BestSpeed && level <= flate.BestCompression {
			w.level = level
		}
	}
}

// WithModTime sets the modification time stored on every entry.
func WithModTime(t time.Time) Option {
	return func(w *Writer) {
		if !t.IsZero() {
			w.modTime = t
		}
	}
}

// NewWriter creates a Writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		level:   DefaultCompressionLevel,
		modTime: DefaultModTime,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Result describes a written archive.
type Result struct {
	// Path is the archive location.
	Path string
	// Entries are the stored entries in archive order.
	Entries []Entry
	// Missing are manifest entries skipped because they did not exist.
	Missing []string
	// Digest identifies the archive contents, see Digest.
	Digest string
}

// Names returns the stored entry names in archive order.
func (r *Result) Names() []string {
	names := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		names = append(names, e.Name)
	}

	return names
}

// Write creates target containing every entry (slash-separated, relative to root).
// Missing entries are logged and recorded in Result.Missing; repeated entries are stored once.
// On failure the partial archive is removed.
func (w *Writer) Write(ctx context.Context, root string, entries []string, target string) (res *Result, err error) {
	file, err := os.OpenFile(filepath.Clean(target), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, archiveFileMode)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}

	zw := zip.NewWriter(file)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, w.level)
	})

	defer func() {
		if closeErr := zw.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("finalize archive: %w", closeErr)
		}

		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close archive: %w", closeErr)
		}

		if err != nil {
			res = nil
			_ = os.Remove(target)
		}
	}()

	res = &Result{
		Path:    target,
		Entries: make([]Entry, 0, len(entries)),
	}

	seen := make(map[string]struct{}, len(entries))

	for _, name := range entries {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		if _, ok := seen[name]; ok {
			logger.DebugKV(ctx, "Skipping duplicate entry", "entry", name)
			continue
		}

		seen[name] = struct{}{}

		entry, addErr := w.add(zw, root, name)

		switch {
		case errors.Is(addErr, fs.ErrNotExist):
			logger.WarnKV(ctx, "File does not exist, skipping", "entry", name)

			res.Missing = append(res.Missing, name)
		case errors.Is(addErr, errNotRegular):
			logger.WarnKV(ctx, "Not a regular file, skipping", "entry", name)

			res.Missing = append(res.Missing, name)
		case addErr != nil:
			return nil, addErr
		default:
			logger.InfoKV(ctx, "Added to archive", "entry", name)

			res.Entries = append(res.Entries, entry)
		}
	}

	res.Digest = Digest(res.Entries)

	return res, nil
}

// add stores one file and returns its entry description.
func (w *Writer) add(zw *zip.Writer, root, name string) (Entry, error) {
	path := filepath.Join(root, filepath.FromSlash(name))

	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, fmt.Errorf("stat %s: %w", name, err)
	}

	if !info.Mode().IsRegular() {
		return Entry{}, fmt.Errorf("%s: %w", name, errNotRegular)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return Entry{}, fmt.Errorf("create header for %s: %w", name, err)
	}

	header.Name = name
	header.Method = zip.Deflate
	header.Modified = w.modTime

	src, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Entry{}, fmt.Errorf("open %s: %w", name, err)
	}

	defer func() {
		_ = src.Close()
	}()

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return Entry{}, fmt.Errorf("create entry %s: %w", name, err)
	}

	hasher := xxhash.New()

	size, err := io.Copy(io.MultiWriter(dst, hasher), src)
	if err != nil {
		return Entry{}, fmt.Errorf("write entry %s: %w", name, err)
	}

	return Entry{
		Name:   name,
		Size:   uint64(size), //nolint:gosec // io.Copy never returns a negative count.
		Mode:   info.Mode().Perm(),
		Digest: formatSum(hasher.Sum64()),
	}, nil
}
