package archive

import (
	"archive/zip"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/flate"
)

// Entry describes one stored file.
type Entry struct {
	// Name is the slash-separated path inside the archive.
	Name string
	// Size is the uncompressed size in bytes.
	Size uint64
	// Mode holds the permission bits.
	Mode os.FileMode
	// Digest is the hex xxhash64 of the uncompressed contents.
	Digest string
}

// Read lists the file entries of the archive at path in stored order.
func Read(path string) ([]Entry, error) {
	zr, err := zip.OpenReader(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = zr.Close()
	}()

	zr.RegisterDecompressor(zip.Deflate, flate.NewReader)

	entries := make([]Entry, 0, len(zr.File))

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		digest, err := digestEntry(f)
		if err != nil {
			return nil, err
		}

		entries = append(entries, Entry{
			Name:   f.Name,
			Size:   f.UncompressedSize64,
			Mode:   f.Mode().Perm(),
			Digest: digest,
		})
	}

	return entries, nil
}

// Digest folds entry names and content digests, in order, into one hex xxhash64.
func Digest(entries []Entry) string {
	h := xxhash.New()

	for _, e := range entries {
		_, _ = h.WriteString(e.Name)
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(e.Digest)
		_, _ = h.WriteString("\n")
	}

	return formatSum(h.Sum64())
}

// digestEntry hashes the uncompressed contents of f.
func digestEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open entry %s: %w", f.Name, err)
	}

	defer func() {
		_ = rc.Close()
	}()

	h := xxhash.New()
	if _, err = io.Copy(h, rc); err != nil {
		return "", fmt.Errorf("read entry %s: %w", f.Name, err)
	}

	return formatSum(h.Sum64()), nil
}

// formatSum renders a 64-bit sum as 16 hex digits.
func formatSum(sum uint64) string {
	var buf [8]byte

	binary.BigEndian.PutUint64(buf[:], sum)

	return hex.EncodeToString(buf[:])
}
