package filemap

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// ErrPackaging is returned when an archive can not be written or read.
var ErrPackaging = errors.New("packaging failure")

// ErrBadPath is returned for a file path that is empty, absolute or leaves its root.
var ErrBadPath = errors.New("invalid file path")

// entries get a fixed timestamp so equal maps produce equal archives
var archiveModTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Zip serializes m into a zip archive with one entry per key, in insertion order.
func Zip(m *Map) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, key := range m.keys {
		hdr := &zip.FileHeader{
			Name:     key,
			Method:   zip.Deflate,
			Modified: archiveModTime,
		}
		f, err := w.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create entry %s: %v", ErrPackaging, key, err)
		}
		if _, err := f.Write(m.files[key]); err != nil {
			return nil, fmt.Errorf("%w: failed to write entry %s: %v", ErrPackaging, key, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: failed to finish archive: %v", ErrPackaging, err)
	}
	return buf.Bytes(), nil
}

// Unzip reads a zip archive into a new Map. Directory entries are skipped.
func Unzip(data []byte) (*Map, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open archive: %v", ErrPackaging, err)
	}

	m := New()
	for _, f := range r.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		if err := CheckPath(f.Name); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPackaging, err)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open entry %s: %v", ErrPackaging, f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read entry %s: %v", ErrPackaging, f.Name, err)
		}
		m.Put(f.Name, content)
	}
	return m, nil
}

// CheckPath rejects paths that would not survive a round trip through an
// archive: empty names, absolute names and names with a ".." element.
func CheckPath(name string) error {
	slashed := strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(slashed, "/") {
		return fmt.Errorf("%w: %q is absolute", ErrBadPath, name)
	}
	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return fmt.Errorf("%w: %q escapes its root", ErrBadPath, name)
		}
	}
	if Clean(slashed) == "" {
		return fmt.Errorf("%w: empty path", ErrBadPath)
	}
	return nil
}
