package filemap

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const zstdExt = ".zst"

// LoadDir stages every regular file below root into m under prefix.
// Files ending in .zst are decompressed and stored without the suffix.
func (m *Map) LoadDir(root string, prefix string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("failed to relativize %s: %w", p, err)
		}
		content, err := ReadFile(p)
		if err != nil {
			return err
		}
		m.Put(Join(prefix, strings.TrimSuffix(filepath.ToSlash(rel), zstdExt)), content)
		return nil
	})
}

// ReadFile reads a local file, decompressing it when it ends in .zst.
func ReadFile(p string) ([]byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", p, err)
	}
	defer f.Close()

	if filepath.Ext(p) != zstdExt {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", p, err)
		}
		return data, nil
	}

	d, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer d.Close()
	data, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress file %s: %w", p, err)
	}
	return data, nil
}
