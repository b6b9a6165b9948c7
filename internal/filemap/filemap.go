package filemap

import (
	"path"
	"strings"
)

// Map is an ordered mapping from a relative slash-separated path to file contents.
// Keys are stored in their cleaned form. A later Put for an existing path
// replaces the contents and keeps the original position.
type Map struct {
	keys  []string
	files map[string][]byte
}

func New() *Map {
	return &Map{files: make(map[string][]byte)}
}

// Clean normalizes p into the key form used by Map.
func Clean(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// Join joins path elements and cleans the result.
func Join(elem ...string) string {
	return Clean(path.Join(elem...))
}

func (m *Map) Put(p string, data []byte) {
	key := Clean(p)
	if _, exists := m.files[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.files[key] = data
}

func (m *Map) PutString(p string, s string) {
	m.Put(p, []byte(s))
}

func (m *Map) Get(p string) ([]byte, bool) {
	data, ok := m.files[Clean(p)]
	return data, ok
}

func (m *Map) Has(p string) bool {
	_, ok := m.files[Clean(p)]
	return ok
}

// Keys returns the stored paths in insertion order.
func (m *Map) Keys() []string {
	res := make([]string, len(m.keys))
	copy(res, m.keys)
	return res
}

func (m *Map) Len() int {
	return len(m.keys)
}

// Merge copies every entry of other into m, in other's order.
func (m *Map) Merge(other *Map) {
	for _, k := range other.keys {
		m.Put(k, other.files[k])
	}
}
