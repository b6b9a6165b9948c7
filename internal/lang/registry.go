package lang

import (
	"fmt"
	"os"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pelletier/go-toml/v2"
)

// SpecLanguage is one [[languages]] entry of a registry file.
type SpecLanguage struct {
	ID           string `toml:"id"`
	Tag          string `toml:"tag"`
	ErrorPattern string `toml:"error_pattern"`
}

type registryFile struct {
	Languages []SpecLanguage `toml:"languages"`
}

// Registry resolves language ids to languages.
type Registry struct {
	byID map[string]*Language
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Language)}
}

// Add registers spec, overriding an earlier entry with the same id.
func (r *Registry) Add(spec SpecLanguage) error {
	if spec.ID == "" {
		return fmt.Errorf("language entry is missing id")
	}
	l, err := New(spec.ID, spec.Tag, spec.ErrorPattern)
	if err != nil {
		return err
	}
	r.byID[spec.ID] = l
	return nil
}

func (r *Registry) Get(id string) (*Language, bool) {
	l, ok := r.byID[id]
	return l, ok
}

// IDs returns the registered ids sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ParseRegistry decodes TOML registry data. Duplicate ids within one document are rejected.
func ParseRegistry(data []byte) (*Registry, error) {
	var root registryFile
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return FromSpecs(root.Languages)
}

// FromSpecs builds a registry from entries. Duplicate ids are rejected.
func FromSpecs(specs []SpecLanguage) (*Registry, error) {
	seen := mapset.NewSet[string]()
	reg := NewRegistry()
	for _, spec := range specs {
		if !seen.Add(spec.ID) {
			return nil, fmt.Errorf("duplicate language id: %s", spec.ID)
		}
		if err := reg.Add(spec); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// LoadRegistry reads a registry file. A missing file yields an empty registry.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read language registry: %w", err)
	}
	return ParseRegistry(data)
}
