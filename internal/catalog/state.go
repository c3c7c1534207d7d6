package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/catalogsync/internal/backend"
	"github.com/roach88/catalogsync/internal/resource"
)

// State is the persisted content of a file backend.
type State struct {
	Types         []resource.Type        `json:"types" yaml:"types,omitempty"`
	ProductTypes  []resource.ProductType `json:"productTypes" yaml:"productTypes,omitempty"`
	Categories    []resource.Category    `json:"categories" yaml:"categories,omitempty"`
	Products      []resource.Product     `json:"products" yaml:"products,omitempty"`
	TaxCategories []backend.KeyedEntity  `json:"taxCategories" yaml:"taxCategories,omitempty"`
}

// MemoryBackend keeps every kind in process.
type MemoryBackend struct {
	Types         *backend.Memory[resource.TypeDraft, resource.Type]
	ProductTypes  *backend.Memory[resource.ProductTypeDraft, resource.ProductType]
	Categories    *backend.Memory[resource.CategoryDraft, resource.Category]
	Products      *backend.Memory[resource.ProductDraft, resource.Product]
	TaxCategories *backend.Memory[backend.KeyDraft, backend.KeyedEntity]
}

func keyedModel() backend.Model[backend.KeyDraft, backend.KeyedEntity] {
	return backend.Model[backend.KeyDraft, backend.KeyedEntity]{
		Kind: resource.KindTaxCategory,
		New: func(id string, version int64, d backend.KeyDraft) backend.KeyedEntity {
			return backend.KeyedEntity{Meta: resource.Meta{ID: id, Version: version}, Key: d.Key}
		},
		Apply: func(e backend.KeyedEntity, actions []resource.Action) (backend.KeyedEntity, error) {
			if len(actions) > 0 {
				return e, &resource.UnsupportedActionError{Kind: resource.KindTaxCategory, Action: actions[0].ActionName()}
			}
			return e, nil
		},
		Draft: func(e backend.KeyedEntity) backend.KeyDraft { return backend.KeyDraft{Key: e.Key} },
	}
}

// NewMemoryBackend creates a MemoryBackend holding s.
func NewMemoryBackend(s State) *MemoryBackend {
	m := &MemoryBackend{
		Types:         backend.NewMemory(backend.TypeModel()),
		ProductTypes:  backend.NewMemory(backend.ProductTypeModel()),
		Categories:    backend.NewMemory(backend.CategoryModel()),
		Products:      backend.NewMemory(backend.ProductModel()),
		TaxCategories: backend.NewMemory(keyedModel()),
	}
	m.Types.Load(s.Types)
	m.ProductTypes.Load(s.ProductTypes)
	m.Categories.Load(s.Categories)
	m.Products.Load(s.Products)
	m.TaxCategories.Load(s.TaxCategories)
	return m
}

// Backend returns the service bundle backed by m.
func (m *MemoryBackend) Backend() Backend {
	return Backend{
		Types:         m.Types,
		ProductTypes:  m.ProductTypes,
		Categories:    m.Categories,
		Products:      m.Products,
		TaxCategories: m.TaxCategories,
	}
}

// State returns the current content, each kind ordered by key.
func (m *MemoryBackend) State() State {
	return State{
		Types:         m.Types.Snapshot(),
		ProductTypes:  m.ProductTypes.Snapshot(),
		Categories:    m.Categories.Snapshot(),
		Products:      m.Products.Snapshot(),
		TaxCategories: m.TaxCategories.Snapshot(),
	}
}

// LoadState reads a state file. A missing file yields an empty State.
func LoadState(path string) (State, error) {
	var s State
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read state: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("decode state %s: %w", path, err)
	}
	return s, nil
}

// SaveState writes s to path atomically.
func SaveState(path string, s State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
