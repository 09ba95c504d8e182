package bundle

import (
	"fmt"
	"sort"
	"sync"
)

// SchemaStore is the record-store collaborator the synchronizer mutates
// during forward sync. Implementations wrap whatever content-management
// runtime owns the bundles; MemoryStore below is the local/test backend.
type SchemaStore interface {
	// HasBundle reports whether the bundle exists.
	HasBundle(bundleID string) bool
	// CreateBundle registers an empty bundle schema.
	CreateBundle(bundleID, label string, rendering RenderingConfiguration, origin Provenance) error
	// GetSchema returns a copy of the bundle's current schema.
	GetSchema(bundleID string) (*Schema, error)
	// GetFields returns the bundle's fields in schema order.
	GetFields(bundleID string) ([]FieldDefinition, error)
	// AddField appends a field definition.
	AddField(bundleID string, field FieldDefinition) error
	// UpdateField replaces the definition with the same name.
	UpdateField(bundleID string, field FieldDefinition) error
	// RemoveField deletes the named field.
	RemoveField(bundleID, fieldName string) error
	// ListBundles returns all known bundle ids, sorted.
	ListBundles() []string
}

// NotFoundError reports a missing bundle or field.
type NotFoundError struct {
	BundleID string
	Field    string
}

func (e *NotFoundError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("field %s not found on bundle %s", e.Field, e.BundleID)
	}
	return fmt.Sprintf("bundle %s not found", e.BundleID)
}

// MemoryStore is an in-memory SchemaStore. Safe for concurrent use so a
// batch scheduler can sync multiple bundles at once.
type MemoryStore struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{schemas: make(map[string]*Schema)}
}

func (m *MemoryStore) HasBundle(bundleID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.schemas[bundleID]
	return ok
}

func (m *MemoryStore) CreateBundle(bundleID, label string, rendering RenderingConfiguration, origin Provenance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schemas[bundleID]; ok {
		return fmt.Errorf("bundle %s already exists", bundleID)
	}
	m.schemas[bundleID] = &Schema{
		BundleID:  bundleID,
		Label:     label,
		Rendering: rendering,
		Origin:    origin,
	}
	return nil
}

func (m *MemoryStore) GetSchema(bundleID string) (*Schema, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schemas[bundleID]
	if !ok {
		return nil, &NotFoundError{BundleID: bundleID}
	}
	return s.Clone(), nil
}

func (m *MemoryStore) GetFields(bundleID string) ([]FieldDefinition, error) {
	s, err := m.GetSchema(bundleID)
	if err != nil {
		return nil, err
	}
	return s.Fields, nil
}

func (m *MemoryStore) AddField(bundleID string, field FieldDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schemas[bundleID]
	if !ok {
		return &NotFoundError{BundleID: bundleID}
	}
	for _, f := range s.Fields {
		if f.Name == field.Name {
			return fmt.Errorf("field %s already exists on bundle %s", field.Name, bundleID)
		}
	}
	s.Fields = append(s.Fields, field)
	return nil
}

func (m *MemoryStore) UpdateField(bundleID string, field FieldDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schemas[bundleID]
	if !ok {
		return &NotFoundError{BundleID: bundleID}
	}
	for i, f := range s.Fields {
		if f.Name == field.Name {
			s.Fields[i] = field
			return nil
		}
	}
	return &NotFoundError{BundleID: bundleID, Field: field.Name}
}

func (m *MemoryStore) RemoveField(bundleID, fieldName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schemas[bundleID]
	if !ok {
		return &NotFoundError{BundleID: bundleID}
	}
	for i, f := range s.Fields {
		if f.Name == fieldName {
			s.Fields = append(s.Fields[:i], s.Fields[i+1:]...)
			return nil
		}
	}
	return &NotFoundError{BundleID: bundleID, Field: fieldName}
}

func (m *MemoryStore) ListBundles() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.schemas))
	for id := range m.schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
