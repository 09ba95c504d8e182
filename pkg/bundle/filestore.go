package bundle

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// schemaFileSuffix names the per-bundle schema document a FileStore keeps.
const schemaFileSuffix = ".schema.yml"

// FileStore is a SchemaStore persisted as one YAML document per bundle
// under a directory. It backs the CLI's local mode, where no external
// content-management runtime owns the bundles.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore returns a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create schema store directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(bundleID string) string {
	return filepath.Join(s.dir, bundleID, bundleID+schemaFileSuffix)
}

func (s *FileStore) load(bundleID string) (*Schema, error) {
	content, err := os.ReadFile(s.path(bundleID)) // #nosec G304 -- path is under the store's own directory
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{BundleID: bundleID}
		}
		return nil, fmt.Errorf("failed to read schema for %s: %w", bundleID, err)
	}
	var schema Schema
	if err := yaml.Unmarshal(content, &schema); err != nil {
		return nil, fmt.Errorf("schema document for %s is malformed: %w", bundleID, err)
	}
	return &schema, nil
}

func (s *FileStore) save(schema *Schema) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(schema); err != nil {
		return fmt.Errorf("failed to serialize schema for %s: %w", schema.BundleID, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to serialize schema for %s: %w", schema.BundleID, err)
	}

	path := s.path(schema.BundleID)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create bundle directory for %s: %w", schema.BundleID, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { // #nosec G306 -- schema docs are project files
		return fmt.Errorf("failed to write schema for %s: %w", schema.BundleID, err)
	}
	return nil
}

func (s *FileStore) HasBundle(bundleID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := os.Stat(s.path(bundleID))
	return err == nil
}

func (s *FileStore) CreateBundle(bundleID, label string, rendering RenderingConfiguration, origin Provenance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path(bundleID)); err == nil {
		return fmt.Errorf("bundle %s already exists", bundleID)
	}
	return s.save(&Schema{
		BundleID:  bundleID,
		Label:     label,
		Rendering: rendering,
		Origin:    origin,
	})
}

func (s *FileStore) GetSchema(bundleID string) (*Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(bundleID)
}

func (s *FileStore) GetFields(bundleID string) ([]FieldDefinition, error) {
	schema, err := s.GetSchema(bundleID)
	if err != nil {
		return nil, err
	}
	return schema.Fields, nil
}

func (s *FileStore) AddField(bundleID string, field FieldDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	schema, err := s.load(bundleID)
	if err != nil {
		return err
	}
	for _, f := range schema.Fields {
		if f.Name == field.Name {
			return fmt.Errorf("field %s already exists on bundle %s", field.Name, bundleID)
		}
	}
	schema.Fields = append(schema.Fields, field)
	return s.save(schema)
}

func (s *FileStore) UpdateField(bundleID string, field FieldDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	schema, err := s.load(bundleID)
	if err != nil {
		return err
	}
	for i, f := range schema.Fields {
		if f.Name == field.Name {
			schema.Fields[i] = field
			return s.save(schema)
		}
	}
	return &NotFoundError{BundleID: bundleID, Field: field.Name}
}

func (s *FileStore) RemoveField(bundleID, fieldName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	schema, err := s.load(bundleID)
	if err != nil {
		return err
	}
	for i, f := range schema.Fields {
		if f.Name == fieldName {
			schema.Fields = append(schema.Fields[:i], schema.Fields[i+1:]...)
			return s.save(schema)
		}
	}
	return &NotFoundError{BundleID: bundleID, Field: fieldName}
}

func (s *FileStore) ListBundles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		schemaFile := filepath.Join(s.dir, entry.Name(), entry.Name()+schemaFileSuffix)
		if _, err := os.Stat(schemaFile); err == nil {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids
}
