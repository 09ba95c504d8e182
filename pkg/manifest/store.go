package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/uiforge/compsync/pkg/logger"
	"github.com/uiforge/compsync/pkg/safeio"
)

// discoveryPatterns are the glob patterns a scan matches against each root.
var discoveryPatterns = []string{
	"**/*.component.yml",
	"**/*.component.yaml",
	"**/*.component.toml",
}

// Diagnostic reports a per-file problem encountered during discovery.
type Diagnostic struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// DiscoveryResult is the outcome of one discovery pass.
type DiscoveryResult struct {
	Manifests   []*ComponentManifest `json:"manifests"`
	Diagnostics []Diagnostic         `json:"diagnostics,omitempty"`
}

// ManifestWriteError reports a failed manifest write.
type ManifestWriteError struct {
	Path string
	Err  error
}

func (e *ManifestWriteError) Error() string {
	return fmt.Sprintf("failed to write manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestWriteError) Unwrap() error {
	return e.Err
}

type cacheEntry struct {
	modTime  time.Time
	manifest *ComponentManifest
}

// Store locates, parses and writes component manifests. Parsed manifests
// are cached keyed by path and modification time; callers invalidate the
// cache when an external event (explicit force, watch notification) says
// the file changed underneath us.
type Store struct {
	mu    sync.Mutex
	cache map[string]cacheEntry

	// WriterOptions guard manifest writes. The overwrite flag is supplied
	// per call; allow-list and size limit come from here.
	WriterOptions safeio.WriteOptions
}

// NewStore returns a Store with an empty cache.
func NewStore() *Store {
	return &Store{cache: make(map[string]cacheEntry)}
}

// Discover scans the given roots for manifest files. Malformed manifests
// are skipped and reported as diagnostics; only a filesystem-level failure
// (unreadable root, bad glob) is returned as an error.
func (s *Store) Discover(roots []string) (*DiscoveryResult, error) {
	result := &DiscoveryResult{}

	paths := make([]string, 0, 16)
	seen := make(map[string]bool)
	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			return nil, fmt.Errorf("manifest root %s: %w", root, err)
		}
		for _, pattern := range discoveryPatterns {
			matches, err := doublestar.FilepathGlob(filepath.Join(root, pattern))
			if err != nil {
				return nil, fmt.Errorf("failed to glob pattern %s under %s: %w", pattern, root, err)
			}
			for _, m := range matches {
				if !seen[m] {
					seen[m] = true
					paths = append(paths, m)
				}
			}
		}
	}
	sort.Strings(paths)

	for _, path := range paths {
		m, err := s.Load(path)
		if err != nil {
			logger.Warn("Skipping malformed manifest", logger.String("path", path), logger.Err(err))
			result.Diagnostics = append(result.Diagnostics, Diagnostic{Path: path, Message: err.Error()})
			continue
		}
		result.Manifests = append(result.Manifests, m)
	}

	return result, nil
}

// Load parses one manifest file, consulting the cache first.
func (s *Store) Load(path string) (*ComponentManifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ManifestParseError{Path: path, Err: err}
	}

	s.mu.Lock()
	entry, ok := s.cache[path]
	s.mu.Unlock()
	if ok && entry.modTime.Equal(info.ModTime()) {
		return entry.manifest, nil
	}

	format, ok := FormatForPath(path)
	if !ok {
		return nil, &ManifestParseError{Path: path, Err: errors.New("not a recognized manifest file name")}
	}

	content, err := os.ReadFile(path) // #nosec G304 -- path comes from a discovery walk over caller-supplied roots
	if err != nil {
		return nil, &ManifestParseError{Path: path, Err: err}
	}

	m, err := Parse(content, format, path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[path] = cacheEntry{modTime: info.ModTime(), manifest: m}
	s.mu.Unlock()

	return m, nil
}

// Write serializes a manifest to path in the canonical format. With
// overwrite disabled an existing file fails the call with a
// ManifestWriteError wrapping safeio.FileExistsError.
func (s *Store) Write(m *ComponentManifest, path string, overwrite bool) (*safeio.WriteResult, error) {
	content, err := Serialize(m)
	if err != nil {
		return nil, &ManifestWriteError{Path: path, Err: err}
	}

	opts := s.WriterOptions
	opts.Overwrite = overwrite

	result, err := safeio.WriteFile(path, content, opts)
	if err != nil {
		return nil, &ManifestWriteError{Path: path, Err: err}
	}

	s.Invalidate(path)
	return result, nil
}

// Invalidate drops the cache entry for path.
func (s *Store) Invalidate(path string) {
	s.mu.Lock()
	delete(s.cache, path)
	s.mu.Unlock()
}

// Clear drops the entire discovery cache.
func (s *Store) Clear() {
	s.mu.Lock()
	s.cache = make(map[string]cacheEntry)
	s.mu.Unlock()
}
