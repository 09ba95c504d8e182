package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/uiforge/compsync/pkg/manifest"
)

const heroYAML = `name: Hero
props:
  title:
    type: string
rendering:
  serverSide: true
`

func TestWatcherDispatchesChangedManifest(t *testing.T) {
	root := t.TempDir()
	store := manifest.NewStore()

	changed := make(chan *manifest.ComponentManifest, 4)
	w := New(store, func(m *manifest.ComponentManifest) { changed <- m }, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, []string{root}) }()

	// Give the watcher a moment to register the root.
	time.Sleep(250 * time.Millisecond)

	path := filepath.Join(root, "hero.component.yml")
	require.NoError(t, os.WriteFile(path, []byte(heroYAML), 0o644))

	select {
	case m := <-changed:
		if m.ID != "hero" {
			t.Errorf("dispatched manifest id = %q", m.ID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("manifest change never dispatched")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}
}

func TestWatcherIgnoresMalformedManifest(t *testing.T) {
	root := t.TempDir()
	store := manifest.NewStore()

	changed := make(chan *manifest.ComponentManifest, 4)
	w := New(store, func(m *manifest.ComponentManifest) { changed <- m }, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx, []string{root}) }()
	time.Sleep(250 * time.Millisecond)

	bad := filepath.Join(root, "bad.component.yml")
	require.NoError(t, os.WriteFile(bad, []byte("props: [nope]"), 0o644))

	select {
	case m := <-changed:
		t.Errorf("malformed manifest dispatched: %+v", m)
	case <-time.After(700 * time.Millisecond):
		// Nothing dispatched, as intended.
	}
}

func TestWatcherMissingRoot(t *testing.T) {
	w := New(manifest.NewStore(), func(*manifest.ComponentManifest) {}, 0)
	err := w.Run(context.Background(), []string{filepath.Join(t.TempDir(), "absent")})
	require.Error(t, err)
}
