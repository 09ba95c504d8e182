package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validManifest = `name: Hero
props:
  title:
    type: string
    required: true
  count:
    type: number
    minimum: 0
slots:
  footer:
    description: Footer region
rendering:
  serverSide: true
  default: server
`

func TestManifestBytesValid(t *testing.T) {
	issues, err := ManifestBytes([]byte(validManifest))
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestManifestBytesInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		substr  string
	}{
		{
			"missing name",
			"rendering:\n  serverSide: true\n",
			"name",
		},
		{
			"unknown prop type",
			"name: X\nprops:\n  a:\n    type: widget\nrendering:\n  serverSide: true\n",
			"props.a.type",
		},
		{
			"prop missing type",
			"name: X\nprops:\n  a:\n    title: A\nrendering:\n  serverSide: true\n",
			"type",
		},
		{
			"unexpected top-level key",
			"name: X\nrendering:\n  serverSide: true\nextra: 1\n",
			"extra",
		},
		{
			"bad default mode",
			"name: X\nrendering:\n  serverSide: true\n  default: hybrid\n",
			"rendering.default",
		},
		{
			"not yaml at all",
			"{{{",
			"not parseable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues, err := ManifestBytes([]byte(tt.content))
			require.NoError(t, err)
			require.NotEmpty(t, issues)

			found := false
			for _, issue := range issues {
				if strings.Contains(issue.Message, tt.substr) || strings.Contains(issue.Field, tt.substr) {
					found = true
				}
			}
			assert.True(t, found, "no issue mentioned %q: %+v", tt.substr, issues)
		})
	}
}

func TestManifestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hero.component.yml")
	require.NoError(t, os.WriteFile(path, []byte("rendering:\n  serverSide: true\n"), 0o644))

	issues, err := ManifestFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, issues)
	for _, issue := range issues {
		assert.Equal(t, path, issue.Path)
	}
}

func TestManifestFileMissing(t *testing.T) {
	_, err := ManifestFile(filepath.Join(t.TempDir(), "absent.component.yml"))
	require.Error(t, err)
}
