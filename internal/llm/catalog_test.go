package llm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	content := `
providers:
  google:
    - id: gemini-2.5-pro
      name: Gemini 2.5 Pro
      description: Most capable model
    - id: gemini-1.5-flash
      name: Gemini 1.5 Flash
      description: Fast and efficient
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, c.Models("google"), 2)
	assert.True(t, c.Has("google", "gemini-2.5-pro"))
	assert.Equal(t, "Gemini 1.5 Flash", c.Models("google")[1].Name)
}

func TestLoadCatalogErrors(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("providers: {}\n"), 0o644))
	_, err = LoadCatalog(empty)
	assert.Error(t, err)
}
