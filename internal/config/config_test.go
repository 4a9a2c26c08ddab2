package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoad_ParsesFile(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	src := "includes:\n  - \"src/**/*.py\"\nexcludes:\n  - \"src/gen/**\"\nopen:\n  - \"scratch/notes.py\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(src), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"src/**/*.py"}, cfg.Includes)
	assert.Equal(t, []string{"src/gen/**"}, cfg.Excludes)
	assert.Equal(t, []string{"scratch/notes.py"}, cfg.Open)
}

func TestLoad_EmptyIncludesFallBackToDefault(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte("excludes:\n  - \"gen/**\"\n"), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, Default().Includes, cfg.Includes)
	assert.Equal(t, []string{"gen/**"}, cfg.Excludes)
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte("includes: [unclosed\n"), 0o644))

	_, err := Load(root)
	require.Error(t, err)
}
