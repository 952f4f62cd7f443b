package testlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("-- lua\n"), 0o644))
	}
}

func TestDiscover_DefaultPatterns(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"core_spec.lua",
		"util_test.lua",
		"helpers.lua",
		"README.md",
		"nested/deep_spec.lua",
	)

	files, err := Discover(root, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "core_spec.lua"),
		filepath.Join(root, "nested", "deep_spec.lua"),
		filepath.Join(root, "util_test.lua"),
	}, files)
}

func TestDiscover_CustomPatterns(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "check_a.lua", "core_spec.lua")

	files, err := Discover(root, []string{"check_*.lua"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(root, "check_a.lua")}, files)
}

func TestDiscover_Excludes(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"core_spec.lua",
		"slow_spec.lua",
		"vendor/dep_spec.lua",
	)

	files, err := Discover(root, nil, []string{"slow_*.lua", "vendor"})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(root, "core_spec.lua")}, files)
}

func TestDiscover_SkipsHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"visible_spec.lua",
		".git/hooks/hidden_spec.lua",
		".cache/cached_spec.lua",
	)

	files, err := Discover(root, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(root, "visible_spec.lua")}, files)
}

func TestDiscover_EmptyTree(t *testing.T) {
	files, err := Discover(t.TempDir(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "absent"), nil, nil)
	assert.Error(t, err)
}

func TestDiscover_InvalidPattern(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "core_spec.lua")

	_, err := Discover(root, []string{"[unclosed"}, nil)
	assert.Error(t, err)
}
