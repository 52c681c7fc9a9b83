package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetConfig(t *testing.T) {
	t.Run("missing SERVICE_NAME fails", func(t *testing.T) {
		t.Setenv("SERVICE_NAME", "")
		_, err := GetConfig()
		require.Error(t, err)
	})

	t.Run("defaults applied", func(t *testing.T) {
		t.Setenv("SERVICE_NAME", "queryboard")
		t.Setenv("HTTP_ADDR", "")
		t.Setenv("TRACE_URL", "")

		cfg, err := GetConfig()
		require.NoError(t, err)
		require.Equal(t, "queryboard", cfg.SERVICE_NAME)
		require.Equal(t, ":8080", cfg.HTTP_ADDR)
		require.Empty(t, cfg.TRACE_URL)
	})
}

func TestGetRunnerConfig(t *testing.T) {
	t.Run("missing PROJECT_ROOT fails", func(t *testing.T) {
		t.Setenv("PROJECT_ROOT", "")
		_, err := GetRunnerConfig()
		require.Error(t, err)
	})

	t.Run("layout defaults derive from root", func(t *testing.T) {
		root := t.TempDir()
		t.Setenv("PROJECT_ROOT", root)
		t.Setenv("QUERY_DIR", "")
		t.Setenv("OUTPUT_DIR", "")
		t.Setenv("QUERY_CONFIG_PATH", "")
		t.Setenv("PYTHON_EXECUTABLE", "")

		cfg, err := GetRunnerConfig()
		require.NoError(t, err)
		require.Equal(t, root, cfg.PROJECT_ROOT)
		require.Equal(t, filepath.Join(root, "Queries"), cfg.QUERY_DIR)
		require.Equal(t, filepath.Join(root, "webapp", "outputs"), cfg.OUTPUT_DIR)
		require.Equal(t, filepath.Join(root, "webapp", "query_config.json"), cfg.QUERY_CONFIG_PATH)
		require.Equal(t, "python3", cfg.PYTHON_EXECUTABLE)
	})

	t.Run("explicit overrides win", func(t *testing.T) {
		root := t.TempDir()
		t.Setenv("PROJECT_ROOT", root)
		t.Setenv("QUERY_DIR", filepath.Join(root, "scripts"))
		t.Setenv("PYTHON_EXECUTABLE", "/usr/bin/python3.12")

		cfg, err := GetRunnerConfig()
		require.NoError(t, err)
		require.Equal(t, filepath.Join(root, "scripts"), cfg.QUERY_DIR)
		require.Equal(t, "/usr/bin/python3.12", cfg.PYTHON_EXECUTABLE)
	})
}

func TestGetFreeCacheConfig(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		t.Setenv("FREECACHE_TTL", "300")
		t.Setenv("FREECACHE_SIZE", "1048576")

		cfg, err := GetFreeCacheConfig()
		require.NoError(t, err)
		require.Equal(t, 300, cfg.TTL)
		require.Equal(t, 1048576, cfg.SIZE_BYTES)
	})

	t.Run("missing TTL fails", func(t *testing.T) {
		t.Setenv("FREECACHE_TTL", "")
		t.Setenv("FREECACHE_SIZE", "1048576")
		_, err := GetFreeCacheConfig()
		require.Error(t, err)
	})

	t.Run("non-integer size fails", func(t *testing.T) {
		t.Setenv("FREECACHE_TTL", "300")
		t.Setenv("FREECACHE_SIZE", "big")
		_, err := GetFreeCacheConfig()
		require.Error(t, err)
	})
}
