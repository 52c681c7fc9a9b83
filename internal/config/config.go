package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	SERVICE_NAME string
	HTTP_ADDR    string
	TRACE_URL    string
}

type RunnerConfig struct {
	PROJECT_ROOT      string
	QUERY_DIR         string
	OUTPUT_DIR        string
	QUERY_CONFIG_PATH string
	PYTHON_EXECUTABLE string
}

type FreeCacheConfig struct {
	SIZE_BYTES int
	TTL        int
}

func env(key string) string {
	v := os.Getenv(key)
	return v
}

func convertStringToInt(s string, key string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("KEY: %s is empty", key)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("KEY: %s is not an integer: %w", key, err)
	}
	return v, nil
}

func GetConfig() (*Config, error) {
	sn := env("SERVICE_NAME")
	if sn == "" {
		return nil, fmt.Errorf("KEY: SERVICE_NAME is empty")
	}
	addr := env("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return &Config{
		SERVICE_NAME: sn,
		HTTP_ADDR:    addr,
		TRACE_URL:    env("TRACE_URL"),
	}, nil
}

// GetRunnerConfig resolves the filesystem layout the runner and catalog
// operate on. PROJECT_ROOT is the trusted root every artifact path must
// stay inside; the remaining paths default to the layout of the analytics
// repo the queries live in.
func GetRunnerConfig() (*RunnerConfig, error) {
	root := env("PROJECT_ROOT")
	if root == "" {
		return nil, fmt.Errorf("KEY: PROJECT_ROOT is empty")
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("KEY: PROJECT_ROOT is invalid: %w", err)
	}

	qd := env("QUERY_DIR")
	if qd == "" {
		qd = filepath.Join(root, "Queries")
	}
	od := env("OUTPUT_DIR")
	if od == "" {
		od = filepath.Join(root, "webapp", "outputs")
	}
	qc := env("QUERY_CONFIG_PATH")
	if qc == "" {
		qc = filepath.Join(root, "webapp", "query_config.json")
	}
	py := env("PYTHON_EXECUTABLE")
	if py == "" {
		py = "python3"
	}

	return &RunnerConfig{
		PROJECT_ROOT:      root,
		QUERY_DIR:         qd,
		OUTPUT_DIR:        od,
		QUERY_CONFIG_PATH: qc,
		PYTHON_EXECUTABLE: py,
	}, nil
}

func GetFreeCacheConfig() (*FreeCacheConfig, error) {
	ttl, err := convertStringToInt(env("FREECACHE_TTL"), "FREECACHE_TTL")
	if err != nil {
		return nil, err
	}
	fs, err := convertStringToInt(env("FREECACHE_SIZE"), "FREECACHE_SIZE")
	if err != nil {
		return nil, err
	}
	return &FreeCacheConfig{
		TTL:        ttl,
		SIZE_BYTES: fs,
	}, nil
}
