package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		baseline  []string
		overrides map[string]string
		want      []string
	}{
		{
			name:      "no overrides returns baseline unchanged",
			baseline:  []string{"--limit", "50"},
			overrides: nil,
			want:      []string{"--limit", "50"},
		},
		{
			name:      "missing flag appended",
			baseline:  []string{"--limit", "50"},
			overrides: map[string]string{FlagStartDate: "2025-10-01"},
			want:      []string{"--limit", "50", "--start-date", "2025-10-01"},
		},
		{
			name:      "existing flag replaced in place",
			baseline:  []string{"--start-date", "2025-01-01", "--end-date", "2025-01-31"},
			overrides: map[string]string{FlagStartDate: "2025-02-01"},
			want:      []string{"--start-date", "2025-02-01", "--end-date", "2025-01-31"},
		},
		{
			name:     "both overrides applied",
			baseline: []string{"--start-date", "2025-01-01"},
			overrides: map[string]string{
				FlagStartDate: "2025-02-01",
				FlagEndDate:   "2025-02-28",
			},
			want: []string{"--start-date", "2025-02-01", "--end-date", "2025-02-28"},
		},
		{
			name:      "empty baseline",
			baseline:  nil,
			overrides: map[string]string{FlagEndDate: "2025-03-31"},
			want:      []string{"--end-date", "2025-03-31"},
		},
		{
			name:      "flag without value slot gets appended pair",
			baseline:  []string{"--limit", "50", "--start-date"},
			overrides: map[string]string{FlagStartDate: "2025-02-01"},
			want:      []string{"--limit", "50", "--start-date", "--start-date", "2025-02-01"},
		},
		{
			name:      "unrecognized override keys ignored",
			baseline:  []string{"--limit", "50"},
			overrides: map[string]string{"--max-views": "100"},
			want:      []string{"--limit", "50"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ResolveArgs(tt.baseline, tt.overrides))
		})
	}
}

func TestLoadQueryConfig(t *testing.T) {
	t.Parallel()

	t.Run("missing file yields empty mapping", func(t *testing.T) {
		cfg := LoadQueryConfig(filepath.Join(t.TempDir(), "missing.json"))
		require.Empty(t, cfg)
	})

	t.Run("malformed JSON yields empty mapping", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "query_config.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
		require.Empty(t, LoadQueryConfig(path))
	})

	t.Run("non-list entries skipped", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "query_config.json")
		require.NoError(t, os.WriteFile(path, []byte(
			`{"good": ["--limit", "50"], "bad": "not a list", "worse": 7}`), 0644))

		cfg := LoadQueryConfig(path)
		require.Equal(t, map[string][]string{"good": {"--limit", "50"}}, cfg)
	})
}
