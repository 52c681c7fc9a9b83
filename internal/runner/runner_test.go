package runner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mgorham/queryboard/internal/artifact"
	"github.com/mgorham/queryboard/internal/config"
	"github.com/mgorham/queryboard/internal/pathguard"
	"github.com/mgorham/queryboard/internal/registry"
	"github.com/mgorham/queryboard/model"
)

type runnerFixture struct {
	cfg      *config.RunnerConfig
	registry *registry.Registry
	runner   *Runner
	root     string
}

// newFixture builds a runner over a throwaway project root. Scripts are
// plain shell scripts and the interpreter is /bin/sh, which exercises the
// exact same launch path as the real python interpreter.
func newFixture(t *testing.T) *runnerFixture {
	t.Helper()

	resolver, err := pathguard.NewResolver(t.TempDir())
	require.NoError(t, err)
	root := resolver.Root()

	cfg := &config.RunnerConfig{
		PROJECT_ROOT:      root,
		QUERY_DIR:         filepath.Join(root, "Queries"),
		OUTPUT_DIR:        filepath.Join(root, "webapp", "outputs"),
		QUERY_CONFIG_PATH: filepath.Join(root, "webapp", "query_config.json"),
		PYTHON_EXECUTABLE: "/bin/sh",
	}
	reg := registry.New()

	return &runnerFixture{
		cfg:      cfg,
		registry: reg,
		runner:   New(cfg, reg, artifact.NewScanner(resolver)),
		root:     root,
	}
}

func (f *runnerFixture) writeScript(t *testing.T, name, body string) model.QueryDefinition {
	t.Helper()

	require.NoError(t, os.MkdirAll(f.cfg.QUERY_DIR, 0755))
	path := filepath.Join(f.cfg.QUERY_DIR, name+".py")
	require.NoError(t, os.WriteFile(path, []byte(body), 0755))
	return model.QueryDefinition{Identifier: name, Title: "Test", FilePath: path}
}

func TestRun_Completed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	def := f.writeScript(t, "test_query", `
mkdir -p out
echo chart > out/chart.png
echo data > out/data.csv
echo "Saved chart to out/chart.png"
echo "Saved CSV to out/data.csv"
`)

	job := f.registry.Create(def)
	f.runner.Run(job.ID, def, nil)

	got, ok := f.registry.Get(job.ID)
	require.True(t, ok)
	require.Equal(t, model.JobCompleted, got.Status)
	require.Empty(t, got.Error)
	require.Equal(t, filepath.Join(f.root, "out", "chart.png"), got.ChartPath)
	require.Contains(t, got.Stdout, "Saved chart to out/chart.png")
	require.Contains(t, got.DataFiles, filepath.Join(f.root, "out", "data.csv"))
}

func TestRun_PersistsCapturedStreams(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	def := f.writeScript(t, "test_query", `
mkdir -p out
echo chart > out/chart.png
echo "Saved chart to out/chart.png"
echo "progress note" >&2
`)

	job := f.registry.Create(def)
	f.runner.Run(job.ID, def, nil)

	got, _ := f.registry.Get(job.ID)
	require.Equal(t, model.JobCompleted, got.Status)

	var outputLog, stderrLog string
	for _, path := range got.DataFiles {
		name := filepath.Base(path)
		switch {
		case strings.HasSuffix(name, "_output.txt"):
			outputLog = path
		case strings.HasSuffix(name, "_stderr.txt"):
			stderrLog = path
		}
	}

	require.NotEmpty(t, outputLog)
	require.True(t, strings.HasPrefix(filepath.Base(outputLog), "test_query_"))
	content, err := os.ReadFile(outputLog)
	require.NoError(t, err)
	require.Contains(t, string(content), "Saved chart to out/chart.png")

	require.NotEmpty(t, stderrLog)
	content, err = os.ReadFile(stderrLog)
	require.NoError(t, err)
	require.Contains(t, string(content), "progress note")
}

func TestRun_NonzeroExit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	def := f.writeScript(t, "test_query", `
echo boom >&2
exit 1
`)

	job := f.registry.Create(def)
	f.runner.Run(job.ID, def, nil)

	got, _ := f.registry.Get(job.ID)
	require.Equal(t, model.JobError, got.Status)
	require.Equal(t, "boom", got.Error)
	require.Empty(t, got.ChartPath)
}

func TestRun_NonzeroExitEmptyStderr(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	def := f.writeScript(t, "test_query", `exit 3`)

	job := f.registry.Create(def)
	f.runner.Run(job.ID, def, nil)

	got, _ := f.registry.Get(job.ID)
	require.Equal(t, model.JobError, got.Status)
	require.Equal(t, "Query script exited with code 3.", got.Error)
}

func TestRun_NoChartIsError(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	def := f.writeScript(t, "test_query", `
mkdir -p out
echo data > out/data.csv
echo "Saved CSV to out/data.csv"
`)

	job := f.registry.Create(def)
	f.runner.Run(job.ID, def, nil)

	got, _ := f.registry.Get(job.ID)
	require.Equal(t, model.JobError, got.Status)
	require.Equal(t, noChartMessage, got.Error)
	require.Empty(t, got.ChartPath)
	// Data artifacts are still recorded for inspection.
	require.Contains(t, got.DataFiles, filepath.Join(f.root, "out", "data.csv"))
}

func TestRun_LaunchFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	def := f.writeScript(t, "test_query", `exit 0`)
	f.cfg.PYTHON_EXECUTABLE = filepath.Join(f.root, "no-such-interpreter")

	job := f.registry.Create(def)
	f.runner.Run(job.ID, def, nil)

	got, _ := f.registry.Get(job.ID)
	require.Equal(t, model.JobError, got.Status)
	require.Contains(t, got.Error, "Failed to launch query script")
}

func TestRun_BaselineAndOverridesReachScript(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	def := f.writeScript(t, "test_query", `echo "args: $@"`)

	require.NoError(t, os.MkdirAll(filepath.Dir(f.cfg.QUERY_CONFIG_PATH), 0755))
	require.NoError(t, os.WriteFile(f.cfg.QUERY_CONFIG_PATH,
		[]byte(`{"test_query": ["--limit", "50"]}`), 0644))

	job := f.registry.Create(def)
	f.runner.Run(job.ID, def, map[string]string{FlagStartDate: "2025-10-01"})

	got, _ := f.registry.Get(job.ID)
	require.Contains(t, got.Stdout, "args: --limit 50 --start-date 2025-10-01")
}
