package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mgorham/queryboard/internal/artifact"
	"github.com/mgorham/queryboard/internal/config"
	"github.com/mgorham/queryboard/internal/job_tracer"
	"github.com/mgorham/queryboard/internal/registry"
	"github.com/mgorham/queryboard/internal/service/logger"
	"github.com/mgorham/queryboard/internal/util"
	"github.com/mgorham/queryboard/model"
)

const noChartMessage = "Query completed but no chart file was detected in the output."

// Runner executes one query script per job as a child process, captures
// its output, recovers artifacts and records the terminal status on the
// registry. A job runs to process exit; there is no retry, timeout or
// cancellation path, so a hung script leaves its job running indefinitely.
type Runner struct {
	cfg      *config.RunnerConfig
	registry *registry.Registry
	scanner  *artifact.Scanner
}

func New(cfg *config.RunnerConfig, reg *registry.Registry, scanner *artifact.Scanner) *Runner {
	return &Runner{cfg: cfg, registry: reg, scanner: scanner}
}

// Dispatch starts the job on its own goroutine and returns immediately.
func (r *Runner) Dispatch(jobID string, def model.QueryDefinition, overrides map[string]string) {
	go r.Run(jobID, def, overrides)
}

// Run executes the query script for jobID and blocks until it exits. The
// result is observed through the registry, never returned.
func (r *Runner) Run(jobID string, def model.QueryDefinition, overrides map[string]string) {
	ctx, span := job_tracer.GetTracer().Start(context.Background(), "query.run",
		trace.WithAttributes(
			attribute.String("query.id", def.Identifier),
			attribute.String("job.id", jobID),
		))
	defer span.End()

	log := logger.FromContext(ctx).With().Str("job", jobID).Str("query", def.Identifier).Logger()

	r.registry.Update(jobID, func(j *model.Job) {
		j.Status = model.JobRunning
	})

	baseline := LoadQueryConfig(r.cfg.QUERY_CONFIG_PATH)[def.Identifier]
	args := ResolveArgs(baseline, overrides)

	cmd := exec.Command(r.cfg.PYTHON_EXECUTABLE, append([]string{def.FilePath}, args...)...)
	cmd.Dir = r.cfg.PROJECT_ROOT

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Info().Strs("args", args).Msg("launching query script")

	runErr := cmd.Run()
	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			// The process never started (missing interpreter, bad
			// script path). There is no output to scan.
			util.RecordSpanError(span, runErr)
			log.Error().Err(runErr).Msg("unable to launch query script")
			r.registry.Update(jobID, func(j *model.Job) {
				j.Status = model.JobError
				j.Error = fmt.Sprintf("Failed to launch query script: %v", runErr)
			})
			return
		}
	}

	result := r.scanner.Scan(stdout.String(), stderr.String())
	dataFiles := result.DataFiles
	dataFiles = append(dataFiles, r.persistStream(log, def.Identifier, jobID, "output", stdout.Bytes())...)
	dataFiles = append(dataFiles, r.persistStream(log, def.Identifier, jobID, "stderr", stderr.Bytes())...)

	r.registry.Update(jobID, func(j *model.Job) {
		j.Stdout = stdout.String()
		j.Stderr = stderr.String()
		j.DataFiles = dataFiles
		if exitCode == 0 {
			j.ChartPath = result.ChartPath
		}
	})

	switch {
	case exitCode != 0:
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = fmt.Sprintf("Query script exited with code %d.", exitCode)
		}
		util.RecordSpanError(span, fmt.Errorf("query script exited with code %d", exitCode))
		log.Error().Int("exit_code", exitCode).Msg("query script failed")
		r.registry.Update(jobID, func(j *model.Job) {
			j.Status = model.JobError
			j.Error = message
		})
	case result.ChartPath == "":
		util.RecordSpanError(span, errors.New("no chart artifact detected"))
		log.Error().Msg("query script produced no chart")
		r.registry.Update(jobID, func(j *model.Job) {
			j.Status = model.JobError
			j.Error = noChartMessage
		})
	default:
		log.Info().Str("chart", result.ChartPath).Int("data_files", len(dataFiles)).Msg("query script completed")
		r.registry.Update(jobID, func(j *model.Job) {
			j.Status = model.JobCompleted
		})
	}
}

// persistStream writes one captured stream to the output directory and
// returns the written path as a single-element slice, or nil when the
// stream is empty or the write fails. A failed log write never fails the
// job.
func (r *Runner) persistStream(log zerolog.Logger, queryID, jobID, stream string, content []byte) []string {
	if len(content) == 0 {
		return nil
	}

	if err := os.MkdirAll(r.cfg.OUTPUT_DIR, 0755); err != nil {
		log.Warn().Err(err).Msg("unable to create output directory")
		return nil
	}

	path := filepath.Join(r.cfg.OUTPUT_DIR, util.LogFileName(queryID, time.Now(), jobID, stream))
	if err := os.WriteFile(path, content, 0644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("unable to persist captured stream")
		return nil
	}
	return []string{path}
}
