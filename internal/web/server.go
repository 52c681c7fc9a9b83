package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mgorham/queryboard/internal/catalog"
	"github.com/mgorham/queryboard/internal/pathguard"
	"github.com/mgorham/queryboard/internal/registry"
	"github.com/mgorham/queryboard/internal/runner"
	"github.com/mgorham/queryboard/internal/service/logger"
	"github.com/mgorham/queryboard/internal/util"
	qmw "github.com/mgorham/queryboard/internal/web/middleware"
	"github.com/mgorham/queryboard/model"
)

type Server struct {
	router   chi.Router
	catalog  *catalog.Catalog
	registry *registry.Registry
	runner   *runner.Runner
	resolver *pathguard.Resolver
}

func NewServer(cat *catalog.Catalog, reg *registry.Registry, run *runner.Runner, resolver *pathguard.Resolver) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		catalog:  cat,
		registry: reg,
		runner:   run,
		resolver: resolver,
	}

	s.routes()
	return s
}

// Expose the router for main.go
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	// Every accepted run forks a query subprocess, so submissions are
	// capped rather than letting a click-storm fork without bound.
	limiter := qmw.NewLimiter(64, 8)

	r.Get("/", s.handleIndex)
	r.Get("/api/queries", s.handleListQueries)
	r.With(limiter.Limit).Post("/api/run-query", s.handleRunQuery)
	r.Get("/api/jobs/{id}", s.handleJobStatus)
	r.Get("/api/jobs/{id}/chart", s.handleJobChart)
	r.Get("/api/jobs/{id}/files/{index}", s.handleJobFile)
}

func (s *Server) handleListQueries(w http.ResponseWriter, r *http.Request) {
	defs := s.catalog.Discover(r.Context())

	views := make([]model.QueryView, 0, len(defs))
	for _, def := range defs {
		views = append(views, model.QueryView{
			ID:       def.Identifier,
			Title:    def.Title,
			Summary:  def.Summary,
			Filename: filepath.Base(def.FilePath),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleRunQuery(w http.ResponseWriter, r *http.Request) {
	var req model.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.QueryID == "" {
		writeError(w, http.StatusBadRequest, "Missing 'queryId' in request body.")
		return
	}

	def, err := s.catalog.GetByID(r.Context(), req.QueryID)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Query %q not found.", req.QueryID))
		return
	}

	job := s.registry.Create(def)

	overrides := map[string]string{}
	parameters := map[string]string{}
	if iso, ok := util.NormalizeDate(req.StartDate); ok {
		overrides[runner.FlagStartDate] = iso
		parameters["startDate"] = iso
	}
	if iso, ok := util.NormalizeDate(req.EndDate); ok {
		overrides[runner.FlagEndDate] = iso
		parameters["endDate"] = iso
	}
	s.registry.Update(job.ID, func(j *model.Job) {
		j.Parameters = parameters
	})

	s.runner.Dispatch(job.ID, def, overrides)

	log := logger.FromContext(r.Context())
	log.Info().
		Str("job", job.ID).
		Str("query", def.Identifier).
		Msg("job submitted")

	writeJSON(w, http.StatusOK, model.RunResponse{
		JobID:  job.ID,
		Status: job.Status,
		Title:  def.Title,
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, ok := s.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Job %q not found.", id))
		return
	}

	view := model.JobView{
		ID:         job.ID,
		QueryID:    job.QueryID,
		Title:      job.Title,
		Status:     job.Status,
		CreatedAt:  job.CreatedAt,
		UpdatedAt:  job.UpdatedAt,
		Stdout:     job.Stdout,
		Stderr:     job.Stderr,
		Error:      job.Error,
		Parameters: job.Parameters,
		HasChart:   job.ChartPath != "",
		DataFiles:  make([]model.FileRef, 0, len(job.DataFiles)),
	}
	if view.HasChart {
		view.ChartURL = fmt.Sprintf("/api/jobs/%s/chart", job.ID)
	}
	for idx, path := range job.DataFiles {
		view.DataFiles = append(view.DataFiles, model.FileRef{
			Name: filepath.Base(path),
			URL:  fmt.Sprintf("/api/jobs/%s/files/%d", job.ID, idx),
		})
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleJobChart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, ok := s.registry.Get(id)
	if !ok || job.ChartPath == "" {
		http.NotFound(w, r)
		return
	}

	// Stored paths are never trusted at serve time; re-validate against
	// the trusted root on every request.
	path, err := s.resolver.Resolve(job.ChartPath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleJobFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, ok := s.registry.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 || index >= len(job.DataFiles) {
		http.NotFound(w, r)
		return
	}

	path, err := s.resolver.Resolve(job.DataFiles[index])
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.Error().Err(err).Msg("unable to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
