package model

import "time"

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobError     JobStatus = "error"
)

// QueryDefinition describes one runnable analytics script discovered in the
// query directory. FilePath is an opaque handle; the core never inspects the
// script beyond static metadata extraction.
type QueryDefinition struct {
	Identifier string `json:"id"`
	Title      string `json:"title"`
	FilePath   string `json:"-"`
	Summary    string `json:"summary,omitempty"`
}

// Job is one tracked execution attempt of a query script.
// ChartPath and DataFiles hold resolved filesystem paths and are never
// serialized to clients; the web layer exposes opaque URLs instead.
type Job struct {
	ID         string            `json:"id"`
	QueryID    string            `json:"query"`
	Title      string            `json:"title"`
	Status     JobStatus         `json:"status"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	Stdout     string            `json:"stdout"`
	Stderr     string            `json:"stderr"`
	ChartPath  string            `json:"-"`
	DataFiles  []string          `json:"-"`
	Error      string            `json:"error,omitempty"`
	Parameters map[string]string `json:"parameters"`
}

// RunRequest is the incoming API payload for a query run.
type RunRequest struct {
	QueryID   string `json:"queryId"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// RunResponse is returned immediately after a job is registered.
type RunResponse struct {
	JobID  string    `json:"jobId"`
	Status JobStatus `json:"status"`
	Title  string    `json:"title"`
}

// QueryView is the client-facing listing entry for one discoverable query.
type QueryView struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Summary  string `json:"summary,omitempty"`
	Filename string `json:"filename"`
}

// FileRef is a client-visible handle to one data artifact.
type FileRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// JobView is the client-facing job snapshot: raw artifact paths replaced
// with availability flags and fetch URLs.
type JobView struct {
	ID         string            `json:"id"`
	QueryID    string            `json:"query"`
	Title      string            `json:"title"`
	Status     JobStatus         `json:"status"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	Stdout     string            `json:"stdout"`
	Stderr     string            `json:"stderr"`
	Error      string            `json:"error,omitempty"`
	Parameters map[string]string `json:"parameters"`
	HasChart   bool              `json:"hasChart"`
	ChartURL   string            `json:"chartUrl,omitempty"`
	DataFiles  []FileRef         `json:"dataFiles"`
}
