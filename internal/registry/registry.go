package registry

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mgorham/queryboard/model"
)

// Registry is the in-memory, concurrency-safe table of job records. It
// owns every Job for the life of the process; callers only ever see
// snapshots, never the stored record itself. Jobs are never deleted, so
// ids cannot be reused.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
}

func New() *Registry {
	return &Registry{jobs: make(map[string]*model.Job)}
}

// Create registers a fresh job for the given query in queued state and
// returns a snapshot of it.
func (r *Registry) Create(def model.QueryDefinition) model.Job {
	now := time.Now().UTC()
	job := &model.Job{
		ID:         uuid.NewString(),
		QueryID:    def.Identifier,
		Title:      def.Title,
		Status:     model.JobQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
		DataFiles:  []string{},
		Parameters: map[string]string{},
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	return snapshot(job)
}

// Update applies mutate to the stored record under the registry lock and
// refreshes its updatedAt timestamp. Unknown ids are a silent no-op.
func (r *Registry) Update(id string, mutate func(*model.Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return
	}
	mutate(job)
	job.UpdatedAt = time.Now().UTC()
}

// Get returns a defensive copy of the job, or ok=false when the id is
// unknown.
func (r *Registry) Get(id string) (model.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return model.Job{}, false
	}
	return snapshot(job), true
}

func snapshot(job *model.Job) model.Job {
	copied := *job
	copied.DataFiles = slices.Clone(job.DataFiles)
	copied.Parameters = maps.Clone(job.Parameters)
	return copied
}
