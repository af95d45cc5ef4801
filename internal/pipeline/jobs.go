package pipeline

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/sitetree/internal/cattree"
)

// JobStatus represents the state of a build job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusDiscovering JobStatus = "discovering"
	StatusBuilding    JobStatus = "building"
	StatusPublishing  JobStatus = "publishing"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
	StatusPartial     JobStatus = "partial"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusPartial
}

// SiteBuild is the output of one build: a tree and post list per category.
type SiteBuild struct {
	JobID      string                    `json:"job_id"`
	FinishedAt time.Time                 `json:"finished_at"`
	Categories []string                  `json:"categories"`
	Results    map[string]cattree.Result `json:"results"`
}

// Category returns the result for one category.
func (b *SiteBuild) Category(name string) (cattree.Result, bool) {
	r, ok := b.Results[name]
	return r, ok
}

// Job tracks the state of a single site build.
type Job struct {
	mu sync.Mutex

	ID     string    `json:"job_id"`
	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	records map[string]int
	results map[string]cattree.Result
	errors  []string
}

// Progress tracks build progress.
type Progress struct {
	TotalCategories int            `json:"total_categories"`
	CategoriesDone  int            `json:"categories_done"`
	Records         map[string]int `json:"records"`
	Errors          []string       `json:"errors"`
}

// NewJob returns a queued job with a fresh ID.
func NewJob() *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes finished jobs whose last update is older than the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Done() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetTotalCategories records how many categories the build covers.
func (j *Job) SetTotalCategories(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalCategories = n
	j.UpdatedAt = time.Now()
}

// SetCategoryResult stores the built result for a category and counts it done.
func (j *Job) SetCategoryResult(category string, records int, res cattree.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.results == nil {
		j.results = make(map[string]cattree.Result)
		j.records = make(map[string]int)
	}
	j.results[category] = res
	j.records[category] = records
	j.Progress.CategoriesDone++
	j.UpdatedAt = time.Now()
}

// IncrCategoriesDone counts a category that finished without a result.
func (j *Job) IncrCategoriesDone() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.CategoriesDone++
	j.UpdatedAt = time.Now()
}

// Result assembles the build output in the given category order. Categories
// without a result are omitted.
func (j *Job) Result(categories []string) *SiteBuild {
	j.mu.Lock()
	defer j.mu.Unlock()
	b := &SiteBuild{
		JobID:      j.ID,
		FinishedAt: time.Now(),
		Results:    make(map[string]cattree.Result, len(j.results)),
	}
	for _, c := range categories {
		if r, ok := j.results[c]; ok {
			b.Categories = append(b.Categories, c)
			b.Results[c] = r
		}
	}
	return b
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := slices.Clone(j.Progress.Errors)
	if errs == nil {
		errs = []string{}
	}
	records := maps.Clone(j.records)
	if records == nil {
		records = map[string]int{}
	}
	return JobSnapshot{
		ID:     j.ID,
		Status: j.Status,
		Phase:  j.Phase,
		Progress: Progress{
			TotalCategories: j.Progress.TotalCategories,
			CategoriesDone:  j.Progress.CategoriesDone,
			Records:         records,
			Errors:          errs,
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
