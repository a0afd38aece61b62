package job

import (
	"sort"
	"sync"
	"time"
)

// Compile-time check that MemoryRegistry implements Registry.
var _ Registry = (*MemoryRegistry)(nil)

// MemoryRegistry is an in-memory implementation of Registry.
// A single RWMutex guards the map; records never leave the lock
// without being cloned.
type MemoryRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		jobs: make(map[string]*Job),
	}
}

// CreateOrReset implements Registry.
func (r *MemoryRegistry) CreateOrReset(id, url, title string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.jobs[id]; ok && !existing.IsTerminal() {
		return existing.Clone(), false
	}
	j := New(id, url, title)
	r.jobs[id] = j
	return j.Clone(), true
}

// ResetForDownload implements Registry.
func (r *MemoryRegistry) ResetForDownload(id, url, title string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.jobs[id]; ok && existing.IsLive() {
		return existing.Clone(), false
	}
	j := New(id, url, title)
	r.jobs[id] = j
	return j.Clone(), true
}

// Get implements Registry.
func (r *MemoryRegistry) Get(id string) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return j.Clone(), nil
}

// Begin implements Registry.
func (r *MemoryRegistry) Begin(id, runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if err := j.TransitionTo(StatusStarting); err != nil {
		return err
	}
	j.RunID = runID
	j.Progress = 0
	return nil
}

// SetTitle implements Registry.
func (r *MemoryRegistry) SetTitle(id, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok && title != "" {
		j.Title = title
		j.UpdatedAt = time.Now()
	}
}

// ApplyProgress implements Registry.
func (r *MemoryRegistry) ApplyProgress(id string, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		j.apply(e)
	}
}

// MarkCompleted implements Registry.
func (r *MemoryRegistry) MarkCompleted(id, filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	return j.Complete(filename)
}

// MarkError implements Registry.
func (r *MemoryRegistry) MarkError(id, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	return j.Fail(message)
}

// TakeCompleted implements Registry.
func (r *MemoryRegistry) TakeCompleted(id string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	if j.Status != StatusCompleted {
		return nil, ErrJobNotCompleted
	}
	delete(r.jobs, id)
	return j, nil
}

// Restore implements Registry.
func (r *MemoryRegistry) Restore(j *Job) {
	if j == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[j.ID]; ok {
		return
	}
	r.jobs[j.ID] = j.Clone()
}

// List implements Registry. Jobs are ordered by creation time.
func (r *MemoryRegistry) List() []*Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		result = append(result, j.Clone())
	}
	sort.Slice(result, func(a, b int) bool {
		return result[a].CreatedAt.Before(result[b].CreatedAt)
	})
	return result
}
