package job

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found by ID.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobNotCompleted is returned by TakeCompleted for jobs still in flight or failed.
	ErrJobNotCompleted = errors.New("job not completed")
)

// Registry is the process-wide store of download jobs.
// Every method is atomic with respect to every other method.
type Registry interface {
	// CreateOrReset inserts a fresh info_loaded record when id is unknown or
	// its record is terminal. Otherwise the existing record is kept and
	// false is returned.
	CreateOrReset(id, url, title string) (*Job, bool)

	// ResetForDownload inserts a fresh info_loaded record unless a worker
	// currently owns id, in which case the live record is returned with false.
	ResetForDownload(id, url, title string) (*Job, bool)

	// Get returns a copy of the job or ErrJobNotFound.
	Get(id string) (*Job, error)

	// Begin moves the job to starting and records the owning run.
	Begin(id, runID string) error

	// SetTitle refreshes the title of a known job.
	SetTitle(id, title string)

	// ApplyProgress merges a downloader event. Unknown ids are ignored.
	ApplyProgress(id string, e Event)

	// MarkCompleted and MarkError are the terminal transitions.
	MarkCompleted(id, filename string) error
	MarkError(id, message string) error

	// TakeCompleted returns and removes the job only if it is completed.
	TakeCompleted(id string) (*Job, error)

	// Restore puts back a record previously returned by TakeCompleted,
	// unless the id was re-registered in the meantime.
	Restore(j *Job)

	// List returns copies of all jobs.
	List() []*Job
}
