// Package job tracks asynchronous download jobs.
// It holds the Job record with its state machine and the Registry that
// serializes every mutation coming from HTTP handlers and background workers.
package job

import (
	"errors"
	"math"
	"time"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusInfoLoaded indicates metadata was extracted and no worker has started yet.
	StatusInfoLoaded Status = "info_loaded"
	// StatusStarting indicates a worker picked the job up.
	StatusStarting Status = "starting"
	// StatusDownloading indicates progress callbacks are arriving.
	StatusDownloading Status = "downloading"
	// StatusCompleted indicates the artifact was placed in the output directory.
	StatusCompleted Status = "completed"
	// StatusError indicates the job failed.
	StatusError Status = "error"
	// StatusNotFound is only ever rendered in responses; it is never stored.
	StatusNotFound Status = "not_found"
)

// DefaultErrorMessage is recorded when a failure carries no message of its own.
const DefaultErrorMessage = "yt-dlp download error"

var (
	// ErrInvalidTransition is returned when an invalid state transition is attempted.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrEmptyFilename is returned when a job is completed without an artifact path.
	ErrEmptyFilename = errors.New("completed job requires a filename")
)

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusInfoLoaded:  {StatusStarting, StatusError},
	StatusStarting:    {StatusDownloading, StatusCompleted, StatusError},
	StatusDownloading: {StatusDownloading, StatusCompleted, StatusError},
	StatusCompleted:   {},
	StatusError:       {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Job is the tracking record of one download.
// Values handed out by a Registry are copies; mutating them has no effect
// on the registry.
type Job struct {
	// ID is the identifier assigned by the video site.
	ID string
	// URL is the origin URL the job was registered with.
	URL string
	// Title is refreshed by the worker right before the download starts.
	Title string
	// Status is the current job state.
	Status Status
	// Progress is the completion percentage (0-100) with one decimal.
	Progress float64
	// Speed is the transfer rate in bytes per second; nil when unknown.
	Speed *float64
	// ETA is the estimated remaining time; nil when unknown.
	ETA *time.Duration
	// Filename is the absolute path of the finished artifact.
	Filename string
	// Error contains the failure message when Status is StatusError.
	Error string
	// RunID identifies the worker run that owns the job.
	RunID string
	// CreatedAt is when the record was (re)created.
	CreatedAt time.Time
	// UpdatedAt is when the record was last mutated.
	UpdatedAt time.Time

	tempRef string
}

// New creates a fresh record in the info_loaded state.
func New(id, url, title string) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		URL:       url,
		Title:     title,
		Status:    StatusInfoLoaded,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TempRef returns the intermediate artifact path reported by the downloader.
func (j *Job) TempRef() string {
	return j.tempRef
}

// IsTerminal returns true if the job is completed or failed.
func (j *Job) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusError
}

// IsLive returns true while a worker owns the job.
func (j *Job) IsLive() bool {
	return j.Status == StatusStarting || j.Status == StatusDownloading
}

// TransitionTo changes the job status if the transition table allows it.
func (j *Job) TransitionTo(status Status) error {
	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}
	j.Status = status
	j.UpdatedAt = time.Now()
	return nil
}

// Complete records the final artifact path.
func (j *Job) Complete(filename string) error {
	if filename == "" {
		return ErrEmptyFilename
	}
	if err := j.TransitionTo(StatusCompleted); err != nil {
		return err
	}
	j.Filename = filename
	j.Progress = 100
	j.Error = ""
	return nil
}

// Fail moves the job to the error state. Progress is reset to zero.
func (j *Job) Fail(message string) error {
	if err := j.TransitionTo(StatusError); err != nil {
		return err
	}
	if message == "" {
		message = DefaultErrorMessage
	}
	j.Error = message
	j.Progress = 0
	j.Filename = ""
	j.Speed = nil
	j.ETA = nil
	return nil
}

// Clone creates a copy of the job for safe reads.
func (j *Job) Clone() *Job {
	c := *j
	if j.Speed != nil {
		v := *j.Speed
		c.Speed = &v
	}
	if j.ETA != nil {
		v := *j.ETA
		c.ETA = &v
	}
	return &c
}

// roundPercent converts a byte ratio to a percentage with one decimal.
func roundPercent(downloaded, total int64) float64 {
	p := float64(downloaded) / float64(total) * 100
	if p > 100 {
		p = 100
	}
	if p < 0 {
		p = 0
	}
	return math.Round(p*10) / 10
}
