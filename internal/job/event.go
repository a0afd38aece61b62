package job

import "time"

// EventKind distinguishes progress callbacks delivered by the downloader.
type EventKind int

const (
	// EventDownloading carries byte counters, speed and ETA.
	EventDownloading EventKind = iota + 1
	// EventFinished reports the intermediate file written by the downloader.
	EventFinished
	// EventError reports a failure signalled through the callback.
	EventError
)

// Event is a progress callback merged into a Job by Registry.ApplyProgress.
type Event struct {
	Kind EventKind

	// DownloadedBytes and TotalBytes drive the percentage. TotalBytes <= 0
	// means the size is unknown and the previous percentage is kept.
	DownloadedBytes int64
	TotalBytes      int64
	// Speed in bytes per second; nil when unknown.
	Speed *float64
	// ETA is nil when unknown.
	ETA *time.Duration

	// Filename is set on EventFinished.
	Filename string
	// Message is set on EventError.
	Message string
}

// apply merges e into j. Events against a terminal job are dropped.
func (j *Job) apply(e Event) {
	if j.IsTerminal() {
		return
	}
	switch e.Kind {
	case EventDownloading:
		// A starting job stays starting until a percentage can be computed.
		if j.Status == StatusStarting && e.TotalBytes <= 0 {
			return
		}
		if err := j.TransitionTo(StatusDownloading); err != nil {
			return
		}
		if e.TotalBytes > 0 {
			j.Progress = roundPercent(e.DownloadedBytes, e.TotalBytes)
		}
		j.Speed = e.Speed
		j.ETA = e.ETA
	case EventFinished:
		j.Progress = 100
		j.tempRef = e.Filename
		j.UpdatedAt = time.Now()
	case EventError:
		_ = j.Fail(e.Message)
	}
}
