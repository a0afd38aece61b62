package job

import (
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	j := New("v1", "https://youtu.be/v1", "title")

	if j.ID != "v1" {
		t.Errorf("expected ID v1, got %s", j.ID)
	}
	if j.Status != StatusInfoLoaded {
		t.Errorf("expected status %s, got %s", StatusInfoLoaded, j.Status)
	}
	if j.Progress != 0 {
		t.Errorf("expected progress 0, got %v", j.Progress)
	}
	if j.CreatedAt.IsZero() || j.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestJob_ValidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{"info_loaded to starting", StatusInfoLoaded, StatusStarting, false},
		{"info_loaded to error", StatusInfoLoaded, StatusError, false},
		{"starting to downloading", StatusStarting, StatusDownloading, false},
		{"starting to completed", StatusStarting, StatusCompleted, false},
		{"starting to error", StatusStarting, StatusError, false},
		{"downloading to downloading", StatusDownloading, StatusDownloading, false},
		{"downloading to completed", StatusDownloading, StatusCompleted, false},
		{"downloading to error", StatusDownloading, StatusError, false},
		{"info_loaded to downloading", StatusInfoLoaded, StatusDownloading, true},
		{"info_loaded to completed", StatusInfoLoaded, StatusCompleted, true},
		{"completed to starting", StatusCompleted, StatusStarting, true},
		{"completed to error", StatusCompleted, StatusError, true},
		{"error to starting", StatusError, StatusStarting, true},
		{"error to completed", StatusError, StatusCompleted, true},
		{"not_found is never a target", StatusStarting, StatusNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := New("test", "", "")
			j.Status = tt.from

			err := j.TransitionTo(tt.to)

			if tt.wantErr && err == nil {
				t.Errorf("expected error for transition %s -> %s", tt.from, tt.to)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for transition %s -> %s: %v", tt.from, tt.to, err)
			}
		})
	}
}

func TestJob_Complete(t *testing.T) {
	j := New("v1", "", "")
	j.Status = StatusDownloading
	j.Progress = 42

	if err := j.Complete(""); err != ErrEmptyFilename {
		t.Fatalf("expected ErrEmptyFilename, got %v", err)
	}
	if j.Status != StatusDownloading {
		t.Errorf("status should not change on rejected completion, got %s", j.Status)
	}

	if err := j.Complete("/out/video.mp4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Filename != "/out/video.mp4" {
		t.Errorf("expected filename to be set, got %q", j.Filename)
	}
	if j.Error != "" {
		t.Errorf("expected empty error, got %q", j.Error)
	}
	if j.Progress != 100 {
		t.Errorf("expected progress 100, got %v", j.Progress)
	}
}

func TestJob_Fail(t *testing.T) {
	j := New("v1", "", "")
	j.Status = StatusDownloading
	j.Progress = 73.4
	speed := 1024.0
	j.Speed = &speed

	if err := j.Fail("boom"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Status != StatusError {
		t.Errorf("expected status error, got %s", j.Status)
	}
	if j.Progress != 0 {
		t.Errorf("expected progress reset to 0, got %v", j.Progress)
	}
	if j.Error != "boom" {
		t.Errorf("expected error 'boom', got %q", j.Error)
	}
	if j.Speed != nil {
		t.Error("expected speed to be cleared")
	}
}

func TestJob_Fail_DefaultMessage(t *testing.T) {
	j := New("v1", "", "")
	if err := j.Fail(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Error != DefaultErrorMessage {
		t.Errorf("expected default message, got %q", j.Error)
	}
}

func TestJob_Apply(t *testing.T) {
	t.Run("downloading event computes percentage", func(t *testing.T) {
		j := New("v1", "", "")
		j.Status = StatusStarting
		speed := 2.5 * 1024 * 1024
		eta := 90 * time.Second

		j.apply(Event{Kind: EventDownloading, DownloadedBytes: 50, TotalBytes: 200, Speed: &speed, ETA: &eta})

		if j.Status != StatusDownloading {
			t.Errorf("expected downloading, got %s", j.Status)
		}
		if j.Progress != 25.0 {
			t.Errorf("expected progress 25.0, got %v", j.Progress)
		}
		if j.Speed == nil || *j.Speed != speed {
			t.Errorf("expected speed %v, got %v", speed, j.Speed)
		}
		if j.ETA == nil || *j.ETA != eta {
			t.Errorf("expected eta %v, got %v", eta, j.ETA)
		}
	})

	t.Run("percentage rounds to one decimal", func(t *testing.T) {
		j := New("v1", "", "")
		j.Status = StatusStarting

		j.apply(Event{Kind: EventDownloading, DownloadedBytes: 1, TotalBytes: 3})

		if j.Progress != 33.3 {
			t.Errorf("expected 33.3, got %v", j.Progress)
		}
	})

	t.Run("unknown total holds last progress", func(t *testing.T) {
		j := New("v1", "", "")
		j.Status = StatusDownloading
		j.Progress = 40

		j.apply(Event{Kind: EventDownloading, DownloadedBytes: 999})

		if j.Progress != 40 {
			t.Errorf("expected progress held at 40, got %v", j.Progress)
		}
		if j.Speed != nil || j.ETA != nil {
			t.Error("expected unknown speed and eta")
		}
	})

	t.Run("unknown total keeps starting job starting", func(t *testing.T) {
		j := New("v1", "", "")
		j.Status = StatusStarting

		j.apply(Event{Kind: EventDownloading, DownloadedBytes: 512})

		if j.Status != StatusStarting {
			t.Errorf("expected starting, got %s", j.Status)
		}
		if j.Progress != 0 {
			t.Errorf("expected progress 0, got %v", j.Progress)
		}

		j.apply(Event{Kind: EventDownloading, DownloadedBytes: 512, TotalBytes: 1024})

		if j.Status != StatusDownloading {
			t.Errorf("expected downloading, got %s", j.Status)
		}
		if j.Progress != 50 {
			t.Errorf("expected progress 50, got %v", j.Progress)
		}
	})

	t.Run("finished event records temp reference", func(t *testing.T) {
		j := New("v1", "", "")
		j.Status = StatusDownloading

		j.apply(Event{Kind: EventFinished, Filename: "/tmp/work/v1.webm"})

		if j.Progress != 100 {
			t.Errorf("expected progress 100, got %v", j.Progress)
		}
		if j.TempRef() != "/tmp/work/v1.webm" {
			t.Errorf("unexpected temp ref %q", j.TempRef())
		}
		if j.Status != StatusDownloading {
			t.Errorf("finished event must not complete the job, got %s", j.Status)
		}
	})

	t.Run("error event resets progress", func(t *testing.T) {
		j := New("v1", "", "")
		j.Status = StatusDownloading
		j.Progress = 80

		j.apply(Event{Kind: EventError, Message: "HTTP Error 403"})

		if j.Status != StatusError {
			t.Errorf("expected error, got %s", j.Status)
		}
		if j.Progress != 0 {
			t.Errorf("expected progress 0, got %v", j.Progress)
		}
		if j.Error != "HTTP Error 403" {
			t.Errorf("unexpected error %q", j.Error)
		}
	})

	t.Run("terminal job ignores events", func(t *testing.T) {
		j := New("v1", "", "")
		j.Status = StatusDownloading
		_ = j.Complete("/out/a.mp4")

		j.apply(Event{Kind: EventDownloading, DownloadedBytes: 1, TotalBytes: 10})
		j.apply(Event{Kind: EventError, Message: "late"})

		if j.Status != StatusCompleted || j.Progress != 100 || j.Error != "" {
			t.Errorf("terminal job mutated: %+v", j)
		}
	})
}

func TestJob_Clone(t *testing.T) {
	speed := 10.0
	eta := time.Second
	j := New("v1", "u", "t")
	j.Speed = &speed
	j.ETA = &eta
	j.tempRef = "/tmp/x"

	c := j.Clone()
	*c.Speed = 20
	*c.ETA = time.Minute
	c.Title = "changed"

	if *j.Speed != 10 || *j.ETA != time.Second || j.Title != "t" {
		t.Error("modifying clone should not affect original")
	}
	if c.TempRef() != "/tmp/x" {
		t.Errorf("expected temp ref to be copied, got %q", c.TempRef())
	}
}
