package job

import (
	"fmt"
	"sync"
	"testing"
)

func TestMemoryRegistry_CreateOrReset(t *testing.T) {
	reg := NewMemoryRegistry()

	j, created := reg.CreateOrReset("v1", "https://youtu.be/v1", "first")
	if !created {
		t.Fatal("expected a new record")
	}
	if j.Status != StatusInfoLoaded || j.Progress != 0 {
		t.Errorf("expected info_loaded/0, got %s/%v", j.Status, j.Progress)
	}

	// A non-terminal entry is left untouched.
	_ = reg.Begin("v1", "run-1")
	j, created = reg.CreateOrReset("v1", "https://youtu.be/v1", "second")
	if created {
		t.Error("expected existing record to be kept")
	}
	if j.Status != StatusStarting || j.Title != "first" {
		t.Errorf("unexpected record %+v", j)
	}

	// A terminal entry is replaced.
	_ = reg.MarkError("v1", "boom")
	j, created = reg.CreateOrReset("v1", "https://youtu.be/v1", "third")
	if !created {
		t.Error("expected terminal record to be replaced")
	}
	if j.Status != StatusInfoLoaded || j.Error != "" || j.Title != "third" {
		t.Errorf("unexpected record %+v", j)
	}
}

func TestMemoryRegistry_CreateOrReset_KeepsInfoLoaded(t *testing.T) {
	reg := NewMemoryRegistry()
	reg.CreateOrReset("v1", "u", "first")

	_, created := reg.CreateOrReset("v1", "u", "second")
	if created {
		t.Error("expected info_loaded record to be kept")
	}
	got, _ := reg.Get("v1")
	if got.Title != "first" {
		t.Errorf("expected title 'first', got %q", got.Title)
	}
}

func TestMemoryRegistry_ResetForDownload(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(r *MemoryRegistry)
		wantCreated bool
	}{
		{"absent", func(*MemoryRegistry) {}, true},
		{"info_loaded", func(r *MemoryRegistry) { r.CreateOrReset("v1", "u", "t") }, true},
		{"starting", func(r *MemoryRegistry) {
			r.CreateOrReset("v1", "u", "t")
			_ = r.Begin("v1", "run")
		}, false},
		{"downloading", func(r *MemoryRegistry) {
			r.CreateOrReset("v1", "u", "t")
			_ = r.Begin("v1", "run")
			r.ApplyProgress("v1", Event{Kind: EventDownloading, DownloadedBytes: 1, TotalBytes: 2})
		}, false},
		{"completed", func(r *MemoryRegistry) {
			r.CreateOrReset("v1", "u", "t")
			_ = r.Begin("v1", "run")
			_ = r.MarkCompleted("v1", "/out/f.mp4")
		}, true},
		{"error", func(r *MemoryRegistry) {
			r.CreateOrReset("v1", "u", "t")
			_ = r.MarkError("v1", "x")
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewMemoryRegistry()
			tt.setup(reg)

			j, created := reg.ResetForDownload("v1", "u", "new")

			if created != tt.wantCreated {
				t.Errorf("created = %v, want %v", created, tt.wantCreated)
			}
			if created && (j.Status != StatusInfoLoaded || j.Progress != 0 || j.Title != "new") {
				t.Errorf("expected fresh record, got %+v", j)
			}
		})
	}
}

func TestMemoryRegistry_Get_NotFound(t *testing.T) {
	reg := NewMemoryRegistry()

	_, err := reg.Get("nonexistent")
	if err != ErrJobNotFound {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestMemoryRegistry_Get_ReturnsClone(t *testing.T) {
	reg := NewMemoryRegistry()
	reg.CreateOrReset("v1", "u", "t")

	found, _ := reg.Get("v1")
	found.Progress = 99
	found.Status = StatusCompleted

	original, _ := reg.Get("v1")
	if original.Progress != 0 || original.Status != StatusInfoLoaded {
		t.Error("modifying returned job should not affect registry")
	}
}

func TestMemoryRegistry_Begin(t *testing.T) {
	reg := NewMemoryRegistry()

	if err := reg.Begin("missing", "run"); err != ErrJobNotFound {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}

	reg.CreateOrReset("v1", "u", "t")
	if err := reg.Begin("v1", "run-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	j, _ := reg.Get("v1")
	if j.Status != StatusStarting || j.RunID != "run-1" {
		t.Errorf("unexpected record %+v", j)
	}

	if err := reg.Begin("v1", "run-2"); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestMemoryRegistry_StateMachine(t *testing.T) {
	reg := NewMemoryRegistry()
	reg.CreateOrReset("v1", "https://youtu.be/v1", "title")
	_ = reg.Begin("v1", "run-1")

	reg.ApplyProgress("v1", Event{Kind: EventDownloading, DownloadedBytes: 50, TotalBytes: 200})
	j, _ := reg.Get("v1")
	if j.Progress != 25.0 {
		t.Errorf("expected progress 25.0, got %v", j.Progress)
	}

	reg.ApplyProgress("v1", Event{Kind: EventFinished, Filename: "/tmp/w/v1.mp4"})
	j, _ = reg.Get("v1")
	if j.TempRef() != "/tmp/w/v1.mp4" {
		t.Errorf("expected temp ref, got %q", j.TempRef())
	}

	if err := reg.MarkCompleted("v1", "/out/title.mp4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	j, _ = reg.Get("v1")
	if j.Filename == "" || j.Error != "" {
		t.Errorf("completed job must have filename and no error: %+v", j)
	}
}

func TestMemoryRegistry_MarkError(t *testing.T) {
	reg := NewMemoryRegistry()
	reg.CreateOrReset("v1", "u", "t")
	_ = reg.Begin("v1", "run")
	reg.ApplyProgress("v1", Event{Kind: EventDownloading, DownloadedBytes: 3, TotalBytes: 4})

	if err := reg.MarkError("v1", "yt-dlp: network"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	j, _ := reg.Get("v1")
	if j.Progress != 0 || j.Error == "" || j.Filename != "" {
		t.Errorf("unexpected record %+v", j)
	}

	if err := reg.MarkCompleted("v1", "/out/x.mp4"); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition leaving error state, got %v", err)
	}
	if err := reg.MarkError("missing", "x"); err != ErrJobNotFound {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestMemoryRegistry_ApplyProgress_UnknownID(t *testing.T) {
	reg := NewMemoryRegistry()

	reg.ApplyProgress("ghost", Event{Kind: EventDownloading, DownloadedBytes: 1, TotalBytes: 2})

	if len(reg.List()) != 0 {
		t.Error("event for unknown id must not create a record")
	}
}

func TestMemoryRegistry_TakeCompleted(t *testing.T) {
	reg := NewMemoryRegistry()
	reg.CreateOrReset("v1", "u", "t")
	_ = reg.Begin("v1", "run")
	_ = reg.MarkCompleted("v1", "/out/t.mp4")

	j, err := reg.TakeCompleted("v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Filename != "/out/t.mp4" {
		t.Errorf("unexpected filename %q", j.Filename)
	}

	if _, err := reg.TakeCompleted("v1"); err != ErrJobNotFound {
		t.Errorf("second take: expected ErrJobNotFound, got %v", err)
	}
}

func TestMemoryRegistry_TakeCompleted_NotCompleted(t *testing.T) {
	reg := NewMemoryRegistry()
	reg.CreateOrReset("v1", "u", "t")
	_ = reg.Begin("v1", "run")
	reg.ApplyProgress("v1", Event{Kind: EventDownloading, DownloadedBytes: 1, TotalBytes: 4})
	before, _ := reg.Get("v1")

	if _, err := reg.TakeCompleted("v1"); err != ErrJobNotCompleted {
		t.Fatalf("expected ErrJobNotCompleted, got %v", err)
	}

	after, err := reg.Get("v1")
	if err != nil {
		t.Fatalf("record must survive: %v", err)
	}
	if after.Status != before.Status || after.Progress != before.Progress {
		t.Errorf("registry mutated: before %+v after %+v", before, after)
	}
}

func TestMemoryRegistry_Restore(t *testing.T) {
	reg := NewMemoryRegistry()
	reg.CreateOrReset("v1", "u", "t")
	_ = reg.Begin("v1", "run")
	_ = reg.MarkCompleted("v1", "/out/t.mp4")
	j, _ := reg.TakeCompleted("v1")

	reg.Restore(j)
	got, err := reg.Get("v1")
	if err != nil || got.Status != StatusCompleted {
		t.Fatalf("expected restored completed record, got %+v, %v", got, err)
	}

	// A newer registration wins over a stale restore.
	_, _ = reg.TakeCompleted("v1")
	reg.CreateOrReset("v1", "u", "fresh")
	reg.Restore(j)
	got, _ = reg.Get("v1")
	if got.Status != StatusInfoLoaded || got.Title != "fresh" {
		t.Errorf("restore overwrote a newer record: %+v", got)
	}
}

func TestMemoryRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewMemoryRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("v%d", i)
		reg.CreateOrReset(id, "u", "t")
		_ = reg.Begin(id, "run")
		wg.Add(2)
		go func() {
			defer wg.Done()
			for n := int64(1); n <= 100; n++ {
				reg.ApplyProgress(id, Event{Kind: EventDownloading, DownloadedBytes: n, TotalBytes: 100})
			}
			_ = reg.MarkCompleted(id, "/out/"+id)
		}()
		go func() {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				_, _ = reg.Get(id)
				_ = reg.List()
			}
		}()
	}
	wg.Wait()

	for _, j := range reg.List() {
		if j.Status != StatusCompleted || j.Progress != 100 {
			t.Errorf("job %s ended as %s/%v", j.ID, j.Status, j.Progress)
		}
	}
}
