package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"subtitler/internal/jobs"
)

type memoryRecorder struct {
	mu    sync.Mutex
	saved []jobs.Job
	err   error
}

func (m *memoryRecorder) Save(_ context.Context, job jobs.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, job)
	return m.err
}

func TestTableCreateGetUpdate(t *testing.T) {
	rec := &memoryRecorder{}
	table := jobs.NewTable(jobs.WithRecorder(rec, nil))
	created, err := table.Create(jobs.Job{ID: "a", Status: jobs.StatusUploading, Message: jobs.MessageUploading})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be stamped")
	}
	if _, err := table.Create(jobs.Job{ID: "a"}); !errors.Is(err, jobs.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	updated, err := table.Update("a", func(j *jobs.Job) {
		j.SetProgress(jobs.StatusProcessing, 30, jobs.MessageExtracting)
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Progress != 30 || updated.Status != jobs.StatusProcessing {
		t.Fatalf("unexpected job %+v", updated)
	}
	got, ok := table.Get("a")
	if !ok || got.Message != jobs.MessageExtracting {
		t.Fatalf("unexpected get result %+v %v", got, ok)
	}
	if len(rec.saved) != 2 {
		t.Fatalf("expected create and update to be recorded, got %d", len(rec.saved))
	}
	if _, err := table.Update("missing", func(*jobs.Job) {}); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTableReturnsCopies(t *testing.T) {
	table := jobs.NewTable()
	if _, err := table.Create(jobs.Job{ID: "a", Message: "original"}); err != nil {
		t.Fatal(err)
	}
	got, _ := table.Get("a")
	got.Message = "mutated"
	again, _ := table.Get("a")
	if again.Message != "original" {
		t.Fatalf("Get must return a copy, got %q", again.Message)
	}
}

func TestTableListNewestFirst(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	table := jobs.NewTable(jobs.WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	for _, id := range []string{"first", "second", "third"} {
		if _, err := table.Create(jobs.Job{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	list := table.List()
	if len(list) != 3 || list[0].ID != "third" || list[2].ID != "first" {
		t.Fatalf("unexpected order %v", list)
	}
	table.Delete("second")
	if table.Len() != 2 {
		t.Fatalf("expected 2 jobs after delete, got %d", table.Len())
	}
}

func TestTableRecorderErrorsAreReported(t *testing.T) {
	var reported []error
	rec := &memoryRecorder{err: errors.New("disk full")}
	table := jobs.NewTable(jobs.WithRecorder(rec, func(err error) { reported = append(reported, err) }))
	if _, err := table.Create(jobs.Job{ID: "a"}); err != nil {
		t.Fatalf("recorder failures must not fail Create: %v", err)
	}
	if len(reported) != 1 {
		t.Fatalf("expected reported error, got %v", reported)
	}
}

func TestTableConcurrentReadersAndWriters(t *testing.T) {
	table := jobs.NewTable()
	const workers = 8
	for i := range workers {
		if _, err := table.Create(jobs.Job{ID: fmt.Sprintf("job-%d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	var wg sync.WaitGroup
	for i := range workers {
		id := fmt.Sprintf("job-%d", i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for p := 0; p <= 100; p += 10 {
				if _, err := table.Update(id, func(j *jobs.Job) { j.SetProgress(jobs.StatusProcessing, p, "working") }); err != nil {
					t.Errorf("Update: %v", err)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for range 50 {
				_ = table.List()
				_, _ = table.Get(id)
			}
		}()
	}
	wg.Wait()
	for _, job := range table.List() {
		if job.Progress != 100 {
			t.Fatalf("job %s ended at %d", job.ID, job.Progress)
		}
	}
}

func TestJobHelpers(t *testing.T) {
	j := jobs.Job{Status: jobs.StatusCompleted, FilePath: "/out.mp4"}
	if !j.Downloadable() {
		t.Fatal("completed job with output should be downloadable")
	}
	j.Fail("Processing failed: boom")
	if j.Downloadable() || j.FilePath != "" || !j.Status.IsTerminal() {
		t.Fatalf("failed job must not expose output: %+v", j)
	}
	j.SetProgress(jobs.StatusProcessing, 150, "x")
	if j.Progress != 100 {
		t.Fatalf("progress should clamp, got %d", j.Progress)
	}
	if s, ok := jobs.ParseStatus(" Completed "); !ok || s != jobs.StatusCompleted {
		t.Fatalf("ParseStatus: %v %v", s, ok)
	}
	if _, ok := jobs.ParseStatus("pending"); ok {
		t.Fatal("unknown status should not parse")
	}
}
