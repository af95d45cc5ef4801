package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/dgallion1/sitetree/internal/cattree"
	"github.com/dgallion1/sitetree/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	categories []string
	records    map[string][]cattree.ContentRecord
	failLoad   map[string]error
	discover   error
	block      chan struct{}
}

func (f *fakeSource) Categories(ctx context.Context) ([]string, error) {
	if f.discover != nil {
		return nil, f.discover
	}
	return f.categories, nil
}

func (f *fakeSource) LoadCategory(ctx context.Context, category string) ([]cattree.ContentRecord, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.failLoad[category]; err != nil {
		return nil, err
	}
	return f.records[category], nil
}

type fakePublisher struct {
	mu     sync.Mutex
	builds []*SiteBuild
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, b *SiteBuild) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.builds = append(p.builds, b)
	return p.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func siteSource() *fakeSource {
	return &fakeSource{
		categories: []string{"KnowledgeBase", "LinkedInPost"},
		records: map[string][]cattree.ContentRecord{
			"KnowledgeBase": {
				{PathStem: "KnowledgeBase/ai/agents", Title: "Agents", URL: "/KnowledgeBase/ai/agents/", Category: "KnowledgeBase"},
				{PathStem: "KnowledgeBase/index", Title: "KB", URL: "/KnowledgeBase/", Category: "KnowledgeBase"},
			},
			"LinkedInPost": {
				{PathStem: "LinkedInPost/launch", Title: "Launch", URL: "/LinkedInPost/launch/", Category: "LinkedInPost"},
			},
		},
	}
}

func TestWorker_Completed(t *testing.T) {
	pub := &fakePublisher{}
	m := metrics.New()
	w := NewWorker(siteSource(), pub, m, testLogger(), cattree.Overwrite, 2)
	job := NewJob()

	build := w.Process(context.Background(), job)
	if build == nil {
		t.Fatal("expected a build")
	}
	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (%v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.TotalCategories != 2 || snap.Progress.CategoriesDone != 2 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
	if snap.Progress.Records["KnowledgeBase"] != 2 {
		t.Errorf("expected 2 loaded records, got %d", snap.Progress.Records["KnowledgeBase"])
	}

	kb, ok := build.Category("KnowledgeBase")
	if !ok {
		t.Fatal("expected KnowledgeBase result")
	}
	if len(kb.Posts) != 1 || kb.Tree.Lookup("ai", "agents") == nil {
		t.Errorf("unexpected KnowledgeBase result: %+v", kb)
	}
	if len(pub.builds) != 1 || pub.builds[0] != build {
		t.Errorf("expected build to be published once")
	}
}

func TestWorker_PartialOnCategoryFailure(t *testing.T) {
	src := siteSource()
	src.failLoad = map[string]error{"LinkedInPost": errors.New("permission denied")}
	w := NewWorker(src, nil, nil, testLogger(), cattree.Overwrite, 2)
	job := NewJob()

	build := w.Process(context.Background(), job)
	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected partial, got %q", snap.Status)
	}
	if build == nil || len(build.Categories) != 1 || build.Categories[0] != "KnowledgeBase" {
		t.Errorf("expected only KnowledgeBase in build, got %+v", build)
	}
	if len(snap.Progress.Errors) != 1 || !strings.Contains(snap.Progress.Errors[0], "LinkedInPost") {
		t.Errorf("unexpected errors %v", snap.Progress.Errors)
	}
}

func TestWorker_RejectPolicySurfacesDuplicates(t *testing.T) {
	src := siteSource()
	src.records["LinkedInPost"] = append(src.records["LinkedInPost"],
		cattree.ContentRecord{PathStem: "LinkedInPost/launch", Title: "Dup", URL: "/dup/", Category: "LinkedInPost"})
	w := NewWorker(src, nil, nil, testLogger(), cattree.Reject, 1)
	job := NewJob()

	w.Process(context.Background(), job)
	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected partial, got %q", snap.Status)
	}
	if !strings.Contains(snap.Progress.Errors[0], "duplicate path") {
		t.Errorf("expected duplicate path error, got %v", snap.Progress.Errors)
	}
}

func TestWorker_FailedWhenNothingBuilt(t *testing.T) {
	src := siteSource()
	src.failLoad = map[string]error{
		"KnowledgeBase": errors.New("io"),
		"LinkedInPost":  errors.New("io"),
	}
	pub := &fakePublisher{}
	w := NewWorker(src, pub, nil, testLogger(), cattree.Overwrite, 2)
	job := NewJob()

	if build := w.Process(context.Background(), job); build != nil {
		t.Errorf("expected nil build, got %+v", build)
	}
	if job.Snapshot().Status != StatusFailed {
		t.Errorf("expected failed, got %q", job.Snapshot().Status)
	}
	if len(pub.builds) != 0 {
		t.Error("failed builds must not be published")
	}
}

func TestWorker_DiscoveryFailure(t *testing.T) {
	src := &fakeSource{discover: errors.New("no such directory")}
	w := NewWorker(src, nil, nil, testLogger(), cattree.Overwrite, 1)
	job := NewJob()
	if w.Process(context.Background(), job) != nil {
		t.Error("expected nil build")
	}
	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "discovering" {
		t.Errorf("expected failed in discovering, got %q/%q", snap.Status, snap.Phase)
	}
}

func TestWorker_PublishFailureIsPartial(t *testing.T) {
	pub := &fakePublisher{err: errors.New("locked")}
	w := NewWorker(siteSource(), pub, nil, testLogger(), cattree.Overwrite, 2)
	job := NewJob()
	if w.Process(context.Background(), job) == nil {
		t.Fatal("expected build despite publish failure")
	}
	if job.Snapshot().Status != StatusPartial {
		t.Errorf("expected partial, got %q", job.Snapshot().Status)
	}
}

func TestWorker_EmptySite(t *testing.T) {
	w := NewWorker(&fakeSource{}, nil, nil, testLogger(), cattree.Overwrite, 2)
	job := NewJob()
	build := w.Process(context.Background(), job)
	if build == nil || len(build.Categories) != 0 {
		t.Errorf("expected empty build, got %+v", build)
	}
	if job.Snapshot().Status != StatusCompleted {
		t.Errorf("expected completed, got %q", job.Snapshot().Status)
	}
}

func waitDone(t *testing.T, job *Job) JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := job.Snapshot()
		if snap.Status.Done() {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", job.ID)
	return JobSnapshot{}
}

func TestOrchestrator_SubmitAndLatest(t *testing.T) {
	w := NewWorker(siteSource(), nil, nil, testLogger(), cattree.Overwrite, 2)
	o := NewOrchestrator(w, metrics.New(), testLogger(), Options{Workers: 2, QueueSize: 4})
	o.Start(context.Background())
	defer o.Stop()

	if o.Latest() != nil {
		t.Fatal("expected no build before first job")
	}

	job, err := o.Submit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.GetJob(job.ID) != job {
		t.Error("expected job to be registered")
	}
	if snap := waitDone(t, job); snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", snap.Status)
	}

	deadline := time.Now().Add(time.Second)
	for o.Latest() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	latest := o.Latest()
	if latest == nil || latest.JobID != job.ID {
		t.Fatalf("expected latest build from job %s, got %+v", job.ID, latest)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	src := siteSource()
	src.block = make(chan struct{})
	w := NewWorker(src, nil, nil, testLogger(), cattree.Overwrite, 1)
	o := NewOrchestrator(w, nil, testLogger(), Options{Workers: 1, QueueSize: 1})
	o.Start(context.Background())
	defer o.Stop()
	defer close(src.block)

	first, err := o.Submit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Wait for the worker to pick up the first job so the queue is empty.
	deadline := time.Now().Add(5 * time.Second)
	for first.Snapshot().Status == StatusQueued && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := o.Submit(); err != nil {
		t.Fatalf("second submit should queue: %v", err)
	}
	job, err := o.Submit()
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if job.Snapshot().Status != StatusFailed {
		t.Errorf("rejected job should be failed, got %q", job.Snapshot().Status)
	}
}

func TestOrchestrator_StopIsIdempotent(t *testing.T) {
	w := NewWorker(siteSource(), nil, nil, testLogger(), cattree.Overwrite, 1)
	o := NewOrchestrator(w, nil, testLogger(), Options{})
	o.Start(context.Background())
	o.Stop()
	o.Stop()

	if _, err := o.Submit(); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestOrchestrator_StopFailsQueuedJobs(t *testing.T) {
	src := siteSource()
	src.block = make(chan struct{})
	w := NewWorker(src, nil, nil, testLogger(), cattree.Overwrite, 1)
	o := NewOrchestrator(w, nil, testLogger(), Options{Workers: 1, QueueSize: 2})
	o.Start(context.Background())

	running, err := o.Submit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for running.Snapshot().Status == StatusQueued && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	waiting, err := o.Submit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o.Stop()

	for _, job := range []*Job{running, waiting} {
		if snap := job.Snapshot(); snap.Status != StatusFailed {
			t.Errorf("job %s: expected failed after stop, got %q/%q", job.ID, snap.Status, snap.Phase)
		}
	}
	if o.QueueDepth() != 0 {
		t.Errorf("expected empty queue, got %d", o.QueueDepth())
	}
}

func TestNilLoggers(t *testing.T) {
	w := NewWorker(siteSource(), nil, nil, nil, cattree.Overwrite, 1)
	job := NewJob()
	if w.Process(context.Background(), job) == nil {
		t.Fatal("expected a build")
	}

	o := NewOrchestrator(w, nil, nil, Options{})
	o.Start(context.Background())
	defer o.Stop()
	if _, err := o.Submit(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOrchestrator_StopCancelsRunningBuild(t *testing.T) {
	src := siteSource()
	src.block = make(chan struct{})
	w := NewWorker(src, nil, nil, testLogger(), cattree.Overwrite, 2)
	o := NewOrchestrator(w, nil, testLogger(), Options{Workers: 1, QueueSize: 1})
	o.Start(context.Background())

	job, err := o.Submit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o.Stop()

	if snap := job.Snapshot(); snap.Status != StatusQueued && !snap.Status.Done() {
		t.Errorf("expected job to be finished or never started, got %q", snap.Status)
	}
}
