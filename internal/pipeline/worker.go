package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/sitetree/internal/cattree"
	"github.com/dgallion1/sitetree/internal/metrics"
)

// Source lists a site's categories and loads the records of each.
type Source interface {
	Categories(ctx context.Context) ([]string, error)
	LoadCategory(ctx context.Context, category string) ([]cattree.ContentRecord, error)
}

// Publisher receives every successful build.
type Publisher interface {
	Publish(ctx context.Context, build *SiteBuild) error
}

// Worker runs build jobs.
type Worker struct {
	source    Source
	publisher Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	policy    cattree.CollisionPolicy

	maxConcurrentCategories int
}

func NewWorker(src Source, pub Publisher, m *metrics.Metrics, log *slog.Logger, policy cattree.CollisionPolicy, maxConcurrent int) *Worker {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Worker{
		source:                  src,
		publisher:               pub,
		metrics:                 m,
		log:                     log,
		policy:                  policy,
		maxConcurrentCategories: maxConcurrent,
	}
}

// Process runs a full build for job. It returns the build unless the job failed.
func (w *Worker) Process(ctx context.Context, job *Job) *SiteBuild {
	log := w.log.With("job_id", job.ID)
	start := time.Now()

	build := w.process(ctx, job, log)

	snap := job.Snapshot()
	if w.metrics != nil {
		w.metrics.BuildsTotal.WithLabelValues(string(snap.Status)).Inc()
		w.metrics.BuildDurationSeconds.Observe(time.Since(start).Seconds())
	}
	log.Info("build finished",
		"status", snap.Status,
		"categories", snap.Progress.CategoriesDone,
		"errors", len(snap.Progress.Errors),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return build
}

func (w *Worker) process(ctx context.Context, job *Job, log *slog.Logger) *SiteBuild {
	// Phase 1: Discover
	job.SetStatus(StatusDiscovering, "discovering")
	categories, err := w.source.Categories(ctx)
	if err != nil {
		log.Error("category discovery failed", "error", err)
		job.AddError(fmt.Sprintf("discover: %s", err))
		job.SetStatus(StatusFailed, "discovering")
		return nil
	}
	job.SetTotalCategories(len(categories))
	log.Info("discovered categories", "count", len(categories))

	// Phase 2: Load and build each category. Categories share nothing, so a
	// failure in one is recorded and the rest still finish.
	job.SetStatus(StatusBuilding, "building")
	var g errgroup.Group
	g.SetLimit(w.maxConcurrentCategories)
	failed := make([]bool, len(categories))

	for i, category := range categories {
		g.Go(func() error {
			clog := log.With("category", category)
			records, err := w.source.LoadCategory(ctx, category)
			if err == nil {
				var res cattree.Result
				res, err = cattree.Build(category, records, cattree.WithCollisionPolicy(w.policy))
				if err == nil {
					job.SetCategoryResult(category, len(records), res)
					if w.metrics != nil {
						w.metrics.CategoryRecords.WithLabelValues(category).Set(float64(len(res.Posts)))
					}
					clog.Debug("category built", "records", len(records), "posts", len(res.Posts))
					return nil
				}
			}

			failed[i] = true
			clog.Error("category failed", "error", err)
			job.AddError(fmt.Sprintf("category %s: %s", category, err))
			job.IncrCategoriesDone()
			if w.metrics != nil {
				w.metrics.CategoryErrorsTotal.WithLabelValues(category).Inc()
			}
			return nil
		})
	}
	_ = g.Wait()

	hadErrors := false
	for _, f := range failed {
		hadErrors = hadErrors || f
	}

	build := job.Result(categories)
	if len(build.Categories) == 0 && hadErrors {
		job.SetStatus(StatusFailed, "building")
		return nil
	}

	// Phase 3: Publish
	if w.publisher != nil {
		job.SetStatus(StatusPublishing, "publishing")
		if err := w.publisher.Publish(ctx, build); err != nil {
			log.Error("publish failed", "error", err)
			job.AddError(fmt.Sprintf("publish: %s", err))
			hadErrors = true
		}
	}

	if hadErrors {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
	return build
}
