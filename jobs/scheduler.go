// Package jobs runs the periodic maintenance tasks: tag recount, view
// counter flush and cache warming.
package jobs

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"saffron/rdx"

	"github.com/robfig/cron/v3"
)

const runTimeout = 5 * time.Minute

type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler() *Scheduler {
	logger := cron.PrintfLogger(log.New(os.Stderr, "[cron] ", log.LstdFlags))
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Add schedules job. An empty spec disables it.
func (s *Scheduler) Add(job Job) error {
	if job.Spec == "" {
		log.Printf("[jobs] %s disabled", job.Name)
		return nil
	}
	_, err := s.cron.AddFunc(job.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		start := time.Now()
		if err := job.Run(ctx); err != nil {
			log.Printf("[jobs] %s failed after %s: %v", job.Name, time.Since(start), err)
			return
		}
		log.Printf("[jobs] %s done in %s", job.Name, time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name, job.Spec, err)
	}
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Recounter interface {
	Recount(ctx context.Context) (int, error)
}

func TagRecount(spec string, tags Recounter) Job {
	return Job{Name: "tag-recount", Spec: spec, Run: func(ctx context.Context) error {
		_, err := tags.Recount(ctx)
		return err
	}}
}

type ViewFlusher interface {
	FlushViews(ctx context.Context, sink rdx.ViewSink) (int, error)
}

// ViewFlush moves the buffered recipe view counters into sink.
func ViewFlush(spec string, cache ViewFlusher, sink rdx.ViewSink) Job {
	return Job{Name: "view-flush", Spec: spec, Run: func(ctx context.Context) error {
		n, err := cache.FlushViews(ctx, sink)
		if n > 0 {
			log.Printf("[jobs] flushed views of %d recipes", n)
		}
		return err
	}}
}

// CacheWarm runs each step in order and keeps going past failures.
func CacheWarm(spec string, steps ...func(ctx context.Context) error) Job {
	return Job{Name: "cache-warm", Spec: spec, Run: func(ctx context.Context) error {
		var failed int
		for i, step := range steps {
			if err := step(ctx); err != nil {
				log.Printf("[jobs] warm step %d: %v", i, err)
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d warm steps failed", failed, len(steps))
		}
		return nil
	}}
}
