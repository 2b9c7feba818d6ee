package internal

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rm-hull/pixelbench/internal/stats"
)

// Publisher receives every report produced by a scheduled run.
type Publisher interface {
	Publish(ctx context.Context, r *stats.Report) (string, error)
}

// BenchmarkFunc runs one complete benchmark.
type BenchmarkFunc func() (*stats.Report, error)

type Snapshot struct {
	Report *stats.Report
	Err    error
	Runs   int
}

// Latest keeps the most recent report and error for concurrent readers.
type Latest struct {
	mu   sync.RWMutex
	snap Snapshot
}

func (l *Latest) Get() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}

func (l *Latest) set(report *stats.Report, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap = Snapshot{Report: report, Err: err, Runs: l.snap.Runs + 1}
}

// RunAndRecord runs the benchmark once, stores the outcome in latest, writes
// the results file and forwards the report to the publisher if there is one.
func RunAndRecord(run BenchmarkFunc, latest *Latest, logDir string, pub Publisher) error {
	report, err := run()
	latest.set(report, err)
	if err != nil {
		log.Printf("Benchmark run failed: %v", err)
	}
	if report == nil || len(report.Pipelines) == 0 {
		return err
	}

	if path, werr := stats.WriteResults(logDir, report); werr != nil {
		log.Printf("Failed to write results file: %v", werr)
	} else {
		log.Printf("Results written to %s", path)
	}

	if pub != nil {
		if id, perr := pub.Publish(context.Background(), report); perr != nil {
			log.Printf("Failed to publish report: %v", perr)
		} else {
			log.Printf("Report published with ID %s", id)
		}
	}
	return err
}

// NewScheduler runs the benchmark once straight away and then every interval.
func NewScheduler(interval time.Duration, run BenchmarkFunc, latest *Latest, logDir string, pub Publisher) (gocron.Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}

	_ = RunAndRecord(run, latest, logDir, pub)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			_ = RunAndRecord(run, latest, logDir, pub)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	scheduler.Start()
	return scheduler, nil
}
