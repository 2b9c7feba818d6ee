package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/rm-hull/pixelbench/internal"
	"github.com/rm-hull/pixelbench/internal/bench"
	"github.com/rm-hull/pixelbench/internal/config"
	"github.com/rm-hull/pixelbench/internal/parallel"
	"github.com/rm-hull/pixelbench/internal/stats"
)

// Benchmark runs both pipelines once and prints the comparison to out.
// It returns an error if either pipeline could not complete.
func Benchmark(cfg config.Config, out io.Writer) error {
	internal.ShowVersion()
	internal.ConfigVars(cfg.Vars())

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	exec := parallel.New(cfg.Workers)
	defer exec.Close()
	log.Printf("Executor started with %d workers", exec.NumWorkers())

	report, runErr := bench.NewRunner(cfg, exec).Run()
	report.Print(out)

	if len(report.Pipelines) > 0 {
		path, err := stats.WriteResults(cfg.LogDir, report)
		if err != nil {
			log.Printf("Failed to write results file: %v", err)
		} else {
			log.Printf("Results written to %s", path)
		}

		publishReport(cfg.RedisAddr, report)
	}

	return runErr
}

func publishReport(addr string, report *stats.Report) {
	if addr == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sink, err := stats.NewRedisSink(ctx, addr)
	if err != nil {
		log.Printf("Skipping report publication: %v", err)
		return
	}
	defer func() {
		_ = sink.Close()
	}()

	id, err := sink.Publish(ctx, report)
	if err != nil {
		log.Printf("Failed to publish report: %v", err)
		return
	}
	log.Printf("Report published to %s with ID %s", stats.ResultsStreamKey, id)
}
