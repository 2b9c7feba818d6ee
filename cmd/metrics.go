package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rm-hull/pixelbench/internal"
)

var (
	durationDesc = prometheus.NewDesc(
		"pixelbench_duration_seconds",
		"Wall-clock duration of the latest benchmark run",
		[]string{"pipeline", "variant"}, nil,
	)
	differingDesc = prometheus.NewDesc(
		"pixelbench_differing_pixels",
		"Differing pixels found by the latest RGB difference run",
		nil, nil,
	)
	runsDesc = prometheus.NewDesc(
		"pixelbench_runs_total",
		"Benchmark runs since the server started",
		nil, nil,
	)
)

// reportCollector exposes the latest report as Prometheus metrics.
type reportCollector struct {
	latest *internal.Latest
}

func (c *reportCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- durationDesc
	ch <- differingDesc
	ch <- runsDesc
}

func (c *reportCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.latest.Get()
	ch <- prometheus.MustNewConstMetric(runsDesc, prometheus.CounterValue, float64(snap.Runs))
	if snap.Report == nil {
		return
	}

	for _, p := range snap.Report.Pipelines {
		ch <- prometheus.MustNewConstMetric(durationDesc, prometheus.GaugeValue, p.Sequential.Seconds(), p.Name, "sequential")
		ch <- prometheus.MustNewConstMetric(durationDesc, prometheus.GaugeValue, p.Parallel.Seconds(), p.Name, "parallel")
		if p.DifferingPixels != nil {
			ch <- prometheus.MustNewConstMetric(differingDesc, prometheus.GaugeValue, float64(*p.DifferingPixels))
		}
	}
}
