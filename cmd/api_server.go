package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Depado/ginprom"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rm-hull/pixelbench/internal"
	"github.com/rm-hull/pixelbench/internal/bench"
	"github.com/rm-hull/pixelbench/internal/config"
	"github.com/rm-hull/pixelbench/internal/parallel"
	"github.com/rm-hull/pixelbench/internal/stats"
	healthcheck "github.com/tavsec/gin-healthcheck"
	"github.com/tavsec/gin-healthcheck/checks"
	hc_config "github.com/tavsec/gin-healthcheck/config"
)

// ApiServer benchmarks on a schedule and serves the latest report and output
// images over HTTP.
func ApiServer(cfg config.Config, port int, every time.Duration, debug bool) {
	internal.ShowVersion()
	log.Printf("Running as %s", internal.UserInfo())
	internal.ConfigVars(cfg.Vars())

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	exec := parallel.New(cfg.Workers)
	defer exec.Close()

	var pub internal.Publisher
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		sink, err := stats.NewRedisSink(ctx, cfg.RedisAddr)
		cancel()
		if err != nil {
			log.Printf("WARNING: reports will not be published: %v", err)
		} else {
			defer func() {
				_ = sink.Close()
			}()
			pub = sink
		}
	}

	latest := &internal.Latest{}
	runner := bench.NewRunner(cfg, exec)
	sched, err := internal.NewScheduler(every, runner.Run, latest, cfg.LogDir, pub)
	if err != nil {
		log.Fatal(err)
	}

	r := NewRouter(latest, []string{cfg.BlurOutput, cfg.DiffOutput}, debug)

	addr := fmt.Sprintf(":%d", port)
	log.Printf("Starting HTTP API Server on port %d...", port)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("HTTP API Server failed to start on port %d: %v", port, err)
	}

	err = sched.Shutdown()
	if err != nil {
		log.Fatalf("failed to shutdown scheduler: %v", err)
	}
}

// NewRouter serves the latest report and each output image under
// /v1/outputs/<file name>. Nothing else on disk is reachable.
func NewRouter(latest *internal.Latest, outputs []string, debug bool) *gin.Engine {
	r := gin.New()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		&reportCollector{latest: latest},
	)

	prom := ginprom.New(
		ginprom.Engine(r),
		ginprom.Registry(registry),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/healthz"),
	)

	r.Use(
		gin.Recovery(),
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
		prom.Instrument(),
	)

	if debug {
		log.Println("WARNING: pprof endpoints are enabled and exposed. Do not run with this flag in production.")
		pprof.Register(r)
	}

	err := healthcheck.New(r, hc_config.DefaultConfig(), []checks.Check{})
	if err != nil {
		log.Fatalf("failed to initialize healthcheck: %v", err)
	}

	r.GET("/v1/report", reportHandler(latest))
	served := make(map[string]bool, len(outputs))
	for _, path := range outputs {
		route := "/v1/outputs/" + filepath.Base(path)
		if served[route] {
			log.Printf("WARNING: %s is already served, skipping %s", route, path)
			continue
		}
		served[route] = true
		r.StaticFile(route, path)
	}

	return r
}

func reportHandler(latest *internal.Latest) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := latest.Get()
		if snap.Report == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no benchmark has completed yet"})
			return
		}

		body := gin.H{
			"runs":   snap.Runs,
			"report": snap.Report,
		}
		if snap.Err != nil {
			body["error"] = snap.Err.Error()
		}
		c.JSON(http.StatusOK, body)
	}
}
