// Package bench times the sequential and parallel variants of each pipeline
// against each other and checks that they agree.
package bench

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/rm-hull/pixelbench/internal/config"
	"github.com/rm-hull/pixelbench/internal/imageio"
	"github.com/rm-hull/pixelbench/internal/kernel"
	"github.com/rm-hull/pixelbench/internal/parallel"
	"github.com/rm-hull/pixelbench/internal/pixeldiff"
	"github.com/rm-hull/pixelbench/internal/raster"
	"github.com/rm-hull/pixelbench/internal/stats"
	"github.com/rm-hull/pixelbench/internal/stencil"
	"golang.org/x/sync/errgroup"
)

const (
	BlurPipeline = "Gaussian blur"
	DiffPipeline = "RGB difference"

	// blurTolerance is the relative error allowed between the sequential
	// and parallel blur of the same pixel.
	blurTolerance = 1e-4
)

var ErrVariantMismatch = errors.New("parallel result differs from sequential result")

type Runner struct {
	cfg  config.Config
	exec *parallel.Executor
}

// NewRunner binds a configuration to an executor. The executor is owned by
// the caller and must outlive the runner.
func NewRunner(cfg config.Config, exec *parallel.Executor) *Runner {
	return &Runner{cfg: cfg, exec: exec}
}

// Run executes both pipelines. A pipeline that fails is left out of the
// report and its error is returned alongside the pipelines that succeeded.
func (r *Runner) Run() (*stats.Report, error) {
	report := &stats.Report{
		Timestamp: time.Now(),
		Workers:   r.exec.NumWorkers(),
		TileSize:  r.cfg.TileSize,
		Radius:    r.cfg.Radius,
		Sigma:     r.cfg.Sigma,
	}

	var errs []error
	for _, pipeline := range []func() (*stats.PipelineResult, error){r.RunBlur, r.RunDiff} {
		result, err := pipeline()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		report.Pipelines = append(report.Pipelines, *result)
	}

	return report, errors.Join(errs...)
}

// RunBlur builds the kernel and blurs the greyscale input, first on the
// calling goroutine and then on the executor.
func (r *Runner) RunBlur() (*stats.PipelineResult, error) {
	in, err := imageio.LoadGray(r.cfg.BlurInput)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", BlurPipeline, err)
	}
	log.Printf("%s: loaded %s (%dx%d)", BlurPipeline, r.cfg.BlurInput, in.Width, in.Height)

	seqOut := raster.NewGray32(in.Width, in.Height)
	t0 := time.Now()
	k, err := kernel.Build(r.cfg.Radius, r.cfg.Sigma)
	if err == nil {
		err = stencil.Convolve(in, k, seqOut)
	}
	seqTime := time.Since(t0)
	if err != nil {
		return nil, fmt.Errorf("%s: sequential run failed: %w", BlurPipeline, err)
	}

	parOut := raster.NewGray32(in.Width, in.Height)
	t1 := time.Now()
	k, err = kernel.BuildParallel(r.exec, r.cfg.Radius, r.cfg.Sigma)
	if err == nil {
		err = stencil.ConvolveParallel(r.exec, in, k, parOut, r.cfg.TileSize)
	}
	parTime := time.Since(t1)
	if err != nil {
		return nil, fmt.Errorf("%s: parallel run failed: %w", BlurPipeline, err)
	}

	if err := compareGray(seqOut, parOut, blurTolerance); err != nil {
		return nil, fmt.Errorf("%s: %w", BlurPipeline, err)
	}

	if err := imageio.SaveGray(r.cfg.BlurOutput, parOut); err != nil {
		return nil, fmt.Errorf("%s: %w", BlurPipeline, err)
	}

	return &stats.PipelineResult{
		Name:       BlurPipeline,
		InputPaths: []string{r.cfg.BlurInput},
		OutputPath: r.cfg.BlurOutput,
		Width:      in.Width,
		Height:     in.Height,
		Sequential: seqTime,
		Parallel:   parTime,
	}, nil
}

// RunDiff compares the two RGB inputs sequentially and then on the executor.
func (r *Runner) RunDiff() (*stats.PipelineResult, error) {
	var a, b *raster.RGB

	var g errgroup.Group
	g.Go(func() (err error) {
		a, err = imageio.LoadRGB(r.cfg.DiffInputA)
		return err
	})
	g.Go(func() (err error) {
		b, err = imageio.LoadRGB(r.cfg.DiffInputB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", DiffPipeline, err)
	}

	if !a.SameSize(b) {
		return nil, fmt.Errorf("%s: %s is %dx%d but %s is %dx%d: %w", DiffPipeline,
			r.cfg.DiffInputA, a.Width, a.Height, r.cfg.DiffInputB, b.Width, b.Height,
			pixeldiff.ErrDimensionMismatch)
	}
	log.Printf("%s: loaded %s and %s (%dx%d)", DiffPipeline, r.cfg.DiffInputA, r.cfg.DiffInputB, a.Width, a.Height)

	seqOut := raster.NewRGB(a.Width, a.Height)
	t0 := time.Now()
	seq, err := pixeldiff.Diff(a, b, seqOut)
	seqTime := time.Since(t0)
	if err != nil {
		return nil, fmt.Errorf("%s: sequential run failed: %w", DiffPipeline, err)
	}

	parOut := raster.NewRGB(a.Width, a.Height)
	t1 := time.Now()
	par, err := pixeldiff.DiffGrid(r.exec, a, b, parOut, r.cfg.TileSize)
	parTime := time.Since(t1)
	if err != nil {
		return nil, fmt.Errorf("%s: parallel run failed: %w", DiffPipeline, err)
	}

	if seq != par {
		return nil, fmt.Errorf("%s: %w: %d vs %d differing pixels", DiffPipeline, ErrVariantMismatch, seq.Differing, par.Differing)
	}
	if err := compareRGB(seqOut, parOut); err != nil {
		return nil, fmt.Errorf("%s: %w", DiffPipeline, err)
	}

	if err := imageio.SaveRGB(r.cfg.DiffOutput, parOut); err != nil {
		return nil, fmt.Errorf("%s: %w", DiffPipeline, err)
	}

	count, pct := par.Differing, par.Percent()
	return &stats.PipelineResult{
		Name:            DiffPipeline,
		InputPaths:      []string{r.cfg.DiffInputA, r.cfg.DiffInputB},
		OutputPath:      r.cfg.DiffOutput,
		Width:           a.Width,
		Height:          a.Height,
		Sequential:      seqTime,
		Parallel:        parTime,
		DifferingPixels: &count,
		DifferingPct:    &pct,
	}, nil
}

func compareGray(want, got *raster.Gray32, tolerance float64) error {
	for i := range want.Pix {
		w, g := float64(want.Pix[i]), float64(got.Pix[i])
		delta := math.Abs(w - g)
		if delta > tolerance*math.Max(math.Abs(w), math.Abs(g)) && delta > math.SmallestNonzeroFloat32 {
			return fmt.Errorf("%w: pixel (%d,%d) is %v sequentially but %v in parallel",
				ErrVariantMismatch, i/want.Width, i%want.Width, w, g)
		}
	}
	return nil
}

func compareRGB(want, got *raster.RGB) error {
	for i := range want.Pix {
		if want.Pix[i] != got.Pix[i] {
			p := i / raster.RGBChannels
			return fmt.Errorf("%w: pixel (%d,%d) mask differs", ErrVariantMismatch, p/want.Width, p%want.Width)
		}
	}
	return nil
}
