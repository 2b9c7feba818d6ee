package stats

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// PipelineResult holds the timings of one pipeline's sequential and parallel
// runs, plus the diff statistics for the RGB pipeline.
type PipelineResult struct {
	Name       string        `json:"name"`
	InputPaths []string      `json:"input_paths"`
	OutputPath string        `json:"output_path"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Sequential time.Duration `json:"sequential_ns"`
	Parallel   time.Duration `json:"parallel_ns"`

	// Only set for the diff pipeline
	DifferingPixels *int     `json:"differing_pixels,omitempty"`
	DifferingPct    *float64 `json:"differing_pct,omitempty"`
}

// Speedup is sequential time over parallel time, 0 if either is missing.
func (p PipelineResult) Speedup() float64 {
	if p.Sequential <= 0 || p.Parallel <= 0 {
		return 0
	}
	return p.Sequential.Seconds() / p.Parallel.Seconds()
}

type Report struct {
	Timestamp time.Time        `json:"timestamp"`
	Workers   int              `json:"workers"`
	TileSize  int              `json:"tile_size"`
	Radius    int              `json:"radius"`
	Sigma     float64          `json:"sigma"`
	Pipelines []PipelineResult `json:"pipelines"`
}

// Print writes the human-readable summary shown on stdout.
func (r *Report) Print(w io.Writer) {
	for _, p := range r.Pipelines {
		fmt.Fprintf(w, "=== %s (%dx%d) ===\n", p.Name, p.Width, p.Height)
		fmt.Fprintf(w, "Sequential time taken = %.6f seconds\n", p.Sequential.Seconds())
		fmt.Fprintf(w, "Parallel time taken = %.6f seconds\n", p.Parallel.Seconds())
		if s := p.Speedup(); s > 0 {
			fmt.Fprintf(w, "Speedup = %.2fx\n", s)
		}
		if p.DifferingPixels != nil {
			fmt.Fprintf(w, "Differing pixels = %d\n", *p.DifferingPixels)
		}
		if p.DifferingPct != nil {
			fmt.Fprintf(w, "Percentage of differing pixels = %.4f%%\n", *p.DifferingPct)
		}
		fmt.Fprintln(w)
	}
}

// WriteResults writes the report into a timestamped file under dir and
// returns the file's path.
func WriteResults(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	timestamp := r.Timestamp.Format("2006-01-02_15-04-05")
	resultsFile := filepath.Join(dir, fmt.Sprintf("pixelbench_%s.txt", timestamp))

	file, err := os.Create(resultsFile)
	if err != nil {
		return "", fmt.Errorf("failed to create results file: %w", err)
	}

	fmt.Fprintf(file, "=== Sequential vs Parallel Pixel Kernels ===\n")
	fmt.Fprintf(file, "Timestamp: %s\n", r.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "Workers: %d\n", r.Workers)
	fmt.Fprintf(file, "Tile size: %d\n", r.TileSize)
	fmt.Fprintf(file, "Kernel radius: %d (size %d)\n", r.Radius, 2*r.Radius+1)
	fmt.Fprintf(file, "Sigma: %g\n\n", r.Sigma)

	r.Print(file)

	for _, p := range r.Pipelines {
		fmt.Fprintf(file, "%s input files:\n", p.Name)
		for i, path := range p.InputPaths {
			fmt.Fprintf(file, "  %d. %s\n", i+1, path)
		}
		fmt.Fprintf(file, "%s output file: %s\n\n", p.Name, p.OutputPath)
	}

	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close results file: %w", err)
	}
	return resultsFile, nil
}
