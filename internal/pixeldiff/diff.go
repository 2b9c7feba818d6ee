// Package pixeldiff compares two RGB images pixel by pixel, producing a
// black/white mask of the differing pixels and a count of them.
package pixeldiff

import (
	"errors"
	"fmt"

	"github.com/rm-hull/pixelbench/internal/parallel"
	"github.com/rm-hull/pixelbench/internal/raster"
)

var (
	ErrDimensionMismatch = errors.New("image dimensions differ")
	ErrAliasedBuffers    = errors.New("output shares a pixel buffer with an input")
)

// Result is the outcome of one comparison.
type Result struct {
	Differing int
	Total     int
}

// Percent is the share of differing pixels, 0 for an empty image.
func (r Result) Percent() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Differing) / float64(r.Total) * 100
}

func check(a, b, out *raster.RGB) error {
	for name, img := range map[string]*raster.RGB{"first": a, "second": b, "output": out} {
		if err := img.Validate(); err != nil {
			return fmt.Errorf("%s image: %w", name, err)
		}
	}
	if !a.SameSize(b) {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, a.Width, a.Height, b.Width, b.Height)
	}
	if !a.SameSize(out) {
		return fmt.Errorf("%w: output is %dx%d, inputs are %dx%d", ErrDimensionMismatch, out.Width, out.Height, a.Width, a.Height)
	}
	if len(out.Pix) > 0 && (&out.Pix[0] == &a.Pix[0] || &out.Pix[0] == &b.Pix[0]) {
		return ErrAliasedBuffers
	}
	return nil
}

// Diff compares a and b on the calling goroutine.
func Diff(a, b, out *raster.RGB) (Result, error) {
	if err := check(a, b, out); err != nil {
		return Result{}, err
	}

	bounds := a.Bounds()
	return Result{
		Differing: diffTile(a, b, out.Region(bounds)),
		Total:     bounds.Area(),
	}, nil
}

// DiffParallel compares a and b over the given tiles, which must cover the
// image exactly once. Each tile writes its part of the mask through its own
// region and reports a local count; the counts are summed after all tiles
// have finished.
func DiffParallel(exec *parallel.Executor, a, b, out *raster.RGB, tiles []parallel.Tile) (Result, error) {
	if err := check(a, b, out); err != nil {
		return Result{}, err
	}

	bounds := a.Bounds()
	if err := parallel.Verify(bounds, tiles); err != nil {
		return Result{}, fmt.Errorf("invalid tiling: %w", err)
	}

	count := parallel.MapReduce(exec, tiles, 0, func(t parallel.Tile) int {
		return diffTile(a, b, out.Region(t))
	}, func(x, y int) int { return x + y })

	return Result{Differing: count, Total: bounds.Area()}, nil
}

// DiffGrid is DiffParallel over square tiles of at most tileSize pixels.
func DiffGrid(exec *parallel.Executor, a, b, out *raster.RGB, tileSize int) (Result, error) {
	if err := check(a, b, out); err != nil {
		return Result{}, err
	}
	return DiffParallel(exec, a, b, out, parallel.Grid(a.Bounds(), tileSize, tileSize))
}

func diffTile(a, b *raster.RGB, dst raster.RGBRegion) int {
	t := dst.Tile()
	count := 0

	for y := t.Row0; y < t.Row1; y++ {
		for x := t.Col0; x < t.Col1; x++ {
			r1, g1, b1 := a.At(y, x)
			r2, g2, b2 := b.At(y, x)

			// byte subtraction wraps, so it is zero only for equal channels
			if r1-r2 != 0 || g1-g2 != 0 || b1-b2 != 0 {
				dst.Set(y, x, 255, 255, 255)
				count++
			} else {
				dst.Set(y, x, 0, 0, 0)
			}
		}
	}
	return count
}
