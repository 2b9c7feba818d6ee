// Package stencil applies a square convolution kernel to the interior of a
// greyscale image.
//
// Only pixels at least radius away from every edge are written. The border
// keeps whatever the output buffer held before the call (zero for a fresh
// buffer): edges are never wrapped, clamped or reflected.
package stencil

import (
	"errors"
	"fmt"

	"github.com/rm-hull/pixelbench/internal/kernel"
	"github.com/rm-hull/pixelbench/internal/parallel"
	"github.com/rm-hull/pixelbench/internal/raster"
)

var (
	ErrDimensionMismatch = errors.New("input and output dimensions differ")
	ErrAliasedBuffers    = errors.New("input and output share a pixel buffer")
)

// Interior returns the region of an image of the given size that the kernel
// can cover without reading outside the image. It is empty when the image is
// smaller than the kernel.
func Interior(width, height, radius int) parallel.Tile {
	t := parallel.Tile{Row0: radius, Row1: height - radius, Col0: radius, Col1: width - radius}
	if t.Empty() {
		return parallel.Tile{}
	}
	return t
}

func check(in *raster.Gray32, k *kernel.Kernel, out *raster.Gray32) error {
	if k == nil {
		return errors.New("nil kernel")
	}
	if err := in.Validate(); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if err := out.Validate(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if in.Width != out.Width || in.Height != out.Height {
		return fmt.Errorf("%w: input %dx%d, output %dx%d", ErrDimensionMismatch, in.Width, in.Height, out.Width, out.Height)
	}
	if len(in.Pix) > 0 && &in.Pix[0] == &out.Pix[0] {
		return ErrAliasedBuffers
	}
	return nil
}

// Convolve applies k to every interior pixel of in, writing into out.
func Convolve(in *raster.Gray32, k *kernel.Kernel, out *raster.Gray32) error {
	if err := check(in, k, out); err != nil {
		return err
	}

	interior := Interior(in.Width, in.Height, k.Radius())
	if !interior.Empty() {
		convolveTile(in, k, out.Region(interior))
	}
	return nil
}

// ConvolveParallel is Convolve with the interior split into tiles of at most
// tileSize x tileSize pixels. Each tile reads only the input and the kernel
// and writes only its own output pixels, so tiles need no coordination.
func ConvolveParallel(exec *parallel.Executor, in *raster.Gray32, k *kernel.Kernel, out *raster.Gray32, tileSize int) error {
	if err := check(in, k, out); err != nil {
		return err
	}

	tiles := parallel.Grid(Interior(in.Width, in.Height, k.Radius()), tileSize, tileSize)
	exec.ForEach(tiles, func(_ int, t parallel.Tile) {
		convolveTile(in, k, out.Region(t))
	})
	return nil
}

func convolveTile(in *raster.Gray32, k *kernel.Kernel, dst raster.Gray32Region) {
	r := k.Radius()
	w := in.Width
	t := dst.Tile()

	for i := t.Row0; i < t.Row1; i++ {
		for j := t.Col0; j < t.Col1; j++ {
			sum := 0.0
			for x := -r; x <= r; x++ {
				src := in.Pix[(i+x)*w+j-r : (i+x)*w+j+r+1]
				weights := k.Row(x + r)
				for y, v := range src {
					sum += float64(v) * weights[y]
				}
			}
			dst.Set(i, j, float32(sum))
		}
	}
}
