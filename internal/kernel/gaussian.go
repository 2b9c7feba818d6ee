package kernel

import (
	"errors"
	"fmt"
	"math"

	"github.com/rm-hull/pixelbench/internal/parallel"
)

var ErrInvalidParameter = errors.New("invalid kernel parameter")

// Kernel is a square, normalized convolution kernel of side 2*radius+1.
// It is never modified once built, so any number of workers may read it.
type Kernel struct {
	radius  int
	size    int
	weights []float64
}

func (k *Kernel) Radius() int { return k.radius }
func (k *Kernel) Size() int   { return k.size }

// At returns the weight at offset (y, x), both in [-radius, radius].
func (k *Kernel) At(y, x int) float64 {
	return k.weights[(y+k.radius)*k.size+x+k.radius]
}

// Row returns the weights of kernel row i (0-based). The slice must not be
// modified.
func (k *Kernel) Row(i int) []float64 {
	return k.weights[i*k.size : (i+1)*k.size]
}

func (k *Kernel) Sum() float64 {
	sum := 0.0
	for _, w := range k.weights {
		sum += w
	}
	return sum
}

func validate(radius int, sigma float64) error {
	if radius < 0 {
		return fmt.Errorf("%w: radius %d must not be negative", ErrInvalidParameter, radius)
	}
	if !(sigma > 0) || math.IsInf(sigma, 1) {
		return fmt.Errorf("%w: sigma %v must be a positive number", ErrInvalidParameter, sigma)
	}
	return nil
}

func newKernel(radius int) *Kernel {
	size := 2*radius + 1
	return &Kernel{
		radius:  radius,
		size:    size,
		weights: make([]float64, size*size),
	}
}

func gaussian(y, x int, sigma float64) float64 {
	s2 := 2 * sigma * sigma
	return math.Exp(-float64(y*y+x*x)/s2) / (math.Pi * s2)
}

// Build creates a Gaussian kernel sequentially.
func Build(radius int, sigma float64) (*Kernel, error) {
	if err := validate(radius, sigma); err != nil {
		return nil, err
	}

	k := newKernel(radius)
	sum := 0.0
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			w := gaussian(y, x, sigma)
			k.weights[(y+radius)*k.size+x+radius] = w
			sum += w
		}
	}

	for i := range k.weights {
		k.weights[i] /= sum
	}
	return k, nil
}

// BuildParallel creates the same kernel as Build on the executor, in two
// phases. The first fills the raw weights and reduces per-tile partial sums;
// only after every tile has reported does the second phase divide by the
// total.
func BuildParallel(exec *parallel.Executor, radius int, sigma float64) (*Kernel, error) {
	if err := validate(radius, sigma); err != nil {
		return nil, err
	}

	k := newKernel(radius)
	tiles := parallel.Split(parallel.Tile{Row0: 0, Row1: k.size, Col0: 0, Col1: k.size}, exec.NumWorkers(), 1)

	sum := parallel.MapReduce(exec, tiles, 0.0, func(t parallel.Tile) float64 {
		partial := 0.0
		for i := t.Row0; i < t.Row1; i++ {
			for j := t.Col0; j < t.Col1; j++ {
				w := gaussian(i-radius, j-radius, sigma)
				k.weights[i*k.size+j] = w
				partial += w
			}
		}
		return partial
	}, func(a, b float64) float64 { return a + b })

	exec.ForEach(tiles, func(_ int, t parallel.Tile) {
		for i := t.Row0; i < t.Row1; i++ {
			row := k.weights[i*k.size : (i+1)*k.size]
			for j := t.Col0; j < t.Col1; j++ {
				row[j] /= sum
			}
		}
	})

	return k, nil
}

// Identity returns the 1x1 kernel with a single weight of 1.
func Identity() *Kernel {
	k := newKernel(0)
	k.weights[0] = 1
	return k
}
