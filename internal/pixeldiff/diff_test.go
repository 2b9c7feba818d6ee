package pixeldiff

import (
	"math/rand/v2"
	"testing"

	"github.com/rm-hull/pixelbench/internal/parallel"
	"github.com/rm-hull/pixelbench/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomRGB(width, height int, rng *rand.Rand) *raster.RGB {
	img := raster.NewRGB(width, height)
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.IntN(256))
	}
	return img
}

func clone(img *raster.RGB) *raster.RGB {
	c := raster.NewRGB(img.Width, img.Height)
	copy(c.Pix, img.Pix)
	return c
}

// perturb changes roughly one pixel in five of a copy of img.
func perturb(img *raster.RGB, rng *rand.Rand) *raster.RGB {
	c := clone(img)
	for y := range c.Height {
		for x := range c.Width {
			if rng.IntN(5) == 0 {
				r, g, b := c.At(y, x)
				switch rng.IntN(3) {
				case 0:
					r++
				case 1:
					g--
				default:
					b ^= 0x80
				}
				c.Set(y, x, r, g, b)
			}
		}
	}
	return c
}

func isUniform(img *raster.RGB, v uint8) bool {
	for _, p := range img.Pix {
		if p != v {
			return false
		}
	}
	return true
}

func TestDiffIdenticalImages(t *testing.T) {
	exec := parallel.New(4)
	defer exec.Close()

	rng := rand.New(rand.NewPCG(1, 2))
	a := randomRGB(120, 80, rng)
	b := clone(a)

	out := raster.NewRGB(120, 80)
	res, err := Diff(a, b, out)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Differing)
	assert.Equal(t, 9600, res.Total)
	assert.True(t, isUniform(out, 0))

	// pre-fill to prove every pixel is written
	par := raster.NewRGB(120, 80)
	for i := range par.Pix {
		par.Pix[i] = 17
	}
	res, err = DiffGrid(exec, a, b, par, 32)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Differing)
	assert.True(t, isUniform(par, 0))
}

func TestDiffSingleRedChannel(t *testing.T) {
	exec := parallel.New(4)
	defer exec.Close()

	a := raster.NewRGB(50, 40)
	b := clone(a)
	b.Set(13, 27, 1, 0, 0)

	for name, run := range map[string]func(out *raster.RGB) (Result, error){
		"sequential": func(out *raster.RGB) (Result, error) { return Diff(a, b, out) },
		"parallel":   func(out *raster.RGB) (Result, error) { return DiffGrid(exec, a, b, out, 8) },
	} {
		t.Run(name, func(t *testing.T) {
			out := raster.NewRGB(50, 40)
			res, err := run(out)
			require.NoError(t, err)
			assert.Equal(t, 1, res.Differing)
			assert.InDelta(t, 0.05, res.Percent(), 1e-12)

			for y := range 40 {
				for x := range 50 {
					r, g, bl := out.At(y, x)
					if y == 13 && x == 27 {
						assert.Equal(t, []uint8{255, 255, 255}, []uint8{r, g, bl})
					} else {
						require.Equal(t, []uint8{0, 0, 0}, []uint8{r, g, bl}, "pixel (%d,%d)", y, x)
					}
				}
			}
		})
	}
}

func TestDiffParallelMatchesSequential(t *testing.T) {
	exec := parallel.New(0)
	defer exec.Close()

	rng := rand.New(rand.NewPCG(99, 100))
	a := randomRGB(211, 157, rng)
	b := perturb(a, rng)

	seqOut := raster.NewRGB(211, 157)
	seq, err := Diff(a, b, seqOut)
	require.NoError(t, err)
	require.Positive(t, seq.Differing)

	parOut := raster.NewRGB(211, 157)
	par, err := DiffGrid(exec, a, b, parOut, 64)
	require.NoError(t, err)

	assert.Equal(t, seq, par)
	assert.Equal(t, seqOut.Pix, parOut.Pix)
}

func TestDiffCountInvariantUnderTiling(t *testing.T) {
	exec := parallel.New(6)
	defer exec.Close()

	rng := rand.New(rand.NewPCG(5, 6))
	a := randomRGB(128, 100, rng)
	b := perturb(a, rng)
	bounds := a.Bounds()

	reference, err := Diff(a, b, raster.NewRGB(128, 100))
	require.NoError(t, err)

	irregular := []parallel.Tile{
		{Row0: 0, Row1: 100, Col0: 0, Col1: 3},
		{Row0: 0, Row1: 1, Col0: 3, Col1: 128},
		{Row0: 1, Row1: 57, Col0: 3, Col1: 90},
		{Row0: 57, Row1: 100, Col0: 3, Col1: 41},
		{Row0: 57, Row1: 100, Col0: 41, Col1: 90},
		{Row0: 1, Row1: 100, Col0: 90, Col1: 128},
	}

	tilings := map[string][]parallel.Tile{
		"1x1":       {bounds},
		"2x2":       parallel.Split(bounds, 2, 2),
		"4x4":       parallel.Split(bounds, 4, 4),
		"rows":      parallel.Split(bounds, 100, 1),
		"grid 9x13": parallel.Grid(bounds, 9, 13),
		"irregular": irregular,
	}

	for name, tiles := range tilings {
		t.Run(name, func(t *testing.T) {
			out := raster.NewRGB(128, 100)
			res, err := DiffParallel(exec, a, b, out, tiles)
			require.NoError(t, err)
			assert.Equal(t, reference, res)
		})
	}
}

func TestDiffIsIdempotent(t *testing.T) {
	exec := parallel.New(4)
	defer exec.Close()

	rng := rand.New(rand.NewPCG(11, 12))
	a := randomRGB(100, 100, rng)
	b := perturb(a, rng)

	out1 := raster.NewRGB(100, 100)
	out2 := raster.NewRGB(100, 100)
	res1, err := DiffGrid(exec, a, b, out1, 16)
	require.NoError(t, err)
	res2, err := DiffGrid(exec, a, b, out2, 16)
	require.NoError(t, err)

	assert.Equal(t, res1, res2)
	assert.Equal(t, out1.Pix, out2.Pix)
}

func TestDiffRejectsBadTiling(t *testing.T) {
	exec := parallel.New(2)
	defer exec.Close()

	a := raster.NewRGB(10, 10)
	b := raster.NewRGB(10, 10)
	out := raster.NewRGB(10, 10)

	overlapping := []parallel.Tile{
		{Row0: 0, Row1: 6, Col0: 0, Col1: 10},
		{Row0: 5, Row1: 10, Col0: 0, Col1: 10},
	}
	_, err := DiffParallel(exec, a, b, out, overlapping)
	assert.ErrorIs(t, err, parallel.ErrTileOverlap)

	_, err = DiffParallel(exec, a, b, out, parallel.Split(parallel.Tile{Row1: 10, Col1: 9}, 2, 2))
	assert.ErrorIs(t, err, parallel.ErrTileGap)
}

func TestDiffDimensionMismatch(t *testing.T) {
	exec := parallel.New(2)
	defer exec.Close()

	a := raster.NewRGB(10, 10)

	_, err := Diff(a, raster.NewRGB(10, 11), raster.NewRGB(10, 10))
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = DiffGrid(exec, a, raster.NewRGB(11, 10), raster.NewRGB(10, 10), 4)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = Diff(a, raster.NewRGB(10, 10), raster.NewRGB(3, 3))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestDiffRejectsAliasedOutput(t *testing.T) {
	exec := parallel.New(2)
	defer exec.Close()

	a := raster.NewRGB(6, 6)
	b := raster.NewRGB(6, 6)
	b.Set(1, 1, 9, 9, 9)

	_, err := Diff(a, b, a)
	assert.ErrorIs(t, err, ErrAliasedBuffers)

	_, err = DiffGrid(exec, a, b, b, 2)
	assert.ErrorIs(t, err, ErrAliasedBuffers)

	// inputs may share a buffer with each other
	res, err := Diff(a, a, raster.NewRGB(6, 6))
	require.NoError(t, err)
	assert.Zero(t, res.Differing)
}

func TestResultPercent(t *testing.T) {
	assert.Equal(t, 0.0, Result{}.Percent())
	assert.Equal(t, 25.0, Result{Differing: 1, Total: 4}.Percent())
}
