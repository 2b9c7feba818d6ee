// Package raster holds the flat, row-major pixel buffers the kernels work on.
package raster

import (
	"errors"
	"fmt"

	"github.com/rm-hull/pixelbench/internal/parallel"
)

var ErrInvalidBuffer = errors.New("invalid image buffer")

// Gray32 is a single-channel float32 image.
type Gray32 struct {
	Width, Height int
	Pix           []float32
}

func NewGray32(width, height int) *Gray32 {
	return &Gray32{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height),
	}
}

func (g *Gray32) At(row, col int) float32 {
	return g.Pix[row*g.Width+col]
}

func (g *Gray32) Set(row, col int, v float32) {
	g.Pix[row*g.Width+col] = v
}

func (g *Gray32) Bounds() parallel.Tile {
	return parallel.Tile{Row0: 0, Row1: g.Height, Col0: 0, Col1: g.Width}
}

func (g *Gray32) Validate() error {
	if g == nil {
		return fmt.Errorf("%w: nil greyscale image", ErrInvalidBuffer)
	}
	if g.Width < 0 || g.Height < 0 || len(g.Pix) != g.Width*g.Height {
		return fmt.Errorf("%w: %dx%d greyscale image with %d values", ErrInvalidBuffer, g.Width, g.Height, len(g.Pix))
	}
	return nil
}

// RGBChannels is the number of bytes per RGB pixel.
const RGBChannels = 3

// RGB is an 8-bit three-channel image, stored R, G, B per pixel.
type RGB struct {
	Width, Height int
	Pix           []uint8
}

func NewRGB(width, height int) *RGB {
	return &RGB{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*RGBChannels),
	}
}

func (m *RGB) offset(row, col int) int {
	return (row*m.Width + col) * RGBChannels
}

func (m *RGB) At(row, col int) (r, g, b uint8) {
	i := m.offset(row, col)
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

func (m *RGB) Set(row, col int, r, g, b uint8) {
	i := m.offset(row, col)
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = r, g, b
}

func (m *RGB) Bounds() parallel.Tile {
	return parallel.Tile{Row0: 0, Row1: m.Height, Col0: 0, Col1: m.Width}
}

func (m *RGB) SameSize(other *RGB) bool {
	return m.Width == other.Width && m.Height == other.Height
}

func (m *RGB) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil RGB image", ErrInvalidBuffer)
	}
	if m.Width < 0 || m.Height < 0 || len(m.Pix) != m.Width*m.Height*RGBChannels {
		return fmt.Errorf("%w: %dx%d RGB image with %d bytes", ErrInvalidBuffer, m.Width, m.Height, len(m.Pix))
	}
	return nil
}

// Region grants write access to the pixels of m inside tile. Handing out one
// region per tile of an exact cover lets many workers write into m at once
// without locking, because no two regions share a pixel.
func (m *RGB) Region(tile parallel.Tile) RGBRegion {
	return RGBRegion{img: m, tile: tile}
}

// RGBRegion is a write capability over one tile of an RGB image.
type RGBRegion struct {
	img  *RGB
	tile parallel.Tile
}

func (r RGBRegion) Tile() parallel.Tile {
	return r.tile
}

// Set writes a pixel; it panics if (row, col) is outside the granted tile.
func (r RGBRegion) Set(row, col int, red, green, blue uint8) {
	if !r.tile.Contains(row, col) {
		panic(fmt.Sprintf("raster: write to (%d,%d) outside region %s", row, col, r.tile))
	}
	r.img.Set(row, col, red, green, blue)
}

// Gray32Region is the greyscale counterpart of RGBRegion.
type Gray32Region struct {
	img  *Gray32
	tile parallel.Tile
}

func (g *Gray32) Region(tile parallel.Tile) Gray32Region {
	return Gray32Region{img: g, tile: tile}
}

func (r Gray32Region) Tile() parallel.Tile {
	return r.tile
}

func (r Gray32Region) Set(row, col int, v float32) {
	if !r.tile.Contains(row, col) {
		panic(fmt.Sprintf("raster: write to (%d,%d) outside region %s", row, col, r.tile))
	}
	r.img.Set(row, col, v)
}
