package raster

import (
	"testing"

	"github.com/rm-hull/pixelbench/internal/parallel"
	"github.com/stretchr/testify/assert"
)

func TestRGBAccessors(t *testing.T) {
	img := NewRGB(4, 3)
	assert.NoError(t, img.Validate())
	assert.Len(t, img.Pix, 4*3*RGBChannels)

	img.Set(2, 3, 10, 20, 30)
	r, g, b := img.At(2, 3)
	assert.Equal(t, []uint8{10, 20, 30}, []uint8{r, g, b})
	assert.Equal(t, []uint8{10, 20, 30}, img.Pix[len(img.Pix)-3:])
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, (&RGB{Width: 2, Height: 2, Pix: make([]uint8, 11)}).Validate(), ErrInvalidBuffer)
	assert.ErrorIs(t, (&Gray32{Width: 2, Height: 2, Pix: make([]float32, 3)}).Validate(), ErrInvalidBuffer)

	var nilRGB *RGB
	assert.ErrorIs(t, nilRGB.Validate(), ErrInvalidBuffer)
	var nilGray *Gray32
	assert.ErrorIs(t, nilGray.Validate(), ErrInvalidBuffer)

	assert.NoError(t, NewGray32(0, 0).Validate())
}

func TestRegionWritesInsideTile(t *testing.T) {
	img := NewRGB(8, 8)
	region := img.Region(parallel.Tile{Row0: 2, Row1: 4, Col0: 2, Col1: 4})

	region.Set(3, 3, 255, 255, 255)
	r, g, b := img.At(3, 3)
	assert.Equal(t, []uint8{255, 255, 255}, []uint8{r, g, b})

	assert.Panics(t, func() { region.Set(4, 3, 1, 1, 1) })
	assert.Panics(t, func() { region.Set(1, 2, 1, 1, 1) })
}

func TestGray32Region(t *testing.T) {
	img := NewGray32(5, 5)
	region := img.Region(parallel.Tile{Row0: 0, Row1: 1, Col0: 0, Col1: 5})

	region.Set(0, 4, 0.5)
	assert.Equal(t, float32(0.5), img.At(0, 4))
	assert.Panics(t, func() { region.Set(1, 0, 1) })
}
