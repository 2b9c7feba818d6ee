// Package imageio decodes image files into raster buffers and encodes them
// back. It knows nothing about the kernels; it only converts pixels.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/rm-hull/pixelbench/internal/raster"
	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load image %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save image %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

func open(path string) (image.Image, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return img, nil
}

// LoadGray decodes the image at path to greyscale floats in [0, 1].
func LoadGray(path string) (*raster.Gray32, error) {
	img, err := open(path)
	if err != nil {
		return nil, err
	}
	return FromImageGray(img), nil
}

// LoadRGB decodes the image at path to 8-bit RGB, dropping any alpha.
func LoadRGB(path string) (*raster.RGB, error) {
	img, err := open(path)
	if err != nil {
		return nil, err
	}
	return FromImageRGB(img), nil
}

func FromImageGray(img image.Image) *raster.Gray32 {
	bounds := img.Bounds()
	gray, ok := img.(*image.Gray)
	if !ok {
		gray = image.NewGray(bounds)
		draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	}

	out := raster.NewGray32(bounds.Dx(), bounds.Dy())
	for y := range out.Height {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+out.Width]
		for x, v := range row {
			out.Set(y, x, float32(v)/255)
		}
	}
	return out
}

func FromImageRGB(img image.Image) *raster.RGB {
	rgba := clone.AsShallowRGBA(img)
	bounds := rgba.Bounds()

	out := raster.NewRGB(bounds.Dx(), bounds.Dy())
	for y := range out.Height {
		for x := range out.Width {
			c := rgba.RGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
			out.Set(y, x, c.R, c.G, c.B)
		}
	}
	return out
}

// ToImageGray maps [0, 1] floats back to 8-bit grey, clamping out of range
// values.
func ToImageGray(g *raster.Gray32) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for y := range g.Height {
		for x := range g.Width {
			v := math.Round(float64(g.At(y, x)) * 255)
			img.SetGray(x, y, color.Gray{Y: uint8(max(0, min(255, v)))})
		}
	}
	return img
}

func ToImageRGB(m *raster.RGB) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := range m.Height {
		for x := range m.Width {
			r, g, b := m.At(y, x)
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}

func encoderFor(path string) (imgio.Encoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return imgio.PNGEncoder(), nil
	case ".jpg", ".jpeg":
		return imgio.JPEGEncoder(95), nil
	case ".bmp":
		return imgio.BMPEncoder(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func save(path string, img image.Image) error {
	encoder, err := encoderFor(path)
	if err != nil {
		return &SaveError{Path: path, Err: err}
	}
	if err := imgio.Save(path, img, encoder); err != nil {
		return &SaveError{Path: path, Err: err}
	}
	return nil
}

func SaveGray(path string, g *raster.Gray32) error {
	return save(path, ToImageGray(g))
}

func SaveRGB(path string, m *raster.RGB) error {
	return save(path, ToImageRGB(m))
}
