package writer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/blockspacer/kdtracer/renderer"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// The Encoder interface is implemented by all frame image encoders.
type Encoder interface {
	Encode(w io.Writer, img image.Image) error
}

type encoderFunc func(w io.Writer, img image.Image) error

func (f encoderFunc) Encode(w io.Writer, img image.Image) error {
	return f(w, img)
}

// Select an encoder based on the file extension.
func EncoderFor(filename string) (Encoder, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return encoderFunc(png.Encode), nil
	case ".bmp":
		return encoderFunc(bmp.Encode), nil
	case ".tif", ".tiff":
		return encoderFunc(func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}), nil
	}
	return nil, fmt.Errorf("writer: unsupported image format %q", filepath.Ext(filename))
}

// Write the frame to filename. The image format is selected based on the
// file extension.
func WriteFrame(fb *renderer.FrameBuffer, filename string, exposure, gamma float64) error {
	enc, err := EncoderFor(filename)
	if err != nil {
		return err
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("writer: %w", err)
	}

	if err = enc.Encode(f, ToImage(fb, exposure, gamma)); err != nil {
		f.Close()
		return fmt.Errorf("writer: could not encode %s: %w", filename, err)
	}
	return f.Close()
}

// Convert the linear frame buffer contents to an 8-bit image. Colors are
// scaled by exposure, clamped to [0, 1] and gamma corrected.
func ToImage(fb *renderer.FrameBuffer, exposure, gamma float64) *image.RGBA {
	im := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	invGamma := 1.0 / gamma

	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			c := fb.At(x, y)
			im.SetRGBA(x, y, color.RGBA{
				R: toneMap(c[0], exposure, invGamma),
				G: toneMap(c[1], exposure, invGamma),
				B: toneMap(c[2], exposure, invGamma),
				A: 255,
			})
		}
	}
	return im
}

func toneMap(v, exposure, invGamma float64) uint8 {
	v *= exposure
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(math.Pow(v, invGamma) * 255))
}
