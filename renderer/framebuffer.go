package renderer

import "github.com/blockspacer/kdtracer/types"

// A frame buffer storing linear, unclamped RGB values. Concurrent writers
// must target distinct pixels.
type FrameBuffer struct {
	Width  int
	Height int
	Pixels []types.Vec3
}

func NewFrameBuffer(width, height int) *FrameBuffer {
	return &FrameBuffer{
		Width:  width,
		Height: height,
		Pixels: make([]types.Vec3, width*height),
	}
}

// Set the color of pixel (x, y). Out of bounds writes are ignored.
func (fb *FrameBuffer) SetPixelColor(x, y int, color types.Vec3) {
	if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = color
}

// Get the color of pixel (x, y).
func (fb *FrameBuffer) At(x, y int) types.Vec3 {
	return fb.Pixels[y*fb.Width+x]
}

// Reset all pixels to black.
func (fb *FrameBuffer) Clear() {
	for i := range fb.Pixels {
		fb.Pixels[i] = types.Vec3{}
	}
}
