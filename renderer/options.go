package renderer

import "github.com/blockspacer/kdtracer/tracer"

type Options struct {
	// Frame dims.
	FrameW int
	FrameH int

	// Tile edge length in pixels.
	TileSize int

	// Number of tracing goroutines; 0 selects one per CPU.
	Workers int

	// Tone mapping applied when the frame is converted to an image.
	Exposure float64
	Gamma    float64

	// Shading.
	Shadows          bool
	ShadowBias       float64
	BackfaceCulling  bool
	FrontfaceCulling bool

	// Build a KD tree before rendering; otherwise every ray is tested
	// against all triangles.
	UseKDTree bool
}

// Get the default render options.
func DefaultOptions() Options {
	return Options{
		FrameW:     512,
		FrameH:     512,
		TileSize:   tracer.DefaultTileSize,
		Exposure:   1.0,
		Gamma:      2.2,
		Shadows:    true,
		ShadowBias: tracer.DefaultShadowBias,
		UseKDTree:  true,
	}
}

// Check the options for consistency.
func (opts Options) Validate() error {
	switch {
	case opts.FrameW <= 0 || opts.FrameH <= 0:
		return ErrInvalidFrameSize
	case opts.TileSize <= 0:
		return ErrInvalidTileSize
	case opts.Workers < 0:
		return ErrInvalidWorkers
	case opts.BackfaceCulling && opts.FrontfaceCulling:
		return ErrConflictingCull
	case opts.Exposure <= 0 || opts.Gamma <= 0:
		return ErrInvalidExposure
	}
	return nil
}
