package renderer

import "time"

type WorkerStat struct {
	// The worker id.
	Id string

	// Number of tiles and pixels traced by this worker and the percentage
	// of the frame area they represent.
	Tiles        int
	Pixels       int
	FramePercent float32

	// Primary ray hits and shadow rays cast by this worker.
	Hits       int
	ShadowRays int

	// Time spent tracing tiles.
	RenderTime time.Duration
}

type FrameStats struct {
	// Individual worker stats.
	Workers []WorkerStat

	// Frame totals.
	Tiles      int
	Pixels     int
	Hits       int
	ShadowRays int

	// Total render time for entire frame.
	RenderTime time.Duration
}

// Get the number of rays traced for the frame (primary and shadow rays).
func (s FrameStats) Rays() int {
	return s.Pixels + s.ShadowRays
}
