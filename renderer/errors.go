package renderer

import "errors"

var (
	ErrNoTracer         = errors.New("renderer: no tracer attached")
	ErrInvalidFrameSize = errors.New("renderer: frame width and height must be positive")
	ErrInvalidTileSize  = errors.New("renderer: tile size must be positive")
	ErrInvalidWorkers   = errors.New("renderer: worker count cannot be negative")
	ErrConflictingCull  = errors.New("renderer: backface and frontface culling cannot both be enabled")
	ErrInvalidExposure  = errors.New("renderer: exposure and gamma must be positive")
	ErrInterrupted      = errors.New("renderer: interrupted while rendering")
)
