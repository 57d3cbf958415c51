package geometry

import (
	"math"

	"github.com/blockspacer/kdtracer/types"
)

// Controls how an intersection query treats hits.
type IntersectionMode uint8

const (
	// Find the hit closest to the ray origin.
	Nearest IntersectionMode = iota

	// Any hit will do; queries may stop at the first one found.
	Any
)

// The value used for Ray.StartTriangle and Ray.BestTriangle when no
// triangle is referenced.
const NoTriangle = -1

// Ray holds the mutable state of a single intersection query. A ray is
// passed by pointer through the whole query so every primitive test sees
// (and tightens) the best hit found so far.
//
// Rays must be created with NewRay. The zero value is not usable: it starts
// at triangle 0 and has a best distance of 0, so every hit is rejected.
type Ray struct {
	Origin types.Vec3

	// Direction does not need to be normalized.
	Direction types.Vec3

	// Triangle the ray originates from; it is never reported as a hit.
	StartTriangle int

	// Best hit bookkeeping.
	BestDistanceSq    float64
	BestTriangle      int
	IntersectionPoint types.Vec3

	Mode IntersectionMode

	// Hits closer than this distance to the origin are rejected.
	ZeroDistanceThreshold float64

	// Culling flags; setting both is a caller error.
	BackfaceCulling  bool
	FrontfaceCulling bool
}

// Create a nearest-hit ray with no best hit recorded.
func NewRay(origin, direction types.Vec3) Ray {
	return Ray{
		Origin:         origin,
		Direction:      direction,
		StartTriangle:  NoTriangle,
		BestDistanceSq: math.MaxFloat64,
		BestTriangle:   NoTriangle,
		Mode:           Nearest,
	}
}

// Returns true if a best hit has been recorded.
func (r *Ray) HasHit() bool {
	return r.BestTriangle != NoTriangle
}

// Forget the recorded best hit so the ray can be reused for another query.
func (r *Ray) Reset() {
	r.BestDistanceSq = math.MaxFloat64
	r.BestTriangle = NoTriangle
	r.IntersectionPoint = types.Vec3{}
}

// Point at parameter t along the ray.
func (r *Ray) At(t float64) types.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}
