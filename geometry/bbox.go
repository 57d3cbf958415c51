package geometry

import (
	"math"

	"github.com/blockspacer/kdtracer/types"
)

// Box hits whose far slab bound lies closer than this distance (in ray
// parameter units) are treated as misses so that a ray leaving a surface does
// not keep re-entering the box it starts in.
const boxHitEpsilon = 1e-4

// An axis-aligned bounding box.
type BoundingBox struct {
	Min types.Vec3
	Max types.Vec3
}

// Create a bounding box enclosing a set of points. An empty point list yields
// an inverted box that any call to Extend will overwrite.
func NewBoundingBox(points ...types.Vec3) BoundingBox {
	bbox := BoundingBox{
		Min: types.Vec3{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64},
		Max: types.Vec3{-math.MaxFloat64, -math.MaxFloat64, -math.MaxFloat64},
	}
	bbox.Extend(points...)
	return bbox
}

// Grow the box so that it includes all points.
func (b *BoundingBox) Extend(points ...types.Vec3) {
	for _, p := range points {
		b.Min = types.MinVec3(b.Min, p)
		b.Max = types.MaxVec3(b.Max, p)
	}
}

// Returns true if Min <= Max on every axis.
func (b BoundingBox) IsValid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

// Box extent along each axis.
func (b BoundingBox) Size() types.Vec3 {
	return b.Max.Sub(b.Min)
}

func (b BoundingBox) Center() types.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Length of the box diagonal.
func (b BoundingBox) Diagonal() float64 {
	return b.Size().Len()
}

// The eight box corners.
func (b BoundingBox) Corners() [8]types.Vec3 {
	var corners [8]types.Vec3
	for i := 0; i < 8; i++ {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<uint(axis)) == 0 {
				corners[i][axis] = b.Min[axis]
			} else {
				corners[i][axis] = b.Max[axis]
			}
		}
	}
	return corners
}

// Returns the axis (0=X, 1=Y, 2=Z) with the greatest extent. Ties resolve
// towards the lower axis.
func (b BoundingBox) LongestAxis() int {
	size := b.Size()
	axis := 0
	for i := 1; i < 3; i++ {
		if math.Abs(size[i]) > math.Abs(size[axis]) {
			axis = i
		}
	}
	return axis
}

// Split the box with a plane perpendicular to axis at position pos. The
// position is clamped to the box extent.
func (b BoundingBox) Split(axis int, pos float64) (left, right BoundingBox) {
	pos = math.Max(b.Min[axis], math.Min(b.Max[axis], pos))
	left, right = b, b
	left.Max[axis] = pos
	right.Min[axis] = pos
	return left, right
}

// Test whether the ray intersects the box using the slab method.
//
// Axes where the ray direction is exactly zero are handled separately: the
// ray can only hit the box if its origin already lies inside that slab. A box
// whose slab interval ends behind (or practically at) the ray origin is
// reported as a miss.
func (b BoundingBox) Intersects(ray *Ray) bool {
	tStart := -math.MaxFloat64
	tEnd := math.MaxFloat64

	for axis := 0; axis < 3; axis++ {
		origin := ray.Origin[axis]
		dir := ray.Direction[axis]

		if dir == 0 {
			if origin < b.Min[axis] || origin > b.Max[axis] {
				return false
			}
			continue
		}

		tMin := (b.Min[axis] - origin) / dir
		tMax := (b.Max[axis] - origin) / dir
		if tMin > tMax {
			tMin, tMax = tMax, tMin
		}

		if tMin > tStart {
			tStart = tMin
		}
		if tMax < tEnd {
			tEnd = tMax
		}
	}

	if tStart > tEnd {
		return false
	}

	return tEnd >= boxHitEpsilon
}
