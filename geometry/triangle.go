package geometry

import (
	"math"

	"github.com/blockspacer/kdtracer/log"
	"github.com/blockspacer/kdtracer/types"
)

var logger = log.New("geometry")

// The outcome of a ray/triangle test.
type HitCode uint8

const (
	// The plane was hit outside the triangle (or the triangle is the one
	// the ray starts from).
	Miss HitCode = iota
	ParallelToPlane
	Culled
	BehindOrigin
	FartherThanBest
	TooCloseBias
	Hit
)

func (c HitCode) String() string {
	switch c {
	case Miss:
		return "miss"
	case ParallelToPlane:
		return "parallel to plane"
	case Culled:
		return "culled"
	case BehindOrigin:
		return "behind origin"
	case FartherThanBest:
		return "farther than best"
	case TooCloseBias:
		return "too close (bias)"
	case Hit:
		return "hit"
	}
	return "unknown"
}

// Result of Triangle.Intersects. Point and DistanceSq are only meaningful
// when Code is Hit.
type HitResult struct {
	Code       HitCode
	Point      types.Vec3
	DistanceSq float64
}

// Returns true if the test produced a hit.
func (r HitResult) IsHit() bool {
	return r.Code == Hit
}

// Classification of a vertex against an axis-aligned splitting plane.
type Side uint8

const (
	Left Side = iota
	On
	Right
)

// A triangle referencing three entries of an externally owned vertex array.
// Vertex positions are copied at construction time together with the terms
// used by the barycentric inside test.
type Triangle struct {
	// The triangle's position in its owning triangle list.
	ID int

	// Indices into the vertex array.
	Indices [3]int

	// Vertex positions.
	V [3]types.Vec3

	Normal types.Vec3

	u, v                       types.Vec3
	uDotU, vDotV, uDotV, denom float64

	valid bool
}

// Create a triangle from three entries of the vertices slice. The triangle
// is marked invalid (see Valid) if any vertex is NaN/Inf, the normal cannot
// be computed or the triangle has zero area. Invalid triangles must not be
// handed to the KD tree.
func NewTriangle(vertices []types.Vec3, i0, i1, i2 int) Triangle {
	tri := Triangle{
		Indices: [3]int{i0, i1, i2},
	}

	for i, index := range tri.Indices {
		if index < 0 || index >= len(vertices) {
			logger.Infof("triangle (%d, %d, %d): vertex index %d out of range", i0, i1, i2, index)
			return tri
		}
		tri.V[i] = vertices[index]
		if tri.V[i].IsNaNOrInf() {
			logger.Infof("triangle (%d, %d, %d): vertex %d is NaN/Inf", i0, i1, i2, index)
			return tri
		}
	}

	tri.u = tri.V[1].Sub(tri.V[0])
	tri.v = tri.V[2].Sub(tri.V[0])

	// Divide by the length explicitly; Normalize snaps short vectors to zero
	// which would reject small but perfectly valid triangles.
	cross := tri.u.Cross(tri.v)
	length := cross.Len()
	tri.Normal = types.Vec3{cross[0] / length, cross[1] / length, cross[2] / length}
	if tri.Normal.IsNaNOrInf() || tri.Normal.IsZero() {
		logger.Infof("triangle (%d, %d, %d): degenerate normal", i0, i1, i2)
		return tri
	}

	tri.uDotU = tri.u.Dot(tri.u)
	tri.vDotV = tri.v.Dot(tri.v)
	tri.uDotV = tri.u.Dot(tri.v)
	tri.denom = tri.uDotV*tri.uDotV - tri.uDotU*tri.vDotV

	// denom equals -|u x v|^2 so compare it against the scale of the edges.
	if math.Abs(tri.denom) <= types.Epsilon*tri.uDotU*tri.vDotV {
		logger.Infof("triangle (%d, %d, %d): degenerate barycentric denominator", i0, i1, i2)
		return tri
	}

	tri.valid = true
	return tri
}

// Returns true if the triangle passed construction checks.
func (t *Triangle) Valid() bool {
	return t.valid
}

// Centroid of the three vertices.
func (t *Triangle) MidPoint() types.Vec3 {
	return t.V[0].Add(t.V[1]).Add(t.V[2]).Mul(1.0 / 3.0)
}

// Bounding box of the three vertices.
func (t *Triangle) BBox() BoundingBox {
	return NewBoundingBox(t.V[0], t.V[1], t.V[2])
}

// Classify each vertex against the plane through point perpendicular to axis.
func (t *Triangle) ParallelPlaneSide(point types.Vec3, axis int) [3]Side {
	var sides [3]Side
	for i, vertex := range t.V {
		switch {
		case vertex[axis] < point[axis]:
			sides[i] = Left
		case vertex[axis] > point[axis]:
			sides[i] = Right
		default:
			sides[i] = On
		}
	}
	return sides
}

// Test the ray against the triangle. On a hit the ray's best hit state is
// updated so a caller can test a whole scene and keep the closest hit.
//
// Points lying exactly on a triangle edge are misses.
func (t *Triangle) Intersects(ray *Ray) HitResult {
	if ray.StartTriangle == t.ID {
		return HitResult{Code: Miss}
	}

	nDotD := t.Normal.Dot(ray.Direction)
	if nDotD == 0 {
		return HitResult{Code: ParallelToPlane}
	}

	// A ray travelling along the normal approaches the back face.
	if (ray.BackfaceCulling && nDotD > 0) || (ray.FrontfaceCulling && nDotD < 0) {
		return HitResult{Code: Culled}
	}

	dist := t.Normal.Dot(t.V[0].Sub(ray.Origin)) / nDotD
	if dist < 0 {
		return HitResult{Code: BehindOrigin}
	}

	offset := ray.Direction.Mul(dist)
	distSq := offset.LenSq()
	if distSq > ray.BestDistanceSq {
		return HitResult{Code: FartherThanBest}
	}
	if distSq < ray.ZeroDistanceThreshold*ray.ZeroDistanceThreshold {
		return HitResult{Code: TooCloseBias}
	}

	point := ray.Origin.Add(offset)
	w := point.Sub(t.V[0])
	wDotU := w.Dot(t.u)
	wDotV := w.Dot(t.v)

	s := (t.uDotV*wDotV - t.vDotV*wDotU) / t.denom
	if s <= 0 {
		return HitResult{Code: Miss}
	}
	tt := (t.uDotV*wDotU - t.uDotU*wDotV) / t.denom
	if tt <= 0 || s+tt >= 1 {
		return HitResult{Code: Miss}
	}

	ray.BestDistanceSq = distSq
	ray.BestTriangle = t.ID
	ray.IntersectionPoint = point

	return HitResult{Code: Hit, Point: point, DistanceSq: distSq}
}
