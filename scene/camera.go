package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/blockspacer/kdtracer/geometry"
	"github.com/blockspacer/kdtracer/types"
)

// Indices into Camera.Viewport.
const (
	UpperLeft = iota
	UpperRight
	LowerRight
	LowerLeft
)

// The default auto camera zoom; it leaves a 2% margin around the model.
const DefaultZoom = 0.51

var (
	ErrZeroDirection = errors.New("scene: camera direction is a zero vector")
	ErrParallelUp    = errors.New("scene: camera up vector is parallel to the view direction")
	ErrEmptyBounds   = errors.New("scene: cannot fit camera to empty model bounds")
)

// The four corners of the camera viewport in world space. Pixel rays are
// generated by interpolating between them.
type Viewport [4]types.Vec3

func (vp Viewport) String() string {
	return fmt.Sprintf(
		"Viewport:\nUL : %s\nUR : %s\nLR : %s\nLL : %s",
		vp[UpperLeft], vp[UpperRight], vp[LowerRight], vp[LowerLeft],
	)
}

// A pinhole camera defined by its position and the world space corners of
// the image plane.
type Camera struct {
	Position  types.Vec3
	Direction types.Vec3
	Up        types.Vec3

	Viewport Viewport
}

// Create a camera from an explicit viewport.
func NewCamera(position, direction, up types.Vec3, viewport Viewport) (*Camera, error) {
	if err := validateOrientation(direction, up); err != nil {
		return nil, err
	}

	return &Camera{
		Position:  position,
		Direction: direction.Normalize(),
		Up:        up.Normalize(),
		Viewport:  viewport,
	}, nil
}

// Create a camera that looks along direction and frames the entire bounds.
//
// The camera is placed outside the bounds on the opposite side of direction.
// The viewport is sized so that the bounding box corner forming the widest
// angle with the view direction fits inside the frame; zoom scales the
// viewport (0.5 makes that corner touch the frame edge). The viewport aspect
// ratio matches width/height.
func NewAutoCamera(bounds geometry.BoundingBox, direction, up types.Vec3, zoom float64, width, height int) (*Camera, error) {
	if err := validateOrientation(direction, up); err != nil {
		return nil, err
	}
	if !bounds.IsValid() {
		return nil, ErrEmptyBounds
	}
	if zoom <= 0 {
		zoom = DefaultZoom
	}

	dir := direction.Normalize()
	right := up.Cross(dir).Normalize()
	camUp := dir.Cross(right)

	// Any point at a distance greater than half the diagonal from the center
	// lies outside the box.
	dist := bounds.Diagonal()
	if dist == 0 {
		dist = 1
	}
	position := bounds.Center().Sub(dir.Mul(dist))

	// Find the steepest corner and the silhouette extent along each image axis.
	minCos := math.MaxFloat64
	var maxTanX, maxTanY float64
	for _, corner := range bounds.Corners() {
		toCorner := corner.Sub(position)
		depth := toCorner.Dot(dir)

		if cos := depth / toCorner.Len(); cos < minCos {
			minCos = cos
		}
		maxTanX = math.Max(maxTanX, math.Abs(toCorner.Dot(right))/depth)
		maxTanY = math.Max(maxTanY, math.Abs(toCorner.Dot(camUp))/depth)
	}

	// The viewport plane lies at unit distance from the camera.
	halfExtent := math.Sqrt(1-minCos*minCos) / minCos * 2 * zoom
	aspect := float64(width) / float64(height)

	var halfW, halfH float64
	if maxTanY == 0 || maxTanX/maxTanY > aspect {
		halfW = halfExtent
		halfH = halfW / aspect
	} else {
		halfH = halfExtent
		halfW = halfH * aspect
	}

	center := position.Add(dir)
	dx := right.Mul(halfW)
	dy := camUp.Mul(halfH)

	return &Camera{
		Position:  position,
		Direction: dir,
		Up:        camUp,
		Viewport: Viewport{
			UpperLeft:  center.Add(dy).Sub(dx),
			UpperRight: center.Add(dy).Add(dx),
			LowerRight: center.Sub(dy).Add(dx),
			LowerLeft:  center.Sub(dy).Sub(dx),
		},
	}, nil
}

// Get the world space point on the viewport at normalized image coordinates
// (fx, fy); (0, 0) maps to the upper left and (1, 1) to the lower right corner.
func (c *Camera) ViewportPoint(fx, fy float64) types.Vec3 {
	top := types.Lerp(c.Viewport[UpperLeft], c.Viewport[UpperRight], fx)
	bottom := types.Lerp(c.Viewport[LowerLeft], c.Viewport[LowerRight], fx)
	return types.Lerp(top, bottom, fy)
}

func validateOrientation(direction, up types.Vec3) error {
	if direction.IsZero() || direction.IsNaNOrInf() {
		return ErrZeroDirection
	}
	if up.Cross(direction).Normalize().IsZero() {
		return ErrParallelUp
	}
	return nil
}
