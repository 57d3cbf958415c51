package tracer

import (
	"errors"
	"math"

	"github.com/blockspacer/kdtracer/geometry"
	"github.com/blockspacer/kdtracer/scene"
	"github.com/blockspacer/kdtracer/types"
)

const (
	// The default edge length of a square tile in pixels.
	DefaultTileSize = 16

	// The default scale applied to diag(model) * epsilon to obtain the
	// minimum distance for shadow ray hits.
	DefaultShadowBias = 1000.0
)

var (
	ErrNoCamera        = errors.New("tracer: no camera defined")
	ErrConflictingCull = errors.New("tracer: backface and frontface culling cannot both be enabled")
)

// The PixelSink interface is implemented by anything that can receive traced
// pixels. Colors are linear and unclamped. Concurrent calls always target
// distinct pixels.
type PixelSink interface {
	SetPixelColor(x, y int, color types.Vec3)
}

// Counters collected while tracing a tile.
type TileStats struct {
	Pixels     int
	Hits       int
	ShadowRays int
}

// Add other counters to this one.
func (s *TileStats) Add(other TileStats) {
	s.Pixels += other.Pixels
	s.Hits += other.Hits
	s.ShadowRays += other.ShadowRays
}

// A direct lighting ray tracer. A Tracer is safe for concurrent use once
// configured: tracing only reads its state and the model.
type Tracer struct {
	model  *scene.Model
	camera *scene.Camera
	lights []scene.Light

	width, height int

	TileSize         int
	BackfaceCulling  bool
	FrontfaceCulling bool
	Shadows          bool
	ShadowBias       float64
}

// Create a tracer for rendering model into a width x height frame.
func NewTracer(model *scene.Model, width, height int) *Tracer {
	return &Tracer{
		model:      model,
		width:      width,
		height:     height,
		TileSize:   DefaultTileSize,
		Shadows:    true,
		ShadowBias: DefaultShadowBias,
	}
}

// Get the traced model.
func (tr *Tracer) Model() *scene.Model {
	return tr.model
}

// Get the frame dimensions.
func (tr *Tracer) FrameSize() (width, height int) {
	return tr.width, tr.height
}

// Get the active camera.
func (tr *Tracer) Camera() *scene.Camera {
	return tr.camera
}

// Use an explicitly configured camera.
func (tr *Tracer) SetCamera(camera *scene.Camera) {
	tr.camera = camera
}

// Setup a camera looking along direction that frames the whole model.
func (tr *Tracer) AutoCamera(direction, up types.Vec3, zoom float64) error {
	camera, err := scene.NewAutoCamera(tr.model.Bounds(), direction, up, zoom, tr.width, tr.height)
	if err != nil {
		return err
	}
	tr.camera = camera
	return nil
}

// Add a light to the scene.
func (tr *Tracer) AddLight(light scene.Light) {
	tr.lights = append(tr.lights, light)
}

// Get the scene lights.
func (tr *Tracer) Lights() []scene.Light {
	return tr.lights
}

// Check that the tracer can render a frame.
func (tr *Tracer) Validate() error {
	if tr.camera == nil {
		return ErrNoCamera
	}
	if tr.BackfaceCulling && tr.FrontfaceCulling {
		return ErrConflictingCull
	}
	return nil
}

// Build the primary ray for pixel (x, y).
func (tr *Tracer) PixelRay(x, y int) geometry.Ray {
	target := tr.camera.ViewportPoint(
		float64(x)/float64(tr.width),
		float64(y)/float64(tr.height),
	)
	ray := geometry.NewRay(tr.camera.Position, target.Sub(tr.camera.Position))
	ray.BackfaceCulling = tr.BackfaceCulling
	ray.FrontfaceCulling = tr.FrontfaceCulling
	return ray
}

// Trace and shade pixel (x, y).
func (tr *Tracer) Trace(x, y int) types.Vec3 {
	var stats TileStats
	return tr.trace(x, y, &stats)
}

func (tr *Tracer) trace(x, y int, stats *TileStats) types.Vec3 {
	ray := tr.PixelRay(x, y)
	if tr.model.Intersect(&ray) {
		stats.Hits++
	}
	return tr.shade(&ray, stats)
}

// Compute the color for a ray that has been intersected with the model.
// Rays without a recorded hit shade to black.
func (tr *Tracer) Shade(ray *geometry.Ray) types.Vec3 {
	var stats TileStats
	return tr.shade(ray, &stats)
}

func (tr *Tracer) shade(ray *geometry.Ray, stats *TileStats) types.Vec3 {
	var color types.Vec3
	if !ray.HasHit() {
		return color
	}

	tri := &tr.model.Triangles[ray.BestTriangle]
	point := ray.IntersectionPoint
	culling := tr.BackfaceCulling || tr.FrontfaceCulling

	for _, light := range tr.lights {
		if light.Type == scene.AmbientLight {
			color = color.Add(light.Color)
			continue
		}

		lightDir, lightDist := light.DirectionFrom(point)
		if lightDir.IsZero() {
			continue
		}

		intensity := lightDir.Dot(tri.Normal)
		if tr.FrontfaceCulling {
			intensity = -intensity
		}
		// Without culling both faces are lit.
		if intensity == 0 || (culling && intensity < 0) {
			continue
		}

		if tr.Shadows {
			stats.ShadowRays++
			if tr.occluded(point, lightDir, lightDist, tri.ID) {
				continue
			}
		}

		color = color.Add(light.Color.Mul(math.Abs(intensity)))
	}

	return color
}

// Cast a shadow ray from a surface point towards a light.
func (tr *Tracer) occluded(point, lightDir types.Vec3, lightDist float64, startTriangle int) bool {
	shadowRay := geometry.NewRay(point, lightDir)
	shadowRay.Mode = geometry.Any
	shadowRay.StartTriangle = startTriangle
	shadowRay.ZeroDistanceThreshold = tr.model.Bounds().Diagonal() * types.Epsilon * tr.ShadowBias
	if !math.IsInf(lightDist, 1) {
		// Geometry behind the light cannot cast a shadow.
		shadowRay.BestDistanceSq = lightDist * lightDist
	}

	return tr.model.Intersect(&shadowRay)
}

// Trace all pixels of the tile whose upper left corner is (x0, y0) and write
// them to sink.
func (tr *Tracer) RenderTile(x0, y0 int, sink PixelSink) TileStats {
	var stats TileStats

	x1 := min(x0+tr.TileSize, tr.width)
	y1 := min(y0+tr.TileSize, tr.height)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			sink.SetPixelColor(x, y, tr.trace(x, y, &stats))
			stats.Pixels++
		}
	}

	return stats
}
