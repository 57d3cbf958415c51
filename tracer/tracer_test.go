package tracer

import (
	"math"
	"testing"

	"github.com/blockspacer/kdtracer/geometry"
	"github.com/blockspacer/kdtracer/scene"
	"github.com/blockspacer/kdtracer/types"
)

type mockSink struct {
	width  int
	pixels map[int]types.Vec3
	writes int
}

func newMockSink(width int) *mockSink {
	return &mockSink{width: width, pixels: make(map[int]types.Vec3)}
}

func (s *mockSink) SetPixelColor(x, y int, color types.Vec3) {
	s.pixels[y*s.width+x] = color
	s.writes++
}

// A single triangle on the z = 0 plane with a camera at (0.25, 0.25, -1)
// looking towards +z. Pixel (2, 2) of a 4x4 frame maps to (0.25, 0.25, 0).
func setupTriangleScene(t *testing.T, extraVertices []types.Vec3, extraFaces [][3]int) *Tracer {
	vertices := append([]types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, extraVertices...)
	faces := append([][3]int{{0, 1, 2}}, extraFaces...)
	model := scene.NewModel("triangle", vertices, faces)
	model.BuildTree()

	camera, err := scene.NewCamera(
		types.Vec3{0.25, 0.25, -1},
		types.Vec3{0, 0, 1},
		types.Vec3{0, 1, 0},
		scene.Viewport{
			scene.UpperLeft:  {-0.25, 0.75, 0},
			scene.UpperRight: {0.75, 0.75, 0},
			scene.LowerRight: {0.75, -0.25, 0},
			scene.LowerLeft:  {-0.25, -0.25, 0},
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	tr := NewTracer(model, 4, 4)
	tr.SetCamera(camera)
	return tr
}

func TestAmbientTriangleScenario(t *testing.T) {
	tr := setupTriangleScene(t, nil, nil)
	tr.AddLight(scene.NewAmbientLight(types.Vec3{1, 1, 1}))

	ray := tr.PixelRay(2, 2)
	if !tr.model.Intersect(&ray) {
		t.Fatal("expected pixel ray through (0.25, 0.25, 0) to hit the triangle")
	}
	if exp := (types.Vec3{0.25, 0.25, 0}); ray.IntersectionPoint != exp {
		t.Fatalf("expected intersection point %v; got %v", exp, ray.IntersectionPoint)
	}
	if got := tr.Shade(&ray); got != (types.Vec3{1, 1, 1}) {
		t.Fatalf("expected color (1, 1, 1); got %v", got)
	}

	ray = geometry.NewRay(types.Vec3{0.25, 0.25, -1}, types.Vec3{0.9, 0.9, 0}.Sub(types.Vec3{0.25, 0.25, -1}))
	if tr.model.Intersect(&ray) {
		t.Fatal("expected ray through (0.9, 0.9, 0) to miss the triangle")
	}
	if got := tr.Shade(&ray); got != (types.Vec3{}) {
		t.Fatalf("expected background color; got %v", got)
	}
}

func TestShadowOccluder(t *testing.T) {
	ambient := types.Vec3{0.1, 0.1, 0.1}
	lightPos := types.Vec3{0, 0, -4}

	// Unoccluded
	tr := setupTriangleScene(t, nil, nil)
	tr.AddLight(scene.NewAmbientLight(ambient))
	tr.AddLight(scene.NewPointLight(lightPos, types.Vec3{1, 1, 1}))

	lit := tr.Trace(2, 2)
	if lit[0] <= ambient[0] {
		t.Fatalf("expected point light to contribute to the surface color; got %v", lit)
	}
	expIntensity := math.Abs(lightPos.Sub(types.Vec3{0.25, 0.25, 0}).Normalize()[2])
	if math.Abs(lit[0]-ambient[0]-expIntensity) > 1e-12 {
		t.Fatalf("expected light contribution %f; got %f", expIntensity, lit[0]-ambient[0])
	}

	// An occluder between the light and the surface point. It lies behind
	// the camera so primary rays never see it.
	tr = setupTriangleScene(t,
		[]types.Vec3{{-1, -1, -2}, {3, -1, -2}, {-1, 3, -2}},
		[][3]int{{3, 4, 5}},
	)
	tr.AddLight(scene.NewAmbientLight(ambient))
	tr.AddLight(scene.NewPointLight(lightPos, types.Vec3{1, 1, 1}))

	ray := tr.PixelRay(2, 2)
	if !tr.model.Intersect(&ray) || ray.BestTriangle != 0 {
		t.Fatalf("expected primary ray to hit triangle 0; got %d", ray.BestTriangle)
	}
	if got := tr.Shade(&ray); got != ambient {
		t.Fatalf("expected shadowed color %v; got %v", ambient, got)
	}

	// Disabling shadows restores the light contribution
	tr.Shadows = false
	if got := tr.Trace(2, 2); got != lit {
		t.Fatalf("expected color %v with shadows disabled; got %v", lit, got)
	}
}

func TestShadowRaysIgnoreGeometryBehindLight(t *testing.T) {
	// The occluder sits further away than the light.
	tr := setupTriangleScene(t,
		[]types.Vec3{{-1, -1, -8}, {3, -1, -8}, {-1, 3, -8}},
		[][3]int{{3, 4, 5}},
	)
	tr.AddLight(scene.NewPointLight(types.Vec3{0, 0, -4}, types.Vec3{1, 1, 1}))

	if got := tr.Trace(2, 2); got[0] == 0 {
		t.Fatal("expected geometry behind the light not to cast a shadow")
	}
}

func TestShadeCulling(t *testing.T) {
	type spec struct {
		backface  bool
		frontface bool
		lightDir  types.Vec3
		expLit    bool
	}
	specs := []spec{
		// Light on the viewer's side of the surface
		{lightDir: types.Vec3{0, 0, -1}, expLit: true},
		// Without culling the face away from the viewer is lit as well
		{lightDir: types.Vec3{0, 0, 1}, expLit: true},
		// With front face culling the visible face points away from +z
		{frontface: true, lightDir: types.Vec3{0, 0, -1}, expLit: true},
		{frontface: true, lightDir: types.Vec3{0, 0, 1}, expLit: false},
	}

	for index, s := range specs {
		tr := setupTriangleScene(t, nil, nil)
		tr.BackfaceCulling = s.backface
		tr.FrontfaceCulling = s.frontface
		tr.AddLight(scene.NewDirectionalLight(s.lightDir, types.Vec3{1, 1, 1}))

		got := tr.Trace(2, 2)
		if lit := got[0] > 0; lit != s.expLit {
			t.Fatalf("[spec %d] expected lit to be %t; got color %v", index, s.expLit, got)
		}
		if s.expLit && got != (types.Vec3{1, 1, 1}) {
			t.Fatalf("[spec %d] expected full intensity; got %v", index, got)
		}
	}

	// The camera sees the back face of the triangle so back face culling
	// hides it completely.
	tr := setupTriangleScene(t, nil, nil)
	tr.BackfaceCulling = true
	tr.AddLight(scene.NewAmbientLight(types.Vec3{1, 1, 1}))
	if got := tr.Trace(2, 2); got != (types.Vec3{}) {
		t.Fatalf("expected culled triangle to shade to black; got %v", got)
	}
}

func TestRenderTile(t *testing.T) {
	tr := setupTriangleScene(t, nil, nil)
	tr.TileSize = 3
	tr.AddLight(scene.NewAmbientLight(types.Vec3{1, 1, 1}))

	sink := newMockSink(4)
	cursor := NewTileCursor(4, 4, tr.TileSize)
	var total TileStats
	for {
		x, y, ok := cursor.Next()
		if !ok {
			break
		}
		total.Add(tr.RenderTile(x, y, sink))
	}

	if total.Pixels != 16 || sink.writes != 16 || len(sink.pixels) != 16 {
		t.Fatalf("expected 16 traced pixels; got %d (%d writes, %d distinct)", total.Pixels, sink.writes, len(sink.pixels))
	}
	if sink.pixels[2*4+2] != (types.Vec3{1, 1, 1}) {
		t.Fatalf("expected pixel (2, 2) to be lit; got %v", sink.pixels[2*4+2])
	}
	if sink.pixels[0] != (types.Vec3{}) {
		t.Fatalf("expected pixel (0, 0) to be background; got %v", sink.pixels[0])
	}

	hits := 0
	for _, c := range sink.pixels {
		if c != (types.Vec3{}) {
			hits++
		}
	}
	if hits != total.Hits {
		t.Fatalf("expected %d hits; got %d", hits, total.Hits)
	}
}

func TestAutoCamera(t *testing.T) {
	tr := setupTriangleScene(t, nil, nil)
	tr.AddLight(scene.NewAmbientLight(types.Vec3{1, 1, 1}))
	if err := tr.AutoCamera(types.Vec3{0, 0, 1}, types.Vec3{0, 1, 0}, scene.DefaultZoom); err != nil {
		t.Fatal(err)
	}
	if tr.Camera().Position[2] >= 0 {
		t.Fatalf("expected camera to be placed in front of the model; got %v", tr.Camera().Position)
	}

	// The triangle covers the lower left half of the frame.
	if got := tr.Trace(1, 2); got != (types.Vec3{1, 1, 1}) {
		t.Fatalf("expected pixel (1, 2) to see the triangle; got %v", got)
	}
	if got := tr.Trace(3, 0); got != (types.Vec3{}) {
		t.Fatalf("expected pixel (3, 0) to miss the triangle; got %v", got)
	}

	if err := tr.AutoCamera(types.Vec3{0, 1, 0}, types.Vec3{0, 1, 0}, scene.DefaultZoom); err != scene.ErrParallelUp {
		t.Fatalf("expected ErrParallelUp; got %v", err)
	}
}

func TestValidate(t *testing.T) {
	model := scene.NewModel("empty", nil, nil)
	tr := NewTracer(model, 4, 4)
	if err := tr.Validate(); err != ErrNoCamera {
		t.Fatalf("expected ErrNoCamera; got %v", err)
	}

	tr = setupTriangleScene(t, nil, nil)
	tr.BackfaceCulling = true
	tr.FrontfaceCulling = true
	if err := tr.Validate(); err != ErrConflictingCull {
		t.Fatalf("expected ErrConflictingCull; got %v", err)
	}
}
