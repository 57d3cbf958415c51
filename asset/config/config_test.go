package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blockspacer/kdtracer/scene"
	"github.com/blockspacer/kdtracer/types"
)

const sceneConfig = `
model = "quad.ply"
output = "out.bmp"
verbosity = "debug"

[image]
width = 32
height = 16
tile_size = 8
workers = 2
exposure = 1.5

[camera]
mode = "auto"
direction = [0.0, 0.0, 1.0]
up = [0.0, 1.0, 0.0]

[render]
shadows = false
shadow_bias = 500.0

[[light]]
type = "ambient"
color = [0.1, 0.1, 0.1]

[[light]]
type = "point"
color = [1.0, 1.0, 1.0]
position = [0.5, 0.5, -3.0]

[[light]]
type = "diffuse"
color = [0.5, 0.5, 0.5]
direction = [0.0, 1.0, -1.0]
`

const quadPLY = `ply
format ascii 1.0
element vertex 4
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
1 1 0
0 1 0
4 0 1 2 3
`

func TestDecode(t *testing.T) {
	cfg, err := Decode(strings.NewReader(sceneConfig))
	if err != nil {
		t.Fatal(err)
	}

	opts := cfg.Options()
	if opts.FrameW != 32 || opts.FrameH != 16 || opts.TileSize != 8 || opts.Workers != 2 {
		t.Fatalf("unexpected image options: %+v", opts)
	}
	if opts.Exposure != 1.5 {
		t.Fatalf("expected exposure 1.5; got %f", opts.Exposure)
	}
	// Defaults are kept for missing keys
	if opts.Gamma != 2.2 || !opts.UseKDTree {
		t.Fatalf("expected default gamma and kd tree settings; got %+v", opts)
	}
	if opts.Shadows || opts.ShadowBias != 500 {
		t.Fatalf("expected shadows to be disabled with bias 500; got %+v", opts)
	}
	if cfg.Camera.Zoom != scene.DefaultZoom {
		t.Fatalf("expected default zoom %f; got %f", scene.DefaultZoom, cfg.Camera.Zoom)
	}

	lights, err := cfg.SceneLights()
	if err != nil {
		t.Fatal(err)
	}
	expTypes := []scene.LightType{scene.AmbientLight, scene.PointLight, scene.DirectionalLight}
	if len(lights) != len(expTypes) {
		t.Fatalf("expected %d lights; got %d", len(expTypes), len(lights))
	}
	for i, exp := range expTypes {
		if lights[i].Type != exp {
			t.Fatalf("expected light %d to be %s; got %s", i, exp, lights[i].Type)
		}
	}
	if exp := (types.Vec3{0, 1, -1}); lights[2].Position != exp {
		t.Fatalf("expected directional light direction %v; got %v", exp, lights[2].Position)
	}
}

func TestDecodeErrors(t *testing.T) {
	type spec struct {
		payload string
		expErr  string
	}
	specs := []spec{
		{"[image]\nwidth = 0\n", "frame width and height must be positive"},
		{"[image]\ntile_size = -1\n", "tile size must be positive"},
		{"[render]\nbackface_culling = true\nfrontface_culling = true\n", "culling"},
		{"verbosity = \"chatty\"\n", "unknown level"},
		{"[camera]\nmode = \"orbit\"\n", "unknown camera mode"},
		{"[[light]]\ntype = \"spot\"\n", "unknown light type"},
		{"[[light]]\ntype = \"directional\"\ncolor = [1.0, 1.0, 1.0]\n", "requires a direction"},
		{"[image]\nwidht = 10\n", "unknown key(s): image.widht"},
		{"[camera]\ndirection = [0.0, 1.0]\n", "config:"},
		{"model = \n", "config:"},
	}

	for index, s := range specs {
		_, err := Decode(strings.NewReader(s.payload))
		if err == nil || !strings.Contains(err.Error(), s.expErr) {
			t.Fatalf("[spec %d] expected error containing %q; got %v", index, s.expErr, err)
		}
	}
}

func TestLoadModelAndTracer(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "scene.toml")
	if err := os.WriteFile(cfgPath, []byte(sceneConfig), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "quad.ply"), []byte(quadPLY), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}

	// The model path is resolved relative to the config file
	if exp := filepath.Join(dir, "quad.ply"); cfg.ModelPath() != exp {
		t.Fatalf("expected model path %q; got %q", exp, cfg.ModelPath())
	}
	model, err := cfg.LoadModel()
	if err != nil {
		t.Fatal(err)
	}
	if len(model.Triangles) != 2 {
		t.Fatalf("expected 2 triangles; got %d", len(model.Triangles))
	}

	tr, err := cfg.Tracer(model)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Camera() == nil {
		t.Fatal("expected tracer camera to be set")
	}
	if len(tr.Lights()) != 3 {
		t.Fatalf("expected 3 lights; got %d", len(tr.Lights()))
	}
	if w, h := tr.FrameSize(); w != 32 || h != 16 {
		t.Fatalf("expected frame size 32x16; got %dx%d", w, h)
	}
}

func TestExplicitCamera(t *testing.T) {
	payload := `
[camera]
mode = "explicit"
position = [0.25, 0.25, -1.0]
direction = [0.0, 0.0, 1.0]
up = [0.0, 1.0, 0.0]
viewport = [[-0.25, 0.75, 0.0], [0.75, 0.75, 0.0], [0.75, -0.25, 0.0], [-0.25, -0.25, 0.0]]
`
	cfg, err := Decode(strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}

	model := scene.NewModel("tri", []types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, [][3]int{{0, 1, 2}})
	tr, err := cfg.Tracer(model)
	if err != nil {
		t.Fatal(err)
	}

	cam := tr.Camera()
	if cam.Position != (types.Vec3{0.25, 0.25, -1}) {
		t.Fatalf("expected camera position (0.25, 0.25, -1); got %v", cam.Position)
	}
	if cam.Viewport[scene.LowerRight] != (types.Vec3{0.75, -0.25, 0}) {
		t.Fatalf("expected lower right corner (0.75, -0.25, 0); got %v", cam.Viewport[scene.LowerRight])
	}

	cfg.Camera.Up = types.Vec3{0, 0, 1}
	if _, err = cfg.Tracer(model); err == nil || !strings.Contains(err.Error(), "parallel") {
		t.Fatalf("expected parallel up vector error; got %v", err)
	}
}

func TestLoadModelWithoutPath(t *testing.T) {
	cfg := Default()
	if _, err := cfg.LoadModel(); err == nil {
		t.Fatal("expected an error when no model is specified")
	}
}

func TestForModel(t *testing.T) {
	cfg := ForModel("/models/bunny.ply")
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.ModelPath() != "/models/bunny.ply" {
		t.Fatalf("expected model path to be kept; got %q", cfg.ModelPath())
	}

	lights, err := cfg.SceneLights()
	if err != nil {
		t.Fatal(err)
	}
	if len(lights) != 2 || lights[0].Type != scene.AmbientLight || lights[1].Type != scene.DirectionalLight {
		t.Fatalf("expected an ambient and a directional light; got %v", lights)
	}
}
