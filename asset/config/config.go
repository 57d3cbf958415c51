package config

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/blockspacer/kdtracer/asset"
	"github.com/blockspacer/kdtracer/asset/reader"
	"github.com/blockspacer/kdtracer/log"
	"github.com/blockspacer/kdtracer/renderer"
	"github.com/blockspacer/kdtracer/scene"
	"github.com/blockspacer/kdtracer/tracer"
	"github.com/blockspacer/kdtracer/types"
)

// Camera modes.
const (
	CameraAuto     = "auto"
	CameraExplicit = "explicit"
)

type ImageConfig struct {
	Width    int     `toml:"width"`
	Height   int     `toml:"height"`
	TileSize int     `toml:"tile_size"`
	Workers  int     `toml:"workers"`
	Exposure float64 `toml:"exposure"`
	Gamma    float64 `toml:"gamma"`
}

type CameraConfig struct {
	Mode      string     `toml:"mode"`
	Direction types.Vec3 `toml:"direction"`
	Up        types.Vec3 `toml:"up"`
	Zoom      float64    `toml:"zoom"`

	// Explicit mode only.
	Position types.Vec3    `toml:"position"`
	Viewport [4]types.Vec3 `toml:"viewport"`
}

type RenderConfig struct {
	Shadows          bool    `toml:"shadows"`
	BackfaceCulling  bool    `toml:"backface_culling"`
	FrontfaceCulling bool    `toml:"frontface_culling"`
	ShadowBias       float64 `toml:"shadow_bias"`
	UseKDTree        bool    `toml:"use_kdtree"`
}

type LightConfig struct {
	Type     string     `toml:"type"`
	Color    types.Vec3 `toml:"color"`
	Position types.Vec3 `toml:"position"`

	// Alias for position used by directional lights.
	Direction types.Vec3 `toml:"direction"`
}

// A render job description.
type Config struct {
	Model     string `toml:"model"`
	Output    string `toml:"output"`
	Verbosity string `toml:"verbosity"`

	Image  ImageConfig   `toml:"image"`
	Camera CameraConfig  `toml:"camera"`
	Render RenderConfig  `toml:"render"`
	Lights []LightConfig `toml:"light"`

	// The resource the config was loaded from; relative model paths are
	// resolved against it.
	source *asset.Resource
}

// Get a config populated with the default values.
func Default() *Config {
	opts := renderer.DefaultOptions()
	return &Config{
		Output:    "frame.png",
		Verbosity: "notice",
		Image: ImageConfig{
			Width:    opts.FrameW,
			Height:   opts.FrameH,
			TileSize: opts.TileSize,
			Workers:  opts.Workers,
			Exposure: opts.Exposure,
			Gamma:    opts.Gamma,
		},
		Camera: CameraConfig{
			Mode:      CameraAuto,
			Direction: types.Vec3{0, 0, 1},
			Up:        types.Vec3{0, 1, 0},
			Zoom:      scene.DefaultZoom,
		},
		Render: RenderConfig{
			Shadows:    opts.Shadows,
			ShadowBias: opts.ShadowBias,
			UseKDTree:  opts.UseKDTree,
		},
	}
}

// Get a default config for rendering a bare model file. The model is lit by
// a dim ambient light and a directional light shining from behind the
// default camera.
func ForModel(modelPath string) *Config {
	cfg := Default()
	cfg.Model = modelPath
	cfg.Lights = []LightConfig{
		{Type: "ambient", Color: types.Vec3{0.15, 0.15, 0.15}},
		{Type: "directional", Color: types.Vec3{0.85, 0.85, 0.85}, Direction: types.Vec3{0.4, 0.6, -1}},
	}
	return cfg
}

// Load and validate a config from a local file or http(s) URL.
func Load(path string) (*Config, error) {
	res, err := asset.NewResource(path, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	cfg, err := Decode(res)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, res.Path())
	}
	cfg.source = res
	return cfg, nil
}

// Decode and validate a TOML config. Keys missing from the input keep their
// default values; unknown keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("config: unknown key(s): %s", strings.Join(keys, ", "))
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Check the config for errors.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Verbosity); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Options().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	switch c.Camera.Mode {
	case CameraAuto, CameraExplicit:
	default:
		return fmt.Errorf("config: unknown camera mode %q", c.Camera.Mode)
	}

	if _, err := c.SceneLights(); err != nil {
		return err
	}
	return nil
}

// Get the render options described by the config.
func (c *Config) Options() renderer.Options {
	return renderer.Options{
		FrameW:           c.Image.Width,
		FrameH:           c.Image.Height,
		TileSize:         c.Image.TileSize,
		Workers:          c.Image.Workers,
		Exposure:         c.Image.Exposure,
		Gamma:            c.Image.Gamma,
		Shadows:          c.Render.Shadows,
		ShadowBias:       c.Render.ShadowBias,
		BackfaceCulling:  c.Render.BackfaceCulling,
		FrontfaceCulling: c.Render.FrontfaceCulling,
		UseKDTree:        c.Render.UseKDTree,
	}
}

// Get the scene lights described by the config.
func (c *Config) SceneLights() ([]scene.Light, error) {
	lights := make([]scene.Light, 0, len(c.Lights))
	for index, lc := range c.Lights {
		typ, err := scene.ParseLightType(lc.Type)
		if err != nil {
			return nil, fmt.Errorf("config: light %d: %w", index, err)
		}

		switch typ {
		case scene.AmbientLight:
			lights = append(lights, scene.NewAmbientLight(lc.Color))
		case scene.PointLight:
			lights = append(lights, scene.NewPointLight(lc.Position, lc.Color))
		case scene.DirectionalLight:
			dir := lc.Direction
			if dir.IsZero() {
				dir = lc.Position
			}
			if dir.IsZero() {
				return nil, fmt.Errorf("config: light %d: directional light requires a direction", index)
			}
			lights = append(lights, scene.NewDirectionalLight(dir, lc.Color))
		}
	}
	return lights, nil
}

// Load the model referenced by the config.
func (c *Config) LoadModel() (*scene.Model, error) {
	if c.Model == "" {
		return nil, fmt.Errorf("config: no model specified")
	}
	return reader.ReadModel(c.Model, c.source)
}

// Get the model path with relative local paths resolved against the
// directory of the config file.
func (c *Config) ModelPath() string {
	if c.source == nil || c.source.IsRemote() || strings.Contains(c.Model, "://") || filepath.IsAbs(c.Model) {
		return c.Model
	}
	return filepath.Join(filepath.Dir(c.source.Path()), c.Model)
}

// Create a tracer for model with the configured camera and lights.
func (c *Config) Tracer(model *scene.Model) (*tracer.Tracer, error) {
	tr := tracer.NewTracer(model, c.Image.Width, c.Image.Height)

	switch c.Camera.Mode {
	case CameraExplicit:
		camera, err := scene.NewCamera(c.Camera.Position, c.Camera.Direction, c.Camera.Up, scene.Viewport(c.Camera.Viewport))
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		tr.SetCamera(camera)
	default:
		if err := tr.AutoCamera(c.Camera.Direction, c.Camera.Up, c.Camera.Zoom); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	lights, err := c.SceneLights()
	if err != nil {
		return nil, err
	}
	for _, light := range lights {
		tr.AddLight(light)
	}

	return tr, nil
}
