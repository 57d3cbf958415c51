package scene

import (
	"fmt"
	"math"
	"strings"

	"github.com/blockspacer/kdtracer/types"
)

// The type of a scene light.
type LightType uint8

const (
	AmbientLight LightType = iota
	PointLight
	DirectionalLight
)

func (t LightType) String() string {
	switch t {
	case AmbientLight:
		return "ambient"
	case PointLight:
		return "point"
	case DirectionalLight:
		return "directional"
	}
	return "unknown"
}

// Parse a light type name. "diffuse" is accepted as an alias for
// directional lights.
func ParseLightType(name string) (LightType, error) {
	switch strings.ToLower(name) {
	case "ambient":
		return AmbientLight, nil
	case "point":
		return PointLight, nil
	case "directional", "diffuse":
		return DirectionalLight, nil
	}
	return 0, fmt.Errorf("scene: unknown light type %q", name)
}

// A scene light. Position holds the light position for point lights and the
// direction pointing away from the scene towards the light for directional
// lights. Ambient lights ignore it.
type Light struct {
	Type     LightType
	Color    types.Vec3
	Position types.Vec3
}

func NewAmbientLight(color types.Vec3) Light {
	return Light{Type: AmbientLight, Color: color}
}

func NewPointLight(position, color types.Vec3) Light {
	return Light{Type: PointLight, Color: color, Position: position}
}

func NewDirectionalLight(direction, color types.Vec3) Light {
	return Light{Type: DirectionalLight, Color: color, Position: direction}
}

// Get the unit direction from point towards the light and the distance to
// it. Directional lights are infinitely far away. Ambient lights have no
// direction.
func (l Light) DirectionFrom(point types.Vec3) (dir types.Vec3, dist float64) {
	switch l.Type {
	case PointLight:
		toLight := l.Position.Sub(point)
		dist = toLight.Len()
		if dist == 0 {
			return types.Vec3{}, 0
		}
		return toLight.Mul(1 / dist), dist
	case DirectionalLight:
		return l.Position.Normalize(), math.Inf(1)
	}
	return types.Vec3{}, 0
}

func (l Light) String() string {
	switch l.Type {
	case AmbientLight:
		return fmt.Sprintf("ambient light color %s", l.Color)
	case DirectionalLight:
		return fmt.Sprintf("directional light color %s direction %s", l.Color, l.Position)
	}
	return fmt.Sprintf("%s light color %s position %s", l.Type, l.Color, l.Position)
}
