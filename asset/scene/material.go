package scene

import (
	"fmt"
	"strings"

	"github.com/achilleasa/prism/types"
)

// The surface shading model of a material.
type MaterialType uint8

const (
	Lambert MaterialType = iota
	Metal
	Glass
	Subsurface
	numMaterialTypes
)

var materialTypeNames = [numMaterialTypes]string{"lambert", "metal", "glass", "sss"}

func (t MaterialType) String() string {
	if t >= numMaterialTypes {
		return fmt.Sprintf("MaterialType(%d)", uint8(t))
	}
	return materialTypeNames[t]
}

// Check if the type is one of the known material types.
func (t MaterialType) Valid() bool {
	return t < numMaterialTypes
}

// Parse a material type name (lambert, metal, glass, sss).
func ParseMaterialType(name string) (MaterialType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for index, typeName := range materialTypeNames {
		if typeName == name {
			return MaterialType(index), nil
		}
	}
	if name == "subsurface" {
		return Subsurface, nil
	}
	return Lambert, fmt.Errorf("material: unknown material type %q", name)
}

// Implement encoding.TextUnmarshaler.
func (t *MaterialType) UnmarshalText(text []byte) error {
	parsed, err := ParseMaterialType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Implement encoding.TextMarshaler.
func (t MaterialType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("material: unknown material type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// A surface material. Materials are shared by instances and never change
// after the scene is compiled.
type Material struct {
	Name string

	// RGBA albedo.
	BaseColor types.Vec4

	Type MaterialType

	// Roughness in [0, 1]; used as the lighting weight when blending metal reflections.
	Roughness float32

	// Index of refraction (glass only).
	IOR float32

	// Scaler for the warm tint added by subsurface materials.
	SubsurfaceAmount float32
}

// The packed two-vec4 layout of a material table record:
// {color, (type, roughness, ior, subsurface amount)}.
type PackedMaterial struct {
	Color  types.Vec4
	Params types.Vec4
}

// Pack material into its table record layout.
func (m Material) Pack() PackedMaterial {
	return PackedMaterial{
		Color:  m.BaseColor,
		Params: types.Vec4{float32(m.Type), m.Roughness, m.IOR, m.SubsurfaceAmount},
	}
}

// Unpack a material table record. Type tags must be exact integral values
// of a known material type.
func UnpackMaterial(pm PackedMaterial) (Material, error) {
	tag := pm.Params[0]
	if tag < 0 || tag >= float32(numMaterialTypes) || tag != float32(int(tag)) {
		return Material{}, fmt.Errorf("material: invalid type tag %v", tag)
	}
	matType := MaterialType(tag)

	return Material{
		BaseColor:        pm.Color,
		Type:             matType,
		Roughness:        pm.Params[1],
		IOR:              pm.Params[2],
		SubsurfaceAmount: pm.Params[3],
	}, nil
}

// A handle to a material table owned by a scene.
type TableHandle uint32
