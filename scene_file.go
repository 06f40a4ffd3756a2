package csm

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/gekko3d/csm/rt/core"
	"github.com/gekko3d/csm/rt/shadows"
	"github.com/gekko3d/csm/rt/soft"
)

// SceneFile is the YAML description of a test scene.
type SceneFile struct {
	Camera  CameraSpec   `yaml:"camera"`
	Lights  []LightSpec  `yaml:"lights"`
	Casters []CasterSpec `yaml:"casters"`
}

type CameraSpec struct {
	Name        string     `yaml:"name"`
	Position    [3]float32 `yaml:"position"`
	LookAt      [3]float32 `yaml:"look_at"`
	FieldOfView float32    `yaml:"fov"`
	Aspect      float32    `yaml:"aspect"`
	Near        float32    `yaml:"near"`
	Far         float32    `yaml:"far"`
}

type LightSpec struct {
	Name      string     `yaml:"name"`
	Type      string     `yaml:"type"` // directional, point, spot
	Color     [3]float32 `yaml:"color"`
	Intensity *float32   `yaml:"intensity"`
	Position  [3]float32 `yaml:"position"`
	Direction [3]float32 `yaml:"direction"`
	Range     float32    `yaml:"range"`

	Shadows     string   `yaml:"shadows"` // none, hard, soft
	Strength    *float32 `yaml:"strength"`
	Bias        float32  `yaml:"bias"`
	NormalBias  float32  `yaml:"normal_bias"`
	NearPlane   float32  `yaml:"near_plane"`
	Bake        string   `yaml:"bake"`       // realtime, mixed, baked
	MixedMode   string   `yaml:"mixed_mode"` // indirect, shadowmask, subtractive
	MaskChannel int      `yaml:"mask_channel"`
}

type CasterSpec struct {
	Name string     `yaml:"name"`
	Min  [3]float32 `yaml:"min"`
	Max  [3]float32 `yaml:"max"`
}

// ErrSceneFile wraps every problem found while building a scene.
var ErrSceneFile = errors.New("invalid scene file")

func LoadScene(path string) (*core.CameraState, *soft.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	return ParseScene(data)
}

func ParseScene(data []byte) (*core.CameraState, *soft.Scene, error) {
	var f SceneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("failed to parse scene file: %w", err)
	}
	return f.Build()
}

// Build turns the file into a camera and a software scene.
func (f *SceneFile) Build() (*core.CameraState, *soft.Scene, error) {
	cam := f.Camera.build()
	scene := &soft.Scene{}

	var errs []error
	for i, ls := range f.Lights {
		l, err := ls.build()
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: light %d (%s): %w", ErrSceneFile, i, ls.Name, err))
			continue
		}
		scene.AddLight(l)
	}
	for _, c := range f.Casters {
		b := core.EmptyAABB().Encapsulate(mgl32.Vec3(c.Min)).Encapsulate(mgl32.Vec3(c.Max))
		scene.AddCaster(c.Name, b)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, nil, err
	}
	return cam, scene, nil
}

func (c CameraSpec) build() *core.CameraState {
	cam := core.NewCameraState()
	if c.Name != "" {
		cam.Name = c.Name
	}
	if c.FieldOfView > 0 {
		cam.FieldOfView = c.FieldOfView
	}
	if c.Aspect > 0 {
		cam.Aspect = c.Aspect
	}
	if c.Near > 0 {
		cam.Near = c.Near
	}
	if c.Far > 0 {
		cam.Far = c.Far
	}
	pos := mgl32.Vec3(c.Position)
	dir := mgl32.Vec3(c.LookAt).Sub(pos)
	if dir.Len() < 1e-6 {
		dir = mgl32.Vec3{0, 0, 1}
	}
	cam.Transform = core.LookRotation(pos, dir, mgl32.Vec3{0, 1, 0})
	return cam
}

func (ls LightSpec) build() (soft.Light, error) {
	comp := &LightComponent{
		Color:            ls.Color,
		Intensity:        1,
		Range:            ls.Range,
		ShadowStrength:   1,
		ShadowBias:       ls.Bias,
		ShadowNormalBias: ls.NormalBias,
		ShadowNearPlane:  ls.NearPlane,
	}
	if ls.Color == [3]float32{} {
		comp.Color = [3]float32{1, 1, 1}
	}
	if ls.Intensity != nil {
		comp.Intensity = *ls.Intensity
	}
	if ls.Strength != nil {
		comp.ShadowStrength = *ls.Strength
	}

	switch ls.Type {
	case "directional", "":
		comp.Type = shadows.LightTypeDirectional
	case "point":
		comp.Type = shadows.LightTypePoint
	case "spot":
		comp.Type = shadows.LightTypeSpot
	default:
		return soft.Light{}, fmt.Errorf("unknown type %q", ls.Type)
	}

	switch ls.Shadows {
	case "none", "":
		comp.Shadows = shadows.ShadowsNone
	case "hard":
		comp.Shadows = shadows.ShadowsHard
	case "soft":
		comp.Shadows = shadows.ShadowsSoft
	default:
		return soft.Light{}, fmt.Errorf("unknown shadow mode %q", ls.Shadows)
	}

	switch ls.Bake {
	case "realtime", "":
		comp.Baking.BakeType = shadows.BakeRealtime
	case "mixed":
		comp.Baking.BakeType = shadows.BakeMixed
	case "baked":
		comp.Baking.BakeType = shadows.BakeBaked
	default:
		return soft.Light{}, fmt.Errorf("unknown bake type %q", ls.Bake)
	}

	switch ls.MixedMode {
	case "indirect", "":
		comp.Baking.MixedMode = shadows.MixedIndirectOnly
	case "shadowmask":
		comp.Baking.MixedMode = shadows.MixedShadowmask
	case "subtractive":
		comp.Baking.MixedMode = shadows.MixedSubtractive
	default:
		return soft.Light{}, fmt.Errorf("unknown mixed mode %q", ls.MixedMode)
	}
	if ls.MaskChannel < 0 || ls.MaskChannel > 3 {
		return soft.Light{}, fmt.Errorf("mask channel %d outside 0-3", ls.MaskChannel)
	}
	comp.Baking.OcclusionMaskChannel = ls.MaskChannel

	dir := mgl32.Vec3(ls.Direction)
	if dir.Len() < 1e-6 {
		dir = mgl32.Vec3{0, -1, 0}
	}
	t := core.LookRotation(mgl32.Vec3(ls.Position), dir, mgl32.Vec3{0, 1, 0})

	return soft.Light{Name: ls.Name, Visible: comp.VisibleLight(t), Range: ls.Range}, nil
}
