package shadows

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidSettings wraps every Validate failure.
var ErrInvalidSettings = errors.New("shadows: invalid settings")

// FilterMode is the PCF kernel used when sampling the atlas. PCF2x2 is the
// hardware bilinear comparison and needs no selector.
type FilterMode int

const (
	FilterPCF2x2 FilterMode = iota
	FilterPCF3x3
	FilterPCF5x5
	FilterPCF7x7
)

var filterNames = [...]string{"pcf2x2", "pcf3x3", "pcf5x5", "pcf7x7"}

func (f FilterMode) String() string {
	if f < 0 || int(f) >= len(filterNames) {
		return fmt.Sprintf("FilterMode(%d)", int(f))
	}
	return filterNames[f]
}

func ParseFilterMode(s string) (FilterMode, error) {
	for i, n := range filterNames {
		if n == s {
			return FilterMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown filter %q", ErrInvalidSettings, s)
}

// CascadeBlendMode controls how adjacent cascades are blended.
type CascadeBlendMode int

const (
	CascadeBlendHard CascadeBlendMode = iota
	CascadeBlendSoft
	CascadeBlendDither
)

var blendNames = [...]string{"hard", "soft", "dither"}

func (b CascadeBlendMode) String() string {
	if b < 0 || int(b) >= len(blendNames) {
		return fmt.Sprintf("CascadeBlendMode(%d)", int(b))
	}
	return blendNames[b]
}

func ParseCascadeBlendMode(s string) (CascadeBlendMode, error) {
	for i, n := range blendNames {
		if n == s {
			return CascadeBlendMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown cascade blend %q", ErrInvalidSettings, s)
}

// DirectionalSettings configures the directional shadow atlas.
type DirectionalSettings struct {
	AtlasSize     int
	Filter        FilterMode
	CascadeCount  int
	CascadeRatio1 float32
	CascadeRatio2 float32
	CascadeRatio3 float32
	CascadeFade   float32
	CascadeBlend  CascadeBlendMode
}

// CascadeRatios packs the three split fractions the way the culling host expects them.
func (d DirectionalSettings) CascadeRatios() mgl32.Vec3 {
	return mgl32.Vec3{d.CascadeRatio1, d.CascadeRatio2, d.CascadeRatio3}
}

// Settings is the per-frame shadow configuration. It is treated as immutable
// while a frame is in flight.
type Settings struct {
	MaxDistance  float32
	DistanceFade float32
	Directional  DirectionalSettings
}

func DefaultSettings() Settings {
	return Settings{
		MaxDistance:  100,
		DistanceFade: 0.1,
		Directional: DirectionalSettings{
			AtlasSize:     1024,
			Filter:        FilterPCF2x2,
			CascadeCount:  4,
			CascadeRatio1: 0.1,
			CascadeRatio2: 0.25,
			CascadeRatio3: 0.5,
			CascadeFade:   0.1,
			CascadeBlend:  CascadeBlendHard,
		},
	}
}

const (
	MinAtlasSize = 256
	MaxAtlasSize = 8192
)

// Validate reports every out-of-range field. BeginFrame rejects settings that
// fail it.
func (s Settings) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidSettings}, args...)...))
	}

	if s.MaxDistance <= 0 {
		fail("max distance must be positive, got %g", s.MaxDistance)
	}
	if s.DistanceFade <= 0 || s.DistanceFade > 1 {
		fail("distance fade must be in (0, 1], got %g", s.DistanceFade)
	}

	d := s.Directional
	if d.AtlasSize < MinAtlasSize || d.AtlasSize > MaxAtlasSize || d.AtlasSize&(d.AtlasSize-1) != 0 {
		fail("atlas size must be a power of two in [%d, %d], got %d", MinAtlasSize, MaxAtlasSize, d.AtlasSize)
	}
	if d.CascadeCount < 1 || d.CascadeCount > MaxCascades {
		fail("cascade count must be in [1, %d], got %d", MaxCascades, d.CascadeCount)
	}
	r := d.CascadeRatios()
	if r[0] <= 0 || r[0] >= r[1] || r[1] >= r[2] || r[2] >= 1 {
		fail("cascade ratios must ascend strictly within (0, 1), got %v", r)
	}
	if d.CascadeFade <= 0 || d.CascadeFade > 1 {
		fail("cascade fade must be in (0, 1], got %g", d.CascadeFade)
	}
	if d.Filter < FilterPCF2x2 || d.Filter > FilterPCF7x7 {
		fail("unknown filter %d", int(d.Filter))
	}
	if d.CascadeBlend < CascadeBlendHard || d.CascadeBlend > CascadeBlendDither {
		fail("unknown cascade blend %d", int(d.CascadeBlend))
	}

	return errors.Join(errs...)
}
