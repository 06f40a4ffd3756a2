package csm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/gekko3d/csm/rt/lighting"
	"github.com/gekko3d/csm/rt/shadows"
)

// Config is the file and environment configuration of a pipeline.
type Config struct {
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Shadows  ShadowConfig   `mapstructure:"shadows" yaml:"shadows"`
	Lighting LightingConfig `mapstructure:"lighting" yaml:"lighting"`
	Host     HostConfig     `mapstructure:"host" yaml:"host"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

type PipelineConfig struct {
	UseDynamicBatching bool `mapstructure:"use_dynamic_batching" yaml:"use_dynamic_batching"`
	UseGPUInstancing   bool `mapstructure:"use_gpu_instancing" yaml:"use_gpu_instancing"`
	UseSRPBatcher      bool `mapstructure:"use_srp_batcher" yaml:"use_srp_batcher"`
}

type ShadowConfig struct {
	MaxDistance  float32           `mapstructure:"max_distance" yaml:"max_distance"`
	DistanceFade float32           `mapstructure:"distance_fade" yaml:"distance_fade"`
	Directional  DirectionalConfig `mapstructure:"directional" yaml:"directional"`
}

type DirectionalConfig struct {
	AtlasSize     int     `mapstructure:"atlas_size" yaml:"atlas_size"`
	Filter        string  `mapstructure:"filter" yaml:"filter"`
	CascadeCount  int     `mapstructure:"cascade_count" yaml:"cascade_count"`
	CascadeRatio1 float32 `mapstructure:"cascade_ratio_1" yaml:"cascade_ratio_1"`
	CascadeRatio2 float32 `mapstructure:"cascade_ratio_2" yaml:"cascade_ratio_2"`
	CascadeRatio3 float32 `mapstructure:"cascade_ratio_3" yaml:"cascade_ratio_3"`
	CascadeFade   float32 `mapstructure:"cascade_fade" yaml:"cascade_fade"`
	CascadeBlend  string  `mapstructure:"cascade_blend" yaml:"cascade_blend"`
}

type LightingConfig struct {
	// CountPolicy is "filled" or "visible".
	CountPolicy string `mapstructure:"count_policy" yaml:"count_policy"`
}

// HostConfig stands in for platform facts a real host would report.
type HostConfig struct {
	ReversedZ bool `mapstructure:"reversed_z" yaml:"reversed_z"`
	// ShadowmaskMode is "shadowmask" or "distance".
	ShadowmaskMode string `mapstructure:"shadowmask_mode" yaml:"shadowmask_mode"`
}

type LogConfig struct {
	Debug  bool   `mapstructure:"debug" yaml:"debug"`
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
}

func DefaultConfig() *Config {
	s := shadows.DefaultSettings()
	d := s.Directional
	return &Config{
		Pipeline: PipelineConfig{
			UseDynamicBatching: true,
			UseGPUInstancing:   true,
			UseSRPBatcher:      true,
		},
		Shadows: ShadowConfig{
			MaxDistance:  s.MaxDistance,
			DistanceFade: s.DistanceFade,
			Directional: DirectionalConfig{
				AtlasSize:     d.AtlasSize,
				Filter:        d.Filter.String(),
				CascadeCount:  d.CascadeCount,
				CascadeRatio1: d.CascadeRatio1,
				CascadeRatio2: d.CascadeRatio2,
				CascadeRatio3: d.CascadeRatio3,
				CascadeFade:   d.CascadeFade,
				CascadeBlend:  d.CascadeBlend.String(),
			},
		},
		Lighting: LightingConfig{CountPolicy: lighting.CountFilled.String()},
		Host:     HostConfig{ShadowmaskMode: "shadowmask"},
		Log:      LogConfig{Prefix: "csm"},
	}
}

// LoadConfig reads path (if set) over the defaults, then applies CSM_*
// environment variables, e.g. CSM_SHADOWS_DIRECTIONAL_ATLAS_SIZE.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CSM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("pipeline.use_dynamic_batching", d.Pipeline.UseDynamicBatching)
	v.SetDefault("pipeline.use_gpu_instancing", d.Pipeline.UseGPUInstancing)
	v.SetDefault("pipeline.use_srp_batcher", d.Pipeline.UseSRPBatcher)
	v.SetDefault("shadows.max_distance", d.Shadows.MaxDistance)
	v.SetDefault("shadows.distance_fade", d.Shadows.DistanceFade)
	v.SetDefault("shadows.directional.atlas_size", d.Shadows.Directional.AtlasSize)
	v.SetDefault("shadows.directional.filter", d.Shadows.Directional.Filter)
	v.SetDefault("shadows.directional.cascade_count", d.Shadows.Directional.CascadeCount)
	v.SetDefault("shadows.directional.cascade_ratio_1", d.Shadows.Directional.CascadeRatio1)
	v.SetDefault("shadows.directional.cascade_ratio_2", d.Shadows.Directional.CascadeRatio2)
	v.SetDefault("shadows.directional.cascade_ratio_3", d.Shadows.Directional.CascadeRatio3)
	v.SetDefault("shadows.directional.cascade_fade", d.Shadows.Directional.CascadeFade)
	v.SetDefault("shadows.directional.cascade_blend", d.Shadows.Directional.CascadeBlend)
	v.SetDefault("lighting.count_policy", d.Lighting.CountPolicy)
	v.SetDefault("host.reversed_z", d.Host.ReversedZ)
	v.SetDefault("host.shadowmask_mode", d.Host.ShadowmaskMode)
	v.SetDefault("log.debug", d.Log.Debug)
	v.SetDefault("log.prefix", d.Log.Prefix)
}

// ShadowSettings converts the shadow section. It does not validate ranges.
func (c *Config) ShadowSettings() (shadows.Settings, error) {
	d := c.Shadows.Directional
	filter, err := shadows.ParseFilterMode(d.Filter)
	if err != nil {
		return shadows.Settings{}, err
	}
	blend, err := shadows.ParseCascadeBlendMode(d.CascadeBlend)
	if err != nil {
		return shadows.Settings{}, err
	}
	return shadows.Settings{
		MaxDistance:  c.Shadows.MaxDistance,
		DistanceFade: c.Shadows.DistanceFade,
		Directional: shadows.DirectionalSettings{
			AtlasSize:     d.AtlasSize,
			Filter:        filter,
			CascadeCount:  d.CascadeCount,
			CascadeRatio1: d.CascadeRatio1,
			CascadeRatio2: d.CascadeRatio2,
			CascadeRatio3: d.CascadeRatio3,
			CascadeFade:   d.CascadeFade,
			CascadeBlend:  blend,
		},
	}, nil
}

func (c *Config) Capabilities() (shadows.StaticCapabilities, error) {
	caps := shadows.StaticCapabilities{ReversedZ: c.Host.ReversedZ}
	switch c.Host.ShadowmaskMode {
	case "shadowmask":
		caps.Shadowmask = shadows.ShadowmaskModeShadowmask
	case "distance":
		caps.Shadowmask = shadows.ShadowmaskModeDistance
	default:
		return caps, fmt.Errorf("unknown shadowmask mode %q", c.Host.ShadowmaskMode)
	}
	return caps, nil
}

func (c *Config) PipelineSettings() (PipelineSettings, error) {
	s, err := c.ShadowSettings()
	if err != nil {
		return PipelineSettings{}, err
	}
	return PipelineSettings{
		UseDynamicBatching: c.Pipeline.UseDynamicBatching,
		UseGPUInstancing:   c.Pipeline.UseGPUInstancing,
		UseSRPBatcher:      c.Pipeline.UseSRPBatcher,
		Shadows:            s,
	}, nil
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	if s, err := c.ShadowSettings(); err != nil {
		errs = append(errs, err)
	} else if err := s.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Capabilities(); err != nil {
		errs = append(errs, err)
	}
	if _, err := lighting.ParseCountPolicy(c.Lighting.CountPolicy); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}
