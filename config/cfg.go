package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"flipbook/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	FlipConfig struct {
		Speed           float64 `yaml:"speed" validate:"gt=0,lte=1"`
		CommitThreshold float64 `yaml:"commit_threshold" validate:"gt=0,lt=1"`
	}

	GesturesConfig struct {
		ClickThreshold     time.Duration `yaml:"click_threshold" validate:"gt=0"`
		MoveThreshold      float64       `yaml:"move_threshold" validate:"gte=0"`
		DoubleTapThreshold time.Duration `yaml:"double_tap_threshold" validate:"gt=0"`
		SingleClickDelay   time.Duration `yaml:"single_click_delay" validate:"gte=0"`
		CenterZone         float64       `yaml:"center_zone" validate:"gte=0,lte=1"`
		VelocityThreshold  float64       `yaml:"velocity_threshold" validate:"gte=0"`
		VelocityWindow     time.Duration `yaml:"velocity_window" validate:"gt=0"`
	}

	ZoomConfig struct {
		Scale             float64       `yaml:"scale" validate:"gtfield=Min"`
		Min               float64       `yaml:"min" validate:"gt=0"`
		Max               float64       `yaml:"max" validate:"gtefield=Scale"`
		RubberRange       float64       `yaml:"rubber_range" validate:"gte=0,lte=1"`
		ResetThreshold    float64       `yaml:"reset_threshold" validate:"gte=1"`
		AnimationDuration time.Duration `yaml:"animation_duration" validate:"gt=0"`
	}

	RubberBandConfig struct {
		Resistance   float64       `yaml:"resistance" validate:"gt=0,lt=1"`
		MaxDistance  float64       `yaml:"max_distance" validate:"gt=0"`
		SnapDuration time.Duration `yaml:"snap_duration" validate:"gt=0"`
	}

	InertiaConfig struct {
		Deceleration float64 `yaml:"deceleration" validate:"gt=0,lt=1"`
		StopVelocity float64 `yaml:"stop_velocity" validate:"gt=0"`
	}

	LinksConfig struct {
		FadeDelay time.Duration `yaml:"fade_delay" validate:"gte=0"`
		FadeOut   float64       `yaml:"fade_out" validate:"gt=0,lte=1"`
		FadeIn    float64       `yaml:"fade_in" validate:"gt=0,lte=1"`
	}

	ViewerConfig struct {
		Mode           common.ViewMode  `yaml:"mode" validate:"gte=0"`
		StartWithCover bool             `yaml:"start_with_cover"`
		PixelRatio     float64          `yaml:"device_pixel_ratio" validate:"gt=0,lte=8"`
		DefaultAspect  float64          `yaml:"default_aspect" validate:"gt=0"`
		ResizeDebounce time.Duration    `yaml:"resize_debounce" validate:"gte=0"`
		Flip           FlipConfig       `yaml:"flip"`
		Gestures       GesturesConfig   `yaml:"gestures"`
		Zoom           ZoomConfig       `yaml:"zoom"`
		RubberBand     RubberBandConfig `yaml:"rubber_band"`
		Inertia        InertiaConfig    `yaml:"inertia"`
		Links          LinksConfig      `yaml:"links"`
	}

	BuffersConfig struct {
		Single int `yaml:"single" validate:"min=1"`
		Double int `yaml:"double" validate:"min=2"`
	}

	CacheConfig struct {
		Buffers             BuffersConfig `yaml:"buffers"`
		InitialBuffers      BuffersConfig `yaml:"initial_buffers"`
		LowFidelityScale    float64       `yaml:"low_fidelity_scale" validate:"gt=0,lte=1"`
		HighFidelityDelay   time.Duration `yaml:"high_fidelity_delay" validate:"gte=0"`
		FlipRefreshDelay    time.Duration `yaml:"flip_refresh_delay" validate:"gte=0"`
		ModeSwitchDelay     time.Duration `yaml:"mode_switch_delay" validate:"gte=0"`
		InitialRefreshDelay time.Duration `yaml:"initial_refresh_delay" validate:"gte=0"`
		FetchTimeout        time.Duration `yaml:"fetch_timeout" validate:"gte=0"`
		Parallelism         int           `yaml:"parallelism" validate:"min=1,max=64"`
		ZipCodePage         string        `yaml:"zip_code_page,omitempty"`
	}

	ReplayConfig struct {
		Width                float64       `yaml:"width" validate:"gt=0"`
		Height               float64       `yaml:"height" validate:"gt=0"`
		FrameInterval        time.Duration `yaml:"frame_interval" validate:"gt=0"`
		SnapshotNameTemplate string        `yaml:"snapshot_name_template" validate:"required"`
		Background           string        `yaml:"background" validate:"omitempty,hexcolor"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Viewer    ViewerConfig   `yaml:"viewer"`
		Cache     CacheConfig    `yaml:"cache"`
		Replay    ReplayConfig   `yaml:"replay"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, snapshot names are expanded
	// during replay, not when configuration is loaded
	SnapshotNameTemplateFieldName TemplateFieldName = "snapshot_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(SnapshotNameTemplateFieldName)),
)

// Buffer returns number of pages to keep around current page for given
// page mode.
func (c *CacheConfig) Buffer(singlePage bool) int {
	if singlePage {
		return c.Buffers.Single
	}
	return c.Buffers.Double
}

// InitialBuffer returns number of pages to load right after document is
// opened.
func (c *CacheConfig) InitialBuffer(singlePage bool) int {
	if singlePage {
		return c.InitialBuffers.Single
	}
	return c.InitialBuffers.Double
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Default returns expanded and validated configuration template. It panics if
// embedded template is broken, which is a build problem.
func Default() *Config {
	cfg, err := LoadConfiguration("")
	if err != nil {
		panic(fmt.Sprintf("bad embedded configuration: %v", err))
	}
	return cfg
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
