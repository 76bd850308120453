package wisp

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// GrabConfig tunes grab manipulators.
type GrabConfig struct {
	Radius  float64 `yaml:"radius"`  // sphere radius of the handle, meters
	Padding float64 `yaml:"padding"` // extra hover distance beyond the radius
	// PinchDistance is the thumb to index distance below which a hand grabs.
	PinchDistance float64 `yaml:"pinch_distance"`
	// GrabThreshold is the grab or pinch_strength value above which a
	// sample grabs.
	GrabThreshold float64 `yaml:"grab_threshold"`
	// ScrollScale converts continuous scroll units into meters of ray length.
	ScrollScale float64 `yaml:"scroll_scale"`
	// DiscreteScrollScale converts scroll notches into meters of ray length.
	DiscreteScrollScale float64 `yaml:"discrete_scroll_scale"`
	MinRayLength        float64 `yaml:"min_ray_length"`
	// FeedbackDuration is how long color feedback takes to settle.
	FeedbackDuration time.Duration `yaml:"feedback_duration"`
}

// ResizeConfig tunes resize manipulator pairs.
type ResizeConfig struct {
	Margin  float64    `yaml:"margin"` // distance between panel edge and handle
	MinSize Vec2       `yaml:"min_size"`
	MaxSize Vec2       `yaml:"max_size"`
	Handle  GrabConfig `yaml:"handle"`
}

// AcceptorConfig tunes acceptor resolution.
type AcceptorConfig struct {
	CommitDistance float64 `yaml:"commit_distance"` // release closer than this to transfer
	FarDistance    float64 `yaml:"far_distance"`    // feedback starts here
}

// SurfaceConfig tunes surface input routing.
type SurfaceConfig struct {
	HoverDepth    DepthWindow   `yaml:"hover_depth"`
	PinchDistance float64       `yaml:"pinch_distance"`
	ButtonValue   float64       `yaml:"button_value"` // auxiliary value above which a button is held
	ClickFreeze   time.Duration `yaml:"click_freeze"`
	TouchRelease  float64       `yaml:"touch_release"` // retreat distance in front that lifts a touch
	StablePinch   bool          `yaml:"stable_pinch"`
}

// ButtonConfig tunes exposure buttons.
type ButtonConfig struct {
	Cooling float64 `yaml:"cooling"` // exposure lost per second
	Gain    float64 `yaml:"gain"`    // multiplier on accumulated penetration
	Flash   float64 `yaml:"flash"`   // exposure added per contact per frame
	Max     float64 `yaml:"max"`     // exposure at which the button fires
}

// LogConfig selects logger output.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // "console" or "json"
	File       string `yaml:"file"`   // empty logs to stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Config gathers every tunable of the package.
type Config struct {
	Grab     GrabConfig     `yaml:"grab"`
	Resize   ResizeConfig   `yaml:"resize"`
	Acceptor AcceptorConfig `yaml:"acceptor"`
	Surface  SurfaceConfig  `yaml:"surface"`
	Button   ButtonConfig   `yaml:"button"`
	Log      LogConfig      `yaml:"log"`
}

// DefaultGrabConfig returns the grab settings used by free-floating handles.
func DefaultGrabConfig() GrabConfig {
	return GrabConfig{
		Radius:              0.01,
		Padding:             0.02,
		PinchDistance:       0.02,
		GrabThreshold:       0.9,
		ScrollScale:         0.01,
		DiscreteScrollScale: 0.05,
		MinRayLength:        0.01,
		FeedbackDuration:    150 * time.Millisecond,
	}
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	handle := DefaultGrabConfig()
	handle.Radius = 0.005
	return Config{
		Grab: DefaultGrabConfig(),
		Resize: ResizeConfig{
			Margin:  0.025,
			MinSize: Vec2{0, 0},
			MaxSize: Vec2{4096, 4096},
			Handle:  handle,
		},
		Acceptor: AcceptorConfig{
			CommitDistance: 0.05,
			FarDistance:    0.25,
		},
		Surface: SurfaceConfig{
			HoverDepth:    DefaultHoverDepth,
			PinchDistance: 0.02,
			ButtonValue:   0.5,
			ClickFreeze:   300 * time.Millisecond,
			TouchRelease:  0.01,
			StablePinch:   true,
		},
		Button: ButtonConfig{
			Cooling: 5,
			Gain:    2,
			Flash:   0.25,
			Max:     1,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// ParseConfig decodes YAML on top of DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return ParseConfig(data)
}

// Validate reports every inconsistent setting.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	grabs := []struct {
		name string
		g    GrabConfig
	}{{"grab", c.Grab}, {"resize.handle", c.Resize.Handle}}
	for _, e := range grabs {
		name, g := e.name, e.g
		check(g.Radius > 0, "%s.radius must be positive, got %v", name, g.Radius)
		check(g.Padding >= 0, "%s.padding must not be negative, got %v", name, g.Padding)
		check(g.GrabThreshold > 0 && g.GrabThreshold <= 1, "%s.grab_threshold must be in (0, 1], got %v", name, g.GrabThreshold)
		check(g.MinRayLength > 0, "%s.min_ray_length must be positive, got %v", name, g.MinRayLength)
	}
	check(c.Resize.Margin >= 0, "resize.margin must not be negative, got %v", c.Resize.Margin)
	check(c.Resize.MinSize.X() <= c.Resize.MaxSize.X() && c.Resize.MinSize.Y() <= c.Resize.MaxSize.Y(),
		"resize.min_size %v exceeds max_size %v", c.Resize.MinSize, c.Resize.MaxSize)
	check(c.Acceptor.CommitDistance < c.Acceptor.FarDistance,
		"acceptor.commit_distance %v must be below far_distance %v", c.Acceptor.CommitDistance, c.Acceptor.FarDistance)
	check(c.Surface.HoverDepth.Min < c.Surface.HoverDepth.Max,
		"surface.hover_depth min %v must be below max %v", c.Surface.HoverDepth.Min, c.Surface.HoverDepth.Max)
	check(c.Surface.ClickFreeze >= 0, "surface.click_freeze must not be negative")
	check(c.Button.Max > 0, "button.max must be positive, got %v", c.Button.Max)
	switch c.Log.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want console or json", c.Log.Format))
	}
	return errors.Join(errs...)
}
