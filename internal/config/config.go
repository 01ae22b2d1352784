package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-pedestals/internal/anim"
	"github.com/coreman2200/funtimes-pedestals/internal/layout"
	"github.com/coreman2200/funtimes-pedestals/internal/level"
	"github.com/coreman2200/funtimes-pedestals/internal/pixel"
)

// Duration reads and writes Go duration strings ("300ms", "2s").
type Duration time.Duration

func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	v, err := time.ParseDuration(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = Duration(v)
	return nil
}

type ArtNet struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Sequence bool   `yaml:"sequence"`
}

type LEDs struct {
	PixelsPerSegment int `yaml:"pixels_per_segment"`
	Pedestals        int `yaml:"pedestals"`
	// Count overrides the buffer size; 0 uses the layout's count.
	Count int `yaml:"count,omitempty"`
}

type Animation struct {
	IdleHold     Duration `yaml:"idle_hold"`
	WaveFade     Duration `yaml:"wave_fade"`
	WaveFloor    float64  `yaml:"wave_floor"`
	WaveInterval Duration `yaml:"wave_interval"`

	PulseCount int      `yaml:"pulse_count"`
	PulseFlash Duration `yaml:"pulse_flash"`
	PulseFade  Duration `yaml:"pulse_fade"`
	PulseRest  Duration `yaml:"pulse_rest"`

	FadeOut         Duration `yaml:"fade_out"`
	FadeOutInterval Duration `yaml:"fade_out_interval"`
	RotationStep    Duration `yaml:"rotation_step"`
	RotationLength  int      `yaml:"rotation_length,omitempty"`
	ReturnFade      Duration `yaml:"return_fade"`

	Ease  string `yaml:"ease"`
	Color string `yaml:"color"` // #rrggbb
}

type Level struct {
	TransitionTime Duration `yaml:"transition_time"`
	IdleTimeout    Duration `yaml:"idle_timeout"` // 0 disables
}

type HTTP struct {
	Addr            string   `yaml:"addr"` // empty disables the server
	PreviewInterval Duration `yaml:"preview_interval"`
}

type Mirror struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port"` // spireg name, "" for the first
	Count   int    `yaml:"count"`
	FreqKHz int    `yaml:"freq_khz"`
}

type GPIO struct {
	Chip     string   `yaml:"chip"`
	Sections []int    `yaml:"sections,omitempty"` // line offsets for sections 1..n
	Idle     int      `yaml:"idle"`               // line offset, -1 for none
	Debounce Duration `yaml:"debounce"`
}

type Power struct {
	Brightness float64 `yaml:"brightness"`
	// WhiteCap limits r+g+b per LED as a fraction of full white; 0 disables.
	WhiteCap float64 `yaml:"white_cap"`
	BudgetmA   float64 `yaml:"budget_ma"`
	// Gamma is the output curve exponent; 0 or 1 leaves values linear.
	Gamma float64 `yaml:"gamma,omitempty"`
}

type Config struct {
	Driver    string   `yaml:"driver"` // "artnet" | "sim"
	FPS       int      `yaml:"fps"`
	Keepalive Duration `yaml:"keepalive"`

	ArtNet    ArtNet    `yaml:"artnet"`
	LEDs      LEDs      `yaml:"leds"`
	Animation Animation `yaml:"animation"`
	Level     Level     `yaml:"level"`
	HTTP      HTTP      `yaml:"http"`
	Mirror    Mirror    `yaml:"mirror"`
	GPIO      GPIO      `yaml:"gpio"`
	Power     Power     `yaml:"power"`
}

func Default() *Config {
	tm := anim.DefaultTiming()
	lay := layout.Default()
	lv := level.DefaultConfig()
	return &Config{
		Driver:    "artnet",
		FPS:       60,
		Keepalive: Duration(time.Second),
		ArtNet:    ArtNet{Host: "localhost", Port: 6454},
		LEDs:      LEDs{PixelsPerSegment: lay.PixelsPerSegment, Pedestals: lay.Pedestals},
		Animation: Animation{
			IdleHold:        Duration(tm.IdleHold),
			WaveFade:        Duration(tm.WaveFade),
			WaveFloor:       tm.WaveFloor,
			WaveInterval:    Duration(tm.WaveInterval),
			PulseCount:      tm.PulseCount,
			PulseFlash:      Duration(tm.PulseFlash),
			PulseFade:       Duration(tm.PulseFade),
			PulseRest:       Duration(tm.PulseRest),
			FadeOut:         Duration(tm.FadeOut),
			FadeOutInterval: Duration(tm.FadeOutInterval),
			RotationStep:    Duration(tm.RotationStep),
			ReturnFade:      Duration(tm.ReturnFade),
			Ease:            tm.Ease,
			Color:           tm.Color.Hex(),
		},
		Level: Level{
			TransitionTime: Duration(lv.TransitionTime),
			IdleTimeout:    Duration(lv.IdleTimeout),
		},
		HTTP:   HTTP{Addr: ":8080", PreviewInterval: Duration(50 * time.Millisecond)},
		Mirror: Mirror{Count: 60, FreqKHz: 800},
		GPIO:   GPIO{Chip: "gpiochip0", Idle: -1, Debounce: Duration(20 * time.Millisecond)},
		Power:  Power{Brightness: 1},
	}
}

// Load reads path over the defaults, so a partial file only overrides
// what it names.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Driver {
	case "artnet", "sim":
	default:
		errs = append(errs, fmt.Errorf("driver %q: want artnet or sim", c.Driver))
	}
	if c.FPS <= 0 || c.FPS > 1000 {
		errs = append(errs, fmt.Errorf("fps %d out of range", c.FPS))
	}
	if c.Driver == "artnet" && c.ArtNet.Host == "" {
		errs = append(errs, errors.New("artnet.host is required"))
	}
	if err := c.Layout().Validate(c.PixelCount()); err != nil {
		errs = append(errs, err)
	}
	if _, err := pixel.Hex(c.Animation.Color); err != nil {
		errs = append(errs, fmt.Errorf("animation.color: %w", err))
	}
	if c.Power.Brightness < 0 || c.Power.Brightness > 1 {
		errs = append(errs, fmt.Errorf("power.brightness %.2f not in [0,1]", c.Power.Brightness))
	}
	if c.Power.Gamma < 0 {
		errs = append(errs, fmt.Errorf("power.gamma %.2f is negative", c.Power.Gamma))
	}
	if len(c.GPIO.Sections) > c.LEDs.Pedestals {
		errs = append(errs, fmt.Errorf("gpio.sections lists %d lines for %d pedestals", len(c.GPIO.Sections), c.LEDs.Pedestals))
	}
	return errors.Join(errs...)
}

func (c *Config) Layout() layout.Layout {
	return layout.Layout{PixelsPerSegment: c.LEDs.PixelsPerSegment, Pedestals: c.LEDs.Pedestals}
}

// PixelCount is the size of the LED buffer.
func (c *Config) PixelCount() int {
	if c.LEDs.Count > 0 {
		return c.LEDs.Count
	}
	return c.Layout().Count()
}

func (c *Config) Timing() (anim.Timing, error) {
	a := c.Animation
	col, err := pixel.Hex(a.Color)
	if err != nil {
		return anim.Timing{}, fmt.Errorf("animation.color: %w", err)
	}
	return anim.Timing{
		IdleHold:        a.IdleHold.D(),
		WaveFade:        a.WaveFade.D(),
		WaveFloor:       a.WaveFloor,
		WaveInterval:    a.WaveInterval.D(),
		PulseCount:      a.PulseCount,
		PulseFlash:      a.PulseFlash.D(),
		PulseFade:       a.PulseFade.D(),
		PulseRest:       a.PulseRest.D(),
		FadeOut:         a.FadeOut.D(),
		FadeOutInterval: a.FadeOutInterval.D(),
		RotationStep:    a.RotationStep.D(),
		RotationLength:  a.RotationLength,
		ReturnFade:      a.ReturnFade.D(),
		Ease:            a.Ease,
		Color:           col,
	}, nil
}

func (c *Config) LevelConfig() level.Config {
	return level.Config{
		Sections:       c.LEDs.Pedestals,
		TransitionTime: c.Level.TransitionTime.D(),
		IdleTimeout:    c.Level.IdleTimeout.D(),
	}
}
