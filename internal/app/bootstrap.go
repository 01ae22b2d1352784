package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-pedestals/internal/anim"
	"github.com/coreman2200/funtimes-pedestals/internal/artnet"
	"github.com/coreman2200/funtimes-pedestals/internal/config"
	"github.com/coreman2200/funtimes-pedestals/internal/debugui"
	diag "github.com/coreman2200/funtimes-pedestals/internal/diagnostics"
	"github.com/coreman2200/funtimes-pedestals/internal/led"
	"github.com/coreman2200/funtimes-pedestals/internal/level"
	"github.com/coreman2200/funtimes-pedestals/internal/patterns"
	"github.com/coreman2200/funtimes-pedestals/internal/pixel"
	"github.com/coreman2200/funtimes-pedestals/internal/ws"
)

// Set with -ldflags "-X .../internal/app.Version=..."
var (
	Version   = "dev"
	BuildDate = ""
)

// Core is the assembled installation.
type Core struct {
	Cfg       *config.Config
	Buf       *pixel.Buffer
	Engine    *anim.Engine
	Level     *level.Orchestrator
	Conductor *Conductor
	Limiter   *led.Limiter
	Diag      *diag.Hub
	Debug     *debugui.Registry
	Preview   *ws.Preview

	driver  string
	outputs led.Multi
}

// Options adds outputs the config does not describe.
type Options struct {
	Drivers []led.Driver
	// Force replaces the configured output driver, e.g. "sim".
	Force string
}

func InitCore(ctx context.Context, cfg *config.Config, opt Options) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tm, err := cfg.Timing()
	if err != nil {
		return nil, err
	}
	c := &Core{
		Cfg:     cfg,
		Limiter: led.NewLimiter(cfg.Power.Brightness, cfg.Power.WhiteCap, cfg.Power.BudgetmA),
		Diag:    diag.NewHub(32),
		Debug:   debugui.NewRegistry(),
	}
	c.Limiter.SetGamma(cfg.Power.Gamma)

	// 1) Buffer, engine, level
	lay := cfg.Layout()
	c.Buf = pixel.New(cfg.PixelCount())
	c.Buf.RowWidth = lay.PixelsPerSegment
	c.Engine, err = anim.New(c.Buf, lay, tm, anim.WithStateHook(func(from, to anim.State, theme int) {
		c.Diag.Publish(diag.Diagnostic{
			Severity: diag.Info, Code: diag.CodeAnim, Summary: "animation " + to.String(),
			Evidence: map[string]any{"from": from.String(), "theme": theme},
		})
	}))
	if err != nil {
		return nil, err
	}
	c.Level, err = level.New(c.Engine, cfg.LevelConfig(), level.WithStateHook(func(from, to level.State, section int) {
		c.Diag.Publish(diag.Diagnostic{
			Severity: diag.Info, Code: diag.CodeLevel, Summary: "level " + to.String(),
			Evidence: map[string]any{"from": from.String(), "section": section},
		})
	}))
	if err != nil {
		return nil, err
	}

	// 2) Outputs
	if err := c.openOutputs(ctx, opt); err != nil {
		_ = c.outputs.Close()
		return nil, err
	}

	// 3) Frame loop
	out := &led.Limited{Driver: c.outputs, L: c.Limiter}
	c.Conductor = NewConductor(c.Engine, c.Level, out, lay, cfg.PixelCount(), c.Diag)
	c.Conductor.FPS = cfg.FPS
	c.Conductor.Keepalive = cfg.Keepalive.D()

	c.Debug.Register("engine", Version, BuildDate, c.Engine)
	c.Debug.Register("level", Version, BuildDate, c.Level)
	c.Debug.Register("conductor", Version, BuildDate, c.Conductor)
	return c, nil
}

func (c *Core) openOutputs(ctx context.Context, opt Options) error {
	cfg := c.Cfg
	c.driver = cfg.Driver
	if opt.Force != "" {
		c.driver = opt.Force
	}
	switch c.driver {
	case "artnet":
		tr, err := artnet.Dial(ctx, cfg.ArtNet.Host,
			artnet.WithPort(cfg.ArtNet.Port),
			artnet.WithSequence(cfg.ArtNet.Sequence))
		if err != nil {
			return fmt.Errorf("art-net: %w", err)
		}
		d := led.NewArtNet(tr)
		c.outputs = append(c.outputs, d)
		c.Debug.Register("artnet", Version, BuildDate, d)
	case "sim":
		c.outputs = append(c.outputs, led.NewSim(uint64(max(1, cfg.FPS))))
	default:
		return fmt.Errorf("unknown driver %q", c.driver)
	}

	if cfg.Mirror.Enabled {
		m, err := led.OpenNRZ(cfg.Mirror.Port, cfg.Mirror.Count, physic.Frequency(cfg.Mirror.FreqKHz)*physic.KiloHertz)
		if err != nil {
			log.Warn().Err(err).Str("port", cfg.Mirror.Port).Msg("NRZ mirror unavailable; continuing without it")
		} else {
			c.outputs = append(c.outputs, m)
		}
	}

	if cfg.HTTP.Addr != "" {
		lay := cfg.Layout()
		c.Preview = ws.NewPreview(cfg.HTTP.PreviewInterval.D(), ws.Topology{
			PixelsPerSegment: lay.PixelsPerSegment,
			Pedestals:        lay.Pedestals,
			Count:            cfg.PixelCount(),
			Driver:           c.driver,
		})
		c.outputs = append(c.outputs, c.Preview)
	}
	c.outputs = append(c.outputs, opt.Drivers...)
	return nil
}

// Run drives the frame loop until ctx is done.
func (c *Core) Run(ctx context.Context) error {
	err := c.Conductor.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Blackout writes one dark frame straight to the outputs.
func (c *Core) Blackout() error {
	return c.outputs.Write(make([]byte, c.Buf.Len()*3))
}

func (c *Core) Close() error {
	return c.outputs.Close()
}

// ---- ws.Control ----

func (c *Core) SelectSection(i int) error { return c.Level.SelectSection(i) }

func (c *Core) RequestIdle() error { return c.Level.RequestIdle() }

// SetAnim drives the engine directly, bypassing the level sequencing.
func (c *Core) SetAnim(s anim.State, theme int) error {
	c.Level.Touch()
	return c.Engine.SetState(s, theme)
}

func (c *Core) RunPattern(kind patterns.Kind) error { return c.Conductor.RunPattern(kind) }

func (c *Core) StopPattern() { c.Conductor.StopPattern() }

func (c *Core) SetBrightness(b float64) {
	c.Limiter.SetBrightness(b)
	log.Info().Float64("brightness", c.Limiter.Brightness()).Msg("brightness")
}

func (c *Core) Status() map[string]any {
	st := c.Conductor.Stats()
	return map[string]any{
		"version":    Version,
		"driver":     c.driver,
		"level":      c.Level.State().String(),
		"section":    c.Level.Section(),
		"anim":       c.Engine.State().String(),
		"theme":      c.Engine.Theme(),
		"pattern":    string(c.Conductor.Pattern()),
		"brightness": c.Limiter.Brightness(),
		"frames":     st.Frames,
		"count":      c.Buf.Len(),
		"fps":        c.Conductor.FPS,
		"time":       time.Now().UTC().Format(time.RFC3339),
	}
}

// Server returns the HTTP surface bound to this core.
func (c *Core) Server() *ws.Server {
	return ws.NewServer(c, c.Preview, c.Diag, c.Debug)
}
