package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-pedestals/internal/debugui"
	diag "github.com/coreman2200/funtimes-pedestals/internal/diagnostics"
	"github.com/coreman2200/funtimes-pedestals/internal/layout"
	"github.com/coreman2200/funtimes-pedestals/internal/led"
	"github.com/coreman2200/funtimes-pedestals/internal/patterns"
	"github.com/coreman2200/funtimes-pedestals/internal/pixel"
)

// Animator is the frame source the conductor drives.
type Animator interface {
	Tick(dt time.Duration)
	TakeFrame(dst []byte) ([]byte, bool)
	Snapshot(dst []byte) []byte
}

// Ticker is anything advanced once per frame before the animator.
type Ticker interface {
	Tick(dt time.Duration)
}

// Conductor owns the frame loop: tick the level and the animation, then push
// the frame to the output when it changed or the keepalive is due.
type Conductor struct {
	anim   Animator
	levels Ticker
	out    led.Driver
	lay    layout.Layout
	pixels int
	diag   *diag.Hub

	FPS       int
	Keepalive time.Duration

	mu        sync.Mutex
	pattern   *patterns.Runner
	patBuf    *pixel.Buffer
	frame     []byte
	sinceSend time.Duration
	forceSend bool

	frames    uint64
	skipped   uint64
	writeErrs uint64
	ticks     uint64
	failing   bool

	log  zerolog.Logger
	warn zerolog.Logger
}

// NewConductor wires the loop. levels and hub may be nil.
func NewConductor(a Animator, levels Ticker, out led.Driver, lay layout.Layout, pixels int, hub *diag.Hub) *Conductor {
	l := log.With().Str("component", "conductor").Logger()
	return &Conductor{
		anim:      a,
		levels:    levels,
		out:       out,
		lay:       lay,
		pixels:    pixels,
		diag:      hub,
		FPS:       60,
		Keepalive: time.Second,
		log:       l,
		warn:      l.Sample(&zerolog.BurstSampler{Burst: 1, Period: 5 * time.Second}),
	}
}

// Run ticks at FPS until ctx is done.
func (c *Conductor) Run(ctx context.Context) error {
	fps := c.FPS
	if fps <= 0 {
		fps = 60
	}
	dt := time.Second / time.Duration(fps)
	ticker := time.NewTicker(dt)
	defer ticker.Stop()
	c.log.Info().Int("fps", fps).Dur("keepalive", c.Keepalive).Msg("frame loop started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Step(dt)
		}
	}
}

// Step runs one frame and reports whether a frame went to the output.
func (c *Conductor) Step(dt time.Duration) bool {
	if c.levels != nil {
		c.levels.Tick(dt)
	}
	c.anim.Tick(dt)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	c.sinceSend += dt

	if c.pattern != nil {
		if c.pattern.Step(c.patBuf) {
			c.frame = c.patBuf.Snapshot(c.frame)
			return c.send()
		}
		c.publish(diag.Diagnostic{Severity: diag.Info, Code: diag.CodeTestDone, Summary: "Test complete", Detail: string(c.pattern.Kind())})
		c.pattern = nil
		c.forceSend = true
	}

	frame, dirty := c.anim.TakeFrame(c.frame)
	c.frame = frame
	if !dirty && !c.forceSend {
		if c.Keepalive <= 0 || c.sinceSend < c.Keepalive {
			c.skipped++
			return false
		}
	}
	if !dirty {
		c.frame = c.anim.Snapshot(c.frame)
	}
	return c.send()
}

func (c *Conductor) send() bool {
	c.sinceSend = 0
	c.forceSend = false
	c.frames++
	err := c.out.Write(c.frame)
	if err == nil {
		c.failing = false
		return true
	}
	c.writeErrs++
	c.warn.Warn().Err(err).Msg("frame write")
	// one diagnostic per run of failed writes
	if !c.failing {
		c.failing = true
		c.publish(diag.Diagnostic{
			Severity: diag.Err, Code: diag.CodeOutput, Summary: "Frame write failed",
			Detail:         err.Error(),
			SuggestedFixes: []string{"check the Art-Net node address and network link"},
			Evidence:       map[string]any{"frame": c.frames, "write_errors": c.writeErrs},
		})
	}
	return true
}

// RunPattern replaces the animation output with a test pattern until it
// finishes or StopPattern is called.
func (c *Conductor) RunPattern(kind patterns.Kind) error {
	if _, err := patterns.Parse(string(kind)); err != nil {
		c.publish(diag.Diagnostic{
			Severity: diag.Warn, Code: diag.CodeTestUnknown, Summary: "Unknown test name",
			Evidence: map[string]any{"name": string(kind)},
		})
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// sweeps advance every frame, the rest hold each step for a second
	hold := 1
	if kind != patterns.IndexSweep {
		hold = c.FPS
	}
	c.pattern = patterns.NewRunner(kind, c.lay, hold)
	if c.patBuf == nil {
		c.patBuf = pixel.New(c.pixels)
	}
	c.log.Info().Str("pattern", string(kind)).Msg("test pattern")
	c.publish(diag.Diagnostic{Severity: diag.Info, Code: diag.CodeTestRunning, Summary: "Running test", Detail: string(kind)})
	return nil
}

func (c *Conductor) StopPattern() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pattern != nil {
		c.pattern = nil
		c.forceSend = true
	}
}

// Pattern is the running test pattern, or patterns.None.
func (c *Conductor) Pattern() patterns.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pattern == nil {
		return patterns.None
	}
	return c.pattern.Kind()
}

func (c *Conductor) publish(d diag.Diagnostic) {
	if c.diag != nil {
		c.diag.Publish(d)
	}
}

type ConductorStats struct {
	Ticks, Frames, Skipped, WriteErrors uint64
}

func (c *Conductor) Stats() ConductorStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ConductorStats{Ticks: c.ticks, Frames: c.frames, Skipped: c.skipped, WriteErrors: c.writeErrs}
}

func (c *Conductor) RenderDebugUI(p *debugui.Panel) {
	s := c.Stats()
	p.Field("fps", c.FPS)
	p.Field("keepalive", c.Keepalive.String())
	p.Field("ticks", s.Ticks)
	p.Field("frames", s.Frames)
	p.Field("skipped", s.Skipped)
	p.Field("write_errors", s.WriteErrors)
	p.Field("pattern", string(c.Pattern()))
}
