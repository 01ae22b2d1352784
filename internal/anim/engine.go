// Package anim drives the pedestal and reader LEDs through the Idle,
// Active and ReturnToIdle animations.
//
// All buffer writes happen inside Tick and SetState under the engine lock.
// The engine marks the buffer dirty and leaves sending to the caller.
package anim

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-pedestals/internal/debugui"
	"github.com/coreman2200/funtimes-pedestals/internal/layout"
	"github.com/coreman2200/funtimes-pedestals/internal/pixel"
)

type State int

const (
	Idle State = iota
	Active
	ReturnToIdle
)

var (
	ErrInvalidState = errors.New("invalid animation state")
	ErrInvalidTheme = errors.New("invalid theme index")
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case ReturnToIdle:
		return "return_to_idle"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ParseState accepts the String form, case-insensitively.
func ParseState(s string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "idle":
		return Idle, nil
	case "active":
		return Active, nil
	case "return_to_idle", "returntoidle", "return":
		return ReturnToIdle, nil
	}
	return Idle, fmt.Errorf("%w: %q", ErrInvalidState, s)
}

// Timing holds every duration and level the routines use.
type Timing struct {
	IdleHold     time.Duration
	WaveFade     time.Duration
	WaveFloor    float64
	WaveInterval time.Duration

	PulseCount int
	PulseFlash time.Duration
	PulseFade  time.Duration
	PulseRest  time.Duration

	FadeOut         time.Duration
	FadeOutInterval time.Duration

	// RotationStep is the time between one-pixel advances; zero advances
	// every tick.
	RotationStep time.Duration
	// RotationLength is the lit run length; zero means a quarter segment.
	RotationLength int

	ReturnFade time.Duration

	Ease  string
	Color pixel.RGB
}

func DefaultTiming() Timing {
	return Timing{
		IdleHold:        2 * time.Second,
		WaveFade:        300 * time.Millisecond,
		WaveFloor:       0.7,
		WaveInterval:    100 * time.Millisecond,
		PulseCount:      2,
		PulseFlash:      100 * time.Millisecond,
		PulseFade:       500 * time.Millisecond,
		PulseRest:       time.Second,
		FadeOut:         100 * time.Millisecond,
		FadeOutInterval: 100 * time.Millisecond,
		RotationStep:    50 * time.Millisecond,
		ReturnFade:      time.Second,
		Ease:            "linear",
		Color:           pixel.White,
	}
}

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.log = l } }

// WithStateHook registers fn for every state change. fn runs under the
// engine lock and must not call back into the engine.
func WithStateHook(fn func(from, to State, theme int)) Option {
	return func(e *Engine) { e.onState = fn }
}

type Engine struct {
	mu    sync.Mutex
	buf   *pixel.Buffer
	lay   layout.Layout
	tm    Timing
	ease  Ease
	sched Scheduler

	state State
	theme int
	dirty bool

	transitions uint64
	writeErrs   uint64

	log     zerolog.Logger
	onState func(from, to State, theme int)
}

// New returns an engine in Idle with the idle routine scheduled.
func New(buf *pixel.Buffer, lay layout.Layout, tm Timing, opts ...Option) (*Engine, error) {
	if buf == nil {
		return nil, errors.New("nil pixel buffer")
	}
	if err := lay.Validate(buf.Len()); err != nil {
		return nil, err
	}
	e := &Engine{
		buf:   buf,
		lay:   lay,
		tm:    tm,
		ease:  EaseByName(tm.Ease),
		state: Idle,
		theme: 1,
		log:   log.With().Str("component", "anim").Logger(),
	}
	for _, o := range opts {
		o(e)
	}
	e.sched.Start(e.routine(Idle))
	return e, nil
}

// SetState requests a new state. Requesting the current state does
// nothing; any other state cancels the running routine and starts the new
// one from its first step. theme selects the pedestal that starts the
// Active fade-out and is ignored for other states.
func (e *Engine) SetState(s State, theme int) error {
	if s < Idle || s > ReturnToIdle {
		return fmt.Errorf("%w: %d", ErrInvalidState, int(s))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if s == e.state {
		return nil
	}
	if s == Active && (theme < 1 || theme > e.lay.Pedestals) {
		return fmt.Errorf("%w: %d not in [1,%d]", ErrInvalidTheme, theme, e.lay.Pedestals)
	}
	e.enter(s, theme)
	return nil
}

func (e *Engine) enter(s State, theme int) {
	from := e.state
	e.state = s
	if s == Active {
		e.theme = theme
	}
	e.transitions++
	e.sched.Start(e.routine(s))
	e.log.Info().Str("from", from.String()).Str("to", s.String()).Int("theme", e.theme).Msg("animation state")
	if e.onState != nil {
		e.onState(from, s, e.theme)
	}
}

// Tick advances the current routine by dt. ReturnToIdle moves on to Idle
// by itself once its fade completes.
func (e *Engine) Tick(dt time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sched.Tick(dt) && e.state == ReturnToIdle {
		e.enter(Idle, e.theme)
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Theme() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.theme
}

// TakeFrame copies the buffer into dst if it changed since the last take.
func (e *Engine) TakeFrame(dst []byte) ([]byte, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.dirty {
		return dst, false
	}
	e.dirty = false
	return e.buf.Snapshot(dst), true
}

// Snapshot copies the buffer regardless of the dirty flag.
func (e *Engine) Snapshot(dst []byte) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf.Snapshot(dst)
}

func (e *Engine) RenderDebugUI(p *debugui.Panel) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p.Field("state", e.state.String())
	p.Field("theme", e.theme)
	p.Field("transitions", e.transitions)
	p.Field("dirty", e.dirty)
	p.Field("write_errors", e.writeErrs)
	e.buf.RenderDebugUI(p)
}

// ---- routines ----

func (e *Engine) routine(s State) Step {
	switch s {
	case Active:
		return e.activeRoutine(e.theme)
	case ReturnToIdle:
		return e.returnRoutine()
	default:
		return e.idleRoutine()
	}
}

// idle: white, hold, pedestal wave, reader pulse, repeat.
func (e *Engine) idleRoutine() Step {
	return Forever(func() Step {
		return Seq(
			Do(func() { e.setAllPedestals(1) }),
			Wait(e.tm.IdleHold),
			e.pedestalWave(),
			e.readerPulse(),
		)
	})
}

func (e *Engine) pedestalWave() Step {
	steps := make([]Step, 0, 2*e.lay.Pedestals+1)
	for i := 1; i <= e.lay.Pedestals; i++ {
		i := i
		steps = append(steps,
			Fade(e.tm.WaveFade, 1, e.tm.WaveFloor, e.ease, func(v float64) { e.setPedestal(i, v) }),
			Wait(e.tm.WaveInterval),
		)
	}
	steps = append(steps, Do(func() { e.setAllPedestals(1) }))
	return Seq(steps...)
}

func (e *Engine) readerPulse() Step {
	return Seq(
		Repeat(e.tm.PulseCount, func() Step {
			return Seq(
				Do(func() { e.setReader(1) }),
				Wait(e.tm.PulseFlash),
				Fade(e.tm.PulseFade, 1, 0, e.ease, e.setReader),
			)
		}),
		Wait(e.tm.PulseRest),
	)
}

// active: one-shot fade-out wave from theme, then endless reader rotation.
func (e *Engine) activeRoutine(theme int) Step {
	order := PedestalOrder(theme, e.lay.Pedestals)
	steps := make([]Step, 0, 2*len(order)+1)
	for _, i := range order {
		i := i
		steps = append(steps,
			Fade(e.tm.FadeOut, 1, 0, e.ease, func(v float64) { e.setPedestal(i, v) }),
			Wait(e.tm.FadeOutInterval),
		)
	}
	seg := e.lay.Reader()
	steps = append(steps, Forever(func() Step {
		return Every(e.tm.RotationStep, seg.Len, e.drawRotation)
	}))
	return Seq(steps...)
}

func (e *Engine) returnRoutine() Step {
	return Fade(e.tm.ReturnFade, 0, 1, e.ease, e.setAllPedestals)
}

// PedestalOrder lists pedestals 1..n round-robin starting at start.
func PedestalOrder(start, n int) []int {
	if n <= 0 {
		return nil
	}
	if start < 1 || start > n {
		start = 1
	}
	out := make([]int, 0, n)
	for i := start; i <= n; i++ {
		out = append(out, i)
	}
	for i := 1; i < start; i++ {
		out = append(out, i)
	}
	return out
}

// ---- buffer helpers; callers hold e.mu ----

func (e *Engine) fill(seg layout.Segment, c pixel.RGB) {
	if err := e.buf.Fill(seg.Start, seg.Len, c); err != nil {
		e.writeErrs++
		e.log.Error().Err(err).Int("start", seg.Start).Int("len", seg.Len).Msg("segment write")
		return
	}
	e.dirty = true
}

func (e *Engine) setPedestal(i int, brightness float64) {
	seg, err := e.lay.Pedestal(i)
	if err != nil {
		e.writeErrs++
		return
	}
	e.fill(seg, e.tm.Color.Scale(brightness))
}

func (e *Engine) setAllPedestals(brightness float64) {
	for i := 1; i <= e.lay.Pedestals; i++ {
		e.setPedestal(i, brightness)
	}
}

func (e *Engine) setReader(brightness float64) {
	e.fill(e.lay.Reader(), e.tm.Color.Scale(brightness))
}

// drawRotation lights two runs half a segment apart, starting at step.
func (e *Engine) drawRotation(step int) {
	seg := e.lay.Reader()
	n := e.tm.RotationLength
	if n <= 0 {
		n = seg.Len / 4
	}
	e.fill(seg, pixel.Black)
	for _, off := range []int{step, step + seg.Len/2} {
		if err := e.buf.FillWrapped(seg.Start, seg.Len, off, n, e.tm.Color); err != nil {
			e.writeErrs++
			return
		}
	}
	e.dirty = true
}
