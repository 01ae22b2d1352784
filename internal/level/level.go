// Package level sequences the installation between idle and slideshow
// sections and asks the LED engine for the matching animation.
package level

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-pedestals/internal/anim"
	"github.com/coreman2200/funtimes-pedestals/internal/debugui"
)

type State int

const (
	Idle State = iota
	SlideShow
	Transition
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SlideShow:
		return "slideshow"
	case Transition:
		return "transition"
	default:
		return fmt.Sprintf("level(%d)", int(s))
	}
}

var ErrInvalidSection = errors.New("invalid section")

// Animator is the part of the LED engine the orchestrator drives.
type Animator interface {
	SetState(s anim.State, theme int) error
}

type Config struct {
	Sections int
	// TransitionTime is how long Transition lasts before settling.
	TransitionTime time.Duration
	// IdleTimeout returns to Idle after this long without input; zero
	// disables it.
	IdleTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{Sections: 6, TransitionTime: time.Second, IdleTimeout: 60 * time.Second}
}

type Orchestrator struct {
	mu   sync.Mutex
	cfg  Config
	anim Animator
	log  zerolog.Logger

	state   State
	target  State
	section int

	onState func(from, to State, section int)

	transLeft time.Duration
	idleFor   time.Duration
	ignored   uint64
	timeouts  uint64
}

type Option func(*Orchestrator)

// WithStateHook calls fn on every level state change, with the section
// that is running after the change. fn runs with the orchestrator locked.
func WithStateHook(fn func(from, to State, section int)) Option {
	return func(o *Orchestrator) { o.onState = fn }
}

// New starts in Idle and requests the idle animation.
func New(a Animator, cfg Config, opts ...Option) (*Orchestrator, error) {
	if a == nil {
		return nil, errors.New("nil animator")
	}
	if cfg.Sections <= 0 {
		cfg.Sections = DefaultConfig().Sections
	}
	o := &Orchestrator{
		cfg:  cfg,
		anim: a,
		log:  log.With().Str("component", "level").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := a.SetState(anim.Idle, 0); err != nil {
		return nil, err
	}
	return o, nil
}

// SelectSection starts the slideshow at section i (1-based). It is
// ignored while a slideshow is running or a transition is in progress.
func (o *Orchestrator) SelectSection(i int) error {
	if i < 1 || i > o.cfg.Sections {
		return fmt.Errorf("%w: %d not in [1,%d]", ErrInvalidSection, i, o.cfg.Sections)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.idleFor = 0
	if o.state != Idle {
		o.ignored++
		o.log.Debug().Int("section", i).Str("state", o.state.String()).Msg("section ignored")
		return nil
	}
	if err := o.anim.SetState(anim.Active, i); err != nil {
		return err
	}
	o.section = i
	o.begin(SlideShow)
	return nil
}

// RequestIdle leaves the slideshow. It is ignored while idle or in
// transition.
func (o *Orchestrator) RequestIdle() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.requestIdle()
}

func (o *Orchestrator) requestIdle() error {
	if o.state != SlideShow {
		o.ignored++
		return nil
	}
	if err := o.anim.SetState(anim.ReturnToIdle, o.section); err != nil {
		return err
	}
	o.begin(Idle)
	return nil
}

func (o *Orchestrator) begin(target State) {
	o.set(Transition)
	o.target = target
	o.transLeft = o.cfg.TransitionTime
	o.log.Info().Str("target", target.String()).Int("section", o.section).Msg("transition")
	if o.transLeft <= 0 {
		o.settle()
	}
}

func (o *Orchestrator) settle() {
	o.idleFor = 0
	if o.target == Idle {
		o.section = 0
	}
	o.set(o.target)
	o.log.Info().Str("state", o.state.String()).Msg("level state")
}

func (o *Orchestrator) set(s State) {
	from := o.state
	o.state = s
	if o.onState != nil {
		o.onState(from, s, o.section)
	}
}

// Touch resets the inactivity timer.
func (o *Orchestrator) Touch() {
	o.mu.Lock()
	o.idleFor = 0
	o.mu.Unlock()
}

// Tick advances the transition and inactivity timers.
func (o *Orchestrator) Tick(dt time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.state {
	case Transition:
		o.transLeft -= dt
		if o.transLeft <= 0 {
			o.settle()
		}
	case SlideShow:
		if o.cfg.IdleTimeout <= 0 {
			return
		}
		o.idleFor += dt
		if o.idleFor >= o.cfg.IdleTimeout {
			o.timeouts++
			o.log.Info().Dur("after", o.idleFor).Msg("inactivity timeout")
			if err := o.requestIdle(); err != nil {
				o.log.Error().Err(err).Msg("return to idle")
			}
		}
	}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Section is the running section, 0 when idle.
func (o *Orchestrator) Section() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.section
}

func (o *Orchestrator) RenderDebugUI(p *debugui.Panel) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p.Field("state", o.state.String())
	if o.state == Transition {
		p.Field("target", o.target.String())
		p.Field("remaining", o.transLeft.String())
	}
	p.Field("section", o.section)
	p.Field("inactive", o.idleFor.String())
	p.Field("ignored", o.ignored)
	p.Field("timeouts", o.timeouts)
}
