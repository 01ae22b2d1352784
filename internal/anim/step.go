package anim

import "time"

// Step is one resumable piece of an animation routine. Update advances it
// by dt and reports whether it has finished. Update never blocks; a
// routine yields by returning false.
type Step interface {
	Update(dt time.Duration) bool
}

type stepFunc func(dt time.Duration) bool

func (f stepFunc) Update(dt time.Duration) bool { return f(dt) }

// Do runs fn once and finishes in the same update.
func Do(fn func()) Step {
	return stepFunc(func(time.Duration) bool {
		fn()
		return true
	})
}

type wait struct {
	d, elapsed time.Duration
}

// Wait finishes once d has elapsed.
func Wait(d time.Duration) Step { return &wait{d: d} }

func (w *wait) Update(dt time.Duration) bool {
	w.elapsed += dt
	return w.elapsed >= w.d
}

type fade struct {
	d, elapsed time.Duration
	from, to   float64
	ease       Ease
	apply      func(v float64)
}

// Fade calls apply with a value moving from -> to over d. The first update
// applies the value for the progress reached so far; the final update
// applies exactly to.
func Fade(d time.Duration, from, to float64, ease Ease, apply func(v float64)) Step {
	if ease == nil {
		ease = EaseByName("linear")
	}
	return &fade{d: d, from: from, to: to, ease: ease, apply: apply}
}

func (f *fade) Update(dt time.Duration) bool {
	f.elapsed += dt
	if f.d <= 0 || f.elapsed >= f.d {
		f.apply(f.to)
		return true
	}
	t := clamp01(float64(f.elapsed) / float64(f.d))
	f.apply(lerp(f.from, f.to, f.ease(t)))
	return false
}

type seq struct {
	steps []Step
	i     int
}

// Seq runs steps in order. When a step finishes, the next one starts in the
// same update with no time left, the way a coroutine resumes after a wait.
func Seq(steps ...Step) Step { return &seq{steps: steps} }

func (s *seq) Update(dt time.Duration) bool {
	for s.i < len(s.steps) {
		if !s.steps[s.i].Update(dt) {
			return false
		}
		s.i++
		dt = 0
	}
	return true
}

type every struct {
	interval time.Duration
	n, i     int
	fn       func(i int)
	fired    bool
	elapsed  time.Duration
}

// Every calls fn(0..n-1), waiting interval after each call. With a zero
// interval it calls fn once per update.
func Every(interval time.Duration, n int, fn func(i int)) Step {
	return &every{interval: interval, n: n, fn: fn}
}

func (e *every) Update(dt time.Duration) bool {
	if e.i >= e.n {
		return true
	}
	if e.interval <= 0 {
		e.fn(e.i)
		e.i++
		return e.i >= e.n
	}
	if !e.fired {
		e.fn(e.i)
		e.fired = true
	}
	e.elapsed += dt
	for e.elapsed >= e.interval {
		e.elapsed -= e.interval
		e.i++
		if e.i >= e.n {
			return true
		}
		e.fn(e.i)
	}
	return false
}

type repeat struct {
	n, i int
	body func() Step
	cur  Step
}

// Repeat runs a fresh body n times.
func Repeat(n int, body func() Step) Step { return &repeat{n: n, body: body} }

func (r *repeat) Update(dt time.Duration) bool {
	for r.i < r.n {
		if r.cur == nil {
			r.cur = r.body()
		}
		if !r.cur.Update(dt) {
			return false
		}
		r.cur = nil
		r.i++
		dt = 0
	}
	return true
}

type forever struct {
	body func() Step
	cur  Step
}

// Forever restarts a fresh body each time it finishes. A restarted body
// gets one zero-length update so instant leading steps run immediately; it
// never restarts twice in one update.
func Forever(body func() Step) Step { return &forever{body: body} }

func (f *forever) Update(dt time.Duration) bool {
	if f.cur == nil {
		f.cur = f.body()
	}
	if f.cur.Update(dt) {
		f.cur = f.body()
		if f.cur.Update(0) {
			f.cur = nil
		}
	}
	return false
}
