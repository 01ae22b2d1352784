package led

import (
	"math"
	"sync"
)

// Limiter is the post stage between the engine and the drivers:
//  0. output gamma, when set
//  1. global brightness
//  2. per-LED white cap: r+g+b <= WhiteCap*3*255
//  3. global current budget, estimated at ChanmA per channel at full scale
type Limiter struct {
	mu         sync.RWMutex
	brightness float64
	whiteCap   float64
	budgetmA   float64
	chanmA     float64
	gamma      *GammaLUT
}

func NewLimiter(brightness, whiteCap, budgetmA float64) *Limiter {
	l := &Limiter{chanmA: 20}
	l.SetBrightness(brightness)
	l.SetWhiteCap(whiteCap)
	l.budgetmA = math.Max(0, budgetmA)
	return l
}

func (l *Limiter) SetBrightness(b float64) {
	l.mu.Lock()
	l.brightness = clamp(b, 0, 1)
	l.mu.Unlock()
}

func (l *Limiter) Brightness() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.brightness
}

// SetWhiteCap sets the cap as a fraction of full white; 0 or >=1 disables it.
func (l *Limiter) SetWhiteCap(c float64) {
	l.mu.Lock()
	l.whiteCap = c
	l.mu.Unlock()
}

// SetGamma sets the output gamma; 1 disables the curve.
func (l *Limiter) SetGamma(g float64) {
	lut := BuildGamma(g)
	l.mu.Lock()
	l.gamma = lut
	l.mu.Unlock()
}

// Apply limits rgb in place.
func (l *Limiter) Apply(rgb []byte) {
	l.mu.RLock()
	b, wc, budget, chanmA, lut := l.brightness, l.whiteCap, l.budgetmA, l.chanmA, l.gamma
	l.mu.RUnlock()

	lut.Apply(rgb)

	if b < 1 {
		for i := range rgb {
			rgb[i] = byte(math.Round(float64(rgb[i]) * b))
		}
	}
	applyWhiteCap(rgb, wc)

	if budget <= 0 {
		return
	}
	total := EstimateCurrent(rgb, chanmA)
	if total <= budget {
		return
	}
	scale := budget / total
	for i := range rgb {
		rgb[i] = byte(math.Floor(float64(rgb[i]) * scale))
	}
}

// EstimateCurrent returns the frame's draw in mA.
func EstimateCurrent(rgb []byte, chanmA float64) float64 {
	var sum float64
	for _, v := range rgb {
		sum += float64(v)
	}
	return sum / 255.0 * chanmA
}

func applyWhiteCap(rgb []byte, whiteCap float64) {
	if whiteCap <= 0 || whiteCap >= 1 {
		return
	}
	limit := whiteCap * 3.0 * 255.0
	for i := 0; i+2 < len(rgb); i += 3 {
		s := float64(rgb[i]) + float64(rgb[i+1]) + float64(rgb[i+2])
		if s > limit {
			scale := limit / s
			rgb[i] = byte(math.Floor(float64(rgb[i]) * scale))
			rgb[i+1] = byte(math.Floor(float64(rgb[i+1]) * scale))
			rgb[i+2] = byte(math.Floor(float64(rgb[i+2]) * scale))
		}
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Limited wraps a driver with a limiter. Frames are copied before limiting
// so the caller's slice is left untouched.
type Limited struct {
	Driver
	L   *Limiter
	buf []byte
	mu  sync.Mutex
}

func (d *Limited) Write(rgb []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf = append(d.buf[:0], rgb...)
	d.L.Apply(d.buf)
	return d.Driver.Write(d.buf)
}
