package led

import "math"

// GammaLUT maps 8-bit channel values through an output gamma curve.
type GammaLUT [256]byte

// BuildGamma returns the table for gamma g, or nil when g is 1 or not
// positive so callers can skip the stage.
func BuildGamma(g float64) *GammaLUT {
	if g <= 0 || g == 1 {
		return nil
	}
	var t GammaLUT
	for i := range t {
		t[i] = byte(math.Round(math.Pow(float64(i)/255.0, g) * 255.0))
	}
	return &t
}

// Apply maps rgb in place.
func (t *GammaLUT) Apply(rgb []byte) {
	if t == nil {
		return
	}
	for i, v := range rgb {
		rgb[i] = t[v]
	}
}
