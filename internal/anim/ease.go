package anim

// Ease maps linear progress in [0,1] to eased progress.
type Ease func(x float64) float64

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// smootherstep 6x^5 - 15x^4 + 10x^3
func smootherstep(x float64) float64 {
	return x * x * x * (x*(x*6-15) + 10)
}

// EaseByName returns the named curve: "linear" (default), "smooth" or "cubic".
func EaseByName(kind string) Ease {
	switch kind {
	case "smooth":
		return func(x float64) float64 { return x * x * (3 - 2*x) }
	case "cubic":
		return smootherstep
	default:
		return func(x float64) float64 { return x }
	}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
