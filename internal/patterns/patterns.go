// Package patterns holds bench test patterns that temporarily replace the
// animation output.
package patterns

import (
	"fmt"

	"github.com/coreman2200/funtimes-pedestals/internal/layout"
	"github.com/coreman2200/funtimes-pedestals/internal/pixel"
)

type Kind string

const (
	None        Kind = ""
	IndexSweep  Kind = "index_sweep"
	RGBChannels Kind = "rgb_channels"
	SegmentWalk Kind = "segment_walk"
	Rainbow     Kind = "rainbow"
)

var Kinds = []Kind{IndexSweep, RGBChannels, SegmentWalk, Rainbow}

func Parse(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return None, fmt.Errorf("unknown test pattern %q", s)
}

// Rainbow colors, one per segment.
var roygbiv = []pixel.RGB{
	{R: 255},
	{R: 255, G: 127},
	{R: 255, G: 255},
	{G: 255},
	{B: 255},
	{R: 75, B: 130},
	{R: 148, B: 211},
}

type Runner struct {
	kind Kind
	lay  layout.Layout
	// Hold is the number of frames each step stays up.
	Hold  int
	step  int
	frame int
}

func NewRunner(kind Kind, lay layout.Layout, hold int) *Runner {
	if hold < 1 {
		hold = 1
	}
	return &Runner{kind: kind, lay: lay, Hold: hold}
}

func (r *Runner) Kind() Kind { return r.kind }

// Step draws the current frame into buf; returns false when complete.
func (r *Runner) Step(buf *pixel.Buffer) bool {
	n := buf.Len()
	buf.SetAll(0, 0, 0)

	switch r.kind {
	case IndexSweep:
		if r.step >= n {
			return false
		}
		_ = buf.Set(r.step, pixel.White)
	case RGBChannels:
		if r.step >= 3 {
			return false
		}
		var c pixel.RGB
		switch r.step {
		case 0:
			c.R = 255
		case 1:
			c.G = 255
		case 2:
			c.B = 255
		}
		_ = buf.Fill(0, n, c)
	case SegmentWalk:
		// reader first, then pedestals 1..n
		if r.step > r.lay.Pedestals {
			return false
		}
		seg := r.lay.Reader()
		if r.step > 0 {
			seg, _ = r.lay.Pedestal(r.step)
		}
		_ = buf.Fill(seg.Start, seg.Len, pixel.RGB{G: 255, B: 255})
	case Rainbow:
		if r.step >= 1 {
			return false
		}
		drawRainbow(buf, r.lay.PixelsPerSegment)
	default:
		return false
	}

	r.frame++
	if r.frame >= r.Hold {
		r.frame = 0
		r.step++
	}
	return true
}

// drawRainbow paints seven segments, each ramping its color from dark to
// full along the segment.
func drawRainbow(buf *pixel.Buffer, segLen int) {
	if segLen <= 0 {
		return
	}
	for i, c := range roygbiv {
		for j := 0; j < segLen; j++ {
			b := 1.0
			if segLen > 1 {
				b = float64(j) / float64(segLen-1)
			}
			if err := buf.Set(i*segLen+j, c.Scale(b)); err != nil {
				return
			}
		}
	}
}
