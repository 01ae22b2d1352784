package layout

import "fmt"

// Segment is a contiguous run of pixels.
type Segment struct{ Start, Len int }

func (s Segment) End() int { return s.Start + s.Len }

// Index maps a segment-local offset to a buffer index, wrapping modulo Len.
func (s Segment) Index(offset int) int {
	if s.Len <= 0 {
		return s.Start
	}
	return s.Start + ((offset%s.Len)+s.Len)%s.Len
}

// Layout describes the physical strip: the reader ring at index 0 followed
// by numbered pedestals, all PixelsPerSegment long.
//
// Pedestal i covers [i*PixelsPerSegment, (i+1)*PixelsPerSegment) and the
// reader covers [0, PixelsPerSegment), so the reader sits where a pedestal
// 0 would be.
type Layout struct {
	PixelsPerSegment int
	Pedestals        int
}

func Default() Layout { return Layout{PixelsPerSegment: 35, Pedestals: 6} }

// Count is the number of pixels the layout addresses.
func (l Layout) Count() int { return (l.Pedestals + 1) * l.PixelsPerSegment }

func (l Layout) Reader() Segment { return Segment{Start: 0, Len: l.PixelsPerSegment} }

// Pedestal returns pedestal i (1-based).
func (l Layout) Pedestal(i int) (Segment, error) {
	if i < 1 || i > l.Pedestals {
		return Segment{}, fmt.Errorf("pedestal %d not in [1,%d]", i, l.Pedestals)
	}
	return Segment{Start: i * l.PixelsPerSegment, Len: l.PixelsPerSegment}, nil
}

// Validate checks the layout fits into a buffer of n pixels.
func (l Layout) Validate(n int) error {
	if l.PixelsPerSegment <= 0 || l.Pedestals <= 0 {
		return fmt.Errorf("invalid layout: %d pedestals of %d pixels", l.Pedestals, l.PixelsPerSegment)
	}
	if l.Count() > n {
		return fmt.Errorf("layout needs %d pixels, buffer has %d", l.Count(), n)
	}
	return nil
}
