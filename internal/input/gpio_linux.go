//go:build linux

package input

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/warthog618/go-gpiocdev"
)

// Buttons maps active-low push buttons to sections and an optional idle
// button.
type Buttons struct {
	lines *gpiocdev.Lines
	byOff map[int]int // offset -> section, 0 for idle
}

// OpenButtons requests the lines on chip. sections[i] is the line offset
// for section i+1; idle < 0 means no idle button.
func OpenButtons(chip string, sections []int, idle int, debounce time.Duration, t Target) (*Buttons, error) {
	b := &Buttons{byOff: map[int]int{}}
	offsets := make([]int, 0, len(sections)+1)
	for i, off := range sections {
		b.byOff[off] = i + 1
		offsets = append(offsets, off)
	}
	if idle >= 0 {
		b.byOff[idle] = 0
		offsets = append(offsets, idle)
	}
	if len(offsets) == 0 {
		return nil, errors.New("no button lines configured")
	}
	if len(b.byOff) != len(offsets) {
		return nil, fmt.Errorf("duplicate line offsets in %v", offsets)
	}

	handler := func(evt gpiocdev.LineEvent) {
		if evt.Type != gpiocdev.LineEventFallingEdge {
			return
		}
		dispatch(t, b.byOff, evt.Offset)
	}
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(handler),
		gpiocdev.WithConsumer("pedestals"),
	}
	if debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(debounce))
	}
	lines, err := gpiocdev.RequestLines(chip, offsets, opts...)
	if err != nil {
		return nil, fmt.Errorf("request lines %v on %s: %w", offsets, chip, err)
	}
	b.lines = lines
	log.Info().Str("chip", chip).Ints("offsets", offsets).Msg("buttons ready")
	return b, nil
}

func (b *Buttons) Close() error {
	if b.lines == nil {
		return nil
	}
	return b.lines.Close()
}
