//go:build !linux

package input

import (
	"errors"
	"time"
)

type Buttons struct{}

func OpenButtons(chip string, sections []int, idle int, debounce time.Duration, t Target) (*Buttons, error) {
	return nil, errors.New("gpio buttons not supported on this platform")
}

func (b *Buttons) Close() error { return nil }
