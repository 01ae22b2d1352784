package led

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes an RGB frame. len(rgb) must be 3*N. Implementations must
	// not retain rgb after returning.
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}

// Multi fans a frame out to every driver.
type Multi []Driver

func (m Multi) Write(rgb []byte) error {
	var errs []error
	for _, d := range m {
		if err := d.Write(rgb); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, d := range m {
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sim counts frames and logs a short summary, useful for headless runs.
type Sim struct {
	mu     sync.Mutex
	count  uint64
	last   []byte
	log    zerolog.Logger
	Every  uint64 // log every Nth frame; 0 logs none
	closed bool
}

func NewSim(every uint64) *Sim {
	return &Sim{Every: every, log: log.With().Str("component", "sim").Logger()}
}

func (s *Sim) Write(rgb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("sim driver closed")
	}
	s.count++
	s.last = append(s.last[:0], rgb...)
	if s.Every > 0 && s.count%s.Every == 0 {
		var sum int
		lit := 0
		for i := 0; i+2 < len(rgb); i += 3 {
			v := int(rgb[i]) + int(rgb[i+1]) + int(rgb[i+2])
			sum += v
			if v > 0 {
				lit++
			}
		}
		avg := 0.0
		if len(rgb) > 0 {
			avg = float64(sum) / float64(len(rgb))
		}
		s.log.Debug().Uint64("frame", s.count).Int("lit", lit).Float64("avg", avg).Msg("frame")
	}
	return nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *Sim) Count() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Last returns a copy of the most recent frame.
func (s *Sim) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.last...)
}
