package anim

import "time"

// Scheduler runs at most one routine. Starting a routine drops the previous
// one, so two routines never write the buffer in the same tick.
type Scheduler struct {
	cur Step
	gen uint64
}

// Start replaces the current routine.
func (s *Scheduler) Start(st Step) {
	s.cur = st
	s.gen++
}

// Tick advances the routine and reports whether it finished during this tick.
func (s *Scheduler) Tick(dt time.Duration) bool {
	if s.cur == nil {
		return false
	}
	gen := s.gen
	if s.cur.Update(dt) && s.gen == gen {
		s.cur = nil
		return true
	}
	return false
}
