// Package diagnostics carries operator-facing events (test runs, send
// failures, state changes) to whoever is listening.
package diagnostics

import (
	"sync"
	"time"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

const (
	CodeTestRunning = "TEST.RUNNING"
	CodeTestDone    = "TEST.DONE"
	CodeTestUnknown = "TEST.UNKNOWN"
	CodeLevel       = "LEVEL.STATE"
	CodeAnim        = "ANIM.STATE"
	CodeOutput      = "OUTPUT.WRITE"
	CodeControl     = "CONTROL.INVALID"
)

type Diagnostic struct {
	Time           time.Time      `json:"time"`
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Hub fans diagnostics out to subscribers. Slow subscribers miss events
// rather than block the publisher.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Diagnostic]struct{}
	last []Diagnostic
	keep int
}

// NewHub keeps the last keep events for late subscribers.
func NewHub(keep int) *Hub {
	return &Hub{subs: map[chan Diagnostic]struct{}{}, keep: keep}
}

func (h *Hub) Publish(d Diagnostic) {
	if d.Time.IsZero() {
		d.Time = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.keep > 0 {
		h.last = append(h.last, d)
		if len(h.last) > h.keep {
			h.last = h.last[len(h.last)-h.keep:]
		}
	}
	for ch := range h.subs {
		select {
		case ch <- d:
		default:
		}
	}
}

// Subscribe returns a channel primed with recent events and a cancel func.
func (h *Hub) Subscribe(buffer int) (<-chan Diagnostic, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan Diagnostic, buffer+len(h.last))
	for _, d := range h.last {
		ch <- d
	}
	h.subs[ch] = struct{}{}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Recent returns a copy of the retained events, oldest first.
func (h *Hub) Recent() []Diagnostic {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Diagnostic(nil), h.last...)
}
