package led

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-pedestals/internal/artnet"
	"github.com/coreman2200/funtimes-pedestals/internal/debugui"
)

// Sender is the part of artnet.Transport the driver uses.
type Sender interface {
	Send(universe int, payload *[artnet.UniverseSize]byte) error
	Close() error
}

// ArtNet frames each written buffer into universes and sends them from its
// own goroutine. Write never blocks: it leaves the frame in a one-slot
// mailbox, replacing any frame the sender has not picked up yet.
type ArtNet struct {
	tx      Sender
	pending chan []byte
	pool    sync.Pool
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool

	frames  atomic.Uint64
	dropped atomic.Uint64
	errs    atomic.Uint64
	last    atomic.Int64 // unix nanos of last completed frame

	universe [artnet.UniverseSize]byte
	log      zerolog.Logger
	warn     zerolog.Logger
}

func NewArtNet(tx Sender) *ArtNet {
	l := log.With().Str("component", "artnet-driver").Logger()
	d := &ArtNet{
		tx:      tx,
		pending: make(chan []byte, 1),
		done:    make(chan struct{}),
		log:     l,
		warn:    l.Sample(&zerolog.BurstSampler{Burst: 1, Period: 10 * time.Second}),
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

func (d *ArtNet) Write(rgb []byte) error {
	if d.closed.Load() {
		return artnet.ErrClosed
	}
	frame := d.get(len(rgb))
	copy(frame, rgb)
	for {
		select {
		case d.pending <- frame:
			return nil
		default:
		}
		select {
		case old := <-d.pending:
			d.dropped.Add(1)
			d.put(old)
		default:
		}
	}
}

func (d *ArtNet) get(n int) []byte {
	if v, ok := d.pool.Get().(*[]byte); ok && cap(*v) >= n {
		return (*v)[:n]
	}
	return make([]byte, n)
}

func (d *ArtNet) put(b []byte) { d.pool.Put(&b) }

func (d *ArtNet) loop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.done:
			return
		case frame := <-d.pending:
			if err := d.send(frame); err != nil {
				d.errs.Add(1)
				d.warn.Warn().Err(err).Msg("art-net frame incomplete")
			}
			d.frames.Add(1)
			d.last.Store(time.Now().UnixNano())
			d.put(frame)
		}
	}
}

// send ships every universe of rgb. A failed universe does not stop the
// rest of the frame.
func (d *ArtNet) send(rgb []byte) error {
	n := artnet.FrameCount(len(rgb) / 3)
	var errs []error
	for u := 0; u < n; u++ {
		artnet.BuildUniverseInto(&d.universe, rgb, u)
		if err := d.tx.Send(u, &d.universe); err != nil {
			errs = append(errs, fmt.Errorf("universe %d: %w", u, err))
		}
	}
	return errors.Join(errs...)
}

// Close stops the sender and closes the transport. Safe to call twice.
func (d *ArtNet) Close() error {
	var err error
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
		err = d.tx.Close()
	})
	return err
}

type ArtNetStats struct {
	Frames, Dropped, Errors uint64
}

func (d *ArtNet) Stats() ArtNetStats {
	return ArtNetStats{Frames: d.frames.Load(), Dropped: d.dropped.Load(), Errors: d.errs.Load()}
}

func (d *ArtNet) RenderDebugUI(p *debugui.Panel) {
	s := d.Stats()
	p.Field("frames", s.Frames)
	p.Field("dropped", s.Dropped)
	p.Field("frame_errors", s.Errors)
	if ns := d.last.Load(); ns > 0 {
		p.Field("last_frame", time.Since(time.Unix(0, ns)).Truncate(time.Millisecond).String())
	}
	if dbg, ok := d.tx.(debugui.Debuggable); ok {
		dbg.RenderDebugUI(p)
	}
}
