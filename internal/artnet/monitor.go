package artnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"
)

const readBackoffMax = 250 * time.Millisecond

// Monitor listens for ArtDMX packets, e.g. to verify what a node receives.
type Monitor struct {
	conn *net.UDPConn
}

// Listen binds addr (":6454" by default when empty).
func Listen(addr string) (*Monitor, error) {
	if addr == "" {
		addr = fmt.Sprintf(":%d", Port)
	}
	ua, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", ua)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &Monitor{conn: conn}, nil
}

func (m *Monitor) Addr() *net.UDPAddr { return m.conn.LocalAddr().(*net.UDPAddr) }

// Run calls fn for every ArtDMX packet until ctx is done or the monitor is
// closed. Non-DMX traffic is skipped.
func (m *Monitor) Run(ctx context.Context, fn func(DMXPacket, *net.UDPAddr)) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			m.conn.Close()
		case <-stop:
		}
	}()

	buf := make([]byte, 1024)
	backoff := time.Duration(0)
	for {
		n, from, err := m.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			backoff = min(max(2*backoff, time.Millisecond), readBackoffMax)
			log.Debug().Err(err).Dur("backoff", backoff).Msg("artnet monitor read")
			time.Sleep(backoff)
			continue
		}
		backoff = 0
		p, err := Decode(buf[:n])
		if err != nil {
			continue
		}
		fn(p, from)
	}
}

func (m *Monitor) Close() error { return m.conn.Close() }
