package artnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-pedestals/internal/debugui"
)

var (
	// ErrNoDestination is returned by Send when the remote host did not resolve.
	ErrNoDestination = errors.New("art-net destination unresolved")
	ErrClosed        = errors.New("art-net transport closed")
)

// Stats counts datagrams by outcome.
type Stats struct {
	Sent    uint64 `json:"sent"`
	Failed  uint64 `json:"failed"`
	Skipped uint64 `json:"skipped"`
}

// Transport sends ArtDMX datagrams from one unbound UDP socket to a single
// node resolved at construction.
type Transport struct {
	mu       sync.Mutex
	conn     *net.UDPConn
	remote   *net.UDPAddr
	host     string
	port     int
	sequence bool
	seqs     map[uint16]uint8
	closed   bool
	pkt      [PacketSize]byte

	sent, failed, skipped atomic.Uint64

	log  zerolog.Logger
	warn zerolog.Logger
}

type Option func(*Transport)

// WithPort overrides the destination port (default 6454).
func WithPort(port int) Option { return func(t *Transport) { t.port = port } }

// WithSequence enables the ArtDMX sequence field (1..255 per universe).
// When disabled the field is 0, which tells nodes not to reorder.
func WithSequence(on bool) Option { return func(t *Transport) { t.sequence = on } }

func WithLogger(l zerolog.Logger) Option { return func(t *Transport) { t.log = l } }

// Dial opens the sending socket and resolves host once. A resolution
// failure is logged and leaves the transport without a destination; only
// socket errors are returned.
func Dial(ctx context.Context, host string, opts ...Option) (*Transport, error) {
	t := &Transport{
		host: host,
		port: Port,
		seqs: map[uint16]uint8{},
		log:  log.With().Str("component", "artnet").Logger(),
	}
	for _, o := range opts {
		o(t)
	}
	t.warn = t.log.Sample(&zerolog.BurstSampler{Burst: 1, Period: 10 * time.Second})

	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("artnet socket: %w", err)
	}
	t.conn = conn

	ip, err := Resolve(ctx, host)
	if err != nil {
		t.log.Error().Err(err).Str("host", host).Msg("failed to resolve art-net node; sends disabled")
		return t, nil
	}
	t.remote = &net.UDPAddr{IP: ip, Port: t.port}
	t.log.Info().Str("remote", t.remote.String()).Bool("sequence", t.sequence).Msg("art-net transport ready")
	return t, nil
}

// Resolve accepts a literal IP or returns the first IPv4 address of host.
func Resolve(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		if v4 := a.IP.To4(); v4 != nil {
			return v4, nil
		}
	}
	return nil, fmt.Errorf("no IPv4 address for %q", host)
}

// Send writes one ArtDMX datagram carrying payload for universe.
func (t *Transport) Send(universe int, payload *[UniverseSize]byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	if t.remote == nil {
		t.skipped.Add(1)
		t.warn.Warn().Str("host", t.host).Int("universe", universe).Msg("art-net destination unresolved; frame dropped")
		return ErrNoDestination
	}

	u := uint16(universe)
	var seq uint8
	if t.sequence {
		seq = t.seqs[u] + 1
		if seq == 0 {
			seq = 1
		}
		t.seqs[u] = seq
	}
	Encode(&t.pkt, u, seq, payload)

	if _, err := t.conn.WriteToUDP(t.pkt[:], t.remote); err != nil {
		t.failed.Add(1)
		return fmt.Errorf("artnet send universe %d: %w", universe, err)
	}
	t.sent.Add(1)
	return nil
}

// Remote returns "ip:port", or "" when unresolved.
func (t *Transport) Remote() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.remote == nil {
		return ""
	}
	return t.remote.String()
}

func (t *Transport) Stats() Stats {
	return Stats{Sent: t.sent.Load(), Failed: t.failed.Load(), Skipped: t.skipped.Load()}
}

// Close releases the socket. It is safe to call more than once.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}

func (t *Transport) RenderDebugUI(p *debugui.Panel) {
	remote := t.Remote()
	if remote == "" {
		remote = "unresolved (" + t.host + ")"
	}
	s := t.Stats()
	p.Field("remote", remote)
	p.Field("port", strconv.Itoa(t.port))
	p.Field("sequence", t.sequence)
	p.Field("sent", s.Sent)
	p.Field("failed", s.Failed)
	p.Field("skipped", s.Skipped)
}
