package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Frame is one preview message. RGB is base64 in JSON.
type Frame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	Count   int    `json:"count"`
	RGB     []byte `json:"rgb"`
}

// Topology is sent once when a preview client connects.
type Topology struct {
	PixelsPerSegment int    `json:"pixelsPerSegment"`
	Pedestals        int    `json:"pedestals"`
	Count            int    `json:"count"`
	Driver           string `json:"driver"`
}

type previewClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Preview is a led.Driver that streams throttled frames to websocket
// clients. Each client has a one-frame queue; a slow client skips frames.
type Preview struct {
	mu       sync.Mutex
	throttle time.Duration
	lastEmit time.Time
	frameID  uint64
	clients  map[*previewClient]struct{}
	topo     Topology
	closed   bool

	up  websocket.Upgrader
	log zerolog.Logger
}

func NewPreview(throttle time.Duration, topo Topology) *Preview {
	return &Preview{
		throttle: throttle,
		topo:     topo,
		clients:  map[*previewClient]struct{}{},
		up:       websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		log:      log.With().Str("component", "preview").Logger(),
	}
}

func (p *Preview) Write(rgb []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frameID++
	if len(p.clients) == 0 || p.closed {
		return nil
	}
	now := time.Now()
	if p.lastEmit.Add(p.throttle).After(now) {
		return nil
	}
	p.lastEmit = now

	b, err := json.Marshal(Frame{T: now.UnixNano(), FrameID: p.frameID, Count: len(rgb) / 3, RGB: rgb})
	if err != nil {
		return err
	}
	for c := range p.clients {
		select {
		case c.send <- b:
		default:
		}
	}
	return nil
}

func (p *Preview) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for c := range p.clients {
		close(c.send)
		delete(p.clients, c)
	}
	return nil
}

func (p *Preview) Clients() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

// HandleFramesWS upgrades to a preview stream.
func (p *Preview) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := p.up.Upgrade(w, r, nil)
	if err != nil {
		p.log.Debug().Err(err).Msg("upgrade")
		return
	}
	c := &previewClient{conn: conn, send: make(chan []byte, 1)}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		conn.Close()
		return
	}
	p.clients[c] = struct{}{}
	topo := p.topo
	p.mu.Unlock()

	go p.writer(c, topo)
	go func() {
		defer p.drop(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (p *Preview) writer(c *previewClient, topo Topology) {
	defer c.conn.Close()
	if err := c.conn.WriteJSON(topo); err != nil {
		return
	}
	for b := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			p.log.Debug().Err(err).Msg("write frame")
			p.drop(c)
			return
		}
	}
}

func (p *Preview) drop(c *previewClient) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.clients[c]; ok {
		delete(p.clients, c)
		close(c.send)
	}
}
