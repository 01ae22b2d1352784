package led

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// NRZ mirrors the frame onto a local WS2812 strip over SPI. The strip may
// be shorter than the installation; extra pixels are cut off.
type NRZ struct {
	mu    sync.Mutex
	port  spi.PortCloser
	dev   *nrzled.Dev
	count int
}

// OpenNRZ initialises the host drivers and opens the named SPI port ("" for
// the first one available).
func OpenNRZ(port string, count int, freq physic.Frequency) (*NRZ, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", port, err)
	}
	d, err := NewNRZ(p, count, freq)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return d, nil
}

// NewNRZ drives count pixels on an already opened port.
func NewNRZ(p spi.PortCloser, count int, freq physic.Frequency) (*NRZ, error) {
	if count < 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	if freq == 0 {
		freq = 800 * physic.KiloHertz
	}
	o := nrzled.Opts{NumPixels: count, Channels: 3, Freq: freq}
	dev, err := nrzled.NewSPI(p, &o)
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &NRZ{port: p, dev: dev, count: count}, nil
}

func (n *NRZ) Write(rgb []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dev == nil {
		return errors.New("nrz closed")
	}
	if limit := n.count * 3; len(rgb) > limit {
		rgb = rgb[:limit]
	}
	rgb = rgb[:len(rgb)/3*3]
	if _, err := n.dev.Write(rgb); err != nil {
		return fmt.Errorf("nrz write: %w", err)
	}
	return nil
}

func (n *NRZ) String() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dev == nil {
		return "nrz{closed}"
	}
	return n.dev.String()
}

// Close blanks the strip and releases the port.
func (n *NRZ) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dev == nil {
		return nil
	}
	err := errors.Join(n.dev.Halt(), n.port.Close())
	n.dev = nil
	return err
}
