package app

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-pedestals/internal/anim"
	"github.com/coreman2200/funtimes-pedestals/internal/artnet"
	"github.com/coreman2200/funtimes-pedestals/internal/config"
	diag "github.com/coreman2200/funtimes-pedestals/internal/diagnostics"
	"github.com/coreman2200/funtimes-pedestals/internal/led"
	"github.com/coreman2200/funtimes-pedestals/internal/level"
)

func simConfig() *config.Config {
	cfg := config.Default()
	cfg.Driver = "sim"
	cfg.HTTP.Addr = ""
	cfg.Level.TransitionTime = 0
	return cfg
}

func TestCoreControlFlow(t *testing.T) {
	tap := led.NewSim(0)
	core, err := InitCore(context.Background(), simConfig(), Options{Drivers: []led.Driver{tap}})
	require.NoError(t, err)
	defer core.Close()

	core.Conductor.Step(10 * time.Millisecond)
	assert.Equal(t, byte(255), tap.Last()[35*3])

	require.NoError(t, core.SelectSection(2))
	assert.Equal(t, level.SlideShow, core.Level.State())
	assert.Equal(t, anim.Active, core.Engine.State())
	assert.Equal(t, 2, core.Engine.Theme())

	core.SetBrightness(0.5)
	for i := 0; i < 3; i++ {
		core.Conductor.Step(10 * time.Millisecond)
	}
	// pedestal 3 is still white in the engine, halved on the way out
	assert.Equal(t, byte(128), tap.Last()[3*35*3])

	st := core.Status()
	assert.Equal(t, "slideshow", st["level"])
	assert.Equal(t, "active", st["anim"])
	assert.Equal(t, 0.5, st["brightness"])

	require.NoError(t, core.RequestIdle())
	assert.Equal(t, anim.ReturnToIdle, core.Engine.State())

	require.NoError(t, core.Blackout())
	assert.Equal(t, make([]byte, 245*3), tap.Last())
	assert.NotNil(t, core.Server())
	assert.Contains(t, core.Debug.Names(), "engine")
	assert.Contains(t, codes(core.Diag), diag.CodeLevel)
	assert.Contains(t, codes(core.Diag), diag.CodeAnim)
}

func TestCoreRejectsBadConfig(t *testing.T) {
	cfg := simConfig()
	cfg.LEDs.Count = 10
	_, err := InitCore(context.Background(), cfg, Options{})
	assert.Error(t, err)

	_, err = InitCore(context.Background(), simConfig(), Options{Force: "dmx"})
	assert.Error(t, err)
}

func TestCoreOverArtNet(t *testing.T) {
	m, err := artnet.Listen("127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan artnet.DMXPacket, 32)
	go func() {
		_ = m.Run(ctx, func(p artnet.DMXPacket, _ *net.UDPAddr) { got <- p })
	}()

	cfg := config.Default()
	cfg.ArtNet.Host = "127.0.0.1"
	cfg.ArtNet.Port = m.Addr().Port
	core, err := InitCore(ctx, cfg, Options{})
	require.NoError(t, err)
	defer core.Close()

	require.True(t, core.Conductor.Step(10*time.Millisecond))

	seen := map[uint16]artnet.DMXPacket{}
	timeout := time.After(2 * time.Second)
	for len(seen) < artnet.FrameCount(245) {
		select {
		case p := <-got:
			seen[p.Universe] = p
		case <-timeout:
			t.Fatalf("got %d of %d universes", len(seen), artnet.FrameCount(245))
		}
	}
	// pixel 35 is the first pedestal pixel: universe 0, byte 105. The
	// defaults send the buffer bytes unchanged.
	assert.Equal(t, core.Buf.Bytes()[105], seen[0].Data[105])
	assert.Equal(t, byte(255), seen[0].Data[105])
	assert.Equal(t, byte(0), seen[0].Data[0])
	assert.Equal(t, byte(0), seen[0].Data[510])
	assert.Contains(t, core.Debug.Names(), "artnet")
}
