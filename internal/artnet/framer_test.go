package artnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameCount(t *testing.T) {
	cases := []struct{ pixels, want int }{
		{0, 1},
		{1, 1},
		{56, 1},
		{57, 2},
		{170, 4},
		{245, 5},
		{600, 11},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FrameCount(c.pixels), "pixels=%d", c.pixels)
		assert.Equal(t, c.pixels*3/170+1, FrameCount(c.pixels))
	}
}

func TestBuildUniverseEmptyBuffer(t *testing.T) {
	u := BuildUniverse(nil, 0)
	assert.Len(t, u, UniverseSize)
	assert.Equal(t, [UniverseSize]byte{}, u)
}

func TestBuildUniverseShortBuffer(t *testing.T) {
	src := make([]byte, 30)
	for i := range src {
		src[i] = byte(i + 1)
	}
	u := BuildUniverse(src, 0)
	assert.Equal(t, src, u[:30])
	for i := 30; i < UniverseSize; i++ {
		assert.Zero(t, u[i], "byte %d", i)
	}
}

func TestBuildUniverseTrailingBytesAlwaysZero(t *testing.T) {
	src := make([]byte, 3000)
	for i := range src {
		src[i] = 0xff
	}
	for ui := 0; ui < 6; ui++ {
		u := BuildUniverse(src, ui)
		assert.Zero(t, u[510], "universe %d", ui)
		assert.Zero(t, u[511], "universe %d", ui)
	}
}

func TestBuildUniverseSixHundredPixels(t *testing.T) {
	src := make([]byte, 600*3)
	for i := range src {
		src[i] = byte(i%251 + 1)
	}
	assert.Equal(t, 11, FrameCount(600))

	u := BuildUniverse(src, 3)
	assert.Equal(t, src[1530:1800], u[:270])
	for i := 270; i < UniverseSize; i++ {
		assert.Zero(t, u[i], "byte %d", i)
	}

	// universes past the data are all zero
	for ui := 4; ui < FrameCount(600); ui++ {
		assert.Equal(t, [UniverseSize]byte{}, BuildUniverse(src, ui), "universe %d", ui)
	}
}

func TestBuildUniverseIntoClearsStaleData(t *testing.T) {
	var dst [UniverseSize]byte
	for i := range dst {
		dst[i] = 7
	}
	BuildUniverseInto(&dst, []byte{1, 2, 3}, 0)
	assert.Equal(t, []byte{1, 2, 3}, dst[:3])
	assert.Equal(t, make([]byte, UniverseSize-3), dst[3:])
}
