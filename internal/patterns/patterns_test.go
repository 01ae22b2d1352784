package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-pedestals/internal/layout"
	"github.com/coreman2200/funtimes-pedestals/internal/pixel"
)

var small = layout.Layout{PixelsPerSegment: 4, Pedestals: 2}

func lit(buf *pixel.Buffer) []int {
	var out []int
	for i := 0; i < buf.Len(); i++ {
		if c, _ := buf.Pixel(i); c != pixel.Black {
			out = append(out, i)
		}
	}
	return out
}

func TestIndexSweep(t *testing.T) {
	buf := pixel.New(small.Count())
	r := NewRunner(IndexSweep, small, 1)
	for i := 0; i < small.Count(); i++ {
		require.True(t, r.Step(buf))
		assert.Equal(t, []int{i}, lit(buf))
	}
	assert.False(t, r.Step(buf))
}

func TestRGBChannelsHold(t *testing.T) {
	buf := pixel.New(3)
	r := NewRunner(RGBChannels, small, 2)
	want := []pixel.RGB{{R: 255}, {R: 255}, {G: 255}, {G: 255}, {B: 255}, {B: 255}}
	for _, c := range want {
		require.True(t, r.Step(buf))
		got, _ := buf.Pixel(2)
		assert.Equal(t, c, got)
	}
	assert.False(t, r.Step(buf))
}

func TestSegmentWalk(t *testing.T) {
	buf := pixel.New(small.Count())
	r := NewRunner(SegmentWalk, small, 1)
	require.True(t, r.Step(buf))
	assert.Equal(t, []int{0, 1, 2, 3}, lit(buf))
	require.True(t, r.Step(buf))
	assert.Equal(t, []int{4, 5, 6, 7}, lit(buf))
	require.True(t, r.Step(buf))
	assert.Equal(t, []int{8, 9, 10, 11}, lit(buf))
	assert.False(t, r.Step(buf))
}

func TestRainbow(t *testing.T) {
	lay := layout.Layout{PixelsPerSegment: 35, Pedestals: 6}
	buf := pixel.New(lay.Count())
	r := NewRunner(Rainbow, lay, 1)
	require.True(t, r.Step(buf))

	first, _ := buf.Pixel(0)
	assert.Equal(t, pixel.Black, first)
	red, _ := buf.Pixel(34)
	assert.Equal(t, pixel.RGB{R: 255}, red)
	violet, _ := buf.Pixel(6*35 + 34)
	assert.Equal(t, pixel.RGB{R: 148, B: 211}, violet)
	mid, _ := buf.Pixel(3*35 + 17)
	assert.InDelta(t, 127, int(mid.G), 1)

	assert.False(t, r.Step(buf))
}

func TestParse(t *testing.T) {
	k, err := Parse("rainbow")
	require.NoError(t, err)
	assert.Equal(t, Rainbow, k)
	_, err = Parse("plane_z")
	assert.Error(t, err)
	assert.False(t, NewRunner(None, small, 1).Step(pixel.New(1)))
}
