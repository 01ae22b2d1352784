package anim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-pedestals/internal/debugui"
	"github.com/coreman2200/funtimes-pedestals/internal/layout"
	"github.com/coreman2200/funtimes-pedestals/internal/pixel"
)

const tick = 10 * time.Millisecond

type transition struct {
	from, to State
	theme    int
}

func newEngine(t *testing.T, tm Timing) (*Engine, *pixel.Buffer, *[]transition) {
	t.Helper()
	lay := layout.Default()
	buf := pixel.New(lay.Count())
	var seen []transition
	e, err := New(buf, lay, tm, WithStateHook(func(from, to State, theme int) {
		seen = append(seen, transition{from, to, theme})
	}))
	require.NoError(t, err)
	return e, buf, &seen
}

func run(e *Engine, n int) {
	for i := 0; i < n; i++ {
		e.Tick(tick)
	}
}

func pedestalColor(t *testing.T, buf *pixel.Buffer, i int) pixel.RGB {
	t.Helper()
	seg, err := layout.Default().Pedestal(i)
	require.NoError(t, err)
	c, err := buf.Pixel(seg.Start)
	require.NoError(t, err)
	last, err := buf.Pixel(seg.End() - 1)
	require.NoError(t, err)
	require.Equal(t, c, last, "pedestal %d is not uniform", i)
	return c
}

func readerColor(t *testing.T, buf *pixel.Buffer) pixel.RGB {
	t.Helper()
	c, err := buf.Pixel(0)
	require.NoError(t, err)
	return c
}

func litReader(buf *pixel.Buffer) []int {
	var lit []int
	for i := 0; i < layout.Default().PixelsPerSegment; i++ {
		if c, _ := buf.Pixel(i); c != pixel.Black {
			lit = append(lit, i)
		}
	}
	return lit
}

func TestIdleWaveAndPulse(t *testing.T) {
	e, buf, _ := newEngine(t, DefaultTiming())
	assert.Equal(t, Idle, e.State())

	run(e, 1)
	for i := 1; i <= 6; i++ {
		assert.Equal(t, pixel.White, pedestalColor(t, buf, i))
	}
	assert.Equal(t, pixel.Black, readerColor(t, buf))

	// hold ends on tick 201, pedestal 1 reaches the wave floor 30ms later
	run(e, 229)
	assert.NotEqual(t, pixel.White, pedestalColor(t, buf, 1))
	run(e, 1)
	assert.Equal(t, pixel.White.Scale(0.7), pedestalColor(t, buf, 1))
	assert.Equal(t, pixel.White, pedestalColor(t, buf, 2))

	// wave finishes on tick 441: pedestals restored, reader flashes
	run(e, 209)
	assert.Equal(t, pixel.White.Scale(0.7), pedestalColor(t, buf, 6))
	assert.Equal(t, pixel.Black, readerColor(t, buf))
	run(e, 1)
	for i := 1; i <= 6; i++ {
		assert.Equal(t, pixel.White, pedestalColor(t, buf, i))
	}
	assert.Equal(t, pixel.White, readerColor(t, buf))

	// first pulse fades out by tick 500, second flash starts on 501
	run(e, 59)
	r := readerColor(t, buf)
	assert.Greater(t, r.R, uint8(0))
	assert.Less(t, r.R, uint8(255))
	run(e, 1)
	assert.Equal(t, pixel.White, readerColor(t, buf))

	// second pulse ends on tick 561
	run(e, 60)
	assert.Equal(t, pixel.Black, readerColor(t, buf))
	assert.Equal(t, Idle, e.State())
}

func TestSetSameStateIsNoop(t *testing.T) {
	e, _, seen := newEngine(t, DefaultTiming())
	require.NoError(t, e.SetState(Idle, 4))
	assert.Empty(t, *seen)

	require.NoError(t, e.SetState(Active, 3))
	require.NoError(t, e.SetState(Active, 5))
	require.NoError(t, e.SetState(Active, 0), "theme is not checked when already active")
	assert.Equal(t, 3, e.Theme(), "repeated request keeps the running theme")
	assert.Len(t, *seen, 1)
}

func TestActiveFadeOutOrder(t *testing.T) {
	e, buf, _ := newEngine(t, DefaultTiming())
	run(e, 1)
	require.NoError(t, e.SetState(Active, 3))

	darkAt := map[int]int{}
	var order []int
	for n := 1; n <= 120; n++ {
		e.Tick(tick)
		for i := 1; i <= 6; i++ {
			if _, ok := darkAt[i]; ok {
				continue
			}
			if pedestalColor(t, buf, i) == pixel.Black {
				darkAt[i] = n
				order = append(order, i)
			}
		}
	}
	assert.Equal(t, []int{3, 4, 5, 6, 1, 2}, order)
	assert.Equal(t, map[int]int{3: 10, 4: 30, 5: 50, 6: 70, 1: 90, 2: 110}, darkAt)
}

func TestActiveCancelsIdleMidWave(t *testing.T) {
	e, buf, _ := newEngine(t, DefaultTiming())
	run(e, 215)
	p1 := pedestalColor(t, buf, 1)
	require.NotEqual(t, pixel.White, p1, "pedestal 1 should be mid-wave")

	require.NoError(t, e.SetState(Active, 1))
	run(e, 10)
	assert.Equal(t, pixel.Black, pedestalColor(t, buf, 1))
	assert.Equal(t, pixel.White, pedestalColor(t, buf, 2), "idle wave must not run after the switch")
	run(e, 100)
	for i := 1; i <= 6; i++ {
		assert.Equal(t, pixel.Black, pedestalColor(t, buf, i))
	}
}

func TestActiveRotation(t *testing.T) {
	e, buf, _ := newEngine(t, DefaultTiming())
	require.NoError(t, e.SetState(Active, 1))

	run(e, 119)
	assert.Empty(t, litReader(buf), "rotation starts after the fade-out")

	run(e, 1)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 17, 18, 19, 20, 21, 22, 23, 24}, litReader(buf))

	run(e, 4)
	assert.Equal(t, 0, litReader(buf)[0])
	run(e, 1)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 18, 19, 20, 21, 22, 23, 24, 25}, litReader(buf))
}

func TestRotationWrapsAroundReader(t *testing.T) {
	tm := DefaultTiming()
	tm.FadeOut = 0
	tm.FadeOutInterval = 0
	tm.RotationStep = 0
	e, buf, _ := newEngine(t, tm)
	require.NoError(t, e.SetState(Active, 1))

	// tick 1 draws step 0, every later tick advances one step
	run(e, 31)
	lit := litReader(buf)
	assert.Len(t, lit, 16)
	assert.Contains(t, lit, 34)
	assert.Contains(t, lit, 0, "run starting at 30 wraps to the segment start")
	assert.Contains(t, lit, 2)
	assert.NotContains(t, lit, 3)
}

func TestReturnToIdleSwitchesToIdle(t *testing.T) {
	e, buf, seen := newEngine(t, DefaultTiming())
	require.NoError(t, e.SetState(Active, 3))
	run(e, 120)
	require.NoError(t, e.SetState(ReturnToIdle, 0))

	run(e, 50)
	half := pedestalColor(t, buf, 1)
	assert.Greater(t, half.R, uint8(100))
	assert.Less(t, half.R, uint8(155))

	run(e, 49)
	assert.Equal(t, ReturnToIdle, e.State())
	run(e, 1)
	assert.Equal(t, Idle, e.State())
	for i := 1; i <= 6; i++ {
		assert.Equal(t, pixel.White, pedestalColor(t, buf, i))
	}
	assert.Equal(t, []transition{
		{Idle, Active, 3},
		{Active, ReturnToIdle, 3},
		{ReturnToIdle, Idle, 3},
	}, *seen)
}

func TestSetStateValidation(t *testing.T) {
	e, _, seen := newEngine(t, DefaultTiming())
	assert.ErrorIs(t, e.SetState(Active, 0), ErrInvalidTheme)
	assert.ErrorIs(t, e.SetState(Active, 7), ErrInvalidTheme)
	assert.ErrorIs(t, e.SetState(State(9), 1), ErrInvalidState)
	assert.ErrorIs(t, e.SetState(State(-1), 1), ErrInvalidState)
	assert.Equal(t, Idle, e.State())
	assert.Empty(t, *seen)
}

func TestTakeFrameTracksWrites(t *testing.T) {
	e, _, _ := newEngine(t, DefaultTiming())
	_, ok := e.TakeFrame(nil)
	assert.False(t, ok, "nothing drawn before the first tick")

	run(e, 1)
	frame, ok := e.TakeFrame(nil)
	require.True(t, ok)
	assert.Len(t, frame, layout.Default().Count()*3)
	assert.Equal(t, byte(255), frame[35*3])

	run(e, 1)
	_, ok = e.TakeFrame(frame)
	assert.False(t, ok, "hold draws nothing")
	assert.Equal(t, frame, e.Snapshot(nil))
}

func TestNewRejectsSmallBuffer(t *testing.T) {
	_, err := New(pixel.New(100), layout.Default(), DefaultTiming())
	assert.Error(t, err)
	_, err = New(nil, layout.Default(), DefaultTiming())
	assert.Error(t, err)
}

func TestParseState(t *testing.T) {
	for _, s := range []State{Idle, Active, ReturnToIdle} {
		got, err := ParseState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	got, err := ParseState(" Active ")
	require.NoError(t, err)
	assert.Equal(t, Active, got)

	_, err = ParseState("dance")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "state(7)", State(7).String())
}

func TestPedestalOrder(t *testing.T) {
	assert.Equal(t, []int{3, 4, 5, 6, 1, 2}, PedestalOrder(3, 6))
	assert.Equal(t, []int{1, 2, 3}, PedestalOrder(1, 3))
	assert.Equal(t, []int{1, 2, 3}, PedestalOrder(9, 3))
	assert.Nil(t, PedestalOrder(1, 0))
}

func TestEngineDebugPanel(t *testing.T) {
	e, _, _ := newEngine(t, DefaultTiming())
	require.NoError(t, e.SetState(Active, 2))
	var p debugui.Panel
	e.RenderDebugUI(&p)
	assert.Contains(t, p.Fields, debugui.Field{Key: "state", Value: "active"})
	assert.Contains(t, p.Fields, debugui.Field{Key: "theme", Value: 2})
	assert.Len(t, p.Rows, 7)
}
