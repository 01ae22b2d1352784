package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSegments(t *testing.T) {
	l := Default()
	assert.Equal(t, 245, l.Count())
	assert.Equal(t, Segment{Start: 0, Len: 35}, l.Reader())

	for i := 1; i <= 6; i++ {
		s, err := l.Pedestal(i)
		require.NoError(t, err)
		assert.Equal(t, i*35, s.Start)
		assert.Equal(t, i*35+35, s.End())
	}
	_, err := l.Pedestal(0)
	assert.Error(t, err)
	_, err = l.Pedestal(7)
	assert.Error(t, err)
}

func TestSegmentIndexWraps(t *testing.T) {
	s := Segment{Start: 35, Len: 35}
	assert.Equal(t, 35, s.Index(0))
	assert.Equal(t, 69, s.Index(34))
	assert.Equal(t, 35, s.Index(35))
	assert.Equal(t, 52, s.Index(17+35))
	assert.Equal(t, 69, s.Index(-1))
}

func TestValidate(t *testing.T) {
	l := Default()
	assert.NoError(t, l.Validate(245))
	assert.NoError(t, l.Validate(600))
	assert.Error(t, l.Validate(244))
	assert.Error(t, Layout{}.Validate(100))
}
