package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubReplaysAndFansOut(t *testing.T) {
	h := NewHub(2)
	h.Publish(Diagnostic{Severity: Info, Code: "A"})
	h.Publish(Diagnostic{Severity: Info, Code: "B"})
	h.Publish(Diagnostic{Severity: Warn, Code: "C"})

	ch, cancel := h.Subscribe(4)
	defer cancel()
	assert.Equal(t, "B", (<-ch).Code)
	assert.Equal(t, "C", (<-ch).Code)

	h.Publish(Diagnostic{Severity: Err, Code: CodeOutput})
	d := <-ch
	assert.Equal(t, CodeOutput, d.Code)
	assert.False(t, d.Time.IsZero())
	assert.Len(t, h.Recent(), 2)
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub(0)
	ch, cancel := h.Subscribe(1)
	for i := 0; i < 10; i++ {
		h.Publish(Diagnostic{Code: "X"})
	}
	assert.Len(t, ch, 1)
	cancel()
	cancel()
	_, ok := <-ch
	require.True(t, ok, "buffered event still readable")
	_, ok = <-ch
	assert.False(t, ok)
}
