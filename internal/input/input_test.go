package input

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type target struct {
	cmds []string
}

func (t *target) SelectSection(i int) error {
	if i < 1 || i > 6 {
		return errors.New("invalid section")
	}
	t.cmds = append(t.cmds, "section"+string(rune('0'+i)))
	return nil
}

func (t *target) RequestIdle() error {
	t.cmds = append(t.cmds, "idle")
	return nil
}

func TestReadKeys(t *testing.T) {
	tg := &target{}
	quit := 0
	in := "1\n\n S \n9\nx\n4\nq\n2\n"
	require.NoError(t, ReadKeys(strings.NewReader(in), tg, func() { quit++ }))
	assert.Equal(t, []string{"section1", "idle", "section4"}, tg.cmds)
	assert.Equal(t, 1, quit, "lines after q are not read")
}

func TestReadKeysEOF(t *testing.T) {
	tg := &target{}
	require.NoError(t, ReadKeys(strings.NewReader("3"), tg, nil))
	assert.Equal(t, []string{"section3"}, tg.cmds)
}

func TestDispatch(t *testing.T) {
	tg := &target{}
	byOff := map[int]int{17: 1, 27: 2, 22: 0}
	dispatch(tg, byOff, 27)
	dispatch(tg, byOff, 22)
	dispatch(tg, byOff, 5)
	assert.Equal(t, []string{"section2", "idle"}, tg.cmds)
}
