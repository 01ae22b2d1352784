// Package pixel holds the flat RGB buffer that backs every LED in the
// installation.
package pixel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coreman2200/funtimes-pedestals/internal/debugui"
	"github.com/coreman2200/funtimes-pedestals/internal/layout"
)

// ErrOutOfRange is returned for pixel indexes outside [0, Len()).
var ErrOutOfRange = errors.New("pixel index out of range")

// Buffer stores R,G,B per pixel, pixel i at byte offset 3*i.
// It is allocated once and never resized. Buffer does no locking; the
// owner serialises writes.
type Buffer struct {
	rgb    []byte
	length int

	// RowWidth is the number of LEDs per row in the debug grid.
	RowWidth int
}

func New(length int) *Buffer {
	if length < 0 {
		length = 0
	}
	return &Buffer{rgb: make([]byte, length*3), length: length, RowWidth: 35}
}

func (b *Buffer) Len() int { return b.length }

// Bytes exposes the backing array. Callers must not retain or write it.
func (b *Buffer) Bytes() []byte { return b.rgb }

// Snapshot copies the buffer into dst, growing it when needed.
func (b *Buffer) Snapshot(dst []byte) []byte {
	if cap(dst) < len(b.rgb) {
		dst = make([]byte, len(b.rgb))
	}
	dst = dst[:len(b.rgb)]
	copy(dst, b.rgb)
	return dst
}

func (b *Buffer) check(index int) error {
	if index < 0 || index >= b.length {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, index, b.length)
	}
	return nil
}

func (b *Buffer) SetPixel(index int, r, g, bl uint8) error {
	if err := b.check(index); err != nil {
		return err
	}
	off := index * 3
	b.rgb[off+0] = r
	b.rgb[off+1] = g
	b.rgb[off+2] = bl
	return nil
}

func (b *Buffer) Set(index int, c RGB) error { return b.SetPixel(index, c.R, c.G, c.B) }

func (b *Buffer) Pixel(index int) (RGB, error) {
	if err := b.check(index); err != nil {
		return Black, err
	}
	off := index * 3
	return RGB{R: b.rgb[off], G: b.rgb[off+1], B: b.rgb[off+2]}, nil
}

func (b *Buffer) SetAll(r, g, bl uint8) {
	for i := 0; i < b.length; i++ {
		_ = b.SetPixel(i, r, g, bl)
	}
}

// Fill writes c to pixels [start, start+n).
func (b *Buffer) Fill(start, n int, c RGB) error {
	if n <= 0 {
		return nil
	}
	if err := b.check(start); err != nil {
		return err
	}
	if err := b.check(start + n - 1); err != nil {
		return err
	}
	for i := start; i < start+n; i++ {
		_ = b.Set(i, c)
	}
	return nil
}

// FillWrapped writes n pixels of c inside the segment [segStart,
// segStart+segLen), beginning at offset and wrapping modulo segLen.
func (b *Buffer) FillWrapped(segStart, segLen, offset, n int, c RGB) error {
	if segLen <= 0 || n <= 0 {
		return nil
	}
	if err := b.check(segStart); err != nil {
		return err
	}
	if err := b.check(segStart + segLen - 1); err != nil {
		return err
	}
	seg := layout.Segment{Start: segStart, Len: segLen}
	for j := 0; j < n; j++ {
		_ = b.Set(seg.Index(offset+j), c)
	}
	return nil
}

func (b *Buffer) RenderDebugUI(p *debugui.Panel) {
	p.Field("pixels", b.length)
	p.Field("bytes", len(b.rgb))
	row := b.RowWidth
	if row <= 0 {
		row = 35
	}
	var sb strings.Builder
	for i := 0; i < b.length; i++ {
		c, _ := b.Pixel(i)
		if i%row != 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(c.Hex()[1:])
		if (i+1)%row == 0 {
			p.Row(sb.String())
			sb.Reset()
		}
	}
	if sb.Len() > 0 {
		p.Row(sb.String())
	}
}
