package artnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeHeaderIsByteExact(t *testing.T) {
	var payload [UniverseSize]byte
	payload[0], payload[511] = 0xaa, 0xbb
	var pkt [PacketSize]byte
	Encode(&pkt, 0x0102, 7, &payload)

	want := []byte{
		'A', 'r', 't', '-', 'N', 'e', 't', 0x00,
		0x00, 0x50, // OpDmx, little-endian
		0x00, 0x0e, // protocol 14, big-endian
		0x07,       // sequence
		0x00,       // physical
		0x02, 0x01, // universe, little-endian
		0x02, 0x00, // length 512, big-endian
	}
	assert.Equal(t, want, pkt[:HeaderSize])
	assert.Equal(t, byte(0xaa), pkt[HeaderSize])
	assert.Equal(t, byte(0xbb), pkt[PacketSize-1])
	assert.Len(t, pkt, 530)
}

func TestDecode(t *testing.T) {
	var payload [UniverseSize]byte
	for i := range payload {
		payload[i] = byte(i)
	}
	var pkt [PacketSize]byte
	Encode(&pkt, 9, 0, &payload)

	p, err := Decode(pkt[:])
	require.NoError(t, err)
	assert.Equal(t, uint16(9), p.Universe)
	assert.Equal(t, UniverseSize, p.Length)
	assert.Equal(t, payload, p.Data)
}

func TestDecodeRejects(t *testing.T) {
	_, err := Decode([]byte("hello"))
	assert.ErrorIs(t, err, ErrNotArtNet)

	poll := []byte("Art-Net\x00\x00\x20\x00\x0e\x06\x00\x00\x00\x00\x00")
	_, err = Decode(poll)
	assert.ErrorIs(t, err, ErrNotDmx)

	var pkt [PacketSize]byte
	Encode(&pkt, 0, 0, &[UniverseSize]byte{})
	_, err = Decode(pkt[:100])
	assert.ErrorIs(t, err, ErrShort)
}
