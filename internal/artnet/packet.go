package artnet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Port is the well-known Art-Net UDP port.
	Port = 6454

	OpDmx           uint16 = 0x5000
	ProtocolVersion uint16 = 14
	HeaderSize             = 18
	PacketSize             = HeaderSize + UniverseSize
)

var (
	artNetID = []byte("Art-Net\x00")

	ErrNotArtNet = errors.New("not an Art-Net packet")
	ErrNotDmx    = errors.New("not an ArtDMX packet")
	ErrShort     = errors.New("ArtDMX packet too short")
)

// DMXPacket is a decoded ArtDMX packet.
type DMXPacket struct {
	Sequence uint8
	Physical uint8
	Universe uint16
	Length   int
	Data     [UniverseSize]byte
}

// PutHeader writes the 18-byte ArtDMX header for a 512-byte payload.
func PutHeader(dst []byte, universe uint16, sequence uint8) {
	copy(dst[0:8], artNetID)
	binary.LittleEndian.PutUint16(dst[8:10], OpDmx)
	binary.BigEndian.PutUint16(dst[10:12], ProtocolVersion)
	dst[12] = sequence
	dst[13] = 0 // physical
	binary.LittleEndian.PutUint16(dst[14:16], universe)
	binary.BigEndian.PutUint16(dst[16:18], UniverseSize)
}

// Encode serialises one ArtDMX packet into dst (PacketSize bytes).
func Encode(dst *[PacketSize]byte, universe uint16, sequence uint8, payload *[UniverseSize]byte) {
	PutHeader(dst[:HeaderSize], universe, sequence)
	copy(dst[HeaderSize:], payload[:])
}

// Decode parses an ArtDMX packet. Payloads shorter than 512 bytes are
// zero-padded.
func Decode(packet []byte) (DMXPacket, error) {
	var p DMXPacket
	if len(packet) < HeaderSize || !bytes.Equal(packet[0:8], artNetID) {
		return p, ErrNotArtNet
	}
	if op := binary.LittleEndian.Uint16(packet[8:10]); op != OpDmx {
		return p, fmt.Errorf("%w (opcode 0x%04x)", ErrNotDmx, op)
	}
	p.Sequence = packet[12]
	p.Physical = packet[13]
	p.Universe = binary.LittleEndian.Uint16(packet[14:16])
	p.Length = int(binary.BigEndian.Uint16(packet[16:18]))
	if p.Length > UniverseSize {
		p.Length = UniverseSize
	}
	if len(packet) < HeaderSize+p.Length {
		return p, fmt.Errorf("%w: length %d, have %d", ErrShort, p.Length, len(packet)-HeaderSize)
	}
	copy(p.Data[:], packet[HeaderSize:HeaderSize+p.Length])
	return p, nil
}

func (p DMXPacket) String() string {
	return fmt.Sprintf("universe=%d seq=%d len=%d data[0..3]={%d,%d,%d,%d}",
		p.Universe, p.Sequence, p.Length, p.Data[0], p.Data[1], p.Data[2], p.Data[3])
}
