// Package artnet frames pixel buffers into DMX universes and ships them
// to Art-Net nodes as ArtDMX datagrams.
package artnet

const (
	// UniverseSize is the DMX payload length carried in every ArtDMX packet.
	UniverseSize = 512
	// UniverseData is the number of pixel bytes per universe: 170 RGB pixels.
	// The remaining two bytes are always zero.
	UniverseData = 510
	// PixelsPerUniverse is the number of RGB pixels one universe carries.
	PixelsPerUniverse = UniverseData / 3
)

// FrameCount returns how many universes are sent for pixelCount pixels.
//
// The count is pixelCount*3/170 + 1, which over-allocates compared to a
// ceiling division. Deployed nodes are patched against this count, so the
// extra all-zero universes are part of the wire contract.
func FrameCount(pixelCount int) int {
	if pixelCount < 0 {
		pixelCount = 0
	}
	return pixelCount*3/PixelsPerUniverse + 1
}

// BuildUniverse returns the DMX payload of universe u: source bytes
// [u*510, u*510+510) of buf, zero-filled past the end of buf, with bytes
// 510 and 511 always zero.
func BuildUniverse(buf []byte, u int) [UniverseSize]byte {
	var out [UniverseSize]byte
	BuildUniverseInto(&out, buf, u)
	return out
}

// BuildUniverseInto is BuildUniverse writing into dst.
func BuildUniverseInto(dst *[UniverseSize]byte, buf []byte, u int) {
	n := 0
	if u >= 0 {
		start := u * UniverseData
		if start < len(buf) {
			n = copy(dst[:UniverseData], buf[start:])
		}
	}
	clear(dst[n:])
}
