// Package sample implements the Bit Sampler (spec.md §4.A): reading a
// single channel's value at an absolute sample index from a packed-bit
// buffer or a channel-wide constant, the same addressing the original
// core's term_matches()/update_old_pins_array() perform inline.
package sample

// InitialPin values a decoder's old_pins array slot can hold before any
// sample has been observed.
const (
	PinLow uint8 = iota
	PinHigh
	// InitialSameAsSample0 marks a slot whose value has not yet been
	// seeded: the first processed chunk resolves it to sample 0's value.
	InitialSameAsSample0
)

// ChannelData is one channel's contribution to a Chunk: either a packed
// LSB-first bit buffer covering exactly [AbsStart, AbsEnd), or a
// constant value broadcast across the whole chunk.
type ChannelData struct {
	// Bits holds bit k of byte k/8 as the value of sample AbsStart+k.
	// Nil means this channel is constant-valued for the chunk.
	Bits []byte
	// Constant is the broadcast value when Bits is nil.
	Constant bool
}

// IsConstant reports whether this channel has no per-sample data.
func (c ChannelData) IsConstant() bool {
	return c.Bits == nil
}

// Chunk is a contiguous [AbsStart, AbsEnd) run of absolute sample
// indices together with per-channel data, submitted in one producer
// call. Chunks must be consumed strictly in order with no gaps; this is
// a caller contract, checked at the session/instance boundary.
type Chunk struct {
	AbsStart uint64
	AbsEnd   uint64
	Channels []ChannelData
}

// Len returns the number of samples covered by the chunk.
func (c *Chunk) Len() uint64 {
	return c.AbsEnd - c.AbsStart
}

// At returns the value of channel ch at absolute sample index abs.
// The caller must ensure abs is within [c.AbsStart, c.AbsEnd) and ch is
// a valid index into c.Channels; out-of-range access is a programming
// error in the instance/scanner layer, not a recoverable condition.
func (c *Chunk) At(ch int, abs uint64) uint8 {
	cd := c.Channels[ch]
	if cd.Bits == nil {
		if cd.Constant {
			return 1
		}
		return 0
	}
	off := abs - c.AbsStart
	b := cd.Bits[off/8]
	if b&(1<<(off%8)) != 0 {
		return 1
	}
	return 0
}

// Pack packs a slice of 0/1 (or any nonzero) byte values into a
// LSB-first bit buffer suitable for ChannelData.Bits. This is the
// inverse of At and is primarily used by tests and capture front ends
// building chunks from raw per-sample readings.
func Pack(values []uint8) []byte {
	out := make([]byte, (len(values)+7)/8)
	for i, v := range values {
		if v != 0 {
			out[i/8] |= 1 << (i % 8)
		}
	}
	return out
}
