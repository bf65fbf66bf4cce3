package cond

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/sigrok-go/sigdecode/sample"
)

// TestChunkCompositionLaw checks that splitting one chunk into two
// arbitrary back-to-back pieces and feeding them through two Scan
// calls in sequence finds the same first match (or lack of one) as
// feeding the whole chunk through a single Scan call.
func TestChunkCompositionLaw(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(2, 64).Draw(rt, "n")
		values := make([]uint8, n)
		for i := range values {
			values[i] = uint8(rapid.IntRange(0, 1).Draw(rt, "bit"))
		}
		splitAt := uint64(rapid.IntRange(1, n-1).Draw(rt, "split"))

		whole := &sample.Chunk{AbsEnd: uint64(n), Channels: []sample.ChannelData{{Bits: sample.Pack(values)}}}
		stWhole := NewScanState(1)
		matchedWhole, _ := Scan(stWhole, whole, []int{0}, List{{NewLevelOrEdgeTerm(0, RisingEdge)}})

		first := &sample.Chunk{AbsStart: 0, AbsEnd: splitAt, Channels: []sample.ChannelData{{Bits: sample.Pack(values[:splitAt])}}}
		stSplit := NewScanState(1)
		condsSplit := List{{NewLevelOrEdgeTerm(0, RisingEdge)}}
		matchedOverall, _ := Scan(stSplit, first, []int{0}, condsSplit)
		if !matchedOverall {
			second := &sample.Chunk{AbsStart: splitAt, AbsEnd: uint64(n), Channels: []sample.ChannelData{{Bits: packFrom(values, splitAt)}}}
			matchedOverall, _ = Scan(stSplit, second, []int{0}, condsSplit)
		}

		if matchedWhole != matchedOverall {
			rt.Fatalf("whole-chunk match=%v, split-chunk match=%v (values=%v split=%d)", matchedWhole, matchedOverall, values, splitAt)
		}
		if matchedWhole && stWhole.AbsCur != stSplit.AbsCur {
			rt.Fatalf("match position differs: whole=%d split=%d", stWhole.AbsCur, stSplit.AbsCur)
		}
	})
}

// packFrom packs the sub-slice of values starting at absStart into a
// LSB-first buffer addressed relative to absStart, matching how a
// Chunk with AbsStart != 0 stores its bits (offset computed from
// AbsStart in Chunk.At).
func packFrom(values []uint8, absStart uint64) []byte {
	return sample.Pack(values[absStart:])
}

// TestSkipIdempotenceLaw checks that a SKIP(n-1) term scanned over an
// n-sample constant-channel chunk matches within that chunk and leaves
// its counter exactly at its target.
func TestSkipIdempotenceLaw(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 500).Draw(rt, "n")
		chunk := &sample.Chunk{AbsEnd: uint64(n), Channels: []sample.ChannelData{{Constant: true}}}
		st := NewScanState(1)
		conds := List{{NewSkipTerm(uint64(n - 1))}}
		matched, _ := Scan(st, chunk, []int{0}, conds)
		if !matched {
			rt.Fatalf("expected SKIP(%d) to match within a %d-sample constant chunk", n-1, n)
		}
		if conds[0][0].SkipDone != conds[0][0].SkipTarget {
			rt.Fatalf("SkipDone=%d did not reach SkipTarget=%d", conds[0][0].SkipDone, conds[0][0].SkipTarget)
		}
	})
}

// TestConstantChannelEquivalenceLaw checks that a constant-valued
// channel behaves identically to a packed buffer holding the same
// value at every sample, for a simple level condition.
func TestConstantChannelEquivalenceLaw(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 200).Draw(rt, "n")
		high := rapid.Boolean().Draw(rt, "high")

		values := make([]uint8, n)
		for i := range values {
			if high {
				values[i] = 1
			}
		}
		packed := &sample.Chunk{AbsEnd: uint64(n), Channels: []sample.ChannelData{{Bits: sample.Pack(values)}}}
		constant := &sample.Chunk{AbsEnd: uint64(n), Channels: []sample.ChannelData{{Constant: high}}}

		conds1 := List{{NewLevelOrEdgeTerm(0, High)}}
		conds2 := List{{NewLevelOrEdgeTerm(0, High)}}
		m1, _ := Scan(NewScanState(1), packed, []int{0}, conds1)
		m2, _ := Scan(NewScanState(1), constant, []int{0}, conds2)
		if m1 != m2 {
			rt.Fatalf("packed-buffer match=%v differs from constant-channel match=%v (high=%v n=%d)", m1, m2, high, n)
		}
	})
}
