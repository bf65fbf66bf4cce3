package cond

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigrok-go/sigdecode/sample"
)

func chunkFrom(values ...uint8) *sample.Chunk {
	return &sample.Chunk{
		AbsEnd:   uint64(len(values)),
		Channels: []sample.ChannelData{{Bits: sample.Pack(values)}},
	}
}

func TestScanEmptyConditionsMatchesImmediately(t *testing.T) {
	st := NewScanState(1)
	chunk := chunkFrom(0, 1, 0)
	matched, arr := Scan(st, chunk, []int{0}, nil)
	assert.True(t, matched)
	assert.Nil(t, arr)
	assert.Equal(t, uint64(0), st.AbsCur)
}

func TestScanRisingEdge(t *testing.T) {
	st := NewScanState(1)
	// samples: 0,0,1,1,0 — rising edge between index 1 and 2.
	chunk := chunkFrom(0, 0, 1, 1, 0)
	conds := List{{NewLevelOrEdgeTerm(0, RisingEdge)}}
	matched, arr := Scan(st, chunk, []int{0}, conds)
	require.True(t, matched)
	assert.Equal(t, []bool{true}, arr)
	assert.Equal(t, uint64(2), st.AbsCur)
}

func TestScanFallingEdge(t *testing.T) {
	st := NewScanState(1)
	chunk := chunkFrom(1, 1, 0, 0)
	conds := List{{NewLevelOrEdgeTerm(0, FallingEdge)}}
	matched, _ := Scan(st, chunk, []int{0}, conds)
	require.True(t, matched)
	assert.Equal(t, uint64(2), st.AbsCur)
}

func TestScanNoMatchReachesEnd(t *testing.T) {
	st := NewScanState(1)
	chunk := chunkFrom(0, 0, 0, 0)
	conds := List{{NewLevelOrEdgeTerm(0, RisingEdge)}}
	matched, _ := Scan(st, chunk, []int{0}, conds)
	assert.False(t, matched)
	assert.Equal(t, chunk.AbsEnd, st.AbsCur)
}

func TestScanSkipOnlyFastForward(t *testing.T) {
	st := NewScanState(1)
	chunk := &sample.Chunk{AbsEnd: 1000, Channels: []sample.ChannelData{{Constant: true}}}
	conds := List{{NewSkipTerm(500)}}
	matched, arr := Scan(st, chunk, []int{0}, conds)
	require.True(t, matched)
	assert.Equal(t, []bool{true}, arr)
	assert.Equal(t, uint64(500), st.AbsCur)
}

func TestScanAllConstantShortcut(t *testing.T) {
	st := NewScanState(1)
	chunk := &sample.Chunk{AbsEnd: 1_000_000, Channels: []sample.ChannelData{{Constant: false}}}
	conds := List{{NewLevelOrEdgeTerm(0, High)}}
	matched, _ := Scan(st, chunk, []int{0}, conds)
	assert.False(t, matched)
	assert.Equal(t, chunk.AbsEnd, st.AbsCur, "constant-channel non-match should fast-forward to the chunk end")
}

func TestScanSkipWithConstantSibling(t *testing.T) {
	st := NewScanState(2)
	chunk := &sample.Chunk{
		AbsEnd: 1000,
		Channels: []sample.ChannelData{
			{Constant: false}, // never matches High
			{Constant: true},  // irrelevant, but present for the skip-and-constant path
		},
	}
	conds := List{
		{NewSkipTerm(100), NewLevelOrEdgeTerm(1, High)},
	}
	matched, _ := Scan(st, chunk, []int{0, 1}, conds)
	// channel 1 (constant high) always satisfies the High term; the skip
	// term is the only thing gating the match, so this should jump
	// straight to sample 100 and match there.
	require.True(t, matched)
	assert.Equal(t, uint64(100), st.AbsCur)
}

func TestScanAlwaysFalseNeverMatches(t *testing.T) {
	st := NewScanState(1)
	chunk := chunkFrom(1, 1, 1, 1)
	conds := List{{NewAlwaysFalseTerm()}}
	matched, _ := Scan(st, chunk, []int{0}, conds)
	assert.False(t, matched)
	assert.Equal(t, chunk.AbsEnd, st.AbsCur)
}

func TestScanNilConditionIsSkippedNotAutoMatched(t *testing.T) {
	st := NewScanState(1)
	chunk := chunkFrom(0, 0, 0)
	conds := List{nil, {NewLevelOrEdgeTerm(0, High)}}
	matched, arr := Scan(st, chunk, []int{0}, conds)
	assert.False(t, matched)
	assert.False(t, arr[0])
	assert.False(t, arr[1])
}

func TestScanSeedsInitialPinsOnFirstChunk(t *testing.T) {
	st := NewScanState(1)
	st.OldPins[0] = sample.InitialSameAsSample0
	chunk := chunkFrom(1, 1)
	// A rising edge can never fire at sample 0 once old_pins has been
	// seeded from sample 0 itself (old == cur == 1).
	conds := List{{NewLevelOrEdgeTerm(0, RisingEdge)}}
	matched, _ := Scan(st, chunk, []int{0}, conds)
	assert.False(t, matched)
}

func TestScanMultipleSkipTermsAdvanceInLockstep(t *testing.T) {
	st := NewScanState(2)
	chunk := &sample.Chunk{
		AbsEnd: 1000,
		Channels: []sample.ChannelData{
			{Constant: true},
			{Constant: true},
		},
	}
	// Two independent skip-only conditions in one list: the smaller
	// jump distance should govern the cursor, and both terms' counters
	// should have advanced by that same distance afterwards.
	condA := Condition{NewSkipTerm(50)}
	condB := Condition{NewSkipTerm(200)}
	conds := List{condA, condB}
	matched, arr := Scan(st, chunk, []int{0, 1}, conds)
	require.True(t, matched)
	assert.Equal(t, []bool{true, false}, arr)
	assert.Equal(t, uint64(50), st.AbsCur)
	assert.Equal(t, uint64(50), conds[1][0].SkipDone)
}
