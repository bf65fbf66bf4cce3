package cond

import "github.com/sigrok-go/sigdecode/sample"

// ScanState is the per-instance mutable state the Match Scanner carries
// between calls: the previous-sample cache and the absolute cursor. It
// is owned by the instance package and threaded through Scan() on every
// wait() call, mirroring the original core's old_pins_array and
// abs_cur_samplenum fields on srd_decoder_inst.
type ScanState struct {
	// OldPins holds, for decoder channel i, the value observed at
	// abs_cur-1 (or a pending sample.InitialSameAsSample0 sentinel
	// before the first chunk is seeded). Indexed by decoder-declared
	// channel, not host channel, so edge terms remain meaningful
	// independent of how a stack's channel map is wired.
	OldPins []uint8
	// AbsCur is the absolute index of the sample the scanner evaluates
	// next. After a match it stays on the matching sample, so the next
	// Scan call evaluates that sample again.
	AbsCur uint64
}

// NewScanState allocates scan state for a decoder declaring numChannels
// channels, with every slot pending initial-pin seeding.
func NewScanState(numChannels int) *ScanState {
	pins := make([]uint8, numChannels)
	for i := range pins {
		pins[i] = sample.InitialSameAsSample0
	}
	return &ScanState{OldPins: pins}
}

// seedInitialPins resolves any pending InitialSameAsSample0 slots to
// the chunk's sample 0, the same one-time fixup
// update_old_pins_array_initial_pins() performs before the very first
// match attempt (spec.md §4.A).
func seedInitialPins(st *ScanState, chunk *sample.Chunk, channelMap []int) {
	for i, hostCh := range channelMap {
		if hostCh < 0 {
			continue
		}
		if st.OldPins[i] != sample.InitialSameAsSample0 {
			continue
		}
		st.OldPins[i] = chunk.At(hostCh, chunk.AbsStart)
	}
}

// updateOldPins advances the previous-sample cache to the value at abs,
// for every channel this decoder has mapped to a host channel.
func updateOldPins(st *ScanState, chunk *sample.Chunk, channelMap []int, abs uint64) {
	for i, hostCh := range channelMap {
		if hostCh < 0 {
			continue
		}
		st.OldPins[i] = chunk.At(hostCh, abs)
	}
}

// condEval is the per-sample, per-condition evaluation outcome needed
// both to decide whether a condition matched outright and to drive the
// scanner's fast-forward bookkeeping.
type condEval struct {
	// matched is the full conjunction result for this exact sample.
	matched bool
	// skipOnly is true if every term evaluated at this sample was a
	// SKIP term. A condition cut short by a pending SKIP term before
	// any of its level/edge terms is reached counts as skip-only.
	skipOnly bool
	// allConst is true if every non-skip term evaluated referenced a
	// constant-valued channel (meaningless, and left true, when the
	// condition has no non-skip terms, i.e. is skip-only).
	allConst bool
	// nonSkipOK is true only when evaluation ran through every term
	// without a failure; it is false whenever a failing term or a
	// still-pending SKIP term cut evaluation short. It is only used
	// for conditions the fast-forward path has already proven
	// reference only constant channels, so the value can't change
	// mid-jump.
	nonSkipOK bool
	// hasSkip is true if the condition contains at least one SKIP
	// term.
	hasSkip bool
}

// evalCondition runs the Condition Evaluator (spec.md §4.B) over a
// single condition's terms at absolute sample abs, short-circuiting on
// the first failing term exactly as a logical AND would. remaining is
// the number of samples left in the chunk after abs (abs_end-abs-1),
// the cap applied to SKIP terms' jump distance.
func evalCondition(cond Condition, st *ScanState, chunk *sample.Chunk, channelMap []int, abs uint64, remaining uint64, skipMin *uint64, skipMinSet *bool) condEval {
	e := condEval{matched: true, skipOnly: true, allConst: true}
	for i := range cond {
		t := &cond[i]
		switch t.Kind {
		case AlwaysFalse:
			e.matched = false
			e.skipOnly = false
			return e
		case Skip:
			e.hasSkip = true
			toSkip := uint64(0)
			if t.SkipDone < t.SkipTarget {
				toSkip = t.SkipTarget - t.SkipDone
			}
			if toSkip > remaining {
				toSkip = remaining
			}
			if !*skipMinSet || toSkip < *skipMin {
				*skipMin = toSkip
				*skipMinSet = true
			}
			if !t.Done() {
				t.SkipDone++
				e.matched = false
				return e
			}
		default:
			e.skipOnly = false
			hostCh := channelMap[t.Channel]
			constChan := chunk.Channels[hostCh].IsConstant()
			if !constChan {
				e.allConst = false
			}
			cur := chunk.At(hostCh, abs)
			old := st.OldPins[t.Channel]
			if !sampleMatches(old, cur, t.Kind) {
				e.nonSkipOK = false
				e.matched = false
				return e
			}
		}
	}
	e.nonSkipOK = true
	return e
}

// conditionSatisfiedAfterJump re-derives a condition's match status
// once a skip fast-forward has advanced every SKIP term's counter in
// lockstep, reusing this sample's nonSkipOK/allConst verdict rather
// than re-sampling (valid only because the fast-forward paths that call
// this guarantee every non-skip term referenced a constant channel).
func conditionSatisfiedAfterJump(cond Condition, nonSkipOK bool) bool {
	for i := range cond {
		if cond[i].Kind == Skip && !cond[i].Done() {
			return false
		}
	}
	return nonSkipOK
}

// applySkipJump advances every SKIP term across the entire condition
// list by skipMin-1 additional samples (one sample's worth was already
// counted by evalCondition's per-sample increment), resolving spec.md
// §9's open question on SKIP/constant-channel interaction in favor of
// the strict reading: every SKIP term advances in lockstep by the jump
// distance, regardless of which condition contributed the minimum.
func applySkipJump(conditions List, skipMin uint64) {
	if skipMin == 0 {
		return
	}
	extra := skipMin - 1
	if extra == 0 {
		return
	}
	for _, cond := range conditions {
		for i := range cond {
			if cond[i].Kind != Skip {
				continue
			}
			if cond[i].SkipDone+extra > cond[i].SkipTarget {
				cond[i].SkipDone = cond[i].SkipTarget
			} else {
				cond[i].SkipDone += extra
			}
		}
	}
}

// Scan is the Match Scanner (spec.md §4.C): given the instance's scan
// state, the chunk currently being consumed, and its channel map and
// condition list, it advances st.AbsCur as far as the chunk allows and
// reports whether a condition matched before abs_end. matchArray, when
// non-nil, has one entry per condition reporting which one(s) matched.
//
// An empty condition list (or a list of only nil/empty conditions) is
// the wait()-with-no-conditions case: it matches immediately without
// consuming a sample, per spec.md §4.C.
func Scan(st *ScanState, chunk *sample.Chunk, channelMap []int, conditions List) (matched bool, matchArray []bool) {
	if conditions.Empty() {
		return true, nil
	}

	if st.AbsCur == 0 {
		seedInitialPins(st, chunk, channelMap)
	}

	matchArray = make([]bool, len(conditions))

	for st.AbsCur < chunk.AbsEnd {
		abs := st.AbsCur
		remaining := chunk.AbsEnd - abs - 1

		allSkipCond := true
		allSkipConst := true
		allInputConst := true
		haveSkip := false
		var skipMin uint64
		skipMinSet := false

		anyMatched := false
		evals := make([]condEval, len(conditions))
		for j, c := range conditions {
			if len(c) == 0 {
				continue
			}
			e := evalCondition(c, st, chunk, channelMap, abs, remaining, &skipMin, &skipMinSet)
			evals[j] = e
			if e.hasSkip {
				haveSkip = true
			}
			if e.matched {
				matchArray[j] = true
				anyMatched = true
			}
			if e.skipOnly {
				allSkipConst = false
			} else {
				allSkipCond = false
				allSkipConst = allSkipConst && e.allConst && !e.hasSkip
				allInputConst = allInputConst && e.allConst
			}
		}

		updateOldPins(st, chunk, channelMap, abs)

		if anyMatched {
			return true, matchArray
		}

		switch {
		case allSkipCond:
			// A zero-distance jump (SkipTarget unreachable within the
			// rest of the chunk) still consumes this one sample, so the
			// cursor always makes progress.
			jump := skipMin
			if jump == 0 {
				jump = 1
			}
			applySkipJump(conditions, jump)
			for j, c := range conditions {
				if len(c) == 0 {
					continue
				}
				if conditionSatisfiedAfterJump(c, evals[j].nonSkipOK || evals[j].skipOnly) {
					matchArray[j] = true
					anyMatched = true
				}
			}
			st.AbsCur += jump
			if anyMatched {
				return true, matchArray
			}
		case allSkipConst:
			st.AbsCur = chunk.AbsEnd
			return false, matchArray
		case haveSkip && allInputConst:
			jump := skipMin
			if jump == 0 {
				jump = 1
			}
			applySkipJump(conditions, jump)
			for j, c := range conditions {
				if len(c) == 0 {
					continue
				}
				if conditionSatisfiedAfterJump(c, evals[j].nonSkipOK) {
					matchArray[j] = true
					anyMatched = true
				}
			}
			st.AbsCur += jump
			if anyMatched {
				return true, matchArray
			}
		default:
			st.AbsCur++
		}
	}

	return false, matchArray
}
