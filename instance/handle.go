package instance

import (
	"errors"
	"fmt"

	"github.com/sigrok-go/sigdecode/cond"
	"github.com/sigrok-go/sigdecode/output"
)

// Decoder is the behavior a protocol decoder implementation provides.
// Decode runs on the instance's stack-worker goroutine for the entire
// lifetime of the instance, pulling samples via repeated calls to
// Handle.Wait; it returns when the handle reports end-of-stream or
// termination.
type Decoder interface {
	Start(h *Handle) error
	Decode(h *Handle) error
}

// Resetter is implemented by decoders that need to clear internal
// state on TerminateReset, invoked after the instance's own state has
// already been cleared.
type Resetter interface {
	Reset() error
}

// Flusher is implemented by decoders that want notice whenever the
// producer-side chunk they were handed has been fully accounted for
// (instance.Instance.SubmitChunk's "run flush down the stack" step).
type Flusher interface {
	Flush() error
}

// PassthroughConsumer is implemented by decoders stacked on top of
// another that want to receive that parent's passthrough output
// directly, the Go analogue of the original core's recursive
// decode(start, end, payload) call for Python-object passthrough data
// (spec.md §4.G).
type PassthroughConsumer interface {
	DecodePassthrough(h *Handle, start, end uint64, payload any) error
}

// ErrEOF is returned from Handle.Wait once the producer has signaled
// end-of-stream and no more conditions can ever match. It is a normal
// control-flow signal, not a failure (spec.md §7).
var ErrEOF = errors.New("instance: end of sample stream")

// ErrTerminated is returned from Handle.Wait (or any blocking call)
// once the instance has been asked to terminate.
var ErrTerminated = errors.New("instance: terminated")

// Handle is the API surface exposed to decoder code — the Go analogue
// of the `self` methods a hosted decoder calls (spec.md §6): put,
// register, wait, has_channel, plus the samplenum/matched accessors.
type Handle struct {
	inst *Instance
}

// SampleNum returns the scanner's cursor: after a successful Wait, the
// absolute index of the sample that matched.
func (h *Handle) SampleNum() uint64 {
	return h.inst.scan.AbsCur
}

// Matched returns the per-condition match flags from the most recent
// successful Wait call.
func (h *Handle) Matched() []bool {
	return h.inst.matched
}

// HasChannel reports whether channel index idx (a declared-channel
// index, not a host channel index) is mapped to an actual host
// channel on this instance.
func (h *Handle) HasChannel(idx int) bool {
	if idx < 0 || idx >= len(h.inst.channelMap) {
		return false
	}
	return h.inst.channelMap[idx] >= 0
}

// Wait blocks until one of conditions matches, or the stream ends, or
// termination is requested. An empty condition list matches
// immediately without consuming a sample. This is both the Condition
// Evaluator/Match Scanner's call site and the worker-side half of the
// stack worker's rendezvous (spec.md §4.E "Worker-side").
func (h *Handle) Wait(conditions cond.List) (pins []uint8, matched []bool, err error) {
	inst := h.inst
	for {
		inst.mu.Lock()
		for !inst.gotNewSamples && !inst.wantWaitTerminate {
			inst.newChunkCond.Wait()
		}
		if inst.wantWaitTerminate {
			inst.mu.Unlock()
			return nil, nil, ErrTerminated
		}
		chunk := inst.chunk
		inst.mu.Unlock()

		var ok bool
		var matchArray []bool
		if chunk != nil {
			ok, matchArray = cond.Scan(inst.scan, chunk, inst.channelMap, conditions)
		}

		if ok {
			inst.matched = matchArray
			pins := make([]uint8, len(inst.scan.OldPins))
			copy(pins, inst.scan.OldPins)
			return pins, matchArray, nil
		}

		inst.mu.Lock()
		inst.chunk = nil
		inst.gotNewSamples = false
		inst.handledAllSamples = true
		eof := inst.communicateEOF
		term := inst.wantWaitTerminate
		inst.handledAllCond.Broadcast()
		inst.mu.Unlock()

		if term {
			return nil, nil, ErrTerminated
		}
		if eof {
			return nil, nil, ErrEOF
		}
	}
}

// Register declares an output stream the decoder will emit through,
// deduplicating on (type, outputID, meta) the way the original core's
// Decoder_register() does, so repeated calls with identical arguments
// return the same token.
func (h *Handle) Register(t output.Type, outputID string, meta output.MetaSpec) (output.Registration, error) {
	inst := h.inst
	for _, r := range inst.registrations {
		if r.Type == t && r.OutputID == outputID && r.Meta == meta {
			return r, nil
		}
	}
	reg := output.Registration{
		Type:     t,
		OutputID: outputID,
		ProtoID:  inst.id,
		Meta:     meta,
		Seq:      len(inst.registrations),
	}
	inst.registrations = append(inst.registrations, reg)
	return reg, nil
}

// Put delivers one output payload through a previously returned
// Registration, implementing the dispatch-by-kind behavior of
// spec.md §4.G.
func (h *Handle) Put(reg output.Registration, start, end uint64, payload any) error {
	inst := h.inst

	switch reg.Type {
	case output.Annotation:
		ann, ok := payload.(output.Annotation)
		if !ok {
			return fmt.Errorf("instance %s: Put: annotation payload has wrong type", inst.id)
		}
		ann.StartSample, ann.EndSample = start, end
		ann.Row = inst.class.AnnotationRowFor(ann.Class)
		if inst.dispatch != nil {
			inst.dispatch.Deliver(reg, ann)
		}
	case output.Passthrough:
		pt, ok := payload.(output.Passthrough)
		if !ok {
			pt = output.Passthrough{Value: payload}
		}
		for _, child := range inst.next {
			if pc, ok := child.impl.(PassthroughConsumer); ok {
				if err := pc.DecodePassthrough(child.handle(), start, end, pt.Value); err != nil {
					return err
				}
			}
		}
		if inst.dispatch != nil {
			inst.dispatch.Deliver(reg, pt)
		}
	case output.Binary:
		bin, ok := payload.(output.Binary)
		if !ok {
			return fmt.Errorf("instance %s: Put: binary payload has wrong type", inst.id)
		}
		if len(bin.Data) == 0 {
			return fmt.Errorf("instance %s: Put: empty binary payload", inst.id)
		}
		if inst.dispatch != nil {
			inst.dispatch.Deliver(reg, bin)
		}
	case output.Logic:
		if end <= start {
			return fmt.Errorf("instance %s: Put: logic output requires end > start", inst.id)
		}
		lg, ok := payload.(output.Logic)
		if !ok {
			return fmt.Errorf("instance %s: Put: logic payload has wrong type", inst.id)
		}
		if inst.dispatch != nil {
			inst.dispatch.Deliver(reg, lg)
		}
	case output.Metadata:
		meta, ok := payload.(output.Metadata)
		if !ok {
			return fmt.Errorf("instance %s: Put: metadata payload has wrong type", inst.id)
		}
		if inst.dispatch != nil {
			inst.dispatch.Deliver(reg, meta)
		}
	default:
		return fmt.Errorf("instance %s: Put: unknown output type", inst.id)
	}
	return nil
}

func (inst *Instance) handle() *Handle {
	return &Handle{inst: inst}
}
