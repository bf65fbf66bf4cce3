package instance

import (
	"fmt"
	"sync"

	"github.com/sigrok-go/sigdecode/dlog"
	"github.com/sigrok-go/sigdecode/sample"
	"github.com/sigrok-go/sigdecode/srderr"
)

// Start runs the decoder's one-time initialization and recurses into
// stacked children, matching spec.md §4.F's "start invokes start() on
// every decoder recursively".
func (inst *Instance) Start() error {
	inst.mu.Lock()
	if inst.state != StateCreated {
		inst.mu.Unlock()
		return nil
	}
	inst.state = StateReady
	inst.mu.Unlock()

	if err := inst.callStart(); err != nil {
		return fmt.Errorf("instance %s: Start: %w", inst.id, err)
	}
	for _, child := range inst.next {
		if err := child.Start(); err != nil {
			return err
		}
	}
	return nil
}

// ensureWorker lazily launches the stack-worker goroutine on first use,
// matching the "READY --first decode()--> RUNNING" transition.
func (inst *Instance) ensureWorker() {
	inst.mu.Lock()
	if inst.started {
		inst.mu.Unlock()
		return
	}
	inst.started = true
	inst.state = StateRunning
	inst.wg.Add(1)
	inst.mu.Unlock()

	go inst.run()
}

// callStart invokes the decoder's Start, recovering any panic into a
// HostRuntime-coded error so a misbehaving decoder can't take the host
// process down with it (spec.md §7).
func (inst *Instance) callStart() (err error) {
	defer func() {
		if r := recover(); r != nil {
			dlog.Err("instance %s: Start panicked: %v", inst.id, r)
			err = fmt.Errorf("%w: instance %s: Start panicked: %v", srderr.HostRuntime, inst.id, r)
		}
	}()
	return inst.impl.Start(inst.handle())
}

// callDecode invokes the decoder's Decode, recovering any panic the
// same way callStart does, so one stacked instance's bug can't crash
// every other instance sharing the host process (spec.md §7).
func (inst *Instance) callDecode() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: instance %s: Decode panicked: %v", srderr.HostRuntime, inst.id, r)
		}
	}()
	return inst.impl.Decode(inst.handle())
}

func (inst *Instance) run() {
	defer inst.wg.Done()

	err := inst.callDecode()

	inst.mu.Lock()
	inst.decErr = err
	if inst.wantWaitTerminate {
		inst.state = StateTerminated
	} else {
		inst.state = StateDrained
	}
	inst.mu.Unlock()

	if err != nil && err != ErrEOF && err != ErrTerminated {
		dlog.Err("instance %s: decode: %v", inst.id, err)
	}
}

// SubmitChunk is the producer side of the stack worker's rendezvous
// (spec.md §4.E): it hands a new chunk to the instance's worker
// goroutine and blocks until that chunk has been fully accounted for.
// chunk.AbsStart must equal the instance's current scan cursor.
func (inst *Instance) SubmitChunk(chunk *sample.Chunk) error {
	inst.ensureWorker()

	inst.mu.Lock()
	if chunk.AbsStart != inst.scan.AbsCur {
		inst.mu.Unlock()
		return fmt.Errorf("%w: instance %s: chunk starts at %d, expected %d", srderr.BadArgument, inst.id, chunk.AbsStart, inst.scan.AbsCur)
	}
	inst.chunk = chunk
	inst.gotNewSamples = true
	inst.handledAllSamples = false
	inst.newChunkCond.Signal()
	for !inst.handledAllSamples && !inst.wantWaitTerminate {
		inst.handledAllCond.Wait()
	}
	term := inst.wantWaitTerminate
	inst.mu.Unlock()

	inst.flush()

	if term {
		return srderr.TerminationRequested
	}
	return nil
}

// SendEOF signals end-of-stream to the instance and waits for it to be
// acknowledged, then recurses into stacked children (spec.md §4.F
// "send_eof").
func (inst *Instance) SendEOF() error {
	inst.ensureWorker()

	inst.mu.Lock()
	inst.communicateEOF = true
	inst.gotNewSamples = true
	inst.handledAllSamples = false
	inst.newChunkCond.Signal()
	for !inst.handledAllSamples && !inst.wantWaitTerminate && inst.state != StateDrained {
		inst.handledAllCond.Wait()
	}
	term := inst.wantWaitTerminate
	inst.mu.Unlock()

	inst.flush()

	if term {
		return srderr.TerminationRequested
	}
	for _, child := range inst.next {
		if err := child.SendEOF(); err != nil {
			return err
		}
	}
	return nil
}

// flush invokes Flusher.Flush on this instance and recurses into
// stacked children, the "run flush down the stack" step of submit_chunk.
func (inst *Instance) flush() {
	if f, ok := inst.impl.(Flusher); ok {
		if err := f.Flush(); err != nil {
			dlog.Warn("instance %s: flush: %v", inst.id, err)
		}
	}
	for _, child := range inst.next {
		child.flush()
	}
}

// TerminateReset stops the worker goroutine, joins it, and resets all
// scan/rendezvous state, then recurses into stacked children and
// invokes the decoder's own Reset, if it implements one (spec.md
// §4.E "terminate_reset").
func (inst *Instance) TerminateReset() error {
	inst.mu.Lock()
	inst.wantWaitTerminate = true
	inst.newChunkCond.Broadcast()
	inst.handledAllCond.Broadcast()
	started := inst.started
	inst.mu.Unlock()

	if started {
		inst.wg.Wait()
	}

	// The worker goroutine has exited (or never started): no other
	// caller can be touching inst's rendezvous fields now.
	numChannels := len(inst.class.Channels)
	inst.conditions = nil
	inst.matched = nil
	inst.scan.OldPins = make([]uint8, numChannels)
	for i := range inst.scan.OldPins {
		inst.scan.OldPins[i] = sample.InitialSameAsSample0
	}
	inst.scan.AbsCur = 0
	inst.chunk = nil
	inst.gotNewSamples = false
	inst.handledAllSamples = false
	inst.communicateEOF = false
	inst.wantWaitTerminate = false
	inst.started = false
	inst.state = StateTerminated
	inst.mu = sync.Mutex{}
	inst.newChunkCond = sync.NewCond(&inst.mu)
	inst.handledAllCond = sync.NewCond(&inst.mu)

	var resetErr error
	if r, ok := inst.impl.(Resetter); ok {
		resetErr = r.Reset()
	}

	for _, child := range inst.next {
		if err := child.TerminateReset(); err != nil {
			return err
		}
	}
	return resetErr
}
