// Package instance implements the Decoder Instance (spec.md §4.D) and
// the Stack Worker (spec.md §4.E): one running copy of a decoder,
// bound to channels and options, driven by a producer feeding it
// sample chunks.
package instance

import (
	"fmt"
	"sync"

	"github.com/sigrok-go/sigdecode/bind"
	"github.com/sigrok-go/sigdecode/cond"
	"github.com/sigrok-go/sigdecode/decoder"
	"github.com/sigrok-go/sigdecode/dlog"
	"github.com/sigrok-go/sigdecode/output"
	"github.com/sigrok-go/sigdecode/sample"
)

// State is the instance's worker-lifecycle state (spec.md §4.E).
type State int

const (
	StateCreated State = iota
	StateReady
	StateRunning
	StateWaitingForChunk
	StateDrained
	StateTerminated
)

// Instance is one running copy of a decoder bound to a channel map
// and option set, optionally stacked beneath other instances.
type Instance struct {
	class *decoder.Descriptor
	id    string
	impl  Decoder

	options    map[string]any
	channelMap []int

	scan       *cond.ScanState
	conditions cond.List
	matched    []bool

	next []*Instance

	registrations []output.Registration
	dispatch      *output.Dispatcher

	mu                sync.Mutex
	newChunkCond      *sync.Cond
	handledAllCond    *sync.Cond
	chunk             *sample.Chunk
	gotNewSamples     bool
	handledAllSamples bool
	wantWaitTerminate bool
	communicateEOF    bool

	started bool
	state   State
	wg      sync.WaitGroup
	decErr  error
}

// New constructs an instance of the decoder described by class,
// implemented by impl, with an initial option set. Fails if any option
// value's type disagrees with its declared scalar kind.
func New(class *decoder.Descriptor, impl Decoder, options map[string]any) (*Instance, error) {
	if class == nil {
		return nil, fmt.Errorf("instance: nil decoder class")
	}
	if impl == nil {
		return nil, fmt.Errorf("instance: nil decoder implementation for %s", class.ID)
	}
	merged, err := bind.ApplyOptions(class, options)
	if err != nil {
		return nil, err
	}
	channelMap := make([]int, len(class.Channels))
	for i := range channelMap {
		channelMap[i] = i // identity mapping until SetChannels narrows it
	}
	inst := &Instance{
		class:      class,
		id:         class.ID,
		impl:       impl,
		options:    merged,
		channelMap: channelMap,
		scan:       cond.NewScanState(len(class.Channels)),
		state:      StateCreated,
	}
	inst.newChunkCond = sync.NewCond(&inst.mu)
	inst.handledAllCond = sync.NewCond(&inst.mu)
	return inst, nil
}

// Class returns the instance's decoder descriptor.
func (inst *Instance) Class() *decoder.Descriptor { return inst.class }

// ID returns the instance's identifier (currently the decoder class
// id; sessions with multiple instances of one decoder should assign
// distinguishing ids via SetID).
func (inst *Instance) ID() string { return inst.id }

// SetID overrides the instance's identifier, e.g. to disambiguate
// multiple instances of the same decoder in one session.
func (inst *Instance) SetID(id string) { inst.id = id }

// SetDispatcher installs the session-wide output dispatcher. Called by
// package session when an instance joins a session.
func (inst *Instance) SetDispatcher(d *output.Dispatcher) { inst.dispatch = d }

// SetOptions replaces the instance's option map. Options absent from
// opts retain their previous values (defaults, if never set). Unknown
// keys are warned about, not rejected.
func (inst *Instance) SetOptions(opts map[string]any) error {
	merged := make(map[string]any, len(inst.options))
	for k, v := range inst.options {
		merged[k] = v
	}
	for k, v := range opts {
		merged[k] = v
	}
	validated, err := bind.ApplyOptions(inst.class, merged)
	if err != nil {
		return err
	}
	inst.options = validated
	return nil
}

// Options returns the instance's current option map.
func (inst *Instance) Options() map[string]any { return inst.options }

// SetChannels replaces the instance's channel map. Every required
// channel must appear in assignment; missing optional channels are
// left unmapped (-1). A channel id not declared by the class is an
// error.
func (inst *Instance) SetChannels(assignment map[string]int) error {
	cm, err := bind.ApplyChannels(inst.class, assignment)
	if err != nil {
		return err
	}
	inst.channelMap = cm
	return nil
}

// SetInitialPins sets the old-pins vector to a caller-provided set of
// values drawn from {sample.PinLow, sample.PinHigh,
// sample.InitialSameAsSample0}. len(pins) must equal the declared
// channel count.
func (inst *Instance) SetInitialPins(pins []uint8) error {
	if len(pins) != len(inst.class.Channels) {
		return fmt.Errorf("instance %s: SetInitialPins: got %d values, want %d", inst.id, len(pins), len(inst.class.Channels))
	}
	inst.scan.OldPins = append([]uint8(nil), pins...)
	return nil
}

// Stack appends top to bottom's list of stacked decoders. Emits a
// warning (not an error) if none of bottom's declared output ids
// match any of top's declared input ids.
func Stack(bottom, top *Instance) error {
	if bottom == nil || top == nil {
		return fmt.Errorf("instance: Stack: nil instance")
	}
	compatible := false
outer:
	for _, out := range bottom.class.Outputs {
		for _, in := range top.class.Inputs {
			if out == in {
				compatible = true
				break outer
			}
		}
	}
	if !compatible {
		dlog.Warn("stack: %s has no output id matching any input id of %s", bottom.id, top.id)
	}
	top.dispatch = bottom.dispatch
	bottom.next = append(bottom.next, top)
	return nil
}
