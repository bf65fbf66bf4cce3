// Package session implements the Session (spec.md §4.F): the
// top-level object a host application drives, owning the set of
// bottom-of-stack instances and the output callback table.
package session

import (
	"fmt"
	"sync"

	"github.com/sigrok-go/sigdecode/instance"
	"github.com/sigrok-go/sigdecode/output"
	"github.com/sigrok-go/sigdecode/sample"
	"github.com/sigrok-go/sigdecode/srderr"
)

// Session owns a list of bottom-of-stack decoder instances and
// fans sample chunks out to them in registration order.
type Session struct {
	mu         sync.Mutex
	bottoms    []*instance.Instance
	dispatch   *output.Dispatcher
	sampleRate uint64
	started    bool
}

// New creates an empty session.
func New() *Session {
	return &Session{dispatch: &output.Dispatcher{}}
}

// AddBottom registers inst as a new bottom-of-stack decoder, wiring it
// (and anything later stacked on it) into this session's output
// dispatcher.
func (s *Session) AddBottom(inst *instance.Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst.SetDispatcher(s.dispatch)
	s.bottoms = append(s.bottoms, inst)
}

// Stack stacks top onto bottom and keeps top wired to this session's
// dispatcher (instance.Stack already does this). If top was previously
// registered as a bottom-of-stack instance itself, it is removed from
// the session's bottom list — a stacked instance is fed by its parent,
// not directly by Send (spec.md §4.D "stack", mirroring
// srd_inst_stack's g_slist_remove of the newly-stacked instance from
// the session's di_list).
func (s *Session) Stack(bottom, top *instance.Instance) error {
	if err := instance.Stack(bottom, top); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.bottoms {
		if b == top {
			s.bottoms = append(s.bottoms[:i], s.bottoms[i+1:]...)
			break
		}
	}
	return nil
}

// SetSampleRate records the capture samplerate in Hz (spec.md §4.F
// "metadata_set(samplerate, Hz)").
func (s *Session) SetSampleRate(hz uint64) {
	s.mu.Lock()
	s.sampleRate = hz
	s.mu.Unlock()
}

// SampleRate returns the samplerate previously set, or 0 if none.
func (s *Session) SampleRate() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleRate
}

// AddCallback registers the session's single callback for output type
// t, replacing any previous one (spec.md §4.F "callback_add").
func (s *Session) AddCallback(t output.Type, cb func(reg output.Registration, payload any)) {
	s.dispatch.SetCallback(t, cb)
}

// Start invokes Start on every bottom instance (and, recursively,
// everything stacked on it).
func (s *Session) Start() error {
	s.mu.Lock()
	bottoms := append([]*instance.Instance(nil), s.bottoms...)
	s.started = true
	s.mu.Unlock()

	for _, b := range bottoms {
		if err := b.Start(); err != nil {
			return err
		}
	}
	return nil
}

// Send submits one chunk to every bottom instance in registration
// order, aborting on the first non-OK result (spec.md §4.F "send").
func (s *Session) Send(chunk *sample.Chunk) error {
	s.mu.Lock()
	bottoms := append([]*instance.Instance(nil), s.bottoms...)
	s.mu.Unlock()

	if !s.started {
		return fmt.Errorf("%w: session: Send called before Start", srderr.BadArgument)
	}

	for _, b := range bottoms {
		if err := b.SubmitChunk(chunk); err != nil {
			return err
		}
	}
	return nil
}

// SendEOF signals end-of-stream to every bottom instance, in
// registration order.
func (s *Session) SendEOF() error {
	s.mu.Lock()
	bottoms := append([]*instance.Instance(nil), s.bottoms...)
	s.mu.Unlock()

	for _, b := range bottoms {
		if err := b.SendEOF(); err != nil {
			return err
		}
	}
	return nil
}

// Terminate stops every bottom instance (and its stack) and joins
// their worker goroutines.
func (s *Session) Terminate() error {
	s.mu.Lock()
	bottoms := append([]*instance.Instance(nil), s.bottoms...)
	s.mu.Unlock()

	for _, b := range bottoms {
		if err := b.TerminateReset(); err != nil {
			return err
		}
	}
	return nil
}

// Destroy tears the session down: terminates every instance and
// drops the bottom list (spec.md §4.F "destroy").
func (s *Session) Destroy() error {
	if err := s.Terminate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.bottoms = nil
	s.mu.Unlock()
	return nil
}
