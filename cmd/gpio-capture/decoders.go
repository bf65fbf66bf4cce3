package main

import (
	"fmt"

	"github.com/sigrok-go/sigdecode/cond"
	"github.com/sigrok-go/sigdecode/decoder"
	"github.com/sigrok-go/sigdecode/instance"
	"github.com/sigrok-go/sigdecode/output"
	"github.com/sigrok-go/sigdecode/session"
	"github.com/sigrok-go/sigdecode/stackcfg"
)

// levelMonitorClass describes the one built-in decoder this demo host
// ships: it watches a single channel and emits an annotation on every
// rising edge. Real deployments register proper protocol decoders
// (UART, I2C, SPI, ...) the same way — implement instance.Decoder and
// add an entry to registry.
var levelMonitorClass = &decoder.Descriptor{
	ID:      "level-monitor",
	Name:    "level_monitor",
	Desc:    "Annotates rising edges on a single channel",
	License: "gplv2+",
	Channels: []decoder.Channel{
		{ID: "data", Name: "Data", Kind: decoder.Required},
	},
	AnnotationClasses: []decoder.AnnotationClass{
		{ID: "edge", Desc: "Rising edge"},
	},
	AnnotationRows: []decoder.AnnotationRow{
		{ID: "edges", Desc: "Edges", Classes: []int{0}},
	},
}

type levelMonitor struct {
	reg output.Registration
}

func (d *levelMonitor) Start(h *instance.Handle) error {
	reg, err := h.Register(output.Annotation, "edge", output.MetaSpec{})
	d.reg = reg
	return err
}

func (d *levelMonitor) Decode(h *instance.Handle) error {
	for {
		_, _, err := h.Wait(cond.List{{cond.NewLevelOrEdgeTerm(0, cond.RisingEdge)}})
		if err != nil {
			return err
		}
		ann := output.Annotation{Class: 0, Strings: []string{"edge"}}
		if err := h.Put(d.reg, h.SampleNum(), h.SampleNum()+1, ann); err != nil {
			return err
		}
	}
}

type registryEntry struct {
	class   *decoder.Descriptor
	newImpl func() instance.Decoder
}

var registry = map[string]registryEntry{
	"level-monitor": {
		class:   levelMonitorClass,
		newImpl: func() instance.Decoder { return &levelMonitor{} },
	},
}

// buildSession instantiates every decoder named in doc's stack,
// wires options and channels from the configuration, and stacks each
// one on its predecessor.
func buildSession(doc *stackcfg.Document) (*session.Session, error) {
	sess := session.New()

	var prev *instance.Instance
	for _, spec := range doc.Stack {
		entry, ok := registry[spec.ID]
		if !ok {
			return nil, fmt.Errorf("unknown decoder id %q", spec.ID)
		}
		inst, err := instance.New(entry.class, entry.newImpl(), spec.Options)
		if err != nil {
			return nil, fmt.Errorf("decoder %q: %w", spec.ID, err)
		}
		if len(spec.Channels) > 0 {
			if err := inst.SetChannels(spec.Channels); err != nil {
				return nil, fmt.Errorf("decoder %q: %w", spec.ID, err)
			}
		}
		if prev == nil {
			sess.AddBottom(inst)
		} else {
			if err := sess.Stack(prev, inst); err != nil {
				return nil, fmt.Errorf("stacking %q on its predecessor: %w", spec.ID, err)
			}
		}
		prev = inst
	}
	return sess, nil
}
