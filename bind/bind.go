// Package bind implements the Option/Channel Binder (spec.md §4.H):
// validating and applying a host-supplied option map and channel map
// against a decoder's Descriptor.
package bind

import (
	"fmt"

	"github.com/sigrok-go/sigdecode/decoder"
	"github.com/sigrok-go/sigdecode/dlog"
)

// ApplyOptions validates opts against class's declared options and
// returns the merged map (declared defaults filled in for anything
// absent from opts). A value whose Go type disagrees with the
// declared option's scalar kind is an error; unknown keys are logged
// and otherwise ignored, matching spec.md §4.D/§4.H ("Unused map
// entries produce a log warning, not an error").
func ApplyOptions(class *decoder.Descriptor, opts map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(class.Options))
	for _, o := range class.Options {
		out[o.ID] = o.Default
	}
	for k, v := range opts {
		o, ok := class.OptionByID(k)
		if !ok {
			dlog.Warn("decoder %s: ignoring unknown option %q", class.ID, k)
			continue
		}
		if !kindMatches(o.Kind, v) {
			return nil, fmt.Errorf("decoder %s: option %q: value %v does not match declared type", class.ID, k, v)
		}
		out[k] = v
	}
	return out, nil
}

func kindMatches(kind decoder.OptionKind, v any) bool {
	switch kind {
	case decoder.OptString:
		_, ok := v.(string)
		return ok
	case decoder.OptInt:
		switch v.(type) {
		case int, int32, int64, uint, uint32, uint64:
			return true
		default:
			return false
		}
	case decoder.OptFloat:
		switch v.(type) {
		case float32, float64:
			return true
		default:
			return false
		}
	default:
		return false
	}
}

// ApplyChannels validates a host-supplied channel map (declared
// channel id -> host channel index) against class, returning the
// channelmap slice indexed the same way class.Channels is ordered.
// Every required channel must appear; missing optional channels are
// left at -1. A channel id not declared by class is an error.
func ApplyChannels(class *decoder.Descriptor, assignment map[string]int) ([]int, error) {
	out := make([]int, len(class.Channels))
	for i := range out {
		out[i] = -1
	}
	seen := make(map[string]bool, len(assignment))
	for id, hostCh := range assignment {
		idx := -1
		for i, c := range class.Channels {
			if c.ID == id {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, fmt.Errorf("decoder %s: channel %q is not declared by this decoder", class.ID, id)
		}
		out[idx] = hostCh
		seen[id] = true
	}
	for _, c := range class.Channels {
		if c.Kind == decoder.Required && !seen[c.ID] {
			return nil, fmt.Errorf("decoder %s: required channel %q was not assigned", class.ID, c.ID)
		}
	}
	return out, nil
}
