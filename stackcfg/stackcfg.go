// Package stackcfg loads a decoder stack's option and channel
// assignment from a YAML document. This is ambient tooling the
// original C core does not need (its host, a command-line tool,
// builds the hash tables itself in memory) but which a Go module with
// no built-in host application benefits from, using the teacher's
// configuration-file library (gopkg.in/yaml.v3).
package stackcfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DecoderSpec is one entry of a stack: which decoder to instantiate,
// its option values, and its channel assignment.
type DecoderSpec struct {
	ID       string         `yaml:"id"`
	Options  map[string]any `yaml:"options"`
	Channels map[string]int `yaml:"channels"`
}

// Document is the top-level shape of a stack configuration file: an
// ordered list of decoders, bottom-most first, each one stacked on the
// previous.
type Document struct {
	SampleRate uint64        `yaml:"samplerate"`
	Stack      []DecoderSpec `yaml:"stack"`
}

// Load reads and parses a stack configuration file.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stackcfg: reading %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("stackcfg: parsing %s: %w", path, err)
	}
	if len(doc.Stack) == 0 {
		return nil, fmt.Errorf("stackcfg: %s declares an empty stack", path)
	}
	return &doc, nil
}
