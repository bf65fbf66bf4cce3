// Package decoder holds the static description of a protocol decoder:
// its declared channels, options, and output schemas (spec.md §3
// "Decoder class", §4.D). It carries no behavior of its own — the
// behavior lives behind the Decoder interface in package instance,
// which every concrete decoder implements.
package decoder

// ChannelKind distinguishes the three channel roles a decoder declares.
type ChannelKind int

const (
	Required ChannelKind = iota
	Optional
	// Synthesized marks a "logic" output channel the decoder produces
	// rather than consumes (spec.md's [NEW] logic-output extension).
	Synthesized
)

// Channel is one entry in a decoder's channel declaration list.
type Channel struct {
	ID    string
	Name  string
	Desc  string
	Kind  ChannelKind
	Order int
}

// OptionKind is the closed set of scalar types an option value may
// hold, validated by package bind at stack-construction time.
type OptionKind int

const (
	OptString OptionKind = iota
	OptInt
	OptFloat
)

// Option describes one configurable knob of a decoder, with its
// default and (for enumerable options) the list of values it declares.
// Package bind checks a supplied value against Kind only; it does not
// check membership in Values.
type Option struct {
	ID      string
	Desc    string
	Kind    OptionKind
	Default any
	Values  []any // nil when the decoder declares no value list
}

// AnnotationClass is one entry in the decoder's annotation-type table
// (spec.md §4.D "annotation classes"), identified by its index in
// Descriptor.AnnotationClasses.
type AnnotationClass struct {
	ID   string
	Desc string
}

// AnnotationRow groups one or more annotation classes under a single
// display row, resolved by the linear scan in
// Descriptor.AnnotationRowFor.
type AnnotationRow struct {
	ID      string
	Desc    string
	Classes []int // indices into Descriptor.AnnotationClasses
}

// BinaryClass is one entry in the decoder's binary-output class table.
type BinaryClass struct {
	ID   string
	Desc string
}

// Descriptor is the immutable, shared description of a decoder
// implementation: everything sigdecode needs to know about it without
// running any of its code. One Descriptor is created per decoder type
// and shared by every Instance of that type.
type Descriptor struct {
	ID      string
	Name    string
	LongName string
	Desc    string
	License string
	Tags    []string

	Inputs  []string // accepted upstream output ids, e.g. "logic"
	Outputs []string // produced output ids, e.g. "uart"

	Channels []Channel
	Options  []Option

	AnnotationClasses []AnnotationClass
	AnnotationRows    []AnnotationRow
	BinaryClasses     []BinaryClass
}

// RequiredChannels returns the subset of Channels with Kind == Required.
func (d *Descriptor) RequiredChannels() []Channel {
	var out []Channel
	for _, c := range d.Channels {
		if c.Kind == Required {
			out = append(out, c)
		}
	}
	return out
}

// ChannelByID finds a declared channel by id, reporting ok=false if
// none matches.
func (d *Descriptor) ChannelByID(id string) (Channel, bool) {
	for _, c := range d.Channels {
		if c.ID == id {
			return c, true
		}
	}
	return Channel{}, false
}

// OptionByID finds a declared option by id, reporting ok=false if none
// matches.
func (d *Descriptor) OptionByID(id string) (Option, bool) {
	for _, o := range d.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// AnnotationRowFor resolves the display row a given annotation class
// index belongs to, via the same linear scan the original core's
// _annotation_rows() performs; -1 if the class isn't assigned to any
// row.
func (d *Descriptor) AnnotationRowFor(class int) int {
	for ri, row := range d.AnnotationRows {
		for _, c := range row.Classes {
			if c == class {
				return ri
			}
		}
	}
	return -1
}
