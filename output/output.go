// Package output implements typed output dispatch (spec.md §4.F): the
// five payload kinds a decoder can emit, and delivery to per-type
// callbacks registered on a session. Modeled as tagged variants rather
// than an interface hierarchy, mirroring the closed switch in the
// original core's Decoder_put().
package output

// Type is the closed set of output kinds a decoder may produce.
type Type int

const (
	Annotation Type = iota
	Passthrough
	Binary
	Logic
	Metadata
)

func (t Type) String() string {
	switch t {
	case Annotation:
		return "annotation"
	case Passthrough:
		return "python"
	case Binary:
		return "binary"
	case Logic:
		return "logic"
	case Metadata:
		return "meta"
	default:
		return "unknown"
	}
}

// Registration is returned by Handle.Register (spec.md §4.F) and is the
// opaque token a decoder passes back into Handle.Put to identify which
// registered output stream a payload belongs to.
type Registration struct {
	Type     Type
	OutputID string // the decoder's own output id, e.g. "uart"
	ProtoID  string // owning decoder instance id
	Meta     MetaSpec
	Seq      int // dedup/index key assigned by the registering instance
}

// MetaKind distinguishes the scalar types carried by a Metadata
// payload's optional schema (spec.md's metadata-output extension).
type MetaKind int

const (
	MetaNone MetaKind = iota
	MetaInt
	MetaFloat
)

// MetaSpec optionally accompanies a Metadata registration, describing
// the single scalar field it reports (e.g. "samplerate").
type MetaSpec struct {
	Kind MetaKind
	Name string
}

// Annotation is the payload for Type == Annotation: a span of samples
// annotated with a decoder-declared class and one or more text
// renderings at decreasing verbosity.
type Annotation struct {
	StartSample uint64
	EndSample   uint64
	Class       int // index into the owning decoder's AnnotationClasses
	Row         int // index into the owning decoder's AnnotationRows, or -1
	Strings     []string
}

// Passthrough is the payload for Type == Passthrough: an opaque value
// forwarded to a stacked decoder or the host without interpretation by
// sigdecode itself (the "python passthrough" stream of the original
// core, generalized to any Go value).
type Passthrough struct {
	Value any
}

// Binary is the payload for Type == Binary: a class-tagged byte blob
// (e.g. a reassembled file or packet body).
type Binary struct {
	Class int // index into the owning decoder's BinaryClasses
	Data  []byte
}

// Logic is the payload for Type == Logic: synthesized sample data for
// a decoder-declared output channel. It is delivered to the session's
// Logic callback only; it is not fed to stacked decoders.
type Logic struct {
	Channel int // index into the owning decoder's Channels (Synthesized kind)
	Data    []byte
}

// Metadata is the payload for Type == Metadata: an out-of-band scalar
// report (e.g. a detected baud rate) keyed by the registration's
// MetaSpec.
type Metadata struct {
	Int   int64
	Float float64
}

// Dispatcher delivers payloads of each type to at most one callback per
// type, in the order spec.md §4.F describes: "each output type has at
// most one callback; Put on a type with no callback registered is a
// silent no-op."
type Dispatcher struct {
	callbacks [5]func(reg Registration, payload any)
}

// SetCallback installs (or replaces) the callback for a given output
// type. A nil callback deregisters it.
func (d *Dispatcher) SetCallback(t Type, cb func(reg Registration, payload any)) {
	d.callbacks[t] = cb
}

// Deliver dispatches payload to the callback registered for reg.Type,
// if any.
func (d *Dispatcher) Deliver(reg Registration, payload any) {
	cb := d.callbacks[reg.Type]
	if cb == nil {
		return
	}
	cb(reg, payload)
}
