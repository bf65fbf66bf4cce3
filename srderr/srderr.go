// Package srderr defines the small, closed vocabulary of status codes
// returned across the decode engine's API boundary.
package srderr

// Code is a status/error code returned by engine entry points. The zero
// value is OK.
type Code int

const (
	OK                   Code = 0
	Generic              Code = -1
	OutOfMemory          Code = -2
	BadArgument          Code = -3
	InternalBug          Code = -4
	HostRuntime          Code = -5
	DecoderPath          Code = -6
	TerminationRequested Code = -7
)

var names = map[Code]string{
	OK:                   "no error",
	Generic:              "generic/unspecified error",
	OutOfMemory:          "memory allocation error",
	BadArgument:          "function argument error",
	InternalBug:          "internal bug in libsigrokdecode/sigdecode",
	HostRuntime:          "decoder host runtime error",
	DecoderPath:          "protocol decoder path invalid",
	TerminationRequested: "termination requested",
}

// Error implements the standard error interface so a Code can be
// returned, wrapped, and compared with errors.Is like any other error.
func (c Code) Error() string {
	if s, ok := names[c]; ok {
		return s
	}
	return "unknown error"
}

// OKOrErr returns nil for OK, and the Code itself (as an error) otherwise.
// Convenience for call sites that otherwise juggle both a Code and an
// error return.
func (c Code) OKOrErr() error {
	if c == OK {
		return nil
	}
	return c
}
