package tracer

import "errors"

// ConfigError reports an invalid option type, conflicting filters, or a
// Configure call while collection is active.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "tracer: config error: " + e.Reason }

// StateError reports an operation invoked while the tracer is in a state
// that forbids it: Load/Dump while collecting. Start while already
// collecting and AddFunctionArg with no current frame are reported by
// ErrAlreadyCollecting and ErrNoCurrentFrame instead.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string { return "tracer: state error: " + e.Reason }

// DecodeError reports a short read, an unknown top-level tag encountered
// during the initial parse, or a decompression failure. No function in
// this package returns it; pkg/codec reports these failures with its own
// DecodeError type.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return "tracer: decode error: " + e.Reason }

var (
	// ErrAlreadyCollecting is returned by Start when the tracer is
	// already collecting.
	ErrAlreadyCollecting = errors.New("tracer: already collecting")
	// ErrNotCollecting is returned by Stop when the tracer is not
	// currently collecting.
	ErrNotCollecting = errors.New("tracer: not collecting")
	// ErrNoCurrentFrame is returned by AddFunctionArg when the calling
	// thread has no open frame (GetFunctionArg returns an empty map).
	ErrNoCurrentFrame = errors.New("tracer: no current frame on thread")
	// ErrBothFileFilters is a ConfigError detail returned when both
	// IncludeFiles and ExcludeFiles are set in the same Configure call.
	ErrBothFileFilters = errors.New("tracer: at most one of include_files/exclude_files may be set")
)
