// Package traceevent defines the tagged event record that flows through
// the ring buffer: function entry/exit pairs, instants, counters, object
// lifecycle markers, and opaque raw events, along with the name-interning
// cache used to format function-entry/exit display names cheaply.
package traceevent

// Kind discriminates the variant carried by an Event.
type Kind uint8

const (
	// KindFEE is a function entry or exit event.
	KindFEE Kind = iota
	// KindInstant is a user-annotated instant event.
	KindInstant
	// KindCounter is a named numeric counter sample.
	KindCounter
	// KindObject is an object lifecycle marker (new/snapshot/destroy).
	KindObject
	// KindRaw is an opaque, already-serialized event passed through.
	KindRaw
)

// FEEPhase distinguishes the four function entry/exit sub-events.
type FEEPhase uint8

const (
	PhaseEntry FEEPhase = iota
	PhaseExit
	PhaseCEntry
	PhaseCExit
)

// ObjectPhase is the Chrome Trace Event object lifecycle phase.
type ObjectPhase uint8

const (
	ObjectNew ObjectPhase = iota
	ObjectSnapshot
	ObjectDestroy
)

// InstantScope is the Chrome Trace Event instant-event scope.
type InstantScope uint8

const (
	ScopeGlobal InstantScope = iota
	ScopeProcess
	ScopeThread
)

// FEEData is the payload of a KindFEE event. Exactly one of the
// Python-function fields (CodeName/CodeFilename/CodeFirstLine) or the
// native-function fields (ModuleName/TypeName/MethodName) is populated,
// mirroring the original's union of the two FEE subvariants.
type FEEData struct {
	Phase FEEPhase

	// Populated when the frame is an interpreted function.
	CodeName      string
	CodeFilename  string
	CodeFirstLine int

	// Populated when the frame is a native (C-like) function.
	ModuleName string
	TypeName   string
	MethodName string

	// DurationTicks is filled in on a matched EXIT, either at record time
	// (by the hook) or during the load/dump post-pass that pairs ENTRY
	// with EXIT.
	DurationTicks int64

	Args        map[string]string
	ReturnValue string
	HasReturn   bool

	AsyncTaskID string
	HasAsyncTask bool

	CallerLine int
}

// InstantData is the payload of a KindInstant event.
type InstantData struct {
	Name  string
	Args  map[string]string
	Scope InstantScope
}

// CounterData is the payload of a KindCounter event.
type CounterData struct {
	Name   string
	Values map[string]float64
}

// ObjectData is the payload of a KindObject event.
type ObjectData struct {
	Name  string
	ID    string
	Phase ObjectPhase
	Args  map[string]string
}

// RawData is the payload of a KindRaw event: an already-serialized event
// structure passed through verbatim.
type RawData struct {
	Payload map[string]any
}

// Event is a tagged record with a common header and exactly one populated
// variant payload, selected by Kind. It mirrors the original's EventNode:
// a timestamp in ticks, a thread id, and a discriminated union of payload
// structs with distinct release semantics.
type Event struct {
	Kind Kind
	TS   int64
	PID  int64
	TID  uint64

	// Excluded marks a slot whose ENTRY was unwound by Stop while still
	// open: the slot's payload is stale and must be skipped by a reader
	// instead of being reported as an unmatched ENTRY.
	Excluded bool

	FEE      *FEEData
	Instant  *InstantData
	Counter  *CounterData
	Object   *ObjectData
	Raw      *RawData
}

// Clear releases all payload references held by ev according to its
// variant tag. It is idempotent: calling Clear on an already-cleared
// event is a no-op. This is the Go equivalent of the original's
// reference-counted clear_node, where Go's payloads are plain maps/slices
// so "release" just means dropping the pointer for the GC to reclaim.
func Clear(ev *Event) {
	if ev == nil {
		return
	}
	ev.Excluded = false
	ev.FEE = nil
	ev.Instant = nil
	ev.Counter = nil
	ev.Object = nil
	ev.Raw = nil
}
