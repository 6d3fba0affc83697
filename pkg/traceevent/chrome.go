package traceevent

// ChromeEvent is one object in a Chrome Trace Event JSON document. Ph is
// one of "B","E","X","i","C","N","O","D","M". Ts and Dur are in
// microseconds as floating point, matching the Chrome Trace Event
// convention. Fields not applicable to a given Ph are left at their zero
// value and omitted on marshal.
type ChromeEvent struct {
	Name string         `json:"name,omitempty"`
	Ph   string         `json:"ph"`
	PID  int64          `json:"pid"`
	TID  uint64         `json:"tid"`
	TS   float64        `json:"ts"`
	Dur  float64        `json:"dur,omitempty"`
	Cat  string         `json:"cat,omitempty"`
	ID   string         `json:"id,omitempty"`
	Scope string        `json:"scope,omitempty"`
	Args map[string]any `json:"args,omitempty"`
}

// Chrome Trace Event phase constants.
const (
	PhBegin    = "B"
	PhEnd      = "E"
	PhComplete = "X"
	PhInstant  = "i"
	PhCounter  = "C"
	PhNew      = "N"
	PhSnapshot = "O"
	PhDestroy  = "D"
	PhMetadata = "M"
)

// ProcessNameEvent builds the ph="M" metadata event used to name a process.
func ProcessNameEvent(pid int64, tid uint64, name string) ChromeEvent {
	return ChromeEvent{
		Name: "process_name", Ph: PhMetadata, PID: pid, TID: tid,
		Args: map[string]any{"name": name},
	}
}

// ThreadNameEvent builds the ph="M" metadata event used to name a thread.
func ThreadNameEvent(pid int64, tid uint64, name string) ChromeEvent {
	return ChromeEvent{
		Name: "thread_name", Ph: PhMetadata, PID: pid, TID: tid,
		Args: map[string]any{"name": name},
	}
}
