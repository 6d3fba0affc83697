// pkg/trace/model.go
// Common post-decode trace record shared by the Tracepath CLI, gateway and
// any external integration that wants to reason about a captured snapshot
// without carrying the full Chrome Trace Event JSON shape around.
//
// The design philosophy:
//   - Keep the struct flat and allocation-cheap so that millions of events can
//     be handled without GC pressure.
//   - Use the same (pid, tid) identity as traceevent.ChromeEvent so Record
//     round-trips cleanly against a decoded snapshot.
//   - Provide a small EventType enum covering the function-call and
//     instant/counter/object event kinds a trace snapshot carries.
//
// The package purposefully does **not** include any I/O beyond ReadAll;
// reader.go implements deserialisation and filters.go implements the
// predicate helpers.
package trace

import (
	"time"

	"github.com/tracepath/tracepath/pkg/traceevent"
)

// EventType identifies the kind of a flattened Record, mirroring the Chrome
// Trace Event "ph" field as a comparable enum for filtering/aggregation.
type EventType uint16

const (
    EvCall           EventType = 1 // complete function call span ("X")
    EvInstant        EventType = 2 // instant annotation ("i")
    EvCounter        EventType = 3 // named numeric counter sample ("C")
    EvObjectNew      EventType = 4
    EvObjectSnapshot EventType = 5
    EvObjectDestroy  EventType = 6
    EvMetadata       EventType = 7
)

var phToType = map[string]EventType{
    traceevent.PhComplete: EvCall,
    traceevent.PhInstant:  EvInstant,
    traceevent.PhCounter:  EvCounter,
    traceevent.PhNew:      EvObjectNew,
    traceevent.PhSnapshot: EvObjectSnapshot,
    traceevent.PhDestroy:  EvObjectDestroy,
    traceevent.PhMetadata: EvMetadata,
}

// Record is a flattened, analysis-friendly view of one traceevent.ChromeEvent.
//
// Fields:
//   Ts    – microseconds since trace start, as recorded by the tracer;
//   PID   – process id;
//   TID   – thread/goroutine id;
//   Type  – event kind;
//   Name  – function name or annotation/counter/object name;
//   Value – generic payload whose meaning depends on Type (duration for
//           EvCall, counter value for EvCounter). 0 when unused.
type Record struct {
    Ts    float64   `json:"ts"`
    PID   int64     `json:"pid"`
    TID   uint64    `json:"tid"`
    Type  EventType `json:"type"`
    Name  string    `json:"name"`
    Value float64   `json:"val,omitempty"`
}

// Time converts the record's microsecond timestamp to a wall-clock estimate.
// Caller must supply the base wall time corresponding to ts=0 (usually the
// time.Now() captured when the snapshot started).
func (r Record) Time(base time.Time) time.Time {
    return base.Add(time.Duration(r.Ts * float64(time.Microsecond)))
}

// FromChromeEvent flattens one decoded event into a Record. Events whose
// phase has no Record mapping decode to the zero Record and ok=false.
func FromChromeEvent(ev traceevent.ChromeEvent) (Record, bool) {
    t, ok := phToType[ev.Ph]
    if !ok {
        return Record{}, false
    }
    val := ev.Dur
    if ev.Ph == traceevent.PhCounter {
        if v, ok := ev.Args["value"].(float64); ok {
            val = v
        }
    }
    return Record{Ts: ev.TS, PID: ev.PID, TID: ev.TID, Type: t, Name: ev.Name, Value: val}, true
}
