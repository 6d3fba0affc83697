package tracer

import (
	"encoding/json"
	"io"

	"github.com/tracepath/tracepath/pkg/traceevent"
)

// pendingEntry is a FEE ENTRY/C_ENTRY event still waiting for its
// matching EXIT while walking the buffer.
type pendingEntry struct {
	ev *traceevent.Event
}

// Load walks the buffer from head to tail, expanding each tagged record
// into a Chrome Trace Event, matching each EXIT back to the nearest
// preceding unmatched ENTRY on the same thread to compute a duration.
// Unmatched ENTRYs still open at the end of the walk are emitted with
// duration measured to the last observed timestamp. Events whose duration
// is below MinDurationNs are dropped. Non-destructive until completion,
// after which the buffer is reset (matching Clear).
//
// Load must not be called while the tracer is collecting.
func (t *Tracer) Load() ([]traceevent.ChromeEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.collecting {
		return nil, &StateError{Reason: "load called while collecting"}
	}
	return t.loadLocked()
}

func (t *Tracer) loadLocked() ([]traceevent.ChromeEvent, error) {
	var out []traceevent.ChromeEvent

	for node := t.metadataHead; node != nil; node = node.next {
		if node.name == "" {
			continue
		}
		out = append(out, traceevent.ThreadNameEvent(t.pinnedPID, node.tid, node.name))
	}
	if t.cfg.ProcessName != "" {
		out = append(out, traceevent.ProcessNameEvent(t.pinnedPID, 0, t.cfg.ProcessName))
	}

	pending := make(map[uint64][]pendingEntry)
	var lastTS int64

	walk := func(ev *traceevent.Event) {
		if ev.Excluded {
			return
		}
		lastTS = ev.TS
		switch ev.Kind {
		case traceevent.KindFEE:
			out = appendFEE(out, t, ev, pending)
		case traceevent.KindInstant:
			out = append(out, t.instantToChrome(ev))
		case traceevent.KindCounter:
			out = append(out, t.counterToChrome(ev))
		case traceevent.KindObject:
			out = append(out, t.objectToChrome(ev))
		case traceevent.KindRaw:
			out = append(out, rawToChrome(ev))
		}
	}

	if t.headIdx <= t.tailIdx {
		for i := t.headIdx; i < t.tailIdx; i++ {
			walk(&t.buffer[i])
		}
	} else {
		for i := t.headIdx; i < t.bufferSize; i++ {
			walk(&t.buffer[i])
		}
		for i := 0; i < t.tailIdx; i++ {
			walk(&t.buffer[i])
		}
	}

	// Any ENTRYs still open at the end of the walk get a duration to the
	// last observed timestamp, per the stop-time open-frame rule.
	for tid, stack := range pending {
		for _, p := range stack {
			dur := lastTS - p.ev.TS
			if ce, ok := t.feeToChrome(p.ev, dur, tid); ok {
				out = append(out, ce)
			}
		}
	}

	t.clearLocked()
	return out, nil
}

func appendFEE(out []traceevent.ChromeEvent, t *Tracer, ev *traceevent.Event, pending map[uint64][]pendingEntry) []traceevent.ChromeEvent {
	fee := ev.FEE
	switch fee.Phase {
	case traceevent.PhaseEntry, traceevent.PhaseCEntry:
		pending[ev.TID] = append(pending[ev.TID], pendingEntry{ev: ev})
		return out
	case traceevent.PhaseExit, traceevent.PhaseCExit:
		stack := pending[ev.TID]
		if len(stack) == 0 {
			// Orphan EXIT with no matching ENTRY in this buffer window
			// (its ENTRY was evicted by ring-buffer overwrite). Dropped.
			return out
		}
		top := stack[len(stack)-1]
		pending[ev.TID] = stack[:len(stack)-1]
		if ce, ok := t.feeToChrome(top.ev, fee.DurationTicks, ev.TID); ok {
			out = append(out, ce)
		}
		return out
	}
	return out
}

// feeToChrome builds the ph="X" Chrome Trace Event for a matched FEE
// ENTRY/EXIT pair. entryEv carries the name fields and entry timestamp;
// durTicks is the duration in ticks. Returns ok=false if the computed
// duration is below the configured minimum.
func (t *Tracer) feeToChrome(entryEv *traceevent.Event, durTicks int64, tid uint64) (traceevent.ChromeEvent, bool) {
	if durTicks < 0 {
		durTicks = 0
	}
	if t.cfg.MinDurationNs > 0 && t.clk.ToNanos(durTicks) < t.cfg.MinDurationNs {
		return traceevent.ChromeEvent{}, false
	}
	name := traceevent.NameOfFEE(entryEv, t.nameCache)
	args := make(map[string]any)
	if entryEv.FEE.Args != nil {
		funcArgs := make(map[string]any, len(entryEv.FEE.Args))
		for k, v := range entryEv.FEE.Args {
			funcArgs[k] = v
		}
		args["func_args"] = funcArgs
	}
	if entryEv.FEE.HasAsyncTask {
		args["async_task"] = entryEv.FEE.AsyncTaskID
	}
	ce := traceevent.ChromeEvent{
		Name: name,
		Ph:   traceevent.PhComplete,
		Cat:  "FEE",
		PID:  entryEv.PID,
		TID:  tid,
		TS:   t.clk.ToMicros(entryEv.TS),
		Dur:  t.clk.ToMicros(durTicks),
	}
	if len(args) > 0 {
		ce.Args = args
	}
	return ce, true
}

func (t *Tracer) instantToChrome(ev *traceevent.Event) traceevent.ChromeEvent {
	d := ev.Instant
	scope := "g"
	switch d.Scope {
	case traceevent.ScopeProcess:
		scope = "p"
	case traceevent.ScopeThread:
		scope = "t"
	}
	ce := traceevent.ChromeEvent{
		Name: d.Name, Ph: traceevent.PhInstant, PID: ev.PID, TID: ev.TID,
		TS: t.clk.ToMicros(ev.TS), Scope: scope,
	}
	if len(d.Args) > 0 {
		args := make(map[string]any, len(d.Args))
		for k, v := range d.Args {
			args[k] = v
		}
		ce.Args = args
	}
	return ce
}

func (t *Tracer) counterToChrome(ev *traceevent.Event) traceevent.ChromeEvent {
	d := ev.Counter
	args := make(map[string]any, len(d.Values))
	for k, v := range d.Values {
		args[k] = v
	}
	return traceevent.ChromeEvent{
		Name: d.Name, Ph: traceevent.PhCounter, PID: ev.PID, TID: ev.TID,
		TS: t.clk.ToMicros(ev.TS), Args: args,
	}
}

func (t *Tracer) objectToChrome(ev *traceevent.Event) traceevent.ChromeEvent {
	d := ev.Object
	ph := traceevent.PhNew
	switch d.Phase {
	case traceevent.ObjectSnapshot:
		ph = traceevent.PhSnapshot
	case traceevent.ObjectDestroy:
		ph = traceevent.PhDestroy
	}
	ce := traceevent.ChromeEvent{
		Name: d.Name, Ph: ph, PID: ev.PID, TID: ev.TID,
		TS: t.clk.ToMicros(ev.TS), ID: d.ID,
	}
	if len(d.Args) > 0 {
		args := make(map[string]any, len(d.Args))
		for k, v := range d.Args {
			args[k] = v
		}
		ce.Args = args
	}
	return ce
}

func rawToChrome(ev *traceevent.Event) traceevent.ChromeEvent {
	ce := traceevent.ChromeEvent{PID: ev.PID, TID: ev.TID, TS: float64(ev.TS)}
	if name, ok := ev.Raw.Payload["name"].(string); ok {
		ce.Name = name
	}
	if ph, ok := ev.Raw.Payload["ph"].(string); ok {
		ce.Ph = ph
	}
	ce.Args = ev.Raw.Payload
	return ce
}

// Dump performs the same traversal as Load but streams directly to a
// UTF-8 JSON sink as a top-level array, avoiding materializing the
// intermediate list for very large traces.
func (t *Tracer) Dump(w io.Writer) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.collecting {
		return &StateError{Reason: "dump called while collecting"}
	}
	events, err := t.loadLocked()
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, "["); err != nil {
		return err
	}
	for i, ev := range events {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		b, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, "]")
	return err
}
