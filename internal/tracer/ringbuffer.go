package tracer

import "github.com/tracepath/tracepath/pkg/traceevent"

// acquireSlot advances tail, wraps on overflow, and — when tail would
// collide with head — clears the slot that will be handed out on the
// *next* call before advancing head over it. This exactly mirrors the
// original get_next_node: the node cleared is the new tail position, not
// the node being returned from this call, so a slot reachable by readers
// (head..tail) always holds a fully valid payload, while the free region
// between tail and head may still hold stale already-cleared bytes.
//
// Must be called with t.mu held.
func (t *Tracer) acquireSlot() *traceevent.Event {
	idx := t.tailIdx
	node := &t.buffer[idx]
	node.Excluded = false

	t.tailIdx++
	if t.tailIdx >= t.bufferSize {
		t.tailIdx = 0
	}
	if t.tailIdx == t.headIdx {
		t.headIdx++
		if t.headIdx >= t.bufferSize {
			t.headIdx = 0
		}
		traceevent.Clear(&t.buffer[t.tailIdx])
		if t.cfg.Verbose >= 1 {
			tracerLogger().Debugw("ring buffer full, overwriting oldest slot",
				"buffer_size", t.bufferSize, "total_entries", t.totalEntries)
		}
	} else {
		t.totalEntries++
	}
	return node
}

// TotalEntries returns the saturating count of events ever written: it
// stops increasing once the buffer first becomes full, matching the
// original's total_entries bookkeeping.
func (t *Tracer) TotalEntries() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalEntries
}

// AddInstant appends a user-annotated instant event. Bypasses all
// filtering and always consumes a buffer slot.
func (t *Tracer) AddInstant(tid uint64, name string, args map[string]string, scope traceevent.InstantScope) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ev := t.acquireSlot()
	ev.Kind = traceevent.KindInstant
	ev.TS = t.clk.Tick()
	ev.PID = t.pinnedPID
	ev.TID = tid
	ev.Instant = &traceevent.InstantData{Name: name, Args: args, Scope: scope}
}

// AddCounter appends a named numeric counter sample.
func (t *Tracer) AddCounter(tid uint64, name string, values map[string]float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ev := t.acquireSlot()
	ev.Kind = traceevent.KindCounter
	ev.TS = t.clk.Tick()
	ev.PID = t.pinnedPID
	ev.TID = tid
	ev.Counter = &traceevent.CounterData{Name: name, Values: values}
}

// AddObject appends an object lifecycle marker.
func (t *Tracer) AddObject(tid uint64, phase traceevent.ObjectPhase, id, name string, args map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ev := t.acquireSlot()
	ev.Kind = traceevent.KindObject
	ev.TS = t.clk.Tick()
	ev.PID = t.pinnedPID
	ev.TID = tid
	ev.Object = &traceevent.ObjectData{Phase: phase, ID: id, Name: name, Args: args}
}

// AddRaw appends an opaque, already-serialized event passed through
// verbatim.
func (t *Tracer) AddRaw(tid uint64, payload map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ev := t.acquireSlot()
	ev.Kind = traceevent.KindRaw
	ev.TS = t.clk.Tick()
	ev.PID = t.pinnedPID
	ev.TID = tid
	ev.Raw = &traceevent.RawData{Payload: payload}
}

// AddFunctionArg attaches (key, value) to the arg map of the calling
// thread's top FunctionNode. Returns ErrNoCurrentFrame if the thread has
// no open frame.
func (t *Tracer) AddFunctionArg(tid uint64, key string, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ti, ok := t.threads[tid]
	if !ok || ti.stackTop == nil {
		return ErrNoCurrentFrame
	}
	if ti.stackTop.args == nil {
		ti.stackTop.args = make(map[string]string)
	}
	ti.stackTop.args[key] = value
	return nil
}

// GetFunctionArg returns the arg map of the calling thread's top
// FunctionNode, or an empty map if there is none.
func (t *Tracer) GetFunctionArg(tid uint64) map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ti, ok := t.threads[tid]
	if !ok || ti.stackTop == nil || ti.stackTop.args == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(ti.stackTop.args))
	for k, v := range ti.stackTop.args {
		out[k] = v
	}
	return out
}
