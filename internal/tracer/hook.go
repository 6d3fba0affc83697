package tracer

import (
	"fmt"
	"strings"

	"github.com/tracepath/tracepath/pkg/traceevent"
)

// HookKind is the event kind the host reports on each hook invocation.
// HookYield/HookResume are synthetic: the host maps a generator/coroutine
// suspend or resume to one of these so that the stack discipline invariant
// (an ENTRY always has at most one unmatched EXIT) is preserved across
// cooperative yields, exactly as the tie-break rule requires.
type HookKind uint8

const (
	HookEntry HookKind = iota
	HookExit
	HookCEntry
	HookCExit
	HookYield
	HookResume
)

// FrameView is the host-provided view of the frame being entered or
// exited. FuncID is an opaque identity compared with == to match an EXIT
// back to its ENTRY; it must be stable for the lifetime of one call and
// distinct across concurrently active calls.
type FrameView struct {
	FuncID   any
	Filename string

	// Populated for interpreted-function frames.
	CodeName      string
	CodeFirstLine int

	// Populated for native-function frames.
	ModuleName string
	TypeName   string
	MethodName string
	IsNative   bool

	CallerLine int

	// ArgNames/ArgValues are consulted only when LogFuncArgs is set, and
	// ReturnValue only when LogFuncRetval is set and kind is an EXIT; both
	// are lazy so the host need not pay repr cost unless it is wanted.
	ArgNames  []string
	ArgValues []any
	ReturnValue any
}

// safeSprint formats v with fmt.Sprint, recovering from a panicking
// Stringer/Format implementation and substituting the literal
// "Not Displayable", mirroring the original's log_func_args clearing the
// host's exception state after a failed repr call. This is the Go shape
// of HostError: the failure is swallowed inside the hook and never
// propagated to the caller.
func safeSprint(v any) (s string) {
	defer func() {
		if recover() != nil {
			s = "Not Displayable"
		}
	}()
	return fmt.Sprint(v)
}

// Hook is the capability the tracer exposes to the host: a single
// function the host invokes, in the calling logical thread's context, on
// every function entry/exit. It must be cheap to call and must never
// propagate a panic back to the host.
func (t *Tracer) Hook(tid uint64, kind HookKind, frame FrameView) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ti := t.threadInfo(tid)

	if ti.paused {
		return
	}

	// Once inside a subtree dropped by any filter below, every nested
	// call is dropped too without re-evaluating filters: ignoreStackDepth
	// tracks how many open frames are currently "inside" a dropped
	// region, so the eventual matching EXIT is caught here and the depth
	// counter unwinds back to zero in lockstep (P4).
	if ti.ignoreStackDepth > 0 {
		t.adjustIgnoreDepth(ti, kind)
		return
	}

	if !t.cfg.TraceSelf && t.cfg.LibFilePath != "" && frame.Filename == t.cfg.LibFilePath {
		return
	}
	if t.cfg.IgnoreCFunction && (kind == HookCEntry || kind == HookCExit) {
		return
	}

	dropped := t.cfg.IgnoreFrozen && strings.HasPrefix(frame.Filename, "<frozen")
	if !dropped {
		dropped = t.filtersDropFile(frame.Filename)
	}
	if !dropped && t.cfg.MaxStackDepth > 0 && isEntryKind(kind) && ti.currStackDepth >= t.cfg.MaxStackDepth {
		dropped = true
	}
	if dropped {
		t.adjustIgnoreDepth(ti, kind)
		return
	}

	ts := t.clk.Tick()

	switch kind {
	case HookEntry, HookCEntry, HookResume:
		t.recordEntry(ti, ts, kind, frame)
	case HookExit, HookCExit, HookYield:
		t.recordExit(ti, ts, kind, frame)
	}
}

func isEntryKind(k HookKind) bool { return k == HookEntry || k == HookCEntry || k == HookResume }

// adjustIgnoreDepth keeps ignore_stack_depth consistent with a dropped
// ENTRY/EXIT pair: every filtered-out ENTRY increments it, and its
// matching EXIT decrements it, so P4 (filter symmetry) holds even though
// neither event reaches the buffer.
func (t *Tracer) adjustIgnoreDepth(ti *ThreadInfo, kind HookKind) {
	if isEntryKind(kind) {
		ti.ignoreStackDepth++
	} else if ti.ignoreStackDepth > 0 {
		ti.ignoreStackDepth--
	}
}

func (t *Tracer) filtersDropFile(filename string) bool {
	switch {
	case t.cfg.checkFlag(flagIncludeFiles):
		for _, p := range t.cfg.IncludeFiles {
			if strings.HasPrefix(filename, p) {
				return false
			}
		}
		return true
	case t.cfg.checkFlag(flagExcludeFiles):
		for _, p := range t.cfg.ExcludeFiles {
			if strings.HasPrefix(filename, p) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (t *Tracer) recordEntry(ti *ThreadInfo, ts int64, kind HookKind, frame FrameView) {
	node := ti.pushFunctionNode(ts, frame.FuncID)
	if t.cfg.LogFuncArgs && len(frame.ArgNames) > 0 {
		args := make(map[string]string, len(frame.ArgNames))
		for i, name := range frame.ArgNames {
			var v any
			if i < len(frame.ArgValues) {
				v = frame.ArgValues[i]
			}
			args[name] = t.reprArg(name, v)
		}
		node.args = args
	}

	ev := t.acquireSlot()
	node.slot = ev
	ev.Kind = traceevent.KindFEE
	ev.TS = ts
	ev.PID = t.pinnedPID
	ev.TID = ti.tid
	fee := &traceevent.FEEData{
		CallerLine: frame.CallerLine,
	}
	if frame.IsNative {
		fee.Phase = traceevent.PhaseCEntry
		fee.ModuleName = frame.ModuleName
		fee.TypeName = frame.TypeName
		fee.MethodName = frame.MethodName
	} else {
		fee.Phase = traceevent.PhaseEntry
		fee.CodeName = frame.CodeName
		fee.CodeFilename = frame.Filename
		fee.CodeFirstLine = frame.CodeFirstLine
	}
	fee.Args = node.args
	if t.cfg.LogAsync {
		t.attachAsyncTask(ti, fee)
	}
	ev.FEE = fee
}

func (t *Tracer) recordExit(ti *ThreadInfo, ts int64, kind HookKind, frame FrameView) {
	node, matched := ti.popFunctionNode(frame.FuncID)
	if !matched {
		// Orphan EXIT: no matching ENTRY at the top of the stack. Dropped
		// per P4/P3; nothing is recorded and the stack is left untouched.
		return
	}

	ev := t.acquireSlot()
	ev.Kind = traceevent.KindFEE
	ev.TS = ts
	ev.PID = t.pinnedPID
	ev.TID = ti.tid
	fee := &traceevent.FEEData{
		DurationTicks: ts - node.ts,
	}
	if frame.IsNative {
		fee.Phase = traceevent.PhaseCExit
		fee.ModuleName = frame.ModuleName
		fee.TypeName = frame.TypeName
		fee.MethodName = frame.MethodName
	} else {
		fee.Phase = traceevent.PhaseExit
		fee.CodeName = frame.CodeName
		fee.CodeFilename = frame.Filename
		fee.CodeFirstLine = frame.CodeFirstLine
	}
	if t.cfg.LogFuncRetval && frame.ReturnValue != nil {
		fee.HasReturn = true
		fee.ReturnValue = t.reprArg("", frame.ReturnValue)
	}
	if t.cfg.LogAsync {
		t.attachAsyncTask(ti, fee)
	}
	ev.FEE = fee
}

func (t *Tracer) reprArg(name string, v any) (s string) {
	defer func() {
		if recover() != nil {
			s = "Not Displayable"
		}
	}()
	return t.cfg.LogFuncRepr(name, v)
}

// attachAsyncTask implements the async-task correlation rule (§4.3.3): the
// thread's current task identity, as last recorded by NoteTaskSwitch, is
// attached to fee. The Instant event naming a switch is emitted by
// NoteTaskSwitch, not here.
func (t *Tracer) attachAsyncTask(ti *ThreadInfo, fee *traceevent.FEEData) {
	if ti.hasCurrTask {
		fee.AsyncTaskID = ti.currTaskID
		fee.HasAsyncTask = true
	}
}

// CurrentTaskAccessor is the shape of a host-supplied getter for the
// currently running async task, returning ok=false if there is none (e.g.
// not inside an event loop). The tracer never calls it; callers pass its
// result to NoteTaskSwitch.
type CurrentTaskAccessor func(tid uint64) (taskID string, frame any, ok bool)

// NoteTaskSwitch records a task switch for tid, emitting an implicit
// Instant event naming the switch if the task or frame differs from what
// was last observed. Callers wire this to their CurrentTaskAccessor
// before invoking Hook on ENTRY when async correlation is enabled.
func (t *Tracer) NoteTaskSwitch(tid uint64, taskID string, frame any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ti := t.threadInfo(tid)
	if ti.hasCurrTask && ti.currTaskID == taskID && ti.currTaskFrame == frame {
		return
	}
	ti.currTaskID = taskID
	ti.currTaskFrame = frame
	ti.hasCurrTask = true

	ev := t.acquireSlot()
	ev.Kind = traceevent.KindInstant
	ev.TS = t.clk.Tick()
	ev.PID = t.pinnedPID
	ev.TID = tid
	ev.Instant = &traceevent.InstantData{
		Name:  "task switch",
		Scope: traceevent.ScopeThread,
		Args:  map[string]string{"task_id": taskID},
	}
}
