package tracer

import (
	"testing"

	"github.com/tracepath/tracepath/pkg/clock"
)

func newTestTracer(t *testing.T, bufSize int) *Tracer {
	t.Helper()
	clk := clock.New()
	tr, err := New(Config{BufferSize: bufSize}, clk)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr
}

// TestRingBufferOverwrite exercises P1: for N > size writes, exactly
// size-1 most-recent events are retained.
func TestRingBufferOverwrite(t *testing.T) {
	tr := newTestTracer(t, 4)
	if err := tr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 10; i++ {
		id := i
		tr.Hook(1, HookEntry, FrameView{FuncID: id, Filename: "a.py", CodeName: "f"})
		tr.Hook(1, HookExit, FrameView{FuncID: id, Filename: "a.py", CodeName: "f"})
	}
	if err := tr.Stop(1); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	// 20 writes into a 4-slot ring leave the last size-1 = 3 slots: the
	// EXIT of call 8 and the ENTRY/EXIT pair of call 9.
	retained := (tr.tailIdx - tr.headIdx + tr.bufferSize) % tr.bufferSize
	if retained != 3 {
		t.Fatalf("expected 3 retained events (size-1), got %d", retained)
	}
	events, err := tr.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// The EXIT of call 8 lost its ENTRY to the overwrite, so Load pairs
	// only call 9 into one complete event.
	if len(events) != 1 {
		t.Fatalf("expected 1 complete event from the retained slots, got %d", len(events))
	}
}

// TestClearReleasesPayloads exercises P2: after Clear, no event in the
// buffer holds a live payload, and a second Clear is a no-op.
func TestClearReleasesPayloads(t *testing.T) {
	tr := newTestTracer(t, 8)
	if err := tr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	tr.Hook(1, HookEntry, FrameView{FuncID: 1, Filename: "a.py", CodeName: "f"})
	tr.Hook(1, HookExit, FrameView{FuncID: 1, Filename: "a.py", CodeName: "f"})

	tr.Clear()
	for i := range tr.buffer {
		if tr.buffer[i].FEE != nil || tr.buffer[i].Instant != nil || tr.buffer[i].Counter != nil ||
			tr.buffer[i].Object != nil || tr.buffer[i].Raw != nil {
			t.Fatalf("slot %d still holds a payload after Clear", i)
		}
	}
	tr.Clear() // must be a no-op, not panic
}

// TestStackDisciplineInvariant exercises P3: curr_stack_depth equals the
// number of recorded-and-unmatched ENTRYs plus ignore_stack_depth.
func TestStackDisciplineInvariant(t *testing.T) {
	tr := newTestTracer(t, 64)
	if err := tr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	tr.Hook(1, HookEntry, FrameView{FuncID: 1, Filename: "a.py", CodeName: "f"})
	tr.Hook(1, HookEntry, FrameView{FuncID: 2, Filename: "a.py", CodeName: "g"})

	ti := tr.threads[1]
	if ti.currStackDepth != 2 {
		t.Fatalf("expected stack depth 2, got %d", ti.currStackDepth)
	}
	tr.Hook(1, HookExit, FrameView{FuncID: 2, Filename: "a.py", CodeName: "g"})
	if ti.currStackDepth != 1 {
		t.Fatalf("expected stack depth 1 after one exit, got %d", ti.currStackDepth)
	}
	tr.Hook(1, HookExit, FrameView{FuncID: 1, Filename: "a.py", CodeName: "f"})
	if ti.currStackDepth != 0 {
		t.Fatalf("expected stack depth 0, got %d", ti.currStackDepth)
	}
}

// TestFilterSymmetryMaxStackDepth exercises P4: a dropped ENTRY's
// matching EXIT is also dropped, with no orphan EXIT in the buffer.
func TestFilterSymmetryMaxStackDepth(t *testing.T) {
	tr := newTestTracer(t, 64)
	tr.cfg.MaxStackDepth = 1
	tr.cfg.flags |= flagMaxStackDepth
	if err := tr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	tr.Hook(1, HookEntry, FrameView{FuncID: 1, Filename: "a.py", CodeName: "f"})
	// Second nested call exceeds MaxStackDepth=1 and must be dropped,
	// along with its matching exit.
	tr.Hook(1, HookEntry, FrameView{FuncID: 2, Filename: "a.py", CodeName: "g"})
	tr.Hook(1, HookExit, FrameView{FuncID: 2, Filename: "a.py", CodeName: "g"})
	tr.Hook(1, HookExit, FrameView{FuncID: 1, Filename: "a.py", CodeName: "f"})
	if err := tr.Stop(1); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	events, err := tr.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sawF := false
	for _, ev := range events {
		if ev.Name == "g (a.py:0)" {
			t.Fatalf("filtered-out frame g leaked into output: %+v", ev)
		}
		if ev.Name == "f (a.py:0)" {
			sawF = true
		}
	}
	if !sawF {
		t.Fatal("expected outer frame f to survive its own depth-limited nested call")
	}
}

// TestDurationPositivity exercises P5: every emitted X event has dur >= 0.
func TestDurationPositivity(t *testing.T) {
	tr := newTestTracer(t, 64)
	if err := tr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	tr.Hook(1, HookEntry, FrameView{FuncID: 1, Filename: "a.py", CodeName: "f"})
	tr.Hook(1, HookExit, FrameView{FuncID: 1, Filename: "a.py", CodeName: "f"})
	if err := tr.Stop(1); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	events, err := tr.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	found := false
	for _, ev := range events {
		if ev.Ph == "X" {
			found = true
			if ev.Dur < 0 {
				t.Fatalf("negative duration: %v", ev.Dur)
			}
		}
	}
	if !found {
		t.Fatal("expected at least one X event")
	}
}

func TestOrphanExitDropped(t *testing.T) {
	tr := newTestTracer(t, 64)
	if err := tr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// EXIT with no matching ENTRY: must not corrupt the stack.
	tr.Hook(1, HookExit, FrameView{FuncID: 99, Filename: "a.py", CodeName: "ghost"})
	ti := tr.threads[1]
	if ti.currStackDepth != 0 {
		t.Fatalf("orphan exit mutated stack depth: %d", ti.currStackDepth)
	}
}

func TestPauseResumeSkipsRecording(t *testing.T) {
	tr := newTestTracer(t, 64)
	if err := tr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	tr.Pause(1)
	tr.Hook(1, HookEntry, FrameView{FuncID: 1, Filename: "a.py", CodeName: "f"})
	tr.Hook(1, HookExit, FrameView{FuncID: 1, Filename: "a.py", CodeName: "f"})
	tr.Resume(1)
	if err := tr.Stop(1); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	events, err := tr.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events while paused, got %d", len(events))
	}
}

func TestConfigureRejectedWhileCollecting(t *testing.T) {
	tr := newTestTracer(t, 64)
	if err := tr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := tr.Configure(Config{BufferSize: 8}); err == nil {
		t.Fatal("expected ConfigError while collecting")
	}
}

func TestConfigureRejectsBothFileFilters(t *testing.T) {
	tr := newTestTracer(t, 64)
	err := tr.Configure(Config{IncludeFiles: []string{"/a"}, ExcludeFiles: []string{"/b"}})
	if err == nil {
		t.Fatal("expected ConfigError for conflicting filters")
	}
}

func TestAddFunctionArgRequiresCurrentFrame(t *testing.T) {
	tr := newTestTracer(t, 64)
	if err := tr.AddFunctionArg(1, "k", "v"); err != ErrNoCurrentFrame {
		t.Fatalf("expected ErrNoCurrentFrame, got %v", err)
	}
}

// TestStopExcludesOwnOpenFrame exercises the §4.3 stop-time exclusion
// rule: a frame still open when Stop is called on its thread must not
// appear in the loaded trace at all, not even as an unmatched ENTRY.
func TestStopExcludesOwnOpenFrame(t *testing.T) {
	tr := newTestTracer(t, 64)
	if err := tr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	tr.Hook(1, HookEntry, FrameView{FuncID: 1, Filename: "a.py", CodeName: "stopper"})
	if err := tr.Stop(1); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	events, err := tr.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, ev := range events {
		if ev.Name == "stopper (a.py:0)" {
			t.Fatalf("frame open at Stop leaked into trace: %+v", ev)
		}
	}
	if len(events) != 0 {
		t.Fatalf("expected zero events, got %d: %+v", len(events), events)
	}
}

func TestForgetDetachesButKeepsMetadataNode(t *testing.T) {
	tr := newTestTracer(t, 64)
	tr.threadInfo(1)
	tr.SetThreadName(1, "worker-1")
	tr.Forget(1)
	if _, ok := tr.threads[1]; ok {
		t.Fatal("thread map entry should be removed by Forget")
	}
	if tr.metadataHead == nil || tr.metadataHead.name != "worker-1" {
		t.Fatal("metadata node should remain linked after Forget")
	}
}
