// Package tracer implements the per-process trace engine: a bounded
// ring buffer of heterogeneous events, per-thread call-stack state, and
// the hook decision logic invoked on every function entry/exit.
package tracer

import (
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/tracepath/tracepath/internal/logging"
	"github.com/tracepath/tracepath/pkg/clock"
	"github.com/tracepath/tracepath/pkg/traceevent"
)

// Tracer is the process-wide trace engine. It owns the ring buffer, the
// per-thread state map, the metadata list, and the effective
// configuration. The zero value is not usable; construct one with New.
type Tracer struct {
	mu sync.Mutex

	clk *clock.Clock
	cfg Config

	collecting bool
	syncMarker int64
	pinnedPID  int64

	buffer     []traceevent.Event
	bufferSize int
	headIdx    int
	tailIdx    int

	totalEntries uint64

	threads      map[uint64]*ThreadInfo
	metadataHead *MetadataNode

	nameCache *traceevent.NameCache
}

// New constructs a Tracer with cfg as its initial configuration and clk
// as its timestamp source.
func New(cfg Config, clk *clock.Clock) (*Tracer, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	t := &Tracer{
		clk:        clk,
		cfg:        cfg,
		bufferSize: cfg.BufferSize,
		buffer:     make([]traceevent.Event, cfg.BufferSize),
		threads:    make(map[uint64]*ThreadInfo),
		nameCache:  traceevent.NewNameCache(),
		pinnedPID:  int64(os.Getpid()),
	}
	return t, nil
}

// Configure sets any subset of the recognized options. It returns a
// ConfigError if called while collecting, or if the new configuration
// sets both IncludeFiles and ExcludeFiles.
func (t *Tracer) Configure(cfg Config) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.collecting {
		return &ConfigError{Reason: "config may not be called while collecting"}
	}
	if err := cfg.normalize(); err != nil {
		return err
	}
	if cfg.BufferSize != t.bufferSize {
		t.bufferSize = cfg.BufferSize
		t.buffer = make([]traceevent.Event, cfg.BufferSize)
		t.headIdx, t.tailIdx = 0, 0
	}
	t.cfg = cfg
	return nil
}

// threadInfo returns the ThreadInfo for tid, lazily creating and
// registering it (with a MetadataNode) if this is the first time tid has
// been seen. Must be called with t.mu held.
func (t *Tracer) threadInfo(tid uint64) *ThreadInfo {
	if ti, ok := t.threads[tid]; ok {
		return ti
	}
	ti := &ThreadInfo{tid: tid}
	node := &MetadataNode{tid: tid, thread: ti}
	node.next = t.metadataHead
	t.metadataHead = node
	ti.metadata = node
	t.threads[tid] = ti
	return ti
}

// Start installs the tracer as active: sets collecting, captures the
// sync marker tick. The caller is responsible for arranging that every
// logical thread subsequently invokes Hook on entry/exit events; there is
// no implicit global callback installation since Go has no process-wide
// profile-hook registration point.
func (t *Tracer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.collecting {
		return ErrAlreadyCollecting
	}
	t.collecting = true
	t.syncMarker = t.clk.Tick()
	return nil
}

// Stop deactivates the tracer. The frame that called Stop on tid (if any)
// is excluded by popping the last open ENTRY recorded on that thread and
// marking its ring buffer slot Excluded, matching the original's behavior
// of not recording its own stop frame. The slot is marked rather than
// rolled back via tailIdx/totalEntries because other threads may have
// written slots after it; in-place exclusion is correct regardless of
// where in the ring the slot sits.
func (t *Tracer) Stop(tid uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.collecting {
		return ErrNotCollecting
	}
	t.collecting = false
	if ti, ok := t.threads[tid]; ok && ti.stackTop != nil {
		if ti.stackTop.slot != nil {
			ti.stackTop.slot.Excluded = true
		}
		ti.stackTop.args = nil
		ti.stackTop.slot = nil
		ti.stackTop = ti.stackTop.prev
		ti.currStackDepth--
	}
	return nil
}

// Pause toggles the calling thread's paused flag on. While paused, the
// hook records nothing and does not mutate the thread's call stack.
func (t *Tracer) Pause(tid uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.threadInfo(tid).paused = true
}

// Resume toggles the calling thread's paused flag off.
func (t *Tracer) Resume(tid uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.threadInfo(tid).paused = false
}

// Clear drops all buffered events, resetting head == tail, while keeping
// configuration, the metadata list, and pre-allocated slot memory.
func (t *Tracer) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearLocked()
}

func (t *Tracer) clearLocked() {
	for i := range t.buffer {
		traceevent.Clear(&t.buffer[i])
	}
	t.headIdx = 0
	t.tailIdx = 0
}

// Cleanup is Clear plus freeing the slot memory and every thread's
// FunctionNode free list.
func (t *Tracer) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearLocked()
	t.buffer = make([]traceevent.Event, t.bufferSize)
	for _, ti := range t.threads {
		ti.freeList = nil
		ti.unwindStack()
	}
}

// Forget marks tid's MetadataNode as detached, mirroring the original's
// per-thread destructor: the thread_info pointer is nulled but the node
// stays linked so its thread-name metadata event can still be emitted.
// Events already enqueued by tid remain valid. Go has no TLS-destructor
// equivalent, so the embedder must call Forget explicitly when a logical
// thread ends.
func (t *Tracer) Forget(tid uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ti, ok := t.threads[tid]
	if !ok {
		return
	}
	if ti.metadata != nil {
		ti.metadata.thread = nil
	}
	delete(t.threads, tid)
}

// SetPID pins the process id reported in emitted events, for use after a
// fork where the host wants child events attributed to the child pid.
func (t *Tracer) SetPID(pid int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pinnedPID = pid
}

// SetCurrStack forces the calling thread's stack-depth counter, used when
// the host re-enters tracing after a fork and needs to resynchronize
// depth bookkeeping without replaying the intervening frames.
func (t *Tracer) SetCurrStack(tid uint64, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.threadInfo(tid).currStackDepth = n
}

// GetTS returns the current tick, equivalent to calling the Clock
// directly, exposed here so callers that only hold a *Tracer need not
// also thread a *clock.Clock through.
func (t *Tracer) GetTS() int64 {
	return t.clk.Tick()
}

// SetProcessName sets the process_name metadata emitted at load/dump
// time. It is distinct from SetPID: this is a human-readable label.
func (t *Tracer) SetProcessName(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg.ProcessName = name
}

// SetThreadName records a display name for tid, to be emitted as a
// thread_name metadata event at load/dump time.
func (t *Tracer) SetThreadName(tid uint64, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.threadInfo(tid).metadata.name = name
}

// tracerLogger returns the package-wide logger, exposed so the hot hook
// can log verbose diagnostics through the same global sink the rest of
// the program uses.
func tracerLogger() *zap.SugaredLogger {
	return logging.Sugar()
}
