package tracer

import "github.com/tracepath/tracepath/pkg/traceevent"

// FunctionNode is one call-stack element, living between a recorded ENTRY
// and its matching EXIT. Nodes form a singly-linked stack (via prev) that
// is reused as a free list: popped nodes are pushed onto freeList instead
// of being discarded, so steady-state tracing allocates no new nodes once
// the stack has reached its working depth.
type FunctionNode struct {
	prev *FunctionNode

	ts   int64
	fn   any // the captured func identity, used to match EXIT to ENTRY
	args map[string]string

	// slot is the ring buffer event this node's ENTRY was written to. Stop
	// uses it to exclude the still-open frame's ENTRY from the trace
	// without disturbing any other thread's slots.
	slot *traceevent.Event
}

// ThreadInfo is the per-thread state the hook consults and mutates on
// every invocation. It is looked up by thread id with a single map read
// under the tracer's mutex; all further mutation for a given thread
// happens without additional locking from the hook's perspective, since
// only the owning logical thread drives its own ThreadInfo.
type ThreadInfo struct {
	tid uint64

	paused           bool
	currStackDepth   int
	ignoreStackDepth int

	stackTop *FunctionNode
	freeList *FunctionNode

	currTaskID   string
	hasCurrTask  bool
	currTaskFrame any

	metadata *MetadataNode
}

// MetadataNode is one per live thread and lives for the process. It links
// into the tracer's metadata list so thread-name metadata events can be
// emitted at load/dump time even after the owning thread has been
// forgotten.
type MetadataNode struct {
	next *MetadataNode
	tid  uint64
	name string

	thread *ThreadInfo // nulled by Forget; node stays linked
}

// pushFunctionNode acquires a FunctionNode for a new call frame, reusing
// one from the free list when available and allocating otherwise.
func (ti *ThreadInfo) pushFunctionNode(ts int64, fn any) *FunctionNode {
	var node *FunctionNode
	if ti.freeList != nil {
		node = ti.freeList
		ti.freeList = node.prev
	} else {
		node = &FunctionNode{}
	}
	node.ts = ts
	node.fn = fn
	node.args = nil
	node.slot = nil
	node.prev = ti.stackTop
	ti.stackTop = node
	ti.currStackDepth++
	return node
}

// popFunctionNode pops the top frame if its captured func identity
// matches fn, returning it and true. If the top does not match, this is
// an orphan EXIT: nothing is popped and false is returned, per the
// filter-symmetry / stack-discipline invariant.
func (ti *ThreadInfo) popFunctionNode(fn any) (*FunctionNode, bool) {
	top := ti.stackTop
	if top == nil || top.fn != fn {
		return nil, false
	}
	ti.stackTop = top.prev
	ti.currStackDepth--
	top.args = nil
	top.slot = nil
	top.prev = ti.freeList
	ti.freeList = top
	return top, true
}

// unwindStack walks any still-open frames (e.g. at Stop time) releasing
// their argument maps, mirroring the original's clear_stack. It does not
// pop nodes onto the free list since the ThreadInfo itself is being torn
// down or reset.
func (ti *ThreadInfo) unwindStack() {
	for n := ti.stackTop; n != nil; n = n.prev {
		n.args = nil
	}
	ti.stackTop = nil
}
