package tracer

import "github.com/tracepath/tracepath/pkg/traceevent"

// PauseAll pauses every thread the tracer currently knows about. Used by
// the periodic collector to take a consistent snapshot without a full
// Stop/Start cycle.
func (t *Tracer) PauseAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ti := range t.threads {
		ti.paused = true
	}
}

// ResumeAll resumes every thread the tracer currently knows about.
func (t *Tracer) ResumeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ti := range t.threads {
		ti.paused = false
	}
}

// Snapshot is an additive operation for periodic, non-disruptive export:
// unlike Load/Dump, it does not require the tracer to be stopped. Callers
// are expected to have already paused every thread (via PauseAll) so no
// concurrent writer can observe a half-drained buffer; Snapshot itself
// only takes the tracer mutex, matching the guarantee Load/Dump rely on.
// It performs the same traversal and buffer reset as Load.
func (t *Tracer) Snapshot() ([]traceevent.ChromeEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadLocked()
}
