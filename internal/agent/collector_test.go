package agent

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tracepath/tracepath/internal/tracer"
	"github.com/tracepath/tracepath/pkg/clock"
)

type fakeExporter struct {
	exports int32
	closed  int32
}

func (f *fakeExporter) Export(ctx context.Context, payload []byte, contentType string) error {
	atomic.AddInt32(&f.exports, 1)
	return nil
}

func (f *fakeExporter) Close() error {
	atomic.AddInt32(&f.closed, 1)
	return nil
}

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	tr, err := tracer.New(tracer.Config{BufferSize: 64}, clock.New())
	if err != nil {
		t.Fatalf("tracer.New: %v", err)
	}
	return NewCollector(Config{}, tr)
}

// TestStartStopDoesNotPanic exercises the package doc's own lifecycle
// example (col.Start(); defer col.Stop()): Stop must not double-close its
// quit channel.
func TestStartStopDoesNotPanic(t *testing.T) {
	col := newTestCollector(t)
	if err := col.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	col.Stop()
}

// TestStopIsIdempotent calls Stop twice, matching a caller that both
// defers Stop and calls it explicitly on an error path.
func TestStopIsIdempotent(t *testing.T) {
	col := newTestCollector(t)
	if err := col.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	col.Stop()
	col.Stop()
}

// TestPeriodicExportReachesExporter exercises the ExportEvery ticker
// path end-to-end against a fake exporter.
func TestPeriodicExportReachesExporter(t *testing.T) {
	tr, err := tracer.New(tracer.Config{BufferSize: 64}, clock.New())
	if err != nil {
		t.Fatalf("tracer.New: %v", err)
	}
	col := NewCollector(Config{ExportEvery: 10 * time.Millisecond}, tr)
	exp := &fakeExporter{}
	col.AddExporter(exp)

	if err := col.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	col.Stop()

	if atomic.LoadInt32(&exp.exports) == 0 {
		t.Fatal("expected at least one periodic export")
	}
	if atomic.LoadInt32(&exp.closed) != 1 {
		t.Fatalf("expected exporter Close exactly once, got %d", exp.closed)
	}
}
