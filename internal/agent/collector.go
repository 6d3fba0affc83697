// internal/agent/collector.go
// Package agent coordinates a tracer and one or more exporters within the
// in-process agent. A Collector owns a *tracer.Tracer, periodically takes
// a paused snapshot, encodes it, and fans the resulting bytes out to one
// or more Exporters.
//
// Typical lifecycle:
//
//	col := agent.NewCollector(agent.Config{ExportEvery: 500 * time.Millisecond}, tr)
//	exp, err := exporter.NewGRPCExporter(ctx, cfg)
//	...
//	col.AddExporter(exp)
//	col.Start()
//	defer col.Stop()
package agent

import (
	"context"
	"sync"
	"time"

	"github.com/tracepath/tracepath/internal/agent/encoder"
	"github.com/tracepath/tracepath/internal/tracer"
)

// Exporter delivers an encoded trace snapshot to an external sink
// (gateway, file, stdout...). Implementations must be safe for
// concurrent use.
type Exporter interface {
	Export(ctx context.Context, payload []byte, contentType string) error
	Close() error
}

// Config tunes the Collector behaviour.
type Config struct {
	// ExportEvery defines how often the collector snapshots the tracer and
	// ships it to exporters. Zero disables automatic exporting (caller
	// can invoke TriggerExport manually).
	ExportEvery time.Duration

	// Encoder selects how a snapshot is serialized before export.
	Encoder encoder.Encoder
}

// Collector orchestrates the periodic snapshot/export pipeline.
type Collector struct {
	cfg Config
	tr  *tracer.Tracer

	mu        sync.Mutex
	exporters []Exporter

	exportT *time.Ticker
	quit    chan struct{}
	wg      sync.WaitGroup
}

// NewCollector constructs a collector with sensible defaults around tr.
func NewCollector(cfg Config, tr *tracer.Tracer) *Collector {
	if cfg.Encoder == nil {
		cfg.Encoder = encoder.NDJSON()
	}
	return &Collector{
		cfg:  cfg,
		tr:   tr,
		quit: make(chan struct{}),
	}
}

// Tracer returns the underlying *tracer.Tracer for direct access (e.g.
// invoking Hook from host instrumentation). Safe for concurrent use.
func (c *Collector) Tracer() *tracer.Tracer { return c.tr }

// AddExporter registers an exporter. Exporters are expected to be cheap;
// the collector fans the same encoded snapshot out to all of them
// sequentially.
func (c *Collector) AddExporter(e Exporter) {
	c.mu.Lock()
	c.exporters = append(c.exporters, e)
	c.mu.Unlock()
}

// Start launches the tracer and, if configured, the periodic export
// loop. Calling Start multiple times is safe but only has effect the
// first time.
func (c *Collector) Start() error {
	c.mu.Lock()
	if c.exportT != nil || c.quit == nil {
		c.mu.Unlock()
		return nil // already running or collector closed
	}
	c.mu.Unlock()

	if err := c.tr.Start(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.cfg.ExportEvery > 0 {
		c.exportT = time.NewTicker(c.cfg.ExportEvery)
		c.wg.Add(1)
		go c.runExportLoop()
	}
	c.mu.Unlock()
	return nil
}

// runExportLoop periodically snapshots the tracer and pushes to exporters.
func (c *Collector) runExportLoop() {
	defer c.wg.Done()

	ctx := context.Background()
	for {
		select {
		case <-c.exportT.C:
			_ = c.pushSnapshot(ctx)
		case <-c.quit:
			return
		}
	}
}

// TriggerExport performs an immediate export once; usable even when
// ExportEvery == 0. Returns the export error of the first failing
// exporter.
func (c *Collector) TriggerExport(ctx context.Context) error {
	return c.pushSnapshot(ctx)
}

// pushSnapshot pauses every known thread, takes a consistent snapshot,
// resumes tracing, encodes the result, and fans it out to exporters.
// Pausing rather than stopping means instrumentation is not interrupted
// by periodic export, per the collector/dump concurrency resolution.
func (c *Collector) pushSnapshot(ctx context.Context) error {
	c.tr.PauseAll()
	events, err := c.tr.Snapshot()
	c.tr.ResumeAll()
	if err != nil {
		return err
	}

	payload, err := c.cfg.Encoder.Encode(events)
	if err != nil {
		return err
	}

	c.mu.Lock()
	exporters := append([]Exporter(nil), c.exporters...)
	c.mu.Unlock()

	for _, e := range exporters {
		if err := e.Export(ctx, payload, c.cfg.Encoder.ContentType()); err != nil {
			return err
		}
	}
	return nil
}

// Stop gracefully stops the export loop and exporters.
func (c *Collector) Stop() {
	c.mu.Lock()
	if c.quit == nil {
		c.mu.Unlock()
		return // already stopped
	}
	close(c.quit)
	c.quit = nil
	t := c.exportT
	c.exportT = nil
	exporters := append([]Exporter(nil), c.exporters...)
	c.mu.Unlock()

	if t != nil {
		t.Stop()
	}

	// Wait for export loop to end.
	c.wg.Wait()

	_ = c.tr.Stop(0)

	for _, e := range exporters {
		_ = e.Close()
	}
}
