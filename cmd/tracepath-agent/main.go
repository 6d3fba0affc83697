// cmd/tracepath-agent/main.go
// Minimal standalone agent binary. It embeds the in-process Collector
// around a *tracer.Tracer and streams encoded snapshots to the configured
// Tracepath Gateway. Intended for scenarios where you cannot import the
// agent package into the target process but still want to collect traces
// (e.g. run as a sidecar and attach via a host-specific hook in future
// versions). For now the agent exposes Hook for callers that can wire it
// into their own instrumentation points.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tracepath/tracepath/internal/agent"
	"github.com/tracepath/tracepath/internal/agent/encoder"
	"github.com/tracepath/tracepath/internal/agent/exporter"
	"github.com/tracepath/tracepath/internal/logging"
	"github.com/tracepath/tracepath/internal/tracer"
	"github.com/tracepath/tracepath/pkg/clock"
	"go.uber.org/zap"
)

func main() {
    // CLI flags -------------------------------------------------------------
    gatewayAddr := flag.String("gateway", "localhost:4317", "Tracepath gateway gRPC address")
    exportEvery := flag.Duration("export-every", 500*time.Millisecond, "Snapshot/export interval")
    maxStackDepth := flag.Int("max-stack-depth", 0, "Maximum call stack depth to record (0 = unlimited)")
    binaryFormat := flag.Bool("binary", false, "Encode snapshots with the compact binary container instead of NDJSON")
    runFor := flag.Duration("duration", 0, "Optional duration to run; 0 = until signal")
    flag.Parse()

    // Logger ----------------------------------------------------------------
    lg, err := zap.NewProduction()
    if err != nil {
        log.Fatalf("zap init: %v", err)
    }
    logging.Set(lg)
    defer lg.Sync()

    // Tracer ------------------------------------------------------------------
    tr, err := tracer.New(tracer.Config{MaxStackDepth: *maxStackDepth}, clock.New())
    if err != nil {
        lg.Fatal("tracer init", zap.Error(err))
    }

    enc := encoder.NDJSON()
    if *binaryFormat {
        enc = encoder.Binary()
    }

    col := agent.NewCollector(agent.Config{
        ExportEvery: *exportEvery,
        Encoder:     enc,
    }, tr)

    exp, err := exporter.NewGRPCExporter(context.Background(), exporter.Config{
        Addr: *gatewayAddr,
    })
    if err != nil {
        lg.Fatal("grpc exporter", zap.Error(err))
    }
    col.AddExporter(exp)
    if err := col.Start(); err != nil {
        lg.Fatal("collector start", zap.Error(err))
    }
    lg.Info("tracepath-agent started", zap.String("gateway", *gatewayAddr))

    // Shutdown handling -----------------------------------------------------
    done := make(chan struct{})
    go func() {
        sigCh := make(chan os.Signal, 1)
        signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
        var after <-chan time.Time
        if *runFor > 0 {
            after = time.After(*runFor)
        }
        select {
        case <-sigCh:
            lg.Info("signal received, shutting down agent")
        case <-after:
            lg.Info("duration elapsed, shutting down agent")
        }
        col.Stop()
        close(done)
    }()

    <-done
    lg.Info("bye")
}
