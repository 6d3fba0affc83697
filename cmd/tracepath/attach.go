// cmd/tracepath/attach.go
// Implements the `tracepath attach` command. For v0.1 this command starts an
// in-process agent that traces the *current* Go program (i.e., the tracepath
// CLI itself) for quick local experimentation. In later versions it will
// support eBPF-based dynamic attach to arbitrary PIDs.
//
// Typical usage:
//
//	tracepath attach --gateway localhost:4317 --duration 30s
//
// The command spins up a Collector around a *tracer.Tracer and a gRPC
// Exporter pointed at the specified gateway address. It shuts down cleanly
// on SIGINT or after the optional duration elapses.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracepath/tracepath/internal/agent"
	"github.com/tracepath/tracepath/internal/agent/exporter"
	"github.com/tracepath/tracepath/internal/logging"
	"github.com/tracepath/tracepath/internal/plugins"
	_ "github.com/tracepath/tracepath/internal/plugins/example/reprtrunc"
	"github.com/tracepath/tracepath/internal/tracer"
	"github.com/tracepath/tracepath/pkg/clock"
)

// argReprFromPlugins returns the first registered "argrepr" plugin's
// handle, or nil if none is registered.
func argReprFromPlugins() tracer.ArgRepr {
    for _, p := range plugins.ByKind("argrepr") {
        handle, err := p.Init()
        if err != nil {
            continue
        }
        if fn, ok := handle.(func(string, any) string); ok {
            return tracer.ArgRepr(fn)
        }
    }
    return nil
}

func newAttachCmd() *cobra.Command {
    var (
        gatewayAddr   string
        exportEvery   time.Duration
        maxStackDepth int
        duration      time.Duration
    )

    cmd := &cobra.Command{
        Use:   "attach",
        Short: "Start a local agent and stream traces to a Tracepath gateway",
        RunE: func(cmd *cobra.Command, args []string) error {
            ctx, cancel := context.WithCancel(cmd.Context())
            if duration > 0 {
                ctx, cancel = context.WithTimeout(ctx, duration)
            }
            defer cancel()

            tr, err := tracer.New(tracer.Config{
                MaxStackDepth: maxStackDepth,
                LogFuncRepr:   argReprFromPlugins(),
            }, clock.New())
            if err != nil {
                return err
            }

            col := agent.NewCollector(agent.Config{
                ExportEvery: exportEvery,
            }, tr)

            exp, err := exporter.NewGRPCExporter(ctx, exporter.Config{
                Addr: gatewayAddr,
            })
            if err != nil {
                return err
            }
            col.AddExporter(exp)

            if err := col.Start(); err != nil {
                return err
            }
            logging.Sugar().Infow("agent started", "gateway", gatewayAddr)

            // Handle Ctrl‑C.
            sigCh := make(chan os.Signal, 1)
            signal.Notify(sigCh, os.Interrupt)
            select {
            case <-ctx.Done():
                logging.Sugar().Info("duration elapsed – stopping agent")
            case <-sigCh:
                logging.Sugar().Info("received interrupt – stopping agent")
            }

            col.Stop()
            return nil
        },
    }

    cmd.Flags().StringVar(&gatewayAddr, "gateway", "localhost:4317", "Tracepath gateway gRPC address (host:port)")
    cmd.Flags().DurationVar(&exportEvery, "export-every", 500*time.Millisecond, "Snapshot/export interval")
    cmd.Flags().IntVar(&maxStackDepth, "max-stack-depth", 0, "Maximum call stack depth to record (0 = unlimited)")
    cmd.Flags().DurationVar(&duration, "duration", 0, "Optional run time (e.g., 30s); 0 = run until Ctrl‑C")
    return cmd
}
