// cmd/tracepath/record.go
// Implements the `tracepath record` command. It starts an in-process
// tracer, traces the current program for a fixed duration and writes the
// resulting Chrome Trace Event snapshot to a `.fgo` file on disk. The
// output is a gzipped JSON array by default so that `tracepath replay
// <file>` can load it instantly, while still being usable by external
// tools after decompression.
package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracepath/tracepath/internal/agent"
	"github.com/tracepath/tracepath/internal/logging"
	"github.com/tracepath/tracepath/internal/tracer"
	"github.com/tracepath/tracepath/pkg/clock"
)

func newRecordCmd() *cobra.Command {
    var (
        outFile       string
        duration      time.Duration
        maxStackDepth int
        noCompress    bool
    )

    cmd := &cobra.Command{
        Use:   "record",
        Short: "Record a local trace snapshot to a .fgo file",
        Long:  `Starts a lightweight tracer inside the tracepath process, records call activity for the specified duration and stores the resulting Chrome Trace Event JSON (optionally gzipped) to disk.`,
        RunE: func(cmd *cobra.Command, args []string) error {
            if duration <= 0 {
                return fmt.Errorf("--duration must be > 0")
            }
            // Default output filename: trace-20250527T180000.fgo
            if outFile == "" {
                ts := time.Now().Format("20060102T150405")
                outFile = fmt.Sprintf("trace-%s.fgo", ts)
            }
            if filepath.Ext(outFile) == "" {
                outFile += ".fgo"
            }

            ctx, cancel := context.WithTimeout(cmd.Context(), duration)
            defer cancel()

            tr, err := tracer.New(tracer.Config{MaxStackDepth: maxStackDepth}, clock.New())
            if err != nil {
                return err
            }
            col := agent.NewCollector(agent.Config{ExportEvery: 0}, tr)
            if err := col.Start(); err != nil {
                return err
            }
            logging.Sugar().Infow("recording started", "duration", duration)

            <-ctx.Done()

            // Stop collection before loading: the tracer rejects Load while
            // still running.
            col.Stop()
            events, err := tr.Load()
            if err != nil {
                return err
            }

            data, err := json.Marshal(events)
            if err != nil {
                return err
            }

            f, err := os.Create(outFile)
            if err != nil {
                return err
            }
            defer f.Close()

            if noCompress {
                if _, err := f.Write(data); err != nil {
                    return err
                }
            } else {
                gw := gzip.NewWriter(f)
                if _, err := gw.Write(data); err != nil {
                    _ = gw.Close()
                    return err
                }
                if err := gw.Close(); err != nil {
                    return err
                }
            }

            logging.Sugar().Infow("recording saved", "file", outFile, "size", len(data))
            return nil
        },
    }

    cmd.Flags().DurationVarP(&duration, "duration", "d", 30*time.Second, "Recording duration (e.g., 30s, 2m)")
    cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output .fgo file path (default auto‑named)")
    cmd.Flags().IntVar(&maxStackDepth, "max-stack-depth", 0, "Maximum call stack depth to record (0 = unlimited)")
    cmd.Flags().BoolVar(&noCompress, "no-compress", false, "Disable gzip compression of output file")
    return cmd
}
