// cmd/tracepath/replay.go
// Implements the `tracepath replay` command. It loads a previously recorded
// `.fgo` file (produced by `tracepath record`), decodes the embedded Chrome
// Trace Event JSON and provides three output modes:
//  1. Human‑readable summary on stdout (default)
//  2. Full pretty‑printed JSON via `--json`
//  3. Aggregated call-duration flamegraph JSON via `--flamegraph`
//
// Future versions will embed a mini HTTP server that renders the same
// WebComponent used by the dashboard, but for now the focus is on quick CLI
// inspection and piping into other tools.
package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracepath/tracepath/pkg/flamegraph"
	"github.com/tracepath/tracepath/pkg/traceevent"
)

func newReplayCmd() *cobra.Command {
    var outputJSON bool
    var outputFlame bool

    cmd := &cobra.Command{
        Use:   "replay <file.fgo>",
        Short: "Inspect a recorded .fgo trace file",
        Args:  cobra.ExactArgs(1),
        RunE: func(cmd *cobra.Command, args []string) error {
            path := args[0]
            r, closeFn, err := openTraceFile(path)
            if err != nil {
                return err
            }
            defer closeFn()

            var events []traceevent.ChromeEvent
            dec := json.NewDecoder(r)
            if err := dec.Decode(&events); err != nil {
                return fmt.Errorf("decode trace: %w", err)
            }

            if outputJSON {
                enc := json.NewEncoder(os.Stdout)
                enc.SetIndent("", "  ")
                return enc.Encode(events)
            }

            if outputFlame {
                root := flamegraph.FromEvents(filepath.Base(path), events)
                data, err := root.ToJSON()
                if err != nil {
                    return err
                }
                _, err = os.Stdout.Write(append(data, '\n'))
                return err
            }

            // Human summary: aggregate duration by function name.
            type stat struct {
                name  string
                total float64
                calls int
            }
            totals := make(map[string]*stat)
            var cumulative float64
            for _, ev := range events {
                if ev.Ph != traceevent.PhComplete {
                    continue
                }
                s, ok := totals[ev.Name]
                if !ok {
                    s = &stat{name: ev.Name}
                    totals[ev.Name] = s
                }
                s.total += ev.Dur
                s.calls++
                cumulative += ev.Dur
            }

            rows := make([]*stat, 0, len(totals))
            for _, s := range totals {
                rows = append(rows, s)
            }
            sort.Slice(rows, func(i, j int) bool { return rows[i].total > rows[j].total })

            fmt.Printf("File: %s\n", path)
            fmt.Printf("Functions: %d\n", len(rows))
            fmt.Printf("Cumulative time: %s\n", time.Duration(cumulative*float64(time.Microsecond)))
            fmt.Println("Top 10 hottest functions:")
            for i, s := range rows[:min(10, len(rows))] {
                fmt.Printf("%2d. %-50s %6d calls  %12s\n", i+1, s.name, s.calls, time.Duration(s.total*float64(time.Microsecond)))
            }
            return nil
        },
    }

    cmd.Flags().BoolVar(&outputJSON, "json", false, "Output full trace JSON instead of summary")
    cmd.Flags().BoolVar(&outputFlame, "flamegraph", false, "Output an aggregated call-duration flamegraph as JSON")
    return cmd
}

// openTraceFile opens a .fgo trace file, transparently gunzipping it when
// the file was written with compression (the default for `tracepath
// record`). The returned closer releases both the gzip reader (if any) and
// the underlying file.
func openTraceFile(path string) (io.Reader, func() error, error) {
    f, err := os.Open(path)
    if err != nil {
        return nil, nil, err
    }

    if !isGzip(path) {
        return f, f.Close, nil
    }

    gr, err := gzip.NewReader(f)
    if err != nil {
        _ = f.Close()
        return nil, nil, err
    }
    return gr, func() error {
        _ = gr.Close()
        return f.Close()
    }, nil
}

// isGzip infers gzip compression from the file's magic bytes, so `.fgo`
// files written with --no-compress are read as plain JSON.
func isGzip(path string) bool {
    // Peek first two bytes.
    f, err := os.Open(path)
    if err != nil {
        return false
    }
    defer f.Close()
    var magic [2]byte
    if _, err := io.ReadFull(f, magic[:]); err != nil {
        return false
    }
    return magic[0] == 0x1f && magic[1] == 0x8b
}

func min(a, b int) int {
    if a < b {
        return a
    }
    return b
}
