// cmd/tracepath/query.go
// Implements the `tracepath query` command: loads a recorded snapshot
// through pkg/trace's analytics layer and prints aggregate counters,
// optionally narrowed to one (pid, tid) pair and downsampled.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracepath/tracepath/pkg/trace"
)

func newQueryCmd() *cobra.Command {
    var (
        pid        int64
        tid        uint64
        downsample int
    )

    cmd := &cobra.Command{
        Use:   "query <file.fgo>",
        Short: "Run aggregate queries over a recorded snapshot",
        Args:  cobra.ExactArgs(1),
        RunE: func(cmd *cobra.Command, args []string) error {
            r, closeFn, err := openTraceFile(args[0])
            if err != nil {
                return err
            }
            defer closeFn()

            records, err := trace.ReadAll(r, trace.AutoDetect)
            if err != nil {
                return fmt.Errorf("decode trace: %w", err)
            }

            records = trace.ByThreadID(records, pid, tid)
            records = trace.Downsample(records, downsample)

            totals := trace.AggregateValueByType(records)
            fmt.Printf("Records: %d\n", len(records))
            for _, t := range []trace.EventType{trace.EvCall, trace.EvInstant, trace.EvCounter, trace.EvObjectNew, trace.EvObjectSnapshot, trace.EvObjectDestroy, trace.EvMetadata} {
                if v, ok := totals[t]; ok {
                    fmt.Printf("  type=%-12d total_value=%.2f\n", t, v)
                }
            }
            return nil
        },
    }

    cmd.Flags().Int64Var(&pid, "pid", 0, "Restrict to a single process id (0 = all)")
    cmd.Flags().Uint64Var(&tid, "tid", 0, "Restrict to a single thread id (0 = all)")
    cmd.Flags().IntVar(&downsample, "downsample", 1, "Keep every Nth record (1 = keep all)")
    return cmd
}
