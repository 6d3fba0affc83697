// pkg/flamegraph/fromevents.go
// Builds a call-duration Frame tree from decoded Chrome Trace Events. Each
// complete ("X") event contributes its own duration as a Sample whose Stack
// is the full call path active at the time the event was recorded,
// reconstructed per (pid, tid) from event nesting.
package flamegraph

import (
	"sort"

	"github.com/tracepath/tracepath/pkg/traceevent"
)

// FromEvents aggregates a snapshot of complete events into a single Frame
// tree rooted at rootName. Events are grouped by (pid, tid) so that
// concurrently-recorded threads do not interleave into the same call stack,
// then replayed in timestamp order, maintaining a stack of in-flight frames:
// an event is nested under another when it starts after and ends before its
// parent.
func FromEvents(rootName string, events []traceevent.ChromeEvent) *Frame {
    root := New(rootName)
    b := &Builder{root: root}

    groups := make(map[threadKey][]traceevent.ChromeEvent)
    for _, ev := range events {
        if ev.Ph != traceevent.PhComplete {
            continue
        }
        k := threadKey{pid: ev.PID, tid: ev.TID}
        groups[k] = append(groups[k], ev)
    }

    for _, evs := range groups {
        sort.SliceStable(evs, func(i, j int) bool {
            if evs[i].TS != evs[j].TS {
                return evs[i].TS < evs[j].TS
            }
            return evs[i].Dur > evs[j].Dur
        })

        var stack []traceevent.ChromeEvent
        var path []string
        for _, ev := range evs {
            for len(stack) > 0 && stack[len(stack)-1].TS+stack[len(stack)-1].Dur <= ev.TS {
                stack = stack[:len(stack)-1]
                path = path[:len(path)-1]
            }
            path = append(path, ev.Name)
            b.Add(Sample{Stack: append([]string(nil), path...), Weight: int64(ev.Dur * 1000)}) // µs → ns
            stack = append(stack, ev)
        }
    }

    return b.Build()
}

type threadKey struct {
    pid int64
    tid uint64
}
