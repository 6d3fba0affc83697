// pkg/trace/filters.go
// Convenience helpers for slicing / dicing Record slices produced by the
// reader. These helpers are used by the CLI (`tracepath replay`) and by
// tests when asserting decode correctness.
//
// The helpers avoid generics to keep Go 1.24 compatibility.
package trace

import "time"

//--------------------------------------------------------------------
// Basic predicate filters
//--------------------------------------------------------------------

// ByTimeRange returns records whose Ts converted with baseTime fall within
// [from, to). If from.IsZero() it is treated as -∞; if to.IsZero() as +∞.
func ByTimeRange(rec []Record, baseTime time.Time, from, to time.Time) []Record {
    if from.IsZero() && to.IsZero() {
        return clone(rec)
    }
    var out []Record
    for _, r := range rec {
        t := r.Time(baseTime)
        if !from.IsZero() && t.Before(from) {
            continue
        }
        if !to.IsZero() && !t.Before(to) {
            continue
        }
        out = append(out, r)
    }
    return out
}

// ByThreadID filters records for a specific (pid, tid) pair; tid=0 is a no-op.
func ByThreadID(rec []Record, pid int64, tid uint64) []Record {
    if tid == 0 {
        return clone(rec)
    }
    var out []Record
    for _, r := range rec {
        if r.PID == pid && r.TID == tid {
            out = append(out, r)
        }
    }
    return out
}

// ByEventTypes keeps only records whose Type is in the allow list. Empty list
// returns clone(rec). The list is converted to a map for O(1) lookups.
func ByEventTypes(rec []Record, types ...EventType) []Record {
    if len(types) == 0 {
        return clone(rec)
    }
    allow := make(map[EventType]struct{}, len(types))
    for _, t := range types {
        allow[t] = struct{}{}
    }
    var out []Record
    for _, r := range rec {
        if _, ok := allow[r.Type]; ok {
            out = append(out, r)
        }
    }
    return out
}

//--------------------------------------------------------------------
// Utility helpers
//--------------------------------------------------------------------

// Downsample returns every nth record (n>=2). n<=1 returns clone(rec).
func Downsample(rec []Record, n int) []Record {
    if n <= 1 {
        return clone(rec)
    }
    out := make([]Record, 0, len(rec)/n+1)
    for i := 0; i < len(rec); i += n {
        out = append(out, rec[i])
    }
    return out
}

// AggregateValueByType sums the Value field for each EventType. Useful for
// quick counters in CLI.
func AggregateValueByType(rec []Record) map[EventType]float64 {
    m := make(map[EventType]float64)
    for _, r := range rec {
        m[r.Type] += r.Value
    }
    return m
}

//--------------------------------------------------------------------
// internal helpers
//--------------------------------------------------------------------

func clone(src []Record) []Record {
    if len(src) == 0 {
        return nil
    }
    dst := make([]Record, len(src))
    copy(dst, src)
    return dst
}
