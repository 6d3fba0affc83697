// pkg/otelbridge/spanlink.go
// Helper utilities that let a traced program correlate its call stacks with
// OpenTelemetry spans. The helpers are intentionally *optional* — the rest
// of the project only imports this package when the Go OpenTelemetry SDK is
// present in the build. There are **no** direct imports to internal
// packages so that external users can reuse the helpers in their own
// instrumentation layers; the tracepath-side correlation map lives in
// internal/gateway/otelbridge.go.
//
// Key ideas:
//   - `Annotate` emits the "trace_id=<hex>[,<span-hex>]" instant-event
//     annotation that internal/gateway's bridge keys its (pid, tid) → span
//     correlation map on.
//   - `GoroutineID()` duplicates the simple (but safe) hack used by many –
//     parsing runtime.Stack with a small buffer. It avoids cgo or unsafe,
//     and doubles as the tid a tracer.Tracer records calls under.
//   - `WithGID` sets a baggage item with gid so downstream services can look
//     it up even if the span context is lost.
//
// Typical use, wrapping a traced goroutine so its spans line up with
// recorded call frames:
//
//	func worker(ctx context.Context, rec Recorder) {
//	    ctx, span := tr.Start(ctx, "worker")
//	    defer span.End()
//	    otelbridge.Annotate(ctx, rec)
//	    ...
//	}
package otelbridge

import (
	"context"
	"encoding/hex"
	"runtime"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/baggage"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/tracepath/tracepath/pkg/traceevent"
)

const attrGIDKey = "runtime.gid"

// GoroutineID returns the numeric ID of the current goroutine by parsing the
// stack trace header. It is cheap (~30 ns) and safe because the header
// format is stable since Go 1.4.
func GoroutineID() uint64 {
    var buf [64]byte
    n := runtime.Stack(buf[:], false)
    // first line looks like: "goroutine 12345 [running]:\n"
    fields := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))
    if len(fields) == 0 {
        return 0
    }
    id, _ := strconv.ParseUint(fields[0], 10, 64)
    return id
}

// Recorder is the subset of *internal/tracer.Tracer's API this package needs.
// Defined locally to avoid an import from pkg into internal.
type Recorder interface {
    AddInstant(tid uint64, name string, args map[string]string, scope traceevent.InstantScope)
}

// Annotate records an instant event carrying the active span's trace/span
// IDs, keyed under the calling goroutine's id, so that internal/gateway's
// OTEL bridge can later attach the span to every call frame recorded on the
// same (pid, tid). A no-op if ctx carries no valid span context.
func Annotate(ctx context.Context, rec Recorder) {
    sc := oteltrace.SpanContextFromContext(ctx)
    if !sc.IsValid() {
        return
    }
    ann := "trace_id=" + hex.EncodeToString(traceIDBytes(sc.TraceID()))
    if sc.HasSpanID() {
        ann += "," + hex.EncodeToString(spanIDBytes(sc.SpanID()))
    }
    rec.AddInstant(GoroutineID(), ann, nil, traceevent.ScopeThread)
}

func traceIDBytes(id oteltrace.TraceID) []byte {
    b := make([]byte, len(id))
    copy(b, id[:])
    return b
}

func spanIDBytes(id oteltrace.SpanID) []byte {
    b := make([]byte, len(id))
    copy(b, id[:])
    return b
}

// WithGID returns a context that carries a baggage item "runtime.gid".
// This is helpful when span context propagation is broken — downstream
// services can still read the goroutine ID and annotate their own spans.
func WithGID(ctx context.Context) context.Context {
    gid := GoroutineID()
    member, _ := baggage.NewMember(attrGIDKey, strconv.FormatUint(gid, 10))
    bg, _ := baggage.FromContext(ctx).SetMember(member)
    return baggage.ContextWithBaggage(ctx, bg)
}
