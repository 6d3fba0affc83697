// internal/gateway/otelbridge.go
// Optional bridge that enriches decoded trace events with OpenTelemetry span
// context so that a viewer can highlight which call frames belong to a
// particular distributed trace. The gateway maintains a tiny in-memory map
// (pid, tid) → active span and updates it as instant-event annotations
// arrive.
//
// Design trade-offs:
//   - Simplicity over completeness: correlation relies on an instant event
//     whose name carries "trace_id=<hex>[,<span-hex>]", rather than wiring
//     deep into the OTEL SDK.
//   - Correlation keys off (pid, tid) rather than a dedicated span-carrier
//     field, since the annotation and the FEE calls it covers are emitted by
//     the same thread.
//   - Map eviction is TTL-based (default 2 minutes), sufficient for hot
//     traces while bounded in memory.
//   - The bridge is disabled unless Config.EnableOTEL is set to true.
package gateway

import (
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tracepath/tracepath/pkg/traceevent"
)

// SpanInfo is the minimal set of fields the bridge cares about.
// [16]byte/[8]byte match the OTEL wire sizes for trace/span IDs.
type SpanInfo struct {
    TraceID [16]byte
    SpanID  [8]byte
    Ts      time.Time // last seen; used for TTL eviction
}

// otelBridge correlates (pid, tid) pairs to spans.
type otelBridge struct {
    enabled bool
    ttl     time.Duration
    mu      sync.Mutex
    m       map[string]SpanInfo
}

func newOTELBridge(enabled bool) *otelBridge {
    return &otelBridge{
        enabled: enabled,
        ttl:     2 * time.Minute,
        m:       make(map[string]SpanInfo),
    }
}

func taskKey(pid int64, tid uint64) string {
    return strconv.FormatInt(pid, 10) + ":" + strconv.FormatUint(tid, 10)
}

// updateOnEvent inspects an instant event's name for a "trace_id=" annotation;
// if present it records the mapping (pid, tid) → span.
func (b *otelBridge) updateOnEvent(pid int64, tid uint64, ann string) {
    if !b.enabled {
        return
    }
    const key = "trace_id="
    idx := strings.Index(ann, key)
    if idx == -1 {
        return
    }
    hexTid := ann[idx+len(key):]
    if len(hexTid) < 32 { // need 16-byte traceID
        return
    }
    var tidBytes [16]byte
    if _, err := hex.Decode(tidBytes[:], []byte(hexTid[:32])); err != nil {
        return
    }
    // span_id optional after comma
    var sid [8]byte
    if j := strings.IndexByte(hexTid, ','); j != -1 && len(hexTid[j+1:]) >= 16 {
        _, _ = hex.Decode(sid[:], []byte(hexTid[j+1:j+17]))
    }

    b.mu.Lock()
    b.m[taskKey(pid, tid)] = SpanInfo{TraceID: tidBytes, SpanID: sid, Ts: time.Now()}
    b.mu.Unlock()
}

// attachToEvents decorates each event's args with span info when its
// (pid, tid) still has a live mapping, and feeds instant-event annotations
// back into the correlation map. Called in the hot path before a snapshot
// is streamed to viewers.
func (b *otelBridge) attachToEvents(events []traceevent.ChromeEvent) {
    if !b.enabled {
        return
    }
    b.evictionSweep()
    for i := range events {
        if events[i].Ph == traceevent.PhInstant {
            b.updateOnEvent(events[i].PID, events[i].TID, events[i].Name)
            continue
        }
        info, ok := b.lookup(events[i].PID, events[i].TID)
        if !ok {
            continue
        }
        if events[i].Args == nil {
            events[i].Args = make(map[string]any)
        }
        events[i].Args["_span"] = hex.EncodeToString(info.TraceID[:]) + ":" + hex.EncodeToString(info.SpanID[:])
    }
}

func (b *otelBridge) lookup(pid int64, tid uint64) (SpanInfo, bool) {
    if !b.enabled {
        return SpanInfo{}, false
    }
    b.mu.Lock()
    info, ok := b.m[taskKey(pid, tid)]
    b.mu.Unlock()
    if !ok || time.Since(info.Ts) > b.ttl {
        return SpanInfo{}, false
    }
    return info, true
}

func (b *otelBridge) evictionSweep() {
    b.mu.Lock()
    now := time.Now()
    for id, info := range b.m {
        if now.Sub(info.Ts) > b.ttl {
            delete(b.m, id)
        }
    }
    b.mu.Unlock()
}
