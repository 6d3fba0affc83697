// internal/agent/encoder/encoder.go
// Package encoder converts a collected trace snapshot into a serialised
// byte representation ready for transport by exporters. Two formats are
// supported:
//   - NDJSON — the Chrome Trace Event array, the canonical viewer format
//     (default)
//   - Binary — the project's own compact container (pkg/codec), grouping
//     FEE pairs by (pid, tid, name) and deflate-compressing any attached
//     file info
//
// Adding additional formats only requires implementing the Encoder
// interface and registering a constructor in New.
package encoder

import (
	"bytes"
	"encoding/json"

	"github.com/tracepath/tracepath/pkg/codec"
	"github.com/tracepath/tracepath/pkg/traceevent"
)

// Format enumeration.
const (
	FormatNDJSON = "ndjson"
	FormatBinary = "binary"
)

// Encoder serialises a decoded trace snapshot to bytes.
type Encoder interface {
	Encode(events []traceevent.ChromeEvent) ([]byte, error)
	// ContentType describes the MIME that exporters should set.
	ContentType() string
}

// New returns an encoder for the given format; defaults to NDJSON.
func New(format string) Encoder {
	switch format {
	case FormatBinary:
		return &binaryEncoder{}
	case FormatNDJSON:
		fallthrough
	default:
		return &ndjsonEncoder{}
	}
}

// NDJSON returns the Chrome Trace Event JSON array encoder.
func NDJSON() Encoder { return &ndjsonEncoder{} }

// Binary returns the pkg/codec binary container encoder.
func Binary() Encoder { return &binaryEncoder{} }

type ndjsonEncoder struct{}

func (j *ndjsonEncoder) Encode(events []traceevent.ChromeEvent) ([]byte, error) {
	return json.Marshal(events)
}
func (j *ndjsonEncoder) ContentType() string { return "application/json" }

type binaryEncoder struct{}

func (b *binaryEncoder) Encode(events []traceevent.ChromeEvent) ([]byte, error) {
	pe := chromeEventsToParsed(events)
	var buf bytes.Buffer
	if err := codec.Encode(&buf, pe); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
func (b *binaryEncoder) ContentType() string { return "application/vnd.tracepath.container" }

// DecodeBinary parses a binary container payload back into Chrome Trace
// Events, the inverse of Binary().Encode. Exposed for callers (such as the
// gateway's OTEL bridge) that need to enrich and re-encode a snapshot
// without depending on pkg/codec directly.
func DecodeBinary(payload []byte) ([]traceevent.ChromeEvent, error) {
	result, err := codec.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	return result.Events, nil
}

// EncodeBinary re-serializes events into the binary container format.
func EncodeBinary(events []traceevent.ChromeEvent) ([]byte, error) {
	return Binary().Encode(events)
}

// chromeEventsToParsed groups a flat Chrome Trace Event list back into
// the codec's process_names/thread_names/fee_events shape, the inverse
// of pkg/codec.Decode's expansion.
func chromeEventsToParsed(events []traceevent.ChromeEvent) *codec.ParsedEvents {
	pe := codec.NewParsedEvents()
	for _, ev := range events {
		key := codec.PidTid{PID: uint64(ev.PID), TID: ev.TID}
		switch ev.Ph {
		case traceevent.PhMetadata:
			name, _ := ev.Args["name"].(string)
			switch ev.Name {
			case "process_name":
				pe.ProcessNames[key] = name
			case "thread_name":
				pe.ThreadNames[key] = name
			}
		case traceevent.PhComplete:
			fk := codec.FEEKey{PID: uint64(ev.PID), TID: ev.TID, Name: ev.Name}
			pe.FEEEvents[fk] = append(pe.FEEEvents[fk], ev.TS, ev.Dur)
		}
	}
	return pe
}
