// pkg/trace/reader.go
// Reader utilities for parsing Tracepath snapshots from either the binary
// container format (pkg/codec) or a newline-delimited JSON stream of Chrome
// Trace Events. The goal is to make it simple for tooling (CLI, offline
// analysis, tests) to iterate over flattened Records without duplicating
// deserialisation boilerplate.
package trace

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/tracepath/tracepath/pkg/codec"
	"github.com/tracepath/tracepath/pkg/traceevent"
)

// Format enumerates supported on-disk encodings.
type Format int

const (
    // AutoDetect peeks at the first byte to choose between Binary or NDJSON.
    AutoDetect Format = iota
    Binary
    NDJSON // newline-delimited JSON, or a single JSON array of events
)

// ErrUnknownFormat returned when AutoDetect fails.
var ErrUnknownFormat = errors.New("trace: unknown format")

// ReadAll consumes r and returns the decoded records slice.
// When format == AutoDetect it sniffs the first byte of the stream: the
// binary container's frame header never starts with '{' or '[', so a
// leading '{'/'[' selects NDJSON and anything else selects Binary.
func ReadAll(r io.Reader, format Format) ([]Record, error) {
    data, err := io.ReadAll(r)
    if err != nil {
        return nil, err
    }
    if format == AutoDetect {
        trimmed := bytes.TrimSpace(data)
        if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
            format = NDJSON
        } else {
            format = Binary
        }
    }

    var events []traceevent.ChromeEvent
    switch format {
    case Binary:
        result, err := codec.Decode(bytes.NewReader(data))
        if err != nil {
            return nil, err
        }
        events = result.Events

    case NDJSON:
        events, err = readJSONEvents(data)
        if err != nil {
            return nil, err
        }

    default:
        return nil, ErrUnknownFormat
    }

    records := make([]Record, 0, len(events))
    for _, ev := range events {
        if rec, ok := FromChromeEvent(ev); ok {
            records = append(records, rec)
        }
    }
    return records, nil
}

// readJSONEvents accepts either a single JSON array of events (as written by
// `tracepath record`) or one event object per line (as streamed by the
// agent's NDJSON exporter).
func readJSONEvents(data []byte) ([]traceevent.ChromeEvent, error) {
    trimmed := bytes.TrimSpace(data)
    if len(trimmed) > 0 && trimmed[0] == '[' {
        var events []traceevent.ChromeEvent
        if err := json.Unmarshal(trimmed, &events); err != nil {
            return nil, err
        }
        return events, nil
    }

    var events []traceevent.ChromeEvent
    scanner := bufio.NewScanner(bytes.NewReader(data))
    scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
    for scanner.Scan() {
        line := bytes.TrimSpace(scanner.Bytes())
        if len(line) == 0 {
            continue
        }
        var ev traceevent.ChromeEvent
        if err := json.Unmarshal(line, &ev); err != nil {
            return nil, err
        }
        events = append(events, ev)
    }
    if err := scanner.Err(); err != nil {
        return nil, err
    }
    return events, nil
}
