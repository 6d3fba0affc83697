// Package codec implements the compact binary trace container: a framed
// encoder that groups contiguous function events by (pid, tid, name) and
// deflate-compresses associated source files, and the inverse decoder
// that reconstructs a Chrome Trace Event list.
package codec

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"sort"

	"github.com/tracepath/tracepath/pkg/traceevent"
)

// Version is the container format version written in the file header.
// Grounded on the original's VCOMPRESSOR_VERSION.
const Version uint64 = 1

// Tag bytes, grounded on vc_dump.h's VC_HEADER_* constants.
const (
	tagFEE          = 0x01
	tagProcessName  = 0x02
	tagThreadName   = 0x03
	tagFileInfo     = 0x11
	tagFileName     = 0x12
	tagFunctionName = 0x13
)

// maxStringLen is the maximum useful length of a cstr, matching the
// original's STRING_BUFFER_SIZE-1. Both encoder and decoder honor this
// cap so that an overlong string can never desynchronize the record
// stream.
const maxStringLen = 511

// PidTid identifies a (process, thread) pair.
type PidTid struct {
	PID uint64
	TID uint64
}

// FEEKey identifies one contiguous run of function-entry/exit samples.
type FEEKey struct {
	PID  uint64
	TID  uint64
	Name string
}

// ParsedEvents is the in-memory structure the codec converts to and from
// the on-disk container.
type ParsedEvents struct {
	ProcessNames map[PidTid]string
	ThreadNames  map[PidTid]string
	// FEEEvents holds, per key, an ordered sequence of interleaved
	// (ts_us, dur_us) pairs as microsecond floats.
	FEEEvents map[FEEKey][]float64
	FileInfo  *FileInfo
}

// NewParsedEvents returns an empty, ready-to-populate ParsedEvents.
func NewParsedEvents() *ParsedEvents {
	return &ParsedEvents{
		ProcessNames: make(map[PidTid]string),
		ThreadNames:  make(map[PidTid]string),
		FEEEvents:    make(map[FEEKey][]float64),
	}
}

// FileInfo carries source file contents and function locations for later
// display, grounded on the original's optional file_info section.
type FileInfo struct {
	Files     map[string]FileContent
	Functions map[string]FunctionLoc
}

// FileContent is one source file's content and line count.
type FileContent struct {
	Content   string
	LineCount uint64
}

// FunctionLoc is one function's declaring file and line number.
type FunctionLoc struct {
	File string
	Line uint64
}

// errShortRead/errDecompress classify DecodeError causes; these errors
// wrap the reason string reported in a DecodeError.
var (
	errShortRead   = errors.New("codec: short read, file is corrupted")
	errDecompress  = errors.New("codec: decompression error")
)

// sortedPidTids returns the keys of m sorted by (PID, TID), so repeated
// encodes of the same map produce identical byte output despite Go's
// randomized map iteration order.
func sortedPidTids(m map[PidTid]string) []PidTid {
	keys := make([]PidTid, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].PID != keys[j].PID {
			return keys[i].PID < keys[j].PID
		}
		return keys[i].TID < keys[j].TID
	})
	return keys
}

// sortedFEEKeys returns pe.FEEEvents' keys sorted by (PID, TID, Name), for
// the same determinism reason as sortedPidTids.
func sortedFEEKeys(m map[FEEKey][]float64) []FEEKey {
	keys := make([]FEEKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].PID != keys[j].PID {
			return keys[i].PID < keys[j].PID
		}
		if keys[i].TID != keys[j].TID {
			return keys[i].TID < keys[j].TID
		}
		return keys[i].Name < keys[j].Name
	})
	return keys
}

// Encode writes the 8-byte little-endian version header, then one record
// per process name, thread name, and FEE key (in that order), and
// finally — if pe.FileInfo is non-nil — the FILE_INFO section. FEE
// timestamps are stored on disk as int64 nanoseconds, i.e. the in-memory
// microsecond value multiplied by 1000, matching vc_dump.c exactly.
// Keys are visited in sorted order so that encoding the same ParsedEvents
// twice yields byte-identical output regardless of Go's randomized map
// iteration.
func Encode(w io.Writer, pe *ParsedEvents) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, Version); err != nil {
		return err
	}
	for _, key := range sortedPidTids(pe.ProcessNames) {
		if err := writeByte(bw, tagProcessName); err != nil {
			return err
		}
		if err := writeUint64(bw, key.PID); err != nil {
			return err
		}
		if err := writeUint64(bw, key.TID); err != nil {
			return err
		}
		if err := writeCStr(bw, pe.ProcessNames[key]); err != nil {
			return err
		}
	}
	for _, key := range sortedPidTids(pe.ThreadNames) {
		if err := writeByte(bw, tagThreadName); err != nil {
			return err
		}
		if err := writeUint64(bw, key.PID); err != nil {
			return err
		}
		if err := writeUint64(bw, key.TID); err != nil {
			return err
		}
		if err := writeCStr(bw, pe.ThreadNames[key]); err != nil {
			return err
		}
	}
	for _, key := range sortedFEEKeys(pe.FEEEvents) {
		if err := writeFEERecord(bw, key, pe.FEEEvents[key]); err != nil {
			return err
		}
	}
	if pe.FileInfo != nil {
		if err := writeFileInfo(bw, pe.FileInfo); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeFEERecord(bw *bufio.Writer, key FEEKey, pairs []float64) error {
	if err := writeByte(bw, tagFEE); err != nil {
		return err
	}
	if err := writeUint64(bw, key.PID); err != nil {
		return err
	}
	if err := writeUint64(bw, key.TID); err != nil {
		return err
	}
	if err := writeCStr(bw, key.Name); err != nil {
		return err
	}
	if err := writeUint64(bw, uint64(len(pairs))); err != nil {
		return err
	}
	for _, v := range pairs {
		ns := int64(v * 1000)
		if err := binary.Write(bw, binary.LittleEndian, ns); err != nil {
			return err
		}
	}
	return nil
}

// DecodeResult is the output of Decode: the parsed structure plus the
// equivalent Chrome Trace Event list, expanded from the FEE records.
type DecodeResult struct {
	Parsed *ParsedEvents
	Events []traceevent.ChromeEvent
}

// Decode reads the version header, then reads tagged records until EOF or
// an unrecognized top-level tag, at which point it rewinds one byte and
// returns cleanly so a caller holding a seekable reader can resume
// parsing (e.g. to read a FILE_INFO section with LoadFileInfo). A short
// read or a decompression failure inside a record is a fatal DecodeError
// and the partial structure is discarded.
func Decode(r io.ReadSeeker) (*DecodeResult, error) {
	var version uint64
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, &DecodeError{Reason: errShortRead.Error()}
	}

	pe := NewParsedEvents()
	var events []traceevent.ChromeEvent

	for {
		tag, err := readByte(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DecodeError{Reason: errShortRead.Error()}
		}
		switch tag {
		case tagProcessName:
			key, name, err := readNamedPidTid(r)
			if err != nil {
				return nil, err
			}
			pe.ProcessNames[key] = name
			events = append(events, traceevent.ProcessNameEvent(int64(key.PID), key.TID, name))
		case tagThreadName:
			key, name, err := readNamedPidTid(r)
			if err != nil {
				return nil, err
			}
			pe.ThreadNames[key] = name
			events = append(events, traceevent.ThreadNameEvent(int64(key.PID), key.TID, name))
		case tagFEE:
			key, pairs, err := readFEERecord(r)
			if err != nil {
				return nil, err
			}
			pe.FEEEvents[key] = pairs
			for i := 0; i+1 < len(pairs); i += 2 {
				events = append(events, traceevent.ChromeEvent{
					Name: key.Name, Ph: traceevent.PhComplete, Cat: "FEE",
					PID: int64(key.PID), TID: key.TID,
					TS: pairs[i], Dur: pairs[i+1],
				})
			}
		default:
			if _, err := r.Seek(-1, io.SeekCurrent); err != nil {
				return nil, &DecodeError{Reason: err.Error()}
			}
			return &DecodeResult{Parsed: pe, Events: events}, nil
		}
	}
	return &DecodeResult{Parsed: pe, Events: events}, nil
}

func readNamedPidTid(r io.Reader) (PidTid, string, error) {
	pid, err := readUint64(r)
	if err != nil {
		return PidTid{}, "", &DecodeError{Reason: errShortRead.Error()}
	}
	tid, err := readUint64(r)
	if err != nil {
		return PidTid{}, "", &DecodeError{Reason: errShortRead.Error()}
	}
	name, err := readCStr(r)
	if err != nil {
		return PidTid{}, "", &DecodeError{Reason: errShortRead.Error()}
	}
	return PidTid{PID: pid, TID: tid}, name, nil
}

func readFEERecord(r io.Reader) (FEEKey, []float64, error) {
	pid, err := readUint64(r)
	if err != nil {
		return FEEKey{}, nil, &DecodeError{Reason: errShortRead.Error()}
	}
	tid, err := readUint64(r)
	if err != nil {
		return FEEKey{}, nil, &DecodeError{Reason: errShortRead.Error()}
	}
	name, err := readCStr(r)
	if err != nil {
		return FEEKey{}, nil, &DecodeError{Reason: errShortRead.Error()}
	}
	count, err := readUint64(r)
	if err != nil {
		return FEEKey{}, nil, &DecodeError{Reason: errShortRead.Error()}
	}
	pairs := make([]float64, count)
	for i := uint64(0); i < count; i++ {
		var ns int64
		if err := binary.Read(r, binary.LittleEndian, &ns); err != nil {
			return FEEKey{}, nil, &DecodeError{Reason: errShortRead.Error()}
		}
		pairs[i] = float64(ns) / 1000.0
	}
	return FEEKey{PID: pid, TID: tid, Name: name}, pairs, nil
}

// DecodeError reports a short read, an unknown tag mid-record (not at
// top level, which is a clean terminator — see Decode), or a
// decompression failure. The partial structure is discarded by the
// caller.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return "codec: decode error: " + e.Reason }
