package codec

import (
	"bytes"
	"compress/flate"
	"io"
	"sort"
)

// writeFileInfo writes the FILE_INFO record (file and function counts),
// then one FILE_NAME record per file with its content deflate-compressed,
// then one FUNCTION_NAME record per function. Grounded on vc_dump.c's
// dump_file_info, which uses zlib compress(); compress/flate is the
// direct Go stdlib equivalent of the raw deflate stream produced there.
// Files/Functions are visited in sorted-name order for the same encode
// determinism reason as Encode's PidTid/FEEKey maps.
func writeFileInfo(w io.Writer, fi *FileInfo) error {
	if err := writeByte(w, tagFileInfo); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(len(fi.Files))); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(len(fi.Functions))); err != nil {
		return err
	}

	fileNames := make([]string, 0, len(fi.Files))
	for name := range fi.Files {
		fileNames = append(fileNames, name)
	}
	sort.Strings(fileNames)

	for _, name := range fileNames {
		fc := fi.Files[name]
		if err := writeByte(w, tagFileName); err != nil {
			return err
		}
		if err := writeCStr(w, name); err != nil {
			return err
		}
		if err := writeUint64(w, fc.LineCount); err != nil {
			return err
		}
		compressed, err := deflate(fc.Content)
		if err != nil {
			return err
		}
		if err := writeUint64(w, uint64(len(compressed))); err != nil {
			return err
		}
		if err := writeUint64(w, uint64(len(fc.Content))); err != nil {
			return err
		}
		if _, err := w.Write(compressed); err != nil {
			return err
		}
	}

	funcNames := make([]string, 0, len(fi.Functions))
	for name := range fi.Functions {
		funcNames = append(funcNames, name)
	}
	sort.Strings(funcNames)

	for _, name := range funcNames {
		loc := fi.Functions[name]
		if err := writeByte(w, tagFunctionName); err != nil {
			return err
		}
		if err := writeCStr(w, name); err != nil {
			return err
		}
		if err := writeCStr(w, loc.File); err != nil {
			return err
		}
		if err := writeUint64(w, loc.Line); err != nil {
			return err
		}
	}
	return nil
}

// LoadFileInfo reads a FILE_INFO section starting at the current position
// of r (typically right after Decode has rewound past an unrecognized
// top-level tag). It reads FILE_NAME and FUNCTION_NAME records until the
// declared file_count/function_count are both satisfied.
func LoadFileInfo(r io.Reader) (*FileInfo, error) {
	tag, err := readByte(r)
	if err != nil {
		return nil, &DecodeError{Reason: errShortRead.Error()}
	}
	if tag != tagFileInfo {
		return nil, &DecodeError{Reason: "expected FILE_INFO tag"}
	}
	fileCount, err := readUint64(r)
	if err != nil {
		return nil, &DecodeError{Reason: errShortRead.Error()}
	}
	funcCount, err := readUint64(r)
	if err != nil {
		return nil, &DecodeError{Reason: errShortRead.Error()}
	}

	fi := &FileInfo{Files: make(map[string]FileContent), Functions: make(map[string]FunctionLoc)}

	var readFiles, readFuncs uint64
	for readFiles < fileCount || readFuncs < funcCount {
		tag, err := readByte(r)
		if err != nil {
			return nil, &DecodeError{Reason: errShortRead.Error()}
		}
		switch tag {
		case tagFileName:
			name, err := readCStr(r)
			if err != nil {
				return nil, &DecodeError{Reason: errShortRead.Error()}
			}
			lineCount, err := readUint64(r)
			if err != nil {
				return nil, &DecodeError{Reason: errShortRead.Error()}
			}
			compLen, err := readUint64(r)
			if err != nil {
				return nil, &DecodeError{Reason: errShortRead.Error()}
			}
			rawLen, err := readUint64(r)
			if err != nil {
				return nil, &DecodeError{Reason: errShortRead.Error()}
			}
			compressed := make([]byte, compLen)
			if _, err := io.ReadFull(r, compressed); err != nil {
				return nil, &DecodeError{Reason: errShortRead.Error()}
			}
			content, err := inflate(compressed, int(rawLen))
			if err != nil {
				return nil, &DecodeError{Reason: errDecompress.Error()}
			}
			fi.Files[name] = FileContent{Content: content, LineCount: lineCount}
			readFiles++
		case tagFunctionName:
			name, err := readCStr(r)
			if err != nil {
				return nil, &DecodeError{Reason: errShortRead.Error()}
			}
			file, err := readCStr(r)
			if err != nil {
				return nil, &DecodeError{Reason: errShortRead.Error()}
			}
			line, err := readUint64(r)
			if err != nil {
				return nil, &DecodeError{Reason: errShortRead.Error()}
			}
			fi.Functions[name] = FunctionLoc{File: file, Line: line}
			readFuncs++
		default:
			return nil, &DecodeError{Reason: "unknown tag inside file_info section"}
		}
	}
	return fi, nil
}

func deflate(s string) ([]byte, error) {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write([]byte(s)); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func inflate(b []byte, rawLen int) (string, error) {
	fr := flate.NewReader(bytes.NewReader(b))
	defer fr.Close()
	out := make([]byte, rawLen)
	if _, err := io.ReadFull(fr, out); err != nil {
		return "", err
	}
	return string(out), nil
}
