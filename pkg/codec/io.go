package codec

import (
	"encoding/binary"
	"io"
)

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func writeUint64(w io.Writer, v uint64) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func readUint64(r io.Reader) (uint64, error) {
	var v uint64
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// writeCStr writes s (truncated to maxStringLen bytes, matching the
// decoder's cap) followed by an explicit null terminator. The string is
// not length-prefixed, matching the original's fwritestr.
func writeCStr(w io.Writer, s string) error {
	b := []byte(s)
	if len(b) > maxStringLen {
		b = b[:maxStringLen]
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	return writeByte(w, 0)
}

// readCStr reads bytes until a null terminator, EOF, or
// STRING_BUFFER_SIZE (maxStringLen+1) bytes have been consumed, matching
// the original's freadstrn(buffer, STRING_BUFFER_SIZE, fptr). Since
// writeCStr never writes more than maxStringLen content bytes before its
// terminator, a string produced by this package's own encoder always has
// its null found within this bound.
func readCStr(r io.Reader) (string, error) {
	buf := make([]byte, 0, 64)
	var b [1]byte
	for i := 0; i <= maxStringLen; i++ {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(buf), nil
		}
		buf = append(buf, b[0])
	}
	return string(buf), nil
}
