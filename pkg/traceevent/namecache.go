package traceevent

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// NameCache is a string-interning map used to format function entry/exit
// display names cheaply: the same (function, file, line) triple recurs
// thousands of times per second in a hot trace, so interning reduces both
// peak memory and per-event allocation. Grounded on the original's
// get_name_from_fee_node dict-based interning.
type NameCache struct {
	mu    sync.Mutex
	names map[string]string
}

// NewNameCache returns an empty, ready-to-use NameCache.
func NewNameCache() *NameCache {
	return &NameCache{names: make(map[string]string)}
}

// intern returns the cached reference for s if one already exists, and
// records s as the canonical reference otherwise. Safe for concurrent use.
func (c *NameCache) intern(s string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.names[s]; ok {
		return existing
	}
	c.names[s] = s
	return s
}

// formatFEEName computes the canonical, un-interned display name for a
// FEE payload. For interpreted frames this is "{code_name}
// ({filename}:{firstline})". For native callables it is "{module}.
// {method}" if a module is known, else "{type}.{method}" if a bound
// receiver type is known, else just "{method}".
func formatFEEName(d *FEEData) string {
	if d.CodeName != "" || d.CodeFilename != "" {
		return fmt.Sprintf("%s (%s:%d)", d.CodeName, d.CodeFilename, d.CodeFirstLine)
	}
	if d.ModuleName != "" {
		return fmt.Sprintf("%s.%s", d.ModuleName, d.MethodName)
	}
	if d.TypeName != "" {
		return fmt.Sprintf("%s.%s", d.TypeName, d.MethodName)
	}
	return d.MethodName
}

// NameOfFEE computes the canonical display name of a FEE event, using
// cache to deduplicate identical names across repeated calls. If the
// formatted name already exists in the cache, the previously interned
// string is returned and the freshly computed one is dropped; otherwise
// the new string is inserted and returned.
func NameOfFEE(ev *Event, cache *NameCache) string {
	if ev == nil || ev.FEE == nil {
		return ""
	}
	name := formatFEEName(ev.FEE)
	if cache == nil {
		return name
	}
	return cache.intern(name)
}

// escapeFEEName writes s to w with JSON-safe escaping of backslash and
// double-quote characters only, matching the original's fputs_escape
// (which does not perform full JSON string escaping, just these two
// characters, since the rest of the stream framing supplies quoting).
func escapeFEEName(w io.Writer, s string) error {
	var b strings.Builder
	for _, r := range s {
		if r == '\\' || r == '"' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFEEName streams the canonical display name of ev to sink, with
// JSON-safe escaping of backslash and double-quote applied to the
// filename segment only (matching the original's fprintfeename, which
// only escapes the code_filename / the literal strings carry no
// user-controlled backslashes elsewhere).
func WriteFEEName(sink io.Writer, ev *Event) error {
	if ev == nil || ev.FEE == nil {
		return nil
	}
	d := ev.FEE
	switch {
	case d.CodeName != "" || d.CodeFilename != "":
		if _, err := fmt.Fprintf(sink, "%s (", d.CodeName); err != nil {
			return err
		}
		if err := escapeFEEName(sink, d.CodeFilename); err != nil {
			return err
		}
		_, err := fmt.Fprintf(sink, ":%d)", d.CodeFirstLine)
		return err
	case d.ModuleName != "":
		_, err := fmt.Fprintf(sink, "%s.%s", d.ModuleName, d.MethodName)
		return err
	case d.TypeName != "":
		_, err := fmt.Fprintf(sink, "%s.%s", d.TypeName, d.MethodName)
		return err
	default:
		_, err := io.WriteString(sink, d.MethodName)
		return err
	}
}
