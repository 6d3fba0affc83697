// internal/plugins/example/reprtrunc/plugin.go
// Example "argrepr" plugin: truncates argument/return value reprs to a
// fixed byte budget instead of the tracer's default unbounded fmt.Sprint.
// Import for side effect to register it:
//
//	import _ "github.com/tracepath/tracepath/internal/plugins/example/reprtrunc"
package reprtrunc

import (
	"fmt"

	"github.com/tracepath/tracepath/internal/plugins"
)

const maxBytes = 256

// TruncPlugin registers an ArgRepr-shaped handle under the "argrepr" kind.
type TruncPlugin struct{}

func (p *TruncPlugin) Kind() plugins.Kind { return "argrepr" }
func (p *TruncPlugin) Name() string       { return "reprtrunc" }

// Init returns the repr function itself as the opaque handle; callers
// type-assert it to func(string, any) string before wiring it into
// tracer.Config.LogFuncRepr.
func (p *TruncPlugin) Init() (any, error) {
	return Repr, nil
}

// Repr formats v and truncates the result to maxBytes, matching the
// shape expected by tracer.ArgRepr.
func Repr(name string, v any) string {
	s := fmt.Sprint(v)
	if len(s) > maxBytes {
		return s[:maxBytes] + "...(truncated)"
	}
	return s
}

func init() {
	plugins.Register(&TruncPlugin{})
}
