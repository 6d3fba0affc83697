package tracer

// Flag bits mirror the original's SNAPTRACE_* bitmask exactly, including
// the gap at bit 5 (reserved in the source for a field that ended up
// living outside the flags word).
const (
	flagMaxStackDepth   uint32 = 1 << 0
	flagIncludeFiles    uint32 = 1 << 1
	flagExcludeFiles    uint32 = 1 << 2
	flagIgnoreCFunction uint32 = 1 << 3
	flagLogReturnValue  uint32 = 1 << 4
	flagLogFunctionArgs uint32 = 1 << 6
	flagIgnoreFrozen    uint32 = 1 << 7
	flagLogAsync        uint32 = 1 << 8
	flagTraceSelf       uint32 = 1 << 9
)

// ArgRepr formats an argument value as a display string. It is the
// caller-supplied equivalent of the original's PyObject_Repr: if it
// panics, the hook recovers and substitutes "Not Displayable" rather than
// letting the panic escape into host code, matching HostError's swallow
// semantics.
type ArgRepr func(name string, value any) string

// Config holds the full recognized option set from Configure. The zero
// value is a usable default configuration (no filters, no stack limit,
// argument/return capture off).
type Config struct {
	Verbose       int
	LibFilePath   string
	MaxStackDepth int
	IncludeFiles  []string
	ExcludeFiles  []string

	IgnoreCFunction bool
	IgnoreFrozen    bool
	LogFuncRetval   bool
	LogFuncArgs     bool
	LogAsync        bool
	TraceSelf       bool

	MinDurationNs int64
	ProcessName   string
	LogFuncRepr   ArgRepr
	BufferSize    int

	flags uint32
}

// defaultBufferSize matches viztracer's own default ring capacity.
const defaultBufferSize = 1 << 16

// normalize derives the flags bitmask from the struct fields and applies
// defaults, validating the at-most-one-of include/exclude constraint.
func (c *Config) normalize() error {
	if len(c.IncludeFiles) > 0 && len(c.ExcludeFiles) > 0 {
		return &ConfigError{Reason: ErrBothFileFilters.Error()}
	}
	if c.BufferSize <= 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.LogFuncRepr == nil {
		c.LogFuncRepr = defaultArgRepr
	}

	var flags uint32
	if c.MaxStackDepth > 0 {
		flags |= flagMaxStackDepth
	}
	if len(c.IncludeFiles) > 0 {
		flags |= flagIncludeFiles
	}
	if len(c.ExcludeFiles) > 0 {
		flags |= flagExcludeFiles
	}
	if c.IgnoreCFunction {
		flags |= flagIgnoreCFunction
	}
	if c.LogFuncRetval {
		flags |= flagLogReturnValue
	}
	if c.LogFuncArgs {
		flags |= flagLogFunctionArgs
	}
	if c.IgnoreFrozen {
		flags |= flagIgnoreFrozen
	}
	if c.LogAsync {
		flags |= flagLogAsync
	}
	if c.TraceSelf {
		flags |= flagTraceSelf
	}
	c.flags = flags
	return nil
}

func (c *Config) checkFlag(f uint32) bool { return c.flags&f != 0 }

func defaultArgRepr(_ string, value any) string {
	return safeSprint(value)
}
