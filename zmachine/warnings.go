package zmachine

import (
	"fmt"
	"io"
	"os"
)

// warnOnce logs a soft, spec-mandated condition (empty-stack read, unknown
// long-form 2OP code treated as NOP) at most
// once per (key) for the life of the machine, rather than spamming the sink
// on every instruction that hits the same path.
func (z *ZMachine) warnOnce(key string, format string, args ...interface{}) {
	if z.warnings == nil {
		z.warnings = make(map[string]bool)
	}
	if z.warnings[key] {
		return
	}
	z.warnings[key] = true

	sink := z.warnSink
	if sink == nil {
		sink = os.Stderr
	}
	fmt.Fprintf(sink, "warning: "+format+"\n", args...)
}

// SetWarningSink redirects warnOnce output; nil restores stderr.
func (z *ZMachine) SetWarningSink(w io.Writer) {
	z.warnSink = w
}
