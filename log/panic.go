package log

import (
	"bytes"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// Panic renders a recovered panic value with its stack, trimmed of the
// recovery frames above the panic site.
func Panic(recovered any) func(e *zerolog.Event) {
	return func(e *zerolog.Event) {
		lines := bytes.Split(debug.Stack(), []byte("\n"))
		if len(lines) > 9 {
			lines = lines[9:]
		}
		e.Dict("panic", zerolog.Dict().
			Any("content", recovered).
			Bytes("stack_traces", bytes.Join(lines, []byte("\n"))),
		)
	}
}
