package common

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-stack/stack"
)

// InternalPanic raises an internal invariant violation: a logic bug, not a
// peer or transport fault. The caller is expected to have already logged
// the surrounding context; this captures a stack trace and a dump of the
// offending value into the panic message before unwinding. No code in this
// module recovers the panic, so the Node for the affected channel is not
// restarted.
func InternalPanic(msg string, offending interface{}) {
	panic(fmt.Sprintf("internal error: %s\n%s\n%s", msg, stack.Trace().TrimRuntime(), spew.Sdump(offending)))
}
