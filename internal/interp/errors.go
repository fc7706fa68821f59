package interp

// runtimeError emits a RuntimeError command and returns Null, per
// spec.md §7's propagation policy: "emitted and recovered: the
// offending expression yields Null ... execution continues with the
// best-effort successor statement". Callers never treat the returned
// error as fatal; it exists only so evalExpr's own call sites can
// short-circuit sub-evaluation of a now-meaningless expression tree
// without duplicating the emission.
import (
	"fmt"

	"github.com/arduino-ast/interpreter/internal/value"
)

type recoveredError struct{ msg string }

func (e *recoveredError) Error() string { return e.msg }

func (in *Interpreter) runtimeError(format string, args ...interface{}) (value.Value, error) {
	msg := fmt.Sprintf(format, args...)
	in.emit.Error(msg, "RuntimeError")
	return value.NullValue(), &recoveredError{msg: msg}
}

func (in *Interpreter) internalError(format string, args ...interface{}) (value.Value, error) {
	msg := fmt.Sprintf(format, args...)
	in.emit.Error(msg, "InternalError")
	return value.NullValue(), &recoveredError{msg: msg}
}
