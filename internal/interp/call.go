package interp

import (
	"context"
	"strings"

	"github.com/arduino-ast/interpreter/internal/builtins"
	"github.com/arduino-ast/interpreter/internal/compactast"
	"github.com/arduino-ast/interpreter/internal/control"
	"github.com/arduino-ast/interpreter/internal/scope"
	"github.com/arduino-ast/interpreter/internal/value"
)

// evalFuncCall dispatches a FuncCall node (spec.md §4.4, §4.6): a
// user-defined function if the callee name is registered, otherwise
// the built-in/library registry, falling back to ResolveLibrarySensor
// for an object method neither resolves (e.g. a third-party sensor
// library's own `.read()`).
func (in *Interpreter) evalFuncCall(ctx context.Context, n *compactast.Node) (value.Value, error) {
	calleeNode, ok := in.tree.Node(n.Named.Callee)
	if !ok || calleeNode.Kind != compactast.KindIdentifier {
		return in.runtimeError("call target must be a function name")
	}
	name := calleeNode.StrValue

	args := make([]value.Value, 0, len(n.Named.Arguments))
	for _, argIdx := range n.Named.Arguments {
		v, err := in.evalExpr(ctx, argIdx)
		if err != nil {
			return value.NullValue(), err
		}
		args = append(args, v)
	}

	if fn, ok := in.reg.funcs[name]; ok {
		return in.invokeUserFunction(ctx, fn, args)
	}

	if _, ok := in.fns.Lookup(name); !ok {
		if library, method, ok := splitLibraryMethod(name); ok {
			param := int32(0)
			if len(args) > 0 {
				param, _ = args[0].AsI32()
			}
			return builtins.ResolveLibrarySensor(in.callContext(ctx, name), library, method, param)
		}
	}

	return in.fns.Dispatch(in.callContext(ctx, name), name, args)
}

func splitLibraryMethod(name string) (library, method string, ok bool) {
	idx := strings.IndexByte(name, '.')
	if idx < 0 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}

// invokeUserFunction runs a registered function body in a fresh
// function scope, binding parameters by position (spec.md §4.5: "a
// function call pushes a function scope, binds parameters, and runs
// its body"). The function's return value is whatever its nearest
// control frame collected via `return`, or Null if it fell off the end.
func (in *Interpreter) invokeUserFunction(ctx context.Context, fn *funcDef, args []value.Value) (value.Value, error) {
	in.control.Push(control.ScopeFunction)
	in.scopes.Push(scope.Function)

	for i, pname := range fn.ParamNames {
		var av value.Value
		if i < len(args) {
			av = args[i]
		} else {
			av = value.NullValue()
		}
		ptype := ""
		if i < len(fn.ParamTypes) {
			ptype = fn.ParamTypes[i]
		}
		in.scopes.Declare(pname, ptype, av, false)
	}

	err := in.execBlock(ctx, fn.BodyNode)
	frame := in.control.Pop()
	in.scopes.Pop()
	if err != nil {
		return value.NullValue(), err
	}

	// An iteration-limit that wasn't absorbed inside this function
	// (ContinueInParent=false) keeps unwinding through the call site,
	// same as it would through nested loop constructs.
	in.propagateIterationLimit(frame)

	if frame != nil && frame.StopReason == control.Return {
		return frame.ReturnValue, nil
	}
	return value.NullValue(), nil
}
