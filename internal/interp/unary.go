package interp

import (
	"context"

	"github.com/arduino-ast/interpreter/internal/compactast"
	"github.com/arduino-ast/interpreter/internal/value"
)

func (in *Interpreter) evalUnaryOp(ctx context.Context, n *compactast.Node) (value.Value, error) {
	op := n.StrValue

	switch op {
	case "&":
		return in.evalAddressOf(n.Named.Operand)
	case "++", "--":
		return in.evalIncDec(ctx, n.Named.Operand, op, true)
	}

	operand, err := in.evalExpr(ctx, n.Named.Operand)
	if err != nil {
		return value.NullValue(), err
	}

	switch op {
	case "-":
		return negate(operand), nil
	case "!":
		return value.BoolValue(!operand.Truthy()), nil
	case "*":
		return in.dereference(operand)
	default:
		return in.runtimeError("unsupported unary operator %q", op)
	}
}

func (in *Interpreter) evalPostfix(ctx context.Context, n *compactast.Node) (value.Value, error) {
	return in.evalIncDec(ctx, n.Named.Operand, n.StrValue, false)
}

func negate(v value.Value) value.Value {
	switch v.Kind {
	case value.F64:
		return value.F64Value(-v.F)
	case value.U32:
		return value.I32Value(-int32(v.U))
	default:
		i, _ := v.AsI32()
		return value.I32Value(-i)
	}
}

// evalAddressOf implements `&identifier` (spec.md §4.4): a pointer to
// the named variable, or a function-pointer when the name resolves to
// a registered user function.
func (in *Interpreter) evalAddressOf(operandIdx uint32) (value.Value, error) {
	operandNode, ok := in.tree.Node(operandIdx)
	if !ok || operandNode.Kind != compactast.KindIdentifier {
		return in.runtimeError("'&' requires an identifier operand")
	}
	name := operandNode.StrValue
	if fn, ok := in.reg.funcs[name]; ok {
		return value.FuncPointerValue(fn.Name, in.reg.newPointerID()), nil
	}
	if !in.scopes.Exists(name) {
		return in.runtimeError("undefined variable %q", name)
	}
	return value.PointerValue(name, 0, in.reg.newPointerID()), nil
}

// dereference implements `*pointer` (spec.md §4.4, GLOSSARY "Offset
// pointer"): reads the target variable, or the indexed element when
// offset != 0, bounds-checked against array length.
func (in *Interpreter) dereference(v value.Value) (value.Value, error) {
	if v.Kind != value.PointerHandle {
		return in.runtimeError("dereference of non-pointer value")
	}
	target, ok := in.scopes.Get(v.Ptr.Target)
	if !ok {
		return in.runtimeError("dereference of pointer to undefined variable %q", v.Ptr.Target)
	}
	if v.Ptr.Offset == 0 && !isArrayKind(target.Value.Kind) {
		return target.Value, nil
	}
	return in.indexArray(target.Value, v.Ptr.Offset)
}

func isArrayKind(k value.Kind) bool {
	switch k {
	case value.Arr1I32, value.Arr1F64, value.Arr1Str:
		return true
	}
	return false
}

func (in *Interpreter) indexArray(arr value.Value, index int32) (value.Value, error) {
	if index < 0 {
		return in.runtimeError("array index %d out of bounds", index)
	}
	i := int(index)
	switch arr.Kind {
	case value.Arr1I32:
		if i >= len(arr.ArrI) {
			return in.runtimeError("array index %d out of bounds", index)
		}
		return value.I32Value(arr.ArrI[i]), nil
	case value.Arr1F64:
		if i >= len(arr.ArrF) {
			return in.runtimeError("array index %d out of bounds", index)
		}
		return value.F64Value(arr.ArrF[i]), nil
	case value.Arr1Str:
		if i >= len(arr.ArrS) {
			return in.runtimeError("array index %d out of bounds", index)
		}
		return value.StrValue(arr.ArrS[i]), nil
	default:
		return in.runtimeError("cannot index non-array value")
	}
}

// evalIncDec implements prefix (isPrefix=true, returns new value) and
// postfix (returns old value) ++/-- over an identifier or a pointer
// variable (spec.md §4.4: "Postfix: x++/x-- update the target and
// return the old value ... when the target is a pointer, return a
// snapshot pointer value and update the variable to a new offset
// pointer").
func (in *Interpreter) evalIncDec(ctx context.Context, operandIdx uint32, op string, isPrefix bool) (value.Value, error) {
	operandNode, ok := in.tree.Node(operandIdx)
	if !ok || operandNode.Kind != compactast.KindIdentifier {
		return in.runtimeError("%s requires an identifier operand", op)
	}
	name := operandNode.StrValue
	v, ok := in.scopes.Get(name)
	if !ok {
		return in.runtimeError("undefined variable %q", name)
	}

	old := v.Value
	var next value.Value
	switch {
	case old.Kind == value.PointerHandle:
		delta := int32(1)
		if op == "--" {
			delta = -1
		}
		next = value.PointerValue(old.Ptr.Target, old.Ptr.Offset+delta, old.Ptr.PointerID)
	default:
		delta := value.I32Value(1)
		if op == "--" {
			delta = value.I32Value(-1)
		}
		result, err := value.Arith(value.OpAdd, old, delta)
		if err != nil {
			return in.runtimeError("%s", err.Error())
		}
		next = result
	}

	if err := in.scopes.Set(name, next); err != nil {
		return in.runtimeError("%s", err.Error())
	}
	in.emit.VarSet(name, next)

	if isPrefix {
		return next, nil
	}
	return old, nil
}
