package interp

import (
	"context"

	"github.com/arduino-ast/interpreter/internal/compactast"
	"github.com/arduino-ast/interpreter/internal/value"
)

// This file implements the expression evaluator (spec.md §4.4). Every
// case returns a Value; side-effecting expressions (assignment,
// ++/--, FuncCall) also emit commands through in.emit. Conventions this
// decoder's own AST encoding settles, since spec.md leaves declarator
// and library-call internals unspecified for the parser to decide (see
// DESIGN.md "Self-invented encoding conventions"):
//
//   - A library/built-in call's callee is a plain Identifier whose
//     StrValue is already the fully-qualified name ("Serial.println");
//     MemberAccess is reserved for actual struct field access and
//     pointer member access (p.field, ptr->field).
//   - Assignment and compound assignment are BinaryOp nodes whose
//     StrValue operator is one of "=", "+=", "-=", "*=", "/=", "%=",
//     "&=", "|=", "^=", "<<=", ">>=".
func (in *Interpreter) evalExpr(ctx context.Context, idx uint32) (value.Value, error) {
	n, ok := in.tree.Node(idx)
	if !ok {
		return in.internalError("expression node %d out of range", idx)
	}

	switch n.Kind {
	case compactast.KindIntLiteral:
		return value.I32Value(int32(n.IntValue)), nil
	case compactast.KindUIntLiteral:
		return value.U32Value(uint32(n.IntValue)), nil
	case compactast.KindFloatLiteral:
		return value.F64Value(n.FloatValue), nil
	case compactast.KindStringLiteral:
		return value.StrValue(n.StrValue), nil
	case compactast.KindBoolLiteral:
		return value.BoolValue(n.BoolValue), nil
	case compactast.KindCharLiteral:
		return value.I32Value(int32(n.IntValue)), nil

	case compactast.KindIdentifier:
		return in.evalIdentifier(n)

	case compactast.KindBinaryOp:
		return in.evalBinaryOp(ctx, n)

	case compactast.KindUnaryOp:
		return in.evalUnaryOp(ctx, n)

	case compactast.KindPostfix:
		return in.evalPostfix(ctx, n)

	case compactast.KindMemberAccess:
		v, _, _, err := in.evalMemberAccess(ctx, n, true)
		return v, err

	case compactast.KindArrayAccess:
		v, _, _, err := in.evalArrayAccess(ctx, n)
		return v, err

	case compactast.KindTernary:
		cond, err := in.evalExpr(ctx, n.Named.Condition)
		if err != nil {
			return value.NullValue(), err
		}
		if cond.Truthy() {
			return in.evalExpr(ctx, n.Named.Then)
		}
		return in.evalExpr(ctx, n.Named.Else)

	case compactast.KindCastExpression:
		operand, err := in.evalExpr(ctx, n.Named.Operand)
		if err != nil {
			return value.NullValue(), err
		}
		return castValue(operand, n.StrValue), nil

	case compactast.KindFuncCall:
		return in.evalFuncCall(ctx, n)

	default:
		return in.runtimeError("unsupported expression node kind %s", n.Kind)
	}
}

func (in *Interpreter) evalIdentifier(n *compactast.Node) (value.Value, error) {
	name := n.StrValue
	if fn, ok := in.reg.funcs[name]; ok {
		return value.FuncPointerValue(fn.Name, in.reg.newPointerID()), nil
	}
	v, ok := in.scopes.Get(name)
	if !ok {
		return in.runtimeError("undefined variable %q", name)
	}
	return v.Value, nil
}

func (in *Interpreter) evalBinaryOp(ctx context.Context, n *compactast.Node) (value.Value, error) {
	op := value.BinaryOp(n.StrValue)
	if isAssignOp(op) {
		return in.evalAssignment(ctx, op, n.Named.Left, n.Named.Right)
	}

	left, err := in.evalExpr(ctx, n.Named.Left)
	if err != nil {
		return value.NullValue(), err
	}

	// Short-circuit logicals: right operand evaluated only if needed
	// (spec.md §4.4).
	if op == value.OpAnd && !left.Truthy() {
		return value.BoolValue(false), nil
	}
	if op == value.OpOr && left.Truthy() {
		return value.BoolValue(true), nil
	}

	right, err := in.evalExpr(ctx, n.Named.Right)
	if err != nil {
		return value.NullValue(), err
	}

	if v, handled := in.pointerArith(op, left, right); handled {
		return v, nil
	}

	result, arithErr := value.Arith(op, left, right)
	if arithErr != nil {
		return in.runtimeError("%s", arithErr.Error())
	}
	return result, nil
}

// pointerArith implements spec.md §4.4's "Pointer arithmetic: pointer ±
// integer -> new pointer with offset adjusted; pointer - pointer (same
// base) -> integer."
func (in *Interpreter) pointerArith(op value.BinaryOp, left, right value.Value) (value.Value, bool) {
	if left.Kind != value.PointerHandle {
		return value.NullValue(), false
	}
	if right.Kind == value.PointerHandle {
		if op != value.OpSub {
			return value.NullValue(), false
		}
		return value.I32Value(left.Ptr.Offset - right.Ptr.Offset), true
	}
	delta, ok := right.AsI32()
	if !ok {
		return value.NullValue(), false
	}
	switch op {
	case value.OpAdd:
		return value.PointerValue(left.Ptr.Target, left.Ptr.Offset+delta, left.Ptr.PointerID), true
	case value.OpSub:
		return value.PointerValue(left.Ptr.Target, left.Ptr.Offset-delta, left.Ptr.PointerID), true
	default:
		return value.NullValue(), false
	}
}

func isAssignOp(op value.BinaryOp) bool {
	switch op {
	case "=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>=":
		return true
	}
	return false
}

// baseOpFor strips the "=" from a compound assignment operator.
func baseOpFor(op value.BinaryOp) value.BinaryOp {
	switch op {
	case "+=":
		return value.OpAdd
	case "-=":
		return value.OpSub
	case "*=":
		return value.OpMul
	case "/=":
		return value.OpDiv
	case "%=":
		return value.OpMod
	case "&=":
		return value.OpBitAnd
	case "|=":
		return value.OpBitOr
	case "^=":
		return value.OpBitXor
	case "<<=":
		return value.OpShl
	case ">>=":
		return value.OpShr
	}
	return ""
}

func castValue(v value.Value, targetType string) value.Value {
	switch targetType {
	case "float", "double":
		f, _ := v.AsF64()
		return value.F64Value(f)
	case "bool", "boolean":
		return value.BoolValue(v.Truthy())
	case "String", "string":
		return value.StrValue(v.Display())
	}
	if isUnsignedType(targetType) {
		u, _ := v.AsU32()
		if bits := typeBitWidth(targetType); bits > 0 {
			u = value.NarrowAssign(u, bits)
		}
		return value.U32Value(u)
	}
	if isIntegerType(targetType) {
		i, _ := v.AsI32()
		return value.I32Value(i)
	}
	return v
}

func isIntegerType(typeName string) bool {
	switch typeName {
	case "int", "int8_t", "int16_t", "int32_t", "long", "short", "char":
		return true
	default:
		return false
	}
}
