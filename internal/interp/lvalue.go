package interp

import (
	"context"

	"github.com/arduino-ast/interpreter/internal/compactast"
	"github.com/arduino-ast/interpreter/internal/value"
)

// evalMemberAccess resolves `object.property` / `object->property`
// (spec.md §4.4). The `->` form auto-dereferences a pointer operand
// first. When emitAccessCmd is true (a read in expression position) it
// emits STRUCT_FIELD_ACCESS. Assignment targets do not go through this
// function: assignMember resolves the field itself. Returns the
// resolved struct type name and field name alongside the value.
func (in *Interpreter) evalMemberAccess(ctx context.Context, n *compactast.Node, emitAccessCmd bool) (value.Value, string, string, error) {
	obj, err := in.evalExpr(ctx, n.Named.Object)
	if err != nil {
		return value.NullValue(), "", "", err
	}

	propNode, ok := in.tree.Node(n.Named.Property)
	if !ok {
		v, _ := in.internalError("MemberAccess missing property node")
		return v, "", "", err
	}
	field := propNode.StrValue

	if n.StrValue == "->" {
		if obj.Kind != value.PointerHandle {
			v, e := in.runtimeError("'->' requires a pointer operand")
			return v, "", "", e
		}
		target, ok := in.scopes.Get(obj.Ptr.Target)
		if !ok {
			v, e := in.runtimeError("dereference of pointer to undefined variable %q", obj.Ptr.Target)
			return v, "", "", e
		}
		obj = target.Value
	}

	if obj.Kind != value.StructHandle {
		v, e := in.runtimeError("member access on non-struct value")
		return v, "", "", e
	}

	inst, ok := in.reg.structs[obj.StructID]
	if !ok {
		v, e := in.internalError("struct handle %d not found", obj.StructID)
		return v, "", "", e
	}
	fv, ok := inst.Fields[field]
	if !ok {
		v, e := in.runtimeError("struct %s has no field %q", inst.TypeName, field)
		return v, "", "", e
	}
	if emitAccessCmd {
		in.emit.StructFieldAccess(inst.TypeName, field, fv)
	}
	return fv, inst.TypeName, field, nil
}

// evalArrayAccess resolves `identifier[index]` (spec.md §4.4): index
// must be integer, bounds-checked; no command is emitted on read.
func (in *Interpreter) evalArrayAccess(ctx context.Context, n *compactast.Node) (value.Value, string, int32, error) {
	idNode, ok := in.tree.Node(n.Named.Identifier)
	if !ok || idNode.Kind != compactast.KindIdentifier {
		v, e := in.runtimeError("array access requires an identifier target")
		return v, "", 0, e
	}
	name := idNode.StrValue

	idxVal, err := in.evalExpr(ctx, n.Named.Index)
	if err != nil {
		return value.NullValue(), name, 0, err
	}
	index, ok := idxVal.AsI32()
	if !ok {
		v, e := in.runtimeError("array index must be an integer")
		return v, name, 0, e
	}

	v, ok := in.scopes.Get(name)
	if !ok {
		rv, e := in.runtimeError("undefined variable %q", name)
		return rv, name, index, e
	}

	target := v.Value
	if target.Kind == value.PointerHandle {
		deref, err := in.dereferenceArrayAt(target, index)
		return deref, target.Ptr.Target, target.Ptr.Offset + index, err
	}

	rv, err := in.indexArray(target, index)
	return rv, name, index, err
}

func (in *Interpreter) dereferenceArrayAt(ptr value.Value, index int32) (value.Value, error) {
	target, ok := in.scopes.Get(ptr.Ptr.Target)
	if !ok {
		return in.runtimeError("dereference of pointer to undefined variable %q", ptr.Ptr.Target)
	}
	return in.indexArray(target.Value, ptr.Ptr.Offset+index)
}

// evalAssignment implements plain and compound assignment over every
// lvalue form spec.md §4.4 lists: identifier, *pointer, array[index],
// struct.field, ptr->field. Compound assignment reads then writes
// atomically with respect to emitter order (no command is emitted for
// the implicit read).
func (in *Interpreter) evalAssignment(ctx context.Context, op value.BinaryOp, leftIdx, rightIdx uint32) (value.Value, error) {
	leftNode, ok := in.tree.Node(leftIdx)
	if !ok {
		return in.internalError("assignment target node %d out of range", leftIdx)
	}

	rhs, err := in.evalExpr(ctx, rightIdx)
	if err != nil {
		return value.NullValue(), err
	}

	switch leftNode.Kind {
	case compactast.KindIdentifier:
		return in.assignIdentifier(leftNode.StrValue, op, rhs)

	case compactast.KindUnaryOp:
		if leftNode.StrValue != "*" {
			return in.runtimeError("invalid assignment target")
		}
		ptr, err := in.evalExpr(ctx, leftNode.Named.Operand)
		if err != nil {
			return value.NullValue(), err
		}
		return in.assignThroughPointer(ptr, op, rhs)

	case compactast.KindArrayAccess:
		return in.assignArrayElement(ctx, leftNode, op, rhs)

	case compactast.KindMemberAccess:
		return in.assignMember(ctx, leftNode, op, rhs)

	default:
		return in.runtimeError("invalid assignment target")
	}
}

func (in *Interpreter) assignIdentifier(name string, op value.BinaryOp, rhs value.Value) (value.Value, error) {
	current, exists := in.scopes.Get(name)
	next := rhs
	if op != "=" {
		if !exists {
			return in.runtimeError("undefined variable %q", name)
		}
		combined, err := value.Arith(baseOpFor(op), current.Value, rhs)
		if err != nil {
			return in.runtimeError("%s", err.Error())
		}
		next = combined
	}
	if exists {
		if bits := typeBitWidth(current.DeclaredType); bits > 0 {
			if u, ok := next.AsU32(); ok {
				next = value.U32Value(value.NarrowAssign(u, bits))
			}
		}
	}
	if err := in.scopes.Set(name, next); err != nil {
		return in.runtimeError("%s", err.Error())
	}
	in.emit.VarSet(name, next)
	return next, nil
}

func (in *Interpreter) assignThroughPointer(ptr value.Value, op value.BinaryOp, rhs value.Value) (value.Value, error) {
	if ptr.Kind != value.PointerHandle {
		return in.runtimeError("assignment through non-pointer value")
	}
	target, ok := in.scopes.Get(ptr.Ptr.Target)
	if !ok {
		return in.runtimeError("assignment through pointer to undefined variable %q", ptr.Ptr.Target)
	}
	if ptr.Ptr.Offset == 0 && !isArrayKind(target.Value.Kind) {
		return in.assignIdentifier(ptr.Ptr.Target, op, rhs)
	}
	return in.assignArrayElementAt(ptr.Ptr.Target, ptr.Ptr.Offset, op, rhs)
}

func (in *Interpreter) assignArrayElement(ctx context.Context, n *compactast.Node, op value.BinaryOp, rhs value.Value) (value.Value, error) {
	idNode, ok := in.tree.Node(n.Named.Identifier)
	if !ok || idNode.Kind != compactast.KindIdentifier {
		return in.runtimeError("array assignment requires an identifier target")
	}
	idxVal, err := in.evalExpr(ctx, n.Named.Index)
	if err != nil {
		return value.NullValue(), err
	}
	index, ok := idxVal.AsI32()
	if !ok {
		return in.runtimeError("array index must be an integer")
	}

	v, ok := in.scopes.Get(idNode.StrValue)
	if !ok {
		return in.runtimeError("undefined variable %q", idNode.StrValue)
	}
	if v.Value.Kind == value.PointerHandle {
		return in.assignArrayElementAt(v.Value.Ptr.Target, v.Value.Ptr.Offset+index, op, rhs)
	}
	return in.assignArrayElementAt(idNode.StrValue, index, op, rhs)
}

// assignArrayElementAt mutates one element of the named array variable
// in place. No command is emitted on write by default (spec.md §4.4:
// "no explicit command for array-element writes"), except when
// Options.EmitArrayElementSet opts into ARRAY_ELEMENT_SET (SPEC_FULL.md
// §3).
func (in *Interpreter) assignArrayElementAt(varName string, index int32, op value.BinaryOp, rhs value.Value) (value.Value, error) {
	v, ok := in.scopes.Get(varName)
	if !ok {
		return in.runtimeError("undefined variable %q", varName)
	}
	if index < 0 {
		return in.runtimeError("array index %d out of bounds", index)
	}
	i := int(index)

	var result value.Value
	switch v.Value.Kind {
	case value.Arr1I32:
		if i >= len(v.Value.ArrI) {
			return in.runtimeError("array index %d out of bounds", index)
		}
		next, err := combineArrayElement(op, value.I32Value(v.Value.ArrI[i]), rhs)
		if err != nil {
			return in.runtimeError("%s", err.Error())
		}
		n, _ := next.AsI32()
		v.Value.ArrI[i] = n
		result = next
	case value.Arr1F64:
		if i >= len(v.Value.ArrF) {
			return in.runtimeError("array index %d out of bounds", index)
		}
		next, err := combineArrayElement(op, value.F64Value(v.Value.ArrF[i]), rhs)
		if err != nil {
			return in.runtimeError("%s", err.Error())
		}
		f, _ := next.AsF64()
		v.Value.ArrF[i] = f
		result = next
	case value.Arr1Str:
		if i >= len(v.Value.ArrS) {
			return in.runtimeError("array index %d out of bounds", index)
		}
		if op != "=" {
			return in.runtimeError("unsupported compound assignment on string array element")
		}
		v.Value.ArrS[i] = rhs.Display()
		result = rhs
	default:
		return in.runtimeError("cannot index non-array value")
	}

	if in.opts.EmitArrayElementSet {
		in.emit.ArrayElementSet(varName, index, result)
	}
	return result, nil
}

func combineArrayElement(op value.BinaryOp, current, rhs value.Value) (value.Value, error) {
	if op == "=" {
		return rhs, nil
	}
	return value.Arith(baseOpFor(op), current, rhs)
}

func (in *Interpreter) assignMember(ctx context.Context, n *compactast.Node, op value.BinaryOp, rhs value.Value) (value.Value, error) {
	obj, err := in.evalExpr(ctx, n.Named.Object)
	if err != nil {
		return value.NullValue(), err
	}
	propNode, ok := in.tree.Node(n.Named.Property)
	if !ok {
		return in.internalError("MemberAccess missing property node")
	}
	field := propNode.StrValue

	if n.StrValue == "->" {
		if obj.Kind != value.PointerHandle {
			return in.runtimeError("'->' requires a pointer operand")
		}
		target, ok := in.scopes.Get(obj.Ptr.Target)
		if !ok {
			return in.runtimeError("dereference of pointer to undefined variable %q", obj.Ptr.Target)
		}
		obj = target.Value
	}

	if obj.Kind != value.StructHandle {
		return in.runtimeError("member assignment on non-struct value")
	}
	inst, ok := in.reg.structs[obj.StructID]
	if !ok {
		return in.internalError("struct handle %d not found", obj.StructID)
	}

	next := rhs
	if op != "=" {
		current, ok := inst.Fields[field]
		if !ok {
			return in.runtimeError("struct %s has no field %q", inst.TypeName, field)
		}
		combined, err := value.Arith(baseOpFor(op), current, rhs)
		if err != nil {
			return in.runtimeError("%s", err.Error())
		}
		next = combined
	}
	if _, known := inst.Fields[field]; !known {
		inst.Order = append(inst.Order, field)
	}
	inst.Fields[field] = next
	in.emit.StructFieldSet(inst.TypeName, field, next)
	return next, nil
}
