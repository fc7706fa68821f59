package command

import "github.com/arduino-ast/interpreter/internal/value"

// renderValue encodes a runtime Value as the "value" field of VAR_SET
// and similar records (spec.md §6): a struct object
// {structName, fields, type:"struct", structId}, a pointer object
// {type:"offset_pointer", targetVariable, offset, pointerId}, a
// function-pointer object {functionName, type:"function_pointer",
// pointerId}, or a bare primitive.
//
// structName and fields are supplied by the caller (the evaluator),
// since Value's StructHandle only carries a numeric id — the registry
// mapping handle to type name and field values lives in internal/interp.
// fieldOrder fixes declaration order so the rendered JSON is
// deterministic (Go map iteration order is not, and spec.md §8
// requires byte-equal output across runs).
type StructRenderer func(handle uint64) (typeName string, fieldOrder []string, fields map[string]value.Value, ok bool)

func renderValue(v value.Value, structs StructRenderer) string {
	switch v.Kind {
	case value.Null:
		return "null"
	case value.Bool:
		if v.B {
			return "true"
		}
		return "false"
	case value.I32:
		w := newObjectWriter()
		return trimObjectToScalar(w.Int("_", int64(v.I)).String())
	case value.U32:
		w := newObjectWriter()
		return trimObjectToScalar(w.UInt("_", uint64(v.U)).String())
	case value.F64:
		return formatFloatField(v.F)
	case value.Str:
		w := newObjectWriter()
		return trimObjectToScalar(w.Str("_", v.S).String())
	case value.PointerHandle:
		w := newObjectWriter()
		w.Str("type", "offset_pointer")
		w.Str("targetVariable", v.Ptr.Target)
		w.Int("offset", int64(v.Ptr.Offset))
		w.UInt("pointerId", v.Ptr.PointerID)
		return w.String()
	case value.FuncPointerHandle:
		w := newObjectWriter()
		w.Str("functionName", v.FuncPtr.FunctionName)
		w.Str("type", "function_pointer")
		w.UInt("pointerId", v.FuncPtr.PointerID)
		return w.String()
	case value.StructHandle:
		w := newObjectWriter()
		var name string
		var order []string
		var fields map[string]value.Value
		if structs != nil {
			name, order, fields, _ = structs(v.StructID)
		}
		w.Str("structName", name)
		w.Raw("fields", renderFieldMap(order, fields, structs))
		w.Str("type", "struct")
		w.UInt("structId", v.StructID)
		return w.String()
	default:
		return "null"
	}
}

// trimObjectToScalar extracts the bare scalar JSON encoded under the
// single "_" key, letting renderValue reuse objectWriter's escaping
// for primitives without hand-rolling a second encoder.
func trimObjectToScalar(obj string) string {
	// obj is exactly {"_":<value>} by construction.
	return obj[len(`{"_":`) : len(obj)-1]
}

func renderFieldMap(order []string, fields map[string]value.Value, structs StructRenderer) string {
	w := newObjectWriter()
	for _, name := range order {
		w.Raw(name, renderValue(fields[name], structs))
	}
	return w.String()
}
