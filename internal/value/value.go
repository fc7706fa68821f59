// Package value implements the interpreter's tagged-union runtime value
// (spec.md §3.1) along with the conversion, coercion and rendering rules
// shared by the expression evaluator and the command emitter.
package value

import (
	"fmt"
	"math"
	"strconv"
)

// Kind tags the variant held by a Value. Grounded on the teacher's
// Bytecode byte-enum (vm/bytecode.go) and its string-lookup table.
type Kind uint8

const (
	Null Kind = iota
	Bool
	I32
	U32
	F64
	Str
	Arr1I32
	Arr1F64
	Arr1Str
	Arr2I32
	Arr2F64
	StructHandle
	PointerHandle
	FuncPointerHandle
)

var kindNames = map[Kind]string{
	Null:              "null",
	Bool:              "bool",
	I32:               "i32",
	U32:               "u32",
	F64:               "f64",
	Str:               "string",
	Arr1I32:           "int[]",
	Arr1F64:           "float[]",
	Arr1Str:           "string[]",
	Arr2I32:           "int[][]",
	Arr2F64:           "float[][]",
	StructHandle:      "struct",
	PointerHandle:     "pointer",
	FuncPointerHandle: "function_pointer",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "?unknown?"
}

// Pointer is an offset pointer: {target_variable_name, offset, pointer_id}.
// Dereference reads/writes the target variable (or its indexed element
// when offset != 0). See GLOSSARY "Offset pointer".
type Pointer struct {
	Target    string
	Offset    int32
	PointerID uint64
}

// FuncPointer names a user function by identity, carrying a stable id so
// copies of Value compare equal by identity (spec.md §3.1 invariants).
type FuncPointer struct {
	FunctionName string
	PointerID    uint64
}

// Value is the tagged union described in spec.md §3.1. Only the field(s)
// relevant to Kind are meaningful; others are zero.
type Value struct {
	Kind Kind

	B bool
	I int32
	U uint32
	F float64
	S string

	ArrI []int32
	ArrF []float64
	ArrS []string
	Arr2I [][]int32
	Arr2F [][]float64

	StructID uint64
	Ptr       Pointer
	FuncPtr   FuncPointer
}

func NullValue() Value             { return Value{Kind: Null} }
func BoolValue(b bool) Value       { return Value{Kind: Bool, B: b} }
func I32Value(i int32) Value       { return Value{Kind: I32, I: i} }
func U32Value(u uint32) Value      { return Value{Kind: U32, U: u} }
func F64Value(f float64) Value     { return Value{Kind: F64, F: f} }
func StrValue(s string) Value      { return Value{Kind: Str, S: s} }

func PointerValue(target string, offset int32, id uint64) Value {
	return Value{Kind: PointerHandle, Ptr: Pointer{Target: target, Offset: offset, PointerID: id}}
}

func FuncPointerValue(name string, id uint64) Value {
	return Value{Kind: FuncPointerHandle, FuncPtr: FuncPointer{FunctionName: name, PointerID: id}}
}

func StructValue(id uint64) Value { return Value{Kind: StructHandle, StructID: id} }

// IsNull reports whether v represents the absent value, distinct from a
// zero/false of any other kind (spec.md §3.1 invariant).
func (v Value) IsNull() bool { return v.Kind == Null }

// Truthy implements Arduino/C++ truthiness: 0/0.0/""/Null are false.
func (v Value) Truthy() bool {
	switch v.Kind {
	case Null:
		return false
	case Bool:
		return v.B
	case I32:
		return v.I != 0
	case U32:
		return v.U != 0
	case F64:
		return v.F != 0
	case Str:
		return v.S != ""
	default:
		// structs/pointers/arrays/function-pointers are truthy handles
		return true
	}
}

// AsF64 widens any numeric kind to float64. Non-numeric kinds yield 0,
// false. Conversions never panic (spec.md §3.1 invariant).
func (v Value) AsF64() (float64, bool) {
	switch v.Kind {
	case I32:
		return float64(v.I), true
	case U32:
		return float64(v.U), true
	case F64:
		return v.F, true
	case Bool:
		if v.B {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsI32 narrows any numeric kind to int32, truncating toward zero.
func (v Value) AsI32() (int32, bool) {
	switch v.Kind {
	case I32:
		return v.I, true
	case U32:
		return int32(v.U), true
	case F64:
		return int32(v.F), true
	case Bool:
		if v.B {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsU32 narrows any numeric kind to uint32 (wrapping modulo 2^32, per
// spec.md §9's u32-overflow resolution).
func (v Value) AsU32() (uint32, bool) {
	switch v.Kind {
	case I32:
		return uint32(v.I), true
	case U32:
		return v.U, true
	case F64:
		return uint32(int64(v.F)), true
	case Bool:
		if v.B {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Display renders v the way a command's "human" message embeds it:
// strings unquoted (Serial.println semantics), numbers with minimum
// precision that round-trips (spec.md §4.6).
func (v Value) Display() string {
	switch v.Kind {
	case Null:
		return ""
	case Bool:
		if v.B {
			return "true"
		}
		return "false"
	case I32:
		return strconv.FormatInt(int64(v.I), 10)
	case U32:
		return strconv.FormatUint(uint64(v.U), 10)
	case F64:
		return formatFloat(v.F)
	case Str:
		return v.S
	case StructHandle:
		return fmt.Sprintf("struct#%d", v.StructID)
	case PointerHandle:
		return fmt.Sprintf("&%s+%d", v.Ptr.Target, v.Ptr.Offset)
	case FuncPointerHandle:
		return fmt.Sprintf("&%s", v.FuncPtr.FunctionName)
	default:
		return ""
	}
}

// QuotedDisplay is Display but with surrounding quotes for string
// arguments, used when rendering a FUNCTION_CALL "message" field
// (spec.md §4.6 display-formatting rule).
func (v Value) QuotedDisplay() string {
	if v.Kind == Str {
		return strconv.Quote(v.S)
	}
	return v.Display()
}

// formatFloat implements the shortest round-trip rule (spec.md §9),
// mapping NaN/Infinity to the string tokens the JSON encoder substitutes
// for the otherwise-illegal JSON literals (spec.md §4.9).
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// NarrowAssign applies the narrowing-on-assignment rule used for
// compound assignment into a declared width narrower than U32 (e.g.
// uint8_t), resolving spec.md §9's overflow open question: arithmetic
// widens to U32 (wrapping mod 2^32), narrowing happens only here, mod
// 2^bits.
func NarrowAssign(wide uint32, bits int) uint32 {
	if bits <= 0 || bits >= 32 {
		return wide
	}
	mask := uint32(1)<<uint(bits) - 1
	return wide & mask
}
