package interp

import "github.com/arduino-ast/interpreter/internal/value"

// structType is one StructDeclaration's shape (spec.md §3.3):
// struct_types: name -> [(field_name, field_type_string)].
type structType struct {
	Name   string
	Fields []fieldDecl
}

type fieldDecl struct {
	Name string
	Type string
}

// structInstance is the live data behind a StructHandle value: a named
// -field map plus the declaration order needed for deterministic
// command-stream rendering (internal/command.StructRenderer).
type structInstance struct {
	TypeName string
	Order    []string
	Fields   map[string]value.Value
}

// funcDef is a registered user-defined function (FuncDef node):
// resolved once from the program's top-level FuncDef nodes during
// construction so FuncCall
// and Identifier (for function pointers) can look it up by name.
type funcDef struct {
	Name       string
	ParamNames []string
	ParamTypes []string
	ReturnType string
	BodyNode   uint32
}

// registries bundles the three process-wide maps spec.md §3.3
// describes, plus the struct/pointer handle allocators spec.md §9's
// "id-keyed maps so that pointer identity survives copies of Value"
// design note calls for.
type registries struct {
	structTypes map[string]*structType
	typedefs    map[string]string
	funcs       map[string]*funcDef

	structs       map[uint64]*structInstance
	nextStructID  uint64
	nextPointerID uint64
}

func newRegistries() *registries {
	return &registries{
		structTypes: make(map[string]*structType),
		typedefs:    make(map[string]string),
		funcs:       make(map[string]*funcDef),
		structs:     make(map[uint64]*structInstance),
	}
}

func (r *registries) resolveTypeName(name string) string {
	seen := map[string]bool{}
	for {
		if seen[name] {
			return name
		}
		seen[name] = true
		underlying, ok := r.typedefs[name]
		if !ok {
			return name
		}
		name = underlying
	}
}

// newStruct allocates a fresh struct handle of the named type with
// every field set to its declared-type default (spec.md §3.3).
func (r *registries) newStruct(typeName string) value.Value {
	id := r.nextStructID
	r.nextStructID++

	st, ok := r.structTypes[typeName]
	inst := &structInstance{TypeName: typeName, Fields: make(map[string]value.Value)}
	if ok {
		for _, f := range st.Fields {
			inst.Order = append(inst.Order, f.Name)
			inst.Fields[f.Name] = defaultForType(f.Type)
		}
	}
	r.structs[id] = inst
	return value.StructValue(id)
}

func (r *registries) newPointerID() uint64 {
	id := r.nextPointerID
	r.nextPointerID++
	return id
}

// StructRenderer adapts the registry to command.StructRenderer.
func (r *registries) StructRenderer(handle uint64) (string, []string, map[string]value.Value, bool) {
	inst, ok := r.structs[handle]
	if !ok {
		return "", nil, nil, false
	}
	return inst.TypeName, inst.Order, inst.Fields, true
}

// defaultForType returns the zero value for an Arduino/C++ declared
// type name, resolving the handful of spelling variants the evaluator
// needs to distinguish signedness and floatness (spec.md §4.5 VarDecl:
// "default-for-type").
func defaultForType(typeName string) value.Value {
	switch typeName {
	case "float", "double":
		return value.F64Value(0)
	case "bool", "boolean":
		return value.BoolValue(false)
	case "String", "string", "char*":
		return value.StrValue("")
	case "uint8_t", "byte", "uint16_t", "uint32_t", "unsigned int", "unsigned long", "unsigned short", "size_t":
		return value.U32Value(0)
	case "int", "int8_t", "int16_t", "int32_t", "long", "short", "char":
		return value.I32Value(0)
	default:
		return value.NullValue()
	}
}

// typeBitWidth reports the declared bit width used by the narrowing
// -on-assignment rule (spec.md §9), 0 meaning "no narrowing" (already
// full 32-bit width or a non-integer type).
func typeBitWidth(typeName string) int {
	switch typeName {
	case "uint8_t", "byte", "int8_t":
		return 8
	case "uint16_t", "int16_t", "short", "unsigned short":
		return 16
	default:
		return 0
	}
}

func isUnsignedType(typeName string) bool {
	switch typeName {
	case "uint8_t", "byte", "uint16_t", "uint32_t", "unsigned int", "unsigned long", "unsigned short", "size_t":
		return true
	default:
		return false
	}
}
