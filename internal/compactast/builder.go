package compactast

// Builder assembles a Tree in memory without hand-encoding bytes,
// mirroring the teacher's own preprocessLine/parseInputLine convenience
// layer (vm/compile.go) that lets tests construct instructions without
// a full textual assembler. Used by fixture tests in internal/interp
// and internal/compactast.
type Builder struct {
	nodes []Node
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// Add appends a node with explicit children and returns its index.
func (b *Builder) Add(n Node) uint32 {
	idx := uint32(len(b.nodes))
	b.nodes = append(b.nodes, n)
	return idx
}

// Identifier adds a leaf Identifier node.
func (b *Builder) Identifier(name string) uint32 {
	return b.Add(Node{Kind: KindIdentifier, ValueKind: StringValueKind, StrValue: name})
}

// IntLiteral adds a leaf integer literal node.
func (b *Builder) IntLiteral(v int64) uint32 {
	return b.Add(Node{Kind: KindIntLiteral, ValueKind: IntValueKind, IntValue: v})
}

// FloatLiteral adds a leaf float literal node.
func (b *Builder) FloatLiteral(v float64) uint32 {
	return b.Add(Node{Kind: KindFloatLiteral, ValueKind: FloatValueKind, FloatValue: v})
}

// StringLiteral adds a leaf string literal node.
func (b *Builder) StringLiteral(v string) uint32 {
	return b.Add(Node{Kind: KindStringLiteral, ValueKind: StringValueKind, StrValue: v})
}

// BoolLiteral adds a leaf bool literal node.
func (b *Builder) BoolLiteral(v bool) uint32 {
	return b.Add(Node{Kind: KindBoolLiteral, ValueKind: BoolValueKind, BoolValue: v})
}

// BinaryOp adds a BinaryOp node over already-added left/right children.
func (b *Builder) BinaryOp(op string, left, right uint32) uint32 {
	return b.Add(Node{Kind: KindBinaryOp, ValueKind: StringValueKind, StrValue: op, Children: []uint32{left, right}})
}

// FuncCall adds a FuncCall node; callee is typically an Identifier index.
func (b *Builder) FuncCall(callee uint32, args ...uint32) uint32 {
	children := append([]uint32{callee}, args...)
	return b.Add(Node{Kind: KindFuncCall, Children: children})
}

// Compound adds a CompoundStatement wrapping the given statement indices.
func (b *Builder) Compound(statements ...uint32) uint32 {
	return b.Add(Node{Kind: KindCompoundStatement, Children: statements})
}

// Program adds the root Program node wrapping top-level declarations.
func (b *Builder) Program(statements ...uint32) uint32 {
	return b.Add(Node{Kind: KindProgram, Children: statements})
}

// UnaryOp adds a prefix unary/address-of/dereference node.
func (b *Builder) UnaryOp(op string, operand uint32) uint32 {
	return b.Add(Node{Kind: KindUnaryOp, ValueKind: StringValueKind, StrValue: op, Children: []uint32{operand}})
}

// Postfix adds a postfix ++/-- node.
func (b *Builder) Postfix(op string, operand uint32) uint32 {
	return b.Add(Node{Kind: KindPostfix, ValueKind: StringValueKind, StrValue: op, Children: []uint32{operand}})
}

// MemberAccess adds a `.`/`->` field-access node.
func (b *Builder) MemberAccess(op string, object, property uint32) uint32 {
	return b.Add(Node{Kind: KindMemberAccess, ValueKind: StringValueKind, StrValue: op, Children: []uint32{object, property}})
}

// ArrayAccess adds an `identifier[index]` node.
func (b *Builder) ArrayAccess(identifier, index uint32) uint32 {
	return b.Add(Node{Kind: KindArrayAccess, Children: []uint32{identifier, index}})
}

// ExprStatement wraps an expression index as a statement.
func (b *Builder) ExprStatement(expr uint32) uint32 {
	return b.Add(Node{Kind: KindExpressionStatement, Children: []uint32{expr}})
}

// EmptyStatement adds the placeholder used for an omitted for-loop
// condition/update slot.
func (b *Builder) EmptyStatement() uint32 {
	return b.Add(Node{Kind: KindEmptyStatement})
}

// TypeNode adds the plain node VarDecl/StructDeclaration member
// declarations use to carry a type name string.
func (b *Builder) TypeNode(typeName string) uint32 {
	return b.Add(Node{Kind: KindIdentifier, ValueKind: StringValueKind, StrValue: typeName})
}

// Declarator adds a plain declarator, optionally with an initializer
// expression (pass initIdx=nil for none).
func (b *Builder) Declarator(name string, initIdx *uint32) uint32 {
	id := b.Identifier(name)
	children := []uint32{id}
	if initIdx != nil {
		children = []uint32{*initIdx, id}
	}
	return b.Add(Node{Kind: KindDeclarator, Children: children})
}

// PointerDeclarator adds a pointer declarator, optionally initialised.
func (b *Builder) PointerDeclarator(name string, initIdx *uint32) uint32 {
	id := b.Identifier(name)
	children := []uint32{id}
	if initIdx != nil {
		children = []uint32{*initIdx, id}
	}
	return b.Add(Node{Kind: KindPointerDeclarator, Children: children})
}

// ArrayDeclarator adds an array declarator: sizeIdx followed by any
// initializer element indices, then the identifier.
func (b *Builder) ArrayDeclarator(name string, sizeIdx uint32, elemIdx ...uint32) uint32 {
	id := b.Identifier(name)
	children := append([]uint32{sizeIdx}, elemIdx...)
	children = append(children, id)
	return b.Add(Node{Kind: KindArrayDeclarator, Children: children})
}

// VarDecl adds a variable declaration over one type node and one or
// more declarator indices (spec.md §4.5).
func (b *Builder) VarDecl(typeIdx uint32, declarators ...uint32) uint32 {
	children := append([]uint32{typeIdx}, declarators...)
	return b.Add(Node{Kind: KindVarDecl, Children: children})
}

// If adds a conditional with an optional else branch (elseIdx<0 for none).
func (b *Builder) If(cond, then uint32, elseIdx int64) uint32 {
	children := []uint32{cond, then}
	if elseIdx >= 0 {
		children = append(children, uint32(elseIdx))
	}
	return b.Add(Node{Kind: KindIf, Children: children})
}

// For adds a for-loop; use EmptyStatement() for an omitted slot.
func (b *Builder) For(init, cond, update, body uint32) uint32 {
	return b.Add(Node{Kind: KindFor, Children: []uint32{init, cond, update, body}})
}

// While adds a while-loop.
func (b *Builder) While(cond, body uint32) uint32 {
	return b.Add(Node{Kind: KindWhile, Children: []uint32{cond, body}})
}

// DoWhile adds a do-while loop.
func (b *Builder) DoWhile(cond, body uint32) uint32 {
	return b.Add(Node{Kind: KindDoWhile, Children: []uint32{cond, body}})
}

// Case adds a `case <test>: <consequent...>` node.
func (b *Builder) Case(test uint32, consequent ...uint32) uint32 {
	children := append([]uint32{test}, consequent...)
	return b.Add(Node{Kind: KindCase, Children: children})
}

// DefaultCase adds a `default: <consequent...>` node.
func (b *Builder) DefaultCase(consequent ...uint32) uint32 {
	return b.Add(Node{Kind: KindCase, Flags: 1, Children: consequent})
}

// Switch adds a switch statement over discriminant and case indices.
func (b *Builder) Switch(discriminant uint32, cases ...uint32) uint32 {
	children := append([]uint32{discriminant}, cases...)
	return b.Add(Node{Kind: KindSwitch, Children: children})
}

// Break/Continue/Return add the corresponding leaf control statements;
// Return's retIdx may be nil for a bare `return;`.
func (b *Builder) Break() uint32    { return b.Add(Node{Kind: KindBreak}) }
func (b *Builder) Continue() uint32 { return b.Add(Node{Kind: KindContinue}) }
func (b *Builder) Return(retIdx *uint32) uint32 {
	n := Node{Kind: KindReturn}
	if retIdx != nil {
		n.Children = []uint32{*retIdx}
	}
	return b.Add(n)
}

// FuncDef adds a function definition: each params entry is a
// {name, type} pair, in declaration order (this decoder's own nested
// -Declarator convention for FuncDef parameters — see DESIGN.md).
func (b *Builder) FuncDef(returnType, name string, body uint32, params ...[2]string) uint32 {
	retIdx := b.TypeNode(returnType)
	var paramIdxs []uint32
	for _, p := range params {
		pID := b.Identifier(p[0])
		paramIdxs = append(paramIdxs, b.Add(Node{
			Kind: KindDeclarator, ValueKind: StringValueKind, StrValue: p[1],
			Children: []uint32{pID},
		}))
	}
	nameID := b.Identifier(name)
	declChildren := append(paramIdxs, nameID)
	declIdx := b.Add(Node{Kind: KindDeclarator, Children: declChildren})
	return b.Add(Node{Kind: KindFuncDef, Children: []uint32{retIdx, declIdx, body}})
}

// Build links all added nodes and returns the finished Tree. The
// resulting Tree.Strings is left empty: nodes carry their string
// values inline (StrValue) rather than indices, since the builder
// never goes through the wire string table; Encode rebuilds one.
func (b *Builder) Build() (*Tree, error) {
	t := &Tree{Nodes: b.nodes}
	if err := linkChildren(t); err != nil {
		return nil, err
	}
	return t, nil
}
