package compactast

// ValueKind tags which field of a node's decoded value is meaningful,
// mirroring the flag-driven optional payload of spec.md §3.4/§4.1.
type ValueKind uint8

const (
	NoValue ValueKind = iota
	StringValueKind
	IntValueKind
	FloatValueKind
	BoolValueKind
)

// Node is one flattened arena entry (spec.md §3.4, §9's "arenas +
// indices" design note). Children are stored positionally exactly as
// declared on the wire; NamedChildren, populated by the link pass,
// gives semantic access without re-walking the flat list kind-by-kind.
type Node struct {
	Kind  Kind
	Flags uint8

	ValueKind ValueKind
	StrValue  string
	IntValue  int64
	FloatValue float64
	BoolValue  bool

	// Children holds every child index in wire declaration order.
	Children []uint32

	// Named is populated by the link pass (link.go): a per-kind set of
	// semantic slots (e.g. "left","right" for BinaryOp, "statements"
	// for Program/CompoundStatement).
	Named NamedChildren
}

// NamedChildren holds the positional slots assigned by the link pass
// for one node, per the table in spec.md §4.1. Not every field is
// populated for every kind; callers index by the kind they already
// know they're holding.
type NamedChildren struct {
	// Single slots.
	ReturnType, Declarator, Body         uint32
	Callee                               uint32
	Left, Right                          uint32
	Operand                              uint32
	Object, Property                     uint32
	Identifier, Index                    uint32
	Condition, Then, Else                uint32
	Init, Update                         uint32
	Discriminant                         uint32
	Test                                 uint32
	TypeNode                             uint32
	NameNode                             uint32

	HasElse bool

	// Variadic slots.
	Statements   []uint32
	Arguments    []uint32
	Cases        []uint32
	Consequent   []uint32
	Declarators  []uint32
	MemberDecls  []uint32
}

// IsDefaultCase reports whether a Case node represents `default:`
// rather than `case <expr>:` (see link.go's Flags-bit convention).
func (n *Node) IsDefaultCase() bool { return n.Kind == KindCase && n.Flags&1 != 0 }

// Tree is the decoded, linked arena. Unlike the teacher's flat
// instruction list, where index 0 is always the entry point, a
// CompactAST node table's Program node can land at any index: the
// Builder's append-only construction (a node must reference children
// that already exist) necessarily adds Program last, and nothing in
// the wire format constrains node order either. Root() locates it by
// kind instead of by position.
type Tree struct {
	Nodes   []Node
	Strings []string
}

// Root returns the Program node, or ok=false if the tree has none.
func (t *Tree) Root() (*Node, bool) {
	for i := range t.Nodes {
		if t.Nodes[i].Kind == KindProgram {
			return &t.Nodes[i], true
		}
	}
	return nil, false
}

// Node returns the node at idx, or ok=false if out of range.
func (t *Tree) Node(idx uint32) (*Node, bool) {
	if int(idx) >= len(t.Nodes) {
		return nil, false
	}
	return &t.Nodes[idx], true
}
