package compactast

import "github.com/pkg/errors"

// linkChildren performs the second decode pass (spec.md §4.1 "Decode"):
// for each node, consume its flat Children list in declaration order
// and assign them to the named slots the table in §4.1 specifies for
// that kind. Out-of-range child indices are a hard decode error.
func linkChildren(t *Tree) error {
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if err := assignNamed(t, n); err != nil {
			return errors.Wrapf(err, "linking node %d (%s)", i, n.Kind)
		}
	}
	return nil
}

func checkIdx(t *Tree, idx uint32) error {
	if int(idx) >= len(t.Nodes) {
		return errors.Wrapf(ErrChildIndexOutOfRange, "index %d", idx)
	}
	return nil
}

func assignNamed(t *Tree, n *Node) error {
	c := n.Children
	for _, idx := range c {
		if err := checkIdx(t, idx); err != nil {
			return err
		}
	}

	switch n.Kind {
	case KindProgram, KindCompoundStatement:
		n.Named.Statements = c

	case KindFuncDef:
		if len(c) != 3 {
			return errors.Errorf("FuncDef expects 3 children, got %d", len(c))
		}
		n.Named.ReturnType, n.Named.Declarator, n.Named.Body = c[0], c[1], c[2]

	case KindFuncCall:
		if len(c) < 1 {
			return errors.Errorf("FuncCall expects >=1 children, got %d", len(c))
		}
		n.Named.Callee = c[0]
		n.Named.Arguments = c[1:]

	case KindBinaryOp:
		if len(c) != 2 {
			return errors.Errorf("BinaryOp expects 2 children, got %d", len(c))
		}
		n.Named.Left, n.Named.Right = c[0], c[1]

	case KindUnaryOp, KindPostfix:
		if len(c) != 1 {
			return errors.Errorf("%s expects 1 child, got %d", n.Kind, len(c))
		}
		n.Named.Operand = c[0]

	case KindMemberAccess:
		if len(c) != 2 {
			return errors.Errorf("MemberAccess expects 2 children, got %d", len(c))
		}
		n.Named.Object, n.Named.Property = c[0], c[1]

	case KindArrayAccess:
		if len(c) != 2 {
			return errors.Errorf("ArrayAccess expects 2 children, got %d", len(c))
		}
		n.Named.Identifier, n.Named.Index = c[0], c[1]

	case KindIf:
		if len(c) != 2 && len(c) != 3 {
			return errors.Errorf("If expects 2 or 3 children, got %d", len(c))
		}
		n.Named.Condition, n.Named.Then = c[0], c[1]
		if len(c) == 3 {
			n.Named.Else = c[2]
			n.Named.HasElse = true
		}

	case KindFor:
		if len(c) != 4 {
			return errors.Errorf("For expects 4 children, got %d", len(c))
		}
		n.Named.Init, n.Named.Condition, n.Named.Update, n.Named.Body = c[0], c[1], c[2], c[3]

	case KindWhile, KindDoWhile:
		if len(c) != 2 {
			return errors.Errorf("%s expects 2 children, got %d", n.Kind, len(c))
		}
		// Condition/body order is identical on the wire for both kinds;
		// DoWhile's semantic difference (body executes before the first
		// test) is a statement-executor concern, not a linking concern.
		n.Named.Condition, n.Named.Body = c[0], c[1]

	case KindSwitch:
		if len(c) < 1 {
			return errors.Errorf("Switch expects >=1 children, got %d", len(c))
		}
		n.Named.Discriminant = c[0]
		n.Named.Cases = c[1:]

	case KindCase:
		// Flags bit 0 marks a `default:` case (this decoder's own
		// convention, CompactAST leaves default-case encoding
		// unspecified): such a node carries no test expression, so every
		// child is part of the consequent statement list.
		if n.Flags&1 != 0 {
			n.Named.Consequent = c
			break
		}
		if len(c) < 1 {
			return errors.Errorf("Case expects >=1 children, got %d", len(c))
		}
		n.Named.Test = c[0]
		n.Named.Consequent = c[1:]

	case KindVarDecl:
		if len(c) < 1 {
			return errors.Errorf("VarDecl expects >=1 children, got %d", len(c))
		}
		n.Named.TypeNode = c[0]
		n.Named.Declarators = c[1:]

	case KindDeclarator, KindPointerDeclarator, KindArrayDeclarator, KindFunctionPointerDeclarator:
		// Kind-specific sub-slots plus a trailing identifier child
		// (spec.md §4.1): the identifier is always last, any preceding
		// children (array size expr, initialiser, param types) are left
		// in Children for the evaluator to interpret by declarator kind.
		if len(c) >= 1 {
			n.Named.Identifier = c[len(c)-1]
		}

	case KindCastExpression:
		if len(c) != 1 {
			return errors.Errorf("CastExpression expects 1 child, got %d", len(c))
		}
		n.Named.Operand = c[0]

	case KindStructDeclaration:
		if len(c) < 1 {
			return errors.Errorf("StructDeclaration expects >=1 children, got %d", len(c))
		}
		n.Named.NameNode = c[0]
		n.Named.MemberDecls = c[1:]

	case KindTernary:
		if len(c) != 3 {
			return errors.Errorf("Ternary expects 3 children, got %d", len(c))
		}
		n.Named.Condition, n.Named.Then, n.Named.Else = c[0], c[1], c[2]
		n.Named.HasElse = true
	}
	return nil
}
