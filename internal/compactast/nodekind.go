// Package compactast decodes and encodes the CompactAST binary format
// (spec.md §4.1): a flattened node arena with a second link pass that
// assigns decoded children to named slots per node kind. Grounded on
// the teacher's own binary instruction codec (KTStephano-GVM
// vm/compile.go's fixed-width Instruction encode/decode over
// encoding/binary) generalized from a flat instruction stream to a
// tree with an explicit string table, and on spec.md §9's own design
// note: "flatten nodes into a vector during decode; reference children
// by index" to avoid an interface-polymorphic, cyclic-ownership tree.
package compactast

// Kind identifies the 37 node kinds this decoder defines (spec.md §3.4). Values are the
// wire byte read from each node record's kind:u8 field; the concrete
// assignment below is this decoder's own numbering (CompactAST does
// not mandate specific byte values beyond "u8", so the table only
// needs to be internally consistent between Encode and Decode).
type Kind uint8

const (
	KindInvalid Kind = iota

	KindProgram
	KindCompoundStatement
	KindFuncDef
	KindFuncCall
	KindBinaryOp
	KindUnaryOp
	KindPostfix
	KindMemberAccess
	KindArrayAccess
	KindIf
	KindFor
	KindWhile
	KindDoWhile
	KindSwitch
	KindCase
	KindVarDecl
	KindDeclarator
	KindPointerDeclarator
	KindArrayDeclarator
	KindFunctionPointerDeclarator
	KindCastExpression
	KindStructDeclaration
	KindTernary

	// Leaf / literal / misc kinds not listed in the §4.1 named-children
	// table (they carry no named children, only a value and/or a flat
	// statement list already covered by Program/CompoundStatement).
	KindIdentifier
	KindIntLiteral
	KindUIntLiteral
	KindFloatLiteral
	KindStringLiteral
	KindBoolLiteral
	KindCharLiteral
	KindBreak
	KindContinue
	KindReturn
	KindTypedefDeclaration
	KindEmptyStatement
	KindExpressionStatement
)

var kindNames = map[Kind]string{
	KindInvalid:                   "Invalid",
	KindProgram:                   "Program",
	KindCompoundStatement:         "CompoundStatement",
	KindFuncDef:                   "FuncDef",
	KindFuncCall:                  "FuncCall",
	KindBinaryOp:                  "BinaryOp",
	KindUnaryOp:                   "UnaryOp",
	KindPostfix:                   "Postfix",
	KindMemberAccess:              "MemberAccess",
	KindArrayAccess:               "ArrayAccess",
	KindIf:                        "If",
	KindFor:                       "For",
	KindWhile:                     "While",
	KindDoWhile:                   "DoWhile",
	KindSwitch:                    "Switch",
	KindCase:                      "Case",
	KindVarDecl:                   "VarDecl",
	KindDeclarator:                "Declarator",
	KindPointerDeclarator:         "PointerDeclarator",
	KindArrayDeclarator:           "ArrayDeclarator",
	KindFunctionPointerDeclarator: "FunctionPointerDeclarator",
	KindCastExpression:            "CastExpression",
	KindStructDeclaration:         "StructDeclaration",
	KindTernary:                   "Ternary",
	KindIdentifier:                "Identifier",
	KindIntLiteral:                "IntLiteral",
	KindUIntLiteral:               "UIntLiteral",
	KindFloatLiteral:              "FloatLiteral",
	KindStringLiteral:             "StringLiteral",
	KindBoolLiteral:               "BoolLiteral",
	KindCharLiteral:               "CharLiteral",
	KindBreak:                     "Break",
	KindContinue:                  "Continue",
	KindReturn:                    "Return",
	KindTypedefDeclaration:        "TypedefDeclaration",
	KindEmptyStatement:            "EmptyStatement",
	KindExpressionStatement:       "ExpressionStatement",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UnknownKind"
}

// maxKnownKind bounds UnknownNodeKind detection during decode.
var maxKnownKind = KindExpressionStatement
