package compactast

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := Decode([]byte("XXXX"))
	require.ErrorIs(t, err, ErrInvalidMagic)
}

func TestDecodeRejectsTruncated(t *testing.T) {
	_, err := Decode(magic[:2])
	require.ErrorIs(t, err, ErrTruncated)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	b := NewBuilder()
	a := b.IntLiteral(10)
	c := b.IntLiteral(20)
	sum := b.BinaryOp("+", a, c)
	call := b.FuncCall(b.Identifier("Serial.println"), sum)
	b.Program(call)

	tree, err := b.Build()
	require.NoError(t, err)

	wire := Encode(tree)
	decoded, err := Decode(wire)
	require.NoError(t, err)

	root, ok := decoded.Root()
	require.True(t, ok)
	require.Equal(t, KindProgram, root.Kind)
	require.Len(t, root.Named.Statements, 1)

	callNode, ok := decoded.Node(root.Named.Statements[0])
	require.True(t, ok)
	require.Equal(t, KindFuncCall, callNode.Kind)

	callee, ok := decoded.Node(callNode.Named.Callee)
	require.True(t, ok)
	require.Equal(t, "Serial.println", callee.StrValue)

	require.Len(t, callNode.Named.Arguments, 1)
	sumNode, ok := decoded.Node(callNode.Named.Arguments[0])
	require.True(t, ok)
	require.Equal(t, KindBinaryOp, sumNode.Kind)
	require.Equal(t, "+", sumNode.StrValue)

	left, ok := decoded.Node(sumNode.Named.Left)
	require.True(t, ok)
	require.Equal(t, int64(10), left.IntValue)
}

func TestLinkRejectsOutOfRangeChild(t *testing.T) {
	tree := &Tree{Nodes: []Node{
		{Kind: KindBinaryOp, StrValue: "+", Children: []uint32{5, 6}},
	}}
	err := linkChildren(tree)
	require.ErrorIs(t, err, ErrChildIndexOutOfRange)
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(magic[:])
	binary.Write(&buf, binary.LittleEndian, supportedVersion)
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // flags
	binary.Write(&buf, binary.LittleEndian, uint32(1)) // node count
	binary.Write(&buf, binary.LittleEndian, uint32(4)) // string table size
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // string count
	buf.WriteByte(0xFF)                                // unknown kind
	buf.WriteByte(0)                                    // flags
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // data size

	_, err := Decode(buf.Bytes())
	require.ErrorIs(t, err, ErrUnknownNodeKind)
}

func TestSwitchCaseLinking(t *testing.T) {
	b := NewBuilder()
	test0 := b.IntLiteral(0)
	stmtA := b.FuncCall(b.Identifier("a"))
	case0 := b.Add(Node{Kind: KindCase, Children: []uint32{test0, stmtA}})

	test1 := b.IntLiteral(1)
	stmtB := b.FuncCall(b.Identifier("b"))
	brk := b.Add(Node{Kind: KindBreak})
	case1 := b.Add(Node{Kind: KindCase, Children: []uint32{test1, stmtB, brk}})

	disc := b.IntLiteral(0)
	sw := b.Add(Node{Kind: KindSwitch, Children: []uint32{disc, case0, case1}})
	b.Program(sw)

	tree, err := b.Build()
	require.NoError(t, err)

	root, _ := tree.Root()
	swNode, _ := tree.Node(root.Named.Statements[0])
	require.Len(t, swNode.Named.Cases, 2)

	c0, _ := tree.Node(swNode.Named.Cases[0])
	require.Equal(t, test0, c0.Named.Test)
	require.Equal(t, []uint32{stmtA}, c0.Named.Consequent)

	c1, _ := tree.Node(swNode.Named.Cases[1])
	require.Equal(t, []uint32{stmtB, brk}, c1.Named.Consequent)
}
