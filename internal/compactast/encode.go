package compactast

import (
	"bytes"
	"encoding/binary"
)

// Encode serialises a Tree back to the CompactAST wire format. Layout
// is the exact inverse of Decode (spec.md §4.1 "Encode is the
// inverse; identical layout is mandatory to remain interoperable with
// the parser"). Encode rebuilds a fresh string table from whatever
// strings the nodes reference, rather than trusting Tree.Strings to
// still be free of unused entries, so round-tripped files stay compact.
func Encode(t *Tree) []byte {
	strIndex := map[string]uint32{}
	var strs []string
	internString := func(s string) uint32 {
		if idx, ok := strIndex[s]; ok {
			return idx
		}
		idx := uint32(len(strs))
		strs = append(strs, s)
		strIndex[s] = idx
		return idx
	}

	nodeBuf := &bytes.Buffer{}
	for _, n := range t.Nodes {
		encodeNode(nodeBuf, n, internString)
	}

	out := &bytes.Buffer{}
	out.Write(magic[:])
	binary.Write(out, binary.LittleEndian, supportedVersion)
	binary.Write(out, binary.LittleEndian, uint16(0)) // flags
	binary.Write(out, binary.LittleEndian, uint32(len(t.Nodes)))

	strTable := &bytes.Buffer{}
	binary.Write(strTable, binary.LittleEndian, uint32(len(strs)))
	for _, s := range strs {
		binary.Write(strTable, binary.LittleEndian, uint16(len(s)))
		strTable.WriteString(s)
	}
	binary.Write(out, binary.LittleEndian, uint32(strTable.Len()))

	out.Write(strTable.Bytes())
	out.Write(nodeBuf.Bytes())
	return out.Bytes()
}

func encodeNode(out *bytes.Buffer, n Node, internString func(string) uint32) {
	flags := n.Flags
	// Recompute flags from content rather than trust the caller's copy,
	// since builder-constructed trees (tests, dump-ast round-trips)
	// rarely set Flags by hand.
	flags = 0
	if n.ValueKind != NoValue {
		flags |= flagHasValue
	}
	if len(n.Children) > 0 {
		flags |= flagHasChildren
	}

	payload := &bytes.Buffer{}
	if flags&flagHasValue != 0 {
		encodeValue(payload, n, internString)
	}
	if flags&flagHasChildren != 0 {
		binary.Write(payload, binary.LittleEndian, uint16(len(n.Children)))
		for _, c := range n.Children {
			binary.Write(payload, binary.LittleEndian, uint16(c))
		}
	}

	out.WriteByte(byte(n.Kind))
	out.WriteByte(flags)
	binary.Write(out, binary.LittleEndian, uint16(payload.Len()))
	out.Write(payload.Bytes())
}

func encodeValue(out *bytes.Buffer, n Node, internString func(string) uint32) {
	switch n.ValueKind {
	case StringValueKind:
		out.WriteByte(byte(StringValueKind))
		binary.Write(out, binary.LittleEndian, internString(n.StrValue))
	case IntValueKind:
		out.WriteByte(byte(IntValueKind))
		binary.Write(out, binary.LittleEndian, n.IntValue)
	case FloatValueKind:
		out.WriteByte(byte(FloatValueKind))
		binary.Write(out, binary.LittleEndian, n.FloatValue)
	case BoolValueKind:
		out.WriteByte(byte(BoolValueKind))
		if n.BoolValue {
			out.WriteByte(1)
		} else {
			out.WriteByte(0)
		}
	}
}
