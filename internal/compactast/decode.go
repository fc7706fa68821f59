package compactast

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

var magic = [4]byte{'A', 'S', 'T', 'P'}

const supportedVersion uint16 = 1

// node flag bits (spec.md §3.4's "flags bitmap").
const (
	flagHasValue    uint8 = 1 << 0
	flagHasChildren uint8 = 1 << 1
)

// header is the fixed 16-byte CompactAST preamble (spec.md §4.1.1).
type header struct {
	Magic           [4]byte
	Version         uint16
	Flags           uint16
	NodeCount       uint32
	StringTableSize uint32
}

// Decode parses a full CompactAST byte stream into a linked Tree.
// Unknown trailing sections after the node table are read and
// discarded (forward-compatibility, spec.md §4.1.4); unknown node
// kinds are a hard error (spec.md §4.1 "Failure modes").
func Decode(data []byte) (*Tree, error) {
	r := bytes.NewReader(data)

	var h header
	if err := binary.Read(r, binary.LittleEndian, &h.Magic); err != nil {
		return nil, errors.Wrap(ErrTruncated, "reading magic")
	}
	if h.Magic != magic {
		return nil, errors.Wrapf(ErrInvalidMagic, "got %q", string(h.Magic[:]))
	}
	if err := readFields(r, &h.Version, &h.Flags, &h.NodeCount, &h.StringTableSize); err != nil {
		return nil, err
	}
	if h.Version != supportedVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", h.Version)
	}

	strs, err := decodeStringTable(r)
	if err != nil {
		return nil, err
	}

	nodes, err := decodeNodeTable(r, int(h.NodeCount), strs)
	if err != nil {
		return nil, err
	}

	tree := &Tree{Nodes: nodes, Strings: strs}
	if err := linkChildren(tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func readFields(r io.Reader, fields ...interface{}) error {
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return errors.Wrap(ErrTruncated, "reading header field")
		}
	}
	return nil
}

func decodeStringTable(r *bytes.Reader) ([]string, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, errors.Wrap(ErrTruncated, "reading string table count")
	}
	out := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		var length uint16
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return nil, errors.Wrapf(ErrTruncated, "reading string %d length", i)
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Wrapf(ErrTruncated, "reading string %d bytes", i)
		}
		out = append(out, string(buf))
	}
	return out, nil
}

func decodeNodeTable(r *bytes.Reader, count int, strs []string) ([]Node, error) {
	nodes := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		var kindByte, flags uint8
		var dataSize uint16
		if err := readFields(r, &kindByte, &flags, &dataSize); err != nil {
			return nil, errors.Wrapf(err, "node %d header", i)
		}
		if Kind(kindByte) == KindInvalid || Kind(kindByte) > maxKnownKind {
			return nil, errors.Wrapf(ErrUnknownNodeKind, "node %d kind byte %d", i, kindByte)
		}

		payload := make([]byte, dataSize)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, errors.Wrapf(ErrTruncated, "node %d payload", i)
		}
		pr := bytes.NewReader(payload)

		n := Node{Kind: Kind(kindByte), Flags: flags}

		if flags&flagHasValue != 0 {
			if err := decodeValue(pr, &n, strs); err != nil {
				return nil, errors.Wrapf(err, "node %d value", i)
			}
		}

		if flags&flagHasChildren != 0 {
			var childCount uint16
			if err := binary.Read(pr, binary.LittleEndian, &childCount); err != nil {
				return nil, errors.Wrapf(ErrTruncated, "node %d child count", i)
			}
			children := make([]uint32, childCount)
			for c := range children {
				var idx uint16
				if err := binary.Read(pr, binary.LittleEndian, &idx); err != nil {
					return nil, errors.Wrapf(ErrTruncated, "node %d child %d", i, c)
				}
				children[c] = uint32(idx)
			}
			n.Children = children
		}

		nodes = append(nodes, n)
	}
	return nodes, nil
}

// decodeValue reads the per-kind typed payload that precedes the child
// count (spec.md §3.4: "optional value typed per kind: string for
// identifiers/operators/cast target; number for literals; enum for a
// few"). The wire tags the concrete variant with one leading byte so
// the decoder need not hard-code which kinds carry which variant.
func decodeValue(r *bytes.Reader, n *Node, strs []string) error {
	var tag uint8
	if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
		return errors.Wrap(ErrTruncated, "reading value tag")
	}
	switch ValueKind(tag) {
	case StringValueKind:
		var idx uint32
		if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
			return errors.Wrap(ErrTruncated, "reading string value index")
		}
		if int(idx) >= len(strs) {
			return errors.Wrapf(ErrStringIndexOutOfRange, "index %d", idx)
		}
		n.ValueKind = StringValueKind
		n.StrValue = strs[idx]
	case IntValueKind:
		var v int64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return errors.Wrap(ErrTruncated, "reading int value")
		}
		n.ValueKind = IntValueKind
		n.IntValue = v
	case FloatValueKind:
		var v float64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return errors.Wrap(ErrTruncated, "reading float value")
		}
		n.ValueKind = FloatValueKind
		n.FloatValue = v
	case BoolValueKind:
		var v uint8
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return errors.Wrap(ErrTruncated, "reading bool value")
		}
		n.ValueKind = BoolValueKind
		n.BoolValue = v != 0
	default:
		return errors.Errorf("unknown value tag %d", tag)
	}
	return nil
}
