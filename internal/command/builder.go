package command

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// objectWriter appends "key":value pairs to a JSON object literal in
// the exact order Append is called, sidestepping Go's struct-tag
// ordering (which encoding/json does not guarantee to preserve across
// embedded structs) so every command kind can satisfy spec.md §4.9's
// "field order is fixed per command kind" contract exactly.
type objectWriter struct {
	buf   bytes.Buffer
	first bool
}

func newObjectWriter() *objectWriter {
	w := &objectWriter{first: true}
	w.buf.WriteByte('{')
	return w
}

func (w *objectWriter) comma() {
	if !w.first {
		w.buf.WriteByte(',')
	}
	w.first = false
}

// Raw appends a key with an already-JSON-encoded value verbatim.
func (w *objectWriter) Raw(key string, rawValue string) *objectWriter {
	w.comma()
	w.writeKey(key)
	w.buf.WriteString(rawValue)
	return w
}

func (w *objectWriter) writeKey(key string) {
	kb, _ := json.Marshal(key)
	w.buf.Write(kb)
	w.buf.WriteByte(':')
}

// Str appends a string-valued field, JSON-escaped.
func (w *objectWriter) Str(key, value string) *objectWriter {
	w.comma()
	w.writeKey(key)
	vb, _ := json.Marshal(value)
	w.buf.Write(vb)
	return w
}

// Int appends an integer-valued field (bare digits, per spec.md §4.9).
func (w *objectWriter) Int(key string, value int64) *objectWriter {
	w.comma()
	w.writeKey(key)
	w.buf.WriteString(strconv.FormatInt(value, 10))
	return w
}

// UInt appends an unsigned-integer-valued field.
func (w *objectWriter) UInt(key string, value uint64) *objectWriter {
	w.comma()
	w.writeKey(key)
	w.buf.WriteString(strconv.FormatUint(value, 10))
	return w
}

// Bool appends a boolean-valued field.
func (w *objectWriter) Bool(key string, value bool) *objectWriter {
	w.comma()
	w.writeKey(key)
	if value {
		w.buf.WriteString("true")
	} else {
		w.buf.WriteString("false")
	}
	return w
}

// Float appends a double-valued field using the shortest round-trip
// rule, with NaN/Infinity converted to string tokens first (spec.md
// §4.9: "NaN/±Infinity are forbidden in strict payload fields —
// convert to a string token if they arise").
func (w *objectWriter) Float(key string, value float64) *objectWriter {
	w.comma()
	w.writeKey(key)
	w.buf.WriteString(formatFloatField(value))
	return w
}

// StrArray appends a string-array-valued field, each element quoted.
func (w *objectWriter) StrArray(key string, values []string) *objectWriter {
	w.comma()
	w.writeKey(key)
	w.buf.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		vb, _ := json.Marshal(v)
		w.buf.Write(vb)
	}
	w.buf.WriteByte(']')
	return w
}

// OmitEmptyStr appends a string field only when non-empty, for
// optional trailing fields. No emitter method currently calls it.
func (w *objectWriter) OmitEmptyStr(key, value string) *objectWriter {
	if value == "" {
		return w
	}
	return w.Str(key, value)
}

func (w *objectWriter) String() string {
	w.buf.WriteByte('}')
	return w.buf.String()
}
