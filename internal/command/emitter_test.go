package command

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arduino-ast/interpreter/internal/value"
)

func TestEmitterFieldOrder(t *testing.T) {
	sink := NewBufferSink()
	e := NewEmitter(sink, zap.NewNop(), nil)

	e.VersionInfo("1.0.0")
	e.DigitalWrite(13, 1)
	e.VarSet("x", value.I32Value(10))

	lines := sink.Lines()
	require.Equal(t, `{"type":"VERSION_INFO","timestamp":0,"component":"interpreter","version":"1.0.0","status":"started"}`, lines[0])
	require.Equal(t, `{"type":"DIGITAL_WRITE","timestamp":0,"pin":13,"value":1}`, lines[1])
	require.Equal(t, `{"type":"VAR_SET","timestamp":0,"variable":"x","value":10}`, lines[2])
}

func TestEmitterFloatSpecialValues(t *testing.T) {
	sink := NewBufferSink()
	e := NewEmitter(sink, zap.NewNop(), nil)

	e.VarSet("r", value.F64Value(math.Inf(1)))
	e.VarSet("s", value.F64Value(math.NaN()))

	lines := sink.Lines()
	require.Equal(t, `{"type":"VAR_SET","timestamp":0,"variable":"r","value":"Infinity"}`, lines[0])
	require.Equal(t, `{"type":"VAR_SET","timestamp":0,"variable":"s","value":"NaN"}`, lines[1])
}

func TestEmitterPointerValue(t *testing.T) {
	sink := NewBufferSink()
	e := NewEmitter(sink, zap.NewNop(), nil)

	e.VarSet("p", value.PointerValue("arr", 1, 7))

	require.Equal(t,
		`{"type":"VAR_SET","timestamp":0,"variable":"p","value":{"type":"offset_pointer","targetVariable":"arr","offset":1,"pointerId":7}}`,
		sink.Lines()[0])
}

func TestEmitterStructValue(t *testing.T) {
	sink := NewBufferSink()
	structs := func(handle uint64) (string, []string, map[string]value.Value, bool) {
		return "Point", []string{"x", "y"}, map[string]value.Value{
			"x": value.I32Value(10),
			"y": value.I32Value(20),
		}, true
	}
	e := NewEmitter(sink, zap.NewNop(), structs)

	e.VarSet("p1", value.StructValue(3))

	require.Equal(t,
		`{"type":"VAR_SET","timestamp":0,"variable":"p1","value":{"structName":"Point","fields":{"x":10,"y":20},"type":"struct","structId":3}}`,
		sink.Lines()[0])
}

func TestEmitterFunctionCallQuotesStrings(t *testing.T) {
	sink := NewBufferSink()
	e := NewEmitter(sink, zap.NewNop(), nil)

	e.FunctionCall("Serial.println", []value.Value{value.StrValue("hello")}, `Serial.println("hello")`)

	require.Equal(t,
		`{"type":"FUNCTION_CALL","timestamp":0,"function":"Serial.println","arguments":["\"hello\""],"message":"Serial.println(\"hello\")"}`,
		sink.Lines()[0])
}

func TestErrorRecord(t *testing.T) {
	sink := NewBufferSink()
	e := NewEmitter(sink, zap.NewNop(), nil)

	e.Error("division by zero", "RuntimeError")

	require.Equal(t, `{"type":"ERROR","timestamp":0,"message":"division by zero","errorType":"RuntimeError"}`, sink.Lines()[0])
}
