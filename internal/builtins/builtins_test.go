package builtins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arduino-ast/interpreter/internal/command"
	"github.com/arduino-ast/interpreter/internal/value"
)

type fakeProvider struct {
	digital int32
}

func (f *fakeProvider) DigitalRead(pin int32) (int32, error)  { return f.digital, nil }
func (f *fakeProvider) AnalogRead(pin int32) (int32, error)   { return 512, nil }
func (f *fakeProvider) Millis() (uint32, error)               { return 1000, nil }
func (f *fakeProvider) Micros() (uint32, error)                { return 2000, nil }
func (f *fakeProvider) LibrarySensor(l, m string, p int32) (int32, error) { return 7, nil }

func TestDigitalWriteEmitsCommand(t *testing.T) {
	sink := command.NewBufferSink()
	emit := command.NewEmitter(sink, zap.NewNop(), nil)
	r := NewRegistry()

	ctx := &CallContext{Ctx: context.Background(), Emit: emit, SyncMode: true}
	_, err := r.Dispatch(ctx, "digitalWrite", []value.Value{value.I32Value(13), value.I32Value(1)})
	require.NoError(t, err)
	require.Equal(t, `{"type":"DIGITAL_WRITE","timestamp":0,"pin":13,"value":1}`, sink.Lines()[0])
}

func TestDigitalReadSyncModeUsesProvider(t *testing.T) {
	sink := command.NewBufferSink()
	emit := command.NewEmitter(sink, zap.NewNop(), nil)
	r := NewRegistry()
	p := &fakeProvider{digital: 1}

	ctx := &CallContext{Ctx: context.Background(), Emit: emit, SyncMode: true, Provider: p}
	v, err := r.Dispatch(ctx, "digitalRead", []value.Value{value.I32Value(7)})
	require.NoError(t, err)
	require.Equal(t, value.I32Value(1), v)
	require.Len(t, sink.Lines(), 1)
	require.Contains(t, sink.Lines()[0], "DIGITAL_READ_REQUEST")
}

func TestDigitalReadNoProviderEmitsConfigurationError(t *testing.T) {
	sink := command.NewBufferSink()
	emit := command.NewEmitter(sink, zap.NewNop(), nil)
	r := NewRegistry()

	ctx := &CallContext{Ctx: context.Background(), Emit: emit, SyncMode: true}
	v, err := r.Dispatch(ctx, "digitalRead", []value.Value{value.I32Value(7)})
	require.NoError(t, err)
	require.Equal(t, value.I32Value(-1), v)
	require.Contains(t, sink.Lines()[1], "ConfigurationError")
}

func TestUnknownFunctionEmitsError(t *testing.T) {
	sink := command.NewBufferSink()
	emit := command.NewEmitter(sink, zap.NewNop(), nil)
	r := NewRegistry()

	ctx := &CallContext{Ctx: context.Background(), Emit: emit, SyncMode: true}
	v, err := r.Dispatch(ctx, "notAFunction", nil)
	require.NoError(t, err)
	require.True(t, v.IsNull())
	require.Contains(t, sink.Lines()[0], "Unknown function")
}
