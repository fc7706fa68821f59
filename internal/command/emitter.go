package command

import (
	"go.uber.org/zap"

	"github.com/arduino-ast/interpreter/internal/value"
)

// Emitter writes command records to a Sink in the fixed field order
// spec.md §4.9 mandates, additionally mirroring every record to a zap
// logger at Debug level when tracing is enabled — the generalization
// of the teacher's printCurrentState per-instruction debug dump
// (KTStephano-GVM vm/run.go) to structured per-command tracing.
type Emitter struct {
	sink    Sink
	log     *zap.Logger
	structs StructRenderer
}

// NewEmitter builds an Emitter over sink. log may be zap.NewNop() to
// disable tracing entirely (spec.md §9: "zero-overhead stub when
// disabled"). structs resolves struct handles for VAR_SET/
// STRUCT_FIELD_* rendering; it may be nil until the interpreter's
// struct registry exists, in which case struct values render with an
// empty type name.
func NewEmitter(sink Sink, log *zap.Logger, structs StructRenderer) *Emitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Emitter{sink: sink, log: log, structs: structs}
}

func (e *Emitter) emit(kind, line string) {
	if err := e.sink.WriteLine(line); err != nil {
		e.log.Warn("command sink write failed", zap.String("kind", kind), zap.Error(err))
		return
	}
	e.log.Debug("emitted command", zap.String("kind", kind), zap.String("line", line))
}

// VersionInfo emits the VERSION_INFO preamble (spec.md §6).
func (e *Emitter) VersionInfo(version string) {
	w := newObjectWriter()
	w.Str("type", "VERSION_INFO")
	w.Int("timestamp", 0)
	w.Str("component", "interpreter")
	w.Str("version", version)
	w.Str("status", "started")
	e.emit("VERSION_INFO", w.String())
}

func (e *Emitter) ProgramStart(message string) {
	w := newObjectWriter()
	w.Str("type", "PROGRAM_START")
	w.Int("timestamp", 0)
	w.Str("message", message)
	e.emit("PROGRAM_START", w.String())
}

func (e *Emitter) SetupStart() { e.bare("SETUP_START") }
func (e *Emitter) SetupEnd()   { e.bare("SETUP_END") }
func (e *Emitter) LoopStart()  { e.bare("LOOP_START") }
func (e *Emitter) LoopEnd()    { e.bare("LOOP_END") }
func (e *Emitter) ProgramEnd() { e.bare("PROGRAM_END") }

func (e *Emitter) bare(kind string) {
	w := newObjectWriter()
	w.Str("type", kind)
	w.Int("timestamp", 0)
	e.emit(kind, w.String())
}

// VarSet emits VAR_SET{variable, value}.
func (e *Emitter) VarSet(variable string, v value.Value) {
	w := newObjectWriter()
	w.Str("type", "VAR_SET")
	w.Int("timestamp", 0)
	w.Str("variable", variable)
	w.Raw("value", renderValue(v, e.structs))
	e.emit("VAR_SET", w.String())
}

// FunctionCall emits FUNCTION_CALL{function, arguments, message}.
func (e *Emitter) FunctionCall(function string, args []value.Value, message string) {
	w := newObjectWriter()
	w.Str("type", "FUNCTION_CALL")
	w.Int("timestamp", 0)
	w.Str("function", function)
	rendered := make([]string, len(args))
	for i, a := range args {
		rendered[i] = a.QuotedDisplay()
	}
	w.StrArray("arguments", rendered)
	w.Str("message", message)
	e.emit("FUNCTION_CALL", w.String())
}

func (e *Emitter) DigitalWrite(pin, val int32) {
	w := newObjectWriter()
	w.Str("type", "DIGITAL_WRITE")
	w.Int("timestamp", 0)
	w.Int("pin", int64(pin))
	w.Int("value", int64(val))
	e.emit("DIGITAL_WRITE", w.String())
}

func (e *Emitter) AnalogWrite(pin, val int32) {
	w := newObjectWriter()
	w.Str("type", "ANALOG_WRITE")
	w.Int("timestamp", 0)
	w.Int("pin", int64(pin))
	w.Int("value", int64(val))
	e.emit("ANALOG_WRITE", w.String())
}

func (e *Emitter) PinMode(pin, mode int32) {
	w := newObjectWriter()
	w.Str("type", "PIN_MODE")
	w.Int("timestamp", 0)
	w.Int("pin", int64(pin))
	w.Int("mode", int64(mode))
	e.emit("PIN_MODE", w.String())
}

func (e *Emitter) Delay(duration, actualDelay uint32) {
	w := newObjectWriter()
	w.Str("type", "DELAY")
	w.Int("timestamp", 0)
	w.UInt("duration", uint64(duration))
	w.UInt("actualDelay", uint64(actualDelay))
	e.emit("DELAY", w.String())
}

func (e *Emitter) digitalReadRequest(kind, requestID string, pin int32) {
	w := newObjectWriter()
	w.Str("type", kind)
	w.Int("timestamp", 0)
	w.Int("pin", int64(pin))
	w.Str("requestId", requestID)
	e.emit(kind, w.String())
}

func (e *Emitter) DigitalReadRequest(requestID string, pin int32) {
	e.digitalReadRequest("DIGITAL_READ_REQUEST", requestID, pin)
}
func (e *Emitter) AnalogReadRequest(requestID string, pin int32) {
	e.digitalReadRequest("ANALOG_READ_REQUEST", requestID, pin)
}

func (e *Emitter) timeRequest(kind, requestID string) {
	w := newObjectWriter()
	w.Str("type", kind)
	w.Int("timestamp", 0)
	w.Str("requestId", requestID)
	e.emit(kind, w.String())
}

func (e *Emitter) MillisRequest(requestID string) { e.timeRequest("MILLIS_REQUEST", requestID) }
func (e *Emitter) MicrosRequest(requestID string) { e.timeRequest("MICROS_REQUEST", requestID) }

func (e *Emitter) LibrarySensorRequest(requestID, library, method string, param int32) {
	w := newObjectWriter()
	w.Str("type", "LIBRARY_SENSOR_REQUEST")
	w.Int("timestamp", 0)
	w.Str("library", library)
	w.Str("method", method)
	w.Int("param", int64(param))
	w.Str("requestId", requestID)
	e.emit("LIBRARY_SENSOR_REQUEST", w.String())
}

func (e *Emitter) StructFieldSet(structType, field string, v value.Value) {
	w := newObjectWriter()
	w.Str("type", "STRUCT_FIELD_SET")
	w.Int("timestamp", 0)
	w.Str("struct", structType)
	w.Str("field", field)
	w.Raw("value", renderValue(v, e.structs))
	e.emit("STRUCT_FIELD_SET", w.String())
}

func (e *Emitter) StructFieldAccess(structType, field string, v value.Value) {
	w := newObjectWriter()
	w.Str("type", "STRUCT_FIELD_ACCESS")
	w.Int("timestamp", 0)
	w.Str("struct", structType)
	w.Str("field", field)
	w.Raw("value", renderValue(v, e.structs))
	e.emit("STRUCT_FIELD_ACCESS", w.String())
}

// ArrayElementSet emits the optional ARRAY_ELEMENT_SET record (spec.md
// §9 open question, resolved in SPEC_FULL.md §3 as config-gated).
func (e *Emitter) ArrayElementSet(variable string, index int32, v value.Value) {
	w := newObjectWriter()
	w.Str("type", "ARRAY_ELEMENT_SET")
	w.Int("timestamp", 0)
	w.Str("variable", variable)
	w.Int("index", int64(index))
	w.Raw("value", renderValue(v, e.structs))
	e.emit("ARRAY_ELEMENT_SET", w.String())
}

func (e *Emitter) SwitchStatement(discriminant value.Value) {
	w := newObjectWriter()
	w.Str("type", "SWITCH_STATEMENT")
	w.Int("timestamp", 0)
	w.Raw("discriminant", renderValue(discriminant, e.structs))
	e.emit("SWITCH_STATEMENT", w.String())
}

func (e *Emitter) SwitchCase(caseValue value.Value) {
	w := newObjectWriter()
	w.Str("type", "SWITCH_CASE")
	w.Int("timestamp", 0)
	w.Raw("value", renderValue(caseValue, e.structs))
	e.emit("SWITCH_CASE", w.String())
}

func (e *Emitter) BreakStatement() { e.bare("BREAK_STATEMENT") }
func (e *Emitter) ContinueStatement() { e.bare("CONTINUE_STATEMENT") }

func (e *Emitter) LoopLimitReached(phase string, iterations uint32, message string) {
	w := newObjectWriter()
	w.Str("type", "LOOP_LIMIT_REACHED")
	w.Int("timestamp", 0)
	w.Str("phase", phase)
	w.UInt("iterations", uint64(iterations))
	w.Str("message", message)
	e.emit("LOOP_LIMIT_REACHED", w.String())
}

func (e *Emitter) Error(message, errorType string) {
	w := newObjectWriter()
	w.Str("type", "ERROR")
	w.Int("timestamp", 0)
	w.Str("message", message)
	w.Str("errorType", errorType)
	e.emit("ERROR", w.String())
}
