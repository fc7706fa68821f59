// Package builtins implements the Arduino built-in function and
// library-method registry (spec.md §4.6): a name->handler map invoked
// by the expression evaluator's FuncCall case whenever the callee does
// not resolve to a user-defined function. Grounded on the teacher's
// HardwareDevice registry (KTStephano-GVM vm/devices.go's
// GetInfo()/TrySend() dispatch keyed by InteractionID) generalized
// from a fixed set of device kinds to an open, name-keyed registry the
// way the teacher's own bytecode table (vm/bytecode.go's
// strToInstrMap) maps mnemonics to handlers.
package builtins

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/arduino-ast/interpreter/internal/command"
	"github.com/arduino-ast/interpreter/internal/provider"
	"github.com/arduino-ast/interpreter/internal/value"
)

// Handler evaluates one built-in/library call given its already
// -evaluated arguments, returning the Value visible to the expression
// evaluator. Handlers are responsible for emitting exactly one primary
// command record (spec.md §4.6); most use ctx.Emit directly.
type Handler func(ctx *CallContext, args []value.Value) (value.Value, error)

// CallContext carries everything a handler needs beyond its argument
// list: the command emitter, the configured external-value provider
// (may be nil), the async broker (nil in sync mode), the timeout
// deadline context, and the called function's name.
type CallContext struct {
	Ctx      context.Context
	Emit     *command.Emitter
	Provider provider.Provider
	Broker   *provider.AsyncBroker
	SyncMode bool
	Function string
}

// Registry maps a fully-qualified built-in/library name to its Handler
// (spec.md §4.6: `"Serial.println"`, `"digitalWrite"`, `"Keyboard.press"`).
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns a Registry preloaded with the core Arduino
// built-ins and library methods this interpreter supports out of the
// box. Embedders may add further entries via Register before running.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	registerCore(r)
	registerSerial(r)
	registerKeyboardMouse(r)
	registerExternalValueReads(r)
	return r
}

// Register adds or overrides a handler under name.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Lookup returns the handler for name, if any.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Dispatch calls name's handler with args, or — for an unregistered
// name — emits the `ERROR{"Unknown function"}` record the spec
// mandates and returns Null without an error (spec.md §4.6: "Unknown
// names emit ERROR... and return Null").
func (r *Registry) Dispatch(ctx *CallContext, name string, args []value.Value) (value.Value, error) {
	h, ok := r.handlers[name]
	if !ok {
		ctx.Emit.Error(fmt.Sprintf("Unknown function: %s", name), "RuntimeError")
		return value.NullValue(), nil
	}
	return h(ctx, args)
}

func argInt(args []value.Value, i int) int32 {
	if i >= len(args) {
		return 0
	}
	v, _ := args[i].AsI32()
	return v
}

func argUint(args []value.Value, i int) uint32 {
	if i >= len(args) {
		return 0
	}
	v, _ := args[i].AsU32()
	return v
}

func registerCore(r *Registry) {
	r.Register("pinMode", func(ctx *CallContext, args []value.Value) (value.Value, error) {
		pin, mode := argInt(args, 0), argInt(args, 1)
		ctx.Emit.PinMode(pin, mode)
		return value.NullValue(), nil
	})

	r.Register("digitalWrite", func(ctx *CallContext, args []value.Value) (value.Value, error) {
		pin, val := argInt(args, 0), argInt(args, 1)
		ctx.Emit.DigitalWrite(pin, val)
		return value.NullValue(), nil
	})

	r.Register("analogWrite", func(ctx *CallContext, args []value.Value) (value.Value, error) {
		pin, val := argInt(args, 0), argInt(args, 1)
		ctx.Emit.AnalogWrite(pin, val)
		return value.NullValue(), nil
	})

	r.Register("delay", func(ctx *CallContext, args []value.Value) (value.Value, error) {
		d := argUint(args, 0)
		ctx.Emit.Delay(d, d)
		return value.NullValue(), nil
	})

	r.Register("tone", func(ctx *CallContext, args []value.Value) (value.Value, error) {
		ctx.Emit.FunctionCall("tone", args, formatCall("tone", args))
		return value.NullValue(), nil
	})

	r.Register("noTone", func(ctx *CallContext, args []value.Value) (value.Value, error) {
		ctx.Emit.FunctionCall("noTone", args, formatCall("noTone", args))
		return value.NullValue(), nil
	})
}

func registerSerial(r *Registry) {
	print := func(name string) Handler {
		return func(ctx *CallContext, args []value.Value) (value.Value, error) {
			ctx.Emit.FunctionCall(name, args, formatCall(name, args))
			return value.NullValue(), nil
		}
	}
	r.Register("Serial.print", print("Serial.print"))
	r.Register("Serial.println", print("Serial.println"))
	r.Register("Serial.write", print("Serial.write"))
	r.Register("Serial.begin", func(ctx *CallContext, args []value.Value) (value.Value, error) {
		ctx.Emit.FunctionCall("Serial.begin", args, formatCall("Serial.begin", args))
		return value.NullValue(), nil
	})
}

func registerKeyboardMouse(r *Registry) {
	forward := func(name string) Handler {
		return func(ctx *CallContext, args []value.Value) (value.Value, error) {
			ctx.Emit.FunctionCall(name, args, formatCall(name, args))
			return value.NullValue(), nil
		}
	}
	for _, name := range []string{
		"Keyboard.press", "Keyboard.release", "Keyboard.releaseAll", "Keyboard.print", "Keyboard.println",
		"Mouse.click", "Mouse.move", "Mouse.press", "Mouse.release",
	} {
		r.Register(name, forward(name))
	}
}

// formatCall renders the "message" field handlers attach to
// FUNCTION_CALL records: the display-formatting rule of spec.md §4.6
// (quoted strings, shortest round-trip numbers).
func formatCall(name string, args []value.Value) string {
	out := name + "("
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += a.QuotedDisplay()
	}
	return out + ")"
}

// registerExternalValueReads wires digitalRead/analogRead/millis/micros
// through the external-value protocol (spec.md §4.8): emit the
// *_REQUEST command, then either call the provider directly (sync
// mode) or await the async broker, falling back to the
// ConfigurationError + sentinel contract on a missing provider or a
// timed-out request.
func registerExternalValueReads(r *Registry) {
	r.Register("digitalRead", func(ctx *CallContext, args []value.Value) (value.Value, error) {
		pin := argInt(args, 0)
		reqID := requestID(ctx)
		ctx.Emit.DigitalReadRequest(reqID, pin)
		v, err := resolveIntRead(ctx, reqID, func() (int32, error) { return ctx.Provider.DigitalRead(pin) })
		if err != nil {
			return configurationError(ctx, "digitalRead", err)
		}
		return value.I32Value(v), nil
	})

	r.Register("analogRead", func(ctx *CallContext, args []value.Value) (value.Value, error) {
		pin := argInt(args, 0)
		reqID := requestID(ctx)
		ctx.Emit.AnalogReadRequest(reqID, pin)
		v, err := resolveIntRead(ctx, reqID, func() (int32, error) { return ctx.Provider.AnalogRead(pin) })
		if err != nil {
			return configurationError(ctx, "analogRead", err)
		}
		return value.I32Value(v), nil
	})

	r.Register("millis", func(ctx *CallContext, args []value.Value) (value.Value, error) {
		reqID := requestID(ctx)
		ctx.Emit.MillisRequest(reqID)
		v, err := resolveUintRead(ctx, reqID, func() (uint32, error) { return ctx.Provider.Millis() })
		if err != nil {
			return configurationErrorUint(ctx, "millis", err)
		}
		return value.U32Value(v), nil
	})

	r.Register("micros", func(ctx *CallContext, args []value.Value) (value.Value, error) {
		reqID := requestID(ctx)
		ctx.Emit.MicrosRequest(reqID)
		v, err := resolveUintRead(ctx, reqID, func() (uint32, error) { return ctx.Provider.Micros() })
		if err != nil {
			return configurationErrorUint(ctx, "micros", err)
		}
		return value.U32Value(v), nil
	})
}

func requestID(ctx *CallContext) string {
	if ctx.Broker != nil {
		return ctx.Broker.NewRequestID()
	}
	return ""
}

func resolveIntRead(ctx *CallContext, reqID string, syncCall func() (int32, error)) (int32, error) {
	if ctx.SyncMode {
		if ctx.Provider == nil {
			return provider.SentinelInt, provider.ErrNoProvider
		}
		return syncCall()
	}
	if ctx.Broker == nil {
		return provider.SentinelInt, provider.ErrNoProvider
	}
	return ctx.Broker.Await(ctx.Ctx, reqID)
}

func resolveUintRead(ctx *CallContext, reqID string, syncCall func() (uint32, error)) (uint32, error) {
	if ctx.SyncMode {
		if ctx.Provider == nil {
			return provider.SentinelUint, provider.ErrNoProvider
		}
		return syncCall()
	}
	if ctx.Broker == nil {
		return provider.SentinelUint, provider.ErrNoProvider
	}
	v, err := ctx.Broker.Await(ctx.Ctx, reqID)
	return uint32(v), err
}

// ResolveLibrarySensor services a library sensor read that didn't match
// any registered handler (spec.md §4.8's library_sensor provider
// method), used by the evaluator's FuncCall dispatch as
// the fallback once a call resolves to an object whose class has no
// fixed built-in handler — e.g. a third-party sensor library's
// `.read()` method.
func ResolveLibrarySensor(ctx *CallContext, library, method string, param int32) (value.Value, error) {
	reqID := requestID(ctx)
	ctx.Emit.LibrarySensorRequest(reqID, library, method, param)
	v, err := resolveIntRead(ctx, reqID, func() (int32, error) {
		return ctx.Provider.LibrarySensor(library, method, param)
	})
	if err != nil {
		return configurationError(ctx, library+"."+method, err)
	}
	return value.I32Value(v), nil
}

func configurationError(ctx *CallContext, fn string, err error) (value.Value, error) {
	return configurationErrorValue(ctx, fn, err, value.I32Value(provider.SentinelInt))
}

// configurationErrorUint is configurationError's variant for the
// u32-returning builtins (millis/micros): the sentinel must stay a U32
// Value, not silently narrow to I32, since value.Arith's float>unsigned
// >signed coercion rule and VAR_SET's JSON rendering both key off Kind.
func configurationErrorUint(ctx *CallContext, fn string, err error) (value.Value, error) {
	return configurationErrorValue(ctx, fn, err, value.U32Value(provider.SentinelUint))
}

func configurationErrorValue(ctx *CallContext, fn string, err error, sentinel value.Value) (value.Value, error) {
	msg := fmt.Sprintf("%s called without provider", fn)
	if errors.Is(err, provider.ErrTimeout) {
		msg = fmt.Sprintf("%s timed out waiting for response", fn)
	}
	ctx.Emit.Error(msg, "ConfigurationError")
	return sentinel, nil
}
