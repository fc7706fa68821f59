// Package astinterp is the public embedding surface for the Arduino
// -sketch AST interpreter: the Host API spec.md §6 names — new,
// set_provider, on_command, handle_response, start, destroy — as a
// plain Go API rather than CLI flags. cmd/astinterp is a thin wrapper
// around this same package, so embedders and the CLI never drift.
package astinterp

import (
	"context"

	"github.com/arduino-ast/interpreter/internal/command"
	"github.com/arduino-ast/interpreter/internal/compactast"
	"github.com/arduino-ast/interpreter/internal/diagnostic"
	"github.com/arduino-ast/interpreter/internal/interp"
	"github.com/arduino-ast/interpreter/internal/provider"
)

// Options re-exports the interpreter's construction-time configuration
// (spec.md §6 "Configuration recognised at interpreter construction")
// so callers never need to import internal/interp directly.
type Options = interp.Options

// DefaultOptions returns the same defaults cmd/astinterp falls back to
// absent explicit flags.
func DefaultOptions() Options { return interp.DefaultOptions() }

// Provider is the synchronous external-value contract (spec.md §4.8).
type Provider = provider.Provider

// Interpreter wraps one decoded program and exactly one run of it
// (spec.md §6: "one interpreter, one run" — constructing a second Run
// requires a new Interpreter).
type Interpreter struct {
	in   *interp.Interpreter
	sink *command.MultiSink
	cb   *command.CallbackSink
}

// New decodes astBytes (the wire-format CompactAST payload spec.md §1
// defines) and returns an Interpreter ready for SetProvider/OnCommand
// then Start. verbose turns on per-statement zap tracing.
func New(astBytes []byte, opts Options, verbose bool) (*Interpreter, error) {
	log := diagnostic.New(verbose)
	cb := &command.CallbackSink{Fn: func(string) {}}
	multi := &command.MultiSink{Sinks: []command.Sink{cb}}

	in, err := interp.New(astBytes, opts, multi, log)
	if err != nil {
		return nil, err
	}
	return &Interpreter{in: in, sink: multi, cb: cb}, nil
}

// NewFromAST is New's variant for callers that already hold a decoded
// tree, skipping a second decode.
func NewFromAST(tree *compactast.Tree, opts Options, verbose bool) (*Interpreter, error) {
	log := diagnostic.New(verbose)
	cb := &command.CallbackSink{Fn: func(string) {}}
	multi := &command.MultiSink{Sinks: []command.Sink{cb}}

	in, err := interp.NewFromTree(tree, opts, multi, log)
	if err != nil {
		return nil, err
	}
	return &Interpreter{in: in, sink: multi, cb: cb}, nil
}

// SetProvider installs the synchronous external-value implementation
// (spec.md §6: "set_provider(impl)"). Safe to call at most once before
// Start; calling it again replaces the previous provider.
func (i *Interpreter) SetProvider(p Provider) { i.in.SetProvider(p) }

// OnCommand registers callback to receive every emitted NDJSON command
// line, in emission order (spec.md §6: "on_command(callback)"). Safe
// to call more than once: each callback receives every line.
func (i *Interpreter) OnCommand(callback func(line string)) {
	i.sink.Sinks = append(i.sink.Sinks, &command.CallbackSink{Fn: callback})
}

// AddSink attaches an additional raw Sink (e.g. a WebSocketSink or a
// file sink) alongside any OnCommand callbacks.
func (i *Interpreter) AddSink(s command.Sink) {
	i.sink.Sinks = append(i.sink.Sinks, s)
}

// HandleResponse fulfils a pending asynchronous external-value request
// (spec.md §6: "handle_response(request_id, value | error)"). Returns
// false if requestID has no matching in-flight request.
func (i *Interpreter) HandleResponse(requestID string, value int32, err error) bool {
	return i.in.HandleResponse(requestID, value, err)
}

// Start runs the program to completion: VERSION_INFO, PROGRAM_START,
// setup(), loop() repeated up to Options.MaxLoopIterations, then
// PROGRAM_END (spec.md §6: "start() -> Result<()>").
func (i *Interpreter) Start(ctx context.Context) error {
	return i.in.Start(ctx)
}

// Destroy drops any pending asynchronous requests and releases the
// interpreter (spec.md §6: "destroy()"). The Interpreter must not be
// reused after Destroy.
func (i *Interpreter) Destroy() { i.in.Destroy() }

// DecodeAST exposes the CompactAST decoder directly for callers (e.g.
// cmd/astinterp's dump-ast subcommand) that need to inspect a program
// before running it.
func DecodeAST(astBytes []byte) (*compactast.Tree, error) {
	return compactast.Decode(astBytes)
}
