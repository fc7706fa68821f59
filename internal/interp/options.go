package interp

import "time"

// Options mirrors spec.md §6's "Configuration recognised at
// interpreter construction", populated by struct literal for embedders
// (pkg/astinterp) and by CLI flags for cmd/astinterp (via
// github.com/urfave/cli/v2), replacing the teacher's raw flag/os.Args
// parsing in its legacy main.go.
type Options struct {
	// MaxLoopIterations guards every loop construct (spec.md §5); the
	// default is deliberately small so hosted runs terminate quickly.
	MaxLoopIterations uint32

	// Verbose asks for zap Debug-level per-statement tracing (the
	// generalization of the teacher's RunProgramDebugMode stepping).
	// pkg/astinterp and cmd/astinterp use it to pick a Debug-level
	// logger; the interpreter itself traces every statement and emitted
	// command to whatever logger New receives.
	Verbose bool

	// SyncMode selects the synchronous-provider external-value
	// contract; false selects asynchronous-request mode (spec.md §4.8).
	SyncMode bool

	// DebugOutput mirrors the source's separate debug_output toggle
	// (spec.md §6). The interpreter accepts it but does not read it:
	// tracing depends only on the logger passed to New.
	DebugOutput bool

	// ExternalValueTimeoutMS bounds an asynchronous request's wait
	// (spec.md §4.8, default 5000).
	ExternalValueTimeoutMS uint32

	// EmitArrayElementSet turns on the optional ARRAY_ELEMENT_SET
	// command for array-index writes (SPEC_FULL.md §3, resolving
	// spec.md §9's third open question). Default false.
	EmitArrayElementSet bool

	// Version is reported in the VERSION_INFO preamble.
	Version string
}

// DefaultOptions returns the spec's stated defaults (spec.md §5, §4.8).
func DefaultOptions() Options {
	return Options{
		MaxLoopIterations:      3,
		SyncMode:               true,
		ExternalValueTimeoutMS: 5000,
		Version:                "1.0.0",
	}
}

func (o Options) timeout() time.Duration {
	ms := o.ExternalValueTimeoutMS
	if ms == 0 {
		ms = 5000
	}
	return time.Duration(ms) * time.Millisecond
}
