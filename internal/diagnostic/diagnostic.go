// Package diagnostic centralises construction of the interpreter's
// zap.Logger, the ambient-stack replacement for the teacher's
// conditional stdout debug printing (KTStephano-GVM vm/run.go's
// printCurrentState, gated by a bool passed into NewVirtualMachine).
// Here the gate is a logger level rather than a separate code path: a
// Nop logger costs nothing per spec.md §9's "zero-overhead stub when
// disabled" note, while a verbose logger traces per-statement.
package diagnostic

import "go.uber.org/zap"

// New builds a logger appropriate for verbose setting. Non-verbose
// runs get zap.NewNop() (no allocation, no I/O); verbose runs get a
// development console logger at Debug level.
func New(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
