package compactast

import "github.com/pkg/errors"

// These sentinels are the failure modes spec.md §4.1 requires verbatim;
// every decode error wraps one of them so callers can type-switch with
// errors.Is while still getting a contextual message (grounded on the
// teacher's errcode-sentinel propagation in vm/vm.go, generalized with
// github.com/pkg/errors wrapping instead of a bare VM-wide error field).
var (
	ErrInvalidMagic          = errors.New("invalid magic")
	ErrUnsupportedVersion    = errors.New("unsupported version")
	ErrTruncated             = errors.New("truncated data")
	ErrStringIndexOutOfRange = errors.New("string index out of range")
	ErrChildIndexOutOfRange  = errors.New("child index out of range")
	ErrUnknownNodeKind       = errors.New("unknown node kind")
)
