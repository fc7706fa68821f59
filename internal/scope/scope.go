// Package scope implements the variable scope stack described in
// spec.md §3.2 and §4.2: an insertion-ordered, shadowing stack of named
// scopes. The teacher (KTStephano-GVM) addresses storage by a flat
// register file (vm/vm.go's [32]register); here the addressing is by
// name instead of index, but the "stack of frames, push on entry, pop on
// exit, walk down on lookup" discipline is the same one the teacher
// applies to its call/stack-pointer bookkeeping.
package scope

import (
	"github.com/pkg/errors"

	"github.com/arduino-ast/interpreter/internal/value"
)

// Kind identifies what kind of construct pushed a scope, mirroring the
// execution-control stack's scope_kind (spec.md §3.6). The two stacks
// are pushed independently, so their depths need not match.
type Kind string

const (
	Program  Kind = "program"
	Setup    Kind = "setup"
	Loop     Kind = "loop"
	Function Kind = "function"
	Block    Kind = "block"
)

// Variable is {name, declared_type, value, is_const} (spec.md §3.2).
type Variable struct {
	Name         string
	DeclaredType string
	Value        value.Value
	IsConst      bool
	Initialised  bool
}

// ErrConstWrite is returned by Set when the target variable is const.
var ErrConstWrite = errors.New("write to const variable")

// ErrUndefined is returned by Set when no scope defines the name (Get
// reports a miss with its boolean result instead).
var ErrUndefined = errors.New("undefined variable")

type frame struct {
	kind Kind
	// order records the frame's variable names in insertion order;
	// nothing in this package reads it back.
	order []string
	vars  map[string]*Variable
}

func newFrame(kind Kind) *frame {
	return &frame{kind: kind, vars: make(map[string]*Variable)}
}

// Stack is the LIFO scope stack (spec.md §3.2).
type Stack struct {
	frames []*frame
}

// New returns a stack seeded with a single Program-kind base scope. The
// caller (interpreter construction) seeds Arduino pin/mode constants and
// keyboard constants into this base scope before execution begins, per
// spec.md §4.2.
func New() *Stack {
	s := &Stack{}
	s.Push(Program)
	return s
}

// Push enters a new scope of the given kind.
func (s *Stack) Push(kind Kind) {
	s.frames = append(s.frames, newFrame(kind))
}

// Pop exits the innermost scope. Called on every exit path, including
// error unwinding (spec.md §3.2).
func (s *Stack) Pop() {
	if len(s.frames) == 0 {
		return
	}
	s.frames = s.frames[:len(s.frames)-1]
}

// Depth returns the number of currently active scopes.
func (s *Stack) Depth() int { return len(s.frames) }

// TopKind returns the kind of the innermost scope.
func (s *Stack) TopKind() Kind {
	if len(s.frames) == 0 {
		return Program
	}
	return s.frames[len(s.frames)-1].kind
}

// Declare creates name in the top scope only, shadowing any same-named
// variable further down the stack (spec.md §4.2).
func (s *Stack) Declare(name, declaredType string, val value.Value, isConst bool) *Variable {
	top := s.frames[len(s.frames)-1]
	v := &Variable{Name: name, DeclaredType: declaredType, Value: val, IsConst: isConst, Initialised: true}
	if _, exists := top.vars[name]; !exists {
		top.order = append(top.order, name)
	}
	top.vars[name] = v
	return v
}

// Get walks from the innermost scope outward and returns the first
// variable matching name.
func (s *Stack) Get(name string) (*Variable, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i].vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set walks down the stack to the first scope defining name and
// overwrites its value. Fails with ErrUndefined if no scope defines it,
// or ErrConstWrite if the match is const (spec.md §4.2).
func (s *Stack) Set(name string, val value.Value) error {
	v, ok := s.Get(name)
	if !ok {
		return errors.Wrapf(ErrUndefined, "variable %q", name)
	}
	if v.IsConst {
		return errors.Wrapf(ErrConstWrite, "variable %q", name)
	}
	v.Value = val
	return nil
}

// Exists reports whether name is visible from the current scope.
func (s *Stack) Exists(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// MarkInitialised flips the Initialised bit without changing the value,
// used when a declarator has no initialiser but still needs to record
// that declaration completed.
func (s *Stack) MarkInitialised(name string) {
	if v, ok := s.Get(name); ok {
		v.Initialised = true
	}
}
