package interp

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/arduino-ast/interpreter/internal/compactast"
	"github.com/arduino-ast/interpreter/internal/control"
	"github.com/arduino-ast/interpreter/internal/scope"
	"github.com/arduino-ast/interpreter/internal/value"
)

// execBlock runs every statement of the CompoundStatement at idx in
// order, stopping early the moment the active control frame (whichever
// loop/function/setup/loop-phase frame is Top()) records a non-Normal
// StopReason (spec.md §4.3: break/continue/return/iteration-limit all
// interrupt sequential execution at the point they occur).
func (in *Interpreter) execBlock(ctx context.Context, idx uint32) error {
	n, ok := in.tree.Node(idx)
	if !ok {
		_, err := in.internalError("block node %d out of range", idx)
		return err
	}
	for _, stmtIdx := range n.Named.Statements {
		if err := in.execStatement(ctx, stmtIdx); err != nil {
			if _, recovered := err.(*recoveredError); !recovered {
				return err
			}
		}
		if top := in.control.Top(); top != nil && top.StopReason != control.Normal {
			return nil
		}
	}
	return nil
}

// execBody runs a loop/if body that may be a single statement rather
// than a CompoundStatement (spec.md grammar permits braceless bodies).
func (in *Interpreter) execBody(ctx context.Context, idx uint32) error {
	n, ok := in.tree.Node(idx)
	if !ok {
		_, err := in.internalError("statement node %d out of range", idx)
		return err
	}
	if n.Kind == compactast.KindCompoundStatement {
		return in.execBlock(ctx, idx)
	}
	return in.execStatement(ctx, idx)
}

func (in *Interpreter) execStatement(ctx context.Context, idx uint32) error {
	n, ok := in.tree.Node(idx)
	if !ok {
		_, err := in.internalError("statement node %d out of range", idx)
		return err
	}
	in.log.Debug("executing statement", zap.Stringer("kind", n.Kind), zap.Int("scopeDepth", in.scopes.Depth()))

	switch n.Kind {
	case compactast.KindEmptyStatement, compactast.KindFuncDef,
		compactast.KindStructDeclaration, compactast.KindTypedefDeclaration:
		return nil

	case compactast.KindExpressionStatement:
		if len(n.Children) == 0 {
			return nil
		}
		_, err := in.evalExpr(ctx, n.Children[0])
		return err

	case compactast.KindCompoundStatement:
		in.scopes.Push(scope.Block)
		err := in.execBlock(ctx, idx)
		in.scopes.Pop()
		return err

	case compactast.KindVarDecl:
		return in.execVarDecl(ctx, n)

	case compactast.KindIf:
		return in.execIf(ctx, n)

	case compactast.KindFor:
		return in.execFor(ctx, n)

	case compactast.KindWhile:
		return in.execWhile(ctx, n)

	case compactast.KindDoWhile:
		return in.execDoWhile(ctx, n)

	case compactast.KindSwitch:
		return in.execSwitch(ctx, n)

	case compactast.KindBreak:
		in.emit.BreakStatement()
		if top := in.control.Top(); top != nil {
			top.StopReason = control.Break
		}
		return nil

	case compactast.KindContinue:
		in.emit.ContinueStatement()
		if top := in.control.Top(); top != nil {
			top.StopReason = control.Continue
		}
		return nil

	case compactast.KindReturn:
		var rv value.Value
		if len(n.Children) > 0 {
			v, err := in.evalExpr(ctx, n.Children[0])
			if err != nil {
				return err
			}
			rv = v
		}
		if top := in.control.Top(); top != nil {
			top.StopReason = control.Return
			top.ReturnValue = rv
		}
		return nil

	default:
		_, err := in.runtimeError("unsupported statement node kind %s", n.Kind)
		return err
	}
}

// execVarDecl implements VarDecl (spec.md §4.5): one type node plus one
// or more declarators, each of which may be a plain, pointer, array, or
// function-pointer declarator (this decoder's own declarator-kind
// convention — see DESIGN.md "Self-invented encoding conventions").
func (in *Interpreter) execVarDecl(ctx context.Context, n *compactast.Node) error {
	typeNode, ok := in.tree.Node(n.Named.TypeNode)
	if !ok {
		_, err := in.internalError("VarDecl missing type node")
		return err
	}
	rawType := typeNode.StrValue
	isConst := strings.HasPrefix(rawType, "const ")
	declaredType := strings.TrimPrefix(rawType, "const ")
	resolvedType := in.reg.resolveTypeName(declaredType)

	for _, declIdx := range n.Named.Declarators {
		declNode, ok := in.tree.Node(declIdx)
		if !ok {
			continue
		}
		idNode, ok := in.tree.Node(declNode.Named.Identifier)
		if !ok {
			continue
		}
		name := idNode.StrValue

		switch declNode.Kind {
		case compactast.KindArrayDeclarator:
			arr, err := in.buildArrayDeclarator(ctx, declNode, resolvedType)
			if err != nil {
				return err
			}
			in.scopes.Declare(name, declaredType+"[]", arr, isConst)
			in.emit.VarSet(name, arr)

		default: // plain, pointer, function-pointer declarators
			val := defaultForType(resolvedType)
			if len(declNode.Children) >= 2 {
				init, err := in.evalExpr(ctx, declNode.Children[0])
				if err != nil {
					return err
				}
				val = init
				if val.Kind != value.PointerHandle && val.Kind != value.FuncPointerHandle && val.Kind != value.StructHandle {
					val = castValue(val, resolvedType)
				}
			} else if resolvedType != "" {
				if st, isStruct := in.reg.structTypes[resolvedType]; isStruct {
					val = in.reg.newStruct(st.Name)
				}
			}
			in.scopes.Declare(name, declaredType, val, isConst)
			in.emit.VarSet(name, val)
		}
	}
	return nil
}

// buildArrayDeclarator implements ArrayDeclarator (this decoder's own
// convention): Children = [sizeExpr, elem0, elem1, ..., identifier].
// Extra children beyond sizeExpr and the trailing identifier are an
// explicit initializer list; the array is padded to sizeExpr's value
// with the element type's default when the initializer list is shorter.
func (in *Interpreter) buildArrayDeclarator(ctx context.Context, declNode *compactast.Node, resolvedType string) (value.Value, error) {
	c := declNode.Children
	if len(c) < 2 {
		return in.runtimeError("array declarator missing size and identifier")
	}
	sizeVal, err := in.evalExpr(ctx, c[0])
	if err != nil {
		return value.NullValue(), err
	}
	size, _ := sizeVal.AsI32()
	if size < 0 {
		size = 0
	}

	initIdx := c[1 : len(c)-1]
	elems := make([]value.Value, 0, len(initIdx))
	for _, eIdx := range initIdx {
		v, err := in.evalExpr(ctx, eIdx)
		if err != nil {
			return value.NullValue(), err
		}
		elems = append(elems, v)
	}

	length := int(size)
	if len(elems) > length {
		length = len(elems)
	}

	switch resolvedType {
	case "float", "double":
		out := make([]float64, length)
		for i, v := range elems {
			out[i], _ = v.AsF64()
		}
		return value.Value{Kind: value.Arr1F64, ArrF: out}, nil
	case "String", "string":
		out := make([]string, length)
		for i, v := range elems {
			out[i] = v.Display()
		}
		return value.Value{Kind: value.Arr1Str, ArrS: out}, nil
	default:
		out := make([]int32, length)
		for i, v := range elems {
			out[i], _ = v.AsI32()
		}
		return value.Value{Kind: value.Arr1I32, ArrI: out}, nil
	}
}

func (in *Interpreter) execIf(ctx context.Context, n *compactast.Node) error {
	cond, err := in.evalExpr(ctx, n.Named.Condition)
	if err != nil {
		return err
	}
	if cond.Truthy() {
		return in.execBody(ctx, n.Named.Then)
	}
	if n.Named.HasElse {
		return in.execBody(ctx, n.Named.Else)
	}
	return nil
}

// isEmptyExpr reports a For loop's omitted condition/update slot
// (spec.md's grammar permits `for(;;)`); the parser encodes an omitted
// slot as an EmptyStatement placeholder.
func (in *Interpreter) isEmptyExpr(idx uint32) bool {
	n, ok := in.tree.Node(idx)
	return ok && n.Kind == compactast.KindEmptyStatement
}

func (in *Interpreter) execFor(ctx context.Context, n *compactast.Node) error {
	in.scopes.Push(scope.Block)
	defer in.scopes.Pop()

	if err := in.execStatement(ctx, n.Named.Init); err != nil {
		return err
	}

	frame := in.control.PushLoopBody(control.ScopeLoop)
	for {
		cont := true
		if !in.isEmptyExpr(n.Named.Condition) {
			condVal, err := in.evalExpr(ctx, n.Named.Condition)
			if err != nil {
				in.control.Pop()
				return err
			}
			cont = condVal.Truthy()
		}
		if !cont {
			break
		}

		if frame.Tick() > in.opts.MaxLoopIterations {
			phase := in.control.EnclosingPhase()
			in.emit.LoopLimitReached(string(phase), frame.Iterations()-1, "for-loop iteration limit reached")
			frame.StopReason = control.IterationLimit
			frame.ContinueInParent = phase == control.ScopeSetup
			break
		}

		if err := in.execBody(ctx, n.Named.Body); err != nil {
			in.control.Pop()
			return err
		}
		if stop := in.stepLoopControl(frame); stop {
			break
		}

		if !in.isEmptyExpr(n.Named.Update) {
			if _, err := in.evalExpr(ctx, n.Named.Update); err != nil {
				in.control.Pop()
				return err
			}
		}
	}

	popped := in.control.Pop()
	in.propagateStop(popped)
	return nil
}

func (in *Interpreter) execWhile(ctx context.Context, n *compactast.Node) error {
	frame := in.control.PushLoopBody(control.ScopeLoop)
	for {
		condVal, err := in.evalExpr(ctx, n.Named.Condition)
		if err != nil {
			in.control.Pop()
			return err
		}
		if !condVal.Truthy() {
			break
		}

		if frame.Tick() > in.opts.MaxLoopIterations {
			phase := in.control.EnclosingPhase()
			in.emit.LoopLimitReached(string(phase), frame.Iterations()-1, "while-loop iteration limit reached")
			frame.StopReason = control.IterationLimit
			frame.ContinueInParent = phase == control.ScopeSetup
			break
		}

		if err := in.execBody(ctx, n.Named.Body); err != nil {
			in.control.Pop()
			return err
		}
		if stop := in.stepLoopControl(frame); stop {
			break
		}
	}

	popped := in.control.Pop()
	in.propagateStop(popped)
	return nil
}

func (in *Interpreter) execDoWhile(ctx context.Context, n *compactast.Node) error {
	frame := in.control.PushLoopBody(control.ScopeLoop)
	for {
		if frame.Tick() > in.opts.MaxLoopIterations {
			phase := in.control.EnclosingPhase()
			in.emit.LoopLimitReached(string(phase), frame.Iterations()-1, "do-while iteration limit reached")
			frame.StopReason = control.IterationLimit
			frame.ContinueInParent = phase == control.ScopeSetup
			break
		}

		if err := in.execBody(ctx, n.Named.Body); err != nil {
			in.control.Pop()
			return err
		}
		if stop := in.stepLoopControl(frame); stop {
			break
		}

		condVal, err := in.evalExpr(ctx, n.Named.Condition)
		if err != nil {
			in.control.Pop()
			return err
		}
		if !condVal.Truthy() {
			break
		}
	}

	popped := in.control.Pop()
	in.propagateStop(popped)
	return nil
}

// stepLoopControl absorbs Break (stop the loop) and Continue (advance
// to the next pass) against frame, reporting whether the loop must
// stop. Return and IterationLimit are left on frame for propagateStop
// to forward once the loop has been popped.
func (in *Interpreter) stepLoopControl(frame *control.Frame) (stop bool) {
	switch frame.StopReason {
	case control.Break:
		frame.StopReason = control.Normal
		return true
	case control.Return, control.IterationLimit:
		return true
	case control.Continue:
		frame.StopReason = control.Normal
		return false
	default:
		return false
	}
}

// propagateStop forwards a Return or non-absorbed IterationLimit signal
// from a just-popped loop frame to whichever frame is now Top(), so the
// enclosing execBlock's post-statement check (and, transitively, any
// loop nesting further out) also stops (spec.md §4.3: "return unwinds
// through every enclosing construct to the function that owns it").
func (in *Interpreter) propagateStop(frame *control.Frame) {
	if frame == nil {
		return
	}
	if frame.StopReason == control.Return {
		if top := in.control.Top(); top != nil {
			top.StopReason = control.Return
			top.ReturnValue = frame.ReturnValue
		}
		return
	}
	in.propagateIterationLimit(frame)
}

// propagateIterationLimit forwards a just-popped frame's IterationLimit
// onto the new Top(), continuing the unwind toward the program's exit,
// unless frame.ContinueInParent absorbs it here (spec.md §4.3's
// phase-aware cap policy: a cap hit inside setup() only stops the loop
// that hit it, letting setup()'s remaining statements run; a cap hit
// anywhere reachable from loop() terminates the program, unwinding
// through any nested constructs and function calls in between).
func (in *Interpreter) propagateIterationLimit(frame *control.Frame) {
	if frame == nil || frame.StopReason != control.IterationLimit || frame.ContinueInParent {
		return
	}
	if top := in.control.Top(); top != nil {
		top.StopReason = control.IterationLimit
		top.ContinueInParent = false
	}
}

// execSwitch implements fall-through switch/case (spec.md §4.5):
// the first case whose test equals the discriminant (or `default` if
// none matches) starts execution, falling through every following case
// until a `break` is hit or the cases run out. Switch never pushes its
// own control frame — `break` is recognised and absorbed here directly
// off the active (enclosing) frame so it does not leak out to an
// enclosing loop; `continue`/`return` are left untouched to bubble.
func (in *Interpreter) execSwitch(ctx context.Context, n *compactast.Node) error {
	discriminant, err := in.evalExpr(ctx, n.Named.Discriminant)
	if err != nil {
		return err
	}
	in.emit.SwitchStatement(discriminant)

	start, defaultAt := -1, -1
	for i, caseIdx := range n.Named.Cases {
		caseNode, ok := in.tree.Node(caseIdx)
		if !ok {
			continue
		}
		if caseNode.IsDefaultCase() {
			defaultAt = i
			continue
		}
		testVal, err := in.evalExpr(ctx, caseNode.Named.Test)
		if err != nil {
			return err
		}
		eq, err := value.Arith(value.OpEq, discriminant, testVal)
		if err != nil {
			return err
		}
		if eq.Truthy() {
			start = i
			break
		}
	}
	if start < 0 {
		start = defaultAt
	}
	if start < 0 {
		return nil
	}

	in.scopes.Push(scope.Block)
	defer in.scopes.Pop()

	for i := start; i < len(n.Named.Cases); i++ {
		caseNode, ok := in.tree.Node(n.Named.Cases[i])
		if !ok {
			continue
		}
		caseVal := value.NullValue()
		if !caseNode.IsDefaultCase() {
			caseVal, _ = in.evalExpr(ctx, caseNode.Named.Test)
		}
		in.emit.SwitchCase(caseVal)

		for _, stmtIdx := range caseNode.Named.Consequent {
			if err := in.execStatement(ctx, stmtIdx); err != nil {
				return err
			}
			if top := in.control.Top(); top != nil && top.StopReason != control.Normal {
				break
			}
		}

		top := in.control.Top()
		if top == nil {
			continue
		}
		switch top.StopReason {
		case control.Break:
			top.StopReason = control.Normal
			return nil
		case control.Return, control.Continue, control.IterationLimit:
			return nil
		}
	}
	return nil
}
