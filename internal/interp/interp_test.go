package interp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arduino-ast/interpreter/internal/command"
	"github.com/arduino-ast/interpreter/internal/compactast"
)

func mustBuild(t *testing.T, b *compactast.Builder) *compactast.Tree {
	t.Helper()
	tree, err := b.Build()
	require.NoError(t, err)
	return tree
}

func runProgram(t *testing.T, tree *compactast.Tree, opts Options) []string {
	t.Helper()
	sink := command.NewBufferSink()
	in, err := NewFromTree(tree, opts, sink, nil)
	require.NoError(t, err)
	require.NoError(t, in.Start(context.Background()))
	return sink.Lines()
}

func countLinesOf(lines []string, kind string) int {
	return countLinesContaining(lines, `"type":"`+kind+`"`)
}

func countLinesContaining(lines []string, needle string) int {
	n := 0
	for _, l := range lines {
		if strings.Contains(l, needle) {
			n++
		}
	}
	return n
}

func TestSetupLoopLifecycle(t *testing.T) {
	b := compactast.NewBuilder()

	pinModeCall := b.FuncCall(b.Identifier("pinMode"), b.IntLiteral(13), b.Identifier("OUTPUT"))
	setupBody := b.Compound(b.ExprStatement(pinModeCall))
	setup := b.FuncDef("void", "setup", setupBody)

	writeCall := b.FuncCall(b.Identifier("digitalWrite"), b.IntLiteral(13), b.Identifier("HIGH"))
	loopBody := b.Compound(b.ExprStatement(writeCall))
	loop := b.FuncDef("void", "loop", loopBody)

	b.Program(setup, loop)
	tree := mustBuild(t, b)

	opts := DefaultOptions()
	opts.MaxLoopIterations = 2
	lines := runProgram(t, tree, opts)

	require.Equal(t, 1, countLinesOf(lines, "VERSION_INFO"))
	require.Equal(t, 1, countLinesOf(lines, "PROGRAM_START"))
	require.Equal(t, 1, countLinesOf(lines, "SETUP_START"))
	require.Equal(t, 1, countLinesOf(lines, "SETUP_END"))
	require.Equal(t, 2, countLinesOf(lines, "LOOP_START"))
	require.Equal(t, 2, countLinesOf(lines, "LOOP_END"))
	require.Equal(t, 1, countLinesOf(lines, "PROGRAM_END"))
	require.Equal(t, 1, countLinesOf(lines, "PIN_MODE"))
	require.Equal(t, 2, countLinesOf(lines, "DIGITAL_WRITE"))
}

func TestVarDeclAssignmentAndCompound(t *testing.T) {
	b := compactast.NewBuilder()

	initExpr := b.IntLiteral(5)
	decl := b.VarDecl(b.TypeNode("int"), b.Declarator("x", &initExpr))

	assignExpr := b.BinaryOp("+=", b.Identifier("x"), b.IntLiteral(10))
	assignStmt := b.ExprStatement(assignExpr)

	setupBody := b.Compound(decl, assignStmt)
	setup := b.FuncDef("void", "setup", setupBody)

	b.Program(setup)
	tree := mustBuild(t, b)

	opts := DefaultOptions()
	opts.MaxLoopIterations = 0
	lines := runProgram(t, tree, opts)

	require.Equal(t, 2, countLinesOf(lines, "VAR_SET"))
	found15 := false
	for _, l := range lines {
		if strings.Contains(l, `"variable":"x"`) && strings.Contains(l, `"value":15`) {
			found15 = true
		}
	}
	require.True(t, found15, "expected x to be 15 after += 10, got: %v", lines)
}

func TestIfElseBranching(t *testing.T) {
	b := compactast.NewBuilder()

	initExpr := b.IntLiteral(0)
	decl := b.VarDecl(b.TypeNode("int"), b.Declarator("flag", &initExpr))

	cond := b.BinaryOp("==", b.IntLiteral(1), b.IntLiteral(1))
	thenAssign := b.ExprStatement(b.BinaryOp("=", b.Identifier("flag"), b.IntLiteral(1)))
	elseAssign := b.ExprStatement(b.BinaryOp("=", b.Identifier("flag"), b.IntLiteral(2)))
	thenBlock := b.Compound(thenAssign)
	elseBlock := b.Compound(elseAssign)
	ifStmt := b.If(cond, thenBlock, int64(elseBlock))

	setupBody := b.Compound(decl, ifStmt)
	setup := b.FuncDef("void", "setup", setupBody)
	b.Program(setup)
	tree := mustBuild(t, b)

	opts := DefaultOptions()
	opts.MaxLoopIterations = 0
	lines := runProgram(t, tree, opts)

	found := false
	for _, l := range lines {
		if strings.Contains(l, `"variable":"flag"`) && strings.Contains(l, `"value":1`) {
			found = true
		}
		require.NotContains(t, l, `"value":2`)
	}
	require.True(t, found)
}

func TestForLoopBreakAndContinue(t *testing.T) {
	b := compactast.NewBuilder()

	zero := b.IntLiteral(0)
	decl := b.VarDecl(b.TypeNode("int"), b.Declarator("i", &zero))
	sumInit := b.IntLiteral(0)
	sumDecl := b.VarDecl(b.TypeNode("int"), b.Declarator("sum", &sumInit))

	cond := b.BinaryOp("<", b.Identifier("i"), b.IntLiteral(10))
	update := b.Postfix("++", b.Identifier("i"))

	skipCond := b.BinaryOp("==", b.Identifier("i"), b.IntLiteral(2))
	skipIf := b.If(skipCond, b.Compound(b.Continue()), -1)

	stopCond := b.BinaryOp("==", b.Identifier("i"), b.IntLiteral(5))
	stopIf := b.If(stopCond, b.Compound(b.Break()), -1)

	addSum := b.ExprStatement(b.BinaryOp("+=", b.Identifier("sum"), b.Identifier("i")))
	body := b.Compound(skipIf, stopIf, addSum)

	forStmt := b.For(b.ExprStatement(b.BinaryOp("=", b.Identifier("i"), zero)), cond, update, body)

	setupBody := b.Compound(decl, sumDecl, forStmt)
	setup := b.FuncDef("void", "setup", setupBody)
	b.Program(setup)
	tree := mustBuild(t, b)

	opts := DefaultOptions()
	opts.MaxLoopIterations = 20
	lines := runProgram(t, tree, opts)

	// i runs 0,1,2(skip),3,4 then breaks at 5: sum = 0+1+3+4 = 8.
	found := false
	for _, l := range lines {
		if strings.Contains(l, `"variable":"sum"`) && strings.Contains(l, `"value":8`) {
			found = true
		}
	}
	require.True(t, found, "expected sum==8, lines: %v", lines)
}

func TestUserFunctionCallAndReturn(t *testing.T) {
	b := compactast.NewBuilder()

	addReturn := b.Identifier("a")
	sumExpr := b.BinaryOp("+", b.Identifier("a"), b.Identifier("b"))
	addBody := b.Compound(b.Return(&sumExpr))
	_ = addReturn
	add := b.FuncDef("int", "add", addBody, [2]string{"a", "int"}, [2]string{"b", "int"})

	callExpr := b.FuncCall(b.Identifier("add"), b.IntLiteral(3), b.IntLiteral(4))
	decl := b.VarDecl(b.TypeNode("int"), b.Declarator("result", &callExpr))
	setupBody := b.Compound(decl)
	setup := b.FuncDef("void", "setup", setupBody)

	b.Program(add, setup)
	tree := mustBuild(t, b)

	opts := DefaultOptions()
	opts.MaxLoopIterations = 0
	lines := runProgram(t, tree, opts)

	found := false
	for _, l := range lines {
		if strings.Contains(l, `"variable":"result"`) && strings.Contains(l, `"value":7`) {
			found = true
		}
	}
	require.True(t, found, "expected result==7, lines: %v", lines)
}

func TestSwitchFallthroughAndBreak(t *testing.T) {
	b := compactast.NewBuilder()

	zero := b.IntLiteral(0)
	decl := b.VarDecl(b.TypeNode("int"), b.Declarator("out", &zero))

	addOne := b.ExprStatement(b.BinaryOp("+=", b.Identifier("out"), b.IntLiteral(1)))
	addTen := b.ExprStatement(b.BinaryOp("+=", b.Identifier("out"), b.IntLiteral(10)))
	caseOne := b.Case(b.IntLiteral(1), addOne)
	caseTwo := b.Case(b.IntLiteral(2), addTen, b.Break())
	defCase := b.DefaultCase(b.ExprStatement(b.BinaryOp("=", b.Identifier("out"), b.IntLiteral(99))))

	switchStmt := b.Switch(b.IntLiteral(1), caseOne, caseTwo, defCase)

	setupBody := b.Compound(decl, switchStmt)
	setup := b.FuncDef("void", "setup", setupBody)
	b.Program(setup)
	tree := mustBuild(t, b)

	opts := DefaultOptions()
	opts.MaxLoopIterations = 0
	lines := runProgram(t, tree, opts)

	// case 1 matches and falls through into case 2, whose break stops before default: out = 0+1+10 = 11.
	found := false
	for _, l := range lines {
		if strings.Contains(l, `"variable":"out"`) && strings.Contains(l, `"value":11`) {
			found = true
		}
	}
	require.True(t, found, "expected out==11 from fallthrough, lines: %v", lines)
	require.Equal(t, 1, countLinesOf(lines, "SWITCH_STATEMENT"))
}

func TestUnknownFunctionEmitsErrorAndReturnsNull(t *testing.T) {
	b := compactast.NewBuilder()

	call := b.FuncCall(b.Identifier("notARealFunction"), b.IntLiteral(1))
	decl := b.VarDecl(b.TypeNode("int"), b.Declarator("r", &call))
	setupBody := b.Compound(decl)
	setup := b.FuncDef("void", "setup", setupBody)
	b.Program(setup)
	tree := mustBuild(t, b)

	opts := DefaultOptions()
	opts.MaxLoopIterations = 0
	lines := runProgram(t, tree, opts)

	require.Equal(t, 1, countLinesOf(lines, "ERROR"))
}

func TestPointerAddressOfAndDereference(t *testing.T) {
	b := compactast.NewBuilder()

	fiveExpr := b.IntLiteral(5)
	decl := b.VarDecl(b.TypeNode("int"), b.Declarator("x", &fiveExpr))

	addrOfX := b.UnaryOp("&", b.Identifier("x"))
	ptrDecl := b.VarDecl(b.TypeNode("int*"), b.PointerDeclarator("p", &addrOfX))

	writeThroughPtr := b.ExprStatement(b.BinaryOp("=", b.UnaryOp("*", b.Identifier("p")), b.IntLiteral(42)))

	setupBody := b.Compound(decl, ptrDecl, writeThroughPtr)
	setup := b.FuncDef("void", "setup", setupBody)
	b.Program(setup)
	tree := mustBuild(t, b)

	opts := DefaultOptions()
	opts.MaxLoopIterations = 0
	lines := runProgram(t, tree, opts)

	found := false
	for _, l := range lines {
		if strings.Contains(l, `"variable":"x"`) && strings.Contains(l, `"value":42`) {
			found = true
		}
	}
	require.True(t, found, "expected x==42 after write through pointer, lines: %v", lines)
}

// TestIterationCapPhasePolicy exercises the phase-aware cap policy
// (spec.md §4.3): two independent non-terminating while loops in
// setup() each hit the cap and are absorbed there, letting the rest of
// setup() run; the non-terminating while loop in loop() hits the cap
// too, but since continue_in_parent is false there it unwinds all the
// way out and ends the program after exactly one loop() pass.
func TestIterationCapPhasePolicy(t *testing.T) {
	b := compactast.NewBuilder()

	loopA := b.While(b.BoolLiteral(true), b.Compound())
	loopB := b.While(b.BoolLiteral(true), b.Compound())
	one := b.IntLiteral(1)
	marker := b.VarDecl(b.TypeNode("int"), b.Declarator("setupDone", &one))
	setupBody := b.Compound(loopA, loopB, marker)
	setup := b.FuncDef("void", "setup", setupBody)

	loopLoop := b.While(b.BoolLiteral(true), b.Compound())
	loopBody := b.Compound(loopLoop)
	loopFn := b.FuncDef("void", "loop", loopBody)

	b.Program(setup, loopFn)
	tree := mustBuild(t, b)

	opts := DefaultOptions()
	opts.MaxLoopIterations = 3
	lines := runProgram(t, tree, opts)

	require.Equal(t, 3, countLinesOf(lines, "LOOP_LIMIT_REACHED"))
	require.Equal(t, 2, countLinesContaining(lines, `"phase":"setup"`))
	require.Equal(t, 1, countLinesContaining(lines, `"phase":"loop"`))
	require.Equal(t, 1, countLinesOf(lines, "SETUP_END"))
	require.Equal(t, 1, countLinesOf(lines, "LOOP_START"))
	require.Equal(t, 1, countLinesOf(lines, "LOOP_END"))
	require.Equal(t, 1, countLinesOf(lines, "PROGRAM_END"))

	found := false
	for _, l := range lines {
		if strings.Contains(l, `"variable":"setupDone"`) {
			found = true
		}
	}
	require.True(t, found, "expected setup() to continue past both capped loops, lines: %v", lines)
}
