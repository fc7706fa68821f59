package interp

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/arduino-ast/interpreter/internal/builtins"
	"github.com/arduino-ast/interpreter/internal/command"
	"github.com/arduino-ast/interpreter/internal/compactast"
	"github.com/arduino-ast/interpreter/internal/control"
	"github.com/arduino-ast/interpreter/internal/provider"
	"github.com/arduino-ast/interpreter/internal/scope"
)

// Interpreter is the tree-walking evaluator described across spec.md
// §4.4-§4.7: one AST, one scope stack, one execution-control stack,
// one command sink, for exactly one run (spec.md §6 Host API: "one
// interpreter, one run"). Grounded on the teacher's VirtualMachine
// struct (KTStephano-GVM vm/vm.go), which bundles registers, stack,
// stdout/stdin and an errcode the same way this struct bundles scopes,
// control frames and a command emitter — generalized from a flat
// register file to named variable scopes and from a byte-code program
// counter to a tree-node index.
type Interpreter struct {
	tree *compactast.Tree

	scopes  *scope.Stack
	control *control.Stack
	emit    *command.Emitter
	log     *zap.Logger
	opts    Options
	reg     *registries
	fns     *builtins.Registry

	prov   provider.Provider
	broker *provider.AsyncBroker
}

// New decodes astBytes into a linked Tree and constructs an
// Interpreter ready to Start. Top-level FuncDef/StructDeclaration/
// TypedefDeclaration statements are registered but not executed
// (spec.md §4.5: "Typedefs and struct declarations mutate registries
// only"); setup/loop are located by name for the top-level runner.
func New(astBytes []byte, opts Options, sink command.Sink, log *zap.Logger) (*Interpreter, error) {
	tree, err := compactast.Decode(astBytes)
	if err != nil {
		return nil, errors.Wrap(err, "decoding CompactAST")
	}
	return NewFromTree(tree, opts, sink, log)
}

// NewFromTree builds an Interpreter from an already-decoded Tree,
// letting New and tests share construction without re-encoding.
func NewFromTree(tree *compactast.Tree, opts Options, sink command.Sink, log *zap.Logger) (*Interpreter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	in := &Interpreter{
		tree:    tree,
		scopes:  scope.New(),
		control: control.NewStack(),
		log:     log,
		opts:    opts,
		reg:     newRegistries(),
		fns:     builtins.NewRegistry(),
		broker:  provider.NewAsyncBroker(opts.timeout()),
	}
	in.emit = command.NewEmitter(sink, log, in.reg.StructRenderer)

	seedConstants(in.scopes)

	if err := in.registerTopLevel(); err != nil {
		return nil, errors.Wrap(err, "registering top-level declarations")
	}
	return in, nil
}

// SetProvider installs the synchronous-provider implementation (spec.md
// §6 Host API: set_provider(impl)).
func (in *Interpreter) SetProvider(p provider.Provider) { in.prov = p }

// HandleResponse fulfils a pending asynchronous request (spec.md §6
// Host API: handle_response(request_id, value | error)).
func (in *Interpreter) HandleResponse(requestID string, v int32, err error) bool {
	return in.broker.HandleResponse(requestID, v, err)
}

// Destroy tears the interpreter down, dropping any pending async
// requests so no goroutine is left awaiting a response forever
// (spec.md §5: "must drop pending requests and stop emission cleanly").
func (in *Interpreter) Destroy() {
	in.broker.Cancel()
}

func (in *Interpreter) registerTopLevel() error {
	root, ok := in.tree.Root()
	if !ok {
		return nil
	}
	for _, idx := range root.Named.Statements {
		n, ok := in.tree.Node(idx)
		if !ok {
			continue
		}
		switch n.Kind {
		case compactast.KindFuncDef:
			if err := in.registerFuncDef(n); err != nil {
				return err
			}
		case compactast.KindStructDeclaration:
			in.registerStructDeclaration(n)
		case compactast.KindTypedefDeclaration:
			in.registerTypedef(n)
		}
	}
	return nil
}

func (in *Interpreter) registerFuncDef(n *compactast.Node) error {
	declNode, ok := in.tree.Node(n.Named.Declarator)
	if !ok {
		return errors.New("FuncDef missing declarator")
	}
	idNode, ok := in.tree.Node(declNode.Named.Identifier)
	if !ok {
		return errors.New("FuncDef declarator missing identifier")
	}
	name := idNode.StrValue

	retTypeNode, _ := in.tree.Node(n.Named.ReturnType)
	retType := ""
	if retTypeNode != nil {
		retType = retTypeNode.StrValue
	}

	var paramNames, paramTypes []string
	for _, pIdx := range declNode.Children[:len(declNode.Children)-1] {
		pNode, ok := in.tree.Node(pIdx)
		if !ok {
			continue
		}
		pIDNode, ok := in.tree.Node(pNode.Named.Identifier)
		if !ok {
			continue
		}
		paramNames = append(paramNames, pIDNode.StrValue)
		paramTypes = append(paramTypes, pNode.StrValue)
	}

	in.reg.funcs[name] = &funcDef{
		Name: name, ParamNames: paramNames, ParamTypes: paramTypes,
		ReturnType: retType, BodyNode: n.Named.Body,
	}
	return nil
}

func (in *Interpreter) registerStructDeclaration(n *compactast.Node) {
	nameNode, ok := in.tree.Node(n.Named.NameNode)
	if !ok {
		return
	}
	st := &structType{Name: nameNode.StrValue}
	for _, memberIdx := range n.Named.MemberDecls {
		memberNode, ok := in.tree.Node(memberIdx)
		if !ok || memberNode.Kind != compactast.KindVarDecl {
			continue
		}
		typeNode, _ := in.tree.Node(memberNode.Named.TypeNode)
		fieldType := ""
		if typeNode != nil {
			fieldType = typeNode.StrValue
		}
		for _, declIdx := range memberNode.Named.Declarators {
			declNode, ok := in.tree.Node(declIdx)
			if !ok {
				continue
			}
			idNode, ok := in.tree.Node(declNode.Named.Identifier)
			if !ok {
				continue
			}
			st.Fields = append(st.Fields, fieldDecl{Name: idNode.StrValue, Type: fieldType})
		}
	}
	in.reg.structTypes[st.Name] = st
}

func (in *Interpreter) registerTypedef(n *compactast.Node) {
	// TypedefDeclaration: StrValue carries the alias name, single
	// child resolves to the underlying type's Identifier node.
	if len(n.Children) == 0 {
		return
	}
	underlying, ok := in.tree.Node(n.Children[0])
	if !ok {
		return
	}
	in.reg.typedefs[n.StrValue] = underlying.StrValue
}

// Start runs the program to completion: VERSION_INFO, PROGRAM_START,
// one setup() call, loop() repeated up to MaxLoopIterations, then
// PROGRAM_END (spec.md §4.5).
func (in *Interpreter) Start(ctx context.Context) error {
	in.emit.VersionInfo(in.opts.Version)
	in.emit.ProgramStart("interpreter starting")

	setup, hasSetup := in.reg.funcs["setup"]
	loop, hasLoop := in.reg.funcs["loop"]

	if hasSetup {
		in.control.Push(control.ScopeSetup)
		in.scopes.Push(scope.Setup)
		in.emit.SetupStart()
		if err := in.execBlock(ctx, setup.BodyNode); err != nil {
			return err
		}
		in.emit.SetupEnd()
		in.scopes.Pop()
		in.control.Pop()
	}

	if hasLoop {
		for i := uint32(0); i < in.opts.MaxLoopIterations; i++ {
			in.control.Push(control.ScopeLoop)
			in.scopes.Push(scope.Loop)
			in.emit.LoopStart()
			err := in.execBlock(ctx, loop.BodyNode)
			frame := in.control.Pop()
			in.scopes.Pop()
			in.emit.LoopEnd()
			if err != nil {
				return err
			}
			if frame != nil && frame.StopReason == control.IterationLimit {
				break
			}
		}
	}

	in.emit.ProgramEnd()
	return nil
}

func (in *Interpreter) callContext(ctx context.Context, function string) *builtins.CallContext {
	return &builtins.CallContext{
		Ctx:      ctx,
		Emit:     in.emit,
		Provider: in.prov,
		Broker:   in.broker,
		SyncMode: in.opts.SyncMode,
		Function: function,
	}
}
