package backend

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/isaacev/mathvm/frontend"
	"github.com/isaacev/mathvm/source"
)

// TranslationError is returned by Compile for the first semantic problem found
// in the AST. Span identifies the offending node
type TranslationError struct {
	Message string
	Span    source.Span
}

func (e *TranslationError) Error() string {
	if e.Span.IsZero() {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Span.Start, e.Message)
}

// TranslationWarning describes code that translates but will never behave
// the way it reads. Cause and CauseSpan point at the node responsible
type TranslationWarning struct {
	Message   string
	Span      source.Span
	Cause     string
	CauseSpan source.Span
}

// TranslatorOption configures a call to Compile
type TranslatorOption func(*translator)

// WithTranslatorLogger sets the logger used to report function registration
// and emission. The default logger discards everything
func WithTranslatorLogger(log zerolog.Logger) TranslatorOption {
	return func(t *translator) {
		t.log = log
	}
}

// Compile takes an abstract-syntax-tree in the form of a `frontend.Program`
// node and returns a Program holding one Function per function declaration
// plus the entry function (id 0) made of the top-level statements.
//
// Translation happens in two passes. The first pass registers every function
// declaration in pre-order so that calls may refer to functions declared
// later or recursively. The second pass emits each function body into its own
// Bytecode stream. Translation stops at the first error and no partially built
// Program is returned
func Compile(ast *frontend.Program, opts ...TranslatorOption) (*Program, error) {
	t := &translator{
		prog: &Program{
			Functions: NewFunctionTable(),
			Constants: NewConstantPool(),
		},
		declared: make(map[*frontend.FuncDecl]*Function),
		log:      zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(t)
	}

	entry, err := t.prog.Functions.Add(EntryName, nil, frontend.TypeVoid)
	if err != nil {
		return nil, &TranslationError{Message: err.Error()}
	}

	t.prog.Entry = entry.ID

	if err := t.registerFunctions(ast.Statements); err != nil {
		return nil, err
	}

	state := &assembly{
		t:     t,
		fn:    entry,
		scope: newScope(nil),
	}

	if err := state.compileBody(ast.Statements); err != nil {
		return nil, err
	}

	// Always add a Stop instruction at the end of the entry function so that
	// the program will terminate before overflowing the Bytecode
	state.emit(Simple{Op: OpcodeStop})

	if err := state.finalize(nil); err != nil {
		return nil, err
	}

	return t.prog, nil
}

// translator holds program-wide translation state
type translator struct {
	prog     *Program
	declared map[*frontend.FuncDecl]*Function
	log      zerolog.Logger
}

// registerFunctions walks statements in pre-order and adds a Function to the
// table for every function declaration, including nested ones
func (t *translator) registerFunctions(stmts []frontend.Stmt) error {
	for _, stmt := range stmts {
		switch node := stmt.(type) {
		case *frontend.FuncDecl:
			params := make([]frontend.Type, len(node.Params))
			for i, param := range node.Params {
				params[i] = param.Type.Type
			}

			fn, err := t.prog.Functions.Add(node.Name.Name, params, node.ReturnType.Type)
			if err != nil {
				return &TranslationError{Message: err.Error(), Span: frontend.SpanOf(node.Name)}
			}

			t.declared[node] = fn
			t.log.Debug().
				Str("function", node.Name.Name).
				Uint16("id", uint16(fn.ID)).
				Int("params", len(params)).
				Msg("registered function")

			if err := t.registerFunctions(node.Body.Statements); err != nil {
				return err
			}
		case *frontend.Block:
			if err := t.registerFunctions(node.Statements); err != nil {
				return err
			}
		case *frontend.IfStmt:
			if err := t.registerFunctions(node.Then.Statements); err != nil {
				return err
			}

			if node.Else != nil {
				if err := t.registerFunctions([]frontend.Stmt{node.Else}); err != nil {
					return err
				}
			}
		case *frontend.WhileStmt:
			if err := t.registerFunctions(node.Body.Statements); err != nil {
				return err
			}
		case *frontend.ForStmt:
			if err := t.registerFunctions(node.Body.Statements); err != nil {
				return err
			}
		}
	}

	return nil
}

// assembly is used to keep track of the compiler's state while emitting the
// body of a single function:
//   - the function being written to (in `fn`)
//   - the innermost lexical scope (in `scope`)
//   - the static types of the values currently on the operand stack
//     (in `types`), mirroring what the interpreter will see at run time
//   - the next unused variable slot (in `nextSlot`)
type assembly struct {
	parent   *assembly // state of compiler in enclosing function
	t        *translator
	fn       *Function
	scope    *Scope
	types    []frontend.Type
	nextSlot int
	labelErr error
}

func (a *assembly) errorf(node frontend.Node, format string, args ...interface{}) error {
	err := &TranslationError{Message: fmt.Sprintf(format, args...)}

	if node != nil {
		err.Span = frontend.SpanOf(node)
	}

	return err
}

func (a *assembly) emit(inst Instruction) {
	a.fn.Code.Emit(inst)
}

func (a *assembly) newLabel() *Label {
	return a.fn.Code.NewLabel()
}

func (a *assembly) bind(label *Label) {
	if err := a.fn.Code.Bind(label); err != nil && a.labelErr == nil {
		a.labelErr = err
	}
}

func (a *assembly) branch(op Opcode, label *Label) {
	a.fn.Code.EmitBranch(op, label)
}

// finalize resolves all branches of the function. The declaration node is
// used to locate errors and is nil for the entry function
func (a *assembly) finalize(decl *frontend.FuncDecl) error {
	var node frontend.Node
	if decl != nil {
		node = decl.Name
	}

	if a.labelErr != nil {
		return a.errorf(node, "function %s: %v", a.fn.Name, a.labelErr)
	}

	if err := a.fn.Code.Finalize(); err != nil {
		return a.errorf(node, "function %s: %v", a.fn.Name, err)
	}

	a.t.log.Debug().
		Str("function", a.fn.Name).
		Uint16("id", uint16(a.fn.ID)).
		Int("bytes", a.fn.Code.Len()).
		Int("slots", a.fn.Slots).
		Msg("emitted function")

	return nil
}

func (a *assembly) pushType(t frontend.Type) {
	a.types = append(a.types, t)
}

func (a *assembly) popType() frontend.Type {
	if len(a.types) == 0 {
		return frontend.TypeInvalid
	}

	t := a.types[len(a.types)-1]
	a.types = a.types[:len(a.types)-1]
	return t
}

// popValueType pops the type of the last compiled expression and rejects void
// results from function calls used as values
func (a *assembly) popValueType(node frontend.Node) (frontend.Type, error) {
	t := a.popType()

	if t == frontend.TypeVoid {
		return t, a.errorf(node, "Void value cannot be used as a value")
	}

	return t, nil
}

// allocSlot reserves the next slot of the current function for a value of
// type t and records the zero that slot holds when a call begins
func (a *assembly) allocSlot(node frontend.Node, t frontend.Type) (SlotID, error) {
	if a.nextSlot > math.MaxUint16 {
		return 0, a.errorf(node, "Too many variables in function %s", a.fn.Name)
	}

	zero, err := a.zeroValue(node, t)
	if err != nil {
		return 0, err
	}

	slot := SlotID(a.nextSlot)
	a.nextSlot++
	a.fn.Slots = a.nextSlot
	a.fn.Zeros = append(a.fn.Zeros, zero)
	return slot, nil
}

func (a *assembly) zeroValue(node frontend.Node, t frontend.Type) (Value, error) {
	switch t {
	case frontend.TypeDouble:
		return DoubleValue(0), nil
	case frontend.TypeString:
		id, err := a.t.prog.Constants.Intern("")
		if err != nil {
			return Value{}, a.errorf(node, "%v", err)
		}

		return StringValue(id), nil
	default:
		return IntValue(0), nil
	}
}

func (a *assembly) declareVariable(ident *frontend.IdentExpr, t frontend.Type) (*Symbol, error) {
	if existing := a.scope.lookupLocal(ident.Name); existing != nil {
		return nil, a.redeclared(ident, existing)
	}

	slot, err := a.allocSlot(ident, t)
	if err != nil {
		return nil, err
	}

	sym := &Symbol{
		Kind:     symbolVariable,
		Name:     ident.Name,
		Type:     t,
		Context:  a.fn.ID,
		Slot:     slot,
		Declared: frontend.SpanOf(ident),
	}

	a.scope.register(sym)
	return sym, nil
}

func (a *assembly) redeclared(ident *frontend.IdentExpr, existing *Symbol) error {
	return a.errorf(ident, "`%s` is already declared in this block (previously declared at %s)", ident.Name, existing.Declared.Start)
}

// predeclareFunctions makes every function declared directly in a block
// visible in the whole block
func (a *assembly) predeclareFunctions(stmts []frontend.Stmt) error {
	for _, stmt := range stmts {
		decl, ok := stmt.(*frontend.FuncDecl)
		if !ok {
			continue
		}

		if existing := a.scope.lookupLocal(decl.Name.Name); existing != nil {
			return a.redeclared(decl.Name, existing)
		}

		fn := a.t.declared[decl]
		a.scope.register(&Symbol{
			Kind:     symbolFunction,
			Name:     decl.Name.Name,
			Type:     fn.Return,
			Context:  fn.ID,
			Function: fn,
			Declared: frontend.SpanOf(decl.Name),
		})
	}

	return nil
}

func (a *assembly) emitInt(v int64) {
	switch v {
	case 0:
		a.emit(Simple{Op: OpcodePushZero})
	case 1:
		a.emit(Simple{Op: OpcodePushOne})
	case -1:
		a.emit(Simple{Op: OpcodePushMinusOne})
	default:
		a.emit(PushInt{Value: v})
	}
}

func (a *assembly) emitString(node frontend.Node, s string) error {
	id, err := a.t.prog.Constants.Intern(s)
	if err != nil {
		return a.errorf(node, "%v", err)
	}

	a.emit(PushStr{Const: id})
	return nil
}

// emitZero pushes the default value of a type
func (a *assembly) emitZero(node frontend.Node, t frontend.Type) error {
	switch t {
	case frontend.TypeInt:
		a.emitInt(0)
	case frontend.TypeDouble:
		a.emit(PushDouble{Value: 0})
	case frontend.TypeString:
		return a.emitString(node, "")
	}

	return nil
}

func (a *assembly) emitLoad(sym *Symbol) {
	if sym.Context == a.fn.ID {
		a.emit(Load{Slot: sym.Slot})
	} else {
		a.emit(LoadCtx{Context: sym.Context, Slot: sym.Slot})
	}
}

func (a *assembly) emitStore(sym *Symbol) {
	if sym.Context == a.fn.ID {
		a.emit(Store{Slot: sym.Slot})
	} else {
		a.emit(StoreCtx{Context: sym.Context, Slot: sym.Slot})
	}
}

// convertible returns true if a value of type `from` may be stored where a
// value of type `to` is expected
func convertible(from, to frontend.Type) bool {
	return from == to || (from.IsNumeric() && to.IsNumeric())
}

// coerce emits the conversion of the value on top of the stack from one type
// to another
func (a *assembly) coerce(node frontend.Node, from, to frontend.Type) error {
	switch {
	case from == to:
		return nil
	case from == frontend.TypeInt && to == frontend.TypeDouble:
		a.emit(Simple{Op: OpcodeI2D})
		return nil
	case from == frontend.TypeDouble && to == frontend.TypeInt:
		a.emit(Simple{Op: OpcodeD2I})
		return nil
	default:
		return a.errorf(node, "Cannot convert %s to %s", from, to)
	}
}

// unifyNumeric promotes the two topmost operands to a common numeric type. The
// left operand is below the right one on the stack so promoting it requires
// swapping it to the top first
func (a *assembly) unifyNumeric(node *frontend.BinaryExpr, left, right frontend.Type) (frontend.Type, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return frontend.TypeInvalid, a.errorf(node, "Operator `%s` cannot be applied to %s and %s", node.Operator, left, right)
	}

	switch {
	case left == right:
		return left, nil
	case left == frontend.TypeInt:
		a.emit(Simple{Op: OpcodeSwap})
		a.emit(Simple{Op: OpcodeI2D})
		a.emit(Simple{Op: OpcodeSwap})
	default:
		a.emit(Simple{Op: OpcodeI2D})
	}

	return frontend.TypeDouble, nil
}

// materialize turns the outcome of a conditional branch into an int 0 or 1:
//
//	IF<rel> Ltrue; PUSH_ZERO; GOTO Lend; Ltrue: PUSH_ONE; Lend:
func (a *assembly) materialize(op Opcode) {
	whenTrue, done := a.newLabel(), a.newLabel()

	a.branch(op, whenTrue)
	a.emitInt(0)
	a.branch(OpcodeGoto, done)
	a.bind(whenTrue)
	a.emitInt(1)
	a.bind(done)
}

var arithmeticOpcodes = map[frontend.TokenSymbol][2]Opcode{
	"+": {OpcodeIAdd, OpcodeDAdd},
	"-": {OpcodeISub, OpcodeDSub},
	"*": {OpcodeIMul, OpcodeDMul},
	"/": {OpcodeIDiv, OpcodeDDiv},
	"%": {OpcodeIMod, 0},
}

var comparisonBranches = map[frontend.TokenSymbol]Opcode{
	"==": OpcodeIfEq,
	"!=": OpcodeIfNe,
	"<":  OpcodeIfLt,
	"<=": OpcodeIfLe,
	">":  OpcodeIfGt,
	">=": OpcodeIfGe,
}

// compileBody compiles a list of statements in the current scope after making
// the functions they declare visible
func (a *assembly) compileBody(stmts []frontend.Stmt) error {
	if err := a.predeclareFunctions(stmts); err != nil {
		return err
	}

	for i, stmt := range stmts {
		if err := a.compileStmt(stmt); err != nil {
			return err
		}

		if ret, ok := stmt.(*frontend.ReturnStmt); ok {
			a.warnUnreachable(ret, stmts[i+1:])
		}
	}

	return nil
}

// warnUnreachable records a warning for the first statement following a
// return in the same block. Function declarations are skipped since they stay
// callable from the rest of the block
func (a *assembly) warnUnreachable(ret *frontend.ReturnStmt, rest []frontend.Stmt) {
	for _, stmt := range rest {
		if _, ok := stmt.(*frontend.FuncDecl); ok {
			continue
		}

		a.t.prog.Warnings = append(a.t.prog.Warnings, TranslationWarning{
			Message:   "Unreachable statement",
			Span:      frontend.SpanOf(stmt),
			Cause:     "after this return",
			CauseSpan: frontend.SpanOf(ret),
		})

		a.t.log.Debug().
			Str("function", a.fn.Name).
			Str("at", frontend.SpanOf(stmt).Start.String()).
			Msg("unreachable statement")
		return
	}
}

func (a *assembly) compileBlock(block *frontend.Block) error {
	enclosing := a.scope
	a.scope = newScope(enclosing)
	defer func() { a.scope = enclosing }()

	return a.compileBody(block.Statements)
}

// compileFunction emits the body of a function declaration into the Function
// registered for it during the first pass. The body sees every name visible
// at the point of declaration
func (a *assembly) compileFunction(decl *frontend.FuncDecl) error {
	sub := &assembly{
		parent: a,
		t:      a.t,
		fn:     a.t.declared[decl],
		scope:  newScope(a.scope),
	}

	params := make([]*Symbol, len(decl.Params))
	for i, param := range decl.Params {
		sym, err := sub.declareVariable(param.Name, param.Type.Type)
		if err != nil {
			return err
		}

		params[i] = sym
	}

	// Arguments were pushed left to right so the last parameter is on top
	for i := len(params) - 1; i >= 0; i-- {
		sub.emitStore(params[i])
	}

	if err := sub.compileBody(decl.Body.Statements); err != nil {
		return err
	}

	// Implicit return for bodies that fall off the end
	if sub.fn.Return != frontend.TypeVoid {
		if err := sub.emitZero(decl, sub.fn.Return); err != nil {
			return err
		}
	}

	sub.emit(Simple{Op: OpcodeReturn})

	return sub.finalize(decl)
}

func (a *assembly) compileStmt(stmt frontend.Stmt) error {
	switch node := stmt.(type) {
	case *frontend.FuncDecl:
		return a.compileFunction(node)
	case *frontend.Block:
		return a.compileBlock(node)
	case *frontend.VarDecl:
		return a.compileVarDecl(node)
	case *frontend.AssignStmt:
		return a.compileAssign(node)
	case *frontend.IfStmt:
		return a.compileIf(node)
	case *frontend.WhileStmt:
		return a.compileWhile(node)
	case *frontend.ForStmt:
		return a.compileFor(node)
	case *frontend.PrintStmt:
		return a.compilePrint(node)
	case *frontend.ReturnStmt:
		return a.compileReturn(node)
	case *frontend.ExprStmt:
		if err := a.compileExpr(node.Expr); err != nil {
			return err
		}

		// discard whatever value the expression left on the stack
		if a.popType() != frontend.TypeVoid {
			a.emit(Simple{Op: OpcodePop})
		}

		return nil
	default:
		return a.errorf(stmt, "Unsupported statement %T", stmt)
	}
}

func (a *assembly) compileVarDecl(node *frontend.VarDecl) error {
	t := node.Type.Type

	// The initializer is compiled before the name is declared so it can't
	// refer to the variable being declared
	if node.Init != nil {
		if err := a.compileExpr(node.Init); err != nil {
			return err
		}

		initType, err := a.popValueType(node.Init)
		if err != nil {
			return err
		}

		if err := a.coerce(node.Init, initType, t); err != nil {
			return err
		}
	} else if err := a.emitZero(node, t); err != nil {
		return err
	}

	sym, err := a.declareVariable(node.Name, t)
	if err != nil {
		return err
	}

	a.emitStore(sym)
	return nil
}

func (a *assembly) lookupVariable(ident *frontend.IdentExpr) (*Symbol, error) {
	sym := a.scope.lookup(ident.Name)

	if sym == nil {
		return nil, a.errorf(ident, "Undeclared variable `%s`", ident.Name)
	}

	if sym.Kind != symbolVariable {
		return nil, a.errorf(ident, "`%s` is a function, not a variable", ident.Name)
	}

	return sym, nil
}

func (a *assembly) compileAssign(node *frontend.AssignStmt) error {
	sym, err := a.lookupVariable(node.Target)
	if err != nil {
		return err
	}

	if node.Operator == "=" {
		if err := a.compileExpr(node.Value); err != nil {
			return err
		}

		valueType, err := a.popValueType(node.Value)
		if err != nil {
			return err
		}

		if err := a.coerce(node.Value, valueType, sym.Type); err != nil {
			return err
		}

		a.emitStore(sym)
		return nil
	}

	// `+=` and `-=` behave like `x = x + value` and `x = x - value`
	binary := &frontend.BinaryExpr{
		Operator: node.Operator[:1],
		Left:     node.Target,
		Right:    node.Value,
	}

	if err := a.compileExpr(binary); err != nil {
		return err
	}

	if err := a.coerce(node, a.popType(), sym.Type); err != nil {
		return err
	}

	a.emitStore(sym)
	return nil
}

// compileCondition compiles an expression that must produce an int
func (a *assembly) compileCondition(cond frontend.Expr) error {
	if err := a.compileExpr(cond); err != nil {
		return err
	}

	t, err := a.popValueType(cond)
	if err != nil {
		return err
	}

	if t != frontend.TypeInt {
		return a.errorf(cond, "Condition must be int, found %s", t)
	}

	return nil
}

func (a *assembly) compileIf(node *frontend.IfStmt) error {
	if err := a.compileCondition(node.Condition); err != nil {
		return err
	}

	otherwise := a.newLabel()
	a.branch(OpcodeIfEq, otherwise)

	if err := a.compileBlock(node.Then); err != nil {
		return err
	}

	if node.Else == nil {
		a.bind(otherwise)
		return nil
	}

	done := a.newLabel()
	a.branch(OpcodeGoto, done)
	a.bind(otherwise)

	if err := a.compileStmt(node.Else); err != nil {
		return err
	}

	a.bind(done)
	return nil
}

func (a *assembly) compileWhile(node *frontend.WhileStmt) error {
	cond, done := a.newLabel(), a.newLabel()

	a.bind(cond)

	if err := a.compileCondition(node.Condition); err != nil {
		return err
	}

	a.branch(OpcodeIfEq, done)

	if err := a.compileBlock(node.Body); err != nil {
		return err
	}

	a.branch(OpcodeGoto, cond)
	a.bind(done)
	return nil
}

// compileFor lowers `for i in lo..hi { body }` to:
//
//	<lo> <hi> STORE hidden; STORE i
//	Lcond: LOAD i; LOAD hidden; ICMP; IFGT Lend
//	<body>
//	LOAD i; LOAD hidden; ICMP; IFEQ Lend
//	LOAD i; PUSH_ONE; IADD; STORE i; GOTO Lcond
//	Lend:
//
// The second comparison stops the loop before `i` could overflow when hi is
// the largest int
func (a *assembly) compileFor(node *frontend.ForStmt) error {
	for _, bound := range []frontend.Expr{node.Range.Low, node.Range.High} {
		if err := a.compileExpr(bound); err != nil {
			return err
		}

		t, err := a.popValueType(bound)
		if err != nil {
			return err
		}

		if t != frontend.TypeInt {
			return a.errorf(bound, "Range bounds must be int, found %s", t)
		}
	}

	enclosing := a.scope
	a.scope = newScope(enclosing)
	defer func() { a.scope = enclosing }()

	hiddenSlot, err := a.allocSlot(node.Range, frontend.TypeInt)
	if err != nil {
		return err
	}

	limit := &Symbol{Kind: symbolVariable, Type: frontend.TypeInt, Context: a.fn.ID, Slot: hiddenSlot}
	a.emitStore(limit)

	counter, err := a.declareVariable(node.Var, frontend.TypeInt)
	if err != nil {
		return err
	}

	a.emitStore(counter)

	cond, done := a.newLabel(), a.newLabel()

	a.bind(cond)
	a.emitLoad(counter)
	a.emitLoad(limit)
	a.emit(Simple{Op: OpcodeICmp})
	a.branch(OpcodeIfGt, done)

	if err := a.compileBlock(node.Body); err != nil {
		return err
	}

	a.emitLoad(counter)
	a.emitLoad(limit)
	a.emit(Simple{Op: OpcodeICmp})
	a.branch(OpcodeIfEq, done)

	a.emitLoad(counter)
	a.emitInt(1)
	a.emit(Simple{Op: OpcodeIAdd})
	a.emitStore(counter)
	a.branch(OpcodeGoto, cond)
	a.bind(done)
	return nil
}

func (a *assembly) compilePrint(node *frontend.PrintStmt) error {
	for _, arg := range node.Arguments {
		if err := a.compileExpr(arg); err != nil {
			return err
		}

		if _, err := a.popValueType(arg); err != nil {
			return err
		}

		a.emit(Simple{Op: OpcodePrint})
	}

	if node.Newline {
		a.emit(Simple{Op: OpcodeNewline})
	}

	return nil
}

func (a *assembly) compileReturn(node *frontend.ReturnStmt) error {
	// Returning from the entry function ends the program
	if a.parent == nil {
		if node.Argument != nil {
			return a.errorf(node.Argument, "Cannot return a value from the top level")
		}

		a.emit(Simple{Op: OpcodeReturn})
		return nil
	}

	ret := a.fn.Return

	if ret == frontend.TypeVoid {
		if node.Argument != nil {
			return a.errorf(node.Argument, "Function `%s` returns void but a value was returned", a.fn.Name)
		}

		a.emit(Simple{Op: OpcodeReturn})
		return nil
	}

	if node.Argument == nil {
		return a.errorf(node, "Function `%s` must return a %s value", a.fn.Name, ret)
	}

	if err := a.compileExpr(node.Argument); err != nil {
		return err
	}

	t, err := a.popValueType(node.Argument)
	if err != nil {
		return err
	}

	if !convertible(t, ret) {
		return a.errorf(node.Argument, "Function `%s` must return a %s value, found %s", a.fn.Name, ret, t)
	}

	if err := a.coerce(node.Argument, t, ret); err != nil {
		return err
	}

	a.emit(Simple{Op: OpcodeReturn})
	return nil
}

// compileExpr emits the code for an expression and pushes the expression's
// static type onto the type stack
func (a *assembly) compileExpr(expr frontend.Expr) error {
	switch node := expr.(type) {
	case *frontend.IntegerExpr:
		a.emitInt(node.Value)
		a.pushType(frontend.TypeInt)
	case *frontend.BoolExpr:
		if node.Value {
			a.emitInt(1)
		} else {
			a.emitInt(0)
		}

		a.pushType(frontend.TypeInt)
	case *frontend.DecimalExpr:
		a.emit(PushDouble{Value: node.Value})
		a.pushType(frontend.TypeDouble)
	case *frontend.StringExpr:
		if err := a.emitString(node, node.Value); err != nil {
			return err
		}

		a.pushType(frontend.TypeString)
	case *frontend.IdentExpr:
		sym, err := a.lookupVariable(node)
		if err != nil {
			return err
		}

		a.emitLoad(sym)
		a.pushType(sym.Type)
	case *frontend.UnaryExpr:
		return a.compileUnary(node)
	case *frontend.BinaryExpr:
		switch node.Operator {
		case "&&", "||":
			return a.compileLogical(node)
		case "==", "!=", "<", "<=", ">", ">=":
			return a.compileComparison(node)
		default:
			return a.compileArithmetic(node)
		}
	case *frontend.DispatchExpr:
		return a.compileDispatch(node)
	default:
		return a.errorf(expr, "Unsupported expression %T", expr)
	}

	return nil
}

func (a *assembly) compileUnary(node *frontend.UnaryExpr) error {
	if err := a.compileExpr(node.Operand); err != nil {
		return err
	}

	t, err := a.popValueType(node.Operand)
	if err != nil {
		return err
	}

	switch {
	case node.Operator == "-" && t == frontend.TypeInt:
		a.emit(Simple{Op: OpcodeINeg})
	case node.Operator == "-" && t == frontend.TypeDouble:
		a.emit(Simple{Op: OpcodeDNeg})
	case node.Operator == "!" && t == frontend.TypeInt:
		a.materialize(OpcodeIfEq)
	default:
		return a.errorf(node, "Operator `%s` cannot be applied to %s", node.Operator, t)
	}

	a.pushType(t)
	return nil
}

// compileBinaryOperands compiles both sides of a binary expression and
// promotes them to a common numeric type
func (a *assembly) compileBinaryOperands(node *frontend.BinaryExpr) (frontend.Type, error) {
	if err := a.compileExpr(node.Left); err != nil {
		return frontend.TypeInvalid, err
	}

	left, err := a.popValueType(node.Left)
	if err != nil {
		return frontend.TypeInvalid, err
	}

	if err := a.compileExpr(node.Right); err != nil {
		return frontend.TypeInvalid, err
	}

	right, err := a.popValueType(node.Right)
	if err != nil {
		return frontend.TypeInvalid, err
	}

	return a.unifyNumeric(node, left, right)
}

func (a *assembly) compileArithmetic(node *frontend.BinaryExpr) error {
	ops, ok := arithmeticOpcodes[node.Operator]
	if !ok {
		return a.errorf(node, "Unknown operator `%s`", node.Operator)
	}

	t, err := a.compileBinaryOperands(node)
	if err != nil {
		return err
	}

	if t == frontend.TypeInt {
		a.emit(Simple{Op: ops[0]})
	} else if ops[1] != 0 {
		a.emit(Simple{Op: ops[1]})
	} else {
		return a.errorf(node, "Operator `%s` requires int operands", node.Operator)
	}

	a.pushType(t)
	return nil
}

func (a *assembly) compileComparison(node *frontend.BinaryExpr) error {
	t, err := a.compileBinaryOperands(node)
	if err != nil {
		return err
	}

	if t == frontend.TypeInt {
		a.emit(Simple{Op: OpcodeICmp})
	} else {
		a.emit(Simple{Op: OpcodeDCmp})
	}

	a.materialize(comparisonBranches[node.Operator])
	a.pushType(frontend.TypeInt)
	return nil
}

// compileLogical emits short-circuiting `&&` and `||`. The right operand is
// only evaluated when the left one doesn't decide the result. The result is
// always normalized to 0 or 1
func (a *assembly) compileLogical(node *frontend.BinaryExpr) error {
	// `&&` bails out on the first 0, `||` on the first non-zero
	exit, result := OpcodeIfEq, int64(0)
	if node.Operator == "||" {
		exit, result = OpcodeIfNe, 1
	}

	shortCircuit, done := a.newLabel(), a.newLabel()

	for _, operand := range []frontend.Expr{node.Left, node.Right} {
		if err := a.compileCondition(operand); err != nil {
			return err
		}

		a.branch(exit, shortCircuit)
	}

	a.emitInt(1 - result)
	a.branch(OpcodeGoto, done)
	a.bind(shortCircuit)
	a.emitInt(result)
	a.bind(done)

	a.pushType(frontend.TypeInt)
	return nil
}

func (a *assembly) compileDispatch(node *frontend.DispatchExpr) error {
	sym := a.scope.lookup(node.Root.Name)

	if sym == nil {
		return a.errorf(node.Root, "Undeclared function `%s`", node.Root.Name)
	}

	if sym.Kind != symbolFunction {
		return a.errorf(node.Root, "`%s` is a variable, not a function", node.Root.Name)
	}

	fn := sym.Function

	if len(node.Arguments) != len(fn.Params) {
		return a.errorf(node, "Function `%s` expects %d arguments, found %d", fn.Name, len(fn.Params), len(node.Arguments))
	}

	for i, arg := range node.Arguments {
		if err := a.compileExpr(arg); err != nil {
			return err
		}

		t, err := a.popValueType(arg)
		if err != nil {
			return err
		}

		if !convertible(t, fn.Params[i]) {
			return a.errorf(arg, "The %s argument of `%s` must be %s, found %s", frontend.ToOrdinal(i+1), fn.Name, fn.Params[i], t)
		}

		if err := a.coerce(arg, t, fn.Params[i]); err != nil {
			return err
		}
	}

	a.emit(Call{Function: fn.ID})
	a.pushType(fn.Return)
	return nil
}
