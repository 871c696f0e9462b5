package frontend

import (
	"unicode/utf8"

	"github.com/isaacev/mathvm/source"
)

// Node is a generic node in the abstract syntax tree (AST)
type Node interface {
	Pos() source.Pos
	End() source.Pos
}

// Expr represents a Node that returns a value when executed
type Expr interface {
	Node
	exprNode()
}

// Stmt represents a Node that does not necessarily return a value when executed
type Stmt interface {
	Node
	stmtNode()
}

// SpanOf returns the source code region covered by a node
func SpanOf(n Node) source.Span {
	return source.Span{Start: n.Pos(), End: n.End()}
}

// lexemeEnd computes the position of the last rune of a single-line lexeme
// starting at `start`
func lexemeEnd(start source.Pos, lexeme string) source.Pos {
	width := utf8.RuneCountInString(lexeme)
	if width < 1 {
		width = 1
	}

	return source.Pos{
		Line: start.Line,
		Col:  start.Col + width - 1,
	}
}

// Program is the root node for an AST. Its statements make up the body of
// the entry function
type Program struct {
	Statements []Stmt
	EOF        Token
}

// Pos returns the starting source code position of this node
func (p Program) Pos() source.Pos {
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}

	return source.Pos{
		Line: 1,
		Col:  1,
	}
}

// End returns the terminal source code position of this node
func (p Program) End() source.Pos {
	if len(p.Statements) > 0 {
		return p.Statements[len(p.Statements)-1].End()
	}

	return p.Pos()
}

// Block represents a brace-delimited list of statements. Every block opens a
// new lexical scope
type Block struct {
	Statements []Stmt
	LeftBrace  Token
	RightBrace Token
}

// Pos returns the starting source code position of this node
func (b Block) Pos() source.Pos {
	return b.LeftBrace.Span.Start
}

// End returns the terminal source code position of this node
func (b Block) End() source.Pos {
	return b.RightBrace.Span.End
}

func (b Block) stmtNode() {}

// TypeExpr represents a type keyword used in a declaration
type TypeExpr struct {
	Type  Type
	Token Token
}

// Pos returns the starting source code position of this node
func (t TypeExpr) Pos() source.Pos {
	return t.Token.Span.Start
}

// End returns the terminal source code position of this node
func (t TypeExpr) End() source.Pos {
	return t.Token.Span.End
}

// VarDecl declares a new variable in the current block, optionally with an
// initial value
type VarDecl struct {
	Type      *TypeExpr
	Name      *IdentExpr
	Init      Expr
	Semicolon Token
}

// Pos returns the starting source code position of this node
func (v VarDecl) Pos() source.Pos {
	return v.Type.Pos()
}

// End returns the terminal source code position of this node
func (v VarDecl) End() source.Pos {
	return v.Semicolon.Span.End
}

func (v VarDecl) stmtNode() {}

// Param is a single typed function parameter
type Param struct {
	Type *TypeExpr
	Name *IdentExpr
}

// Pos returns the starting source code position of this node
func (p Param) Pos() source.Pos {
	return p.Type.Pos()
}

// End returns the terminal source code position of this node
func (p Param) End() source.Pos {
	return p.Name.End()
}

// FuncDecl represents a named function definition. Function declarations are
// statements and may appear in any block
type FuncDecl struct {
	FunctionKeyword Token
	ReturnType      *TypeExpr
	Name            *IdentExpr
	Params          []*Param
	Body            *Block
}

// Pos returns the starting source code position of this node
func (f FuncDecl) Pos() source.Pos {
	return f.FunctionKeyword.Span.Start
}

// End returns the terminal source code position of this node
func (f FuncDecl) End() source.Pos {
	return f.Body.End()
}

func (f FuncDecl) stmtNode() {}

// AssignStmt represents the mapping of a value to an existing variable using
// one of the `=`, `+=` or `-=` operators
type AssignStmt struct {
	Operator  TokenSymbol
	Target    *IdentExpr
	Value     Expr
	Semicolon Token
}

// Pos returns the starting source code position of this node
func (a AssignStmt) Pos() source.Pos {
	return a.Target.Pos()
}

// End returns the terminal source code position of this node
func (a AssignStmt) End() source.Pos {
	return a.Semicolon.Span.End
}

func (a AssignStmt) stmtNode() {}

// IfStmt represents a conditional statement. Else is either nil, a *Block or
// another *IfStmt for `else if` chains
type IfStmt struct {
	IfKeyword Token
	Condition Expr
	Then      *Block
	Else      Stmt
}

// Pos returns the starting source code position of this node
func (i IfStmt) Pos() source.Pos {
	return i.IfKeyword.Span.Start
}

// End returns the terminal source code position of this node
func (i IfStmt) End() source.Pos {
	if i.Else != nil {
		return i.Else.End()
	}

	return i.Then.End()
}

func (i IfStmt) stmtNode() {}

// WhileStmt represents a loop guarded by a condition
type WhileStmt struct {
	WhileKeyword Token
	Condition    Expr
	Body         *Block
}

// Pos returns the starting source code position of this node
func (w WhileStmt) Pos() source.Pos {
	return w.WhileKeyword.Span.Start
}

// End returns the terminal source code position of this node
func (w WhileStmt) End() source.Pos {
	return w.Body.End()
}

func (w WhileStmt) stmtNode() {}

// RangeExpr represents an inclusive integer range `low..high`
type RangeExpr struct {
	Low  Expr
	High Expr
}

// Pos returns the starting source code position of this node
func (r RangeExpr) Pos() source.Pos {
	return r.Low.Pos()
}

// End returns the terminal source code position of this node
func (r RangeExpr) End() source.Pos {
	return r.High.End()
}

// ForStmt iterates a freshly declared int variable over an inclusive range
type ForStmt struct {
	ForKeyword Token
	Var        *IdentExpr
	Range      *RangeExpr
	Body       *Block
}

// Pos returns the starting source code position of this node
func (f ForStmt) Pos() source.Pos {
	return f.ForKeyword.Span.Start
}

// End returns the terminal source code position of this node
func (f ForStmt) End() source.Pos {
	return f.Body.End()
}

func (f ForStmt) stmtNode() {}

// PrintStmt represents a print statement which outputs the result of each
// argument in order. When Newline is set a trailing newline is also written
type PrintStmt struct {
	PrintKeyword Token
	Newline      bool
	Arguments    []Expr
	RightParen   Token
}

// Pos returns the starting source code position of this node
func (p PrintStmt) Pos() source.Pos {
	return p.PrintKeyword.Span.Start
}

// End returns the terminal source code position of this node
func (p PrintStmt) End() source.Pos {
	return p.RightParen.Span.End
}

func (p PrintStmt) stmtNode() {}

// ReturnStmt exits the current function, optionally with a value
type ReturnStmt struct {
	ReturnKeyword Token
	Argument      Expr
}

// Pos returns the starting source code position of this node
func (r ReturnStmt) Pos() source.Pos {
	return r.ReturnKeyword.Span.Start
}

// End returns the terminal source code position of this node
func (r ReturnStmt) End() source.Pos {
	if r.Argument == nil {
		return r.ReturnKeyword.Span.End
	}

	return r.Argument.End()
}

func (r ReturnStmt) stmtNode() {}

// ExprStmt evaluates an expression for its side effects and discards the result
type ExprStmt struct {
	Expr Expr
}

// Pos returns the starting source code position of this node
func (e ExprStmt) Pos() source.Pos {
	return e.Expr.Pos()
}

// End returns the terminal source code position of this node
func (e ExprStmt) End() source.Pos {
	return e.Expr.End()
}

func (e ExprStmt) stmtNode() {}

// BinaryExpr represents a basic expression of the form:
// <left expr> <operator> <right expr>
type BinaryExpr struct {
	Operator TokenSymbol
	Left     Expr
	Right    Expr
}

// Pos returns the starting source code position of this node
func (b BinaryExpr) Pos() source.Pos {
	return b.Left.Pos()
}

// End returns the terminal source code position of this node
func (b BinaryExpr) End() source.Pos {
	return b.Right.End()
}

func (b BinaryExpr) exprNode() {}

// UnaryExpr represents a prefix operator applied to a single operand
type UnaryExpr struct {
	Operator TokenSymbol
	Start    source.Pos
	Operand  Expr
}

// Pos returns the starting source code position of this node
func (u UnaryExpr) Pos() source.Pos {
	return u.Start
}

// End returns the terminal source code position of this node
func (u UnaryExpr) End() source.Pos {
	return u.Operand.End()
}

func (u UnaryExpr) exprNode() {}

// DispatchExpr represents a function dispatch including root and any arguments
type DispatchExpr struct {
	Root       *IdentExpr
	Arguments  []Expr
	LeftParen  Token
	RightParen Token
}

// Pos returns the starting source code position of this node
func (d DispatchExpr) Pos() source.Pos {
	return d.Root.Pos()
}

// End returns the terminal source code position of this node
func (d DispatchExpr) End() source.Pos {
	return d.RightParen.Span.End
}

func (d DispatchExpr) exprNode() {}

// IdentExpr represents a single identifier in the AST
type IdentExpr struct {
	NamePos source.Pos
	Name    string
}

// Pos returns the starting source code position of this node
func (i IdentExpr) Pos() source.Pos {
	return i.NamePos
}

// End returns the terminal source code position of this node
func (i IdentExpr) End() source.Pos {
	return lexemeEnd(i.NamePos, i.Name)
}

func (i IdentExpr) exprNode() {}

// IntegerExpr represents an instance of an integer literal in the AST. Negative
// literals are folded by the parser so Lexeme may start with a minus sign
type IntegerExpr struct {
	Lexeme string
	Value  int64
	Start  source.Pos
}

// Pos returns the starting source code position of this node
func (i IntegerExpr) Pos() source.Pos {
	return i.Start
}

// End returns the terminal source code position of this node
func (i IntegerExpr) End() source.Pos {
	return lexemeEnd(i.Start, i.Lexeme)
}

func (i IntegerExpr) exprNode() {}

// DecimalExpr represents an instance of a floating point literal in the AST
type DecimalExpr struct {
	Lexeme string
	Value  float64
	Start  source.Pos
}

// Pos returns the starting source code position of this node
func (d DecimalExpr) Pos() source.Pos {
	return d.Start
}

// End returns the terminal source code position of this node
func (d DecimalExpr) End() source.Pos {
	return lexemeEnd(d.Start, d.Lexeme)
}

func (d DecimalExpr) exprNode() {}

// StringExpr represents an instance of a string literal in the AST. Lexeme
// keeps the quotes and escape sequences, Value holds the decoded string
type StringExpr struct {
	Lexeme string
	Value  string
	Start  source.Pos
}

// Pos returns the starting source code position of this node
func (s StringExpr) Pos() source.Pos {
	return s.Start
}

// End returns the terminal source code position of this node
func (s StringExpr) End() source.Pos {
	return lexemeEnd(s.Start, s.Lexeme)
}

func (s StringExpr) exprNode() {}

// BoolExpr represents the `true` and `false` keywords. Both are int-typed
type BoolExpr struct {
	Lexeme string
	Value  bool
	Start  source.Pos
}

// Pos returns the starting source code position of this node
func (b BoolExpr) Pos() source.Pos {
	return b.Start
}

// End returns the terminal source code position of this node
func (b BoolExpr) End() source.Pos {
	return lexemeEnd(b.Start, b.Lexeme)
}

func (b BoolExpr) exprNode() {}
