package frontend

import (
	"github.com/isaacev/mathvm/feedback"
	"github.com/isaacev/mathvm/source"
)

// Parse takes a file and returns an abstract-syntax-tree and any errors/warnings
// generated during the parsing process
func Parse(file *source.File) (ast *Program, msgs []feedback.Message) {
	var msg feedback.Message

	parser := NewParser(file)
	ast, msg = parser.Parse()

	if msg != nil {
		msgs = append(msgs, msg)
	}

	return ast, msgs
}

type binaryParselet func(*Parser, Token, Expr) (Expr, feedback.Message)
type unaryParselet func(*Parser, Token) (Expr, feedback.Message)
type statementParselet func(*Parser, Token) (Stmt, feedback.Message)

// Parser instances contain a Lexer instance and tables of operator precedences
// and parselets. Expressions are parsed by precedence climbing over the
// unary/binary tables, statements are dispatched on their leading keyword
type Parser struct {
	Lexer              *Lexer
	binaryPrecedence   map[TokenSymbol]int
	binaryParselets    map[TokenSymbol]binaryParselet
	unaryParselets     map[TokenSymbol]unaryParselet
	statementParselets map[TokenSymbol]statementParselet
}

// Binding powers of the binary and prefix operators
const (
	precedenceOr       = 10
	precedenceAnd      = 20
	precedenceEquality = 30
	precedenceRelation = 40
	precedenceSum      = 50
	precedenceProduct  = 60
	precedencePrefix   = 70
	precedenceCall     = 80
)

// NewParser is a Parser factory function that populates the Parser's parselet
// table with the appropriate symbols, precedence values and parselet functions
func NewParser(file *source.File) *Parser {
	lexer := NewLexer(file, newGrammar())

	p := &Parser{
		Lexer:              lexer,
		binaryPrecedence:   make(map[TokenSymbol]int),
		binaryParselets:    make(map[TokenSymbol]binaryParselet),
		unaryParselets:     make(map[TokenSymbol]unaryParselet),
		statementParselets: make(map[TokenSymbol]statementParselet),
	}

	p.addUnaryParselet(IntegerSymbol, literalParselet)
	p.addUnaryParselet(DecimalSymbol, literalParselet)
	p.addUnaryParselet(StringSymbol, literalParselet)
	p.addUnaryParselet(TokenSymbol("true"), booleanParselet)
	p.addUnaryParselet(TokenSymbol("false"), booleanParselet)
	p.addUnaryParselet(IdentSymbol, identParselet)
	p.addUnaryParselet(LParenSymbol, groupParselet)
	p.addUnaryParselet(TokenSymbol("-"), prefixParselet(precedencePrefix))
	p.addUnaryParselet(TokenSymbol("!"), prefixParselet(precedencePrefix))

	p.addBinaryParselet(LParenSymbol, precedenceCall, dispatchParselet)

	// Logical expressions
	p.addBinaryParselet(TokenSymbol("||"), precedenceOr, binaryInfixParselet(precedenceOr))
	p.addBinaryParselet(TokenSymbol("&&"), precedenceAnd, binaryInfixParselet(precedenceAnd))

	// Comparison expressions
	p.addBinaryParselet(TokenSymbol("=="), precedenceEquality, binaryInfixParselet(precedenceEquality))
	p.addBinaryParselet(TokenSymbol("!="), precedenceEquality, binaryInfixParselet(precedenceEquality))
	p.addBinaryParselet(TokenSymbol("<"), precedenceRelation, binaryInfixParselet(precedenceRelation))
	p.addBinaryParselet(TokenSymbol(">"), precedenceRelation, binaryInfixParselet(precedenceRelation))
	p.addBinaryParselet(TokenSymbol("<="), precedenceRelation, binaryInfixParselet(precedenceRelation))
	p.addBinaryParselet(TokenSymbol(">="), precedenceRelation, binaryInfixParselet(precedenceRelation))

	// Arithmetic expressions
	p.addBinaryParselet(TokenSymbol("+"), precedenceSum, binaryInfixParselet(precedenceSum))
	p.addBinaryParselet(TokenSymbol("-"), precedenceSum, binaryInfixParselet(precedenceSum))
	p.addBinaryParselet(TokenSymbol("*"), precedenceProduct, binaryInfixParselet(precedenceProduct))
	p.addBinaryParselet(TokenSymbol("/"), precedenceProduct, binaryInfixParselet(precedenceProduct))
	p.addBinaryParselet(TokenSymbol("%"), precedenceProduct, binaryInfixParselet(precedenceProduct))

	// Statements are selected by their leading keyword
	p.addStatementParselet(TokenSymbol("function"), functionDeclarationParselet)
	p.addStatementParselet(TokenSymbol("int"), variableDeclarationParselet)
	p.addStatementParselet(TokenSymbol("double"), variableDeclarationParselet)
	p.addStatementParselet(TokenSymbol("string"), variableDeclarationParselet)
	p.addStatementParselet(TokenSymbol("return"), returnStatementParselet)
	p.addStatementParselet(TokenSymbol("if"), ifStatementParselet)
	p.addStatementParselet(TokenSymbol("while"), whileStatementParselet)
	p.addStatementParselet(TokenSymbol("for"), forStatementParselet)
	p.addStatementParselet(TokenSymbol("print"), printStatementParselet)
	p.addStatementParselet(TokenSymbol("println"), printStatementParselet)
	p.addStatementParselet(LBraceSymbol, blockStatementParselet)

	return p
}

func (p *Parser) addBinaryParselet(sym TokenSymbol, precedence int, parselet binaryParselet) {
	p.binaryPrecedence[sym] = precedence
	p.binaryParselets[sym] = parselet
}

func (p *Parser) addUnaryParselet(sym TokenSymbol, parselet unaryParselet) {
	p.unaryParselets[sym] = parselet
}

func (p *Parser) addStatementParselet(sym TokenSymbol, parselet statementParselet) {
	p.statementParselets[sym] = parselet
}

// isExpressionTerminator returns true for tokens that may legally follow a
// complete expression
func isExpressionTerminator(sym TokenSymbol) bool {
	switch sym {
	case SemicolonSymbol, CommaSymbol, RParenSymbol, LBraceSymbol, RBraceSymbol, RangeSymbol, EOFSymbol:
		return true
	case TokenSymbol("="), TokenSymbol("+="), TokenSymbol("-="):
		return true
	default:
		return false
	}
}

func (p *Parser) nextPrecedence() (prec int, msg feedback.Message) {
	tok, msg := p.Lexer.Peek()

	if msg == nil {
		if prec, ok := p.binaryPrecedence[tok.Symbol]; ok {
			return prec, nil
		}

		// emit an error if the upcoming symbol can't end an expression
		if !isExpressionTerminator(tok.Symbol) {
			return 0, p.Lexer.errorAt(tok.Span, "Unexpected `%s`", tok.Lexeme)
		}
	}

	return 0, msg
}

// parseExpression returns a node representing the next expression so long as
// the next expression does not have less precedence than the "precedence"
// parameter
func (p *Parser) parseExpression(precedence int) (expr Expr, msg feedback.Message) {
	var tok Token

	if tok, msg = p.Lexer.Next(); msg != nil {
		return nil, msg
	} else if tok.Symbol == EOFSymbol {
		return nil, p.Lexer.errorAt(tok.Span, "Unexpected end of program")
	}

	unary, ok := p.unaryParselets[tok.Symbol]
	if !ok {
		return nil, p.Lexer.errorAt(tok.Span, "Unexpected `%s`", tok.Lexeme)
	}

	var left Expr

	if left, msg = unary(p, tok); msg != nil {
		return nil, msg
	}

	// left-associated expressions based on their relative precedence
	for {
		var nextPrecedence int

		// catch syntax errors produced by checking the precedence of the next token
		if nextPrecedence, msg = p.nextPrecedence(); msg != nil {
			return nil, msg
		} else if precedence >= nextPrecedence {
			break
		}

		if tok, msg = p.Lexer.Next(); msg != nil {
			return nil, msg
		}

		infix := p.binaryParselets[tok.Symbol]

		if left, msg = infix(p, tok, left); msg != nil {
			return nil, msg
		}
	}

	return left, nil
}

// parseStatement parses a single statement. Statements that don't start with
// a known keyword are either assignments or expression statements
func (p *Parser) parseStatement() (stmt Stmt, msg feedback.Message) {
	var tok Token

	if tok, msg = p.Lexer.Peek(); msg != nil {
		return nil, msg
	}

	if parselet, ok := p.statementParselets[tok.Symbol]; ok {
		p.Lexer.Next()
		return parselet(p, tok)
	}

	var expr Expr

	if expr, msg = p.parseExpression(0); msg != nil {
		return nil, msg
	}

	if tok, msg = p.Lexer.Peek(); msg != nil {
		return nil, msg
	}

	switch tok.Symbol {
	case TokenSymbol("="), TokenSymbol("+="), TokenSymbol("-="):
		return assignmentParselet(p, expr)
	}

	if _, msg = p.expectSemicolon(); msg != nil {
		return nil, msg
	}

	return &ExprStmt{Expr: expr}, nil
}

// expectSemicolon consumes the semicolon that ends simple statements
func (p *Parser) expectSemicolon() (tok Token, msg feedback.Message) {
	if tok, msg = p.Lexer.Next(); msg != nil {
		return tok, msg
	}

	if tok.Symbol != SemicolonSymbol {
		return tok, p.Lexer.errorAt(tok.Span, "Expected semicolon after statement, instead found '%s'", tok.Lexeme)
	}

	return tok, nil
}

// parseStatementsUntil collects statements until it encounters a token matching
// the given "terminatorMatches" function. This function is used to parse the
// top level of the program and the bodies of blocks
func (p *Parser) parseStatementsUntil(terminatorMatches func(Token) bool) (stmts []Stmt, msg feedback.Message) {
	for {
		var tok Token
		var stmt Stmt

		if tok, msg = p.Lexer.Peek(); msg != nil {
			return stmts, msg
		} else if terminatorMatches(tok) {
			return stmts, nil
		} else if tok.Symbol == EOFSymbol {
			return stmts, p.Lexer.errorAt(tok.Span, "Unexpected end of program, expected '}'")
		}

		if stmt, msg = p.parseStatement(); msg != nil {
			return stmts, msg
		}

		stmts = append(stmts, stmt)
	}
}

// parseBlock parses a brace-delimited list of statements
func (p *Parser) parseBlock() (block *Block, msg feedback.Message) {
	var lBrace Token

	if lBrace, msg = p.Lexer.ExpectNext(LBraceSymbol); msg != nil {
		return nil, msg
	}

	return p.parseBlockBody(lBrace)
}

// parseBlockBody parses the statements and closing brace of a block whose
// opening brace was already consumed
func (p *Parser) parseBlockBody(lBrace Token) (block *Block, msg feedback.Message) {
	var rBrace Token
	var stmts []Stmt

	if stmts, msg = p.parseStatementsUntil(func(tok Token) bool { return tok.Symbol == RBraceSymbol }); msg != nil {
		return nil, msg
	}

	if rBrace, msg = p.Lexer.ExpectNext(RBraceSymbol); msg != nil {
		return nil, msg
	}

	return &Block{
		Statements: stmts,
		LeftBrace:  lBrace,
		RightBrace: rBrace,
	}, nil
}

// Parse produces an AST from a set of parselets, a grammar and a lexer
func (p *Parser) Parse() (prog *Program, msg feedback.Message) {
	stmts, msg := p.parseStatementsUntil(func(tok Token) bool { return tok.Symbol == EOFSymbol })

	if msg != nil {
		return nil, msg
	}

	eof, msg := p.Lexer.Next()

	return &Program{
		Statements: stmts,
		EOF:        eof,
	}, msg
}
