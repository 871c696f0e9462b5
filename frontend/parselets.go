package frontend

import (
	"strconv"

	"github.com/isaacev/mathvm/feedback"
)

func identParselet(p *Parser, tok Token) (expr Expr, msg feedback.Message) {
	return &IdentExpr{
		Name:    tok.Lexeme,
		NamePos: tok.Span.Start,
	}, nil
}

func booleanParselet(p *Parser, tok Token) (expr Expr, msg feedback.Message) {
	return &BoolExpr{
		Lexeme: tok.Lexeme,
		Value:  tok.Symbol == TokenSymbol("true"),
		Start:  tok.Span.Start,
	}, nil
}

func literalParselet(p *Parser, tok Token) (expr Expr, msg feedback.Message) {
	return parseLiteral(p, tok, "")
}

// parseLiteral converts a literal token into a node. The sign prefix is used
// when a unary minus is folded into a numeric literal so that the most
// negative int64 can be written directly
func parseLiteral(p *Parser, tok Token, sign string) (expr Expr, msg feedback.Message) {
	switch tok.Symbol {
	case IntegerSymbol:
		lexeme := sign + tok.Lexeme
		i64, err := strconv.ParseInt(lexeme, 10, 64)
		if err != nil {
			return nil, p.Lexer.errorAt(tok.Span, "Integer literal %s is out of range", lexeme)
		}

		return &IntegerExpr{
			Lexeme: lexeme,
			Value:  i64,
			Start:  tok.Span.Start,
		}, nil
	case DecimalSymbol:
		lexeme := sign + tok.Lexeme
		f64, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return nil, p.Lexer.errorAt(tok.Span, "Malformed decimal literal %s", lexeme)
		}

		return &DecimalExpr{
			Lexeme: lexeme,
			Value:  f64,
			Start:  tok.Span.Start,
		}, nil
	case StringSymbol:
		value, err := strconv.Unquote(tok.Lexeme)
		if err != nil {
			return nil, p.Lexer.errorAt(tok.Span, "Invalid escape sequence in string literal")
		}

		return &StringExpr{
			Lexeme: tok.Lexeme,
			Value:  value,
			Start:  tok.Span.Start,
		}, nil
	default:
		return nil, p.Lexer.errorAt(tok.Span, "Unexpected symbol `%s`", tok.Symbol)
	}
}

func groupParselet(p *Parser, lParen Token) (expr Expr, msg feedback.Message) {
	if expr, msg = p.parseExpression(0); msg != nil {
		return nil, msg
	}

	if _, msg = p.Lexer.ExpectNext(RParenSymbol); msg != nil {
		return nil, msg
	}

	return expr, nil
}

func prefixParselet(precedence int) unaryParselet {
	return func(p *Parser, tok Token) (expr Expr, msg feedback.Message) {
		// fold negation into numeric literals
		if tok.Symbol == TokenSymbol("-") && (p.Lexer.PeekMatches(IntegerSymbol) || p.Lexer.PeekMatches(DecimalSymbol)) {
			lit, _ := p.Lexer.Next()

			if expr, msg = parseLiteral(p, lit, "-"); msg != nil {
				return nil, msg
			}

			switch node := expr.(type) {
			case *IntegerExpr:
				node.Start = tok.Span.Start
			case *DecimalExpr:
				node.Start = tok.Span.Start
			}

			return expr, nil
		}

		var operand Expr

		if operand, msg = p.parseExpression(precedence); msg != nil {
			return nil, msg
		}

		return &UnaryExpr{
			Operator: tok.Symbol,
			Start:    tok.Span.Start,
			Operand:  operand,
		}, nil
	}
}

func binaryInfixParselet(precedence int) binaryParselet {
	return func(p *Parser, tok Token, left Expr) (expr Expr, msg feedback.Message) {
		var right Expr

		if right, msg = p.parseExpression(precedence); msg != nil {
			return nil, msg
		}

		return &BinaryExpr{
			Operator: tok.Symbol,
			Left:     left,
			Right:    right,
		}, nil
	}
}

func dispatchParselet(p *Parser, lParen Token, left Expr) (expr Expr, msg feedback.Message) {
	root, ok := left.(*IdentExpr)
	if !ok {
		return nil, p.Lexer.errorAt(SpanOf(left), "Only named functions can be called")
	}

	var args []Expr
	var rParen Token

	for !p.Lexer.PeekMatches(RParenSymbol) {
		var arg Expr

		if arg, msg = p.parseExpression(0); msg != nil {
			return nil, msg
		}

		args = append(args, arg)

		if !p.Lexer.PeekMatches(CommaSymbol) {
			break
		}

		p.Lexer.Next()
	}

	if rParen, msg = p.Lexer.ExpectNext(RParenSymbol); msg != nil {
		return nil, msg
	}

	return &DispatchExpr{
		Root:       root,
		Arguments:  args,
		LeftParen:  lParen,
		RightParen: rParen,
	}, nil
}

func assignmentParselet(p *Parser, left Expr) (stmt Stmt, msg feedback.Message) {
	var op, semi Token
	var value Expr

	if op, msg = p.Lexer.Next(); msg != nil {
		return nil, msg
	}

	target, ok := left.(*IdentExpr)
	if !ok {
		return nil, p.Lexer.errorAt(SpanOf(left), "Left hand side of `%s` must be a variable", op.Lexeme)
	}

	if value, msg = p.parseExpression(0); msg != nil {
		return nil, msg
	}

	if semi, msg = p.expectSemicolon(); msg != nil {
		return nil, msg
	}

	return &AssignStmt{
		Operator:  op.Symbol,
		Target:    target,
		Value:     value,
		Semicolon: semi,
	}, nil
}

// parseType consumes a type keyword. Void is only accepted when allowVoid is
// set, which is the case for function return types
func parseType(p *Parser, allowVoid bool) (typ *TypeExpr, msg feedback.Message) {
	var tok Token

	if tok, msg = p.Lexer.Next(); msg != nil {
		return nil, msg
	}

	t, ok := LookupType(tok.Lexeme)
	if !ok || tok.Symbol == IdentSymbol {
		return nil, p.Lexer.errorAt(tok.Span, "Expected a type, instead found '%s'", tok.Lexeme)
	}

	if t == TypeVoid && !allowVoid {
		return nil, p.Lexer.errorAt(tok.Span, "Type void is only allowed as a return type")
	}

	return &TypeExpr{Type: t, Token: tok}, nil
}

func parseIdent(p *Parser) (ident *IdentExpr, msg feedback.Message) {
	var tok Token

	if tok, msg = p.Lexer.ExpectNext(IdentSymbol); msg != nil {
		return nil, msg
	}

	return &IdentExpr{Name: tok.Lexeme, NamePos: tok.Span.Start}, nil
}

func functionDeclarationParselet(p *Parser, functionKeyword Token) (stmt Stmt, msg feedback.Message) {
	var decl = &FuncDecl{FunctionKeyword: functionKeyword}

	if decl.ReturnType, msg = parseType(p, true); msg != nil {
		return nil, msg
	}

	if decl.Name, msg = parseIdent(p); msg != nil {
		return nil, msg
	}

	if _, msg = p.Lexer.ExpectNext(LParenSymbol); msg != nil {
		return nil, msg
	}

	for !p.Lexer.PeekMatches(RParenSymbol) {
		param := &Param{}

		if param.Type, msg = parseType(p, false); msg != nil {
			return nil, msg
		}

		if param.Name, msg = parseIdent(p); msg != nil {
			return nil, msg
		}

		decl.Params = append(decl.Params, param)

		if !p.Lexer.PeekMatches(CommaSymbol) {
			break
		}

		p.Lexer.Next()
	}

	if _, msg = p.Lexer.ExpectNext(RParenSymbol); msg != nil {
		return nil, msg
	}

	if decl.Body, msg = p.parseBlock(); msg != nil {
		return nil, msg
	}

	return decl, nil
}

func variableDeclarationParselet(p *Parser, typeKeyword Token) (stmt Stmt, msg feedback.Message) {
	t, _ := LookupType(typeKeyword.Lexeme)
	decl := &VarDecl{Type: &TypeExpr{Type: t, Token: typeKeyword}}

	if decl.Name, msg = parseIdent(p); msg != nil {
		return nil, msg
	}

	if p.Lexer.PeekMatches(TokenSymbol("=")) {
		p.Lexer.Next()

		if decl.Init, msg = p.parseExpression(0); msg != nil {
			return nil, msg
		}
	}

	if decl.Semicolon, msg = p.expectSemicolon(); msg != nil {
		return nil, msg
	}

	return decl, nil
}

func returnStatementParselet(p *Parser, returnKeyword Token) (stmt Stmt, msg feedback.Message) {
	var arg Expr

	if !p.Lexer.PeekMatches(SemicolonSymbol) {
		if arg, msg = p.parseExpression(0); msg != nil {
			return nil, msg
		}
	}

	if _, msg = p.expectSemicolon(); msg != nil {
		return nil, msg
	}

	return &ReturnStmt{
		ReturnKeyword: returnKeyword,
		Argument:      arg,
	}, nil
}

// parseCondition parses a parenthesized condition like those following the
// `if` and `while` keywords
func parseCondition(p *Parser) (cond Expr, msg feedback.Message) {
	if _, msg = p.Lexer.ExpectNext(LParenSymbol); msg != nil {
		return nil, msg
	}

	if cond, msg = p.parseExpression(0); msg != nil {
		return nil, msg
	}

	if _, msg = p.Lexer.ExpectNext(RParenSymbol); msg != nil {
		return nil, msg
	}

	return cond, nil
}

func ifStatementParselet(p *Parser, ifKeyword Token) (stmt Stmt, msg feedback.Message) {
	node := &IfStmt{IfKeyword: ifKeyword}

	if node.Condition, msg = parseCondition(p); msg != nil {
		return nil, msg
	}

	if node.Then, msg = p.parseBlock(); msg != nil {
		return nil, msg
	}

	if !p.Lexer.PeekMatches(TokenSymbol("else")) {
		return node, nil
	}

	p.Lexer.Next()

	if p.Lexer.PeekMatches(TokenSymbol("if")) {
		elseIf, _ := p.Lexer.Next()

		if node.Else, msg = ifStatementParselet(p, elseIf); msg != nil {
			return nil, msg
		}

		return node, nil
	}

	var elseBlock *Block

	if elseBlock, msg = p.parseBlock(); msg != nil {
		return nil, msg
	}

	node.Else = elseBlock
	return node, nil
}

func whileStatementParselet(p *Parser, whileKeyword Token) (stmt Stmt, msg feedback.Message) {
	node := &WhileStmt{WhileKeyword: whileKeyword}

	if node.Condition, msg = parseCondition(p); msg != nil {
		return nil, msg
	}

	if node.Body, msg = p.parseBlock(); msg != nil {
		return nil, msg
	}

	return node, nil
}

func forStatementParselet(p *Parser, forKeyword Token) (stmt Stmt, msg feedback.Message) {
	node := &ForStmt{ForKeyword: forKeyword, Range: &RangeExpr{}}

	if node.Var, msg = parseIdent(p); msg != nil {
		return nil, msg
	}

	if _, msg = p.Lexer.ExpectNext(TokenSymbol("in")); msg != nil {
		return nil, msg
	}

	if node.Range.Low, msg = p.parseExpression(0); msg != nil {
		return nil, msg
	}

	if _, msg = p.Lexer.ExpectNext(RangeSymbol); msg != nil {
		return nil, msg
	}

	if node.Range.High, msg = p.parseExpression(0); msg != nil {
		return nil, msg
	}

	if node.Body, msg = p.parseBlock(); msg != nil {
		return nil, msg
	}

	return node, nil
}

func printStatementParselet(p *Parser, printKeyword Token) (stmt Stmt, msg feedback.Message) {
	node := &PrintStmt{
		PrintKeyword: printKeyword,
		Newline:      printKeyword.Symbol == TokenSymbol("println"),
	}

	if _, msg = p.Lexer.ExpectNext(LParenSymbol); msg != nil {
		return nil, msg
	}

	for !p.Lexer.PeekMatches(RParenSymbol) {
		var arg Expr

		if arg, msg = p.parseExpression(0); msg != nil {
			return nil, msg
		}

		node.Arguments = append(node.Arguments, arg)

		if !p.Lexer.PeekMatches(CommaSymbol) {
			break
		}

		p.Lexer.Next()
	}

	if node.RightParen, msg = p.Lexer.ExpectNext(RParenSymbol); msg != nil {
		return nil, msg
	}

	if _, msg = p.expectSemicolon(); msg != nil {
		return nil, msg
	}

	return node, nil
}

func blockStatementParselet(p *Parser, lBrace Token) (stmt Stmt, msg feedback.Message) {
	return p.parseBlockBody(lBrace)
}
