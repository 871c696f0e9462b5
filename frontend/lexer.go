package frontend

import (
	"fmt"
	"strings"

	"github.com/isaacev/mathvm/feedback"
	"github.com/isaacev/mathvm/source"
)

// Lexer structs maintain state during the lexical analysis of a chunk of source
// code, generating a sequence of Tokens
type Lexer struct {
	Scanner    *Scanner
	Grammar    *Grammar
	peekBuffer []Token
	histBuffer []Token
}

// NewLexer is a constructor function that takes a file and a Grammar and
// returns a reference to a newly minted Lexer struct
func NewLexer(file *source.File, grammar *Grammar) *Lexer {
	return &Lexer{
		Scanner:    NewScanner(file),
		Grammar:    grammar,
		peekBuffer: []Token{},
		histBuffer: []Token{},
	}
}

func (l *Lexer) errorAt(span source.Span, format string, args ...interface{}) feedback.Message {
	return feedback.Error{
		Classification: feedback.SyntaxError,
		File:           l.Scanner.File,
		What: feedback.Selection{
			Description: fmt.Sprintf(format, args...),
			Span:        span,
		},
	}
}

// readNextToken is responsible for digesting characters from a scanner and
// producing the next Token. This function advances the scanner and is only
// called when the peekBuffer is totally exhausted.
func (l *Lexer) readNextToken() (tok Token, msg feedback.Message) {
	for {
		peek, pos, eof := l.Scanner.Peek()

		if eof {
			// Point the EOF token at the last meaningful token so that error
			// messages don't reference some empty line at the end of the file
			span := source.Span{Start: pos, End: pos}
			if len(l.histBuffer) > 0 {
				span = l.histBuffer[len(l.histBuffer)-1].Span
			}

			return Token{EOFSymbol, "<EOF>", span}, nil
		}

		switch {
		case l.Grammar.isWhitespace(peek):
			l.Scanner.Next()
			continue
		case peek == '/' && l.Scanner.PeekSecond() == '/':
			l.skipComment()
			continue
		case l.Grammar.isAlphabetical(peek):
			return l.lexWord()
		case l.Grammar.isNumeric(peek):
			return l.lexNumber()
		case peek == '"':
			return l.lexString()
		case l.Grammar.isOperatorPrefix(string(peek)):
			return l.lexOperator()
		case l.Grammar.isPunctuatorRune(peek):
			return l.lexPunctuator()
		}

		r, pos, _ := l.Scanner.Next()
		span := source.Span{Start: pos, End: pos}
		lexeme := string(r)

		return Token{UnknownSymbol, lexeme, span}, l.errorAt(span, "Unexpected character '%s'", lexeme)
	}
}

// Comments
//   - \/\/[^\n]*
func (l *Lexer) skipComment() {
	for {
		r, _, eof := l.Scanner.Peek()

		if eof || r == '\n' {
			return
		}

		l.Scanner.Next()
	}
}

// Identifiers and Keywords
//   - match [A-Za-z_][A-Za-z0-9_]*
func (l *Lexer) lexWord() (tok Token, msg feedback.Message) {
	var sym TokenSymbol
	var lexeme string
	var span source.Span

	for {
		r, pos, _ := l.Scanner.Next()

		// If lexing just began, set the start position
		if len(lexeme) == 0 {
			span.Start = pos
		}

		// Append rune to lexeme and expand the token's span
		lexeme += string(r)
		span.End = pos

		peek, _, eof := l.Scanner.Peek()

		if eof || !(l.Grammar.isAlphabetical(peek) || l.Grammar.isNumeric(peek)) {
			break
		}
	}

	// Determine whether the word classifies as a keyword recognized by the
	// grammar. If it does, set the appropriate token symbol
	if l.Grammar.isKeyword(lexeme) {
		sym = TokenSymbol(lexeme)
	} else {
		sym = IdentSymbol
	}

	return Token{sym, lexeme, span}, nil
}

// Integer or Decimal literals
//   - integer match [0-9]+
//   - decimal match [0-9]+\.[0-9]+
//
// A dot that is not followed by a digit ends the literal so that ranges like
// `1..10` lex as Integer, "..", Integer
func (l *Lexer) lexNumber() (tok Token, msg feedback.Message) {
	var lexeme string
	var span source.Span

	sym := IntegerSymbol

	for {
		r, pos, _ := l.Scanner.Next()

		// If lexing just began, set the start position
		if len(lexeme) == 0 {
			span.Start = pos
		}

		// Append rune to lexeme and expand the token's span
		lexeme += string(r)
		span.End = pos

		peek, _, eof := l.Scanner.Peek()

		if eof {
			break
		}

		if l.Grammar.isNumeric(peek) {
			continue
		}

		if peek == '.' && l.Grammar.isNumeric(l.Scanner.PeekSecond()) {
			if sym == DecimalSymbol {
				// Partial token was already being classified as a Decimal, so
				// finding a second decimal point is a syntax error that only
				// highlights the second decimal point
				_, dotPos, _ := l.Scanner.Next()
				return Token{sym, lexeme, span}, l.errorAt(source.Span{Start: dotPos, End: dotPos}, "Second decimal point in number literal")
			}

			sym = DecimalSymbol
			continue
		}

		break
	}

	return Token{sym, lexeme, span}, nil
}

// String literal
//   - match double quoted string, ignores escaped quotes. The lexeme keeps
//     the quotes and escape sequences, they are decoded by the parser
//   - only the escapes \n \t \" and \\ are accepted
func (l *Lexer) lexString() (tok Token, msg feedback.Message) {
	var lexeme string
	var span source.Span
	var inEscapeSeq bool
	var escapeStart source.Pos

	for {
		r, pos, eof := l.Scanner.Next()

		// Return with an error on an unterminated string literal
		if eof || r == '\n' {
			return Token{StringSymbol, lexeme, span}, l.errorAt(span, "Unterminated string")
		}

		// If lexing just began, set the start position
		if len(lexeme) == 0 {
			span.Start = pos
		}

		// Append rune to lexeme and expand the token's span
		lexeme += string(r)
		span.End = pos

		if inEscapeSeq && !strings.ContainsRune(`nt"\`, r) {
			bad := source.Span{Start: escapeStart, End: pos}
			return Token{StringSymbol, lexeme, span}, l.errorAt(bad, "Invalid escape sequence '\\%c' in string literal", r)
		}

		// Exit the loop if the rune was an unescaped double quote
		if len(lexeme) > 1 && r == '"' && !inEscapeSeq {
			break
		}

		// Set the `inEscapeSeq` flag if an unescaped backslash is encountered
		if r == '\\' && !inEscapeSeq {
			escapeStart = pos
			inEscapeSeq = true
		} else {
			inEscapeSeq = false
		}
	}

	return Token{StringSymbol, lexeme, span}, nil
}

// Operators
//   - consecutive operator runes are glued together for as long as the glued
//     lexeme is still the prefix of some operator in the grammar
func (l *Lexer) lexOperator() (tok Token, msg feedback.Message) {
	var lexeme string
	var span source.Span

	for {
		r, pos, _ := l.Scanner.Next()

		// If lexing just began, set the start position
		if len(lexeme) == 0 {
			span.Start = pos
		}

		// Append rune to lexeme and expand the token's span
		lexeme += string(r)
		span.End = pos

		peek, _, eof := l.Scanner.Peek()

		if eof || !l.Grammar.isOperatorPrefix(lexeme+string(peek)) {
			break
		}
	}

	if !l.Grammar.isOperator(lexeme) {
		return Token{UnknownSymbol, lexeme, span}, l.errorAt(span, "Unknown operator '%s'", lexeme)
	}

	return Token{TokenSymbol(lexeme), lexeme, span}, nil
}

// Punctuators
//   - always consist of a single character
func (l *Lexer) lexPunctuator() (tok Token, msg feedback.Message) {
	r, pos, _ := l.Scanner.Next()
	span := source.Span{Start: pos, End: pos}
	lexeme := string(r)

	return Token{TokenSymbol(lexeme), lexeme, span}, nil
}

// Peek returns the next token WITHOUT advancing the lexer. Once the next token
// has been peek'ed it is cached in the Lexer so repeated calls to Peek will not
// do duplicate lexing work
func (l *Lexer) Peek() (tok Token, msg feedback.Message) {
	if len(l.peekBuffer) > 0 {
		return l.peekBuffer[0], nil
	}

	if tok, msg = l.readNextToken(); msg != nil {
		return tok, msg
	}

	l.peekBuffer = append(l.peekBuffer, tok)
	return tok, nil
}

// PeekMatches returns true if the upcoming token matches a given TokenSymbol
func (l *Lexer) PeekMatches(sym TokenSymbol) (matches bool) {
	if tok, msg := l.Peek(); msg == nil {
		return tok.Symbol == sym
	}

	return false
}

// Next returns the upcoming token and advances the Lexer. If the token buffer
// contains any tokens (like those already generated by a Peek call), those
// tokens will be removed from the buffer and returned by Next
func (l *Lexer) Next() (tok Token, msg feedback.Message) {
	if len(l.peekBuffer) > 0 {
		tok = l.peekBuffer[0]
		l.peekBuffer = l.peekBuffer[1:]
	} else if tok, msg = l.readNextToken(); msg != nil {
		return tok, msg
	}

	l.histBuffer = append(l.histBuffer, tok)
	return tok, nil
}

// ExpectNext returns the next token if it matches the given TokenSymbol. If the
// upcoming token DOESN'T match, an error is also returned
func (l *Lexer) ExpectNext(sym TokenSymbol) (tok Token, msg feedback.Message) {
	if tok, msg = l.Next(); msg != nil {
		return tok, msg
	}

	if tok.Symbol == sym {
		return tok, nil
	}

	return tok, l.errorAt(tok.Span, "Expected '%s' instead found '%s'", sym, tok.Lexeme)
}
