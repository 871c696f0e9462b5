package frontend

import (
	"strings"
	"testing"

	"github.com/isaacev/mathvm/feedback"
	"github.com/isaacev/mathvm/source"
)

func lexAll(t *testing.T, src string) ([]Token, feedback.Message) {
	t.Helper()

	lexer := NewLexer(source.NewFile("test.mvm", src), newGrammar())

	var toks []Token
	for i := 0; i < 1000; i++ {
		tok, msg := lexer.Next()
		if msg != nil {
			return toks, msg
		}

		toks = append(toks, tok)
		if tok.Symbol == EOFSymbol {
			return toks, nil
		}
	}

	t.Fatalf("lexer did not reach EOF")
	return nil, nil
}

func TestLexer_BasicProgram(t *testing.T) {
	input := `function int add(int a, int b) {
    return a + b; // sum
}
double d = 1.5;
println("hi\n", d);
for i in 1..10 { x += i; }
`

	tests := []struct {
		sym    TokenSymbol
		lexeme string
	}{
		{"function", "function"},
		{"int", "int"},
		{IdentSymbol, "add"},
		{LParenSymbol, "("},
		{"int", "int"},
		{IdentSymbol, "a"},
		{CommaSymbol, ","},
		{"int", "int"},
		{IdentSymbol, "b"},
		{RParenSymbol, ")"},
		{LBraceSymbol, "{"},
		{"return", "return"},
		{IdentSymbol, "a"},
		{"+", "+"},
		{IdentSymbol, "b"},
		{SemicolonSymbol, ";"},
		{RBraceSymbol, "}"},

		{"double", "double"},
		{IdentSymbol, "d"},
		{"=", "="},
		{DecimalSymbol, "1.5"},
		{SemicolonSymbol, ";"},

		{"println", "println"},
		{LParenSymbol, "("},
		{StringSymbol, `"hi\n"`},
		{CommaSymbol, ","},
		{IdentSymbol, "d"},
		{RParenSymbol, ")"},
		{SemicolonSymbol, ";"},

		{"for", "for"},
		{IdentSymbol, "i"},
		{"in", "in"},
		{IntegerSymbol, "1"},
		{RangeSymbol, ".."},
		{IntegerSymbol, "10"},
		{LBraceSymbol, "{"},
		{IdentSymbol, "x"},
		{"+=", "+="},
		{IdentSymbol, "i"},
		{SemicolonSymbol, ";"},
		{RBraceSymbol, "}"},

		{EOFSymbol, "<EOF>"},
	}

	toks, msg := lexAll(t, input)
	if msg != nil {
		t.Fatalf("unexpected error: %s", msg.Make(false))
	}

	if len(toks) != len(tests) {
		t.Fatalf("expected %d tokens, got %d", len(tests), len(toks))
	}

	for i, tt := range tests {
		tok := toks[i]

		if tok.Symbol != tt.sym {
			t.Fatalf("tests[%d] - symbol wrong. expected=%q, got=%q (lexeme=%q, pos=%s)",
				i, tt.sym, tok.Symbol, tok.Lexeme, tok.Span.Start)
		}

		if tok.Lexeme != tt.lexeme {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q",
				i, tt.lexeme, tok.Lexeme)
		}
	}
}

func TestLexer_Operators(t *testing.T) {
	toks, msg := lexAll(t, "a<=b==c!=d&&e||!f>=g<h>i-=j%k")
	if msg != nil {
		t.Fatalf("unexpected error: %s", msg.Make(false))
	}

	var ops []string
	for _, tok := range toks {
		if tok.Symbol != IdentSymbol && tok.Symbol != EOFSymbol {
			ops = append(ops, tok.Lexeme)
		}
	}

	got := strings.Join(ops, " ")
	want := "<= == != && || ! >= < > -= %"
	if got != want {
		t.Fatalf("expected operators %q, got %q", want, got)
	}
}

func TestLexer_Positions(t *testing.T) {
	toks, msg := lexAll(t, "int x;\n  x = 42;")
	if msg != nil {
		t.Fatalf("unexpected error: %s", msg.Make(false))
	}

	tests := []struct {
		index int
		start source.Pos
		end   source.Pos
	}{
		{0, source.Pos{Line: 1, Col: 1}, source.Pos{Line: 1, Col: 3}},
		{1, source.Pos{Line: 1, Col: 5}, source.Pos{Line: 1, Col: 5}},
		{3, source.Pos{Line: 2, Col: 3}, source.Pos{Line: 2, Col: 3}},
		{5, source.Pos{Line: 2, Col: 7}, source.Pos{Line: 2, Col: 8}},
	}

	for _, tt := range tests {
		tok := toks[tt.index]

		if tok.Span.Start != tt.start || tok.Span.End != tt.end {
			t.Errorf("token %q: expected span %s-%s, got %s-%s",
				tok.Lexeme, tt.start, tt.end, tok.Span.Start, tok.Span.End)
		}
	}
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"abc`, "Unterminated string"},
		{"int x = 1.2.3;", "Second decimal point in number literal"},
		{"a & b", "Unknown operator '&'"},
		{"x = #;", "Unexpected character '#'"},
		{`print("a\x41");`, `Invalid escape sequence '\x' in string literal`},
		{`"\u00e9"`, `Invalid escape sequence '\u' in string literal`},
		{`"\\\a"`, `Invalid escape sequence '\a' in string literal`},
	}

	for _, tt := range tests {
		_, msg := lexAll(t, tt.input)
		if msg == nil {
			t.Errorf("%q: expected an error", tt.input)
			continue
		}

		err, ok := msg.(feedback.Error)
		if !ok {
			t.Errorf("%q: expected feedback.Error, got %T", tt.input, msg)
			continue
		}

		if err.Classification != feedback.SyntaxError {
			t.Errorf("%q: expected classification %q, got %q", tt.input, feedback.SyntaxError, err.Classification)
		}

		if err.What.Description != tt.want {
			t.Errorf("%q: expected %q, got %q", tt.input, tt.want, err.What.Description)
		}
	}
}

func TestLexer_CommentsAndPeek(t *testing.T) {
	lexer := NewLexer(source.NewFile("test.mvm", "// nothing here\n// or here\nx"), newGrammar())

	peeked, msg := lexer.Peek()
	if msg != nil {
		t.Fatalf("unexpected error: %s", msg.Make(false))
	}

	if !lexer.PeekMatches(IdentSymbol) {
		t.Fatalf("expected PeekMatches(Identifier) to be true")
	}

	next, _ := lexer.Next()
	if next != peeked {
		t.Fatalf("Next returned %+v after Peek returned %+v", next, peeked)
	}

	if next.Span.Start.Line != 3 {
		t.Fatalf("expected identifier on line 3, got line %d", next.Span.Start.Line)
	}

	if _, msg := lexer.ExpectNext(SemicolonSymbol); msg == nil {
		t.Fatalf("expected ExpectNext to fail at EOF")
	}
}
