package frontend

import (
	"testing"

	"github.com/isaacev/mathvm/feedback"
	"github.com/isaacev/mathvm/source"
)

func parseString(t *testing.T, src string) *Program {
	t.Helper()

	prog, msgs := Parse(source.NewFile("test.mvm", src))
	if len(msgs) > 0 {
		t.Fatalf("unexpected error parsing %q: %s", src, msgs[0].Make(false))
	}

	return prog
}

func TestParse_Statements(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"int x = 1 + 2 * 3;", "(var int x (+ 1 (* 2 3)))"},
		{"string s;", "(var string s)"},
		{"double d = 2.5;", "(var double d 2.5)"},
		{"int m = -9223372036854775808;", "(var int m -9223372036854775808)"},
		{"x = (1 + 2) * 3;", "(= x (* (+ 1 2) 3))"},
		{"x = 1 - 2 - 3;", "(= x (- (- 1 2) 3))"},
		{"y = a || b && !c;", "(= y (|| a (&& b (! c))))"},
		{"z = a < b == c >= d;", "(= z (== (< a b) (>= c d)))"},
		{"z = -a * b;", "(= z (* (- a) b))"},
		{"x -= f(1, g());", "(-= x (f 1 (g)))"},
		{"x += 2 % 3;", "(+= x (% 2 3))"},
		{"x = true;", "(= x true)"},
		{`s = "a\tb";`, `(= s "a\tb")`},
		{"print(a, -b, -5);", "(print a (- b) -5)"},
		{"println();", "(println)"},
		{"f(1);", "(f 1)"},
		{"return;", "(return)"},
		{"return x + 1;", "(return (+ x 1))"},
		{"{ int x; }", "(\n   (var int x)\n)"},
		{"while (i) { i -= 1; }", "(while i (\n   (-= i 1)\n))"},
		{"for i in 1..n + 1 { }", "(for i (.. 1 (+ n 1)) ())"},
		{"if (x) { }", "(if x ())"},
		{
			"if (x < 1) { print(x); } else if (x > 2) { } else { return; }",
			"(if (< x 1) (\n   (print x)\n) else (if (> x 2) () else (\n   (return)\n)))",
		},
		{
			"function int add(int a, int b) { return a + b; }",
			"(function int add ([int a], [int b]) (\n   (return (+ a b))\n))",
		},
		{"function void nop() {}", "(function void nop () ())"},
	}

	for _, tt := range tests {
		prog := parseString(t, tt.input)

		if len(prog.Statements) != 1 {
			t.Errorf("%q: expected 1 statement, got %d", tt.input, len(prog.Statements))
			continue
		}

		if got := stringifyNode(prog.Statements[0]); got != tt.want {
			t.Errorf("%q:\nexpected %s\n     got %s", tt.input, tt.want, got)
		}
	}
}

func TestParse_Program(t *testing.T) {
	prog := parseString(t, "int i = 3;\nwhile (i > 0) {\n  print(i);\n  i = i - 1;\n}\n")

	want := `(program (
   (var int i 3)
   (while (> i 0) (
      (print i)
      (= i (- i 1))
   ))
))`

	if got := StringifyAST(prog); got != want {
		t.Fatalf("expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestParse_EmptyProgram(t *testing.T) {
	prog := parseString(t, "  // just a comment\n")

	if len(prog.Statements) != 0 {
		t.Fatalf("expected no statements, got %d", len(prog.Statements))
	}

	if prog.EOF.Symbol != EOFSymbol {
		t.Fatalf("expected EOF token, got %q", prog.EOF.Symbol)
	}
}

func TestParse_Spans(t *testing.T) {
	prog := parseString(t, "int x = foo;\nx = bar(1, 2);")

	decl := prog.Statements[0].(*VarDecl)
	if span := SpanOf(decl.Init); span.Start != (source.Pos{Line: 1, Col: 9}) || span.End != (source.Pos{Line: 1, Col: 11}) {
		t.Errorf("unexpected initializer span %s-%s", span.Start, span.End)
	}

	if span := SpanOf(decl); span.End != (source.Pos{Line: 1, Col: 12}) {
		t.Errorf("declaration should end at the semicolon, got %s", span.End)
	}

	assign := prog.Statements[1].(*AssignStmt)
	if span := SpanOf(assign.Value); span.Start != (source.Pos{Line: 2, Col: 5}) || span.End != (source.Pos{Line: 2, Col: 13}) {
		t.Errorf("unexpected call span %s-%s", span.Start, span.End)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"int x = 1", "Expected semicolon after statement, instead found '<EOF>'"},
		{"x + 1 = 2;", "Left hand side of `=` must be a variable"},
		{"if x { }", "Expected '(' instead found 'x'"},
		{"void x;", "Unexpected `void`"},
		{"function int f(void a) {}", "Type void is only allowed as a return type"},
		{"function f() {}", "Expected a type, instead found 'f'"},
		{"int x = 99999999999999999999;", "Integer literal 99999999999999999999 is out of range"},
		{"(1)(2);", "Only named functions can be called"},
		{"{ int x;", "Unexpected end of program, expected '}'"},
		{"x = 1 2;", "Unexpected `2`"},
		{`s = "\q";`, "Invalid escape sequence '\\q' in string literal"},
		{"for i 1..2 { }", "Expected 'in' instead found '1'"},
		{"print 1;", "Expected '(' instead found '1'"},
		{"x = ;", "Unexpected `;`"},
	}

	for _, tt := range tests {
		prog, msgs := Parse(source.NewFile("test.mvm", tt.input))

		if len(msgs) != 1 {
			t.Errorf("%q: expected 1 message, got %d", tt.input, len(msgs))
			continue
		}

		if prog != nil {
			t.Errorf("%q: expected no AST alongside a syntax error", tt.input)
		}

		err, ok := msgs[0].(feedback.Error)
		if !ok {
			t.Errorf("%q: expected feedback.Error, got %T", tt.input, msgs[0])
			continue
		}

		if err.What.Description != tt.want {
			t.Errorf("%q:\nexpected %q\n     got %q", tt.input, tt.want, err.What.Description)
		}
	}
}

func TestToOrdinal(t *testing.T) {
	tests := map[int]string{
		1: "1st", 2: "2nd", 3: "3rd", 4: "4th",
		11: "11th", 12: "12th", 13: "13th",
		21: "21st", 22: "22nd", 23: "23rd",
		101: "101st", 111: "111th", 112: "112th",
	}

	for n, want := range tests {
		if got := ToOrdinal(n); got != want {
			t.Errorf("ToOrdinal(%d): expected %q, got %q", n, want, got)
		}
	}
}
