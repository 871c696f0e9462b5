package backend

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/isaacev/mathvm/frontend"
	"github.com/isaacev/mathvm/source"
)

func parseSource(t *testing.T, src string) *frontend.Program {
	t.Helper()

	ast, msgs := frontend.Parse(source.NewFile("test.mvm", src))
	if len(msgs) > 0 {
		t.Fatalf("unexpected syntax error in %q: %s", src, msgs[0].Make(false))
	}

	return ast
}

func compileSource(t *testing.T, src string) *Program {
	t.Helper()

	prog, err := Compile(parseSource(t, src))
	if err != nil {
		t.Fatalf("unexpected translation error in %q: %v", src, err)
	}

	return prog
}

func concat(insts ...Instruction) []byte {
	var blob []byte
	for _, inst := range insts {
		blob = append(blob, inst.Generate()...)
	}

	return blob
}

func TestCompile_EntryFunction(t *testing.T) {
	tests := []struct {
		input string
		want  []byte
	}{
		{"", concat(Simple{OpcodeStop})},
		{"print(1);", concat(Simple{OpcodePushOne}, Simple{OpcodePrint}, Simple{OpcodeStop})},
		{"println();", concat(Simple{OpcodeNewline}, Simple{OpcodeStop})},
		{"int x = 300;", concat(PushInt{300}, Store{0}, Simple{OpcodeStop})},
		{"int x;", concat(Simple{OpcodePushZero}, Store{0}, Simple{OpcodeStop})},
		{"int x = -1;", concat(Simple{OpcodePushMinusOne}, Store{0}, Simple{OpcodeStop})},
		{"double d = 1;", concat(Simple{OpcodePushOne}, Simple{OpcodeI2D}, Store{0}, Simple{OpcodeStop})},
		{"int i = 2.5;", concat(PushDouble{2.5}, Simple{OpcodeD2I}, Store{0}, Simple{OpcodeStop})},
		{
			"double d = 1 + 2.5;",
			concat(
				Simple{OpcodePushOne},
				PushDouble{2.5},
				Simple{OpcodeSwap},
				Simple{OpcodeI2D},
				Simple{OpcodeSwap},
				Simple{OpcodeDAdd},
				Store{0},
				Simple{OpcodeStop}),
		},
		{
			"double d = 2.5 * 2;",
			concat(
				PushDouble{2.5},
				PushInt{2},
				Simple{OpcodeI2D},
				Simple{OpcodeDMul},
				Store{0},
				Simple{OpcodeStop}),
		},
		{
			"int a = 1; int b = a;",
			concat(
				Simple{OpcodePushOne},
				Store{0},
				Load{0},
				Store{1},
				Simple{OpcodeStop}),
		},
	}

	for _, tt := range tests {
		prog := compileSource(t, tt.input)
		entry, _ := prog.Functions.Get(prog.Entry)

		if !bytes.Equal(entry.Code.Bytes, tt.want) {
			t.Errorf("%q:\nexpected % x\n     got % x", tt.input, tt.want, entry.Code.Bytes)
		}
	}
}

func TestCompile_Functions(t *testing.T) {
	prog := compileSource(t, `
int x = 1;
function int add(int a, int b) {
	function void bump() { x = 2; }
	return a + b;
}
print(add(2, 3));
`)

	if prog.Functions.Len() != 3 {
		t.Fatalf("expected 3 functions, got %d", prog.Functions.Len())
	}

	entry, _ := prog.Functions.Get(0)
	if entry.Name != EntryName || prog.Entry != 0 || entry.Return != frontend.TypeVoid {
		t.Fatalf("unexpected entry function %s", entry)
	}

	add, _ := prog.Functions.Get(1)
	if add.Name != "add" || len(add.Params) != 2 || add.Return != frontend.TypeInt || add.Slots != 2 {
		t.Fatalf("unexpected function %s with %d params and %d slots", add, len(add.Params), add.Slots)
	}

	// Parameters are stored last to first, followed by the body and an
	// implicit zero return
	wantAdd := concat(
		Store{1},
		Store{0},
		Load{0},
		Load{1},
		Simple{OpcodeIAdd},
		Simple{OpcodeReturn},
		Simple{OpcodePushZero},
		Simple{OpcodeReturn})

	if !bytes.Equal(add.Code.Bytes, wantAdd) {
		t.Errorf("add:\nexpected % x\n     got % x", wantAdd, add.Code.Bytes)
	}

	bump, _ := prog.Functions.Get(2)
	wantBump := concat(PushInt{2}, StoreCtx{Context: 0, Slot: 0}, Simple{OpcodeReturn})

	if !bytes.Equal(bump.Code.Bytes, wantBump) {
		t.Errorf("bump:\nexpected % x\n     got % x", wantBump, bump.Code.Bytes)
	}
}

func TestCompile_Deterministic(t *testing.T) {
	src := `
function int fib(int n) {
	if (n < 2) { return n; }
	return fib(n - 1) + fib(n - 2);
}
for i in 0..10 { print(fib(i), " "); }
println("done");
`

	first := compileSource(t, src)
	second := compileSource(t, src)

	if first.Functions.Len() != second.Functions.Len() || first.Constants.Len() != second.Constants.Len() {
		t.Fatalf("translations differ in shape")
	}

	for i, fn := range first.Functions.All() {
		other := second.Functions.All()[i]

		if !bytes.Equal(fn.Code.Bytes, other.Code.Bytes) {
			t.Errorf("function %s translated differently on the second run", fn)
		}
	}
}

func TestCompile_ConstantsAreShared(t *testing.T) {
	prog := compileSource(t, `
print("a");
function void f() { print("a", "b"); }
print("b", "a");
`)

	if prog.Constants.Len() != 2 {
		t.Fatalf("expected 2 distinct constants, got %d", prog.Constants.Len())
	}
}

func TestCompile_ForwardReferences(t *testing.T) {
	compileSource(t, `
print(even(10));
function int even(int n) { if (n == 0) { return 1; } return odd(n - 1); }
function int odd(int n) { if (n == 0) { return 0; } return even(n - 1); }
`)

	compileSource(t, "int x = 1; { int x = 2; }")
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"print(x);", "Undeclared variable `x`"},
		{"int x = x;", "Undeclared variable `x`"},
		{"int x; int x;", "`x` is already declared in this block (previously declared at 1:5)"},
		{"function int f(int a, int a) { return a; }", "`a` is already declared in this block (previously declared at 1:20)"},
		{"function void f() {} function void f() {}", "`f` is already declared in this block (previously declared at 1:15)"},
		{"function int f(int a) { return a; } f();", "Function `f` expects 1 arguments, found 0"},
		{`function int f(int a) { return a; } f("s");`, "The 1st argument of `f` must be int, found string"},
		{`function int f(int a, string b) { return a; } f(1, 2);`, "The 2nd argument of `f` must be string, found int"},
		{"function void f() {} int x = f();", "Void value cannot be used as a value"},
		{"function void f() {} print(f());", "Void value cannot be used as a value"},
		{`string s = "a" + "b";`, "Operator `+` cannot be applied to string and string"},
		{`string s; s += "b";`, "Operator `+` cannot be applied to string and string"},
		{"if (1.5) { }", "Condition must be int, found double"},
		{`while ("s") { }`, "Condition must be int, found string"},
		{"function int f() { return; }", "Function `f` must return a int value"},
		{`function int f() { return "s"; }`, "Function `f` must return a int value, found string"},
		{"function void f() { return 1; }", "Function `f` returns void but a value was returned"},
		{"return 1;", "Cannot return a value from the top level"},
		{"int x = g();", "Undeclared function `g`"},
		{"int x; x();", "`x` is a variable, not a function"},
		{"function void f() {} f = 1;", "`f` is a function, not a variable"},
		{"double d = 1.5 % 2.0;", "Operator `%` requires int operands"},
		{`string s = 1;`, "Cannot convert int to string"},
		{"for i in 1.0..2 { }", "Range bounds must be int, found double"},
		{`int y = -"s";`, "Operator `-` cannot be applied to string"},
		{"double d = !1.5;", "Operator `!` cannot be applied to double"},
		{`int b = 1 && "s";`, "Condition must be int, found string"},
		{"function void f() { int y = 1; } print(y);", "Undeclared variable `y`"},
	}

	for _, tt := range tests {
		prog, err := Compile(parseSource(t, tt.input))

		if err == nil {
			t.Errorf("%q: expected a translation error", tt.input)
			continue
		}

		if prog != nil {
			t.Errorf("%q: expected no program alongside an error", tt.input)
		}

		var terr *TranslationError
		if !errors.As(err, &terr) {
			t.Errorf("%q: expected *TranslationError, got %T", tt.input, err)
			continue
		}

		if terr.Message != tt.want {
			t.Errorf("%q:\nexpected %q\n     got %q", tt.input, tt.want, terr.Message)
		}
	}
}

func TestCompile_ErrorSpan(t *testing.T) {
	_, err := Compile(parseSource(t, "int a = 1;\nprint(a + missing);"))

	var terr *TranslationError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TranslationError, got %v", err)
	}

	if terr.Span.Start != (source.Pos{Line: 2, Col: 11}) || terr.Span.End != (source.Pos{Line: 2, Col: 17}) {
		t.Fatalf("unexpected span %s-%s", terr.Span.Start, terr.Span.End)
	}

	if !strings.HasPrefix(err.Error(), "2:11: ") {
		t.Fatalf("expected error to start with the position, got %q", err.Error())
	}
}

func TestCompile_RecordsSlotZeros(t *testing.T) {
	prog := compileSource(t, `string s = "hi"; double d; for i in 1..2 { }`)
	entry, _ := prog.Functions.Get(prog.Entry)

	if len(entry.Zeros) != entry.Slots || entry.Slots != 4 {
		t.Fatalf("expected 4 recorded zeros, got %d for %d slots", len(entry.Zeros), entry.Slots)
	}

	empty, _ := prog.Constants.Get(entry.Zeros[0].Const)
	if entry.Zeros[0].Kind != KindString || empty != "" {
		t.Errorf("expected an empty string zero, got %+v", entry.Zeros[0])
	}

	if entry.Zeros[1] != DoubleValue(0) || entry.Zeros[2] != IntValue(0) || entry.Zeros[3] != IntValue(0) {
		t.Errorf("unexpected zeros %+v", entry.Zeros[1:])
	}
}

func TestCompile_UnreachableWarnings(t *testing.T) {
	prog := compileSource(t, strings.Join([]string{
		"function int f() {",
		"  return 1;",
		"  function void g() { }",
		"  print(2);",
		"  print(3);",
		"}",
		"{ print(f()); return; }",
	}, "\n"))

	if len(prog.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %+v", prog.Warnings)
	}

	warning := prog.Warnings[0]
	if warning.Message != "Unreachable statement" || warning.Cause != "after this return" {
		t.Errorf("unexpected warning %+v", warning)
	}

	if warning.Span.Start.String() != "4:3" || warning.CauseSpan.Start.String() != "2:3" {
		t.Errorf("unexpected spans %s and %s", warning.Span.Start, warning.CauseSpan.Start)
	}

	if clean := compileSource(t, "function void f() { return; function void g() { } } f();"); len(clean.Warnings) != 0 {
		t.Errorf("function declarations after a return should not warn, got %+v", clean.Warnings)
	}
}
