package backend

import (
	"bytes"
	"strings"
	"testing"
)

func TestDisassemble(t *testing.T) {
	prog := compileSource(t, `
function int twice(int n) { return n * 2; }
int x = twice(-1);
while (x < 10) { x += 4; }
println("x is ", x, " ", 1.5);
`)

	var out bytes.Buffer
	if err := Disassemble(&out, prog); err != nil {
		t.Fatal(err)
	}

	want := "constants (2)\n   #0 \"x is \"\n   #1 \" \"\n"

	got := out.String()
	if !strings.HasPrefix(got, want) {
		t.Fatalf("unexpected constants listing:\n%s", got)
	}

	for _, line := range []string{
		"<function main#0 () void, slots=1>",
		"      1 CALL           twice#1",
		"      4 STORE          s0",
		"     10 PUSH_INT       $10",
		"PUSH_STR       #0 \"x is \"",
		"PUSH_DOUBLE    $1.5",
		"NEWLINE",
		"STOP",
		"<function twice#1 (int) int, slots=1>",
		"      0 STORE          s0",
		"      3 LOAD           s0",
		"IMUL",
		"RETURN",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("expected disassembly to contain %q\n%s", line, got)
		}
	}
}

func TestDisassemble_BranchTargets(t *testing.T) {
	prog := handAssembled(
		Branch{Op: OpcodeGoto, Offset: 1},
		Simple{OpcodePop},
		Branch{Op: OpcodeIfNe, Offset: -7},
		LoadCtx{Context: 0, Slot: 3},
		Simple{Opcode(0xee)})

	var out bytes.Buffer
	fn, _ := prog.Functions.Get(0)
	if err := DisassembleFunction(&out, prog, fn); err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"<function main#0 () void, slots=0>",
		"      0 GOTO           -> 4",
		"      3 POP",
		"      4 IFNE           -> 0",
		"      7 LOAD_CTX       main#0, s3",
		"     12 UNKNOWN(0xee)",
		"",
	}, "\n")

	if out.String() != want {
		t.Fatalf("expected:\n%s\ngot:\n%s", want, out.String())
	}
}
