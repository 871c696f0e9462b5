package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/isaacev/mathvm/feedback"
	"github.com/isaacev/mathvm/source"
)

func testPipeline(out *bytes.Buffer) *pipeline {
	return &pipeline{
		shouldRun:    true,
		maxCallDepth: 64,
		logger:       zerolog.Nop(),
		stdout:       out,
	}
}

func TestDigestFile_Runs(t *testing.T) {
	var out bytes.Buffer
	p := testPipeline(&out)

	msgs := p.digestFile(source.NewFile("ok.mvm", "for i in 1..3 { print(i * i, \" \"); }"))
	if len(msgs) != 0 {
		t.Fatalf("unexpected messages: %s", msgs[0].Make(false))
	}

	if out.String() != "1 4 9 " {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestDigestFile_CheckDoesNotRun(t *testing.T) {
	var out bytes.Buffer
	p := testPipeline(&out)
	p.shouldRun = false

	if msgs := p.digestFile(source.NewFile("ok.mvm", "print(1);")); len(msgs) != 0 {
		t.Fatalf("unexpected messages: %s", msgs[0].Make(false))
	}

	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestDigestFile_DebugOutput(t *testing.T) {
	var out bytes.Buffer
	p := testPipeline(&out)
	p.shouldRun = false
	p.showAST = true
	p.showDisassembly = true

	p.digestFile(source.NewFile("ok.mvm", "print(1);"))

	for _, want := range []string{"## AST", "(print 1)", "## Disassembly", "<function main#0 () void, slots=0>", "PUSH_ONE"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected output to contain %q\n%s", want, out.String())
		}
	}
}

func TestDigestFile_Errors(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		classification string
		description    string
	}{
		{"syntax", "print(1)", feedback.SyntaxError, "Expected semicolon after statement, instead found '<EOF>'"},
		{"translation", "print(y);", feedback.TranslationError, "Undeclared variable `y`"},
		{"runtime", "print(1 / 0);", feedback.RuntimeError, "integer division by zero (in function main#0 at offset 2)"},
		{"depth", "function void f() { f(); } f();", feedback.RuntimeError, "maximum call depth exceeded calling f (in function f#1 at offset 0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := testPipeline(&out)

			msgs := p.digestFile(source.NewFile("bad.mvm", tt.input))
			if !hasErrors(msgs) || len(msgs) != 1 {
				t.Fatalf("expected exactly one error, got %d messages", len(msgs))
			}

			err := msgs[0].(feedback.Error)
			if err.Classification != tt.classification {
				t.Errorf("expected %q, got %q", tt.classification, err.Classification)
			}

			if err.What.Description != tt.description {
				t.Errorf("expected %q, got %q", tt.description, err.What.Description)
			}
		})
	}
}

func TestDigestFile_Warnings(t *testing.T) {
	var out bytes.Buffer
	p := testPipeline(&out)

	msgs := p.digestFile(source.NewFile("warn.mvm", "function void f() { return; print(1); } f(); print(2);"))
	if hasErrors(msgs) || len(msgs) != 1 {
		t.Fatalf("expected a single warning, got %d messages", len(msgs))
	}

	warning, ok := msgs[0].(feedback.Warning)
	if !ok {
		t.Fatalf("expected feedback.Warning, got %T", msgs[0])
	}

	if warning.Classification != feedback.TranslationWarning || warning.What.Description != "Unreachable statement" {
		t.Errorf("unexpected warning %+v", warning)
	}

	if len(warning.Why) != 1 || warning.Why[0].Span.Start.String() != "1:21" {
		t.Errorf("expected the return statement as the cause, got %+v", warning.Why)
	}

	if out.String() != "2" {
		t.Errorf("warnings should not stop the program, got output %q", out.String())
	}

	if !strings.HasPrefix(warning.Make(false), "warning: translation warning\n  --> warn.mvm:1:29") {
		t.Errorf("unexpected rendering:\n%s", warning.Make(false))
	}
}

func TestTranslationMessagePointsAtSource(t *testing.T) {
	var out bytes.Buffer
	p := testPipeline(&out)

	msgs := p.digestFile(source.NewFile("bad.mvm", "int x = 1;\nx = \"s\";"))
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}

	if got := msgs[0].(feedback.Error).Error(); got != "bad.mvm:2:5: Cannot convert string to int" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestBraceDepth(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{"print(1);", 0},
		{"function void f() {", 1},
		{"while (1) { if (x) {", 2},
		{"}", -1},
		{`print("{");`, 0},
		{`print("\"{");`, 0},
		{"int x; // {", 0},
		{"{ // }\n", 1},
		{"function void f() {\n  print(1);\n}", 0},
	}

	for _, tt := range tests {
		if got := braceDepth(tt.src); got != tt.want {
			t.Errorf("braceDepth(%q): expected %d, got %d", tt.src, tt.want, got)
		}
	}
}
