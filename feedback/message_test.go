package feedback

import (
	"strings"
	"testing"

	"github.com/isaacev/mathvm/source"
)

func TestError_Make(t *testing.T) {
	file := source.NewFile("demo.mvm", "int x = 1;\nprint(y);\n")

	err := Error{
		Classification: TranslationError,
		File:           file,
		What: Selection{
			Description: "Undeclared variable `y`",
			Span: source.Span{
				Start: source.Pos{Line: 2, Col: 7},
				End:   source.Pos{Line: 2, Col: 7},
			},
		},
	}

	want := strings.Join([]string{
		"error: translation error",
		"  --> demo.mvm:2:7",
		"   |",
		" 2 | print(y);",
		"   |       ^ Undeclared variable `y`",
	}, "\n")

	if got := err.Make(false); got != want {
		t.Fatalf("expected:\n%s\ngot:\n%s", want, got)
	}

	if got := err.Error(); got != "demo.mvm:2:7: Undeclared variable `y`" {
		t.Fatalf("unexpected Error() text %q", got)
	}
}

func TestError_WithoutPosition(t *testing.T) {
	err := Error{
		Classification: RuntimeError,
		What:           Selection{Description: "integer division by zero"},
	}

	want := "error: runtime error\n --> integer division by zero"
	if got := err.Make(false); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	if got := err.Error(); got != "integer division by zero" {
		t.Fatalf("unexpected Error() text %q", got)
	}
}

func TestWarning_MakeWithHelper(t *testing.T) {
	file := source.NewFile("demo.mvm", "int x = 1;\n\n\nx = 2.5;\n")

	warn := Warning{
		Classification: TranslationWarning,
		File:           file,
		What: Selection{
			Description: "value is truncated",
			Span: source.Span{
				Start: source.Pos{Line: 4, Col: 5},
				End:   source.Pos{Line: 4, Col: 7},
			},
		},
		Why: []Selection{{
			Description: "declared as int here",
			Span: source.Span{
				Start: source.Pos{Line: 1, Col: 5},
				End:   source.Pos{Line: 1, Col: 5},
			},
		}},
	}

	got := warn.Make(false)

	for _, line := range []string{
		"warning: translation warning",
		"  --> demo.mvm:4:5",
		" 1 | int x = 1;",
		"   |     - declared as int here",
		" ...",
		" 4 | x = 2.5;",
		"   |     ^^^ value is truncated",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("expected message to contain %q\n%s", line, got)
		}
	}
}
