package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFile_Line(t *testing.T) {
	file := NewFile("lines.mvm", "first\r\nsecond\n\nfourth")

	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{1, "first"},
		{2, "second"},
		{3, ""},
		{4, "fourth"},
		{5, ""},
	}

	for _, tt := range tests {
		if got := file.Line(tt.n); got != tt.want {
			t.Errorf("Line(%d): expected %q, got %q", tt.n, tt.want, got)
		}
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.mvm")
	if err := os.WriteFile(path, []byte("print(1);\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	file, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if file.Filename != path || file.Line(1) != "print(1);" {
		t.Fatalf("unexpected file %+v", file)
	}

	if _, err := ReadFile(path + ".missing"); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestSpan(t *testing.T) {
	if !(Span{}).IsZero() {
		t.Fatalf("expected the zero span to be zero")
	}

	span := Span{Start: Pos{Line: 3, Col: 14}, End: Pos{Line: 3, Col: 20}}
	if span.IsZero() || span.Start.String() != "3:14" {
		t.Fatalf("unexpected span %+v", span)
	}
}
