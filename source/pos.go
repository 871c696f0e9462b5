package source

import "fmt"

// Pos holds the line/column data for a single rune in a source code document
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Span holds a Start and End position in a source code document
type Span struct {
	Start Pos
	End   Pos
}

// IsZero reports whether the span was never assigned a position
func (s Span) IsZero() bool {
	return s.Start.Line == 0
}
