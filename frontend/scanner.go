package frontend

import (
	"unicode/utf8"

	"github.com/isaacev/mathvm/source"
)

// Scanner strcts hold the state of a scanner instance which consumes source
// code runes one at a time. Since source code documents can be Unicode, the
// scanner must keep track of each rune's byte offset. The scanner also records
// line and column data which it emits along with each rune.
//
// The first character in each line is considered to be in column 1. A newline
// at the end of a line with `N` characters is considered to be in column
// `N + 1`. Once the document is exhausted both Peek and Next report EOF and
// return the position just past the last rune
type Scanner struct {
	File     *source.File
	nextByte int // initialized to 0
	nextLine int // ...  ...  ...  1
	nextCol  int // ...  ...  ...  1
}

// NewScanner is a basic constructor function for Scanners which populates
// private fields with the appropriate starting values
func NewScanner(file *source.File) *Scanner {
	return &Scanner{
		File:     file,
		nextByte: 0,
		nextLine: 1,
		nextCol:  1,
	}
}

// Pos returns the position of the next rune to be scanned
func (s *Scanner) Pos() source.Pos {
	return source.Pos{Line: s.nextLine, Col: s.nextCol}
}

// Peek returns the next rune and its position without advancing the Scanner
func (s *Scanner) Peek() (r rune, pos source.Pos, EOF bool) {
	pos = s.Pos()

	if s.nextByte >= len(s.File.Contents) {
		return 0, pos, true
	}

	r, _ = utf8.DecodeRuneInString(s.File.Contents[s.nextByte:])
	return r, pos, false
}

// PeekSecond returns the rune after the next rune without advancing the
// Scanner. If no such rune exists the returned rune is 0
func (s *Scanner) PeekSecond() rune {
	if s.nextByte >= len(s.File.Contents) {
		return 0
	}

	_, width := utf8.DecodeRuneInString(s.File.Contents[s.nextByte:])

	if s.nextByte+width >= len(s.File.Contents) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(s.File.Contents[s.nextByte+width:])
	return r
}

// Next returns the next rune and its position and advances the Scanner
// permanently
func (s *Scanner) Next() (r rune, pos source.Pos, EOF bool) {
	pos = s.Pos()

	if s.nextByte >= len(s.File.Contents) {
		return 0, pos, true
	}

	// Extract the next rune from the document buffer
	r, width := utf8.DecodeRuneInString(s.File.Contents[s.nextByte:])

	// Update `nextLine`, `nextCol`
	if r == '\n' {
		s.nextLine++
		s.nextCol = 1
	} else {
		s.nextCol++
	}

	// Update `nextByte` to account for byte width of this rune
	s.nextByte += width

	return r, pos, false
}
