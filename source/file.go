package source

import (
	"os"
	"strings"
)

// File represents a chunk of source code to be processed by the front-end. The
// "Contents" field is a raw string representation of the file's contents. The
// "Lines" field is a cached slice of the file's contents split by '\n' so that
// error messages aren't required to repeatedly split the contents.
type File struct {
	Filename string
	Contents string
	Lines    []string
}

// NewFile wraps an in-memory chunk of source code. The filename is only used
// when rendering diagnostics
func NewFile(filename, contents string) *File {
	return &File{
		Filename: filename,
		Contents: contents,
		Lines:    strings.SplitAfter(contents, "\n"),
	}
}

// ReadFile loads a source file from disk
func ReadFile(filename string) (*File, error) {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	return NewFile(filename, string(buf)), nil
}

// Line returns the 1-indexed line of the file without its trailing newline.
// Out of range lines are returned as an empty string
func (f *File) Line(n int) string {
	if n < 1 || n > len(f.Lines) {
		return ""
	}

	return strings.TrimRight(f.Lines[n-1], "\r\n")
}
