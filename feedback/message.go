package feedback

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/isaacev/mathvm/source"
)

const (
	warningColors = iota
	errorColors   = iota
	helperColors  = iota
	noColors      = iota
)

// Message is the interface for all Warnings and Errors that can be emitted
// by the stages of the pipeline
type Message interface {
	Make(withColor bool) string
}

// Selection represents a region of the source code file along with a
// corresponding description that supplies information as to why an warning or
// error occured
type Selection struct {
	Description string
	Span        source.Span
}

// TranslationWarning classifies code that translates but cannot behave the
// way it reads, such as statements that can never run
const TranslationWarning string = "translation warning"

// Warning messages are emitted by the pipeline to highlight issues which might
// need to be addressed by the source code author
type Warning struct {
	Classification string
	File           *source.File
	What           Selection
	Why            []Selection
}

// Make takes a Warning and produces a fully rendered message with the option of
// using colors to make elements of the message more clear. The rendered message
// is returned as a single string and can be then output to stdout or some other
// destination
func (w Warning) Make(withColor bool) string {
	color.NoColor = !withColor
	return makeMessage(w.Classification, w.File, w.What, w.Why, warningColors)
}

// Error classification constants
const (
	SyntaxError      string = "syntax error"
	TranslationError string = "translation error"
	RuntimeError     string = "runtime error"
)

// Error messages are more serious than warnings and always cause the pipeline
// to be stopped. This includes illegal syntax, undeclared variables, type
// errors and fatal interpreter traps
type Error struct {
	Classification string
	File           *source.File
	What           Selection
	Why            []Selection
}

// Make takes an Error and produces a fully rendered message with the option of
// using colors to make elements of the message more clear. The rendered message
// is returned as a single string and can be then output to stdout or some other
// destination
func (e Error) Make(withColor bool) string {
	color.NoColor = !withColor
	return makeMessage(e.Classification, e.File, e.What, e.Why, errorColors)
}

// Error implements the error interface with a single uncolored line of the
// form "<filename>:<line>:<col>: <description>"
func (e Error) Error() string {
	if e.File == nil || e.What.Span.IsZero() {
		return e.What.Description
	}

	return fmt.Sprintf("%s:%s: %s", e.File.Filename, e.What.Span.Start, e.What.Description)
}

// makeMessage is a utility function which takes any Message and a corresponding
// File to make a rendered message of the form:
//
//	<message type>: <error classification>
//	  --> <filename>:<line number>:<column number>
//	   |
//	 1 | <offending line of source code>
//	   |  ^^^^^^^^^ <message detailing error>
//
// Messages without a file or without a position only render the header and
// the description
func makeMessage(classification string, file *source.File, what Selection, why []Selection, colorScheme int) string {
	yellowBold := color.New(color.FgYellow, color.Bold).SprintFunc()
	redBold := color.New(color.FgRed, color.Bold).SprintFunc()
	blue := color.New(color.FgBlue).SprintFunc()

	var lines []string
	var header string

	if colorScheme == warningColors {
		header = "warning:"
		lines = append(lines, yellowBold(fmt.Sprintf("%s %s", header, classification)))
	} else {
		header = "error:"
		lines = append(lines, redBold(fmt.Sprintf("%s %s", header, classification)))
	}

	if file == nil || what.Span.IsZero() {
		lines = append(lines, fmt.Sprintf(" %s %s", blue("-->"), what.Description))
		return strings.Join(lines, "\n")
	}

	maxLineNum := getMaxLineNum(append([]Selection{what}, why...)...)
	placeValues := utf8.RuneCountInString(fmt.Sprintf("%d", maxLineNum))

	lines = append(lines, fmt.Sprintf(" %s%s %s:%d:%d",
		mulStr(" ", placeValues),
		blue("-->"),
		file.Filename,
		what.Span.Start.Line,
		what.Span.Start.Col))

	lines = append(lines, blue(fmt.Sprintf(" %s |", mulStr(" ", placeValues))))

	for i, sel := range why {
		if i > 0 && why[i-1].Span.End.Line < sel.Span.Start.Line {
			lines = append(lines, blue("..."))
		}

		lines = append(lines, sourceCodeSelection(file, sel, helperColors, placeValues)...)
	}

	if len(why) > 0 && why[len(why)-1].Span.End.Line+1 < what.Span.Start.Line {
		lines = append(lines, fmt.Sprintf(" %s%s", mulStr(" ", placeValues), blue("...")))
	}

	lines = append(lines, sourceCodeSelection(file, what, colorScheme, placeValues)...)
	return strings.Join(lines, "\n")
}

// sourceCodeSelection is a utility function which, given a File and a Selection
// extracts an offending line of source code from the source file and renders
// the line along with its line number and the description set to accompany that
// line of source code
func sourceCodeSelection(file *source.File, sel Selection, colorScheme int, placeValues int) (lines []string) {
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	blue := color.New(color.FgBlue).SprintFunc()

	numMargFmt := fmt.Sprintf("%%%dd", placeValues)
	emptyMargFmt := mulStr(" ", placeValues)

	endLine := sel.Span.End.Line
	if endLine < sel.Span.Start.Line {
		endLine = sel.Span.Start.Line
	}

	for lineNum := sel.Span.Start.Line; lineNum <= endLine; lineNum++ {
		srcLine := file.Line(lineNum)
		lineNumFmt := fmt.Sprintf(numMargFmt, lineNum)

		var focusStart, focusEnd int

		if lineNum == sel.Span.Start.Line {
			focusStart = sel.Span.Start.Col
		} else {
			focusStart = 1
		}

		if lineNum == endLine {
			focusEnd = sel.Span.End.Col + 1
		} else {
			focusEnd = utf8.RuneCountInString(srcLine) + 1
		}

		prefix, focus, suffix := highlightSourceLine(srcLine, focusStart, focusEnd)

		switch colorScheme {
		case warningColors:
			focus = yellow(focus)
		case errorColors:
			focus = red(focus)
		case helperColors:
			focus = blue(focus)
		}

		lines = append(lines, fmt.Sprintf(" %s %s %s%s%s", blue(lineNumFmt), blue("|"), prefix, focus, suffix))
	}

	if sel.Description == "" {
		return lines
	}

	var underlineChar string
	var desc string

	switch colorScheme {
	case warningColors:
		underlineChar = yellow("^")
		desc = yellow(sel.Description)
	case errorColors:
		underlineChar = red("^")
		desc = red(sel.Description)
	default:
		underlineChar = blue("-")
		desc = blue(sel.Description)
	}

	leftPad := mulStr(" ", sel.Span.Start.Col-1)

	// Underline width must be at least 1 character wide
	width := sel.Span.End.Col + 1 - sel.Span.Start.Col
	if sel.Span.End.Line != sel.Span.Start.Line || width < 1 {
		width = 1
	}

	underline := mulStr(underlineChar, width)
	lines = append(lines, fmt.Sprintf(" %s %s %s%s %s", emptyMargFmt, blue("|"), leftPad, underline, desc))

	return lines
}

// getMaxLineNum returns the largest line number present in a collection of
// Selection structs
func getMaxLineNum(selections ...Selection) (max int) {
	max = 1

	for _, sel := range selections {
		if sel.Span.End.Line > max {
			max = sel.Span.End.Line
		}
	}

	return max
}

// highlightSourceLine takes a line of source code and 2 column numbers and
// returns the segment before the first column number, the segment between the
// column numbers, and the segment after the last column number. This is used
// to provide color to only the significant segment of a source code line
func highlightSourceLine(line string, start, end int) (prefix, focus, suffix string) {
	nextByte := 0

	for i := 1; i < end && nextByte < len(line); i++ {
		runeValue, runeWidth := utf8.DecodeRuneInString(line[nextByte:])
		nextByte += runeWidth

		if i < start {
			prefix += string(runeValue)
		} else {
			focus += string(runeValue)
		}
	}

	suffix = line[nextByte:]

	return prefix, focus, suffix
}

// mulStr repeats a string "n" times
func mulStr(s string, n int) string {
	if n <= 0 {
		return ""
	}

	return strings.Repeat(s, n)
}
