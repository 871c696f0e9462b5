package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/isaacev/mathvm/backend"
	"github.com/isaacev/mathvm/feedback"
	"github.com/isaacev/mathvm/frontend"
	"github.com/isaacev/mathvm/source"
)

// pipeline holds the settings shared by every file processed in one
// invocation of the tool
type pipeline struct {
	shouldRun       bool
	showAST         bool
	showDisassembly bool
	maxSteps        int
	maxCallDepth    int
	logger          zerolog.Logger
	stdout          io.Writer
}

func printHeader(w io.Writer, title string) {
	fmt.Fprintln(w, "#######################")
	fmt.Fprintf(w, "## %-17s ##\n", title)
	fmt.Fprintln(w, "#######################")
	fmt.Fprintln(w)
}

// digestFile pushes a single file through every stage of the toolchain and
// returns the diagnostics produced along the way. Processing stops at the
// first stage that reports an error
func (p *pipeline) digestFile(file *source.File) (msgs []feedback.Message) {
	log := p.logger.With().Str("file", file.Filename).Logger()

	// Parse the file's syntax, store abstract-syntax-tree in the variable `ast`
	// and collect any errors emitted by the parsing process
	ast, msgs := frontend.Parse(file)
	if len(msgs) > 0 {
		return msgs
	}

	// If the `debug-ast` flag is set, output an ASCII header and an
	// S-expression AST representation
	if p.showAST {
		printHeader(p.stdout, "AST")
		fmt.Fprintln(p.stdout, frontend.StringifyAST(ast))
		fmt.Fprintln(p.stdout)
	}

	// Translation performs scope resolution and type checking, so `check`
	// also needs to run it even though the bytecode is discarded
	prog, err := backend.Compile(ast, backend.WithTranslatorLogger(log))
	if err != nil {
		return append(msgs, translationMessage(file, err))
	}

	for _, warning := range prog.Warnings {
		msgs = append(msgs, warningMessage(file, warning))
	}

	if p.showDisassembly {
		printHeader(p.stdout, "Disassembly")
		backend.Disassemble(p.stdout, prog)
		fmt.Fprintln(p.stdout)
	}

	if !p.shouldRun {
		return msgs
	}

	err = backend.Execute(prog,
		backend.WithOutput(p.stdout),
		backend.WithMaxSteps(p.maxSteps),
		backend.WithMaxCallDepth(p.maxCallDepth),
		backend.WithLogger(log))

	if err != nil {
		return append(msgs, runtimeMessage(err))
	}

	return msgs
}

// translationMessage converts a translator error into a renderable message
// pointing at the offending node
func translationMessage(file *source.File, err error) feedback.Message {
	var terr *backend.TranslationError

	if errors.As(err, &terr) {
		return feedback.Error{
			Classification: feedback.TranslationError,
			File:           file,
			What: feedback.Selection{
				Description: terr.Message,
				Span:        terr.Span,
			},
		}
	}

	return feedback.Error{
		Classification: feedback.TranslationError,
		What:           feedback.Selection{Description: err.Error()},
	}
}

// warningMessage renders a translator warning with the node that caused it
// as a helper selection
func warningMessage(file *source.File, warning backend.TranslationWarning) feedback.Message {
	return feedback.Warning{
		Classification: feedback.TranslationWarning,
		File:           file,
		What: feedback.Selection{
			Description: warning.Message,
			Span:        warning.Span,
		},
		Why: []feedback.Selection{{
			Description: warning.Cause,
			Span:        warning.CauseSpan,
		}},
	}
}

// runtimeMessage converts an interpreter trap into a renderable message.
// Runtime errors carry a bytecode location instead of a source span
func runtimeMessage(err error) feedback.Message {
	return feedback.Error{
		Classification: feedback.RuntimeError,
		What:           feedback.Selection{Description: err.Error()},
	}
}

// hasErrors returns true if any message is an error rather than a warning
func hasErrors(msgs []feedback.Message) bool {
	for _, msg := range msgs {
		if _, ok := msg.(feedback.Error); ok {
			return true
		}
	}

	return false
}
