package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/oklog/ulid/v2"
	"github.com/peterh/liner"
	"github.com/rs/zerolog"
	"github.com/urfave/cli"

	"github.com/isaacev/mathvm/config"
	"github.com/isaacev/mathvm/source"
)

const (
	sourceExtension = ".mvm"
	historyFile     = ".mathvm_history"
	promptMain      = "mathvm> "
	promptCont      = "....... "
)

var configPath string
var errorNoColor bool
var debugShowAST bool
var debugShowDisassembly bool
var logLevel string
var maxSteps int
var maxCallDepth int

func readSourceFiles(args []string) (files []*source.File) {
	for _, arg := range args {
		// Try to convert every argument to an absolute path, if not possible,
		// claim the file could not be found. If a path can be produced but has
		// the wrong extension, admit defeat for that argument
		abs, err := filepath.Abs(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not find '%s'\n", arg)
			continue
		}

		if path.Ext(abs) != sourceExtension {
			fmt.Fprintf(os.Stderr, "could not use '%s' with extension '%s'\n", abs, path.Ext(abs))
			continue
		}

		file, err := source.ReadFile(abs)

		// If any error is produced during the file read, print the error and
		// quit trying to process this filename
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			continue
		}

		files = append(files, file)
	}

	return files
}

// loadConfig reads the configuration file (if any) and applies command line
// overrides on top of it
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()

	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}

	if c.IsSet("max-steps") {
		cfg.Limits.MaxSteps = maxSteps
	}

	if c.IsSet("max-depth") {
		cfg.Limits.MaxCallDepth = maxCallDepth
	}

	if c.IsSet("log-level") {
		cfg.Log.Level = logLevel
	}

	if errorNoColor {
		cfg.Output.Color = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newLogger writes human readable logs to stderr. Every entry is tagged with
// an id unique to this invocation
func newLogger(cfg *config.Config) zerolog.Logger {
	writer := zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: !cfg.Output.Color,
	}

	return zerolog.New(writer).
		Level(cfg.LogLevel()).
		With().
		Timestamp().
		Str("run", ulid.Make().String()).
		Logger()
}

func newPipeline(cfg *config.Config, shouldRun bool) *pipeline {
	return &pipeline{
		shouldRun:       shouldRun,
		showAST:         debugShowAST,
		showDisassembly: debugShowDisassembly,
		maxSteps:        cfg.Limits.MaxSteps,
		maxCallDepth:    cfg.Limits.MaxCallDepth,
		logger:          newLogger(cfg),
		stdout:          os.Stdout,
	}
}

// digestFiles runs every file named on the command line through the pipeline
// and prints any diagnostics. The command fails if any file failed
func digestFiles(c *cli.Context, shouldRun, showDisassembly bool) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}

	p := newPipeline(cfg, shouldRun)
	p.showDisassembly = p.showDisassembly || showDisassembly

	failed := false

	for _, f := range readSourceFiles(c.Args()) {
		msgs := p.digestFile(f)

		if len(msgs) > 0 {
			fmt.Fprintf(os.Stderr, "# %s\n", f.Filename)

			for _, msg := range msgs {
				fmt.Fprintln(os.Stderr, msg.Make(cfg.Output.Color))
			}
		}

		failed = failed || hasErrors(msgs)
	}

	if failed {
		return cli.NewExitError("", 1)
	}

	return nil
}

// braceDepth counts unclosed braces outside of string literals and comments.
// The REPL keeps reading lines while the result is positive
func braceDepth(src string) (depth int) {
	inString, escaped := false, false

	for i := 0; i < len(src); i++ {
		ch := src[i]

		switch {
		case inString && escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case inString && ch == '"':
			inString = false
		case inString:
		case ch == '"':
			inString = true
		case ch == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case ch == '{':
			depth++
		case ch == '}':
			depth--
		}
	}

	return depth
}

func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder

	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}

		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}

		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}

		b.WriteString(line)

		if braceDepth(b.String()) <= 0 {
			return b.String(), true
		}
	}
}

// repl compiles and runs each complete input on its own. Nothing persists
// between inputs
func repl(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}

	p := newPipeline(cfg, true)

	color.NoColor = !cfg.Output.Color
	color.New(color.Bold).Fprintln(os.Stderr, "mathvm interactive mode, type :quit to exit")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	for n := 1; ; n++ {
		code, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return nil
		}

		switch strings.TrimSpace(code) {
		case "":
			continue
		case ":quit", ":q":
			return nil
		}

		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		file := source.NewFile(fmt.Sprintf("<input %d>", n), code)
		for _, msg := range p.digestFile(file) {
			fmt.Fprintln(os.Stderr, msg.Make(cfg.Output.Color))
		}
	}
}

func main() {
	app := cli.NewApp()
	app.Name = "mathvm"
	app.Usage = "a typed bytecode translator and stack virtual machine"

	configFlag := cli.StringFlag{
		Name:        "config",
		Usage:       "load limits and logging settings from a YAML file",
		Destination: &configPath,
	}

	noColorFlag := cli.BoolFlag{
		Name:        "no-color",
		Usage:       "hide colors in error and warning messages",
		Destination: &errorNoColor,
	}

	debugAstFlag := cli.BoolFlag{
		Name:        "debug-ast",
		Usage:       "show a basic representation of the abstract-syntax-tree",
		Destination: &debugShowAST,
	}

	debugDisFlag := cli.BoolFlag{
		Name:        "debug-disassembly",
		Usage:       "show the disassembled bytecode emitted by the translator",
		Destination: &debugShowDisassembly,
	}

	logLevelFlag := cli.StringFlag{
		Name:        "log-level",
		Usage:       "trace, debug, info, warn, error or disabled",
		Destination: &logLevel,
	}

	maxStepsFlag := cli.IntFlag{
		Name:        "max-steps",
		Usage:       "stop a program after this many instructions (0 = unlimited)",
		Destination: &maxSteps,
	}

	maxDepthFlag := cli.IntFlag{
		Name:        "max-depth",
		Usage:       "maximum number of nested function calls",
		Destination: &maxCallDepth,
	}

	app.Commands = []cli.Command{
		{
			Name:    "run",
			Aliases: []string{"r"},
			Usage:   "Interpret file(s) and output any results",
			Flags: []cli.Flag{
				configFlag,
				noColorFlag,
				debugDisFlag,
				debugAstFlag,
				logLevelFlag,
				maxStepsFlag,
				maxDepthFlag,
			},
			Action: func(c *cli.Context) error {
				return digestFiles(c, true, false)
			},
		},
		{
			Name:    "check",
			Aliases: []string{"c"},
			Usage:   "Check syntax, scopes and types of file(s) without executing",
			Flags: []cli.Flag{
				configFlag,
				noColorFlag,
				debugAstFlag,
				logLevelFlag,
			},
			Action: func(c *cli.Context) error {
				return digestFiles(c, false, false)
			},
		},
		{
			Name:    "disasm",
			Aliases: []string{"d"},
			Usage:   "Show the bytecode emitted for file(s) without executing",
			Flags: []cli.Flag{
				configFlag,
				noColorFlag,
				logLevelFlag,
			},
			Action: func(c *cli.Context) error {
				return digestFiles(c, false, true)
			},
		},
		{
			Name:  "repl",
			Usage: "Read, compile and run statements interactively",
			Flags: []cli.Flag{
				configFlag,
				noColorFlag,
				debugDisFlag,
				debugAstFlag,
				logLevelFlag,
				maxStepsFlag,
				maxDepthFlag,
			},
			Action: repl,
		},
	}

	app.Action = func(c *cli.Context) error {
		cli.ShowAppHelp(c)
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
