// Package main is the entry point for arcane.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/vivax3794/arcane/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		if errors.Is(err, app.ErrQuit) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() app.Options {
	var opts app.Options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (TOML or YAML)")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.Backend, "backend", "", "Text store ("+strings.Join(app.Backends(), ", ")+")")
	flag.BoolVar(&opts.ReadOnly, "readonly", false, "Open the file read-only")
	flag.BoolVar(&opts.ReadOnly, "R", false, "Open the file read-only (shorthand)")
	flag.StringVar(&opts.Script, "script", "", "Lua script to run against the document")
	flag.StringVar(&opts.Script, "s", "", "Lua script (shorthand)")
	flag.StringVar(&opts.Commands, "commands", "", `JSON-lines request file ("-" for stdin)`)
	flag.StringVar(&opts.Macros, "macros", "", "File that keeps prompt macros between sessions")
	flag.StringVar(&opts.Output, "o", "", `Write the final text to this file ("-" for stdout)`)
	flag.BoolVar(&opts.Write, "w", false, "Save the document back to its file")
	flag.BoolVar(&opts.Diff, "diff", false, "Print a unified diff of the changes")
	flag.BoolVar(&opts.Pretty, "pretty", false, "Indent JSON responses")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "arcane - scriptable text editing engine\n\n")
		fmt.Fprintf(os.Stderr, "Usage: arcane [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  arcane notes.txt                      Interactive prompt on a file\n")
		fmt.Fprintf(os.Stderr, "  arcane -s fix.lua -w notes.txt        Run a script and save\n")
		fmt.Fprintf(os.Stderr, "  arcane -s fix.lua -diff notes.txt     Preview a script's changes\n")
		fmt.Fprintf(os.Stderr, "  arcane < edits.jsonl -o - notes.txt   Apply requests, print the result\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("arcane %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch flag.NArg() {
	case 0:
	case 1:
		opts.File = flag.Arg(0)
	default:
		fmt.Fprintf(os.Stderr, "Error: expected at most one file, got %d\n", flag.NArg())
		os.Exit(2)
	}

	// Without a script or request file, read requests from stdin: a prompt
	// when it is a terminal, a JSON-lines stream otherwise.
	if opts.Script == "" && opts.Commands == "" {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			opts.Interactive = true
		} else {
			opts.Commands = "-"
		}
	}

	return opts
}
