// Package app wires configuration, logging and one document together and
// drives the engine from a Lua script, a JSON-lines command stream or an
// interactive prompt.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/vivax3794/arcane/internal/config"
	"github.com/vivax3794/arcane/internal/config/loader"
	"github.com/vivax3794/arcane/internal/engine"
	"github.com/vivax3794/arcane/internal/engine/buffer"
	"github.com/vivax3794/arcane/internal/logging"
	"github.com/vivax3794/arcane/internal/script"
	"github.com/vivax3794/arcane/internal/wire"
)

// Prompt is shown by the interactive session.
const Prompt = "arcane> "

// Application runs one batch of edits against one document.
type Application struct {
	opts    Options
	cfg     *config.Config
	log     *logging.Logger
	doc     *Document
	metrics *Metrics

	running atomic.Bool
}

// Options configures the application.
type Options struct {
	// ConfigPath is the TOML or YAML configuration file. Empty means the
	// defaults plus environment overrides.
	ConfigPath string

	// File is the document to open. Empty opens a scratch buffer.
	File string

	// LogLevel and Backend override the configuration when set.
	LogLevel string
	Backend  string

	// ReadOnly opens the document read-only.
	ReadOnly bool

	// Script is a Lua file to run against the document.
	Script string

	// Commands is a JSON-lines file of requests; "-" reads Stdin.
	Commands string

	// Interactive reads requests from a prompt on Stdin.
	Interactive bool

	// Macros is the file prompt macros are loaded from and saved to.
	// Empty keeps macros for the session only.
	Macros string

	// Output receives the final text; "-" is Stdout.
	Output string

	// Write saves the document back to File when it changed.
	Write bool

	// Diff prints a unified diff of the changes to Stdout.
	Diff bool

	// Pretty indents JSON responses.
	Pretty bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New creates an Application, loading configuration and the document.
func New(opts Options) (*Application, error) {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	app := &Application{
		opts:    opts,
		metrics: NewMetrics(),
	}
	if err := app.bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Configuration: file, then environment, then flags
	cfg := config.Default()
	if app.opts.ConfigPath != "" {
		loaded, err := config.Load(app.opts.ConfigPath)
		if err != nil {
			return &InitError{Component: "config", Err: err}
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(loader.DefaultEnvPrefix); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	overrides := map[string]any{}
	if app.opts.LogLevel != "" {
		overrides["logging.level"] = app.opts.LogLevel
	}
	if app.opts.Backend != "" {
		overrides["engine.backend"] = app.opts.Backend
	}
	if err := cfg.Apply(overrides); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	app.cfg = cfg

	// 2. Logging
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel()
	logCfg.Output = app.opts.Stderr
	logCfg.Prefix = "arcane"
	app.log = logging.New(logCfg)

	// 3. Document
	engineOpts, err := cfg.EngineOptions()
	if err != nil {
		return &InitError{Component: "engine", Err: err}
	}
	engineOpts = append(engineOpts, engine.WithLogger(app.log))

	if app.opts.File == "" {
		app.doc, err = NewScratchDocument("", engineOpts...)
	} else {
		app.doc, err = OpenDocument(app.opts.File, app.opts.ReadOnly, engineOpts...)
	}
	if err != nil {
		return &InitError{Component: "document", Err: err}
	}

	app.log.WithField("backend", app.doc.Engine.Backend()).
		Debug("opened %s (%d bytes)", app.doc.Name, app.doc.Engine.Len())
	return nil
}

// Config returns the effective configuration.
func (app *Application) Config() *config.Config {
	return app.cfg
}

// Document returns the open document.
func (app *Application) Document() *Document {
	return app.doc
}

// Metrics returns the request metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// Run executes the configured inputs in order: script, command stream,
// interactive prompt. It then writes the diff and output that were asked
// for.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if app.opts.Script != "" {
		if err := app.runScript(ctx); err != nil {
			return err
		}
	}
	if app.opts.Commands != "" {
		if err := app.runCommands(ctx); err != nil {
			return err
		}
	}
	if app.opts.Interactive {
		if err := app.runInteractive(ctx); err != nil {
			return err
		}
	}
	return app.finish()
}

func (app *Application) runScript(ctx context.Context) error {
	r := script.NewRunner(app.doc.Engine,
		script.WithOutput(app.opts.Stdout),
		script.WithLogger(app.log),
	)
	defer r.Close()

	timer := StartTimer()
	err := r.RunFile(ctx, app.opts.Script)
	app.metrics.RecordRequest(timer.Elapsed(), err != nil)
	return err
}

func (app *Application) session() *wire.Session {
	return wire.NewSession(app.doc.Engine,
		wire.WithLogger(app.log),
		wire.WithPretty(app.opts.Pretty),
		wire.WithSearchOptions(app.cfg.SearchOptions()),
		wire.WithObserver(func(_ string, elapsed time.Duration, err error) {
			app.metrics.RecordRequest(elapsed, err != nil)
		}),
	)
}

func (app *Application) runCommands(ctx context.Context) error {
	in := app.opts.Stdin
	if app.opts.Commands != "-" {
		f, err := os.Open(app.opts.Commands)
		if err != nil {
			return &FileError{Op: "open", Path: app.opts.Commands, Err: err}
		}
		defer f.Close()
		in = f
	}
	return app.session().Serve(ctx, in, app.opts.Stdout)
}

// finish writes the diff and the output.
func (app *Application) finish() error {
	doc := app.doc
	snap := app.metrics.Snapshot()
	app.log.Debug("handled %d requests (%d rejected, avg %s)", snap.Requests, snap.Rejected, snap.Avg())

	if app.opts.Diff {
		if _, err := io.WriteString(app.opts.Stdout, doc.Diff()); err != nil {
			return fmt.Errorf("write diff: %w", err)
		}
	}

	switch app.opts.Output {
	case "":
	case "-":
		if _, err := doc.WriteTo(app.opts.Stdout); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	default:
		if err := doc.Export(app.opts.Output); err != nil {
			return err
		}
		app.log.Info("wrote %s", app.opts.Output)
	}

	if app.opts.Write && doc.IsModified() {
		if err := doc.Save(); err != nil {
			return err
		}
		app.log.Info("saved %s", doc.Path)
	}
	return nil
}

// Backends lists the accepted backend names.
func Backends() []string {
	return []string{buffer.KindPieceTable.String(), buffer.KindRope.String()}
}
