package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/vivax3794/arcane/internal/macro"
	"github.com/vivax3794/arcane/internal/wire"
)

const promptHelp = `requests are JSON objects, one per line
:rec R          record requests into register R (uppercase appends)
:stop           stop recording
:play [R] [N]   replay register R N times (no R: the last played)
:macros         list registers
:q              quit`

// runInteractive reads requests from a line-editing prompt. Stdin is put in
// raw mode when it is a terminal.
func (app *Application) runInteractive(ctx context.Context) error {
	if f, ok := app.opts.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("raw mode: %w", err)
		}
		defer term.Restore(int(f.Fd()), state)
	}

	rw := struct {
		io.Reader
		io.Writer
	}{app.opts.Stdin, app.opts.Stdout}
	err := app.prompt(ctx, rw)
	if errors.Is(err, ErrQuit) {
		return nil
	}
	return err
}

// promptSession is the state of one interactive prompt.
type promptSession struct {
	t        *term.Terminal
	session  *wire.Session
	recorder *macro.Recorder
	player   *macro.Player
}

// prompt runs the read-eval-print loop over rw until EOF or a quit command.
// Macros are loaded from and saved to Options.Macros when it is set.
func (app *Application) prompt(ctx context.Context, rw io.ReadWriter) (err error) {
	p := &promptSession{
		t:        term.NewTerminal(rw, Prompt),
		session:  app.session(),
		recorder: macro.NewRecorder(),
	}
	p.player = macro.NewPlayer(p.recorder)

	if app.opts.Macros != "" {
		if err := macro.Load(p.recorder, app.opts.Macros); err != nil {
			return &FileError{Op: "load macros", Path: app.opts.Macros, Err: err}
		}
		defer func() {
			if serr := macro.Save(p.recorder, app.opts.Macros); serr != nil && (err == nil || errors.Is(err, ErrQuit)) {
				err = &FileError{Op: "save macros", Path: app.opts.Macros, Err: serr}
			}
		}()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := p.t.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read prompt: %w", err)
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "quit" || line == ":q" || line == ":quit":
			return ErrQuit
		case strings.HasPrefix(line, ":"):
			if err := p.command(ctx, strings.Fields(line[1:])); err != nil {
				if werr := p.println("error: %v", err); werr != nil {
					return werr
				}
			}
		default:
			p.recorder.Record(line)
			if _, err := p.exec(ctx, line); err != nil {
				return err
			}
		}
	}
}

// exec handles one request and prints its response. The returned
// requestErr is the error the request was answered with.
func (p *promptSession) exec(ctx context.Context, line string) (requestErr error, err error) {
	resp, requestErr := p.session.Exec(ctx, []byte(line))
	if _, err := p.t.Write(append(resp, '\n')); err != nil {
		return requestErr, fmt.Errorf("write prompt: %w", err)
	}
	return requestErr, nil
}

func (p *promptSession) println(format string, args ...any) error {
	if _, err := fmt.Fprintf(p.t, format+"\n", args...); err != nil {
		return fmt.Errorf("write prompt: %w", err)
	}
	return nil
}

// command runs a colon command. Errors are reported to the user.
func (p *promptSession) command(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("empty command")
	}

	switch args[0] {
	case "help", "h":
		return p.println("%s", promptHelp)

	case "rec":
		if len(args) != 2 {
			return errors.New("usage: :rec R")
		}
		reg, err := macro.ParseRegister(args[1])
		if err != nil {
			return err
		}
		if err := p.recorder.StartRecording(reg); err != nil {
			return err
		}
		return p.println("recording @%c", macro.NormalizeRegister(reg))

	case "stop":
		reg, err := p.recorder.StopRecording()
		if err != nil {
			return err
		}
		return p.println("recorded @%c (%d requests)", reg, len(p.recorder.Get(reg)))

	case "play":
		return p.play(ctx, args[1:])

	case "macros":
		infos := p.recorder.Registers()
		if len(infos) == 0 {
			return p.println("no macros")
		}
		for _, info := range infos {
			if err := p.println("@%c  %d requests", info.Name, info.Requests); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q (try :help)", args[0])
	}
}

// play replays a register through the session, stopping at the first
// rejected request.
func (p *promptSession) play(ctx context.Context, args []string) error {
	if len(args) > 2 {
		return errors.New("usage: :play [R] [N]")
	}
	var reg rune
	if len(args) > 0 {
		r, err := macro.ParseRegister(args[0])
		if err != nil {
			return err
		}
		reg = r
	}
	count := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid count %q", args[1])
		}
		count = n
	}

	handler := func(line string) error {
		requestErr, err := p.exec(ctx, line)
		if err != nil {
			return err
		}
		return requestErr
	}
	if reg == 0 {
		return p.player.PlayLast(ctx, count, handler)
	}
	return p.player.Play(ctx, reg, count, handler)
}
