package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vivax3794/arcane/internal/config"
	"github.com/vivax3794/arcane/internal/engine"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func newApp(t *testing.T, opts Options) (*Application, *bytes.Buffer) {
	t.Helper()
	var stdout bytes.Buffer
	if opts.Stdout == nil {
		opts.Stdout = &stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = &bytes.Buffer{}
	}
	if opts.Stdin == nil {
		opts.Stdin = strings.NewReader("")
	}
	app, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return app, &stdout
}

func TestNewScratch(t *testing.T) {
	app, _ := newApp(t, Options{})

	doc := app.Document()
	if !doc.IsScratch() {
		t.Error("expected scratch document")
	}
	if doc.Name != "Untitled" {
		t.Errorf("Name = %q, want %q", doc.Name, "Untitled")
	}
	if doc.IsModified() {
		t.Error("new document should not be modified")
	}
	if app.Config().Engine.Backend != "piecetable" {
		t.Errorf("backend = %q, want piecetable", app.Config().Engine.Backend)
	}
}

func TestNewOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "arcane.toml", "[engine]\ntab_width = 2\n")

	app, _ := newApp(t, Options{ConfigPath: cfgPath, Backend: "rope", LogLevel: "debug"})
	if got := app.Document().Engine.Backend().String(); got != "rope" {
		t.Errorf("backend = %q, want rope", got)
	}
	if got := app.Document().Engine.TabWidth(); got != 2 {
		t.Errorf("TabWidth() = %d, want 2", got)
	}
	if app.Config().Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", app.Config().Logging.Level)
	}
}

func TestNewEnvOverride(t *testing.T) {
	t.Setenv("ARCANE_TAB_WIDTH", "8")
	app, _ := newApp(t, Options{})
	if got := app.Document().Engine.TabWidth(); got != 8 {
		t.Errorf("TabWidth() = %d, want 8", got)
	}
}

func TestNewErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name      string
		opts      Options
		component string
	}{
		{"bad backend", Options{Backend: "gap"}, "config"},
		{"bad level", Options{LogLevel: "loud"}, "config"},
		{"bad config", Options{ConfigPath: writeFile(t, dir, "bad.toml", "[engine]\ntab_width = 0\n")}, "config"},
		{"directory", Options{File: dir}, "document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.Stderr = &bytes.Buffer{}
			_, err := New(opts)
			var ie *InitError
			if !errors.As(err, &ie) {
				t.Fatalf("expected *InitError, got %v", err)
			}
			if ie.Component != tt.component {
				t.Errorf("Component = %q, want %q", ie.Component, tt.component)
			}
		})
	}
}

func TestRunScriptWithDiffAndOutput(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "notes.txt", "alpha\nbeta\ngamma\n")
	lua := writeFile(t, dir, "upper.lua", `
		local s, e = buf.line_range(2)
		buf.replace(s, e, string.upper(buf.line(2)))
		print("done")
	`)
	out := filepath.Join(dir, "out.txt")

	app, stdout := newApp(t, Options{File: file, Script: lua, Diff: true, Output: out})
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "alpha\nBETA\ngamma\n" {
		t.Errorf("output = %q", got)
	}

	orig, _ := os.ReadFile(file)
	if string(orig) != "alpha\nbeta\ngamma\n" {
		t.Errorf("original changed without Write: %q", orig)
	}

	s := stdout.String()
	for _, want := range []string{"done\n", "--- a/notes.txt\n", "+++ b/notes.txt\n", "-beta\n", "+BETA\n"} {
		if !strings.Contains(s, want) {
			t.Errorf("stdout missing %q:\n%s", want, s)
		}
	}
	if app.Metrics().Snapshot().Requests != 1 {
		t.Errorf("Requests = %d, want 1", app.Metrics().Snapshot().Requests)
	}
}

func TestRunScriptFailure(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "a.txt", "abc")
	lua := writeFile(t, dir, "bad.lua", `buf.insert(1, "x"); buf.delete(0, 99)`)

	app, _ := newApp(t, Options{File: file, Script: lua, Write: true})
	err := app.Run(context.Background())
	if !errors.Is(err, engine.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if app.Document().Content() != "abc" {
		t.Errorf("Content() = %q, want %q", app.Document().Content(), "abc")
	}
	if snap := app.Metrics().Snapshot(); snap.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", snap.Rejected)
	}
}

func TestRunCommandsFromStdin(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "b.txt", "hello")

	in := `{"op":"insert","offset":5,"text":" world"}
{"op":"insert","offset":99,"text":"!"}
`
	app, stdout := newApp(t, Options{File: file, Commands: "-", Stdin: strings.NewReader(in), Write: true})
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, _ := os.ReadFile(file)
	if string(got) != "hello world" {
		t.Errorf("file = %q, want %q", got, "hello world")
	}
	if app.Document().IsModified() {
		t.Error("document should be saved")
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d response lines, want 2", len(lines))
	}
	if !strings.Contains(lines[1], `"out_of_range"`) {
		t.Errorf("second response = %s", lines[1])
	}

	snap := app.Metrics().Snapshot()
	if snap.Requests != 2 || snap.Rejected != 1 {
		t.Errorf("metrics = %d requests, %d rejected; want 2, 1", snap.Requests, snap.Rejected)
	}
}

func TestRunCommandsFromFile(t *testing.T) {
	dir := t.TempDir()
	cmds := writeFile(t, dir, "cmds.jsonl", `{"op":"type","text":"xyz"}`+"\n")

	app, stdout := newApp(t, Options{Commands: cmds, Output: "-"})
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasSuffix(stdout.String(), "\nxyz") {
		t.Errorf("stdout = %q", stdout.String())
	}

	app, _ = newApp(t, Options{Commands: filepath.Join(dir, "missing.jsonl")})
	if err := app.Run(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestInteractivePrompt(t *testing.T) {
	in := strings.NewReader("{\"op\":\"type\",\"text\":\"hi\"}\r\r{\"op\":\"text\"}\r:q\r{\"op\":\"type\",\"text\":\"never\"}\r")
	app, stdout := newApp(t, Options{Interactive: true, Stdin: in})

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := app.Document().Content(); got != "hi" {
		t.Errorf("Content() = %q, want %q", got, "hi")
	}
	if !strings.Contains(stdout.String(), Prompt) {
		t.Errorf("prompt not shown: %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), `"generation":1,"text":"hi"`) {
		t.Errorf("text response missing: %q", stdout.String())
	}
}

func TestRunTwice(t *testing.T) {
	app, _ := newApp(t, Options{})
	app.running.Store(true)
	if err := app.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestDocumentSave(t *testing.T) {
	dir := t.TempDir()

	doc, err := OpenDocument(filepath.Join(dir, "new.txt"), false)
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	if doc.Content() != "" {
		t.Errorf("missing file should open empty, got %q", doc.Content())
	}
	if err := doc.Engine.Insert(0, "created"); err != nil {
		t.Fatal(err)
	}
	if !doc.IsModified() {
		t.Error("expected modified after insert")
	}
	if err := doc.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if doc.IsModified() {
		t.Error("expected clean after save")
	}
	got, _ := os.ReadFile(filepath.Join(dir, "new.txt"))
	if string(got) != "created" {
		t.Errorf("file = %q", got)
	}

	scratch, err := NewScratchDocument("x")
	if err != nil {
		t.Fatal(err)
	}
	if err := scratch.Save(); !errors.Is(err, ErrNoFilePath) {
		t.Errorf("scratch Save: expected ErrNoFilePath, got %v", err)
	}
	if err := scratch.SaveAs(filepath.Join(dir, "scratch.txt")); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if scratch.Name != "scratch.txt" || scratch.IsScratch() {
		t.Errorf("after SaveAs: Name = %q, scratch = %v", scratch.Name, scratch.IsScratch())
	}
}

func TestDocumentReadOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ro.txt", "keep")

	doc, err := OpenDocument(path, true)
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	if err := doc.Engine.Insert(0, "x"); !errors.Is(err, engine.ErrReadOnly) {
		t.Errorf("Insert: expected ErrReadOnly, got %v", err)
	}
	if err := doc.Save(); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Save: expected ErrReadOnly, got %v", err)
	}
	if doc.Diff() != "" {
		t.Errorf("Diff() = %q, want empty", doc.Diff())
	}
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	if snap := m.Snapshot(); snap.Min != 0 || snap.Avg() != 0 || snap.RejectRate() != 0 {
		t.Errorf("empty snapshot = %+v", snap)
	}

	m.RecordRequest(10*time.Millisecond, false)
	m.RecordRequest(30*time.Millisecond, true)
	m.RecordRequest(5*time.Millisecond, false)

	snap := m.Snapshot()
	if snap.Requests != 3 || snap.Rejected != 1 {
		t.Errorf("counts = %d, %d; want 3, 1", snap.Requests, snap.Rejected)
	}
	if snap.Min != 5*time.Millisecond || snap.Max != 30*time.Millisecond || snap.Last != 5*time.Millisecond {
		t.Errorf("min/max/last = %v/%v/%v", snap.Min, snap.Max, snap.Last)
	}
	if snap.Avg() != 15*time.Millisecond {
		t.Errorf("Avg() = %v, want 15ms", snap.Avg())
	}
	if r := snap.RejectRate(); r < 0.33 || r > 0.34 {
		t.Errorf("RejectRate() = %v", r)
	}
}

func TestBackends(t *testing.T) {
	if _, ok := config.Lookup("engine.backend"); !ok {
		t.Fatal("engine.backend not registered")
	}
	for _, name := range Backends() {
		if err := config.Default().Set("engine.backend", name); err != nil {
			t.Errorf("backend %q rejected by config: %v", name, err)
		}
	}
}

func TestInteractiveMacros(t *testing.T) {
	macros := filepath.Join(t.TempDir(), "macros.json")
	in := strings.NewReader(strings.Join([]string{
		":rec a",
		`{"op":"type","text":"x"}`,
		":stop",
		":play a 2",
		":play b",
		":macros",
		":bogus",
		":q",
	}, "\r") + "\r")

	app, stdout := newApp(t, Options{Interactive: true, Stdin: in, Macros: macros})
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := app.Document().Content(); got != "xxx" {
		t.Errorf("Content() = %q, want %q", got, "xxx")
	}
	out := stdout.String()
	for _, want := range []string{"recording @a", "recorded @a (1 requests)", "@a  1 requests", "error: empty register: b", "unknown command"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// Macros persist into the next session.
	in = strings.NewReader(":play a\r:play\r")
	app, _ = newApp(t, Options{Interactive: true, Stdin: in, Macros: macros})
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if got := app.Document().Content(); got != "xx" {
		t.Errorf("Content() = %q, want %q", got, "xx")
	}
}

func TestInteractiveMacroStopsOnRejectedRequest(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		":rec m",
		`{"op":"type","text":"ab"}`,
		`{"op":"delete","start":0,"end":99}`,
		`{"op":"type","text":"c"}`,
		":stop",
		":play m",
	}, "\r") + "\r")

	app, stdout := newApp(t, Options{Interactive: true, Stdin: in})
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := app.Document().Content(); got != "abcab" {
		t.Errorf("Content() = %q, want %q", got, "abcab")
	}
	if !strings.Contains(stdout.String(), "error: macro m:") {
		t.Errorf("missing playback error:\n%s", stdout.String())
	}
}
