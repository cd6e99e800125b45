package coder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingIO struct {
	output, errors, warnings []string
	writes                   map[string]string
	files                    map[string]string
	confirms                 []string
}

func (r *recordingIO) ToolOutput(m ...interface{})  { r.output = append(r.output, fmt.Sprint(m...)) }
func (r *recordingIO) ToolError(m ...interface{})   { r.errors = append(r.errors, fmt.Sprint(m...)) }
func (r *recordingIO) ToolWarning(m ...interface{}) { r.warnings = append(r.warnings, fmt.Sprint(m...)) }
func (r *recordingIO) ReadText(_ context.Context, name string) (string, bool) {
	content, ok := r.files[name]
	return content, ok
}
func (r *recordingIO) WriteText(name, content string) bool {
	if r.writes == nil {
		r.writes = map[string]string{}
	}
	r.writes[name] = content
	return true
}
func (r *recordingIO) ConfirmAsk(question, def, _ string) string {
	r.confirms = append(r.confirms, question)
	return def
}

type fakeShell struct {
	calls []string
}

func (f *fakeShell) RunShell(_ context.Context, command string) (int, string) {
	f.calls = append(f.calls, command)
	if command == "git push" {
		return 1, "Shell command blocked for web safety: git push"
	}
	return 0, "ok: " + command
}

const sample = `
session: demo
message: Set up the project
steps:
  - shell: ls
  - shell: git push
  - read: README.md
  - read: missing.md
  - write:
      file: app.py
      content: print('hi')
  - confirm: Apply edits?
  - say: Done.
response: Run pip install flask to continue.
`

func TestParseAndRunScript(t *testing.T) {
	script, err := ParseScript([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "demo", script.Session)
	assert.Equal(t, "Set up the project", script.Message)
	require.Len(t, script.Steps, 7)

	io := &recordingIO{files: map[string]string{"README.md": "# Demo\n"}}
	shell := &fakeShell{}

	reply, err := NewScripted(script).Run(context.Background(), script.Message, io, shell)
	require.NoError(t, err)

	assert.Equal(t, "Run pip install flask to continue.", reply)
	assert.Equal(t, []string{"ls", "git push"}, shell.calls)
	assert.Equal(t, []string{
		"ok: ls",
		"Shell command blocked for web safety: git push",
		"Read README.md (7 bytes)",
		"Done.",
	}, io.output)
	assert.Equal(t, []string{"Command exited with status 1: git push"}, io.warnings)
	assert.Equal(t, []string{"Unable to read missing.md"}, io.errors)
	assert.Equal(t, map[string]string{"app.py": "print('hi')"}, io.writes)
	assert.Equal(t, []string{"Apply edits?"}, io.confirms)
}

func TestRunReturnsScriptedError(t *testing.T) {
	script, err := ParseScript([]byte("message: hi\nsteps:\n  - shell: ls\nerror: model unavailable\n"))
	require.NoError(t, err)

	shell := &fakeShell{}
	_, err = NewScripted(script).Run(context.Background(), "hi", &recordingIO{}, shell)
	assert.EqualError(t, err, "model unavailable")
	assert.Equal(t, []string{"ls"}, shell.calls)
}

func TestRunStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	shell := &fakeShell{}
	_, err := NewScripted(Script{Steps: []Step{{Shell: "ls"}}}).Run(ctx, "", &recordingIO{}, shell)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, shell.calls)
}

func TestParseScriptRejectsAmbiguousSteps(t *testing.T) {
	_, err := ParseScript([]byte("steps:\n  - shell: ls\n    say: hi\n"))
	assert.ErrorContains(t, err, "exactly one action")

	_, err = ParseScript([]byte("steps:\n  - {}\n"))
	assert.ErrorContains(t, err, "got 0")

	_, err = ParseScript([]byte("steps:\n  - write:\n      content: x\n"))
	assert.ErrorContains(t, err, "write requires a file")

	_, err = ParseScript([]byte("steps: [unterminated"))
	assert.Error(t, err)
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turn.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	script, err := LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", script.Session)

	_, err = LoadScript(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
