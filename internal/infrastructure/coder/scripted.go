// Package coder provides a deterministic stand-in for the AI assistant. A
// script lists the tool calls the assistant would make for one message and
// the reply it would give.
package coder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/shellgate/internal/ports"
)

// Step is one assistant action. Exactly one field must be set.
type Step struct {
	Shell   string     `yaml:"shell,omitempty"`
	Read    string     `yaml:"read,omitempty"`
	Write   *WriteStep `yaml:"write,omitempty"`
	Confirm string     `yaml:"confirm,omitempty"`
	Say     string     `yaml:"say,omitempty"`
}

// WriteStep is a file edit the assistant attempts.
type WriteStep struct {
	File    string `yaml:"file"`
	Content string `yaml:"content"`
}

// Script describes one message turn.
type Script struct {
	Session  string `yaml:"session,omitempty"`
	Message  string `yaml:"message"`
	Steps    []Step `yaml:"steps"`
	Response string `yaml:"response"`
	// Error makes the run fail after the steps, as a crashed assistant would.
	Error string `yaml:"error,omitempty"`
}

// LoadScript reads a YAML script from path.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes and validates a YAML script.
func ParseScript(data []byte) (Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return Script{}, fmt.Errorf("parse script: %w", err)
	}
	for i, step := range script.Steps {
		if n := step.kinds(); n != 1 {
			return Script{}, fmt.Errorf("step %d: expected exactly one action, got %d", i+1, n)
		}
		if step.Write != nil && strings.TrimSpace(step.Write.File) == "" {
			return Script{}, fmt.Errorf("step %d: write requires a file", i+1)
		}
	}
	return script, nil
}

func (s Step) kinds() int {
	n := 0
	for _, set := range []bool{s.Shell != "", s.Read != "", s.Write != nil, s.Confirm != "", s.Say != ""} {
		if set {
			n++
		}
	}
	return n
}

// Scripted implements ports.Coder by replaying a Script.
type Scripted struct {
	Script Script
}

// NewScripted wraps a parsed script.
func NewScripted(script Script) *Scripted {
	return &Scripted{Script: script}
}

// Run replays every step against io and shell. The message argument is
// ignored; the script already fixes the reply.
func (c *Scripted) Run(ctx context.Context, _ string, io ports.AssistantIO, shell ports.ShellRunner) (string, error) {
	for _, step := range c.Script.Steps {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		switch {
		case step.Shell != "":
			code, output := shell.RunShell(ctx, step.Shell)
			if output != "" {
				io.ToolOutput(output)
			}
			if code != 0 {
				io.ToolWarning(fmt.Sprintf("Command exited with status %d: %s", code, step.Shell))
			}
		case step.Read != "":
			content, ok := io.ReadText(ctx, step.Read)
			if !ok {
				io.ToolError("Unable to read " + step.Read)
				continue
			}
			io.ToolOutput(fmt.Sprintf("Read %s (%d bytes)", step.Read, len(content)))
		case step.Write != nil:
			if !io.WriteText(step.Write.File, step.Write.Content) {
				io.ToolError("Unable to write " + step.Write.File)
			}
		case step.Confirm != "":
			io.ConfirmAsk(step.Confirm, "y", "")
		case step.Say != "":
			io.ToolOutput(step.Say)
		}
	}
	if c.Script.Error != "" {
		return "", errors.New(c.Script.Error)
	}
	return c.Script.Response, nil
}

var _ ports.Coder = (*Scripted)(nil)
