// Package webio adapts the assistant's terminal IO to a web request: output is
// captured for display, reads go through the repository view, and nothing is
// ever written to disk.
package webio

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/ports"
)

// WriteRecorder receives file writes the assistant attempted.
type WriteRecorder func(filename, content string)

// WebSafeIO implements ports.AssistantIO.
type WebSafeIO struct {
	Repo    ports.RepositoryAccessor
	Logger  ports.Logger
	OnWrite WriteRecorder

	mu       sync.Mutex
	captured domain.CapturedOutput
}

// New builds an adapter reading from repo. logger and onWrite may be nil.
func New(repo ports.RepositoryAccessor, logger ports.Logger, onWrite WriteRecorder) *WebSafeIO {
	return &WebSafeIO{Repo: repo, Logger: logger, OnWrite: onWrite}
}

// ToolOutput captures an informational message.
func (w *WebSafeIO) ToolOutput(messages ...interface{}) {
	msg := join(messages)
	w.debug("tool output", msg)
	w.mu.Lock()
	w.captured.Output = append(w.captured.Output, msg)
	w.mu.Unlock()
}

// ToolError captures an error message.
func (w *WebSafeIO) ToolError(messages ...interface{}) {
	msg := join(messages)
	if w.Logger != nil {
		w.Logger.Error("tool error", nil, map[string]interface{}{"message": msg})
	}
	w.mu.Lock()
	w.captured.Errors = append(w.captured.Errors, msg)
	w.mu.Unlock()
}

// ToolWarning captures a warning message.
func (w *WebSafeIO) ToolWarning(messages ...interface{}) {
	msg := join(messages)
	if w.Logger != nil {
		w.Logger.Warn("tool warning", map[string]interface{}{"message": msg})
	}
	w.mu.Lock()
	w.captured.Warnings = append(w.captured.Warnings, msg)
	w.mu.Unlock()
}

// ReadText returns the repository content of filename.
func (w *WebSafeIO) ReadText(ctx context.Context, filename string) (string, bool) {
	if w.Repo == nil {
		return "", false
	}
	content, ok, err := w.Repo.FileContent(ctx, filename)
	if err != nil {
		if w.Logger != nil {
			w.Logger.Error("read file failed", err, map[string]interface{}{"file": filename})
		}
		return "", false
	}
	return content, ok
}

// WriteText records the write without touching disk.
func (w *WebSafeIO) WriteText(filename, content string) bool {
	if w.Logger != nil {
		w.Logger.Info("intercepted file write", map[string]interface{}{"file": filename})
	}
	if w.OnWrite != nil {
		w.OnWrite(filename, content)
	}
	w.mu.Lock()
	w.captured.ConversionNotes = append(w.captured.ConversionNotes, "File write intercepted: "+filename)
	w.mu.Unlock()
	return true
}

// ConfirmAsk answers every prompt with its default.
func (w *WebSafeIO) ConfirmAsk(question, defaultAnswer, subject string) string {
	if w.Logger != nil {
		fields := map[string]interface{}{"question": question, "answer": defaultAnswer}
		if subject != "" {
			fields["subject"] = subject
		}
		w.Logger.Info("auto-confirming prompt", fields)
	}
	return defaultAnswer
}

// Captured returns a copy of everything captured since the last Reset.
func (w *WebSafeIO) Captured() domain.CapturedOutput {
	w.mu.Lock()
	defer w.mu.Unlock()
	return domain.CapturedOutput{
		Output:          append([]string{}, w.captured.Output...),
		Errors:          append([]string{}, w.captured.Errors...),
		Warnings:        append([]string{}, w.captured.Warnings...),
		ConversionNotes: append([]string{}, w.captured.ConversionNotes...),
	}
}

// Reset drops captured output ahead of a new message.
func (w *WebSafeIO) Reset() {
	w.mu.Lock()
	w.captured = domain.CapturedOutput{}
	w.mu.Unlock()
}

func (w *WebSafeIO) debug(msg, text string) {
	if w.Logger != nil {
		w.Logger.Debug(msg, map[string]interface{}{"message": text})
	}
}

func join(messages []interface{}) string {
	return strings.TrimSuffix(fmt.Sprintln(messages...), "\n")
}

var _ ports.AssistantIO = (*WebSafeIO)(nil)
