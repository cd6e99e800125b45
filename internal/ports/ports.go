// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// The interception pipeline only talks to its collaborators through these
// contracts: the repository view it converts against, the tracker it reports
// to, the rule-driven classifier and filter, and the opaque assistant that
// issues shell commands in the first place. Concrete adapters live under
// internal/infrastructure.
package ports

import (
	"context"
	"time"

	"github.com/doeshing/shellgate/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from $XDG_CONFIG_HOME/shellgate/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// RepositoryAccessor is a read-only view of the repository the assistant works on.
// FileContent reports false when the file does not exist; FileMetadata likewise.
type RepositoryAccessor interface {
	ListFiles(ctx context.Context) ([]string, error)
	FileContent(ctx context.Context, path string) (string, bool, error)
	FileMetadata(ctx context.Context, path string) (domain.FileMetadata, bool, error)
}

// CommandClassifier labels a raw command string. Implementations must be pure.
type CommandClassifier interface {
	Classify(command string) domain.CommandType
	Priority(command string) domain.Priority
}

// CommandConverter substitutes a read-only equivalent for a shell command.
// Convert returns false when no web-safe equivalent exists; it never fails.
type CommandConverter interface {
	Convert(ctx context.Context, command string, repo RepositoryAccessor) (string, bool)
	DeclineReason(command string) string
}

// ConversionTracker records the lifecycle of intercepted commands.
type ConversionTracker interface {
	CreateOperation(ctx context.Context, req domain.ConversionRequest) (string, error)
	UpdateOperation(ctx context.Context, update domain.ConversionUpdate) error
	SessionProgress(ctx context.Context, sessionID string) (domain.SessionProgress, error)
	SessionOperations(ctx context.Context, sessionID string, limit int) ([]domain.ConversionOperation, error)
}

// OperationStore is a ConversionTracker that also owns retention and export.
type OperationStore interface {
	ConversionTracker
	Prune(ctx context.Context, before time.Time) (int64, error)
	ExportJSON(ctx context.Context, dest string) error
	Close() error
}

// ResponseFilter strips shell-command text from an assistant reply.
type ResponseFilter interface {
	Filter(content string) domain.FilterResult
}

// ShellRunner is the hook the assistant calls instead of spawning a process.
type ShellRunner interface {
	RunShell(ctx context.Context, command string) (int, string)
}

// AssistantIO is the full set of terminal capabilities the assistant may use.
// Anything not listed here is unavailable in web mode.
type AssistantIO interface {
	ToolOutput(messages ...interface{})
	ToolError(messages ...interface{})
	ToolWarning(messages ...interface{})
	ReadText(ctx context.Context, filename string) (string, bool)
	WriteText(filename, content string) bool
	ConfirmAsk(question, defaultAnswer, subject string) string
}

// Coder is the opaque AI assistant. It may call shell and io any number of
// times and returns its final reply text.
type Coder interface {
	Run(ctx context.Context, message string, io AssistantIO, shell ShellRunner) (string, error)
}

// MetricsRecorder receives pipeline counters. Implementations must be goroutine safe.
type MetricsRecorder interface {
	RecordInterception(commandType domain.CommandType, converted bool, seconds float64)
	RecordFiltered(commandType domain.CommandType)
	RecordTrackingError(call string)
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}

// CapturingIO is an AssistantIO that keeps what the assistant printed so it can
// be returned with the reply.
type CapturingIO interface {
	AssistantIO
	Captured() domain.CapturedOutput
	Reset()
}
