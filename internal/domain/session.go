package domain

import "time"

// FileMetadata describes a file in the virtual repository view.
type FileMetadata struct {
	Path         string    `json:"path"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	Language     string    `json:"language,omitempty"`
	IsTracked    bool      `json:"is_tracked"`
	LastModified time.Time `json:"last_modified"`
}

// ContextFile is a repository file the assistant was given for a session.
type ContextFile struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Language   string    `json:"language,omitempty"`
	AddedAt    time.Time `json:"added_at"`
	IsModified bool      `json:"is_modified"`
}

// CapturedOutput is what the assistant printed during one message.
type CapturedOutput struct {
	Output          []string `json:"output"`
	Errors          []string `json:"errors"`
	Warnings        []string `json:"warnings"`
	ConversionNotes []string `json:"conversion_notes"`
}

// AssistantResponse is the filtered reply handed back to the chat UI.
type AssistantResponse struct {
	Content                string            `json:"content"`
	Model                  string            `json:"model,omitempty"`
	ContextFilesUsed       []string          `json:"context_files_used"`
	ShellCommandsConverted []string          `json:"shell_commands_converted"`
	ConversionNotes        string            `json:"conversion_notes,omitempty"`
	CommandsFiltered       int               `json:"commands_filtered"`
	Captured               CapturedOutput    `json:"captured"`
	Error                  string            `json:"error,omitempty"`
	Metadata               map[string]string `json:"metadata,omitempty"`
}
