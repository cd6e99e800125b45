package webio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/infrastructure/repository"
)

func TestCaptureAndReset(t *testing.T) {
	io := New(nil, nil, nil)

	io.ToolOutput("Applied", 2, "edits")
	io.ToolError("boom")
	io.ToolWarning("careful")

	captured := io.Captured()
	assert.Equal(t, []string{"Applied 2 edits"}, captured.Output)
	assert.Equal(t, []string{"boom"}, captured.Errors)
	assert.Equal(t, []string{"careful"}, captured.Warnings)
	assert.Empty(t, captured.ConversionNotes)

	io.Reset()
	assert.Equal(t, domain.CapturedOutput{
		Output:          []string{},
		Errors:          []string{},
		Warnings:        []string{},
		ConversionNotes: []string{},
	}, io.Captured())
}

func TestReadTextUsesRepository(t *testing.T) {
	repo := repository.New(repository.File{Path: "README.md", Content: "# Demo\n"})
	io := New(repo, nil, nil)

	content, ok := io.ReadText(context.Background(), "README.md")
	assert.True(t, ok)
	assert.Equal(t, "# Demo\n", content)

	_, ok = io.ReadText(context.Background(), "missing.txt")
	assert.False(t, ok)

	_, ok = New(nil, nil, nil).ReadText(context.Background(), "README.md")
	assert.False(t, ok)
}

func TestWriteTextIsRecordedNotWritten(t *testing.T) {
	writes := map[string]string{}
	io := New(nil, nil, func(name, content string) { writes[name] = content })

	assert.True(t, io.WriteText("main.go", "package main"))

	assert.Equal(t, map[string]string{"main.go": "package main"}, writes)
	assert.Equal(t, []string{"File write intercepted: main.go"}, io.Captured().ConversionNotes)
}

func TestConfirmAskReturnsDefault(t *testing.T) {
	io := New(nil, nil, nil)
	assert.Equal(t, "y", io.ConfirmAsk("Apply edits?", "y", ""))
	assert.Equal(t, "n", io.ConfirmAsk("Run shell command?", "n", "ls"))
}
