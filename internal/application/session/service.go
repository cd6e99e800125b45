// Package session runs one chat turn end to end: it loads repository context,
// hands the message to the assistant with shell execution replaced by the
// interception gate, and filters shell commands out of the reply.
package session

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/doeshing/shellgate/internal/application/intercept"
	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/pkg/logger"
	"github.com/doeshing/shellgate/internal/ports"
)

const (
	emptyReply   = "I understand your request. How can I help you with your code?"
	apologyReply = "I encountered an error while processing your request: "
)

// Service owns the per-session state around one Gate.
type Service struct {
	Gate       *intercept.Gate
	IO         ports.CapturingIO
	Coder      ports.Coder
	Filter     ports.ResponseFilter
	Repository ports.RepositoryAccessor
	Tracker    ports.ConversionTracker
	Logger     ports.Logger
	Model      string
	// MaxContextFiles caps files added automatically; zero means the default.
	MaxContextFiles int
	Now             func() time.Time

	mu            sync.Mutex
	contextOrder  []string
	contextFiles  map[string]domain.ContextFile
	modifications map[string]string
}

// SetSessionID starts tracking interceptions under id.
func (s *Service) SetSessionID(id string) {
	s.Gate.SetSession(id)
	s.log().Info("conversion tracking session set", map[string]interface{}{"session_id": id})
}

// AddContextFile loads a repository file into the assistant's context.
// Adding a file twice is a no-op.
func (s *Service) AddContextFile(ctx context.Context, filePath string) error {
	if s.Repository == nil {
		return errors.New("no repository attached")
	}
	meta, ok, err := s.Repository.FileMetadata(ctx, filePath)
	if err != nil {
		return fmt.Errorf("file metadata: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrFileNotFound, filePath)
	}
	key := meta.Path
	if key == "" {
		key = cleanPath(filePath)
	}
	name := meta.Name
	if name == "" {
		name = path.Base(key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	if _, exists := s.contextFiles[key]; exists {
		return nil
	}
	_, modified := s.modifications[key]
	s.contextFiles[key] = domain.ContextFile{
		Path:       key,
		Name:       name,
		Size:       meta.Size,
		Language:   meta.Language,
		AddedAt:    s.now(),
		IsModified: modified,
	}
	s.contextOrder = append(s.contextOrder, key)
	return nil
}

// RemoveContextFile drops a file from the context and reports whether it was present.
func (s *Service) RemoveContextFile(filePath string) bool {
	filePath = cleanPath(filePath)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contextFiles[filePath]; !ok {
		return false
	}
	delete(s.contextFiles, filePath)
	for i, p := range s.contextOrder {
		if p == filePath {
			s.contextOrder = append(s.contextOrder[:i], s.contextOrder[i+1:]...)
			break
		}
	}
	return true
}

// ContextFiles returns the context in the order files were added.
func (s *Service) ContextFiles() []domain.ContextFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ContextFile, 0, len(s.contextOrder))
	for _, p := range s.contextOrder {
		out = append(out, s.contextFiles[p])
	}
	return out
}

// ContextFilePaths returns the context paths in the order files were added.
func (s *Service) ContextFilePaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.contextOrder...)
}

// EnsureRepositoryContext fills an empty context with the repository's most
// important non-empty files and returns how many were added.
func (s *Service) EnsureRepositoryContext(ctx context.Context) (int, error) {
	if s.Repository == nil || len(s.ContextFilePaths()) > 0 {
		return 0, nil
	}
	files, err := s.Repository.ListFiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("list files: %w", err)
	}
	if len(files) == 0 {
		s.log().Warn("repository has no files", nil)
		return 0, nil
	}

	limit := s.MaxContextFiles
	if limit <= 0 {
		limit = domain.DefaultMaxContextFiles
	}
	added := 0
	for _, candidate := range ImportantFiles(files) {
		if added >= limit {
			break
		}
		content, ok, err := s.Repository.FileContent(ctx, candidate)
		if err != nil || !ok || strings.TrimSpace(content) == "" {
			s.log().Debug("skipped context candidate", map[string]interface{}{"file": candidate})
			continue
		}
		if err := s.AddContextFile(ctx, candidate); err != nil {
			s.log().Debug("could not add context file", map[string]interface{}{
				"file":  candidate,
				"error": err.Error(),
			})
			continue
		}
		added++
	}
	s.log().Info("added repository context", map[string]interface{}{"files_added": added})
	return added, nil
}

// RecordWrite keeps a file edit the assistant attempted. Nothing reaches disk.
func (s *Service) RecordWrite(filename, content string) {
	filename = cleanPath(filename)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	s.modifications[filename] = content
	if file, ok := s.contextFiles[filename]; ok {
		file.IsModified = true
		s.contextFiles[filename] = file
	}
}

// Modifications returns a copy of every recorded file edit.
func (s *Service) Modifications() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.modifications))
	for k, v := range s.modifications {
		out[k] = v
	}
	return out
}

// ProcessMessage runs one chat turn. An assistant failure is reported in the
// reply text rather than as an error.
func (s *Service) ProcessMessage(ctx context.Context, message string) (domain.AssistantResponse, error) {
	if s.Gate == nil || s.IO == nil || s.Coder == nil || s.Filter == nil {
		return domain.AssistantResponse{}, errors.New("session.Service dependencies not satisfied")
	}
	if err := ctx.Err(); err != nil {
		return domain.AssistantResponse{}, err
	}
	s.log().Info("processing message", map[string]interface{}{"model": s.Model})

	s.Gate.ResetIntercepted()
	s.IO.Reset()

	if _, err := s.EnsureRepositoryContext(ctx); err != nil {
		s.log().Warn("repository context unavailable", map[string]interface{}{"error": err.Error()})
	}

	content, err := s.Coder.Run(ctx, message, s.IO, s.Gate)
	switch {
	case err != nil:
		s.log().Error("assistant run failed", err, nil)
		content = apologyReply + err.Error()
	case strings.TrimSpace(content) == "":
		content = emptyReply
	}

	filtered := s.Filter.Filter(content)
	captured := s.IO.Captured()
	intercepted := s.Gate.Intercepted()
	contextPaths := s.ContextFilePaths()

	return domain.AssistantResponse{
		Content:                filtered.FilteredContent,
		Model:                  s.Model,
		ContextFilesUsed:       contextPaths,
		ShellCommandsConverted: intercepted,
		ConversionNotes:        strings.Join(captured.ConversionNotes, "\n"),
		CommandsFiltered:       len(filtered.CommandsFiltered),
		Captured:               captured,
		Metadata: map[string]string{
			"model_used":                 s.Model,
			"context_file_count":         fmt.Sprint(len(contextPaths)),
			"shell_commands_intercepted": fmt.Sprint(len(intercepted)),
			"alternatives_suggested":     fmt.Sprint(filtered.AlternativesSuggested),
		},
	}, nil
}

// ConversionStatus returns the gate's running aggregate.
func (s *Service) ConversionStatus() domain.ConversionStatus {
	return s.Gate.Status()
}

// ConversionProgress combines the tracker's view of the session with the
// local aggregate. A tracker failure is reported in the Error field.
func (s *Service) ConversionProgress(ctx context.Context) domain.ConversionProgress {
	progress := domain.ConversionProgress{Local: s.Gate.Status()}
	sessionID := s.Gate.SessionID()
	if s.Tracker == nil || sessionID == "" {
		return progress
	}
	remote, err := s.Tracker.SessionProgress(ctx, sessionID)
	if err != nil {
		s.log().Error("session progress failed", err, map[string]interface{}{"session_id": sessionID})
		progress.Error = err.Error()
		return progress
	}
	progress.Session = &remote
	return progress
}

// ConversionOperations lists the newest tracked operations of the session.
func (s *Service) ConversionOperations(ctx context.Context, limit int) ([]domain.ConversionOperation, error) {
	sessionID := s.Gate.SessionID()
	if s.Tracker == nil || sessionID == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = domain.DefaultOperationsLimit
	}
	return s.Tracker.SessionOperations(ctx, sessionID, limit)
}

func (s *Service) init() {
	if s.contextFiles == nil {
		s.contextFiles = make(map[string]domain.ContextFile)
	}
	if s.modifications == nil {
		s.modifications = make(map[string]string)
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) log() ports.Logger {
	if s.Logger == nil {
		return logger.Nop()
	}
	return s.Logger
}

// cleanPath reduces a caller path to the slash-separated repository form.
func cleanPath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return ""
	}
	return strings.TrimPrefix(path.Clean(p), "./")
}
