package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/ports"
)

// ErrContentOmitted is returned for files whose content was not loaded (binary or oversized).
var ErrContentOmitted = errors.New("file content not available in web mode")

// File describes one entry when building a Snapshot by hand.
type File struct {
	Path       string
	Content    string
	Language   string
	ModTime    time.Time
	Omitted    bool
	NoMetadata bool
}

type entry struct {
	content    string
	omitted    bool
	meta       domain.FileMetadata
	noMetadata bool
}

// Snapshot is an immutable in-memory view of a repository.
// It is safe for concurrent use.
type Snapshot struct {
	root    string
	entries map[string]entry
	paths   []string
}

// New builds a snapshot from explicit entries.
func New(files ...File) *Snapshot {
	s := &Snapshot{entries: make(map[string]entry, len(files))}
	for _, f := range files {
		p := normalize(f.Path)
		if p == "" {
			continue
		}
		lang := f.Language
		if lang == "" {
			lang = DetectLanguage(p)
		}
		s.entries[p] = entry{
			content: f.Content,
			omitted: f.Omitted,
			meta: domain.FileMetadata{
				Path:         p,
				Name:         path.Base(p),
				Size:         int64(len(f.Content)),
				Language:     lang,
				IsTracked:    true,
				LastModified: f.ModTime,
			},
			noMetadata: f.NoMetadata,
		}
	}
	s.index()
	return s
}

// FromMap builds a snapshot from path to content pairs.
func FromMap(files map[string]string) *Snapshot {
	list := make([]File, 0, len(files))
	for p, content := range files {
		list = append(list, File{Path: p, Content: content})
	}
	return New(list...)
}

// LoadOptions bounds a directory walk.
type LoadOptions struct {
	MaxFileSize int64
	IgnoreDirs  []string
}

// LoadDirectory walks root and captures every regular file. Hidden entries and
// ignored directories are skipped; files over MaxFileSize or that look binary
// keep their metadata but not their content.
func LoadDirectory(ctx context.Context, root string, opts LoadOptions) (*Snapshot, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat repository root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository root %s is not a directory", root)
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = domain.DefaultMaxFileSize
	}
	ignore := make(map[string]struct{}, len(opts.IgnoreDirs))
	for _, dir := range opts.IgnoreDirs {
		ignore[dir] = struct{}{}
	}

	s := &Snapshot{root: root, entries: make(map[string]entry)}
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == root {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if _, skip := ignore[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		e := entry{meta: domain.FileMetadata{
			Path:         rel,
			Name:         name,
			Size:         fi.Size(),
			Language:     DetectLanguage(rel),
			IsTracked:    true,
			LastModified: fi.ModTime(),
		}}
		if fi.Size() > opts.MaxFileSize {
			e.omitted = true
		} else {
			data, err := os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("read %s: %w", rel, err)
			}
			if looksBinary(data) {
				e.omitted = true
			} else {
				e.content = string(data)
			}
		}
		s.entries[rel] = e
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk repository: %w", err)
	}
	s.index()
	return s, nil
}

func (s *Snapshot) index() {
	s.paths = make([]string, 0, len(s.entries))
	for p := range s.entries {
		s.paths = append(s.paths, p)
	}
	sort.Strings(s.paths)
}

// Root returns the directory the snapshot was loaded from, if any.
func (s *Snapshot) Root() string { return s.root }

// Len returns the number of files.
func (s *Snapshot) Len() int { return len(s.paths) }

// ListFiles implements ports.RepositoryAccessor.
func (s *Snapshot) ListFiles(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string(nil), s.paths...), nil
}

// FileContent implements ports.RepositoryAccessor.
func (s *Snapshot) FileContent(ctx context.Context, p string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	e, ok := s.entries[normalize(p)]
	if !ok {
		return "", false, nil
	}
	if e.omitted {
		return "", true, ErrContentOmitted
	}
	return e.content, true, nil
}

// FileMetadata implements ports.RepositoryAccessor.
func (s *Snapshot) FileMetadata(ctx context.Context, p string) (domain.FileMetadata, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.FileMetadata{}, false, err
	}
	e, ok := s.entries[normalize(p)]
	if !ok || e.noMetadata {
		return domain.FileMetadata{}, false, nil
	}
	return e.meta, true, nil
}

func normalize(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return ""
	}
	p = strings.TrimPrefix(path.Clean(p), "./")
	if p == "." {
		return ""
	}
	return p
}

func looksBinary(data []byte) bool {
	sample := data
	if len(sample) > 8000 {
		sample = sample[:8000]
	}
	return bytes.IndexByte(sample, 0) >= 0
}

var languages = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".rb":    "ruby",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".sh":    "shell",
	".md":    "markdown",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".html":  "html",
	".css":   "css",
	".sql":   "sql",
	".txt":   "text",
	".kt":    "kotlin",
	".swift": "swift",
}

// DetectLanguage guesses a language from the file extension. Unknown extensions yield "".
func DetectLanguage(p string) string {
	base := strings.ToLower(path.Base(p))
	switch base {
	case "dockerfile":
		return "dockerfile"
	case "makefile":
		return "makefile"
	}
	return languages[path.Ext(base)]
}

var _ ports.RepositoryAccessor = (*Snapshot)(nil)
