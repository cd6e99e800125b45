package converter

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/google/shlex"

	"github.com/doeshing/shellgate/internal/ports"
)

// Fixed replies for commands that are categorically refused in web mode.
const (
	MsgMkdir = "Directory creation is handled automatically in web mode."
	MsgTouch = "File creation is handled automatically in web mode."
	MsgRm    = "File deletion is not supported in web mode for safety."
	MsgCp    = "File copying is not supported in web mode."
	MsgMv    = "File moving is not supported in web mode."

	msgNoFiles      = "No files found in repository"
	msgCatUsage     = "Usage: cat <filename>"
	msgGrepUsage    = "Usage: grep <pattern> [files...]"
	msgFindUsage    = "Usage: find [path] -name <pattern>"
	msgNotSupported = "Command type not supported for web conversion"
)

var errNoRepository = errors.New("repository unavailable")

// Converter answers read-only shell commands from a repository view.
type Converter struct{}

// New returns a Converter.
func New() *Converter {
	return &Converter{}
}

// Convert implements ports.CommandConverter. The boolean is false when the
// command has no web-safe equivalent.
func (c *Converter) Convert(ctx context.Context, command string, repo ports.RepositoryAccessor) (string, bool) {
	args := split(command)
	if len(args) == 0 {
		return "", false
	}

	switch strings.ToLower(args[0]) {
	case "ls", "dir":
		return c.list(ctx, repo), true
	case "cat", "type":
		return c.read(ctx, repo, args), true
	case "find":
		return c.find(ctx, repo, args), true
	case "grep":
		return c.grep(ctx, repo, args), true
	case "mkdir":
		return MsgMkdir, true
	case "touch":
		return MsgTouch, true
	case "rm", "rmdir":
		return MsgRm, true
	case "cp", "copy":
		return MsgCp, true
	case "mv", "move":
		return MsgMv, true
	default:
		return "", false
	}
}

// DeclineReason explains why Convert refused a command.
func (c *Converter) DeclineReason(command string) string {
	args := split(command)
	if len(args) > 0 && strings.EqualFold(args[0], "git") {
		return "Git operations are not supported in web mode. Command blocked: " + strings.TrimSpace(command)
	}
	return msgNotSupported
}

func (c *Converter) list(ctx context.Context, repo ports.RepositoryAccessor) string {
	files, err := listFiles(ctx, repo)
	if err != nil {
		return fmt.Sprintf("Error listing files: %v", err)
	}
	if len(files) == 0 {
		return msgNoFiles
	}

	lines := make([]string, 0, len(files))
	for _, file := range files {
		meta, ok, err := repo.FileMetadata(ctx, file)
		if err != nil || !ok {
			lines = append(lines, fmt.Sprintf("%8s %s", "?", file))
			continue
		}
		lines = append(lines, fmt.Sprintf("%8d %s", meta.Size, file))
	}
	return strings.Join(lines, "\n")
}

func (c *Converter) read(ctx context.Context, repo ports.RepositoryAccessor, args []string) string {
	if len(args) < 2 {
		return msgCatUsage
	}
	if repo == nil {
		return fmt.Sprintf("Error reading file: %v", errNoRepository)
	}
	name := args[1]
	content, ok, err := repo.FileContent(ctx, cleanPath(name))
	if err != nil {
		return fmt.Sprintf("Error reading file: %v", err)
	}
	if !ok {
		return "File not found: " + name
	}
	return content
}

func (c *Converter) find(ctx context.Context, repo ports.RepositoryAccessor, args []string) string {
	files, err := listFiles(ctx, repo)
	if err != nil {
		return fmt.Sprintf("Error finding files: %v", err)
	}

	root := ""
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		root = args[1]
	}
	files = underPath(files, root)

	for i := 1; i < len(args); i++ {
		flag := strings.ToLower(args[i])
		if flag != "-name" && flag != "-iname" {
			continue
		}
		if i+1 >= len(args) {
			return msgFindUsage
		}
		pattern := args[i+1]
		fold := flag == "-iname"
		if fold {
			pattern = strings.ToLower(pattern)
		}
		g, err := glob.Compile(pattern)
		if err != nil {
			return fmt.Sprintf("Error finding files: %v", err)
		}
		var matched []string
		for _, file := range files {
			candidate := file
			if fold {
				candidate = strings.ToLower(candidate)
			}
			if g.Match(candidate) || g.Match(path.Base(candidate)) {
				matched = append(matched, file)
			}
		}
		files = matched
		break
	}

	return strings.Join(files, "\n")
}

func (c *Converter) grep(ctx context.Context, repo ports.RepositoryAccessor, args []string) string {
	var (
		ignoreCase bool
		operands   []string
	)
	flagsDone := false
	for _, arg := range args[1:] {
		if !flagsDone && arg == "--" {
			flagsDone = true
			continue
		}
		if !flagsDone && len(operands) == 0 && strings.HasPrefix(arg, "-") && len(arg) > 1 {
			if strings.Contains(arg[1:], "i") && !strings.HasPrefix(arg, "--") {
				ignoreCase = true
			}
			continue
		}
		operands = append(operands, arg)
	}
	if len(operands) == 0 {
		return msgGrepUsage
	}

	pattern := strings.Trim(operands[0], `"'`)
	all, err := listFiles(ctx, repo)
	if err != nil {
		return fmt.Sprintf("Error searching files: %v", err)
	}
	targets := resolveTargets(all, operands[1:])

	needle := pattern
	if ignoreCase {
		needle = strings.ToLower(pattern)
	}

	var results []string
	for _, file := range targets {
		content, ok, err := repo.FileContent(ctx, file)
		if err != nil {
			// unreadable files (binary, oversized) are skipped like empty ones
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Sprintf("Error searching files: %v", ctxErr)
			}
			continue
		}
		if !ok || content == "" {
			continue
		}
		for i, line := range strings.Split(content, "\n") {
			line = strings.TrimSuffix(line, "\r")
			haystack := line
			if ignoreCase {
				haystack = strings.ToLower(line)
			}
			if strings.Contains(haystack, needle) {
				results = append(results, fmt.Sprintf("%s:%d:%s", file, i+1, line))
			}
		}
	}

	if len(results) == 0 {
		return fmt.Sprintf("Pattern '%s' not found", pattern)
	}
	return strings.Join(results, "\n")
}

// resolveTargets expands grep file operands against the repository listing.
// No operands means every file; "." and directory names expand to the files beneath them.
func resolveTargets(all []string, operands []string) []string {
	if len(operands) == 0 {
		return all
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(file string) {
		if _, ok := seen[file]; ok {
			return
		}
		seen[file] = struct{}{}
		out = append(out, file)
	}
	for _, operand := range operands {
		expanded := underPath(all, operand)
		if len(expanded) == 0 {
			add(cleanPath(operand))
			continue
		}
		for _, file := range expanded {
			add(file)
		}
	}
	return out
}

// underPath returns the files equal to or nested below dir. An empty dir or "." keeps everything.
func underPath(files []string, dir string) []string {
	dir = cleanPath(dir)
	if dir == "" || dir == "." {
		return files
	}
	var out []string
	for _, file := range files {
		if file == dir || strings.HasPrefix(file, dir+"/") {
			out = append(out, file)
		}
	}
	return out
}

func cleanPath(p string) string {
	if p == "" {
		return ""
	}
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimPrefix(p, "./")
}

func listFiles(ctx context.Context, repo ports.RepositoryAccessor) ([]string, error) {
	if repo == nil {
		return nil, errNoRepository
	}
	files, err := repo.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	return sorted, nil
}

// split tokenizes like a POSIX shell, falling back to whitespace on unbalanced quotes.
func split(command string) []string {
	args, err := shlex.Split(command)
	if err != nil {
		return strings.Fields(command)
	}
	return args
}

var _ ports.CommandConverter = (*Converter)(nil)
