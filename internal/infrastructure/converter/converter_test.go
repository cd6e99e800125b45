package converter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/infrastructure/repository"
)

func fixture() *repository.Snapshot {
	return repository.New(
		repository.File{Path: "README.md", Content: "# Demo\n"},
		repository.File{Path: "src/main.py", Content: "print('hi')"},
		repository.File{Path: "src/app.py", Content: "import os\n\n# TODO fix this\n"},
		repository.File{Path: "notes/todo.txt", Content: "", NoMetadata: true},
	)
}

type failingRepo struct{}

func (failingRepo) ListFiles(context.Context) ([]string, error) {
	return nil, errors.New("boom")
}

func (failingRepo) FileContent(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk gone")
}

func (failingRepo) FileMetadata(context.Context, string) (domain.FileMetadata, bool, error) {
	return domain.FileMetadata{}, false, errors.New("boom")
}

func TestConvertReadCommands(t *testing.T) {
	c := New()
	repo := fixture()
	ctx := context.Background()

	tests := []struct {
		name    string
		command string
		want    string
	}{
		{"cat existing", "cat src/main.py", "print('hi')"},
		{"type alias", "type ./src/main.py", "print('hi')"},
		{"cat missing", "cat nope.txt", "File not found: nope.txt"},
		{"cat usage", "cat", "Usage: cat <filename>"},
		{"cat empty file", "cat notes/todo.txt", ""},
		{"ls", "ls -la", "       7 README.md\n       ? notes/todo.txt\n      27 src/app.py\n      11 src/main.py"},
		{"find glob", "find . -name '*.py'", "src/app.py\nsrc/main.py"},
		{"find basename", "find -name main.py", "src/main.py"},
		{"find path", "find src", "src/app.py\nsrc/main.py"},
		{"find iname", "find . -iname 'READ*'", "README.md"},
		{"find usage", "find . -name", "Usage: find [path] -name <pattern>"},
		{"grep all", "grep TODO", "src/app.py:3:# TODO fix this"},
		{"grep dir with flags", "grep -n TODO src", "src/app.py:3:# TODO fix this"},
		{"grep ignore case", `grep -i "todo" src/app.py`, "src/app.py:3:# TODO fix this"},
		{"grep none", "grep missing", "Pattern 'missing' not found"},
		{"grep usage", "grep", "Usage: grep <pattern> [files...]"},
		{"grep missing file", "grep TODO absent.py", "Pattern 'TODO' not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Convert(ctx, tt.command, repo)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertFixedDeclines(t *testing.T) {
	c := New()
	repo := fixture()

	tests := map[string]string{
		"mkdir build":   MsgMkdir,
		"touch new.txt": MsgTouch,
		"rm -rf /":      MsgRm,
		"rmdir src":     MsgRm,
		"cp a b":        MsgCp,
		"copy a b":      MsgCp,
		"mv a b":        MsgMv,
		"MOVE a b":      MsgMv,
	}
	for command, want := range tests {
		got, ok := c.Convert(context.Background(), command, repo)
		assert.True(t, ok, command)
		assert.Equal(t, want, got, command)
	}
}

func TestConvertUnsupported(t *testing.T) {
	c := New()
	repo := fixture()

	for _, command := range []string{
		"git status",
		"git push origin main",
		"pip install flask",
		"npm test",
		"docker build .",
		"curl https://example.com",
		"sudo ls",
		"make all",
		"echo hi",
		"lsof",
		"",
	} {
		got, ok := c.Convert(context.Background(), command, repo)
		assert.False(t, ok, command)
		assert.Empty(t, got, command)
	}
}

func TestConvertRepositoryErrorsBecomeText(t *testing.T) {
	c := New()
	ctx := context.Background()

	got, ok := c.Convert(ctx, "ls", failingRepo{})
	assert.True(t, ok)
	assert.Equal(t, "Error listing files: boom", got)

	got, ok = c.Convert(ctx, "cat a.txt", failingRepo{})
	assert.True(t, ok)
	assert.Equal(t, "Error reading file: disk gone", got)

	got, _ = c.Convert(ctx, "find . -name x", failingRepo{})
	assert.Equal(t, "Error finding files: boom", got)

	got, _ = c.Convert(ctx, "grep x", failingRepo{})
	assert.Equal(t, "Error searching files: boom", got)

	got, ok = c.Convert(ctx, "ls", nil)
	assert.True(t, ok)
	assert.Equal(t, "Error listing files: repository unavailable", got)
}

func TestConvertGrepSkipsUnreadableFiles(t *testing.T) {
	repo := repository.New(
		repository.File{Path: "assets/logo.png", Omitted: true},
		repository.File{Path: "src/app.py", Content: "a\nb\n# TODO fix this\n"},
	)

	got, ok := New().Convert(context.Background(), "grep TODO", repo)
	assert.True(t, ok)
	assert.Equal(t, "src/app.py:3:# TODO fix this", got)

	got, _ = New().Convert(context.Background(), "grep TODO assets", repo)
	assert.Equal(t, "Pattern 'TODO' not found", got)
}

func TestConvertEmptyRepository(t *testing.T) {
	got, ok := New().Convert(context.Background(), "dir", repository.New())
	assert.True(t, ok)
	assert.Equal(t, "No files found in repository", got)
}

func TestDeclineReason(t *testing.T) {
	c := New()
	assert.Equal(t, "Git operations are not supported in web mode. Command blocked: git push origin main", c.DeclineReason("git push origin main"))
	assert.Equal(t, "Command type not supported for web conversion", c.DeclineReason("pip install flask"))
}

func TestConvertIsDeterministic(t *testing.T) {
	c := New()
	repo := fixture()
	first, _ := c.Convert(context.Background(), "grep import", repo)
	for i := 0; i < 5; i++ {
		again, _ := c.Convert(context.Background(), "grep import", repo)
		assert.Equal(t, first, again)
	}
}
