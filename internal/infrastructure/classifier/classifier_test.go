package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/infrastructure/rules"
)

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	rs, err := rules.Default()
	require.NoError(t, err)
	return New(rs)
}

func TestClassify(t *testing.T) {
	c := newClassifier(t)

	tests := []struct {
		command string
		want    domain.CommandType
	}{
		{"ls -la", domain.CommandDirectory},
		{"DIR", domain.CommandDirectory},
		{"find . -name '*.py'", domain.CommandDirectory},
		{"cat src/main.py", domain.CommandFile},
		{"head -n 5 README.md", domain.CommandFile},
		{"grep TODO", domain.CommandSearch},
		{"sed -n 1p file", domain.CommandSearch},
		{"git push origin main", domain.CommandGit},
		{"mkdir build", domain.CommandFile},
		{"rm -rf /", domain.CommandFile},
		{"pip install flask", domain.CommandPackageInstall},
		{"npm install react", domain.CommandPackageInstall},
		{"python -m pytest tests", domain.CommandTest},
		{"go test ./...", domain.CommandTest},
		{"python app.py", domain.CommandBuild},
		{"go build ./cmd/x", domain.CommandBuild},
		{"docker compose up", domain.CommandDeployment},
		{"kubectl get pods", domain.CommandDeployment},
		{"curl https://example.com", domain.CommandNetwork},
		{"sudo reboot", domain.CommandSystem},
		{"chmod 600 key", domain.CommandSystem},
		{"lsof -i", domain.CommandShell},
		{"echo hello", domain.CommandShell},
		{"   ", domain.CommandShell},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.command))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := newClassifier(t)
	for _, cmd := range []string{"ls", "pip install x", "git status", "whatever"} {
		first := c.Classify(cmd)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, c.Classify(cmd))
		}
	}
}

func TestPriority(t *testing.T) {
	c := newClassifier(t)

	tests := []struct {
		command string
		want    domain.Priority
	}{
		{"ls", domain.PriorityHigh},
		{"cat a.txt", domain.PriorityHigh},
		{"grep x", domain.PriorityHigh},
		{"find .", domain.PriorityHigh},
		{"git status", domain.PriorityCritical},
		{"cd src", domain.PriorityCritical},
		{"tail -f log", domain.PriorityLow},
		{"awk '{print $1}'", domain.PriorityLow},
		{"pip install flask", domain.PriorityMedium},
		{"", domain.PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Priority(tt.command))
		})
	}
}

func TestNilRulesFallBack(t *testing.T) {
	c := New(nil)
	assert.Equal(t, domain.CommandShell, c.Classify("ls"))
	assert.Equal(t, domain.PriorityMedium, c.Priority("ls"))
}
