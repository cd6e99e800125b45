package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shellgate/internal/domain"
)

func TestDefaultRulesCompile(t *testing.T) {
	rs, err := Default()
	require.NoError(t, err)

	assert.Equal(t, SourceEmbedded, rs.Source())
	assert.NotEmpty(t, rs.Classification())
	assert.Len(t, rs.Priorities(), 3)
	assert.Equal(t, []domain.CommandType{
		domain.CommandPackageInstall,
		domain.CommandFile,
		domain.CommandGit,
		domain.CommandSystem,
		domain.CommandBuild,
		domain.CommandTest,
		domain.CommandDeployment,
		domain.CommandNetwork,
	}, rs.FilterTypes())
	assert.Greater(t, rs.PatternCount(), 90)
	assert.Contains(t, rs.Alternative(domain.CommandGit), "Git Operations Must Be Done Manually")
	assert.Contains(t, rs.Alternative(domain.CommandShell), "Command Not Available")
	assert.Contains(t, rs.CodeBlockNotice(), "```text")
	assert.Equal(t, "`[Shell command removed for security]`", rs.InlineNotice())
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	rs, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, SourceEmbedded, rs.Source())
}

func TestLoadOverridesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	data := []byte(`rules:
  classification:
    - type: git_operation
      prefixes: ["hub"]
  filter:
    patterns:
      network_command: ['nc\s+\S+']
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	rs, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, rs.Source())
	require.Len(t, rs.Classification(), 1)
	assert.Equal(t, [][]string{{"hub"}}, rs.Classification()[0].Prefixes)
	assert.Equal(t, []domain.CommandType{domain.CommandNetwork}, rs.FilterTypes())
	// Untouched sections come from the embedded tables.
	assert.Len(t, rs.Priorities(), 3)
	assert.Contains(t, rs.Alternative(domain.CommandNetwork), "Network Commands Not Available")
}

func TestParseRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown type": `rules:
  classification:
    - type: teleport
      prefixes: ["beam"]
`,
		"bad regex": `rules:
  filter:
    patterns:
      git_operation: ['git\s+(']
`,
		"unknown level": `rules:
  priorities:
    - level: urgent
      prefixes: ["ls"]
`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data), name)
			assert.Error(t, err)
		})
	}
}

func TestPatternsAreCaseInsensitiveAndWordAnchored(t *testing.T) {
	rs, err := Default()
	require.NoError(t, err)

	var idPattern bool
	for _, re := range rs.Patterns(domain.CommandSystem) {
		if re.MatchString("run ID to see your uid") {
			idPattern = true
		}
		assert.False(t, re.MatchString("idle hands"), re.String())
	}
	assert.True(t, idPattern)
}
