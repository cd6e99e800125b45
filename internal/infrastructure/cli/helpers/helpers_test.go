package helpers

import (
	"os"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shellgate/internal/domain"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "[OK]", HealthLabel(domain.HealthOK))
	assert.Equal(t, "[WARN]", HealthLabel(domain.HealthWarn))
	assert.Equal(t, "[ERROR]", HealthLabel(domain.HealthError))
	assert.Equal(t, "converted", ExitLabel(0))
	assert.Equal(t, "blocked (exit 1)", ExitLabel(1))
	assert.Equal(t, "failed", StateLabel(domain.StateFailed))
	assert.Equal(t, "66.7%", Percent(float64(2)/3*100))
}

func TestSummariseOperations(t *testing.T) {
	ops := []domain.ConversionOperation{
		{OriginalCommand: "ls", Type: domain.CommandFile, Status: domain.StateCompleted},
		{OriginalCommand: "git push", Type: domain.CommandGit, Status: domain.StateFailed},
		{OriginalCommand: "ls", Type: domain.CommandFile, Status: domain.StateCompleted},
		{OriginalCommand: "cat a", Type: domain.CommandFile, Status: domain.StateInProgress},
	}

	stats := SummariseOperations(ops, 2)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.ByType[domain.CommandFile])
	assert.Equal(t, 2, stats.ByStatus[domain.StateCompleted])
	assert.Equal(t, []CommandStatistic{{Command: "ls", Count: 2}, {Command: "cat a", Count: 1}}, stats.TopCommands)

	assert.Zero(t, CalculateSuccessRate(0, 0))
	assert.Equal(t, 50.0, CalculateSuccessRate(1, 2))
}

func TestNestedMapHelpers(t *testing.T) {
	root := map[string]interface{}{"tracking": map[string]interface{}{"backend": "sqlite"}}

	require.True(t, SetNestedMapValue(root, []string{"tracking", "backend"}, "memory"))
	require.True(t, SetNestedMapValue(root, []string{"session", "model"}, "gpt-4o"))
	assert.False(t, SetNestedMapValue(root, nil, "x"))

	value, ok := TraverseNestedMap(root, []string{"tracking", "backend"})
	require.True(t, ok)
	assert.Equal(t, "memory", value)
	value, ok = TraverseNestedMap(root, []string{"session", "model"})
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", value)
	_, ok = TraverseNestedMap(root, []string{"tracking", "backend", "deeper"})
	assert.False(t, ok)

	assert.Equal(t, 4, ParseYAMLValue("4"))
	assert.Equal(t, "plain", ParseYAMLValue("plain"))
}

func TestConfigMapRoundTrip(t *testing.T) {
	cfg := domain.Config{Tracking: domain.TrackingSettings{Backend: "memory", RetentionDays: 3}}

	cfgMap, err := ConfigToMap(cfg)
	require.NoError(t, err)
	require.True(t, SetNestedMapValue(cfgMap, []string{"session", "max_context_files"}, 99))

	_, err = MapToConfig(cfgMap)
	assert.Error(t, err)

	require.True(t, SetNestedMapValue(cfgMap, []string{"session", "max_context_files"}, 3))
	updated, err := MapToConfig(cfgMap)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Session.MaxContextFiles)
	assert.Equal(t, "memory", updated.Tracking.Backend)
}
