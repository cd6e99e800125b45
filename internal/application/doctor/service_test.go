package doctor

import (
	"context"
	"errors"
	"testing"

	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/infrastructure/filter"
	"github.com/doeshing/shellgate/internal/infrastructure/repository"
	"github.com/doeshing/shellgate/internal/infrastructure/rules"
	"github.com/doeshing/shellgate/internal/infrastructure/tracking"
)

type staticConfig struct {
	cfg domain.Config
	err error
}

func (s staticConfig) Load(context.Context) (domain.Config, error) { return s.cfg, s.err }

type passthroughFilter struct{}

func (passthroughFilter) Filter(content string) domain.FilterResult {
	return domain.FilterResult{FilteredContent: content}
}

func statuses(report domain.HealthReport) map[string]domain.HealthStatus {
	out := make(map[string]domain.HealthStatus, len(report.Checks))
	for _, check := range report.Checks {
		out[check.Name] = check.Status
	}
	return out
}

func TestRunHealthy(t *testing.T) {
	rs, err := rules.Default()
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	svc := &Service{
		ConfigProvider: staticConfig{cfg: domain.Config{ConfigFormatVersion: "1"}},
		Rules:          rs,
		Filter:         filter.New(rs, nil, nil),
		Tracker:        tracking.NewMemoryTracker(),
		TrackerName:    "memory",
		Repository:     repository.FromMap(map[string]string{"README.md": "# x"}),
	}

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for name, status := range statuses(report) {
		if status != domain.HealthOK {
			t.Errorf("%s: expected ok, got %s", name, status)
		}
	}
	if len(report.Checks) != 5 {
		t.Errorf("expected 5 checks, got %d", len(report.Checks))
	}
	if report.Failed() {
		t.Error("healthy report should not fail")
	}
}

func TestRunReportsProblems(t *testing.T) {
	svc := &Service{
		ConfigProvider: staticConfig{cfg: domain.Config{Tracking: domain.TrackingSettings{Backend: "redis"}}},
		Filter:         passthroughFilter{},
		Repository:     repository.New(),
	}

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := statuses(report)
	want := map[string]domain.HealthStatus{
		"Config file":        domain.HealthError,
		"Rule tables":        domain.HealthWarn,
		"Response filter":    domain.HealthError,
		"Conversion tracker": domain.HealthWarn,
		"Repository":         domain.HealthWarn,
	}
	for name, status := range want {
		if got[name] != status {
			t.Errorf("%s: expected %s, got %s", name, status, got[name])
		}
	}
	if !report.Failed() {
		t.Error("expected report to fail")
	}
}

func TestRunStopsOnConfigError(t *testing.T) {
	svc := &Service{ConfigProvider: staticConfig{err: errors.New("permission denied")}}

	report, err := svc.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(report.Checks) != 1 || report.Checks[0].Status != domain.HealthError {
		t.Errorf("unexpected report: %+v", report)
	}
}
