package doctor

import (
	"context"
	"fmt"

	appconfig "github.com/doeshing/shellgate/internal/application/config"
	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/ports"
)

// RuleSource describes the loaded rule tables.
type RuleSource interface {
	Source() string
	PatternCount() int
}

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Rules          RuleSource
	Filter         ports.ResponseFilter
	Tracker        ports.ConversionTracker
	TrackerName    string
	Repository     ports.RepositoryAccessor
}

// probeSession is never written to; progress for it is always empty.
const probeSession = "shellgate-doctor"

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	if err := appconfig.Validate(cfg); err != nil {
		checks = append(checks, fail("Config file", err.Error()))
	} else {
		checks = append(checks, ok("Config file", fmt.Sprintf("loaded version %s", cfg.ConfigFormatVersion)))
	}

	if s.Rules != nil {
		checks = append(checks, ok("Rule tables", fmt.Sprintf("%d filter patterns from %s", s.Rules.PatternCount(), s.Rules.Source())))
	} else {
		checks = append(checks, warn("Rule tables", "rules not loaded"))
	}

	checks = append(checks, s.filterCheck())

	if s.Tracker != nil {
		if _, err := s.Tracker.SessionProgress(ctx, probeSession); err != nil {
			checks = append(checks, fail("Conversion tracker", err.Error()))
		} else {
			checks = append(checks, ok("Conversion tracker", fmt.Sprintf("%s backend reachable", s.TrackerName)))
		}
	} else {
		checks = append(checks, warn("Conversion tracker", "tracking disabled"))
	}

	if s.Repository != nil {
		files, err := s.Repository.ListFiles(ctx)
		switch {
		case err != nil:
			checks = append(checks, warn("Repository", err.Error()))
		case len(files) == 0:
			checks = append(checks, warn("Repository", "no files found"))
		default:
			checks = append(checks, ok("Repository", fmt.Sprintf("%d files readable", len(files))))
		}
	}

	return domain.HealthReport{Checks: checks}, nil
}

// filterCheck confirms the filter rewrites a known install command.
func (s *Service) filterCheck() domain.HealthCheck {
	if s.Filter == nil {
		return warn("Response filter", "filter not initialized")
	}
	result := s.Filter.Filter("pip install flask")
	if len(result.CommandsFiltered) == 0 {
		return fail("Response filter", "package install text passed through unfiltered")
	}
	return ok("Response filter", "shell commands are removed from replies")
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
