package config

import (
	"fmt"
	"strings"

	"github.com/doeshing/shellgate/internal/domain"
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if err := validateTracking(cfg.Tracking); err != nil {
		return err
	}
	if err := validateRepository(cfg.Repository); err != nil {
		return err
	}
	if err := validateSession(cfg.Session); err != nil {
		return err
	}
	return validateLogging(cfg.Logging)
}

func validateTracking(tracking domain.TrackingSettings) error {
	switch strings.ToLower(tracking.Backend) {
	case "", domain.TrackingBackendSQLite, domain.TrackingBackendMemory:
	default:
		return fmt.Errorf("tracking.backend must be sqlite|memory, got %s", tracking.Backend)
	}
	if tracking.RetentionDays < 0 {
		return fmt.Errorf("tracking.retention_days must be >= 0")
	}
	return nil
}

func validateRepository(repo domain.RepositorySettings) error {
	if repo.MaxFileSize < 0 {
		return fmt.Errorf("repository.max_file_size must be >= 0")
	}
	for _, dir := range repo.IgnoreDirs {
		if strings.TrimSpace(dir) == "" || strings.ContainsAny(dir, `/\`) {
			return fmt.Errorf("repository.ignore_dirs entries must be plain directory names, got %q", dir)
		}
	}
	return nil
}

func validateSession(session domain.SessionSettings) error {
	if session.MaxContextFiles < 0 {
		return fmt.Errorf("session.max_context_files must be >= 0")
	}
	if session.MaxContextFiles > domain.MaxImportantFiles {
		return fmt.Errorf("session.max_context_files must be <= %d", domain.MaxImportantFiles)
	}
	return nil
}

func validateLogging(logging domain.LoggingSettings) error {
	switch strings.ToLower(logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug|info|warn|error, got %s", logging.Level)
	}
	switch strings.ToLower(logging.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json|console, got %s", logging.Format)
	}
	return nil
}
