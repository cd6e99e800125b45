package domain

import "strings"

// Tracking backends understood by the container.
const (
	TrackingBackendSQLite = "sqlite"
	TrackingBackendMemory = "memory"
)

// GetTrackingBackend returns the configured backend, defaulting to sqlite.
func (c *Config) GetTrackingBackend() string {
	backend := strings.ToLower(strings.TrimSpace(c.Tracking.Backend))
	if backend == "" {
		return TrackingBackendSQLite
	}
	return backend
}

// GetRetentionDays returns how long tracked operations are kept.
func (c *Config) GetRetentionDays() int {
	if c.Tracking.RetentionDays <= 0 {
		return DefaultRetentionDays
	}
	return c.Tracking.RetentionDays
}

// GetMaxContextFiles returns how many important files are auto-selected as context.
func (c *Config) GetMaxContextFiles() int {
	if c.Session.MaxContextFiles <= 0 {
		return DefaultMaxContextFiles
	}
	return c.Session.MaxContextFiles
}

// GetMaxFileSize returns the largest file whose content is kept in a snapshot.
func (c *Config) GetMaxFileSize() int64 {
	if c.Repository.MaxFileSize <= 0 {
		return DefaultMaxFileSize
	}
	return c.Repository.MaxFileSize
}

// GetIgnoreDirs returns directory names skipped while snapshotting.
func (c *Config) GetIgnoreDirs() []string {
	if len(c.Repository.IgnoreDirs) == 0 {
		return append([]string(nil), DefaultIgnoreDirs...)
	}
	return c.Repository.IgnoreDirs
}

// GetUserID returns the user recorded on tracked operations.
func (c *Config) GetUserID() string {
	if strings.TrimSpace(c.Session.UserID) == "" {
		return DefaultUserID
	}
	return c.Session.UserID
}

// GetLogLevel returns the configured log level.
func (c *Config) GetLogLevel() string {
	if c.Logging.Level == "" {
		return "info"
	}
	return strings.ToLower(c.Logging.Level)
}
