package domain

// Config mirrors $XDG_CONFIG_HOME/shellgate/config.yaml.
type Config struct {
	ConfigFormatVersion string             `yaml:"config_format_version"`
	Rules               RulesSettings      `yaml:"rules"`
	Tracking            TrackingSettings   `yaml:"tracking"`
	Repository          RepositorySettings `yaml:"repository"`
	Session             SessionSettings    `yaml:"session"`
	Logging             LoggingSettings    `yaml:"logging"`
	Metrics             MetricsSettings    `yaml:"metrics"`
}

// RulesSettings points at an optional classifier/filter rule file.
type RulesSettings struct {
	File string `yaml:"file"`
}

// TrackingSettings selects the conversion tracker backend.
type TrackingSettings struct {
	Backend       string `yaml:"backend"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// RepositorySettings bounds how a working tree is snapshotted.
type RepositorySettings struct {
	MaxFileSize int64    `yaml:"max_file_size"`
	IgnoreDirs  []string `yaml:"ignore_dirs"`
}

// SessionSettings holds per-session defaults.
type SessionSettings struct {
	UserID          string `yaml:"user_id"`
	Model           string `yaml:"model"`
	MaxContextFiles int    `yaml:"max_context_files"`
}

// LoggingSettings configures the zap logger.
type LoggingSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsSettings toggles the prometheus recorder.
type MetricsSettings struct {
	Enabled bool `yaml:"enabled"`
}
