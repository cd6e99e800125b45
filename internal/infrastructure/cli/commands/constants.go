package commands

// CLI defaults
const (
	// DefaultRepositoryDir is snapshotted when --repo is not given
	DefaultRepositoryDir = "."
	// DefaultTopCommands is how many commands operations stats ranks
	DefaultTopCommands = 5
	// DefaultReplayParallelism bounds concurrent replay sessions
	DefaultReplayParallelism = 4
	// StdinArgument reads input from standard input
	StdinArgument = "-"
)

// Error messages
const (
	ErrConfigLoaderUnavailable  = "config loader unavailable"
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrStoreUnavailable         = "operation store unavailable"
	ErrSessionRequired          = "--session is required"
	ErrKeyRequired              = "--key is required"
	ErrInvalidRetainDays        = "--days must be > 0"
	ErrInvalidParallelism       = "--parallel must be >= 1"
	ErrMetricsDisabled          = "metrics are disabled in the configuration"
)

// Success messages
const (
	MsgConfigurationValid       = "Configuration valid"
	MsgNoDifferencesFromDefault = "No differences from default configuration."
	MsgNoOperationsRecorded     = "No operations recorded for this session."
	MsgNoCommandsFiltered       = "No shell commands found."
)
