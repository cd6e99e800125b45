package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Session defaults
const (
	// DefaultUserID is recorded when the caller is not authenticated
	DefaultUserID = "anonymous"
	// DefaultMaxContextFiles caps auto-selected context files
	DefaultMaxContextFiles = 8
	// MaxImportantFiles caps the candidate list for auto-selection
	MaxImportantFiles = 10
)

// Tracking defaults
const (
	// DefaultOperationsLimit is how many operations a listing returns
	DefaultOperationsLimit = 20
	// DefaultRetentionDays is how long tracked operations are kept
	DefaultRetentionDays = 7
	// DefaultTrackingRetryElapsed bounds retries of a busy tracker write
	DefaultTrackingRetryElapsed = 2 * time.Second
)

// Repository snapshot defaults
const (
	// DefaultMaxFileSize is the largest file whose content is loaded (1 MiB)
	DefaultMaxFileSize int64 = 1 << 20
)

// DefaultIgnoreDirs lists directory names never walked into.
var DefaultIgnoreDirs = []string{".git", "node_modules", "vendor", "__pycache__", ".venv", "dist", "build"}

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339Nano
)
