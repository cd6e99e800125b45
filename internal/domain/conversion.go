package domain

import "time"

// ConversionState is the lifecycle state of a tracked conversion operation.
type ConversionState string

const (
	StateCreated    ConversionState = "created"
	StateInProgress ConversionState = "in_progress"
	StateCompleted  ConversionState = "completed"
	StateFailed     ConversionState = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s ConversionState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

func (s ConversionState) rank() int {
	switch s {
	case StateCreated:
		return 0
	case StateInProgress:
		return 1
	case StateCompleted, StateFailed:
		return 2
	default:
		return -1
	}
}

// CanTransitionTo reports whether moving from s to next keeps the state
// machine strictly forward. created may jump straight to a terminal state.
func (s ConversionState) CanTransitionTo(next ConversionState) bool {
	if s.Terminal() || s.rank() < 0 || next.rank() < 0 {
		return false
	}
	return next.rank() > s.rank()
}

// ConversionRequest opens a tracked operation.
type ConversionRequest struct {
	OperationType   CommandType
	OriginalCommand string
	SessionID       string
	UserID          string
	Priority        Priority
	ContextFiles    []string
	Metadata        map[string]string
}

// ConversionUpdate moves an operation to a new state.
type ConversionUpdate struct {
	OperationID         string
	Status              ConversionState
	ConvertedEquivalent string
	WebEquivalentOutput string
	ErrorMessage        string
	ConversionNotes     string
}

// ConversionOperation is one tracked interception.
type ConversionOperation struct {
	ID                  string            `json:"id"`
	SessionID           string            `json:"session_id"`
	UserID              string            `json:"user_id"`
	Type                CommandType       `json:"operation_type"`
	OriginalCommand     string            `json:"original_command"`
	Priority            Priority          `json:"priority"`
	ContextFiles        []string          `json:"context_files,omitempty"`
	Status              ConversionState   `json:"status"`
	ConvertedEquivalent string            `json:"converted_equivalent,omitempty"`
	WebEquivalentOutput string            `json:"web_equivalent_output,omitempty"`
	ErrorMessage        string            `json:"error_message,omitempty"`
	ConversionNotes     string            `json:"conversion_notes,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
	CompletedAt         *time.Time        `json:"completed_at,omitempty"`
}

// Apply copies the update onto the operation, stamping timestamps.
// Callers validate the transition first.
func (o *ConversionOperation) Apply(update ConversionUpdate, now time.Time) {
	o.Status = update.Status
	if update.ConvertedEquivalent != "" {
		o.ConvertedEquivalent = update.ConvertedEquivalent
	}
	if update.WebEquivalentOutput != "" {
		o.WebEquivalentOutput = update.WebEquivalentOutput
	}
	if update.ErrorMessage != "" {
		o.ErrorMessage = update.ErrorMessage
	}
	if update.ConversionNotes != "" {
		o.ConversionNotes = update.ConversionNotes
	}
	o.UpdatedAt = now
	if update.Status.Terminal() {
		completed := now
		o.CompletedAt = &completed
	}
}

// ConversionStatus is the per-session aggregate kept by the interception gate.
type ConversionStatus struct {
	TotalOperations      int        `json:"total_operations"`
	ConvertedOperations  int        `json:"converted_operations"`
	PendingConversions   []string   `json:"pending_conversions"`
	ConversionPercentage float64    `json:"conversion_percentage"`
	LastConversion       *time.Time `json:"last_conversion,omitempty"`
}

// Recompute refreshes the percentage from the counters.
func (s *ConversionStatus) Recompute() {
	if s.TotalOperations == 0 {
		s.ConversionPercentage = 0
		return
	}
	s.ConversionPercentage = float64(s.ConvertedOperations) / float64(s.TotalOperations) * 100
}

// Clone returns a deep copy safe to hand to other goroutines.
func (s ConversionStatus) Clone() ConversionStatus {
	out := s
	out.PendingConversions = append([]string(nil), s.PendingConversions...)
	if s.LastConversion != nil {
		last := *s.LastConversion
		out.LastConversion = &last
	}
	return out
}

// SessionProgress summarises tracked operations for one session.
type SessionProgress struct {
	SessionID            string  `json:"session_id"`
	TotalOperations      int     `json:"total_operations"`
	ConvertedOperations  int     `json:"converted_operations"`
	FailedOperations     int     `json:"failed_operations"`
	PendingOperations    int     `json:"pending_operations"`
	ConversionPercentage float64 `json:"conversion_percentage"`
	SuccessRate          float64 `json:"success_rate"`
}

// SummariseProgress builds a SessionProgress from per-state counts.
func SummariseProgress(sessionID string, counts map[ConversionState]int) SessionProgress {
	progress := SessionProgress{
		SessionID:           sessionID,
		ConvertedOperations: counts[StateCompleted],
		FailedOperations:    counts[StateFailed],
		PendingOperations:   counts[StateCreated] + counts[StateInProgress],
	}
	progress.TotalOperations = progress.ConvertedOperations + progress.FailedOperations + progress.PendingOperations
	if progress.TotalOperations > 0 {
		progress.ConversionPercentage = float64(progress.ConvertedOperations) / float64(progress.TotalOperations) * 100
	}
	if finished := progress.ConvertedOperations + progress.FailedOperations; finished > 0 {
		progress.SuccessRate = float64(progress.ConvertedOperations) / float64(finished) * 100
	}
	return progress
}

// ConversionProgress combines the tracker view with the gate's local view.
type ConversionProgress struct {
	Session *SessionProgress `json:"session_progress,omitempty"`
	Local   ConversionStatus `json:"local_status"`
	Error   string           `json:"error,omitempty"`
}
