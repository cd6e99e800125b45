package domain_test

import (
	"testing"

	"github.com/doeshing/shellgate/internal/domain"
)

// TestConfig_Defaults checks that zero values fall back to package defaults
func TestConfig_Defaults(t *testing.T) {
	var cfg domain.Config

	if got := cfg.GetTrackingBackend(); got != domain.TrackingBackendSQLite {
		t.Errorf("GetTrackingBackend() = %q, want %q", got, domain.TrackingBackendSQLite)
	}
	if got := cfg.GetRetentionDays(); got != domain.DefaultRetentionDays {
		t.Errorf("GetRetentionDays() = %d, want %d", got, domain.DefaultRetentionDays)
	}
	if got := cfg.GetMaxContextFiles(); got != domain.DefaultMaxContextFiles {
		t.Errorf("GetMaxContextFiles() = %d, want %d", got, domain.DefaultMaxContextFiles)
	}
	if got := cfg.GetMaxFileSize(); got != domain.DefaultMaxFileSize {
		t.Errorf("GetMaxFileSize() = %d, want %d", got, domain.DefaultMaxFileSize)
	}
	if got := cfg.GetUserID(); got != domain.DefaultUserID {
		t.Errorf("GetUserID() = %q, want %q", got, domain.DefaultUserID)
	}
	if got := cfg.GetLogLevel(); got != "info" {
		t.Errorf("GetLogLevel() = %q, want info", got)
	}
	if got := cfg.GetIgnoreDirs(); len(got) != len(domain.DefaultIgnoreDirs) {
		t.Errorf("GetIgnoreDirs() = %v, want %v", got, domain.DefaultIgnoreDirs)
	}
}

// TestConfig_Overrides checks that explicit values win
func TestConfig_Overrides(t *testing.T) {
	cfg := domain.Config{
		Tracking:   domain.TrackingSettings{Backend: " Memory ", RetentionDays: 3},
		Repository: domain.RepositorySettings{MaxFileSize: 10, IgnoreDirs: []string{"tmp"}},
		Session:    domain.SessionSettings{UserID: "u-1", MaxContextFiles: 2},
		Logging:    domain.LoggingSettings{Level: "DEBUG"},
	}

	if got := cfg.GetTrackingBackend(); got != domain.TrackingBackendMemory {
		t.Errorf("GetTrackingBackend() = %q", got)
	}
	if got := cfg.GetRetentionDays(); got != 3 {
		t.Errorf("GetRetentionDays() = %d", got)
	}
	if got := cfg.GetMaxFileSize(); got != 10 {
		t.Errorf("GetMaxFileSize() = %d", got)
	}
	if got := cfg.GetIgnoreDirs(); len(got) != 1 || got[0] != "tmp" {
		t.Errorf("GetIgnoreDirs() = %v", got)
	}
	if got := cfg.GetUserID(); got != "u-1" {
		t.Errorf("GetUserID() = %q", got)
	}
	if got := cfg.GetMaxContextFiles(); got != 2 {
		t.Errorf("GetMaxContextFiles() = %d", got)
	}
	if got := cfg.GetLogLevel(); got != "debug" {
		t.Errorf("GetLogLevel() = %q", got)
	}
}

// TestConversionState_CanTransitionTo walks the state machine
func TestConversionState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to domain.ConversionState
		want     bool
	}{
		{domain.StateCreated, domain.StateInProgress, true},
		{domain.StateCreated, domain.StateCompleted, true},
		{domain.StateCreated, domain.StateFailed, true},
		{domain.StateInProgress, domain.StateCompleted, true},
		{domain.StateInProgress, domain.StateFailed, true},
		{domain.StateInProgress, domain.StateCreated, false},
		{domain.StateInProgress, domain.StateInProgress, false},
		{domain.StateCompleted, domain.StateFailed, false},
		{domain.StateFailed, domain.StateCompleted, false},
		{domain.StateCreated, domain.ConversionState("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestSummariseProgress checks the progress arithmetic
func TestSummariseProgress(t *testing.T) {
	progress := domain.SummariseProgress("s1", map[domain.ConversionState]int{
		domain.StateCreated:    1,
		domain.StateInProgress: 1,
		domain.StateCompleted:  3,
		domain.StateFailed:     1,
	})

	if progress.TotalOperations != 6 {
		t.Fatalf("TotalOperations = %d, want 6", progress.TotalOperations)
	}
	if progress.PendingOperations != 2 {
		t.Errorf("PendingOperations = %d, want 2", progress.PendingOperations)
	}
	if progress.ConversionPercentage != 50 {
		t.Errorf("ConversionPercentage = %v, want 50", progress.ConversionPercentage)
	}
	if progress.SuccessRate != 75 {
		t.Errorf("SuccessRate = %v, want 75", progress.SuccessRate)
	}

	empty := domain.SummariseProgress("s2", nil)
	if empty.ConversionPercentage != 0 || empty.SuccessRate != 0 {
		t.Errorf("empty progress = %+v", empty)
	}
}

// TestConversionStatus_Recompute checks the percentage invariant
func TestConversionStatus_Recompute(t *testing.T) {
	status := domain.ConversionStatus{}
	status.Recompute()
	if status.ConversionPercentage != 0 {
		t.Fatalf("empty percentage = %v", status.ConversionPercentage)
	}

	status.TotalOperations = 4
	status.ConvertedOperations = 1
	status.Recompute()
	if status.ConversionPercentage != 25 {
		t.Errorf("percentage = %v, want 25", status.ConversionPercentage)
	}

	clone := status.Clone()
	clone.PendingConversions = append(clone.PendingConversions, "x")
	if len(status.PendingConversions) != 0 {
		t.Errorf("Clone shares pending slice")
	}
}
