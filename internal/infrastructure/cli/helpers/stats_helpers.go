package helpers

import (
	"sort"

	"github.com/doeshing/shellgate/internal/domain"
)

// CommandStatistic counts how often a command was intercepted
type CommandStatistic struct {
	Command string
	Count   int
}

// OperationStats summarises a list of tracked operations
type OperationStats struct {
	Total       int
	ByType      map[domain.CommandType]int
	ByStatus    map[domain.ConversionState]int
	TopCommands []CommandStatistic
}

// SummariseOperations counts operations per type and status and ranks the
// most frequent commands. A limit of zero or less keeps every command.
func SummariseOperations(ops []domain.ConversionOperation, limit int) OperationStats {
	stats := OperationStats{
		Total:    len(ops),
		ByType:   make(map[domain.CommandType]int),
		ByStatus: make(map[domain.ConversionState]int),
	}
	frequency := make(map[string]int)
	for _, op := range ops {
		stats.ByType[op.Type]++
		stats.ByStatus[op.Status]++
		frequency[op.OriginalCommand]++
	}
	stats.TopCommands = CalculateTopCommands(frequency, limit)
	return stats
}

// CalculateTopCommands returns the top N most frequent commands
// If limit is 0 or negative, returns all commands
func CalculateTopCommands(commandFrequency map[string]int, limit int) []CommandStatistic {
	stats := make([]CommandStatistic, 0, len(commandFrequency))
	for cmd, count := range commandFrequency {
		stats = append(stats, CommandStatistic{Command: cmd, Count: count})
	}
	// count descending, then command ascending
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Command < stats[j].Command
		}
		return stats[i].Count > stats[j].Count
	})

	if limit > 0 && len(stats) > limit {
		return stats[:limit]
	}
	return stats
}

// CalculateSuccessRate calculates the success rate as a percentage
func CalculateSuccessRate(successfulCount int, finishedCount int) float64 {
	if finishedCount == 0 {
		return 0.0
	}
	return float64(successfulCount) / float64(finishedCount) * 100.0
}
