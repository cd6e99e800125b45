package classifier

import (
	"strings"

	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/infrastructure/rules"
	"github.com/doeshing/shellgate/internal/ports"
)

// Classifier labels commands from the ordered prefix tables of a RuleSet.
type Classifier struct {
	rules *rules.RuleSet
}

// New builds a classifier over rs.
func New(rs *rules.RuleSet) *Classifier {
	return &Classifier{rules: rs}
}

// Classify implements ports.CommandClassifier. Unmatched input is a generic shell command.
func (c *Classifier) Classify(command string) domain.CommandType {
	words := tokens(command)
	if len(words) == 0 || c.rules == nil {
		return domain.CommandShell
	}
	for _, rule := range c.rules.Classification() {
		if matchesAny(words, rule.Prefixes) {
			return rule.Type
		}
	}
	return domain.CommandShell
}

// Priority implements ports.CommandClassifier.
func (c *Classifier) Priority(command string) domain.Priority {
	words := tokens(command)
	if len(words) == 0 || c.rules == nil {
		return domain.PriorityMedium
	}
	for _, rule := range c.rules.Priorities() {
		if matchesAny(words, rule.Prefixes) {
			return rule.Level
		}
	}
	return domain.PriorityMedium
}

func tokens(command string) []string {
	return strings.Fields(strings.ToLower(strings.TrimSpace(command)))
}

func matchesAny(words []string, prefixes [][]string) bool {
	for _, prefix := range prefixes {
		if hasPrefix(words, prefix) {
			return true
		}
	}
	return false
}

func hasPrefix(words, prefix []string) bool {
	if len(prefix) == 0 || len(prefix) > len(words) {
		return false
	}
	for i, p := range prefix {
		if words[i] != p {
			return false
		}
	}
	return true
}

var _ ports.CommandClassifier = (*Classifier)(nil)
