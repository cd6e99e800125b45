package filter

import (
	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/infrastructure/rules"
	"github.com/doeshing/shellgate/internal/ports"
)

// ResponseFilter rewrites shell-command text in assistant replies.
//
// Three passes run in a fixed order: per-type pattern substitution, fenced
// code block removal, then inline code span removal. Each later pass scans the
// output of the earlier one, so a fenced block whose commands were already
// substituted is left in place. Offsets in the returned matches are byte
// offsets into the content as it was when that pass ran.
type ResponseFilter struct {
	Rules   *rules.RuleSet
	Logger  ports.Logger
	Metrics ports.MetricsRecorder
}

// New builds a filter. logger and metrics may be nil.
func New(rs *rules.RuleSet, logger ports.Logger, metrics ports.MetricsRecorder) *ResponseFilter {
	return &ResponseFilter{Rules: rs, Logger: logger, Metrics: metrics}
}

// Filter implements ports.ResponseFilter.
func (f *ResponseFilter) Filter(content string) domain.FilterResult {
	result := domain.FilterResult{FilteredContent: content}
	if f == nil || f.Rules == nil || content == "" {
		return result
	}

	filtered := content
	for _, commandType := range f.Rules.FilterTypes() {
		alternative := f.Rules.Alternative(commandType)
		for _, re := range f.Rules.Patterns(commandType) {
			locs := re.FindAllStringIndex(filtered, -1)
			for i := len(locs) - 1; i >= 0; i-- {
				start, end := locs[i][0], locs[i][1]
				result.CommandsFiltered = append(result.CommandsFiltered, domain.ShellCommandMatch{
					OriginalText:         filtered[start:end],
					CommandType:          commandType,
					Start:                start,
					End:                  end,
					SuggestedAlternative: alternative,
				})
				f.debug("filtered shell command", filtered[start:end], commandType)
				filtered = filtered[:start] + alternative + filtered[end:]
				result.AlternativesSuggested++
				result.SecurityNotesAdded++
				f.record(commandType)
			}
		}
	}

	filtered, blocks := f.filterCodeBlocks(filtered)
	result.CommandsFiltered = append(result.CommandsFiltered, blocks...)

	filtered, spans := f.filterInline(filtered)
	result.CommandsFiltered = append(result.CommandsFiltered, spans...)

	result.FilteredContent = filtered
	if len(result.CommandsFiltered) > 0 && f.Logger != nil {
		f.Logger.Info("shell command filtering complete", map[string]interface{}{
			"commands_filtered":      len(result.CommandsFiltered),
			"alternatives_suggested": result.AlternativesSuggested,
		})
	}
	return result
}

func (f *ResponseFilter) filterCodeBlocks(content string) (string, []domain.ShellCommandMatch) {
	re := f.Rules.CodeBlockPattern()
	if re == nil {
		return content, nil
	}
	notice := f.Rules.CodeBlockNotice()

	var hits [][]int
	for _, loc := range re.FindAllStringSubmatchIndex(content, -1) {
		if f.IsShellCommand(content[loc[2]:loc[3]]) {
			hits = append(hits, loc)
		}
	}

	matches := make([]domain.ShellCommandMatch, 0, len(hits))
	for _, loc := range hits {
		matches = append(matches, domain.ShellCommandMatch{
			OriginalText:         content[loc[0]:loc[1]],
			CommandType:          domain.CommandSystem,
			Start:                loc[0],
			End:                  loc[1],
			SuggestedAlternative: notice,
		})
		f.record(domain.CommandSystem)
	}
	for i := len(hits) - 1; i >= 0; i-- {
		content = content[:hits[i][0]] + notice + content[hits[i][1]:]
	}
	return content, matches
}

func (f *ResponseFilter) filterInline(content string) (string, []domain.ShellCommandMatch) {
	re := f.Rules.InlinePattern()
	if re == nil {
		return content, nil
	}
	notice := f.Rules.InlineNotice()

	locs := re.FindAllStringIndex(content, -1)
	matches := make([]domain.ShellCommandMatch, 0, len(locs))
	for _, loc := range locs {
		matches = append(matches, domain.ShellCommandMatch{
			OriginalText:         content[loc[0]:loc[1]],
			CommandType:          domain.CommandSystem,
			Start:                loc[0],
			End:                  loc[1],
			SuggestedAlternative: notice,
		})
		f.record(domain.CommandSystem)
	}
	for i := len(locs) - 1; i >= 0; i-- {
		content = content[:locs[i][0]] + notice + content[locs[i][1]:]
	}
	return content, matches
}

// IsShellCommand reports whether text contains anything a filter pattern matches.
func (f *ResponseFilter) IsShellCommand(text string) bool {
	_, ok := f.CommandType(text)
	return ok
}

// CommandType returns the first type, in enumeration order, whose patterns match text.
func (f *ResponseFilter) CommandType(text string) (domain.CommandType, bool) {
	if f == nil || f.Rules == nil {
		return "", false
	}
	for _, commandType := range f.Rules.FilterTypes() {
		for _, re := range f.Rules.Patterns(commandType) {
			if re.MatchString(text) {
				return commandType, true
			}
		}
	}
	return "", false
}

// Alternative returns the explanatory text used for a command type.
func (f *ResponseFilter) Alternative(commandType domain.CommandType) string {
	return f.Rules.Alternative(commandType)
}

func (f *ResponseFilter) record(commandType domain.CommandType) {
	if f.Metrics != nil {
		f.Metrics.RecordFiltered(commandType)
	}
}

func (f *ResponseFilter) debug(msg, text string, commandType domain.CommandType) {
	if f.Logger == nil {
		return
	}
	f.Logger.Debug(msg, map[string]interface{}{
		"text": text,
		"type": string(commandType),
	})
}

var _ ports.ResponseFilter = (*ResponseFilter)(nil)
