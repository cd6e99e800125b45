package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/shellgate/assets"
	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/pkg/filesystem"
)

// SourceEmbedded names the built-in rule tables.
const SourceEmbedded = "embedded"

// RuleSet holds the compiled classifier and filter tables. It is built once and
// never mutated, so it can be shared freely between sessions.
type RuleSet struct {
	source         string
	classification []PrefixRule
	priorities     []PriorityRule
	patterns       map[domain.CommandType][]*regexp.Regexp
	alternatives   map[domain.CommandType]string
	fallback       string
	codeBlock      *regexp.Regexp
	codeNotice     string
	inline         *regexp.Regexp
	inlineNotice   string
}

// PrefixRule maps leading command words to a command type.
type PrefixRule struct {
	Type     domain.CommandType
	Prefixes [][]string
}

// PriorityRule maps leading command words to a priority.
type PriorityRule struct {
	Level    domain.Priority
	Prefixes [][]string
}

// File is the YAML schema root.
type File struct {
	Rules struct {
		Classification []struct {
			Type     string   `yaml:"type"`
			Prefixes []string `yaml:"prefixes"`
		} `yaml:"classification"`
		Priorities []struct {
			Level    string   `yaml:"level"`
			Prefixes []string `yaml:"prefixes"`
		} `yaml:"priorities"`
		Filter FilterSection `yaml:"filter"`
	} `yaml:"rules"`
}

// FilterSection is the response filter part of the schema.
type FilterSection struct {
	Patterns            map[string][]string `yaml:"patterns"`
	Alternatives        map[string]string   `yaml:"alternatives"`
	FallbackAlternative string              `yaml:"fallback_alternative"`
	CodeBlockLanguages  []string            `yaml:"code_block_languages"`
	CodeBlockNotice     string              `yaml:"code_block_notice"`
	InlineKeywords      []string            `yaml:"inline_keywords"`
	InlineNotice        string              `yaml:"inline_notice"`
}

// Default compiles the embedded rule tables.
func Default() (*RuleSet, error) {
	file, err := decode(assets.DefaultRulesYAML)
	if err != nil {
		return nil, fmt.Errorf("decode embedded rules: %w", err)
	}
	return compile(file, SourceEmbedded)
}

// Load reads rules from path. A missing file or empty path yields the embedded
// tables; sections left empty in the file are taken from the embedded tables.
func Load(path string) (*RuleSet, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	path = filesystem.ExpandPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default()
		}
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse compiles rules from raw YAML, filling empty sections from the embedded tables.
func Parse(data []byte, source string) (*RuleSet, error) {
	file, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode rules %s: %w", source, err)
	}
	defaults, err := decode(assets.DefaultRulesYAML)
	if err != nil {
		return nil, fmt.Errorf("decode embedded rules: %w", err)
	}
	merge(&file, defaults)
	return compile(file, source)
}

func decode(data []byte) (File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return File{}, err
	}
	return file, nil
}

func merge(file *File, defaults File) {
	if len(file.Rules.Classification) == 0 {
		file.Rules.Classification = defaults.Rules.Classification
	}
	if len(file.Rules.Priorities) == 0 {
		file.Rules.Priorities = defaults.Rules.Priorities
	}
	f, d := &file.Rules.Filter, defaults.Rules.Filter
	if len(f.Patterns) == 0 {
		f.Patterns = d.Patterns
	}
	if f.Alternatives == nil {
		f.Alternatives = map[string]string{}
	}
	for name, text := range d.Alternatives {
		if _, ok := f.Alternatives[name]; !ok {
			f.Alternatives[name] = text
		}
	}
	if f.FallbackAlternative == "" {
		f.FallbackAlternative = d.FallbackAlternative
	}
	if len(f.CodeBlockLanguages) == 0 {
		f.CodeBlockLanguages = d.CodeBlockLanguages
	}
	if f.CodeBlockNotice == "" {
		f.CodeBlockNotice = d.CodeBlockNotice
	}
	if len(f.InlineKeywords) == 0 {
		f.InlineKeywords = d.InlineKeywords
	}
	if f.InlineNotice == "" {
		f.InlineNotice = d.InlineNotice
	}
}

func compile(file File, source string) (*RuleSet, error) {
	rs := &RuleSet{
		source:       source,
		patterns:     make(map[domain.CommandType][]*regexp.Regexp),
		alternatives: make(map[domain.CommandType]string),
	}

	for i, entry := range file.Rules.Classification {
		commandType, ok := domain.ParseCommandType(entry.Type)
		if !ok {
			return nil, fmt.Errorf("classification[%d]: unknown command type %q", i, entry.Type)
		}
		rs.classification = append(rs.classification, PrefixRule{Type: commandType, Prefixes: splitPrefixes(entry.Prefixes)})
	}

	for i, entry := range file.Rules.Priorities {
		level, ok := domain.ParsePriority(entry.Level)
		if !ok {
			return nil, fmt.Errorf("priorities[%d]: unknown level %q", i, entry.Level)
		}
		rs.priorities = append(rs.priorities, PriorityRule{Level: level, Prefixes: splitPrefixes(entry.Prefixes)})
	}

	filter := file.Rules.Filter
	for name, list := range filter.Patterns {
		commandType, ok := domain.ParseCommandType(name)
		if !ok {
			return nil, fmt.Errorf("filter.patterns: unknown command type %q", name)
		}
		for _, pattern := range list {
			re, err := regexp.Compile(`(?i)\b(?:` + pattern + `)`)
			if err != nil {
				return nil, fmt.Errorf("filter.patterns.%s: %w", name, err)
			}
			rs.patterns[commandType] = append(rs.patterns[commandType], re)
		}
	}
	for name, text := range filter.Alternatives {
		commandType, ok := domain.ParseCommandType(name)
		if !ok {
			return nil, fmt.Errorf("filter.alternatives: unknown command type %q", name)
		}
		rs.alternatives[commandType] = text
	}
	rs.fallback = filter.FallbackAlternative

	languages := make([]string, 0, len(filter.CodeBlockLanguages))
	for _, lang := range filter.CodeBlockLanguages {
		languages = append(languages, regexp.QuoteMeta(lang))
	}
	codeBlock, err := regexp.Compile("(?is)```(?:" + strings.Join(languages, "|") + ")?\\n(.*?)\\n```")
	if err != nil {
		return nil, fmt.Errorf("filter.code_block_languages: %w", err)
	}
	rs.codeBlock = codeBlock
	rs.codeNotice = filter.CodeBlockNotice

	if len(filter.InlineKeywords) == 0 {
		return nil, errors.New("filter.inline_keywords must not be empty")
	}
	keywords := make([]string, 0, len(filter.InlineKeywords))
	for _, kw := range filter.InlineKeywords {
		keywords = append(keywords, regexp.QuoteMeta(kw))
	}
	inline, err := regexp.Compile("(?i)`([^`]*(?:" + strings.Join(keywords, "|") + ")[^`]*)`")
	if err != nil {
		return nil, fmt.Errorf("filter.inline_keywords: %w", err)
	}
	rs.inline = inline
	rs.inlineNotice = filter.InlineNotice

	return rs, nil
}

func splitPrefixes(prefixes []string) [][]string {
	out := make([][]string, 0, len(prefixes))
	for _, prefix := range prefixes {
		words := strings.Fields(strings.ToLower(prefix))
		if len(words) > 0 {
			out = append(out, words)
		}
	}
	return out
}

// Source reports where the rules came from.
func (rs *RuleSet) Source() string { return rs.source }

// Classification returns the ordered classification rules.
func (rs *RuleSet) Classification() []PrefixRule { return rs.classification }

// Priorities returns the ordered priority rules.
func (rs *RuleSet) Priorities() []PriorityRule { return rs.priorities }

// FilterTypes returns the command types that carry filter patterns, in enumeration order.
func (rs *RuleSet) FilterTypes() []domain.CommandType {
	var out []domain.CommandType
	for _, t := range domain.CommandTypes() {
		if len(rs.patterns[t]) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// Patterns returns the compiled filter patterns for a type.
func (rs *RuleSet) Patterns(commandType domain.CommandType) []*regexp.Regexp {
	return rs.patterns[commandType]
}

// PatternCount returns how many filter patterns are loaded in total.
func (rs *RuleSet) PatternCount() int {
	n := 0
	for _, list := range rs.patterns {
		n += len(list)
	}
	return n
}

// Alternative returns the explanatory text substituted for a type.
func (rs *RuleSet) Alternative(commandType domain.CommandType) string {
	if text, ok := rs.alternatives[commandType]; ok {
		return text
	}
	return rs.fallback
}

// CodeBlockPattern matches fenced shell code blocks; group 1 is the body.
func (rs *RuleSet) CodeBlockPattern() *regexp.Regexp { return rs.codeBlock }

// CodeBlockNotice replaces a removed code block.
func (rs *RuleSet) CodeBlockNotice() string { return rs.codeNotice }

// InlinePattern matches inline code spans holding a suspicious keyword.
func (rs *RuleSet) InlinePattern() *regexp.Regexp { return rs.inline }

// InlineNotice replaces a removed inline span.
func (rs *RuleSet) InlineNotice() string { return rs.inlineNotice }

