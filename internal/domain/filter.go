package domain

// ShellCommandMatch records one span removed from an assistant response.
type ShellCommandMatch struct {
	OriginalText         string      `json:"original_text"`
	CommandType          CommandType `json:"command_type"`
	Start                int         `json:"start_pos"`
	End                  int         `json:"end_pos"`
	SuggestedAlternative string      `json:"suggested_alternative"`
}

// FilterResult is the outcome of filtering one response.
type FilterResult struct {
	FilteredContent       string              `json:"filtered_content"`
	CommandsFiltered      []ShellCommandMatch `json:"commands_filtered"`
	AlternativesSuggested int                 `json:"alternatives_suggested"`
	SecurityNotesAdded    int                 `json:"security_notes_added"`
}
