package mcptools

// --- MCP tool types for the mergeframes MCP server ---
// These tools let an MCP client inspect the host workspace and drive merges
// without going through the host's plugin menu.

// ListEntriesInput is the input for the list_entries MCP tool.
type ListEntriesInput struct {
	SelectedOnly bool `json:"selectedOnly,omitempty" jsonschema:"only return selected entries"`
}

// EntryInfo is a brief overview of one workspace entry.
type EntryInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

// ListEntriesOutput is the result of the list_entries MCP tool.
type ListEntriesOutput struct {
	Entries  []EntryInfo `json:"entries"`
	Selected int         `json:"selected"`
}

// MergeEntriesInput is the input for the merge_entries MCP tool. Unset flags
// fall back to the current session settings.
type MergeEntriesInput struct {
	AlignCoordinates *bool `json:"alignCoordinates,omitempty" jsonschema:"express every frame in the first entry's coordinate space"`
	DeleteOriginals  *bool `json:"deleteOriginals,omitempty" jsonschema:"remove the source entries after the merged entry is added"`
}

// MergeEntriesOutput is the result of the merge_entries MCP tool.
type MergeEntriesOutput struct {
	Status         string   `json:"status"` // "completed", "skipped" or "failed"
	Name           string   `json:"name,omitempty"`
	MergedID       string   `json:"mergedId,omitempty"`
	Frames         int      `json:"frames"`
	SourceIDs      []string `json:"sourceIds,omitempty"`
	SourcesRemoved bool     `json:"sourcesRemoved"`
	Message        string   `json:"message,omitempty"`
}

// GetSettingsInput is the input for the get_settings MCP tool.
type GetSettingsInput struct{}

// SettingsOutput reports the current toggles.
type SettingsOutput struct {
	AlignCoordinates bool `json:"alignCoordinates"`
	DeleteOriginals  bool `json:"deleteOriginals"`
}

// SetSettingInput is the input for the set_setting MCP tool.
type SetSettingInput struct {
	Flag  string `json:"flag" jsonschema:"toggle to change: align_coordinates or delete_originals"`
	Value bool   `json:"value" jsonschema:"new toggle value"`
}
