package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/dusk-indust/mergeframes/internal/host"
	"github.com/dusk-indust/mergeframes/internal/merge"
	"github.com/dusk-indust/mergeframes/internal/settings"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MergeService handles MCP tool calls. The settings state is shared with the
// plugin session; toggles changed here apply to merges started from the host.
type MergeService struct {
	ws       host.Workspace
	workflow *merge.Workflow
	state    *settings.State
}

// NewMergeService creates a MergeService.
func NewMergeService(ws host.Workspace, wf *merge.Workflow, state *settings.State) *MergeService {
	return &MergeService{
		ws:       ws,
		workflow: wf,
		state:    state,
	}
}

// ListEntries returns the workspace entry list.
func (s *MergeService) ListEntries(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListEntriesInput,
) (*mcp.CallToolResult, ListEntriesOutput, error) {
	summaries, err := s.ws.ListEntries(ctx)
	if err != nil {
		return nil, ListEntriesOutput{}, fmt.Errorf("list entries: %w", err)
	}

	out := ListEntriesOutput{Entries: make([]EntryInfo, 0, len(summaries))}
	for _, e := range summaries {
		if e.Selected {
			out.Selected++
		} else if input.SelectedOnly {
			continue
		}
		out.Entries = append(out.Entries, EntryInfo{ID: e.ID, Name: e.Name, Selected: e.Selected})
	}
	return nil, out, nil
}

// MergeEntries merges the currently selected entries.
func (s *MergeService) MergeEntries(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MergeEntriesInput,
) (*mcp.CallToolResult, MergeEntriesOutput, error) {
	snap := s.state.Snapshot()
	if input.AlignCoordinates != nil {
		snap.AlignCoordinates = *input.AlignCoordinates
	}
	if input.DeleteOriginals != nil {
		snap.DeleteOriginals = *input.DeleteOriginals
	}

	res, err := s.workflow.ExecuteMerge(ctx, snap)
	switch {
	case errors.Is(err, merge.ErrTooFewSelected):
		return nil, MergeEntriesOutput{Status: "skipped", Message: merge.TooFewSelectedMessage}, nil
	case errors.Is(err, merge.ErrMergeInProgress):
		return nil, MergeEntriesOutput{Status: "skipped", Message: merge.MergeInProgressMessage}, nil
	case err != nil && res == nil:
		return nil, MergeEntriesOutput{Status: "failed", Message: err.Error()}, nil
	}

	out := MergeEntriesOutput{
		Status:         "completed",
		Name:           res.Merged.Name,
		MergedID:       res.Merged.ID,
		Frames:         len(res.Merged.Molecules),
		SourceIDs:      res.SourceIDs,
		SourcesRemoved: res.SourcesRemoved,
	}
	if err != nil {
		// Published, but the sources could not be removed.
		out.Status = "failed"
		out.Message = err.Error()
	}
	return nil, out, nil
}

// GetSettings reports the current toggles.
func (s *MergeService) GetSettings(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ GetSettingsInput,
) (*mcp.CallToolResult, SettingsOutput, error) {
	return nil, settingsOutput(s.state.Snapshot()), nil
}

// SetSetting changes one toggle and reports the resulting settings.
func (s *MergeService) SetSetting(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SetSettingInput,
) (*mcp.CallToolResult, SettingsOutput, error) {
	ev := settings.ToggleEvent{Flag: settings.Flag(input.Flag), Value: input.Value}
	if err := s.state.Apply(ev); err != nil {
		return nil, SettingsOutput{}, err
	}
	return nil, settingsOutput(s.state.Snapshot()), nil
}

func settingsOutput(snap settings.Snapshot) SettingsOutput {
	return SettingsOutput{
		AlignCoordinates: snap.AlignCoordinates,
		DeleteOriginals:  snap.DeleteOriginals,
	}
}
