package settings

// Menu describes the settings surface. The host owns layout and widgets; the
// plugin only supplies rows and their current values.
type Menu struct {
	Title   string      `json:"title"`
	Width   float64     `json:"width"`
	Height  float64     `json:"height"`
	Enabled bool        `json:"enabled"`
	Toggles []ToggleRow `json:"toggles"`
}

// ToggleRow is one toggle switch in the menu.
type ToggleRow struct {
	Flag     Flag   `json:"flag"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Menu builds the settings menu reflecting the current state.
func (s *State) Menu() Menu {
	snap := s.Snapshot()
	return Menu{
		Title:   "Settings",
		Width:   0.5,
		Height:  0.2,
		Enabled: true,
		Toggles: []ToggleRow{
			{Flag: FlagAlignCoordinates, Label: FlagAlignCoordinates.Label(), Selected: snap.AlignCoordinates},
			{Flag: FlagDeleteOriginals, Label: FlagDeleteOriginals.Label(), Selected: snap.DeleteOriginals},
		},
	}
}
