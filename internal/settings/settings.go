// Package settings holds the per-session merge toggles and the settings menu
// the host renders for them.
package settings

import (
	"fmt"
	"sync/atomic"
)

// Flag names a toggle.
type Flag string

const (
	FlagAlignCoordinates Flag = "align_coordinates"
	FlagDeleteOriginals  Flag = "delete_originals"
)

// Label returns the text shown next to the toggle in the settings menu.
func (f Flag) Label() string {
	switch f {
	case FlagAlignCoordinates:
		return "Align Coordinates"
	case FlagDeleteOriginals:
		return "Delete Entries"
	default:
		return string(f)
	}
}

// Snapshot is a point-in-time copy of the toggles.
type Snapshot struct {
	AlignCoordinates bool `json:"alignCoordinates"`
	DeleteOriginals  bool `json:"deleteOriginals"`
}

// ToggleEvent is emitted by the settings surface when a toggle changes.
type ToggleEvent struct {
	Flag  Flag `json:"flag"`
	Value bool `json:"value"`
}

// State is the live toggle state of one plugin session. Each write is a single
// atomic store, so callers need no additional locking.
type State struct {
	align  atomic.Bool
	delete atomic.Bool
}

// New returns a State initialised from defaults.
func New(defaults Snapshot) *State {
	s := &State{}
	s.align.Store(defaults.AlignCoordinates)
	s.delete.Store(defaults.DeleteOriginals)
	return s
}

// AlignCoordinates reports whether entries are aligned to the first one.
func (s *State) AlignCoordinates() bool { return s.align.Load() }

// DeleteOriginals reports whether source entries are removed after a merge.
func (s *State) DeleteOriginals() bool { return s.delete.Load() }

// SetAlignCoordinates stores the align-coordinates toggle.
func (s *State) SetAlignCoordinates(on bool) { s.align.Store(on) }

// SetDeleteOriginals stores the delete-originals toggle.
func (s *State) SetDeleteOriginals(on bool) { s.delete.Store(on) }

// Snapshot returns the current values.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		AlignCoordinates: s.align.Load(),
		DeleteOriginals:  s.delete.Load(),
	}
}

// Apply stores the value carried by ev.
func (s *State) Apply(ev ToggleEvent) error {
	switch ev.Flag {
	case FlagAlignCoordinates:
		s.SetAlignCoordinates(ev.Value)
	case FlagDeleteOriginals:
		s.SetDeleteOriginals(ev.Value)
	default:
		return fmt.Errorf("settings: unknown flag %q", ev.Flag)
	}
	return nil
}
