package settings

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	s := New(Snapshot{DeleteOriginals: true})
	assert.False(t, s.AlignCoordinates())
	assert.True(t, s.DeleteOriginals())
}

func TestApply_TogglesIndependently(t *testing.T) {
	s := New(Snapshot{})

	require.NoError(t, s.Apply(ToggleEvent{Flag: FlagAlignCoordinates, Value: true}))
	assert.Equal(t, Snapshot{AlignCoordinates: true}, s.Snapshot())

	require.NoError(t, s.Apply(ToggleEvent{Flag: FlagDeleteOriginals, Value: true}))
	assert.Equal(t, Snapshot{AlignCoordinates: true, DeleteOriginals: true}, s.Snapshot())

	require.NoError(t, s.Apply(ToggleEvent{Flag: FlagAlignCoordinates, Value: false}))
	assert.Equal(t, Snapshot{DeleteOriginals: true}, s.Snapshot())
}

func TestApply_UnknownFlag(t *testing.T) {
	s := New(Snapshot{AlignCoordinates: true})

	err := s.Apply(ToggleEvent{Flag: "color", Value: false})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "color")
	assert.True(t, s.AlignCoordinates(), "state must not change on a rejected event")
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := New(Snapshot{})
	snap := s.Snapshot()
	s.SetAlignCoordinates(true)
	assert.False(t, snap.AlignCoordinates)
}

func TestState_ConcurrentToggles(t *testing.T) {
	s := New(Snapshot{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetDeleteOriginals(true)
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	assert.True(t, s.DeleteOriginals())
}

func TestMenu_ReflectsState(t *testing.T) {
	s := New(Snapshot{DeleteOriginals: true})
	m := s.Menu()

	assert.Equal(t, "Settings", m.Title)
	assert.True(t, m.Enabled)
	require.Len(t, m.Toggles, 2)
	assert.Equal(t, ToggleRow{Flag: FlagAlignCoordinates, Label: "Align Coordinates"}, m.Toggles[0])
	assert.Equal(t, ToggleRow{Flag: FlagDeleteOriginals, Label: "Delete Entries", Selected: true}, m.Toggles[1])
}
