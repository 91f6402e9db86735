package merge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dusk-indust/mergeframes/internal/settings"
	"github.com/dusk-indust/mergeframes/internal/structure"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWorkspace implements host.Workspace over a fixed set of entries and
// records every call in order.
type fakeWorkspace struct {
	mu       sync.Mutex
	entries  []*structure.Complex
	selected map[string]bool

	calls     []string
	fetched   [][]string
	published []*structure.Complex
	removed   []string
	warnings  []string

	listErr    error
	fetchErr   error
	publishErr error
	removeErr  error

	// blockList, when set, is waited on inside ListEntries.
	blockList chan struct{}
	// dropOnFetch is an ID FetchEntries silently leaves out.
	dropOnFetch string
}

func newFakeWorkspace(entries ...*structure.Complex) *fakeWorkspace {
	return &fakeWorkspace{entries: entries, selected: make(map[string]bool)}
}

func (f *fakeWorkspace) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeWorkspace) ListEntries(_ context.Context) ([]structure.EntrySummary, error) {
	f.record("list")
	if f.blockList != nil {
		<-f.blockList
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]structure.EntrySummary, len(f.entries))
	for i, e := range f.entries {
		out[i] = structure.EntrySummary{ID: e.ID, Name: e.Name, Selected: f.selected[e.ID]}
	}
	return out, nil
}

func (f *fakeWorkspace) FetchEntries(_ context.Context, ids []string) ([]*structure.Complex, error) {
	f.record("fetch")
	f.fetched = append(f.fetched, ids)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]*structure.Complex, 0, len(ids))
	for _, id := range ids {
		if id == f.dropOnFetch {
			continue
		}
		for _, e := range f.entries {
			if e.ID == id {
				out = append(out, e.Clone())
			}
		}
	}
	return out, nil
}

func (f *fakeWorkspace) PublishEntries(_ context.Context, entries []*structure.Complex) error {
	f.record("publish")
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, entries...)
	return nil
}

func (f *fakeWorkspace) RemoveEntries(_ context.Context, entries []*structure.Complex) error {
	f.record("remove")
	if f.removeErr != nil {
		return f.removeErr
	}
	for _, e := range entries {
		f.removed = append(f.removed, e.ID)
	}
	return nil
}

func (f *fakeWorkspace) NotifyWarning(_ context.Context, message string) error {
	f.record("warn")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warnings = append(f.warnings, message)
	return nil
}

func (f *fakeWorkspace) selectIDs(ids ...string) {
	for _, id := range ids {
		f.selected[id] = true
	}
}

// spyTransformer counts structure operations around the real implementation.
type spyTransformer struct {
	structure.Toolkit
	aligned []string
}

func (s *spyTransformer) AlignTo(c, ref *structure.Complex) {
	s.aligned = append(s.aligned, c.ID)
	s.Toolkit.AlignTo(c, ref)
}

// entry builds a complex with n single-conformer molecules. Molecule names
// are "<id>-<index>" and every atom starts selected.
func entry(id string, n int) *structure.Complex {
	c := structure.NewComplex("entry " + id)
	c.ID = id
	for i := 0; i < n; i++ {
		c.AddMolecule(structure.Molecule{
			Name:           id + "-" + string(rune('0'+i)),
			ConformerCount: 1,
			Atoms: []structure.Atom{
				{Serial: 1, Symbol: "C", Positions: []mgl64.Vec3{{float64(i), 0, 0}}, Selected: true},
			},
		})
	}
	return c
}

func newTestWorkflow(t *testing.T, ws *fakeWorkspace, opts Options, fns ...WorkflowOption) *Workflow {
	t.Helper()
	w, err := NewWorkflow(ws, opts, fns...)
	require.NoError(t, err)
	return w
}

func moleculeNames(c *structure.Complex) []string {
	names := make([]string, len(c.Molecules))
	for i, m := range c.Molecules {
		names[i] = m.Name
	}
	return names
}

func TestExecuteMerge_ThreeEntriesDeleteOriginals(t *testing.T) {
	ws := newFakeWorkspace(entry("A", 2), entry("B", 1), entry("C", 3))
	ws.selectIDs("A", "B", "C")
	w := newTestWorkflow(t, ws, DefaultOptions())

	res, err := w.ExecuteMerge(context.Background(), settings.Snapshot{DeleteOriginals: true})
	require.NoError(t, err)

	require.Len(t, ws.published, 1)
	merged := ws.published[0]
	assert.Same(t, res.Merged, merged)
	assert.Equal(t, []string{"A-0", "A-1", "B-0", "C-0", "C-1", "C-2"}, moleculeNames(merged))
	assert.Equal(t, []string{"A", "B", "C"}, ws.removed)
	assert.Equal(t, []string{"list", "fetch", "publish", "remove"}, ws.calls,
		"remove must come strictly after publish")
	assert.True(t, res.SourcesRemoved)
	assert.Empty(t, ws.warnings)
}

func TestExecuteMerge_SingleSelection(t *testing.T) {
	ws := newFakeWorkspace(entry("A", 2), entry("B", 1))
	ws.selectIDs("A")
	w := newTestWorkflow(t, ws, DefaultOptions())

	res, err := w.ExecuteMerge(context.Background(), settings.Snapshot{DeleteOriginals: true, AlignCoordinates: true})
	require.ErrorIs(t, err, ErrTooFewSelected)
	assert.Nil(t, res)

	assert.Equal(t, []string{"list", "warn"}, ws.calls)
	assert.Equal(t, []string{TooFewSelectedMessage}, ws.warnings)
	assert.Empty(t, ws.fetched)
	assert.Empty(t, ws.published)
	assert.Empty(t, ws.removed)
}

func TestExecuteMerge_NothingSelected(t *testing.T) {
	ws := newFakeWorkspace(entry("A", 1), entry("B", 1))
	w := newTestWorkflow(t, ws, DefaultOptions())

	_, err := w.ExecuteMerge(context.Background(), settings.Snapshot{})
	require.ErrorIs(t, err, ErrTooFewSelected)
	assert.Len(t, ws.warnings, 1)
	assert.NotContains(t, ws.calls, "fetch")
}

func TestExecuteMerge_PreservesListOrder(t *testing.T) {
	ws := newFakeWorkspace(entry("A", 1), entry("B", 1), entry("C", 1), entry("D", 1))
	ws.selectIDs("D", "B")
	w := newTestWorkflow(t, ws, DefaultOptions())

	res, err := w.ExecuteMerge(context.Background(), settings.Snapshot{})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"B", "D"}}, ws.fetched, "fetch order follows list order, not selection order")
	assert.Equal(t, []string{"B", "D"}, res.SourceIDs)
	assert.Equal(t, []string{"B-0", "D-0"}, moleculeNames(res.Merged))
	assert.Equal(t, "Merged entry B", res.Merged.Name)
}

func TestExecuteMerge_MoleculeCountAfterFrameConversion(t *testing.T) {
	a := entry("A", 1)
	a.Molecules[0].ConformerCount = 4
	b := entry("B", 2)
	ws := newFakeWorkspace(a, b)
	ws.selectIDs("A", "B")
	w := newTestWorkflow(t, ws, DefaultOptions())

	res, err := w.ExecuteMerge(context.Background(), settings.Snapshot{})
	require.NoError(t, err)
	assert.Len(t, res.Merged.Molecules, 6)
	for _, m := range res.Merged.Molecules {
		assert.Equal(t, 1, m.ConformerCount)
	}
}

func TestExecuteMerge_ClearsSelection(t *testing.T) {
	ws := newFakeWorkspace(entry("A", 2), entry("B", 2))
	ws.selectIDs("A", "B")
	w := newTestWorkflow(t, ws, DefaultOptions())

	res, err := w.ExecuteMerge(context.Background(), settings.Snapshot{})
	require.NoError(t, err)
	for _, m := range res.Merged.Molecules {
		assert.False(t, m.Selected(), "molecule %s", m.Name)
	}
	// The workspace's own entries are untouched.
	assert.True(t, ws.entries[0].Molecules[0].Selected())
}

func TestExecuteMerge_AlignmentDisabled(t *testing.T) {
	ws := newFakeWorkspace(entry("A", 1), entry("B", 1), entry("C", 1))
	ws.selectIDs("A", "B", "C")
	spy := &spyTransformer{}
	w := newTestWorkflow(t, ws, DefaultOptions(), WithTransformer(spy))

	_, err := w.ExecuteMerge(context.Background(), settings.Snapshot{})
	require.NoError(t, err)
	assert.Empty(t, spy.aligned)
}

func TestExecuteMerge_AlignmentSkipsReference(t *testing.T) {
	ws := newFakeWorkspace(entry("A", 1), entry("B", 1), entry("C", 1))
	ws.selectIDs("A", "B", "C")
	spy := &spyTransformer{}
	w := newTestWorkflow(t, ws, DefaultOptions(), WithTransformer(spy))

	_, err := w.ExecuteMerge(context.Background(), settings.Snapshot{AlignCoordinates: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, spy.aligned)
}

func TestExecuteMerge_AlignmentMovesIntoReferenceFrame(t *testing.T) {
	a := entry("A", 1)
	a.Placement.Position = mgl64.Vec3{10, 0, 0}
	b := entry("B", 1)
	b.Placement.Position = mgl64.Vec3{0, 0, 0}
	ws := newFakeWorkspace(a, b)
	ws.selectIDs("A", "B")
	w := newTestWorkflow(t, ws, DefaultOptions())

	res, err := w.ExecuteMerge(context.Background(), settings.Snapshot{AlignCoordinates: true})
	require.NoError(t, err)

	// B's atom sits at workspace origin; in A's frame that is x = -10.
	got := res.Merged.Molecules[1].Atoms[0].Positions[0]
	assert.True(t, got.ApproxEqualThreshold(mgl64.Vec3{-10, 0, 0}, 1e-9), "got %v", got)
	assert.Equal(t, a.Placement, res.Merged.Placement)
}

func TestExecuteMerge_PlacementAndNameOptions(t *testing.T) {
	a := entry("A", 1)
	a.Placement.Position = mgl64.Vec3{1, 2, 3}
	ws := newFakeWorkspace(a, entry("B", 1))
	ws.selectIDs("A", "B")

	w := newTestWorkflow(t, ws, Options{NameFormat: "%s Merged", CopyReferencePlacement: false})
	res, err := w.ExecuteMerge(context.Background(), settings.Snapshot{})
	require.NoError(t, err)

	assert.Equal(t, "entry A Merged", res.Merged.Name)
	assert.Equal(t, structure.IdentityPlacement(), res.Merged.Placement)
	assert.Empty(t, res.Merged.ID, "the host assigns ids to published entries")
}

func TestExecuteMerge_NoDeleteKeepsSources(t *testing.T) {
	ws := newFakeWorkspace(entry("A", 1), entry("B", 1))
	ws.selectIDs("A", "B")
	w := newTestWorkflow(t, ws, DefaultOptions())

	res, err := w.ExecuteMerge(context.Background(), settings.Snapshot{})
	require.NoError(t, err)
	assert.False(t, res.SourcesRemoved)
	assert.NotContains(t, ws.calls, "remove")
}

func TestExecuteMerge_CollaboratorErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name      string
		setup     func(*fakeWorkspace)
		wantStep  string
		wantCalls []string
	}{
		{
			name:      "list",
			setup:     func(f *fakeWorkspace) { f.listErr = boom },
			wantStep:  "list entries",
			wantCalls: []string{"list"},
		},
		{
			name:      "fetch",
			setup:     func(f *fakeWorkspace) { f.fetchErr = boom },
			wantStep:  "fetch entries",
			wantCalls: []string{"list", "fetch"},
		},
		{
			name:      "publish",
			setup:     func(f *fakeWorkspace) { f.publishErr = boom },
			wantStep:  "publish",
			wantCalls: []string{"list", "fetch", "publish"},
		},
		{
			name:      "remove",
			setup:     func(f *fakeWorkspace) { f.removeErr = boom },
			wantStep:  "remove sources",
			wantCalls: []string{"list", "fetch", "publish", "remove"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := newFakeWorkspace(entry("A", 1), entry("B", 1))
			ws.selectIDs("A", "B")
			tt.setup(ws)
			w := newTestWorkflow(t, ws, DefaultOptions())

			_, err := w.ExecuteMerge(context.Background(), settings.Snapshot{DeleteOriginals: true})
			require.ErrorIs(t, err, boom)
			assert.Contains(t, err.Error(), tt.wantStep)
			assert.Equal(t, tt.wantCalls, ws.calls, "a failed step stops the workflow")
			assert.Empty(t, ws.warnings)
		})
	}
}

func TestExecuteMerge_FetchReturnsTooFew(t *testing.T) {
	ws := newFakeWorkspace(entry("A", 1), entry("B", 1), entry("C", 1))
	ws.selectIDs("A", "B", "C")
	ws.dropOnFetch = "B"
	w := newTestWorkflow(t, ws, DefaultOptions())

	_, err := w.ExecuteMerge(context.Background(), settings.Snapshot{DeleteOriginals: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requested 3 entries, got 2")
	assert.Equal(t, []string{"list", "fetch"}, ws.calls)
}

func TestExecuteMerge_RejectsConcurrentRun(t *testing.T) {
	ws := newFakeWorkspace(entry("A", 1), entry("B", 1))
	ws.selectIDs("A", "B")
	ws.blockList = make(chan struct{})
	w := newTestWorkflow(t, ws, DefaultOptions())

	first := make(chan error, 1)
	go func() {
		_, err := w.ExecuteMerge(context.Background(), settings.Snapshot{})
		first <- err
	}()

	// Wait until the first merge is parked inside ListEntries.
	require.Eventually(t, func() bool {
		ws.mu.Lock()
		defer ws.mu.Unlock()
		return len(ws.calls) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := w.ExecuteMerge(context.Background(), settings.Snapshot{})
	require.ErrorIs(t, err, ErrMergeInProgress)

	close(ws.blockList)
	require.NoError(t, <-first)

	ws.mu.Lock()
	warnings := append([]string(nil), ws.warnings...)
	ws.mu.Unlock()
	assert.Equal(t, []string{MergeInProgressMessage}, warnings)

	// The guard is released once the first merge finishes.
	ws.blockList = nil
	_, err = w.ExecuteMerge(context.Background(), settings.Snapshot{})
	require.NoError(t, err)
}

func TestExecuteMerge_ProgressStates(t *testing.T) {
	ws := newFakeWorkspace(entry("A", 1), entry("B", 1))
	ws.selectIDs("A", "B")

	var states []State
	w := newTestWorkflow(t, ws, DefaultOptions(), WithProgress(func(ev ProgressEvent) {
		states = append(states, ev.State)
	}))

	_, err := w.ExecuteMerge(context.Background(), settings.Snapshot{DeleteOriginals: true})
	require.NoError(t, err)
	assert.Equal(t, []State{
		StateAwaitingSelectionList,
		StateAwaitingFullFetch,
		StateBuilding,
		StateAwaitingPublish,
		StateAwaitingDeletion,
		StateIdle,
	}, states)
}

func TestExecuteMerge_ProgressOnAbort(t *testing.T) {
	ws := newFakeWorkspace(entry("A", 1))
	ws.selectIDs("A")

	var events []ProgressEvent
	w := newTestWorkflow(t, ws, DefaultOptions(), WithProgress(func(ev ProgressEvent) {
		events = append(events, ev)
	}))

	_, err := w.ExecuteMerge(context.Background(), settings.Snapshot{})
	require.ErrorIs(t, err, ErrTooFewSelected)
	require.Len(t, events, 3)
	assert.Equal(t, TooFewSelectedMessage, events[1].Message)
	assert.Equal(t, StateIdle, events[2].State)
}

func TestNewWorkflow_InvalidNameFormat(t *testing.T) {
	_, err := NewWorkflow(newFakeWorkspace(), Options{NameFormat: "Merged %d"})
	require.Error(t, err)
}

func TestSelectedIDs(t *testing.T) {
	got := SelectedIDs([]structure.EntrySummary{
		{ID: "1", Selected: true},
		{ID: "2"},
		{ID: "3", Selected: true},
	})
	assert.Equal(t, []string{"1", "3"}, got)
	assert.Nil(t, SelectedIDs(nil))
}
