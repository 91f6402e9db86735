// Package merge combines several selected workspace entries into one entry
// whose molecules are the frames of the sources, in selection order.
package merge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dusk-indust/mergeframes/internal/host"
	"github.com/dusk-indust/mergeframes/internal/settings"
	"github.com/dusk-indust/mergeframes/internal/structure"
	"golang.org/x/sync/semaphore"
)

// MinEntries is the smallest selection a merge accepts.
const MinEntries = 2

// User-facing warning texts.
const (
	TooFewSelectedMessage  = "Please select multiple entries."
	MergeInProgressMessage = "A merge is already in progress."
)

var (
	// ErrTooFewSelected is returned when fewer than MinEntries entries are
	// selected. The user has already been warned when it is returned.
	ErrTooFewSelected = errors.New("merge: fewer than two entries selected")

	// ErrMergeInProgress is returned when a merge is started while another
	// one on the same Workflow has not finished.
	ErrMergeInProgress = errors.New("merge: a merge is already in progress")
)

// Transformer performs the structure operations a merge applies to each
// source entry.
type Transformer interface {
	ConvertToFrames(c *structure.Complex) *structure.Complex
	SetAllSelected(c *structure.Complex, selected bool)
	AlignTo(c, ref *structure.Complex)
}

// Options controls how the merged entry is built.
type Options struct {
	// NameFormat derives the merged entry name from the first source name.
	// It must contain exactly one %s.
	NameFormat string

	// CopyReferencePlacement gives the merged entry the position and
	// rotation of the first source.
	CopyReferencePlacement bool
}

// DefaultOptions returns the options matching the stock plugin behaviour.
func DefaultOptions() Options {
	return Options{
		NameFormat:             DefaultNameFormat,
		CopyReferencePlacement: true,
	}
}

// Result describes a completed merge.
type Result struct {
	Merged         *structure.Complex
	SourceIDs      []string
	SourcesRemoved bool
}

// Workflow runs merges against a host workspace. At most one merge runs at a
// time per Workflow.
type Workflow struct {
	ws         host.Workspace
	opts       Options
	tk         Transformer
	logger     *slog.Logger
	onProgress func(ProgressEvent)
	busy       *semaphore.Weighted
}

// WorkflowOption configures a Workflow.
type WorkflowOption func(*Workflow)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) WorkflowOption {
	return func(w *Workflow) {
		w.logger = l
	}
}

// WithProgress registers a callback invoked synchronously on every state
// transition.
func WithProgress(fn func(ProgressEvent)) WorkflowOption {
	return func(w *Workflow) {
		w.onProgress = fn
	}
}

// WithTransformer replaces the structure operations.
func WithTransformer(tk Transformer) WorkflowOption {
	return func(w *Workflow) {
		w.tk = tk
	}
}

// NewWorkflow creates a Workflow. An empty NameFormat falls back to
// DefaultNameFormat; any other invalid format is an error.
func NewWorkflow(ws host.Workspace, opts Options, optFns ...WorkflowOption) (*Workflow, error) {
	if opts.NameFormat == "" {
		opts.NameFormat = DefaultNameFormat
	}
	if err := ValidateNameFormat(opts.NameFormat); err != nil {
		return nil, err
	}

	w := &Workflow{
		ws:     ws,
		opts:   opts,
		tk:     structure.Toolkit{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		busy:   semaphore.NewWeighted(1),
	}
	for _, fn := range optFns {
		fn(w)
	}
	return w, nil
}

// SelectedIDs returns the IDs of selected entries, in list order.
func SelectedIDs(entries []structure.EntrySummary) []string {
	var ids []string
	for _, e := range entries {
		if e.Selected {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// ExecuteMerge merges the currently selected entries using the given settings.
//
// Selecting fewer than two entries warns the user and returns
// ErrTooFewSelected without touching the workspace. Host failures are
// returned wrapped with the step that failed; nothing is retried or rolled
// back. Sources are removed only after the merged entry was published.
func (w *Workflow) ExecuteMerge(ctx context.Context, snap settings.Snapshot) (*Result, error) {
	if !w.busy.TryAcquire(1) {
		w.logger.Warn("merge rejected, another merge is running")
		if err := w.ws.NotifyWarning(ctx, MergeInProgressMessage); err != nil {
			return nil, fmt.Errorf("merge: notify: %w", err)
		}
		return nil, ErrMergeInProgress
	}
	defer w.busy.Release(1)
	defer w.emit(ProgressEvent{State: StateIdle})

	w.emit(ProgressEvent{State: StateAwaitingSelectionList})
	summaries, err := w.ws.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("merge: list entries: %w", err)
	}

	ids := SelectedIDs(summaries)
	if len(ids) < MinEntries {
		w.logger.Info("merge aborted", "selected", len(ids), "entries", len(summaries))
		w.emit(ProgressEvent{State: StateAwaitingSelectionList, Entries: len(ids), Message: TooFewSelectedMessage})
		if err := w.ws.NotifyWarning(ctx, TooFewSelectedMessage); err != nil {
			return nil, fmt.Errorf("merge: notify: %w", err)
		}
		return nil, ErrTooFewSelected
	}

	w.emit(ProgressEvent{State: StateAwaitingFullFetch, Entries: len(ids)})
	sources, err := w.ws.FetchEntries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("merge: fetch entries: %w", err)
	}
	if len(sources) != len(ids) {
		return nil, fmt.Errorf("merge: fetch entries: requested %d entries, got %d", len(ids), len(sources))
	}

	w.emit(ProgressEvent{State: StateBuilding, Entries: len(sources)})
	merged := w.build(sources, snap.AlignCoordinates)

	w.emit(ProgressEvent{State: StateAwaitingPublish, Entries: len(sources)})
	if err := w.ws.PublishEntries(ctx, []*structure.Complex{merged}); err != nil {
		return nil, fmt.Errorf("merge: publish: %w", err)
	}
	w.logger.Info("merged entries",
		"name", merged.Name,
		"sources", len(sources),
		"frames", len(merged.Molecules),
		"aligned", snap.AlignCoordinates)

	res := &Result{Merged: merged, SourceIDs: ids}
	if !snap.DeleteOriginals {
		return res, nil
	}

	w.emit(ProgressEvent{State: StateAwaitingDeletion, Entries: len(sources)})
	if err := w.ws.RemoveEntries(ctx, sources); err != nil {
		return res, fmt.Errorf("merge: remove sources: %w", err)
	}
	res.SourcesRemoved = true
	w.logger.Info("removed merged sources", "count", len(sources))
	return res, nil
}

// build assembles the merged entry. sources[0] is the reference for naming,
// placement and alignment.
func (w *Workflow) build(sources []*structure.Complex, align bool) *structure.Complex {
	ref := sources[0]

	merged := structure.NewComplex(MergedName(w.opts.NameFormat, ref.Name))
	if w.opts.CopyReferencePlacement {
		merged.Placement = ref.Placement
	}

	for i, src := range sources {
		framed := w.tk.ConvertToFrames(src)
		w.tk.SetAllSelected(framed, false)
		if align && i > 0 {
			w.tk.AlignTo(framed, ref)
		}
		for _, m := range framed.Molecules {
			merged.AddMolecule(m)
		}
	}
	return merged
}

// emit sends a progress event if a callback is registered.
func (w *Workflow) emit(ev ProgressEvent) {
	if w.onProgress != nil {
		w.onProgress(ev)
	}
}
