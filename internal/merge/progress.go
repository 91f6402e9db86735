package merge

import (
	"fmt"
	"sync"
)

// State is a step of one merge invocation.
type State int

const (
	StateIdle State = iota
	StateAwaitingSelectionList
	StateAwaitingFullFetch
	StateBuilding
	StateAwaitingPublish
	StateAwaitingDeletion
)

func (s State) String() string {
	names := [...]string{
		"idle",
		"awaiting-selection-list",
		"awaiting-full-fetch",
		"building",
		"awaiting-publish",
		"awaiting-deletion",
	}
	if int(s) >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// ProgressEvent reports a state transition of a merge.
type ProgressEvent struct {
	State   State
	Entries int    // number of entries involved at this point, 0 if unknown
	Message string // set when the merge ends early
}

// ProgressReporter emits progress events through a buffered channel. Emit is
// safe to call concurrently with and after Close.
type ProgressReporter struct {
	mu     sync.Mutex
	ch     chan ProgressEvent
	closed bool
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch: make(chan ProgressEvent, 64),
	}
}

// Emit sends a progress event without blocking. If the channel is full or
// the reporter is closed, the event is dropped.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.closed {
		return
	}
	select {
	case pr.ch <- event:
	default:
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the progress event channel. Calling it more than once is a
// no-op.
func (pr *ProgressReporter) Close() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.closed {
		return
	}
	pr.closed = true
	close(pr.ch)
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	switch {
	case event.Message != "":
		return fmt.Sprintf("  ✗ %s: %s", event.State, event.Message)
	case event.State == StateIdle:
		return "  ✓ idle"
	case event.Entries > 0:
		return fmt.Sprintf("  ● %s (%d entries)", event.State, event.Entries)
	default:
		return fmt.Sprintf("  ● %s...", event.State)
	}
}
