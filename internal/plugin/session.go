// Package plugin binds the merge workflow and the settings toggles to a host:
// it sets up the plugin buttons, reacts to host events and keeps the settings
// menu in sync.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dusk-indust/mergeframes/internal/host"
	"github.com/dusk-indust/mergeframes/internal/merge"
	"github.com/dusk-indust/mergeframes/internal/settings"
)

// ErrStreamClosed is returned by Run when the host closes the event stream.
var ErrStreamClosed = errors.New("plugin: host event stream closed")

// Session is one plugin instance attached to a host.
type Session struct {
	host     host.Host
	workflow *merge.Workflow
	state    *settings.State
	logger   *slog.Logger
	onMerge  func(*merge.Result, error)

	merges sync.WaitGroup
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger. The default discards output.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

// WithMergeHandler registers a callback invoked after every merge attempt.
func WithMergeHandler(fn func(*merge.Result, error)) SessionOption {
	return func(s *Session) {
		s.onMerge = fn
	}
}

// NewSession creates a Session. state is shared with the caller; toggle events
// update it in place.
func NewSession(h host.Host, wf *merge.Workflow, state *settings.State, opts ...SessionOption) *Session {
	s := &Session{
		host:     h,
		workflow: wf,
		state:    state,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settings returns the live toggle state.
func (s *Session) Settings() *settings.State {
	return s.state
}

// Start labels the run and advanced-settings buttons.
func (s *Session) Start(ctx context.Context) error {
	if err := s.host.SetListButton(ctx, host.ButtonRun, RunButtonLabel); err != nil {
		return fmt.Errorf("plugin: set run button: %w", err)
	}
	if err := s.host.SetListButton(ctx, host.ButtonAdvancedSettings, SettingsButtonLabel); err != nil {
		return fmt.Errorf("plugin: set settings button: %w", err)
	}
	return nil
}

// Run starts the session and handles host events until ctx is cancelled or
// the host closes the stream. In-flight merges are waited for before Run
// returns.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	events, err := s.host.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("plugin: subscribe: %w", err)
	}
	defer s.merges.Wait()

	s.logger.Info("plugin session started")
	for ev := range events {
		if ev.Err != nil {
			s.logger.Warn("bad host event", "error", ev.Err)
			continue
		}
		if err := s.HandleEvent(ctx, ev); err != nil {
			s.logger.Error("handle event", "kind", ev.Kind, "error", err)
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	return ErrStreamClosed
}

// HandleEvent reacts to a single host event. A run event starts a merge in
// the background and returns immediately.
func (s *Session) HandleEvent(ctx context.Context, ev host.Event) error {
	switch ev.Kind {
	case host.EventKindRun:
		s.startMerge(ctx)
		return nil
	case host.EventKindAdvancedSettings:
		return s.showMenu(ctx)
	case host.EventKindSettingsToggled:
		if ev.Toggle == nil {
			return errors.New("plugin: settings event without toggle")
		}
		if err := s.state.Apply(*ev.Toggle); err != nil {
			return err
		}
		s.logger.Info("setting changed", "flag", ev.Toggle.Flag, "value", ev.Toggle.Value)
		return s.showMenu(ctx)
	default:
		return fmt.Errorf("plugin: unhandled event kind %q", ev.Kind)
	}
}

// Wait blocks until every merge started by HandleEvent has finished.
func (s *Session) Wait() {
	s.merges.Wait()
}

func (s *Session) showMenu(ctx context.Context) error {
	if err := s.host.UpdateMenu(ctx, s.state.Menu()); err != nil {
		return fmt.Errorf("plugin: update menu: %w", err)
	}
	return nil
}

// startMerge runs one merge with the settings as they are right now.
func (s *Session) startMerge(ctx context.Context) {
	snap := s.state.Snapshot()
	s.merges.Go(func() {
		res, err := s.workflow.ExecuteMerge(ctx, snap)
		switch {
		case err == nil:
			s.logger.Info("merge finished", "name", res.Merged.Name, "frames", len(res.Merged.Molecules))
		case errors.Is(err, merge.ErrTooFewSelected), errors.Is(err, merge.ErrMergeInProgress):
			s.logger.Info("merge skipped", "reason", err)
		default:
			s.logger.Error("merge failed", "error", err)
		}
		if s.onMerge != nil {
			s.onMerge(res, err)
		}
	})
}
