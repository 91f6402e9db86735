// Package host is the plugin's side of the boundary with the visualization
// host: the operations the plugin calls, the events the host sends, and a
// JSON-RPC client that carries both.
package host

import (
	"context"

	"github.com/dusk-indust/mergeframes/internal/settings"
	"github.com/dusk-indust/mergeframes/internal/structure"
)

// Workspace is the subset of host operations the merge workflow needs.
type Workspace interface {
	// ListEntries returns a shallow summary of every entry, in host order.
	ListEntries(ctx context.Context) ([]structure.EntrySummary, error)

	// FetchEntries returns full entries in the same order as ids.
	FetchEntries(ctx context.Context, ids []string) ([]*structure.Complex, error)

	// PublishEntries adds new entries to the workspace.
	PublishEntries(ctx context.Context, entries []*structure.Complex) error

	// RemoveEntries removes entries from the workspace.
	RemoveEntries(ctx context.Context, entries []*structure.Complex) error

	// NotifyWarning shows a transient warning to the user.
	NotifyWarning(ctx context.Context, message string) error
}

// Host is the full set of operations a plugin session uses.
type Host interface {
	Workspace

	// SetListButton relabels one of the plugin's list buttons.
	SetListButton(ctx context.Context, button ListButton, label string) error

	// UpdateMenu shows or refreshes the plugin's settings menu.
	UpdateMenu(ctx context.Context, menu settings.Menu) error

	// Subscribe opens the host event stream. The channel is closed when the
	// stream ends or ctx is cancelled.
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// ListButton identifies a plugin list button.
type ListButton string

const (
	ButtonRun              ListButton = "run"
	ButtonAdvancedSettings ListButton = "advanced_settings"
)

// NotificationType is the severity of a user notification.
type NotificationType string

const (
	NotificationMessage NotificationType = "message"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// EventKind identifies a host event.
type EventKind string

const (
	EventKindRun              EventKind = "run"
	EventKindAdvancedSettings EventKind = "advanced_settings"
	EventKindSettingsToggled  EventKind = "settings_toggled"
)

// Event is a host -> plugin notification.
type Event struct {
	Kind   EventKind             `json:"kind"`
	Toggle *settings.ToggleEvent `json:"toggle,omitempty"`

	// Err is set if the stream encountered an error.
	Err error `json:"-"`
}

// --- Request / response params ---

// ListEntriesResponse is the result of workspace/list.
type ListEntriesResponse struct {
	Entries []structure.EntrySummary `json:"entries"`
}

// FetchEntriesRequest is the params of workspace/fetch.
type FetchEntriesRequest struct {
	IDs []string `json:"ids"`
}

// FetchEntriesResponse is the result of workspace/fetch.
type FetchEntriesResponse struct {
	Entries []*structure.Complex `json:"entries"`
}

// AddEntriesRequest is the params of workspace/add.
type AddEntriesRequest struct {
	Entries []*structure.Complex `json:"entries"`
}

// AddEntriesResponse is the result of workspace/add.
type AddEntriesResponse struct {
	IDs []string `json:"ids"`
}

// RemoveEntriesRequest is the params of workspace/remove.
type RemoveEntriesRequest struct {
	IDs []string `json:"ids"`
}

// NotifyRequest is the params of ui/notify.
type NotifyRequest struct {
	Type    NotificationType `json:"type"`
	Message string           `json:"message"`
}

// SetListButtonRequest is the params of ui/setListButton.
type SetListButtonRequest struct {
	Button ListButton `json:"button"`
	Label  string     `json:"label"`
}

// UpdateMenuRequest is the params of ui/updateMenu.
type UpdateMenuRequest struct {
	Menu settings.Menu `json:"menu"`
}

// TriggerRequest is the params of dev/trigger, used by the development host
// to emit an event to subscribed plugins.
type TriggerRequest struct {
	Event Event `json:"event"`
}
