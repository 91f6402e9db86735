package devhost

import (
	"maps"
	"slices"
	"sync"

	"github.com/dusk-indust/mergeframes/internal/host"
	"github.com/dusk-indust/mergeframes/internal/settings"
	"github.com/google/uuid"
)

// Notification is a recorded ui/notify call.
type Notification struct {
	ID string
	host.NotifyRequest
}

// UIState is a snapshot of what a plugin has asked the host to display.
type UIState struct {
	Notifications []Notification
	Buttons       map[host.ListButton]string
	Menu          *settings.Menu
}

// uiRecorder keeps the plugin-facing UI calls for inspection.
type uiRecorder struct {
	mu            sync.Mutex
	notifications []Notification
	buttons       map[host.ListButton]string
	menu          *settings.Menu
}

func newUIRecorder() *uiRecorder {
	return &uiRecorder{buttons: make(map[host.ListButton]string)}
}

func (u *uiRecorder) notify(n host.NotifyRequest) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	id := uuid.NewString()
	u.notifications = append(u.notifications, Notification{ID: id, NotifyRequest: n})
	return id
}

func (u *uiRecorder) setButton(b host.ListButton, label string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.buttons[b] = label
}

func (u *uiRecorder) setMenu(m settings.Menu) {
	u.mu.Lock()
	defer u.mu.Unlock()
	m.Toggles = slices.Clone(m.Toggles)
	u.menu = &m
}

func (u *uiRecorder) snapshot() UIState {
	u.mu.Lock()
	defer u.mu.Unlock()

	st := UIState{
		Notifications: slices.Clone(u.notifications),
		Buttons:       maps.Clone(u.buttons),
	}
	if u.menu != nil {
		m := *u.menu
		m.Toggles = slices.Clone(m.Toggles)
		st.Menu = &m
	}
	return st
}
