package handlers

import (
	"github.com/minglehq/backend/internal/notify"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	dispatcher notify.Dispatcher
	notifier   *notify.Service
}

// NewHandlers creates a new handlers instance. The dispatcher delivers
// real-time feed events; the notifier persists and pushes notifications.
func NewHandlers(dispatcher notify.Dispatcher, notifier *notify.Service) *Handlers {
	if dispatcher == nil {
		dispatcher = notify.NopDispatcher{}
	}
	return &Handlers{
		dispatcher: dispatcher,
		notifier:   notifier,
	}
}

// SetDispatcher replaces the real-time dispatcher
func (h *Handlers) SetDispatcher(d notify.Dispatcher) {
	h.dispatcher = d
}

// SetNotifier replaces the notification service
func (h *Handlers) SetNotifier(n *notify.Service) {
	h.notifier = n
}
