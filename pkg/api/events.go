package api

import (
	"time"

	"github.com/r3d91ll/gmpaudit/pkg/store"
)

// SavedEvent is the payload of form.saved.
type SavedEvent struct {
	At    time.Time `json:"at"`
	Error string    `json:"error,omitempty"`
}

// forwardEvents publishes store changes and auto-save outcomes to the hub.
// The returned function detaches both.
func (s *Server) forwardEvents() func() {
	unsubscribe := s.deps.Store.Subscribe(func(c store.Change) {
		s.hub.Publish(EventFormChanged, c)
	})
	if s.deps.Saver == nil {
		return unsubscribe
	}
	s.deps.Saver.OnSaved(func(at time.Time, err error) {
		ev := SavedEvent{At: at}
		if err != nil {
			ev.Error = err.Error()
			s.hub.Notify(NotifyError, "Failed to save form: "+err.Error())
		}
		s.hub.Publish(EventFormSaved, ev)
	})
	return func() {
		unsubscribe()
		s.deps.Saver.OnSaved(nil)
	}
}
