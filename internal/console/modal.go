package console

import (
	"sync"

	"github.com/turtacn/Tether/pkg/notify"
)

// Modal holds the status message shown over the console. It is the
// supervisor's StatusSink and the CGI client's Alerter.
type Modal struct {
	mu        sync.RWMutex
	message   string
	observers notify.Registry[string]
}

func (m *Modal) SetMessage(message string) {
	m.mu.Lock()
	m.message = message
	m.mu.Unlock()
	m.observers.Emit(message)
}

// Alert shows message the same way as a status message.
func (m *Modal) Alert(message string) { m.SetMessage(message) }

func (m *Modal) Message() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.message
}

func (m *Modal) Subscribe(fn func(message string)) (unsubscribe func()) {
	return m.observers.Subscribe(fn)
}

// Personal.AI order the ending
