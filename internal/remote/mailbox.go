// Package remote carries the pump override requested over the command
// channel into the control loop.
package remote

import (
	"sync"

	"vermicompost_monitor/internal/control"
)

// Mailbox is a single-slot, latest-wins hand-off between the command
// channel callbacks and the control loop.
type Mailbox struct {
	mu   sync.Mutex
	slot chan control.Override
}

func NewMailbox() *Mailbox {
	return &Mailbox{slot: make(chan control.Override, 1)}
}

// Put replaces any unread value. It never blocks.
func (m *Mailbox) Put(ov control.Override) {
	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-m.slot:
	default:
	}
	m.slot <- ov
}

// Poll returns the pending value, if any, without waiting.
func (m *Mailbox) Poll() (control.Override, bool) {
	select {
	case ov := <-m.slot:
		return ov, true
	default:
		return control.Override{}, false
	}
}
