// Package sigbus subscribes handlers to broadcast signals on a message bus.
package sigbus

import (
	"strings"
)

// SubscriptionID identifies a live subscription. Zero is never a valid id.
type SubscriptionID uint32

// Match selects signals by emitting object, interface and signal name.
type Match struct {
	Path      string
	Interface string
	Member    string
}

// Matches reports whether sig was emitted by m's object on m's interface
// with exactly m's name.
func (m Match) Matches(sig Signal) bool {
	return sig.Path == m.Path && sig.Interface == m.Interface && sig.Name == m.Member
}

// Signal is a delivered bus signal.
type Signal struct {
	Sender    string
	Path      string
	Interface string
	Name      string
	Body      []any
}

// Handler is invoked for each delivered signal. Handlers run on the bus
// dispatch goroutine, one at a time.
type Handler func(sig Signal)

// Bus is the subscription side of a signal bus.
type Bus interface {
	// Subscribe starts delivering signals selected by m to h.
	// Errors wrap hal.ErrConnectionFailed or hal.ErrSubscribeFailed.
	Subscribe(m Match, h Handler) (SubscriptionID, error)
	// Unsubscribe stops a subscription. Zero or unknown ids are ignored.
	Unsubscribe(id SubscriptionID)
}

// splitName splits a fully qualified "interface.Member" signal name.
func splitName(full string) (iface, member string) {
	i := strings.LastIndexByte(full, '.')
	if i < 0 {
		return "", full
	}
	return full[:i], full[i+1:]
}
