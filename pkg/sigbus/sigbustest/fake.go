// Package sigbustest provides an in-memory sigbus.Bus for tests.
package sigbustest

import (
	"sync"

	"github.com/devnode/devnoti/pkg/sigbus"
)

var _ sigbus.Bus = &Fake{}

// Fake is a synchronous in-memory bus. Emit delivers a signal to every
// matching subscription on the calling goroutine.
type Fake struct {
	// SubscribeErr, when set, is returned by every Subscribe call.
	SubscribeErr error

	mu           sync.Mutex
	subs         map[sigbus.SubscriptionID]fakeSub
	nextID       sigbus.SubscriptionID
	unsubscribed []sigbus.SubscriptionID
}

type fakeSub struct {
	match   sigbus.Match
	handler sigbus.Handler
}

func New() *Fake {
	return &Fake{subs: make(map[sigbus.SubscriptionID]fakeSub)}
}

func (f *Fake) Subscribe(m sigbus.Match, h sigbus.Handler) (sigbus.SubscriptionID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SubscribeErr != nil {
		return 0, f.SubscribeErr
	}
	f.nextID++
	f.subs[f.nextID] = fakeSub{match: m, handler: h}
	return f.nextID, nil
}

func (f *Fake) Unsubscribe(id sigbus.SubscriptionID) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subs[id]; !ok {
		return
	}
	delete(f.subs, id)
	f.unsubscribed = append(f.unsubscribed, id)
}

// Emit delivers sig to every subscription whose path and interface match.
// The signal name is not checked, so tests can exercise handlers that must
// ignore unexpected names. It returns the number of handlers invoked.
func (f *Fake) Emit(sig sigbus.Signal) int {
	f.mu.Lock()
	var handlers []sigbus.Handler
	for _, s := range f.subs {
		if s.match.Path == sig.Path && s.match.Interface == sig.Interface {
			handlers = append(handlers, s.handler)
		}
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(sig)
	}
	return len(handlers)
}

// Active returns the number of live subscriptions.
func (f *Fake) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Unsubscribed returns the ids removed so far, in order.
func (f *Fake) Unsubscribed() []sigbus.SubscriptionID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sigbus.SubscriptionID(nil), f.unsubscribed...)
}

// Matches returns the match of every live subscription.
func (f *Fake) Matches() []sigbus.Match {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sigbus.Match
	for _, s := range f.subs {
		out = append(out, s.match)
	}
	return out
}
