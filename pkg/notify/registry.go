// Package notify holds the single change callback of a driver handle and
// connects it to a bus subscription.
package notify

import (
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/devnode/devnoti/pkg/hal"
	"github.com/devnode/devnoti/pkg/sigbus"
)

// Decoder turns a bus signal into a device state.
type Decoder[T any] func(sig sigbus.Signal) hal.DecodeResult[T]

// Registry owns at most one (callback, data, subscription) triple.
//
// It is Idle until Register succeeds and Active until Unregister. Signals
// that arrive while Idle, including ones racing with Unregister, are dropped.
// Unregister does not wait for a callback that is already running.
type Registry[T any] struct {
	name   string
	bus    sigbus.Bus
	match  sigbus.Match
	decode Decoder[T]

	mu   sync.Mutex
	cb   hal.Callback[T]
	data any
	id   sigbus.SubscriptionID
}

// New returns an Idle registry that subscribes to match on bus and decodes
// signals with decode. name is used in log messages.
func New[T any](name string, bus sigbus.Bus, match sigbus.Match, decode Decoder[T]) *Registry[T] {
	return &Registry[T]{
		name:   name,
		bus:    bus,
		match:  match,
		decode: decode,
	}
}

// Register subscribes to the bus and stores cb and data.
func (r *Registry[T]) Register(cb hal.Callback[T], data any) error {
	if cb == nil {
		return hal.ErrInvalidArgument
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cb != nil {
		logrus.WithField("device", r.name).Error("update callback is already registered")
		return hal.ErrAlreadyRegistered
	}

	id, err := r.bus.Subscribe(r.match, r.handle)
	if err != nil {
		logrus.WithField("device", r.name).Errorf("failed to register signal: %v", err)
		return pkgerrors.Wrapf(err, "failed to subscribe %s", r.match.Member)
	}

	r.cb = cb
	r.data = data
	r.id = id
	return nil
}

// Unregister drops the subscription and the callback. It is a no-op when Idle.
func (r *Registry[T]) Unregister() {
	r.mu.Lock()
	id := r.id
	r.cb = nil
	r.data = nil
	r.id = 0
	r.mu.Unlock()

	r.bus.Unsubscribe(id)
}

// Active reports whether a callback is registered.
func (r *Registry[T]) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cb != nil
}

// Dispatch invokes the registered callback with state. It returns false, and
// does nothing, when the registry is Idle.
func (r *Registry[T]) Dispatch(state T) bool {
	r.mu.Lock()
	cb, data := r.cb, r.data
	r.mu.Unlock()

	if cb == nil {
		return false
	}
	cb(state, data)
	return true
}

func (r *Registry[T]) handle(sig sigbus.Signal) {
	res := r.decode(sig)
	switch res.Kind {
	case hal.Ignored:
		return
	case hal.Malformed:
		logrus.WithFields(logrus.Fields{
			"device": r.name,
			"signal": sig.Name,
		}).Warnf("dropping malformed signal: %v", res.Err)
		return
	}

	if !r.Dispatch(res.State) {
		logrus.WithField("device", r.name).Debug("signal delivered without a registered callback")
	}
}
