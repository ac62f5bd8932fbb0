// Package hal defines the contract shared by every hardware notification
// driver: how a driver is opened and closed, how change callbacks are
// registered, and how the current state is queried.
package hal

// Callback receives a decoded device state together with the opaque data
// passed at registration time.
type Callback[T any] func(state T, data any)

// ModuleInfo describes a driver module as seen by the loader.
type ModuleInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DeviceVersion string `json:"deviceVersion"`
}

// Module opens driver handles for one device kind.
type Module[T any] interface {
	Info() ModuleInfo
	// Open returns a new driver handle. A nil info is rejected with
	// ErrInvalidArgument.
	Open(info *ModuleInfo) (Driver[T], error)
}

// Driver is an open handle for one device kind.
//
// RegisterChanged subscribes to asynchronous change notifications. Only one
// callback may be active at a time; a second registration fails with
// ErrAlreadyRegistered until UnregisterChanged is called.
//
// UnregisterChanged is idempotent and safe to call on a handle that never
// registered anything.
//
// GetCurrentState reads the current hardware state and invokes cb
// synchronously before returning. It never touches the registered callback.
//
// Close unregisters any active callback and invalidates the handle. Every
// later call, including a second Close, fails with ErrInvalidArgument.
type Driver[T any] interface {
	RegisterChanged(cb Callback[T], data any) error
	UnregisterChanged()
	GetCurrentState(cb Callback[T], data any) error
	Close() error
}
