package hal

import (
	"errors"
	"syscall"
)

var (
	// ErrInvalidArgument is returned for nil callbacks, nil module info and closed handles.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfMemory is returned when a driver handle cannot be allocated.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrAlreadyRegistered is returned when a change callback is already active.
	ErrAlreadyRegistered = errors.New("change callback is already registered")

	// ErrUnsupported is returned for device kinds that are not available.
	ErrUnsupported = errors.New("unsupported")

	// ErrIOFailure is returned when a hardware attribute cannot be read.
	ErrIOFailure = errors.New("i/o failure")

	// ErrConnectionFailed is returned when the signal bus cannot be reached.
	ErrConnectionFailed = errors.New("bus connection failed")

	// ErrSubscribeFailed is returned when the bus refuses a signal subscription.
	ErrSubscribeFailed = errors.New("signal subscription failed")
)

// Code maps err to the negative errno value used at the module loader boundary.
// A nil error maps to 0.
func Code(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvalidArgument):
		return -int(syscall.EINVAL)
	case errors.Is(err, ErrOutOfMemory):
		return -int(syscall.ENOMEM)
	case errors.Is(err, ErrAlreadyRegistered):
		return -int(syscall.EEXIST)
	case errors.Is(err, ErrUnsupported):
		return -int(syscall.ENOTSUP)
	case errors.Is(err, ErrConnectionFailed), errors.Is(err, ErrSubscribeFailed):
		return -int(syscall.EPERM)
	default:
		return -int(syscall.EIO)
	}
}
