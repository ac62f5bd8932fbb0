package extcon

import (
	"unicode/utf8"

	"github.com/devnode/devnoti/pkg/hal"
	"github.com/devnode/devnoti/pkg/powerinfo"
	"github.com/devnode/devnoti/pkg/sigbus"
)

// maxStateLen bounds the state text taken from a signal.
const maxStateLen = 31

// signalFields is the body of a device_changed signal:
// (signalName, sequence, deviceName, state).
const signalFields = 4

// Device is a known external connector.
type Device struct {
	Name string
	Type powerinfo.ConnectorType
	Path string
}

// Devices lists the connectors reported by this driver, in poll order.
var Devices = []Device{
	{Name: "usb", Type: powerinfo.ConnectorUSB, Path: AttrUSBOnline},
	{Name: "earjack", Type: powerinfo.ConnectorHeadphone, Path: AttrEarjackOnline},
}

// Lookup returns the known device with the given name.
func Lookup(name string) (Device, bool) {
	for _, d := range Devices {
		if d.Name == name {
			return d, true
		}
	}
	return Device{}, false
}

// DecodeSignal decodes a device_changed bus signal. Signals with another
// name and unknown devices are ignored.
func DecodeSignal(sig sigbus.Signal) hal.DecodeResult[powerinfo.Connection] {
	if sig.Name != SignalName {
		return hal.Ignore[powerinfo.Connection]()
	}
	if len(sig.Body) != signalFields {
		return hal.Malform[powerinfo.Connection]("want %d fields, got %d", signalFields, len(sig.Body))
	}
	if _, ok := sig.Body[1].(int32); !ok {
		return hal.Malform[powerinfo.Connection]("field 1: want int32, got %T", sig.Body[1])
	}
	name, ok := sig.Body[2].(string)
	if !ok {
		return hal.Malform[powerinfo.Connection]("field 2: want string, got %T", sig.Body[2])
	}
	state, ok := sig.Body[3].(string)
	if !ok {
		return hal.Malform[powerinfo.Connection]("field 3: want string, got %T", sig.Body[3])
	}

	dev, ok := Lookup(name)
	if !ok {
		return hal.Ignore[powerinfo.Connection]()
	}
	return hal.Ok(powerinfo.Connection{Type: dev.Type, State: truncate(state, maxStateLen)})
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
