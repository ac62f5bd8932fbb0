// Package extcon implements the external connection driver for the USB and
// earjack connectors.
package extcon

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/devnode/devnoti/pkg/hal"
	"github.com/devnode/devnoti/pkg/notify"
	"github.com/devnode/devnoti/pkg/powerinfo"
	"github.com/devnode/devnoti/pkg/sigbus"
	"github.com/devnode/devnoti/pkg/sysfs"
)

const (
	BusName    = "org.tizen.system.deviced"
	ObjectPath = "/Org/Tizen/System/DeviceD/ExtCon"
	Interface  = BusName + ".ExtCon"
	SignalName = "device_changed"
)

const (
	AttrEarjackOnline = "/sys/devices/platform/jack/earjack_online"
	AttrUSBOnline     = "/sys/devices/platform/jack/usb_online"
)

const DeviceID = "external_connection"

var Match = sigbus.Match{Path: ObjectPath, Interface: Interface, Member: SignalName}

var _ hal.Module[powerinfo.Connection] = &Module{}

type Module struct {
	Bus    sigbus.Bus
	Reader sysfs.Reader
}

func NewModule(bus sigbus.Bus, reader sysfs.Reader) *Module {
	return &Module{Bus: bus, Reader: reader}
}

func (m *Module) Info() hal.ModuleInfo {
	return hal.ModuleInfo{
		ID:            DeviceID,
		Name:          DeviceID,
		DeviceVersion: "0.1",
	}
}

func (m *Module) Open(info *hal.ModuleInfo) (hal.Driver[powerinfo.Connection], error) {
	if info == nil || m.Bus == nil || m.Reader == nil {
		return nil, hal.ErrInvalidArgument
	}
	return NewDriver(*info, m.Bus, m.Reader), nil
}

var _ hal.Driver[powerinfo.Connection] = &Driver{}

type Driver struct {
	info   hal.ModuleInfo
	reader sysfs.Reader
	reg    *notify.Registry[powerinfo.Connection]

	// mu orders RegisterChanged against Close so that no subscription
	// can be made after Close has unregistered.
	mu     sync.Mutex
	closed atomic.Bool
}

func NewDriver(info hal.ModuleInfo, bus sigbus.Bus, reader sysfs.Reader) *Driver {
	return &Driver{
		info:   info,
		reader: reader,
		reg:    notify.New(DeviceID, bus, Match, DecodeSignal),
	}
}

func (d *Driver) Info() hal.ModuleInfo {
	return d.info
}

func (d *Driver) RegisterChanged(cb hal.Callback[powerinfo.Connection], data any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed.Load() {
		return hal.ErrInvalidArgument
	}
	return d.reg.Register(cb, data)
}

func (d *Driver) UnregisterChanged() {
	d.reg.Unregister()
}

// GetCurrentState invokes cb once per connector whose attribute can be read.
// A connector that fails to read is logged and skipped.
func (d *Driver) GetCurrentState(cb hal.Callback[powerinfo.Connection], data any) error {
	if cb == nil || d.closed.Load() {
		return hal.ErrInvalidArgument
	}

	for _, dev := range Devices {
		v, err := d.reader.ReadInt(dev.Path)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"device": dev.Name,
				"path":   dev.Path,
			}).Errorf("failed to get value: %v", err)
			continue
		}

		cb(powerinfo.Connection{Type: dev.Type, State: strconv.Itoa(v)}, data)
	}

	return nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed.Swap(true) {
		return hal.ErrInvalidArgument
	}
	d.reg.Unregister()
	return nil
}
