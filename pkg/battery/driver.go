// Package battery implements the battery notification driver. Change
// notifications come from the deviced power_supply signal; the current state
// is read from the power_supply attributes.
package battery

import (
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
	ObjectPath = "/Org/Tizen/System/DeviceD/SysNoti"
	Interface  = BusName + ".SysNoti"
	SignalName = "power_supply"
)

const (
	AttrCapacity      = "/sys/class/power_supply/battery/capacity"
	AttrChargerOnline = "/sys/devices/platform/jack/charger_online"
	AttrChargeFull    = "/sys/class/power_supply/battery/charge_full"
	AttrChargeNow     = "/sys/class/power_supply/battery/charge_now"
)

var Match = sigbus.Match{Path: ObjectPath, Interface: Interface, Member: SignalName}

var _ hal.Module[powerinfo.Battery] = &Module{}

// Module opens battery drivers sharing one bus and attribute reader.
type Module struct {
	Bus    sigbus.Bus
	Reader sysfs.Reader
}

func NewModule(bus sigbus.Bus, reader sysfs.Reader) *Module {
	return &Module{Bus: bus, Reader: reader}
}

func (m *Module) Info() hal.ModuleInfo {
	return hal.ModuleInfo{
		ID:            powerinfo.BatteryDeviceID,
		Name:          "battery",
		DeviceVersion: "0.1",
	}
}

func (m *Module) Open(info *hal.ModuleInfo) (hal.Driver[powerinfo.Battery], error) {
	if info == nil || m.Bus == nil || m.Reader == nil {
		return nil, hal.ErrInvalidArgument
	}
	return NewDriver(*info, m.Bus, m.Reader), nil
}

var _ hal.Driver[powerinfo.Battery] = &Driver{}

// Driver is an open battery handle. Each handle owns its own registry.
type Driver struct {
	info   hal.ModuleInfo
	reader sysfs.Reader
	reg    *notify.Registry[powerinfo.Battery]

	// mu orders RegisterChanged against Close so that no subscription
	// can be made after Close has unregistered.
	mu     sync.Mutex
	closed atomic.Bool
}

func NewDriver(info hal.ModuleInfo, bus sigbus.Bus, reader sysfs.Reader) *Driver {
	return &Driver{
		info:   info,
		reader: reader,
		reg:    notify.New("battery", bus, Match, DecodeSignal),
	}
}

func (d *Driver) Info() hal.ModuleInfo {
	return d.info
}

func (d *Driver) RegisterChanged(cb hal.Callback[powerinfo.Battery], data any) error {
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

func (d *Driver) GetCurrentState(cb hal.Callback[powerinfo.Battery], data any) error {
	if cb == nil || d.closed.Load() {
		return hal.ErrInvalidArgument
	}

	var values [4]int
	for i, path := range []string{AttrCapacity, AttrChargerOnline, AttrChargeFull, AttrChargeNow} {
		v, err := d.reader.ReadInt(path)
		if err != nil {
			logrus.WithField("path", path).Errorf("failed to get value: %v", err)
			return err
		}
		values[i] = v
	}

	cb(DecodeAttributes(values[0], values[1], values[2], values[3]), data)
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
