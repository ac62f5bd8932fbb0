package daemon

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/devnode/devnoti/pkg/battery"
	"github.com/devnode/devnoti/pkg/events"
	"github.com/devnode/devnoti/pkg/extcon"
	"github.com/devnode/devnoti/pkg/hal"
	"github.com/devnode/devnoti/pkg/powerinfo"
	"github.com/devnode/devnoti/pkg/sigbus"
	"github.com/devnode/devnoti/pkg/sysfs"
)

// openDriver opens a handle from m and registers cb for change
// notifications. The origin is passed as callback data so that cb can tell
// signals from polls.
func openDriver[T any](m hal.Module[T], cb hal.Callback[T]) (hal.Driver[T], error) {
	info := m.Info()
	d, err := m.Open(&info)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open %s driver", info.Name)
	}

	if err := d.RegisterChanged(cb, events.OriginSignal); err != nil {
		_ = d.Close()
		return nil, pkgerrors.Wrapf(err, "failed to register %s change callback", info.Name)
	}

	logrus.WithFields(logrus.Fields{
		"id":      info.ID,
		"version": info.DeviceVersion,
	}).Infof("%s driver opened", info.Name)
	return d, nil
}

func openDrivers(bus sigbus.Bus, reader sysfs.Reader) error {
	if conf.EnableBattery() {
		d, err := openDriver[powerinfo.Battery](battery.NewModule(bus, reader), onBatteryChanged)
		if err != nil {
			return err
		}
		batteryDrv = d
	}

	if conf.EnableExtcon() {
		d, err := openDriver[powerinfo.Connection](extcon.NewModule(bus, reader), onConnectionChanged)
		if err != nil {
			closeDrivers()
			return err
		}
		extconDrv = d
	}

	return nil
}

func closeDrivers() {
	if batteryDrv != nil {
		if err := batteryDrv.Close(); err != nil {
			logrus.Errorf("failed to close battery driver: %v", err)
		}
		batteryDrv = nil
	}
	if extconDrv != nil {
		if err := extconDrv.Close(); err != nil {
			logrus.Errorf("failed to close external connection driver: %v", err)
		}
		extconDrv = nil
	}
}

// pollAll reads the current state of every open driver into the cache.
// Differences from the cached state are recorded as poll events.
func pollAll() error {
	var errs []error
	if batteryDrv != nil {
		if err := batteryDrv.GetCurrentState(onBatteryChanged, events.OriginPoll); err != nil {
			errs = append(errs, pkgerrors.Wrap(err, "battery"))
		}
	}
	if extconDrv != nil {
		if err := extconDrv.GetCurrentState(onConnectionChanged, events.OriginPoll); err != nil {
			errs = append(errs, pkgerrors.Wrap(err, "external connection"))
		}
	}
	return errors.Join(errs...)
}

func onBatteryChanged(b powerinfo.Battery, data any) {
	origin, _ := data.(events.Origin)
	changed := cache.setBattery(b)
	if origin == events.OriginPoll && !changed {
		return
	}

	logrus.WithFields(logrus.Fields{
		"origin":      origin,
		"capacity":    b.Capacity,
		"status":      b.StatusText,
		"health":      b.Health,
		"powerSource": b.PowerSource,
	}).Info("battery state changed")

	record(events.BatteryChanged, origin, b)
}

func onConnectionChanged(c powerinfo.Connection, data any) {
	origin, _ := data.(events.Origin)
	changed := cache.setConnection(c)
	if origin == events.OriginPoll && !changed {
		return
	}

	logrus.WithFields(logrus.Fields{
		"origin": origin,
		"type":   c.Type,
		"state":  c.State,
	}).Info("connection state changed")

	record(events.ConnectionChanged, origin, c)
}

func record(name string, origin events.Origin, payload any) {
	e, err := events.New(name, origin, payload)
	if err != nil {
		logrus.Errorf("failed to encode %s event: %v", name, err)
		return
	}
	recorder.Add(e)
}
