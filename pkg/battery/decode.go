package battery

import (
	"strings"

	"github.com/devnode/devnoti/pkg/hal"
	"github.com/devnode/devnoti/pkg/powerinfo"
	"github.com/devnode/devnoti/pkg/sigbus"
)

// fixedCurrent is reported for current_now and current_average. The
// hardware does not expose a measured current, only its direction.
const fixedCurrent = 1000 // uA

// signalFields is the body of a power_supply signal:
// (signalName, sequence, capacity, status, health, online, present).
const signalFields = 7

// DecodeSignal decodes a power_supply bus signal. Signals with another name
// are ignored.
func DecodeSignal(sig sigbus.Signal) hal.DecodeResult[powerinfo.Battery] {
	if sig.Name != SignalName {
		return hal.Ignore[powerinfo.Battery]()
	}
	if len(sig.Body) != signalFields {
		return hal.Malform[powerinfo.Battery]("want %d fields, got %d", signalFields, len(sig.Body))
	}
	if _, ok := sig.Body[1].(int32); !ok {
		return hal.Malform[powerinfo.Battery]("field 1: want int32, got %T", sig.Body[1])
	}

	var fields [5]string
	for i := range fields {
		s, ok := sig.Body[i+2].(string)
		if !ok {
			return hal.Malform[powerinfo.Battery]("field %d: want string, got %T", i+2, sig.Body[i+2])
		}
		fields[i] = s
	}

	return hal.Ok(fromSignal(fields[0], fields[1], fields[2], fields[3], fields[4]))
}

func fromSignal(capacity, status, health, online, present string) powerinfo.Battery {
	b := powerinfo.Battery{
		DeviceID:   powerinfo.BatteryDeviceID,
		Status:     powerinfo.ParseChargeStatus(status),
		StatusText: status,
		Health:     health,
		Online:     hal.Atoi(online),
		Present:    hal.Atoi(present) != 0,
		Capacity:   clampCapacity(hal.Atoi(capacity)),
	}
	// Matches "Charging" and every prefix of it, the empty string included.
	setCurrent(&b, strings.HasPrefix("Charging", status))
	b.PowerSource = powerinfo.PowerSourceFor(b.Online)
	return b
}

// DecodeAttributes derives the battery state from raw attribute values.
// The online code is chargerOnline+1 so that 0 stays reserved for "no signal
// seen yet", as on the bus.
func DecodeAttributes(capacity, chargerOnline, chargeFull, chargeNow int) powerinfo.Battery {
	status := powerinfo.Discharging
	switch {
	case chargeFull == 1:
		status = powerinfo.Full
	case chargeNow == 1:
		status = powerinfo.Charging
	}

	b := powerinfo.Battery{
		DeviceID:   powerinfo.BatteryDeviceID,
		Status:     status,
		StatusText: status.String(),
		Health:     "Good",
		Online:     chargerOnline + 1,
		Present:    true,
		Capacity:   clampCapacity(capacity),
	}
	setCurrent(&b, chargeNow == 1)
	b.PowerSource = powerinfo.PowerSourceFor(b.Online)
	return b
}

func setCurrent(b *powerinfo.Battery, charging bool) {
	if charging {
		b.CurrentNow = fixedCurrent
		b.CurrentAverage = fixedCurrent
		return
	}
	b.CurrentNow = -fixedCurrent
	b.CurrentAverage = -fixedCurrent
}

func clampCapacity(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
