package extcon

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devnode/devnoti/pkg/hal"
	"github.com/devnode/devnoti/pkg/powerinfo"
	"github.com/devnode/devnoti/pkg/sigbus"
	"github.com/devnode/devnoti/pkg/sigbus/sigbustest"
	"github.com/devnode/devnoti/pkg/sysfs"
)

func deviceChanged(name, state string) sigbus.Signal {
	return sigbus.Signal{
		Path:      ObjectPath,
		Interface: Interface,
		Name:      SignalName,
		Body:      []any{SignalName, int32(3), name, state},
	}
}

type collected struct {
	states []powerinfo.Connection
}

func (c *collected) cb(conn powerinfo.Connection, _ any) {
	c.states = append(c.states, conn)
}

func openDriver(t *testing.T, bus sigbus.Bus, reader sysfs.Reader) hal.Driver[powerinfo.Connection] {
	t.Helper()
	m := NewModule(bus, reader)
	info := m.Info()
	d, err := m.Open(&info)
	require.NoError(t, err)
	return d
}

func TestDecodeSignal(t *testing.T) {
	tests := []struct {
		name   string
		sig    sigbus.Signal
		kind   hal.DecodeKind
		expect powerinfo.Connection
	}{
		{name: "usb", sig: deviceChanged("usb", "1"), kind: hal.Decoded,
			expect: powerinfo.Connection{Type: powerinfo.ConnectorUSB, State: "1"}},
		{name: "earjack", sig: deviceChanged("earjack", "0"), kind: hal.Decoded,
			expect: powerinfo.Connection{Type: powerinfo.ConnectorHeadphone, State: "0"}},
		{name: "long state is truncated", sig: deviceChanged("usb", strings.Repeat("x", 40)), kind: hal.Decoded,
			expect: powerinfo.Connection{Type: powerinfo.ConnectorUSB, State: strings.Repeat("x", 31)}},
		{name: "truncation keeps whole runes", sig: deviceChanged("usb", strings.Repeat("é", 20)), kind: hal.Decoded,
			expect: powerinfo.Connection{Type: powerinfo.ConnectorUSB, State: strings.Repeat("é", 15)}},
		{name: "truncation at a rune boundary", sig: deviceChanged("usb", "x"+strings.Repeat("é", 20)), kind: hal.Decoded,
			expect: powerinfo.Connection{Type: powerinfo.ConnectorUSB, State: "x" + strings.Repeat("é", 15)}},
		{name: "unknown device", sig: deviceChanged("bluetooth", "1"), kind: hal.Ignored},
		{name: "device name prefix", sig: deviceChanged("us", "1"), kind: hal.Ignored},
		{name: "other signal", sig: sigbus.Signal{Name: "device_removed"}, kind: hal.Ignored},
		{name: "short body", sig: sigbus.Signal{Name: SignalName, Body: []any{SignalName}}, kind: hal.Malformed},
		{name: "bad sequence", sig: sigbus.Signal{Name: SignalName, Body: []any{SignalName, uint32(1), "usb", "1"}}, kind: hal.Malformed},
		{name: "bad name", sig: sigbus.Signal{Name: SignalName, Body: []any{SignalName, int32(1), 5, "1"}}, kind: hal.Malformed},
		{name: "bad state", sig: sigbus.Signal{Name: SignalName, Body: []any{SignalName, int32(1), "usb", 1}}, kind: hal.Malformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := DecodeSignal(tt.sig)
			require.Equal(t, tt.kind, res.Kind, "err: %v", res.Err)
			if tt.kind == hal.Decoded {
				require.Equal(t, tt.expect, res.State)
			}
		})
	}
}

func TestGetCurrentState(t *testing.T) {
	d := openDriver(t, sigbustest.New(), sysfs.Map{
		AttrUSBOnline:     "1\n",
		AttrEarjackOnline: "0\n",
	})

	c := &collected{}
	require.NoError(t, d.GetCurrentState(c.cb, nil))
	require.Equal(t, []powerinfo.Connection{
		{Type: powerinfo.ConnectorUSB, State: "1"},
		{Type: powerinfo.ConnectorHeadphone, State: "0"},
	}, c.states)
}

func TestGetCurrentStateLenientParse(t *testing.T) {
	d := openDriver(t, sigbustest.New(), sysfs.Map{
		AttrUSBOnline:     "1 (online)\n",
		AttrEarjackOnline: "garbage",
	})

	c := &collected{}
	require.NoError(t, d.GetCurrentState(c.cb, nil))
	require.Equal(t, []powerinfo.Connection{
		{Type: powerinfo.ConnectorUSB, State: "1"},
		{Type: powerinfo.ConnectorHeadphone, State: "0"},
	}, c.states)
}

func TestGetCurrentStatePartialFailure(t *testing.T) {
	d := openDriver(t, sigbustest.New(), sysfs.Map{
		AttrEarjackOnline: "1",
	})

	c := &collected{}
	require.NoError(t, d.GetCurrentState(c.cb, nil))
	require.Equal(t, []powerinfo.Connection{
		{Type: powerinfo.ConnectorHeadphone, State: "1"},
	}, c.states)
}

func TestGetCurrentStateNilCallback(t *testing.T) {
	d := openDriver(t, sigbustest.New(), sysfs.Map{})
	require.True(t, errors.Is(d.GetCurrentState(nil, nil), hal.ErrInvalidArgument))
}

func TestRegisterChanged(t *testing.T) {
	bus := sigbustest.New()
	d := openDriver(t, bus, sysfs.Map{})

	c := &collected{}
	require.NoError(t, d.RegisterChanged(c.cb, nil))
	require.Equal(t, []sigbus.Match{Match}, bus.Matches())

	bus.Emit(deviceChanged("earjack", "1"))
	bus.Emit(deviceChanged("bluetooth", "1"))
	require.Equal(t, []powerinfo.Connection{{Type: powerinfo.ConnectorHeadphone, State: "1"}}, c.states)

	second := &collected{}
	require.True(t, errors.Is(d.RegisterChanged(second.cb, nil), hal.ErrAlreadyRegistered))

	bus.Emit(deviceChanged("usb", "0"))
	require.Len(t, c.states, 2)
	require.Empty(t, second.states)
}

func TestUnknownDeviceNoCallback(t *testing.T) {
	bus := sigbustest.New()
	d := openDriver(t, bus, sysfs.Map{})

	c := &collected{}
	require.NoError(t, d.RegisterChanged(c.cb, nil))
	bus.Emit(deviceChanged("bluetooth", "1"))
	require.Empty(t, c.states)
}

func TestUnregisterAndClose(t *testing.T) {
	bus := sigbustest.New()
	d := openDriver(t, bus, sysfs.Map{AttrUSBOnline: "1", AttrEarjackOnline: "1"})

	d.UnregisterChanged()
	d.UnregisterChanged()

	c := &collected{}
	require.NoError(t, d.RegisterChanged(c.cb, nil))
	d.UnregisterChanged()
	d.UnregisterChanged()
	bus.Emit(deviceChanged("usb", "1"))
	require.Empty(t, c.states)

	require.NoError(t, d.RegisterChanged(c.cb, nil))
	require.NoError(t, d.Close())
	require.Zero(t, bus.Active())
	require.True(t, errors.Is(d.Close(), hal.ErrInvalidArgument))
	require.True(t, errors.Is(d.GetCurrentState(c.cb, nil), hal.ErrInvalidArgument))
}

func TestCloseRacingRegisterLeavesNoSubscription(t *testing.T) {
	bus := sigbustest.New()
	for i := 0; i < 200; i++ {
		d := openDriver(t, bus, sysfs.Map{})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = d.RegisterChanged(func(powerinfo.Connection, any) {}, nil)
		}()
		go func() {
			defer wg.Done()
			_ = d.Close()
		}()
		wg.Wait()

		require.Zero(t, bus.Active(), "iteration %d", i)
	}
}
