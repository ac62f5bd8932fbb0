package notify

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devnode/devnoti/pkg/hal"
	"github.com/devnode/devnoti/pkg/sigbus"
	"github.com/devnode/devnoti/pkg/sigbus/sigbustest"
)

var testMatch = sigbus.Match{Path: "/test", Interface: "org.test", Member: "changed"}

// decodeString passes the first body element through, ignores other names
// and rejects empty bodies.
func decodeString(sig sigbus.Signal) hal.DecodeResult[string] {
	if sig.Name != testMatch.Member {
		return hal.Ignore[string]()
	}
	if len(sig.Body) == 0 {
		return hal.Malform[string]("empty body")
	}
	s, _ := sig.Body[0].(string)
	return hal.Ok(s)
}

func emit(bus *sigbustest.Fake, name string, body ...any) {
	bus.Emit(sigbus.Signal{Path: testMatch.Path, Interface: testMatch.Interface, Name: name, Body: body})
}

type recorder struct {
	mu     sync.Mutex
	states []string
	datas  []any
}

func (r *recorder) cb(state string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	r.datas = append(r.datas, data)
}

func TestRegisterDispatch(t *testing.T) {
	bus := sigbustest.New()
	reg := New("test", bus, testMatch, decodeString)
	rec := &recorder{}

	require.NoError(t, reg.Register(rec.cb, "ctx"))
	require.True(t, reg.Active())
	require.Equal(t, []sigbus.Match{testMatch}, bus.Matches())

	emit(bus, "changed", "a")
	require.Equal(t, []string{"a"}, rec.states)
	require.Equal(t, []any{"ctx"}, rec.datas)
}

func TestRegisterTwice(t *testing.T) {
	bus := sigbustest.New()
	reg := New("test", bus, testMatch, decodeString)
	first, second := &recorder{}, &recorder{}

	require.NoError(t, reg.Register(first.cb, nil))
	err := reg.Register(second.cb, nil)
	require.True(t, errors.Is(err, hal.ErrAlreadyRegistered))
	require.Equal(t, 1, bus.Active())

	// The first registration stays in place.
	emit(bus, "changed", "b")
	require.Equal(t, []string{"b"}, first.states)
	require.Empty(t, second.states)
}

func TestRegisterNilCallback(t *testing.T) {
	reg := New("test", sigbustest.New(), testMatch, decodeString)
	require.True(t, errors.Is(reg.Register(nil, nil), hal.ErrInvalidArgument))
	require.False(t, reg.Active())
}

func TestRegisterSubscribeFailure(t *testing.T) {
	bus := sigbustest.New()
	bus.SubscribeErr = hal.ErrConnectionFailed
	reg := New("test", bus, testMatch, decodeString)

	err := reg.Register((&recorder{}).cb, nil)
	require.True(t, errors.Is(err, hal.ErrConnectionFailed))
	require.False(t, reg.Active())

	// Still Idle, so a later attempt may succeed.
	bus.SubscribeErr = nil
	require.NoError(t, reg.Register((&recorder{}).cb, nil))
}

func TestUnregisterIdempotent(t *testing.T) {
	bus := sigbustest.New()
	reg := New("test", bus, testMatch, decodeString)

	// Never registered.
	reg.Unregister()
	reg.Unregister()
	require.Empty(t, bus.Unsubscribed())

	rec := &recorder{}
	require.NoError(t, reg.Register(rec.cb, nil))
	reg.Unregister()
	reg.Unregister()
	require.False(t, reg.Active())
	require.Len(t, bus.Unsubscribed(), 1)
	require.Zero(t, bus.Active())

	// Registering again after unregistering works.
	require.NoError(t, reg.Register(rec.cb, nil))
}

func TestIgnoredAndMalformedSignals(t *testing.T) {
	bus := sigbustest.New()
	reg := New("test", bus, testMatch, decodeString)
	rec := &recorder{}
	require.NoError(t, reg.Register(rec.cb, nil))

	emit(bus, "other")
	emit(bus, "changed")
	require.Empty(t, rec.states)
}

func TestDispatchWhileIdle(t *testing.T) {
	reg := New("test", sigbustest.New(), testMatch, decodeString)
	require.False(t, reg.Dispatch("late"))

	// A handler captured before Unregister must not reach the old callback.
	rec := &recorder{}
	require.NoError(t, reg.Register(rec.cb, nil))
	reg.Unregister()
	reg.handle(sigbus.Signal{Name: "changed", Body: []any{"late"}})
	require.Empty(t, rec.states)
}

func TestCallbackMayUnregister(t *testing.T) {
	bus := sigbustest.New()
	reg := New("test", bus, testMatch, decodeString)

	calls := 0
	require.NoError(t, reg.Register(func(string, any) {
		calls++
		reg.Unregister()
	}, nil))

	emit(bus, "changed", "x")
	emit(bus, "changed", "y")
	require.Equal(t, 1, calls)
	require.False(t, reg.Active())
}
