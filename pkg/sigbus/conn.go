package sigbus

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/devnode/devnoti/pkg/hal"
)

// BusType selects which D-Bus daemon to connect to.
type BusType string

const (
	SystemBus  BusType = "system"
	SessionBus BusType = "session"
)

var _ Bus = &Conn{}

type subscription struct {
	match   Match
	handler Handler
}

// Conn is a Bus backed by a D-Bus connection. The connection is opened on the
// first Subscribe and kept until Close. All handlers run on a single dispatch
// goroutine owned by the Conn.
type Conn struct {
	busType BusType

	mu     sync.Mutex
	conn   *dbus.Conn
	sigCh  chan *dbus.Signal
	done   chan struct{}
	subs   map[SubscriptionID]subscription
	nextID SubscriptionID
}

// New returns an unconnected Conn for the given bus.
func New(busType BusType) *Conn {
	return &Conn{
		busType: busType,
		subs:    make(map[SubscriptionID]subscription),
	}
}

func (c *Conn) dial() (*dbus.Conn, error) {
	opts := []dbus.ConnOption{dbus.WithSignalHandler(dbus.NewSequentialSignalHandler())}
	switch c.busType {
	case SessionBus:
		return dbus.ConnectSessionBus(opts...)
	case SystemBus, "":
		return dbus.ConnectSystemBus(opts...)
	default:
		return nil, fmt.Errorf("unknown bus type %q", c.busType)
	}
}

// connect must be called with c.mu held.
func (c *Conn) connect() error {
	if c.conn != nil {
		return nil
	}

	conn, err := c.dial()
	if err != nil {
		return fmt.Errorf("%w: %s bus: %w", hal.ErrConnectionFailed, c.busType, err)
	}

	c.conn = conn
	c.sigCh = make(chan *dbus.Signal, 16)
	c.done = make(chan struct{})
	conn.Signal(c.sigCh)

	go c.dispatch(c.sigCh, c.done)

	logrus.WithField("bus", c.busType).Debug("connected to signal bus")
	return nil
}

func matchOptions(m Match) []dbus.MatchOption {
	return []dbus.MatchOption{
		dbus.WithMatchObjectPath(dbus.ObjectPath(m.Path)),
		dbus.WithMatchInterface(m.Interface),
		dbus.WithMatchMember(m.Member),
	}
}

func (c *Conn) Subscribe(m Match, h Handler) (SubscriptionID, error) {
	if h == nil {
		return 0, hal.ErrInvalidArgument
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connect(); err != nil {
		return 0, err
	}

	if err := c.conn.AddMatchSignal(matchOptions(m)...); err != nil {
		return 0, fmt.Errorf("%w: %s %s.%s: %w", hal.ErrSubscribeFailed, m.Path, m.Interface, m.Member, err)
	}

	c.nextID++
	id := c.nextID
	c.subs[id] = subscription{match: m, handler: h}

	logrus.WithFields(logrus.Fields{
		"id":        id,
		"path":      m.Path,
		"interface": m.Interface,
		"signal":    m.Member,
	}).Debug("subscribed to signal")

	return id, nil
}

func (c *Conn) Unsubscribe(id SubscriptionID) {
	if id == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sub, ok := c.subs[id]
	if !ok {
		return
	}
	delete(c.subs, id)

	if c.conn != nil {
		if err := c.conn.RemoveMatchSignal(matchOptions(sub.match)...); err != nil {
			logrus.Warnf("failed to remove match rule for %s.%s: %v", sub.match.Interface, sub.match.Member, err)
		}
	}

	logrus.WithField("id", id).Debug("unsubscribed from signal")
}

// Close drops every subscription, stops the dispatch goroutine and closes
// the bus connection.
func (c *Conn) Close() error {
	c.mu.Lock()
	conn, ch, done := c.conn, c.sigCh, c.done
	c.conn, c.sigCh, c.done = nil, nil, nil
	c.subs = make(map[SubscriptionID]subscription)
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	conn.RemoveSignal(ch)
	close(done)
	return conn.Close()
}

func (c *Conn) dispatch(ch <-chan *dbus.Signal, done <-chan struct{}) {
	for {
		select {
		case sig, ok := <-ch:
			if !ok {
				return
			}
			c.route(toSignal(sig))
		case <-done:
			return
		}
	}
}

func toSignal(sig *dbus.Signal) Signal {
	iface, member := splitName(sig.Name)
	return Signal{
		Sender:    sig.Sender,
		Path:      string(sig.Path),
		Interface: iface,
		Name:      member,
		Body:      sig.Body,
	}
}

// route hands sig to every handler whose match selects it. Handlers are
// called without holding the lock so they may unsubscribe.
func (c *Conn) route(sig Signal) {
	c.mu.Lock()
	var handlers []Handler
	for _, sub := range c.subs {
		if sub.match.Matches(sig) {
			handlers = append(handlers, sub.handler)
		}
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(sig)
	}
}
