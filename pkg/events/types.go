package events

import (
	"encoding/json"
	"time"
)

// Event name constants
const (
	BatteryChanged    = "battery.changed"
	ConnectionChanged = "connection.changed"
)

// Origin tells where an event's state came from.
type Origin string

const (
	// OriginSignal marks state delivered by a bus signal.
	OriginSignal Origin = "signal"
	// OriginPoll marks state read from hardware attributes.
	OriginPoll Origin = "poll"
)

// Event is a recorded device state change.
type Event struct {
	Name   string          `json:"name"`
	Origin Origin          `json:"origin"`
	Time   time.Time       `json:"time"`
	Data   json.RawMessage `json:"data"` // Raw JSON payload
}

// New encodes payload into an Event stamped with the current time.
func New(name string, origin Origin, payload any) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	// Round to strip the monotonic clock reading.
	return Event{Name: name, Origin: origin, Time: time.Now().Round(0), Data: b}, nil
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[powerinfo.Battery](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.Capacity, payload.Status)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
