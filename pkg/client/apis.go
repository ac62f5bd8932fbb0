package client

import (
	"encoding/json"
	"net/url"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/devnode/devnoti/pkg/config"
	"github.com/devnode/devnoti/pkg/events"
	"github.com/devnode/devnoti/pkg/powerinfo"
)

// getJSON issues a GET and decodes the body into a T.
func getJSON[T any](c *Client, path, what string) (*T, error) {
	ret, err := c.Get(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get %s", what)
	}

	var v T
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal %s", what)
	}
	return &v, nil
}

func (c *Client) GetBattery() (*powerinfo.Battery, error) {
	return getJSON[powerinfo.Battery](c, "/battery", "battery state")
}

func (c *Client) GetBatteryDetails() (*powerinfo.BatteryDetails, error) {
	return getJSON[powerinfo.BatteryDetails](c, "/battery-details", "battery details")
}

func (c *Client) GetConnections() ([]powerinfo.Connection, error) {
	conns, err := getJSON[[]powerinfo.Connection](c, "/connections", "connections")
	if err != nil {
		return nil, err
	}
	return *conns, nil
}

func (c *Client) GetState() (*powerinfo.Snapshot, error) {
	return getJSON[powerinfo.Snapshot](c, "/state", "state")
}

// GetEvents returns the recorded events. A zero since returns all of them.
func (c *Client) GetEvents(since time.Time) ([]events.Event, error) {
	path := "/events"
	if !since.IsZero() {
		path += "?since=" + url.QueryEscape(since.Format(time.RFC3339Nano))
	}

	evs, err := getJSON[[]events.Event](c, path, "events")
	if err != nil {
		return nil, err
	}
	return *evs, nil
}

// Resync makes the daemon re-read every device and returns the new state.
func (c *Client) Resync() (*powerinfo.Snapshot, error) {
	ret, err := c.Post("/resync", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to resync")
	}

	var snap powerinfo.Snapshot
	if err := json.Unmarshal([]byte(ret), &snap); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal state")
	}
	return &snap, nil
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	return getJSON[config.RawFileConfig](c, "/config", "config")
}

func (c *Client) GetVersion() (string, error) {
	v, err := getJSON[string](c, "/version", "version")
	if err != nil {
		return "", err
	}
	return *v, nil
}

func (c *Client) GetResyncStatus() (*powerinfo.ResyncStatus, error) {
	return getJSON[powerinfo.ResyncStatus](c, "/resync", "resync status")
}

// SkipResync skips the next scheduled resync and returns the new schedule
// status. It fails when no schedule is active.
func (c *Client) SkipResync() (*powerinfo.ResyncStatus, error) {
	ret, err := c.Post("/resync/skip", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to skip next resync")
	}

	var st powerinfo.ResyncStatus
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal resync status")
	}
	return &st, nil
}
