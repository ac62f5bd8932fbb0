package client

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devnode/devnoti/pkg/powerinfo"
)

// serveUnix starts h on a unix socket and returns its path.
func serveUnix(t *testing.T, h http.Handler) string {
	t.Helper()

	// Keep the path short, sun_path is limited to about 100 bytes.
	dir, err := os.MkdirTemp("", "devnoti")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	sock := filepath.Join(dir, "d.sock")
	l, err := net.Listen("unix", sock)
	require.NoError(t, err)

	srv := httptest.NewUnstartedServer(h)
	srv.Listener = l
	srv.Start()
	t.Cleanup(srv.Close)
	return sock
}

func TestDaemonNotRunning(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "missing.sock"))
	_, err := c.GetVersion()
	require.True(t, errors.Is(err, ErrDaemonNotRunning), err)
}

func TestGetBattery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/battery", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		_, _ = fmt.Fprint(w, `{"deviceId":"battery","status":"Charging","capacity":80,"online":2,"present":true}`)
	})
	c := NewClient(serveUnix(t, mux))

	b, err := c.GetBattery()
	require.NoError(t, err)
	require.Equal(t, 80, b.Capacity)
	require.Equal(t, powerinfo.Charging, b.Status)
	require.True(t, b.Present)
}

func TestNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/connections", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprint(w, `"driver disabled"`)
	})
	c := NewClient(serveUnix(t, mux))

	_, err := c.GetConnections()
	require.True(t, errors.Is(err, ErrNotFound), err)
}

func TestServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/resync", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := NewClient(serveUnix(t, mux))

	_, err := c.Resync()
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNotFound))
}

func TestGetEventsSince(t *testing.T) {
	since := time.Date(2024, 5, 1, 10, 0, 0, 500, time.UTC)

	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		got, err := time.Parse(time.RFC3339Nano, r.URL.Query().Get("since"))
		require.NoError(t, err)
		require.True(t, got.Equal(since))
		_, _ = fmt.Fprint(w, `[{"name":"connection.changed","origin":"signal","time":"2024-05-01T10:00:01Z","data":{"type":"USB","state":"1","flags":0}}]`)
	})
	c := NewClient(serveUnix(t, mux))

	evs, err := c.GetEvents(since)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	require.Equal(t, "connection.changed", evs[0].Name)
}

func TestGetVersion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `"v1.2.3"`)
	})
	c := NewClient(serveUnix(t, mux))

	v, err := c.GetVersion()
	require.NoError(t, err)
	require.Equal(t, "v1.2.3", v)
}

func TestSkipResync(t *testing.T) {
	next := time.Date(2024, 5, 1, 10, 10, 0, 0, time.UTC)

	mux := http.NewServeMux()
	mux.HandleFunc("/resync/skip", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		_, _ = fmt.Fprintf(w, `{"schedule":"@every 5m","nextRun":%q,"running":true}`, next.Format(time.RFC3339Nano))
	})
	mux.HandleFunc("/resync", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		_, _ = fmt.Fprint(w, `{"schedule":"","running":true}`)
	})
	c := NewClient(serveUnix(t, mux))

	st, err := c.SkipResync()
	require.NoError(t, err)
	require.True(t, st.Running)
	require.True(t, st.NextRun.Equal(next))

	st, err = c.GetResyncStatus()
	require.NoError(t, err)
	require.Nil(t, st.NextRun)
}
