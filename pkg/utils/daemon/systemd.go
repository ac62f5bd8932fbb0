package daemon

import (
	"context"
	"fmt"
	"time"

	sddbus "github.com/coreos/go-systemd/v22/dbus"
)

// jobTimeout bounds how long a start or stop job may take.
const jobTimeout = 30 * time.Second

// unitManager is the part of the systemd D-Bus API used for installation.
type unitManager interface {
	ReloadContext(ctx context.Context) error
	EnableUnitFilesContext(ctx context.Context, files []string, runtime bool, force bool) (bool, []sddbus.EnableUnitFileChange, error)
	DisableUnitFilesContext(ctx context.Context, files []string, runtime bool) ([]sddbus.DisableUnitFileChange, error)
	StartUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	StopUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	Close()
}

var connectSystemd = func(ctx context.Context) (unitManager, error) {
	conn, err := sddbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to systemd: %w", err)
	}
	return conn, nil
}

type jobFunc func(ctx context.Context, name string, mode string, ch chan<- string) (int, error)

// runJob queues a start or stop job for unit and waits for its result.
func runJob(ctx context.Context, job jobFunc, verb, unit string) error {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	ch := make(chan string, 1)
	if _, err := job(ctx, unit, "replace", ch); err != nil {
		return fmt.Errorf("failed to %s %s: %w", verb, unit, err)
	}

	select {
	case result := <-ch:
		if result != "done" {
			return fmt.Errorf("failed to %s %s: job %s", verb, unit, result)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to %s %s: %w", verb, unit, ctx.Err())
	}
}
