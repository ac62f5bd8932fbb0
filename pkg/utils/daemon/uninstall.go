package daemon

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

func Uninstall() error {
	ctx := context.Background()
	sd, err := connectSystemd(ctx)
	if err != nil {
		return err
	}
	defer sd.Close()

	logrus.Infof("stopping devnoti")

	if err := runJob(ctx, sd.StopUnitContext, "stop", unitName); err != nil {
		return fmt.Errorf("%w. Are you root?", err)
	}

	if _, err := sd.DisableUnitFilesContext(ctx, []string{unitName}, false); err != nil {
		return fmt.Errorf("failed to disable %s: %w", unitName, err)
	}

	logrus.Infof("removing systemd unit")

	unitPath := UnitPath()

	// if the file doesn't exist, there is nothing left to reload
	_, err = os.Stat(unitPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", unitPath, err)
	}

	err = os.Remove(unitPath)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w. Are you root?", unitPath, err)
	}

	if err := sd.ReloadContext(ctx); err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}
	return nil
}
