package daemon

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	unitName = "devnoti.service"
	unitDir  = "/etc/systemd/system"

	//go:embed devnoti.service
	unitTemplate string
)

// UnitPath is where the systemd unit is installed.
func UnitPath() string {
	return filepath.Join(unitDir, unitName)
}

// renderUnit fills the unit template with the binary and the paths it is
// started with.
func renderUnit(exePath, configPath, socketPath string) string {
	return strings.NewReplacer(
		"/path/to/devnoti", exePath,
		"/path/to/config", configPath,
		"/path/to/socket", socketPath,
	).Replace(unitTemplate)
}

// Install writes the systemd unit for the current executable, then enables
// and starts it through the systemd D-Bus API.
func Install(configPath, socketPath string) error {
	// Get the path to the current executable
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get the path to the current executable: %w", err)
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return fmt.Errorf("failed to get the absolute path to the current executable: %w", err)
	}

	err = os.Chmod(exePath, 0755)
	if err != nil {
		return fmt.Errorf("failed to chmod the current executable to 0755: %w", err)
	}

	logrus.Infof("current executable path: %s", exePath)

	unit := renderUnit(exePath, configPath, socketPath)
	unitPath := UnitPath()

	logrus.Infof("writing systemd unit to %s", unitDir)

	err = os.MkdirAll(unitDir, 0755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", unitDir, err)
	}

	// warn if the file already exists
	_, err = os.Stat(unitPath)
	if err == nil {
		logrus.Warnf("%s already exists, overwriting", unitPath)
	}

	err = os.WriteFile(unitPath, []byte(unit), 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", unitPath, err)
	}

	ctx := context.Background()
	sd, err := connectSystemd(ctx)
	if err != nil {
		return err
	}
	defer sd.Close()

	if err := sd.ReloadContext(ctx); err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}

	if _, _, err := sd.EnableUnitFilesContext(ctx, []string{unitName}, false, true); err != nil {
		return fmt.Errorf("failed to enable %s: %w", unitName, err)
	}

	logrus.Infof("starting devnoti")

	return runJob(ctx, sd.StartUnitContext, "start", unitName)
}
