package daemon

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/distatus/battery"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devnode/devnoti/pkg/config"
	"github.com/devnode/devnoti/pkg/events"
	"github.com/devnode/devnoti/pkg/hal"
	"github.com/devnode/devnoti/pkg/powerinfo"
	"github.com/devnode/devnoti/pkg/version"
)

// abortWithDriverError writes err with a status derived from its kind. The
// body also carries the errno value a module loader would have returned.
func abortWithDriverError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, hal.ErrUnsupported):
		status = http.StatusNotFound
	case errors.Is(err, hal.ErrInvalidArgument):
		status = http.StatusBadRequest
	}
	code := hal.Code(err)
	logrus.WithFields(logrus.Fields{
		"status": status,
		"code":   code,
	}).Debugf("driver call failed: %v", err)
	c.IndentedJSON(status, powerinfo.DriverError{Error: err.Error(), Code: code})
	_ = c.AbortWithError(status, err)
}

func getBattery(c *gin.Context) {
	if batteryDrv == nil {
		abortWithDriverError(c, fmt.Errorf("battery driver: %w", hal.ErrUnsupported))
		return
	}

	var bat powerinfo.Battery
	err := batteryDrv.GetCurrentState(func(b powerinfo.Battery, _ any) {
		bat = b
	}, nil)
	if err != nil {
		logrus.Errorf("getBattery failed: %v", err)
		abortWithDriverError(c, err)
		return
	}

	c.IndentedJSON(http.StatusOK, bat)
}

func getConnections(c *gin.Context) {
	if extconDrv == nil {
		abortWithDriverError(c, fmt.Errorf("external connection driver: %w", hal.ErrUnsupported))
		return
	}

	conns := make([]powerinfo.Connection, 0, 2)
	err := extconDrv.GetCurrentState(func(conn powerinfo.Connection, _ any) {
		conns = append(conns, conn)
	}, nil)
	if err != nil {
		logrus.Errorf("getConnections failed: %v", err)
		abortWithDriverError(c, err)
		return
	}

	c.IndentedJSON(http.StatusOK, conns)
}

func getState(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, cache.snapshot())
}

func getEvents(c *gin.Context) {
	var evs []events.Event
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339Nano, since)
		if err != nil {
			err = fmt.Errorf("since must be an RFC 3339 time: %w", err)
			c.IndentedJSON(http.StatusBadRequest, err.Error())
			_ = c.AbortWithError(http.StatusBadRequest, err)
			return
		}
		evs = recorder.EventsSince(t)
	} else {
		evs = recorder.Events()
	}

	if evs == nil {
		evs = []events.Event{}
	}
	c.IndentedJSON(http.StatusOK, evs)
}

func resyncStatus() powerinfo.ResyncStatus {
	next, running := resync.Status()
	st := powerinfo.ResyncStatus{
		Schedule: conf.ResyncSchedule(),
		Running:  running,
	}
	if !next.IsZero() {
		st.NextRun = &next
	}
	return st
}

func getResync(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, resyncStatus())
}

func postResyncSkip(c *gin.Context) {
	if err := resync.Skip(); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	st := resyncStatus()
	logrus.WithField("nextRun", st.NextRun).Info("next scheduled resync skipped")
	c.IndentedJSON(http.StatusOK, st)
}

func postResync(c *gin.Context) {
	if err := pollAll(); err != nil {
		logrus.Errorf("resync failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Info("state resynced on request")
	c.IndentedJSON(http.StatusOK, cache.snapshot())
}

// getBatteryDetails reports what the generic power supply class knows about
// the first battery, which includes values the deviced attributes lack.
func getBatteryDetails(c *gin.Context) {
	batteries, err := battery.GetAll()
	if err != nil && len(batteries) == 0 {
		logrus.Errorf("getBatteryDetails failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if len(batteries) == 0 || batteries[0] == nil {
		err := fmt.Errorf("no batteries found: %w", hal.ErrUnsupported)
		abortWithDriverError(c, err)
		return
	}

	bat := batteries[0]
	chargeRate := bat.ChargeRate
	if bat.State == battery.Discharging {
		chargeRate = -chargeRate
	}

	c.IndentedJSON(http.StatusOK, powerinfo.BatteryDetails{
		State:         bat.State.String(),
		Current:       bat.Current,
		Full:          bat.Full,
		Design:        bat.Design,
		ChargeRate:    chargeRate,
		Voltage:       bat.Voltage,
		DesignVoltage: bat.DesignVoltage,
	})
}

func getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
