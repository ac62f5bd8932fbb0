package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/devnode/devnoti/pkg/config"
	"github.com/devnode/devnoti/pkg/events"
	"github.com/devnode/devnoti/pkg/hal"
	"github.com/devnode/devnoti/pkg/powerinfo"
	"github.com/devnode/devnoti/pkg/sigbus"
	"github.com/devnode/devnoti/pkg/sysfs"
)

var (
	conf       *config.File
	batteryDrv hal.Driver[powerinfo.Battery]
	extconDrv  hal.Driver[powerinfo.Connection]
	cache      = newStateCache()
	recorder   = events.NewRecorder(64)
	resync     *Scheduler
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/config", getConfig)
	router.GET("/version", getVersion)
	router.GET("/battery", getBattery)
	router.GET("/battery-details", getBatteryDetails)
	router.GET("/connections", getConnections)
	router.GET("/state", getState)
	router.GET("/events", getEvents)
	router.POST("/resync", postResync)
	router.GET("/resync", getResync)
	router.POST("/resync/skip", postResyncSkip)

	return router
}

func reloadConfig() {
	err := conf.Load()
	if err != nil {
		logrus.Errorf("failed to reload config: %v", err)
		return
	}

	recorder.Resize(conf.EventHistory())
	if err := resync.Schedule(conf.ResyncSchedule()); err != nil {
		logrus.Errorf("invalid resync schedule %q: %v", conf.ResyncSchedule(), err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	router := setupRoutes()

	var err error
	conf, err = config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	recorder.Resize(conf.EventHistory())

	bus := sigbus.New(sigbus.BusType(conf.BusType()))
	reader := sysfs.NewFS(conf.SysfsRoot())

	if err := openDrivers(bus, reader); err != nil {
		_ = bus.Close()
		return err
	}

	// Seed the cache so /state is useful before the first signal.
	if err := pollAll(); err != nil {
		logrus.Warnf("initial poll incomplete: %v", err)
	}

	resync = NewScheduler(pollAll, func(data any) {
		logrus.Errorf("scheduled resync: %v", data)
	})
	if err := resync.Schedule(conf.ResyncSchedule()); err != nil {
		logrus.Errorf("invalid resync schedule %q, periodic resync disabled: %v", conf.ResyncSchedule(), err)
	}
	resync.Start()

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			reloadConfig()
		}
	}()

	srv := &http.Server{
		Handler: router,
	}

	// A socket left behind by an unclean exit would make Listen fail.
	if err := os.Remove(unixSocketPath); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("failed to remove stale socket %s: %v", unixSocketPath, err)
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		resync.Stop()
		closeDrivers()
		_ = bus.Close()
		return pkgerrors.Wrapf(err, "failed to listen on %s", unixSocketPath)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	logrus.Info("stopping resync scheduler")
	resync.Stop()

	logrus.Info("closing drivers")
	closeDrivers()

	logrus.Info("closing bus connection")
	if err := bus.Close(); err != nil {
		logrus.Errorf("failed to close bus connection: %v", err)
	}

	logrus.Info("exiting")
	return nil
}
