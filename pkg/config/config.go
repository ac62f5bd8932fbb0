package config

type Config interface {
	// BusType is the D-Bus daemon to subscribe on: "system" or "session".
	BusType() string
	// SysfsRoot is prepended to every hardware attribute path.
	SysfsRoot() string
	EnableBattery() bool
	EnableExtcon() bool
	// ResyncSchedule is a cron expression for periodic polls. Empty disables them.
	ResyncSchedule() string
	// EventHistory is the number of change events kept by the daemon.
	EventHistory() int
	AllowNonRootAccess() bool

	SetBusType(string)
	SetResyncSchedule(string)
	SetEventHistory(int)
	SetAllowNonRootAccess(bool)

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
