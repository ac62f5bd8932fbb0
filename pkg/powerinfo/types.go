package powerinfo

import (
	"fmt"
	"strings"
	"time"
)

// BatteryDeviceID is the hardware device id reported in every Battery.
const BatteryDeviceID = "battery"

// ChargeStatus represents the charging state of the battery.
type ChargeStatus int

const (
	// Unknown indicates the reported status text was not recognized.
	Unknown ChargeStatus = iota
	// Charging indicates the battery is charging.
	Charging
	// Discharging indicates the battery is discharging.
	Discharging
	// Full indicates the battery is full.
	Full
)

var chargeStatusNames = [...]string{"Unknown", "Charging", "Discharging", "Full"}

func (s ChargeStatus) String() string {
	if s < 0 || int(s) >= len(chargeStatusNames) {
		return chargeStatusNames[Unknown]
	}
	return chargeStatusNames[s]
}

func (s ChargeStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ChargeStatus) UnmarshalText(b []byte) error {
	*s = ParseChargeStatus(string(b))
	return nil
}

// ParseChargeStatus maps status text to a ChargeStatus by exact match.
func ParseChargeStatus(text string) ChargeStatus {
	for i, name := range chargeStatusNames {
		if text == name {
			return ChargeStatus(i)
		}
	}
	return Unknown
}

// PowerSource is the charging source currently feeding the battery.
type PowerSource string

const (
	PowerSourceNone PowerSource = "none"
	PowerSourceAC   PowerSource = "ac"
	PowerSourceUSB  PowerSource = "usb"
)

// Online codes reported by the charger. Zero means no signal has been seen yet.
const (
	OnlineAC  = 2
	OnlineUSB = 4
)

// PowerSourceFor returns the power source for a charger online code.
// Both the signal and the poll paths must go through this function.
func PowerSourceFor(online int) PowerSource {
	switch online {
	case OnlineAC:
		return PowerSourceAC
	case OnlineUSB:
		return PowerSourceUSB
	default:
		return PowerSourceNone
	}
}

// Battery is a snapshot of the battery state.
// Units:
// - Capacity: percent, always within [0, 100]
// - CurrentNow, CurrentAverage: uA (negative when discharging)
type Battery struct {
	DeviceID       string       `json:"deviceId"`
	Status         ChargeStatus `json:"status"`
	StatusText     string       `json:"statusText"`
	Health         string       `json:"health"`
	Online         int          `json:"online"`
	Present        bool         `json:"present"`
	Capacity       int          `json:"capacity"`
	CurrentNow     int          `json:"currentNow"`
	CurrentAverage int          `json:"currentAverage"`
	PowerSource    PowerSource  `json:"powerSource"`
}

// ConnectorType identifies an external connector.
type ConnectorType string

const (
	ConnectorUSB       ConnectorType = "USB"
	ConnectorHeadphone ConnectorType = "Headphone"
)

// Connection is a snapshot of one external connector.
type Connection struct {
	Type  ConnectorType `json:"type"`
	State string        `json:"state"`
	// Flags is reserved and currently always 0.
	Flags uint32 `json:"flags"`
}

// Connected reports whether State holds a non-zero integer.
func (c Connection) Connected() bool {
	s := strings.TrimSpace(c.State)
	return s != "" && s != "0"
}

func (c Connection) String() string {
	return fmt.Sprintf("%s=%s", c.Type, c.State)
}

// Snapshot is the last known state of every device.
type Snapshot struct {
	Battery     *Battery     `json:"battery,omitempty"`
	Connections []Connection `json:"connections"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// BatteryDetails is read from the generic power supply class.
// Units:
// - Current, Full, Design: mWh
// - ChargeRate: mW (negative when discharging)
// - Voltage, DesignVoltage: V
type BatteryDetails struct {
	State         string  `json:"state"`
	Current       float64 `json:"current"`
	Full          float64 `json:"full"`
	Design        float64 `json:"design"`
	ChargeRate    float64 `json:"chargeRate"`
	Voltage       float64 `json:"voltage"`
	DesignVoltage float64 `json:"designVoltage"`
}

// ResyncStatus describes the periodic resync schedule of the daemon.
type ResyncStatus struct {
	Schedule string `json:"schedule"`
	// NextRun is nil when the schedule is disabled.
	NextRun *time.Time `json:"nextRun,omitempty"`
	Running bool       `json:"running"`
}

// DriverError is the body of a failed driver request. Code is the negative
// errno value for the failure.
type DriverError struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
