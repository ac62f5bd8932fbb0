package powerinfo

import (
	"encoding/json"
	"testing"
)

func TestChargeStatus(t *testing.T) {
	tests := []struct {
		text string
		want ChargeStatus
	}{
		{text: "Charging", want: Charging},
		{text: "Discharging", want: Discharging},
		{text: "Full", want: Full},
		{text: "charging", want: Unknown},
		{text: "Not charging", want: Unknown},
		{text: "", want: Unknown},
	}
	for _, tt := range tests {
		if got := ParseChargeStatus(tt.text); got != tt.want {
			t.Errorf("ParseChargeStatus(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}

	if s := ChargeStatus(42).String(); s != "Unknown" {
		t.Errorf("out of range status = %q", s)
	}
}

func TestPowerSourceFor(t *testing.T) {
	for online := -1; online <= 10; online++ {
		want := PowerSourceNone
		switch online {
		case 2:
			want = PowerSourceAC
		case 4:
			want = PowerSourceUSB
		}
		if got := PowerSourceFor(online); got != want {
			t.Errorf("PowerSourceFor(%d) = %q, want %q", online, got, want)
		}
	}
}

func TestBatteryJSON(t *testing.T) {
	b := Battery{DeviceID: BatteryDeviceID, Status: Charging, Capacity: 77, PowerSource: PowerSourceAC}
	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Battery
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != b {
		t.Fatalf("got %+v, want %+v", got, b)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if raw["status"] != "Charging" {
		t.Fatalf("status encoded as %v", raw["status"])
	}
}

func TestConnectionConnected(t *testing.T) {
	tests := []struct {
		state string
		want  bool
	}{
		{state: "1", want: true},
		{state: "0", want: false},
		{state: "", want: false},
		{state: " 0 ", want: false},
		{state: "2", want: true},
	}
	for _, tt := range tests {
		c := Connection{Type: ConnectorUSB, State: tt.state}
		if got := c.Connected(); got != tt.want {
			t.Errorf("Connected(%q) = %v, want %v", tt.state, got, tt.want)
		}
	}
}
