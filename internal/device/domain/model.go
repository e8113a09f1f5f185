package domain

// Binding is the single device currently associated with an account. The
// inactive mode's sub-record is kept as stale defaults so switching back
// does not require re-entering pairing data.
type Binding struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Status         string         `json:"status"`
	ConnectionType string         `json:"connectionType"` // "wifi" | "bluetooth"
	Model          string         `json:"model"`
	Firmware       string         `json:"firmware"`
	Wifi           *WifiInfo      `json:"wifi,omitempty"`
	Bluetooth      *BluetoothInfo `json:"bluetooth,omitempty"`
	ConnectedAt    int64          `json:"connectedAt,omitempty"` // unix millis
	UpdatedAt      int64          `json:"updatedAt,omitempty"`
}

type WifiInfo struct {
	SSID          string `json:"ssid"`
	Band          string `json:"band"`
	SignalDbm     int    `json:"signalDbm"`
	StrengthLabel string `json:"strengthLabel"`
	IP            string `json:"ip"`
}

type BluetoothInfo struct {
	RSSI        int    `json:"rssi"`
	StatusLabel string `json:"statusLabel"`
	RangeMeters int    `json:"rangeMeters"`
}

const (
	ConnectionWifi      = "wifi"
	ConnectionBluetooth = "bluetooth"

	StatusOnline = "Online"

	DefaultName     = "AquaVolt Monitor"
	DefaultID       = "AquaVolt-ESP32-A1"
	DefaultModel    = "ESP32-WROOM-32"
	DefaultFirmware = "v2.4.1"
)

// DefaultWifi is the placeholder network detail used when a binding
// switches to wifi mode without ever having paired over wifi.
func DefaultWifi() map[string]any {
	return map[string]any{
		"ssid":          "HomeNetwork_5G",
		"band":          "2.4 GHz",
		"signalDbm":     -45,
		"strengthLabel": "Strong (-45 dBm)",
		"ip":            "192.168.1.142",
	}
}

func DefaultBluetooth() map[string]any {
	return map[string]any{
		"rssi":        -52,
		"statusLabel": "Connected",
		"rangeMeters": 10,
	}
}
