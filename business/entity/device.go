package entity

import (
	"net"
)

// DeviceInfo is the identity block reported on the REST surface.
type DeviceInfo struct {
	MACAddress      string     `json:"mac_address"`
	DeviceID        string     `json:"device_id"`
	DeviceType      string     `json:"device_type"`
	FirmwareVersion string     `json:"firmware_version"`
	Capabilities    []string   `json:"capabilities"`
	Screen          ScreenInfo `json:"screen"`
}

type ScreenInfo struct {
	Type   string   `json:"type"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Colors []string `json:"colors"`
	Active bool     `json:"active"`
}

// GetMACAddress returns the hardware address of the first usable
// non-loopback interface.
func GetMACAddress() string {
	ifaces, err := net.Interfaces()
	if err == nil {
		for _, i := range ifaces {
			if i.Flags&net.FlagLoopback == 0 && len(i.HardwareAddr) == 6 {
				return i.HardwareAddr.String()
			}
		}
	}
	return "00:00:00:00:00:00"
}
