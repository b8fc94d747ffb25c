package model

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Device is the registry record a tracker resolves to. The ingest pipeline
// treats it as read-mostly context: resolution reads it, and the explicit
// Touch step after a successful ingest is the only writer.
type Device struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"`
	DeviceID  string `json:"deviceId"`
	UniqueID  string `json:"uniqueId"` // prefix-qualified mobile id, e.g. "imei_1234"
	Name      string `json:"name"`

	DeviceCode  string `json:"deviceCode"`  // protocol tag of the last adapter seen
	CodeVersion string `json:"codeVersion"` // firmware/protocol version string

	DataKey    string `json:"-"`          // PIN/auth code; blank disables the check
	AllowedIPs string `json:"allowedIps"` // comma-separated glob patterns; blank allows all

	Active bool `json:"active"`

	IPAddressCurrent string  `json:"ipAddressCurrent,omitempty"`
	LastConnectTime  int64   `json:"lastConnectTime,omitempty"`
	LastEventTime    int64   `json:"lastEventTime,omitempty"`
	LastStatusCode   int     `json:"lastStatusCode,omitempty"`
	LastOdometerKM   float64 `json:"lastOdometerKm,omitempty"`
	LastValidLat     float64 `json:"lastValidLat,omitempty"`
	LastValidLon     float64 `json:"lastValidLon,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func NewDevice(accountID, deviceID, uniqueID string) *Device {
	return &Device{
		ID:        uuid.NewString(),
		AccountID: accountID,
		DeviceID:  deviceID,
		UniqueID:  uniqueID,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
}

// ValidateDataKey checks the supplied PIN/auth code. A device without a
// configured key accepts anything.
func (d *Device) ValidateDataKey(key string) bool {
	if d.DataKey == "" {
		return true
	}
	return d.DataKey == key
}

// IPAllowed matches the source address against the device's allow-list of
// comma-separated glob patterns. A blank list allows any source.
func (d *Device) IPAllowed(ip string) bool {
	patterns := strings.TrimSpace(d.AllowedIPs)
	if patterns == "" {
		return true
	}
	for _, pattern := range strings.Split(patterns, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if ok, err := path.Match(pattern, ip); err == nil && ok {
			return true
		}
	}
	return false
}

// HasLastPosition reports whether the device has a previous valid fix to
// measure movement from.
func (d *Device) HasLastPosition() bool {
	return d.LastValidLat != 0 || d.LastValidLon != 0
}

// UnassignedDevice records an identity that reported in but matched no
// registered device, for operator follow-up.
type UnassignedDevice struct {
	Protocol  string    `json:"protocol"`
	UniqueID  string    `json:"uniqueId"`
	IPAddress string    `json:"ipAddress"`
	SeenAt    time.Time `json:"seenAt"`
}
