package model

import (
	"time"

	"github.com/google/uuid"

	"fleettrack/internal/protocol/gprmc"
)

// InvalidTemperature is the sentinel stored when a temperature was not
// reported.
const InvalidTemperature = -9999.0

// Event is the canonical location event produced by ingestion. Constructed
// once per inbound message (and per simulated geozone transition), never
// mutated after creation. (AccountID, DeviceID, FixTime, StatusCode) is the
// natural key; the normalizer bumps FixTime when a collision with the
// device's last event would occur, and the events collection is expected to
// carry a matching unique index.
type Event struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"`
	DeviceID  string `json:"deviceId"`

	FixTime    int64 `json:"fixTime"` // UTC epoch seconds
	StatusCode int   `json:"statusCode"`

	Latitude   float64 `json:"latitude"` // (0,0) is the invalid-fix sentinel
	Longitude  float64 `json:"longitude"`
	SpeedKPH   float64 `json:"speedKph"`
	HeadingDeg float64 `json:"headingDeg"`
	AltitudeM  float64 `json:"altitudeMeters"`

	OdometerKM float64 `json:"odometerKm"`
	DistanceKM float64 `json:"distanceKm,omitempty"`

	HDOP                float64 `json:"hdop,omitempty"`
	Satellites          int     `json:"satelliteCount,omitempty"`
	HorizontalAccuracyM float64 `json:"horizontalAccuracyM,omitempty"`
	VerticalAccuracyM   float64 `json:"verticalAccuracyM,omitempty"`

	BatteryLevel float64 `json:"batteryLevelPct,omitempty"` // 0.0-1.0
	BatteryVolts float64 `json:"batteryVolts,omitempty"`
	BatteryTempC float64 `json:"batteryTempC,omitempty"`
	AmbientTempC float64 `json:"ambientTempC,omitempty"`
	GPIOMask     int64   `json:"gpioMask,omitempty"`

	CellTower *gprmc.CellTower `json:"servingCellTower,omitempty"`

	DriverID  string `json:"driverId,omitempty"`
	Message   string `json:"message,omitempty"`
	Address   string `json:"address,omitempty"`
	GeozoneID string `json:"geozoneId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func NewEvent(accountID, deviceID string, fixTime int64, statusCode int) *Event {
	return &Event{
		ID:           uuid.NewString(),
		AccountID:    accountID,
		DeviceID:     deviceID,
		FixTime:      fixTime,
		StatusCode:   statusCode,
		BatteryTempC: InvalidTemperature,
		AmbientTempC: InvalidTemperature,
		CreatedAt:    time.Now().UTC(),
	}
}

// HasValidFix reports whether the event carries a usable GPS position.
func (e *Event) HasValidFix() bool {
	if e.Latitude == 0 && e.Longitude == 0 {
		return false
	}
	return e.Latitude >= -90 && e.Latitude <= 90 &&
		e.Longitude >= -180 && e.Longitude <= 180
}
