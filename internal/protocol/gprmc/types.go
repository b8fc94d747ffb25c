package gprmc

import "time"

// CellTower identifies the serving cell reported alongside a fix.
type CellTower struct {
	MCC    int `json:"mcc,omitempty"`
	MNC    int `json:"mnc,omitempty"`
	LAC    int `json:"lac,omitempty"`
	CID    int `json:"cid,omitempty"`
	TAV    int `json:"tav,omitempty"`
	RAT    int `json:"rat,omitempty"`
	RXLev  int `json:"rxlev,omitempty"`
	ARFCN  int `json:"arfcn,omitempty"`
	filled bool
}

// ParsedMessage is the raw field bag extracted from one inbound request,
// before device resolution and normalization. It lives for the duration of
// one ingest call.
type ParsedMessage struct {
	// Identity
	MobileID  string
	AccountID string
	DeviceID  string
	AuthCode  string

	// Command/handshake
	Command string

	// Location
	HasLatLon  bool
	ValidFix   bool
	Latitude   float64
	Longitude  float64
	SpeedKPH   float64
	HeadingDeg float64
	AltitudeM  float64
	FixTime    time.Time
	TimeWarn   error // non-nil when the fix time is a best-effort fallback

	// Telemetry
	HasOdometer  bool
	OdometerKM   float64
	DistanceKM   float64
	BatteryRaw   string // raw battery-level text; scale decided at normalization
	BatteryVolts float64
	BatteryTempC float64
	HasBattTemp  bool
	AmbientTempC float64
	HasAmbient   bool
	HDOP         float64
	Satellites   int
	GPIOMask     int64

	Cell *CellTower

	// Annotations
	StatusToken string
	DriverID    string
	Message     string
	Address     string

	// Raw payload for the spool
	Raw string
}

// HasLocationData reports whether the message carried anything worth
// persisting: a lat/lon pair, an NMEA fix, or at least a status token.
// A request with none of these is a benign no-op, not an error.
func (m *ParsedMessage) HasLocationData() bool {
	return m.HasLatLon || m.StatusToken != ""
}
