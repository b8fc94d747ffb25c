package gprmc

import (
	"fleettrack/internal/protocol/datetime"
)

// KeySet lists the accepted parameter-key aliases per logical field, in
// precedence order: the first key present and non-blank wins. Alternate
// unit keys (mph, miles, feet) are converted to metric on extraction.
type KeySet struct {
	MobileID []string
	Account  []string
	Device   []string
	Auth     []string
	Status   []string
	RMC      []string
	Command  []string

	Latitude   []string
	Longitude  []string
	SpeedKPH   []string
	SpeedMPH   []string
	SpeedKnots []string
	Heading    []string

	AltitudeM  []string
	AltitudeFt []string

	OdometerKM    []string
	OdometerMiles []string
	DistanceKM    []string

	Date  []string
	Time  []string
	Epoch []string

	BatteryLevel []string
	BatteryVolts []string
	BatteryTemp  []string
	AmbientTemp  []string
	HDOP         []string
	Satellites   []string
	GPIO         []string

	DriverID []string
	Message  []string
	Address  []string

	MCC   []string
	MNC   []string
	LAC   []string
	CID   []string
	TAV   []string
	RAT   []string
	RXLev []string
	ARFCN []string
}

// Profile carries everything that differs between protocol variants served
// by this family: key aliases, status-table overrides, unique-ID prefixes,
// response tokens and normalization policy. A Profile is built once at
// startup and treated as immutable afterward.
type Profile struct {
	Name       string // protocol tag recorded on devices and events
	Version    string
	DeviceCode string

	ResponseOK      string
	ResponseError   string
	ResponseNotAuth string

	// Device resolution
	UniqueIDPrefixes []string
	DefaultAccount   string
	RequirePIN       bool

	// Normalization policy
	MinSpeedKPH           float64
	DateFormat            datetime.Format
	EstimateOdometer      bool
	SimulateGeozones      bool
	SuppressInvalidFix    bool
	SkipLocationOnGeozone bool

	Keys            KeySet
	StatusOverrides map[string]int
}

// VersionReply is the handshake response for a cmd=version request.
func (p *Profile) VersionReply() string {
	return p.ResponseOK + ":version:ver=" + p.DeviceCode + "-" + p.Version + ";"
}

// GC101Profile is the fixed-key profile for GC-101 personal trackers.
// The device firmware cannot be reconfigured, so the key set is small and
// the error response is an empty body.
func GC101Profile() *Profile {
	return &Profile{
		Name:                  "gc101",
		Version:               "2.1.4",
		DeviceCode:            "gc101",
		ResponseOK:            "OK",
		ResponseError:         "",
		ResponseNotAuth:       "",
		UniqueIDPrefixes:      []string{"gc101_", "imei_"},
		MinSpeedKPH:           4.0,
		DateFormat:            datetime.FormatNone, // GC-101 only reports time inside the sentence
		EstimateOdometer:      true,
		SimulateGeozones:      true,
		SuppressInvalidFix:    true,
		SkipLocationOnGeozone: true,
		Keys: KeySet{
			MobileID: []string{"imei", "id", "mobileid"},
			RMC:      []string{"rmc", "gprmc"},
			Status:   []string{"code", "sc", "statusCode"},
			Command:  []string{"cmd", "co", "command"},
		},
	}
}

// DefaultProfile is the configurable generic-GPRMC profile. Deployments
// override response tokens, default account, minimum speed and date format
// from runtime configuration.
func DefaultProfile() *Profile {
	return &Profile{
		Name:                  "gprmc",
		Version:               "2.2.7",
		DeviceCode:            "gprmc",
		ResponseOK:            "OK",
		ResponseError:         "ERROR",
		ResponseNotAuth:       "ERROR",
		UniqueIDPrefixes:      []string{"gprmc_", "ct_", "imei_", ""},
		RequirePIN:            true,
		MinSpeedKPH:           4.0,
		DateFormat:            datetime.FormatYMD,
		EstimateOdometer:      true,
		SimulateGeozones:      true,
		SuppressInvalidFix:    true,
		SkipLocationOnGeozone: true,
		Keys: KeySet{
			MobileID: []string{"id", "un", "imei", "mid", "mobileid"},
			Account:  []string{"acct", "account", "accountid", "a"},
			Device:   []string{"dev", "device", "deviceid", "d"},
			Auth:     []string{"pass", "password", "pw"},
			Status:   []string{"code", "sc", "status"},
			RMC:      []string{"gprmc", "rmc", "nmea", "cds"},
			Command:  []string{"cmd", "co", "command"},

			Latitude:   []string{"lat", "latitude"},
			Longitude:  []string{"lon", "long", "longitude"},
			SpeedKPH:   []string{"speed", "kph"},
			SpeedMPH:   []string{"mph"},
			SpeedKnots: []string{"knots"},
			Heading:    []string{"head", "heading", "course", "dir"},

			AltitudeM:  []string{"alt", "altitude", "altm"},
			AltitudeFt: []string{"altft"},

			OdometerKM:    []string{"odom", "odometer", "odokm"},
			OdometerMiles: []string{"odomiles"},
			DistanceKM:    []string{"dist", "distance", "distkm"},

			Date:  []string{"date"},
			Time:  []string{"time"},
			Epoch: []string{"epoch", "unixtime"},

			BatteryLevel: []string{"batt", "battlvl", "battery"},
			BatteryVolts: []string{"battv", "batteryvolts"},
			BatteryTemp:  []string{"battc", "batterytemp"},
			AmbientTemp:  []string{"tempc", "ambienttemp"},
			HDOP:         []string{"hdop"},
			Satellites:   []string{"sats", "satcount"},
			GPIO:         []string{"gpio", "io"},

			DriverID: []string{"driver", "driverid"},
			Message:  []string{"msg", "message", "text"},
			Address:  []string{"addr", "address"},

			MCC:   []string{"mcc"},
			MNC:   []string{"mnc"},
			LAC:   []string{"lac"},
			CID:   []string{"cid"},
			TAV:   []string{"tav"},
			RAT:   []string{"rat"},
			RXLev: []string{"rxlev"},
			ARFCN: []string{"arfcn"},
		},
	}
}
