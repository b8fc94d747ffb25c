// Package gprmc decodes the HTTP parameter encodings used by the
// GPRMC-family tracker protocols. One Decoder serves every protocol
// variant; the differences live in the Profile it is constructed with.
package gprmc

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fleettrack/internal/protocol/datetime"
	"fleettrack/internal/protocol/nmea"
	"fleettrack/internal/protocol/units"
)

// ErrMalformed marks an inbound message that carried location syntax the
// decoder could not parse (as opposed to carrying no location at all).
var ErrMalformed = errors.New("malformed telemetry")

type Decoder struct {
	profile *Profile
}

func NewDecoder(profile *Profile) *Decoder {
	return &Decoder{profile: profile}
}

func (d *Decoder) Profile() *Profile {
	return d.profile
}

// Decode extracts a ParsedMessage from flat request parameters using the
// current time as reference clock.
func (d *Decoder) Decode(params url.Values) (*ParsedMessage, error) {
	return d.DecodeAt(params, time.Now())
}

// DecodeAt extracts a ParsedMessage from flat request parameters. A request
// with neither a $GPRMC sentence nor discrete location fields decodes
// successfully with HasLocationData()==false; only unparseable location
// syntax is an error.
func (d *Decoder) DecodeAt(params url.Values, now time.Time) (*ParsedMessage, error) {
	keys := &d.profile.Keys
	msg := &ParsedMessage{
		MobileID:  first(params, keys.MobileID),
		AccountID: first(params, keys.Account),
		DeviceID:  first(params, keys.Device),
		AuthCode:  first(params, keys.Auth),
		Command:   first(params, keys.Command),
		DriverID:  first(params, keys.DriverID),
		Message:   first(params, keys.Message),
		Address:   first(params, keys.Address),
		Raw:       params.Encode(),
	}

	if sentence := first(params, keys.RMC); sentence != "" {
		rmc, err := nmea.ParseAt(sentence, now)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		msg.HasLatLon = true
		msg.ValidFix = rmc.Valid
		msg.Latitude = rmc.Latitude
		msg.Longitude = rmc.Longitude
		msg.SpeedKPH = rmc.SpeedKPH
		msg.HeadingDeg = rmc.HeadingDeg
		msg.FixTime = rmc.FixTime
		msg.StatusToken = rmc.StatusToken
		msg.BatteryVolts = rmc.BatteryVolts
		msg.GPIOMask = rmc.GPIOMask
		msg.HDOP = rmc.HDOP
		msg.Satellites = rmc.Satellites
	} else {
		d.decodeDiscrete(params, msg, now)
	}

	// Explicit status/battery/telemetry params override sentence trailers.
	if tok := first(params, keys.Status); tok != "" {
		msg.StatusToken = tok
	}
	msg.BatteryRaw = first(params, keys.BatteryLevel)
	if v, ok := firstFloat(params, keys.BatteryVolts); ok {
		msg.BatteryVolts = v
	}
	if v, ok := firstFloat(params, keys.BatteryTemp); ok {
		msg.BatteryTempC = v
		msg.HasBattTemp = true
	}
	if v, ok := firstFloat(params, keys.AmbientTemp); ok {
		msg.AmbientTempC = v
		msg.HasAmbient = true
	}
	if v, ok := firstFloat(params, keys.HDOP); ok {
		msg.HDOP = v
	}
	if v, ok := firstInt(params, keys.Satellites); ok {
		msg.Satellites = v
	}
	if s := first(params, keys.GPIO); s != "" {
		if mask, err := strconv.ParseInt(s, 16, 64); err == nil {
			msg.GPIOMask = mask
		}
	}

	if v, ok := firstFloat(params, keys.OdometerKM); ok {
		msg.OdometerKM = v
		msg.HasOdometer = true
	} else if v, ok := firstFloat(params, keys.OdometerMiles); ok {
		msg.OdometerKM = units.MilesToKM(v)
		msg.HasOdometer = true
	}
	if v, ok := firstFloat(params, keys.DistanceKM); ok {
		msg.DistanceKM = v
	}

	msg.Cell = decodeCell(params, keys)
	return msg, nil
}

// decodeDiscrete handles the flat lat/lon/speed/date/time parameter form.
func (d *Decoder) decodeDiscrete(params url.Values, msg *ParsedMessage, now time.Time) {
	keys := &d.profile.Keys

	lat, latOK := firstFloat(params, keys.Latitude)
	lon, lonOK := firstFloat(params, keys.Longitude)
	if latOK && lonOK {
		msg.HasLatLon = true
		msg.Latitude = lat
		msg.Longitude = lon
		msg.ValidFix = (lat != 0 || lon != 0) &&
			math.Abs(lat) <= 90 && math.Abs(lon) <= 180
	}

	if v, ok := firstFloat(params, keys.SpeedKPH); ok {
		msg.SpeedKPH = v
	} else if v, ok := firstFloat(params, keys.SpeedMPH); ok {
		msg.SpeedKPH = units.MPHToKPH(v)
	} else if v, ok := firstFloat(params, keys.SpeedKnots); ok {
		msg.SpeedKPH = units.KnotsToKPH(v)
	}

	if s := first(params, keys.Heading); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			msg.HeadingDeg = v
		} else if deg, ok := units.HeadingFromCompass(s); ok {
			msg.HeadingDeg = deg
		}
	}

	if v, ok := firstFloat(params, keys.AltitudeM); ok {
		msg.AltitudeM = v
	} else if v, ok := firstFloat(params, keys.AltitudeFt); ok {
		msg.AltitudeM = units.FeetToMeters(v)
	}

	var epoch int64
	var warn error
	if s := first(params, keys.Epoch); s != "" {
		epoch, warn = datetime.Normalize(s, "", datetime.FormatEpoch, now)
	} else {
		dateStr := first(params, keys.Date)
		timeStr := first(params, keys.Time)
		epoch, warn = datetime.Normalize(dateStr, timeStr, d.profile.DateFormat, now)
	}
	msg.FixTime = time.Unix(epoch, 0).UTC()
	msg.TimeWarn = warn
}

func decodeCell(params url.Values, keys *KeySet) *CellTower {
	cell := &CellTower{}
	set := func(dst *int, aliases []string) {
		if v, ok := firstInt(params, aliases); ok {
			*dst = v
			cell.filled = true
		}
	}
	set(&cell.MCC, keys.MCC)
	set(&cell.MNC, keys.MNC)
	set(&cell.LAC, keys.LAC)
	set(&cell.CID, keys.CID)
	set(&cell.TAV, keys.TAV)
	set(&cell.RAT, keys.RAT)
	set(&cell.RXLev, keys.RXLev)
	set(&cell.ARFCN, keys.ARFCN)
	if !cell.filled {
		return nil
	}
	return cell
}

// first returns the first non-blank value among the aliased keys.
func first(params url.Values, aliases []string) string {
	for _, key := range aliases {
		if v := strings.TrimSpace(params.Get(key)); v != "" {
			return v
		}
	}
	return ""
}

func firstFloat(params url.Values, aliases []string) (float64, bool) {
	s := first(params, aliases)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func firstInt(params url.Values, aliases []string) (int, bool) {
	s := first(params, aliases)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
