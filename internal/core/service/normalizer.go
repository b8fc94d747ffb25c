package service

import (
	"strconv"
	"strings"

	"fleettrack/internal/core/model"
	"fleettrack/internal/protocol/gprmc"
	"fleettrack/internal/protocol/status"
)

// Odometer bounds. A single GPS-estimated jump larger than maxOdomStepKM
// is treated as a fix glitch and discarded; the running value never exceeds
// maxOdometerKM.
const (
	maxOdomStepKM = 500.0
	maxOdometerKM = 1000000.0
)

// buildEvent combines a parsed message with the resolved device context
// into a canonical event. The second return value is true when the message
// should be silently dropped (invalid fix with a plain location status —
// GPS noise, not an error).
func buildEvent(msg *gprmc.ParsedMessage, device *model.Device, profile *gprmc.Profile, translator *status.Translator) (*model.Event, bool) {
	code := translator.Translate(msg.StatusToken, status.Location)

	validFix := msg.ValidFix &&
		(msg.Latitude != 0 || msg.Longitude != 0) &&
		msg.Latitude >= -90 && msg.Latitude <= 90 &&
		msg.Longitude >= -180 && msg.Longitude <= 180

	if !validFix && code == status.Location && profile.SuppressInvalidFix {
		return nil, true
	}

	fixTime := msg.FixTime.Unix()
	// Natural-key bump: a device may not have two events with the same
	// (fixTime, statusCode).
	if fixTime == device.LastEventTime && code == device.LastStatusCode {
		fixTime++
	}

	ev := model.NewEvent(device.AccountID, device.DeviceID, fixTime, code)

	if validFix {
		ev.Latitude = msg.Latitude
		ev.Longitude = msg.Longitude
	}

	// Stationary-noise suppression: slow or unfixed readings report as
	// standing still.
	if validFix && msg.SpeedKPH >= profile.MinSpeedKPH {
		ev.SpeedKPH = msg.SpeedKPH
		ev.HeadingDeg = normalizeHeading(msg.HeadingDeg)
	}

	ev.AltitudeM = msg.AltitudeM
	ev.OdometerKM = normalizeOdometer(msg, device, profile, validFix)
	ev.DistanceKM = msg.DistanceKM
	ev.HDOP = msg.HDOP
	ev.Satellites = msg.Satellites
	ev.GPIOMask = msg.GPIOMask

	ev.BatteryLevel = normalizeBatteryLevel(msg.BatteryRaw)
	ev.BatteryVolts = msg.BatteryVolts
	if msg.HasBattTemp {
		ev.BatteryTempC = msg.BatteryTempC
	}
	if msg.HasAmbient {
		ev.AmbientTempC = msg.AmbientTempC
	}

	ev.CellTower = msg.Cell
	ev.DriverID = msg.DriverID
	ev.Message = msg.Message
	ev.Address = msg.Address
	return ev, false
}

func normalizeHeading(deg float64) float64 {
	for deg < 0 {
		deg += 360
	}
	for deg > 360 {
		deg -= 360
	}
	return deg
}

// normalizeOdometer applies the odometer policy: an explicit reading is
// clamped to the monotonic floor of the device's last known value; without
// one, the running value is advanced by the great-circle distance from the
// last valid position when estimation is enabled.
func normalizeOdometer(msg *gprmc.ParsedMessage, device *model.Device, profile *gprmc.Profile, validFix bool) float64 {
	odom := device.LastOdometerKM

	switch {
	case msg.HasOdometer:
		odom = msg.OdometerKM
		if odom < device.LastOdometerKM {
			odom = device.LastOdometerKM
		}
	case profile.EstimateOdometer && validFix && device.HasLastPosition():
		step := model.DistanceKM(device.LastValidLat, device.LastValidLon, msg.Latitude, msg.Longitude)
		if step < maxOdomStepKM {
			odom = device.LastOdometerKM + step
		}
	}

	if odom > maxOdometerKM {
		odom = maxOdometerKM
	}
	return odom
}

// normalizeBatteryLevel maps the raw battery text to a 0.0-1.0 fraction.
// Integer-looking values and fractional values above 1.0 are percentages.
func normalizeBatteryLevel(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}

	if !strings.Contains(raw, ".") || v > 1.0 {
		v /= 100.0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
