// Package nmea parses the $GPRMC sentences emitted by GPRMC-family
// trackers. These devices deviate from NMEA-0183 proper: checksums are
// frequently wrong or absent, and several vendors append extra fields after
// the checksum (a status token, or battery/GPIO/HDOP/satellite readings),
// so the sentence is split and validated field by field instead of being
// run through a strict NMEA library.
package nmea

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"fleettrack/internal/protocol/datetime"
	"fleettrack/internal/protocol/units"
)

var (
	ErrBadSentence   = errors.New("not a $GPRMC sentence")
	ErrBadCoordinate = errors.New("invalid coordinate")
)

// RMC holds the fields extracted from one $GPRMC sentence plus any vendor
// trailer values.
type RMC struct {
	Valid      bool // field 2: A=valid, V=invalid
	Latitude   float64
	Longitude  float64
	SpeedKPH   float64
	HeadingDeg float64
	FixTime    time.Time // UTC; day inferred from the server clock when the date field is blank

	// Vendor trailer fields; zero when absent.
	StatusToken  string
	BatteryVolts float64
	GPIOMask     int64
	HDOP         float64
	Satellites   int
}

// Parse parses a $GPRMC sentence using the current time as the reference
// clock for date inference.
func Parse(sentence string) (*RMC, error) {
	return ParseAt(sentence, time.Now())
}

// ParseAt parses a $GPRMC sentence. now anchors the fix day when the
// sentence carries a time but no date field.
//
// Standard field layout:
//
//	$GPRMC,HHMMSS.sss,A,DDMM.MMMM,N,DDDMM.MMMM,W,knots,heading,DDMMYY,var,varEW*CS[,trailer...]
func ParseAt(sentence string, now time.Time) (*RMC, error) {
	fields := strings.Split(strings.TrimSpace(sentence), ",")
	head := strings.ToUpper(strings.TrimPrefix(fields[0], "$"))
	if head != "GPRMC" {
		return nil, fmt.Errorf("%w: %q", ErrBadSentence, fields[0])
	}
	if len(fields) < 10 {
		return nil, fmt.Errorf("%w: %d fields", ErrBadSentence, len(fields))
	}

	rmc := &RMC{
		Valid: strings.EqualFold(fields[2], "A"),
	}

	var err error
	if rmc.Latitude, err = ParseLatitude(fields[3] + fields[4]); err != nil {
		if rmc.Valid {
			return nil, err
		}
	}
	if rmc.Longitude, err = ParseLongitude(fields[5] + fields[6]); err != nil {
		if rmc.Valid {
			return nil, err
		}
	}

	if knots, err := strconv.ParseFloat(fields[7], 64); err == nil {
		rmc.SpeedKPH = units.KnotsToKPH(knots)
	}
	if heading, err := strconv.ParseFloat(fields[8], 64); err == nil {
		rmc.HeadingDeg = heading
	}

	rmc.FixTime = parseFixTime(fields[1], fields[9], now)
	rmc.parseTrailer(fields)
	return rmc, nil
}

// ParseLatitude converts "DDMM.MMMM" with a trailing or separate N/S
// hemisphere letter into signed decimal degrees.
func ParseLatitude(s string) (float64, error) {
	deg, err := parseCoordinate(s, "S")
	if err != nil {
		return 0, err
	}
	if math.Abs(deg) > 90 {
		return 0, fmt.Errorf("%w: latitude %q out of range", ErrBadCoordinate, s)
	}
	return deg, nil
}

// ParseLongitude converts "DDDMM.MMMM" with a trailing or separate E/W
// hemisphere letter into signed decimal degrees.
func ParseLongitude(s string) (float64, error) {
	deg, err := parseCoordinate(s, "W")
	if err != nil {
		return 0, err
	}
	if math.Abs(deg) > 180 {
		return 0, fmt.Errorf("%w: longitude %q out of range", ErrBadCoordinate, s)
	}
	return deg, nil
}

// parseCoordinate handles the shared DDMM.MMMM conversion:
// degrees = floor(value/100) + (value mod 100)/60, negated when the
// hemisphere letter matches negHemi.
func parseCoordinate(s, negHemi string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrBadCoordinate
	}

	neg := false
	last := strings.ToUpper(s[len(s)-1:])
	if last == "N" || last == "S" || last == "E" || last == "W" {
		neg = last == negHemi
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadCoordinate, s)
	}

	deg := math.Floor(v/100) + math.Mod(v, 100)/60
	if neg {
		deg = -deg
	}
	return deg, nil
}

func parseFixTime(timeStr, dateStr string, now time.Time) time.Time {
	if i := strings.IndexByte(timeStr, '.'); i >= 0 {
		timeStr = timeStr[:i]
	}
	if len(timeStr) != 6 {
		return now.UTC()
	}
	hour := atoi(timeStr[0:2])
	min := atoi(timeStr[2:4])
	sec := atoi(timeStr[4:6])

	if len(dateStr) == 6 {
		day := atoi(dateStr[0:2])
		month := atoi(dateStr[2:4])
		year := 2000 + atoi(dateStr[4:6])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
		}
	}
	// No usable date field: anchor the time-of-day to the server clock.
	return datetime.DayTime(hour, min, sec, now)
}

// parseTrailer extracts vendor fields appended after the checksum. Two
// layouts exist and are disambiguated by the leading character: a
// digit-leading run is battery-mV, GPIO-hex, HDOP, satellites in that
// order; a letter-leading field is a status token.
func (r *RMC) parseTrailer(fields []string) {
	start := 10
	// Skip the magnetic-variation pair when present.
	if start < len(fields) {
		start++ // variation magnitude (possibly blank)
	}
	numericIdx := 0
	for _, f := range fields[start:] {
		f = strings.TrimSpace(f)
		if f == "" || strings.Contains(f, "*") {
			continue // blank or checksum field
		}
		if up := strings.ToUpper(f); up == "E" || up == "W" {
			continue // variation hemisphere
		}
		if f[0] >= '0' && f[0] <= '9' {
			switch numericIdx {
			case 0:
				if mv, err := strconv.ParseFloat(f, 64); err == nil {
					r.BatteryVolts = mv / 1000.0
				}
			case 1:
				if mask, err := strconv.ParseInt(f, 16, 64); err == nil {
					r.GPIOMask = mask
				}
			case 2:
				if hdop, err := strconv.ParseFloat(f, 64); err == nil {
					r.HDOP = hdop
				}
			case 3:
				if sats, err := strconv.Atoi(f); err == nil {
					r.Satellites = sats
				}
			}
			numericIdx++
		} else if r.StatusToken == "" {
			r.StatusToken = f
		}
	}
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
