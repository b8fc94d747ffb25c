// Package datetime normalizes the date/time encodings used by GPRMC-family
// trackers into UTC epoch seconds. Devices in the field routinely send
// truncated, reordered or plain wrong timestamps, so parsing is best-effort:
// Normalize never fails outright, it falls back to the reference time and
// reports what went wrong as a warning.
package datetime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Format selects how the raw date/time strings are interpreted.
type Format int

const (
	FormatNone Format = iota // ignore inputs, use the reference time
	FormatEpoch
	FormatYMD
	FormatMDY
	FormatDMY
	FormatYMDhms // combined date-time string
)

// ErrUnparseable marks a warning returned alongside the fallback time.
var ErrUnparseable = errors.New("unparseable date/time")

// Timestamps larger than this are assumed to be milliseconds.
const maxEpochSeconds = 9999999999

// ParseFormat maps a configuration token to a Format. Unknown tokens
// default to FormatYMD.
func ParseFormat(s string) Format {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NONE":
		return FormatNone
	case "EPOCH":
		return FormatEpoch
	case "MDY":
		return FormatMDY
	case "DMY":
		return FormatDMY
	case "YMDHMS":
		return FormatYMDhms
	default:
		return FormatYMD
	}
}

// Normalize converts dateStr/timeStr into UTC epoch seconds according to
// format. The second return value is a warning, not a hard failure: when it
// is non-nil the first value is now.Unix() (or the closest usable guess).
func Normalize(dateStr, timeStr string, format Format, now time.Time) (int64, error) {
	dateStr = strings.TrimSpace(dateStr)
	timeStr = strings.TrimSpace(timeStr)

	if format == FormatNone {
		return now.Unix(), nil
	}
	if dateStr == "" && timeStr == "" {
		return now.Unix(), nil
	}

	switch format {
	case FormatEpoch:
		s := dateStr
		if s == "" {
			s = timeStr
		}
		return parseEpoch(s, now)
	case FormatYMD, FormatMDY, FormatDMY:
		if dateStr == "" || timeStr == "" {
			// Only one side present: YMD deployments often send a single
			// combined field in whichever slot the firmware picked.
			if format == FormatYMD {
				s := dateStr
				if s == "" {
					s = timeStr
				}
				return parseCombined(s, now)
			}
			return now.Unix(), fmt.Errorf("%w: missing date or time %q/%q", ErrUnparseable, dateStr, timeStr)
		}
		return parseFixedWidth(dateStr, timeStr, format, now)
	case FormatYMDhms:
		s := dateStr
		if s == "" {
			s = timeStr
		} else if timeStr != "" {
			s = dateStr + " " + timeStr
		}
		return parseCombined(s, now)
	default:
		return now.Unix(), fmt.Errorf("%w: unknown format", ErrUnparseable)
	}
}

func parseEpoch(s string, now time.Time) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return now.Unix(), fmt.Errorf("%w: %q", ErrUnparseable, s)
	}
	if v > maxEpochSeconds {
		v /= 1000
	}
	return v, nil
}

// parseFixedWidth handles 8-digit (4-digit year) or 6-digit (2-digit year,
// assumed 2000+) dates with a 6-digit HHMMSS time.
func parseFixedWidth(dateStr, timeStr string, format Format, now time.Time) (int64, error) {
	timeStr = strings.ReplaceAll(timeStr, ":", "")
	if i := strings.IndexByte(timeStr, '.'); i >= 0 {
		timeStr = timeStr[:i]
	}
	if len(timeStr) != 6 {
		return now.Unix(), fmt.Errorf("%w: time %q", ErrUnparseable, timeStr)
	}

	var year, month, day int
	switch len(dateStr) {
	case 8:
		switch format {
		case FormatYMD:
			year, month, day = atoi(dateStr[0:4]), atoi(dateStr[4:6]), atoi(dateStr[6:8])
		case FormatMDY:
			month, day, year = atoi(dateStr[0:2]), atoi(dateStr[2:4]), atoi(dateStr[4:8])
		case FormatDMY:
			day, month, year = atoi(dateStr[0:2]), atoi(dateStr[2:4]), atoi(dateStr[4:8])
		}
	case 6:
		switch format {
		case FormatYMD:
			year, month, day = 2000+atoi(dateStr[0:2]), atoi(dateStr[2:4]), atoi(dateStr[4:6])
		case FormatMDY:
			month, day, year = atoi(dateStr[0:2]), atoi(dateStr[2:4]), 2000+atoi(dateStr[4:6])
		case FormatDMY:
			day, month, year = atoi(dateStr[0:2]), atoi(dateStr[2:4]), 2000+atoi(dateStr[4:6])
		}
	default:
		return now.Unix(), fmt.Errorf("%w: date %q", ErrUnparseable, dateStr)
	}

	hour, min, sec := atoi(timeStr[0:2]), atoi(timeStr[2:4]), atoi(timeStr[4:6])
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || min > 59 || sec > 60 {
		return now.Unix(), fmt.Errorf("%w: %q %q", ErrUnparseable, dateStr, timeStr)
	}
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC).Unix(), nil
}

// combinedLayouts covers the ISO-like variants seen in the wild: slash or
// dash separated date, T or space time separator, optional zone offset.
var combinedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02T15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006/01/02",
	"2006-01-02",
}

func parseCombined(s string, now time.Time) (int64, error) {
	s = strings.TrimSpace(s)
	for _, layout := range combinedLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.Unix(), nil
		}
	}
	// Last resort: epoch integer in a combined slot.
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		if v > maxEpochSeconds {
			v /= 1000
		}
		return v, nil
	}
	return now.Unix(), fmt.Errorf("%w: %q", ErrUnparseable, s)
}

// DayTime anchors a bare UTC time-of-day to an absolute day. Trackers that
// send only HHMMSS are assumed to report within 12 hours of the server
// clock; a larger gap means the reading crossed midnight relative to the
// server and the day is shifted by one.
func DayTime(hour, min, sec int, now time.Time) time.Time {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tod := time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute + time.Duration(sec)*time.Second
	nowTOD := now.Sub(midnight)

	switch {
	case tod-nowTOD > 12*time.Hour:
		midnight = midnight.AddDate(0, 0, -1)
	case nowTOD-tod > 12*time.Hour:
		midnight = midnight.AddDate(0, 0, 1)
	}
	return midnight.Add(tod)
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
