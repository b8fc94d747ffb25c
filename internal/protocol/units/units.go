// Package units provides the unit conversions shared by the telemetry decoders.
package units

import "strings"

// Conversion factors
const (
	KPHPerKnot    = 1.852
	KMPerMile     = 1.609344
	MetersPerFoot = 0.3048
)

func KnotsToKPH(knots float64) float64 {
	return knots * KPHPerKnot
}

func KPHToKnots(kph float64) float64 {
	return kph / KPHPerKnot
}

func MilesToKM(miles float64) float64 {
	return miles * KMPerMile
}

func KMToMiles(km float64) float64 {
	return km / KMPerMile
}

func MPHToKPH(mph float64) float64 {
	return mph * KMPerMile
}

func FeetToMeters(feet float64) float64 {
	return feet * MetersPerFoot
}

// compassPoints maps 16-point compass text to degrees.
var compassPoints = map[string]float64{
	"N": 0, "NNE": 22.5, "NE": 45, "ENE": 67.5,
	"E": 90, "ESE": 112.5, "SE": 135, "SSE": 157.5,
	"S": 180, "SSW": 202.5, "SW": 225, "WSW": 247.5,
	"W": 270, "WNW": 292.5, "NW": 315, "NNW": 337.5,
}

// HeadingFromCompass converts compass text ("N", "SSW", ...) to degrees.
func HeadingFromCompass(txt string) (float64, bool) {
	deg, ok := compassPoints[strings.ToUpper(strings.TrimSpace(txt))]
	return deg, ok
}
