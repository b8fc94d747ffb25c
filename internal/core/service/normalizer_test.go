package service

import (
	"testing"
	"time"

	"fleettrack/internal/core/model"
	"fleettrack/internal/protocol/gprmc"
	"fleettrack/internal/protocol/status"
)

func almostEqual(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

func testDevice() *model.Device {
	d := model.NewDevice("acme", "truck01", "imei_123")
	return d
}

func testMessage(lat, lon, speed float64) *gprmc.ParsedMessage {
	return &gprmc.ParsedMessage{
		HasLatLon:  true,
		ValidFix:   true,
		Latitude:   lat,
		Longitude:  lon,
		SpeedKPH:   speed,
		HeadingDeg: 90,
		FixTime:    time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildEventMinimumSpeedSuppression(t *testing.T) {
	profile := gprmc.DefaultProfile()
	tr := status.NewTranslator(nil)

	for _, speed := range []float64{0, 0.5, 2.0, 3.99} {
		msg := testMessage(39.15, -121.13, speed)
		ev, dropped := buildEvent(msg, testDevice(), profile, tr)
		if dropped {
			t.Fatalf("speed %v: unexpected drop", speed)
		}
		if ev.SpeedKPH != 0 || ev.HeadingDeg != 0 {
			t.Errorf("speed %v: got (%v, %v), want suppressed to (0, 0)", speed, ev.SpeedKPH, ev.HeadingDeg)
		}
	}

	// At or above the threshold the reading passes through.
	msg := testMessage(39.15, -121.13, 4.0)
	ev, _ := buildEvent(msg, testDevice(), profile, tr)
	if ev.SpeedKPH != 4.0 || ev.HeadingDeg != 90 {
		t.Errorf("got (%v, %v), want (4, 90)", ev.SpeedKPH, ev.HeadingDeg)
	}
}

func TestBuildEventInvalidFixSuppressed(t *testing.T) {
	profile := gprmc.DefaultProfile()
	tr := status.NewTranslator(nil)

	// Invalid fix + plain location status: silent drop.
	msg := testMessage(0, 0, 50)
	msg.ValidFix = false
	if _, dropped := buildEvent(msg, testDevice(), profile, tr); !dropped {
		t.Error("expected invalid-fix location message to be dropped")
	}

	// Invalid fix with a meaningful status is kept, with zeroed motion.
	msg = testMessage(0, 0, 50)
	msg.ValidFix = false
	msg.StatusToken = "SOS"
	ev, dropped := buildEvent(msg, testDevice(), profile, tr)
	if dropped {
		t.Fatal("panic event should not be dropped")
	}
	if ev.StatusCode != status.PanicOn {
		t.Errorf("StatusCode = %s", status.String(ev.StatusCode))
	}
	if ev.SpeedKPH != 0 || ev.HeadingDeg != 0 || ev.Latitude != 0 || ev.Longitude != 0 {
		t.Errorf("invalid fix not zeroed: %+v", ev)
	}
}

func TestBuildEventNaturalKeyBump(t *testing.T) {
	profile := gprmc.DefaultProfile()
	tr := status.NewTranslator(nil)

	dev := testDevice()
	msg := testMessage(39.15, -121.13, 10)
	dev.LastEventTime = msg.FixTime.Unix()
	dev.LastStatusCode = status.Location

	ev, _ := buildEvent(msg, dev, profile, tr)
	if ev.FixTime != msg.FixTime.Unix()+1 {
		t.Errorf("FixTime = %v, want bumped to %v", ev.FixTime, msg.FixTime.Unix()+1)
	}
}

func TestNormalizeOdometerExplicitClamp(t *testing.T) {
	profile := gprmc.DefaultProfile()
	dev := testDevice()
	dev.LastOdometerKM = 1000

	// Backwards readings clamp to the last known value.
	msg := testMessage(39.15, -121.13, 10)
	msg.HasOdometer = true
	msg.OdometerKM = 900
	if got := normalizeOdometer(msg, dev, profile, true); got != 1000 {
		t.Errorf("backwards odometer = %v, want clamped 1000", got)
	}

	// Forward readings pass through.
	msg.OdometerKM = 1050
	if got := normalizeOdometer(msg, dev, profile, true); got != 1050 {
		t.Errorf("forward odometer = %v, want 1050", got)
	}
}

func TestNormalizeOdometerEstimation(t *testing.T) {
	profile := gprmc.DefaultProfile()
	dev := testDevice()
	dev.LastOdometerKM = 100
	dev.LastValidLat = 39.0
	dev.LastValidLon = -121.0

	// Roughly 1 degree of latitude is ~111 km.
	msg := testMessage(40.0, -121.0, 10)
	got := normalizeOdometer(msg, dev, profile, true)
	if !almostEqual(got, 100+111.2, 1.0) {
		t.Errorf("estimated odometer = %v, want about 211.2", got)
	}

	// A glitch jump far beyond plausibility is discarded.
	msg = testMessage(0.01, 55.0, 10)
	if got := normalizeOdometer(msg, dev, profile, true); got != 100 {
		t.Errorf("glitch odometer = %v, want carried 100", got)
	}

	// No previous position: value carries forward.
	dev.LastValidLat, dev.LastValidLon = 0, 0
	msg = testMessage(40.0, -121.0, 10)
	if got := normalizeOdometer(msg, dev, profile, true); got != 100 {
		t.Errorf("no-history odometer = %v, want 100", got)
	}
}

func TestNormalizeBatteryLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"", 0},
		{"87", 0.87},    // integer percentage
		{"87.5", 0.875}, // fractional percentage above 1.0
		{"0.87", 0.87},  // already fractional
		{"1.0", 1.0},    // exactly full, already fractional
		{"100", 1.0},
		{"150", 1.0}, // clamped
		{"junk", 0},
	}
	for _, tt := range tests {
		if got := normalizeBatteryLevel(tt.raw); !almostEqual(got, tt.want, 1e-9) {
			t.Errorf("normalizeBatteryLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
