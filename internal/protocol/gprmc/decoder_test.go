package gprmc

import (
	"errors"
	"net/url"
	"testing"
	"time"
)

var decodeNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

func almostEqual(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

func TestDecodeSentence(t *testing.T) {
	d := NewDecoder(DefaultProfile())
	params := url.Values{
		"acct":  {"test"},
		"dev":   {"test01"},
		"gprmc": {"$GPRMC,204852,A,3909.0952,N,12107.936,W,0,000.0,191112,,*27"},
	}
	msg, err := d.DecodeAt(params, decodeNow)
	if err != nil {
		t.Fatalf("DecodeAt() error: %v", err)
	}
	if msg.AccountID != "test" || msg.DeviceID != "test01" {
		t.Errorf("identity = (%q, %q)", msg.AccountID, msg.DeviceID)
	}
	if !msg.HasLatLon || !msg.ValidFix {
		t.Error("expected a valid fix")
	}
	if !almostEqual(msg.Latitude, 39.151587, 1e-4) {
		t.Errorf("Latitude = %v", msg.Latitude)
	}
	want := time.Date(2012, 11, 19, 20, 48, 52, 0, time.UTC)
	if !msg.FixTime.Equal(want) {
		t.Errorf("FixTime = %v, want %v", msg.FixTime, want)
	}
}

func TestDecodeAliasPrecedence(t *testing.T) {
	d := NewDecoder(DefaultProfile())
	// "id" outranks "imei" in the default key set.
	params := url.Values{
		"imei": {"999"},
		"id":   {"123"},
	}
	msg, err := d.DecodeAt(params, decodeNow)
	if err != nil {
		t.Fatalf("DecodeAt() error: %v", err)
	}
	if msg.MobileID != "123" {
		t.Errorf("MobileID = %q, want 123", msg.MobileID)
	}

	// A blank first alias falls through to the next.
	params = url.Values{
		"id":   {"  "},
		"imei": {"999"},
	}
	msg, _ = d.DecodeAt(params, decodeNow)
	if msg.MobileID != "999" {
		t.Errorf("MobileID = %q, want 999", msg.MobileID)
	}
}

func TestDecodeDiscreteFields(t *testing.T) {
	d := NewDecoder(DefaultProfile())
	params := url.Values{
		"id":       {"dev1"},
		"lat":      {"39.1515"},
		"lon":      {"-121.1322"},
		"mph":      {"10"},
		"head":     {"SSW"},
		"altft":    {"1000"},
		"odomiles": {"100"},
		"epoch":    {"1393675200"},
		"batt":     {"87"},
		"battv":    {"4.1"},
		"mcc":      {"310"},
		"mnc":      {"26"},
		"lac":      {"1234"},
		"cid":      {"56789"},
	}
	msg, err := d.DecodeAt(params, decodeNow)
	if err != nil {
		t.Fatalf("DecodeAt() error: %v", err)
	}
	if !msg.ValidFix {
		t.Error("expected valid fix")
	}
	if !almostEqual(msg.SpeedKPH, 16.09344, 0.001) {
		t.Errorf("SpeedKPH = %v, want 16.09344", msg.SpeedKPH)
	}
	if !almostEqual(msg.HeadingDeg, 202.5, 0.01) {
		t.Errorf("HeadingDeg = %v, want 202.5", msg.HeadingDeg)
	}
	if !almostEqual(msg.AltitudeM, 304.8, 0.01) {
		t.Errorf("AltitudeM = %v, want 304.8", msg.AltitudeM)
	}
	if !msg.HasOdometer || !almostEqual(msg.OdometerKM, 160.9344, 0.001) {
		t.Errorf("OdometerKM = %v, want 160.9344", msg.OdometerKM)
	}
	if msg.FixTime.Unix() != 1393675200 {
		t.Errorf("FixTime = %v", msg.FixTime.Unix())
	}
	if msg.BatteryRaw != "87" {
		t.Errorf("BatteryRaw = %q", msg.BatteryRaw)
	}
	if !almostEqual(msg.BatteryVolts, 4.1, 0.001) {
		t.Errorf("BatteryVolts = %v", msg.BatteryVolts)
	}
	if msg.Cell == nil || msg.Cell.MCC != 310 || msg.Cell.CID != 56789 {
		t.Errorf("Cell = %+v", msg.Cell)
	}
}

func TestDecodeNoLocationData(t *testing.T) {
	d := NewDecoder(DefaultProfile())
	params := url.Values{
		"acct": {"test"},
		"dev":  {"test01"},
	}
	msg, err := d.DecodeAt(params, decodeNow)
	if err != nil {
		t.Fatalf("DecodeAt() error: %v", err)
	}
	if msg.HasLocationData() {
		t.Error("HasLocationData() = true for an empty request")
	}

	// A bare status token still counts as data worth processing.
	params.Set("code", "ACCON")
	msg, _ = d.DecodeAt(params, decodeNow)
	if !msg.HasLocationData() {
		t.Error("HasLocationData() = false with a status token present")
	}
}

func TestDecodeMalformedSentence(t *testing.T) {
	d := NewDecoder(DefaultProfile())
	params := url.Values{
		"acct":  {"test"},
		"dev":   {"test01"},
		"gprmc": {"$GPRMC,garbage"},
	}
	if _, err := d.DecodeAt(params, decodeNow); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestDecodeGC101Keys(t *testing.T) {
	d := NewDecoder(GC101Profile())
	params := url.Values{
		"imei": {"471923002250245"},
		"rmc":  {"$GPRMC,023000.000,A,3130.0577,N,14271.7421,W,0.53,208.37,210507,,*19,AUTO"},
	}
	msg, err := d.DecodeAt(params, decodeNow)
	if err != nil {
		t.Fatalf("DecodeAt() error: %v", err)
	}
	if msg.MobileID != "471923002250245" {
		t.Errorf("MobileID = %q", msg.MobileID)
	}
	if msg.StatusToken != "AUTO" {
		t.Errorf("StatusToken = %q, want AUTO", msg.StatusToken)
	}
	if !almostEqual(msg.Latitude, 31.500962, 1e-4) {
		t.Errorf("Latitude = %v", msg.Latitude)
	}
}

func TestVersionReply(t *testing.T) {
	if got := DefaultProfile().VersionReply(); got != "OK:version:ver=gprmc-2.2.7;" {
		t.Errorf("VersionReply() = %q", got)
	}
	if got := GC101Profile().VersionReply(); got != "OK:version:ver=gc101-2.1.4;" {
		t.Errorf("VersionReply() = %q", got)
	}
}
