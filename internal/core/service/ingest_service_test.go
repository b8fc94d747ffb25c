package service

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	"fleettrack/internal/core/model"
	"fleettrack/internal/core/repository"
	"fleettrack/internal/protocol/gprmc"
	"fleettrack/internal/protocol/status"
)

type testHarness struct {
	ingest     IngestService
	deviceRepo repository.DeviceRepository
	eventRepo  repository.EventRepository
	zoneRepo   repository.GeozoneRepository
	unassigned repository.UnassignedRepository
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	deviceRepo := repository.NewInMemoryDeviceRepository()
	eventRepo := repository.NewInMemoryEventRepository()
	zoneRepo := repository.NewInMemoryGeozoneRepository()
	unassigned := repository.NewInMemoryUnassignedRepository()

	deviceService := NewDeviceService(deviceRepo, unassigned)
	geozoneService := NewGeozoneService(zoneRepo)
	ingest := NewIngestService(deviceService, geozoneService, eventRepo, nil, true)
	ingest.RegisterProfile(gprmc.GC101Profile())
	ingest.RegisterProfile(gprmc.DefaultProfile())

	return &testHarness{
		ingest:     ingest,
		deviceRepo: deviceRepo,
		eventRepo:  eventRepo,
		zoneRepo:   zoneRepo,
		unassigned: unassigned,
	}
}

func (h *testHarness) addDevice(t *testing.T, accountID, deviceID, uniqueID string) *model.Device {
	t.Helper()
	device := model.NewDevice(accountID, deviceID, uniqueID)
	if err := h.deviceRepo.Create(device); err != nil {
		t.Fatal(err)
	}
	return device
}

func TestIngestGC101KnownDevice(t *testing.T) {
	h := newHarness(t)
	h.addDevice(t, "acme", "tracker1", "gc101_471923002250245")

	params := url.Values{
		"imei": {"471923002250245"},
		"rmc":  {"$GPRMC,023000.000,A,3130.0577,N,14271.7421,W,0.53,208.37,210507,,*19,AUTO"},
	}
	resp := h.ingest.Ingest(context.Background(), "gc101", params, "10.0.0.1")
	if resp.Body != "OK" {
		t.Errorf("Body = %q, want OK", resp.Body)
	}
	if resp.Events != 1 {
		t.Fatalf("Events = %d, want 1", resp.Events)
	}

	ev, err := h.eventRepo.FindLatestByDevice("acme", "tracker1")
	if err != nil || ev == nil {
		t.Fatalf("no persisted event (err %v)", err)
	}
	if ev.StatusCode != status.Location {
		t.Errorf("StatusCode = %s, want Location", status.String(ev.StatusCode))
	}
	if !almostEqual(ev.Latitude, 31.5010, 0.001) {
		t.Errorf("Latitude = %v, want about 31.5010", ev.Latitude)
	}
	if !almostEqual(ev.Longitude, -143.1957, 0.001) {
		t.Errorf("Longitude = %v, want about -143.1957", ev.Longitude)
	}
	if !ev.HasValidFix() {
		t.Error("expected a valid fix")
	}

	// Last-seen bookkeeping was flushed.
	dev, _ := h.deviceRepo.FindByUniqueID("gc101_471923002250245")
	if dev.LastEventTime != ev.FixTime || dev.IPAddressCurrent != "10.0.0.1" {
		t.Errorf("device not touched: %+v", dev)
	}
	if dev.DeviceCode != "gc101" {
		t.Errorf("DeviceCode = %q", dev.DeviceCode)
	}
}

func TestIngestGC101UnknownDevice(t *testing.T) {
	h := newHarness(t)

	params := url.Values{
		"imei": {"471923002250245"},
		"rmc":  {"$GPRMC,023000.000,A,3130.0577,N,14271.7421,W,0.53,208.37,210507,,*19,AUTO"},
	}
	resp := h.ingest.Ingest(context.Background(), "gc101", params, "10.0.0.1")
	if resp.Body != "" {
		t.Errorf("Body = %q, want empty error response", resp.Body)
	}
	if resp.Events != 0 {
		t.Errorf("Events = %d, want 0", resp.Events)
	}

	// The identity was recorded for operator follow-up.
	records, _ := h.unassigned.FindAll()
	if len(records) != 1 {
		t.Fatalf("unassigned records = %d, want 1", len(records))
	}
	if records[0].UniqueID != "471923002250245" || records[0].Protocol != "gc101" {
		t.Errorf("unexpected unassigned record: %+v", records[0])
	}
}

func TestIngestGPRMCSlowSpeedSuppressed(t *testing.T) {
	h := newHarness(t)
	h.addDevice(t, "test", "test01", "")

	params := url.Values{
		"acct":  {"test"},
		"dev":   {"test01"},
		"gprmc": {"$GPRMC,204852,A,3909.0952,N,12107.936,W,0,000.0,191112,,*27"},
	}
	resp := h.ingest.Ingest(context.Background(), "gprmc", params, "10.0.0.1")
	if resp.Body != "OK" {
		t.Errorf("Body = %q, want OK", resp.Body)
	}

	ev, _ := h.eventRepo.FindLatestByDevice("test", "test01")
	if ev == nil {
		t.Fatal("no persisted event")
	}
	if ev.SpeedKPH != 0 || ev.HeadingDeg != 0 {
		t.Errorf("speed/heading = (%v, %v), want (0, 0)", ev.SpeedKPH, ev.HeadingDeg)
	}
}

func TestIngestVersionHandshake(t *testing.T) {
	h := newHarness(t)

	params := url.Values{"cmd": {"version"}}
	resp := h.ingest.Ingest(context.Background(), "gprmc", params, "10.0.0.1")
	if resp.Body != "OK:version:ver=gprmc-2.2.7;" {
		t.Errorf("Body = %q", resp.Body)
	}
	if resp.Events != 0 {
		t.Errorf("Events = %d, want 0", resp.Events)
	}
}

func TestIngestPrefixPrecedence(t *testing.T) {
	h := newHarness(t)
	h.addDevice(t, "acme", "first", "gc101_123")
	h.addDevice(t, "acme", "second", "imei_123")

	params := url.Values{
		"imei": {"123"},
		"rmc":  {"$GPRMC,023000.000,A,3130.0577,N,12171.7421,W,10.0,208.37,210507,,*19,AUTO"},
	}
	resp := h.ingest.Ingest(context.Background(), "gc101", params, "10.0.0.1")
	if resp.Body != "OK" {
		t.Fatalf("Body = %q", resp.Body)
	}

	// gc101_ precedes imei_ in the profile's prefix list.
	if ev, _ := h.eventRepo.FindLatestByDevice("acme", "first"); ev == nil {
		t.Error("event not attributed to the first-prefix device")
	}
	if ev, _ := h.eventRepo.FindLatestByDevice("acme", "second"); ev != nil {
		t.Error("event wrongly attributed to the second-prefix device")
	}
}

func TestIngestDeviceIDAsMobileIDFallback(t *testing.T) {
	h := newHarness(t)
	h.addDevice(t, "acme", "roamer", "imei_555")

	// Device ID supplied without an account: treated as a mobile ID.
	params := url.Values{
		"dev":   {"555"},
		"gprmc": {"$GPRMC,204852,A,3909.0952,N,12107.936,W,12,90.0,191112,,*27"},
	}
	resp := h.ingest.Ingest(context.Background(), "gprmc", params, "10.0.0.1")
	if resp.Body != "OK" {
		t.Errorf("Body = %q, want OK", resp.Body)
	}
	if ev, _ := h.eventRepo.FindLatestByDevice("acme", "roamer"); ev == nil {
		t.Error("fallback resolution failed")
	}
}

func TestIngestAuthFailures(t *testing.T) {
	h := newHarness(t)
	dev := h.addDevice(t, "acme", "locked", "imei_777")
	dev.DataKey = "secret"
	dev.AllowedIPs = "10.0.0.*"

	sentence := "$GPRMC,204852,A,3909.0952,N,12107.936,W,12,90.0,191112,,*27"

	// Wrong PIN.
	params := url.Values{"id": {"777"}, "pass": {"wrong"}, "gprmc": {sentence}}
	if resp := h.ingest.Ingest(context.Background(), "gprmc", params, "10.0.0.9"); resp.Body != "ERROR" {
		t.Errorf("wrong PIN Body = %q, want ERROR", resp.Body)
	}

	// Right PIN, bad source IP.
	params = url.Values{"id": {"777"}, "pass": {"secret"}, "gprmc": {sentence}}
	if resp := h.ingest.Ingest(context.Background(), "gprmc", params, "192.168.1.4"); resp.Body != "ERROR" {
		t.Errorf("bad IP Body = %q, want ERROR", resp.Body)
	}

	// Right PIN, allowed IP.
	if resp := h.ingest.Ingest(context.Background(), "gprmc", params, "10.0.0.9"); resp.Body != "OK" {
		t.Errorf("valid request Body = %q, want OK", resp.Body)
	}

	if events, _ := h.eventRepo.FindByDevice("acme", "locked", 0); len(events) != 1 {
		t.Errorf("persisted events = %d, want 1", len(events))
	}
}

func TestIngestNoLocationDataIsNoOp(t *testing.T) {
	h := newHarness(t)
	h.addDevice(t, "test", "test01", "")

	params := url.Values{
		"acct": {"test"},
		"dev":  {"test01"},
	}
	resp := h.ingest.Ingest(context.Background(), "gprmc", params, "10.0.0.1")
	if resp.Body != "OK" {
		t.Errorf("Body = %q, want OK", resp.Body)
	}
	if resp.Events != 0 {
		t.Errorf("Events = %d, want 0", resp.Events)
	}
}

func TestIngestGeozoneArrival(t *testing.T) {
	h := newHarness(t)
	dev := h.addDevice(t, "acme", "truck01", "imei_900")

	// Previous position outside the zone.
	dev.LastValidLat = 39.00
	dev.LastValidLon = -121.00
	dev.LastEventTime = 1352400000
	prevEventTime := dev.LastEventTime

	zone := model.NewGeozone("acme", "depot", model.ZoneCircle)
	zone.RadiusM = 2000
	zone.Points = []model.LatLon{{Lat: 39.1515, Lon: -121.1322}}
	if err := h.zoneRepo.Create(zone); err != nil {
		t.Fatal(err)
	}

	// Current fix inside the zone; plain location status.
	params := url.Values{
		"id":    {"900"},
		"gprmc": {"$GPRMC,204852,A,3909.0952,N,12107.936,W,12,90.0,191112,,*27"},
	}
	resp := h.ingest.Ingest(context.Background(), "gprmc", params, "10.0.0.1")
	if resp.Body != "OK" {
		t.Fatalf("Body = %q", resp.Body)
	}

	events, _ := h.eventRepo.FindByDevice("acme", "truck01", 0)
	if len(events) != 1 {
		t.Fatalf("persisted events = %d, want 1 (primary skipped on geozone fire)", len(events))
	}
	if events[0].StatusCode != status.GeofenceArrive {
		t.Errorf("StatusCode = %s, want GeofenceArrive", status.String(events[0].StatusCode))
	}
	if events[0].GeozoneID != zone.ID {
		t.Errorf("GeozoneID = %q, want %q", events[0].GeozoneID, zone.ID)
	}

	// The arrival is timestamped between the previous and current fixes.
	fixTime := int64(1353358132) // 2012-11-19T20:48:52Z
	if events[0].FixTime <= prevEventTime || events[0].FixTime > fixTime {
		t.Errorf("transition FixTime = %d, want within (%d, %d]", events[0].FixTime, prevEventTime, fixTime)
	}
}

func TestIngestOverlappingGeozoneArrivals(t *testing.T) {
	h := newHarness(t)
	dev := h.addDevice(t, "acme", "truck03", "imei_902")
	dev.LastValidLat = 39.00
	dev.LastValidLon = -121.00
	dev.LastEventTime = 1352400000

	// Concentric zones: one fix enters both at once.
	for i, radius := range []float64{2000, 5000} {
		zone := model.NewGeozone("acme", fmt.Sprintf("ring%d", i), model.ZoneCircle)
		zone.RadiusM = radius
		zone.Points = []model.LatLon{{Lat: 39.1515, Lon: -121.1322}}
		if err := h.zoneRepo.Create(zone); err != nil {
			t.Fatal(err)
		}
	}

	params := url.Values{
		"id":    {"902"},
		"gprmc": {"$GPRMC,204852,A,3909.0952,N,12107.936,W,12,90.0,191112,,*27"},
	}
	resp := h.ingest.Ingest(context.Background(), "gprmc", params, "10.0.0.1")
	if resp.Body != "OK" {
		t.Fatalf("Body = %q", resp.Body)
	}
	if resp.Events != 2 {
		t.Fatalf("Events = %d, want both arrivals persisted", resp.Events)
	}

	events, _ := h.eventRepo.FindByDevice("acme", "truck03", 0)
	if len(events) != 2 {
		t.Fatalf("persisted events = %d, want 2", len(events))
	}
	for _, ev := range events {
		if ev.StatusCode != status.GeofenceArrive {
			t.Errorf("StatusCode = %s, want GeofenceArrive", status.String(ev.StatusCode))
		}
	}
	if events[0].FixTime == events[1].FixTime {
		t.Errorf("arrival timestamps collide at %d", events[0].FixTime)
	}
}

func TestIngestGeozoneKeepsNonLocationPrimary(t *testing.T) {
	h := newHarness(t)
	dev := h.addDevice(t, "acme", "truck02", "imei_901")
	dev.LastValidLat = 39.00
	dev.LastValidLon = -121.00
	dev.LastEventTime = 1352400000

	zone := model.NewGeozone("acme", "depot", model.ZoneCircle)
	zone.RadiusM = 2000
	zone.Points = []model.LatLon{{Lat: 39.1515, Lon: -121.1322}}
	if err := h.zoneRepo.Create(zone); err != nil {
		t.Fatal(err)
	}

	params := url.Values{
		"id":    {"901"},
		"code":  {"ACCON"},
		"gprmc": {"$GPRMC,204852,A,3909.0952,N,12107.936,W,12,90.0,191112,,*27"},
	}
	if resp := h.ingest.Ingest(context.Background(), "gprmc", params, "10.0.0.1"); resp.Body != "OK" {
		t.Fatalf("Body = %q", resp.Body)
	}

	events, _ := h.eventRepo.FindByDevice("acme", "truck02", 0)
	if len(events) != 2 {
		t.Fatalf("persisted events = %d, want transition plus primary", len(events))
	}
	// FindByDevice sorts newest first: primary ignition event, then arrival.
	if events[0].StatusCode != status.IgnitionOn || events[1].StatusCode != status.GeofenceArrive {
		t.Errorf("statuses = (%s, %s)", status.String(events[0].StatusCode), status.String(events[1].StatusCode))
	}
}

func TestIngestIgnoredStatusAcksOK(t *testing.T) {
	h := newHarness(t)
	h.addDevice(t, "test", "test01", "")

	params := url.Values{
		"acct":  {"test"},
		"dev":   {"test01"},
		"code":  {"0xFFFF"}, // ignore sentinel
		"gprmc": {"$GPRMC,204852,A,3909.0952,N,12107.936,W,12,90.0,191112,,*27"},
	}
	resp := h.ingest.Ingest(context.Background(), "gprmc", params, "10.0.0.1")
	if resp.Body != "OK" {
		t.Errorf("Body = %q, want OK", resp.Body)
	}
	if resp.Events != 0 {
		t.Errorf("Events = %d, want 0", resp.Events)
	}
}

func TestIngestMalformedSentence(t *testing.T) {
	h := newHarness(t)
	h.addDevice(t, "test", "test01", "")

	params := url.Values{
		"acct":  {"test"},
		"dev":   {"test01"},
		"gprmc": {"$GPRMC,totally,broken"},
	}
	resp := h.ingest.Ingest(context.Background(), "gprmc", params, "10.0.0.1")
	if resp.Body != "ERROR" {
		t.Errorf("Body = %q, want ERROR", resp.Body)
	}
	if resp.Events != 0 {
		t.Errorf("Events = %d, want 0", resp.Events)
	}
}
