package service

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"fleettrack/internal/core/model"
	"fleettrack/internal/core/repository"
	"fleettrack/internal/protocol/gprmc"
	"fleettrack/internal/protocol/status"
	"fleettrack/internal/rawlog"
)

// Response is the outcome of one ingest call. Body is the exact plain-text
// acknowledgement owed to the device; Events counts what was persisted.
type Response struct {
	Body   string
	Events int
}

// IngestService is the per-request orchestrator:
// parse -> resolve device -> normalize -> simulate geozones -> persist ->
// touch device -> acknowledge. It holds no per-request state; every call is
// independent and the only blocking points are the repository calls.
type IngestService interface {
	RegisterProfile(profile *gprmc.Profile)
	Ingest(ctx context.Context, profileName string, params url.Values, remoteIP string) Response
}

type ingestService struct {
	deviceService  DeviceService
	geozoneService GeozoneService
	eventRepo      repository.EventRepository
	spool          *rawlog.Spool

	ackOnPersistError bool

	decoders    map[string]*gprmc.Decoder
	translators map[string]*status.Translator
}

func NewIngestService(
	deviceService DeviceService,
	geozoneService GeozoneService,
	eventRepo repository.EventRepository,
	spool *rawlog.Spool,
	ackOnPersistError bool,
) IngestService {
	return &ingestService{
		deviceService:     deviceService,
		geozoneService:    geozoneService,
		eventRepo:         eventRepo,
		spool:             spool,
		ackOnPersistError: ackOnPersistError,
		decoders:          make(map[string]*gprmc.Decoder),
		translators:       make(map[string]*status.Translator),
	}
}

func (s *ingestService) RegisterProfile(profile *gprmc.Profile) {
	s.decoders[profile.Name] = gprmc.NewDecoder(profile)
	s.translators[profile.Name] = status.NewTranslator(profile.StatusOverrides)
}

func (s *ingestService) Ingest(ctx context.Context, profileName string, params url.Values, remoteIP string) Response {
	decoder, ok := s.decoders[profileName]
	if !ok {
		log.Error().Str("profile", profileName).Msg("unknown protocol profile")
		return Response{Body: ""}
	}
	profile := decoder.Profile()
	translator := s.translators[profileName]

	s.spool.Append(rawlog.Record{
		ReceivedAt: time.Now().UTC(),
		Protocol:   profileName,
		RemoteIP:   remoteIP,
		Payload:    params.Encode(),
	})

	// A version handshake is answered before any telemetry parsing.
	if cmd := firstCommand(params, profile); cmd != "" {
		if cmd == "version" {
			return Response{Body: profile.VersionReply()}
		}
		log.Debug().Str("cmd", cmd).Msg("unsupported command")
		return Response{Body: profile.ResponseError}
	}

	msg, err := decoder.Decode(params)
	if err != nil {
		log.Warn().Err(err).Str("profile", profileName).Str("ip", remoteIP).Msg("malformed telemetry")
		return Response{Body: profile.ResponseError}
	}
	if msg.TimeWarn != nil {
		log.Warn().Err(msg.TimeWarn).Str("profile", profileName).Msg("fix time fell back to server clock")
	}

	device, err := s.deviceService.Resolve(ctx, profile, remoteIP, msg.MobileID, msg.AccountID, msg.DeviceID, msg.AuthCode)
	if err != nil {
		// Not-found and unauthorized deliberately share a response so the
		// caller cannot probe which check failed.
		if errors.Is(err, ErrUnauthorized) {
			return Response{Body: profile.ResponseNotAuth}
		}
		if errors.Is(err, ErrDeviceNotFound) {
			return Response{Body: profile.ResponseError}
		}
		log.Error().Err(err).Msg("device resolution failed")
		return Response{Body: profile.ResponseError}
	}

	if !msg.HasLocationData() {
		log.Debug().Str("device", device.DeviceID).Msg("no location data, acknowledging")
		return Response{Body: profile.ResponseOK}
	}

	event, dropped := buildEvent(msg, device, profile, translator)
	if dropped {
		log.Debug().Str("device", device.DeviceID).Msg("invalid fix suppressed")
		return Response{Body: profile.ResponseOK}
	}
	// Ignore/None sentinel codes drop the message but still ack OK.
	if event.StatusCode == status.Ignore || event.StatusCode == status.None {
		return Response{Body: profile.ResponseOK}
	}

	events := s.withGeozoneEvents(device, profile, event)

	persisted := 0
	for _, ev := range events {
		if err := s.eventRepo.Insert(ev); err != nil {
			log.Error().Err(err).
				Str("account", ev.AccountID).
				Str("device", ev.DeviceID).
				Int64("fixTime", ev.FixTime).
				Str("status", status.String(ev.StatusCode)).
				Msg("event insert failed")
			if !s.ackOnPersistError {
				return Response{Body: profile.ResponseError, Events: persisted}
			}
			continue
		}
		persisted++
	}

	s.touchDevice(ctx, device, profile, remoteIP, events)
	return Response{Body: profile.ResponseOK, Events: persisted}
}

// withGeozoneEvents runs the geozone simulation and orders any synthesized
// transition events ahead of the primary so insertion order follows event
// time. When a transition fired and the primary is a plain location report,
// the primary duplicates the transition's position and may be skipped.
func (s *ingestService) withGeozoneEvents(device *model.Device, profile *gprmc.Profile, primary *model.Event) []*model.Event {
	if !profile.SimulateGeozones || !primary.HasValidFix() {
		return []*model.Event{primary}
	}

	transitions, err := s.geozoneService.Crossings(device, primary.Latitude, primary.Longitude, primary.FixTime)
	if err != nil {
		log.Warn().Err(err).Msg("geozone query failed, skipping simulation")
		return []*model.Event{primary}
	}
	if len(transitions) == 0 {
		return []*model.Event{primary}
	}

	events := make([]*model.Event, 0, len(transitions)+1)
	for _, t := range transitions {
		ev := model.NewEvent(primary.AccountID, primary.DeviceID, t.Timestamp, t.StatusCode)
		ev.Latitude = primary.Latitude
		ev.Longitude = primary.Longitude
		ev.SpeedKPH = primary.SpeedKPH
		ev.HeadingDeg = primary.HeadingDeg
		ev.AltitudeM = primary.AltitudeM
		ev.OdometerKM = primary.OdometerKM
		ev.HDOP = primary.HDOP
		ev.Satellites = primary.Satellites
		ev.BatteryLevel = primary.BatteryLevel
		ev.BatteryVolts = primary.BatteryVolts
		ev.GeozoneID = t.Zone.ID
		events = append(events, ev)
	}

	if profile.SkipLocationOnGeozone && primary.StatusCode == status.Location {
		return events
	}
	return append(events, primary)
}

// touchDevice stamps the post-ingest bookkeeping on the resolved identity
// and flushes it. Failures are logged, not surfaced: the events are already
// stored and the device has been answered.
func (s *ingestService) touchDevice(ctx context.Context, device *model.Device, profile *gprmc.Profile, remoteIP string, events []*model.Event) {
	device.IPAddressCurrent = remoteIP
	device.DeviceCode = profile.DeviceCode
	device.CodeVersion = profile.Version
	device.LastConnectTime = time.Now().Unix()

	last := events[len(events)-1]
	if last.FixTime > device.LastEventTime {
		device.LastEventTime = last.FixTime
		device.LastStatusCode = last.StatusCode
	}
	device.LastOdometerKM = last.OdometerKM
	if last.HasValidFix() {
		device.LastValidLat = last.Latitude
		device.LastValidLon = last.Longitude
	}

	if err := s.deviceService.Touch(ctx, device); err != nil {
		log.Warn().Err(err).Str("device", device.DeviceID).Msg("device touch failed")
	}
}

func firstCommand(params url.Values, profile *gprmc.Profile) string {
	for _, key := range profile.Keys.Command {
		if v := params.Get(key); v != "" {
			return v
		}
	}
	return ""
}
