package main

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"fleettrack/internal/api/router"
	"fleettrack/internal/cache"
	"fleettrack/internal/config"
	"fleettrack/internal/core/repository"
	"fleettrack/internal/core/service"
	"fleettrack/internal/logger"
	"fleettrack/internal/protocol/datetime"
	"fleettrack/internal/protocol/gprmc"
	"fleettrack/internal/rawlog"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	// Repositories: MongoDB when configured, in-memory otherwise. The
	// in-memory mode loses everything on restart but needs no services,
	// which is what a development box wants.
	var (
		deviceRepo     repository.DeviceRepository
		eventRepo      repository.EventRepository
		geozoneRepo    repository.GeozoneRepository
		unassignedRepo repository.UnassignedRepository
	)
	if cfg.MongoURI != "" {
		db, err := config.ConnectMongoDB(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to MongoDB")
		}
		mongoEvents := repository.NewMongoEventRepository(db)
		if err := mongoEvents.EnsureIndexes(); err != nil {
			log.Fatal().Err(err).Msg("failed to create event indexes")
		}
		deviceRepo = repository.NewMongoDeviceRepository(db)
		eventRepo = mongoEvents
		geozoneRepo = repository.NewMongoGeozoneRepository(db)
		unassignedRepo = repository.NewMongoUnassignedRepository(db)
	} else {
		log.Warn().Msg("MONGODB_URI not set, using in-memory storage")
		deviceRepo = repository.NewInMemoryDeviceRepository()
		eventRepo = repository.NewInMemoryEventRepository()
		geozoneRepo = repository.NewInMemoryGeozoneRepository()
		unassignedRepo = repository.NewInMemoryUnassignedRepository()
	}

	cache.Initialize(cfg.RedisURL)
	defer cache.Close()

	spool := rawlog.NewSpool(cfg.SpoolDir, cfg.SpoolBatchSize, cfg.SpoolFlushInterval)
	defer spool.Close()

	// Initialize services
	deviceService := service.NewDeviceService(deviceRepo, unassignedRepo)
	geozoneService := service.NewGeozoneService(geozoneRepo)
	eventService := service.NewEventService(eventRepo)
	ingestService := service.NewIngestService(deviceService, geozoneService, eventRepo, spool, cfg.AckOnPersistError)

	ingestService.RegisterProfile(gprmc.GC101Profile())
	ingestService.RegisterProfile(tunedDefaultProfile(cfg))

	// Initialize router
	r := router.NewRouter(ingestService, deviceService, eventService)

	// Start server
	log.Info().Str("addr", cfg.HTTPAddr).Msg("server starting")
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}

// tunedDefaultProfile applies the deployment's environment overrides to the
// generic gprmc profile.
func tunedDefaultProfile(cfg *config.Config) *gprmc.Profile {
	p := gprmc.DefaultProfile()
	p.DefaultAccount = cfg.DefaultAccount
	p.MinSpeedKPH = cfg.MinSpeedKPH
	p.DateFormat = datetime.ParseFormat(cfg.DateFormat)
	p.ResponseOK = cfg.ResponseOK
	p.ResponseError = cfg.ResponseError
	p.ResponseNotAuth = cfg.ResponseNotAuth
	p.EstimateOdometer = cfg.EstimateOdometer
	p.SimulateGeozones = cfg.SimulateGeozones
	return p
}
