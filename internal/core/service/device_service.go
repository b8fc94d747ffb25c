package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"fleettrack/internal/cache"
	"fleettrack/internal/core/model"
	"fleettrack/internal/core/repository"
	"fleettrack/internal/protocol/gprmc"
)

var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrUnauthorized   = errors.New("unauthorized device")
)

const deviceCacheTTL = 5 * time.Minute

// DeviceService resolves inbound identities to registered devices and
// flushes post-ingest bookkeeping. Resolve is read-only; Touch is the only
// writer, so the transactional boundary sits at the repository update.
type DeviceService interface {
	Resolve(ctx context.Context, profile *gprmc.Profile, ipAddr, mobileID, accountID, deviceID, authCode string) (*model.Device, error)
	Touch(ctx context.Context, device *model.Device) error
	CreateDevice(accountID, deviceID, uniqueID string) (*model.Device, error)
	GetAllDevices() ([]*model.Device, error)
	GetDeviceByUniqueID(uniqueID string) (*model.Device, error)
}

type deviceService struct {
	deviceRepo     repository.DeviceRepository
	unassignedRepo repository.UnassignedRepository
}

func NewDeviceService(deviceRepo repository.DeviceRepository, unassignedRepo repository.UnassignedRepository) DeviceService {
	return &deviceService{
		deviceRepo:     deviceRepo,
		unassignedRepo: unassignedRepo,
	}
}

// Resolve maps an inbound identity to a device. Precedence:
//  1. mobile-id matched against the profile's unique-ID prefixes in order
//  2. account/device pair (blank account falls back to the profile default)
//
// A device-id without an account is treated as a mobile-id for
// compatibility with trackers that only know one identifier. Unmatched
// identities are recorded for operator follow-up before failing.
func (s *deviceService) Resolve(ctx context.Context, profile *gprmc.Profile, ipAddr, mobileID, accountID, deviceID, authCode string) (*model.Device, error) {
	if mobileID == "" && deviceID != "" && accountID == "" {
		mobileID = deviceID
		deviceID = ""
	}

	var device *model.Device
	var err error

	if mobileID != "" {
		device, err = s.resolveMobileID(ctx, profile, mobileID)
		if err != nil {
			return nil, err
		}
		if device == nil {
			s.recordUnassigned(profile.Name, mobileID, ipAddr)
			return nil, ErrDeviceNotFound
		}
	} else {
		if accountID == "" {
			accountID = profile.DefaultAccount
		}
		if deviceID == "" || accountID == "" {
			return nil, ErrDeviceNotFound
		}
		device, err = s.deviceRepo.FindByAccountDevice(accountID, deviceID)
		if err != nil {
			return nil, err
		}
		if device == nil {
			s.recordUnassigned(profile.Name, accountID+"/"+deviceID, ipAddr)
			return nil, ErrDeviceNotFound
		}
	}

	if !device.Active {
		return nil, ErrDeviceNotFound
	}
	if profile.RequirePIN && !device.ValidateDataKey(authCode) {
		log.Warn().Str("device", device.DeviceID).Msg("data key mismatch")
		return nil, ErrUnauthorized
	}
	if !device.IPAllowed(ipAddr) {
		log.Warn().Str("device", device.DeviceID).Str("ip", ipAddr).Msg("source IP not in allow-list")
		return nil, ErrUnauthorized
	}
	return device, nil
}

// resolveMobileID tries each configured prefix in order; the first match
// wins. The cache fronts the repository per prefixed candidate key.
func (s *deviceService) resolveMobileID(ctx context.Context, profile *gprmc.Profile, mobileID string) (*model.Device, error) {
	prefixes := profile.UniqueIDPrefixes
	if len(prefixes) == 0 {
		prefixes = []string{""}
	}
	for _, prefix := range prefixes {
		uniqueID := prefix + mobileID

		var cached model.Device
		if err := cache.Get(ctx, "device:uid:"+uniqueID, &cached); err == nil {
			return &cached, nil
		} else if !cache.IsMiss(err) {
			log.Warn().Err(err).Msg("device cache read failed")
		}

		device, err := s.deviceRepo.FindByUniqueID(uniqueID)
		if err != nil {
			return nil, err
		}
		if device != nil {
			if err := cache.Set(ctx, "device:uid:"+uniqueID, device, deviceCacheTTL); err != nil {
				log.Warn().Err(err).Msg("device cache write failed")
			}
			return device, nil
		}
	}
	return nil, nil
}

func (s *deviceService) recordUnassigned(protocol, uniqueID, ipAddr string) {
	if err := s.unassignedRepo.Record(protocol, uniqueID, ipAddr); err != nil {
		log.Warn().Err(err).Str("uniqueId", uniqueID).Msg("failed to record unassigned device")
	}
	log.Info().Str("protocol", protocol).Str("uniqueId", uniqueID).Str("ip", ipAddr).Msg("unassigned device reported in")
}

// Touch flushes the post-ingest device bookkeeping (current IP, protocol
// tag, last-seen fields) and invalidates the cache entry so the next
// resolution sees fresh state.
func (s *deviceService) Touch(ctx context.Context, device *model.Device) error {
	if err := s.deviceRepo.Update(device); err != nil {
		return err
	}
	if device.UniqueID != "" {
		if err := cache.Delete(ctx, "device:uid:"+device.UniqueID); err != nil {
			log.Warn().Err(err).Msg("device cache invalidation failed")
		}
	}
	return nil
}

func (s *deviceService) CreateDevice(accountID, deviceID, uniqueID string) (*model.Device, error) {
	if accountID == "" || deviceID == "" {
		return nil, errors.New("invalid device data")
	}
	device := model.NewDevice(accountID, deviceID, uniqueID)
	if err := s.deviceRepo.Create(device); err != nil {
		return nil, err
	}
	return device, nil
}

func (s *deviceService) GetAllDevices() ([]*model.Device, error) {
	return s.deviceRepo.FindAll()
}

func (s *deviceService) GetDeviceByUniqueID(uniqueID string) (*model.Device, error) {
	if uniqueID == "" {
		return nil, errors.New("invalid unique ID")
	}
	return s.deviceRepo.FindByUniqueID(uniqueID)
}
