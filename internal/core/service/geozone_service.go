package service

import (
	"github.com/rs/zerolog/log"

	"fleettrack/internal/core/model"
	"fleettrack/internal/core/repository"
	"fleettrack/internal/protocol/status"
)

// GeozoneService detects boundary crossings between a device's previous
// known position and the current fix.
type GeozoneService interface {
	Crossings(device *model.Device, curLat, curLon float64, curTime int64) ([]*model.GeozoneTransition, error)
	CreateZone(zone *model.Geozone) error
}

type geozoneService struct {
	zoneRepo repository.GeozoneRepository
}

func NewGeozoneService(zoneRepo repository.GeozoneRepository) GeozoneService {
	return &geozoneService{zoneRepo: zoneRepo}
}

// Crossings compares containment of the previous and current positions for
// every zone owned by the device's account. A transition's timestamp is the
// midpoint of the previous and current fix times: the crossing happened
// somewhere in between and the midpoint keeps the event strictly between
// the two fixes.
func (s *geozoneService) Crossings(device *model.Device, curLat, curLon float64, curTime int64) ([]*model.GeozoneTransition, error) {
	if !device.HasLastPosition() {
		return nil, nil
	}

	zones, err := s.zoneRepo.FindByAccount(device.AccountID)
	if err != nil {
		return nil, err
	}

	crossTime := curTime
	if device.LastEventTime > 0 && device.LastEventTime < curTime {
		crossTime = (device.LastEventTime + curTime) / 2
	}

	var transitions []*model.GeozoneTransition
	for _, zone := range zones {
		was := zone.Contains(device.LastValidLat, device.LastValidLon)
		is := zone.Contains(curLat, curLon)
		if was == is {
			continue
		}

		// Overlapping zones crossed by the same fix get staggered
		// timestamps so each event keeps a distinct natural key.
		t := &model.GeozoneTransition{
			Timestamp: crossTime + int64(len(transitions)),
			Zone:      zone,
			Arrive:    is,
		}
		if is {
			t.StatusCode = status.GeofenceArrive
		} else {
			t.StatusCode = status.GeofenceDepart
		}
		transitions = append(transitions, t)

		log.Debug().
			Str("device", device.DeviceID).
			Str("zone", zone.Description).
			Bool("arrive", is).
			Msg("geozone transition detected")
	}
	return transitions, nil
}

func (s *geozoneService) CreateZone(zone *model.Geozone) error {
	return s.zoneRepo.Create(zone)
}
