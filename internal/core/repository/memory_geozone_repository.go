package repository

import (
	"sync"

	"fleettrack/internal/core/model"
)

type inMemoryGeozoneRepository struct {
	zones []*model.Geozone
	mutex sync.RWMutex
}

func NewInMemoryGeozoneRepository() GeozoneRepository {
	return &inMemoryGeozoneRepository{}
}

func (r *inMemoryGeozoneRepository) Create(zone *model.Geozone) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.zones = append(r.zones, zone)
	return nil
}

func (r *inMemoryGeozoneRepository) FindByAccount(accountID string) ([]*model.Geozone, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var zones []*model.Geozone
	for _, z := range r.zones {
		if z.AccountID == accountID {
			zones = append(zones, z)
		}
	}
	return zones, nil
}
