package repository

import (
	"sync"
	"time"

	"fleettrack/internal/core/model"
)

type inMemoryUnassignedRepository struct {
	records map[string]*model.UnassignedDevice // keyed by protocol+uniqueID
	mutex   sync.RWMutex
}

func NewInMemoryUnassignedRepository() UnassignedRepository {
	return &inMemoryUnassignedRepository{
		records: make(map[string]*model.UnassignedDevice),
	}
}

func (r *inMemoryUnassignedRepository) Record(protocol, uniqueID, ipAddress string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.records[protocol+"/"+uniqueID] = &model.UnassignedDevice{
		Protocol:  protocol,
		UniqueID:  uniqueID,
		IPAddress: ipAddress,
		SeenAt:    time.Now().UTC(),
	}
	return nil
}

func (r *inMemoryUnassignedRepository) FindAll() ([]*model.UnassignedDevice, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	records := make([]*model.UnassignedDevice, 0, len(r.records))
	for _, rec := range r.records {
		records = append(records, rec)
	}
	return records, nil
}
