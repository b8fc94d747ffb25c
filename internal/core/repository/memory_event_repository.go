package repository

import (
	"fmt"
	"sort"
	"sync"

	"fleettrack/internal/core/model"
)

type inMemoryEventRepository struct {
	events []*model.Event
	keys   map[string]struct{} // natural-key uniqueness
	mutex  sync.RWMutex
}

func NewInMemoryEventRepository() EventRepository {
	return &inMemoryEventRepository{
		keys: make(map[string]struct{}),
	}
}

func naturalKey(e *model.Event) string {
	return fmt.Sprintf("%s/%s/%d/%d", e.AccountID, e.DeviceID, e.FixTime, e.StatusCode)
}

func (r *inMemoryEventRepository) Insert(event *model.Event) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := naturalKey(event)
	if _, exists := r.keys[key]; exists {
		return fmt.Errorf("duplicate event key %s", key)
	}
	r.keys[key] = struct{}{}
	r.events = append(r.events, event)
	return nil
}

func (r *inMemoryEventRepository) FindLatestByDevice(accountID, deviceID string) (*model.Event, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var latest *model.Event
	for _, e := range r.events {
		if e.AccountID != accountID || e.DeviceID != deviceID {
			continue
		}
		if latest == nil || e.FixTime > latest.FixTime {
			latest = e
		}
	}
	return latest, nil
}

func (r *inMemoryEventRepository) FindByDevice(accountID, deviceID string, limit int64) ([]*model.Event, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var events []*model.Event
	for _, e := range r.events {
		if e.AccountID == accountID && e.DeviceID == deviceID {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].FixTime > events[j].FixTime
	})
	if limit > 0 && int64(len(events)) > limit {
		events = events[:limit]
	}
	return events, nil
}
