package repository

import (
	"fmt"
	"sync"

	"fleettrack/internal/core/model"
)

type inMemoryDeviceRepository struct {
	devices map[string]*model.Device // keyed by internal ID
	mutex   sync.RWMutex
}

func NewInMemoryDeviceRepository() DeviceRepository {
	return &inMemoryDeviceRepository{
		devices: make(map[string]*model.Device),
	}
}

func (r *inMemoryDeviceRepository) Create(device *model.Device) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.devices[device.ID]; exists {
		return fmt.Errorf("device with ID %s already exists", device.ID)
	}

	r.devices[device.ID] = device
	return nil
}

func (r *inMemoryDeviceRepository) Update(device *model.Device) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.devices[device.ID]; !exists {
		return fmt.Errorf("device with ID %s not found", device.ID)
	}

	r.devices[device.ID] = device
	return nil
}

func (r *inMemoryDeviceRepository) FindByUniqueID(uniqueID string) (*model.Device, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, device := range r.devices {
		if device.UniqueID == uniqueID {
			return device, nil
		}
	}
	return nil, nil
}

func (r *inMemoryDeviceRepository) FindByAccountDevice(accountID, deviceID string) (*model.Device, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, device := range r.devices {
		if device.AccountID == accountID && device.DeviceID == deviceID {
			return device, nil
		}
	}
	return nil, nil
}

func (r *inMemoryDeviceRepository) FindAll() ([]*model.Device, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	devices := make([]*model.Device, 0, len(r.devices))
	for _, device := range r.devices {
		devices = append(devices, device)
	}
	return devices, nil
}
