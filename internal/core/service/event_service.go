package service

import (
	"errors"

	"fleettrack/internal/core/model"
	"fleettrack/internal/core/repository"
)

// EventService is the read-side surface for the operator API.
type EventService interface {
	GetLatestEvent(accountID, deviceID string) (*model.Event, error)
	GetDeviceEvents(accountID, deviceID string, limit int64) ([]*model.Event, error)
}

type eventService struct {
	eventRepo repository.EventRepository
}

func NewEventService(eventRepo repository.EventRepository) EventService {
	return &eventService{eventRepo: eventRepo}
}

func (s *eventService) GetLatestEvent(accountID, deviceID string) (*model.Event, error) {
	if accountID == "" || deviceID == "" {
		return nil, errors.New("invalid account or device ID")
	}
	return s.eventRepo.FindLatestByDevice(accountID, deviceID)
}

func (s *eventService) GetDeviceEvents(accountID, deviceID string, limit int64) ([]*model.Event, error) {
	if accountID == "" || deviceID == "" {
		return nil, errors.New("invalid account or device ID")
	}
	return s.eventRepo.FindByDevice(accountID, deviceID, limit)
}
