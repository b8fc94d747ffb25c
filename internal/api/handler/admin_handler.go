package handler

import (
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"

	"fleettrack/internal/core/service"
)

// AdminHandler is the operator-facing JSON API for inspecting devices and
// their ingested events.
type AdminHandler struct {
	deviceService service.DeviceService
	eventService  service.EventService
}

func NewAdminHandler(deviceService service.DeviceService, eventService service.EventService) *AdminHandler {
	return &AdminHandler{
		deviceService: deviceService,
		eventService:  eventService,
	}
}

type createDeviceRequest struct {
	AccountID string `json:"accountId"`
	DeviceID  string `json:"deviceId"`
	UniqueID  string `json:"uniqueId,omitempty"`
}

func (h *AdminHandler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	device, err := h.deviceService.CreateDevice(req.AccountID, req.DeviceID, req.UniqueID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, device)
}

func (h *AdminHandler) GetDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.deviceService.GetAllDevices()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, devices)
}

func (h *AdminHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	uniqueID := r.URL.Query().Get("uniqueId")
	if uniqueID == "" {
		http.Error(w, "uniqueId required", http.StatusBadRequest)
		return
	}

	device, err := h.deviceService.GetDeviceByUniqueID(uniqueID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if device == nil {
		http.Error(w, "Device not found", http.StatusNotFound)
		return
	}
	writeJSON(w, device)
}

func (h *AdminHandler) GetLatestEvent(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account")
	deviceID := r.URL.Query().Get("device")

	event, err := h.eventService.GetLatestEvent(accountID, deviceID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if event == nil {
		http.Error(w, "No events for device", http.StatusNotFound)
		return
	}
	writeJSON(w, event)
}

func (h *AdminHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account")
	deviceID := r.URL.Query().Get("device")

	var limit int64
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = v
	}

	events, err := h.eventService.GetDeviceEvents(accountID, deviceID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, events)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
