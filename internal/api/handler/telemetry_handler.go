package handler

import (
	"net/http"

	"fleettrack/internal/api/util"
	"fleettrack/internal/core/service"
)

// TelemetryHandler is the device-facing endpoint. Trackers speak plain
// text: whatever parameters arrive (query string or form body) are handed
// to the ingest orchestrator and the acknowledgement is written verbatim.
type TelemetryHandler struct {
	ingestService service.IngestService
}

func NewTelemetryHandler(ingestService service.IngestService) *TelemetryHandler {
	return &TelemetryHandler{
		ingestService: ingestService,
	}
}

// Data serves one check-in for the named protocol profile. Both GET and
// POST are accepted because tracker firmwares disagree on which to use.
func (h *TelemetryHandler) Data(profileName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		resp := h.ingestService.Ingest(r.Context(), profileName, r.Form, util.ClientIP(r))

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(resp.Body))
	}
}
