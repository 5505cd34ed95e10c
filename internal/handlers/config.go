package handlers

import "net/http"

// ConfigResponse is the UI bootstrap configuration.
type ConfigResponse struct {
	AppName         string `json:"appName"`
	SearchEnabled   bool   `json:"searchEnabled"`
	MaxClipDuration int    `json:"maxClipDuration"`
	MaxQueueSize    int    `json:"maxQueueSize"`
}

// GetConfig returns the settings the UI needs to render its forms.
func (h *Handlers) GetConfig(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, ConfigResponse{
		AppName:         h.config.AppName,
		SearchEnabled:   h.search != nil,
		MaxClipDuration: h.config.MaxClipDuration,
		MaxQueueSize:    h.config.MaxQueueSize,
	})
}
