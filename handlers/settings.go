package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"cinelog/config"
	"cinelog/services/catalog"
)

type SettingsHandler struct {
	Manager *config.Manager

	// Optional, set after construction so settings changes hot-reload the
	// catalog provider without a restart.
	Catalog *catalog.Service
}

func NewSettingsHandler(m *config.Manager) *SettingsHandler {
	return &SettingsHandler{Manager: m}
}

// SetCatalogService wires the catalog service for hot reloading API keys.
func (h *SettingsHandler) SetCatalogService(c *catalog.Service) {
	h.Catalog = c
}

func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Manager.Load()
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s)
}

func (h *SettingsHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var s config.Settings
	dec := json.NewDecoder(r.Body)
	// Allow unknown fields for backward compatibility with old configs
	if err := dec.Decode(&s); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if err := h.Manager.Save(s); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	h.reloadServices(s)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s)
}

func (h *SettingsHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// reloadServices pushes new settings into services that cache configuration
// at startup.
func (h *SettingsHandler) reloadServices(s config.Settings) {
	if h.Catalog != nil {
		h.Catalog.UpdateCredentials(s.Metadata.TMDBAPIKey, s.Metadata.Language)
		log.Printf("[settings] reloaded catalog provider credentials")
	}
}
