// Package handlers provides HTTP handlers for the mock webhook service.
package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ConfigProvider defines the configuration access methods used by the handlers.
type ConfigProvider interface {
	AllowedMethods() []string // AllowedMethods returns the webhook methods currently accepted.
}

// PayloadStore persists an accepted payload and returns where it was written.
type PayloadStore interface {
	Save(prefix string, payload []byte) (path string, err error)
}

// receipt is the response body returned for every stored payload.
type receipt struct {
	Status    string `json:"status"`
	Saved     string `json:"saved"`
	RequestID string `json:"request_id"`
}

// storePrefixes maps well-known DWF methods to their historical file prefixes.
var storePrefixes = map[string]string{
	"frappe_dwf.api.receive_ian": "ian",
	"frappe_dwf.api.create_pps":  "pps",
	"frappe_dwf.api.create_ups":  "ups",
}

// Webhook is a handler accepting JSON payloads for whitelisted DWF methods.
type Webhook struct {
	config        ConfigProvider
	store         PayloadStore
	maxUploadSize int64
}

// NewWebhook creates a new Webhook handler.
func NewWebhook(cfg ConfigProvider, store PayloadStore, maxUploadSize int64) *Webhook {
	return &Webhook{
		config:        cfg,
		store:         store,
		maxUploadSize: maxUploadSize,
	}
}

// ServeHTTP handles incoming webhook requests routed by method name.
func (h *Webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.New().String()
	method := r.PathValue("method")

	slog.Info("Request recv'd", "req_id", reqID, "method", method)

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.allows(method) {
		http.Error(w, "Unknown webhook method", http.StatusForbidden)
		slog.Error("Webhook method not allowed", "req_id", reqID, "method", method)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		slog.Error("Error reading request body", "req_id", reqID, "method", method, "err", err)
		return
	}
	if !json.Valid(payload) {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		slog.Error("Invalid JSON in request body", "req_id", reqID, "method", method)
		return
	}

	saved, err := h.store.Save(storePrefix(method), payload)
	if err != nil {
		http.Error(w, "Error saving payload", http.StatusInternalServerError)
		slog.Error("Error saving payload", "req_id", reqID, "method", method, "err", err)
		return
	}

	slog.Info("Payload stored", "req_id", reqID, "method", method, "target", saved)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(receipt{
		Status:    "received",
		Saved:     saved,
		RequestID: reqID,
	}); err != nil {
		slog.Warn("Failed to write response body", "req_id", reqID, "err", err)
	}
}

func (h *Webhook) allows(method string) bool {
	for _, m := range h.config.AllowedMethods() {
		if m == method {
			return true
		}
	}
	return false
}

// storePrefix returns the file prefix for a method, falling back to the last
// dotted segment for methods only known through the dynamic configuration.
func storePrefix(method string) string {
	if p, ok := storePrefixes[method]; ok {
		return p
	}
	if i := strings.LastIndex(method, "."); i >= 0 {
		return method[i+1:]
	}
	return method
}
