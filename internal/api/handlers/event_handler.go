package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/ild-thl/motbot-sub000/internal/event"
	"github.com/ild-thl/motbot-sub000/internal/models"
)

// EventHandler ingests activity events pushed by the learning platform.
type EventHandler struct {
	detector *event.Detector
}

func NewEventHandler(detector *event.Detector) *EventHandler {
	return &EventHandler{detector: detector}
}

type EventRequest struct {
	Name      string         `json:"name"`
	UserID    uint           `json:"user_id"`
	ContextID uint           `json:"context_id"`
	Data      models.JSONMap `json:"data,omitempty"`
}

func (h *EventHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req EventRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" || req.UserID == 0 {
		respondError(w, http.StatusBadRequest, "Fields name and user_id are required")
		return
	}

	resolved, err := h.detector.HandleEvent(req.Name, req.UserID, req.ContextID, req.Data)
	if err != nil {
		log.Printf("Failed to handle event %s for user %d: %v", req.Name, req.UserID, err)
		respondError(w, http.StatusInternalServerError, "Failed to process event")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"accepted":               true,
		"interventions_resolved": resolved,
	})
}
