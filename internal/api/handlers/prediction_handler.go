package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ild-thl/motbot-sub000/internal/intervention"
)

// PredictionHandler accepts predictions over HTTP for deployments without
// the Redis feed.
type PredictionHandler struct {
	service *intervention.Service
}

func NewPredictionHandler(service *intervention.Service) *PredictionHandler {
	return &PredictionHandler{service: service}
}

func (h *PredictionHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var p intervention.Prediction

	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if p.Target == "" || p.SampleID == 0 {
		respondError(w, http.StatusBadRequest, "Fields target and sample_id are required")
		return
	}

	created, err := h.service.CreateFromPrediction(&p)
	if err != nil {
		if errors.Is(err, intervention.ErrResolution) {
			respondError(w, http.StatusUnprocessableEntity, "Sample does not resolve to a known recipient")
			return
		}
		log.Printf("Failed to handle prediction for sample %d: %v", p.SampleID, err)
		respondError(w, http.StatusInternalServerError, "Failed to process prediction")
		return
	}

	if created == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"scheduled": false,
		})
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"scheduled":       true,
		"intervention_id": created.ID,
	})
}
