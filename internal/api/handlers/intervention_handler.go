package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ild-thl/motbot-sub000/internal/models"
	"github.com/ild-thl/motbot-sub000/internal/repository"
)

var interventionStates = []string{
	models.InterventionStateScheduled,
	models.InterventionStateIntervened,
	models.InterventionStateStored,
	models.InterventionStateSuccessful,
	models.InterventionStateUnsuccessful,
}

type InterventionHandler struct {
	interventions repository.InterventionRepository
}

func NewInterventionHandler(interventions repository.InterventionRepository) *InterventionHandler {
	return &InterventionHandler{interventions: interventions}
}

// List returns interventions filtered by state, or the most recent ones of
// a single recipient when recipient_id is given.
func (h *InterventionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			respondError(w, http.StatusBadRequest, "Limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	if raw := r.URL.Query().Get("recipient_id"); raw != "" {
		recipientID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid recipient id")
			return
		}

		rows, err := h.interventions.ListRecentByRecipient(uint(recipientID), 0, limit)
		if err != nil {
			log.Printf("Failed to list interventions: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to list interventions")
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"recipient_id":  recipientID,
			"interventions": rows,
		})
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		state = models.InterventionStateScheduled
	}
	if !validState(state) {
		respondError(w, http.StatusBadRequest, "Unknown state")
		return
	}

	rows, err := h.interventions.ListByState(state, limit)
	if err != nil {
		log.Printf("Failed to list interventions: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list interventions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"state":         state,
		"interventions": rows,
	})
}

func (h *InterventionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid intervention id")
		return
	}

	row, err := h.interventions.GetByID(uint(id))
	if err != nil {
		log.Printf("Failed to load intervention %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "Failed to load intervention")
		return
	}
	if row == nil {
		respondError(w, http.StatusNotFound, "Intervention not found")
		return
	}

	respondJSON(w, http.StatusOK, row)
}

// Stats returns a per-state breakdown for the dashboard.
func (h *InterventionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	counts := make(map[string]int64, len(interventionStates))
	var total int64

	for _, state := range interventionStates {
		count, err := h.interventions.CountByState(state)
		if err != nil {
			log.Printf("Failed to count interventions: %v", err)
			respondError(w, http.StatusInternalServerError, "Failed to compute stats")
			return
		}
		counts[state] = count
		total += count
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":    total,
		"by_state": counts,
	})
}

func validState(state string) bool {
	for _, s := range interventionStates {
		if s == state {
			return true
		}
	}
	return false
}
