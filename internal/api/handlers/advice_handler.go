package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ild-thl/motbot-sub000/internal/advice"
	"github.com/ild-thl/motbot-sub000/internal/models"
	"github.com/ild-thl/motbot-sub000/internal/repository"
)

// AdviceHandler manages the advice strategy rows: which strategies are
// enabled and which targets they serve.
type AdviceHandler struct {
	adviceRepo repository.AdviceRepository
	catalog    *advice.Catalog
}

func NewAdviceHandler(adviceRepo repository.AdviceRepository, catalog *advice.Catalog) *AdviceHandler {
	return &AdviceHandler{
		adviceRepo: adviceRepo,
		catalog:    catalog,
	}
}

func (h *AdviceHandler) List(w http.ResponseWriter, r *http.Request) {
	var rows []*models.Advice
	var err error

	if targetName := r.URL.Query().Get("target"); targetName != "" {
		rows, err = h.adviceRepo.ListEnabledForTarget(targetName)
	} else {
		rows, err = h.adviceRepo.List()
	}
	if err != nil {
		log.Printf("Failed to list advice: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list advice")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"advice": rows,
		"known":  h.catalog.Names(),
	})
}

type AdviceUpdateRequest struct {
	Enabled *bool    `json:"enabled,omitempty"`
	Targets []string `json:"targets,omitempty"`
}

func (h *AdviceHandler) Update(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if !h.catalog.Known(name) {
		respondError(w, http.StatusNotFound, "Unknown advice strategy")
		return
	}

	var req AdviceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	row, err := h.adviceRepo.GetByName(name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load advice")
		return
	}
	if row == nil {
		row = &models.Advice{Name: name, Enabled: true}
	}

	if req.Enabled != nil {
		row.Enabled = *req.Enabled
	}
	if req.Targets != nil {
		row.SetTargets(req.Targets)
	}

	if row.ID == 0 {
		err = h.adviceRepo.Create(row)
	} else {
		err = h.adviceRepo.Update(row)
	}
	if err != nil {
		log.Printf("Failed to save advice %s: %v", name, err)
		respondError(w, http.StatusInternalServerError, "Failed to save advice")
		return
	}

	respondJSON(w, http.StatusOK, row)
}

// Delete removes the persisted row; the strategy then falls back to its
// built-in default (enabled, no bindings).
func (h *AdviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if !h.catalog.Known(name) {
		respondError(w, http.StatusNotFound, "Unknown advice strategy")
		return
	}

	if err := h.adviceRepo.Delete(name); err != nil {
		log.Printf("Failed to delete advice %s: %v", name, err)
		respondError(w, http.StatusInternalServerError, "Failed to delete advice")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": name,
	})
}

// LoadDefaults creates a row for every built-in strategy that has none yet.
func (h *AdviceHandler) LoadDefaults(w http.ResponseWriter, r *http.Request) {
	created, err := h.catalog.LoadDefaults()
	if err != nil {
		log.Printf("Failed to load advice defaults: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to load defaults")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"created": created,
	})
}
