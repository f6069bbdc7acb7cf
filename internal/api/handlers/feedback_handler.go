package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ild-thl/motbot-sub000/internal/intervention"
)

// FeedbackHandler serves the helpful/unhelpful links embedded in delivered
// messages. The endpoint is public: the recipient clicks it from their mail
// or messenger without being logged in anywhere.
type FeedbackHandler struct {
	service *intervention.Service
}

func NewFeedbackHandler(service *intervention.Service) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

func (h *FeedbackHandler) Helpful(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid intervention id")
		return
	}

	value := r.URL.Query().Get("value")
	if value != "0" && value != "1" {
		respondError(w, http.StatusBadRequest, "Query parameter value must be 0 or 1")
		return
	}

	if err := h.service.SetHelpful(uint(id), value == "1"); err != nil {
		log.Printf("Failed to record feedback for intervention %d: %v", id, err)
		respondError(w, http.StatusNotFound, "Intervention not found")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("<html><body><p>Thanks for your feedback!</p></body></html>"))
}
