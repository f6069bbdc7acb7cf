// Package event ingests activity events and detects intervention success:
// an open intervention is resolved as soon as the recipient performs one of
// the events it desires.
package event

import (
	"fmt"
	"log"
	"time"

	"github.com/ild-thl/motbot-sub000/internal/models"
	"github.com/ild-thl/motbot-sub000/internal/repository"
)

type Detector struct {
	interventions repository.InterventionRepository
	events        repository.EventRepository
	users         repository.UserRepository
}

func NewDetector(
	interventions repository.InterventionRepository,
	events repository.EventRepository,
	users repository.UserRepository,
) *Detector {
	return &Detector{
		interventions: interventions,
		events:        events,
		users:         users,
	}
}

// HandleEvent records the event and resolves every open intervention of the
// same user that desired it. Interventions bound to a course only match
// events from that course; site-wide interventions match any context.
// Returns the number of interventions marked successful.
func (d *Detector) HandleEvent(name string, userID uint, contextID uint, data models.JSONMap) (int, error) {
	record := &models.UserEvent{
		UserID:    userID,
		ContextID: contextID,
		Name:      name,
		Data:      data,
	}
	if err := d.events.Create(record); err != nil {
		return 0, fmt.Errorf("failed to record event: %w", err)
	}

	if err := d.users.TouchLastAccess(userID, time.Now()); err != nil {
		log.Printf("Failed to update last access for user %d: %v", userID, err)
	}

	open, err := d.interventions.ListIntervenedByRecipient(userID, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to scan open interventions: %w", err)
	}

	resolved := 0
	for _, intervention := range open {
		if !intervention.DesiresEvent(name) {
			continue
		}
		if intervention.ContextID > 0 && intervention.ContextID != contextID {
			continue
		}

		moved, err := d.interventions.UpdateState(intervention.ID,
			models.InterventionStateIntervened, models.InterventionStateSuccessful, userID)
		if err != nil {
			return resolved, err
		}
		if moved {
			resolved++
			log.Printf("Intervention %d resolved successful by %s from user %d", intervention.ID, name, userID)
		}
	}

	return resolved, nil
}
