package models

import (
	"github.com/lib/pq"
)

const (
	InterventionStateScheduled    = "scheduled"
	InterventionStateIntervened   = "intervened"
	InterventionStateStored       = "stored"
	InterventionStateSuccessful   = "successful"
	InterventionStateUnsuccessful = "unsuccessful"
)

// interventionStateRank orders states so that a transition is only ever
// allowed forward. Stored, successful and unsuccessful are terminal.
var interventionStateRank = map[string]int{
	InterventionStateScheduled:    0,
	InterventionStateIntervened:   1,
	InterventionStateStored:       2,
	InterventionStateSuccessful:   2,
	InterventionStateUnsuccessful: 2,
}

// Intervention tracks one response to a single prediction, from the moment
// the prediction is scheduled through delivery and outcome.
type Intervention struct {
	BaseModel

	RecipientID      uint           `gorm:"index;not null" json:"recipient_id"`
	Recipient        User           `gorm:"foreignKey:RecipientID" json:"-"`
	ContextID        uint           `gorm:"index" json:"context_id"` // course id, 0 for site-wide
	Target           string         `gorm:"index;not null" json:"target"`
	Prediction       *int           `json:"prediction,omitempty"`
	DesiredEvents    pq.StringArray `gorm:"type:text[]" json:"desired_events"`
	State            string         `gorm:"index;default:'scheduled'" json:"state"`
	TeachersInformed *bool          `json:"teachers_informed,omitempty"` // nil until evaluated
	MessageRef       string         `gorm:"index" json:"message_ref,omitempty"`
	Helpful          *bool          `json:"helpful,omitempty"`
	ModifiedByID     uint           `json:"modified_by_id,omitempty"`
}

func (*Intervention) TableName() string {
	return "interventions"
}

func (i *Intervention) IsScheduled() bool {
	return i.State == InterventionStateScheduled
}

func (i *Intervention) IsIntervened() bool {
	return i.State == InterventionStateIntervened
}

func (i *Intervention) IsTerminal() bool {
	return i.State == InterventionStateStored ||
		i.State == InterventionStateSuccessful ||
		i.State == InterventionStateUnsuccessful
}

// CanTransition reports whether moving to the given state keeps the
// lifecycle strictly forward. Terminal states accept no transition.
func (i *Intervention) CanTransition(to string) bool {
	fromRank, ok := interventionStateRank[i.State]
	if !ok {
		return false
	}
	toRank, ok := interventionStateRank[to]
	if !ok {
		return false
	}
	if i.IsTerminal() {
		return false
	}
	return toRank > fromRank
}

func (i *Intervention) DesiresEvent(name string) bool {
	for _, e := range i.DesiredEvents {
		if e == name {
			return true
		}
	}
	return false
}

// SameDesiredEvents reports whether another intervention pursues exactly
// the same set of desired events, in order. Desired events are frozen at
// creation time from the target definition, so order is stable.
func (i *Intervention) SameDesiredEvents(other *Intervention) bool {
	if len(i.DesiredEvents) != len(other.DesiredEvents) {
		return false
	}
	for idx, e := range i.DesiredEvents {
		if other.DesiredEvents[idx] != e {
			return false
		}
	}
	return true
}

func (i *Intervention) SetTeachersInformed(informed bool) {
	i.TeachersInformed = &informed
}
