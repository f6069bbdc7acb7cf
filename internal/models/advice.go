package models

// Advice is the persisted, admin-manageable record of one advice strategy.
// Name maps to a builder in the advice catalog; the strategy itself is code,
// this row only carries enablement and target bindings.
type Advice struct {
	BaseModel

	Name    string      `gorm:"uniqueIndex;not null" json:"name"`
	Targets StringArray `gorm:"type:jsonb;serializer:json;default:'[]'" json:"targets"`
	Enabled bool        `gorm:"default:true" json:"enabled"`
	Version int         `gorm:"default:1" json:"version"`
}

func (*Advice) TableName() string {
	return "advice"
}

func (a *Advice) AppliesTo(target string) bool {
	return a.Targets.Contains(target)
}

// SetTargets replaces the target bindings and bumps the version stamp so
// any cached derived id is invalidated.
func (a *Advice) SetTargets(targets []string) {
	a.Targets = targets
	a.Version++
}
