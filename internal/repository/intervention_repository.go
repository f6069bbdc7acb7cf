package repository

import (
	"errors"
	"time"

	"github.com/ild-thl/motbot-sub000/internal/models"
	"gorm.io/gorm"
)

type InterventionRepository interface {
	Create(intervention *models.Intervention) error
	GetByID(id uint) (*models.Intervention, error)
	Update(intervention *models.Intervention) error
	ListByState(state string, limit int) ([]*models.Intervention, error)
	ListIntervenedByRecipient(recipientID uint, contextID uint) ([]*models.Intervention, error)
	ListRecentByRecipient(recipientID uint, contextID uint, limit int) ([]*models.Intervention, error)
	UpdateState(id uint, from, to string, modifiedByID uint) (bool, error)
	SetMessageRef(id uint, messageRef string) error
	SetTeachersInformed(id uint, informed bool) error
	SetHelpful(id uint, helpful bool) error
	CountByState(state string) (int64, error)
	CountByRecipientAndState(recipientID uint, state string) (int64, error)
	DeleteTerminalOlderThan(days int) error
}

var terminalStates = []string{
	models.InterventionStateStored,
	models.InterventionStateSuccessful,
	models.InterventionStateUnsuccessful,
}

type interventionRepository struct {
	db *gorm.DB
}

func NewInterventionRepository(db *gorm.DB) InterventionRepository {
	return &interventionRepository{db: db}
}

func (r *interventionRepository) Create(intervention *models.Intervention) error {
	return r.db.Create(intervention).Error
}

func (r *interventionRepository) GetByID(id uint) (*models.Intervention, error) {
	var intervention models.Intervention
	err := r.db.Preload("Recipient").First(&intervention, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &intervention, nil
}

func (r *interventionRepository) Update(intervention *models.Intervention) error {
	return r.db.Save(intervention).Error
}

func (r *interventionRepository) ListByState(state string, limit int) ([]*models.Intervention, error) {
	var interventions []*models.Intervention

	err := r.db.
		Preload("Recipient").
		Where("state = ?", state).
		Order("created_at ASC").
		Limit(limit).
		Find(&interventions).Error

	return interventions, err
}

func (r *interventionRepository) ListIntervenedByRecipient(recipientID uint, contextID uint) ([]*models.Intervention, error) {
	var interventions []*models.Intervention

	q := r.db.
		Where("recipient_id = ?", recipientID).
		Where("state = ?", models.InterventionStateIntervened)
	if contextID > 0 {
		q = q.Where("context_id = ?", contextID)
	}

	err := q.Order("created_at ASC").Find(&interventions).Error
	return interventions, err
}

func (r *interventionRepository) ListRecentByRecipient(recipientID uint, contextID uint, limit int) ([]*models.Intervention, error) {
	var interventions []*models.Intervention

	q := r.db.Where("recipient_id = ?", recipientID)
	if contextID > 0 {
		q = q.Where("context_id = ?", contextID)
	}

	err := q.Order("created_at DESC").Limit(limit).Find(&interventions).Error
	return interventions, err
}

// UpdateState advances the lifecycle in a single guarded UPDATE. The guard
// on the prior state keeps overlapping dispatcher runs from double-advancing
// or resurrecting a record; the caller learns from the return value whether
// it won the transition.
func (r *interventionRepository) UpdateState(id uint, from, to string, modifiedByID uint) (bool, error) {
	res := r.db.Model(&models.Intervention{}).
		Where("id = ? AND state = ?", id, from).
		Updates(map[string]interface{}{
			"state":          to,
			"modified_by_id": modifiedByID,
		})

	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

func (r *interventionRepository) SetMessageRef(id uint, messageRef string) error {
	return r.db.Model(&models.Intervention{}).
		Where("id = ?", id).
		Update("message_ref", messageRef).Error
}

func (r *interventionRepository) SetTeachersInformed(id uint, informed bool) error {
	return r.db.Model(&models.Intervention{}).
		Where("id = ?", id).
		Update("teachers_informed", informed).Error
}

func (r *interventionRepository) SetHelpful(id uint, helpful bool) error {
	return r.db.Model(&models.Intervention{}).
		Where("id = ?", id).
		Update("helpful", helpful).Error
}

func (r *interventionRepository) CountByState(state string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Intervention{}).
		Where("state = ?", state).
		Count(&count).Error

	return count, err
}

func (r *interventionRepository) CountByRecipientAndState(recipientID uint, state string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Intervention{}).
		Where("recipient_id = ? AND state = ?", recipientID, state).
		Count(&count).Error

	return count, err
}

func (r *interventionRepository) DeleteTerminalOlderThan(days int) error {
	cutoff := time.Now().AddDate(0, 0, -days)

	return r.db.
		Where("created_at < ?", cutoff).
		Where("state IN ?", terminalStates).
		Delete(&models.Intervention{}).Error
}
