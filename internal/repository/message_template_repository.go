package repository

import (
	"github.com/ild-thl/motbot-sub000/internal/models"
	"gorm.io/gorm"
)

type MessageTemplateRepository interface {
	Create(template *models.MessageTemplate) error
	Update(template *models.MessageTemplate) error
	Delete(id uint) error
	ListForCourseAndTarget(courseID uint, target string) ([]*models.MessageTemplate, error)
}

type messageTemplateRepository struct {
	db *gorm.DB
}

func NewMessageTemplateRepository(db *gorm.DB) MessageTemplateRepository {
	return &messageTemplateRepository{db: db}
}

func (r *messageTemplateRepository) Create(template *models.MessageTemplate) error {
	return r.db.Create(template).Error
}

func (r *messageTemplateRepository) Update(template *models.MessageTemplate) error {
	return r.db.Save(template).Error
}

func (r *messageTemplateRepository) Delete(id uint) error {
	return r.db.Delete(&models.MessageTemplate{}, id).Error
}

func (r *messageTemplateRepository) ListForCourseAndTarget(courseID uint, target string) ([]*models.MessageTemplate, error) {
	var templates []*models.MessageTemplate

	err := r.db.
		Where("course_id = ? AND target = ?", courseID, target).
		Where("enabled = ?", true).
		Order("created_at ASC").
		Find(&templates).Error

	return templates, err
}
