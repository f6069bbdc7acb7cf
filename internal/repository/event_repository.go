package repository

import (
	"time"

	"github.com/ild-thl/motbot-sub000/internal/models"
	"gorm.io/gorm"
)

type EventRepository interface {
	Create(event *models.UserEvent) error
	CountRecentByUser(userID uint, since time.Time) (int64, error)
	DeleteOld(days int) error
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(event *models.UserEvent) error {
	return r.db.Create(event).Error
}

func (r *eventRepository) CountRecentByUser(userID uint, since time.Time) (int64, error) {
	var count int64

	err := r.db.Model(&models.UserEvent{}).
		Where("user_id = ?", userID).
		Where("created_at >= ?", since).
		Count(&count).Error

	return count, err
}

func (r *eventRepository) DeleteOld(days int) error {
	cutoff := time.Now().AddDate(0, 0, -days)

	return r.db.
		Where("created_at < ?", cutoff).
		Delete(&models.UserEvent{}).Error
}
