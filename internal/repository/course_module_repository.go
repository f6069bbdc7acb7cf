package repository

import (
	"time"

	"github.com/ild-thl/motbot-sub000/internal/models"
	"gorm.io/gorm"
)

type CourseModuleRepository interface {
	Create(module *models.CourseModule) error
	ListRecent(courseID uint, since time.Time, limit int) ([]*models.CourseModule, error)
	ListDueBefore(courseID uint, before time.Time, limit int) ([]*models.CourseModule, error)
}

type courseModuleRepository struct {
	db *gorm.DB
}

func NewCourseModuleRepository(db *gorm.DB) CourseModuleRepository {
	return &courseModuleRepository{db: db}
}

func (r *courseModuleRepository) Create(module *models.CourseModule) error {
	return r.db.Create(module).Error
}

func (r *courseModuleRepository) ListRecent(courseID uint, since time.Time, limit int) ([]*models.CourseModule, error) {
	var modules []*models.CourseModule

	err := r.db.
		Where("course_id = ?", courseID).
		Where("visible = ?", true).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Limit(limit).
		Find(&modules).Error

	return modules, err
}

func (r *courseModuleRepository) ListDueBefore(courseID uint, before time.Time, limit int) ([]*models.CourseModule, error) {
	var modules []*models.CourseModule

	err := r.db.
		Where("course_id = ?", courseID).
		Where("visible = ?", true).
		Where("due_date IS NOT NULL").
		Where("due_date > ?", time.Now()).
		Where("due_date <= ?", before).
		Order("due_date ASC").
		Limit(limit).
		Find(&modules).Error

	return modules, err
}
