package repository

import (
	"errors"

	"github.com/ild-thl/motbot-sub000/internal/models"
	"gorm.io/gorm"
)

type UserPreferencesRepository interface {
	GetByUserID(userID uint) (*models.UserPreferences, error)
	GetOrCreate(userID uint) (*models.UserPreferences, error)
	Update(prefs *models.UserPreferences) error
}

type userPreferencesRepository struct {
	db *gorm.DB
}

func NewUserPreferencesRepository(db *gorm.DB) UserPreferencesRepository {
	return &userPreferencesRepository{db: db}
}

func (r *userPreferencesRepository) GetByUserID(userID uint) (*models.UserPreferences, error) {
	var prefs models.UserPreferences
	err := r.db.Where("user_id = ?", userID).First(&prefs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &prefs, nil
}

func (r *userPreferencesRepository) GetOrCreate(userID uint) (*models.UserPreferences, error) {
	prefs, err := r.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if prefs != nil {
		return prefs, nil
	}

	prefs = &models.UserPreferences{
		UserID:        userID,
		Authorized:    true,
		PreferredHour: models.PreferredHourAuto,
	}
	if err := r.db.Create(prefs).Error; err != nil {
		return nil, err
	}

	return prefs, nil
}

func (r *userPreferencesRepository) Update(prefs *models.UserPreferences) error {
	return r.db.Save(prefs).Error
}

type CourseSettingsRepository interface {
	GetByUserAndCourse(userID, courseID uint) (*models.CourseSettings, error)
	Update(settings *models.CourseSettings) error
}

type courseSettingsRepository struct {
	db *gorm.DB
}

func NewCourseSettingsRepository(db *gorm.DB) CourseSettingsRepository {
	return &courseSettingsRepository{db: db}
}

func (r *courseSettingsRepository) GetByUserAndCourse(userID, courseID uint) (*models.CourseSettings, error) {
	var settings models.CourseSettings
	err := r.db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &settings, nil
}

func (r *courseSettingsRepository) Update(settings *models.CourseSettings) error {
	return r.db.Save(settings).Error
}
