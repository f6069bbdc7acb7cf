package repository

import (
	"errors"

	"github.com/ild-thl/motbot-sub000/internal/models"
	"gorm.io/gorm"
)

type AdviceRepository interface {
	Create(advice *models.Advice) error
	GetByName(name string) (*models.Advice, error)
	Update(advice *models.Advice) error
	Delete(name string) error
	List() ([]*models.Advice, error)
	ListEnabledForTarget(target string) ([]*models.Advice, error)
}

type adviceRepository struct {
	db *gorm.DB
}

func NewAdviceRepository(db *gorm.DB) AdviceRepository {
	return &adviceRepository{db: db}
}

func (r *adviceRepository) Create(advice *models.Advice) error {
	return r.db.Create(advice).Error
}

func (r *adviceRepository) GetByName(name string) (*models.Advice, error) {
	var advice models.Advice
	err := r.db.Where("name = ?", name).First(&advice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &advice, nil
}

func (r *adviceRepository) Update(advice *models.Advice) error {
	return r.db.Save(advice).Error
}

func (r *adviceRepository) Delete(name string) error {
	return r.db.Where("name = ?", name).Delete(&models.Advice{}).Error
}

func (r *adviceRepository) List() ([]*models.Advice, error) {
	var advice []*models.Advice
	err := r.db.Order("name ASC").Find(&advice).Error
	return advice, err
}

// ListEnabledForTarget filters on the jsonb targets column; membership is
// re-checked in code so backends without jsonb containment stay correct.
func (r *adviceRepository) ListEnabledForTarget(target string) ([]*models.Advice, error) {
	var all []*models.Advice
	err := r.db.Where("enabled = ?", true).Order("name ASC").Find(&all).Error
	if err != nil {
		return nil, err
	}

	var matched []*models.Advice
	for _, a := range all {
		if a.AppliesTo(target) {
			matched = append(matched, a)
		}
	}

	return matched, nil
}
