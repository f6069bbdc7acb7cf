package repository

import (
	"errors"
	"time"

	"github.com/ild-thl/motbot-sub000/internal/models"
	"gorm.io/gorm"
)

type AdminRepository interface {
	GetByUsername(username string) (*models.AdminUser, error)
	GetByID(id uint) (*models.AdminUser, error)
	Update(admin *models.AdminUser) error
	TouchLastLogin(id uint) error
}

type adminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) GetByUsername(username string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := r.db.Where("username = ? AND is_active = ?", username, true).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &admin, nil
}

func (r *adminRepository) GetByID(id uint) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := r.db.First(&admin, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &admin, nil
}

func (r *adminRepository) Update(admin *models.AdminUser) error {
	return r.db.Save(admin).Error
}

func (r *adminRepository) TouchLastLogin(id uint) error {
	now := time.Now()
	return r.db.Model(&models.AdminUser{}).
		Where("id = ?", id).
		Update("last_login_at", now).Error
}
