package repository

import (
	"errors"
	"time"

	"github.com/ild-thl/motbot-sub000/internal/models"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByTelegramID(telegramID int64) (*models.User, error)
	GetBySignalNumber(number string) (*models.User, error)
	Update(user *models.User) error
	TouchLastAccess(id uint, at time.Time) error
	List(offset, limit int) ([]*models.User, error)
	Count() (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) GetByUsername(username string) (*models.User, error) {
	return r.getOne("username = ?", username)
}

func (r *userRepository) GetByTelegramID(telegramID int64) (*models.User, error) {
	if telegramID == 0 {
		return nil, nil
	}
	return r.getOne("telegram_id = ?", telegramID)
}

func (r *userRepository) GetBySignalNumber(number string) (*models.User, error) {
	if number == "" {
		return nil, nil
	}
	return r.getOne("signal_number = ?", number)
}

func (r *userRepository) getOne(query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

func (r *userRepository) TouchLastAccess(id uint, at time.Time) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", id).
		Update("last_access_at", at).Error
}

func (r *userRepository) List(offset, limit int) ([]*models.User, error) {
	var users []*models.User
	err := r.db.Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}
