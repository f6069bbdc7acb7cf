package repository

import (
	"fmt"
	"time"

	"github.com/ild-thl/motbot-sub000/internal/config"
	"github.com/ild-thl/motbot-sub000/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func BuildDSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode,
	)
}

func InitDatabase(cfg config.DatabaseConfig, app config.AppConfig) (*gorm.DB, error) {
	dsn := BuildDSN(&cfg)

	var logLevel logger.LogLevel
	if app.Environment == "development" {
		logLevel = logger.Info
	} else {
		logLevel = logger.Error
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, err
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(cfg.MaxConns)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserPreferences{},
		&models.Course{},
		&models.CourseMember{},
		&models.CourseSettings{},
		&models.Intervention{},
		&models.Advice{},
		&models.MessageTemplate{},
		&models.ForumPost{},
		&models.CourseModule{},
		&models.UserEvent{},
	)
}

func MigrateAdminTables(db *gorm.DB) error {
	return db.AutoMigrate(&models.AdminUser{})
}

// CreateDefaultAdmin creates an operator account if none with the given
// username exists yet.
func CreateDefaultAdmin(db *gorm.DB, username, password, email string) error {
	var count int64
	if err := db.Model(&models.AdminUser{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin := &models.AdminUser{
		Username: username,
		Email:    email,
		Role:     models.AdminRoleSuperAdmin,
		IsActive: true,
	}
	if err := admin.SetPassword(password); err != nil {
		return err
	}

	return db.Create(admin).Error
}

func CloseDatabase(db *gorm.DB) error {
	sqlDB, _ := db.DB()
	return sqlDB.Close()
}
