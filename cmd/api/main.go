package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ild-thl/motbot-sub000/internal/advice"
	"github.com/ild-thl/motbot-sub000/internal/api"
	"github.com/ild-thl/motbot-sub000/internal/config"
	"github.com/ild-thl/motbot-sub000/internal/event"
	"github.com/ild-thl/motbot-sub000/internal/intervention"
	"github.com/ild-thl/motbot-sub000/internal/notification"
	"github.com/ild-thl/motbot-sub000/internal/repository"
	signalapi "github.com/ild-thl/motbot-sub000/internal/signal"
	"github.com/ild-thl/motbot-sub000/internal/target"
)

func main() {
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("Starting MotBot API...")
	log.Printf("Environment: %s", cfg.App.Environment)

	dsn := repository.BuildDSN(&cfg.Database)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Database connected")

	if err := repository.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if err := repository.MigrateAdminTables(db); err != nil {
		log.Fatalf("Failed to migrate admin tables: %v", err)
	}
	log.Println("Database migrated")

	userRepo := repository.NewUserRepository(db)
	prefsRepo := repository.NewUserPreferencesRepository(db)
	settingsRepo := repository.NewCourseSettingsRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	memberRepo := repository.NewCourseMemberRepository(db)
	interventionRepo := repository.NewInterventionRepository(db)
	adviceRepo := repository.NewAdviceRepository(db)
	templateRepo := repository.NewMessageTemplateRepository(db)
	forumRepo := repository.NewForumRepository(db)
	moduleRepo := repository.NewCourseModuleRepository(db)
	eventRepo := repository.NewEventRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// The API process delivers nothing itself in the usual setup, but the
	// prediction endpoint can trigger immediate processing on deployments
	// that run without the bot process, so the full service is wired.
	registry := target.NewRegistry()
	catalog := advice.NewCatalog(adviceRepo)
	selector := advice.NewSelector(catalog, registry, settingsRepo)
	formatter := notification.NewFormatter(templateRepo, cfg.Motbot.BaseURL)

	var signalTransport notification.SignalTransport
	if cfg.Signal.Enabled {
		signalTransport = signalapi.NewClient(cfg.Signal.APIURL, cfg.Signal.Number)
	}
	sender := notification.NewChannelSender(nil, signalTransport)

	service := intervention.NewService(
		registry, selector, formatter, sender,
		interventionRepo, userRepo, prefsRepo, courseRepo, memberRepo,
		settingsRepo, forumRepo, moduleRepo, cfg.Motbot.SurveyURL)

	detector := event.NewDetector(interventionRepo, eventRepo, userRepo)

	if username := os.Getenv("ADMIN_DEFAULT_USERNAME"); username != "" {
		password := os.Getenv("ADMIN_DEFAULT_PASSWORD")
		email := os.Getenv("ADMIN_DEFAULT_EMAIL")

		if password != "" && email != "" {
			if err := repository.CreateDefaultAdmin(db, username, password, email); err != nil {
				log.Printf("Could not create default admin: %v", err)
			} else {
				log.Printf("Default admin created: %s", username)
			}
		}
	}

	server := api.NewServer(cfg, service, detector, catalog, adviceRepo, interventionRepo, adminRepo)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Println("API server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down API...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}

	if err := repository.CloseDatabase(db); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Goodbye!")
}
