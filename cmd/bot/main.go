package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ild-thl/motbot-sub000/internal/advice"
	"github.com/ild-thl/motbot-sub000/internal/bot"
	"github.com/ild-thl/motbot-sub000/internal/chat"
	"github.com/ild-thl/motbot-sub000/internal/config"
	"github.com/ild-thl/motbot-sub000/internal/intervention"
	"github.com/ild-thl/motbot-sub000/internal/logger"
	"github.com/ild-thl/motbot-sub000/internal/notification"
	"github.com/ild-thl/motbot-sub000/internal/prediction"
	"github.com/ild-thl/motbot-sub000/internal/repository"
	"github.com/ild-thl/motbot-sub000/internal/scheduler"
	signalapi "github.com/ild-thl/motbot-sub000/internal/signal"
	"github.com/ild-thl/motbot-sub000/internal/target"
)

func main() {
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.App.Environment == "development" {
		log.Printf("Config loaded:\n%s", cfg.SafeString())
	}

	db, err := repository.InitDatabase(cfg.Database, cfg.App)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Printf("Database initialized")

	defer func() {
		if err := repository.CloseDatabase(db); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	if err := repository.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Printf("Database migrated")

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

	registry := target.NewRegistry()
	catalog := advice.NewCatalog(adviceRepo)
	selector := advice.NewSelector(catalog, registry, settingsRepo)
	formatter := notification.NewFormatter(templateRepo, cfg.Motbot.BaseURL)

	var telegramBot *bot.Bot
	var botAPI *tgbotapi.BotAPI

	var signalClient *signalapi.Client
	var signalTransport notification.SignalTransport
	if cfg.Signal.Enabled {
		signalClient = signalapi.NewClient(cfg.Signal.APIURL, cfg.Signal.Number)
		signalTransport = signalClient
	}

	// The sender shares the bot's API session; create the bot first.
	router := chat.NewRouter(prefsRepo, memberRepo, interventionRepo, eventRepo,
		forumRepo, moduleRepo, selector, cfg.Motbot.SurveyURL)

	sender := notification.NewChannelSender(nil, signalTransport)
	service := intervention.NewService(
		registry, selector, formatter, sender,
		interventionRepo, userRepo, prefsRepo, courseRepo, memberRepo,
		settingsRepo, forumRepo, moduleRepo, cfg.Motbot.SurveyURL)

	if cfg.Telegram.Enabled {
		telegramBot, err = bot.NewBot(cfg, userRepo, prefsRepo, router, service)
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}
		botAPI = telegramBot.API()
		sender.SetTelegram(botAPI)
		log.Println("Telegram bot initialized")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if signalClient != nil {
		signalClient.OnIncoming(func(number, text string) {
			user, err := userRepo.GetBySignalNumber(number)
			if err != nil {
				log.Printf("Failed to look up signal number: %v", err)
				return
			}
			if user == nil {
				log.Printf("Dropping signal message from unknown number")
				return
			}
			reply, err := router.HandleText(user, text)
			if err != nil {
				log.Printf("Failed to handle signal message from user %d: %v", user.ID, err)
				return
			}
			if err := signalClient.SendText(number, reply.Text); err != nil {
				log.Printf("Failed to answer signal message: %v", err)
			}
		})

		if err := signalClient.Connect(ctx); err != nil {
			log.Fatalf("Failed to connect to Signal: %v", err)
		}
		defer signalClient.Disconnect()
		log.Println("Signal client connected")
	}

	appLog := logger.New(cfg.App.LogLevel)

	dispatcher := scheduler.NewDispatcher(service, interventionRepo, prefsRepo, userRepo,
		cfg.Motbot.DispatchSchedule, appLog)
	if err := dispatcher.Start(); err != nil {
		log.Fatalf("Failed to start dispatcher: %v", err)
	}

	cleanup := scheduler.NewCleanup(interventionRepo, eventRepo,
		cfg.Motbot.CleanupSchedule,
		cfg.Motbot.InterventionRetentionDays, cfg.Motbot.EventRetentionDays, appLog)
	if err := cleanup.Start(); err != nil {
		log.Fatalf("Failed to start cleanup: %v", err)
	}

	var feed *prediction.Feed
	if cfg.Motbot.PredictionChannel != "" {
		redisClient, err := prediction.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		if redisClient != nil {
			defer prediction.CloseRedisClient(redisClient)
			feed = prediction.NewFeed(redisClient, service, cfg.Motbot.PredictionChannel)
			if err := feed.Start(); err != nil {
				log.Fatalf("Failed to start prediction feed: %v", err)
			}
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if telegramBot != nil {
		go func() {
			if err := telegramBot.Start(); err != nil {
				log.Fatalf("Bot error: %v", err)
			}
		}()
	}

	log.Println("Application started successfully!")
	log.Println("Press Ctrl+C to stop...")

	<-quit
	log.Println("\nShutting down gracefully...")

	dispatcher.Stop()
	cleanup.Stop()
	if feed != nil {
		feed.Stop()
	}
	if telegramBot != nil {
		telegramBot.Stop()
	}
}
