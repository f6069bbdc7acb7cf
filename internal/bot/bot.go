// Package bot is the Telegram adapter: it links chat identities to course
// accounts, handles commands and inline-button callbacks, and forwards free
// text to the conversational core.
package bot

import (
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ild-thl/motbot-sub000/internal/chat"
	"github.com/ild-thl/motbot-sub000/internal/config"
	"github.com/ild-thl/motbot-sub000/internal/intervention"
	"github.com/ild-thl/motbot-sub000/internal/repository"
)

type Bot struct {
	api       *tgbotapi.BotAPI
	userRepo  repository.UserRepository
	prefsRepo repository.UserPreferencesRepository
	router    *chat.Router
	service   *intervention.Service
	config    *config.Config
}

func NewBot(
	cfg *config.Config,
	userRepo repository.UserRepository,
	prefsRepo repository.UserPreferencesRepository,
	router *chat.Router,
	service *intervention.Service,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, err
	}

	api.Debug = cfg.Telegram.Debug

	log.Printf("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:       api,
		userRepo:  userRepo,
		prefsRepo: prefsRepo,
		router:    router,
		service:   service,
		config:    cfg,
	}, nil
}

// API exposes the underlying client so the notifier can share the session.
func (b *Bot) API() *tgbotapi.BotAPI {
	return b.api
}

func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		go b.handleUpdate(update)
	}

	return nil
}

func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(update.Message)
		return
	}

	if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
		return
	}
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	if message.IsCommand() {
		switch message.Command() {
		case CommandStart:
			b.handleStart(message)
		case CommandHelp:
			b.handleHelp(message)
		case CommandAdvice:
			b.handleAdvice(message)
		case CommandStatus:
			b.handleStatus(message)
		case CommandSettings:
			b.handleSettings(message)
		default:
			b.handleUnknown(message)
		}
		return
	}

	b.handleText(message)
}

func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) {
	_, err := b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
	if err != nil {
		log.Println(err)
	}

	data := callback.Data

	if strings.HasPrefix(data, "helpful_") {
		b.handleHelpfulCallback(callback)
		return
	}

	if strings.HasPrefix(data, "settings_") {
		b.handleSettingsCallback(callback)
		return
	}

	if data == "get_advice" {
		b.handleAdviceCallback(callback)
		return
	}
}
