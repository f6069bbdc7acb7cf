package notification

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/ild-thl/motbot-sub000/internal/models"
)

// Message is one fully-rendered intervention message, carrying every
// channel variant so the sender can pick whichever the recipient has.
type Message struct {
	Subject string
	Text    string
	HTML    string

	// Chat is the Telegram rendering. Telegram parses only a small inline
	// tag subset, so this variant sticks to <b>/<i>/<a> plus newlines.
	Chat     string
	Keyboard [][]tgbotapi.InlineKeyboardButton
}

// Sender hands a message to a delivery channel. Implementations report
// failure through the error; a non-empty delivery ref is only returned on
// success.
type Sender interface {
	Send(user *models.User, msg *Message) (string, error)
}

// SignalTransport is the send half of the Signal adapter.
type SignalTransport interface {
	SendText(number, text string) error
}

// ChannelSender delivers over Telegram when the recipient has a linked
// Telegram id, otherwise over Signal. Either transport may be nil when the
// channel is disabled.
type ChannelSender struct {
	bot    *tgbotapi.BotAPI
	signal SignalTransport
}

func NewChannelSender(bot *tgbotapi.BotAPI, signal SignalTransport) *ChannelSender {
	return &ChannelSender{bot: bot, signal: signal}
}

// SetTelegram attaches the bot session after construction. The sender and
// the command bot share one API client, and the bot is created later in
// the wiring.
func (s *ChannelSender) SetTelegram(bot *tgbotapi.BotAPI) {
	s.bot = bot
}

func (s *ChannelSender) Send(user *models.User, msg *Message) (string, error) {
	if s.bot != nil && user.HasTelegram() {
		return s.sendTelegram(user, msg)
	}

	if s.signal != nil && user.HasSignal() {
		if err := s.signal.SendText(user.SignalNumber, msg.Text); err != nil {
			return "", fmt.Errorf("signal send error: %w", err)
		}
		return "signal:" + uuid.NewString(), nil
	}

	return "", fmt.Errorf("user %d has no reachable channel", user.ID)
}

func (s *ChannelSender) sendTelegram(user *models.User, msg *Message) (string, error) {
	out := tgbotapi.NewMessage(user.TelegramID, msg.Chat)
	out.ParseMode = "HTML"

	if len(msg.Keyboard) > 0 {
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(msg.Keyboard...)
	}

	sent, err := s.bot.Send(out)
	if err != nil {
		return "", fmt.Errorf("telegram send error: %w", err)
	}

	log.Printf("Delivered telegram message %d to user %d", sent.MessageID, user.ID)
	return fmt.Sprintf("telegram:%d", sent.MessageID), nil
}
