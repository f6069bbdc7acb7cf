package bot

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ild-thl/motbot-sub000/internal/chat"
	"github.com/ild-thl/motbot-sub000/internal/models"
)

const helpText = `I keep an eye on your courses and nudge you when it looks like you could use one.

Commands:
/advice - get a study tip right now
/status - see how you are doing
/settings - delivery preferences and opt-out
/help - this message

You can also just write to me, for example "give me some advice".`

func (b *Bot) handleStart(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	user, err := b.userRepo.GetByTelegramID(chatID)
	if err != nil {
		log.Printf("Failed to look up telegram id %d: %v", chatID, err)
		b.sendError(chatID)
		return
	}

	if user != nil {
		b.reply(chatID, fmt.Sprintf("Welcome back, %s! Send /help to see what I can do.", user.FirstName))
		return
	}

	username := message.CommandArguments()
	if username == "" {
		b.reply(chatID, "Hi! To link this chat with your course account, send /start followed by your username, e.g. /start jane.doe")
		return
	}

	user, err = b.userRepo.GetByUsername(username)
	if err != nil {
		log.Printf("Failed to look up username %s: %v", username, err)
		b.sendError(chatID)
		return
	}
	if user == nil {
		b.reply(chatID, fmt.Sprintf("I could not find an account named %q. Check the spelling and try again.", username))
		return
	}

	user.TelegramID = chatID
	if err := b.userRepo.Update(user); err != nil {
		log.Printf("Failed to link telegram id %d to user %d: %v", chatID, user.ID, err)
		b.sendError(chatID)
		return
	}

	if _, err := b.prefsRepo.GetOrCreate(user.ID); err != nil {
		log.Printf("Failed to create preferences for user %d: %v", user.ID, err)
	}

	log.Printf("Linked telegram chat %d to user %d (%s)", chatID, user.ID, user.Username)
	b.reply(chatID, fmt.Sprintf("Hi %s, you are all set! Send /help to see what I can do.", user.FirstName))
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	b.reply(message.Chat.ID, helpText)
}

func (b *Bot) handleAdvice(message *tgbotapi.Message) {
	user := b.resolveUser(message.Chat.ID)
	if user == nil {
		return
	}

	reply, err := b.router.AdviceReply(user)
	if err != nil {
		log.Printf("Failed to build advice for user %d: %v", user.ID, err)
		b.sendError(message.Chat.ID)
		return
	}

	b.sendReply(message.Chat.ID, reply)
}

func (b *Bot) handleStatus(message *tgbotapi.Message) {
	user := b.resolveUser(message.Chat.ID)
	if user == nil {
		return
	}

	reply, err := b.router.StatusReply(user)
	if err != nil {
		log.Printf("Failed to build status for user %d: %v", user.ID, err)
		b.sendError(message.Chat.ID)
		return
	}

	b.reply(message.Chat.ID, reply.Text)
}

func (b *Bot) handleSettings(message *tgbotapi.Message) {
	user := b.resolveUser(message.Chat.ID)
	if user == nil {
		return
	}

	prefs, err := b.prefsRepo.GetOrCreate(user.ID)
	if err != nil {
		log.Printf("Failed to load preferences for user %d: %v", user.ID, err)
		b.sendError(message.Chat.ID)
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, settingsText(prefs))
	msg.ReplyMarkup = settingsKeyboard(prefs)
	if _, err := b.api.Send(msg); err != nil {
		log.Println(err)
	}
}

func (b *Bot) handleUnknown(message *tgbotapi.Message) {
	b.reply(message.Chat.ID, "I do not know that command. Send /help to see what I can do.")
}

func (b *Bot) handleText(message *tgbotapi.Message) {
	user := b.resolveUser(message.Chat.ID)
	if user == nil {
		return
	}

	reply, err := b.router.HandleText(user, message.Text)
	if err != nil {
		log.Printf("Failed to handle text from user %d: %v", user.ID, err)
		b.sendError(message.Chat.ID)
		return
	}

	b.sendReply(message.Chat.ID, reply)
}

// resolveUser maps the chat to a linked account, prompting for /start when
// the chat is unknown.
func (b *Bot) resolveUser(chatID int64) *models.User {
	user, err := b.userRepo.GetByTelegramID(chatID)
	if err != nil {
		log.Printf("Failed to look up telegram id %d: %v", chatID, err)
		b.sendError(chatID)
		return nil
	}
	if user == nil {
		b.reply(chatID, "This chat is not linked yet. Send /start followed by your username to get going.")
		return nil
	}
	return user
}

func (b *Bot) sendReply(chatID int64, reply *chat.Reply) {
	msg := tgbotapi.NewMessage(chatID, reply.Text)

	if reply.Suggestion != nil {
		_, rows := reply.Suggestion.RenderTelegram()
		if len(rows) > 0 {
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		}
	}

	if _, err := b.api.Send(msg); err != nil {
		log.Println(err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Println(err)
	}
}

func (b *Bot) sendError(chatID int64) {
	b.reply(chatID, "Something went wrong, please try again later.")
}
