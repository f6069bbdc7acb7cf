package bot

import (
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ild-thl/motbot-sub000/internal/models"
)

// handleHelpfulCallback records feedback from the "Helpful" buttons under a
// delivered message. Data format: helpful_{interventionID}_{0|1}.
func (b *Bot) handleHelpfulCallback(callback *tgbotapi.CallbackQuery) {
	parts := strings.Split(callback.Data, "_")
	if len(parts) != 3 {
		return
	}

	id, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return
	}
	helpful := parts[2] == "1"

	if err := b.service.SetHelpful(uint(id), helpful); err != nil {
		log.Printf("Failed to record feedback for intervention %d: %v", id, err)
		return
	}

	text := "Thanks for the feedback!"
	if helpful {
		text = "Glad it helped! 🎉"
	}
	b.reply(callback.Message.Chat.ID, text)
}

func (b *Bot) handleAdviceCallback(callback *tgbotapi.CallbackQuery) {
	user := b.resolveUser(callback.Message.Chat.ID)
	if user == nil {
		return
	}

	reply, err := b.router.AdviceReply(user)
	if err != nil {
		log.Printf("Failed to build advice for user %d: %v", user.ID, err)
		return
	}

	b.sendReply(callback.Message.Chat.ID, reply)
}

func (b *Bot) handleSettingsCallback(callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID

	user := b.resolveUser(chatID)
	if user == nil {
		return
	}

	prefs, err := b.prefsRepo.GetOrCreate(user.ID)
	if err != nil {
		log.Printf("Failed to load preferences for user %d: %v", user.ID, err)
		b.sendError(chatID)
		return
	}

	switch {
	case callback.Data == "settings_authorize_on":
		prefs.Authorized = true
	case callback.Data == "settings_authorize_off":
		prefs.Authorized = false
	case callback.Data == "settings_weekdays_on":
		prefs.OnlyWeekdays = true
	case callback.Data == "settings_weekdays_off":
		prefs.OnlyWeekdays = false
	case callback.Data == "settings_hour_auto":
		prefs.PreferredHour = models.PreferredHourAuto
	case strings.HasPrefix(callback.Data, "settings_hour_"):
		hour, err := strconv.Atoi(strings.TrimPrefix(callback.Data, "settings_hour_"))
		if err != nil || hour < 0 || hour > 23 {
			return
		}
		prefs.PreferredHour = hour
	default:
		return
	}

	if err := b.prefsRepo.Update(prefs); err != nil {
		log.Printf("Failed to update preferences for user %d: %v", user.ID, err)
		b.sendError(chatID)
		return
	}

	// Refresh the settings message in place.
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		chatID, callback.Message.MessageID, settingsText(prefs), settingsKeyboard(prefs))
	if _, err := b.api.Send(edit); err != nil {
		log.Println(err)
	}
}
