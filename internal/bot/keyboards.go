package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ild-thl/motbot-sub000/internal/models"
)

func settingsText(prefs *models.UserPreferences) string {
	authorized := "on"
	if !prefs.Authorized {
		authorized = "off"
	}

	hour := "automatic (when you are usually online)"
	if !prefs.HourIsAuto() {
		hour = fmt.Sprintf("around %02d:00", prefs.PreferredHour)
	}

	days := "every day"
	if prefs.OnlyWeekdays {
		days = "weekdays only"
	}

	return fmt.Sprintf(
		"Your settings:\n\nNudges: %s\nDelivery time: %s\nDelivery days: %s",
		authorized, hour, days,
	)
}

func settingsKeyboard(prefs *models.UserPreferences) tgbotapi.InlineKeyboardMarkup {
	authorizeLabel := "🔕 Pause nudges"
	authorizeData := "settings_authorize_off"
	if !prefs.Authorized {
		authorizeLabel = "🔔 Resume nudges"
		authorizeData = "settings_authorize_on"
	}

	weekdaysLabel := "📅 Weekdays only"
	weekdaysData := "settings_weekdays_on"
	if prefs.OnlyWeekdays {
		weekdaysLabel = "📅 Every day"
		weekdaysData = "settings_weekdays_off"
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(authorizeLabel, authorizeData),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🕗 Morning", "settings_hour_8"),
			tgbotapi.NewInlineKeyboardButtonData("🕐 Noon", "settings_hour_13"),
			tgbotapi.NewInlineKeyboardButtonData("🕕 Evening", "settings_hour_18"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🤖 Automatic time", "settings_hour_auto"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(weekdaysLabel, weekdaysData),
		),
	)
}
