package scheduler

import (
	"time"

	"github.com/ild-thl/motbot-sub000/internal/models"
)

// windowHours is the width of the delivery window that opens at the
// recipient's preferred hour.
const windowHours = 3

// InWindow reports whether a message may be delivered now for a recipient
// with the given preferred hour. The window spans windowHours full hours
// starting at the preferred hour and wraps around midnight; a negative
// preferred hour means no preference and is always in window.
func InWindow(now time.Time, preferredHour int, onlyWeekdays bool) bool {
	if onlyWeekdays {
		switch now.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
	}

	if preferredHour < 0 {
		return true
	}

	diff := (now.Hour() - preferredHour + 24) % 24
	return diff < windowHours
}

// ResolvePreferredHour turns the stored preference into a concrete hour.
// The automatic setting falls back to the hour the user was last active;
// without any activity on record the result is -1 (always in window).
func ResolvePreferredHour(prefs *models.UserPreferences, user *models.User) int {
	if prefs == nil || prefs.HourIsAuto() {
		if user == nil {
			return -1
		}
		return user.LastAccessHour()
	}
	return prefs.PreferredHour
}
