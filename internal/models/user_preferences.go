package models

// PreferredHourAuto means the delivery hour is derived from the user's
// recent activity instead of a fixed setting.
const PreferredHourAuto = -1

type UserPreferences struct {
	BaseModel

	UserID        uint `gorm:"uniqueIndex;not null" json:"user_id"`
	User          User `gorm:"foreignKey:UserID" json:"-"`
	Authorized    bool `gorm:"default:true" json:"authorized"` // master opt-in switch
	PreferredHour int  `gorm:"default:-1" json:"preferred_hour"`
	OnlyWeekdays  bool `gorm:"default:false" json:"only_weekdays"`
}

func (*UserPreferences) TableName() string {
	return "user_preferences"
}

func (p *UserPreferences) HourIsAuto() bool {
	return p.PreferredHour == PreferredHourAuto
}
