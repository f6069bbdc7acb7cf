package models

import "time"

// CourseModule is one activity inside a course (assignment, quiz, page...).
type CourseModule struct {
	BaseModel

	CourseID uint       `gorm:"index;not null" json:"course_id"`
	Course   Course     `gorm:"foreignKey:CourseID" json:"-"`
	Name     string     `gorm:"not null" json:"name"`
	ModType  string     `gorm:"index" json:"mod_type"`
	URL      string     `json:"url,omitempty"`
	DueDate  *time.Time `gorm:"index" json:"due_date,omitempty"`
	Visible  bool       `gorm:"default:true" json:"visible"`
}

func (*CourseModule) TableName() string {
	return "course_modules"
}

func (m *CourseModule) DueWithin(d time.Duration) bool {
	if m.DueDate == nil {
		return false
	}
	now := time.Now()
	return m.DueDate.After(now) && m.DueDate.Before(now.Add(d))
}
