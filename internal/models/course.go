package models

import "time"

type Course struct {
	BaseModel

	Shortname string     `gorm:"uniqueIndex;not null" json:"shortname"`
	Fullname  string     `gorm:"not null" json:"fullname"`
	Summary   string     `gorm:"type:text" json:"summary,omitempty"`
	URL       string     `json:"url,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	IsVisible bool       `gorm:"default:true" json:"is_visible"`
}

func (*Course) TableName() string {
	return "courses"
}

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// CourseMember is one enrolment of a user into a course. Its primary key
// doubles as the enrolment id used by targets that predict on the
// enrolment sample space.
type CourseMember struct {
	BaseModel

	CourseID uint   `gorm:"index:idx_course_user,unique;not null" json:"course_id"`
	Course   Course `gorm:"foreignKey:CourseID" json:"-"`
	UserID   uint   `gorm:"index:idx_course_user,unique;not null" json:"user_id"`
	User     User   `gorm:"foreignKey:UserID" json:"-"`
	Role     string `gorm:"index;default:'student'" json:"role"`
}

func (*CourseMember) TableName() string {
	return "course_members"
}

func (m *CourseMember) IsTeacher() bool {
	return m.Role == RoleTeacher
}
