package models

// CourseSettings are one user's per-course overrides on top of their
// site-wide preferences.
type CourseSettings struct {
	BaseModel

	UserID                  uint        `gorm:"index:idx_user_course,unique;not null" json:"user_id"`
	User                    User        `gorm:"foreignKey:UserID" json:"-"`
	CourseID                uint        `gorm:"index:idx_user_course,unique;not null" json:"course_id"`
	Course                  Course      `gorm:"foreignKey:CourseID" json:"-"`
	Authorized              bool        `gorm:"default:true" json:"authorized"`
	AllowTeacherInvolvement bool        `gorm:"default:false" json:"allow_teacher_involvement"`
	DisabledTargets         StringArray `gorm:"type:jsonb;serializer:json;default:'[]'" json:"disabled_targets"`
	DisabledAdvice          StringArray `gorm:"type:jsonb;serializer:json;default:'[]'" json:"disabled_advice"`
}

func (*CourseSettings) TableName() string {
	return "course_settings"
}

func (s *CourseSettings) TargetDisabled(target string) bool {
	return s.DisabledTargets.Contains(target)
}

func (s *CourseSettings) AdviceDisabled(name string) bool {
	return s.DisabledAdvice.Contains(name)
}
