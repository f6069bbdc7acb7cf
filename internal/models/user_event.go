package models

// Event identifiers delivered by the host platform. These are the values
// targets may list as desired events.
const (
	EventUserLoggedIn     = "user_loggedin"
	EventCourseViewed     = "course_viewed"
	EventModuleViewed     = "module_viewed"
	EventForumPostCreated = "forum_post_created"
)

// UserEvent is one observed user action, kept both for success detection
// audit and for the "recent activity" status read.
type UserEvent struct {
	BaseModel

	UserID    uint    `gorm:"index;not null" json:"user_id"`
	User      User    `gorm:"foreignKey:UserID" json:"-"`
	ContextID uint    `gorm:"index" json:"context_id"` // course id, 0 for site-wide
	Name      string  `gorm:"index;not null" json:"name"`
	Data      JSONMap `gorm:"type:jsonb;serializer:json" json:"data,omitempty"`
}

func (*UserEvent) TableName() string {
	return "user_events"
}
