package models

type ForumPost struct {
	BaseModel

	CourseID     uint   `gorm:"index;not null" json:"course_id"`
	Course       Course `gorm:"foreignKey:CourseID" json:"-"`
	AuthorID     uint   `gorm:"index;not null" json:"author_id"`
	Author       User   `gorm:"foreignKey:AuthorID" json:"-"`
	DiscussionID uint   `gorm:"index;not null" json:"discussion_id"`
	ParentID     *uint  `gorm:"index" json:"parent_id,omitempty"` // nil for the discussion starter
	Subject      string `json:"subject"`
	Message      string `gorm:"type:text" json:"message"`
	URL          string `json:"url,omitempty"`
}

func (*ForumPost) TableName() string {
	return "forum_posts"
}

func (p *ForumPost) IsDiscussionStarter() bool {
	return p.ParentID == nil
}
