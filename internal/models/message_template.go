package models

// MessageTemplate is an administrator-provided intervention message for a
// (course, target, predicted class) combination. CourseID 0 is the
// site-wide default; a nil PredictedClass matches any class.
type MessageTemplate struct {
	BaseModel

	CourseID       uint   `gorm:"index" json:"course_id"`
	Target         string `gorm:"index;not null" json:"target"`
	PredictedClass *int   `json:"predicted_class,omitempty"`
	Subject        string `json:"subject"`
	Body           string `gorm:"type:text;not null" json:"body"`
	Enabled        bool   `gorm:"default:true" json:"enabled"`
}

func (*MessageTemplate) TableName() string {
	return "message_templates"
}

func (t *MessageTemplate) MatchesClass(class *int) bool {
	if t.PredictedClass == nil {
		return true
	}
	if class == nil {
		return false
	}
	return *t.PredictedClass == *class
}
