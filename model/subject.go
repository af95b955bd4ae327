package model

import "time"

// DefaultSubjectColor is used when a subject is created without a color
const DefaultSubjectColor = "#3B82F6"

// SubjectColors is the palette subjects can pick from
var SubjectColors = []string{
	"#3B82F6", // blue
	"#10B981", // green
	"#F59E0B", // amber
	"#EF4444", // red
	"#8B5CF6", // violet
	"#EC4899", // pink
	"#06B6D4", // cyan
	"#84CC16", // lime
	"#F97316", // orange
	"#6366F1", // indigo
}

// IsSubjectColor reports whether color belongs to the palette
func IsSubjectColor(color string) bool {
	for _, c := range SubjectColors {
		if c == color {
			return true
		}
	}
	return false
}

// Subject groups courses taught by one professor
type Subject struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Color       string    `gorm:"type:varchar(7);not null;default:'#3B82F6'" json:"color"`
	ProfessorID uint      `gorm:"not null;index" json:"professor_id"`

	// Relationships
	Professor *User `gorm:"foreignKey:ProfessorID;constraint:OnDelete:CASCADE" json:"professor,omitempty"`
}

// TableName specifies the table name for Subject
func (Subject) TableName() string {
	return "subjects"
}
