package model

import "time"

// ProfessorStudent assigns a student to a professor. A student has at most one professor.
type ProfessorStudent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	ProfessorID uint      `gorm:"not null;index" json:"professor_id"`
	StudentID   uint      `gorm:"not null;uniqueIndex" json:"student_id"`

	// Relationships
	Professor *User `gorm:"foreignKey:ProfessorID;constraint:OnDelete:CASCADE" json:"professor,omitempty"`
	Student   *User `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
}

// TableName specifies the table name for ProfessorStudent
func (ProfessorStudent) TableName() string {
	return "professor_students"
}
