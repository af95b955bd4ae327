package model

import (
	"time"

	"gorm.io/gorm"
)

// Course is a unit of work published by a professor, optionally inside a subject
type Course struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Content     string     `gorm:"type:text" json:"content,omitempty"`
	SubjectID   *uint      `gorm:"index" json:"subject_id"`
	ProfessorID uint       `gorm:"not null;index" json:"professor_id"`
	Deadline    *time.Time `json:"deadline"`
	FileURL     string     `gorm:"type:text" json:"file_url,omitempty"`

	// Computed on load
	IsDeadlinePassed bool `gorm:"-" json:"is_deadline_passed"`

	// Relationships
	Subject   *Subject `gorm:"foreignKey:SubjectID;constraint:OnDelete:SET NULL" json:"subject,omitempty"`
	Professor *User    `gorm:"foreignKey:ProfessorID;constraint:OnDelete:CASCADE" json:"professor,omitempty"`
}

// TableName specifies the table name for Course
func (Course) TableName() string {
	return "courses"
}

// DeadlinePassed reports whether the course deadline is before now
func (c *Course) DeadlinePassed(now time.Time) bool {
	return c.Deadline != nil && now.After(*c.Deadline)
}

// AfterFind fills the computed fields
func (c *Course) AfterFind(tx *gorm.DB) error {
	c.IsDeadlinePassed = c.DeadlinePassed(time.Now())
	return nil
}
