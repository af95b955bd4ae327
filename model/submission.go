package model

import "time"

// SubmissionStatus is the lifecycle state of a submission
type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "pending"
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusGraded    SubmissionStatus = "graded"
)

// Valid reports whether s is a known status
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusSubmitted, SubmissionStatusGraded:
		return true
	}
	return false
}

// Grade bounds, inclusive
const (
	MinGrade = 0.0
	MaxGrade = 20.0
)

// Submission is a student's answer to a course. One per (course, student).
type Submission struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CourseID    uint             `gorm:"not null;uniqueIndex:idx_submissions_course_student" json:"course_id"`
	StudentID   uint             `gorm:"not null;uniqueIndex:idx_submissions_course_student;index" json:"student_id"`
	Content     string           `gorm:"type:text" json:"content,omitempty"`
	FileURL     string           `gorm:"type:text" json:"file_url,omitempty"`
	Grade       *float64         `gorm:"type:decimal(4,2)" json:"grade"`
	Feedback    string           `gorm:"type:text" json:"feedback,omitempty"`
	Status      SubmissionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	SubmittedAt *time.Time       `json:"submitted_at"`
	GradedAt    *time.Time       `json:"graded_at"`

	// Relationships
	Course  *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Student *User   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
}

// TableName specifies the table name for Submission
func (Submission) TableName() string {
	return "submissions"
}

// ValidGrade reports whether grade is within the 0..20 scale
func ValidGrade(grade float64) bool {
	return grade >= MinGrade && grade <= MaxGrade
}
