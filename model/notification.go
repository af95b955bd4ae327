package model

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationType identifies what happened. The same values select email templates.
type NotificationType string

const (
	NotificationSubmissionReceived NotificationType = "submission_received"
	NotificationSubmissionGraded   NotificationType = "submission_graded"
	NotificationNewCourse          NotificationType = "new_course"
	NotificationCommentAdded       NotificationType = "comment_added"
	NotificationDeadlineReminder   NotificationType = "deadline_reminder"

	// Email only, never stored as an in-app notification
	EmailPasswordReset NotificationType = "password_reset"
)

// UserNotification is an in-app notification shown to a user
type UserNotification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	UserID    uint             `gorm:"index;not null" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(40);not null;index" json:"type"`
	Title     string           `gorm:"type:varchar(255);not null" json:"title"`
	Message   string           `gorm:"type:text" json:"message"`
	Read      bool             `gorm:"default:false;index" json:"read"`
	CourseID  *uint            `gorm:"index" json:"course_id,omitempty"` // Course the notification is about, if any
	Data      datatypes.JSON   `json:"data,omitempty"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for UserNotification
func (UserNotification) TableName() string {
	return "user_notifications"
}

// NotificationResponse represents the API response format for a notification
type NotificationResponse struct {
	ID        uint             `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CourseID  *uint            `json:"course_id,omitempty"`
	Data      datatypes.JSON   `json:"data,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// ToResponse converts a UserNotification to NotificationResponse
func (n *UserNotification) ToResponse() NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		CourseID:  n.CourseID,
		Data:      n.Data,
		CreatedAt: n.CreatedAt,
	}
}
