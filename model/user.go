package model

import (
	"time"

	"gorm.io/gorm"
)

// Roles a profile can hold
const (
	RoleStudent   = "student"
	RoleProfessor = "professor"
	RoleAdmin     = "admin"
)

// User is a registered account together with its public profile
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	FullName     string         `gorm:"type:varchar(255);not null" json:"full_name"`
	Role         string         `gorm:"type:varchar(20);not null;default:'student';index" json:"role"`
	AvatarURL    string         `gorm:"type:text" json:"avatar_url,omitempty"`
	ClassName    string         `gorm:"type:varchar(100)" json:"class_name,omitempty"`
	TokenVersion int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens
}

// IsProfessor reports whether the user may manage subjects, courses and grades.
// Admins count as professors everywhere in the portal.
func (u *User) IsProfessor() bool {
	return u.Role == RoleProfessor || u.Role == RoleAdmin
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// ValidRole reports whether role is one of the known roles
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleProfessor, RoleAdmin:
		return true
	}
	return false
}
