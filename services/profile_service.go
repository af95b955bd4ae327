package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahilchouksey/eduplatform-api/model"
	"gorm.io/gorm"
)

// Profile is what GET /profile returns
type Profile struct {
	ID        uint        `json:"id"`
	Email     string      `json:"email"`
	FullName  string      `json:"full_name"`
	Role      string      `json:"role"`
	AvatarURL string      `json:"avatar_url"`
	ClassName string      `json:"class_name"`
	Professor *model.User `json:"professor,omitempty"`
}

// UpdateProfileInput holds the editable profile fields. Nil means unchanged.
type UpdateProfileInput struct {
	FullName  *string `json:"full_name" validate:"omitempty,min=1,max=255"`
	ClassName *string `json:"class_name" validate:"omitempty,max=100"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,max=2048"`
}

// ProfileService manages the caller's own profile and professor assignment
type ProfileService struct {
	db     *gorm.DB
	roster *RosterService
}

func NewProfileService(db *gorm.DB, roster *RosterService) *ProfileService {
	return &ProfileService{db: db, roster: roster}
}

// GetProfile loads a user's profile, with their professor if they are a student
func (s *ProfileService) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("User")
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	profile := &Profile{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		AvatarURL: user.AvatarURL,
		ClassName: user.ClassName,
	}

	if user.IsStudent() {
		professor, err := s.roster.ProfessorOf(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		profile.Professor = professor
	}
	return profile, nil
}

// UpdateProfile changes the editable fields of the caller's profile
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*Profile, error) {
	updates := map[string]interface{}{}
	if in.FullName != nil {
		if *in.FullName == "" {
			return nil, Invalid("Full name cannot be empty")
		}
		updates["full_name"] = *in.FullName
	}
	if in.ClassName != nil {
		updates["class_name"] = *in.ClassName
	}
	if in.AvatarURL != nil {
		updates["avatar_url"] = *in.AvatarURL
	}

	if len(updates) > 0 {
		result := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("failed to update profile: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, notFound("User")
		}
	}

	return s.GetProfile(ctx, userID)
}

// ListProfessors returns every professor ordered by name
func (s *ProfileService) ListProfessors(ctx context.Context) ([]model.User, error) {
	var professors []model.User
	err := s.db.WithContext(ctx).
		Where("role = ?", model.RoleProfessor).
		Order("full_name ASC").
		Find(&professors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list professors: %w", err)
	}
	return professors, nil
}

// AssignProfessor replaces a student's professor in one transaction
func (s *ProfileService) AssignProfessor(ctx context.Context, student *model.User, professorID uint) (*Profile, error) {
	if !student.IsStudent() {
		return nil, forbidden("Only students can choose a professor")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var professor model.User
		if err := tx.Where("id = ? AND role = ?", professorID, model.RoleProfessor).First(&professor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Professor")
			}
			return err
		}

		if err := tx.Where("student_id = ?", student.ID).Delete(&model.ProfessorStudent{}).Error; err != nil {
			return err
		}

		return tx.Create(&model.ProfessorStudent{ProfessorID: professor.ID, StudentID: student.ID}).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to assign professor: %w", err)
	}

	return s.GetProfile(ctx, student.ID)
}
