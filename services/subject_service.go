package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahilchouksey/eduplatform-api/model"
	"gorm.io/gorm"
)

// CreateSubjectInput is the body of POST /subjects
type CreateSubjectInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=5000"`
	Color       string `json:"color" validate:"omitempty,subject_color"`
}

// UpdateSubjectInput is the body of PUT /subjects/:id. Nil means unchanged.
type UpdateSubjectInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Color       *string `json:"color" validate:"omitempty,subject_color"`
}

// SubjectService manages subjects
type SubjectService struct {
	db     *gorm.DB
	roster *RosterService
}

// NewSubjectService creates a new subject service
func NewSubjectService(db *gorm.DB, roster *RosterService) *SubjectService {
	return &SubjectService{db: db, roster: roster}
}

// List returns the subjects visible to user, newest first
func (s *SubjectService) List(ctx context.Context, user *model.User) ([]model.Subject, error) {
	scope, err := s.roster.VisibleProfessorIDs(ctx, user)
	if err != nil {
		return nil, err
	}

	var subjects []model.Subject
	q := scope.Apply(s.db.WithContext(ctx).Preload("Professor"), "subjects.professor_id")
	if err := q.Order("subjects.created_at DESC, subjects.id DESC").Find(&subjects).Error; err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	return subjects, nil
}

// Get returns one subject if user can see it
func (s *SubjectService) Get(ctx context.Context, user *model.User, id uint) (*model.Subject, error) {
	var subject model.Subject
	if err := s.db.WithContext(ctx).Preload("Professor").First(&subject, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Subject")
		}
		return nil, fmt.Errorf("failed to load subject: %w", err)
	}

	scope, err := s.roster.VisibleProfessorIDs(ctx, user)
	if err != nil {
		return nil, err
	}
	if !scope.Allows(subject.ProfessorID) {
		return nil, notFound("Subject")
	}
	return &subject, nil
}

// Create adds a subject owned by user
func (s *SubjectService) Create(ctx context.Context, user *model.User, in CreateSubjectInput) (*model.Subject, error) {
	if !user.IsProfessor() {
		return nil, forbidden("Only professors can create subjects")
	}

	color := in.Color
	if color == "" {
		color = model.DefaultSubjectColor
	}
	if !model.IsSubjectColor(color) {
		return nil, Invalid("Color must be one of the palette colors")
	}

	subject := &model.Subject{
		Name:        in.Name,
		Description: in.Description,
		Color:       color,
		ProfessorID: user.ID,
	}
	if err := s.db.WithContext(ctx).Create(subject).Error; err != nil {
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}

	subject.Professor = user
	return subject, nil
}

// loadOwned loads a subject the user may modify
func (s *SubjectService) loadOwned(ctx context.Context, user *model.User, id uint) (*model.Subject, error) {
	subject, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if subject.ProfessorID != user.ID && !user.IsAdmin() {
		return nil, forbidden("Only the subject owner can do that")
	}
	return subject, nil
}

// Update changes a subject owned by user
func (s *SubjectService) Update(ctx context.Context, user *model.User, id uint, in UpdateSubjectInput) (*model.Subject, error) {
	subject, err := s.loadOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, Invalid("Name cannot be empty")
		}
		updates["name"] = *in.Name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Color != nil {
		if !model.IsSubjectColor(*in.Color) {
			return nil, Invalid("Color must be one of the palette colors")
		}
		updates["color"] = *in.Color
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&model.Subject{ID: subject.ID}).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update subject: %w", err)
		}
	}
	return s.Get(ctx, user, id)
}

// Delete removes a subject. Its courses stay, detached from any subject.
func (s *SubjectService) Delete(ctx context.Context, user *model.User, id uint) error {
	subject, err := s.loadOwned(ctx, user, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Course{}).Where("subject_id = ?", subject.ID).Update("subject_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Subject{}, subject.ID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete subject: %w", err)
	}
	return nil
}
