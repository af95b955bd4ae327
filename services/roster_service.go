package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahilchouksey/eduplatform-api/model"
	"gorm.io/gorm"
)

// Scope says whose content a user may see
type Scope struct {
	All          bool   // admins see everything
	ProfessorIDs []uint // otherwise only content owned by these professors
}

// Apply filters q on column, e.g. "courses.professor_id"
func (s Scope) Apply(q *gorm.DB, column string) *gorm.DB {
	if s.All {
		return q
	}
	if len(s.ProfessorIDs) == 0 {
		return q.Where("1 = 0")
	}
	return q.Where(column+" IN ?", s.ProfessorIDs)
}

// Allows reports whether content owned by professorID is visible
func (s Scope) Allows(professorID uint) bool {
	if s.All {
		return true
	}
	for _, id := range s.ProfessorIDs {
		if id == professorID {
			return true
		}
	}
	return false
}

// RosterService answers questions about the professor/student relationship
type RosterService struct {
	db *gorm.DB
}

func NewRosterService(db *gorm.DB) *RosterService {
	return &RosterService{db: db}
}

// StudentsOf returns the students assigned to professorID ordered by name
func (s *RosterService) StudentsOf(ctx context.Context, professorID uint) ([]model.User, error) {
	var students []model.User
	err := s.db.WithContext(ctx).
		Joins("JOIN professor_students ps ON ps.student_id = users.id").
		Where("ps.professor_id = ?", professorID).
		Order("users.full_name ASC").
		Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}
	return students, nil
}

// ProfessorOf returns the professor of a student, or nil when unassigned
func (s *RosterService) ProfessorOf(ctx context.Context, studentID uint) (*model.User, error) {
	var link model.ProfessorStudent
	err := s.db.WithContext(ctx).
		Preload("Professor").
		Where("student_id = ?", studentID).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load professor of student %d: %w", studentID, err)
	}
	return link.Professor, nil
}

// VisibleProfessorIDs scopes content for a user: a student sees their
// professor's content, a professor their own, an admin everything.
func (s *RosterService) VisibleProfessorIDs(ctx context.Context, user *model.User) (Scope, error) {
	switch user.Role {
	case model.RoleAdmin:
		return Scope{All: true}, nil
	case model.RoleProfessor:
		return Scope{ProfessorIDs: []uint{user.ID}}, nil
	}

	professor, err := s.ProfessorOf(ctx, user.ID)
	if err != nil {
		return Scope{}, err
	}
	if professor == nil {
		return Scope{}, nil
	}
	return Scope{ProfessorIDs: []uint{professor.ID}}, nil
}

// ListStudents returns a professor's students, or a student's classmates
func (s *RosterService) ListStudents(ctx context.Context, user *model.User) ([]model.User, error) {
	if user.IsProfessor() {
		return s.StudentsOf(ctx, user.ID)
	}

	professor, err := s.ProfessorOf(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if professor == nil {
		return []model.User{}, nil
	}

	students, err := s.StudentsOf(ctx, professor.ID)
	if err != nil {
		return nil, err
	}

	classmates := make([]model.User, 0, len(students))
	for _, st := range students {
		if st.ID != user.ID {
			classmates = append(classmates, st)
		}
	}
	return classmates, nil
}
