package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/services/mail"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"gorm.io/gorm"
)

// CreateCourseInput is the body of POST /courses
type CreateCourseInput struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"max=5000"`
	Content     string     `json:"content"`
	SubjectID   *uint      `json:"subject_id"`
	Deadline    *time.Time `json:"deadline"`
	FileURL     string     `json:"file_url" validate:"max=2048"`
}

// UpdateCourseInput is the body of PUT /courses/:id. Nil means unchanged;
// a subject_id of 0 detaches the course and clear_deadline removes the deadline.
type UpdateCourseInput struct {
	Title         *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description   *string    `json:"description" validate:"omitempty,max=5000"`
	Content       *string    `json:"content"`
	SubjectID     *uint      `json:"subject_id"`
	Deadline      *time.Time `json:"deadline"`
	ClearDeadline bool       `json:"clear_deadline"`
	FileURL       *string    `json:"file_url" validate:"omitempty,max=2048"`
}

// CourseDetail is a course plus the caller's own submission, for students
type CourseDetail struct {
	model.Course
	MySubmission *model.Submission `json:"my_submission,omitempty"`
}

// CourseService manages courses
type CourseService struct {
	db            *gorm.DB
	roster        *RosterService
	files         *FileService
	cache         JSONCache
	notifications *NotificationService
	log           *logger.Logger
}

// NewCourseService creates a new course service. cache may be nil.
func NewCourseService(db *gorm.DB, roster *RosterService, files *FileService, cache JSONCache, notifications *NotificationService, log *logger.Logger) *CourseService {
	return &CourseService{db: db, roster: roster, files: files, cache: cache, notifications: notifications, log: log}
}

// List returns the courses visible to user, newest first, optionally in one subject
func (s *CourseService) List(ctx context.Context, user *model.User, subjectID *uint) ([]model.Course, error) {
	scope, err := s.roster.VisibleProfessorIDs(ctx, user)
	if err != nil {
		return nil, err
	}

	q := scope.Apply(s.db.WithContext(ctx).Preload("Subject").Preload("Professor"), "courses.professor_id")
	if subjectID != nil {
		q = q.Where("courses.subject_id = ?", *subjectID)
	}

	var courses []model.Course
	if err := q.Order("courses.created_at DESC, courses.id DESC").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// Visible loads a course if user can see it
func (s *CourseService) Visible(ctx context.Context, user *model.User, id uint) (*model.Course, error) {
	var course model.Course
	err := s.db.WithContext(ctx).Preload("Subject").Preload("Professor").First(&course, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Course")
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	scope, err := s.roster.VisibleProfessorIDs(ctx, user)
	if err != nil {
		return nil, err
	}
	if !scope.Allows(course.ProfessorID) {
		return nil, notFound("Course")
	}
	return &course, nil
}

// Get returns the course detail. Students also get their own submission.
func (s *CourseService) Get(ctx context.Context, user *model.User, id uint) (*CourseDetail, error) {
	course, err := s.Visible(ctx, user, id)
	if err != nil {
		return nil, err
	}

	detail := &CourseDetail{Course: *course}
	if user.IsStudent() {
		var submission model.Submission
		err := s.db.WithContext(ctx).
			Where("course_id = ? AND student_id = ?", course.ID, user.ID).
			First(&submission).Error
		switch {
		case err == nil:
			detail.MySubmission = &submission
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("failed to load submission: %w", err)
		}
	}
	return detail, nil
}

// checkSubject verifies that user may file a course under subjectID
func (s *CourseService) checkSubject(ctx context.Context, user *model.User, subjectID uint) (*model.Subject, error) {
	var subject model.Subject
	if err := s.db.WithContext(ctx).First(&subject, subjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Subject")
		}
		return nil, fmt.Errorf("failed to load subject: %w", err)
	}
	if subject.ProfessorID != user.ID && !user.IsAdmin() {
		return nil, forbidden("You can only add courses to your own subjects")
	}
	return &subject, nil
}

// Create publishes a course and tells the professor's students about it
func (s *CourseService) Create(ctx context.Context, user *model.User, in CreateCourseInput) (*model.Course, error) {
	if !user.IsProfessor() {
		return nil, forbidden("Only professors can create courses")
	}

	course := &model.Course{
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		ProfessorID: user.ID,
		Deadline:    in.Deadline,
		FileURL:     in.FileURL,
	}

	if in.SubjectID != nil && *in.SubjectID != 0 {
		subject, err := s.checkSubject(ctx, user, *in.SubjectID)
		if err != nil {
			return nil, err
		}
		course.SubjectID = &subject.ID
		course.Subject = subject
	}

	if err := s.db.WithContext(ctx).Create(course).Error; err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	course.Professor = user
	course.IsDeadlinePassed = course.DeadlinePassed(time.Now())

	invalidateReadModels(ctx, s.cache, s.log)
	s.announce(ctx, user, course)
	return course, nil
}

// announce sends new_course to every student of the professor. Failures are
// logged; the course is already committed.
func (s *CourseService) announce(ctx context.Context, professor *model.User, course *model.Course) {
	if s.notifications == nil {
		return
	}

	students, err := s.roster.StudentsOf(ctx, professor.ID)
	if err != nil {
		s.log.Error("failed to load students for new course notification", "course_id", course.ID, "error", err)
		return
	}
	if len(students) == 0 {
		return
	}

	recipients := make([]Recipient, 0, len(students))
	for i := range students {
		recipients = append(recipients, RecipientOf(&students[i]))
	}

	data := mail.Data{CourseName: course.Title, ProfessorName: professor.FullName}
	if course.Subject != nil {
		data.SubjectName = course.Subject.Name
	}

	courseID := course.ID
	if err := s.notifications.NotifyUsers(context.WithoutCancel(ctx), recipients, model.NotificationNewCourse, data, &courseID); err != nil {
		s.log.Warn("some new course notifications failed", "course_id", course.ID, "error", err)
	}
}

// loadOwned loads a course the user may modify
func (s *CourseService) loadOwned(ctx context.Context, user *model.User, id uint) (*model.Course, error) {
	course, err := s.Visible(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if course.ProfessorID != user.ID && !user.IsAdmin() {
		return nil, forbidden("Only the course owner can do that")
	}
	return course, nil
}

// Update changes a course owned by user
func (s *CourseService) Update(ctx context.Context, user *model.User, id uint, in UpdateCourseInput) (*model.Course, error) {
	course, err := s.loadOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		if *in.Title == "" {
			return nil, Invalid("Title cannot be empty")
		}
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Content != nil {
		updates["content"] = *in.Content
	}
	if in.FileURL != nil {
		updates["file_url"] = *in.FileURL
	}
	if in.SubjectID != nil {
		if *in.SubjectID == 0 {
			updates["subject_id"] = nil
		} else {
			subject, err := s.checkSubject(ctx, user, *in.SubjectID)
			if err != nil {
				return nil, err
			}
			updates["subject_id"] = subject.ID
		}
	}
	if in.ClearDeadline {
		updates["deadline"] = nil
	} else if in.Deadline != nil {
		updates["deadline"] = in.Deadline.UTC()
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&model.Course{ID: course.ID}).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update course: %w", err)
		}
		if in.FileURL != nil && *in.FileURL != course.FileURL {
			s.removeFiles(ctx, course.FileURL)
		}
		invalidateReadModels(ctx, s.cache, s.log)
	}
	return s.Visible(ctx, user, id)
}

// Delete removes a course with its submissions and comments
func (s *CourseService) Delete(ctx context.Context, user *model.User, id uint) error {
	course, err := s.loadOwned(ctx, user, id)
	if err != nil {
		return err
	}

	files := []string{course.FileURL}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var submitted []string
		if err := tx.Model(&model.Submission{}).
			Where("course_id = ? AND file_url <> ''", course.ID).
			Pluck("file_url", &submitted).Error; err != nil {
			return err
		}
		files = append(files, submitted...)

		if err := tx.Where("course_id = ?", course.ID).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&model.Submission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Course{}, course.ID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.removeFiles(ctx, files...)
	invalidateReadModels(ctx, s.cache, s.log)
	return nil
}

func (s *CourseService) removeFiles(ctx context.Context, fileURLs ...string) {
	removeUnreferenced(ctx, s.db, s.files, s.log, fileURLs...)
}
