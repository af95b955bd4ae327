package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/services/mail"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmitInput is the body of POST /courses/:id/submission
type SubmitInput struct {
	Content string `json:"content"`
	FileURL string `json:"file_url" validate:"max=2048"`
}

// GradeInput is the body of POST /submissions/:id/grade
type GradeInput struct {
	Grade    *float64 `json:"grade" validate:"required"`
	Feedback string   `json:"feedback" validate:"max=5000"`
}

// ListSubmissionsOptions filters GET /submissions
type ListSubmissionsOptions struct {
	Status   model.SubmissionStatus
	CourseID *uint
}

// SubmissionService handles submitting and grading work
type SubmissionService struct {
	db            *gorm.DB
	courses       *CourseService
	files         *FileService
	cache         JSONCache
	notifications *NotificationService
	log           *logger.Logger
	now           func() time.Time
}

// NewSubmissionService creates a new submission service. cache may be nil.
func NewSubmissionService(db *gorm.DB, courses *CourseService, files *FileService, cache JSONCache, notifications *NotificationService, log *logger.Logger) *SubmissionService {
	return &SubmissionService{
		db:            db,
		courses:       courses,
		files:         files,
		cache:         cache,
		notifications: notifications,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Submit creates or replaces the caller's submission for a course. Graded
// work is locked.
func (s *SubmissionService) Submit(ctx context.Context, student *model.User, courseID uint, in SubmitInput) (*model.Submission, error) {
	if !student.IsStudent() {
		return nil, forbidden("Only students can submit work")
	}

	course, err := s.courses.Visible(ctx, student, courseID)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(in.Content)
	fileURL := strings.TrimSpace(in.FileURL)
	if content == "" && fileURL == "" {
		return nil, Invalid("Please add content or a file")
	}
	if !InUserFolder(fileURL, student.ID) {
		return nil, forbidden("You can only submit files you uploaded")
	}

	var previous model.Submission
	err = s.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", course.ID, student.ID).
		Take(&previous).Error
	switch {
	case err == nil:
		if previous.Status == model.SubmissionStatusGraded {
			return nil, conflict("This submission has already been graded")
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}

	now := s.now()
	submission := &model.Submission{
		CourseID:    course.ID,
		StudentID:   student.ID,
		Content:     content,
		FileURL:     fileURL,
		Status:      model.SubmissionStatusSubmitted,
		SubmittedAt: &now,
	}

	// Grading between the check above and this write wins: the update is skipped
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "course_id"}, {Name: "student_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"content":      content,
			"file_url":     fileURL,
			"status":       model.SubmissionStatusSubmitted,
			"submitted_at": now,
			"updated_at":   now,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "submissions.status <> ?", Vars: []interface{}{model.SubmissionStatusGraded}},
		}},
	}).Create(submission).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}

	var saved model.Submission
	if err := s.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", course.ID, student.ID).
		First(&saved).Error; err != nil {
		return nil, fmt.Errorf("failed to reload submission: %w", err)
	}
	if saved.Status == model.SubmissionStatusGraded {
		return nil, conflict("This submission has already been graded")
	}

	if previous.FileURL != "" && previous.FileURL != fileURL {
		removeUnreferenced(ctx, s.db, s.files, s.log, previous.FileURL)
	}
	invalidateReadModels(ctx, s.cache, s.log)
	s.notifyProfessor(ctx, course, student)
	return &saved, nil
}

func (s *SubmissionService) notifyProfessor(ctx context.Context, course *model.Course, student *model.User) {
	if s.notifications == nil || course.Professor == nil {
		return
	}

	courseID := course.ID
	err := s.notifications.NotifyUsers(context.WithoutCancel(ctx),
		[]Recipient{RecipientOf(course.Professor)},
		model.NotificationSubmissionReceived,
		mail.Data{CourseName: course.Title, StudentName: student.FullName},
		&courseID,
	)
	if err != nil {
		s.log.Warn("failed to notify professor of submission", "course_id", course.ID, "error", err)
	}
}

// List returns the submissions visible to user, newest first
func (s *SubmissionService) List(ctx context.Context, user *model.User, opts ListSubmissionsOptions) ([]model.Submission, error) {
	q := s.db.WithContext(ctx).
		Preload("Course.Subject").
		Preload("Student").
		Joins("JOIN courses ON courses.id = submissions.course_id")

	switch user.Role {
	case model.RoleAdmin:
	case model.RoleProfessor:
		q = q.Where("courses.professor_id = ?", user.ID)
	default:
		q = q.Where("submissions.student_id = ?", user.ID)
	}

	if opts.Status != "" {
		q = q.Where("submissions.status = ?", opts.Status)
	}
	if opts.CourseID != nil {
		q = q.Where("submissions.course_id = ?", *opts.CourseID)
	}

	var submissions []model.Submission
	if err := q.Order("submissions.created_at DESC, submissions.id DESC").Find(&submissions).Error; err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

// load returns a submission with its course, student and professor
func (s *SubmissionService) load(ctx context.Context, id uint) (*model.Submission, error) {
	var submission model.Submission
	err := s.db.WithContext(ctx).
		Preload("Course.Professor").
		Preload("Student").
		First(&submission, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Submission")
		}
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	return &submission, nil
}

// Grade records a grade and feedback on a submission of the caller's course
func (s *SubmissionService) Grade(ctx context.Context, user *model.User, id uint, in GradeInput) (*model.Submission, error) {
	if in.Grade == nil || !model.ValidGrade(*in.Grade) {
		return nil, Invalid("Grade must be between 0 and 20")
	}

	submission, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if submission.Course.ProfessorID != user.ID && !user.IsAdmin() {
		if !user.IsProfessor() {
			return nil, notFound("Submission")
		}
		return nil, forbidden("Only the course owner can grade this submission")
	}

	now := s.now()
	err = s.db.WithContext(ctx).Model(&model.Submission{ID: submission.ID}).Updates(map[string]interface{}{
		"grade":     *in.Grade,
		"feedback":  strings.TrimSpace(in.Feedback),
		"status":    model.SubmissionStatusGraded,
		"graded_at": now,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to grade submission: %w", err)
	}

	graded, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	invalidateReadModels(ctx, s.cache, s.log)
	s.notifyStudent(ctx, graded)
	return graded, nil
}

func (s *SubmissionService) notifyStudent(ctx context.Context, submission *model.Submission) {
	if s.notifications == nil || submission.Student == nil {
		return
	}

	courseID := submission.CourseID
	err := s.notifications.NotifyUsers(context.WithoutCancel(ctx),
		[]Recipient{RecipientOf(submission.Student)},
		model.NotificationSubmissionGraded,
		mail.Data{
			CourseName: submission.Course.Title,
			Grade:      submission.Grade,
			Feedback:   submission.Feedback,
		},
		&courseID,
	)
	if err != nil {
		s.log.Warn("failed to notify student of grade", "submission_id", submission.ID, "error", err)
	}
}

// DownloadURL returns a link to the submitted file, signed when it is private
func (s *SubmissionService) DownloadURL(ctx context.Context, user *model.User, id uint) (string, error) {
	submission, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}

	allowed := user.IsAdmin() ||
		submission.StudentID == user.ID ||
		submission.Course.ProfessorID == user.ID
	if !allowed {
		return "", notFound("Submission")
	}
	if submission.FileURL == "" || !InUserFolder(submission.FileURL, submission.StudentID) {
		return "", notFound("File")
	}

	return s.files.DownloadURL(ctx, submission.FileURL)
}
