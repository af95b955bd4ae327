package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/services/mail"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"gorm.io/gorm"
)

// MaxCommentLength is counted in characters after trimming
const MaxCommentLength = 2000

// CreateCommentInput is the body of POST /courses/:id/comments
type CreateCommentInput struct {
	Content string `json:"content" validate:"required"`
}

// CommentService manages course discussion
type CommentService struct {
	db            *gorm.DB
	courses       *CourseService
	notifications *NotificationService
	log           *logger.Logger
}

func NewCommentService(db *gorm.DB, courses *CourseService, notifications *NotificationService, log *logger.Logger) *CommentService {
	return &CommentService{db: db, courses: courses, notifications: notifications, log: log}
}

// List returns a course's comments, oldest first
func (s *CommentService) List(ctx context.Context, user *model.User, courseID uint) ([]model.Comment, error) {
	if _, err := s.courses.Visible(ctx, user, courseID); err != nil {
		return nil, err
	}

	var comments []model.Comment
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("course_id = ?", courseID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// Create adds a comment and tells the course professor, unless they wrote it
func (s *CommentService) Create(ctx context.Context, user *model.User, courseID uint, in CreateCommentInput) (*model.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, Invalid("Comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, Invalid("Comment cannot exceed %d characters", MaxCommentLength)
	}

	course, err := s.courses.Visible(ctx, user, courseID)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		CourseID: course.ID,
		UserID:   user.ID,
		Content:  content,
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	comment.User = user

	if course.ProfessorID != user.ID && course.Professor != nil && s.notifications != nil {
		err := s.notifications.NotifyUsers(context.WithoutCancel(ctx),
			[]Recipient{RecipientOf(course.Professor)},
			model.NotificationCommentAdded,
			mail.Data{CourseName: course.Title, CommentAuthor: user.FullName, Comment: content},
			&course.ID,
		)
		if err != nil {
			s.log.Warn("failed to notify professor of comment", "comment_id", comment.ID, "error", err)
		}
	}

	return comment, nil
}

// Delete removes a comment written by user. Admins can delete any comment.
func (s *CommentService) Delete(ctx context.Context, user *model.User, id uint) error {
	var comment model.Comment
	if err := s.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Comment")
		}
		return fmt.Errorf("failed to load comment: %w", err)
	}

	if comment.UserID != user.ID && !user.IsAdmin() {
		return forbidden("You can only delete your own comments")
	}

	if err := s.db.WithContext(ctx).Delete(&model.Comment{}, comment.ID).Error; err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
