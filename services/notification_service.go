package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/services/mail"
	"github.com/sahilchouksey/eduplatform-api/services/notify"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// fanOutLimit caps concurrent per-recipient work in NotifyUsers
const fanOutLimit = 8

// EmailQueue is the part of notify.Dispatcher the services need
type EmailQueue interface {
	Enqueue(ctx context.Context, req notify.Request) (*model.EmailDelivery, error)
	SendNow(ctx context.Context, req notify.Request) (*model.EmailDelivery, error)
}

// Recipient is a user to notify
type Recipient struct {
	UserID uint
	Email  string
	Name   string
}

// RecipientOf builds a Recipient from a user row
func RecipientOf(u *model.User) Recipient {
	return Recipient{UserID: u.ID, Email: u.Email, Name: u.FullName}
}

// NotificationService handles in-app notifications and the email fan-out
type NotificationService struct {
	db    *gorm.DB
	queue EmailQueue
	log   *logger.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *gorm.DB, queue EmailQueue, log *logger.Logger) *NotificationService {
	return &NotificationService{db: db, queue: queue, log: log}
}

// ListNotificationsOptions represents options for listing notifications
type ListNotificationsOptions struct {
	UserID     uint
	UnreadOnly bool
	Limit      int
	Offset     int
}

// inAppText is the title and message shown in the notification bell
func inAppText(typ model.NotificationType, d mail.Data) (string, string) {
	switch typ {
	case model.NotificationSubmissionReceived:
		return "New submission", fmt.Sprintf("%s submitted work for %s", d.StudentName, d.CourseName)
	case model.NotificationSubmissionGraded:
		grade := ""
		if d.Grade != nil {
			grade = " " + strconv.FormatFloat(*d.Grade, 'f', -1, 64) + "/20"
		}
		return "Work graded", fmt.Sprintf("Your work for %s was graded%s", d.CourseName, grade)
	case model.NotificationNewCourse:
		return "New course", fmt.Sprintf("%s published %s", d.ProfessorName, d.CourseName)
	case model.NotificationCommentAdded:
		return "New comment", fmt.Sprintf("%s commented on %s", d.CommentAuthor, d.CourseName)
	case model.NotificationDeadlineReminder:
		return "Deadline approaching", fmt.Sprintf("%s is due within 24 hours", d.CourseName)
	}
	return "Notification", "You have a new notification"
}

// CreateInApp stores an in-app notification for one user
func (s *NotificationService) CreateInApp(ctx context.Context, userID uint, typ model.NotificationType, data mail.Data, courseID *uint) (*model.UserNotification, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification data: %w", err)
	}

	title, message := inAppText(typ, data)
	notification := &model.UserNotification{
		UserID:   userID,
		Type:     typ,
		Title:    title,
		Message:  message,
		CourseID: courseID,
		Data:     datatypes.JSON(payload),
	}

	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return notification, nil
}

// NotifyUsers creates an in-app notification and queues an email for every recipient.
// A failing recipient is logged and reported in the joined error; the others still go out.
func (s *NotificationService) NotifyUsers(ctx context.Context, recipients []Recipient, typ model.NotificationType, data mail.Data, courseID *uint) error {
	var (
		mu   sync.Mutex
		errs []error
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)

	for _, r := range recipients {
		r := r
		g.Go(func() error {
			if err := s.notifyOne(ctx, r, typ, data, courseID); err != nil {
				s.log.Error("failed to notify user", "user_id", r.UserID, "type", typ, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("user %d: %w", r.UserID, err))
				mu.Unlock()
			}
			// Never abort the batch
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (s *NotificationService) notifyOne(ctx context.Context, r Recipient, typ model.NotificationType, data mail.Data, courseID *uint) error {
	if _, err := s.CreateInApp(ctx, r.UserID, typ, data, courseID); err != nil {
		return err
	}
	if r.Email == "" || s.queue == nil {
		return nil
	}

	userID := r.UserID
	_, err := s.queue.Enqueue(ctx, notify.Request{
		UserID: &userID,
		To:     r.Email,
		ToName: r.Name,
		Type:   typ,
		Data:   data,
	})
	return err
}

// SendEmail renders and sends one email synchronously, leaving a delivery row behind
func (s *NotificationService) SendEmail(ctx context.Context, req notify.Request) (*model.EmailDelivery, error) {
	if s.queue == nil {
		return nil, errors.New("email queue not configured")
	}
	return s.queue.SendNow(ctx, req)
}

// QueueEmail hands one email to the dispatcher without an in-app notification
func (s *NotificationService) QueueEmail(ctx context.Context, req notify.Request) error {
	if s.queue == nil {
		return errors.New("email queue not configured")
	}
	_, err := s.queue.Enqueue(ctx, req)
	return err
}

// GetNotificationsByUser retrieves notifications for a user, newest first
func (s *NotificationService) GetNotificationsByUser(ctx context.Context, opts ListNotificationsOptions) ([]model.UserNotification, int64, error) {
	var notifications []model.UserNotification
	var total int64

	query := s.db.WithContext(ctx).Model(&model.UserNotification{}).
		Where("user_id = ?", opts.UserID)

	if opts.UnreadOnly {
		query = query.Where("read = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query = query.Limit(limit)
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	if err := query.Order("created_at DESC, id DESC").Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, total, nil
}

// LatestNotificationID returns the id of the user's newest notification, or 0
func (s *NotificationService) LatestNotificationID(ctx context.Context, userID uint) (uint, error) {
	var latest model.UserNotification
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Limit(1).Find(&latest).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load latest notification: %w", err)
	}
	return latest.ID, nil
}

// ListSince returns the user's notifications with an id above afterID, oldest first
func (s *NotificationService) ListSince(ctx context.Context, userID, afterID uint, limit int) ([]model.UserNotification, error) {
	var notifications []model.UserNotification
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND id > ?", userID, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch new notifications: %w", err)
	}
	return notifications, nil
}

// MarkAsRead marks a notification as read
func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID uint, userID uint) error {
	result := s.db.WithContext(ctx).Model(&model.UserNotification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)

	if result.Error != nil {
		return fmt.Errorf("failed to mark notification as read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("Notification")
	}
	return nil
}

// MarkAllAsRead marks all notifications for a user as read
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.UserNotification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteNotification deletes a notification
func (s *NotificationService) DeleteNotification(ctx context.Context, notificationID uint, userID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&model.UserNotification{})

	if result.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("Notification")
	}
	return nil
}

// GetUnreadCount returns the count of unread notifications for a user
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64

	err := s.db.WithContext(ctx).Model(&model.UserNotification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// CleanupOldNotifications removes read notifications older than the given age
func (s *NotificationService) CleanupOldNotifications(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	result := s.db.WithContext(ctx).
		Where("created_at < ? AND read = ?", cutoff, true).
		Delete(&model.UserNotification{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup old notifications: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.log.Info("cleaned up old notifications", "count", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
