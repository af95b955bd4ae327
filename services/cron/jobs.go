package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/services/mail"
)

const (
	notificationRetention = 30 * 24 * time.Hour
	reminderWindow        = 24 * time.Hour
)

// RetryEmailDeliveries puts failed and stuck deliveries back on the queue
func (m *CronManager) RetryEmailDeliveries(ctx context.Context) (string, error) {
	if m.deps.Deliveries == nil {
		return "Email dispatcher not configured", nil
	}

	n, err := m.deps.Deliveries.RetryFailed(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Re-queued %d deliveries", n), nil
}

// CleanupExpiredTokens removes blacklist entries and reset tokens past their expiry
func (m *CronManager) CleanupExpiredTokens(ctx context.Context) (string, error) {
	var blacklisted int64
	if m.deps.Blacklist != nil {
		n, err := m.deps.Blacklist.CleanupExpiredTokens(ctx)
		if err != nil {
			return "", err
		}
		blacklisted = n
	}

	result := m.db.WithContext(ctx).
		Where("expires_at < ?", m.now()).
		Delete(&model.PasswordResetToken{})
	if result.Error != nil {
		return "", fmt.Errorf("failed to delete expired reset tokens: %w", result.Error)
	}

	return fmt.Sprintf("Removed %d blacklisted tokens and %d reset tokens", blacklisted, result.RowsAffected), nil
}

// CleanupOldNotifications deletes read notifications older than 30 days
func (m *CronManager) CleanupOldNotifications(ctx context.Context) (string, error) {
	if m.deps.Notifications == nil {
		return "Notifications not configured", nil
	}

	n, err := m.deps.Notifications.CleanupOldNotifications(ctx, notificationRetention)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted %d notifications", n), nil
}

// SendDeadlineReminders notifies students who have not submitted work for a
// course due within 24 hours. Each student is reminded once per course.
func (m *CronManager) SendDeadlineReminders(ctx context.Context) (string, error) {
	if m.deps.Notifications == nil {
		return "Notifications not configured", nil
	}

	now := m.now()
	db := m.db.WithContext(ctx)
	var courses []model.Course
	err := db.
		Where("deadline > ? AND deadline <= ?", now, now.Add(reminderWindow)).
		Find(&courses).Error
	if err != nil {
		return "", fmt.Errorf("failed to load courses due soon: %w", err)
	}

	sent := 0
	var errs []error
	for _, course := range courses {
		var studentIDs []uint
		err := db.
			Model(&model.ProfessorStudent{}).
			Where("professor_id = ?", course.ProfessorID).
			Where("student_id NOT IN (?)", db.Model(&model.Submission{}).
				Select("student_id").
				Where("course_id = ? AND status <> ?", course.ID, model.SubmissionStatusPending)).
			Where("student_id NOT IN (?)", db.Model(&model.UserNotification{}).
				Select("user_id").
				Where("course_id = ? AND type = ?", course.ID, model.NotificationDeadlineReminder)).
			Pluck("student_id", &studentIDs).Error
		if err != nil {
			errs = append(errs, fmt.Errorf("course %d: %w", course.ID, err))
			continue
		}

		courseID := course.ID
		data := mail.Data{CourseName: course.Title}
		for _, studentID := range studentIDs {
			if _, err := m.deps.Notifications.CreateInApp(ctx, studentID, model.NotificationDeadlineReminder, data, &courseID); err != nil {
				errs = append(errs, fmt.Errorf("course %d student %d: %w", course.ID, studentID, err))
				continue
			}
			sent++
		}
	}

	return fmt.Sprintf("Checked %d courses, sent %d reminders", len(courses), sent), errors.Join(errs...)
}
