// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/sahilchouksey/eduplatform-api/database"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/utils/auth"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	// bcrypt at full cost makes the suite crawl
	auth.SetCost(4)
}

// NewDB opens a private in-memory SQLite database with every table migrated.
// A single connection keeps the database alive for the whole test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a user with the given role and the password "secret123"
func CreateUser(t *testing.T, db *gorm.DB, email, name, role string) *model.User {
	t.Helper()

	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)

	u := &model.User{Email: email, FullName: name, Role: role, PasswordHash: hash}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Assign links a student to a professor
func Assign(t *testing.T, db *gorm.DB, professor, student *model.User) {
	t.Helper()
	require.NoError(t, db.Create(&model.ProfessorStudent{ProfessorID: professor.ID, StudentID: student.ID}).Error)
}

// CreateSubject inserts a subject owned by professor
func CreateSubject(t *testing.T, db *gorm.DB, professor *model.User, name, color string) *model.Subject {
	t.Helper()

	s := &model.Subject{Name: name, Color: color, ProfessorID: professor.ID}
	require.NoError(t, db.Create(s).Error)
	return s
}

// CreateCourse inserts a course owned by professor, optionally inside subject
func CreateCourse(t *testing.T, db *gorm.DB, professor *model.User, subject *model.Subject, title string, deadline *time.Time) *model.Course {
	t.Helper()

	c := &model.Course{Title: title, ProfessorID: professor.ID, Deadline: deadline}
	if subject != nil {
		c.SubjectID = &subject.ID
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreateSubmission inserts a submission with the given status and grade
func CreateSubmission(t *testing.T, db *gorm.DB, course *model.Course, student *model.User, status model.SubmissionStatus, grade *float64) *model.Submission {
	t.Helper()

	now := time.Now().UTC()
	s := &model.Submission{
		CourseID:    course.ID,
		StudentID:   student.ID,
		Content:     "my answer",
		Status:      status,
		Grade:       grade,
		SubmittedAt: &now,
	}
	if status == model.SubmissionStatusGraded {
		s.GradedAt = &now
	}
	require.NoError(t, db.Create(s).Error)
	return s
}

// Float returns a pointer to f
func Float(f float64) *float64 { return &f }
