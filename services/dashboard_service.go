package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const dashboardCacheTTL = 30 * time.Second

// DashboardStats are the four counters on the home page
type DashboardStats struct {
	Subjects           int64 `json:"subjects"`
	Courses            int64 `json:"courses"`
	Submissions        int64 `json:"submissions"`
	PendingSubmissions int64 `json:"pending_submissions"`
}

// RecentCourse is a course card on the home page
type RecentCourse struct {
	ID           uint       `json:"id"`
	Title        string     `json:"title"`
	Deadline     *time.Time `json:"deadline"`
	SubjectName  string     `json:"subject_name,omitempty"`
	SubjectColor string     `json:"subject_color,omitempty"`
}

// Dashboard is returned by GET /dashboard
type Dashboard struct {
	Stats         DashboardStats `json:"stats"`
	RecentCourses []RecentCourse `json:"recent_courses"`
}

// DashboardService builds the home page summary
type DashboardService struct {
	db     *gorm.DB
	roster *RosterService
	cache  JSONCache
	log    *logger.Logger
}

// NewDashboardService creates a new dashboard service. cache may be nil.
func NewDashboardService(db *gorm.DB, roster *RosterService, cache JSONCache, log *logger.Logger) *DashboardService {
	return &DashboardService{db: db, roster: roster, cache: cache, log: log}
}

// Get returns the dashboard for user, cached per user for 30 seconds
func (s *DashboardService) Get(ctx context.Context, user *model.User) (*Dashboard, error) {
	key := fmt.Sprintf("dashboard:%d", user.ID)
	if s.cache != nil {
		var cached Dashboard
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	scope, err := s.roster.VisibleProfessorIDs(ctx, user)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{RecentCourses: []RecentCourse{}}
	db := s.db.WithContext(ctx)

	submissions := func() *gorm.DB {
		q := db.Model(&model.Submission{})
		switch user.Role {
		case model.RoleAdmin:
			return q
		case model.RoleProfessor:
			return q.Where("course_id IN (?)", db.Model(&model.Course{}).Select("id").Where("professor_id = ?", user.ID))
		}
		return q.Where("student_id = ?", user.ID)
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scope.Apply(db.Model(&model.Subject{}), "professor_id").Count(&dashboard.Stats.Subjects).Error
	})
	g.Go(func() error {
		return scope.Apply(db.Model(&model.Course{}), "professor_id").Count(&dashboard.Stats.Courses).Error
	})
	g.Go(func() error {
		return submissions().Count(&dashboard.Stats.Submissions).Error
	})
	g.Go(func() error {
		return submissions().Where("status = ?", model.SubmissionStatusSubmitted).Count(&dashboard.Stats.PendingSubmissions).Error
	})
	g.Go(func() error {
		var courses []model.Course
		err := scope.Apply(db.Preload("Subject"), "courses.professor_id").
			Order("courses.created_at DESC, courses.id DESC").
			Limit(5).
			Find(&courses).Error
		if err != nil {
			return err
		}
		for _, c := range courses {
			rc := RecentCourse{ID: c.ID, Title: c.Title, Deadline: c.Deadline}
			if c.Subject != nil {
				rc.SubjectName = c.Subject.Name
				rc.SubjectColor = c.Subject.Color
			}
			dashboard.RecentCourses = append(dashboard.RecentCourses, rc)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, dashboard, dashboardCacheTTL); err != nil {
			s.log.Warn("failed to cache dashboard", "user_id", user.ID, "error", err)
		}
	}
	return dashboard, nil
}
