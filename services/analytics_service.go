package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	analyticsCacheTTL = 60 * time.Second

	// NoSubjectName groups courses that are not filed under a subject
	NoSubjectName  = "No subject"
	noSubjectColor = "#6B7280"
)

var statusColors = []struct {
	status model.SubmissionStatus
	color  string
}{
	{model.SubmissionStatusPending, "#F59E0B"},
	{model.SubmissionStatusSubmitted, "#3B82F6"},
	{model.SubmissionStatusGraded, "#10B981"},
}

// StatusCount is one slice of the submissions-by-status chart
type StatusCount struct {
	Status model.SubmissionStatus `json:"status"`
	Count  int                    `json:"count"`
	Color  string                 `json:"color"`
}

// SubjectCount is one bar of the courses-by-subject chart
type SubjectCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// DayCount is one point of the submissions-over-time chart
type DayCount struct {
	Date  string `json:"date"`
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// GradeBucket is one bar of the grade distribution
type GradeBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// Analytics is returned by GET /analytics
type Analytics struct {
	TotalStudents       int64          `json:"total_students"`
	TotalProfessors     int64          `json:"total_professors"`
	TotalCourses        int            `json:"total_courses"`
	TotalSubmissions    int            `json:"total_submissions"`
	AverageGrade        float64        `json:"average_grade"`
	SubmissionsByStatus []StatusCount  `json:"submissions_by_status"`
	CoursesBySubject    []SubjectCount `json:"courses_by_subject"`
	SubmissionsOverTime []DayCount     `json:"submissions_over_time"`
	GradeDistribution   []GradeBucket  `json:"grade_distribution"`
}

// SubmissionFact is the part of a submission the charts need
type SubmissionFact struct {
	Status    model.SubmissionStatus
	Grade     *float64
	CreatedAt time.Time
}

// CourseFact is the part of a course the charts need
type CourseFact struct {
	SubjectName  string
	SubjectColor string
}

// AnalyticsService computes the analytics page for professors and admins
type AnalyticsService struct {
	db    *gorm.DB
	cache JSONCache
	log   *logger.Logger
	now   func() time.Time
}

// NewAnalyticsService creates a new analytics service. cache may be nil.
func NewAnalyticsService(db *gorm.DB, cache JSONCache, log *logger.Logger) *AnalyticsService {
	return &AnalyticsService{db: db, cache: cache, log: log, now: time.Now}
}

// Get returns the analytics for user. Admins see the whole platform,
// professors see their own courses and students.
func (s *AnalyticsService) Get(ctx context.Context, user *model.User) (*Analytics, error) {
	if !user.IsProfessor() {
		return nil, forbidden("Only professors can view analytics")
	}

	key := "analytics:all"
	if !user.IsAdmin() {
		key = fmt.Sprintf("analytics:%d", user.ID)
	}
	if s.cache != nil {
		var cached Analytics
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	var (
		totalStudents   int64
		totalProfessors int64
		courses         []CourseFact
		submissions     []SubmissionFact
	)

	db := s.db.WithContext(ctx)
	own := !user.IsAdmin()

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		if own {
			return db.Model(&model.ProfessorStudent{}).Where("professor_id = ?", user.ID).Count(&totalStudents).Error
		}
		return db.Model(&model.User{}).Where("role = ?", model.RoleStudent).Count(&totalStudents).Error
	})
	g.Go(func() error {
		return db.Model(&model.User{}).Where("role = ?", model.RoleProfessor).Count(&totalProfessors).Error
	})
	g.Go(func() error {
		q := db.Model(&model.Course{}).
			Select("subjects.name AS subject_name, subjects.color AS subject_color").
			Joins("LEFT JOIN subjects ON subjects.id = courses.subject_id")
		if own {
			q = q.Where("courses.professor_id = ?", user.ID)
		}
		return q.Scan(&courses).Error
	})
	g.Go(func() error {
		q := db.Model(&model.Submission{}).
			Select("submissions.status, submissions.grade, submissions.created_at")
		if own {
			q = q.Joins("JOIN courses ON courses.id = submissions.course_id").
				Where("courses.professor_id = ?", user.ID)
		}
		return q.Scan(&submissions).Error
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load analytics: %w", err)
	}

	grades := make([]float64, 0, len(submissions))
	for _, sub := range submissions {
		if sub.Grade != nil {
			grades = append(grades, *sub.Grade)
		}
	}

	result := &Analytics{
		TotalStudents:       totalStudents,
		TotalProfessors:     totalProfessors,
		TotalCourses:        len(courses),
		TotalSubmissions:    len(submissions),
		AverageGrade:        AverageGrade(grades),
		SubmissionsByStatus: CountByStatus(submissions),
		CoursesBySubject:    CountBySubject(courses),
		SubmissionsOverTime: SubmissionsOverTime(submissions, s.now()),
		GradeDistribution:   GradeDistribution(grades),
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, result, analyticsCacheTTL); err != nil {
			s.log.Warn("failed to cache analytics", "key", key, "error", err)
		}
	}
	return result, nil
}

// AverageGrade is the mean rounded to one decimal, 0 when there are no grades
func AverageGrade(grades []float64) float64 {
	if len(grades) == 0 {
		return 0
	}
	var sum float64
	for _, g := range grades {
		sum += g
	}
	return math.Round(sum/float64(len(grades))*10) / 10
}

// CountByStatus always returns pending, submitted and graded in that order
func CountByStatus(submissions []SubmissionFact) []StatusCount {
	counts := make(map[model.SubmissionStatus]int, len(statusColors))
	for _, s := range submissions {
		counts[s.Status]++
	}

	out := make([]StatusCount, 0, len(statusColors))
	for _, sc := range statusColors {
		out = append(out, StatusCount{Status: sc.status, Count: counts[sc.status], Color: sc.color})
	}
	return out
}

// CountBySubject groups courses by subject name, largest first
func CountBySubject(courses []CourseFact) []SubjectCount {
	index := map[string]int{}
	out := []SubjectCount{}

	for _, c := range courses {
		name, color := c.SubjectName, c.SubjectColor
		if name == "" {
			name, color = NoSubjectName, noSubjectColor
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, SubjectCount{Name: name, Color: color})
		}
		out[i].Count++
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// SubmissionsOverTime counts submissions per UTC day for the 7 days ending at now, oldest first
func SubmissionsOverTime(submissions []SubmissionFact, now time.Time) []DayCount {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]DayCount, 7)
	index := make(map[string]int, 7)
	for i := 0; i < 7; i++ {
		day := today.AddDate(0, 0, i-6)
		date := day.Format("2006-01-02")
		out[i] = DayCount{Date: date, Day: day.Format("Mon")}
		index[date] = i
	}

	for _, s := range submissions {
		if i, ok := index[s.CreatedAt.UTC().Format("2006-01-02")]; ok {
			out[i].Count++
		}
	}
	return out
}

// GradeDistribution buckets grades into 0-5, 6-10, 11-15 and 16-20
func GradeDistribution(grades []float64) []GradeBucket {
	out := []GradeBucket{
		{Range: "0-5"},
		{Range: "6-10"},
		{Range: "11-15"},
		{Range: "16-20"},
	}
	for _, g := range grades {
		switch {
		case g <= 5:
			out[0].Count++
		case g <= 10:
			out[1].Count++
		case g <= 15:
			out[2].Count++
		default:
			out[3].Count++
		}
	}
	return out
}
