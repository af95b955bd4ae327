package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahilchouksey/eduplatform-api/model"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	searchLimit    = 3
	minSearchQuery = 2
)

// Search result kinds
const (
	ResultCourse  = "course"
	ResultSubject = "subject"
	ResultStudent = "student"
)

// SearchResult is one hit of the global search box
type SearchResult struct {
	ID       uint   `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Color    string `json:"color,omitempty"`
}

// SearchService powers GET /search
type SearchService struct {
	db     *gorm.DB
	roster *RosterService
}

func NewSearchService(db *gorm.DB, roster *RosterService) *SearchService {
	return &SearchService{db: db, roster: roster}
}

// LikePattern builds a case-insensitive substring pattern with LIKE wildcards escaped
func LikePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}

// Search looks for courses, subjects and, for professors, students matching q.
// Queries shorter than two characters return nothing.
func (s *SearchService) Search(ctx context.Context, user *model.User, q string) ([]SearchResult, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < minSearchQuery {
		return []SearchResult{}, nil
	}

	scope, err := s.roster.VisibleProfessorIDs(ctx, user)
	if err != nil {
		return nil, err
	}

	pattern := LikePattern(q)
	db := s.db.WithContext(ctx)

	var (
		courses  []model.Course
		subjects []model.Subject
		students []model.User
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scope.Apply(db.Preload("Subject"), "courses.professor_id").
			Where(`LOWER(courses.title) LIKE ? ESCAPE '\'`, pattern).
			Order("courses.created_at DESC").
			Limit(searchLimit).
			Find(&courses).Error
	})
	g.Go(func() error {
		return scope.Apply(db.Model(&model.Subject{}), "subjects.professor_id").
			Where(`LOWER(subjects.name) LIKE ? ESCAPE '\'`, pattern).
			Order("subjects.name ASC").
			Limit(searchLimit).
			Find(&subjects).Error
	})
	if user.IsProfessor() {
		g.Go(func() error {
			sq := db.Model(&model.User{}).
				Where("users.role = ?", model.RoleStudent).
				Where(`LOWER(users.full_name) LIKE ? ESCAPE '\'`, pattern)
			if !user.IsAdmin() {
				sq = sq.Where("users.id IN (?)",
					db.Model(&model.ProfessorStudent{}).Select("student_id").Where("professor_id = ?", user.ID))
			}
			return sq.Order("users.full_name ASC").Limit(searchLimit).Find(&students).Error
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]SearchResult, 0, len(courses)+len(subjects)+len(students))
	for _, c := range courses {
		r := SearchResult{ID: c.ID, Type: ResultCourse, Title: c.Title}
		if c.Subject != nil {
			r.Subtitle = c.Subject.Name
			r.Color = c.Subject.Color
		}
		results = append(results, r)
	}
	for _, sub := range subjects {
		results = append(results, SearchResult{ID: sub.ID, Type: ResultSubject, Title: sub.Name, Color: sub.Color})
	}
	for _, st := range students {
		results = append(results, SearchResult{ID: st.ID, Type: ResultStudent, Title: st.FullName, Subtitle: st.Email})
	}
	return results, nil
}
