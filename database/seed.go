package database

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/utils/auth"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"gorm.io/gorm"
)

const defaultSeedPassword = "password123"

// Seeder fills an empty database with demo data
type Seeder struct {
	db       *gorm.DB
	log      *logger.Logger
	password string
}

// NewSeeder creates a new seeder instance. SEED_PASSWORD sets the password of every demo account.
func NewSeeder(db *gorm.DB, log *logger.Logger) *Seeder {
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = defaultSeedPassword
	}
	return &Seeder{db: db, log: log, password: password}
}

type seedUser struct {
	email, name, role, className string
}

var (
	seedProfessors = []seedUser{
		{"marie.curie@eduplatform.app", "Marie Curie", model.RoleProfessor, ""},
		{"alan.turing@eduplatform.app", "Alan Turing", model.RoleProfessor, ""},
	}
	seedStudents = []seedUser{
		{"ada@eduplatform.app", "Ada Lovelace", model.RoleStudent, "Terminale S"},
		{"grace@eduplatform.app", "Grace Hopper", model.RoleStudent, "Terminale S"},
		{"edsger@eduplatform.app", "Edsger Dijkstra", model.RoleStudent, "Premiere S"},
		{"barbara@eduplatform.app", "Barbara Liskov", model.RoleStudent, "Premiere S"},
	}
)

// SeedAll runs all seed functions. Running it twice is harmless.
func (s *Seeder) SeedAll() error {
	s.log.Info("starting database seeding")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	var count int64
	if err := s.db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.log.Info("courses already present, skipping demo content")
		return nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		professors := make([]*model.User, 0, len(seedProfessors))
		for _, p := range seedProfessors {
			u, err := s.ensureUser(tx, p)
			if err != nil {
				return err
			}
			professors = append(professors, u)
		}

		students := make([]*model.User, 0, len(seedStudents))
		for i, st := range seedStudents {
			u, err := s.ensureUser(tx, st)
			if err != nil {
				return err
			}
			students = append(students, u)

			// First half with the first professor, the rest with the second
			prof := professors[0]
			if i >= len(seedStudents)/2 {
				prof = professors[1]
			}
			link := model.ProfessorStudent{ProfessorID: prof.ID, StudentID: u.ID}
			if err := tx.Where("student_id = ?", u.ID).FirstOrCreate(&link).Error; err != nil {
				return err
			}
		}

		return s.seedContent(tx, professors, students)
	})
	if err != nil {
		return err
	}

	s.log.Info("database seeding completed")
	return nil
}

// SeedAdminUser creates the admin account from ADMIN_EMAIL and ADMIN_PASSWORD, falling back to a demo admin
func (s *Seeder) SeedAdminUser() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.log.Info("admin user already exists, skipping")
		return nil
	}

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		email = "admin@eduplatform.app"
		password = s.password
		s.log.Warn("ADMIN_EMAIL or ADMIN_PASSWORD not set, using the demo admin", "email", email)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := model.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     "Administrator",
		Role:         model.RoleAdmin,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	s.log.Info("admin user created", "email", email)
	return nil
}

func (s *Seeder) ensureUser(tx *gorm.DB, su seedUser) (*model.User, error) {
	var u model.User
	err := tx.Where("email = ?", su.email).First(&u).Error
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(s.password)
	if err != nil {
		return nil, err
	}
	u = model.User{
		Email:        su.email,
		PasswordHash: hash,
		FullName:     su.name,
		Role:         su.role,
		ClassName:    su.className,
	}
	if err := tx.Create(&u).Error; err != nil {
		return nil, err
	}
	s.log.Info("seeded user", "email", su.email, "role", su.role)
	return &u, nil
}

func (s *Seeder) seedContent(tx *gorm.DB, professors, students []*model.User) error {
	now := time.Now().UTC()
	nextWeek := now.Add(7 * 24 * time.Hour)
	lastWeek := now.Add(-7 * 24 * time.Hour)

	subjects := []model.Subject{
		{Name: "Physics", Description: "Mechanics and thermodynamics", Color: "#3B82F6", ProfessorID: professors[0].ID},
		{Name: "Chemistry", Description: "Organic chemistry basics", Color: "#10B981", ProfessorID: professors[0].ID},
		{Name: "Computer Science", Description: "Algorithms and computability", Color: "#8B5CF6", ProfessorID: professors[1].ID},
	}
	if err := tx.Create(&subjects).Error; err != nil {
		return err
	}

	courses := []model.Course{
		{Title: "Newton's laws", Content: "Read chapter 2 and solve exercises 1 to 5.", SubjectID: &subjects[0].ID, ProfessorID: professors[0].ID, Deadline: &nextWeek},
		{Title: "Heat transfer", Content: "Write a one page summary.", SubjectID: &subjects[0].ID, ProfessorID: professors[0].ID, Deadline: &lastWeek},
		{Title: "Alkanes", Content: "Name the first ten alkanes.", SubjectID: &subjects[1].ID, ProfessorID: professors[0].ID},
		{Title: "Turing machines", Content: "Design a machine that adds two unary numbers.", SubjectID: &subjects[2].ID, ProfessorID: professors[1].ID, Deadline: &nextWeek},
		{Title: "Class rules", Content: "Please read before the first session.", ProfessorID: professors[1].ID},
	}
	if err := tx.Create(&courses).Error; err != nil {
		return err
	}

	grade := 15.5
	submissions := []model.Submission{
		{CourseID: courses[1].ID, StudentID: students[0].ID, Content: "Conduction, convection and radiation.", Status: model.SubmissionStatusGraded, Grade: &grade, Feedback: "Good summary", SubmittedAt: &lastWeek, GradedAt: &now},
		{CourseID: courses[0].ID, StudentID: students[1].ID, Content: "F = ma", Status: model.SubmissionStatusSubmitted, SubmittedAt: &now},
		{CourseID: courses[3].ID, StudentID: students[2].ID, Content: "Draft", Status: model.SubmissionStatusPending},
	}
	if err := tx.Create(&submissions).Error; err != nil {
		return err
	}

	comments := []model.Comment{
		{CourseID: courses[0].ID, UserID: students[1].ID, Content: "Is exercise 5 mandatory?"},
		{CourseID: courses[0].ID, UserID: professors[0].ID, Content: "Yes, all five."},
	}
	return tx.Create(&comments).Error
}
