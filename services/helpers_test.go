package services

import (
	"context"
	"sync"
	"testing"

	"github.com/sahilchouksey/eduplatform-api/internal/testutil"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/services/notify"
	"github.com/sahilchouksey/eduplatform-api/services/storage"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"gorm.io/gorm"
)

// fakeQueue records emails instead of sending them
type fakeQueue struct {
	mu   sync.Mutex
	reqs []notify.Request
}

func (q *fakeQueue) Enqueue(_ context.Context, req notify.Request) (*model.EmailDelivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reqs = append(q.reqs, req)
	return &model.EmailDelivery{Status: model.DeliveryQueued}, nil
}

func (q *fakeQueue) SendNow(ctx context.Context, req notify.Request) (*model.EmailDelivery, error) {
	return q.Enqueue(ctx, req)
}

func (q *fakeQueue) sent() []notify.Request {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]notify.Request(nil), q.reqs...)
}

type fixture struct {
	db            *gorm.DB
	queue         *fakeQueue
	store         *storage.MemoryStore
	cache         *mapCache
	roster        *RosterService
	profiles      *ProfileService
	notifications *NotificationService
	subjects      *SubjectService
	courses       *CourseService
	files         *FileService
	submissions   *SubmissionService
	comments      *CommentService

	admin     *model.User
	professor *model.User
	other     *model.User // a second professor
	alice     *model.User // student of professor
	bob       *model.User // student of professor
	carol     *model.User // student of other
	loner     *model.User // student with no professor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	log := logger.Nop()
	f := &fixture{db: db, queue: &fakeQueue{}, store: storage.NewMemoryStore("http://files.test"), cache: newMapCache()}

	f.roster = NewRosterService(db)
	f.profiles = NewProfileService(db, f.roster)
	f.notifications = NewNotificationService(db, f.queue, log)
	f.subjects = NewSubjectService(db, f.roster)
	f.files = NewFileService(f.store)
	f.courses = NewCourseService(db, f.roster, f.files, f.cache, f.notifications, log)
	f.submissions = NewSubmissionService(db, f.courses, f.files, f.cache, f.notifications, log)
	f.comments = NewCommentService(db, f.courses, f.notifications, log)

	f.admin = testutil.CreateUser(t, db, "admin@test.io", "Ada Admin", model.RoleAdmin)
	f.professor = testutil.CreateUser(t, db, "prof@test.io", "Paul Prof", model.RoleProfessor)
	f.other = testutil.CreateUser(t, db, "other@test.io", "Olga Other", model.RoleProfessor)
	f.alice = testutil.CreateUser(t, db, "alice@test.io", "Alice", model.RoleStudent)
	f.bob = testutil.CreateUser(t, db, "bob@test.io", "Bob", model.RoleStudent)
	f.carol = testutil.CreateUser(t, db, "carol@test.io", "Carol", model.RoleStudent)
	f.loner = testutil.CreateUser(t, db, "loner@test.io", "Lou", model.RoleStudent)

	testutil.Assign(t, db, f.professor, f.alice)
	testutil.Assign(t, db, f.professor, f.bob)
	testutil.Assign(t, db, f.other, f.carol)
	return f
}

func (f *fixture) inApp(t *testing.T, userID uint, typ model.NotificationType) []model.UserNotification {
	t.Helper()
	var list []model.UserNotification
	if err := f.db.Where("user_id = ? AND type = ?", userID, typ).Find(&list).Error; err != nil {
		t.Fatal(err)
	}
	return list
}
