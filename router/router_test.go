package router

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/config"
	"github.com/sahilchouksey/eduplatform-api/database"
	"github.com/sahilchouksey/eduplatform-api/internal/testutil"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/services"
	"github.com/sahilchouksey/eduplatform-api/services/mail"
	"github.com/sahilchouksey/eduplatform-api/services/notify"
	"github.com/sahilchouksey/eduplatform-api/services/storage"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type portal struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB
}

func newPortal(t *testing.T) *portal {
	t.Helper()

	db := testutil.NewDB(t)
	log := logger.Nop()

	// The dispatcher is never started; queued mail stays in email_deliveries
	dispatcher := notify.New(db, mail.NewLogSender(log), log, notify.Config{})

	app := fiber.New()
	SetupRoutes(app, database.NewGORMStore(db, log), Deps{
		Env:              &config.EnviornmentVariable{APP_URL: "http://portal.test", ALLOWED_ORIGINS: "http://portal.test"},
		Log:              log,
		JWT:              testutil.NewJWT(),
		ObjectStore:      storage.NewMemoryStore("http://files.test"),
		Notifications:    services.NewNotificationService(db, dispatcher, log),
		DisableAccessLog: true,
	})

	return &portal{t: t, app: app, db: db}
}

func (p *portal) do(method, path string, body interface{}, token string) (int, testutil.Body) {
	p.t.Helper()
	return testutil.Do(p.t, p.app, method, path, body, token)
}

func (p *portal) register(email, name, role string) (uint, string) {
	p.t.Helper()

	status, body := p.do("POST", "/api/v1/auth/register", map[string]string{
		"email": email, "password": "secret123", "full_name": name, "role": role,
	}, "")
	require.Equal(p.t, fiber.StatusCreated, status, body)

	user := body.Data()["user"].(map[string]interface{})
	return uint(user["id"].(float64)), body.Data()["access_token"].(string)
}

func id(m map[string]interface{}) uint {
	return uint(m["id"].(float64))
}

func TestPing(t *testing.T) {
	p := newPortal(t)

	status, body := p.do("GET", "/ping", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["database"])
	assert.Equal(t, "disabled", body["redis"])
}

func TestRoutesRequireAuth(t *testing.T) {
	p := newPortal(t)

	for _, path := range []string{"/api/v1/profile", "/api/v1/courses", "/api/v1/subjects", "/api/v1/dashboard", "/api/v1/admin/users"} {
		status, _ := p.do("GET", path, nil, "")
		assert.Equal(t, fiber.StatusUnauthorized, status, path)
	}
}

func TestCourseLifecycle(t *testing.T) {
	p := newPortal(t)

	profID, profToken := p.register("prof@test.io", "Paul Prof", model.RoleProfessor)
	aliceID, aliceToken := p.register("alice@test.io", "Alice", model.RoleStudent)
	_, bobToken := p.register("bob@test.io", "Bob", model.RoleStudent)

	// Students pick their professor
	status, body := p.do("GET", "/api/v1/professors", nil, aliceToken)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, body.List(), 1)

	status, body = p.do("PUT", "/api/v1/profile/professor", map[string]uint{"professor_id": profID}, aliceToken)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "Paul Prof", body.Data()["professor"].(map[string]interface{})["full_name"])

	status, _ = p.do("PUT", "/api/v1/profile/professor", map[string]uint{"professor_id": profID}, profToken)
	assert.Equal(t, fiber.StatusForbidden, status)

	// Professor builds a subject and a course
	status, _ = p.do("POST", "/api/v1/subjects", map[string]string{"name": "Math"}, aliceToken)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = p.do("POST", "/api/v1/subjects", map[string]string{"name": "Math", "color": "#123456"}, profToken)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, body = p.do("POST", "/api/v1/subjects", map[string]string{"name": "Math", "color": "#10B981"}, profToken)
	require.Equal(t, fiber.StatusCreated, status, body)
	subjectID := id(body.Data())

	deadline := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	status, body = p.do("POST", "/api/v1/courses", map[string]interface{}{
		"title": "Algebra homework", "subject_id": subjectID, "deadline": deadline,
	}, profToken)
	require.Equal(t, fiber.StatusCreated, status, body)
	courseID := id(body.Data())

	// Alice sees it and was notified; Bob has no professor and sees nothing
	status, body = p.do("GET", "/api/v1/courses", nil, aliceToken)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, body.List(), 1)
	assert.Equal(t, false, body.List()[0].(map[string]interface{})["is_deadline_passed"])

	status, _ = p.do("GET", fmt.Sprintf("/api/v1/courses/%d", courseID), nil, bobToken)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = p.do("GET", "/api/v1/notifications", nil, aliceToken)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body.Data()["unread_count"])
	notes := body.Data()["notifications"].([]interface{})
	require.Len(t, notes, 1)
	assert.Equal(t, string(model.NotificationNewCourse), notes[0].(map[string]interface{})["type"])

	var queued int64
	require.NoError(t, p.db.Model(&model.EmailDelivery{}).Where("to_email = ?", "alice@test.io").Count(&queued).Error)
	assert.EqualValues(t, 1, queued)

	// Submit, then grade
	submitPath := fmt.Sprintf("/api/v1/courses/%d/submission", courseID)
	status, body = p.do("POST", submitPath, map[string]string{"content": "  "}, aliceToken)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Please add content or a file", body.ErrorMessage())

	status, _ = p.do("POST", submitPath, map[string]string{"content": "x = 2"}, profToken)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = p.do("POST", submitPath, map[string]string{"content": "x = 2"}, aliceToken)
	require.Equal(t, fiber.StatusOK, status, body)
	submissionID := id(body.Data())
	assert.Equal(t, string(model.SubmissionStatusSubmitted), body.Data()["status"])

	status, body = p.do("GET", "/api/v1/submissions?status=submitted", nil, profToken)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, body.List(), 1)

	status, _ = p.do("GET", "/api/v1/submissions?status=late", nil, profToken)
	assert.Equal(t, fiber.StatusBadRequest, status)

	gradePath := fmt.Sprintf("/api/v1/submissions/%d/grade", submissionID)
	status, body = p.do("POST", gradePath, map[string]interface{}{"grade": 25}, profToken)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Grade must be between 0 and 20", body.ErrorMessage())

	status, _ = p.do("POST", gradePath, map[string]interface{}{"grade": 15}, aliceToken)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = p.do("POST", gradePath, map[string]interface{}{"grade": 15, "feedback": "Nice"}, profToken)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, string(model.SubmissionStatusGraded), body.Data()["status"])
	assert.EqualValues(t, 15, body.Data()["grade"])

	status, body = p.do("GET", fmt.Sprintf("/api/v1/courses/%d", courseID), nil, aliceToken)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Nice", body.Data()["my_submission"].(map[string]interface{})["feedback"])

	// Comments
	commentsPath := fmt.Sprintf("/api/v1/courses/%d/comments", courseID)
	status, body = p.do("POST", commentsPath, map[string]string{"content": "When is the quiz?"}, aliceToken)
	require.Equal(t, fiber.StatusCreated, status, body)
	commentID := id(body.Data())

	status, body = p.do("GET", commentsPath, nil, profToken)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body.List(), 1)

	status, _ = p.do("DELETE", fmt.Sprintf("/api/v1/comments/%d", commentID), nil, profToken)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = p.do("DELETE", fmt.Sprintf("/api/v1/comments/%d", commentID), nil, aliceToken)
	assert.Equal(t, fiber.StatusOK, status)

	// Read models
	status, body = p.do("GET", "/api/v1/dashboard", nil, profToken)
	require.Equal(t, fiber.StatusOK, status)
	stats := body.Data()["stats"].(map[string]interface{})
	assert.EqualValues(t, 1, stats["courses"])
	assert.EqualValues(t, 0, stats["pending_submissions"])

	status, _ = p.do("GET", "/api/v1/analytics", nil, aliceToken)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = p.do("GET", "/api/v1/analytics", nil, profToken)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 15, body.Data()["average_grade"])

	status, body = p.do("GET", "/api/v1/search?q=alg", nil, aliceToken)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, body.List(), 1)
	assert.Equal(t, "Algebra homework", body.List()[0].(map[string]interface{})["title"])

	status, body = p.do("GET", "/api/v1/students", nil, profToken)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, body.List(), 1)
	assert.EqualValues(t, aliceID, body.List()[0].(map[string]interface{})["id"])

	// Deleting the subject keeps the course
	status, _ = p.do("DELETE", fmt.Sprintf("/api/v1/subjects/%d", subjectID), nil, profToken)
	require.Equal(t, fiber.StatusOK, status)

	status, body = p.do("GET", fmt.Sprintf("/api/v1/courses/%d", courseID), nil, profToken)
	require.Equal(t, fiber.StatusOK, status)
	assert.Nil(t, body.Data()["subject_id"])
}

func upload(t *testing.T, app *fiber.App, bucket, filename string, content []byte, token string) (int, testutil.Body) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("folder", "work"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/v1/files/"+bucket, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return testutil.Send(t, app, req)
}

func TestUploadAndDownload(t *testing.T) {
	p := newPortal(t)

	profID, profToken := p.register("prof@test.io", "Paul Prof", model.RoleProfessor)
	aliceID, aliceToken := p.register("alice@test.io", "Alice", model.RoleStudent)
	_, bobToken := p.register("bob@test.io", "Bob", model.RoleStudent)
	p.do("PUT", "/api/v1/profile/professor", map[string]uint{"professor_id": profID}, aliceToken)
	p.do("PUT", "/api/v1/profile/professor", map[string]uint{"professor_id": profID}, bobToken)

	status, _ := upload(t, p.app, storage.CourseFiles, "notes.txt", []byte("notes"), aliceToken)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = upload(t, p.app, "secrets", "notes.txt", []byte("notes"), profToken)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := upload(t, p.app, storage.CourseFiles, "notes.txt", []byte("notes"), profToken)
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.True(t, strings.HasPrefix(body.Data()["url"].(string), "http://files.test/course-files/work/"))

	status, body = upload(t, p.app, storage.SubmissionFiles, "answer.txt", []byte("42"), aliceToken)
	require.Equal(t, fiber.StatusCreated, status, body)
	fileURL := body.Data()["url"].(string)
	assert.True(t, strings.HasPrefix(fileURL, fmt.Sprintf("submission-files/%d/work/", aliceID)), fileURL)

	status, body = p.do("POST", "/api/v1/courses", map[string]string{"title": "Essay"}, profToken)
	require.Equal(t, fiber.StatusCreated, status)
	courseID := id(body.Data())

	status, body = p.do("POST", fmt.Sprintf("/api/v1/courses/%d/submission", courseID), map[string]string{"file_url": fileURL}, aliceToken)
	require.Equal(t, fiber.StatusOK, status, body)
	submissionID := id(body.Data())
	downloadPath := fmt.Sprintf("/api/v1/submissions/%d/download", submissionID)

	status, body = p.do("GET", downloadPath, nil, profToken)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Contains(t, body.Data()["url"], "http://files.test/submission-files/")
	assert.EqualValues(t, 3600, body.Data()["expires_in"])

	status, _ = p.do("GET", downloadPath, nil, bobToken)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = p.do("POST", fmt.Sprintf("/api/v1/courses/%d/submission", courseID), map[string]string{"file_url": fileURL}, bobToken)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = p.do("POST", fmt.Sprintf("/api/v1/submissions/%d/grade", submissionID), map[string]interface{}{"grade": 16}, profToken)
	require.Equal(t, fiber.StatusOK, status, body)
	status, _ = p.do("POST", fmt.Sprintf("/api/v1/courses/%d/submission", courseID), map[string]string{"content": "one more thing"}, aliceToken)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestSendNotificationWithoutProvider(t *testing.T) {
	p := newPortal(t)
	_, token := p.register("prof@test.io", "Paul Prof", model.RoleProfessor)

	status, body := p.do("POST", "/api/v1/notifications/send", map[string]interface{}{
		"to":     "alice@test.io",
		"toName": "Alice",
		"type":   "submission_graded",
		"data":   map[string]interface{}{"courseName": "Essay", "grade": 18},
	}, token)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["skipped"])

	var delivery model.EmailDelivery
	require.NoError(t, p.db.Where("to_email = ?", "alice@test.io").First(&delivery).Error)
	assert.Equal(t, model.DeliverySkipped, delivery.Status)

	status, _ = p.do("POST", "/api/v1/notifications/send", map[string]string{"to": "not-an-email", "type": "x"}, token)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestAdminRoleChange(t *testing.T) {
	p := newPortal(t)

	admin := testutil.CreateUser(t, p.db, "admin@test.io", "Ada Admin", model.RoleAdmin)
	adminToken := testutil.Token(t, testutil.NewJWT(), admin)
	aliceID, aliceToken := p.register("alice@test.io", "Alice", model.RoleStudent)
	p.register("bob@test.io", "Bob", model.RoleStudent)

	status, _ := p.do("GET", "/api/v1/admin/users", nil, aliceToken)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := p.do("GET", "/api/v1/admin/users?role=student&search=ALI", nil, adminToken)
	require.Equal(t, fiber.StatusOK, status, body)
	require.Len(t, body.List(), 1)
	assert.EqualValues(t, 1, body["pagination"].(map[string]interface{})["total"])

	rolePath := fmt.Sprintf("/api/v1/admin/users/%d/role", aliceID)
	status, _ = p.do("PUT", rolePath, map[string]string{"role": "dean"}, adminToken)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = p.do("PUT", rolePath, map[string]string{"role": model.RoleProfessor}, adminToken)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, model.RoleProfessor, body.Data()["role"])

	// The old token carried the student role
	status, _ = p.do("GET", "/api/v1/profile", nil, aliceToken)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	var logs []model.AdminAuditLog
	require.NoError(t, p.db.Find(&logs).Error)
	require.Len(t, logs, 1, "only the successful change is audited")
	assert.Equal(t, "role_update", logs[0].Action)
	assert.Equal(t, aliceID, logs[0].ResourceID)

	status, _ = p.do("DELETE", fmt.Sprintf("/api/v1/admin/users/%d", admin.ID), nil, adminToken)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = p.do("DELETE", fmt.Sprintf("/api/v1/admin/users/%d", aliceID), nil, adminToken)
	require.Equal(t, fiber.StatusOK, status)

	var count int64
	require.NoError(t, p.db.Unscoped().Model(&model.User{}).Where("id = ? AND deleted_at IS NOT NULL", aliceID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	status, body = p.do("GET", "/api/v1/admin/audit-logs", nil, adminToken)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body.List(), 2)
}

func TestAdminOperations(t *testing.T) {
	p := newPortal(t)

	admin := testutil.CreateUser(t, p.db, "admin@test.io", "Ada Admin", model.RoleAdmin)
	adminToken := testutil.Token(t, testutil.NewJWT(), admin)
	profID, profToken := p.register("prof@test.io", "Paul Prof", model.RoleProfessor)
	_, aliceToken := p.register("alice@test.io", "Alice", model.RoleStudent)
	p.do("PUT", "/api/v1/profile/professor", map[string]uint{"professor_id": profID}, aliceToken)

	status, _ := p.do("POST", "/api/v1/courses", map[string]string{"title": "Essay"}, profToken)
	require.Equal(t, fiber.StatusCreated, status)

	now := time.Now().UTC()
	require.NoError(t, p.db.Create(&model.CronJobLog{JobName: "email_retry", Status: model.CronStatusCompleted, StartedAt: now}).Error)
	require.NoError(t, p.db.Create(&model.CronJobLog{JobName: "token_cleanup", Status: model.CronStatusCompleted, StartedAt: now}).Error)

	status, body := p.do("GET", "/api/v1/admin/overview", nil, adminToken)
	require.Equal(t, fiber.StatusOK, status, body)
	overview := body.Data()
	assert.EqualValues(t, 3, overview["new_users_this_week"])
	assert.EqualValues(t, 1, overview["courses"])
	assert.Len(t, overview["users_by_role"], 3)

	status, body = p.do("GET", "/api/v1/admin/email-deliveries?status=queued&type=new_course", nil, adminToken)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, body.List(), 1)
	assert.Equal(t, "alice@test.io", body.List()[0].(map[string]interface{})["to_email"])

	status, body = p.do("GET", "/api/v1/admin/email-deliveries?status=sent", nil, adminToken)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, body.List())

	status, body = p.do("GET", "/api/v1/admin/cron-logs?job=email_retry", nil, adminToken)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, body.List(), 1)

	status, body = p.do("GET", fmt.Sprintf("/api/v1/admin/users/%d", profID), nil, adminToken)
	require.Equal(t, fiber.StatusOK, status)
	assert.NotNil(t, body.Data()["stats"])

	status, _ = p.do("GET", "/api/v1/admin/users/9999", nil, adminToken)
	assert.Equal(t, fiber.StatusNotFound, status)
}
