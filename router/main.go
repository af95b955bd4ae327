package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/config"
	"github.com/sahilchouksey/eduplatform-api/database"
	"github.com/sahilchouksey/eduplatform-api/handlers"
	admin_handlers "github.com/sahilchouksey/eduplatform-api/handlers/admin"
	analytics_handlers "github.com/sahilchouksey/eduplatform-api/handlers/analytics"
	auth_handlers "github.com/sahilchouksey/eduplatform-api/handlers/auth"
	comment_handlers "github.com/sahilchouksey/eduplatform-api/handlers/comment"
	course_handlers "github.com/sahilchouksey/eduplatform-api/handlers/course"
	dashboard_handlers "github.com/sahilchouksey/eduplatform-api/handlers/dashboard"
	notification_handlers "github.com/sahilchouksey/eduplatform-api/handlers/notification"
	profile_handlers "github.com/sahilchouksey/eduplatform-api/handlers/profile"
	search_handlers "github.com/sahilchouksey/eduplatform-api/handlers/search"
	student_handlers "github.com/sahilchouksey/eduplatform-api/handlers/student"
	subject_handlers "github.com/sahilchouksey/eduplatform-api/handlers/subject"
	submission_handlers "github.com/sahilchouksey/eduplatform-api/handlers/submission"
	upload_handlers "github.com/sahilchouksey/eduplatform-api/handlers/upload"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/services"
	"github.com/sahilchouksey/eduplatform-api/services/storage"
	"github.com/sahilchouksey/eduplatform-api/utils"
	"github.com/sahilchouksey/eduplatform-api/utils/auth"
	"github.com/sahilchouksey/eduplatform-api/utils/cache"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"github.com/sahilchouksey/eduplatform-api/utils/middleware"
)

// Deps are the long-lived components built by the app before routing
type Deps struct {
	Env           *config.EnviornmentVariable
	Log           *logger.Logger
	JWT           *auth.JWTManager
	Cache         *cache.RedisCache // nil when Redis is not configured
	ObjectStore   storage.ObjectStore
	Notifications *services.NotificationService

	DisableAccessLog bool
	RateLimit        int // requests per minute per IP, 0 disables
}

// NewJWTManager builds the token manager from the environment
func NewJWTManager(env *config.EnviornmentVariable) *auth.JWTManager {
	return auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        env.JWT_ISSUER,
	})
}

func SetupRoutes(app *fiber.App, store database.Storage, deps Deps) {
	db := store.DB()
	log := deps.Log

	// Services read through the cache only when Redis is up
	var jsonCache services.JSONCache
	if deps.Cache != nil {
		jsonCache = deps.Cache
	}
	var pinger handlers.Pinger
	if deps.Cache != nil {
		pinger = deps.Cache
	}

	bruteForceProtection := middleware.NewBruteForceProtection(deps.Cache, log)
	authMiddleware := middleware.NewAuthMiddleware(deps.JWT, db)

	// Services
	rosterService := services.NewRosterService(db)
	profileService := services.NewProfileService(db, rosterService)
	subjectService := services.NewSubjectService(db, rosterService)
	fileService := services.NewFileService(deps.ObjectStore)
	courseService := services.NewCourseService(db, rosterService, fileService, jsonCache, deps.Notifications, log)
	submissionService := services.NewSubmissionService(db, courseService, fileService, jsonCache, deps.Notifications, log)
	commentService := services.NewCommentService(db, courseService, deps.Notifications, log)
	dashboardService := services.NewDashboardService(db, rosterService, jsonCache, log)
	analyticsService := services.NewAnalyticsService(db, jsonCache, log)
	searchService := services.NewSearchService(db, rosterService)

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(db, deps.JWT, bruteForceProtection, deps.Notifications, deps.Env.APP_URL, log)
	profileHandler := profile_handlers.NewProfileHandler(profileService)
	studentHandler := student_handlers.NewStudentHandler(rosterService)
	subjectHandler := subject_handlers.NewSubjectHandler(subjectService)
	courseHandler := course_handlers.NewCourseHandler(courseService)
	submissionHandler := submission_handlers.NewSubmissionHandler(submissionService)
	commentHandler := comment_handlers.NewCommentHandler(commentService)
	dashboardHandler := dashboard_handlers.NewDashboardHandler(dashboardService)
	analyticsHandler := analytics_handlers.NewAnalyticsHandler(analyticsService)
	searchHandler := search_handlers.NewSearchHandler(searchService)
	uploadHandler := upload_handlers.NewUploadHandler(fileService, log)
	notificationHandler := notification_handlers.NewNotificationHandler(deps.Notifications, log)

	// Apply security middleware
	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    deps.Env.ALLOWED_ORIGINS,
		RateLimitRequests: deps.RateLimit,
		RateLimitWindow:   1 * time.Minute,
		DisableAccessLog:  deps.DisableAccessLog,
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth(pinger), store))

	// API v1 group
	api := app.Group("/api/v1")
	required := authMiddleware.Required()

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/forgot-password", authHandler.ForgotPassword)
	authGroup.Post("/reset-password", authHandler.ResetPassword)

	// Protected auth routes
	authGroup.Post("/logout", required, authHandler.Logout)
	authGroup.Post("/change-password", required, authHandler.ChangePassword)

	// Profile routes
	profile := api.Group("/profile", required)
	profile.Get("/", profileHandler.GetProfile)
	profile.Put("/", profileHandler.UpdateProfile)
	profile.Put("/professor", authMiddleware.RequireRole(model.RoleStudent), profileHandler.AssignProfessor)

	api.Get("/professors", required, profileHandler.ListProfessors)
	api.Get("/students", required, studentHandler.ListStudents)

	// Subjects
	subjects := api.Group("/subjects", required)
	subjects.Get("/", subjectHandler.ListSubjects)
	subjects.Get("/:id", subjectHandler.GetSubject)
	subjects.Post("/", authMiddleware.RequireProfessor(), subjectHandler.CreateSubject)
	subjects.Put("/:id", authMiddleware.RequireProfessor(), subjectHandler.UpdateSubject)
	subjects.Delete("/:id", authMiddleware.RequireProfessor(), subjectHandler.DeleteSubject)

	// Courses, with their submission and comment threads
	courses := api.Group("/courses", required)
	courses.Get("/", courseHandler.ListCourses)
	courses.Get("/:id", courseHandler.GetCourse)
	courses.Post("/", authMiddleware.RequireProfessor(), courseHandler.CreateCourse)
	courses.Put("/:id", authMiddleware.RequireProfessor(), courseHandler.UpdateCourse)
	courses.Delete("/:id", authMiddleware.RequireProfessor(), courseHandler.DeleteCourse)
	courses.Post("/:id/submission", authMiddleware.RequireRole(model.RoleStudent), submissionHandler.Submit)
	courses.Get("/:id/comments", commentHandler.ListComments)
	courses.Post("/:id/comments", commentHandler.CreateComment)

	api.Delete("/comments/:id", required, commentHandler.DeleteComment)

	// Submissions
	submissions := api.Group("/submissions", required)
	submissions.Get("/", submissionHandler.ListSubmissions)
	submissions.Post("/:id/grade", authMiddleware.RequireProfessor(), submissionHandler.GradeSubmission)
	submissions.Get("/:id/download", submissionHandler.DownloadSubmission)

	api.Get("/dashboard", required, dashboardHandler.GetDashboard)
	api.Get("/analytics", required, authMiddleware.RequireProfessor(), analyticsHandler.GetAnalytics)
	api.Get("/search", required, searchHandler.Search)

	// File uploads
	api.Post("/files/:bucket", required, uploadHandler.UploadFile)

	// Notifications
	notifications := api.Group("/notifications", required)
	notifications.Get("/", notificationHandler.GetNotifications)
	notifications.Get("/unread-count", notificationHandler.GetUnreadCount)
	notifications.Get("/stream", notificationHandler.StreamNotifications)
	notifications.Post("/read-all", notificationHandler.MarkAllAsRead)
	notifications.Post("/send", notificationHandler.Send)
	notifications.Post("/:id/read", notificationHandler.MarkAsRead)
	notifications.Delete("/:id", notificationHandler.DeleteNotification)

	// Admin panel
	admin := api.Group("/admin", required, authMiddleware.RequireAdmin())
	admin.Get("/overview", utils.MakeHTTPHandleFunc(admin_handlers.GetOverview, store))
	admin.Get("/users", utils.MakeHTTPHandleFunc(admin_handlers.ListUsers, store))
	admin.Get("/users/:id", utils.MakeHTTPHandleFunc(admin_handlers.GetUser, store))
	admin.Put("/users/:id/role", middleware.AdminAuditLog(db, log, "role_update", "users"), utils.MakeHTTPHandleFunc(admin_handlers.UpdateUserRole, store))
	admin.Delete("/users/:id", middleware.AdminAuditLog(db, log, "user_delete", "users"), utils.MakeHTTPHandleFunc(admin_handlers.DeleteUser, store))
	admin.Get("/audit-logs", utils.MakeHTTPHandleFunc(admin_handlers.ListAuditLogs, store))
	admin.Get("/audit-logs/:id", utils.MakeHTTPHandleFunc(admin_handlers.GetAuditLog, store))
	admin.Get("/email-deliveries", utils.MakeHTTPHandleFunc(admin_handlers.ListEmailDeliveries, store))
	admin.Get("/cron-logs", utils.MakeHTTPHandleFunc(admin_handlers.ListCronJobLogs, store))
}
