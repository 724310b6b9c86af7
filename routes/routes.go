package routes

import (
	"context"

	"schooladmin/config"
	"schooladmin/controllers"
	"schooladmin/middleware"
	"schooladmin/services"
	"schooladmin/services/reportcard"
	"schooladmin/services/websocket"
	"schooladmin/storage"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Deps carries the services the routes are built from.
type Deps struct {
	Config     *config.Config
	Issuer     *middleware.TokenIssuer
	Hub        *websocket.Hub
	Storage    *storage.StorageService
	Activity   *services.ActivityLogService
	Archive    *services.LogArchiveService
	Health     *services.HealthService
	Auth       *services.AuthService
	Students   *services.StudentService
	Fees       *services.FeeService
	Attendance *services.AttendanceService
	Timetable  *services.TimetableService
	Results    *services.ResultService
	Directory  *services.DirectoryService
}

// NewDeps wires every service over db. redisClient, hub and store may be nil.
func NewDeps(ctx context.Context, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, hub *websocket.Hub, store *storage.StorageService) *Deps {
	var events services.EventPublisher
	if hub != nil {
		events = hub
	}

	issuer := middleware.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAccessExpiresIn, cfg.JWTRefreshExpiresIn)
	activity := services.NewActivityLogService(db, redisClient)
	attendance := services.NewAttendanceService(db, events)

	return &Deps{
		Config:     cfg,
		Issuer:     issuer,
		Hub:        hub,
		Storage:    store,
		Activity:   activity,
		Archive:    services.NewLogArchiveService(ctx, db, activity, cfg.AWSRegion, cfg.S3BucketName),
		Health:     services.NewHealthService(db, redisClient, cfg),
		Auth:       services.NewAuthService(db, issuer),
		Students:   services.NewStudentService(db),
		Fees:       services.NewFeeService(db, cfg.DefaultTerm),
		Attendance: attendance,
		Timetable:  services.NewTimetableService(db),
		Results:    services.NewResultService(db, attendance),
		Directory:  services.NewDirectoryService(db),
	}
}

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, d *Deps) {
	authController := controllers.NewAuthController(d.Auth, d.Activity)
	studentController := controllers.NewStudentController(d.Students)
	feeController := controllers.NewFeeController(d.Fees)
	attendanceController := controllers.NewAttendanceController(d.Attendance)
	timetableController := controllers.NewTimetableController(d.Timetable)
	resultController := controllers.NewResultController(d.Results, d.Storage, reportcard.Options{
		SchoolName: d.Config.SchoolName,
		LogoPath:   d.Config.SchoolLogoPath,
	}, d.Config.ReportCardArchive)
	classController := controllers.NewClassController(d.Directory)
	userController := controllers.NewUserController(d.Directory)
	logController := controllers.NewLogController(d.Activity, d.Archive)
	healthController := controllers.NewHealthController(d.Health)

	jwt := middleware.JWTMiddleware(d.Issuer)
	staff := middleware.Authorize(middleware.Staff)
	admin := middleware.Authorize(middleware.AdminOnly)

	app.Get("/health", healthController.GetHealthStatus)

	api := app.Group("/api")

	// Authentication routes
	auth := api.Group("/auth")
	auth.Get("/", authController.Index)
	auth.Post("/login", authController.Login)
	auth.Post("/refresh", middleware.RefreshMiddleware(d.Issuer), authController.Refresh)
	auth.Get("/me", jwt, authController.Me)

	students := api.Group("/students", jwt)
	students.Get("/", staff, studentController.GetStudents)
	students.Get("/:id", staff, studentController.GetStudent)
	students.Post("/", admin, studentController.CreateStudent)
	students.Put("/:id", admin, studentController.UpdateStudent)
	students.Delete("/:id", admin, studentController.DeleteStudent)

	fees := api.Group("/fees", jwt)
	fees.Get("/", staff, feeController.GetFees)
	fees.Get("/unpaid", staff, feeController.GetUnpaid)
	fees.Get("/unpaid/export", staff, feeController.ExportUnpaid)
	fees.Post("/", admin, feeController.RecordPayment)
	fees.Put("/:id", admin, feeController.UpdatePayment)

	attendance := api.Group("/attendance", jwt, staff)
	attendance.Post("/", attendanceController.MarkAttendance)
	attendance.Get("/report", attendanceController.GetReport)
	attendance.Get("/report/export", attendanceController.ExportReport)
	attendance.Get("/student/:student_id", attendanceController.GetStudentAttendance)

	timetable := api.Group("/timetable", jwt)
	timetable.Get("/", staff, timetableController.GetTimetable)
	timetable.Post("/", admin, timetableController.CreateEntry)
	timetable.Put("/:id", admin, timetableController.UpdateEntry)
	timetable.Delete("/:id", admin, timetableController.DeleteEntry)

	results := api.Group("/results", jwt, staff)
	results.Get("/", resultController.GetResults)
	results.Post("/", resultController.CreateResult)
	results.Put("/:id", resultController.UpdateResult)
	results.Get("/report-card/:student_id", resultController.GetReportCard)
	results.Get("/report-card/:student_id/pdf", resultController.GetReportCardPDF)
	results.Post("/report-card/:student_id/archive", resultController.ArchiveReportCard)

	classes := api.Group("/classes", jwt)
	classes.Get("/", staff, classController.GetClasses)
	classes.Get("/:id", staff, classController.GetClass)
	classes.Post("/", admin, classController.CreateClass)

	subjects := api.Group("/subjects", jwt)
	subjects.Get("/", staff, classController.GetSubjects)
	subjects.Post("/", admin, classController.CreateSubject)

	users := api.Group("/users", jwt, admin)
	users.Get("/", userController.GetUsers)
	users.Post("/", userController.CreateUser)
	users.Patch("/:id/status", userController.UpdateUserStatus)

	logs := api.Group("/logs", jwt, admin)
	logs.Get("/", logController.GetLogs)
	logs.Get("/stats", logController.GetLogStats)
	logs.Post("/flush-cache", logController.FlushCache)
	logs.Get("/archives", logController.GetArchives)
	logs.Post("/archive", logController.ArchiveLogs)

	if d.Hub != nil {
		wsController := controllers.NewWebSocketController(d.Hub, d.Issuer)
		app.Get("/ws/stats", jwt, admin, wsController.GetWebSocketStats)
		app.Get("/ws", wsController.Upgrade, wsController.WebSocketHandler())
	}
}
