package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/campushq/college-admin-api/internal/handler"
	"github.com/campushq/college-admin-api/internal/middleware"
	"github.com/campushq/college-admin-api/internal/models"
	"github.com/campushq/college-admin-api/internal/repository"
	"github.com/campushq/college-admin-api/internal/service"
	"github.com/campushq/college-admin-api/pkg/config"
	"github.com/campushq/college-admin-api/pkg/logger"
	corsmiddleware "github.com/campushq/college-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushq/college-admin-api/pkg/middleware/requestid"
)

// Dependencies collects everything the router needs to register routes.
type Dependencies struct {
	Config    *config.Config
	Logger    *zap.Logger
	AuditRepo *repository.AuditRepository

	AuthService    *service.AuthService
	MetricsService *service.MetricsService

	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Students      *handler.StudentHandler
	Promotions    *handler.PromotionHandler
	Fees          *handler.FeeHandler
	Clearances    *handler.ClearanceHandler
	Certificates  *handler.CertificateHandler
	Hostel        *handler.HostelHandler
	Bus           *handler.BusHandler
	Notifications *handler.NotificationHandler
	Dashboard     *handler.DashboardHandler
	Audit         *handler.AuditHandler
	Metrics       *handler.MetricsHandler
}

// New builds the gin engine with the full middleware chain and route table.
func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.MetricsService))

	r.GET("/health", deps.Metrics.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", deps.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.Auth.Login)
		auth.POST("/refresh", deps.Auth.Refresh)
		auth.POST("/forgot-password", deps.Auth.ForgotPassword)
		auth.POST("/reset-password", deps.Auth.ResetPassword)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(deps.AuthService))
	{
		authed.POST("/auth/logout", deps.Auth.Logout)
		authed.POST("/auth/change-password", deps.Auth.ChangePassword)
		authed.GET("/auth/me", deps.Auth.Me)
		authed.GET("/me/notifications", deps.Notifications.Inbox)
	}

	// Registry endpoints are shared by admins and office staff.
	staff := api.Group("")
	staff.Use(middleware.JWT(deps.AuthService))
	staff.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleStaff))
	{
		staff.GET("/students", deps.Students.List)
		staff.GET("/students/:id", deps.Students.Get)
		staff.GET("/fees/invoices", deps.Fees.ListInvoices)
		staff.GET("/fees/students/:id/outstanding", deps.Fees.StudentOutstanding)
		staff.POST("/fees/invoices/:id/payments", deps.Fees.RecordPayment)
		staff.GET("/hostel/rooms", deps.Hostel.ListRooms)
		staff.GET("/hostel/occupancy", deps.Hostel.Occupancy)
		staff.GET("/bus/routes", deps.Bus.ListRoutes)
		staff.GET("/certificates/students/:id", deps.Certificates.History)
		staff.GET("/exports/students", deps.Students.Export)
	}

	admin := api.Group("")
	admin.Use(middleware.JWT(deps.AuthService))
	admin.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))
	{
		admin.POST("/students", deps.Students.Create)
		admin.PUT("/students/:id", deps.Students.Update)
		admin.POST("/students/:id/decision", deps.Students.Decide)
		admin.DELETE("/students/:id", deps.Students.Delete)

		admin.GET("/promotions/stats", deps.Promotions.Stats)
		admin.POST("/promotions",
			middleware.Audit(deps.AuditRepo, models.AuditActionPromotionExecute, "promotions"),
			deps.Promotions.Promote)
		admin.POST("/promotions/undo",
			middleware.Audit(deps.AuditRepo, models.AuditActionPromotionUndo, "promotions"),
			deps.Promotions.Undo)

		admin.POST("/fees/invoices", deps.Fees.CreateInvoice)

		admin.POST("/clearances/students/:id", deps.Clearances.Request)
		admin.GET("/clearances/pending", deps.Clearances.ListPending)
		admin.POST("/clearances/decisions/:id", deps.Clearances.Decide)

		admin.POST("/certificates/students/:id", deps.Certificates.Issue)

		admin.POST("/hostel/rooms", deps.Hostel.CreateRoom)
		admin.POST("/hostel/rooms/:id/students/:student_id", deps.Hostel.Assign)
		admin.DELETE("/hostel/students/:student_id", deps.Hostel.Vacate)

		admin.POST("/bus/routes", deps.Bus.CreateRoute)
		admin.POST("/bus/routes/:id/students/:student_id", deps.Bus.Subscribe)
		admin.DELETE("/bus/students/:student_id", deps.Bus.Unsubscribe)

		admin.POST("/notifications", deps.Notifications.Notify)

		if cfg.Dashboard.Enabled {
			admin.GET("/dashboard/summary", deps.Dashboard.Summary)
			admin.GET("/dashboard/metrics", deps.Dashboard.SystemMetrics)
		}
	}

	super := api.Group("")
	super.Use(middleware.JWT(deps.AuthService))
	super.Use(middleware.RequireRoles(models.RoleSuperAdmin))
	{
		super.GET("/users", deps.Users.List)
		super.GET("/users/:id", deps.Users.Get)
		super.POST("/users", deps.Users.Create)
		super.PUT("/users/:id", deps.Users.Update)
		super.DELETE("/users/:id", deps.Users.Delete)

		super.GET("/audit-logs", deps.Audit.List)
	}

	return r
}
