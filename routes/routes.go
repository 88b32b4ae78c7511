package routes

import (
	"net/http"
	"time"

	"cermont/controllers"
	"cermont/libs"
	"cermont/middleware"
	"cermont/models"
	"cermont/utils"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers bundles the controllers and the dependencies the middleware needs.
type Handlers struct {
	Auth       *controllers.AuthController
	Users      *controllers.UserController
	Customers  *controllers.CustomerController
	Orders     *controllers.OrderController
	WorkPlans  *controllers.WorkPlanController
	Executions *controllers.ExecutionController
	Checklists *controllers.ChecklistController
	Evidence   *controllers.EvidenceController
	Costs      *controllers.CostController
	Dashboard  *controllers.DashboardController
	Reports    *controllers.ReportController
	Portal     *controllers.PortalController
	Audit      *controllers.AuditController

	Tokens         *utils.TokenManager
	Revocations    middleware.RevocationChecker
	Cache          libs.Cache
	LoginRateLimit int
	UploadDir      string
	Log            *zap.Logger
}

const (
	admin      = models.RoleAdmin
	supervisor = models.RoleSupervisor
	tecnico    = models.RoleTecnico
	cliente    = models.RoleCliente
)

func SetupRoutes(router *gin.Engine, h *Handlers) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := router.Group("/api")

	loginLimit := middleware.RateLimit(h.Cache, "login", h.LoginRateLimit, 15*time.Minute, h.Log)
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", loginLimit, h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.POST("/auth/forgot-password", loginLimit, h.Auth.ForgotPassword)
	api.POST("/auth/reset-password", loginLimit, h.Auth.ResetPassword)

	auth := api.Group("/")
	auth.Use(middleware.AuthMiddleware(h.Tokens, h.Revocations))
	{
		auth.POST("/auth/logout", h.Auth.Logout)
		auth.GET("/auth/profile", h.Auth.GetProfile)
		auth.PATCH("/auth/profile", h.Auth.UpdateProfile)
		auth.POST("/auth/change-password", h.Auth.ChangePassword)
	}

	staff := auth.Group("/")
	staff.Use(middleware.RequireRoles(admin, supervisor, tecnico))
	{
		staff.GET("/orders", h.Orders.GetAllOrders)
		staff.GET("/orders/:id", h.Orders.GetOrderByID)
		staff.GET("/orders/:id/history", h.Orders.GetOrderHistory)
		staff.PATCH("/orders/:id/state", h.Orders.UpdateOrderState)

		staff.GET("/orders/:id/workplan", h.WorkPlans.Get)

		staff.GET("/orders/:id/execution", h.Executions.Get)
		staff.POST("/orders/:id/execution/start", h.Executions.Start)
		staff.POST("/orders/:id/execution/pause", h.Executions.Pause)
		staff.POST("/orders/:id/execution/resume", h.Executions.Resume)
		staff.PATCH("/orders/:id/execution/progress", h.Executions.UpdateProgress)
		staff.POST("/orders/:id/execution/tasks", h.Executions.AddTask)
		staff.PATCH("/orders/:id/execution/tasks/:taskId/toggle", h.Executions.ToggleTask)
		staff.POST("/orders/:id/execution/complete", h.Executions.Complete)

		staff.GET("/checklists/templates", h.Checklists.ListTemplates)
		staff.GET("/executions/:id/checklists", h.Checklists.ListByExecution)
		staff.POST("/executions/:id/checklists", h.Checklists.Attach)
		staff.GET("/checklists/:id", h.Checklists.Get)
		staff.PATCH("/checklists/:id/answers", h.Checklists.RecordAnswers)
		staff.POST("/checklists/:id/complete", h.Checklists.Complete)

		staff.GET("/orders/:id/evidence", h.Evidence.ListByOrder)
		staff.POST("/orders/:id/evidence", h.Evidence.Upload)
		staff.GET("/evidence/:id", h.Evidence.Get)
		staff.DELETE("/evidence/:id", h.Evidence.Delete)

		staff.GET("/orders/:id/costs", h.Costs.List)
		staff.GET("/orders/:id/costs/summary", h.Costs.Summary)

		staff.GET("/users/technicians", h.Users.ListTechnicians)
	}

	managers := auth.Group("/")
	managers.Use(middleware.RequireRoles(admin, supervisor))
	{
		managers.POST("/orders", h.Orders.CreateOrder)
		managers.PATCH("/orders/:id", h.Orders.UpdateOrder)
		managers.POST("/orders/:id/assign", h.Orders.AssignOrder)
		managers.POST("/orders/:id/archive", h.Orders.ArchiveOrder)
		managers.POST("/orders/:id/unarchive", h.Orders.UnarchiveOrder)
		managers.GET("/orders/archived", h.Orders.GetArchivedOrders)

		managers.POST("/orders/:id/workplan", h.WorkPlans.Create)
		managers.PUT("/orders/:id/workplan", h.WorkPlans.Update)
		managers.POST("/orders/:id/workplan/approve", h.WorkPlans.Approve)
		managers.POST("/orders/:id/workplan/reject", h.WorkPlans.Reject)

		managers.POST("/evidence/:id/approve", h.Evidence.Approve)
		managers.POST("/evidence/:id/reject", h.Evidence.Reject)

		managers.POST("/orders/:id/costs", h.Costs.Add)
		managers.DELETE("/orders/:id/costs/:itemId", h.Costs.Delete)

		managers.GET("/customers", h.Customers.List)
		managers.GET("/customers/:id", h.Customers.Get)
		managers.POST("/customers", h.Customers.Create)
		managers.PUT("/customers/:id", h.Customers.Update)

		managers.GET("/dashboard", h.Dashboard.GetDashboard)
		managers.POST("/dashboard/refresh", h.Dashboard.RefreshDashboard)
		managers.GET("/dashboard/workload", h.Dashboard.GetWorkload)

		managers.GET("/reports/orders/:id", h.Reports.OrderReport)
		managers.GET("/reports/orders.csv", h.Reports.ExportOrders)
	}

	adminGroup := auth.Group("/")
	adminGroup.Use(middleware.AdminMiddleware())
	{
		adminGroup.GET("/users", h.Users.GetAllUsers)
		adminGroup.GET("/users/:id", h.Users.GetUserByID)
		adminGroup.POST("/users", h.Users.CreateUser)
		adminGroup.PATCH("/users/:id", h.Users.UpdateUser)
		adminGroup.PATCH("/users/:id/active", h.Users.SetActive)
		adminGroup.POST("/users/:id/unlock", h.Users.Unlock)
		adminGroup.DELETE("/users/:id", h.Users.DeleteUser)

		adminGroup.DELETE("/orders/:id", h.Orders.DeleteOrder)
		adminGroup.DELETE("/customers/:id", h.Customers.Delete)
		adminGroup.POST("/orders/auto-archive", h.Orders.AutoArchive)

		adminGroup.GET("/audit", h.Audit.List)
		adminGroup.GET("/audit/:entity/:id", h.Audit.ByEntity)
	}

	portal := auth.Group("/portal")
	portal.Use(middleware.RequireRoles(cliente))
	{
		portal.GET("/orders", h.Portal.ListOrders)
		portal.GET("/orders/:id", h.Portal.GetOrder)
	}

	if h.UploadDir != "" {
		router.Static("/uploads", h.UploadDir)
	}
}
