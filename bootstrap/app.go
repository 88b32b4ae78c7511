// Package bootstrap assembles the application from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"cermont/config"
	"cermont/controllers"
	"cermont/libs"
	"cermont/middleware"
	"cermont/repositories"
	"cermont/routes"
	"cermont/services"
	"cermont/utils"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const evidenceFolder = "cermont/evidence"

type App struct {
	Config   *config.Config
	Log      *zap.Logger
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Cache    libs.Cache
	Notifier *libs.Notifier
	Router   *gin.Engine

	Users      *services.UserService
	Orders     *services.OrderService
	Checklists *services.ChecklistService
	Dashboard  *services.DashboardService

	stopNotifier context.CancelFunc
}

// NewLogger builds the application logger from configuration.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	return libs.NewLogger(cfg.LogLevel, cfg.LogFile, cfg.IsProduction())
}

func newStorage(cfg *config.Config) (libs.FileStorage, error) {
	if cfg.StorageDriver == "cloudinary" {
		return libs.NewCloudinaryStorage(cfg.CloudinaryURL, cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, evidenceFolder)
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return libs.NewLocalStorage(cfg.UploadDir, cfg.BaseURL), nil
}

func newMailer(cfg *config.Config, log *zap.Logger) libs.Mailer {
	if cfg.HasSMTP() {
		return libs.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	}
	log.Warn("SMTP not configured, notifications are only logged")
	return libs.NewLogMailer(log)
}

// New connects to PostgreSQL and redis and wires every layer. Redis is
// optional; without it an in-process cache is used.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	pool, err := config.ConnectDB(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Log: log, DB: pool}

	app.Redis = config.InitRedis(ctx, cfg, log)
	app.Cache = libs.NewCache(app.Redis)

	storage, err := newStorage(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	notifyCtx, stop := context.WithCancel(context.Background())
	app.stopNotifier = stop
	app.Notifier = libs.NewNotifier(newMailer(cfg, log), log, cfg.NotifierWorkers, 100)
	app.Notifier.Start(notifyCtx)

	app.wire(storage)
	return app, nil
}

func (a *App) wire(storage libs.FileStorage) {
	cfg, log := a.Config, a.Log

	users := repositories.NewUserRepository(a.DB)
	tokens := repositories.NewTokenRepository(a.DB)
	customers := repositories.NewCustomerRepository(a.DB)
	orders := repositories.NewOrderRepository(a.DB)
	workplans := repositories.NewWorkPlanRepository(a.DB)
	executions := repositories.NewExecutionRepository(a.DB)
	checklists := repositories.NewChecklistRepository(a.DB)
	evidences := repositories.NewEvidenceRepository(a.DB)
	costs := repositories.NewCostRepository(a.DB)
	audits := repositories.NewAuditRepository(a.DB)
	stats := repositories.NewStatsRepository(a.DB)

	jwt := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)
	auditSvc := services.NewAuditService(audits, log)
	authSvc := services.NewAuthService(users, tokens, jwt, a.Cache, a.Notifier, auditSvc, log, services.AuthConfig{
		MaxLoginAttempts: cfg.MaxLoginAttempts,
		LockoutDuration:  cfg.LockoutDuration,
		RefreshTokenTTL:  cfg.RefreshTokenTTL,
	})
	a.Users = services.NewUserService(users, tokens, auditSvc)
	a.Orders = services.NewOrderService(orders, workplans, executions, users, customers, auditSvc, a.Notifier, log)
	a.Checklists = services.NewChecklistService(checklists, executions, auditSvc, log)
	a.Dashboard = services.NewDashboardService(stats, a.Cache, cfg.KPICacheTTL, log)

	handlers := &routes.Handlers{
		Auth:       controllers.NewAuthController(authSvc, log),
		Users:      controllers.NewUserController(a.Users, log),
		Customers:  controllers.NewCustomerController(services.NewCustomerService(customers, auditSvc), log),
		Orders:     controllers.NewOrderController(a.Orders, cfg.AutoArchiveDays, log),
		WorkPlans:  controllers.NewWorkPlanController(services.NewWorkPlanService(workplans, orders, auditSvc), log),
		Executions: controllers.NewExecutionController(services.NewExecutionService(executions, workplans, orders, auditSvc), log),
		Checklists: controllers.NewChecklistController(a.Checklists, log),
		Evidence: controllers.NewEvidenceController(
			services.NewEvidenceService(evidences, orders, executions, users, storage, auditSvc, a.Notifier, log), log),
		Costs:     controllers.NewCostController(services.NewCostService(costs, orders, auditSvc, cfg.TaxRate), log),
		Dashboard: controllers.NewDashboardController(a.Dashboard, log),
		Reports: controllers.NewReportController(
			services.NewReportService(orders, workplans, executions, evidences, costs, auditSvc, cfg.TaxRate), log),
		Portal: controllers.NewPortalController(services.NewPortalService(orders, evidences, users), log),
		Audit:  controllers.NewAuditController(auditSvc, log),

		Tokens:         jwt,
		Revocations:    authSvc,
		Cache:          a.Cache,
		LoginRateLimit: cfg.RateLimitLogin,
		Log:            log,
	}
	if cfg.StorageDriver == "local" {
		handlers.UploadDir = cfg.UploadDir
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = 32 << 20
	router.Use(middleware.RequestID(), middleware.Logger(log), middleware.Recovery(log), middleware.CORSMiddleware(cfg.OriginURL))
	routes.SetupRoutes(router, handlers)
	a.Router = router
}

// Close drains the notification queue and releases connections.
func (a *App) Close() {
	if a.Notifier != nil {
		a.Notifier.Close()
	}
	if a.stopNotifier != nil {
		a.stopNotifier()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil && a.Log != nil {
			a.Log.Warn("failed to close redis", zap.Error(err))
		}
		a.Redis = nil
	}
	if a.DB != nil {
		a.DB.Close()
		a.DB = nil
	}
}
