package provider

import (
	"github.com/tohfa-market/internal/authz"
	"github.com/tohfa-market/internal/cache"
	"github.com/tohfa-market/internal/config"
	"github.com/tohfa-market/internal/logger"
	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/queue"
	"github.com/tohfa-market/internal/repository"
	"github.com/tohfa-market/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo         repository.AdminRepository
	UserRepo          repository.UserRepository
	CategoryRepo      repository.CategoryRepository
	VariantRepo       repository.VariantRepository
	SelectionRepo     repository.SelectionRepository
	ProductRepo       repository.ProductRepository
	CartRepo          repository.CartRepository
	OrderRepo         repository.OrderRepository
	WalletRepo        repository.WalletRepository
	NotificationRepo  repository.NotificationRepository
	LegacyVariantRepo repository.LegacyVariantRepository
	UserLoginLogRepo  repository.UserLoginLogRepository
	AuthzAuditLogRepo repository.AuthzAuditLogRepository

	// Services
	AuthzService        *authz.Service
	AuthzAuditService   *service.AuthzAuditService
	AuthService         *service.AuthService
	UserAuthService     *service.UserAuthService
	UserLoginLogService *service.UserLoginLogService
	CatalogService      *service.CatalogService
	SelectionService    *service.SelectionService
	StockService        *service.StockService
	ProductService      *service.ProductService
	CartService         *service.CartService
	OrderService        *service.OrderService
	WalletService       *service.WalletService
	NotificationService *service.NotificationService
	MigrationService    *service.MigrationService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.VariantRepo = repository.NewVariantRepository(db)
	c.SelectionRepo = repository.NewSelectionRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.WalletRepo = repository.NewWalletRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
	c.LegacyVariantRepo = repository.NewLegacyVariantRepository(db)
	c.UserLoginLogRepo = repository.NewUserLoginLogRepository(db)
	c.AuthzAuditLogRepo = repository.NewAuthzAuditLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.AuthzAuditService = service.NewAuthzAuditService(c.AuthzAuditLogRepo)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserLoginLogService = service.NewUserLoginLogService(c.UserLoginLogRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.UserLoginLogService)
	c.CatalogService = service.NewCatalogService(c.CategoryRepo, c.VariantRepo, c.SelectionRepo)
	c.StockService = service.NewStockService(c.ProductRepo, c.SelectionRepo)
	c.SelectionService = service.NewSelectionService(c.ProductRepo, c.SelectionRepo, c.VariantRepo, c.CatalogService)
	c.ProductService = service.NewProductService(c.ProductRepo, c.SelectionRepo, c.CategoryRepo, c.UserRepo, c.CatalogService, c.StockService, c.QueueClient)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo, c.SelectionRepo, c.StockService)
	c.WalletService = service.NewWalletService(c.WalletRepo, c.UserRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.CartRepo, c.ProductRepo, c.SelectionRepo, c.UserRepo, c.StockService, c.WalletService, c.QueueClient, c.Config)
	c.NotificationService = service.NewNotificationService(c.NotificationRepo, c.OrderRepo, c.ProductRepo)
	c.MigrationService = service.NewMigrationService(c.LegacyVariantRepo, c.ProductRepo, c.VariantRepo, c.SelectionRepo, c.CatalogService)
}
